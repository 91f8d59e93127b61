package pipeline

import (
	"go.uber.org/zap"

	"github.com/storeport/migrator/internal/domain/migration"
)

// CustomerNormalizer maps raw source customers into canonical customers.
//
// Expected raw shape: {id, email, name?, phone?, address_line1?,
// address_line2?, city?, region?, postal_code?, country?}.
type CustomerNormalizer struct {
	sourceName string
	logger     *zap.Logger
}

// NewCustomerNormalizer creates a customer normalizer. sourceName is
// preserved in each record's metadata as the originating platform.
func NewCustomerNormalizer(sourceName string, logger *zap.Logger) *CustomerNormalizer {
	return &CustomerNormalizer{
		sourceName: sourceName,
		logger:     logger,
	}
}

// Normalize maps one raw customer. Records without an email cannot be
// represented on the target and are dropped. Partial addresses are
// retained as-is.
func (n *CustomerNormalizer) Normalize(raw migration.SourceRecord) (*migration.Customer, *migration.Drop) {
	id := raw.ID()
	if id == "" {
		return nil, &migration.Drop{ItemID: "<unknown>", Reason: "missing customer id"}
	}
	email, ok := raw.String("email")
	if !ok {
		return nil, &migration.Drop{ItemID: id, Reason: "missing email"}
	}

	customer := &migration.Customer{
		Origin: migration.OriginKey{Kind: migration.EntityKindCustomer, SourceID: id},
		Email:  email,
		Metadata: map[string]string{
			migration.MetaSourcePlatform:   n.sourceName,
			migration.MetaSourceCustomerID: id,
		},
	}
	customer.Name, _ = raw.String("name")
	customer.Phone, _ = raw.String("phone")

	address := migration.Address{}
	address.Line1, _ = raw.String("address_line1")
	address.Line2, _ = raw.String("address_line2")
	address.City, _ = raw.String("city")
	address.Region, _ = raw.String("region")
	address.PostalCode, _ = raw.String("postal_code")
	address.Country, _ = raw.String("country")
	if !address.Empty() {
		customer.Address = &address
	}

	return customer, nil
}
