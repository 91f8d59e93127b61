package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/storeport/migrator/internal/domain/migration"
)

// SubscriptionNormalizer maps raw source subscriptions into canonical
// subscriptions, resolving the target product created during the product
// phase through the cross-entity linker.
//
// Expected raw shape: {id, product_id, variant_id?, user_email, user_name?,
// status?, address_line1?, city?, region?, postal_code?, country?}.
type SubscriptionNormalizer struct {
	linker     *Linker
	sourceName string
	logger     *zap.Logger
}

// NewSubscriptionNormalizer creates a subscription normalizer over the
// linker populated by the product apply phase.
func NewSubscriptionNormalizer(linker *Linker, sourceName string, logger *zap.Logger) *SubscriptionNormalizer {
	return &SubscriptionNormalizer{
		linker:     linker,
		sourceName: sourceName,
		logger:     logger,
	}
}

// Normalize maps one raw subscription. A subscription whose product was not
// migrated (dropped earlier, or failed to create) is a per-item drop, not a
// fatal error. A missing billing address falls back to the sentinel address
// and never fails the item.
func (n *SubscriptionNormalizer) Normalize(raw migration.SourceRecord) (*migration.Subscription, *migration.Drop) {
	id := raw.ID()
	if id == "" {
		return nil, &migration.Drop{ItemID: "<unknown>", Reason: "missing subscription id"}
	}
	email, ok := raw.String("user_email")
	if !ok {
		return nil, &migration.Drop{ItemID: id, Reason: "missing email"}
	}
	productID, ok := raw.String("product_id")
	if !ok {
		return nil, &migration.Drop{ItemID: id, Reason: "missing product id"}
	}
	variantID, _ := raw.String("variant_id")

	origin := migration.OriginKey{
		Kind:     migration.EntityKindProduct,
		SourceID: productID,
		Variant:  variantID,
	}
	ref, ok := n.linker.Lookup(origin)
	if !ok {
		return nil, &migration.Drop{
			ItemID: id,
			Reason: fmt.Sprintf("product not migrated: %s", origin),
		}
	}

	subscription := &migration.Subscription{
		Origin:          migration.OriginKey{Kind: migration.EntityKindSubscription, SourceID: id},
		TargetProductID: ref.ID,
		TargetPriceID:   ref.PriceID,
		CustomerEmail:   email,
		Metadata: map[string]string{
			migration.MetaSourcePlatform:       n.sourceName,
			migration.MetaSourceSubscriptionID: id,
		},
	}
	subscription.CustomerName, _ = raw.String("user_name")

	if customerID, ok := raw.String("customer_id"); ok {
		subscription.Metadata[migration.MetaSourceCustomerID] = customerID
	}
	if status, ok := raw.String("status"); ok {
		subscription.Metadata[migration.MetaOriginalStatus] = status
	}

	address := migration.Address{}
	address.Line1, _ = raw.String("address_line1")
	address.Line2, _ = raw.String("address_line2")
	address.City, _ = raw.String("city")
	address.Region, _ = raw.String("region")
	address.PostalCode, _ = raw.String("postal_code")
	address.Country, _ = raw.String("country")
	if address.Empty() {
		n.logger.Debug("Subscription has no billing address, using sentinel",
			zap.String("subscription_id", id))
		address = migration.SentinelBillingAddress
	}
	subscription.BillingAddress = address

	return subscription, nil
}
