package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storeport/migrator/internal/domain/migration"
)

func TestSubscriptionNormalizer_LinksMigratedProduct(t *testing.T) {
	linker := NewLinker()
	linker.Record(
		migration.OriginKey{Kind: migration.EntityKindProduct, SourceID: "42", Variant: "7"},
		migration.TargetRef{ID: "prod_abc", PriceID: "price_abc"},
	)
	normalizer := NewSubscriptionNormalizer(linker, "lemonsqueezy", zap.NewNop())
	raw := migration.SourceRecord{
		"id":          "s1",
		"product_id":  "42",
		"variant_id":  "7",
		"user_email":  "ada@example.com",
		"user_name":   "Ada Lovelace",
		"customer_id": "c1",
		"status":      "active",
		"city":        "London",
		"country":     "GB",
	}

	subscription, drop := normalizer.Normalize(raw)

	require.Nil(t, drop)
	assert.Equal(t, "prod_abc", subscription.TargetProductID)
	assert.Equal(t, "price_abc", subscription.TargetPriceID)
	assert.Equal(t, "ada@example.com", subscription.CustomerEmail)
	assert.Equal(t, "subscription:s1", subscription.Origin.String())
	assert.Equal(t, "s1", subscription.Metadata[migration.MetaSourceSubscriptionID])
	assert.Equal(t, "c1", subscription.Metadata[migration.MetaSourceCustomerID])
	assert.Equal(t, "active", subscription.Metadata[migration.MetaOriginalStatus])
	assert.Equal(t, "London", subscription.BillingAddress.City)
}

func TestSubscriptionNormalizer_UnmigratedProductDrops(t *testing.T) {
	normalizer := NewSubscriptionNormalizer(NewLinker(), "lemonsqueezy", zap.NewNop())
	raw := migration.SourceRecord{
		"id":         "s2",
		"product_id": "99",
		"variant_id": "1",
		"user_email": "ada@example.com",
	}

	subscription, drop := normalizer.Normalize(raw)

	assert.Nil(t, subscription)
	require.NotNil(t, drop)
	assert.Equal(t, "s2", drop.ItemID)
	assert.Contains(t, drop.Reason, "product not migrated")
	assert.Contains(t, drop.Reason, "product:99:1")
}

func TestSubscriptionNormalizer_MissingAddressUsesSentinel(t *testing.T) {
	linker := NewLinker()
	linker.Record(
		migration.OriginKey{Kind: migration.EntityKindProduct, SourceID: "42", Variant: "7"},
		migration.TargetRef{ID: "prod_abc", PriceID: "price_abc"},
	)
	normalizer := NewSubscriptionNormalizer(linker, "lemonsqueezy", zap.NewNop())
	raw := migration.SourceRecord{
		"id":         "s3",
		"product_id": "42",
		"variant_id": "7",
		"user_email": "ada@example.com",
	}

	subscription, drop := normalizer.Normalize(raw)

	require.Nil(t, drop)
	assert.Equal(t, migration.SentinelBillingAddress, subscription.BillingAddress)
}

func TestSubscriptionNormalizer_MissingEmailDrops(t *testing.T) {
	normalizer := NewSubscriptionNormalizer(NewLinker(), "lemonsqueezy", zap.NewNop())

	subscription, drop := normalizer.Normalize(migration.SourceRecord{"id": "s4", "product_id": "42"})

	assert.Nil(t, subscription)
	require.NotNil(t, drop)
	assert.Equal(t, "missing email", drop.Reason)
}
