package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storeport/migrator/internal/domain/migration"
)

func usdCache() *ReferenceCache {
	return NewReferenceCache(func(ctx context.Context, parentID string) (*migration.ParentRecord, error) {
		return &migration.ParentRecord{ID: parentID, Currency: "usd"}, nil
	})
}

func TestProductNormalizer_MonthlySubscription(t *testing.T) {
	normalizer := NewProductNormalizer("brand-1", usdCache(), zap.NewNop())
	raw := migration.SourceRecord{
		"id":       "A",
		"name":     "Product A",
		"store_id": "store-1",
		"variants": []migration.SourceRecord{{
			"id":              "v1",
			"price":           int64(999),
			"is_subscription": true,
			"interval":        "month",
		}},
	}

	products, drops := normalizer.Normalize(context.Background(), raw)

	require.Len(t, products, 1)
	assert.Empty(t, drops)
	product := products[0]
	assert.Equal(t, migration.ProductKindSubscription, product.Kind)
	assert.Equal(t, migration.BillingPeriodMonthly, product.Period)
	assert.Equal(t, int64(999), product.Price.Amount)
	assert.Equal(t, "USD", product.Price.Currency)
	assert.Equal(t, migration.BillingInterval{Unit: migration.IntervalMonth, Count: 1}, product.Interval)
	assert.Equal(t, "brand-1", product.BrandID)
	assert.Equal(t, "product:A:v1", product.Origin.String())
}

func TestProductNormalizer_OneTimeDecimalMajorUnits(t *testing.T) {
	normalizer := NewProductNormalizer("brand-1", usdCache(), zap.NewNop())
	raw := migration.SourceRecord{
		"id":       "B",
		"name":     "Product B",
		"store_id": "store-1",
		"variants": []migration.SourceRecord{{
			"id":            "v1",
			"price_decimal": "19.99",
		}},
	}

	products, drops := normalizer.Normalize(context.Background(), raw)

	require.Len(t, products, 1)
	assert.Empty(t, drops)
	product := products[0]
	assert.Equal(t, migration.ProductKindOneTime, product.Kind)
	assert.Equal(t, int64(1999), product.Price.Amount)
	assert.Equal(t, "USD", product.Price.Currency)
}

func TestProductNormalizer_UnsupportedIntervalsDrop(t *testing.T) {
	normalizer := NewProductNormalizer("brand-1", usdCache(), zap.NewNop())
	for _, interval := range []string{"week", "day", "quarter"} {
		raw := migration.SourceRecord{
			"id":       "P",
			"name":     "Weekly thing",
			"store_id": "store-1",
			"variants": []migration.SourceRecord{{
				"id":              "v1",
				"price":           int64(500),
				"is_subscription": true,
				"interval":        interval,
			}},
		}

		products, drops := normalizer.Normalize(context.Background(), raw)

		assert.Empty(t, products, "interval %s", interval)
		require.NotEmpty(t, drops, "interval %s", interval)
		assert.Contains(t, drops[0].Reason, "unsupported billing interval")
	}
}

func TestProductNormalizer_ExpandsAllEligibleVariants(t *testing.T) {
	normalizer := NewProductNormalizer("brand-1", usdCache(), zap.NewNop())
	raw := migration.SourceRecord{
		"id":       "multi",
		"name":     "Tiered",
		"store_id": "store-1",
		"variants": []migration.SourceRecord{
			{"id": "v1", "name": "Basic", "price": int64(500), "is_subscription": true, "interval": "month"},
			{"id": "v2", "name": "Pro", "price": int64(1500), "is_subscription": true, "interval": "month"},
			{"id": "v3", "name": "Annual", "price": int64(9900), "is_subscription": true, "interval": "year"},
		},
	}

	products, drops := normalizer.Normalize(context.Background(), raw)

	assert.Empty(t, drops)
	require.Len(t, products, 3)
	keys := map[string]bool{}
	for _, product := range products {
		keys[product.Origin.String()] = true
	}
	assert.Len(t, keys, 3, "origin keys must be distinct")

	// Re-running over unchanged input yields identical keys.
	again, _ := normalizer.Normalize(context.Background(), raw)
	require.Len(t, again, 3)
	for i := range again {
		assert.Equal(t, products[i].Origin, again[i].Origin)
	}
}

func TestProductNormalizer_SubscriptionVariantsTakePriority(t *testing.T) {
	normalizer := NewProductNormalizer("brand-1", usdCache(), zap.NewNop())
	raw := migration.SourceRecord{
		"id":       "mixed",
		"name":     "Mixed",
		"store_id": "store-1",
		"variants": []migration.SourceRecord{
			{"id": "one", "price": int64(2500)},
			{"id": "sub", "price": int64(900), "is_subscription": true, "interval": "month"},
		},
	}

	products, _ := normalizer.Normalize(context.Background(), raw)

	require.Len(t, products, 1)
	assert.Equal(t, migration.ProductKindSubscription, products[0].Kind)
	assert.Equal(t, "sub", products[0].Origin.Variant)
}

func TestProductNormalizer_OneTimeEmittedWhenNoEligibleSubscription(t *testing.T) {
	normalizer := NewProductNormalizer("brand-1", usdCache(), zap.NewNop())
	raw := migration.SourceRecord{
		"id":       "fallback",
		"name":     "Fallback",
		"store_id": "store-1",
		"variants": []migration.SourceRecord{
			{"id": "one", "price": int64(2500)},
			{"id": "weekly", "price": int64(900), "is_subscription": true, "interval": "week"},
		},
	}

	products, drops := normalizer.Normalize(context.Background(), raw)

	require.Len(t, products, 1)
	assert.Equal(t, migration.ProductKindOneTime, products[0].Kind)
	require.Len(t, drops, 1)
	assert.Contains(t, drops[0].Reason, "unsupported billing interval")
}

func TestProductNormalizer_DropCases(t *testing.T) {
	normalizer := NewProductNormalizer("brand-1", usdCache(), zap.NewNop())
	tests := []struct {
		name   string
		raw    migration.SourceRecord
		reason string
	}{
		{
			name:   "missing name",
			raw:    migration.SourceRecord{"id": "x"},
			reason: "missing product name",
		},
		{
			name:   "no variants",
			raw:    migration.SourceRecord{"id": "x", "name": "X"},
			reason: "no price variants",
		},
		{
			name: "no usable price",
			raw: migration.SourceRecord{
				"id": "x", "name": "X", "store_id": "s",
				"variants": []migration.SourceRecord{{"id": "v1"}},
			},
			reason: "no active price",
		},
		{
			name: "non-positive decimal",
			raw: migration.SourceRecord{
				"id": "x", "name": "X", "store_id": "s",
				"variants": []migration.SourceRecord{{"id": "v1", "price_decimal": "0.00"}},
			},
			reason: "non-positive amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, drops := normalizer.Normalize(context.Background(), tt.raw)
			assert.Empty(t, products)
			require.NotEmpty(t, drops)
			assert.Contains(t, drops[0].Reason, tt.reason)
		})
	}
}

func TestProductNormalizer_CurrencyResolutionFailureDrops(t *testing.T) {
	cache := NewReferenceCache(func(ctx context.Context, parentID string) (*migration.ParentRecord, error) {
		return nil, &migration.ProviderError{Kind: migration.ErrorKindNotFound, Message: "no store"}
	})
	normalizer := NewProductNormalizer("brand-1", cache, zap.NewNop())
	raw := migration.SourceRecord{
		"id": "x", "name": "X", "store_id": "missing",
		"variants": []migration.SourceRecord{{"id": "v1", "price": int64(100)}},
	}

	products, drops := normalizer.Normalize(context.Background(), raw)

	assert.Empty(t, products)
	require.NotEmpty(t, drops)
	assert.Contains(t, drops[0].Reason, "currency resolution failed")
}

func TestProductNormalizer_TermCap(t *testing.T) {
	normalizer := NewProductNormalizer("brand-1", usdCache(), zap.NewNop())
	raw := migration.SourceRecord{
		"id": "capped", "name": "Capped", "store_id": "s",
		"variants": []migration.SourceRecord{{
			"id": "v1", "price": int64(100), "is_subscription": true,
			"interval": "month", "total_cycles": int64(1000),
		}},
	}

	products, _ := normalizer.Normalize(context.Background(), raw)

	require.Len(t, products, 1)
	assert.Equal(t, 240, products[0].TermPeriods)
}

func TestProductNormalizer_SharedStoreSingleFetch(t *testing.T) {
	fetches := 0
	cache := NewReferenceCache(func(ctx context.Context, parentID string) (*migration.ParentRecord, error) {
		fetches++
		return &migration.ParentRecord{ID: parentID, Currency: "eur"}, nil
	})
	normalizer := NewProductNormalizer("brand-1", cache, zap.NewNop())

	for i := 0; i < 50; i++ {
		raw := migration.SourceRecord{
			"id": "p", "name": "P", "store_id": "store-1",
			"variants": []migration.SourceRecord{{"id": "v1", "price": int64(100)}},
		}
		products, _ := normalizer.Normalize(context.Background(), raw)
		require.Len(t, products, 1)
		assert.Equal(t, "EUR", products[0].Price.Currency)
	}

	assert.Equal(t, 1, fetches)
}
