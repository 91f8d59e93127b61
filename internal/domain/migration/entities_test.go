package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntervalUnit(t *testing.T) {
	tests := []struct {
		input string
		want  IntervalUnit
		ok    bool
	}{
		{"month", IntervalMonth, true},
		{"months", IntervalMonth, true},
		{"Month", IntervalMonth, true},
		{"YEAR", IntervalYear, true},
		{"years", IntervalYear, true},
		{"week", IntervalWeek, true},
		{"days", IntervalDay, true},
		{" month ", IntervalMonth, true},
		{"quarterly", "", false},
		{"fortnight", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseIntervalUnit(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBillingPeriodFor(t *testing.T) {
	period, ok := BillingPeriodFor(IntervalMonth)
	require.True(t, ok)
	assert.Equal(t, BillingPeriodMonthly, period)

	period, ok = BillingPeriodFor(IntervalYear)
	require.True(t, ok)
	assert.Equal(t, BillingPeriodYearly, period)

	// Day and week intervals are not billable periods.
	_, ok = BillingPeriodFor(IntervalWeek)
	assert.False(t, ok)
	_, ok = BillingPeriodFor(IntervalDay)
	assert.False(t, ok)
}

func TestMaxTermPeriods(t *testing.T) {
	assert.Equal(t, 240, MaxTermPeriods(BillingPeriodMonthly))
	assert.Equal(t, 20, MaxTermPeriods(BillingPeriodYearly))
}

func TestOriginKeyString(t *testing.T) {
	key := OriginKey{Kind: EntityKindProduct, SourceID: "42", Variant: "7"}
	assert.Equal(t, "product:42:7", key.String())

	// Same inputs always yield the same key.
	again := OriginKey{Kind: EntityKindProduct, SourceID: "42", Variant: "7"}
	assert.Equal(t, key.String(), again.String())

	noVariant := OriginKey{Kind: EntityKindDiscount, SourceID: "d1"}
	assert.Equal(t, "discount:d1", noVariant.String())
}

func TestParseEntityKind(t *testing.T) {
	kind, err := ParseEntityKind("products")
	require.NoError(t, err)
	assert.Equal(t, EntityKindProduct, kind)

	kind, err = ParseEntityKind("Subscription")
	require.NoError(t, err)
	assert.Equal(t, EntityKindSubscription, kind)

	kind, err = ParseEntityKind("PRODUCTS")
	require.NoError(t, err)
	assert.Equal(t, EntityKindProduct, kind)

	_, err = ParseEntityKind("orders")
	assert.Error(t, err)
}

func TestAddressEmpty(t *testing.T) {
	assert.True(t, Address{}.Empty())
	assert.False(t, Address{City: "Lisbon"}.Empty())
	assert.False(t, SentinelBillingAddress.Empty())
}
