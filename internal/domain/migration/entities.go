package migration

import (
	"fmt"
	"strings"
	"time"
)

// EntityKind identifies the unit of extraction/normalization/apply phasing.
type EntityKind string

// Supported entity kinds, in their fixed processing order.
const (
	EntityKindProduct      EntityKind = "product"
	EntityKindDiscount     EntityKind = "discount"
	EntityKindCustomer     EntityKind = "customer"
	EntityKindSubscription EntityKind = "subscription"
)

// KindOrder is the fixed dependency order of phases: products must be
// migrated before the subscriptions that reference them.
var KindOrder = []EntityKind{
	EntityKindProduct,
	EntityKindDiscount,
	EntityKindCustomer,
	EntityKindSubscription,
}

// ParseEntityKind parses a kind name (singular or plural).
func ParseEntityKind(s string) (EntityKind, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "product":
		return EntityKindProduct, nil
	case "discount":
		return EntityKindDiscount, nil
	case "customer":
		return EntityKindCustomer, nil
	case "subscription":
		return EntityKindSubscription, nil
	default:
		return "", fmt.Errorf("migration: unknown entity kind %q", s)
	}
}

// ProductKind distinguishes one-time purchases from recurring subscriptions.
type ProductKind string

const (
	ProductKindOneTime      ProductKind = "one_time"
	ProductKindSubscription ProductKind = "subscription"
)

// BillingPeriod is the normalized subscription cadence.
type BillingPeriod string

const (
	BillingPeriodMonthly BillingPeriod = "monthly"
	BillingPeriodYearly  BillingPeriod = "yearly"
)

// IntervalUnit is the normalized payment interval vocabulary.
type IntervalUnit string

const (
	IntervalDay   IntervalUnit = "day"
	IntervalWeek  IntervalUnit = "week"
	IntervalMonth IntervalUnit = "month"
	IntervalYear  IntervalUnit = "year"
)

// ParseIntervalUnit normalizes a source interval token (case-insensitive,
// singular or plural) into the fixed vocabulary. Unknown tokens are
// rejected rather than guessed.
func ParseIntervalUnit(s string) (IntervalUnit, bool) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "day":
		return IntervalDay, true
	case "week":
		return IntervalWeek, true
	case "month":
		return IntervalMonth, true
	case "year":
		return IntervalYear, true
	default:
		return "", false
	}
}

// BillingPeriodFor maps a supported subscription interval to its billing
// period. Day and week intervals are not billable periods on the target.
func BillingPeriodFor(unit IntervalUnit) (BillingPeriod, bool) {
	switch unit {
	case IntervalMonth:
		return BillingPeriodMonthly, true
	case IntervalYear:
		return BillingPeriodYearly, true
	default:
		return "", false
	}
}

// MaxTermPeriods caps a bounded subscription term at 20 years expressed in
// the given billing period.
func MaxTermPeriods(period BillingPeriod) int {
	if period == BillingPeriodYearly {
		return 20
	}
	return 240
}

// BillingInterval is the payment cadence of a subscription product.
type BillingInterval struct {
	Unit  IntervalUnit
	Count int
}

// OriginKey is a stable identifier derived from a source record. Two runs
// over unchanged source data produce identical keys.
type OriginKey struct {
	Kind     EntityKind
	SourceID string
	Variant  string
}

// String renders the key in its canonical form.
func (k OriginKey) String() string {
	if k.Variant == "" {
		return fmt.Sprintf("%s:%s", k.Kind, k.SourceID)
	}
	return fmt.Sprintf("%s:%s:%s", k.Kind, k.SourceID, k.Variant)
}

// Product is the canonical catalog item applied to the target platform.
// A subscription product additionally carries its billing period, payment
// cadence and an optional bounded term.
type Product struct {
	Origin      OriginKey
	Name        string
	Description string
	Kind        ProductKind
	Period      BillingPeriod   // subscription only
	Interval    BillingInterval // subscription only
	TermPeriods int             // 0 = unbounded
	Price       MoneyAmount
	BrandID     string
}

// DiscountType distinguishes percentage from fixed-amount discounts.
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"
	DiscountTypeFixedAmount DiscountType = "fixed_amount"
)

// Discount is the canonical discount code. Exactly one of PercentOff and
// AmountOff is set, matching Type.
type Discount struct {
	Origin         OriginKey
	Code           string
	Name           string
	Type           DiscountType
	PercentOff     int64        // percentage only, 1-100
	AmountOff      *MoneyAmount // fixed_amount only
	MaxRedemptions int          // 0 = unlimited
	ExpiresAt      *time.Time
}

// Address is a postal address. Partial addresses are retained as-is.
type Address struct {
	Line1      string
	Line2      string
	City       string
	Region     string
	PostalCode string
	Country    string
}

// Empty reports whether no address component is present.
func (a Address) Empty() bool {
	return a == Address{}
}

// SentinelBillingAddress is the fallback used when a source subscription
// carries no billing address. A missing address never fails the item.
var SentinelBillingAddress = Address{
	Line1:      "Unknown",
	City:       "Unknown",
	PostalCode: "00000",
	Country:    "US",
}

// Metadata keys preserved on migrated records.
const (
	MetaSourcePlatform       = "source_platform"
	MetaSourceCustomerID     = "source_customer_id"
	MetaSourceSubscriptionID = "source_subscription_id"
	MetaOriginalStatus       = "original_status"
	MetaOriginKey            = "origin_key"
)

// Customer is the canonical customer record.
type Customer struct {
	Origin   OriginKey
	Email    string
	Name     string
	Phone    string
	Address  *Address
	Metadata map[string]string
}

// Subscription is the canonical subscription record. Target references are
// resolved from the product phase via the cross-entity linker before apply.
type Subscription struct {
	Origin          OriginKey
	TargetProductID string
	TargetPriceID   string
	CustomerEmail   string
	CustomerName    string
	BillingAddress  Address
	Metadata        map[string]string
}

// Brand is a namespace on the target platform that owns migrated records.
type Brand struct {
	ID   string
	Name string
}

// Drop records a source item that normalization could not represent.
// Drops are logged and excluded from the plan; they never abort the run.
type Drop struct {
	ItemID string
	Reason string
}

// Failure records a per-item apply failure.
type Failure struct {
	ItemID  string
	Message string
}

// Outcome aggregates the apply phase for one entity kind. A single item's
// failure never aborts the batch, so Attempted == Succeeded + Failed.
type Outcome struct {
	Kind      EntityKind
	Attempted int
	Succeeded int
	Failed    int
	Failures  []Failure
}
