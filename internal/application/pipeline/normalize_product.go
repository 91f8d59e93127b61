package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/storeport/migrator/internal/domain/migration"
)

// ProductNormalizer maps raw source products into canonical products,
// expanding each source product into one canonical product per eligible
// price variant.
//
// Expected raw shape: {id, name, description?, store_id?, currency?,
// variants: [{id, name?, price?, price_decimal?, currency?,
// is_subscription?, interval?, interval_count?, total_cycles?}]}.
type ProductNormalizer struct {
	brandID string
	cache   *ReferenceCache
	logger  *zap.Logger
}

// NewProductNormalizer creates a product normalizer. The cache resolves the
// owning store's currency when a price carries none inline.
func NewProductNormalizer(brandID string, cache *ReferenceCache, logger *zap.Logger) *ProductNormalizer {
	return &ProductNormalizer{
		brandID: brandID,
		cache:   cache,
		logger:  logger,
	}
}

// Normalize expands one raw product into canonical products. Records that
// cannot be represented are returned as drops, never as errors; the run
// continues without them.
//
// When a product exposes both subscription-eligible and one-time-eligible
// prices, subscription variants take priority: one-time variants are only
// emitted when no eligible subscription price exists.
func (n *ProductNormalizer) Normalize(ctx context.Context, raw migration.SourceRecord) ([]*migration.Product, []migration.Drop) {
	id := raw.ID()
	if id == "" {
		return nil, []migration.Drop{{ItemID: "<unknown>", Reason: "missing product id"}}
	}
	name, ok := raw.String("name")
	if !ok {
		return nil, []migration.Drop{{ItemID: id, Reason: "missing product name"}}
	}
	description, _ := raw.String("description")

	variants := raw.Records("variants")
	if len(variants) == 0 {
		return nil, []migration.Drop{{ItemID: id, Reason: "no price variants"}}
	}

	var (
		subscriptions []*migration.Product
		oneTimes      []*migration.Product
		drops         []migration.Drop
	)

	for _, variant := range variants {
		product, drop := n.normalizeVariant(ctx, raw, variant, id, name, description)
		if drop != nil {
			drops = append(drops, *drop)
			continue
		}
		if product.Kind == migration.ProductKindSubscription {
			subscriptions = append(subscriptions, product)
		} else {
			oneTimes = append(oneTimes, product)
		}
	}

	// Subscription variants take priority over one-time variants.
	eligible := subscriptions
	if len(eligible) == 0 {
		eligible = oneTimes
	}

	if len(eligible) == 0 {
		drops = append(drops, migration.Drop{ItemID: id, Reason: "no active price"})
		return nil, drops
	}
	return eligible, drops
}

// normalizeVariant maps one price variant, returning either a canonical
// product or the drop that excludes it.
func (n *ProductNormalizer) normalizeVariant(ctx context.Context, raw, variant migration.SourceRecord, productID, name, description string) (*migration.Product, *migration.Drop) {
	variantID := variant.ID()
	if variantID == "" {
		return nil, &migration.Drop{ItemID: productID, Reason: "variant missing id"}
	}
	itemID := fmt.Sprintf("%s/%s", productID, variantID)

	price, reason := n.resolvePrice(ctx, raw, variant)
	if reason != "" {
		return nil, &migration.Drop{ItemID: itemID, Reason: reason}
	}

	displayName := name
	if variantName, ok := variant.String("name"); ok && variantName != name {
		displayName = fmt.Sprintf("%s - %s", name, variantName)
	}

	product := &migration.Product{
		Origin: migration.OriginKey{
			Kind:     migration.EntityKindProduct,
			SourceID: productID,
			Variant:  variantID,
		},
		Name:        displayName,
		Description: description,
		Kind:        migration.ProductKindOneTime,
		Price:       price,
		BrandID:     n.brandID,
	}

	if !variant.Bool("is_subscription") {
		return product, nil
	}

	intervalToken, ok := variant.String("interval")
	if !ok {
		return nil, &migration.Drop{ItemID: itemID, Reason: "subscription price without interval"}
	}
	unit, ok := migration.ParseIntervalUnit(intervalToken)
	if !ok {
		return nil, &migration.Drop{ItemID: itemID, Reason: fmt.Sprintf("unsupported billing interval %q", intervalToken)}
	}
	period, ok := migration.BillingPeriodFor(unit)
	if !ok {
		return nil, &migration.Drop{ItemID: itemID, Reason: fmt.Sprintf("unsupported billing interval %q", intervalToken)}
	}

	count, ok := variant.Int64("interval_count")
	if !ok || count <= 0 {
		count = 1
	}
	product.Kind = migration.ProductKindSubscription
	product.Period = period
	product.Interval = migration.BillingInterval{Unit: unit, Count: int(count)}

	if cycles, ok := variant.Int64("total_cycles"); ok && cycles > 0 {
		term := int(cycles)
		if limit := migration.MaxTermPeriods(period); term > limit {
			term = limit
		}
		product.TermPeriods = term
	}

	return product, nil
}

// resolvePrice applies the uniform money conversion rule: prefer an
// already-integer minor-unit amount, fall back to a decimal major-unit
// string, and resolve the currency inline or through the owning store.
// The returned reason is non-empty when the variant must be dropped.
func (n *ProductNormalizer) resolvePrice(ctx context.Context, raw, variant migration.SourceRecord) (migration.MoneyAmount, string) {
	amount, ok := variant.Int64("price")
	if !ok || amount <= 0 {
		decimalPrice, hasDecimal := variant.String("price_decimal")
		if !hasDecimal {
			// Some providers export the display price as a string under the
			// integer field's name.
			decimalPrice, hasDecimal = variant.String("price")
		}
		if !hasDecimal {
			return migration.MoneyAmount{}, "no active price"
		}
		minor, err := migration.MinorUnitsFromDecimal(decimalPrice)
		if err != nil {
			return migration.MoneyAmount{}, "non-positive amount"
		}
		amount = minor
	}

	code, reason := n.resolveCurrency(ctx, raw, variant)
	if reason != "" {
		return migration.MoneyAmount{}, reason
	}

	money, err := migration.NewMoneyAmount(amount, code)
	if err != nil {
		return migration.MoneyAmount{}, err.Error()
	}
	return money, ""
}

// resolveCurrency prefers an inline currency on the variant or product,
// then falls back to the owning store via the reference cache.
func (n *ProductNormalizer) resolveCurrency(ctx context.Context, raw, variant migration.SourceRecord) (string, string) {
	if code, ok := variant.String("currency"); ok {
		return code, ""
	}
	if code, ok := raw.String("currency"); ok {
		return code, ""
	}
	storeID, ok := raw.String("store_id")
	if !ok {
		return "", "currency resolution failed: no inline currency and no store id"
	}
	parent, err := n.cache.Resolve(ctx, storeID)
	if err != nil {
		n.logger.Warn("Store currency lookup failed",
			zap.String("store_id", storeID),
			zap.Error(err))
		return "", fmt.Sprintf("currency resolution failed: %v", err)
	}
	if parent.Currency == "" {
		return "", "currency resolution failed: store has no currency"
	}
	return parent.Currency, ""
}
