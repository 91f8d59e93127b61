package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/storeport/migrator/internal/domain/migration"
)

// DiscountNormalizer maps raw source discounts into canonical discounts.
//
// Expected raw shape: {id, code, name?, amount?, amount_decimal?,
// amount_type, currency?, store_id?, max_uses?, expires_at?}.
type DiscountNormalizer struct {
	cache  *ReferenceCache
	now    func() time.Time
	logger *zap.Logger
}

// NewDiscountNormalizer creates a discount normalizer. The cache resolves
// the owning store's currency for fixed-amount discounts without one inline.
func NewDiscountNormalizer(cache *ReferenceCache, logger *zap.Logger) *DiscountNormalizer {
	return &DiscountNormalizer{
		cache:  cache,
		now:    time.Now,
		logger: logger,
	}
}

// Normalize maps one raw discount. A record is percentage if its declared
// type token contains "percent"; anything else is treated as fixed-amount.
// Expired discounts and fixed-amount discounts with no resolvable currency
// are dropped.
func (n *DiscountNormalizer) Normalize(ctx context.Context, raw migration.SourceRecord) (*migration.Discount, *migration.Drop) {
	id := raw.ID()
	if id == "" {
		return nil, &migration.Drop{ItemID: "<unknown>", Reason: "missing discount id"}
	}
	code, ok := raw.String("code")
	if !ok {
		return nil, &migration.Drop{ItemID: id, Reason: "missing discount code"}
	}
	name, ok := raw.String("name")
	if !ok {
		name = code
	}

	discount := &migration.Discount{
		Origin: migration.OriginKey{Kind: migration.EntityKindDiscount, SourceID: id},
		Code:   code,
		Name:   name,
	}

	expiresAt, drop := n.parseExpiry(raw, code)
	if drop != nil {
		return nil, drop
	}
	discount.ExpiresAt = expiresAt

	if uses, ok := raw.Int64("max_uses"); ok && uses > 0 {
		discount.MaxRedemptions = int(uses)
	}

	typeToken, _ := raw.String("amount_type")
	if strings.Contains(strings.ToLower(typeToken), "percent") {
		amount, ok := raw.Int64("amount")
		if !ok || amount <= 0 {
			return nil, &migration.Drop{ItemID: code, Reason: "non-positive amount"}
		}
		if amount > 100 {
			return nil, &migration.Drop{ItemID: code, Reason: fmt.Sprintf("percentage out of range: %d", amount)}
		}
		discount.Type = migration.DiscountTypePercentage
		discount.PercentOff = amount
		return discount, nil
	}

	amount, reason := n.resolveAmount(raw)
	if reason != "" {
		return nil, &migration.Drop{ItemID: code, Reason: reason}
	}

	currencyCode, reason := n.resolveCurrency(ctx, raw)
	if reason != "" {
		return nil, &migration.Drop{ItemID: code, Reason: reason}
	}
	money, err := migration.NewMoneyAmount(amount, currencyCode)
	if err != nil {
		return nil, &migration.Drop{ItemID: code, Reason: err.Error()}
	}
	discount.Type = migration.DiscountTypeFixedAmount
	discount.AmountOff = &money
	return discount, nil
}

// resolveAmount applies the uniform money conversion rule to a fixed-amount
// discount: prefer an already-integer minor-unit amount, fall back to a
// decimal major-unit string. The returned reason is non-empty when the
// record must be dropped.
func (n *DiscountNormalizer) resolveAmount(raw migration.SourceRecord) (int64, string) {
	amount, ok := raw.Int64("amount")
	if !ok || amount <= 0 {
		decimalAmount, hasDecimal := raw.String("amount_decimal")
		if !hasDecimal {
			decimalAmount, hasDecimal = raw.String("amount")
		}
		if !hasDecimal {
			return 0, "non-positive amount"
		}
		minor, err := migration.MinorUnitsFromDecimal(decimalAmount)
		if err != nil {
			return 0, "non-positive amount"
		}
		amount = minor
	}
	return amount, ""
}

// parseExpiry parses an optional ISO 8601 expiry. A timestamp that is not
// strictly in the future at normalization time drops the record.
func (n *DiscountNormalizer) parseExpiry(raw migration.SourceRecord, code string) (*time.Time, *migration.Drop) {
	value, ok := raw.String("expires_at")
	if !ok {
		return nil, nil
	}
	expiresAt, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, &migration.Drop{ItemID: code, Reason: fmt.Sprintf("unparseable expiry %q", value)}
	}
	if !expiresAt.After(n.now()) {
		return nil, &migration.Drop{ItemID: code, Reason: "discount already expired"}
	}
	return &expiresAt, nil
}

// resolveCurrency resolves the currency for a fixed-amount discount: inline
// first, then the owning store. A failure here drops the record; defaulting
// to an arbitrary currency would corrupt the migrated amount.
func (n *DiscountNormalizer) resolveCurrency(ctx context.Context, raw migration.SourceRecord) (string, string) {
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
