package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/account"
	"github.com/stripe/stripe-go/v81/coupon"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/product"
	"github.com/stripe/stripe-go/v81/promotioncode"
	"github.com/stripe/stripe-go/v81/subscription"
	"go.uber.org/zap"

	"github.com/storeport/migrator/internal/domain/migration"
)

// StripeTarget implements the target platform contract on Stripe. Each
// canonical product is created with an inline default price; discounts
// become a coupon plus a promotion code carrying the human-readable code;
// subscriptions create their subscriber customer and attach to the price
// provisioned during the product phase.
type StripeTarget struct {
	config *StripeConfig
	logger *zap.Logger
}

// NewStripeTarget creates a new Stripe target adapter.
func NewStripeTarget(config *StripeConfig, logger *zap.Logger) (*StripeTarget, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Initialize Stripe client
	config.InitStripeClient()

	return &StripeTarget{
		config: config,
		logger: logger,
	}, nil
}

// Name returns the platform identifier used in logs.
func (t *StripeTarget) Name() string {
	return "stripe"
}

// ListBrands derives the single namespace a Stripe key can create records
// under. Stripe has no sub-namespaces per key, so the account itself is the
// one selectable brand.
func (t *StripeTarget) ListBrands(ctx context.Context) ([]migration.Brand, error) {
	acct, err := account.Get()
	if err != nil {
		return nil, mapStripeError("list brands", err)
	}

	name := acct.ID
	if acct.Settings != nil && acct.Settings.Dashboard != nil && acct.Settings.Dashboard.DisplayName != "" {
		name = acct.Settings.Dashboard.DisplayName
	}
	return []migration.Brand{{ID: acct.ID, Name: name}}, nil
}

// CreateProduct creates a product with an inline default price. For
// subscription products the price recurs on the canonical billing interval.
func (t *StripeTarget) CreateProduct(ctx context.Context, p *migration.Product) (*migration.TargetRef, error) {
	t.logger.Debug("Creating Stripe product",
		zap.String("origin", p.Origin.String()),
		zap.String("name", p.Name))

	params := &stripe.ProductParams{
		Name: stripe.String(p.Name),
		DefaultPriceData: &stripe.ProductDefaultPriceDataParams{
			Currency:   stripe.String(strings.ToLower(p.Price.Currency)),
			UnitAmount: stripe.Int64(p.Price.Amount),
		},
		Metadata: map[string]string{
			migration.MetaOriginKey: p.Origin.String(),
			"brand_id":              p.BrandID,
		},
	}
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	if p.Kind == migration.ProductKindSubscription {
		params.DefaultPriceData.Recurring = &stripe.ProductDefaultPriceDataRecurringParams{
			Interval:      stripe.String(string(p.Interval.Unit)),
			IntervalCount: stripe.Int64(int64(p.Interval.Count)),
		}
		if p.TermPeriods > 0 {
			params.Metadata["term_periods"] = fmt.Sprintf("%d", p.TermPeriods)
		}
	}
	params.AddExpand("default_price")

	prod, err := product.New(params)
	if err != nil {
		return nil, mapStripeError("create product", err)
	}

	ref := &migration.TargetRef{ID: prod.ID}
	if prod.DefaultPrice != nil {
		ref.PriceID = prod.DefaultPrice.ID
	}

	t.logger.Info("Created Stripe product",
		zap.String("origin", p.Origin.String()),
		zap.String("product_id", ref.ID),
		zap.String("price_id", ref.PriceID))
	return ref, nil
}

// CreateDiscount creates a coupon and binds the source's human-readable
// code to it via a promotion code.
func (t *StripeTarget) CreateDiscount(ctx context.Context, d *migration.Discount) (*migration.TargetRef, error) {
	t.logger.Debug("Creating Stripe coupon",
		zap.String("code", d.Code),
		zap.String("type", string(d.Type)))

	params := &stripe.CouponParams{
		Name:     stripe.String(d.Name),
		Duration: stripe.String(string(stripe.CouponDurationForever)),
	}
	if d.Type == migration.DiscountTypePercentage {
		params.PercentOff = stripe.Float64(float64(d.PercentOff))
	} else {
		params.AmountOff = stripe.Int64(d.AmountOff.Amount)
		params.Currency = stripe.String(strings.ToLower(d.AmountOff.Currency))
	}
	if d.MaxRedemptions > 0 {
		params.MaxRedemptions = stripe.Int64(int64(d.MaxRedemptions))
	}
	if d.ExpiresAt != nil {
		params.RedeemBy = stripe.Int64(d.ExpiresAt.Unix())
	}

	cpn, err := coupon.New(params)
	if err != nil {
		return nil, mapStripeError("create coupon", err)
	}

	promoParams := &stripe.PromotionCodeParams{
		Coupon: stripe.String(cpn.ID),
		Code:   stripe.String(d.Code),
	}
	promo, err := promotioncode.New(promoParams)
	if err != nil {
		return nil, mapStripeError("create promotion code", err)
	}

	t.logger.Info("Created Stripe coupon",
		zap.String("code", d.Code),
		zap.String("coupon_id", cpn.ID),
		zap.String("promotion_code_id", promo.ID))
	return &migration.TargetRef{ID: cpn.ID}, nil
}

// CreateCustomer creates a customer record.
func (t *StripeTarget) CreateCustomer(ctx context.Context, c *migration.Customer) (*migration.TargetRef, error) {
	t.logger.Debug("Creating Stripe customer", zap.String("email", c.Email))

	params := &stripe.CustomerParams{
		Email:    stripe.String(c.Email),
		Metadata: c.Metadata,
	}
	if c.Name != "" {
		params.Name = stripe.String(c.Name)
	}
	if c.Phone != "" {
		params.Phone = stripe.String(c.Phone)
	}
	if c.Address != nil {
		params.Address = addressParams(*c.Address)
	}

	cust, err := customer.New(params)
	if err != nil {
		return nil, mapStripeError("create customer", err)
	}

	t.logger.Info("Created Stripe customer",
		zap.String("email", c.Email),
		zap.String("customer_id", cust.ID))
	return &migration.TargetRef{ID: cust.ID}, nil
}

// CreateSubscription creates the subscriber customer and a subscription
// against the target price provisioned during the product phase.
func (t *StripeTarget) CreateSubscription(ctx context.Context, s *migration.Subscription) (*migration.TargetRef, error) {
	if s.TargetPriceID == "" {
		return nil, errors.New("stripe: subscription has no target price")
	}

	t.logger.Debug("Creating Stripe subscription",
		zap.String("origin", s.Origin.String()),
		zap.String("price_id", s.TargetPriceID))

	custParams := &stripe.CustomerParams{
		Email:    stripe.String(s.CustomerEmail),
		Address:  addressParams(s.BillingAddress),
		Metadata: s.Metadata,
	}
	if s.CustomerName != "" {
		custParams.Name = stripe.String(s.CustomerName)
	}
	cust, err := customer.New(custParams)
	if err != nil {
		return nil, mapStripeError("create subscriber", err)
	}

	subParams := &stripe.SubscriptionParams{
		Customer: stripe.String(cust.ID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(s.TargetPriceID)},
		},
		Metadata: s.Metadata,
	}
	sub, err := subscription.New(subParams)
	if err != nil {
		return nil, mapStripeError("create subscription", err)
	}

	t.logger.Info("Created Stripe subscription",
		zap.String("origin", s.Origin.String()),
		zap.String("subscription_id", sub.ID),
		zap.String("customer_id", cust.ID))
	return &migration.TargetRef{ID: sub.ID}, nil
}

// addressParams converts a canonical address to Stripe address params.
func addressParams(a migration.Address) *stripe.AddressParams {
	params := &stripe.AddressParams{}
	if a.Line1 != "" {
		params.Line1 = stripe.String(a.Line1)
	}
	if a.Line2 != "" {
		params.Line2 = stripe.String(a.Line2)
	}
	if a.City != "" {
		params.City = stripe.String(a.City)
	}
	if a.Region != "" {
		params.State = stripe.String(a.Region)
	}
	if a.PostalCode != "" {
		params.PostalCode = stripe.String(a.PostalCode)
	}
	if a.Country != "" {
		params.Country = stripe.String(a.Country)
	}
	return params
}

// mapStripeError converts a Stripe error into the typed provider taxonomy
// so the pipeline can report status codes and classify auth failures.
func mapStripeError(op string, err error) error {
	var serr *stripe.Error
	if !errors.As(err, &serr) {
		return fmt.Errorf("stripe: failed to %s: %w", op, err)
	}

	perr := &migration.ProviderError{
		Kind:       migration.ErrorKindOther,
		StatusCode: serr.HTTPStatusCode,
		Message:    fmt.Sprintf("failed to %s: %s", op, serr.Msg),
	}
	switch serr.HTTPStatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		perr.Kind = migration.ErrorKindAuth
	case http.StatusNotFound:
		perr.Kind = migration.ErrorKindNotFound
	case http.StatusTooManyRequests:
		perr.Kind = migration.ErrorKindRateLimited
		perr.RetryAfter = time.Second
	}
	return perr
}

// Ensure StripeTarget implements the target platform contract
var _ migration.TargetPlatform = (*StripeTarget)(nil)
