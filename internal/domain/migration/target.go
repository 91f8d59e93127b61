package migration

import "context"

// TargetRef references a record created on the target platform. PriceID is
// only populated for products whose create call also provisioned a price.
type TargetRef struct {
	ID      string
	PriceID string
}

// TargetPlatform is the capability contract a target commerce platform must
// satisfy. Create calls are invoked once per canonical item during the
// apply phase; each returns the created record's reference or an error that
// is isolated to that item.
type TargetPlatform interface {
	// Name identifies the platform (used in logs).
	Name() string
	// ListBrands lists the namespaces records can be created under. Called
	// once before the pipeline to select the target namespace.
	ListBrands(ctx context.Context) ([]Brand, error)

	CreateProduct(ctx context.Context, p *Product) (*TargetRef, error)
	CreateDiscount(ctx context.Context, d *Discount) (*TargetRef, error)
	CreateCustomer(ctx context.Context, c *Customer) (*TargetRef, error)
	CreateSubscription(ctx context.Context, s *Subscription) (*TargetRef, error)
}
