package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storeport/migrator/internal/domain/migration"
)

// ErrRunAborted is returned when the operator declines a confirmation gate.
// Already-applied items remain on the target; there is no rollback.
var ErrRunAborted = errors.New("pipeline: run aborted at confirmation gate")

// ErrBrandRequired is returned when the target exposes more than one brand
// and none was selected.
var ErrBrandRequired = errors.New("pipeline: target has multiple brands, one must be selected")

// Options configure a migration run.
type Options struct {
	// Kinds is the subset of entity kinds to migrate, in any order; the
	// runner always processes them in the fixed dependency order.
	Kinds []migration.EntityKind
	// BrandID selects the target namespace. Empty auto-selects when the
	// target exposes exactly one brand.
	BrandID string
	// PageSize is the extraction page size.
	PageSize int
	// DryRun stops after the preview without applying anything.
	DryRun bool
}

// Runner orchestrates the extraction, normalization, preview and apply
// phases per entity kind. It exclusively owns the reference cache and the
// cross-entity linker; each phase hands its typed collection to the next
// and nothing is mutated from more than one phase at a time.
type Runner struct {
	source    migration.SourceProvider
	target    migration.TargetPlatform
	presenter *PlanPresenter
	logger    *zap.Logger
	opts      Options

	extractor *Extractor
	cache     *ReferenceCache
	linker    *Linker
	apply     *ApplyEngine

	drops map[migration.EntityKind][]migration.Drop
}

// NewRunner wires a runner over the given source and target adapters.
func NewRunner(source migration.SourceProvider, target migration.TargetPlatform, presenter *PlanPresenter, logger *zap.Logger, opts Options) *Runner {
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	linker := NewLinker()
	return &Runner{
		source:    source,
		target:    target,
		presenter: presenter,
		logger:    logger,
		opts:      opts,
		extractor: NewExtractor(source, opts.PageSize, logger),
		cache:     NewReferenceCache(source.GetParent),
		linker:    linker,
		apply:     NewApplyEngine(linker, logger),
	}
}

// Drops returns the dropped records accumulated per entity kind.
func (r *Runner) Drops() map[migration.EntityKind][]migration.Drop {
	return r.drops
}

// Run executes all selected phases in dependency order and returns the
// per-kind outcomes. Extraction failures and gate aborts end the run
// immediately; per-item apply failures do not.
func (r *Runner) Run(ctx context.Context) ([]*migration.Outcome, error) {
	runID := uuid.NewString()
	log := r.logger.With(zap.String("run_id", runID))
	r.drops = make(map[migration.EntityKind][]migration.Drop)

	brand, err := r.resolveBrand(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("Migration run started",
		zap.String("source", r.source.Name()),
		zap.String("target", r.target.Name()),
		zap.String("brand_id", brand.ID),
		zap.Bool("dry_run", r.opts.DryRun))

	selected := make(map[migration.EntityKind]bool, len(r.opts.Kinds))
	for _, kind := range r.opts.Kinds {
		selected[kind] = true
	}

	var outcomes []*migration.Outcome
	for _, kind := range migration.KindOrder {
		if !selected[kind] {
			continue
		}
		outcome, err := r.runPhase(ctx, log, kind, brand.ID)
		if err != nil {
			return outcomes, err
		}
		if outcome != nil {
			outcomes = append(outcomes, outcome)
		}
	}

	if err := r.presenter.Summary(outcomes, r.drops); err != nil {
		return outcomes, err
	}
	log.Info("Migration run finished", zap.Int("phases", len(outcomes)))
	return outcomes, nil
}

// resolveBrand selects the target namespace once, before any phase runs.
func (r *Runner) resolveBrand(ctx context.Context) (*migration.Brand, error) {
	brands, err := r.target.ListBrands(ctx)
	if err != nil {
		return nil, fmt.Errorf("list target brands: %w", err)
	}
	if r.opts.BrandID != "" {
		for i := range brands {
			if brands[i].ID == r.opts.BrandID {
				return &brands[i], nil
			}
		}
		return nil, fmt.Errorf("pipeline: brand %q not found on target", r.opts.BrandID)
	}
	if len(brands) == 1 {
		return &brands[0], nil
	}
	return nil, ErrBrandRequired
}

// runPhase drives one entity kind end to end. A nil outcome with nil error
// means the phase was a dry run.
func (r *Runner) runPhase(ctx context.Context, log *zap.Logger, kind migration.EntityKind, brandID string) (*migration.Outcome, error) {
	extracted, err := r.extractor.ExtractAll(ctx, kind)
	if err != nil {
		return nil, err
	}

	items, rows := r.normalize(ctx, log, kind, brandID, extracted)
	if len(items) == 0 {
		log.Info("Nothing to migrate for kind", zap.String("kind", string(kind)))
		return &migration.Outcome{Kind: kind}, nil
	}

	approved, err := r.presenter.Present(kind, planHeader, rows)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, fmt.Errorf("%w (%s)", ErrRunAborted, kind)
	}
	if r.opts.DryRun {
		log.Info("Dry run: skipping apply phase", zap.String("kind", string(kind)))
		return &migration.Outcome{Kind: kind}, nil
	}

	return r.apply.Apply(ctx, kind, items), nil
}

var planHeader = []string{"NAME", "AMOUNT", "CURRENCY", "KIND", "CADENCE"}

// normalize folds the extracted collection into plan items and their
// preview rows, logging every drop individually.
func (r *Runner) normalize(ctx context.Context, log *zap.Logger, kind migration.EntityKind, brandID string, extracted []migration.SourceRecord) ([]PlanItem, [][]string) {
	var (
		items []PlanItem
		rows  [][]string
		drops []migration.Drop
	)

	switch kind {
	case migration.EntityKindProduct:
		normalizer := NewProductNormalizer(brandID, r.cache, log)
		for _, raw := range extracted {
			products, productDrops := normalizer.Normalize(ctx, raw)
			drops = append(drops, productDrops...)
			for _, product := range products {
				items = append(items, r.productItem(product))
				rows = append(rows, productRow(product))
			}
		}

	case migration.EntityKindDiscount:
		normalizer := NewDiscountNormalizer(r.cache, log)
		for _, raw := range extracted {
			discount, drop := normalizer.Normalize(ctx, raw)
			if drop != nil {
				drops = append(drops, *drop)
				continue
			}
			items = append(items, r.discountItem(discount))
			rows = append(rows, discountRow(discount))
		}

	case migration.EntityKindCustomer:
		normalizer := NewCustomerNormalizer(r.source.Name(), log)
		for _, raw := range extracted {
			customer, drop := normalizer.Normalize(raw)
			if drop != nil {
				drops = append(drops, *drop)
				continue
			}
			items = append(items, r.customerItem(customer))
			rows = append(rows, []string{customer.Email, "-", "-", string(kind), "-"})
		}

	case migration.EntityKindSubscription:
		normalizer := NewSubscriptionNormalizer(r.linker, r.source.Name(), log)
		for _, raw := range extracted {
			subscription, drop := normalizer.Normalize(raw)
			if drop != nil {
				drops = append(drops, *drop)
				continue
			}
			items = append(items, r.subscriptionItem(subscription))
			rows = append(rows, []string{subscription.CustomerEmail, "-", "-", string(kind), "-"})
		}
	}

	for _, drop := range drops {
		log.Warn("Record dropped during normalization",
			zap.String("kind", string(kind)),
			zap.String("item", drop.ItemID),
			zap.String("reason", drop.Reason))
	}
	r.drops[kind] = append(r.drops[kind], drops...)

	log.Info("Normalization complete",
		zap.String("kind", string(kind)),
		zap.Int("planned", len(items)),
		zap.Int("dropped", len(drops)))
	return items, rows
}

func (r *Runner) productItem(product *migration.Product) PlanItem {
	return PlanItem{
		Origin: product.Origin,
		Label:  product.Name,
		Create: func(ctx context.Context) (*migration.TargetRef, error) {
			return r.target.CreateProduct(ctx, product)
		},
	}
}

func (r *Runner) discountItem(discount *migration.Discount) PlanItem {
	return PlanItem{
		Origin: discount.Origin,
		Label:  discount.Code,
		Create: func(ctx context.Context) (*migration.TargetRef, error) {
			return r.target.CreateDiscount(ctx, discount)
		},
	}
}

func (r *Runner) customerItem(customer *migration.Customer) PlanItem {
	return PlanItem{
		Origin: customer.Origin,
		Label:  customer.Email,
		Create: func(ctx context.Context) (*migration.TargetRef, error) {
			return r.target.CreateCustomer(ctx, customer)
		},
	}
}

func (r *Runner) subscriptionItem(subscription *migration.Subscription) PlanItem {
	return PlanItem{
		Origin: subscription.Origin,
		Label:  subscription.Origin.SourceID,
		Create: func(ctx context.Context) (*migration.TargetRef, error) {
			return r.target.CreateSubscription(ctx, subscription)
		},
	}
}

func productRow(product *migration.Product) []string {
	cadence := "-"
	if product.Kind == migration.ProductKindSubscription {
		cadence = string(product.Period)
		if product.Interval.Count > 1 {
			cadence = fmt.Sprintf("every %d %ss", product.Interval.Count, product.Interval.Unit)
		}
	}
	return []string{
		product.Name,
		product.Price.Major(),
		product.Price.Currency,
		string(product.Kind),
		cadence,
	}
}

func discountRow(discount *migration.Discount) []string {
	if discount.Type == migration.DiscountTypePercentage {
		return []string{
			discount.Code,
			strconv.FormatInt(discount.PercentOff, 10) + "%",
			"-",
			string(discount.Type),
			"-",
		}
	}
	return []string{
		discount.Code,
		discount.AmountOff.Major(),
		discount.AmountOff.Currency,
		string(discount.Type),
		"-",
	}
}
