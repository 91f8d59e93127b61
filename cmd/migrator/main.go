package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/storeport/migrator/internal/application/pipeline"
	"github.com/storeport/migrator/internal/domain/migration"
	"github.com/storeport/migrator/internal/infrastructure/billing"
	"github.com/storeport/migrator/internal/infrastructure/config"
	"github.com/storeport/migrator/internal/infrastructure/logger"
	"github.com/storeport/migrator/internal/infrastructure/source/lemonsqueezy"
)

func main() {
	// Parse flags
	var (
		kindsFlag      string
		brandID        string
		pageSize       int
		nonInteractive bool
		autoApprove    bool
		dryRun         bool
		logLevel       string
	)

	flag.StringVar(&kindsFlag, "kinds", "", "Comma-separated entity kinds to migrate (products,discounts,customers,subscriptions)")
	flag.StringVar(&brandID, "brand", "", "Target brand/namespace id (auto-selected when the target has exactly one)")
	flag.IntVar(&pageSize, "page-size", 0, "Extraction page size (default from config)")
	flag.BoolVar(&nonInteractive, "non-interactive", false, "Never prompt; decide confirmation gates by policy")
	flag.BoolVar(&autoApprove, "yes", false, "Auto-approve confirmation gates (implies -non-interactive)")
	flag.BoolVar(&dryRun, "dry-run", false, "Preview the plan without creating anything")
	flag.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Flags override config
	if kindsFlag != "" {
		cfg.Migrate.Kinds = strings.Split(kindsFlag, ",")
	}
	if brandID != "" {
		cfg.Migrate.BrandID = brandID
	}
	if pageSize > 0 {
		cfg.Migrate.PageSize = pageSize
	}
	if autoApprove {
		nonInteractive = true
		cfg.Migrate.AutoApprove = true
	}
	if nonInteractive {
		cfg.Migrate.NonInteractive = true
	}
	if dryRun {
		cfg.Migrate.DryRun = true
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	kinds, err := parseKinds(cfg.Migrate.Kinds)
	if err != nil {
		log.Fatal("Invalid entity kinds", zap.Error(err))
	}

	// Credentials are fatal before any network call
	if cfg.Source.APIKey == "" {
		log.Fatal("Missing source API key (set STOREPORT_SOURCE_API_KEY or source.api_key)")
	}
	if cfg.Stripe.SecretKey == "" {
		log.Fatal("Missing Stripe secret key (set STOREPORT_STRIPE_SECRET_KEY or stripe.secret_key)")
	}

	// Build source adapter
	sourceConfig := lemonsqueezy.NewConfig(cfg.Source.APIKey)
	if cfg.Source.APIBaseURL != "" {
		sourceConfig.APIBaseURL = cfg.Source.APIBaseURL
	}
	sourceConfig.TimeoutSeconds = cfg.Source.TimeoutSeconds
	source, err := lemonsqueezy.NewAdapter(sourceConfig)
	if err != nil {
		log.Fatal("Failed to create source adapter", zap.Error(err))
	}

	// Build target adapter
	target, err := billing.NewStripeTarget(&billing.StripeConfig{
		SecretKey:  cfg.Stripe.SecretKey,
		IsTestMode: cfg.Stripe.TestMode,
	}, log)
	if err != nil {
		log.Fatal("Failed to create target adapter", zap.Error(err))
	}

	// Build presenter: interactive prompt or stated default policy
	var presenter *pipeline.PlanPresenter
	if cfg.Migrate.NonInteractive {
		presenter = pipeline.NewPolicyPresenter(os.Stdout, cfg.Migrate.AutoApprove, log)
	} else {
		presenter = pipeline.NewPlanPresenter(os.Stdout, os.Stdin, log)
	}

	runner := pipeline.NewRunner(source, target, presenter, log, pipeline.Options{
		Kinds:    kinds,
		BrandID:  cfg.Migrate.BrandID,
		PageSize: cfg.Migrate.PageSize,
		DryRun:   cfg.Migrate.DryRun,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcomes, err := runner.Run(ctx)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunAborted) {
			log.Warn("Run aborted by operator", zap.Error(err))
		} else {
			log.Error("Migration run failed", zap.Error(err))
		}
		os.Exit(1)
	}

	// Per-item failures are reported in the summary but do not fail the
	// process; the run completed all confirmed phases.
	for _, outcome := range outcomes {
		if outcome.Failed > 0 {
			log.Warn("Phase completed with item failures",
				zap.String("kind", string(outcome.Kind)),
				zap.Int("failed", outcome.Failed))
		}
	}
}

// parseKinds validates the configured kind names.
func parseKinds(names []string) ([]migration.EntityKind, error) {
	kinds := make([]migration.EntityKind, 0, len(names))
	for _, name := range names {
		kind, err := migration.ParseEntityKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `StorePort Migration Tool

Migrates catalog items, discount codes, customers and subscriptions from a
source commerce platform to a target platform. Each entity kind is
extracted, normalized, previewed for confirmation and then applied.

Usage:
  migrator [flags]

Flags:
  -kinds string         Entity kinds to migrate, comma-separated
                        (default: products,discounts,customers,subscriptions)
  -brand string         Target brand/namespace id
  -page-size int        Extraction page size (1-100)
  -dry-run              Preview the plan without creating anything
  -non-interactive      Never prompt; decide gates by configured policy
  -yes                  Auto-approve all confirmation gates
  -log-level string     Log level: debug, info, warn, error

Configuration:
  Credentials and defaults come from config.toml or STOREPORT_* environment
  variables (e.g. STOREPORT_SOURCE_API_KEY, STOREPORT_STRIPE_SECRET_KEY).

Exit codes:
  0  all confirmed phases completed (per-item failures are reported, not fatal)
  1  fatal error: extraction failure, bad credentials, or operator abort`)
}
