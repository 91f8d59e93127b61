package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all migrator configuration
type Config struct {
	App     AppConfig
	Log     LogConfig
	Source  SourceConfig
	Stripe  StripeConfig
	Migrate MigrateConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string // development, production
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// SourceConfig holds source provider settings
type SourceConfig struct {
	Provider       string // source platform name (lemonsqueezy)
	APIKey         string
	APIBaseURL     string
	TimeoutSeconds int
}

// StripeConfig holds target platform credentials
type StripeConfig struct {
	SecretKey string
	TestMode  bool
}

// MigrateConfig holds pipeline settings
type MigrateConfig struct {
	Kinds          []string // entity kinds to migrate
	BrandID        string   // target namespace; empty auto-selects a sole brand
	PageSize       int      // extraction page size
	NonInteractive bool     // decide confirmation gates by policy instead of prompting
	AutoApprove    bool     // policy applied to gates in non-interactive mode
	DryRun         bool     // stop after the preview, apply nothing
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with STOREPORT_ prefix (e.g., STOREPORT_STRIPE_SECRET_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.storeport")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("STOREPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Source: SourceConfig{
			Provider:       v.GetString("source.provider"),
			APIKey:         v.GetString("source.api_key"),
			APIBaseURL:     v.GetString("source.api_base_url"),
			TimeoutSeconds: v.GetInt("source.timeout_seconds"),
		},
		Stripe: StripeConfig{
			SecretKey: v.GetString("stripe.secret_key"),
			TestMode:  v.GetBool("stripe.test_mode"),
		},
		Migrate: MigrateConfig{
			Kinds:          v.GetStringSlice("migrate.kinds"),
			BrandID:        v.GetString("migrate.brand_id"),
			PageSize:       v.GetInt("migrate.page_size"),
			NonInteractive: v.GetBool("migrate.non_interactive"),
			AutoApprove:    v.GetBool("migrate.auto_approve"),
			DryRun:         v.GetBool("migrate.dry_run"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storeport-migrator"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
	if cfg.Source.Provider == "" {
		cfg.Source.Provider = "lemonsqueezy"
	}
	if cfg.Source.TimeoutSeconds == 0 {
		cfg.Source.TimeoutSeconds = 30
	}
	if len(cfg.Migrate.Kinds) == 0 {
		cfg.Migrate.Kinds = []string{"products", "discounts", "customers", "subscriptions"}
	}
	if cfg.Migrate.PageSize == 0 {
		cfg.Migrate.PageSize = 50
	}
	// Stripe test mode defaults to true unless explicitly running production
	if cfg.App.Env != "production" && !cfg.Stripe.TestMode {
		cfg.Stripe.TestMode = true
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Migrate.PageSize < 1 || c.Migrate.PageSize > 100 {
		return fmt.Errorf("migrate.page_size must be between 1 and 100, got %d", c.Migrate.PageSize)
	}

	if c.Source.Provider != "lemonsqueezy" {
		return fmt.Errorf("source.provider %q is not supported", c.Source.Provider)
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Stripe.TestMode {
			return fmt.Errorf("stripe.test_mode must be false in production")
		}
		if strings.HasPrefix(c.Stripe.SecretKey, "sk_test") {
			return fmt.Errorf("stripe.secret_key is a test key but app.env is production")
		}
	}

	return nil
}
