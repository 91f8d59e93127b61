package lemonsqueezy

import "errors"

// DefaultAPIBaseURL is the production Lemon Squeezy API endpoint.
const DefaultAPIBaseURL = "https://api.lemonsqueezy.com"

// Errors for Lemon Squeezy configuration
var (
	ErrConfigMissingAPIKey = errors.New("lemonsqueezy: API key is required")
)

// Config holds configuration for the Lemon Squeezy API client.
type Config struct {
	// APIKey is the bearer token from the Lemon Squeezy dashboard.
	APIKey string
	// APIBaseURL is the base URL for the API.
	APIBaseURL string
	// TimeoutSeconds is the HTTP request timeout.
	TimeoutSeconds int
}

// NewConfig creates a configuration with defaults.
func NewConfig(apiKey string) *Config {
	return &Config{
		APIKey:         apiKey,
		APIBaseURL:     DefaultAPIBaseURL,
		TimeoutSeconds: 30,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrConfigMissingAPIKey
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
