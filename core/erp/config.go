package erp

import (
	"errors"
	"time"

	"inventory-sync/core/connector"
)

var (
	// ErrMissingAPIID indicates the ERP API id is not configured.
	ErrMissingAPIID = errors.New("erp: api id is required")
	// ErrMissingAPIKey indicates the ERP API secret is not configured.
	ErrMissingAPIKey = errors.New("erp: api key is required")
)

// Config holds configuration for the ERP stock source.
type Config struct {
	// APIURL is the base URL of the ERP API.
	APIURL string `mapstructure:"api_url" default:"https://api.unleashedsoftware.com"`
	// APIID is sent as the api-auth-id header.
	APIID string `mapstructure:"api_id" default:""`
	// APIKey is the HMAC secret used to sign every query string.
	APIKey string `mapstructure:"api_key" default:""`
	// PageSize is the number of stock items requested per page.
	PageSize int `mapstructure:"page_size" default:"200"`
	// MaxRequests is the request budget per rate window.
	MaxRequests int `mapstructure:"max_requests" default:"300"`
	// WindowSeconds is the rate window length.
	WindowSeconds int `mapstructure:"window_seconds" default:"300"`
	// MinIntervalMs is the minimum spacing between requests.
	MinIntervalMs int `mapstructure:"min_interval_ms" default:"200"`
	// MaxRetries is the number of retries for transient failures.
	MaxRetries int `mapstructure:"max_retries" default:"3"`
	// BaseDelayMs is the first backoff delay.
	BaseDelayMs int `mapstructure:"base_delay_ms" default:"1000"`
	// MaxDelayMs caps the backoff delay.
	MaxDelayMs int `mapstructure:"max_delay_ms" default:"30000"`
	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// Validate checks that the credentials needed to sign requests are present.
func (c Config) Validate() error {
	if c.APIID == "" {
		return ErrMissingAPIID
	}
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// ConnectorConfig translates the resiliency settings into a connector.Config.
func (c Config) ConnectorConfig(name string, clock connector.Clock) connector.Config {
	return connector.Config{
		Name: name,
		RateLimit: connector.RateLimit{
			MaxRequests: c.MaxRequests,
			Window:      time.Duration(c.WindowSeconds) * time.Second,
			MinInterval: time.Duration(c.MinIntervalMs) * time.Millisecond,
		},
		Retry: connector.RetryPolicy{
			MaxRetries: c.MaxRetries,
			BaseDelay:  time.Duration(c.BaseDelayMs) * time.Millisecond,
			MaxDelay:   time.Duration(c.MaxDelayMs) * time.Millisecond,
		},
		Timeout: time.Duration(c.TimeoutSeconds) * time.Second,
		Clock:   clock,
	}
}
