package storefront

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"inventory-sync/core/connector"
)

var (
	// ErrMissingShopDomain indicates neither a shop domain nor a base URL is configured.
	ErrMissingShopDomain = errors.New("storefront: shop domain is required")
	// ErrMissingAccessToken indicates the admin API token is not configured.
	ErrMissingAccessToken = errors.New("storefront: access token is required")
	// ErrMissingLocationID indicates the inventory location is not configured.
	ErrMissingLocationID = errors.New("storefront: location id is required")
)

// Config holds configuration for one storefront.
type Config struct {
	// ShopDomain is the shop host, e.g. "example.myshopify.com".
	ShopDomain string `mapstructure:"shop_domain" default:""`
	// AccessToken is sent as X-Shopify-Access-Token.
	AccessToken string `mapstructure:"access_token" default:""`
	// LocationID is the inventory location all writes target.
	LocationID int64 `mapstructure:"location_id" default:"0"`
	// APIVersion is the admin API version segment.
	APIVersion string `mapstructure:"api_version" default:"2024-01"`
	// BaseURL overrides https://{ShopDomain}/admin/api/{APIVersion}.
	BaseURL string `mapstructure:"base_url" default:""`
	// PageSize is the number of products requested per page.
	PageSize int `mapstructure:"page_size" default:"250"`
	// MaxRequests is the request budget per rate window, shared by reads and writes.
	// ReadIntervalMs and WriteIntervalMs space each kind on top of it.
	MaxRequests int `mapstructure:"max_requests" default:"40"`
	// WindowSeconds is the rate window length.
	WindowSeconds int `mapstructure:"window_seconds" default:"20"`
	// ReadIntervalMs is the minimum spacing between catalog pages.
	ReadIntervalMs int `mapstructure:"read_interval_ms" default:"250"`
	// WriteIntervalMs is the minimum spacing between inventory writes.
	WriteIntervalMs int `mapstructure:"write_interval_ms" default:"500"`
	// MaxRetries is the number of retries for transient failures.
	MaxRetries int `mapstructure:"max_retries" default:"3"`
	// BaseDelayMs is the first backoff delay.
	BaseDelayMs int `mapstructure:"base_delay_ms" default:"1000"`
	// MaxDelayMs caps the backoff delay.
	MaxDelayMs int `mapstructure:"max_delay_ms" default:"30000"`
	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// Validate checks that the settings needed to reach the shop are present.
func (c Config) Validate() error {
	if c.ShopDomain == "" && c.BaseURL == "" {
		return ErrMissingShopDomain
	}
	if c.AccessToken == "" {
		return ErrMissingAccessToken
	}
	if c.LocationID <= 0 {
		return ErrMissingLocationID
	}
	return nil
}

// APIBaseURL returns the admin API root all paths are relative to.
func (c Config) APIBaseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	version := c.APIVersion
	if version == "" {
		version = "2024-01"
	}
	return fmt.Sprintf("https://%s/admin/api/%s", c.ShopDomain, version)
}

// Budget returns the store-wide request budget reads and writes draw from.
func (c Config) Budget() connector.RateLimit {
	return connector.RateLimit{
		MaxRequests: c.MaxRequests,
		Window:      time.Duration(c.WindowSeconds) * time.Second,
	}
}

// ReadConnectorConfig returns the connector settings for catalog reads.
func (c Config) ReadConnectorConfig(name string, shared *connector.RateLimiter, clock connector.Clock) connector.Config {
	return c.connectorConfig(name, c.ReadIntervalMs, shared, clock)
}

// WriteConnectorConfig returns the connector settings for inventory writes.
func (c Config) WriteConnectorConfig(name string, shared *connector.RateLimiter, clock connector.Clock) connector.Config {
	return c.connectorConfig(name, c.WriteIntervalMs, shared, clock)
}

func (c Config) connectorConfig(name string, intervalMs int, shared *connector.RateLimiter, clock connector.Clock) connector.Config {
	return connector.Config{
		Name: name,
		RateLimit: connector.RateLimit{
			MinInterval: time.Duration(intervalMs) * time.Millisecond,
		},
		Shared: shared,
		Retry: connector.RetryPolicy{
			MaxRetries: c.MaxRetries,
			BaseDelay:  time.Duration(c.BaseDelayMs) * time.Millisecond,
			MaxDelay:   time.Duration(c.MaxDelayMs) * time.Millisecond,
		},
		Timeout: time.Duration(c.TimeoutSeconds) * time.Second,
		Clock:   clock,
	}
}
