package config

import (
	"errors"
	"fmt"

	"inventory-sync/core/erp"
	"inventory-sync/core/storefront"
)

// ErrUnknownStore indicates a store that is not listed in sync.stores.
var ErrUnknownStore = errors.New("unknown store")

// knownLocations are the inventory locations the existing stores write to.
var knownLocations = map[string]string{
	"teelixir": "78624784659",
	"elevate":  "69425791219",
}

// SyncConfig holds settings shared by every store.
type SyncConfig struct {
	// Stores is the comma-separated list of configured stores.
	Stores string `mapstructure:"stores" default:"teelixir,elevate"`
	// DefaultStore is used when a trigger does not name a store.
	DefaultStore string `mapstructure:"default_store" default:"teelixir"`
	// MaxErrorDetails bounds the per-SKU errors kept for a run.
	MaxErrorDetails int `mapstructure:"max_error_details" default:"10"`
	// RecentRunsLimit is the default page size of the run history.
	RecentRunsLimit int `mapstructure:"recent_runs_limit" default:"20"`
}

// StoreNames returns the configured store names, lower-cased, in order.
func (s SyncConfig) StoreNames() []string {
	return splitStores(s.Stores)
}

// StoreConfig holds the credentials and tuning of one store's integrations.
type StoreConfig struct {
	ERP        erp.Config        `mapstructure:"erp"`
	Storefront storefront.Config `mapstructure:"storefront"`
}

// Validate checks both integrations.
func (s StoreConfig) Validate() error {
	return errors.Join(s.ERP.Validate(), s.Storefront.Validate())
}

// ConfigurationError reports a store that cannot be synced as configured.
// It is raised before any network call.
type ConfigurationError struct {
	Store string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("store %q: %v", e.Store, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
