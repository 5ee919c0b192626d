// Package config provides configuration management for the inventory sync service.
//
// It uses Viper to load settings from environment variables and an optional .env
// file. Defaults come from the `default` struct tags of each section.
//
// # Configuration Structure
//
//   - Server: HTTP port and timeouts
//   - Log: level and format
//   - Database: run-log database driver and connection
//   - Storage: optional snapshot archive bucket
//   - Lock: run lock driver and TTL
//   - Sync: store list and shared run settings
//   - Stores: one section per name in SYNC_STORES, e.g. STORES_TEELIXIR_ERP_API_KEY
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store, err := cfg.Store("teelixir")
package config
