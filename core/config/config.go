package config

import (
	"reflect"
	"strings"

	"inventory-sync/core/database"
	"inventory-sync/core/lock"
	"inventory-sync/core/logger"
	"inventory-sync/core/server"
	"inventory-sync/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the run-log database.
	Database database.Config `mapstructure:"database"`
	// Storage holds configuration for the snapshot archive.
	Storage storage.Config `mapstructure:"storage"`
	// Lock holds configuration for the run lock.
	Lock lock.Config `mapstructure:"lock"`
	// Sync holds settings shared by every store.
	Sync SyncConfig `mapstructure:"sync"`
	// Stores holds per-store credentials, keyed by store name.
	Stores map[string]StoreConfig `mapstructure:"stores"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Store sections are only known once the store list is read.
	for _, name := range splitStores(v.GetString("sync.stores")) {
		bindStore(v, name)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.Stores == nil {
		config.Stores = map[string]StoreConfig{}
	}

	return &config, nil
}

// Store returns the configuration of a listed store.
func (c *Config) Store(name string) (StoreConfig, error) {
	listed := false
	for _, s := range c.Sync.StoreNames() {
		if s == name {
			listed = true
			break
		}
	}
	sc, ok := c.Stores[name]
	if !listed || !ok {
		return StoreConfig{}, &ConfigurationError{Store: name, Err: ErrUnknownStore}
	}
	return sc, nil
}

// bindStore registers the keys of one store section, with the store's known defaults.
func bindStore(v *viper.Viper, name string) {
	prefix := "stores." + name
	bindValues(v, StoreConfig{}, prefix)

	if id, ok := knownLocations[name]; ok {
		v.SetDefault(prefix+".storefront.location_id", id)
	}
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		switch field.Type.Kind() {
		case reflect.Struct:
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		case reflect.Map:
			// Map entries are bound by name, see bindStore.
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}

func splitStores(list string) []string {
	var names []string
	for _, s := range strings.Split(list, ",") {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			names = append(names, s)
		}
	}
	return names
}
