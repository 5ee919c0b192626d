package lock

// Config holds configuration for the run lock.
type Config struct {
	// Driver selects the lock backend (database, redis, none).
	Driver string `mapstructure:"driver" default:"database"`
	// TTLSeconds bounds how long a crashed run can keep the lock.
	TTLSeconds int `mapstructure:"ttl_seconds" default:"900"`
	// RedisAddr is the redis host:port.
	RedisAddr string `mapstructure:"redis_addr" default:"localhost:6379"`
	// RedisPassword is the redis password.
	RedisPassword string `mapstructure:"redis_password" default:""`
	// RedisDB is the redis database number.
	RedisDB int `mapstructure:"redis_db" default:"0"`
}
