package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Realtime RealtimeConfig `mapstructure:"realtime" validate:"required"`
	Events   EventsConfig   `mapstructure:"events"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"            validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0,ltefield=MaxOpenConns"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	// RoleCacheSeconds bounds how long a resolved role set is reused across handshakes.
	// Zero disables the cache.
	RoleCacheSeconds int `mapstructure:"role_cache_seconds" validate:"gte=0"`
}

// RealtimeConfig tunes the websocket gateway.
type RealtimeConfig struct {
	// SendBufferSize is the number of outbound frames queued per connection
	// before further pushes to it are dropped.
	SendBufferSize int `mapstructure:"send_buffer_size" validate:"required,gt=0"`
	// AllowedOrigins lists the Origin values accepted on upgrade. Empty means any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// EventsConfig configures domain event ingress from the task and user services.
type EventsConfig struct {
	// RedisAddr enables the Redis subscriber when non-empty.
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"       validate:"gte=0"`
	Channel       string `mapstructure:"channel"        validate:"required_with=RedisAddr"`
	WorkerCount   int    `mapstructure:"worker_count"   validate:"gte=0"`
	QueueSize     int    `mapstructure:"queue_size"     validate:"gte=0"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
}
