package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is prepended to every environment variable, e.g. TASKHUB_SERVER_PORT.
const envPrefix = "TASKHUB"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers a default for every key. Viper only consults the
// environment for keys it already knows about, so keys without a meaningful
// default are registered with their zero value.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.role_cache_seconds", 30)

	v.SetDefault("realtime.send_buffer_size", 64)
	v.SetDefault("realtime.allowed_origins", []string{})

	v.SetDefault("events.redis_addr", "")
	v.SetDefault("events.redis_password", "")
	v.SetDefault("events.redis_db", 0)
	v.SetDefault("events.channel", "taskhub.events")
	v.SetDefault("events.worker_count", 4)
	v.SetDefault("events.queue_size", 256)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "")
}
