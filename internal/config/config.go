// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// DatabaseURL is the Postgres DSN for the users store.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// MongoURI is the MongoDB connection URI (e.g. mongodb://localhost:27017).
	MongoURI string `mapstructure:"MONGO_URI"`
	// MongoDatabase is the MongoDB database holding dialog and social collections.
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`
	// RedisAddr is the Redis host:port.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPassword is the Redis AUTH password; empty when auth is disabled.
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	// RedisDB is the Redis logical database index.
	RedisDB int `mapstructure:"REDIS_DB"`
	// JWTSecret is the HS256 signing secret; required, at least 32 bytes.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTIssuer is the iss claim set on issued tokens.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAccessTTL is the access token lifetime (e.g. "168h" for 7 days).
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// BcryptCost is the bcrypt cost factor (4-31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// LoginMaxAttempts is the failed-login count that trips the rate limiter.
	LoginMaxAttempts int `mapstructure:"LOGIN_MAX_ATTEMPTS"`
	// LoginWindow is the fixed rate-limit window (e.g. "5m").
	LoginWindow string `mapstructure:"LOGIN_WINDOW"`
	// CaptchaTTL is how long a captcha challenge stays valid (e.g. "5m").
	CaptchaTTL string `mapstructure:"CAPTCHA_TTL"`
	// FeedCacheTTL is the composed-feed page cache lifetime; short, popularity moves fast.
	FeedCacheTTL string `mapstructure:"FEED_CACHE_TTL"`
	// SessionCacheTTL is the dialog session/context cache lifetime.
	SessionCacheTTL string `mapstructure:"SESSION_CACHE_TTL"`
	// ListCacheTTL is the lifetime for cached list views (user posts, tag posts, session lists).
	ListCacheTTL string `mapstructure:"LIST_CACHE_TTL"`
	// PopularTagsTTL is the popular-tags aggregate cache lifetime.
	PopularTagsTTL string `mapstructure:"POPULAR_TAGS_TTL"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "travel_agent")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "travel-agent")
	v.SetDefault("JWT_ACCESS_TTL", "168h") // 7d
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("LOGIN_MAX_ATTEMPTS", 5)
	v.SetDefault("LOGIN_WINDOW", "5m")
	v.SetDefault("CAPTCHA_TTL", "5m")
	v.SetDefault("FEED_CACHE_TTL", "10m")
	v.SetDefault("SESSION_CACHE_TTL", "24h")
	v.SetDefault("LIST_CACHE_TTL", "1h")
	v.SetDefault("POPULAR_TAGS_TTL", "30m")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET must be set")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("config: JWT_SECRET must be at least 32 bytes")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if cfg.LoginMaxAttempts <= 0 {
		return nil, errors.New("config: LOGIN_MAX_ATTEMPTS must be positive")
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return c.duration(c.JWTAccessTTL, 168*time.Hour)
}

// LoginWindowTTL parses LoginWindow. Returns 5m if unset or invalid.
func (c *Config) LoginWindowTTL() time.Duration {
	return c.duration(c.LoginWindow, 5*time.Minute)
}

// CaptchaTTLDuration parses CaptchaTTL. Returns 5m if unset or invalid.
func (c *Config) CaptchaTTLDuration() time.Duration {
	return c.duration(c.CaptchaTTL, 5*time.Minute)
}

// FeedTTL parses FeedCacheTTL. Returns 10m if unset or invalid.
func (c *Config) FeedTTL() time.Duration {
	return c.duration(c.FeedCacheTTL, 10*time.Minute)
}

// SessionTTL parses SessionCacheTTL. Returns 24h if unset or invalid.
func (c *Config) SessionTTL() time.Duration {
	return c.duration(c.SessionCacheTTL, 24*time.Hour)
}

// ListTTL parses ListCacheTTL. Returns 1h if unset or invalid.
func (c *Config) ListTTL() time.Duration {
	return c.duration(c.ListCacheTTL, time.Hour)
}

// TagsTTL parses PopularTagsTTL. Returns 30m if unset or invalid.
func (c *Config) TagsTTL() time.Duration {
	return c.duration(c.PopularTagsTTL, 30*time.Minute)
}

func (c *Config) duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
