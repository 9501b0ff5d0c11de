// Package config loads service settings from built-in defaults, an optional
// bookfinder.yaml and BOOKFINDER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "BOOKFINDER"

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	App         AppConfig
	Log         LogConfig
	HTTP        HTTPConfig
	OpenLibrary OpenLibraryConfig
	Wikipedia   WikipediaConfig
	Recent      RecentConfig
	Session     SessionConfig
	Cache       CacheConfig
}

type AppConfig struct {
	Addr string
	Env  string // development, production
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	MaxBodyBytes     int64
	CORSAllowOrigins []string
	EnableHSTS       bool
	SecureCookies    bool
	RateLimitRPS     float64
	RateLimitBurst   int
	TrustProxy       bool
}

type OpenLibraryConfig struct {
	BaseURL    string
	UserAgent  string
	RPS        float64
	Burst      int
	MaxRetries int
	Timeout    time.Duration
}

type WikipediaConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RecentConfig struct {
	Freshness time.Duration
	FanOut    int
	Timeout   time.Duration
}

type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

type CacheConfig struct {
	Backend string
	Redis   RedisConfig
}

type RedisConfig struct {
	URL      string
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.addr", ":8080")
	v.SetDefault("app.env", "development")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")

	v.SetDefault("http.read_timeout", 5*time.Second)
	v.SetDefault("http.write_timeout", 40*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.max_body_bytes", int64(1<<20))
	v.SetDefault("http.cors_allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("http.enable_hsts", false)
	v.SetDefault("http.secure_cookies", false)
	v.SetDefault("http.rate_limit_rps", 10.0)
	v.SetDefault("http.rate_limit_burst", 20)
	v.SetDefault("http.trust_proxy", false)

	v.SetDefault("openlibrary.base_url", "https://openlibrary.org")
	v.SetDefault("openlibrary.user_agent", "bookfinder/1.0 (+https://github.com/bookfinder)")
	v.SetDefault("openlibrary.rps", 5.0)
	v.SetDefault("openlibrary.burst", 10)
	v.SetDefault("openlibrary.max_retries", 2)
	v.SetDefault("openlibrary.timeout", 15*time.Second)

	v.SetDefault("wikipedia.base_url", "https://en.wikipedia.org/api/rest_v1")
	v.SetDefault("wikipedia.timeout", 10*time.Second)

	v.SetDefault("recent.freshness", 5*time.Minute)
	v.SetDefault("recent.fanout", 8)
	v.SetDefault("recent.timeout", 30*time.Second)

	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.sweep_interval", time.Minute)

	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.redis.url", "")
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", "bookfinder:recent:")
}

// LoadEnvFiles preloads .env files. Variables already set in the
// environment win.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load builds the configuration. Priority, highest first: BOOKFINDER_*
// environment variables, the config file, built-in defaults. An empty path
// looks for an optional bookfinder.yaml in the working directory; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("bookfinder")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Addr: v.GetString("app.addr"),
			Env:  v.GetString("app.env"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:  v.GetDuration("http.shutdown_timeout"),
			MaxBodyBytes:     v.GetInt64("http.max_body_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			EnableHSTS:       v.GetBool("http.enable_hsts"),
			SecureCookies:    v.GetBool("http.secure_cookies"),
			RateLimitRPS:     v.GetFloat64("http.rate_limit_rps"),
			RateLimitBurst:   v.GetInt("http.rate_limit_burst"),
			TrustProxy:       v.GetBool("http.trust_proxy"),
		},
		OpenLibrary: OpenLibraryConfig{
			BaseURL:    v.GetString("openlibrary.base_url"),
			UserAgent:  v.GetString("openlibrary.user_agent"),
			RPS:        v.GetFloat64("openlibrary.rps"),
			Burst:      v.GetInt("openlibrary.burst"),
			MaxRetries: v.GetInt("openlibrary.max_retries"),
			Timeout:    v.GetDuration("openlibrary.timeout"),
		},
		Wikipedia: WikipediaConfig{
			BaseURL: v.GetString("wikipedia.base_url"),
			Timeout: v.GetDuration("wikipedia.timeout"),
		},
		Recent: RecentConfig{
			Freshness: v.GetDuration("recent.freshness"),
			FanOut:    v.GetInt("recent.fanout"),
			Timeout:   v.GetDuration("recent.timeout"),
		},
		Session: SessionConfig{
			TTL:           v.GetDuration("session.ttl"),
			SweepInterval: v.GetDuration("session.sweep_interval"),
		},
		Cache: CacheConfig{
			Backend: strings.ToLower(v.GetString("cache.backend")),
			Redis: RedisConfig{
				URL:      v.GetString("cache.redis.url"),
				Addr:     v.GetString("cache.redis.addr"),
				Password: v.GetString("cache.redis.password"),
				DB:       v.GetInt("cache.redis.db"),
				Prefix:   v.GetString("cache.redis.prefix"),
			},
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("cache.backend must be %q or %q, got %q", CacheMemory, CacheRedis, c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.Redis.URL == "" && c.Cache.Redis.Addr == "" {
		return errors.New("cache.redis.url or cache.redis.addr is required for the redis backend")
	}
	if c.Recent.FanOut <= 0 {
		return fmt.Errorf("recent.fanout must be positive, got %d", c.Recent.FanOut)
	}
	if c.Recent.Freshness <= 0 {
		return errors.New("recent.freshness must be positive")
	}
	if c.Recent.Timeout <= 0 {
		return errors.New("recent.timeout must be positive")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if c.OpenLibrary.MaxRetries < 0 {
		return errors.New("openlibrary.max_retries cannot be negative")
	}
	if c.OpenLibrary.Timeout <= 0 || c.Wikipedia.Timeout <= 0 {
		return errors.New("upstream timeouts must be positive")
	}

	if c.App.Env == "production" {
		if !c.HTTP.SecureCookies {
			return errors.New("http.secure_cookies must be true in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return errors.New("http.cors_allow_origins cannot be '*' in production")
			}
		}
	}
	return nil
}
