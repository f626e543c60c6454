package initializers

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	Port     string
	Env      string
	Debug    bool
	LogLevel string

	DBDriver    string
	DatabaseURL string

	CacheBackend  string
	CacheMaxBytes int64
	CachePrefix   string
	RedisURL      string

	JWTSecret string
	JWTTTL    time.Duration
	APIKey    string

	CORSOrigins []string
	S3Bucket    string

	// Proxies whose X-Forwarded-For is believed. Empty means the peer address is the client.
	TrustedProxies []string

	// Requests per hour.
	RateLimitAnon int
	RateLimitUser int
}

// LoadConfig reads the configuration from the environment. Call LoadEnv first
// to pick up a .env file.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("APP_ENV", EnvDevelopment),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DatabaseURL:    getEnv("DATABASE_URL", "eshop.db"),
		CacheBackend:   strings.ToLower(getEnv("CACHE_BACKEND", "ristretto")),
		CachePrefix:    getEnv("CACHE_PREFIX", "eshop:"),
		RedisURL:       getEnv("REDIS_URL", "redis://127.0.0.1:6379/1"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		APIKey:         os.Getenv("API_KEY"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),
		CacheMaxBytes:  64 << 20,
	}

	var err error
	if cfg.Debug, err = getBool("DEBUG", cfg.Env != EnvProduction); err != nil {
		return cfg, err
	}
	if cfg.JWTTTL, err = getDuration("JWT_TTL", time.Hour); err != nil {
		return cfg, err
	}
	if cfg.RateLimitAnon, err = getInt("RATE_LIMIT_ANON", 100); err != nil {
		return cfg, err
	}
	if cfg.RateLimitUser, err = getInt("RATE_LIMIT_USER", 1000); err != nil {
		return cfg, err
	}
	maxBytes, err := getInt("CACHE_MAX_BYTES", int(cfg.CacheMaxBytes))
	if err != nil {
		return cfg, err
	}
	cfg.CacheMaxBytes = int64(maxBytes)

	return cfg, cfg.Validate()
}

func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func (c Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case "sqlite", "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not one of sqlite, mysql, postgres", c.DBDriver))
	}

	switch c.CacheBackend {
	case "memory", "ristretto", "redis":
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND %q is not one of memory, ristretto, redis", c.CacheBackend))
	}

	if c.IsProduction() && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.RateLimitAnon < 1 || c.RateLimitUser < 1 {
		errs = append(errs, errors.New("rate limits must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
