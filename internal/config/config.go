package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv  string
	AppName string // "app" of every stats hit
	Addr    string

	// Postgres (pgxpool DSN). Empty in dev selects the in-memory store.
	DBDSN string

	// JWT verification (must match auth-service signing config)
	JWTSecret string
	JWTIssuer string

	// Redis view cache; empty disables caching
	RedisURL      string
	CacheViewsTTL time.Duration

	// RabbitMQ outbox relay
	RabbitURL      string
	RabbitExchange string
	OutboxEnabled  bool

	// Stats collector
	StatsURL             string
	StatsTimeout         time.Duration
	StatsBreakerFailures int
	StatsBreakerReset    time.Duration

	// Rate limit
	RLEnabled  bool
	RLIPLimit  int
	RLIPWindow time.Duration

	LogLevel  string
	LogFormat string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

func (c *Config) IsDev() bool { return c.AppEnv == "dev" }

// Load reads an optional .env then the process environment. Malformed values
// and missing required keys are reported together.
func Load() (*Config, error) {
	_ = godotenv.Load()

	p := &parser{}
	cfg := &Config{}
	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.AppName = getEnv("APP_NAME", "ewm-main-service")
	cfg.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.DBDSN = getEnv("DATABASE_URL", "")
	if cfg.DBDSN == "" {
		cfg.DBDSN = buildPostgresURL(
			getEnv("POSTGRES_ADDR", ""),
			getEnv("POSTGRES_USER", ""),
			getEnv("POSTGRES_PASSWORD", ""),
			getEnv("POSTGRES_DB", ""),
			getEnv("POSTGRES_SSLMODE", "disable"),
		)
	}

	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.JWTIssuer = getEnv("JWT_ISSUER", "")

	cfg.RedisURL = getEnv("REDIS_URL", "")
	cfg.CacheViewsTTL = p.duration("CACHE_TTL_VIEWS", 30*time.Second)

	cfg.RabbitURL = getEnv("RABBIT_URL", "")
	cfg.RabbitExchange = getEnv("RABBIT_EXCHANGE", "city.events")
	cfg.OutboxEnabled = p.bool("OUTBOX_ENABLED", true)

	cfg.StatsURL = getEnv("STATS_URL", "")
	cfg.StatsTimeout = p.duration("STATS_TIMEOUT", 2*time.Second)
	cfg.StatsBreakerFailures = p.int("STATS_BREAKER_FAILURES", 5)
	cfg.StatsBreakerReset = p.duration("STATS_BREAKER_RESET", 30*time.Second)

	cfg.RLEnabled = p.bool("RL_ENABLED", true)
	cfg.RLIPLimit = p.int("RL_IP_LIMIT", 100)
	cfg.RLIPWindow = p.duration("RL_IP_WINDOW", time.Minute)

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "json")

	cfg.HTTPReadTimeout = p.duration("HTTP_READ_TIMEOUT", 10*time.Second)
	cfg.HTTPWriteTimeout = p.duration("HTTP_WRITE_TIMEOUT", 10*time.Second)
	cfg.HTTPIdleTimeout = p.duration("HTTP_IDLE_TIMEOUT", 60*time.Second)

	if cfg.JWTSecret == "" {
		p.fail("missing JWT_SECRET")
	}
	if !cfg.IsDev() {
		if cfg.DBDSN == "" {
			p.fail("missing database config: provide DATABASE_URL or POSTGRES_ADDR/POSTGRES_USER/POSTGRES_DB (required when APP_ENV != dev)")
		}
		if cfg.RabbitURL == "" && cfg.OutboxEnabled {
			p.fail("missing RABBIT_URL (required when APP_ENV != dev)")
		}
		if cfg.StatsURL == "" {
			p.fail("missing STATS_URL (required when APP_ENV != dev)")
		}
	}
	if cfg.StatsBreakerFailures <= 0 {
		p.fail("STATS_BREAKER_FAILURES must be > 0")
	}
	if cfg.RLIPLimit <= 0 {
		p.fail("RL_IP_LIMIT must be > 0")
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildPostgresURL builds a postgres URL DSN, escaping credentials.
func buildPostgresURL(addr, user, pass, db, sslmode string) string {
	if addr == "" || user == "" || db == "" {
		return ""
	}
	u := &url.URL{
		Scheme: "postgres",
		Host:   addr,
		Path:   "/" + strings.TrimPrefix(db, "/"),
	}
	if pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}
	if sslmode != "" {
		u.RawQuery = url.Values{"sslmode": {sslmode}}.Encode()
	}
	return u.String()
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// parser collects malformed values instead of silently using defaults.
type parser struct {
	errs []error
}

func (p *parser) fail(format string, args ...any) {
	p.errs = append(p.errs, fmt.Errorf(format, args...))
}

func (p *parser) int(k string, def int) int {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		p.fail("invalid integer env %s=%q", k, v)
		return def
	}
	return i
}

func (p *parser) bool(k string, def bool) bool {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	}
	p.fail("invalid boolean env %s=%q", k, v)
	return def
}

func (p *parser) duration(k string, def time.Duration) time.Duration {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.fail("invalid duration env %s=%q", k, v)
		return def
	}
	return d
}
