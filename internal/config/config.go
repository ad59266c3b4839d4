// Package config loads server settings. Sources are applied in order, each
// overriding the previous one: built-in defaults, an optional JSON file
// (-config or CONFIG), environment variables, command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"time"
)

// Config holds runtime settings for the GroupPay server.
type Config struct {
	HTTPAddr string `json:"http_addr"`

	// DBDriver is "sqlite", "postgres" (lib/pq) or "pgx".
	DBDriver string `json:"db_driver"`
	// DatabaseDSN is a file path for sqlite and a connection string otherwise.
	DatabaseDSN string `json:"database_dsn"`

	JWTSecret     string   `json:"jwt_secret"`
	TokenTTL      Duration `json:"token_ttl"`
	ResetTokenTTL Duration `json:"reset_token_ttl"`
	// ExposeResetTokens returns reset tokens in the forgot-password
	// response. Only for local development without a mail channel.
	ExposeResetTokens bool `json:"expose_reset_tokens"`

	// RedisAddr enables the distributed group lock when set.
	RedisAddr string `json:"redis_addr"`
	// LockExpiry is the redis lock lease. Held locks are extended while
	// the critical section runs.
	LockExpiry Duration `json:"lock_expiry"`
	LockTries  int      `json:"lock_tries"`

	// AMQPURL enables RabbitMQ event publishing when set.
	AMQPURL      string `json:"amqp_url"`
	AMQPExchange string `json:"amqp_exchange"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
}

// Defaults returns development settings.
// NOTE: the JWT secret must be overridden in production.
func Defaults() *Config {
	return &Config{
		HTTPAddr:      ":8080",
		DBDriver:      "sqlite",
		DatabaseDSN:   "./data/grouppay.db",
		JWTSecret:     "dev-secret-change-me",
		TokenTTL:      Duration(24 * time.Hour),
		ResetTokenTTL: Duration(15 * time.Minute),
		LockExpiry:    Duration(30 * time.Second),
		LockTries:     100,
		AMQPExchange:  "grouppay.events",
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// field binds one setting to its flag and environment variable.
type field struct {
	flag, env, usage string
	set              func(c *Config, v string) error
}

func str(p func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*p(c) = v
		return nil
	}
}

func dur(p func(*Config) *Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*p(c) = Duration(d)
		return nil
	}
}

func boolean(p func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*p(c) = b
		return nil
	}
}

func integer(p func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*p(c) = n
		return nil
	}
}

var fields = []field{
	{"addr", "HTTP_ADDR", "HTTP listen address", str(func(c *Config) *string { return &c.HTTPAddr })},
	{"db-driver", "DB_DRIVER", "database driver: sqlite, postgres or pgx", str(func(c *Config) *string { return &c.DBDriver })},
	{"db-dsn", "DB_DSN", "database DSN (file path for sqlite)", str(func(c *Config) *string { return &c.DatabaseDSN })},
	{"jwt-secret", "JWT_SECRET", "HMAC secret for session tokens", str(func(c *Config) *string { return &c.JWTSecret })},
	{"token-ttl", "TOKEN_TTL", "session token lifetime", dur(func(c *Config) *Duration { return &c.TokenTTL })},
	{"reset-token-ttl", "RESET_TOKEN_TTL", "password reset token lifetime", dur(func(c *Config) *Duration { return &c.ResetTokenTTL })},
	{"expose-reset-tokens", "EXPOSE_RESET_TOKENS", "return password reset tokens in API responses (development only)", boolean(func(c *Config) *bool { return &c.ExposeResetTokens })},
	{"redis-addr", "REDIS_ADDR", "redis address for distributed group locks", str(func(c *Config) *string { return &c.RedisAddr })},
	{"lock-expiry", "LOCK_EXPIRY", "distributed lock expiry", dur(func(c *Config) *Duration { return &c.LockExpiry })},
	{"lock-tries", "LOCK_TRIES", "distributed lock acquisition attempts", integer(func(c *Config) *int { return &c.LockTries })},
	{"amqp-url", "AMQP_URL", "RabbitMQ URL for domain events", str(func(c *Config) *string { return &c.AMQPURL })},
	{"amqp-exchange", "AMQP_EXCHANGE", "RabbitMQ exchange for domain events", str(func(c *Config) *string { return &c.AMQPExchange })},
	{"log-level", "LOG_LEVEL", "debug, info, warn or error", str(func(c *Config) *string { return &c.LogLevel })},
	{"log-format", "LOG_FORMAT", "text or json", str(func(c *Config) *string { return &c.LogFormat })},
}

// Load builds a Config from args (without the program name) and getenv.
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := Defaults()

	type pending struct {
		f     field
		value string
	}
	var fromFlags []pending
	configPath := getenv("CONFIG")

	fs := flag.NewFlagSet("grouppay", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", configPath, "path to a JSON config file")
	for _, f := range fields {
		fs.Func(f.flag, f.usage, func(v string) error {
			fromFlags = append(fromFlags, pending{f: f, value: v})
			return nil
		})
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath != "" {
		if err := loadJSON(cfg, configPath); err != nil {
			return nil, err
		}
	}

	for _, f := range fields {
		if v := getenv(f.env); v != "" {
			if err := f.set(cfg, v); err != nil {
				return nil, fmt.Errorf("invalid %s: %w", f.env, err)
			}
		}
	}

	for _, p := range fromFlags {
		if err := p.f.set(cfg, p.value); err != nil {
			return nil, fmt.Errorf("invalid -%s: %w", p.f.flag, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case "sqlite", "postgres", "pgx":
	default:
		errs = append(errs, fmt.Errorf("unsupported db driver %q", c.DBDriver))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	}
	if c.TokenTTL <= 0 || c.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if c.LockExpiry <= 0 {
		errs = append(errs, errors.New("lock expiry must be positive"))
	}
	if c.LockTries < 1 {
		errs = append(errs, errors.New("lock tries must be at least 1"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unsupported log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
