package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Logger    LoggerConfig    `yaml:"logger"`
	Ephemeral EphemeralConfig `yaml:"ephemeral"`
	Tickets   TicketsConfig   `yaml:"tickets"`
	Sink      SinkConfig      `yaml:"sink"`
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `yaml:"name"`
	Env                   string `yaml:"env"`
	Host                  string `yaml:"host"`
	Port                  string `yaml:"port"`
	Version               string `yaml:"version"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// PostgresConfig holds DB connection values. An empty DSN selects the in-memory store.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	MaxConns       int32  `yaml:"max_conns"`
	MinConns       int32  `yaml:"min_conns"`
	RunMigrations  bool   `yaml:"run_migrations"`
	MigrationsDir  string `yaml:"migrations_dir"`
	ConnMaxIdleSec int32  `yaml:"conn_max_idle_seconds"`
	ConnMaxLifeSec int32  `yaml:"conn_max_life_seconds"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `yaml:"level"`
	// Format is "json" or "console".
	Format string `yaml:"format"`
}

// Ephemeral backends.
const (
	EphemeralBackendMemory = "memory"
	EphemeralBackendRedis  = "redis"
)

// EphemeralConfig tunes typing presence and the notification feed.
type EphemeralConfig struct {
	Backend        string        `yaml:"backend"`
	TypingTTL      time.Duration `yaml:"typing_ttl"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	FeedCapacity   int           `yaml:"feed_capacity"`
	PreviewLength  int           `yaml:"preview_length"`
	RedisKeyPrefix string        `yaml:"redis_key_prefix"`
}

// TicketsConfig holds ticket workflow switches.
type TicketsConfig struct {
	NumberLength             int  `yaml:"number_length"`
	MaxCreateAttempts        int  `yaml:"max_create_attempts"`
	AllowPublicMessageDelete bool `yaml:"allow_public_message_delete"`
	DeleteRequiresArchive    bool `yaml:"delete_requires_archive"`
}

// SinkConfig points at the spreadsheet webhook that receives new-ticket summaries.
type SinkConfig struct {
	WebhookURL string        `yaml:"webhook_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Load builds configuration from defaults, an optional YAML file, and environment
// variables, in increasing order of precedence. path may be empty.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:                  "helpdesk-service",
			Env:                   "development",
			Host:                  "0.0.0.0",
			Port:                  "3000",
			Version:               "dev",
			RequestTimeoutSeconds: 30,
		},
		Postgres: PostgresConfig{
			MaxConns:       10,
			MinConns:       2,
			RunMigrations:  true,
			MigrationsDir:  "migrations",
			ConnMaxIdleSec: 30,
			ConnMaxLifeSec: 300,
		},
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Ephemeral: EphemeralConfig{
			Backend:        EphemeralBackendMemory,
			TypingTTL:      10 * time.Second,
			SweepInterval:  30 * time.Second,
			FeedCapacity:   50,
			PreviewLength:  100,
			RedisKeyPrefix: "helpdesk",
		},
		Tickets: TicketsConfig{
			NumberLength:      8,
			MaxCreateAttempts: 5,
		},
		Sink: SinkConfig{
			Timeout: 5 * time.Second,
		},
	}
}

func applyEnv(cfg *Config) error {
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", strconv.Itoa(cfg.Redis.DB)))
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	typingTTL, err := getEnvAsDuration("EPHEMERAL_TYPING_TTL", cfg.Ephemeral.TypingTTL)
	if err != nil {
		return err
	}
	sweepInterval, err := getEnvAsDuration("EPHEMERAL_SWEEP_INTERVAL", cfg.Ephemeral.SweepInterval)
	if err != nil {
		return err
	}
	sinkTimeout, err := getEnvAsDuration("SHEETS_WEBHOOK_TIMEOUT", cfg.Sink.Timeout)
	if err != nil {
		return err
	}

	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnv("APP_PORT", getEnv("PORT", cfg.App.Port))
	cfg.App.Version = getEnv("APP_VERSION", cfg.App.Version)
	cfg.App.RequestTimeoutSeconds = getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", cfg.App.RequestTimeoutSeconds)

	cfg.Postgres.DSN = getEnv("POSTGRES_DSN", cfg.Postgres.DSN)
	cfg.Postgres.MaxConns = int32(getEnvAsInt("POSTGRES_MAX_CONNS", int(cfg.Postgres.MaxConns)))
	cfg.Postgres.MinConns = int32(getEnvAsInt("POSTGRES_MIN_CONNS", int(cfg.Postgres.MinConns)))
	cfg.Postgres.RunMigrations = getEnvAsBool("POSTGRES_RUN_MIGRATIONS", cfg.Postgres.RunMigrations)
	cfg.Postgres.MigrationsDir = getEnv("POSTGRES_MIGRATIONS_DIR", cfg.Postgres.MigrationsDir)
	cfg.Postgres.ConnMaxIdleSec = int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", int(cfg.Postgres.ConnMaxIdleSec)))
	cfg.Postgres.ConnMaxLifeSec = int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", int(cfg.Postgres.ConnMaxLifeSec)))

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = redisDB

	cfg.Logger.Level = getEnv("LOG_LEVEL", cfg.Logger.Level)
	cfg.Logger.Format = strings.ToLower(getEnv("LOG_FORMAT", cfg.Logger.Format))

	cfg.Ephemeral.Backend = strings.ToLower(getEnv("EPHEMERAL_BACKEND", cfg.Ephemeral.Backend))
	cfg.Ephemeral.TypingTTL = typingTTL
	cfg.Ephemeral.SweepInterval = sweepInterval
	cfg.Ephemeral.FeedCapacity = getEnvAsInt("EPHEMERAL_FEED_CAPACITY", cfg.Ephemeral.FeedCapacity)
	cfg.Ephemeral.PreviewLength = getEnvAsInt("EPHEMERAL_PREVIEW_LENGTH", cfg.Ephemeral.PreviewLength)
	cfg.Ephemeral.RedisKeyPrefix = getEnv("EPHEMERAL_REDIS_KEY_PREFIX", cfg.Ephemeral.RedisKeyPrefix)

	cfg.Tickets.NumberLength = getEnvAsInt("TICKET_NUMBER_LENGTH", cfg.Tickets.NumberLength)
	cfg.Tickets.MaxCreateAttempts = getEnvAsInt("TICKET_MAX_CREATE_ATTEMPTS", cfg.Tickets.MaxCreateAttempts)
	cfg.Tickets.AllowPublicMessageDelete = getEnvAsBool("TICKET_ALLOW_PUBLIC_MESSAGE_DELETE", cfg.Tickets.AllowPublicMessageDelete)
	cfg.Tickets.DeleteRequiresArchive = getEnvAsBool("TICKET_DELETE_REQUIRES_ARCHIVE", cfg.Tickets.DeleteRequiresArchive)

	cfg.Sink.WebhookURL = getEnv("SHEETS_WEBHOOK_URL", cfg.Sink.WebhookURL)
	cfg.Sink.Timeout = sinkTimeout
	return nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.Ephemeral.Backend {
	case EphemeralBackendMemory, EphemeralBackendRedis:
	default:
		return fmt.Errorf("invalid ephemeral backend %q", c.Ephemeral.Backend)
	}
	if c.Ephemeral.TypingTTL <= 0 {
		return fmt.Errorf("ephemeral typing_ttl must be positive")
	}
	if c.Ephemeral.SweepInterval <= 0 {
		return fmt.Errorf("ephemeral sweep_interval must be positive")
	}
	if c.Ephemeral.FeedCapacity <= 0 {
		return fmt.Errorf("ephemeral feed_capacity must be positive")
	}
	if c.Tickets.NumberLength < 4 || c.Tickets.NumberLength > 32 {
		return fmt.Errorf("tickets number_length must be between 4 and 32")
	}
	if c.Tickets.MaxCreateAttempts <= 0 {
		return fmt.Errorf("tickets max_create_attempts must be positive")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
