package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Loader sources understood by LOADER_SOURCE.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceExport   = "export"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Dashboard DashboardConfig
	Loader    LoaderConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	ChannelPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// DashboardConfig tunes aggregation and session handling.
type DashboardConfig struct {
	TopN          int
	SessionTTL    time.Duration
	SweepInterval time.Duration
}

// LoaderConfig selects where ticket rows come from at startup.
type LoaderConfig struct {
	Source   string
	FilePath string
	Export   ExportConfig
}

// ExportConfig describes the ticket-export HTTP API.
type ExportConfig struct {
	URL      string
	Username string
	Password string
	AppToken string
	From     string
	PageSize int
	Timeout  time.Duration
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-dashboard"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:          os.Getenv("REDIS_ADDR"),
			Password:      os.Getenv("REDIS_PASSWORD"),
			DB:            redisDB,
			ChannelPrefix: getEnv("REDIS_CHANNEL_PREFIX", "dashboard:updates"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Dashboard: DashboardConfig{
			TopN:          getEnvAsInt("DASHBOARD_TOP_N", 15),
			SessionTTL:    getEnvAsDuration("DASHBOARD_SESSION_TTL", 30*time.Minute),
			SweepInterval: getEnvAsDuration("DASHBOARD_SWEEP_INTERVAL", time.Minute),
		},
		Loader: LoaderConfig{
			Source:   strings.ToLower(getEnv("LOADER_SOURCE", SourceFile)),
			FilePath: getEnv("LOADER_FILE", "data/tickets.csv"),
			Export: ExportConfig{
				URL:      os.Getenv("EXPORT_URL"),
				Username: os.Getenv("EXPORT_USERNAME"),
				Password: os.Getenv("EXPORT_PASSWORD"),
				AppToken: os.Getenv("EXPORT_APP_TOKEN"),
				From:     getEnv("EXPORT_FROM", "24-07-2024 00:00:00"),
				PageSize: getEnvAsInt("EXPORT_PAGE_SIZE", 200),
				Timeout:  getEnvAsDuration("EXPORT_TIMEOUT", 30*time.Second),
			},
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Loader.Source {
	case SourceFile:
		if c.Loader.FilePath == "" {
			return fmt.Errorf("LOADER_FILE required for source %q", SourceFile)
		}
	case SourcePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("POSTGRES_DSN required for source %q", SourcePostgres)
		}
	case SourceExport:
		if c.Loader.Export.URL == "" {
			return fmt.Errorf("EXPORT_URL required for source %q", SourceExport)
		}
	default:
		return fmt.Errorf("invalid LOADER_SOURCE %q", c.Loader.Source)
	}
	if c.Dashboard.TopN <= 0 {
		return fmt.Errorf("DASHBOARD_TOP_N must be positive, got %d", c.Dashboard.TopN)
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
