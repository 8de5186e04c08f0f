package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration, loaded once at startup and
// injected into constructors.
type Config struct {
	Port        int
	Environment string
	CORSOrigins []string
	Database    DatabaseConfig
	Logging     LoggingConfig
	Probes      ProbeConfig
	Sweeps      SweepConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // trace, debug, info, warn, error
	Format string // json or console
}

// ProbeConfig holds probe timeouts and knobs.
type ProbeConfig struct {
	HTTPTimeout         time.Duration
	TLSTimeout          time.Duration
	WhoisTimeout        time.Duration
	ConnectivityTimeout time.Duration
	ConnectivityURL     string
	RenderTimeout       time.Duration
	RenderEnabled       bool
	AllowPrivateIPs     bool
}

// SweepConfig holds sweep cadences (cron expressions) and engine knobs.
type SweepConfig struct {
	MonitorCron   string // default: every minute
	SSLCron       string // default: daily
	DomainCron    string // default: daily
	RetentionCron string
	RetentionDays int
	BatchSize     int
	SettleDelay   time.Duration
	RenotifyAfter time.Duration
	FastPoll      time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		Environment: getEnv("ENVIRONMENT", "production"),
		CORSOrigins: []string{getEnv("APP_URL", "http://localhost:8080")},
		Database: DatabaseConfig{
			DSN:          getEnv("DATABASE_DSN", buildPostgresDSN()),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Probes: ProbeConfig{
			HTTPTimeout:         getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
			TLSTimeout:          getEnvDuration("TLS_TIMEOUT", 10*time.Second),
			WhoisTimeout:        getEnvDuration("WHOIS_TIMEOUT", 10*time.Second),
			ConnectivityTimeout: getEnvDuration("CONNECTIVITY_TIMEOUT", 5*time.Second),
			ConnectivityURL:     getEnv("CONNECTIVITY_URL", ""),
			RenderTimeout:       getEnvDuration("RENDER_TIMEOUT", 30*time.Second),
			RenderEnabled:       getEnvBool("RENDER_ENABLED", true),
			AllowPrivateIPs:     getEnvBool("ALLOW_PRIVATE_IPS", false),
		},
		Sweeps: SweepConfig{
			MonitorCron:   getEnv("MONITOR_SWEEP_CRON", "* * * * *"),
			SSLCron:       getEnv("SSL_SWEEP_CRON", "15 4 * * *"),
			DomainCron:    getEnv("DOMAIN_SWEEP_CRON", "45 4 * * *"),
			RetentionCron: getEnv("RETENTION_CRON", "14 3 * * *"),
			RetentionDays: getEnvInt("RETENTION_DAYS", 90),
			BatchSize:     getEnvInt("SWEEP_BATCH_SIZE", 10),
			SettleDelay:   getEnvDuration("SETTLE_DELAY", 3*time.Second),
			RenotifyAfter: getEnvDuration("RENOTIFY_AFTER", 10*time.Minute),
			FastPoll:      getEnvDuration("FAST_POLL_INTERVAL", 3*time.Second),
		},
	}

	return cfg
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	if c.Sweeps.BatchSize < 1 {
		return fmt.Errorf("sweep batch size must be at least 1")
	}
	if c.Sweeps.RetentionDays < 1 {
		return fmt.Errorf("retention must be at least 1 day")
	}
	return nil
}

func buildPostgresDSN() string {
	host := getEnv("POSTGRES_HOST", "localhost")
	port := getEnv("POSTGRES_PORT", "5432")
	user := getEnv("POSTGRES_USER", "watchpost")
	password := getEnv("POSTGRES_PASSWORD", "secret")
	dbName := getEnv("POSTGRES_DB", "watchpost")
	sslMode := getEnv("POSTGRES_SSLMODE", "disable")

	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(user, password),
		Host:   fmt.Sprintf("%s:%s", host, port),
		Path:   dbName,
	}

	query := u.Query()
	query.Set("sslmode", sslMode)
	u.RawQuery = query.Encode()

	return u.String()
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
