package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the dashboard.
type Config struct {
	App      AppConfig
	Gateway  GatewayConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Teams    TeamsConfig
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

// GatewayConfig points the dashboard at the ticket backend.
type GatewayConfig struct {
	BaseURL        string
	TimeoutSeconds int
	UserAgent      string
	// InitialTeam filters the first ticket load; empty loads every team.
	InitialTeam string
	// RefreshSeconds reloads tickets periodically; zero disables it.
	RefreshSeconds int
}

// PostgresConfig holds the reassignment journal connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// TeamsConfig controls the selectable team list.
type TeamsConfig struct {
	CacheTTLSeconds int
	Fallback        []string
}

var defaultTeams = []string{
	"Cluster Architecture",
	"Containers and Workloads",
	"Networking",
	"Cluster Administration",
	"Configuration and Security",
	"Scheduling and Resource management",
	"Storage",
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "triage-dashboard"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "4300"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Gateway: GatewayConfig{
			BaseURL:        strings.TrimRight(getEnv("GATEWAY_BASE_URL", "http://localhost:8080/api"), "/"),
			TimeoutSeconds: getEnvAsInt("GATEWAY_TIMEOUT_SECONDS", 15),
			UserAgent:      getEnv("GATEWAY_USER_AGENT", "triage-dashboard"),
			InitialTeam:    os.Getenv("GATEWAY_INITIAL_TEAM"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 5)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Teams: TeamsConfig{
			CacheTTLSeconds: getEnvAsInt("TEAMS_CACHE_TTL_SECONDS", 300),
			Fallback:        getEnvAsList("TEAMS_FALLBACK", defaultTeams),
		},
	}

	if err := cfg.Gateway.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
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

// Validate checks that the base URL is an absolute http(s) URL.
func (g GatewayConfig) Validate() error {
	parsed, err := url.Parse(g.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid GATEWAY_BASE_URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid GATEWAY_BASE_URL %q: scheme must be http or https", g.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("invalid GATEWAY_BASE_URL %q: missing host", g.BaseURL)
	}
	return nil
}

// Timeout returns the per-call gateway timeout.
func (g GatewayConfig) Timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// RefreshInterval returns the ticket refresh period, zero when disabled.
func (g GatewayConfig) RefreshInterval() time.Duration {
	if g.RefreshSeconds <= 0 {
		return 0
	}
	return time.Duration(g.RefreshSeconds) * time.Second
}

// CacheTTL returns how long the team list stays cached.
func (t TeamsConfig) CacheTTL() time.Duration {
	if t.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(t.CacheTTLSeconds) * time.Second
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

// getEnvAsList splits a comma separated value, dropping blank items.
func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if strings.TrimSpace(val) == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
