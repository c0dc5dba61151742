package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Settings holds process-level settings read from the environment.
// Project settings (compiler, networks, verification) live in Config.
type Settings struct {
	Logging LoggingConfig
	History HistoryConfig
	Metrics MetricsConfig
	Secrets SecretsConfig
	Verify  VerifyConfig
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string
	Format string // "text" or "json"
}

// HistoryConfig holds run history storage settings
type HistoryConfig struct {
	Type     string // "sqlite", "postgres" or "none"
	Postgres PostgresConfig
	SQLite   SQLiteConfig
}

// PostgresConfig holds Postgres connection settings
type PostgresConfig struct {
	URL string
}

// SQLiteConfig holds SQLite settings
type SQLiteConfig struct {
	Path string
}

// MetricsConfig holds dispatch metrics settings
type MetricsConfig struct {
	Enabled  bool
	TextFile string // Prometheus textfile written after each run
}

// SecretsConfig tells the CLI where secrets may come from besides the process environment.
type SecretsConfig struct {
	EnvFile   string // dotenv file, relative to the project dir
	StorePath string // user secrets file
	UseEnv    bool
}

// VerifyConfig holds verification status polling settings
type VerifyConfig struct {
	PollAttempts        int
	PollIntervalSeconds int
}

// Load loads process settings from environment variables
func Load() (*Settings, error) {
	s := &Settings{
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "warn"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		History: HistoryConfig{
			Type: getEnv("DEPLOYFORGE_HISTORY", "sqlite"),
			Postgres: PostgresConfig{
				URL: getEnv("DATABASE_URL", ""),
			},
			SQLite: SQLiteConfig{
				Path: getEnv("DEPLOYFORGE_HISTORY_PATH", filepath.Join(".deployforge", "history.db")),
			},
		},
		Metrics: MetricsConfig{
			TextFile: getEnv("DEPLOYFORGE_METRICS_FILE", ""),
		},
		Secrets: SecretsConfig{
			EnvFile:   getEnv("DEPLOYFORGE_ENV_FILE", ".env"),
			StorePath: getEnv("DEPLOYFORGE_SECRETS_FILE", filepath.Join(HomeDir(), "secrets.yaml")),
			UseEnv:    getEnvBool("DEPLOYFORGE_USE_ENV", true),
		},
		Verify: VerifyConfig{
			PollAttempts:        getEnvInt("DEPLOYFORGE_VERIFY_ATTEMPTS", 20),
			PollIntervalSeconds: getEnvInt("DEPLOYFORGE_VERIFY_INTERVAL", 3),
		},
	}

	// If DATABASE_URL is set, default to postgres
	if s.History.Postgres.URL != "" && s.History.Type == "sqlite" {
		s.History.Type = "postgres"
	}

	s.Metrics.Enabled = s.Metrics.TextFile != "" || getEnvBool("DEPLOYFORGE_METRICS", false)

	return s, nil
}

// HomeDir returns the per-user deployforge directory (~/.deployforge).
func HomeDir() string {
	if dir := os.Getenv("DEPLOYFORGE_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".deployforge"
	}
	return filepath.Join(home, ".deployforge")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}
