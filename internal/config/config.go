package config

import (
	"os"
	"strconv"
	"time"

	"droplab/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig `validate:"required"`
	Ops      OpsConfig
	Data     DataConfig `validate:"required"`
}

// DatabaseConfig holds database connection settings. An empty URL switches
// the service into synthetic-fleet mode backed by the testkit adapter.
type DatabaseConfig struct {
	URL      string
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `validate:"required"`
	GinMode string
}

// OpsConfig holds the operational sidecar settings (health, metrics, pprof)
type OpsConfig struct {
	Port    string
	Enabled bool
}

// DataConfig holds planning data settings
type DataConfig struct {
	SnapshotTTL      time.Duration // how long one fleet snapshot stays cached
	HistoryFile      string        // optional spreadsheet with campaign outcomes
	SweepConcurrency int           // parallel store evaluations in a fleet sweep
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	// Load database configuration
	dbConfig := loadDatabaseConfig()
	config.Database = *dbConfig

	// Load server configuration
	serverConfig := loadServerConfig()
	config.Server = *serverConfig

	// Load ops configuration
	opsConfig := loadOpsConfig()
	config.Ops = *opsConfig

	// Load data configuration
	dataConfig := loadDataConfig()
	config.Data = *dataConfig

	// Validate required fields
	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:      getEnvOrDefault("DATABASE_URL", ""),
		User:     getEnvOrDefault("DB_USER", ""),
		Password: getEnvOrDefault("DB_PASS", ""),
		Name:     getEnvOrDefault("DB_NAME", ""),
		Host:     getEnvOrDefault("DB_HOST", ""),
		Port:     getEnvIntOrDefault("DB_PORT", 5432),
		SSLMode:  getEnvOrDefault("SSL_MODE", "disable"),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadOpsConfig() *OpsConfig {
	return &OpsConfig{
		Port:    getEnvOrDefault("OPS_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("OPS_ENABLED", true),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		SnapshotTTL:      getEnvDurationOrDefault("SNAPSHOT_TTL", 5*time.Minute),
		HistoryFile:      getEnvOrDefault("HISTORY_FILE", ""),
		SweepConcurrency: getEnvIntOrDefault("SWEEP_CONCURRENCY", 8),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Data.SnapshotTTL <= 0 {
		return errors.ConfigInvalid("snapshot TTL must be positive")
	}
	if config.Data.SweepConcurrency < 1 {
		return errors.ConfigInvalid("sweep concurrency must be at least 1")
	}
	return nil
}

// SyntheticMode reports whether the service runs without a database,
// serving generated fleet data instead.
func (c *Config) SyntheticMode() bool {
	return c.Database.URL == ""
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
