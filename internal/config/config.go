// Package config provides configuration loading for the stridecheck CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	// Ranges configuration
	Ranges RangesConfig `mapstructure:"ranges"`

	// Dataset configuration
	Dataset DatasetConfig `mapstructure:"dataset"`

	// Validate configuration
	Validate ValidateConfig `mapstructure:"validate"`

	// Storage configuration
	Storage StorageConfig `mapstructure:"storage"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// RangesConfig locates the range specification documents.
type RangesConfig struct {
	// Base is the baseline specification path.
	Base string `mapstructure:"base"`

	// Overrides are layered on top of the base, in order.
	Overrides []string `mapstructure:"overrides"`

	// Aliases is the variable alias table path (optional).
	Aliases string `mapstructure:"aliases"`
}

// DatasetConfig locates the input table.
type DatasetConfig struct {
	// Path is the Parquet or CSV file with the phase-indexed table.
	Path string `mapstructure:"path"`
}

// ValidateConfig tunes the batch run.
type ValidateConfig struct {
	PointsPerCycle int `mapstructure:"pointsPerCycle"`
	Workers        int `mapstructure:"workers"`
}

// StorageConfig selects the run persistence backend.
type StorageConfig struct {
	// Driver is "sqlite", "postgres", or "none".
	Driver string `mapstructure:"driver"`

	// Path is the SQLite database file.
	Path string `mapstructure:"path"`

	// Postgres holds PostgreSQL connection settings.
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ConnectionString builds a lib/pq connection string.
func (c PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Ranges: RangesConfig{
			Base: "ranges.yaml",
		},
		Validate: ValidateConfig{
			PointsPerCycle: 150,
			Workers:        4,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "stridecheck.db",
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				User:    "stridecheck",
				Name:    "stridecheck",
				SSLMode: "disable",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from file and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".stridecheck"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("STRIDECHECK")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ranges.base", "ranges.yaml")
	v.SetDefault("ranges.overrides", []string{})
	v.SetDefault("ranges.aliases", "")
	v.SetDefault("dataset.path", "")
	v.SetDefault("validate.pointsPerCycle", 150)
	v.SetDefault("validate.workers", 4)
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.path", "stridecheck.db")
	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", 5432)
	v.SetDefault("storage.postgres.user", "stridecheck")
	v.SetDefault("storage.postgres.password", "")
	v.SetDefault("storage.postgres.name", "stridecheck")
	v.SetDefault("storage.postgres.sslmode", "disable")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
