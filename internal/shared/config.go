package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	App       AppConfig       `toml:"app"`
	Bluesky   BlueskyConfig   `toml:"bluesky"`
	Export    ExportConfig    `toml:"export"`
	Migration MigrationConfig `toml:"migration"`
	Database  DatabaseConfig  `toml:"database"`
}

// AppConfig contains application-wide settings.
type AppConfig struct {
	Demo    bool   `toml:"demo"`
	LogFile string `toml:"log_file"`
}

// BlueskyConfig contains Bluesky PDS credentials.
type BlueskyConfig struct {
	Service     string `toml:"service"`
	Identifier  string `toml:"identifier"`
	AppPassword string `toml:"app_password"`
}

// ExportConfig contains Instagram export settings.
type ExportConfig struct {
	Path      string  `toml:"path"`
	RateLimit float64 `toml:"rate_limit"`
}

// MigrationConfig contains default migration filters applied to a fresh workflow.
type MigrationConfig struct {
	IncludeLikes    bool   `toml:"include_likes"`
	IncludeComments bool   `toml:"include_comments"`
	MediaQuality    string `toml:"media_quality"`
	BatchSize       int    `toml:"batch_size"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
