// Package config handles configuration loading and management for Conclave.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for Conclave.
type Config struct {
	Anthropic    AnthropicConfig    `mapstructure:"anthropic"`
	Coordination CoordinationConfig `mapstructure:"coordination"`
	Archive      ArchiveConfig      `mapstructure:"archive"`
	Ingest       IngestConfig       `mapstructure:"ingest"`
	Triage       TriageConfig       `mapstructure:"triage"`
	TUI          TUIConfig          `mapstructure:"tui"`
}

// AnthropicConfig holds Anthropic API settings for drafting feedback replies.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
	// UseBedrock routes completion calls through AWS Bedrock instead of the
	// Anthropic API.
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
}

// CoordinationConfig holds coordinator settings.
type CoordinationConfig struct {
	// Roles is the agent fleet registered at startup. Empty means the
	// standard six-role fleet.
	Roles []string `mapstructure:"roles"`
	// EventBuffer is the coordination event channel capacity.
	EventBuffer int `mapstructure:"event_buffer"`
}

// ArchiveConfig holds audit archive settings.
type ArchiveConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Path is the SQLite database file. Empty means the XDG data directory.
	Path string `mapstructure:"path"`
}

// IngestConfig holds feedback drop-directory settings.
type IngestConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// DropDir is the directory watched for incoming feedback files.
	DropDir string `mapstructure:"drop_dir"`
}

// TriageConfig holds feedback triage settings.
type TriageConfig struct {
	// TrendWindow is the lookback window for trend analysis.
	TrendWindow time.Duration `mapstructure:"trend_window"`
	// DraftResponses enables LLM-drafted replies for feedback that expects
	// an answer.
	DraftResponses bool `mapstructure:"draft_responses"`
}

// TUIConfig holds TUI display settings.
type TUIConfig struct {
	RefreshRate time.Duration `mapstructure:"refresh_rate"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, CONCLAVE_*)
// 2. Project config (.conclave.yaml in current directory or parent)
// 3. User config (~/.config/conclave/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Merge project config (takes precedence)
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("CONCLAVE")

	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.aws_region", "AWS_REGION")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Archive.Path = expandEnv(cfg.Archive.Path)
	cfg.Ingest.DropDir = expandEnv(cfg.Ingest.DropDir)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Archive.Path = expandEnv(cfg.Archive.Path)
	cfg.Ingest.DropDir = expandEnv(cfg.Ingest.DropDir)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("coordination.roles", cfg.Coordination.Roles)
	v.Set("coordination.event_buffer", cfg.Coordination.EventBuffer)
	v.Set("archive.enabled", cfg.Archive.Enabled)
	v.Set("archive.path", cfg.Archive.Path)
	v.Set("ingest.enabled", cfg.Ingest.Enabled)
	v.Set("ingest.drop_dir", cfg.Ingest.DropDir)
	v.Set("triage.trend_window", cfg.Triage.TrendWindow.String())
	v.Set("triage.draft_responses", cfg.Triage.DraftResponses)
	v.Set("tui.refresh_rate", cfg.TUI.RefreshRate.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// DefaultArchivePath returns the XDG data path for the audit archive.
func DefaultArchivePath() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "conclave", "archive.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".local", "share", "conclave", "archive.db")
	}
	return filepath.Join(home, ".local", "share", "conclave", "archive.db")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")

	v.SetDefault("coordination.roles", []string{})
	v.SetDefault("coordination.event_buffer", 64)

	v.SetDefault("archive.enabled", true)
	v.SetDefault("archive.path", "")

	v.SetDefault("ingest.enabled", false)
	v.SetDefault("ingest.drop_dir", "feedback")

	v.SetDefault("triage.trend_window", "168h")
	v.SetDefault("triage.draft_responses", false)

	v.SetDefault("tui.refresh_rate", "100ms")
}

// getUserConfigDir returns the XDG config directory for Conclave.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "conclave")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "conclave")
	}
	return filepath.Join(home, ".config", "conclave")
}

// findProjectConfig searches for .conclave.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".conclave.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet-4-20250514",
		},
		Coordination: CoordinationConfig{
			EventBuffer: 64,
		},
		Archive: ArchiveConfig{
			Enabled: true,
		},
		Ingest: IngestConfig{
			DropDir: "feedback",
		},
		Triage: TriageConfig{
			TrendWindow: 168 * time.Hour,
		},
		TUI: TUIConfig{
			RefreshRate: 100 * time.Millisecond,
		},
	}
}
