package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmallek/conclave/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Conclave configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/conclave/config.yaml
Project-specific overrides can be placed in .conclave.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	key, _ := config.GetAPIKey(cfg)
	fmt.Printf("anthropic.api_key: %s (source: %s)\n", config.MaskAPIKey(key), config.GetAPIKeySource(cfg))
	fmt.Printf("anthropic.model: %s\n", cfg.Anthropic.Model)
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	fmt.Printf("anthropic.aws_region: %s\n", cfg.Anthropic.AWSRegion)
	fmt.Printf("coordination.roles: %s\n", strings.Join(cfg.Coordination.Roles, ","))
	fmt.Printf("coordination.event_buffer: %d\n", cfg.Coordination.EventBuffer)
	fmt.Printf("archive.enabled: %t\n", cfg.Archive.Enabled)
	fmt.Printf("archive.path: %s\n", cfg.Archive.Path)
	fmt.Printf("ingest.enabled: %t\n", cfg.Ingest.Enabled)
	fmt.Printf("ingest.drop_dir: %s\n", cfg.Ingest.DropDir)
	fmt.Printf("triage.trend_window: %s\n", cfg.Triage.TrendWindow)
	fmt.Printf("triage.draft_responses: %t\n", cfg.Triage.DraftResponses)
	fmt.Printf("tui.refresh_rate: %s\n", cfg.TUI.RefreshRate)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		k, _ := config.GetAPIKey(cfg)
		return config.MaskAPIKey(k), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "coordination.roles":
		return strings.Join(cfg.Coordination.Roles, ","), nil
	case "coordination.event_buffer":
		return strconv.Itoa(cfg.Coordination.EventBuffer), nil
	case "archive.enabled":
		return strconv.FormatBool(cfg.Archive.Enabled), nil
	case "archive.path":
		return cfg.Archive.Path, nil
	case "ingest.enabled":
		return strconv.FormatBool(cfg.Ingest.Enabled), nil
	case "ingest.drop_dir":
		return cfg.Ingest.DropDir, nil
	case "triage.trend_window":
		return cfg.Triage.TrendWindow.String(), nil
	case "triage.draft_responses":
		return strconv.FormatBool(cfg.Triage.DraftResponses), nil
	case "tui.refresh_rate":
		return cfg.TUI.RefreshRate.String(), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for use_bedrock: %w", err)
		}
		cfg.Anthropic.UseBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "coordination.roles":
		cfg.Coordination.Roles = strings.Split(value, ",")
	case "coordination.event_buffer":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for event_buffer: %w", err)
		}
		cfg.Coordination.EventBuffer = n
	case "archive.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for archive.enabled: %w", err)
		}
		cfg.Archive.Enabled = b
	case "archive.path":
		cfg.Archive.Path = value
	case "ingest.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for ingest.enabled: %w", err)
		}
		cfg.Ingest.Enabled = b
	case "ingest.drop_dir":
		cfg.Ingest.DropDir = value
	case "triage.trend_window":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for trend_window: %w", err)
		}
		cfg.Triage.TrendWindow = d
	case "triage.draft_responses":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for draft_responses: %w", err)
		}
		cfg.Triage.DraftResponses = b
	case "tui.refresh_rate":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for refresh_rate: %w", err)
		}
		cfg.TUI.RefreshRate = d
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
