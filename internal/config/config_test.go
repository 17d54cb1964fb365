package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Coordination.EventBuffer != 64 {
		t.Errorf("expected default event buffer 64, got %d", cfg.Coordination.EventBuffer)
	}

	if len(cfg.Coordination.Roles) != 0 {
		t.Errorf("expected empty default roles, got %v", cfg.Coordination.Roles)
	}

	if !cfg.Archive.Enabled {
		t.Error("expected archive.enabled to be true")
	}

	if cfg.Ingest.Enabled {
		t.Error("expected ingest.enabled to be false")
	}

	if cfg.Ingest.DropDir != "feedback" {
		t.Errorf("expected drop_dir 'feedback', got %q", cfg.Ingest.DropDir)
	}

	if cfg.Triage.TrendWindow != 168*time.Hour {
		t.Errorf("expected trend window 168h, got %v", cfg.Triage.TrendWindow)
	}

	if cfg.TUI.RefreshRate != 100*time.Millisecond {
		t.Errorf("expected refresh rate 100ms, got %v", cfg.TUI.RefreshRate)
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: test-key
  model: claude-sonnet-4-20250514
  use_bedrock: true
  aws_region: us-west-2
coordination:
  roles:
    - developer
    - qa_test
  event_buffer: 128
archive:
  enabled: false
  path: /tmp/conclave.db
ingest:
  enabled: true
  drop_dir: /tmp/drop
triage:
  trend_window: 72h
  draft_responses: true
tui:
  refresh_rate: 200ms
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("expected api_key 'test-key', got %q", cfg.Anthropic.APIKey)
	}

	if !cfg.Anthropic.UseBedrock || cfg.Anthropic.AWSRegion != "us-west-2" {
		t.Errorf("bedrock settings not loaded: %+v", cfg.Anthropic)
	}

	if len(cfg.Coordination.Roles) != 2 || cfg.Coordination.Roles[0] != "developer" {
		t.Errorf("expected two roles, got %v", cfg.Coordination.Roles)
	}

	if cfg.Coordination.EventBuffer != 128 {
		t.Errorf("expected event buffer 128, got %d", cfg.Coordination.EventBuffer)
	}

	if cfg.Archive.Enabled {
		t.Error("expected archive.enabled to be false")
	}

	if cfg.Archive.Path != "/tmp/conclave.db" {
		t.Errorf("expected archive path, got %q", cfg.Archive.Path)
	}

	if !cfg.Ingest.Enabled || cfg.Ingest.DropDir != "/tmp/drop" {
		t.Errorf("ingest settings not loaded: %+v", cfg.Ingest)
	}

	if cfg.Triage.TrendWindow != 72*time.Hour {
		t.Errorf("expected trend window 72h, got %v", cfg.Triage.TrendWindow)
	}

	if !cfg.Triage.DraftResponses {
		t.Error("expected draft_responses to be true")
	}

	if cfg.TUI.RefreshRate != 200*time.Millisecond {
		t.Errorf("expected refresh rate 200ms, got %v", cfg.TUI.RefreshRate)
	}
}

func TestLoadFromPathDefaultsFillGaps(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("anthropic:\n  api_key: k\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Coordination.EventBuffer != 64 {
		t.Errorf("expected default event buffer, got %d", cfg.Coordination.EventBuffer)
	}
	if !cfg.Archive.Enabled {
		t.Error("expected default archive.enabled true")
	}
}

func TestExpandEnv(t *testing.T) {
	os.Setenv("TEST_VAR", "expanded-value")
	defer os.Unsetenv("TEST_VAR")

	result := expandEnv("${TEST_VAR}")
	if result != "expanded-value" {
		t.Errorf("expected 'expanded-value', got %q", result)
	}

	result = expandEnv("prefix-${TEST_VAR}-suffix")
	if result != "prefix-expanded-value-suffix" {
		t.Errorf("expected 'prefix-expanded-value-suffix', got %q", result)
	}
}

func TestGetUserConfigDir(t *testing.T) {
	os.Setenv("XDG_CONFIG_HOME", "/custom/config")
	defer os.Unsetenv("XDG_CONFIG_HOME")

	dir := getUserConfigDir()
	expected := "/custom/config/conclave"
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}

func TestDefaultArchivePath(t *testing.T) {
	os.Setenv("XDG_DATA_HOME", "/custom/data")
	defer os.Unsetenv("XDG_DATA_HOME")

	got := DefaultArchivePath()
	expected := "/custom/data/conclave/archive.db"
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}
