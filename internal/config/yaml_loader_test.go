package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestYAMLLoader_LoadFromFile(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "oci-toolkit-test-")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	configContent := `logging:
  level: debug
  format: json
  filePath: stderr
  maxSize: 10
  maxBackups: 5
  maxAge: 30
  compress: true

ociClient:
  cliPath: /usr/local/bin/oci
  configFilePath: /home/user/.oci/config
  defaultTimeout: 45s

discovery:
  outputDir: /var/snapshots
  ignoredTagNamespaces:
    - Oracle-Tags
    - Internal-Tags
  lockPollInterval: 50ms
  lockMaxAttempts: 200

provisioning:
  maxCycles: 100
  maxErrorCyclesPerAD: 10
  maxBackoffAttempts: 9
  baseBackoff: 2s
  maxBackoff: 5m
  decorrelatedJitter: 1s
  interADSleepMin: 2s
  interADSleepMax: 8s
  lockDirCandidates:
    - /tmp/oci-provision
`

	configPath := filepath.Join(tempDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	loader := NewYAMLLoader(configPath)
	cfg := Default()

	if err := loader.LoadFromFile(configPath, cfg); err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.OCIClient.CLIPath != "/usr/local/bin/oci" {
		t.Errorf("OCIClient.CLIPath = %q, want %q", cfg.OCIClient.CLIPath, "/usr/local/bin/oci")
	}
	if cfg.OCIClient.DefaultTimeout != 45*time.Second {
		t.Errorf("OCIClient.DefaultTimeout = %v, want %v", cfg.OCIClient.DefaultTimeout, 45*time.Second)
	}
	if len(cfg.Discovery.IgnoredTagNamespaces) != 2 {
		t.Errorf("Discovery.IgnoredTagNamespaces = %v, want 2 entries", cfg.Discovery.IgnoredTagNamespaces)
	}
	if cfg.Provisioning.MaxCycles != 100 {
		t.Errorf("Provisioning.MaxCycles = %d, want 100", cfg.Provisioning.MaxCycles)
	}
}

func TestYAMLLoader_Load_MissingFileUsesDefaults(t *testing.T) {
	loader := NewYAMLLoader(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	cfg := Default()

	if err := loader.Load(cfg); err != nil {
		t.Fatalf("Load() with missing file should not error, got %v", err)
	}

	if cfg.OCIClient.CLIPath != "oci" {
		t.Errorf("expected defaults to survive a missing config file, got CLIPath=%q", cfg.OCIClient.CLIPath)
	}
}

func TestYAMLLoader_LoadWithOverrides(t *testing.T) {
	cfg := Default()

	t.Setenv("OCICLIENT_CLIPATH", "/opt/oci/bin/oci")
	t.Setenv("LOGGING_LEVEL", "warn")
	t.Setenv("PROVISIONING_MAXCYCLES", "42")
	t.Setenv("PROVISIONING_BASEBACKOFF", "3s")

	loader := NewYAMLLoader("")
	if err := loader.LoadWithOverrides(cfg); err != nil {
		t.Fatalf("LoadWithOverrides() error = %v", err)
	}

	if cfg.OCIClient.CLIPath != "/opt/oci/bin/oci" {
		t.Errorf("OCIClient.CLIPath override not applied, got %q", cfg.OCIClient.CLIPath)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level override not applied, got %q", cfg.Logging.Level)
	}
	if cfg.Provisioning.MaxCycles != 42 {
		t.Errorf("Provisioning.MaxCycles override not applied, got %d", cfg.Provisioning.MaxCycles)
	}
	if cfg.Provisioning.BaseBackoff != 3*time.Second {
		t.Errorf("Provisioning.BaseBackoff override not applied, got %v", cfg.Provisioning.BaseBackoff)
	}
}
