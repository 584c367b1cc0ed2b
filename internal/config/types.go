package config

import "time"

// Config holds all toolkit configuration: logging, the CLI invocation
// layer, and the tunables for the discovery and provisioning engines.
type Config struct {
	Logging      LoggingConfig      `yaml:"logging" json:"logging"`
	OCIClient    OCIClientConfig    `yaml:"ociClient" json:"ociClient"`
	Discovery    DiscoveryConfig    `yaml:"discovery" json:"discovery"`
	Provisioning ProvisioningConfig `yaml:"provisioning" json:"provisioning"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	FilePath   string `yaml:"filePath" json:"filePath"`
	MaxSize    int    `yaml:"maxSize" json:"maxSize"`
	MaxBackups int    `yaml:"maxBackups" json:"maxBackups"`
	MaxAge     int    `yaml:"maxAge" json:"maxAge"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// OCIClientConfig holds settings for the CLI invocation layer (§4.1).
type OCIClientConfig struct {
	// CLIPath is the path to (or name of) the OCI CLI binary on PATH.
	CLIPath string `yaml:"cliPath" json:"cliPath"`
	// ConfigFilePath is the OCI config file (default ~/.oci/config).
	ConfigFilePath string `yaml:"configFilePath" json:"configFilePath"`
	// DefaultTimeout is loaded and validated (it must not be negative), but
	// the discover and instance-provision commands do not read it: both
	// take the per-call read timeout from --timeout, where zero means CLI
	// default.
	DefaultTimeout time.Duration `yaml:"defaultTimeout" json:"defaultTimeout"`
}

// DiscoveryConfig holds settings for the discovery orchestrator (§4.2/§4.3).
type DiscoveryConfig struct {
	// OutputDir is where snapshot-<profile>-<timestamp>.json files are
	// written when no explicit --output is given.
	OutputDir string `yaml:"outputDir" json:"outputDir"`
	// IgnoredTagNamespaces populates meta.ignored.tag-namespaces.
	IgnoredTagNamespaces []string `yaml:"ignoredTagNamespaces" json:"ignoredTagNamespaces"`
	// LockPollInterval and LockMaxAttempts govern the snapshot file mutex.
	LockPollInterval time.Duration `yaml:"lockPollInterval" json:"lockPollInterval"`
	LockMaxAttempts  int           `yaml:"lockMaxAttempts" json:"lockMaxAttempts"`
}

// ProvisioningConfig holds settings for the provisioning engine (§4.5).
type ProvisioningConfig struct {
	MaxCycles           int           `yaml:"maxCycles" json:"maxCycles"`
	MaxErrorCyclesPerAD int           `yaml:"maxErrorCyclesPerAD" json:"maxErrorCyclesPerAD"`
	MaxBackoffAttempts  int           `yaml:"maxBackoffAttempts" json:"maxBackoffAttempts"`
	BaseBackoff         time.Duration `yaml:"baseBackoff" json:"baseBackoff"`
	MaxBackoff          time.Duration `yaml:"maxBackoff" json:"maxBackoff"`
	DecorrelatedJitter  time.Duration `yaml:"decorrelatedJitter" json:"decorrelatedJitter"`
	InterADSleepMin     time.Duration `yaml:"interADSleepMin" json:"interADSleepMin"`
	InterADSleepMax     time.Duration `yaml:"interADSleepMax" json:"interADSleepMax"`
	LockDirCandidates   []string      `yaml:"lockDirCandidates" json:"lockDirCandidates"`
}

// Default returns the toolkit's built-in defaults, overridden by YAML
// file and environment variables in Loader.Load.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "console",
			FilePath: "stderr",
		},
		OCIClient: OCIClientConfig{
			CLIPath:        "oci",
			ConfigFilePath: "~/.oci/config",
			DefaultTimeout: 0,
		},
		Discovery: DiscoveryConfig{
			OutputDir:            ".",
			IgnoredTagNamespaces: []string{"Oracle-Tags"},
			LockPollInterval:     50 * time.Millisecond,
			LockMaxAttempts:      200,
		},
		Provisioning: ProvisioningConfig{
			MaxCycles:           5000,
			MaxErrorCyclesPerAD: 10,
			MaxBackoffAttempts:  9,
			BaseBackoff:         2 * time.Second,
			MaxBackoff:          5 * time.Minute,
			DecorrelatedJitter:  1 * time.Second,
			InterADSleepMin:     2 * time.Second,
			InterADSleepMax:     8 * time.Second,
			LockDirCandidates: []string{
				"$XDG_RUNTIME_DIR/oci-provision",
				"$HOME/.local/state/oci-provision",
				"$HOME/.cache/oci-provision",
				"/tmp/oci-provision",
			},
		},
	}
}
