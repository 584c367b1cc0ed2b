package config

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors.
var (
	ErrEmptyValue     = errors.New("value cannot be empty")
	ErrInvalidTimeout = errors.New("invalid timeout value")
	ErrInvalidFormat  = errors.New("invalid format")
	ErrInvalidRange   = errors.New("value out of range")
)

// Validate checks if the configuration is internally consistent.
func Validate(cfg *Config) error {
	if err := ValidateLogging(cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := ValidateOCIClient(cfg.OCIClient); err != nil {
		return fmt.Errorf("oci client config: %w", err)
	}

	if err := ValidateDiscovery(cfg.Discovery); err != nil {
		return fmt.Errorf("discovery config: %w", err)
	}

	if err := ValidateProvisioning(cfg.Provisioning); err != nil {
		return fmt.Errorf("provisioning config: %w", err)
	}

	return nil
}

// ValidateLogging validates logging configuration.
func ValidateLogging(logging LoggingConfig) error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
		"dpanic": true, "panic": true, "fatal": true,
	}
	if !validLevels[strings.ToLower(logging.Level)] {
		return fmt.Errorf("log level %s: %w", logging.Level, ErrInvalidFormat)
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[strings.ToLower(logging.Format)] {
		return fmt.Errorf("log format %s: %w", logging.Format, ErrInvalidFormat)
	}

	if logging.MaxSize < 0 {
		return fmt.Errorf("max size: %w", ErrInvalidRange)
	}
	if logging.MaxBackups < 0 {
		return fmt.Errorf("max backups: %w", ErrInvalidRange)
	}
	if logging.MaxAge < 0 {
		return fmt.Errorf("max age: %w", ErrInvalidRange)
	}

	return nil
}

// ValidateOCIClient validates the CLI invocation layer configuration.
func ValidateOCIClient(c OCIClientConfig) error {
	if c.CLIPath == "" {
		return fmt.Errorf("cliPath: %w", ErrEmptyValue)
	}
	if c.ConfigFilePath == "" {
		return fmt.Errorf("configFilePath: %w", ErrEmptyValue)
	}
	if c.DefaultTimeout < 0 {
		return fmt.Errorf("defaultTimeout: %w", ErrInvalidTimeout)
	}
	return nil
}

// ValidateDiscovery validates the discovery orchestrator configuration.
func ValidateDiscovery(d DiscoveryConfig) error {
	if d.OutputDir == "" {
		return fmt.Errorf("outputDir: %w", ErrEmptyValue)
	}
	if d.LockPollInterval <= 0 {
		return fmt.Errorf("lockPollInterval: %w", ErrInvalidTimeout)
	}
	if d.LockMaxAttempts <= 0 {
		return fmt.Errorf("lockMaxAttempts: %w", ErrInvalidRange)
	}
	return nil
}

// ValidateProvisioning validates the provisioning engine configuration.
func ValidateProvisioning(p ProvisioningConfig) error {
	if p.MaxCycles <= 0 {
		return fmt.Errorf("maxCycles: %w", ErrInvalidRange)
	}
	if p.MaxErrorCyclesPerAD <= 0 {
		return fmt.Errorf("maxErrorCyclesPerAD: %w", ErrInvalidRange)
	}
	if p.MaxBackoffAttempts < 0 {
		return fmt.Errorf("maxBackoffAttempts: %w", ErrInvalidRange)
	}
	if p.BaseBackoff <= 0 {
		return fmt.Errorf("baseBackoff: %w", ErrInvalidTimeout)
	}
	if p.MaxBackoff <= 0 {
		return fmt.Errorf("maxBackoff: %w", ErrInvalidTimeout)
	}
	if p.DecorrelatedJitter < 0 {
		return fmt.Errorf("decorrelatedJitter: %w", ErrInvalidTimeout)
	}
	if p.InterADSleepMin < 0 || p.InterADSleepMax < p.InterADSleepMin {
		return fmt.Errorf("interADSleepMin/Max: %w", ErrInvalidRange)
	}
	if len(p.LockDirCandidates) == 0 {
		return fmt.Errorf("lockDirCandidates: %w", ErrEmptyValue)
	}
	return nil
}
