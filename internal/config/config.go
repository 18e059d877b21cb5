// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config manages toolgate configuration.
//
// Configuration is loaded from (in order of precedence):
//  1. Environment variables (TOOLGATE_*)
//  2. Config file: ~/.toolgate/config.toml
//  3. Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/toolgate/internal/tools"
)

// =============================================================================
// CONFIG STRUCTURE
// =============================================================================

// Config is the root configuration structure.
type Config struct {
	// Version of the config schema
	Version string `toml:"version"`

	// WorkingDirectory anchors relative paths for tool execution.
	// Empty means the process working directory.
	WorkingDirectory string `toml:"working_directory"`

	// AllowDangerous gates interactive confirmation of dangerous tools.
	// When false, dangerous operations run without prompting.
	AllowDangerous bool `toml:"allow_dangerous"`

	// Sandbox holds path containment settings
	Sandbox SandboxConfig `toml:"sandbox"`

	// Safety holds denylist and critical-path additions
	Safety SafetyConfig `toml:"safety"`

	// Bash holds shell execution settings
	Bash BashConfig `toml:"bash"`

	// Snapshot holds pre-mutation snapshot settings
	Snapshot SnapshotConfig `toml:"snapshot"`
}

// SandboxConfig restricts file operations to the given directory roots.
type SandboxConfig struct {
	// Roots is the allow-list of directories file operations must stay
	// inside. Empty disables containment.
	Roots []string `toml:"roots"`
}

// SafetyConfig extends the built-in safety rules.
type SafetyConfig struct {
	// ExtraCriticalPaths are additional paths protected from delete/move.
	ExtraCriticalPaths []string `toml:"extra_critical_paths"`

	// ExtraBlockedCommands are additional denylisted command substrings.
	ExtraBlockedCommands []string `toml:"extra_blocked_commands"`
}

// BashConfig controls shell command execution.
type BashConfig struct {
	// MaxTimeoutSecs caps per-command execution time
	MaxTimeoutSecs int `toml:"max_timeout_secs"`

	// MaxOutputKB caps combined stdout/stderr size
	MaxOutputKB int `toml:"max_output_kb"`

	// RatePerMinute throttles command spawns; 0 disables the limiter
	RatePerMinute int `toml:"rate_per_minute"`
}

// SnapshotConfig controls pre-mutation snapshots.
type SnapshotConfig struct {
	// Enabled turns snapshot capture on
	Enabled bool `toml:"enabled"`

	// Dir is the snapshot state directory. Empty means
	// ~/.toolgate/snapshots.
	Dir string `toml:"dir"`

	// KeepLast bounds how many snapshots are retained; 0 keeps all
	KeepLast int `toml:"keep_last"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version:        "1.0.0",
		AllowDangerous: true,

		Bash: BashConfig{
			MaxTimeoutSecs: 120,
			MaxOutputKB:    100,
			RatePerMinute:  0,
		},

		Snapshot: SnapshotConfig{
			Enabled:  true,
			KeepLast: 0,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the toolgate configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".toolgate"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load loads configuration from the default config file, falling back to
// defaults when no file exists. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file. A missing
// file is not an error; defaults are used.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the config as TOML to the default config path.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, []byte(sb.String()), 0600)
}

// =============================================================================
// ENV OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies TOOLGATE_* environment variables on top of
// the loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("TOOLGATE_WORKING_DIR"); v != "" {
		c.WorkingDirectory = v
	}
	if v := os.Getenv("TOOLGATE_ALLOW_DANGEROUS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AllowDangerous = b
		}
	}
	if v := os.Getenv("TOOLGATE_SANDBOX_ROOTS"); v != "" {
		var roots []string
		for _, root := range strings.Split(v, string(os.PathListSeparator)) {
			if root = strings.TrimSpace(root); root != "" {
				roots = append(roots, root)
			}
		}
		c.Sandbox.Roots = roots
	}
	if v := os.Getenv("TOOLGATE_BASH_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Bash.MaxTimeoutSecs = n
		}
	}
	if v := os.Getenv("TOOLGATE_SNAPSHOT_DIR"); v != "" {
		c.Snapshot.Dir = v
	}
	if v := os.Getenv("TOOLGATE_SNAPSHOT_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Snapshot.Enabled = b
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid config field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config field %s: %s", e.Field, e.Message)
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Bash.MaxTimeoutSecs < 0 {
		return ValidationError{Field: "bash.max_timeout_secs", Message: "must not be negative"}
	}
	if c.Bash.MaxOutputKB < 0 {
		return ValidationError{Field: "bash.max_output_kb", Message: "must not be negative"}
	}
	if c.Bash.RatePerMinute < 0 {
		return ValidationError{Field: "bash.rate_per_minute", Message: "must not be negative"}
	}
	if c.Snapshot.KeepLast < 0 {
		return ValidationError{Field: "snapshot.keep_last", Message: "must not be negative"}
	}
	for i, root := range c.Sandbox.Roots {
		if strings.TrimSpace(root) == "" {
			return ValidationError{
				Field:   "sandbox.roots",
				Message: fmt.Sprintf("entry %d is empty", i),
			}
		}
	}
	if c.WorkingDirectory != "" {
		info, err := os.Stat(c.WorkingDirectory)
		if err != nil || !info.IsDir() {
			return ValidationError{
				Field:   "working_directory",
				Message: fmt.Sprintf("%s is not a directory", c.WorkingDirectory),
			}
		}
	}
	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// SnapshotDir returns the snapshot state directory, resolving the default
// under the config directory when unset.
func (c *Config) SnapshotDir() (string, error) {
	if c.Snapshot.Dir != "" {
		return c.Snapshot.Dir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "snapshots"), nil
}

// Environment converts the configuration into a tools.Environment.
func (c *Config) Environment() tools.Environment {
	env := tools.DefaultEnvironment()
	if c.WorkingDirectory != "" {
		env.WorkingDirectory = c.WorkingDirectory
	}
	env.AllowDangerous = c.AllowDangerous

	roots := make([]string, 0, len(c.Sandbox.Roots))
	for _, root := range c.Sandbox.Roots {
		if !filepath.IsAbs(root) {
			root = filepath.Join(env.WorkingDirectory, root)
		}
		roots = append(roots, filepath.Clean(root))
	}
	env.SandboxRoots = roots

	if c.Bash.MaxTimeoutSecs > 0 {
		env.MaxBashTimeout = time.Duration(c.Bash.MaxTimeoutSecs) * time.Second
	}
	return env
}
