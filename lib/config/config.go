// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file for Load.
const EnvironmentVariable = "KONTAKTE_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the complete configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	// DataDir holds the database unless server.database says otherwise.
	// Available to other paths as ${KONTAKTE_DATA}.
	DataDir string `yaml:"data_dir"`

	Client ClientConfig `yaml:"client"`
	Server ServerConfig `yaml:"server"`

	// Per-environment overrides, applied after the base config.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains the sections that can be overridden per
// environment. Zero fields leave the base value alone.
type ConfigOverrides struct {
	Client *ClientConfig `yaml:"client,omitempty"`
	Server *ServerConfig `yaml:"server,omitempty"`
}

// ClientConfig configures the import wizard.
type ClientConfig struct {
	// ServerURL is the contact server root.
	ServerURL string `yaml:"server_url"`

	// TemplatesFile, when set, is read instead of asking the server
	// for its templates.
	TemplatesFile string `yaml:"templates_file"`

	PollInterval time.Duration `yaml:"poll_interval"`

	// PollTimeout and MaxPolls bound status polling. Zero disables the
	// bound.
	PollTimeout time.Duration `yaml:"poll_timeout"`
	MaxPolls    int           `yaml:"max_polls"`

	RequestTimeout time.Duration `yaml:"request_timeout"`

	// CompressAbove is the finalize body size in bytes from which the
	// body is compressed. Zero disables compression.
	CompressAbove int `yaml:"compress_above"`

	// Encoding is "gzip" or "zstd".
	Encoding string `yaml:"encoding"`
}

// ServerConfig configures the contact server.
type ServerConfig struct {
	Address  string `yaml:"address"`
	Database string `yaml:"database"`

	// TemplatesFile seeds an empty database. Empty means the built-in
	// catalog.
	TemplatesFile string `yaml:"templates_file"`

	MaxUploadSize int64         `yaml:"max_upload_size"`
	TaskTTL       time.Duration `yaml:"task_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	Workers       int           `yaml:"workers"`
	RedirectURL   string        `yaml:"redirect_url"`
}

// Default returns the development configuration used as the base for
// every file.
func Default() *Config {
	return &Config{
		Environment: Development,
		DataDir:     "${HOME}/.local/share/kontakte",
		Client: ClientConfig{
			ServerURL:      "http://127.0.0.1:5000",
			PollInterval:   time.Second,
			PollTimeout:    10 * time.Minute,
			RequestTimeout: 5 * time.Minute,
			CompressAbove:  1 << 20,
			Encoding:       "gzip",
		},
		Server: ServerConfig{
			Address:       "127.0.0.1:5000",
			Database:      "${KONTAKTE_DATA}/kontakte.db",
			MaxUploadSize: 64 << 20,
			TaskTTL:       30 * time.Minute,
			SweepInterval: time.Minute,
			Workers:       4,
			RedirectURL:   "/kontakte",
		},
	}
}

// Load loads the file named by KONTAKTE_CONFIG. It fails if the
// variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your kontakte.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

// Resolve loads flagPath if set, else the KONTAKTE_CONFIG file if set,
// else the defaults.
func Resolve(flagPath string) (*Config, error) {
	switch {
	case flagPath != "":
		return LoadFile(flagPath)
	case os.Getenv(EnvironmentVariable) != "":
		return Load()
	}
	cfg := Default()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if client := overrides.Client; client != nil {
		override(&c.Client.ServerURL, client.ServerURL)
		override(&c.Client.TemplatesFile, client.TemplatesFile)
		override(&c.Client.PollInterval, client.PollInterval)
		override(&c.Client.PollTimeout, client.PollTimeout)
		override(&c.Client.MaxPolls, client.MaxPolls)
		override(&c.Client.RequestTimeout, client.RequestTimeout)
		override(&c.Client.CompressAbove, client.CompressAbove)
		override(&c.Client.Encoding, client.Encoding)
	}
	if server := overrides.Server; server != nil {
		override(&c.Server.Address, server.Address)
		override(&c.Server.Database, server.Database)
		override(&c.Server.TemplatesFile, server.TemplatesFile)
		override(&c.Server.MaxUploadSize, server.MaxUploadSize)
		override(&c.Server.TaskTTL, server.TaskTTL)
		override(&c.Server.SweepInterval, server.SweepInterval)
		override(&c.Server.Workers, server.Workers)
		override(&c.Server.RedirectURL, server.RedirectURL)
	}
}

func override[T comparable](target *T, value T) {
	var zero T
	if value != zero {
		*target = value
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.DataDir = expandVars(c.DataDir, vars)
	vars["KONTAKTE_DATA"] = c.DataDir

	c.Server.Database = expandVars(c.Server.Database, vars)
	c.Server.TemplatesFile = expandVars(c.Server.TemplatesFile, vars)
	c.Client.TemplatesFile = expandVars(c.Client.TemplatesFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns, preferring
// vars over the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if parsed, err := url.Parse(c.Client.ServerURL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("client.server_url must be an http or https URL, got %q", c.Client.ServerURL))
	}
	if c.Client.PollInterval <= 0 {
		errs = append(errs, errors.New("client.poll_interval must be positive"))
	}
	if c.Client.PollTimeout < 0 || c.Client.MaxPolls < 0 || c.Client.RequestTimeout < 0 || c.Client.CompressAbove < 0 {
		errs = append(errs, errors.New("client limits must not be negative"))
	}
	if c.Client.Encoding != "" && c.Client.Encoding != "gzip" && c.Client.Encoding != "zstd" {
		errs = append(errs, fmt.Errorf("client.encoding must be gzip or zstd, got %q", c.Client.Encoding))
	}

	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}
	if c.Server.Database == "" {
		errs = append(errs, errors.New("server.database is required"))
	}
	if c.Server.MaxUploadSize <= 0 {
		errs = append(errs, errors.New("server.max_upload_size must be positive"))
	}
	if c.Server.TaskTTL <= 0 || c.Server.SweepInterval <= 0 {
		errs = append(errs, errors.New("server.task_ttl and server.sweep_interval must be positive"))
	}
	if c.Server.Workers < 1 {
		errs = append(errs, errors.New("server.workers must be at least 1"))
	}

	return errors.Join(errs...)
}

// EnsureDataDir creates the directory holding the database.
func (c *Config) EnsureDataDir() error {
	dir := filepath.Dir(c.Server.Database)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}
