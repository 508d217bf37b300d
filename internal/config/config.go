// Package config provides reading and writing of pbmcp configuration.
// Supports both global (~/.pbmcp/config.yaml) and local (.pbmcp/config.yaml).
// Reading: uses local if it exists, otherwise global.
// Writing: defaults to global, use --local for local.
//
// Environment variables override file values at load time (see env.go), so a
// server started by an MCP client can be configured entirely from its
// launch environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jpl-au/pbmcp/internal/duration"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNoConfigPath is returned when the config path cannot be determined.
	ErrNoConfigPath = errors.New("cannot determine config path")
	// ErrUnknownKey is returned when getting/setting an unknown config key.
	ErrUnknownKey = errors.New("unknown config key")
	// ErrInvalidValue is returned when a config value is invalid.
	ErrInvalidValue = errors.New("invalid config value")
)

// Scope represents the configuration scope (global or local).
type Scope int

const (
	// ScopeGlobal is user-wide config in ~/.pbmcp/config.yaml (default)
	ScopeGlobal Scope = iota
	// ScopeLocal is project-specific config in .pbmcp/config.yaml
	ScopeLocal
)

// Email providers.
const (
	ProviderSendGrid = "sendgrid"
	ProviderSMTP     = "smtp"
)

// PocketBase holds the PocketBase connection settings.
type PocketBase struct {
	URL           string `yaml:"url,omitempty"`
	AdminEmail    string `yaml:"admin_email,omitempty"`
	AdminPassword string `yaml:"admin_password,omitempty"`
}

// Stripe holds the Stripe API settings.
type Stripe struct {
	SecretKey string `yaml:"secret_key,omitempty"`
}

// Email holds the outgoing mail settings.
type Email struct {
	Provider       string `yaml:"provider,omitempty"`
	From           string `yaml:"from,omitempty"`
	FromName       string `yaml:"from_name,omitempty"`
	SendGridAPIKey string `yaml:"sendgrid_api_key,omitempty"`
	SMTPHost       string `yaml:"smtp_host,omitempty"`
	SMTPPort       *int   `yaml:"smtp_port,omitempty"`
	SMTPUsername   string `yaml:"smtp_username,omitempty"`
	SMTPPassword   string `yaml:"smtp_password,omitempty"`
}

// Hibernation holds idle teardown settings. Values are duration strings.
type Hibernation struct {
	Idle     string `yaml:"idle,omitempty"`
	Interval string `yaml:"interval,omitempty"`
}

// HTTP holds outbound HTTP settings.
type HTTP struct {
	Timeout string `yaml:"timeout,omitempty"`
}

// Defaults applied when not configured.
const (
	DefaultIdle     = 30 * time.Minute
	DefaultInterval = 5 * time.Minute
	DefaultTimeout  = 10 * time.Second
	DefaultSMTPPort = 587
)

// Config contains configuration for pbmcp.
type Config struct {
	PocketBase  PocketBase  `yaml:"pocketbase,omitempty"`
	Stripe      Stripe      `yaml:"stripe,omitempty"`
	Email       Email       `yaml:"email,omitempty"`
	Hibernation Hibernation `yaml:"hibernation,omitempty"`
	HTTP        HTTP        `yaml:"http,omitempty"`
	Debug       *bool       `yaml:"debug,omitempty"`

	// path is the file this config was loaded from (for Save)
	path  string
	scope Scope
}

// Validate checks that all configured values are within acceptable bounds.
// Returns nil if all values are valid or not set (defaults will be used).
// Connection settings are not checked here; the credential resolver reports
// those with every violation at once.
func (c *Config) Validate() error {
	switch c.Email.Provider {
	case "", ProviderSendGrid, ProviderSMTP:
	default:
		return fmt.Errorf("%w: email.provider must be %s or %s, got %q",
			ErrInvalidValue, ProviderSendGrid, ProviderSMTP, c.Email.Provider)
	}
	if c.Email.SMTPPort != nil {
		if p := *c.Email.SMTPPort; p < 1 || p > 65535 {
			return fmt.Errorf("%w: email.smtp_port must be between 1 and 65535, got %d", ErrInvalidValue, p)
		}
	}
	for key, v := range map[string]string{
		"hibernation.idle":     c.Hibernation.Idle,
		"hibernation.interval": c.Hibernation.Interval,
		"http.timeout":         c.HTTP.Timeout,
	} {
		if v == "" {
			continue
		}
		d, err := duration.Parse(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidValue, key, err)
		}
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidValue, key)
		}
	}
	return nil
}

func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := duration.Parse(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// IdleThreshold returns how long the server may idle before hibernating
// (defaults to 30m).
func (c *Config) IdleThreshold() time.Duration {
	return durationOr(c.Hibernation.Idle, DefaultIdle)
}

// CheckInterval returns how often inactivity is checked (defaults to 5m).
func (c *Config) CheckInterval() time.Duration {
	return durationOr(c.Hibernation.Interval, DefaultInterval)
}

// Timeout returns the outbound request timeout (defaults to 10s).
func (c *Config) Timeout() time.Duration {
	return durationOr(c.HTTP.Timeout, DefaultTimeout)
}

// SMTPPort returns the SMTP port (defaults to 587).
func (c *Config) SMTPPort() int {
	if c.Email.SMTPPort == nil {
		return DefaultSMTPPort
	}
	return *c.Email.SMTPPort
}

// EmailProvider returns the configured provider, inferring it from the
// credentials present when unset.
func (c *Config) EmailProvider() string {
	if c.Email.Provider != "" {
		return c.Email.Provider
	}
	if c.Email.SendGridAPIKey == "" && c.Email.SMTPHost != "" {
		return ProviderSMTP
	}
	return ProviderSendGrid
}

// IsDebug returns whether debug logging is enabled (defaults to false).
func (c *Config) IsDebug() bool {
	return c.Debug != nil && *c.Debug
}

// LocalPath returns the path to the local (project) config file.
func LocalPath() string {
	return filepath.Join(".pbmcp", "config.yaml")
}

// GlobalPath returns the path to the global (user) config file: ~/.pbmcp/config.yaml
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pbmcp", "config.yaml")
}

// Load reads configuration (local if it exists, otherwise global) and
// applies environment overrides.
func Load() (*Config, error) {
	scope := ScopeGlobal
	if _, err := os.Stat(LocalPath()); err == nil {
		scope = ScopeLocal
	}
	cfg, err := LoadScope(scope)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadScope reads configuration from a specific scope without environment
// overrides. Used by the config command, which edits the file itself.
func LoadScope(scope Scope) (*Config, error) {
	return loadPath(pathForScope(scope), scope)
}

func loadPath(path string, scope Scope) (*Config, error) {
	if path == "" {
		return &Config{scope: scope}, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{path: path, scope: scope}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("malformed config file %s: %w\n\nTo fix: edit the file to correct the YAML syntax, or delete it to use defaults", path, err)
	}
	cfg.path = path
	cfg.scope = scope

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Scope returns which scope this config was loaded from.
func (c *Config) Scope() Scope {
	return c.scope
}

// Path returns the file this config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration to its original location.
func (c *Config) Save() error {
	if c.path == "" {
		c.path = pathForScope(c.scope)
	}
	if c.path == "" {
		return ErrNoConfigPath
	}
	return c.saveToPath(c.path)
}

// saveToPath writes configuration to a specific filesystem path. The file
// holds API keys, so it is written 0600 in a 0700 directory.
func (c *Config) saveToPath(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// pathForScope returns the filesystem path for a given scope.
func pathForScope(scope Scope) string {
	switch scope {
	case ScopeLocal:
		return LocalPath()
	case ScopeGlobal:
		return GlobalPath()
	default:
		return ""
	}
}
