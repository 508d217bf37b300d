// config_keys.go provides key-value access to configuration settings.
//
// Separated from config.go to isolate the key enumeration and string-based
// get/set logic used by the CLI config command and the server_status tool,
// where config is accessed by string keys (e.g., "pocketbase.url").
//
// Pointers are used for optional non-string fields so "not set" (nil) can be
// told apart from an explicit zero or false.

package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jpl-au/pbmcp/internal/duration"
)

// ValidKeys returns all valid configuration keys.
func ValidKeys() []string {
	return []string{
		"pocketbase.url", "pocketbase.admin_email", "pocketbase.admin_password",
		"stripe.secret_key",
		"email.provider", "email.from", "email.from_name", "email.sendgrid_api_key",
		"email.smtp_host", "email.smtp_port", "email.smtp_username", "email.smtp_password",
		"hibernation.idle", "hibernation.interval",
		"http.timeout",
		"debug",
	}
}

// secretKeys hold credentials and are masked on display.
var secretKeys = []string{
	"pocketbase.admin_password",
	"stripe.secret_key",
	"email.sendgrid_api_key",
	"email.smtp_password",
}

// IsValidKey returns true if the key is a valid configuration key.
func IsValidKey(key string) bool {
	return slices.Contains(ValidKeys(), key)
}

// IsSecret reports whether key holds a credential.
func IsSecret(key string) bool {
	return slices.Contains(secretKeys, key)
}

// Mask hides all but the last four characters of a secret.
func Mask(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 8 {
		return "********"
	}
	return "****" + v[len(v)-4:]
}

// Get returns the value of a configuration key as a string.
func (c *Config) Get(key string) (string, error) {
	if p := c.stringField(key); p != nil {
		return *p, nil
	}
	switch key {
	case "email.provider":
		return c.EmailProvider(), nil
	case "email.smtp_port":
		return strconv.Itoa(c.SMTPPort()), nil
	case "hibernation.idle":
		return c.IdleThreshold().String(), nil
	case "hibernation.interval":
		return c.CheckInterval().String(), nil
	case "http.timeout":
		return c.Timeout().String(), nil
	case "debug":
		return strconv.FormatBool(c.IsDebug()), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
}

// stringField returns the plain string field for key, or nil.
func (c *Config) stringField(key string) *string {
	switch key {
	case "pocketbase.url":
		return &c.PocketBase.URL
	case "pocketbase.admin_email":
		return &c.PocketBase.AdminEmail
	case "pocketbase.admin_password":
		return &c.PocketBase.AdminPassword
	case "stripe.secret_key":
		return &c.Stripe.SecretKey
	case "email.from":
		return &c.Email.From
	case "email.from_name":
		return &c.Email.FromName
	case "email.sendgrid_api_key":
		return &c.Email.SendGridAPIKey
	case "email.smtp_host":
		return &c.Email.SMTPHost
	case "email.smtp_username":
		return &c.Email.SMTPUsername
	case "email.smtp_password":
		return &c.Email.SMTPPassword
	default:
		return nil
	}
}

// Set sets the value of a configuration key.
func (c *Config) Set(key, value string) error {
	if p := c.stringField(key); p != nil {
		*p = value
		return nil
	}
	switch key {
	case "email.provider":
		v := strings.ToLower(value)
		if v != ProviderSendGrid && v != ProviderSMTP {
			return fmt.Errorf("%w: email.provider must be %s or %s", ErrInvalidValue, ProviderSendGrid, ProviderSMTP)
		}
		c.Email.Provider = v
	case "email.smtp_port":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("%w: email.smtp_port must be a port number", ErrInvalidValue)
		}
		c.Email.SMTPPort = &n
	case "hibernation.idle", "hibernation.interval", "http.timeout":
		d, err := duration.Parse(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidValue, key, err)
		}
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidValue, key)
		}
		switch key {
		case "hibernation.idle":
			c.Hibernation.Idle = value
		case "hibernation.interval":
			c.Hibernation.Interval = value
		default:
			c.HTTP.Timeout = value
		}
	case "debug":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: debug must be true or false", ErrInvalidValue)
		}
		c.Debug = &b
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

// All returns all configuration values as a map. Secrets are masked.
func (c *Config) All() map[string]string {
	out := make(map[string]string, len(ValidKeys()))
	for _, k := range ValidKeys() {
		v, _ := c.Get(k)
		if IsSecret(k) {
			v = Mask(v)
		}
		out[k] = v
	}
	return out
}

// IsSet returns true if the key has an explicit value (not just defaults).
func (c *Config) IsSet(key string) bool {
	if p := c.stringField(key); p != nil {
		return *p != ""
	}
	switch key {
	case "email.provider":
		return c.Email.Provider != ""
	case "email.smtp_port":
		return c.Email.SMTPPort != nil
	case "hibernation.idle":
		return c.Hibernation.Idle != ""
	case "hibernation.interval":
		return c.Hibernation.Interval != ""
	case "http.timeout":
		return c.HTTP.Timeout != ""
	case "debug":
		return c.Debug != nil
	default:
		return false
	}
}
