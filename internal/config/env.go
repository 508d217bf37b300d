// env.go applies environment variable overrides.

package config

import "fmt"

// EnvKeys maps environment variables to the config keys they override.
var EnvKeys = map[string]string{
	"POCKETBASE_URL":            "pocketbase.url",
	"POCKETBASE_ADMIN_EMAIL":    "pocketbase.admin_email",
	"POCKETBASE_ADMIN_PASSWORD": "pocketbase.admin_password",
	"STRIPE_SECRET_KEY":         "stripe.secret_key",
	"SENDGRID_API_KEY":          "email.sendgrid_api_key",
	"EMAIL_PROVIDER":            "email.provider",
	"EMAIL_FROM":                "email.from",
	"EMAIL_FROM_NAME":           "email.from_name",
	"SMTP_HOST":                 "email.smtp_host",
	"SMTP_PORT":                 "email.smtp_port",
	"SMTP_USERNAME":             "email.smtp_username",
	"SMTP_PASSWORD":             "email.smtp_password",
	"PBMCP_DEBUG":               "debug",
}

// ApplyEnv overrides values with non-empty environment variables read
// through getenv. Invalid values are reported with the variable name.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	for env, key := range EnvKeys {
		v := getenv(env)
		if v == "" {
			continue
		}
		if err := c.Set(key, v); err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
	}
	return nil
}
