package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := &Config{}
	assert.Equal(t, 30*time.Minute, c.IdleThreshold())
	assert.Equal(t, 5*time.Minute, c.CheckInterval())
	assert.Equal(t, 10*time.Second, c.Timeout())
	assert.Equal(t, 587, c.SMTPPort())
	assert.Equal(t, ProviderSendGrid, c.EmailProvider())
	assert.False(t, c.IsDebug())

	c.Email.SMTPHost = "smtp.example.com"
	assert.Equal(t, ProviderSMTP, c.EmailProvider(), "smtp inferred when only smtp is configured")
}

func TestGetSet(t *testing.T) {
	c := &Config{}

	require.NoError(t, c.Set("pocketbase.url", "https://pb.example.com"))
	require.NoError(t, c.Set("hibernation.idle", "1h"))
	require.NoError(t, c.Set("email.smtp_port", "465"))
	require.NoError(t, c.Set("debug", "true"))
	require.NoError(t, c.Set("email.provider", "SMTP"))

	v, err := c.Get("pocketbase.url")
	require.NoError(t, err)
	assert.Equal(t, "https://pb.example.com", v)
	assert.Equal(t, time.Hour, c.IdleThreshold())
	assert.Equal(t, 465, c.SMTPPort())
	assert.True(t, c.IsDebug())
	assert.Equal(t, ProviderSMTP, c.Email.Provider)

	assert.True(t, c.IsSet("pocketbase.url"))
	assert.False(t, c.IsSet("stripe.secret_key"))

	assert.ErrorIs(t, c.Set("nope", "x"), ErrUnknownKey)
	assert.ErrorIs(t, c.Set("email.provider", "mailgun"), ErrInvalidValue)
	assert.ErrorIs(t, c.Set("email.smtp_port", "70000"), ErrInvalidValue)
	assert.ErrorIs(t, c.Set("http.timeout", "soon"), ErrInvalidValue)
	assert.ErrorIs(t, c.Set("hibernation.interval", "0s"), ErrInvalidValue)

	_, err = c.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownKey)

	for _, k := range ValidKeys() {
		_, err := c.Get(k)
		assert.NoError(t, err, k)
	}
}

func TestAllMasksSecrets(t *testing.T) {
	c := &Config{}
	require.NoError(t, c.Set("stripe.secret_key", "sk_test_abcdefgh1234"))
	require.NoError(t, c.Set("pocketbase.admin_password", "short"))

	all := c.All()
	assert.Equal(t, "****1234", all["stripe.secret_key"])
	assert.Equal(t, "********", all["pocketbase.admin_password"])
	assert.Equal(t, "", all["email.smtp_password"])
	assert.Len(t, all, len(ValidKeys()))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"POCKETBASE_URL":    "https://env.example.com",
		"STRIPE_SECRET_KEY": "sk_test_env",
		"PBMCP_DEBUG":       "1",
	}
	c := &Config{PocketBase: PocketBase{URL: "https://file.example.com", AdminEmail: "a@example.com"}}
	require.NoError(t, c.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, "https://env.example.com", c.PocketBase.URL)
	assert.Equal(t, "a@example.com", c.PocketBase.AdminEmail, "unset variables leave file values alone")
	assert.Equal(t, "sk_test_env", c.Stripe.SecretKey)
	assert.True(t, c.IsDebug())

	err := c.ApplyEnv(func(k string) string {
		if k == "SMTP_PORT" {
			return "abc"
		}
		return ""
	})
	require.ErrorIs(t, err, ErrInvalidValue)
	assert.Contains(t, err.Error(), "SMTP_PORT")
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "config.yaml")
	c := &Config{path: path}
	require.NoError(t, c.Set("pocketbase.url", "https://pb.example.com"))
	require.NoError(t, c.Set("hibernation.idle", "2d"))
	require.NoError(t, c.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := loadPath(path, ScopeLocal)
	require.NoError(t, err)
	assert.Equal(t, "https://pb.example.com", loaded.PocketBase.URL)
	assert.Equal(t, 48*time.Hour, loaded.IdleThreshold())
	assert.Equal(t, ScopeLocal, loaded.Scope())
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("pocketbase: [oops"), 0600))
	_, err := loadPath(bad, ScopeGlobal)
	assert.ErrorContains(t, err, "malformed config file")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("email:\n  provider: pigeon\n"), 0600))
	_, err = loadPath(invalid, ScopeGlobal)
	assert.ErrorIs(t, err, ErrInvalidValue)

	missing, err := loadPath(filepath.Join(dir, "missing.yaml"), ScopeGlobal)
	require.NoError(t, err)
	assert.Empty(t, missing.PocketBase.URL)
}
