package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Run("get single key after set", func(t *testing.T) {
		env := newTestEnv(t)

		env.run("config", "pocketbase.url", "https://pb.example.com")

		out := env.run("config", "pocketbase.url")
		env.contains(out, "https://pb.example.com")
	})

	t.Run("get all shows defaults", func(t *testing.T) {
		env := newTestEnv(t)

		out := env.run("config")
		env.contains(out, "pocketbase.url")
		env.contains(out, "hibernation.idle: 30m0s")
		env.contains(out, "http.timeout: 10s")
	})

	t.Run("writes global config", func(t *testing.T) {
		env := newTestEnv(t)

		env.run("config", "email.from", "ops@example.com")

		info, err := os.Stat(filepath.Join(env.home, ".pbmcp", "config.yaml"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("local scope", func(t *testing.T) {
		env := newTestEnv(t)

		env.run("config", "--local", "pocketbase.url", "https://local.example.com")

		_, err := os.Stat(filepath.Join(env.dir, ".pbmcp", "config.yaml"))
		require.NoError(t, err)
		out := env.run("config", "pocketbase.url")
		env.contains(out, "https://local.example.com")
	})
}

func TestConfig_MasksSecrets(t *testing.T) {
	env := newTestEnv(t)

	out := env.run("config", "stripe.secret_key", "sk_test_abcdefgh1234")
	env.notContains(out, "sk_test_abcdefgh1234")

	out = env.run("config")
	env.contains(out, "stripe.secret_key: ****1234")
	env.notContains(out, "abcdefgh")

	out = env.run("config", "stripe.secret_key")
	env.contains(out, "****1234")
}

func TestConfig_Set(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"pocketbase url", "pocketbase.url", "https://pb.example.com", "https://pb.example.com"},
		{"admin email", "pocketbase.admin_email", "admin@example.com", "admin@example.com"},
		{"email provider", "email.provider", "smtp", "smtp"},
		{"smtp port", "email.smtp_port", "465", "465"},
		{"idle in days", "hibernation.idle", "1d", "24h0m0s"},
		{"debug", "debug", "true", "true"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)

			env.run("config", tc.key, tc.value)

			out := env.run("config", tc.key)
			env.contains(out, tc.want)
		})
	}
}

func TestConfig_Errors(t *testing.T) {
	t.Run("invalid key", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.runErr("config", "invalid.key", "value")
		assert.Error(t, err)
	})

	t.Run("invalid provider", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.runErr("config", "email.provider", "pigeon")
		assert.Error(t, err)
	})

	t.Run("json error output", func(t *testing.T) {
		env := newTestEnv(t)

		out, _ := env.runErr("config", "-o", "json", "invalid.key")
		env.contains(out, `"error"`)
	})
}
