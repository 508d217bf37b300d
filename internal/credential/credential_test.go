package credential

import (
	"errors"
	"testing"

	"github.com/jpl-au/pbmcp/internal/apierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Run("public only", func(t *testing.T) {
		cfg, err := Resolve(Raw{URL: "https://pb.example.com/"})
		require.NoError(t, err)
		assert.Equal(t, "https://pb.example.com", cfg.BaseURL)
		assert.False(t, cfg.HasAdmin())
	})

	t.Run("with admin", func(t *testing.T) {
		cfg, err := Resolve(Raw{URL: " http://127.0.0.1:8090 ", Identity: "admin@example.com", Secret: "s3cret"})
		require.NoError(t, err)
		assert.Equal(t, "http://127.0.0.1:8090", cfg.BaseURL)
		assert.True(t, cfg.HasAdmin())
		assert.Equal(t, "admin@example.com", cfg.AdminIdentity)
	})
}

func TestResolve_Violations(t *testing.T) {
	tests := []struct {
		name string
		raw  Raw
		want []string
	}{
		{"missing url", Raw{}, []string{MsgURLRequired}},
		{"not a url", Raw{URL: "pb.example.com"}, []string{MsgURLInvalid}},
		{"wrong scheme", Raw{URL: "ftp://pb.example.com"}, []string{MsgURLInvalid}},
		{"identity without secret", Raw{URL: "https://pb.example.com", Identity: "a@b.c"}, []string{MsgAdminPair}},
		{"secret without identity", Raw{URL: "https://pb.example.com", Secret: "x"}, []string{MsgAdminPair}},
		{"identity not an email", Raw{URL: "https://pb.example.com", Identity: "admin", Secret: "x"}, []string{MsgAdminEmailFormat}},
		{"everything wrong", Raw{Identity: "admin"}, []string{MsgURLRequired, MsgAdminPair}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(tc.raw)
			require.Error(t, err)

			var cerr *ConfigurationError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tc.want, cerr.Violations)
			assert.True(t, errors.Is(err, apierr.ErrConfiguration))
			assert.Equal(t, apierr.ClassConfiguration, apierr.Classify(err))
		})
	}
}

func TestConfigurationError_Has(t *testing.T) {
	_, err := Resolve(Raw{})
	var cerr *ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.True(t, cerr.Has(MsgURLRequired))
	assert.False(t, cerr.Has(MsgAdminPair))
	assert.Contains(t, err.Error(), "URL required")
}
