package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	env := newTestEnv(t)

	out := env.run("version")
	env.contains(out, "Build Tag:")
	env.contains(out, "Go Version:")

	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(env.stdout("version", "-o", "json")), &info))
	assert.NotEmpty(t, info)
}

func TestTools(t *testing.T) {
	env := newTestEnv(t)

	out := env.run("tools")
	for _, name := range []string{"server_status", "pb_list_records", "stripe_create_customer", "email_send_template"} {
		env.contains(out, name)
	}

	var list []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	require.NoError(t, json.Unmarshal([]byte(env.stdout("tools", "-o", "json")), &list))
	assert.Len(t, list, 64)
	seen := map[string]bool{}
	for _, tool := range list {
		assert.False(t, seen[tool.Name], "duplicate tool %s", tool.Name)
		seen[tool.Name] = true
		assert.NotEmpty(t, tool.Description, tool.Name)
	}
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	env.setenv("POCKETBASE_URL", "http://127.0.0.1:1")
	env.setenv("STRIPE_SECRET_KEY", "sk_test_abcdefgh1234")

	out := env.stdout("status", "-o", "json")
	env.notContains(out, "sk_test_abcdefgh1234")

	var st struct {
		PocketBase struct {
			Configured    bool   `json:"configured"`
			URL           string `json:"url"`
			Authenticated bool   `json:"authenticated"`
		} `json:"pocketbase"`
		Stripe struct {
			Configured bool   `json:"configured"`
			Mode       string `json:"mode"`
		} `json:"stripe"`
		Email struct {
			Configured bool `json:"configured"`
		} `json:"email"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.True(t, st.PocketBase.Configured)
	assert.Equal(t, "http://127.0.0.1:1", st.PocketBase.URL)
	assert.False(t, st.PocketBase.Authenticated, "status makes no network calls")
	assert.True(t, st.Stripe.Configured)
	assert.Equal(t, "test", st.Stripe.Mode)
	assert.False(t, st.Email.Configured)
}

func TestPBHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":200,"message":"API is healthy.","data":{}}`))
	}))
	defer srv.Close()

	env := newTestEnv(t)

	out := env.run("pb", "health", "--url", srv.URL)
	env.contains(out, "API is healthy.")

	env.setenv("POCKETBASE_URL", srv.URL)
	out = env.run("pb", "health")
	env.contains(out, srv.URL)
}

func TestPBHealth_Unconfigured(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.runErr("pb", "health")
	assert.Error(t, err)
	env.contains(out, "pocketbase")
}

func TestEmailTest_RequiresRecipient(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.runErr("email", "test")
	assert.Error(t, err)
	env.contains(out, "to")
}
