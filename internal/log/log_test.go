package log

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jpl-au/pbmcp/internal/apierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempDB(t *testing.T) {
	t.Helper()
	tmpDir := t.TempDir()
	origDBPath := dbPathFunc
	dbPathFunc = func() string {
		return filepath.Join(tmpDir, "log", "test.db")
	}
	t.Cleanup(func() {
		Close()
		dbPathFunc = origDBPath
	})
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", DBPath())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLogger(t *testing.T) {
	useTempDB(t)

	t.Run("open and close", func(t *testing.T) {
		require.NoError(t, Open())
		defer Close()
		assert.FileExists(t, DBPath())
	})

	t.Run("log entry", func(t *testing.T) {
		require.NoError(t, Open())
		defer Close()

		SetInstance("https://pb.example.com")

		Log(Entry{
			Source:   "mcp:pb_get_record",
			Action:   "read",
			Service:  "pocketbase",
			Target:   "posts",
			ID:       "abc123",
			Attempts: 2,
			Success:  true,
		})

		db := openDB(t)
		var source, action, service, target, id, instance string
		var attempts, success int
		err := db.QueryRow("SELECT source, action, service, target, record_id, attempts, success, instance FROM log ORDER BY id DESC LIMIT 1").
			Scan(&source, &action, &service, &target, &id, &attempts, &success, &instance)
		require.NoError(t, err)
		assert.Equal(t, "mcp:pb_get_record", source)
		assert.Equal(t, "read", action)
		assert.Equal(t, "pocketbase", service)
		assert.Equal(t, "posts", target)
		assert.Equal(t, "abc123", id)
		assert.Equal(t, 2, attempts)
		assert.Equal(t, 1, success)
		assert.Equal(t, hash("https://pb.example.com"), instance)
	})

	t.Run("log without logger is noop", func(t *testing.T) {
		Close()
		Log(Entry{Source: "test:cmd", Action: "test", Success: true})
	})

	t.Run("open is idempotent", func(t *testing.T) {
		require.NoError(t, Open())
		require.NoError(t, Open())
		Close()
	})
}

func TestBuilder(t *testing.T) {
	useTempDB(t)

	t.Run("success", func(t *testing.T) {
		require.NoError(t, Open())
		defer Close()

		Event("stripe:balance", "read").
			Service("stripe").
			Detail("livemode", false).
			Write(nil)

		db := openDB(t)
		var source string
		var success int
		var code, errMsg sql.NullString
		var detail string
		err := db.QueryRow("SELECT source, success, code, error, detail FROM log ORDER BY id DESC LIMIT 1").
			Scan(&source, &success, &code, &errMsg, &detail)
		require.NoError(t, err)
		assert.Equal(t, "stripe:balance", source)
		assert.Equal(t, 1, success)
		assert.False(t, code.Valid)
		assert.False(t, errMsg.Valid)
		assert.Contains(t, detail, "livemode")
	})

	t.Run("failure records code", func(t *testing.T) {
		require.NoError(t, Open())
		defer Close()

		Event("mcp:pb_get_record", "read").
			Target("posts").
			ID("missing").
			Write(fmt.Errorf("get: %w", &apierr.Error{Service: "pocketbase", Status: 404, Message: "not found"}))

		Event("mcp:stripe_get_balance", "read").
			Write(apierr.ErrUnavailable)

		db := openDB(t)
		rows, err := db.Query("SELECT success, code FROM log ORDER BY id DESC LIMIT 2")
		require.NoError(t, err)
		defer rows.Close()

		var codes []string
		for rows.Next() {
			var success int
			var code string
			require.NoError(t, rows.Scan(&success, &code))
			assert.Equal(t, 0, success)
			codes = append(codes, code)
		}
		assert.Equal(t, []string{"unavailable", "404"}, codes)
	})

	t.Run("plain error", func(t *testing.T) {
		require.NoError(t, Open())
		defer Close()

		Event("core:config", "set").Write(errors.New("boom"))

		db := openDB(t)
		var errMsg, code string
		require.NoError(t, db.QueryRow("SELECT error, code FROM log ORDER BY id DESC LIMIT 1").Scan(&errMsg, &code))
		assert.Equal(t, "boom", errMsg)
		assert.Equal(t, "unknown_error", code)
	})
}

func TestBuilderContext(t *testing.T) {
	useTempDB(t)
	require.NoError(t, Open())
	defer Close()

	b := Event("mcp:pb_delete_record", "call")
	ctx := WithBuilder(context.Background(), b)
	FromContext(ctx).Service("pocketbase").Target("posts").ID("abc123").Attempts(2)
	b.Fail("403", "pocketbase: status 403")

	// A detached builder absorbs enrichment without panicking.
	FromContext(context.Background()).Target("ignored")

	db := openDB(t)
	var target, recordID, code string
	var attempts, success int
	require.NoError(t, db.QueryRow("SELECT target, record_id, attempts, success, code FROM log ORDER BY id DESC LIMIT 1").
		Scan(&target, &recordID, &attempts, &success, &code))
	assert.Equal(t, "posts", target)
	assert.Equal(t, "abc123", recordID)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 0, success)
	assert.Equal(t, "403", code)
}

func TestHash(t *testing.T) {
	h1 := hash("https://pb.example.com")
	h2 := hash("https://pb.example.com")
	h3 := hash("https://other.example.com")

	assert.Equal(t, h1, h2, "same input should produce same hash")
	assert.NotEqual(t, h1, h3, "different input should produce different hash")
	assert.Len(t, h1, 16, "BLAKE2b-64 should produce 16 hex chars")
}

func TestDBPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expected := filepath.Join(home, ".pbmcp", "log", "pbmcp-log.db")

	origDBPath := dbPathFunc
	dbPathFunc = defaultDBPath
	defer func() { dbPathFunc = origDBPath }()

	assert.Equal(t, expected, DBPath())
}
