// Package log provides centralised audit logging for pbmcp operations.
// Logs are stored in ~/.pbmcp/log/pbmcp-log.db and record every MCP tool
// call and CLI command, including the failure class and attempt count of
// backend calls.
//
// # Fluent API
//
// Use the fluent builder API to construct and write log entries:
//
//	log.Event("mcp:pb_get_record", "read").
//		Service("pocketbase").
//		Target("posts").
//		ID(id).
//		Attempts(res.Attempts).
//		Write(err)
//
//	log.Event("stripe:balance", "read").
//		Service("stripe").
//		Detail("livemode", live).
//		Write(err)
//
// The source parameter follows the format "{extension}:{command}" for CLI
// commands or "mcp:{tool}" for MCP tools. Examples: "pocketbase:health",
// "mcp:stripe_create_customer".
//
// Entries never carry argument values, only identifiers, so secrets and
// personal data in record payloads stay out of the log.
package log

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jpl-au/pbmcp/internal/apierr"
	_ "modernc.org/sqlite"
)

var (
	global *Logger
	mu     sync.Mutex
)

// Entry represents a single log entry.
type Entry struct {
	Source   string // e.g., "pocketbase:health", "mcp:pb_list_records"
	Action   string // verb: read, create, update, delete, send, etc.
	Service  string // backend: pocketbase, stripe, email
	Target   string // collection, Stripe resource or template
	ID       string // record or object id
	Attempts int    // executor attempts used

	// Timing
	Start int64 // unix milliseconds when Event() called
	End   int64 // unix milliseconds when Write() called

	Success bool           // whether operation succeeded
	Code    string         // failure code (HTTP status or class name)
	Error   string         // error message if failed
	Detail  map[string]any // additional operation-specific data
}

// Builder constructs a log entry using a fluent API.
// Create with [Event], chain methods to set fields, then call [Builder.Write]
// to write the entry.
type Builder struct {
	entry Entry
}

// Event creates a new log entry builder for an operation.
//
// The source identifies where the operation originated:
//   - CLI commands: "{extension}:{command}" (e.g., "pocketbase:health")
//   - MCP tools: "mcp:{tool}" (e.g., "mcp:pb_create_record")
//
// The action describes what operation was performed:
//   - "read", "list", "create", "update", "delete", "send", "auth", etc.
func Event(source, action string) *Builder {
	return &Builder{
		entry: Entry{
			Source: source,
			Action: action,
			Start:  time.Now().UnixMilli(),
		},
	}
}

// Service sets the backend the operation talked to.
func (b *Builder) Service(s string) *Builder {
	b.entry.Service = s
	return b
}

// Target sets the collection, resource or template the operation affects.
func (b *Builder) Target(t string) *Builder {
	b.entry.Target = t
	return b
}

// ID sets the record or object id the operation affects.
func (b *Builder) ID(id string) *Builder {
	b.entry.ID = id
	return b
}

// Attempts records how many executor attempts the operation used.
func (b *Builder) Attempts(n int) *Builder {
	b.entry.Attempts = n
	return b
}

// Detail adds a key-value pair to the log entry's detail map.
//
// Use for operation-specific data that doesn't fit standard fields:
// result counts, dry-run flags, providers, etc. Can be called multiple
// times to add multiple details.
func (b *Builder) Detail(key string, value any) *Builder {
	if b.entry.Detail == nil {
		b.entry.Detail = make(map[string]any)
	}
	b.entry.Detail[key] = value
	return b
}

// Write writes the log entry to the database, deriving success/failure from
// err. Failed entries also record the failure code.
func (b *Builder) Write(err error) {
	b.entry.End = time.Now().UnixMilli()
	b.entry.Success = err == nil
	if err != nil {
		b.entry.Error = err.Error()
		b.entry.Code = apierr.Code(err)
	}
	Log(b.entry)
}

// Fail writes the entry as a failure with an already-derived code and
// message. Used at the tool boundary, where errors have been turned into
// result envelopes.
func (b *Builder) Fail(code, msg string) {
	b.entry.End = time.Now().UnixMilli()
	b.entry.Success = false
	b.entry.Code = code
	b.entry.Error = msg
	Log(b.entry)
}

type builderKey struct{}

// WithBuilder attaches b to ctx so handlers deeper in the call can enrich
// the entry the caller will write.
func WithBuilder(ctx context.Context, b *Builder) context.Context {
	return context.WithValue(ctx, builderKey{}, b)
}

// FromContext returns the builder attached to ctx. Without one it returns a
// detached builder, so enrichment calls are always safe.
func FromContext(ctx context.Context) *Builder {
	if b, ok := ctx.Value(builderKey{}).(*Builder); ok {
		return b
	}
	return &Builder{}
}

// Open initialises the global logger. Safe to call multiple times.
// Errors are returned but callers may choose to ignore them (best-effort logging).
func Open() error {
	mu.Lock()
	defer mu.Unlock()

	if global != nil {
		return nil
	}

	p := dbPath()
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return err
	}

	global = &Logger{db: db}
	return nil
}

// SetInstance sets the backend instance identifier for subsequent entries.
// The PocketBase URL is hashed, never stored.
func SetInstance(url string) {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		global.instance = hash(url)
	}
}

// Log writes an entry. Safe to call if logger not initialised (no-op).
func Log(e Entry) {
	mu.Lock()
	l := global
	mu.Unlock()

	if l == nil {
		return
	}
	l.log(e)
}

// Close closes the global logger.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		global.db.Close()
		global = nil
	}
}
