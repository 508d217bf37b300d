// The cmd/ package holds CLI integration tests that exercise the full
// stack: command parsing, extension wiring, the service, and a real HTTP
// round trip against httptest backends. Each test runs the compiled binary
// with HOME pointed at a temp directory, so config and audit log writes
// never touch the developer's machine.

package cmd

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	binaryPath string
	buildOnce  sync.Once
	buildErr   error
)

// buildBinary compiles the pbmcp binary once for all tests.
func buildBinary(t *testing.T) string {
	t.Helper()

	buildOnce.Do(func() {
		tmpDir, err := os.MkdirTemp("", "pbmcp-test-bin-*")
		if err != nil {
			buildErr = err
			return
		}

		binaryName := "pbmcp"
		if os.PathSeparator == '\\' {
			binaryName = "pbmcp.exe"
		}
		binaryPath = filepath.Join(tmpDir, binaryName)

		projectRoot := filepath.Dir(mustGetwd())

		cmd := exec.Command("go", "build", "-o", binaryPath, ".")
		cmd.Dir = projectRoot
		if out, err := cmd.CombinedOutput(); err != nil {
			buildErr = &buildError{err: err, output: string(out)}
			return
		}
	})

	if buildErr != nil {
		t.Fatalf("failed to build binary: %v", buildErr)
	}
	return binaryPath
}

type buildError struct {
	err    error
	output string
}

func (e *buildError) Error() string {
	return e.err.Error() + "\n" + e.output
}

func mustGetwd() string {
	dir, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return dir
}

// testEnv holds test environment state.
type testEnv struct {
	t      *testing.T
	dir    string
	home   string
	binary string
	env    map[string]string
}

// newTestEnv creates an isolated working directory and home directory.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return &testEnv{
		t:      t,
		dir:    t.TempDir(),
		home:   t.TempDir(),
		binary: buildBinary(t),
		env:    map[string]string{},
	}
}

// setenv sets a variable for every subsequent run.
func (e *testEnv) setenv(k, v string) { e.env[k] = v }

// environ returns the process environment without any pbmcp settings
// inherited from the developer's shell.
func (e *testEnv) environ() []string {
	var out []string
	for _, kv := range os.Environ() {
		k, _, _ := strings.Cut(kv, "=")
		switch {
		case strings.HasPrefix(k, "POCKETBASE_"), strings.HasPrefix(k, "STRIPE_"),
			strings.HasPrefix(k, "SMTP_"), strings.HasPrefix(k, "EMAIL_"),
			k == "SENDGRID_API_KEY", k == "PBMCP_DEBUG", k == "HOME", k == "USERPROFILE":
			continue
		}
		out = append(out, kv)
	}
	out = append(out, "HOME="+e.home, "USERPROFILE="+e.home)
	for k, v := range e.env {
		out = append(out, k+"="+v)
	}
	return out
}

// run executes pbmcp with the given args and returns combined output.
func (e *testEnv) run(args ...string) string {
	e.t.Helper()
	out, err := e.runErr(args...)
	if err != nil {
		e.t.Fatalf("pbmcp %v failed: %v\noutput: %s", args, err, out)
	}
	return out
}

// runErr executes pbmcp and returns combined output and any error.
func (e *testEnv) runErr(args ...string) (string, error) {
	e.t.Helper()

	cmd := exec.Command(e.binary, args...)
	cmd.Dir = e.dir
	cmd.Env = e.environ()
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// stdout executes pbmcp and returns stdout only.
func (e *testEnv) stdout(args ...string) string {
	e.t.Helper()

	cmd := exec.Command(e.binary, args...)
	cmd.Dir = e.dir
	cmd.Env = e.environ()
	out, err := cmd.Output()
	if err != nil {
		e.t.Fatalf("pbmcp %v failed: %v\noutput: %s", args, err, out)
	}
	return string(out)
}

// contains checks if output contains expected string.
func (e *testEnv) contains(output, expected string) {
	e.t.Helper()
	assert.Contains(e.t, output, expected)
}

// notContains checks that output does not contain s.
func (e *testEnv) notContains(output, s string) {
	e.t.Helper()
	assert.NotContains(e.t, output, s)
}
