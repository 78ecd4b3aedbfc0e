package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/clean-dependency-project/cyberscan/internal/command"
	"github.com/clean-dependency-project/cyberscan/internal/disposition"
	"github.com/clean-dependency-project/cyberscan/internal/storage"
	"github.com/clean-dependency-project/cyberscan/internal/sysinfo"
)

// exitStatus mimics *exec.ExitError for mocked commands.
type exitStatus int

func (e exitStatus) Error() string { return fmt.Sprintf("exit status %d", int(e)) }
func (e exitStatus) ExitCode() int { return int(e) }

// mockAuditStore implements AuditStore for testing.
type mockAuditStore struct {
	started  []*storage.ScanRun
	finished []*storage.ScanRun
	closeErr error
	closed   bool
}

func (m *mockAuditStore) StartRun(_ context.Context, run *storage.ScanRun) error {
	if run.RunID == "" {
		run.RunID = "run-1"
	}
	m.started = append(m.started, run)
	return nil
}

func (m *mockAuditStore) FinishRun(_ context.Context, run *storage.ScanRun) error {
	m.finished = append(m.finished, run)
	return nil
}

func (m *mockAuditStore) Recorder(string) disposition.Recorder { return nil }

func (m *mockAuditStore) Close() error {
	m.closed = true
	return m.closeErr
}

// testEnv is an Env with captured output and no real tools installed.
type testEnv struct {
	*Env
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	runner *command.MockRunner
}

func newTestEnv(t *testing.T, stdin string) *testEnv {
	t.Helper()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	runner := &command.MockRunner{Err: errors.New("unexpected command")}
	home := t.TempDir()

	env := &Env{
		Stdin:    strings.NewReader(stdin),
		Stdout:   stdout,
		Stderr:   stderr,
		Width:    80,
		Runner:   runner,
		LookPath: func(string) (string, error) { return "", errors.New("not found") },
		Exists:   pathExists,
		Collect: func() (sysinfo.Info, error) {
			return sysinfo.Info{
				Hostname:    "testhost",
				OS:          "linux",
				Platform:    "linux/amd64",
				CPUs:        4,
				GoVersion:   "go1.24.0",
				CollectedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			}, nil
		},
		Home:    func() (string, error) { return home, nil },
		Volumes: func() ([]string, error) { return []string{home}, nil },
		Now:     time.Now,
		Notify: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return context.WithCancel(ctx)
		},
		OpenStore: openStore,
	}
	return &testEnv{Env: env, stdout: stdout, stderr: stderr, runner: runner}
}

// withClamAV makes clamscan available and reports infected as found.
func (e *testEnv) withClamAV(banner string, infected map[string]string) {
	e.LookPath = func(file string) (string, error) {
		if file == "clamscan" {
			return "/usr/bin/clamscan", nil
		}
		return "", errors.New("not found")
	}
	e.runner.Handler = func(name string, args []string) ([]byte, error) {
		if len(args) == 1 && args[0] == "--version" {
			return []byte(banner + "\n"), nil
		}
		if len(infected) == 0 {
			return nil, nil
		}
		var b strings.Builder
		for path, sig := range infected {
			fmt.Fprintf(&b, "%s: %s FOUND\n", path, sig)
		}
		return []byte(b.String()), exitStatus(1)
	}
}

func (e *testEnv) run(t *testing.T, args ...string) error {
	t.Helper()
	app := NewAppWithEnv(e.Env)
	return app.Run(append([]string{Name}, args...))
}

// writeFile creates a file under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
