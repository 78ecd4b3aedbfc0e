// Package command runs the external antivirus tools used by the scan engines.
package command

import (
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"sync"
)

// Runner executes external commands.
// This interface enables testing without actual command execution.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RealRunner executes actual system commands.
type RealRunner struct{}

// NewRealRunner creates a command runner that executes real commands.
func NewRealRunner() *RealRunner {
	return &RealRunner{}
}

// Run executes a command and returns its standard output.
// Stderr is available through *exec.ExitError when the command exits non-zero.
// When ctx is cancelled the process is killed and whatever stdout was
// captured up to that point is still returned alongside the error.
func (r *RealRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}

// exitCoder is implemented by *exec.ExitError and by test doubles.
type exitCoder interface {
	ExitCode() int
}

// ExitCode attempts to extract an exit code from an error.
// Returns 0 for a nil error and -1 if the error is not an exit error
// (command not found, context cancelled, ...) or the process was killed
// by a signal.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder exitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return -1
}

// IsLaunchFailure reports whether err means the process could not be
// started at all: the binary is missing, not executable, or exec failed.
// A process that ran and then exited non-zero or was killed is not one.
func IsLaunchFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return true
	}
	var coder exitCoder
	return !errors.As(err, &coder)
}

// IsSignaled reports whether the process started but was terminated by a
// signal (Ctrl-C reaching the child, the OOM killer, ...).
func IsSignaled(err error) bool {
	var coder exitCoder
	return errors.As(err, &coder) && coder.ExitCode() < 0
}

// MockRunner is a test double for Runner.
type MockRunner struct {
	Output []byte
	Err    error
	// Handler, when set, takes precedence over Output and Err.
	Handler func(name string, args []string) ([]byte, error)

	mu    sync.Mutex
	Calls [][]string // Track calls for debugging
}

// Run returns the configured output and error.
func (m *MockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	call := append([]string{name}, args...)
	m.Calls = append(m.Calls, call)
	m.mu.Unlock()

	if m.Handler != nil {
		return m.Handler(name, args)
	}
	return m.Output, m.Err
}

// CallCount returns how many times Run was invoked.
func (m *MockRunner) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
