// Package cli provides command-line interface components with testable abstractions.
package cli

import (
	"context"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/clean-dependency-project/cyberscan/internal/command"
	"github.com/clean-dependency-project/cyberscan/internal/disposition"
	"github.com/clean-dependency-project/cyberscan/internal/platform"
	"github.com/clean-dependency-project/cyberscan/internal/storage"
	"github.com/clean-dependency-project/cyberscan/internal/sysinfo"
	"github.com/clean-dependency-project/cyberscan/internal/ui"
	"github.com/clean-dependency-project/cyberscan/internal/webreport"
)

// AuditStore abstracts the audit database for testing.
// Following Dave Cheney's principle: "Accept interfaces, return structs"
type AuditStore interface {
	// StartRun records the beginning of a scan and assigns its run ID.
	StartRun(ctx context.Context, run *storage.ScanRun) error

	// FinishRun stores the results of a started run.
	FinishRun(ctx context.Context, run *storage.ScanRun) error

	// Recorder returns the disposition recorder for a run.
	Recorder(runID string) disposition.Recorder

	// Close closes the database connection.
	Close() error
}

// AuditReader is the read side of the audit database used by history and report.
type AuditReader interface {
	webreport.RunReader

	// GetStats returns aggregate counts over every recorded run.
	GetStats(ctx context.Context) (*storage.Stats, error)

	// ExportRunsJSON exports the most recent runs with their dispositions.
	ExportRunsJSON(ctx context.Context, limit int) ([]byte, error)

	Close() error
}

// Env holds the process-level dependencies of the commands, so tests can run
// them without a terminal, real antivirus tools or signals.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Interactive is true when both stdin and stdout are terminals.
	Interactive bool
	Width       int

	Runner   command.Runner
	LookPath func(file string) (string, error)
	Exists   func(path string) bool

	Collect func() (sysinfo.Info, error)
	Home    func() (string, error)
	Volumes func() ([]string, error)
	Now     func() time.Time

	// Notify returns a context cancelled by the operator interrupt.
	Notify func(ctx context.Context) (context.Context, context.CancelFunc)

	// OpenStore opens the audit database at path.
	OpenStore func(path string) (*storage.DB, error)
}

// DefaultEnv returns the environment of the running process.
func DefaultEnv() *Env {
	interactive := ui.IsTerminal(os.Stdin) && ui.IsTerminal(os.Stdout)
	return &Env{
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Interactive: interactive,
		Width:       ui.Width(os.Stdout),
		Runner:      command.NewRealRunner(),
		LookPath:    exec.LookPath,
		Exists:      pathExists,
		Collect:     sysinfo.Collect,
		Home:        os.UserHomeDir,
		Volumes:     platform.VolumeRoots,
		Now:         time.Now,
		Notify: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		},
		OpenStore: openStore,
	}
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// openStore initializes the audit database.
func openStore(path string) (*storage.DB, error) {
	return storage.InitDB(storage.Config{
		DatabasePath: path,
		LogLevel:     "silent", // Database logs are verbose, suppress them
	})
}
