// Package trash moves files to the desktop recycle bin.
package trash

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/clean-dependency-project/cyberscan/internal/command"
)

// ErrUnsupported is returned on platforms without a known recycle bin.
var ErrUnsupported = errors.New("recycle bin not supported on this platform")

// Trasher sends a path to the recycle bin.
type Trasher interface {
	Trash(ctx context.Context, path string) error
}

// System uses the operating system's own trash tooling.
type System struct {
	runner command.Runner
	goos   string
}

// New creates a Trasher for the current operating system.
func New(runner command.Runner) *System {
	return &System{runner: runner, goos: runtime.GOOS}
}

// Trash moves path to the recycle bin.
func (s *System) Trash(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	name, args, err := s.command(absPath)
	if err != nil {
		return err
	}

	if out, err := s.runner.Run(ctx, name, args...); err != nil {
		return fmt.Errorf("failed to trash %s: %w (%s)", path, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (s *System) command(absPath string) (string, []string, error) {
	switch s.goos {
	case "darwin":
		script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, absPath)
		return "osascript", []string{"-e", script}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "gio", []string{"trash", "--", absPath}, nil
	case "windows":
		return "powershell", []string{"-NoProfile", "-Command", recycleScript(absPath)}, nil
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupported, s.goos)
	}
}

// recycleScript builds a PowerShell command using the VisualBasic FileSystem
// API, the only built-in way to reach the recycle bin from a script.
func recycleScript(absPath string) string {
	method := "DeleteFile"
	if info, err := os.Stat(absPath); err == nil && info.IsDir() {
		method = "DeleteDirectory"
	}
	quoted := "'" + strings.ReplaceAll(absPath, "'", "''") + "'"
	return fmt.Sprintf(
		"Add-Type -AssemblyName Microsoft.VisualBasic; [Microsoft.VisualBasic.FileIO.FileSystem]::%s(%s, 'OnlyErrorDialogs', 'SendToRecycleBin')",
		method, quoted,
	)
}
