package clamav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/clean-dependency-project/cyberscan/internal/command"
)

// DefaultBinary is the clamscan executable looked up on PATH.
const DefaultBinary = "clamscan"

// Sentinel errors
var (
	ErrLaunchFailed = errors.New("failed to launch clamscan")
	ErrTerminated   = errors.New("clamscan was terminated by a signal")
	ErrNoTargets    = errors.New("no scan targets provided")
)

// Scanner scans paths for malware.
type Scanner interface {
	Scan(ctx context.Context, paths []string) (Result, error)
}

// Result represents the outcome of a malware scan.
type Result struct {
	Infections []Infection
	Metadata   Metadata
}

// Metadata contains information about the scan environment.
type Metadata struct {
	EngineVersion string
	DatabaseDate  string
	ExitCode      int
	ScanDuration  time.Duration
}

// LocalScanner implements Scanner using a clamscan binary on this machine.
type LocalScanner struct {
	runner    command.Runner
	binary    string
	extraArgs []string
	logger    *slog.Logger
}

// NewLocalScanner creates a scanner that invokes binary through runner.
// An empty binary defaults to clamscan.
func NewLocalScanner(runner command.Runner, binary string, extraArgs []string, logger *slog.Logger) *LocalScanner {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LocalScanner{
		runner:    runner,
		binary:    binary,
		extraArgs: extraArgs,
		logger:    logger,
	}
}

// Version returns the trimmed output of "clamscan --version".
func (s *LocalScanner) Version(ctx context.Context) (string, error) {
	output, err := s.runner.Run(ctx, s.binary, "--version")
	if err != nil {
		if command.IsLaunchFailure(err) {
			return "", fmt.Errorf("%w: %w", ErrLaunchFailed, err)
		}
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// Scan runs one recursive clamscan process over all paths.
//
// Exit code 1 means infections were found and is not an error. If ctx is
// cancelled mid-scan, the infections parsed from the output captured so far
// are returned together with ctx.Err(). A process killed by a signal keeps
// its partial infections as well, with ErrTerminated.
func (s *LocalScanner) Scan(ctx context.Context, paths []string) (Result, error) {
	if len(paths) == 0 {
		return Result{}, ErrNoTargets
	}

	start := time.Now()

	engineVersion, err := s.Version(ctx)
	if err != nil {
		if errors.Is(err, ErrLaunchFailed) {
			return Result{}, err
		}
		s.logger.Warn("failed to get ClamAV version", "error", err)
		engineVersion = "unknown"
	}

	result := Result{
		Metadata: Metadata{
			EngineVersion: engineVersion,
			DatabaseDate:  DatabaseDate(engineVersion),
		},
	}

	s.logger.Debug("starting clamscan", "binary", s.binary, "targets", len(paths))
	output, err := s.runner.Run(ctx, s.binary, buildArgs(paths, s.extraArgs)...)
	result.Infections = ParseOutput(output)
	result.Metadata.ScanDuration = time.Since(start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			s.logger.Info("clamscan interrupted", "partial_infections", len(result.Infections))
			return result, ctxErr
		}

		if command.IsLaunchFailure(err) {
			return Result{}, fmt.Errorf("%w: %w", ErrLaunchFailed, err)
		}

		exitCode := command.ExitCode(err)
		result.Metadata.ExitCode = exitCode
		switch {
		case command.IsSignaled(err):
			s.logger.Warn("clamscan terminated by a signal", "partial_infections", len(result.Infections))
			return result, fmt.Errorf("%w: %w", ErrTerminated, err)
		case exitCode >= 2:
			// clamscan exits 2 when some files could not be read; the
			// infections it did report are still valid.
			s.logger.Warn("clamscan reported errors", "exit_code", exitCode, "infections", len(result.Infections))
		}
	}

	s.logger.Debug("clamscan finished",
		"infections", len(result.Infections),
		"duration", result.Metadata.ScanDuration)

	return result, nil
}

// buildArgs constructs arguments for the clamscan command.
func buildArgs(paths, extra []string) []string {
	args := make([]string, 0, 3+len(extra)+len(paths))
	args = append(args,
		"-r",           // Recurse into directories
		"--infected",   // Only print infected files
		"--no-summary", // Skip the summary block
	)
	args = append(args, extra...)
	return append(args, paths...)
}
