// Package defender drives Microsoft Defender's command-line tools.
package defender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/clean-dependency-project/cyberscan/internal/command"
)

const (
	// DefaultPowerShell is the shell used for Start-MpScan and Get-MpThreat.
	DefaultPowerShell = "powershell"

	threatQuery     = "Get-MpThreat | Format-List -Property Resources,ThreatName"
	quickScanScript = "Start-MpScan -ScanType QuickScan"

	// queryTimeout bounds the threat query issued after an interrupt.
	queryTimeout = 30 * time.Second
)

// DefaultCandidates are the known MpCmdRun install locations.
var DefaultCandidates = []string{
	`C:\Program Files\Windows Defender\MpCmdRun.exe`,
	`C:\Program Files\Microsoft Defender ATP\MpCmdRun.exe`,
	`C:\Program Files (x86)\Windows Defender\MpCmdRun.exe`,
}

// Sentinel errors
var (
	ErrLaunchFailed = errors.New("failed to launch defender threat query")
)

// Scanner runs Defender scans and reads back the detected threats.
type Scanner struct {
	runner     command.Runner
	mpCmdRun   string
	powershell string
	logger     *slog.Logger
}

// NewScanner creates a Defender scanner. mpCmdRun may be empty, in which case
// a single PowerShell quick scan replaces the per-target custom scans.
func NewScanner(runner command.Runner, mpCmdRun string, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{
		runner:     runner,
		mpCmdRun:   mpCmdRun,
		powershell: DefaultPowerShell,
		logger:     logger,
	}
}

// Scan scans every path, then queries the threat list.
//
// Individual scan failures are logged and ignored. When ctx is cancelled the
// remaining targets are skipped and the threat query still runs, on a detached
// context bounded by queryTimeout, so detections made so far are reported
// alongside ctx.Err().
func (s *Scanner) Scan(ctx context.Context, paths []string) ([]Threat, error) {
	if s.mpCmdRun != "" {
		for _, p := range paths {
			if ctx.Err() != nil {
				break
			}
			s.logger.Debug("defender custom scan", "target", p)
			if _, err := s.runner.Run(ctx, s.mpCmdRun, "-Scan", "-ScanType", "3", "-File", p); err != nil {
				s.logger.Debug("defender scan returned error", "target", p, "exit_code", command.ExitCode(err), "error", err)
			}
		}
	} else {
		s.logger.Debug("MpCmdRun not found, running PowerShell quick scan")
		if _, err := s.runner.Run(ctx, s.powershell, "-NoProfile", "-Command", quickScanScript); err != nil {
			s.logger.Debug("quick scan returned error", "exit_code", command.ExitCode(err), "error", err)
		}
	}

	queryCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), queryTimeout)
		defer cancel()
	}

	threats, err := s.Threats(queryCtx)
	if err != nil {
		return nil, err
	}
	return threats, ctx.Err()
}

// Threats runs Get-MpThreat and parses its output.
func (s *Scanner) Threats(ctx context.Context) ([]Threat, error) {
	output, err := s.runner.Run(ctx, s.powershell, "-NoProfile", "-Command", threatQuery)
	if err != nil {
		if command.IsLaunchFailure(err) {
			return nil, fmt.Errorf("%w: %w", ErrLaunchFailed, err)
		}
		s.logger.Warn("threat query exited with error", "exit_code", command.ExitCode(err))
	}
	return ParseThreats(output), nil
}

// Version returns the Defender antimalware client version via PowerShell.
func (s *Scanner) Version(ctx context.Context) (string, error) {
	output, err := s.runner.Run(ctx, s.powershell, "-NoProfile", "-Command", "(Get-MpComputerStatus).AMProductVersion")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}
