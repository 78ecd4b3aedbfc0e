// Package disposition quarantines, recycles, or deletes detected files.
package disposition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/clean-dependency-project/cyberscan/internal/trash"
)

// Default directory names, relative to the working directory.
const (
	DefaultQuarantineBase = "cyber_quarantine"
	DefaultTrashFallback  = "cyber_trash"
)

// Action is a disposition the operator can apply to a detection.
type Action string

// Actions
const (
	ActionQuarantine Action = "quarantine"
	ActionRecycle    Action = "recycle"
	ActionDelete     Action = "delete"
	ActionIgnore     Action = "ignore"
)

// ErrNotFound is reported when the detected path no longer exists.
var ErrNotFound = errors.New("file not found")

// Outcome is the result of a disposition.
type Outcome struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Destination string `json:"destination,omitempty"`
	// Err is the underlying failure, if any.
	Err error `json:"-"`
}

// Record is passed to a Recorder after every disposition.
type Record struct {
	Action  Action
	Path    string
	Label   string
	Outcome Outcome
	At      time.Time
}

// Recorder persists disposition records.
type Recorder interface {
	RecordDisposition(ctx context.Context, rec Record) error
}

// Options configures a Service.
type Options struct {
	QuarantineBase string
	TrashFallback  string
	Trasher        trash.Trasher
	Recorder       Recorder
	Logger         *slog.Logger
	Now            func() time.Time
}

// Service applies dispositions. Its methods never panic and report every
// failure through the returned Outcome.
type Service struct {
	vault         *Vault
	trashFallback string
	trasher       trash.Trasher
	recorder      Recorder
	logger        *slog.Logger
	now           func() time.Time
}

// NewService creates a disposition service. The quarantine directory is not
// created until the first Quarantine call.
func NewService(opts Options) *Service {
	if opts.QuarantineBase == "" {
		opts.QuarantineBase = DefaultQuarantineBase
	}
	if opts.TrashFallback == "" {
		opts.TrashFallback = DefaultTrashFallback
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		vault:         NewVault(opts.QuarantineBase, opts.Now),
		trashFallback: opts.TrashFallback,
		trasher:       opts.Trasher,
		recorder:      opts.Recorder,
		logger:        opts.Logger,
		now:           opts.Now,
	}
}

// Vault returns the run's quarantine vault.
func (s *Service) Vault() *Vault {
	return s.vault
}

// Apply dispatches to the operation named by action.
func (s *Service) Apply(ctx context.Context, action Action, path, label string) Outcome {
	var out Outcome
	switch action {
	case ActionQuarantine:
		out = s.Quarantine(path)
	case ActionRecycle:
		out = s.Recycle(ctx, path)
	case ActionDelete:
		out = s.DeletePermanently(path)
	default:
		out = Outcome{Success: true, Message: fmt.Sprintf("Ignored: %s", path)}
	}
	s.record(ctx, action, path, label, out)
	return out
}

// Quarantine moves path into the run's vault.
func (s *Service) Quarantine(path string) Outcome {
	if !exists(path) {
		return notFound(path)
	}

	dir, err := s.vault.Ensure()
	if err != nil {
		return failed("Quarantine failed", err)
	}

	dest, err := moveInto(path, dir)
	if err != nil {
		return failed("Quarantine failed", err)
	}

	s.logger.Info("quarantined file", "path", path, "destination", dest)
	return Outcome{
		Success:     true,
		Message:     fmt.Sprintf("Quarantined: %s -> %s", path, dest),
		Destination: dest,
	}
}

// Recycle sends path to the recycle bin, or into the fallback trash directory
// when the platform bin is unavailable.
func (s *Service) Recycle(ctx context.Context, path string) Outcome {
	if !exists(path) {
		return notFound(path)
	}

	if s.trasher != nil {
		err := s.trasher.Trash(ctx, path)
		if err == nil {
			s.logger.Info("moved file to recycle bin", "path", path)
			return Outcome{Success: true, Message: fmt.Sprintf("Sent to recycle bin: %s", path)}
		}
		s.logger.Debug("recycle bin unavailable, using fallback directory", "path", path, "error", err)
	}

	dest, err := moveInto(path, s.trashFallback)
	if err != nil {
		return failed("Recycle failed", err)
	}

	s.logger.Info("moved file to fallback trash", "path", path, "destination", dest)
	return Outcome{
		Success:     true,
		Message:     fmt.Sprintf("Moved to fallback trash: %s -> %s", path, dest),
		Destination: dest,
	}
}

// DeletePermanently removes path. A missing path is reported and nothing is
// touched.
func (s *Service) DeletePermanently(path string) Outcome {
	info, err := os.Lstat(path)
	if err != nil {
		return notFound(path)
	}

	if info.IsDir() {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		return failed("Delete failed", err)
	}

	s.logger.Info("deleted file", "path", path)
	return Outcome{Success: true, Message: fmt.Sprintf("Permanently deleted: %s", path)}
}

func (s *Service) record(ctx context.Context, action Action, path, label string, out Outcome) {
	if s.recorder == nil {
		return
	}
	rec := Record{Action: action, Path: path, Label: label, Outcome: out, At: s.now()}
	if err := s.recorder.RecordDisposition(ctx, rec); err != nil {
		s.logger.Warn("failed to record disposition", "path", path, "error", err)
	}
}

func notFound(path string) Outcome {
	return Outcome{
		Message: fmt.Sprintf("File not found: %s", path),
		Err:     fmt.Errorf("%w: %s", ErrNotFound, path),
	}
}

func failed(prefix string, err error) Outcome {
	return Outcome{Message: fmt.Sprintf("%s: %v", prefix, err), Err: err}
}
