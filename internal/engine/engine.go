// Package engine selects and runs a malware scan engine.
//
// Engines are tried in a fixed order (ClamAV, then Microsoft Defender). A
// simulation engine is appended only when neither real engine is present and
// the operator explicitly opted in.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Engine names
const (
	NameClamAV     = "ClamAV"
	NameDefender   = "Defender"
	NameSimulation = "Simulation"
)

// Sentinel errors
var (
	// ErrNoEngine means no real engine was found and simulation was not enabled.
	ErrNoEngine = errors.New("no scan engine available")
	// ErrLaunch means an engine could not start its child process.
	ErrLaunch = errors.New("engine failed to launch")
	// ErrExhausted means every engine in a chain failed to launch.
	ErrExhausted = errors.New("every scan engine failed to launch")
)

// Detection is a single flagged file. Path is the file system path as
// reported by the engine, Label the signature or threat name.
type Detection struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

// Engine scans a set of targets and returns the detections it found.
//
// On interruption (ctx cancelled) an engine returns whatever detections it
// already has together with ctx.Err().
type Engine interface {
	Name() string
	Scan(ctx context.Context, targets []string) ([]Detection, error)
}

// Chain tries engines in order, moving on only when an engine fails to launch.
type Chain struct {
	engines []Engine
	logger  *slog.Logger

	mu   sync.Mutex
	used string
}

// NewChain creates a chain over engines, tried in the given order.
func NewChain(logger *slog.Logger, engines ...Engine) *Chain {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Chain{engines: engines, logger: logger}
}

// Name returns the engine that produced the last result, or the first engine
// in the chain before any scan has run.
func (c *Chain) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.used != "" {
		return c.used
	}
	if len(c.engines) == 0 {
		return ""
	}
	return c.engines[0].Name()
}

// Engines returns the names of the chained engines in order.
func (c *Chain) Engines() []string {
	names := make([]string, 0, len(c.engines))
	for _, e := range c.engines {
		names = append(names, e.Name())
	}
	return names
}

// Simulated reports whether the chain ends in the simulation engine.
func (c *Chain) Simulated() bool {
	return len(c.engines) > 0 && c.engines[len(c.engines)-1].Name() == NameSimulation
}

// Scan runs the first engine that launches. It does not move on to the next
// engine once ctx is cancelled.
func (c *Chain) Scan(ctx context.Context, targets []string) ([]Detection, error) {
	for _, e := range c.engines {
		detections, err := e.Scan(ctx, targets)
		if errors.Is(err, ErrLaunch) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.logger.Warn("engine failed to launch, trying next", "engine", e.Name(), "error", err)
			continue
		}

		c.mu.Lock()
		c.used = e.Name()
		c.mu.Unlock()

		return detections, err
	}

	if len(c.engines) == 0 {
		return nil, ErrNoEngine
	}
	return nil, fmt.Errorf("%w: tried %v", ErrExhausted, c.Engines())
}
