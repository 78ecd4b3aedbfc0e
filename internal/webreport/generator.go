package webreport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// ErrOutputDirRequired is returned when no output directory is given.
var ErrOutputDirRequired = errors.New("output directory is required")

// Generator orchestrates loading the history, building the model and
// rendering the pages.
type Generator struct {
	reader RunReader
	logger *slog.Logger
	now    func() time.Time
}

// NewGenerator creates a Generator reading from reader.
func NewGenerator(reader RunReader, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{
		reader: reader,
		logger: logger,
		now:    time.Now,
	}
}

// GenerateOptions contains options for report generation.
type GenerateOptions struct {
	OutputDir string
	// Limit caps the number of runs included; 0 includes all of them.
	Limit  int
	DryRun bool
}

// Generate writes the HTML report of the audit history to opts.OutputDir.
// An empty history still produces an index page.
func (g *Generator) Generate(ctx context.Context, opts GenerateOptions) (*SiteModel, error) {
	if opts.OutputDir == "" {
		return nil, ErrOutputDirRequired
	}

	g.logger.Info("starting report generation", "output_dir", opts.OutputDir, "dry_run", opts.DryRun)

	runs, err := LoadRuns(ctx, g.reader, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load scan history: %w", err)
	}
	if len(runs) == 0 {
		g.logger.Warn("no scan runs found in audit database")
	}

	model := BuildModel(runs, g.now())
	g.logger.Info("built report model", "hosts", len(model.Hosts), "runs", model.Totals.Runs)

	if opts.DryRun {
		g.logger.Info("dry-run mode: skipping file writes")
		return model, nil
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	stats, err := RenderPages(model, opts.OutputDir, g.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to render pages: %w", err)
	}

	g.logger.Info("report generation completed", "written", stats.Written, "unchanged", stats.Unchanged)
	return model, nil
}
