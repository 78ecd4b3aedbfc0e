package webreport

import (
	"context"
	"fmt"

	"github.com/clean-dependency-project/cyberscan/internal/engine"
	"github.com/clean-dependency-project/cyberscan/internal/storage"
)

// RunWithDetails combines a ScanRun with its decoded targets, detections and
// the dispositions recorded for it.
type RunWithDetails struct {
	Run          *storage.ScanRun
	Targets      []string
	Detections   []engine.Detection
	Dispositions []*storage.DispositionRecord
}

// LoadRuns loads up to limit runs from the reader and decodes their JSON columns.
// A run whose columns cannot be decoded fails the whole load.
func LoadRuns(ctx context.Context, reader RunReader, limit int) ([]RunWithDetails, error) {
	runs, err := reader.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan runs: %w", err)
	}

	result := make([]RunWithDetails, 0, len(runs))
	for _, run := range runs {
		targets, err := run.TargetList()
		if err != nil {
			return nil, err
		}
		detections, err := run.DetectionList()
		if err != nil {
			return nil, err
		}
		disps, err := reader.ListDispositions(ctx, run.RunID)
		if err != nil {
			return nil, fmt.Errorf("failed to list dispositions for run %s: %w", run.RunID, err)
		}

		result = append(result, RunWithDetails{
			Run:          run,
			Targets:      targets,
			Detections:   detections,
			Dispositions: disps,
		})
	}

	return result, nil
}
