package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/clean-dependency-project/cyberscan/internal/engine"
)

// RunExport is the JSON form of a run with its detections and dispositions.
type RunExport struct {
	*ScanRun
	Targets      []string             `json:"targets"`
	Detections   []engine.Detection   `json:"detections"`
	Dispositions []*DispositionRecord `json:"dispositions"`
}

// ExportRunsJSON exports the most recent runs as JSON bytes.
func (d *DB) ExportRunsJSON(ctx context.Context, limit int) ([]byte, error) {
	runs, err := d.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}

	exports := make([]RunExport, 0, len(runs))
	for _, run := range runs {
		targets, err := run.TargetList()
		if err != nil {
			return nil, err
		}
		dets, err := run.DetectionList()
		if err != nil {
			return nil, err
		}
		disps, err := d.ListDispositions(ctx, run.RunID)
		if err != nil {
			return nil, err
		}
		exports = append(exports, RunExport{
			ScanRun:      run,
			Targets:      targets,
			Detections:   dets,
			Dispositions: disps,
		})
	}

	data, err := json.MarshalIndent(exports, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scan runs to JSON: %w", err)
	}

	return data, nil
}
