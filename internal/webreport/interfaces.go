// Package webreport generates a static HTML report of the scan history kept
// in the audit database.
// Following Dave Cheney's principle: "Accept interfaces, return structs"
package webreport

import (
	"context"

	"github.com/clean-dependency-project/cyberscan/internal/storage"
)

// RunReader abstracts the audit database queries the report needs.
// This interface enables testability by allowing mock implementations.
type RunReader interface {
	// ListRuns returns the most recent runs, newest first. A limit of 0 returns all.
	ListRuns(ctx context.Context, limit int) ([]*storage.ScanRun, error)

	// ListDispositions returns the actions applied during a run, oldest first.
	ListDispositions(ctx context.Context, runID string) ([]*storage.DispositionRecord, error)
}
