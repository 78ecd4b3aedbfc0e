package cli

import (
	"time"

	"github.com/clean-dependency-project/cyberscan/internal/engine"
)

// ScanReport is the JSON output of the scan command.
type ScanReport struct {
	RunID       string             `json:"run_id,omitempty"`
	Engine      string             `json:"engine"`
	Simulated   bool               `json:"simulated"`
	Mode        string             `json:"mode"`
	Targets     []string           `json:"targets"`
	Interrupted bool               `json:"interrupted"`
	Detections  []engine.Detection `json:"detections"`
	Suppressed  []engine.Detection `json:"suppressed,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	DurationMs  int64              `json:"duration_ms"`
	Warnings    []string           `json:"warnings,omitempty"`
}

// EngineStatus is one row of the engines command.
type EngineStatus struct {
	Name         string `json:"name"`
	Available    bool   `json:"available"`
	Path         string `json:"path,omitempty"`
	Version      string `json:"version,omitempty"`
	DatabaseDate string `json:"database_date,omitempty"`
	Outdated     bool   `json:"outdated,omitempty"`
	Error        string `json:"error,omitempty"`
}
