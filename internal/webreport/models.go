package webreport

import "time"

// SiteModel represents the complete report for HTML generation.
type SiteModel struct {
	GeneratedAt time.Time
	Hosts       []HostModel
	Totals      Totals
}

// Totals summarises every run in the report.
type Totals struct {
	Runs         int
	Detections   int
	Suppressed   int
	Dispositions int
	Interrupted  int
}

// HostModel groups the runs recorded on one machine.
type HostModel struct {
	Hostname string
	Platform string
	Runs     []RunModel
}

// RunModel is one scan run with its results.
type RunModel struct {
	RunID        string
	ShortID      string
	Engine       string
	Mode         string
	Simulated    bool
	Status       string
	ErrorMessage string
	StartedAt    time.Time
	Duration     time.Duration
	Targets      []string
	Detections   []DetectionModel
	Suppressed   int
	Dispositions []DispositionModel
}

// DetectionModel is one reported threat.
type DetectionModel struct {
	Path  string
	Label string
	// Action is the last disposition applied to the path, if any.
	Action string
}

// DispositionModel is one action taken on a detection.
type DispositionModel struct {
	Action      string
	Path        string
	Success     bool
	Message     string
	Destination string
	At          time.Time
}

// Run statuses
const (
	StatusComplete    = "complete"
	StatusInterrupted = "interrupted"
	StatusError       = "error"
)
