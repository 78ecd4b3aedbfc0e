package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/clean-dependency-project/cyberscan/internal/engine"
)

// ScanRun is one invocation of a scan.
type ScanRun struct {
	ID              uint      `gorm:"primaryKey" json:"-"`
	RunID           string    `gorm:"not null;uniqueIndex" json:"run_id"`
	Hostname        string    `json:"hostname"`
	Platform        string    `json:"platform"`
	Engine          string    `gorm:"not null;index" json:"engine"`
	Mode            string    `gorm:"not null" json:"mode"`
	Simulated       bool      `gorm:"not null;default:false" json:"simulated"`
	Targets         string    `gorm:"type:json" json:"-"` // JSON array of scanned paths
	Detections      string    `gorm:"type:json" json:"-"` // JSON array of engine.Detection
	DetectionCount  int       `gorm:"not null;default:0" json:"detection_count"`
	SuppressedCount int       `gorm:"not null;default:0" json:"suppressed_count"`
	Interrupted     bool      `gorm:"not null;default:false" json:"interrupted"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	StartedAt       time.Time `gorm:"not null;index" json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
}

// TableName overrides the table name for GORM.
func (ScanRun) TableName() string {
	return "scan_runs"
}

// SetTargets stores the scanned paths.
func (r *ScanRun) SetTargets(targets []string) error {
	data, err := json.Marshal(targets)
	if err != nil {
		return fmt.Errorf("failed to marshal targets: %w", err)
	}
	r.Targets = string(data)
	return nil
}

// TargetList decodes the scanned paths.
func (r *ScanRun) TargetList() ([]string, error) {
	if r.Targets == "" {
		return nil, nil
	}
	var targets []string
	if err := json.Unmarshal([]byte(r.Targets), &targets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal targets for run %s: %w", r.RunID, err)
	}
	return targets, nil
}

// SetDetections stores the detections and their count.
func (r *ScanRun) SetDetections(dets []engine.Detection) error {
	if dets == nil {
		dets = []engine.Detection{}
	}
	data, err := json.Marshal(dets)
	if err != nil {
		return fmt.Errorf("failed to marshal detections: %w", err)
	}
	r.Detections = string(data)
	r.DetectionCount = len(dets)
	return nil
}

// DetectionList decodes the stored detections.
func (r *ScanRun) DetectionList() ([]engine.Detection, error) {
	if r.Detections == "" {
		return nil, nil
	}
	var dets []engine.Detection
	if err := json.Unmarshal([]byte(r.Detections), &dets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal detections for run %s: %w", r.RunID, err)
	}
	return dets, nil
}

// DispositionRecord is the outcome of one action taken on a detection.
type DispositionRecord struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	RunID       string    `gorm:"not null;index" json:"run_id"`
	Action      string    `gorm:"not null" json:"action"`
	Path        string    `gorm:"not null" json:"path"`
	Label       string    `json:"label"`
	Success     bool      `gorm:"not null" json:"success"`
	Message     string    `json:"message"`
	Destination string    `json:"destination,omitempty"`
	At          time.Time `gorm:"not null" json:"at"`
}

// TableName overrides the table name for GORM.
func (DispositionRecord) TableName() string {
	return "disposition_records"
}
