// Package storage provides the audit trail of scan runs and dispositions
// using GORM and SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clean-dependency-project/cyberscan/internal/disposition"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Sentinel errors following Dave Cheney's principle: define errors as values
var (
	ErrNilRun     = errors.New("scan run cannot be nil")
	ErrNotFound   = errors.New("scan run not found")
	ErrEmptyRunID = errors.New("run id is required")
)

// Store defines the interface for audit storage operations
type Store interface {
	Close() error
	StartRun(ctx context.Context, run *ScanRun) error
	FinishRun(ctx context.Context, run *ScanRun) error
	GetRun(ctx context.Context, runID string) (*ScanRun, error)
	ListRuns(ctx context.Context, limit int) ([]*ScanRun, error)
	ListDispositions(ctx context.Context, runID string) ([]*DispositionRecord, error)
	Recorder(runID string) disposition.Recorder
	GetStats(ctx context.Context) (*Stats, error)
}

// DB wraps gorm.DB with our audit operations
type DB struct {
	db  *gorm.DB
	now func() time.Time
}

var _ Store = (*DB)(nil)

// Config holds database configuration
type Config struct {
	DatabasePath string
	LogLevel     string // silent, error, warn, info
}

// InitDB initializes the database connection and runs migrations
func InitDB(cfg Config) (*DB, error) {
	logLevel := logger.Silent
	switch cfg.LogLevel {
	case "error":
		logLevel = logger.Error
	case "warn":
		logLevel = logger.Warn
	case "info":
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate schema
	if err := db.AutoMigrate(&ScanRun{}, &DispositionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &DB{db: db, now: time.Now}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// StartRun creates a run record. A RunID and StartedAt are assigned when empty.
func (d *DB) StartRun(ctx context.Context, run *ScanRun) error {
	if run == nil {
		return ErrNilRun
	}
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = d.now()
	}
	if err := d.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to record scan run: %w", err)
	}
	return nil
}

// FinishRun stores the results of a run started with StartRun.
func (d *DB) FinishRun(ctx context.Context, run *ScanRun) error {
	if run == nil {
		return ErrNilRun
	}
	if run.RunID == "" {
		return ErrEmptyRunID
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = d.now()
	}
	res := d.db.WithContext(ctx).Model(&ScanRun{}).Where("run_id = ?", run.RunID).Updates(map[string]interface{}{
		"engine":           run.Engine,
		"simulated":        run.Simulated,
		"targets":          run.Targets,
		"detections":       run.Detections,
		"detection_count":  run.DetectionCount,
		"suppressed_count": run.SuppressedCount,
		"interrupted":      run.Interrupted,
		"error_message":    run.ErrorMessage,
		"finished_at":      run.FinishedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to finish scan run %s: %w", run.RunID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, run.RunID)
	}
	return nil
}

// GetRun retrieves a run by its ID
func (d *DB) GetRun(ctx context.Context, runID string) (*ScanRun, error) {
	var run ScanRun
	err := d.db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan run: %w", err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less returns all runs.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]*ScanRun, error) {
	var runs []*ScanRun
	q := d.db.WithContext(ctx).Order("started_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list scan runs: %w", err)
	}
	return runs, nil
}

// ListDispositions returns the dispositions of a run in the order they were applied
func (d *DB) ListDispositions(ctx context.Context, runID string) ([]*DispositionRecord, error) {
	var records []*DispositionRecord
	if err := d.db.WithContext(ctx).Where("run_id = ?", runID).
		Order("at ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list dispositions for run %s: %w", runID, err)
	}
	return records, nil
}

// Recorder returns a disposition.Recorder that files records under runID.
func (d *DB) Recorder(runID string) disposition.Recorder {
	return &runRecorder{db: d, runID: runID}
}

type runRecorder struct {
	db    *DB
	runID string
}

// RecordDisposition implements disposition.Recorder.
func (r *runRecorder) RecordDisposition(ctx context.Context, rec disposition.Record) error {
	if r.runID == "" {
		return ErrEmptyRunID
	}
	at := rec.At
	if at.IsZero() {
		at = r.db.now()
	}
	row := &DispositionRecord{
		RunID:       r.runID,
		Action:      string(rec.Action),
		Path:        rec.Path,
		Label:       rec.Label,
		Success:     rec.Outcome.Success,
		Message:     rec.Outcome.Message,
		Destination: rec.Outcome.Destination,
		At:          at,
	}
	if err := r.db.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to record disposition: %w", err)
	}
	return nil
}

// Stats summarizes the audit trail.
type Stats struct {
	TotalRuns       int64         `json:"total_runs"`
	TotalDetections int64         `json:"total_detections"`
	ByEngine        []EngineCount `json:"by_engine"`
	ByAction        []ActionCount `json:"by_action"`
}

// EngineCount is the number of runs per engine.
type EngineCount struct {
	Engine string `json:"engine"`
	Count  int64  `json:"count"`
}

// ActionCount is the number of dispositions per action.
type ActionCount struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}

// GetStats returns audit statistics
func (d *DB) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	db := d.db.WithContext(ctx)

	if err := db.Model(&ScanRun{}).Count(&stats.TotalRuns).Error; err != nil {
		return nil, fmt.Errorf("failed to count scan runs: %w", err)
	}

	var total struct{ Sum int64 }
	if err := db.Model(&ScanRun{}).Select("COALESCE(SUM(detection_count), 0) as sum").
		Scan(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to sum detections: %w", err)
	}
	stats.TotalDetections = total.Sum

	if err := db.Model(&ScanRun{}).Select("engine, COUNT(*) as count").
		Group("engine").Order("engine").Scan(&stats.ByEngine).Error; err != nil {
		return nil, fmt.Errorf("failed to get engine counts: %w", err)
	}

	if err := db.Model(&DispositionRecord{}).Select("action, COUNT(*) as count").
		Group("action").Order("action").Scan(&stats.ByAction).Error; err != nil {
		return nil, fmt.Errorf("failed to get action counts: %w", err)
	}

	return stats, nil
}
