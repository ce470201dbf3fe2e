// Package catalog records pipeline runs, their selection tables and the files they
// produce in a SQLite database.
package catalog

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orcasound/orcaprep/internal/annotation"
	"github.com/orcasound/orcaprep/internal/errors"
	"github.com/orcasound/orcaprep/internal/logger"
)

const (
	// slowQueryThreshold marks queries logged at WARN level.
	slowQueryThreshold = 200 * time.Millisecond

	// insertBatchSize bounds the rows per INSERT statement.
	insertBatchSize = 500

	memoryPath = ":memory:"
)

// GetLogger returns the catalog logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("catalog")
}

// Store is a SQLite backed run catalog.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the catalog database at path and migrates the schema.
func Open(path string) (*Store, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.FileError(err, path)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.NewGormLoggerAdapter(GetLogger(), slowQueryThreshold),
	})
	if err != nil {
		return nil, dbError(err, "open_database").Context("path", path).Build()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, dbError(err, "get_sql_db").Build()
	}
	// SQLite serializes writers; a single connection also keeps :memory: databases shared
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Run{}, &Selection{}, &Artifact{}); err != nil {
		return nil, dbError(err, "auto_migrate").Build()
	}

	GetLogger().Debug("catalog opened", logger.String("path", path))
	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return dbError(err, "get_sql_db").Build()
	}
	return sqlDB.Close()
}

// BeginRun inserts a run in the running state.
func (s *Store) BeginRun(ctx context.Context, run *Run) error {
	run.Status = StatusRunning
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return dbError(err, "begin_run").Context("run_id", run.ID).Build()
	}
	return nil
}

// FinishRun stores the final counters and status of a run.
func (s *Store) FinishRun(ctx context.Context, run *Run, failed bool) error {
	now := time.Now()
	run.FinishedAt = &now
	run.Status = StatusCompleted
	if failed {
		run.Status = StatusFailed
	}
	if err := s.db.WithContext(ctx).Save(run).Error; err != nil {
		return dbError(err, "finish_run").Context("run_id", run.ID).Build()
	}
	return nil
}

// SaveSelections records a selection table for a run.
func (s *Store) SaveSelections(ctx context.Context, runID, kind string, sels []annotation.Selection) error {
	if len(sels) == 0 {
		return nil
	}
	rows := make([]Selection, len(sels))
	for i, sel := range sels {
		rows[i] = Selection{
			RunID:    runID,
			Kind:     kind,
			Filename: sel.Filename,
			SelID:    sel.ID,
			Start:    sel.Start,
			End:      sel.End,
			Label:    sel.Label,
		}
	}
	if err := s.db.WithContext(ctx).CreateInBatches(rows, insertBatchSize).Error; err != nil {
		return dbError(err, "save_selections").
			Context("run_id", runID).
			Context("kind", kind).
			Context("rows", len(rows)).
			Build()
	}
	return nil
}

// SaveArtifact records one produced file.
func (s *Store) SaveArtifact(ctx context.Context, a *Artifact) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return dbError(err, "save_artifact").Context("run_id", a.RunID).Context("path", a.Path).Build()
	}
	return nil
}

// GetRun loads a run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(err).
			Component("catalog").
			Category(errors.CategoryNotFound).
			Context("run_id", id).
			Build()
	}
	if err != nil {
		return nil, dbError(err, "get_run").Context("run_id", id).Build()
	}
	return &run, nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	var runs []Run
	q := s.db.WithContext(ctx).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, dbError(err, "list_runs").Build()
	}
	return runs, nil
}

// Selections returns the selections of one kind recorded for a run.
func (s *Store) Selections(ctx context.Context, runID, kind string) ([]Selection, error) {
	var rows []Selection
	err := s.db.WithContext(ctx).
		Where("run_id = ? AND kind = ?", runID, kind).
		Order("filename, start").
		Find(&rows).Error
	if err != nil {
		return nil, dbError(err, "list_selections").Context("run_id", runID).Build()
	}
	return rows, nil
}

// CountArtifacts counts artifacts of a kind and status; empty filters match everything.
func (s *Store) CountArtifacts(ctx context.Context, runID, kind, status string) (int64, error) {
	q := s.db.WithContext(ctx).Model(&Artifact{}).Where("run_id = ?", runID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, dbError(err, "count_artifacts").Context("run_id", runID).Build()
	}
	return n, nil
}

func dbError(err error, operation string) *errors.ErrorBuilder {
	return errors.New(err).
		Component("catalog").
		Category(errors.CategoryDatabase).
		Context("operation", operation)
}
