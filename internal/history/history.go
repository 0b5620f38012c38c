package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/yildizm/SignScan/internal/common"
	"github.com/yildizm/SignScan/internal/controller"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFinished is returned when recording a state that has no outcome yet
var ErrNotFinished = errors.New("analysis has not finished")

// Entry is one recorded analysis
type Entry struct {
	ID             string             `json:"id"`
	FileName       string             `json:"file_name"`
	FilePath       string             `json:"file_path,omitempty"`
	FileSize       int64              `json:"file_size"`
	MIMEType       string             `json:"type"`
	Phase          controller.Phase   `json:"phase"`
	DetectionCount int                `json:"detection_count"`
	ProcessingTime *float64           `json:"processing_time,omitempty"`
	ErrorMessage   string             `json:"error_message,omitempty"`
	ErrorKind      string             `json:"error_kind,omitempty"`
	Detections     []common.Detection `json:"detections,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

type row struct {
	ID             string          `db:"id"`
	FileName       string          `db:"file_name"`
	FilePath       string          `db:"file_path"`
	FileSize       int64           `db:"file_size"`
	MIMEType       string          `db:"mime_type"`
	Phase          string          `db:"phase"`
	DetectionCount int             `db:"detection_count"`
	ProcessingTime sql.NullFloat64 `db:"processing_time"`
	ErrorMessage   string          `db:"error_message"`
	ErrorKind      string          `db:"error_kind"`
	Detections     string          `db:"detections"`
	CreatedAt      int64           `db:"created_at"`
}

// Store persists completed analyses in SQLite
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open migrates and opens the database at path
func Open(path string) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute database path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	if err := runMigrations(absPath); err != nil {
		return nil, err
	}

	db, err := sqlx.Connect("sqlite", absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{db: db, now: time.Now}, nil
}

// runMigrations uses its own connection; closing migrate closes the database
func runMigrations(path string) error {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to connect for migrations: %w", err)
	}
	defer func() { _ = db.Close() }()

	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores the outcome of a finished analysis
func (s *Store) Record(ctx context.Context, state controller.State) (*Entry, error) {
	if state.File == nil || (state.Phase != controller.PhaseSucceeded && state.Phase != controller.PhaseFailed) {
		return nil, ErrNotFinished
	}

	entry := &Entry{
		ID:        uuid.NewString(),
		FileName:  state.File.Name,
		FilePath:  state.File.Path,
		FileSize:  state.File.Size,
		MIMEType:  state.File.MIMEType,
		Phase:     state.Phase,
		CreatedAt: s.now().UTC(),
	}
	if state.Result != nil {
		entry.DetectionCount = state.Result.Count()
		entry.ProcessingTime = state.Result.ProcessingTime
		entry.Detections = state.Result.Detections
	}
	if state.Err != nil {
		entry.ErrorMessage = state.Err.Message
		entry.ErrorKind = string(state.Err.Kind)
	}

	detections, err := json.Marshal(entry.Detections)
	if err != nil {
		return nil, fmt.Errorf("failed to encode detections: %w", err)
	}
	if entry.Detections == nil {
		detections = []byte("[]")
	}

	r := row{
		ID:             entry.ID,
		FileName:       entry.FileName,
		FilePath:       entry.FilePath,
		FileSize:       entry.FileSize,
		MIMEType:       entry.MIMEType,
		Phase:          string(entry.Phase),
		DetectionCount: entry.DetectionCount,
		ErrorMessage:   entry.ErrorMessage,
		ErrorKind:      entry.ErrorKind,
		Detections:     string(detections),
		CreatedAt:      entry.CreatedAt.UnixMilli(),
	}
	if entry.ProcessingTime != nil {
		r.ProcessingTime = sql.NullFloat64{Float64: *entry.ProcessingTime, Valid: true}
	}

	query := `
		INSERT INTO analyses (id, file_name, file_path, file_size, mime_type, phase, detection_count,
		                      processing_time, error_message, error_kind, detections, created_at)
		VALUES (:id, :file_name, :file_path, :file_size, :mime_type, :phase, :detection_count,
		        :processing_time, :error_message, :error_kind, :detections, :created_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, r); err != nil {
		return nil, fmt.Errorf("failed to record analysis: %w", err)
	}

	return entry, nil
}

// Recent returns up to limit entries, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []row
	query := `
		SELECT id, file_name, file_path, file_size, mime_type, phase, detection_count,
		       processing_time, error_message, error_kind, detections, created_at
		FROM analyses
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		entry := Entry{
			ID:             r.ID,
			FileName:       r.FileName,
			FilePath:       r.FilePath,
			FileSize:       r.FileSize,
			MIMEType:       r.MIMEType,
			Phase:          controller.Phase(r.Phase),
			DetectionCount: r.DetectionCount,
			ErrorMessage:   r.ErrorMessage,
			ErrorKind:      r.ErrorKind,
			CreatedAt:      time.UnixMilli(r.CreatedAt).UTC(),
		}
		if r.ProcessingTime.Valid {
			pt := r.ProcessingTime.Float64
			entry.ProcessingTime = &pt
		}
		if err := json.Unmarshal([]byte(r.Detections), &entry.Detections); err != nil {
			return nil, fmt.Errorf("failed to decode detections for %s: %w", r.ID, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Clear deletes every entry
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analyses`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return res.RowsAffected()
}
