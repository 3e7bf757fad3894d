package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/opentrees/wfsget/internal/core/domain"
	"github.com/opentrees/wfsget/internal/core/ports/driven"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// Save stores or updates a run record.
func (s *runStore) Save(ctx context.Context, run domain.AcquisitionRecord) error {
	if run.ID == "" {
		return fmt.Errorf("%w: run ID is required", domain.ErrStorage)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO runs (id, source_id, url, version, strategy, pages, merged_path, status, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id = excluded.source_id,
			url = excluded.url,
			version = excluded.version,
			strategy = excluded.strategy,
			pages = excluded.pages,
			merged_path = excluded.merged_path,
			status = excluded.status,
			error = excluded.error,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`, run.ID, run.SourceID, run.URL,
		nullString(string(run.Version)), nullString(string(run.Strategy)),
		run.Pages, nullString(run.MergedPath), string(run.Status), nullString(run.Error),
		formatTime(run.StartedAt), formatNullableTime(run.FinishedAt))

	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID.
func (s *runStore) Get(ctx context.Context, id string) (*domain.AcquisitionRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, source_id, url, version, strategy, pages, merged_path, status, error, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)
	return scanRun(row)
}

// List returns runs by start time, most recent first.
// A limit of zero or less returns all runs.
func (s *runStore) List(ctx context.Context, limit int) ([]domain.AcquisitionRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, source_id, url, version, strategy, pages, merged_path, status, error, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.AcquisitionRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return runs, nil
}

// ==================== Helper Functions ====================

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.AcquisitionRecord, error) {
	var run domain.AcquisitionRecord
	var version, strategy, mergedPath, runErr, finishedAt sql.NullString
	var status, startedAt string

	if err := row.Scan(&run.ID, &run.SourceID, &run.URL, &version, &strategy, &run.Pages,
		&mergedPath, &status, &runErr, &startedAt, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	run.Version = domain.Version(version.String)
	run.Strategy = domain.Strategy(strategy.String)
	run.MergedPath = mergedPath.String
	run.Status = domain.RunStatus(status)
	run.Error = runErr.String
	run.StartedAt = parseTime(startedAt)
	run.FinishedAt = parseNullableTime(finishedAt)
	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatNullableTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	return parseTime(s.String)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
