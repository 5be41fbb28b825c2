package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
)

// ingestLog implements driven.IngestLog.
type ingestLog struct {
	store *Store
}

var _ driven.IngestLog = (*ingestLog)(nil)

// RecordRun stores a completed ingestion run.
func (l *ingestLog) RecordRun(ctx context.Context, run *domain.IngestRun) error {
	if run == nil {
		return domain.ErrInvalidInput
	}

	_, err := l.store.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (root, started_at, ended_at, files_seen, files_failed,
			chunks_seen, inserted, skipped, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.Root, formatTime(run.StartedAt), formatTime(run.EndedAt),
		run.Report.FilesSeen, run.Report.FilesFailed, run.Report.ChunksSeen,
		run.Report.Inserted, run.Report.Skipped, nullString(run.Error))
	if err != nil {
		return fmt.Errorf("recording ingest run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, most recent first.
func (l *ingestLog) RecentRuns(ctx context.Context, limit int) ([]domain.IngestRun, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := l.store.db.QueryContext(ctx, `
		SELECT root, started_at, ended_at, files_seen, files_failed, chunks_seen, inserted, skipped, error
		FROM ingest_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying ingest runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.IngestRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		var run domain.IngestRun
		var started, ended string
		var errText sql.NullString
		if err := rows.Scan(&run.Root, &started, &ended,
			&run.Report.FilesSeen, &run.Report.FilesFailed, &run.Report.ChunksSeen,
			&run.Report.Inserted, &run.Report.Skipped, &errText); err != nil {
			return nil, fmt.Errorf("scanning ingest run: %w", err)
		}
		run.StartedAt = parseTime(started)
		run.EndedAt = parseTime(ended)
		if errText.Valid {
			run.Error = errText.String
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ingest runs: %w", err)
	}

	return runs, nil
}

// PruneRuns removes all but the most recent keep runs.
func (l *ingestLog) PruneRuns(ctx context.Context, keep int) error {
	_, err := l.store.db.ExecContext(ctx, `
		DELETE FROM ingest_runs
		WHERE id NOT IN (SELECT id FROM ingest_runs ORDER BY id DESC LIMIT ?)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning ingest runs: %w", err)
	}
	return nil
}
