package driven

import (
	"context"

	"github.com/custodia-labs/grimoire/internal/core/domain"
)

// IngestLog keeps a history of ingestion runs.
// This is optional - ingestion works without it.
type IngestLog interface {
	// RecordRun stores a completed run.
	RecordRun(ctx context.Context, run *domain.IngestRun) error

	// RecentRuns returns up to limit runs, most recent first.
	RecentRuns(ctx context.Context, limit int) ([]domain.IngestRun, error)

	// PruneRuns keeps only the most recent keep runs.
	PruneRuns(ctx context.Context, keep int) error
}
