package driving

import (
	"context"

	"github.com/custodia-labs/grimoire/internal/core/domain"
)

// StatsService reports the state of the documentation index.
type StatsService interface {
	// Stats returns the passage count and the most recent ingestion runs.
	Stats(ctx context.Context) (*domain.IndexStats, error)
}
