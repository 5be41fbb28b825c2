package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
	"github.com/custodia-labs/grimoire/internal/core/ports/driving"
)

// Ensure StatsService implements the interface.
var _ driving.StatsService = (*StatsService)(nil)

// recentRuns is the number of ingestion runs included in stats.
const recentRuns = 10

// StatsService reports passage counts and ingestion history.
type StatsService struct {
	vectorIndex driven.VectorIndex
	ingestLog   driven.IngestLog
}

// NewStatsService creates a new stats service.
// The ingestLog parameter is optional (can be nil).
func NewStatsService(vectorIndex driven.VectorIndex, ingestLog driven.IngestLog) *StatsService {
	return &StatsService{vectorIndex: vectorIndex, ingestLog: ingestLog}
}

// Stats returns the passage count and the most recent ingestion runs.
func (s *StatsService) Stats(ctx context.Context) (*domain.IndexStats, error) {
	if s.vectorIndex == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	count, err := s.vectorIndex.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count passages: %w", err)
	}
	stats := &domain.IndexStats{Passages: count}

	if s.ingestLog != nil {
		runs, err := s.ingestLog.RecentRuns(ctx, recentRuns)
		if err != nil {
			return nil, fmt.Errorf("recent runs: %w", err)
		}
		stats.Runs = runs
	}
	return stats, nil
}
