package driving

import (
	"context"

	"github.com/custodia-labs/grimoire/internal/core/domain"
)

// IngestService loads documentation files into the vector index.
type IngestService interface {
	// IngestPath walks root and ingests every matching file.
	// Files that fail are counted and skipped.
	IngestPath(ctx context.Context, root string) (*domain.IngestReport, error)

	// IngestDocument chunks, embeds and stores a single raw document.
	IngestDocument(ctx context.Context, raw *domain.RawDocument) (*domain.IngestReport, error)

	// Watch re-ingests files under root as they change until ctx is done.
	// Each handled change is reported to onChange, which may be nil.
	Watch(ctx context.Context, root string, onChange func(domain.FileChange)) error
}
