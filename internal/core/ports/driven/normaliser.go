package driven

import (
	"context"

	"github.com/custodia-labs/grimoire/internal/core/domain"
)

// Normaliser transforms raw documentation files into documents.
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Normalise transforms a raw document into a document ready for chunking.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}
