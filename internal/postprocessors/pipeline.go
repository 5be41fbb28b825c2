// Package postprocessors turns normalised documents into indexable chunks.
package postprocessors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
	"github.com/custodia-labs/grimoire/internal/logger"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// ErrUnfingerprinted is returned when the pipeline's output holds a chunk
// with no fingerprint. Ingestion skips known passages by fingerprint, so such
// a chunk could never be stored correctly.
var ErrUnfingerprinted = errors.New("chunk has no fingerprint")

// Pipeline runs post-processors in order. The first stage receives no chunks
// and creates them from the document; later stages filter or rewrite them.
type Pipeline struct {
	stages []driven.PostProcessor
}

// NewPipeline returns a pipeline running stages in the order given.
func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Process chunks doc. Once a stage leaves no chunks the remaining stages are
// skipped, so a document without sections yields nil.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil: %w", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for i, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		chunks, err = stage.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s on %s: %w", stage.Name(), doc.Path, err)
		}
		logger.Debug("%s: %s left %d chunks", doc.Path, stage.Name(), len(chunks))
		if len(chunks) == 0 && i < len(p.stages)-1 {
			return nil, nil
		}
	}

	for i, c := range chunks {
		if c.Fingerprint == "" {
			return nil, fmt.Errorf("%s chunk %d: %w", doc.Path, i, ErrUnfingerprinted)
		}
	}
	return chunks, nil
}

// Add appends a stage.
func (p *Pipeline) Add(stage driven.PostProcessor) {
	p.stages = append(p.stages, stage)
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Names returns the stage names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, stage := range p.stages {
		names[i] = stage.Name()
	}
	return names
}

// String renders the stages as "chunker -> dedupe".
func (p *Pipeline) String() string {
	return strings.Join(p.Names(), " -> ")
}
