package domain

import "time"

// Passage is a chunk of documentation stored with its embedding.
// Passages are created once and never updated.
type Passage struct {
	// ID is the opaque identifier assigned at ingestion.
	ID string

	// SourcePath identifies the originating document.
	SourcePath string

	// SectionTitle is the heading the passage was found under, if any.
	SectionTitle *string

	// Content is the normalised passage text.
	Content string

	// Embedding is the vector representation of Content.
	Embedding []float32

	// Fingerprint is the SHA-256 hex digest of Content. Unique per store.
	Fingerprint string

	// CreatedAt is when the passage was inserted.
	CreatedAt time.Time
}

// Title returns the section title or an empty string.
func (p Passage) Title() string {
	if p.SectionTitle == nil {
		return ""
	}
	return *p.SectionTitle
}

// ScoredPassage pairs a passage with its similarity to a query.
type ScoredPassage struct {
	Passage Passage

	// Score is the cosine similarity in [-1, 1].
	Score float64
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	// FilesSeen is the number of matching files visited.
	FilesSeen int

	// FilesFailed is the number of files that could not be ingested.
	FilesFailed int

	// ChunksSeen is the number of chunks produced.
	ChunksSeen int

	// Inserted is the number of new passages stored.
	Inserted int

	// Skipped is the number of chunks whose fingerprint was already stored.
	Skipped int
}

// IngestRun records one completed ingestion of a documentation root.
type IngestRun struct {
	// Root is the ingested directory or file.
	Root string

	StartedAt time.Time
	EndedAt   time.Time

	Report IngestReport

	// Error is the failure summary, empty on success.
	Error string
}

// IndexStats describes the documentation index.
type IndexStats struct {
	// Passages is the number of stored passages.
	Passages int

	// Runs are the most recent ingestion runs, newest first.
	Runs []IngestRun
}
