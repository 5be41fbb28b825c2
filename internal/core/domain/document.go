package domain

// Document is a documentation file ready for chunking.
// It is the canonical representation after normalisation.
type Document struct {
	// Path identifies the document, relative to the ingested root
	// and always using forward slashes.
	Path string

	// Title is the first heading, if any.
	Title string

	// Content is the full normalised text.
	Content string

	// Metadata contains arbitrary key-value pairs (front matter fields).
	Metadata map[string]any
}

// Chunk is a bounded slice of a document section produced by the chunker.
type Chunk struct {
	// SourcePath is the Path of the document the chunk came from.
	SourcePath string

	// SectionTitle is the heading text of the enclosing section.
	SectionTitle string

	// Content is the exact chunk text.
	Content string

	// Fingerprint is the lowercase hex SHA-256 of Content.
	Fingerprint string

	// Position is the ordinal position within the document.
	Position int
}
