package domain

// RawDocument represents the unprocessed bytes of a documentation file.
// It is the input to normalisation.
type RawDocument struct {
	// Path is the file path relative to the ingested root, with forward slashes.
	Path string

	// MIMEType is the content type (e.g., "text/markdown").
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// ChangeType represents the type of file change seen while watching.
type ChangeType int

const (
	// ChangeCreated indicates a new file.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified file.
	ChangeUpdated

	// ChangeDeleted indicates a removed file.
	ChangeDeleted
)

// String returns a lowercase name for the change type.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// FileChange is a change event observed in a watched documentation tree,
// together with the outcome of re-ingesting it.
type FileChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Path is the changed file relative to the watched root.
	Path string

	// Inserted is the number of new passages stored for the change.
	Inserted int

	// Err is set when re-ingestion failed.
	Err error
}
