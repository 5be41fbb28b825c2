// Package domain defines the core business entities for Grimoire.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingestible documentation file before chunking
//   - Chunk: A bounded, fingerprinted slice of a document section
//   - Passage: A stored chunk with its embedding
//   - ValidationResult: The outcome of validating a DSL snippet
//   - FunctionDoc: Structured documentation for a single DSL function
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
