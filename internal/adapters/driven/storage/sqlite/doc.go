// Package sqlite provides a SQLite-based implementation of the vector index
// and the ingestion history.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple interfaces
// through a single database connection:
//
//   - VectorIndex: Passage persistence and brute-force cosine search
//   - IngestLog: Ingestion run history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Embeddings are stored as little-endian float32 blobs.
//
// # Data Location
//
// By default, the database is stored at ~/.grimoire/data/passages.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode. Fingerprint uniqueness is enforced by a UNIQUE
// constraint, so concurrent inserts of the same passage store it once.
package sqlite
