package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
)

// cancelCheckEvery is how many rows Search scans between context checks.
const cancelCheckEvery = 256

// vectorIndex implements driven.VectorIndex.
type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Upsert inserts the passage unless its fingerprint already exists.
func (v *vectorIndex) Upsert(ctx context.Context, p domain.Passage) (bool, error) {
	if p.Fingerprint == "" || len(p.Embedding) == 0 {
		return false, fmt.Errorf("passage needs fingerprint and embedding: %w", domain.ErrInvalidInput)
	}
	if err := v.checkDimension(ctx, len(p.Embedding)); err != nil {
		return false, err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.ID == "" {
		p.ID = p.Fingerprint
	}

	var title sql.NullString
	if p.SectionTitle != nil {
		title = sql.NullString{String: *p.SectionTitle, Valid: true}
	}

	res, err := v.store.db.ExecContext(ctx, `
		INSERT INTO passages (id, source_path, section_title, content, embedding, fingerprint, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`, p.ID, p.SourcePath, title, p.Content, encodeVector(p.Embedding),
		p.Fingerprint, formatTime(p.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("inserting passage: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	if n > 0 {
		v.rememberDimension(len(p.Embedding))
	}
	return n > 0, nil
}

// checkDimension rejects embeddings whose size differs from stored passages.
func (v *vectorIndex) checkDimension(ctx context.Context, dim int) error {
	v.store.dimMu.Lock()
	known := v.store.dimension
	v.store.dimMu.Unlock()

	if known == 0 {
		var blobLen sql.NullInt64
		err := v.store.db.QueryRowContext(ctx,
			"SELECT length(embedding) FROM passages ORDER BY seq LIMIT 1").Scan(&blobLen)
		switch {
		case err == sql.ErrNoRows:
			return nil
		case err != nil:
			return fmt.Errorf("reading stored dimension: %w", err)
		}
		known = int(blobLen.Int64) / 4
		v.rememberDimension(known)
	}

	if known != dim {
		return fmt.Errorf("embedding has %d dimensions, index has %d: %w", dim, known, domain.ErrInvalidInput)
	}
	return nil
}

func (v *vectorIndex) rememberDimension(dim int) {
	v.store.dimMu.Lock()
	defer v.store.dimMu.Unlock()
	if v.store.dimension == 0 {
		v.store.dimension = dim
	}
}

// HasFingerprint reports whether a passage with the fingerprint exists.
func (v *vectorIndex) HasFingerprint(ctx context.Context, fingerprint string) (bool, error) {
	var one int
	err := v.store.db.QueryRowContext(ctx,
		"SELECT 1 FROM passages WHERE fingerprint = ?", fingerprint).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking fingerprint: %w", err)
	}
	return true, nil
}

// GetBySource returns passages for a document in insertion order.
func (v *vectorIndex) GetBySource(ctx context.Context, sourcePath string, limit int) ([]domain.Passage, error) {
	if limit <= 0 {
		limit = driven.DefaultSourceLimit
	}

	rows, err := v.store.db.QueryContext(ctx, `
		SELECT id, source_path, section_title, content, embedding, fingerprint, created_at
		FROM passages
		WHERE source_path = ?
		ORDER BY seq
		LIMIT ?
	`, sourcePath, limit)
	if err != nil {
		return nil, fmt.Errorf("querying passages by source: %w", err)
	}
	defer rows.Close()

	var passages []domain.Passage //nolint:prealloc // size unknown from query
	for rows.Next() {
		p, err := scanPassage(rows)
		if err != nil {
			return nil, err
		}
		passages = append(passages, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating passages: %w", err)
	}

	return passages, nil
}

// scored is a passage reference with its similarity, before the row is loaded.
type scored struct {
	seq   int64
	score float64
}

// Search scores every stored embedding against the query and loads the top k.
// Embeddings that fail to decode score 0. Ties keep insertion order.
func (v *vectorIndex) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredPassage, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := v.store.db.QueryContext(ctx, "SELECT seq, embedding FROM passages ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("scanning embeddings: %w", err)
	}
	defer rows.Close()

	var hits []scored
	for n := 0; rows.Next(); n++ {
		if n%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		var seq int64
		var blob []byte
		if err := rows.Scan(&seq, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding row: %w", err)
		}

		var score float64
		if emb, ok := decodeVector(blob); ok {
			score = domain.CosineSimilarity(query, emb)
		}
		hits = append(hits, scored{seq: seq, score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	return v.load(ctx, hits)
}

// load fetches the rows for hits and returns them in hits order.
func (v *vectorIndex) load(ctx context.Context, hits []scored) ([]domain.ScoredPassage, error) {
	if len(hits) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(hits)), ",")
	args := make([]any, len(hits))
	for i, h := range hits {
		args[i] = h.seq
	}

	//nolint:gosec // placeholders are generated, not user input
	rows, err := v.store.db.QueryContext(ctx, `
		SELECT seq, id, source_path, section_title, content, embedding, fingerprint, created_at
		FROM passages WHERE seq IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("loading passages: %w", err)
	}
	defer rows.Close()

	bySeq := make(map[int64]*domain.Passage, len(hits))
	for rows.Next() {
		var seq int64
		p, err := scanPassage(rows, &seq)
		if err != nil {
			return nil, err
		}
		bySeq[seq] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating passages: %w", err)
	}

	results := make([]domain.ScoredPassage, 0, len(hits))
	for _, h := range hits {
		if p, ok := bySeq[h.seq]; ok {
			results = append(results, domain.ScoredPassage{Passage: *p, Score: h.score})
		}
	}
	return results, nil
}

// Count returns the number of stored passages.
func (v *vectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM passages").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting passages: %w", err)
	}
	return n, nil
}

// Close is a no-op; the owning Store closes the database.
func (v *vectorIndex) Close() error {
	return nil
}

// scanPassage scans a passage row. When seq is given, the row's first
// column is the sequence number.
func scanPassage(rows *sql.Rows, seq ...*int64) (*domain.Passage, error) {
	var p domain.Passage
	var title sql.NullString
	var blob []byte
	var createdAt string

	dest := []any{&p.ID, &p.SourcePath, &title, &p.Content, &blob, &p.Fingerprint, &createdAt}
	if len(seq) > 0 {
		dest = append([]any{seq[0]}, dest...)
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scanning passage: %w", err)
	}

	if title.Valid {
		t := title.String
		p.SectionTitle = &t
	}
	p.Embedding, _ = decodeVector(blob)
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}
