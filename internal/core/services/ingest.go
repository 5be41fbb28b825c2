package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
	"github.com/custodia-labs/grimoire/internal/core/ports/driving"
	"github.com/custodia-labs/grimoire/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

const (
	// defaultDebounce groups bursts of file events before re-ingesting.
	defaultDebounce = 300 * time.Millisecond

	// keepRuns is the number of ingestion runs kept in the log.
	keepRuns = 50
)

// IngestService loads documentation trees into the vector index.
// Chunks whose fingerprint is already stored are skipped before embedding,
// so re-ingesting unchanged files costs no embedding calls.
type IngestService struct {
	normaliser       driven.Normaliser
	pipeline         driven.PostProcessorPipeline
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	ingestLog        driven.IngestLog
	include          []string
	limiter          *rate.Limiter
	debounce         time.Duration

	// watchReady is called once the watcher covers the tree.
	watchReady func()
}

// NewIngestService creates a new ingestion service.
func NewIngestService(
	normaliser driven.Normaliser,
	pipeline driven.PostProcessorPipeline,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
	settings domain.IngestSettings,
) *IngestService {
	include := settings.Include
	if len(include) == 0 {
		include = domain.DefaultAppSettings().Ingest.Include
	}

	limit := rate.Inf
	if settings.DelayMs > 0 {
		limit = rate.Every(time.Duration(settings.DelayMs) * time.Millisecond)
	}

	return &IngestService{
		normaliser:       normaliser,
		pipeline:         pipeline,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		include:          include,
		limiter:          rate.NewLimiter(limit, 1),
		debounce:         defaultDebounce,
	}
}

// SetIngestLog sets the optional run history.
func (s *IngestService) SetIngestLog(log driven.IngestLog) {
	s.ingestLog = log
}

// Matches reports whether a root-relative, slash-separated path is included.
func (s *IngestService) Matches(rel string) bool {
	for _, pattern := range s.include {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// IngestPath walks root and ingests every matching file. Failing files are
// logged, counted and skipped; the error is reserved for an unusable root
// or cancellation.
func (s *IngestService) IngestPath(ctx context.Context, root string) (*domain.IngestReport, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	logger.Section("Ingestion")
	run := domain.IngestRun{Root: root, StartedAt: time.Now()}

	files, base, err := s.collect(root)
	if err != nil {
		return nil, err
	}
	logger.Info("Found %d documentation files under %s", len(files), root)

	report := &domain.IngestReport{}
	var failures []error
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.FilesSeen++
		fileReport, err := s.ingestFile(ctx, base, rel)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			logger.Warn("Skipping %s: %v", rel, err)
			report.FilesFailed++
			failures = append(failures, fmt.Errorf("%s: %w", rel, err))
			continue
		}
		report.ChunksSeen += fileReport.ChunksSeen
		report.Inserted += fileReport.Inserted
		report.Skipped += fileReport.Skipped
	}

	run.EndedAt = time.Now()
	run.Report = *report
	if joined := errors.Join(failures...); joined != nil {
		run.Error = joined.Error()
	}
	s.record(ctx, &run)

	logger.Info("Ingested %d files: %d inserted, %d skipped, %d failed",
		report.FilesSeen, report.Inserted, report.Skipped, report.FilesFailed)
	return report, nil
}

// collect returns matching files relative to base. A file root is its own
// single entry relative to its directory.
func (s *IngestService) collect(root string) ([]string, string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if !info.IsDir() {
		return []string{filepath.Base(root)}, filepath.Dir(root), nil
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Cannot read %s: %v", p, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if p != root && skipName(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if s.Matches(rel) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("walk %s: %w", root, err)
	}
	return files, root, nil
}

// skipName reports whether a file or directory is never ingested.
func skipName(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}

func (s *IngestService) ingestFile(ctx context.Context, base, rel string) (*domain.IngestReport, error) {
	content, err := os.ReadFile(filepath.Join(base, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return s.IngestDocument(ctx, &domain.RawDocument{
		Path:     rel,
		MIMEType: mimeType(rel),
		Content:  content,
	})
}

func mimeType(rel string) string {
	if strings.EqualFold(path.Ext(rel), ".mdx") {
		return "text/mdx"
	}
	return "text/markdown"
}

// IngestDocument chunks, embeds and stores a single raw document.
func (s *IngestService) IngestDocument(ctx context.Context, raw *domain.RawDocument) (*domain.IngestReport, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	doc, err := s.normaliser.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise: %w", err)
	}

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}

	report := &domain.IngestReport{ChunksSeen: len(chunks)}
	for _, c := range chunks {
		exists, err := s.vectorIndex.HasFingerprint(ctx, c.Fingerprint)
		if err != nil {
			return report, fmt.Errorf("check fingerprint: %w", err)
		}
		if exists {
			report.Skipped++
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return report, err
		}
		vec, err := s.embeddingService.Embed(ctx, c.Content)
		if err != nil {
			return report, fmt.Errorf("embed chunk %d: %w", c.Position, err)
		}

		p := domain.Passage{
			ID:          uuid.NewString(),
			SourcePath:  c.SourcePath,
			Content:     c.Content,
			Embedding:   vec,
			Fingerprint: c.Fingerprint,
			CreatedAt:   time.Now(),
		}
		if c.SectionTitle != "" {
			title := c.SectionTitle
			p.SectionTitle = &title
		}

		inserted, err := s.vectorIndex.Upsert(ctx, p)
		if err != nil {
			return report, fmt.Errorf("store chunk %d: %w", c.Position, err)
		}
		if inserted {
			report.Inserted++
		} else {
			report.Skipped++
		}
	}

	logger.Debug("%s: %d chunks, %d inserted, %d skipped",
		raw.Path, report.ChunksSeen, report.Inserted, report.Skipped)
	return report, nil
}

func (s *IngestService) ready() error {
	switch {
	case s.embeddingService == nil:
		return domain.ErrEmbeddingUnavailable
	case s.vectorIndex == nil:
		return domain.ErrVectorIndexUnavailable
	case s.normaliser == nil || s.pipeline == nil:
		return fmt.Errorf("ingestion pipeline not configured: %w", domain.ErrInvalidInput)
	}
	return nil
}

func (s *IngestService) record(ctx context.Context, run *domain.IngestRun) {
	if s.ingestLog == nil {
		return
	}
	if err := s.ingestLog.RecordRun(ctx, run); err != nil {
		logger.Warn("Recording ingestion run: %v", err)
		return
	}
	if err := s.ingestLog.PruneRuns(ctx, keepRuns); err != nil {
		logger.Warn("Pruning ingestion runs: %v", err)
	}
}

// Watch re-ingests files under root as they change until ctx is done.
// Events are debounced; a file touched several times in a burst is
// ingested once. Deleted files are reported but their passages are kept.
func (s *IngestService) Watch(ctx context.Context, root string, onChange func(domain.FileChange)) error {
	if err := s.ready(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addTree(watcher, root); err != nil {
		return err
	}
	logger.Info("Watching %s", root)
	if s.watchReady != nil {
		s.watchReady()
	}

	pending := make(map[string]domain.ChangeType)
	timer := time.NewTimer(s.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if s.queueEvent(watcher, root, event, pending) {
				timer.Reset(s.debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-timer.C:
			s.flush(ctx, root, pending, onChange)
			clear(pending)
		}
	}
}

// addTree watches root and every directory below it that is not skipped.
func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && skipName(d.Name()) {
			return fs.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// queueEvent maps a filesystem event to a pending change. New directories
// are added to the watcher. Returns true when a change was queued.
func (s *IngestService) queueEvent(
	watcher *fsnotify.Watcher, root string, event fsnotify.Event, pending map[string]domain.ChangeType,
) bool {
	rel, err := filepath.Rel(root, event.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if skipName(part) {
			return false
		}
	}

	var change domain.ChangeType
	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addTree(watcher, event.Name); err != nil {
				logger.Warn("Cannot watch %s: %v", event.Name, err)
			}
			return false
		}
		change = domain.ChangeCreated
	case event.Has(fsnotify.Write):
		change = domain.ChangeUpdated
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		change = domain.ChangeDeleted
	default:
		return false
	}

	if !s.Matches(rel) {
		return false
	}
	if prev, ok := pending[rel]; ok && prev == domain.ChangeCreated && change == domain.ChangeUpdated {
		return true
	}
	pending[rel] = change
	return true
}

func (s *IngestService) flush(
	ctx context.Context, root string, pending map[string]domain.ChangeType, onChange func(domain.FileChange),
) {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, rel := range paths {
		change := domain.FileChange{Type: pending[rel], Path: rel}
		if change.Type != domain.ChangeDeleted {
			report, err := s.ingestFile(ctx, root, rel)
			if err != nil {
				logger.Warn("Re-ingesting %s: %v", rel, err)
				change.Err = err
			} else {
				change.Inserted = report.Inserted
			}
		}
		logger.Debug("%s %s (%d inserted)", change.Type, rel, change.Inserted)
		if onChange != nil {
			onChange(change)
		}
	}
}
