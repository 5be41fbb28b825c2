// Package chunker splits markdown documents into heading-aligned,
// size-bounded, fingerprinted chunks.
package chunker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
)

// DefaultMinChars is the size below which a chunk is merged into its neighbour.
const DefaultMinChars = 1500

// DefaultMaxChars is the upper bound on chunk length, except for slices of
// a single oversized paragraph.
const DefaultMaxChars = 3500

// UntitledSection is the title of text that precedes the first heading.
const UntitledSection = "Untitled"

const paragraphSep = "\n\n"

var (
	headingPattern   = regexp.MustCompile(`^\s{0,3}#{1,6}\s+(.+?)\s*$`)
	paragraphPattern = regexp.MustCompile(`\n{2,}`)
	lineBreak        = regexp.MustCompile(`\r?\n`)
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Section is a heading-delimited region of a document.
type Section struct {
	Title   string
	Content string
}

// Processor splits document content into section-aligned chunks.
// It implements the PostProcessor interface.
type Processor struct {
	minChars int
	maxChars int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMinChars sets the merge threshold in bytes.
func WithMinChars(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.minChars = n
		}
	}
}

// WithMaxChars sets the chunk size cap in bytes.
func WithMaxChars(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxChars = n
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		minChars: DefaultMinChars,
		maxChars: DefaultMaxChars,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.minChars > p.maxChars {
		p.minChars = p.maxChars / 2
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document into sections and each section into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc.Content == "" {
		return nil, nil
	}

	var chunks []domain.Chunk
	for _, section := range ExtractSections(doc.Content) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, c := range p.ChunkSection(section.Content) {
			c.SourcePath = doc.Path
			c.SectionTitle = section.Title
			c.Position = len(chunks)
			chunks = append(chunks, c)
		}
	}

	return chunks, nil
}

// ExtractSections splits text at markdown headings. A heading line starts a
// new section and stays part of its content. Text before the first heading
// belongs to an "Untitled" section. Blank sections are dropped.
func ExtractSections(text string) []Section {
	var sections []Section
	title := UntitledSection
	var buf []string

	flush := func() {
		if len(buf) == 0 {
			return
		}
		if content := strings.TrimSpace(strings.Join(buf, "\n")); content != "" {
			sections = append(sections, Section{Title: title, Content: content})
		}
		buf = buf[:0]
	}

	for _, line := range lineBreak.Split(text, -1) {
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			flush()
			title = strings.TrimSpace(m[1])
		}
		buf = append(buf, line)
	}
	flush()

	return sections
}

// ChunkSection greedily packs blank-line-separated paragraphs into chunks of
// at most maxChars bytes. Paragraphs longer than maxChars are hard-split.
// When either a flushed chunk or the chunk before it is shorter than
// minChars, the two are joined in place as long as the result still fits
// in maxChars. Hard-split slices are valid merge targets.
func (p *Processor) ChunkSection(text string) []domain.Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var out []string
	acc := ""

	push := func() {
		c := strings.TrimSpace(acc)
		acc = ""
		if c == "" {
			return
		}
		if n := len(out); n > 0 {
			prev := out[n-1]
			small := len(c) < p.minChars || len(prev) < p.minChars
			if small && len(prev)+len(paragraphSep)+len(c) <= p.maxChars {
				out[n-1] = prev + paragraphSep + c
				return
			}
		}
		out = append(out, c)
	}

	for _, raw := range paragraphPattern.Split(text, -1) {
		para := strings.TrimSpace(raw)
		if para == "" {
			continue
		}
		if acc == "" && len(para) <= p.maxChars {
			acc = para
			continue
		}
		if acc != "" && len(acc)+len(paragraphSep)+len(para) <= p.maxChars {
			acc += paragraphSep + para
			continue
		}
		push()
		if len(para) <= p.maxChars {
			acc = para
			continue
		}
		// Slices go straight to out; the last one can still absorb a
		// small chunk that follows it.
		out = append(out, p.hardSplit(para)...)
	}
	push()

	chunks := make([]domain.Chunk, len(out))
	for i, c := range out {
		chunks[i] = domain.Chunk{Content: c, Fingerprint: Fingerprint(c)}
	}
	return chunks
}

// hardSplit cuts s into maxChars-byte slices without splitting a UTF-8 sequence.
func (p *Processor) hardSplit(s string) []string {
	var slices []string
	for len(s) > 0 {
		end := p.maxChars
		if end >= len(s) {
			slices = append(slices, s)
			break
		}
		for end > 1 && !utf8.RuneStart(s[end]) {
			end--
		}
		slices = append(slices, s[:end])
		s = s[end:]
	}
	return slices
}

// Fingerprint returns the lowercase hex SHA-256 digest of text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
