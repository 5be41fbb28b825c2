// Package markdown normalises .md and .mdx documentation files.
package markdown

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var (
	htmlComment   = regexp.MustCompile(`(?s)<!--.*?-->`)
	mdxStatement  = regexp.MustCompile(`^(import|export)\s+.*(\sfrom\s|;\s*$|=)`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
	firstHeading  = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+(.+?)\s*$`)
)

// Normaliser handles Markdown and MDX documents. Headings, code fences and
// front matter are preserved because chunking and function metadata
// extraction depend on them.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown", "text/mdx"}
}

// MIMEType returns the MIME type for a file name, or "" when unsupported.
func MIMEType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return "text/markdown"
	case ".mdx":
		return "text/mdx"
	default:
		return ""
	}
}

// Normalise converts a markdown file into a document ready for chunking.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := string(raw.Content)
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")

	meta, err := frontMatter(content)
	if err != nil {
		return nil, fmt.Errorf("front matter in %s: %w", raw.Path, err)
	}

	content = htmlComment.ReplaceAllString(content, "")
	if raw.MIMEType == "text/mdx" || strings.HasSuffix(strings.ToLower(raw.Path), ".mdx") {
		content = stripMDXStatements(content)
	}
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	content = strings.TrimSpace(content)

	if meta == nil {
		meta = make(map[string]any)
	}
	meta["mime_type"] = raw.MIMEType
	meta["format"] = "markdown"

	return &domain.Document{
		Path:     raw.Path,
		Title:    extractTitle(content, meta, raw.Path),
		Content:  content,
		Metadata: meta,
	}, nil
}

// frontMatter parses a leading YAML block delimited by "---" lines.
// Returns nil when the document has none.
func frontMatter(content string) (map[string]any, error) {
	if !strings.HasPrefix(content, "---\n") {
		return nil, nil
	}
	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil, nil
	}

	meta := make(map[string]any)
	if err := yaml.Unmarshal([]byte(rest[:end]), &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// stripMDXStatements drops top-level import/export lines outside code fences.
func stripMDXStatements(content string) string {
	lines := strings.Split(content, "\n")
	out := lines[:0]
	inFence := false
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}
		if !inFence && mdxStatement.MatchString(line) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// extractTitle prefers a front matter title, then the first heading,
// then the file name.
func extractTitle(content string, meta map[string]any, p string) string {
	if title, ok := meta["title"].(string); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	if m := firstHeading.FindStringSubmatch(content); m != nil {
		return m[1]
	}

	name := path.Base(p)
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}
