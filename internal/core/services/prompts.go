package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
	"github.com/custodia-labs/grimoire/internal/docmeta"
	"github.com/custodia-labs/grimoire/internal/logger"
)

// NotDocumented is the reply given when retrieval finds nothing relevant enough.
const NotDocumented = "This is not documented in the official documentation."

// fallbackPrompts are used when no prompt store is set or it fails.
var fallbackPrompts = map[string]string{
	driven.PromptAnswerSystem: "Answer using ONLY the documentation context below. " +
		"If the answer is not in the context, reply exactly: \"" + NotDocumented + "\"\n\nContext:\n%s",
	driven.PromptCodeSystem: "Write code using ONLY functions from the documentation context below. " +
		"Output a single fenced code block.\n\nContext:\n%s",
	driven.PromptValidateExplain: "Using ONLY this documentation context:\n%s\n\nCode:\n%s\n\nFindings:\n%s\n\n" +
		"Intent:\n%s\n\nExplain each finding. If a fix is requested, end with the corrected code in one fenced block.",
}

var firstCodeBlock = regexp.MustCompile("```[a-zA-Z]*\n?([\\s\\S]*?)```")

// promptLoader resolves prompt templates from an optional store.
type promptLoader struct {
	store driven.PromptStore
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (l *promptLoader) SetPromptStore(store driven.PromptStore) {
	l.store = store
}

func (l *promptLoader) load(name string) string {
	if l.store != nil {
		tmpl, err := l.store.Load(name)
		if err == nil && tmpl != "" {
			return tmpl
		}
		if err != nil {
			logger.Warn("Prompt %s unavailable, using built-in: %v", name, err)
		}
	}
	return fallbackPrompts[name]
}

// render fills a template's %s placeholders in order. Templates with
// fewer placeholders than args get the remainder appended.
func render(tmpl string, args ...string) string {
	n := strings.Count(tmpl, "%s")
	if n > len(args) {
		n = len(args)
	}
	vals := make([]any, n)
	for i := 0; i < n; i++ {
		vals[i] = args[i]
	}
	out := fmt.Sprintf(tmpl, vals...)
	for _, extra := range args[n:] {
		out += "\n\n" + extra
	}
	return out
}

// contextBlock formats passages as numbered sources, bounded to maxChars bytes.
func contextBlock(passages []domain.ScoredPassage, maxChars int) string {
	parts := make([]string, 0, len(passages))
	for i, sp := range passages {
		header := fmt.Sprintf("Source %d (%s", i+1, docmeta.RelativePath(sp.Passage.SourcePath))
		if title := SafeMeta(sp.Passage.Title()); title != "" {
			header += " - " + title
		}
		parts = append(parts, header+"):\n"+sp.Passage.Content)
	}
	return truncateBytes(strings.Join(parts, "\n\n"), maxChars)
}

// sourcesOf returns the distinct display paths of passages.
func sourcesOf(passages []domain.ScoredPassage) []string {
	seen := make(map[string]bool, len(passages))
	var sources []string
	for _, sp := range passages {
		rel := docmeta.RelativePath(sp.Passage.SourcePath)
		if rel == "" || seen[rel] {
			continue
		}
		seen[rel] = true
		sources = append(sources, rel)
	}
	return sources
}

// extractCode returns the first fenced block, fence included, or "".
func extractCode(text string) string {
	return firstCodeBlock.FindString(text)
}
