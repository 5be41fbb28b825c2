package dsl

import (
	"regexp"
	"strings"
)

var (
	fenceRe      = regexp.MustCompile("(?is)```(?:aoi|javascript|js)?\\s*(.*?)```")
	correctiveRe = regexp.MustCompile(`(?i)fix|correct|repair|resolve|update|rewrite|refactor`)
)

// Normalize strips code fences, keeping the fenced text, and trims.
func Normalize(snippet string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(strings.TrimSpace(snippet), "${1}"))
}

// IsCorrective reports whether intent asks for a change rather than a diagnosis.
func IsCorrective(intent string) bool {
	return correctiveRe.MatchString(intent)
}

// RepairUnclosedIfs appends one $endif line per unclosed $if. It reports false
// and leaves snippet untouched when closes already match or outnumber opens,
// or when an argument list is still open, since the appended line would land
// inside it.
func (d Dialect) RepairUnclosedIfs(snippet string) (string, bool) {
	calls := d.Parse(snippet)
	for _, call := range calls {
		if call.Unclosed {
			return snippet, false
		}
	}
	flow := d.CheckFlow(calls)
	missing := flow.Ifs - flow.EndIfs
	if missing <= 0 {
		return snippet, false
	}

	var b strings.Builder
	b.WriteString(snippet)
	if !strings.HasSuffix(snippet, "\n") {
		b.WriteByte('\n')
	}
	endif := d.Display(d.EndIf)
	for i := 0; i < missing; i++ {
		b.WriteString(endif)
		b.WriteByte('\n')
	}
	return b.String(), true
}
