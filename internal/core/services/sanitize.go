package services

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxQuestionBytes bounds a sanitised question or intent.
const MaxQuestionBytes = 4000

// MaxMetaBytes bounds a sanitised metadata string such as a section title.
const MaxMetaBytes = 500

var (
	controlChars   = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
	fencedBlock    = regexp.MustCompile("(?s)```.*?```")
	activeTags     = regexp.MustCompile(`(?i)</?(script|style|iframe)[^>]*>`)
	injectionTerms = []*regexp.Regexp{
		regexp.MustCompile(`(?i)ignore (all|previous) instructions`),
		regexp.MustCompile(`(?i)system prompt`),
		regexp.MustCompile(`(?i)you are (now )?`),
		regexp.MustCompile(`(?i)pretend to`),
		regexp.MustCompile(`(?i)act as`),
	}
	metaBreaks = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ")
)

// SanitizeQuestion prepares free text for retrieval and prompting. Control
// characters and whitespace runs become single spaces; code fences, active
// HTML tags and common prompt-injection phrases are removed.
func SanitizeQuestion(input string) string {
	s := strings.TrimSpace(input)
	s = controlChars.ReplaceAllString(s, " ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = fencedBlock.ReplaceAllString(s, "")
	s = activeTags.ReplaceAllString(s, "")
	for _, re := range injectionTerms {
		s = re.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(truncateBytes(s, MaxQuestionBytes))
}

// SafeMeta flattens a metadata string to a single bounded line.
func SafeMeta(s string) string {
	return truncateBytes(metaBreaks.Replace(s), MaxMetaBytes)
}

// truncateBytes bounds s to n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
