// Package docmeta extracts structured function documentation from
// retrieved documentation passages.
//
// Documentation pages follow a loose convention: optional YAML front matter
// with a description, a call line such as "$sum[a;b]", and "Syntax",
// "Description", "Parameters" and "Example(s)" sections. Extraction is
// best effort; any field may stay empty.
package docmeta

import (
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-yaml"

	"github.com/custodia-labs/grimoire/internal/core/domain"
)

// MaxExamples bounds the examples kept per function.
const MaxExamples = 3

// MaxDescription bounds the description length in bytes.
const MaxDescription = 600

var (
	frontMatterRe   = regexp.MustCompile(`^\s*---\n([\s\S]*?)\n---`)
	fmDescriptionRe = regexp.MustCompile(`(?im)^description:\s*(.+)$`)
	anyHeadingRe    = regexp.MustCompile(`^\s{0,3}#{1,6}\s+`)
	syntaxHeadingRe = regexp.MustCompile(`(?im)^\s{0,3}#{1,6}\s+Syntax`)
	descHeadingRe   = regexp.MustCompile(`(?i)^\s{0,3}#{1,6}\s+Description`)
	paramHeadingRe  = regexp.MustCompile(`(?i)^\s{0,3}#{1,6}\s+Parameters`)
	exampleHeadRe   = regexp.MustCompile(`(?i)^\s{0,3}#{1,6}\s+Examples?\b`)
	exampleTitleRe  = regexp.MustCompile(`(?i)\bExamples?\b`)
	fencedRe        = regexp.MustCompile("(?s)```[a-z]*\n(.*?)```")
	anyCallRe       = regexp.MustCompile(`\$[a-zA-Z]\w*\s*\[`)
	bracketRe       = regexp.MustCompile(`(?s)\[(.*)\]`)
	paramSplitRe    = regexp.MustCompile(`\s*;\s*`)
	placeholderRe   = regexp.MustCompile(`<|>|\{\}|\[\]`)
	listParamRe     = regexp.MustCompile(`^[*-]\s*(\w[\w-]*)\s*[:|-]\s*(.+)$`)
	tableRuleRe     = regexp.MustCompile(`^:?-{3,}:?$`)
	tableHeaderRe   = regexp.MustCompile(`(?i)field|name|param`)
	requiredRe      = regexp.MustCompile(`(?i)true|yes|required`)
	lineBreakTagRe  = regexp.MustCompile(`(?i)<br\s*/?>`)
)

// NormalizeName trims a function name, drops a leading sigil and lowercases it.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "$"))
}

// RelativePath shortens an absolute documentation path for display.
// Paths under a "/website/" directory are made relative to it, paths under
// "/src/content/docs/" keep that prefix, other absolute paths are reduced
// to their base name. Relative paths are returned unchanged.
func RelativePath(p string) string {
	if p == "" {
		return ""
	}
	if i := strings.Index(p, "/website/"); i >= 0 {
		return p[i+len("/website/"):]
	}
	if i := strings.Index(p, "/src/content/docs/"); i >= 0 {
		return p[i+1:]
	}
	if strings.HasPrefix(p, "/") {
		return path.Base(p)
	}
	return p
}

// Extract builds a documentation card for the function name from passages,
// in retrieval order. Confidence is left to the caller.
func Extract(name string, passages []domain.Passage) *domain.FunctionDoc {
	name = NormalizeName(name)
	doc := &domain.FunctionDoc{Function: name}

	directRe := regexp.MustCompile(`(?i)\$` + regexp.QuoteMeta(name) + `\s*\[[^\n\r]+`)
	sigilName := "$" + name

	seen := make(map[string]bool)
	for _, p := range passages {
		content := p.Content
		if rel := RelativePath(p.SourcePath); rel != "" && !seen[rel] {
			seen[rel] = true
			doc.Sources = append(doc.Sources, rel)
		}

		if doc.Description == "" {
			doc.Description = frontMatterDescription(content)
		}

		if doc.Syntax == "" {
			if m := directRe.FindString(content); m != "" {
				doc.Syntax = strings.TrimSpace(m)
			} else if syntaxHeadingRe.MatchString(content) {
				for _, line := range strings.Split(content, "\n") {
					if hasPrefixFold(strings.TrimSpace(line), sigilName) {
						doc.Syntax = strings.TrimSpace(line)
						break
					}
				}
			}
		}

		lines := strings.Split(content, "\n")
		if doc.Description == "" {
			doc.Description = sectionText(lines, descHeadingRe)
		}

		if doc.Parameters == nil {
			doc.Parameters = parameterSection(lines)
		}
		if doc.Parameters == nil && doc.Syntax != "" {
			doc.Parameters = syntaxParameters(doc.Syntax)
		}

		if doc.Description == "" {
			doc.Description = callLineDescription(lines, sigilName)
		}

		if exampleTitleRe.MatchString(p.Title()) {
			doc.Examples = appendExamples(doc.Examples, content)
		}
	}

	if !doc.HasParamDescriptions() {
		if params := parameterSection(strings.Split(joined(passages), "\n")); params != nil {
			doc.Parameters = params
		}
	}

	if len(doc.Examples) == 0 {
		doc.Examples = exampleSections(joined(passages))
	}

	return doc
}

func joined(passages []domain.Passage) string {
	parts := make([]string, len(passages))
	for i, p := range passages {
		parts[i] = p.Content
	}
	return strings.Join(parts, "\n\n")
}

// frontMatterDescription reads the description field of a leading YAML block.
// Blocks that are not valid YAML fall back to a line match.
func frontMatterDescription(content string) string {
	m := frontMatterRe.FindStringSubmatch(content)
	if m == nil {
		return ""
	}

	var fm struct {
		Description string `yaml:"description"`
	}
	if err := yaml.Unmarshal([]byte(m[1]), &fm); err == nil {
		return truncate(strings.TrimSpace(fm.Description), MaxDescription)
	}

	d := fmDescriptionRe.FindStringSubmatch(m[1])
	if d == nil {
		return ""
	}
	val := strings.TrimSpace(d[1])
	val = strings.Trim(val, `"'`)
	return truncate(strings.TrimSpace(val), MaxDescription)
}

// sectionText joins the non-blank lines between the first heading matching
// re and the next heading.
func sectionText(lines []string, re *regexp.Regexp) string {
	start := -1
	for i, line := range lines {
		if re.MatchString(line) {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}

	var parts []string
	for _, line := range lines[start+1:] {
		if anyHeadingRe.MatchString(line) {
			break
		}
		if t := strings.TrimSpace(line); t != "" {
			parts = append(parts, t)
		}
	}
	return truncate(strings.Join(parts, " "), MaxDescription)
}

// callLineDescription uses the first line mentioning the function. A line
// that is itself a call is skipped in favour of the paragraph below it.
func callLineDescription(lines []string, sigilName string) string {
	idx := -1
	for i, line := range lines {
		if containsFold(line, sigilName) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ""
	}

	line := strings.TrimSpace(strings.ReplaceAll(lines[idx], "`", ""))
	if line != "" && !anyCallRe.MatchString(line) {
		return truncate(line, MaxDescription)
	}

	var parts []string
	for _, l := range lines[idx+1:] {
		if anyHeadingRe.MatchString(l) || strings.TrimSpace(l) == "" {
			break
		}
		parts = append(parts, strings.TrimSpace(l))
	}
	return truncate(strings.Join(parts, " "), MaxDescription)
}

// columns maps table roles to cell indexes. A negative index means absent.
type columns struct {
	name, typ, description, required int
}

var defaultColumns = columns{name: 0, typ: 1, description: 2, required: 3}

// parameterSection parses the first "Parameters" section as a markdown
// table or a bullet list. Returns nil when nothing was found.
func parameterSection(lines []string) []domain.FunctionParam {
	start := -1
	for i, line := range lines {
		if paramHeadingRe.MatchString(line) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	var params []domain.FunctionParam
	cols := defaultColumns
	headerParsed := false

	for _, line := range lines[start+1:] {
		if anyHeadingRe.MatchString(line) {
			break
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "|") {
			cells := tableCells(trimmed)
			if len(cells) == 0 || tableRuleRe.MatchString(cells[0]) {
				continue
			}
			if !headerParsed && anyMatch(cells, tableHeaderRe) {
				cols = headerColumns(cells)
				headerParsed = true
				continue
			}

			name := cleanCell(cellAt(cells, cols.name))
			if name == "" {
				continue
			}
			params = append(params, domain.FunctionParam{
				Name:        name,
				Type:        cleanCell(cellAt(cells, cols.typ)),
				Description: cleanCell(lineBreakTagRe.ReplaceAllString(cellAt(cells, cols.description), " ")),
				Required:    requiredRe.MatchString(cellAt(cells, cols.required)),
			})
			continue
		}

		if m := listParamRe.FindStringSubmatch(trimmed); m != nil {
			params = append(params, domain.FunctionParam{
				Name:        m[1],
				Description: strings.TrimSpace(m[2]),
			})
		}
	}
	return params
}

func tableCells(row string) []string {
	parts := strings.Split(row, "|")
	if len(parts) < 2 {
		return nil
	}
	// Drop the text before the first and after the last pipe.
	parts = parts[1 : len(parts)-1]
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

func headerColumns(cells []string) columns {
	cols := columns{name: -1, typ: -1, description: -1, required: -1}
	for i, c := range cells {
		lc := strings.ToLower(c)
		switch {
		case strings.Contains(lc, "field"), strings.Contains(lc, "name"), strings.Contains(lc, "param"):
			if cols.name < 0 {
				cols.name = i
			}
		case strings.Contains(lc, "type"):
			cols.typ = i
		case strings.Contains(lc, "description"):
			cols.description = i
		case strings.Contains(lc, "required"):
			cols.required = i
		}
	}
	return cols
}

func cellAt(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

func cleanCell(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "`", ""))
}

func anyMatch(cells []string, re *regexp.Regexp) bool {
	for _, c := range cells {
		if re.MatchString(c) {
			return true
		}
	}
	return false
}

// syntaxParameters derives parameter names from the bracketed part of a
// call form, e.g. "$sum[<a>;<b>]" gives "a" and "b".
func syntaxParameters(syntax string) []domain.FunctionParam {
	m := bracketRe.FindStringSubmatch(syntax)
	if m == nil {
		return nil
	}

	var params []domain.FunctionParam
	for _, part := range paramSplitRe.Split(m[1], -1) {
		if part == "" {
			continue
		}
		name := strings.TrimSpace(placeholderRe.ReplaceAllString(part, ""))
		if name == "" {
			name = "param" + strconv.Itoa(len(params)+1)
		}
		params = append(params, domain.FunctionParam{Name: name})
	}
	return params
}

func appendExamples(examples []string, content string) []string {
	for _, m := range fencedRe.FindAllStringSubmatch(content, -1) {
		if len(examples) >= MaxExamples {
			break
		}
		examples = append(examples, strings.TrimSpace(m[1]))
	}
	return examples
}

// exampleSections collects fenced blocks from the first "Example(s)"
// section that has any.
func exampleSections(content string) []string {
	var sections []string
	var current strings.Builder
	for i, line := range strings.Split(content, "\n") {
		if i > 0 && anyHeadingRe.MatchString(line) {
			sections = append(sections, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	sections = append(sections, current.String())

	var examples []string
	for _, sec := range sections {
		head, _, _ := strings.Cut(sec, "\n")
		if !exampleHeadRe.MatchString(head) {
			continue
		}
		examples = appendExamples(examples, sec)
		if len(examples) > 0 {
			break
		}
	}
	return dedupe(examples)
}

func dedupe(items []string) []string {
	if len(items) == 0 {
		return items
	}
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, s := range items {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// truncate bounds s to n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
