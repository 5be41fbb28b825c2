package dsl

import "strings"

// Call is one $name occurrence in a snippet.
type Call struct {
	// Name is the identifier without the sigil, as written.
	Name string

	// Args holds the argument strings split at top-level separators.
	// Nil when Malformed.
	Args []string

	// Malformed is set when the name is not followed by an opening bracket.
	Malformed bool

	// Unclosed is set when the argument list runs to end of input.
	Unclosed bool

	// Offset is the byte offset of the sigil in the parsed text.
	Offset int

	// Depth is 0 for calls written at the top level and grows by one for
	// each enclosing argument list.
	Depth int
}

// Arg returns the i-th argument or "" when absent.
func (c Call) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

// Is reports whether the call has the given name, ignoring case.
func (c Call) Is(name string) bool {
	return strings.EqualFold(c.Name, name)
}

// Calls is the ordered result of Parse. Order follows the sigil offsets.
type Calls []Call

// Parse scans snippet and returns every call, including calls nested inside
// other calls' arguments. A sigil with no identifier after it is ignored.
func (d Dialect) Parse(snippet string) Calls {
	var out Calls
	d.parse(snippet, 0, 0, &out)
	return out
}

func (d Dialect) parse(s string, base, depth int, out *Calls) {
	for i := 0; i < len(s); i++ {
		if s[i] != d.Sigil {
			continue
		}
		j := i + 1
		for j < len(s) && d.isIdent(s[j]) {
			j++
		}
		if j == i+1 {
			continue
		}
		name := s[i+1 : j]

		if j >= len(s) || s[j] != d.Open {
			*out = append(*out, Call{Name: name, Malformed: true, Offset: base + i, Depth: depth})
			i = j - 1
			continue
		}

		k := j + 1
		level := 1
		for k < len(s) && level > 0 {
			switch s[k] {
			case d.Open:
				level++
			case d.Close:
				level--
			}
			k++
		}

		innerEnd := k - 1
		if level > 0 {
			innerEnd = k
		}
		inner := s[j+1 : innerEnd]

		*out = append(*out, Call{
			Name:     name,
			Args:     d.splitArgs(inner),
			Unclosed: level > 0,
			Offset:   base + i,
			Depth:    depth,
		})
		d.parse(inner, base+j+1, depth+1, out)
		i = k - 1
	}
}

// splitArgs splits on the separator only where bracket depth is zero.
func (d Dialect) splitArgs(inner string) []string {
	var args []string
	var buf strings.Builder
	level := 0
	for i := 0; i < len(inner); i++ {
		ch := inner[i]
		switch ch {
		case d.Open:
			level++
		case d.Close:
			if level > 0 {
				level--
			}
		}
		if ch == d.Separator && level == 0 {
			args = append(args, buf.String())
			buf.Reset()
			continue
		}
		buf.WriteByte(ch)
	}
	return append(args, buf.String())
}

// ByName groups calls by lowercase name.
func (c Calls) ByName() map[string][]Call {
	groups := make(map[string][]Call)
	for _, call := range c {
		key := strings.ToLower(call.Name)
		groups[key] = append(groups[key], call)
	}
	return groups
}

// Names returns the distinct names in first-appearance order, keeping the
// spelling of the first occurrence.
func (c Calls) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, call := range c {
		key := strings.ToLower(call.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, call.Name)
	}
	return names
}

// Has reports whether any call has the given name.
func (c Calls) Has(name string) bool {
	for _, call := range c {
		if call.Is(name) {
			return true
		}
	}
	return false
}

// Functions returns the distinct non-flow names, the set that needs
// documentation.
func (d Dialect) Functions(calls Calls) []string {
	var names []string
	for _, name := range calls.Names() {
		if !d.IsFlow(name) {
			names = append(names, name)
		}
	}
	return names
}
