// Package dsl inspects snippets of the bot scripting language without running
// them. It parses $name[arg;arg] calls, checks flow-keyword nesting, guard
// clauses, conditions and structural rules, and can append missing $endif
// lines.
//
// Everything here is pure: no I/O, no shared state. Documentation coverage
// needs retrieval and lives in the validation service.
package dsl

import "strings"

// Dialect describes the surface syntax and the names the checks care about.
// Names are stored without the sigil and compared case-insensitively.
type Dialect struct {
	Sigil     byte
	Open      byte
	Close     byte
	Separator byte

	If     string
	ElseIf string
	Else   string
	EndIf  string

	// Bracketless lists calls that may appear without an argument list.
	Bracketless []string

	// Guard aborts execution with a message when its condition fails.
	Guard string

	// ListAll returns every entity matching a filter.
	ListAll string

	Mutations       []string
	Loops           []string
	GlobalAccessors []string
}

// Default returns the dialect used by the bot scripting language.
func Default() Dialect {
	return Dialect{
		Sigil:           '$',
		Open:            '[',
		Close:           ']',
		Separator:       ';',
		If:              "if",
		ElseIf:          "elseif",
		Else:            "else",
		EndIf:           "endif",
		Bracketless:     []string{"else", "endif"},
		Guard:           "onlyIf",
		ListAll:         "usersWithRole",
		Mutations:       []string{"setUserVar", "setServerVar", "setVar"},
		Loops:           []string{"for"},
		GlobalAccessors: []string{"getVar", "setVar"},
	}
}

// Display renders a name with the sigil, e.g. "$onlyIf".
func (d Dialect) Display(name string) string {
	return string(d.Sigil) + name
}

// IsFlow reports whether name is one of the four flow keywords.
func (d Dialect) IsFlow(name string) bool {
	return strings.EqualFold(name, d.If) ||
		strings.EqualFold(name, d.ElseIf) ||
		strings.EqualFold(name, d.Else) ||
		strings.EqualFold(name, d.EndIf)
}

// IsBracketless reports whether name may be written without brackets.
func (d Dialect) IsBracketless(name string) bool {
	return containsFold(d.Bracketless, name)
}

func (d Dialect) isIdent(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

func containsFold(list []string, name string) bool {
	for _, item := range list {
		if strings.EqualFold(item, name) {
			return true
		}
	}
	return false
}
