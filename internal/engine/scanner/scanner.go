// Package scanner extracts import/export specifier occurrences from
// JavaScript and TypeScript source text.
package scanner

import (
	"strings"
	"unicode"
)

type Kind string

const (
	KindImport     Kind = "import"
	KindSideEffect Kind = "side_effect"
	KindExport     Kind = "export"
)

// Occurrence is one matched statement together with the specifier it names.
// SpecStart and SpecEnd are byte offsets of the specifier inside Statement,
// excluding the quotes.
type Occurrence struct {
	Statement string
	Specifier string
	SpecStart int
	SpecEnd   int
	Offset    int
	Line      int
	Kind      Kind
	TypeOnly  bool
}

// WithSpecifier returns a copy of the occurrence whose statement names spec
// instead of the original specifier.
func (o Occurrence) WithSpecifier(spec string) Occurrence {
	next := o
	next.Statement = o.Statement[:o.SpecStart] + spec + o.Statement[o.SpecEnd:]
	next.Specifier = spec
	next.SpecEnd = o.SpecStart + len(spec)
	return next
}

// Scanner finds specifier occurrences in a source file. Implementations
// return occurrences in source order and never touch the filesystem.
type Scanner interface {
	Scan(path string, src []byte) ([]Occurrence, error)
}

// isTypeOnlyClause reports whether the text between the import/export
// keyword and `from` marks a type-only statement. A default import named
// `type` (import type from './x') is not type-only.
func isTypeOnlyClause(clause string) bool {
	clause = strings.TrimSpace(clause)
	rest, ok := strings.CutPrefix(clause, "type")
	if !ok || rest == "" {
		return false
	}
	r := rune(rest[0])
	return unicode.IsSpace(r) || r == '{' || r == '*'
}

func lineAt(src []byte, offset int) int {
	line := 1
	for i := 0; i < offset && i < len(src); i++ {
		if src[i] == '\n' {
			line++
		}
	}
	return line
}
