package scanner

import (
	"regexp"
	"sort"
)

var (
	// import/export ... from '<spec>'. The clause holds identifiers, commas,
	// `*` and at most one brace group, which is the only place it may span
	// lines.
	fromPattern = regexp.MustCompile(`(?m)^[ \t]*(import|export)\b([\w$ \t,*]*(?:\{[^{};'"]*\}[ \t]*)?)\bfrom[ \t]*(?:'([^'\n]*)'|"([^"\n]*)")`)
	// import '<spec>' for side-effect imports.
	bareImportPattern = regexp.MustCompile(`(?m)^[ \t]*import[ \t]*(?:'([^'\n]*)'|"([^"\n]*)")`)
)

// PatternScanner matches statements textually. It is the default scanner:
// fast, dependency free and tolerant of syntax it does not understand.
type PatternScanner struct{}

func NewPatternScanner() *PatternScanner {
	return &PatternScanner{}
}

func (s *PatternScanner) Scan(path string, src []byte) ([]Occurrence, error) {
	text := string(src)
	seen := make(map[int]bool)
	var out []Occurrence

	for _, m := range fromPattern.FindAllStringSubmatchIndex(text, -1) {
		specStart, specEnd := m[6], m[7]
		if specStart < 0 {
			specStart, specEnd = m[8], m[9]
		}
		kind := KindImport
		if text[m[2]:m[3]] == "export" {
			kind = KindExport
		}
		out = append(out, newOccurrence(src, m[0], m[1], specStart, specEnd, kind, isTypeOnlyClause(text[m[4]:m[5]])))
		seen[m[0]] = true
	}

	for _, m := range bareImportPattern.FindAllStringSubmatchIndex(text, -1) {
		if seen[m[0]] {
			continue
		}
		specStart, specEnd := m[2], m[3]
		if specStart < 0 {
			specStart, specEnd = m[4], m[5]
		}
		out = append(out, newOccurrence(src, m[0], m[1], specStart, specEnd, KindSideEffect, false))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out, nil
}

func newOccurrence(src []byte, start, end, specStart, specEnd int, kind Kind, typeOnly bool) Occurrence {
	return Occurrence{
		Statement: string(src[start:end]),
		Specifier: string(src[specStart:specEnd]),
		SpecStart: specStart - start,
		SpecEnd:   specEnd - start,
		Offset:    start,
		Line:      lineAt(src, start),
		Kind:      kind,
		TypeOnly:  typeOnly,
	}
}
