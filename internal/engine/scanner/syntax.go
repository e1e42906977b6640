package scanner

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

const (
	grammarJavaScript = "javascript"
	grammarTypeScript = "typescript"
	grammarTSX        = "tsx"
)

// SyntaxScanner locates statements with tree-sitter instead of patterns.
// It understands statements the pattern scanner cannot (comments inside the
// clause, several statements on one line) and ignores commented-out code.
type SyntaxScanner struct {
	pools map[string]*parserPool
}

func NewSyntaxScanner() *SyntaxScanner {
	return &SyntaxScanner{
		pools: map[string]*parserPool{
			grammarJavaScript: newParserPool(sitter.NewLanguage(tree_sitter_javascript.Language())),
			grammarTypeScript: newParserPool(sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())),
			grammarTSX:        newParserPool(sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())),
		},
	}
}

func grammarForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return grammarTypeScript
	case ".tsx":
		return grammarTSX
	default:
		return grammarJavaScript
	}
}

func (s *SyntaxScanner) Scan(path string, src []byte) ([]Occurrence, error) {
	pool := s.pools[grammarForPath(path)]
	sp := pool.get()
	defer pool.put(sp)

	tree := sp.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse %s: no syntax tree produced", path)
	}
	defer tree.Close()

	root := tree.RootNode()
	var out []Occurrence
	for i := uint(0); i < root.ChildCount(); i++ {
		node := root.Child(i)
		if node == nil {
			continue
		}
		var keyword string
		switch node.Kind() {
		case "import_statement":
			keyword = "import"
		case "export_statement":
			keyword = "export"
		default:
			continue
		}
		source := node.ChildByFieldName("source")
		if source == nil || source.EndByte()-source.StartByte() < 2 {
			continue
		}
		out = append(out, occurrenceFromNode(src, node, source, keyword))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out, nil
}

func occurrenceFromNode(src []byte, node, source *sitter.Node, keyword string) Occurrence {
	start := int(node.StartByte())
	end := int(source.EndByte())
	specStart := int(source.StartByte()) + 1
	specEnd := end - 1

	clause := strings.TrimSpace(string(src[start+len(keyword) : int(source.StartByte())]))
	kind := KindImport
	switch {
	case keyword == "export":
		kind = KindExport
	case clause == "":
		kind = KindSideEffect
	}
	clause = strings.TrimSuffix(clause, "from")

	return Occurrence{
		Statement: string(src[start:end]),
		Specifier: string(src[specStart:specEnd]),
		SpecStart: specStart - start,
		SpecEnd:   specEnd - start,
		Offset:    start,
		Line:      int(node.StartPosition().Row) + 1,
		Kind:      kind,
		TypeOnly:  isTypeOnlyClause(clause),
	}
}
