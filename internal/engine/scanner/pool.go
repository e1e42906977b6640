package scanner

import (
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// parserPool recycles tree-sitter parsers for one grammar.
// Safe for use by multiple goroutines.
type parserPool struct {
	lang *sitter.Language
	pool sync.Pool
}

func newParserPool(lang *sitter.Language) *parserPool {
	p := &parserPool{lang: lang}
	p.pool = sync.Pool{
		New: func() any {
			sp := sitter.NewParser()
			_ = sp.SetLanguage(lang)
			return sp
		},
	}
	return p
}

func (p *parserPool) get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	// Reset clears the language on some paths; set it again.
	_ = sp.SetLanguage(p.lang)
	return sp
}

// put resets sp so no previous tree is retained. Callers must not use sp
// afterwards.
func (p *parserPool) put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	sp.Reset()
	p.pool.Put(sp)
}
