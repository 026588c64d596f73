// # internal/engine/parser/loader.go
package parser

import (
	"sort"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

const (
	LangPython = "python"
	LangRust   = "rust"
)

// GrammarLoader owns the compiled-in grammars, one per analyzed language.
type GrammarLoader struct {
	languages map[string]*sitter.Language
}

func NewGrammarLoader() *GrammarLoader {
	return &GrammarLoader{
		languages: map[string]*sitter.Language{
			LangPython: sitter.NewLanguage(tree_sitter_python.Language()),
			LangRust:   sitter.NewLanguage(tree_sitter_rust.Language()),
		},
	}
}

func (gl *GrammarLoader) Language(id string) (*sitter.Language, bool) {
	lang, ok := gl.languages[id]
	return lang, ok
}

func (gl *GrammarLoader) Languages() []string {
	out := make([]string, 0, len(gl.languages))
	for id := range gl.languages {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
