// # internal/engine/parser/parser.go
package parser

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	"apiscribe/internal/core/diagnostics"
	"apiscribe/internal/core/errors"
	"apiscribe/internal/engine/model"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Parsed is the extraction result for one module.
type Parsed struct {
	QualifiedName string
	Doc           model.Docstring
	Symbols       []*model.Symbol
	Imports       []model.Import
	All           []string
	// TypeVars are the module-level TypeVar, ParamSpec and TypeVarTuple
	// declarations, by name.
	TypeVars    []model.TypeParam
	Arena       *model.TypeArena
	Diagnostics []diagnostics.Diagnostic
}

// Parser turns module text into symbols. It is safe for concurrent use; each
// call leases its own tree-sitter parser from a per-language pool.
type Parser struct {
	loader *GrammarLoader
	pools  map[string]*ParserPool
	python *PythonExtractor
	rust   *RustExtractor
}

func NewParser(loader *GrammarLoader) *Parser {
	p := &Parser{
		loader: loader,
		pools:  make(map[string]*ParserPool),
		python: &PythonExtractor{},
		rust:   &RustExtractor{},
	}
	for _, id := range loader.Languages() {
		lang, _ := loader.Language(id)
		p.pools[id] = NewParserPool(lang)
	}
	return p
}

// ParseModule extracts a Python source or stub module. A module that cannot
// be decomposed at all returns a PARSE_ERROR; declarations that are only
// partly understood come back degraded.
func (p *Parser) ParseModule(ctx context.Context, path, qualifiedName string, isPackage bool, content []byte) (*Parsed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkText(path, content); err != nil {
		return nil, err
	}

	tree, err := p.parse(LangPython, content)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	defer tree.Close()

	root := tree.RootNode()
	ectx := &ExtractionContext{
		Source:    content,
		Path:      path,
		Module:    qualifiedName,
		IsPackage: isPackage,
		Arena:     model.NewTypeArena(),
	}
	parsed := p.python.Extract(ectx, root)
	if root.HasError() && len(parsed.Symbols) == 0 && len(parsed.Imports) == 0 && parsed.Doc.Empty() {
		return nil, parseError(path, "no recognizable statements")
	}
	parsed.Diagnostics = ectx.Diagnostics
	return parsed, nil
}

// ParseCrate extracts the Python-facing interface of a PyO3 crate from its
// Rust sources. files maps a slash path to its content and is visited in the
// order given by paths.
func (p *Parser) ParseCrate(ctx context.Context, crate string, paths []string, files map[string][]byte, moduleOverride string) (*Parsed, error) {
	ectx := &ExtractionContext{Path: crate, Arena: model.NewTypeArena()}
	var units []rustUnit
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content := files[path]
		if err := checkText(path, content); err != nil {
			ectx.Diagnostics = append(ectx.Diagnostics, diagnostics.Diagnostic{
				Kind: diagnostics.ParseError, Path: path, Message: err.Error(),
			})
			continue
		}
		tree, err := p.parse(LangRust, content)
		if err != nil {
			return nil, errors.AddContext(err, errors.CtxPath, path)
		}
		// Trees stay open until extraction finishes.
		defer tree.Close()
		units = append(units, rustUnit{path: path, source: content, root: tree.RootNode()})
	}
	parsed := p.rust.Extract(ectx, units, moduleOverride)
	if parsed.QualifiedName == "" {
		return nil, parseError(crate, "no #[pymodule] found and no module name configured")
	}
	parsed.Diagnostics = ectx.Diagnostics
	return parsed, nil
}

func (p *Parser) parse(lang string, content []byte) (*sitter.Tree, error) {
	pool, ok := p.pools[lang]
	if !ok {
		return nil, errors.New(errors.CodeNotSupported, fmt.Sprintf("no grammar for language: %s", lang))
	}
	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.New(errors.CodeParse, "tree-sitter returned no tree")
	}
	return tree, nil
}

func checkText(path string, content []byte) error {
	if !utf8.Valid(content) {
		return parseError(path, "content is not valid UTF-8")
	}
	if bytes.IndexByte(content, 0) >= 0 {
		return parseError(path, "content contains NUL bytes")
	}
	return nil
}

func parseError(path, msg string) error {
	return errors.AddContext(errors.New(errors.CodeParse, msg), errors.CtxPath, path)
}
