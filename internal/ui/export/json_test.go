package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"apiscribe/internal/core/diagnostics"
	"apiscribe/internal/engine/model"
	"apiscribe/internal/engine/typeexpr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleModel() *model.Model {
	mod := &model.ModuleNode{
		QualifiedName: "pkg._native",
		Path:          "crates/native",
		Origin:        model.OriginRust,
		Provenance:    model.CompiledProvenance(),
		Doc:           model.Docstring{Raw: "Native helpers.", Summary: "Native helpers."},
		Arena:         model.NewTypeArena(),
	}
	intType, _ := typeexpr.Interpret(mod.Arena, "int")
	optional, _ := typeexpr.Interpret(mod.Arena, "str | None")

	counter := &model.Symbol{
		Kind:          model.KindClass,
		Name:          "Counter",
		QualifiedName: "pkg._native.Counter",
		Module:        mod.QualifiedName,
		Location:      model.Location{Path: "crates/native/src/lib.rs", Line: 5},
		Binding:       &model.RustBinding{Item: "RsCounter", Kind: "struct", Location: model.Location{Path: "crates/native/src/lib.rs", Line: 5}},
	}
	counter.Members = append(counter.Members, &model.Symbol{
		Kind:          model.KindFunction,
		Name:          "add",
		QualifiedName: "pkg._native.Counter.add",
		Module:        mod.QualifiedName,
		Doc: model.Docstring{
			Raw:     "Add.",
			Style:   model.DocGoogle,
			Summary: "Add.",
			Args:    []model.DocParam{{Name: "n", Text: "Amount."}},
			Raises:  []model.DocRaise{{Kind: "ValueError", Text: "If n is negative."}},
		},
		Signature: &model.Signature{
			Params: []model.Param{
				{Name: "n", Type: mod.Arena.Ref(intType)},
				{Name: "label", Type: mod.Arena.Ref(optional), HasDefault: true, Default: "None", Kind: model.ParamKeywordOnly},
			},
			Returns: mod.Arena.Ref(intType),
		},
		Binding: &model.RustBinding{Item: "RsCounter::add", Kind: "method"},
	})
	mod.Symbols = []*model.Symbol{counter}

	root := &model.PackageNode{}
	refs := []model.CrossReference{{From: "pkg._native.Counter.add", Text: "Missing"}}
	return model.NewModel("demo", root, []*model.ModuleNode{mod}, refs)
}

func TestBuild(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	doc := Build(Source{
		Model:       sampleModel(),
		Version:     "0.1.0",
		RunID:       "run-1",
		GeneratedAt: at,
		Tool:        "apiscribe",
		Diagnostics: []diagnostics.Diagnostic{{Kind: diagnostics.UnresolvedReference, Path: "crates/native", Subject: "pkg._native.Counter.add", Message: "unresolved Missing"}},
	})

	assert.Equal(t, FormatVersion, doc.FormatVersion)
	assert.Equal(t, Metadata{Name: "demo", Version: "0.1.0", RunID: "run-1", GeneratedAt: "2026-01-02T02:04:05Z", Tool: "apiscribe"}, doc.Metadata)

	require.Len(t, doc.Modules, 1)
	mod := doc.Modules[0]
	assert.Equal(t, "rust", mod.Origin)
	assert.Equal(t, "compiled", mod.Provenance)
	require.NotNil(t, mod.Doc)
	assert.Equal(t, "Native helpers.", mod.Doc.Summary)

	require.Len(t, mod.Symbols, 1)
	counter := mod.Symbols[0]
	assert.Equal(t, "class", counter.Kind)
	require.NotNil(t, counter.Rust)
	assert.Equal(t, "RsCounter", counter.Rust.Item)
	assert.Nil(t, counter.Doc, "an empty docstring is omitted")

	require.Len(t, counter.Members, 1)
	add := counter.Members[0]
	require.NotNil(t, add.Signature)
	assert.Equal(t, "int", add.Signature.Returns)
	require.Len(t, add.Signature.Params, 2)
	assert.Equal(t, Param{Name: "n", Kind: "positional", Type: "int"}, add.Signature.Params[0])
	label := add.Signature.Params[1]
	assert.Equal(t, "keyword_only", label.Kind)
	assert.Equal(t, "str | None", label.Type)
	require.NotNil(t, label.Default)
	assert.Equal(t, "None", *label.Default)
	assert.Equal(t, "google", add.Doc.Style)
	assert.Equal(t, []DocParam{{Name: "ValueError", Text: "If n is negative."}}, add.Doc.Raises)

	assert.Equal(t, []Reference{{From: "pkg._native.Counter.add", Text: "Missing"}}, doc.References)
	require.Len(t, doc.Bindings, 2)
	assert.Equal(t, "pkg._native.Counter", doc.Bindings[0].Python)
	assert.Equal(t, "RsCounter::add", doc.Bindings[1].Rust.Item)
	require.Len(t, doc.Diagnostics, 1)
	assert.Equal(t, "unresolved-reference", doc.Diagnostics[0].Kind)
	assert.Equal(t, "warning", doc.Diagnostics[0].Severity)
}

func TestWrite(t *testing.T) {
	doc := Build(Source{Model: sampleModel(), RunID: "run-1", GeneratedAt: time.Unix(0, 0)})

	var compact, pretty bytes.Buffer
	require.NoError(t, Write(&compact, doc, false))
	require.NoError(t, Write(&pretty, doc, true))

	assert.Equal(t, 1, strings.Count(compact.String(), "\n"), "compact output is one line")
	assert.Contains(t, pretty.String(), "\n  \"metadata\": {")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(compact.Bytes(), &decoded))
	assert.Contains(t, decoded, "modules")
	assert.Contains(t, decoded, "bindings")
	assert.Equal(t, []any{}, decoded["diagnostics"], "empty lists encode as arrays, not null")
}
