// # internal/ui/export/json.go
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"apiscribe/internal/core/diagnostics"
	"apiscribe/internal/engine/model"
	"apiscribe/internal/engine/typeexpr"
)

// FormatVersion is bumped whenever a field changes meaning or goes away.
const FormatVersion = 1

// Document is the JSON form of a resolved documentation model.
type Document struct {
	FormatVersion int          `json:"format_version"`
	Metadata      Metadata     `json:"metadata"`
	Modules       []Module     `json:"modules"`
	References    []Reference  `json:"cross_references"`
	Bindings      []Binding    `json:"bindings"`
	Diagnostics   []Diagnostic `json:"diagnostics"`
}

type Metadata struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	RunID       string `json:"run_id"`
	GeneratedAt string `json:"generated_at"`
	Tool        string `json:"tool"`
}

type Module struct {
	Name       string   `json:"name"`
	Path       string   `json:"path"`
	Origin     string   `json:"origin"`
	Provenance string   `json:"provenance"`
	IsPackage  bool     `json:"is_package,omitempty"`
	All        []string `json:"all,omitempty"`
	Doc        *Doc     `json:"doc,omitempty"`
	Symbols    []Symbol `json:"symbols"`
}

type Symbol struct {
	Kind          string      `json:"kind"`
	Name          string      `json:"name"`
	QualifiedName string      `json:"qualified_name"`
	Completeness  string      `json:"completeness"`
	Location      Location    `json:"location"`
	Decorators    []string    `json:"decorators,omitempty"`
	Doc           *Doc        `json:"doc,omitempty"`
	Raw           string      `json:"raw,omitempty"`
	Bases         []string    `json:"bases,omitempty"`
	TypeParams    []TypeParam `json:"type_params,omitempty"`
	Signature     *Signature  `json:"signature,omitempty"`
	Overloads     []Signature `json:"overloads,omitempty"`
	Type          string      `json:"type,omitempty"`
	Value         string      `json:"value,omitempty"`
	Variants      []Variant   `json:"variants,omitempty"`
	Fields        []Field     `json:"fields,omitempty"`
	Members       []Symbol    `json:"members,omitempty"`
	Rust          *RustItem   `json:"rust,omitempty"`
}

type Location struct {
	Path string `json:"path"`
	Line int    `json:"line,omitempty"`
}

type Doc struct {
	Style       string     `json:"style"`
	Summary     string     `json:"summary,omitempty"`
	Description string     `json:"description,omitempty"`
	Args        []DocParam `json:"args,omitempty"`
	Returns     string     `json:"returns,omitempty"`
	ReturnsType string     `json:"returns_type,omitempty"`
	Raises      []DocParam `json:"raises,omitempty"`
	Examples    []string   `json:"examples,omitempty"`
}

type DocParam struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	Text string `json:"text,omitempty"`
}

type Signature struct {
	Params     []Param     `json:"params"`
	Returns    string      `json:"returns,omitempty"`
	TypeParams []TypeParam `json:"type_params,omitempty"`
	Async      bool        `json:"async,omitempty"`
}

type Param struct {
	Name    string  `json:"name"`
	Kind    string  `json:"kind"`
	Type    string  `json:"type,omitempty"`
	Default *string `json:"default,omitempty"`
}

type TypeParam struct {
	Name        string   `json:"name"`
	Variance    string   `json:"variance"`
	Bound       string   `json:"bound,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
}

type Variant struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
	Doc   string `json:"doc,omitempty"`
}

type Field struct {
	Name     string  `json:"name"`
	Type     string  `json:"type,omitempty"`
	Default  *string `json:"default,omitempty"`
	Required bool    `json:"required"`
}

type RustItem struct {
	Item     string   `json:"item"`
	Kind     string   `json:"kind"`
	Location Location `json:"location"`
}

type Reference struct {
	From   string `json:"from"`
	Text   string `json:"text"`
	Target string `json:"target,omitempty"`
}

type Binding struct {
	Python string   `json:"python"`
	Rust   RustItem `json:"rust"`
}

type Diagnostic struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Path     string `json:"path,omitempty"`
	Line     int    `json:"line,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Message  string `json:"message"`
}

// Source is what a document is built from.
type Source struct {
	Model       *model.Model
	Version     string
	RunID       string
	GeneratedAt time.Time
	Tool        string
	Diagnostics []diagnostics.Diagnostic
}

// Build converts the model. Slices are never nil so consumers always see
// arrays.
func Build(src Source) Document {
	doc := Document{
		FormatVersion: FormatVersion,
		Metadata: Metadata{
			Name:        src.Model.Project,
			Version:     src.Version,
			RunID:       src.RunID,
			GeneratedAt: src.GeneratedAt.UTC().Format(time.RFC3339),
			Tool:        src.Tool,
		},
		Modules:     []Module{},
		References:  []Reference{},
		Bindings:    []Binding{},
		Diagnostics: []Diagnostic{},
	}
	for _, mod := range src.Model.Modules {
		out := Module{
			Name:       mod.QualifiedName,
			Path:       mod.Path,
			Origin:     mod.Origin.String(),
			Provenance: mod.Provenance.String(),
			IsPackage:  mod.IsPackage,
			All:        mod.All,
			Doc:        docOf(mod.Doc),
			Symbols:    []Symbol{},
		}
		for _, sym := range mod.Symbols {
			out.Symbols = append(out.Symbols, symbolOf(sym))
		}
		doc.Modules = append(doc.Modules, out)
	}
	for _, ref := range src.Model.References {
		doc.References = append(doc.References, Reference{From: ref.From, Text: ref.Text, Target: ref.Target})
	}
	for _, b := range src.Model.Bindings() {
		doc.Bindings = append(doc.Bindings, Binding{Python: b.Python, Rust: rustOf(b.Rust)})
	}
	for _, d := range src.Diagnostics {
		doc.Diagnostics = append(doc.Diagnostics, Diagnostic{
			Kind:     d.Kind.String(),
			Severity: d.Kind.Severity().String(),
			Path:     d.Path,
			Line:     d.Line,
			Subject:  d.Subject,
			Message:  d.Message,
		})
	}
	return doc
}

// Write encodes doc to w, indented when pretty is set.
func Write(w io.Writer, doc Document, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("encode documentation model: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func symbolOf(sym *model.Symbol) Symbol {
	out := Symbol{
		Kind:          sym.Kind.String(),
		Name:          sym.Name,
		QualifiedName: sym.QualifiedName,
		Completeness:  sym.Completeness.String(),
		Location:      Location{Path: sym.Location.Path, Line: sym.Location.Line},
		Doc:           docOf(sym.Doc),
		Raw:           sym.Raw,
		TypeParams:    typeParamsOf(sym.TypeParams),
		Type:          typeexpr.Format(sym.Type),
		Value:         sym.Value,
	}
	for _, d := range sym.Decorators {
		out.Decorators = append(out.Decorators, d.String())
	}
	for _, b := range sym.Bases {
		out.Bases = append(out.Bases, typeexpr.Format(b))
	}
	if sym.Signature != nil {
		sig := signatureOf(*sym.Signature)
		out.Signature = &sig
	}
	for _, o := range sym.Overloads {
		out.Overloads = append(out.Overloads, signatureOf(o.Signature))
	}
	for _, v := range sym.Variants {
		out.Variants = append(out.Variants, Variant{Name: v.Name, Value: v.Value, Doc: v.Doc})
	}
	for _, f := range sym.Fields {
		field := Field{Name: f.Name, Type: typeexpr.Format(f.Type), Required: f.Required}
		if f.HasDefault {
			field.Default = &f.Default
		}
		out.Fields = append(out.Fields, field)
	}
	for _, m := range sym.Members {
		out.Members = append(out.Members, symbolOf(m))
	}
	if sym.Binding != nil {
		rust := rustOf(*sym.Binding)
		out.Rust = &rust
	}
	return out
}

func signatureOf(sig model.Signature) Signature {
	out := Signature{
		Params:     []Param{},
		Returns:    typeexpr.Format(sig.Returns),
		TypeParams: typeParamsOf(sig.TypeParams),
		Async:      sig.Async,
	}
	for _, p := range sig.Params {
		param := Param{Name: p.Name, Kind: paramKind(p.Kind), Type: typeexpr.Format(p.Type)}
		if p.HasDefault {
			param.Default = &p.Default
		}
		out.Params = append(out.Params, param)
	}
	return out
}

func typeParamsOf(tps []model.TypeParam) []TypeParam {
	var out []TypeParam
	for _, tp := range tps {
		p := TypeParam{Name: tp.Name, Variance: tp.Variance.String(), Bound: typeexpr.Format(tp.Bound)}
		for _, c := range tp.Constraints {
			p.Constraints = append(p.Constraints, typeexpr.Format(c))
		}
		out = append(out, p)
	}
	return out
}

func docOf(d model.Docstring) *Doc {
	if d.Empty() {
		return nil
	}
	out := &Doc{
		Style:       docStyle(d.Style),
		Summary:     d.Summary,
		Description: d.Description,
		Returns:     d.Returns,
		ReturnsType: d.ReturnsType,
		Examples:    d.Examples,
	}
	for _, a := range d.Args {
		out.Args = append(out.Args, DocParam{Name: a.Name, Type: a.Type, Text: a.Text})
	}
	for _, r := range d.Raises {
		out.Raises = append(out.Raises, DocParam{Name: r.Kind, Text: r.Text})
	}
	return out
}

func rustOf(b model.RustBinding) RustItem {
	return RustItem{Item: b.Item, Kind: b.Kind, Location: Location{Path: b.Location.Path, Line: b.Location.Line}}
}

func paramKind(k model.ParamKind) string {
	switch k {
	case model.ParamKeywordOnly:
		return "keyword_only"
	case model.ParamVarPositional:
		return "var_positional"
	case model.ParamVarKeyword:
		return "var_keyword"
	default:
		return "positional"
	}
}

func docStyle(s model.DocStyle) string {
	switch s {
	case model.DocGoogle:
		return "google"
	case model.DocNumPy:
		return "numpy"
	case model.DocMarkdown:
		return "markdown"
	default:
		return "plain"
	}
}
