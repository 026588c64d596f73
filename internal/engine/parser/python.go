package parser

import (
	"regexp"
	"sort"
	"strings"

	"apiscribe/internal/core/diagnostics"
	"apiscribe/internal/engine/docstring"
	"apiscribe/internal/engine/model"
	"apiscribe/internal/engine/typeexpr"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

var (
	enumBases      = map[string]bool{"Enum": true, "IntEnum": true, "StrEnum": true, "Flag": true, "IntFlag": true}
	typeVarCalls   = map[string]bool{"TypeVar": true, "ParamSpec": true, "TypeVarTuple": true}
	brokenDeclLine = regexp.MustCompile(`(?m)^[ \t]*(?:async[ \t]+)?(def|class)[ \t]+([A-Za-z_][A-Za-z0-9_]*)`)
	docstringStart = regexp.MustCompile(`^[ \t]*[rRuU]?("""|'''|"|')`)
)

// typingConstructors subscripted on the right of an assignment mark it as a
// type alias.
var typingConstructors = map[string]bool{
	"Union": true, "Optional": true, "Callable": true, "Literal": true, "Annotated": true,
	"Dict": true, "List": true, "Set": true, "FrozenSet": true, "Tuple": true, "Type": true,
	"Mapping": true, "Sequence": true, "Iterable": true, "Iterator": true,
	"dict": true, "list": true, "set": true, "frozenset": true, "tuple": true, "type": true,
}

// maxHeaderLines bounds the search for the end of a broken header.
const maxHeaderLines = 20

// PythonExtractor turns a Python module or stub into declared symbols.
type PythonExtractor struct{}

// scope accumulates the symbols of one module or class body in declaration
// order, merging overload variants by name.
type scope struct {
	parent  string
	inClass bool
	symbols []*model.Symbol
	byName  map[string]*model.Symbol
	// last is the variable declared by the previous statement; a bare string
	// statement right after it documents it.
	last *model.Symbol
	// typeVars maps TypeVar names declared so far to their parameters.
	typeVars map[string]model.TypeParam
}

func newScope(parent string, inClass bool, typeVars map[string]model.TypeParam) *scope {
	return &scope{parent: parent, inClass: inClass, byName: make(map[string]*model.Symbol), typeVars: typeVars}
}

func (s *scope) add(sym *model.Symbol) {
	if prev, ok := s.byName[sym.Name]; ok {
		// Python rebinds the name; keep the first position.
		*prev = *sym
		return
	}
	s.byName[sym.Name] = sym
	s.symbols = append(s.symbols, sym)
}

func (e *PythonExtractor) Extract(ctx *ExtractionContext, root *sitter.Node) *Parsed {
	parsed := &Parsed{QualifiedName: ctx.Module, Arena: ctx.Arena}

	imports := NewExtractorEngine(map[string]NodeHandler{
		"import_statement":      e.extractImport,
		"import_from_statement": e.extractFromImport,
		// Imports local to a function body are not module bindings.
		"function_definition": func(*ExtractionContext, *sitter.Node) bool { return true },
	})
	imports.Walk(ctx, root)

	parsed.Doc = e.docstring(ctx, root)
	sc := newScope(ctx.Module, false, make(map[string]model.TypeParam))
	if root.Kind() == "ERROR" {
		e.recover(ctx, root, sc)
	} else {
		e.body(ctx, root, sc)
	}
	parsed.Symbols = sc.symbols
	parsed.All = e.dunderAll(ctx, root)
	for _, tp := range sc.typeVars {
		parsed.TypeVars = append(parsed.TypeVars, tp)
	}
	sort.Slice(parsed.TypeVars, func(i, j int) bool { return parsed.TypeVars[i].Name < parsed.TypeVars[j].Name })
	parsed.Imports = ctx.Imports
	return parsed
}

// body extracts the declarations of a module or class block into sc.
func (e *PythonExtractor) body(ctx *ExtractionContext, block *sitter.Node, sc *scope) {
	for _, stmt := range namedChildren(block) {
		last := sc.last
		sc.last = nil
		switch stmt.Kind() {
		case "expression_statement":
			e.expressionStatement(ctx, stmt, sc, last)
		case "function_definition":
			e.function(ctx, stmt, nil, sc)
		case "class_definition":
			sc.add(e.class(ctx, stmt, nil, sc))
		case "decorated_definition":
			e.decorated(ctx, stmt, sc)
		case "type_alias_statement":
			sc.add(e.typeAliasStatement(ctx, stmt, sc))
		case "ERROR":
			e.recover(ctx, stmt, sc)
		}
	}
}

func (e *PythonExtractor) expressionStatement(ctx *ExtractionContext, stmt *sitter.Node, sc *scope, last *model.Symbol) {
	inner := stmt.NamedChild(0)
	if inner == nil {
		return
	}
	switch inner.Kind() {
	case "assignment":
		e.assignment(ctx, inner, sc)
	case "string":
		if last != nil {
			if raw, ok := stringLiteral(ctx.Text(inner)); ok {
				last.Doc = docstring.Parse(raw)
			}
		}
	}
}

func (e *PythonExtractor) decorated(ctx *ExtractionContext, node *sitter.Node, sc *scope) {
	var decorators []model.Decorator
	for _, child := range namedChildren(node) {
		if child.Kind() == "decorator" {
			decorators = append(decorators, e.decorator(ctx, child))
		}
	}
	def := node.ChildByFieldName("definition")
	if def == nil {
		return
	}
	switch def.Kind() {
	case "function_definition":
		e.function(ctx, def, decorators, sc)
	case "class_definition":
		sc.add(e.class(ctx, def, decorators, sc))
	}
}

func (e *PythonExtractor) decorator(ctx *ExtractionContext, node *sitter.Node) model.Decorator {
	expr := node.NamedChild(0)
	if expr == nil {
		return model.Decorator{Name: strings.TrimPrefix(strings.TrimSpace(ctx.Text(node)), "@")}
	}
	if expr.Kind() == "call" {
		args := strings.TrimSpace(ctx.FieldText(expr, "arguments"))
		args = strings.TrimSuffix(strings.TrimPrefix(args, "("), ")")
		return model.Decorator{Name: ctx.FieldText(expr, "function"), Args: strings.TrimSpace(args)}
	}
	return model.Decorator{Name: ctx.Text(expr)}
}

func (e *PythonExtractor) function(ctx *ExtractionContext, node *sitter.Node, decorators []model.Decorator, sc *scope) {
	name := ctx.FieldText(node, "name")
	if name == "" {
		return
	}
	sym := &model.Symbol{
		Kind:          model.KindFunction,
		Name:          name,
		QualifiedName: model.Qualify(sc.parent, name),
		Module:        ctx.Module,
		Decorators:    decorators,
		Provenance:    model.SourceProvenance(),
		Location:      ctx.Location(node),
	}
	for _, d := range decorators {
		switch d.Base() {
		case "property", "cached_property":
			sym.Flags |= model.FlagProperty
		case "staticmethod":
			sym.Flags |= model.FlagStaticMethod
		case "classmethod":
			sym.Flags |= model.FlagClassMethod
		case "abstractmethod":
			sym.Flags |= model.FlagAbstract
		case "setter", "deleter":
			// @x.setter belongs to the property already documented.
			if _, ok := sc.byName[name]; ok {
				return
			}
		}
	}
	if sc.inClass && name == "__init__" {
		sym.Flags |= model.FlagConstructor
	}

	sig := e.signature(ctx, node, sc, sym)
	doc := e.docstring(ctx, node)
	if node.HasError() {
		e.degrade(ctx, node, sym)
		if doc.Empty() {
			doc = brokenDocstring(string(ctx.Source[node.StartByte():]), int(node.StartPosition().Column))
		}
	} else if sym.Completeness == model.Degraded {
		sym.Raw = declarationHeader(ctx, node)
	}

	if sym.Decorated("overload") {
		o := model.Overload{Signature: sig, Doc: doc, Line: sym.Location.Line}
		if prev, exists := sc.byName[name]; exists && prev.Kind == model.KindFunction {
			prev.Overloads = append(prev.Overloads, o)
			return
		}
		sym.Overloads = []model.Overload{o}
		sc.add(sym)
		return
	}

	sym.Signature = &sig
	sym.Doc = doc
	if prev, exists := sc.byName[name]; exists && prev.Kind == model.KindFunction && prev.Signature == nil && len(prev.Overloads) > 0 {
		// Implementation of an overload group.
		prev.Signature = sym.Signature
		prev.Doc = sym.Doc
		prev.Decorators = sym.Decorators
		prev.Flags |= sym.Flags
		if sym.Completeness > prev.Completeness {
			prev.Completeness, prev.Raw = sym.Completeness, sym.Raw
		}
		return
	}
	sc.add(sym)
}

func (e *PythonExtractor) class(ctx *ExtractionContext, node *sitter.Node, decorators []model.Decorator, sc *scope) *model.Symbol {
	name := ctx.FieldText(node, "name")
	qn := model.Qualify(sc.parent, name)
	sym := &model.Symbol{
		Kind:          model.KindClass,
		Name:          name,
		QualifiedName: qn,
		Module:        ctx.Module,
		Decorators:    decorators,
		Provenance:    model.SourceProvenance(),
		Location:      ctx.Location(node),
		Total:         true,
	}
	if sym.Decorated("runtime_checkable") {
		sym.Flags |= model.FlagRuntimeCheckable
	}
	if sym.Decorated("dataclass") {
		sym.Flags |= model.FlagDataclass
	}

	degraded := node.HasError()
	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for _, arg := range namedChildren(supers) {
			if arg.Kind() == "keyword_argument" {
				if ctx.FieldText(arg, "name") == "total" && ctx.FieldText(arg, "value") == "False" {
					sym.Total = false
				}
				continue
			}
			text := ctx.Text(arg)
			id, ok := typeexpr.Interpret(ctx.Arena, text)
			if !ok {
				degraded = true
			}
			ref := ctx.Arena.Ref(id)
			sym.Bases = append(sym.Bases, ref)
			e.classifyBase(sym, ref, sc)
		}
	}
	sym.TypeParams = append(sym.TypeParams, e.pep695Params(ctx, node, sc)...)
	if degraded {
		e.degrade(ctx, node, sym)
	}
	if sym.Completeness == model.Degraded {
		sym.Raw = declarationHeader(ctx, node)
	}

	sym.Doc = e.docstring(ctx, node)
	members := newScope(qn, true, sc.typeVars)
	e.body(ctx, node.ChildByFieldName("body"), members)
	sym.Members = members.symbols

	switch {
	case sym.Kind == model.KindEnum:
		e.enumVariants(sym)
	case sym.Kind == model.KindTypedDict, sym.Has(model.FlagDataclass):
		e.fields(ctx, sym)
	}
	return sym
}

// classifyBase picks the symbol variant from well-known bases and collects
// generic parameters from Generic[...] / Protocol[...].
func (e *PythonExtractor) classifyBase(sym *model.Symbol, ref model.TypeRef, sc *scope) {
	n := ref.Node()
	base := n
	if n.Kind == model.TypeGeneric {
		base = ref.Child(n.Base).Node()
	}
	name := lastSegment(base.Name)
	switch {
	case enumBases[name]:
		sym.Kind = model.KindEnum
	case name == "Protocol":
		sym.Kind = model.KindProtocol
	case name == "TypedDict":
		sym.Kind = model.KindTypedDict
	}
	if n.Kind == model.TypeGeneric && (name == "Generic" || name == "Protocol") {
		for _, a := range n.Args {
			arg := ref.Child(a).Node()
			if arg.Kind != model.TypeName {
				continue
			}
			tp, ok := sc.typeVars[arg.Name]
			if !ok {
				tp = model.TypeParam{Name: arg.Name}
			}
			sym.TypeParams = append(sym.TypeParams, tp)
		}
	}
}

func (e *PythonExtractor) enumVariants(sym *model.Symbol) {
	kept := sym.Members[:0]
	for _, m := range sym.Members {
		if m.Kind == model.KindVariable && !model.IsPrivate(m.Name) && !strings.HasPrefix(m.Name, "__") {
			sym.Variants = append(sym.Variants, model.Variant{Name: m.Name, Value: m.Value, Doc: m.Doc.Summary})
			continue
		}
		kept = append(kept, m)
	}
	sym.Members = kept
}

// fields synthesizes the field list of dataclasses and TypedDicts from
// annotated class attributes.
func (e *PythonExtractor) fields(ctx *ExtractionContext, sym *model.Symbol) {
	kept := sym.Members[:0]
	for _, m := range sym.Members {
		if m.Kind != model.KindVariable || !m.Type.Valid() || isClassVar(m.Type) {
			kept = append(kept, m)
			continue
		}
		f := model.Field{Name: m.Name, Type: m.Type, Default: m.Value, HasDefault: m.Value != "", Required: m.Value == ""}
		if sym.Kind == model.KindTypedDict {
			f.HasDefault, f.Default = false, ""
			f.Required = sym.Total
			if n := m.Type.Node(); n.Kind == model.TypeGeneric {
				switch lastSegment(m.Type.Child(n.Base).Node().Name) {
				case "NotRequired":
					f.Required, f.Type = false, m.Type.Child(n.Args[0])
				case "Required":
					f.Required, f.Type = true, m.Type.Child(n.Args[0])
				}
			}
		}
		sym.Fields = append(sym.Fields, f)
	}
	sym.Members = kept
}

func isClassVar(ref model.TypeRef) bool {
	n := ref.Node()
	if n.Kind == model.TypeGeneric {
		n = ref.Child(n.Base).Node()
	}
	return n.Kind == model.TypeName && lastSegment(n.Name) == "ClassVar"
}

func (e *PythonExtractor) assignment(ctx *ExtractionContext, node *sitter.Node, sc *scope) {
	left := node.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return
	}
	name := ctx.Text(left)
	annotation := ctx.FieldText(node, "type")
	right := node.ChildByFieldName("right")
	value := ctx.Text(right)

	if name == "__all__" && !sc.inClass {
		return
	}
	if model.IsPrivate(name) {
		return
	}

	sym := &model.Symbol{
		Kind:          model.KindVariable,
		Name:          name,
		QualifiedName: model.Qualify(sc.parent, name),
		Module:        ctx.Module,
		Provenance:    model.SourceProvenance(),
		Location:      ctx.Location(node),
		Value:         shorten(value, 80),
	}

	switch {
	case lastSegment(annotation) == "TypeAlias":
		sym.Kind = model.KindTypeAlias
		sym.Value = ""
		e.annotate(ctx, sym, &sym.Type, unquoteAlias(value))
	case right != nil && right.Kind() == "call" && typeVarCalls[lastSegment(ctx.FieldText(right, "function"))]:
		sc.typeVars[name] = e.typeVar(ctx, name, right)
		sym.Type = ctx.Arena.Ref(typeexpr.Name(ctx.Arena, lastSegment(ctx.FieldText(right, "function"))))
	case annotation != "":
		e.annotate(ctx, sym, &sym.Type, annotation)
	case sc.inClass:
	case isImplicitAlias(ctx, name, right):
		// `Json = dict[str, "Json"] | list["Json"]` reads as an alias.
		id, ok := typeexpr.Interpret(ctx.Arena, value)
		if !ok {
			break
		}
		sym.Kind = model.KindTypeAlias
		sym.Value = ""
		sym.Type = ctx.Arena.Ref(id)
	case right != nil && right.Kind() == "call" && !isUpperName(name):
		// Runtime wiring such as `log = logging.getLogger(__name__)`.
		return
	}
	sc.add(sym)
	sc.last = sym
}

func (e *PythonExtractor) typeAliasStatement(ctx *ExtractionContext, node *sitter.Node, sc *scope) *model.Symbol {
	left := ctx.FieldText(node, "left")
	right := ctx.FieldText(node, "right")
	if left == "" {
		// type X = ...
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ctx.Text(node)), "type"))
		left, right, _ = strings.Cut(text, "=")
	}
	name := strings.TrimSpace(left)
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	sym := &model.Symbol{
		Kind:          model.KindTypeAlias,
		Name:          name,
		QualifiedName: model.Qualify(sc.parent, name),
		Module:        ctx.Module,
		Provenance:    model.SourceProvenance(),
		Location:      ctx.Location(node),
	}
	e.annotate(ctx, sym, &sym.Type, right)
	sc.last = sym
	return sym
}

func (e *PythonExtractor) typeVar(ctx *ExtractionContext, name string, call *sitter.Node) model.TypeParam {
	tp := model.TypeParam{Name: name}
	args := namedChildren(call.ChildByFieldName("arguments"))
	for i, arg := range args {
		if arg.Kind() != "keyword_argument" {
			if i > 0 {
				id, _ := typeexpr.Interpret(ctx.Arena, ctx.Text(arg))
				tp.Constraints = append(tp.Constraints, ctx.Arena.Ref(id))
			}
			continue
		}
		value := ctx.FieldText(arg, "value")
		switch ctx.FieldText(arg, "name") {
		case "bound":
			id, _ := typeexpr.Interpret(ctx.Arena, value)
			tp.Bound = ctx.Arena.Ref(id)
		case "covariant":
			if value == "True" {
				tp.Variance = model.Covariant
			}
		case "contravariant":
			if value == "True" {
				tp.Variance = model.Contravariant
			}
		}
	}
	return tp
}

func (e *PythonExtractor) pep695Params(ctx *ExtractionContext, node *sitter.Node, sc *scope) []model.TypeParam {
	params := node.ChildByFieldName("type_parameters")
	if params == nil {
		return nil
	}
	var out []model.TypeParam
	for _, part := range typeexpr.SplitTopLevel(strings.Trim(ctx.Text(params), "[]"), ',') {
		name, bound, hasBound := strings.Cut(part, ":")
		tp := model.TypeParam{Name: strings.TrimLeft(strings.TrimSpace(name), "*")}
		if hasBound {
			id, _ := typeexpr.Interpret(ctx.Arena, bound)
			tp.Bound = ctx.Arena.Ref(id)
		}
		sc.typeVars[tp.Name] = tp
		out = append(out, tp)
	}
	return out
}

// annotate interprets annotation text into target, degrading sym when the
// text falls outside the annotation grammar.
func (e *PythonExtractor) annotate(ctx *ExtractionContext, sym *model.Symbol, target *model.TypeRef, text string) bool {
	id, ok := typeexpr.Interpret(ctx.Arena, text)
	*target = ctx.Arena.Ref(id)
	if !ok && sym.Completeness == model.Complete {
		sym.Completeness = model.Degraded
		sym.Raw = firstLine(text)
		ctx.Report(diagnostics.DegradedSymbol, sym.Location.Line, sym.QualifiedName, "annotation could not be interpreted: "+shorten(text, 60))
	}
	return ok
}

func (e *PythonExtractor) degrade(ctx *ExtractionContext, node *sitter.Node, sym *model.Symbol) {
	if sym.Completeness != model.Complete {
		return
	}
	sym.Completeness = model.Degraded
	sym.Raw = declarationHeader(ctx, node)
	ctx.Report(diagnostics.DegradedSymbol, sym.Location.Line, sym.QualifiedName, "declaration could not be fully decomposed")
}

// recover salvages an ERROR region: well-formed declarations inside it are
// extracted normally and each broken def/class header becomes one degraded
// symbol.
func (e *PythonExtractor) recover(ctx *ExtractionContext, node *sitter.Node, sc *scope) {
	e.body(ctx, node, sc)
	// The node text starts mid-line, so its first line has no indentation.
	text := ctx.Text(node)
	column := int(node.StartPosition().Column)
	for _, m := range brokenDeclLine.FindAllStringSubmatchIndex(text, -1) {
		kind, name := text[m[2]:m[3]], text[m[4]:m[5]]
		if m[0] > 0 && indentWidth(text[m[0]:m[2]]) > column {
			// Nested in a block of the broken region.
			continue
		}
		if _, ok := sc.byName[name]; ok {
			continue
		}
		sym := &model.Symbol{
			Kind:          model.KindFunction,
			Name:          name,
			QualifiedName: model.Qualify(sc.parent, name),
			Module:        ctx.Module,
			Provenance:    model.SourceProvenance(),
			Location:      model.Location{Path: ctx.Path, Line: ctx.Line(node) + strings.Count(text[:m[0]], "\n")},
		}
		if kind == "class" {
			sym.Kind = model.KindClass
		}
		sym.Completeness = model.Degraded
		sym.Raw = firstLine(text[m[0]:])
		headerIndent := column
		if m[0] > 0 {
			headerIndent = indentWidth(text[m[0]:m[2]])
		}
		sym.Doc = brokenDocstring(string(ctx.Source[int(node.StartByte())+m[0]:]), headerIndent)
		ctx.Report(diagnostics.DegradedSymbol, sym.Location.Line, sym.QualifiedName, "declaration could not be parsed")
		sc.add(sym)
	}
}

// brokenDocstring finds the docstring opening the body of a broken
// declaration. src starts at the declaration header; the body begins after the
// first line ending in a colon and must be indented deeper than the header.
func brokenDocstring(src string, headerIndent int) model.Docstring {
	lines := strings.SplitAfter(src, "\n")
	body := -1
	for i := 0; i < len(lines) && i < maxHeaderLines; i++ {
		if strings.HasSuffix(strings.TrimSpace(lines[i]), ":") {
			body = i + 1
			break
		}
	}
	if body < 0 {
		return model.Docstring{}
	}
	for body < len(lines) && strings.TrimSpace(lines[body]) == "" {
		body++
	}
	if body >= len(lines) || indentWidth(lines[body]) <= headerIndent {
		return model.Docstring{}
	}
	rest := strings.Join(lines[body:], "")
	m := docstringStart.FindStringSubmatchIndex(rest)
	if m == nil {
		return model.Docstring{}
	}
	quote := rest[m[2]:m[3]]
	end := strings.Index(rest[m[3]:], quote)
	if end < 0 {
		return model.Docstring{}
	}
	raw, ok := stringLiteral(rest[m[0] : m[3]+end+len(quote)])
	if !ok {
		return model.Docstring{}
	}
	return docstring.Parse(raw)
}

// docstring reads the leading string statement of a module, class or
// function body.
func (e *PythonExtractor) docstring(ctx *ExtractionContext, node *sitter.Node) model.Docstring {
	block := node
	if node.Kind() != "module" {
		block = node.ChildByFieldName("body")
	}
	stmts := namedChildren(block)
	if len(stmts) == 0 || stmts[0].Kind() != "expression_statement" {
		return model.Docstring{}
	}
	str := stmts[0].NamedChild(0)
	if str == nil || str.Kind() != "string" {
		return model.Docstring{}
	}
	raw, ok := stringLiteral(ctx.Text(str))
	if !ok {
		return model.Docstring{}
	}
	return docstring.Parse(raw)
}

func (e *PythonExtractor) dunderAll(ctx *ExtractionContext, root *sitter.Node) []string {
	var names []string
	for _, stmt := range namedChildren(root) {
		if stmt.Kind() != "expression_statement" {
			continue
		}
		assign := stmt.NamedChild(0)
		if assign == nil || assign.Kind() != "assignment" || ctx.FieldText(assign, "left") != "__all__" {
			continue
		}
		for _, item := range namedChildren(assign.ChildByFieldName("right")) {
			if s, ok := stringLiteral(ctx.Text(item)); ok {
				names = append(names, s)
			}
		}
	}
	return names
}

// declarationHeader is the declaration text up to its body, whitespace
// collapsed.
func declarationHeader(ctx *ExtractionContext, node *sitter.Node) string {
	body := node.ChildByFieldName("body")
	if body == nil || body.StartByte() <= node.StartByte() {
		return firstLine(ctx.Text(node))
	}
	return strings.Join(strings.Fields(string(ctx.Source[node.StartByte():body.StartByte()])), " ")
}

func indentWidth(prefix string) int {
	return len(prefix) - len(strings.TrimLeft(prefix, " \t"))
}

func unquoteAlias(value string) string {
	if s, ok := stringLiteral(value); ok {
		return s
	}
	return value
}

// isImplicitAlias reports whether an unannotated assignment reads as a type
// alias. UPPER_CASE names are usually constants, so they also need a typing
// constructor on the right or a quoted reference to themselves.
func isImplicitAlias(ctx *ExtractionContext, name string, right *sitter.Node) bool {
	if right == nil || name[0] < 'A' || name[0] > 'Z' {
		return false
	}
	switch right.Kind() {
	case "subscript":
	case "binary_operator":
		if ctx.FieldText(right, "operator") != "|" {
			return false
		}
	default:
		return false
	}
	if !isUpperName(name) {
		return true
	}
	value := ctx.Text(right)
	if strings.Contains(value, `"`+name+`"`) || strings.Contains(value, `'`+name+`'`) {
		return true
	}
	return right.Kind() == "subscript" && typingConstructors[lastSegment(ctx.FieldText(right, "value"))]
}
