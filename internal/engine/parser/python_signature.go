package parser

import (
	"apiscribe/internal/engine/model"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// signature decomposes the parameter list and return annotation of a
// function_definition. Annotations that fall outside the annotation grammar
// degrade sym but still produce a signature with opaque types.
func (e *PythonExtractor) signature(ctx *ExtractionContext, node *sitter.Node, sc *scope, sym *model.Symbol) model.Signature {
	sig := model.Signature{
		Async:      ctx.HasChild(node, "async"),
		TypeParams: e.pep695Params(ctx, node, sc),
	}
	dropReceiver := sc.inClass && !sym.Has(model.FlagStaticMethod)
	keywordOnly := false

	for _, p := range namedChildren(node.ChildByFieldName("parameters")) {
		param := model.Param{Kind: model.ParamPositional}
		var annotation string

		switch p.Kind() {
		case "identifier":
			param.Name = ctx.Text(p)
		case "typed_parameter":
			annotation = ctx.FieldText(p, "type")
			param.Name, param.Kind = e.typedParamName(ctx, p)
		case "default_parameter":
			param.Name = ctx.FieldText(p, "name")
			param.HasDefault, param.Default = true, shorten(ctx.FieldText(p, "value"), 60)
		case "typed_default_parameter":
			param.Name = ctx.FieldText(p, "name")
			annotation = ctx.FieldText(p, "type")
			param.HasDefault, param.Default = true, shorten(ctx.FieldText(p, "value"), 60)
		case "list_splat_pattern":
			param.Name, param.Kind = splatName(ctx, p), model.ParamVarPositional
		case "dictionary_splat_pattern":
			param.Name, param.Kind = splatName(ctx, p), model.ParamVarKeyword
		case "keyword_separator":
			keywordOnly = true
			continue
		default:
			// positional_separator and anything unrecognized.
			continue
		}

		if dropReceiver {
			dropReceiver = false
			if param.Kind == model.ParamPositional && (param.Name == "self" || param.Name == "cls") {
				continue
			}
		}
		switch param.Kind {
		case model.ParamVarPositional:
			keywordOnly = true
		case model.ParamPositional:
			if keywordOnly {
				param.Kind = model.ParamKeywordOnly
			}
		}
		if annotation != "" {
			e.annotate(ctx, sym, &param.Type, annotation)
		}
		sig.Params = append(sig.Params, param)
	}

	if ret := ctx.FieldText(node, "return_type"); ret != "" {
		e.annotate(ctx, sym, &sig.Returns, ret)
	}
	return sig
}

// typedParamName handles `name: T`, `*args: T` and `**kwargs: T`.
func (e *PythonExtractor) typedParamName(ctx *ExtractionContext, p *sitter.Node) (string, model.ParamKind) {
	for _, child := range namedChildren(p) {
		switch child.Kind() {
		case "identifier":
			return ctx.Text(child), model.ParamPositional
		case "list_splat_pattern":
			return splatName(ctx, child), model.ParamVarPositional
		case "dictionary_splat_pattern":
			return splatName(ctx, child), model.ParamVarKeyword
		}
	}
	return "", model.ParamPositional
}

func splatName(ctx *ExtractionContext, p *sitter.Node) string {
	for _, child := range namedChildren(p) {
		if child.Kind() == "identifier" {
			return ctx.Text(child)
		}
	}
	return ""
}
