// # internal/engine/resolver/resolver.go
package resolver

import (
	"context"
	"fmt"
	"strings"

	"apiscribe/internal/core/diagnostics"
	"apiscribe/internal/engine/model"
)

// Precedence decides which side of a compiled/overlay conflict supplies the
// declaration shape.
type Precedence string

const (
	PreferCompiled Precedence = "compiled"
	PreferOverlay  Precedence = "overlay"
)

func ParsePrecedence(s string) (Precedence, error) {
	switch Precedence(strings.ToLower(strings.TrimSpace(s))) {
	case "", PreferCompiled:
		return PreferCompiled, nil
	case PreferOverlay:
		return PreferOverlay, nil
	}
	return "", fmt.Errorf("unknown precedence %q (want compiled or overlay)", s)
}

type Options struct {
	Project    string
	Precedence Precedence
}

// Resolver unifies the parsed forest into one model. It runs once, after
// every module has been parsed.
type Resolver struct {
	opts Options
}

func New(opts Options) *Resolver {
	if opts.Precedence == "" {
		opts.Precedence = PreferCompiled
	}
	return &Resolver{opts: opts}
}

// Resolve merges hybrid duplicates, instantiates opaque symbols for compiled
// modules without an interface, resolves type references through import
// bindings and marks alias cycles. The tree is modified in place and must
// not be touched afterwards except through the returned model.
func (r *Resolver) Resolve(ctx context.Context, root *model.PackageNode) (*model.Model, []diagnostics.Diagnostic, error) {
	var diags []diagnostics.Diagnostic

	modules, mergeDiags := r.mergeHybrids(root)
	diags = append(diags, mergeDiags...)
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	instantiateOpaque(modules)

	m := model.NewModel(r.opts.Project, root, modules, nil)
	refs, refDiags := newReferenceResolver(m).resolveAll()
	m.References = refs
	diags = append(diags, refDiags...)
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	markCycles(m)
	diagnostics.Sort(diags)
	return m, diags, nil
}
