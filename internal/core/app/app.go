// Package app orchestrates one documentation run: walk, parse, resolve,
// render and write, in that order, with the resolver as the only barrier
// between the parallel phases.
package app

import (
	"fmt"
	"runtime"
	"time"

	"apiscribe/internal/core/config"
	"apiscribe/internal/core/diagnostics"
	"apiscribe/internal/core/errors"
	"apiscribe/internal/engine/parser"
	"apiscribe/internal/engine/resolver"
	"apiscribe/internal/ui/render/backend"
	"apiscribe/internal/ui/render/linkcheck"
)

type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths
	Site   backend.Site
	Parser *parser.Parser

	precedence resolver.Precedence
	workers    int
}

// Result summarizes a finished run.
type Result struct {
	RunID     string
	Project   string
	Backend   backend.Kind
	OutputDir string
	Modules   int
	Pages     int
	// Files lists every written path relative to OutputDir, sorted.
	Files       []string
	Diagnostics []diagnostics.Diagnostic
	BrokenLinks []linkcheck.Broken
	Duration    time.Duration
}

// Failed reports whether the run should exit non-zero. Warnings only fail a
// strict run; broken links always count as warnings.
func (r *Result) Failed(strict bool) bool {
	if !strict {
		return false
	}
	return diagnostics.HasWarnings(r.Diagnostics) || len(r.BrokenLinks) > 0
}

// New validates the settings that need the render and resolve packages and
// prepares a shared parser. The parser is reused across watch re-runs.
func New(cfg *config.Config, root string) (*App, error) {
	paths, err := config.ResolvePaths(cfg, root)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "invalid project root")
	}
	// Clearing the output must never reach the sources.
	if paths.OutputDir == paths.ProjectRoot || paths.OutputDir == paths.SourceDir {
		return nil, errors.AddContext(
			errors.New(errors.CodeValidationError, "output directory must differ from the project and source directories"),
			errors.CtxPath, paths.OutputDir)
	}
	kind, err := backend.Parse(cfg.Output.Backend)
	if err != nil {
		return nil, err
	}
	layout, err := backend.ParseLayout(cfg.Output.Layout)
	if err != nil {
		return nil, err
	}
	precedence, err := resolver.ParsePrecedence(cfg.Resolve.Precedence)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "invalid resolve.precedence")
	}

	workers := cfg.Run.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &App{
		Config: cfg,
		Paths:  paths,
		Site: backend.Site{
			Backend: backend.Get(kind),
			Layout:  layout,
			Project: cfg.ProjectName(paths.ProjectRoot),
		},
		Parser:     parser.NewParser(parser.NewGrammarLoader()),
		precedence: precedence,
		workers:    workers,
	}, nil
}

func (a *App) String() string {
	return fmt.Sprintf("%s (%s, %s) -> %s", a.Site.Project, a.Site.Backend.Kind, a.Site.Layout, a.Paths.OutputDir)
}
