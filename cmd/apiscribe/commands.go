package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"apiscribe/internal/core/app"
	"apiscribe/internal/core/config"
	"apiscribe/internal/core/errors"
	"apiscribe/internal/shared/observability"
	"apiscribe/internal/ui/export"
)

// ProjectFlags are shared by every command that reads a project. Flags
// override environment variables, which override the config file.
type ProjectFlags struct {
	Root    string `arg:"" optional:"" help:"Project root (default: nearest directory with apiscribe.toml, pyproject.toml or .git)" type:"path"`
	Config  string `short:"c" help:"Config file (default: <root>/apiscribe.toml)" type:"path"`
	Output  string `short:"o" help:"Output directory" type:"path"`
	Backend string `short:"t" help:"Target backend: mkdocs or mdbook"`
	Layout  string `help:"Page layout: project-first or flat"`
	NoClean bool   `name:"no-clean" help:"Keep previous output instead of clearing the project subtree"`
	Workers int    `help:"Parallel workers (0 = one per CPU)"`
}

// load resolves the project root and builds the effective configuration.
// Validation warnings are logged; errors are returned.
func (f *ProjectFlags) load() (*config.Config, string, error) {
	root := f.Root
	if strings.TrimSpace(root) == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		if root, err = config.DetectProjectRoot(cwd); err != nil {
			return nil, "", err
		}
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, "", errors.FatalIO(err, root, "project root is not readable")
	}
	if !info.IsDir() {
		return nil, "", errors.FatalIO(fmt.Errorf("not a directory"), root, "project root is not a directory")
	}

	cfg, err := config.LoadProject(root, f.Config)
	if err != nil {
		return nil, "", errors.Wrap(err, errors.CodeValidationError, "invalid configuration")
	}
	config.ApplyEnvOverrides(cfg)
	f.apply(cfg)

	issues := config.Validate(cfg, root)
	for _, issue := range issues {
		if issue.Error {
			slog.Error("config", "issue", issue.String())
		} else {
			slog.Warn("config", "issue", issue.String())
		}
	}
	if config.HasErrors(issues) {
		return nil, "", errors.New(errors.CodeValidationError, "configuration has errors")
	}
	return cfg, root, nil
}

func (f *ProjectFlags) apply(cfg *config.Config) {
	if f.Output != "" {
		cfg.Output.Path = f.Output
	}
	if f.Backend != "" {
		cfg.Output.Backend = strings.ToLower(strings.TrimSpace(f.Backend))
	}
	if f.Layout != "" {
		cfg.Output.Layout = strings.ToLower(strings.TrimSpace(f.Layout))
	}
	if f.NoClean {
		clean := false
		cfg.Output.Clean = &clean
	}
	if f.Workers > 0 {
		cfg.Run.Workers = f.Workers
	}
}

// setup loads the project and starts tracing. The returned shutdown flushes
// spans and must be called before exiting.
func (f *ProjectFlags) setup(ctx context.Context) (*app.App, func(), error) {
	cfg, root, err := f.load()
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(cfg, root)
	if err != nil {
		return nil, nil, err
	}

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.EnableTracing)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
	}
	shutdown := func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}
	slog.Debug("project loaded", "app", a.String(), "config", cfg.Source)
	return a, shutdown, nil
}

type RenderCmd struct {
	ProjectFlags
	Strict bool `help:"Exit non-zero when the run reports warnings"`
}

func (r *RenderCmd) Run(ctx context.Context) error {
	a, shutdown, err := r.setup(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	res, err := a.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Print(formatSummary(res, a.Paths.ProjectRoot))
	if res.Failed(r.Strict || a.Config.Quality.FailOnWarnings) {
		return errWarnings
	}
	return nil
}

type WatchCmd struct {
	ProjectFlags
}

func (w *WatchCmd) Run(ctx context.Context) error {
	a, shutdown, err := w.setup(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	return a.Watch(ctx, func(res *app.Result, err error) {
		if err != nil {
			slog.Error("run failed", "error", err)
			return
		}
		fmt.Print(formatSummary(res, a.Paths.ProjectRoot))
	})
}

type CheckCmd struct {
	Root   string `arg:"" optional:"" help:"Project root" type:"path"`
	Config string `short:"c" help:"Config file (default: <root>/apiscribe.toml)" type:"path"`
}

func (c *CheckCmd) Run() error {
	root := c.Root
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		if root, err = config.DetectProjectRoot(cwd); err != nil {
			return err
		}
	}
	cfg, err := config.LoadProject(root, c.Config)
	if err != nil {
		return errors.Wrap(err, errors.CodeValidationError, "invalid configuration")
	}
	config.ApplyEnvOverrides(cfg)

	source := cfg.Source
	if source == "" {
		source = "defaults (no " + config.FileName + ")"
	} else if rel, err := filepath.Rel(root, source); err == nil {
		source = rel
	}
	issues := config.Validate(cfg, root)
	fmt.Print(formatIssues(source, issues))
	if config.HasErrors(issues) {
		return errors.New(errors.CodeValidationError, "configuration has errors")
	}
	return nil
}

type GenerateCmd struct {
	ProjectFlags
	File   string `short:"f" name:"file" help:"Write the JSON model to this file instead of stdout" type:"path"`
	Pretty bool   `help:"Indent the JSON output"`
}

func (g *GenerateCmd) Run(ctx context.Context) error {
	a, shutdown, err := g.setup(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	doc, err := a.Generate(ctx)
	if err != nil {
		return err
	}
	if g.File == "" {
		return export.Write(os.Stdout, doc, g.Pretty)
	}

	f, err := os.Create(g.File)
	if err != nil {
		return errors.FatalIO(err, g.File, "cannot create model file")
	}
	if err := export.Write(f, doc, g.Pretty); err != nil {
		_ = f.Close()
		return errors.FatalIO(err, g.File, "cannot write model file")
	}
	if err := f.Close(); err != nil {
		return errors.FatalIO(err, g.File, "cannot write model file")
	}
	fmt.Println(successStyle.Render("Wrote") + " " + g.File)
	return nil
}

type InitCmd struct {
	Root    string `arg:"" optional:"" help:"Project root (default: current directory)" type:"path"`
	Backend string `short:"t" default:"mkdocs" enum:"mkdocs,mdbook" help:"Target backend: mkdocs or mdbook"`
	Force   bool   `help:"Overwrite an existing apiscribe.toml"`
}

func (i *InitCmd) Run() error {
	root := i.Root
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		root = cwd
	}
	path, err := config.WriteStarter(root, i.Backend, i.Force)
	if stderrors.Is(err, config.ErrConfigExists) {
		return errors.Wrap(err, errors.CodeValidationError, "use --force to overwrite the existing configuration")
	}
	if err != nil {
		return errors.FatalIO(err, path, "cannot write configuration")
	}
	fmt.Println(successStyle.Render("Created") + " " + path)
	return nil
}
