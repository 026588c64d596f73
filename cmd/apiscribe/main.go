// # cmd/apiscribe/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	domainerrors "apiscribe/internal/core/errors"

	"github.com/alecthomas/kong"
)

const VERSION = "0.3.0"

const (
	exitOK = iota
	exitFailure
	exitInvalidConfig
	exitWarnings
)

// errWarnings marks a strict run that finished with warnings.
var errWarnings = errors.New("run finished with warnings")

type CLI struct {
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `help:"Print version and exit"`

	Render     RenderCmd   `cmd:"" default:"withargs" help:"Render API documentation for a project"`
	Watch      WatchCmd    `cmd:"" help:"Render, then re-render whenever sources change"`
	Generate   GenerateCmd `cmd:"" help:"Print the resolved documentation model as JSON"`
	Check      CheckCmd    `cmd:"" help:"Validate the project configuration"`
	Init       InitCmd     `cmd:"" help:"Write a starter apiscribe.toml inferred from the project manifests"`
	VersionCmd VersionCmd  `cmd:"" name:"version" help:"Print version and exit"`
}

// AfterApply installs the logger once flags are parsed.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("apiscribe"),
		kong.Description("Generate MkDocs Material or mdBook API pages from Python packages and PyO3 bindings."),
		kong.Vars{"version": VERSION},
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	kctx.BindTo(ctx, (*context.Context)(nil))
	err := kctx.Run(&cli)
	code := exitCode(err)
	if err != nil && !errors.Is(err, errWarnings) {
		slog.Error("apiscribe failed", "error", err)
	}
	stop()
	os.Exit(code)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errWarnings):
		return exitWarnings
	case domainerrors.IsCode(err, domainerrors.CodeValidationError):
		return exitInvalidConfig
	default:
		return exitFailure
	}
}

type VersionCmd struct{}

func (v *VersionCmd) Run() error {
	fmt.Printf("apiscribe v%s\n", VERSION)
	return nil
}
