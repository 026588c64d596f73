package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"apiscribe/internal/shared/util"

	"github.com/gobwas/glob"
)

const maxWorkers = 1024

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if strings.TrimSpace(cfg.Output.Path) == "" {
		return fmt.Errorf("output.path must not be empty")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Output.Layout)) {
	case "project-first", "flat":
	default:
		return fmt.Errorf("output.layout must be one of: project-first, flat")
	}
	return nil
}

func validateRust(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Rust.Crates))
	for i, crate := range cfg.Rust.Crates {
		ref := fmt.Sprintf("rust.crates[%d]", i)
		path := util.NormalizePatternPath(crate.Path)
		if strings.TrimSpace(crate.Path) == "" {
			return fmt.Errorf("%s.path must not be empty", ref)
		}
		if filepath.IsAbs(crate.Path) {
			return fmt.Errorf("%s.path must be relative to the project root, got %q", ref, crate.Path)
		}
		if seen[path] {
			return fmt.Errorf("duplicate rust crate path %q", crate.Path)
		}
		seen[path] = true
		if m := crate.Module; m != "" && (strings.Contains(m, " ") || util.ContainsPathSeparator(m)) {
			return fmt.Errorf("%s.module must be a dotted module name, got %q", ref, m)
		}
	}
	return nil
}

func validateWalk(cfg *Config) error {
	for i, pattern := range cfg.Walk.Exclude {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("walk.exclude[%d] must not be empty", i)
		}
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("walk.exclude[%d] %q is not a valid glob: %w", i, pattern, err)
		}
	}
	return nil
}

func validateResolve(cfg *Config) error {
	switch cfg.Resolve.Precedence {
	case "compiled", "overlay":
		return nil
	default:
		return fmt.Errorf("resolve.precedence must be one of: compiled, overlay")
	}
}

func validateRun(cfg *Config) error {
	if cfg.Run.Workers > maxWorkers {
		return fmt.Errorf("run.workers must be between 0 and %d", maxWorkers)
	}
	return nil
}

// Issue is a configuration problem reported by Validate. Errors stop a run;
// warnings only inform.
type Issue struct {
	Field   string
	Message string
	Hint    string
	Error   bool
}

func (i Issue) String() string {
	level := "warning"
	if i.Error {
		level = "error"
	}
	s := fmt.Sprintf("%s: %s: %s", level, i.Field, i.Message)
	if i.Hint != "" {
		s += " (hint: " + i.Hint + ")"
	}
	return s
}

// Validate checks cfg against the project at root and returns every issue
// found.
func Validate(cfg *Config, root string) []Issue {
	var issues []Issue
	checks := []struct {
		field string
		fn    func(*Config) error
	}{
		{"version", validateVersion},
		{"output", validateOutput},
		{"rust", validateRust},
		{"walk", validateWalk},
		{"resolve", validateResolve},
		{"run", validateRun},
	}
	for _, c := range checks {
		if err := c.fn(cfg); err != nil {
			issues = append(issues, Issue{Field: c.field, Message: err.Error(), Error: true})
		}
	}

	issues = append(issues, validateDependencies(cfg)...)
	issues = append(issues, validatePaths(cfg, root)...)
	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Error {
			return true
		}
	}
	return false
}

func validateDependencies(cfg *Config) []Issue {
	var issues []Issue

	if cfg.Observability.EnableTracing && cfg.Observability.OTLPEndpoint == "" {
		issues = append(issues, Issue{
			Field:   "observability.enable_tracing",
			Message: "tracing is enabled but no exporter endpoint is set; spans are dropped",
			Hint:    "set observability.otlp_endpoint or APISCRIBE_OBSERVABILITY_OTLP_ENDPOINT",
		})
	}
	if cfg.Run.Workers > 4*runtime.NumCPU() {
		issues = append(issues, Issue{
			Field:   "run.workers",
			Message: fmt.Sprintf("%d workers on %d CPUs", cfg.Run.Workers, runtime.NumCPU()),
			Hint:    "parsing is CPU bound; leave workers at 0 to use one per CPU",
		})
	}
	if cfg.Quality.FailOnWarnings && !cfg.Quality.VerifyLinks {
		issues = append(issues, Issue{
			Field:   "quality.verify_links",
			Message: "fail_on_warnings is set but rendered links are not verified",
			Hint:    "enable quality.verify_links to fail on broken links too",
		})
	}
	return issues
}

func validatePaths(cfg *Config, root string) []Issue {
	var issues []Issue
	if strings.TrimSpace(root) == "" {
		return nil
	}

	source := ResolveRelative(root, cfg.Python.Source)
	if stat, err := os.Stat(source); os.IsNotExist(err) {
		issues = append(issues, Issue{
			Field:   "python.source",
			Message: fmt.Sprintf("%q does not exist", source),
			Hint:    "python.source is relative to the project root",
			Error:   true,
		})
	} else if err == nil && !stat.IsDir() {
		issues = append(issues, Issue{
			Field:   "python.source",
			Message: fmt.Sprintf("%q is not a directory", source),
			Error:   true,
		})
	}

	output := ResolveRelative(root, cfg.Output.Path)
	if output == filepath.Clean(root) {
		issues = append(issues, Issue{
			Field:   "output.path",
			Message: "output directory is the project root",
			Hint:    "generated pages would be mixed with sources; use a subdirectory such as docs",
			Error:   true,
		})
	}

	for i, crate := range cfg.Rust.Crates {
		if crate.Path == "" {
			continue
		}
		dir := ResolveRelative(root, crate.Path)
		if _, err := os.Stat(filepath.Join(dir, "Cargo.toml")); err != nil {
			issues = append(issues, Issue{
				Field:   fmt.Sprintf("rust.crates[%d].path", i),
				Message: fmt.Sprintf("%q has no Cargo.toml", crate.Path),
				Hint:    "point the path at the crate directory, not its src folder",
			})
		}
	}
	return issues
}
