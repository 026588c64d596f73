// # internal/core/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := `
[project]
name = "demo"

[output]
path = "site/api"
backend = "MdBook"
layout = "flat"
clean = false

[python]
source = "src"
package = "demo_pkg"

[[rust.crates]]
path = "crates/fast"
module = "demo_pkg._fast"

[walk]
exclude = ["**/_vendor/**"]
respect_gitignore = false

[resolve]
precedence = "overlay"

[quality]
fail_on_warnings = true
verify_links = true

[run]
workers = 3

[watch]
debounce = "1s"

[observability]
metrics_path = "metrics.prom"
`
	path := writeConfig(t, t.TempDir(), content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Project.Name != "demo" {
		t.Errorf("Expected project demo, got %q", cfg.Project.Name)
	}
	if cfg.Output.Path != "site/api" || cfg.Output.Backend != "mdbook" || cfg.Output.Layout != "flat" {
		t.Errorf("Unexpected output section: %+v", cfg.Output)
	}
	if cfg.Output.CleanOutput() {
		t.Error("Expected clean=false to be kept")
	}
	if cfg.Python.Source != "src" || cfg.Python.Package != "demo_pkg" {
		t.Errorf("Unexpected python section: %+v", cfg.Python)
	}
	if len(cfg.Rust.Crates) != 1 || cfg.Rust.Crates[0].Module != "demo_pkg._fast" {
		t.Fatalf("Unexpected crates: %+v", cfg.Rust.Crates)
	}
	if len(cfg.Walk.Exclude) != 1 || cfg.Walk.Gitignore() {
		t.Errorf("Unexpected walk section: %+v", cfg.Walk)
	}
	if cfg.Resolve.Precedence != "overlay" {
		t.Errorf("Expected precedence overlay, got %q", cfg.Resolve.Precedence)
	}
	if !cfg.Quality.FailOnWarnings || !cfg.Quality.VerifyLinks {
		t.Errorf("Unexpected quality section: %+v", cfg.Quality)
	}
	if cfg.Run.Workers != 3 {
		t.Errorf("Expected 3 workers, got %d", cfg.Run.Workers)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Expected debounce 1s, got %v", cfg.Watch.Debounce)
	}
	if cfg.Source != path {
		t.Errorf("Expected source %q, got %q", path, cfg.Source)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[project]\nname = \"demo\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Path != "docs" || cfg.Output.Backend != "mkdocs" || cfg.Output.Layout != "project-first" {
		t.Errorf("Unexpected output defaults: %+v", cfg.Output)
	}
	if !cfg.Output.CleanOutput() || !cfg.Walk.Gitignore() {
		t.Error("Expected clean and respect_gitignore to default to true")
	}
	if len(cfg.Walk.Exclude) != len(DefaultExclude) {
		t.Errorf("Expected default excludes, got %v", cfg.Walk.Exclude)
	}
	if cfg.Resolve.Precedence != "compiled" {
		t.Errorf("Expected default precedence compiled, got %q", cfg.Resolve.Precedence)
	}
	if cfg.Watch.Debounce != 300*time.Millisecond || cfg.Watch.MinInterval != time.Second {
		t.Errorf("Unexpected watch defaults: %+v", cfg.Watch)
	}
}

func TestLoadExplicitEmptyExclude(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[walk]\nexclude = []\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Walk.Exclude) != 0 {
		t.Fatalf("Expected explicit empty exclude list to be kept, got %v", cfg.Walk.Exclude)
	}
}

func TestLoadError(t *testing.T) {
	_, err := Load("nonexistent.toml")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}

	path := writeConfig(t, t.TempDir(), "bad = toml = format")
	if _, err := Load(path); err == nil {
		t.Error("Expected error for malformed TOML")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"version", "version = 2\n"},
		{"layout", "[output]\nlayout = \"nested\"\n"},
		{"precedence", "[resolve]\nprecedence = \"newest\"\n"},
		{"crate path", "[[rust.crates]]\nmodule = \"x\"\n"},
		{"duplicate crate", "[[rust.crates]]\npath = \"a\"\n[[rust.crates]]\npath = \"a/\"\n"},
		{"glob", "[walk]\nexclude = [\"[unclosed\"]\n"},
		{"workers", "[run]\nworkers = 5000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			if _, err := Load(path); err == nil {
				t.Fatalf("expected validation error for %q", tt.content)
			}
		})
	}
}

func TestLoadProject(t *testing.T) {
	root := t.TempDir()

	cfg, err := LoadProject(root, "")
	if err != nil {
		t.Fatalf("missing apiscribe.toml must not be an error: %v", err)
	}
	if cfg.Source != "" || cfg.Output.Backend != "mkdocs" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}

	if _, err := LoadProject(root, filepath.Join(root, "missing.toml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}

	writeConfig(t, root, "[output]\nbackend = \"mdbook\"\n")
	cfg, err = LoadProject(root, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Backend != "mdbook" {
		t.Fatalf("expected mdbook from project file, got %q", cfg.Output.Backend)
	}
}

func TestProjectName(t *testing.T) {
	root := filepath.Join(t.TempDir(), "widgets")
	cfg := Default()
	if got := cfg.ProjectName(root); got != "widgets" {
		t.Errorf("expected directory name, got %q", got)
	}
	cfg.Python.Package = "widgets_core"
	if got := cfg.ProjectName(root); got != "widgets_core" {
		t.Errorf("expected package name, got %q", got)
	}
	cfg.Project.Name = "Widgets"
	if got := cfg.ProjectName(root); got != "Widgets" {
		t.Errorf("expected configured name, got %q", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("APISCRIBE_OUTPUT_BACKEND", " MDBOOK ")
	t.Setenv("APISCRIBE_OUTPUT_CLEAN", "false")
	t.Setenv("APISCRIBE_WALK_EXCLUDE", "setup.py, build_tools ,")
	t.Setenv("APISCRIBE_RUN_WORKERS", "2")
	t.Setenv("APISCRIBE_RUN_UNKNOWN", "ignored")
	t.Setenv("APISCRIBE_QUALITY_FAIL_ON_WARNINGS", "not-a-bool")
	t.Setenv("APISCRIBE_WATCH_DEBOUNCE", "50ms")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	if cfg.Output.Backend != "mdbook" {
		t.Errorf("expected normalized backend override, got %q", cfg.Output.Backend)
	}
	if cfg.Output.CleanOutput() {
		t.Error("expected clean override to false")
	}
	if len(cfg.Walk.Exclude) != 2 || cfg.Walk.Exclude[1] != "build_tools" {
		t.Errorf("unexpected exclude override: %v", cfg.Walk.Exclude)
	}
	if cfg.Run.Workers != 2 {
		t.Errorf("expected workers override, got %d", cfg.Run.Workers)
	}
	if cfg.Quality.FailOnWarnings {
		t.Error("invalid bool must leave the value unchanged")
	}
	if cfg.Watch.Debounce != 50*time.Millisecond {
		t.Errorf("expected debounce override, got %v", cfg.Watch.Debounce)
	}
}
