package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolvedPaths holds the absolute locations a run reads from and writes to.
type ResolvedPaths struct {
	ProjectRoot string
	SourceDir   string
	OutputDir   string
	ConfigFile  string
	Crates      []string
}

func ResolvePaths(cfg *Config, root string) (ResolvedPaths, error) {
	if strings.TrimSpace(root) == "" {
		return ResolvedPaths{}, fmt.Errorf("project root must not be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return ResolvedPaths{}, err
	}

	resolved := ResolvedPaths{
		ProjectRoot: filepath.Clean(abs),
		SourceDir:   ResolveRelative(abs, cfg.Python.Source),
		OutputDir:   ResolveRelative(abs, cfg.Output.Path),
	}
	if cfg.Source != "" {
		resolved.ConfigFile = ResolveRelative(abs, cfg.Source)
	}
	for _, crate := range cfg.Rust.Crates {
		resolved.Crates = append(resolved.Crates, ResolveRelative(abs, crate.Path))
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DetectProjectRoot walks up from start to the nearest directory holding
// an apiscribe.toml or a Python project marker. It falls back to start.
func DetectProjectRoot(start string) (string, error) {
	markers := []string{FileName, "pyproject.toml", "setup.cfg", ".git"}

	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	dir := abs
	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return filepath.Clean(dir), nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return filepath.Clean(abs), nil
}
