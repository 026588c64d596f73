package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the per-project configuration file looked up in the root.
const FileName = "apiscribe.toml"

type Config struct {
	Version       int           `toml:"version"`
	Project       Project       `toml:"project"`
	Output        Output        `toml:"output"`
	Python        Python        `toml:"python"`
	Rust          Rust          `toml:"rust"`
	Walk          Walk          `toml:"walk"`
	Resolve       Resolve       `toml:"resolve"`
	Quality       Quality       `toml:"quality"`
	Run           Run           `toml:"run"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`

	// Source is the file the configuration was read from, empty for
	// built-in defaults.
	Source string `toml:"-"`
}

type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

type Output struct {
	Path    string `toml:"path"`
	Backend string `toml:"backend"`
	Layout  string `toml:"layout"`
	Clean   *bool  `toml:"clean"`
}

type Python struct {
	// Source is the directory holding the top-level packages, relative to
	// the project root.
	Source string `toml:"source"`
	// Package is the import name of the main package, used as the project
	// name when [project] name is unset.
	Package string `toml:"package"`
}

type Rust struct {
	Crates []Crate `toml:"crates"`
}

type Crate struct {
	Path   string `toml:"path"`
	Module string `toml:"module"`
}

type Walk struct {
	Exclude          []string `toml:"exclude"`
	RespectGitignore *bool    `toml:"respect_gitignore"`
}

type Resolve struct {
	Precedence string `toml:"precedence"`
}

type Quality struct {
	FailOnWarnings bool `toml:"fail_on_warnings"`
	VerifyLinks    bool `toml:"verify_links"`
}

type Run struct {
	Workers int `toml:"workers"`
}

type Watch struct {
	Debounce    time.Duration `toml:"debounce"`
	MinInterval time.Duration `toml:"min_interval"`
}

type Observability struct {
	MetricsPath   string `toml:"metrics_path"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	EnableTracing bool   `toml:"enable_tracing"`
}

// DefaultExclude skips build scripts and test trees that are not part of
// a package's public surface.
var DefaultExclude = []string{"setup.py", "conftest.py", "noxfile.py", "tests"}

// Default returns the configuration used when a project has no
// apiscribe.toml.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// CleanOutput reports whether the project subtree is cleared before writing.
func (o Output) CleanOutput() bool {
	return o.Clean == nil || *o.Clean
}

func (w Walk) Gitignore() bool {
	return w.RespectGitignore == nil || *w.RespectGitignore
}

// ProjectName picks the configured name, the main package, or the root
// directory name, in that order.
func (c *Config) ProjectName(root string) string {
	if name := strings.TrimSpace(c.Project.Name); name != "" {
		return name
	}
	if pkg := strings.TrimSpace(c.Python.Package); pkg != "" {
		return pkg
	}
	if abs, err := filepath.Abs(root); err == nil {
		return filepath.Base(abs)
	}
	return filepath.Base(root)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	cfg.Source = path

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateOutput(&cfg); err != nil {
		return nil, err
	}
	if err := validateRust(&cfg); err != nil {
		return nil, err
	}
	if err := validateWalk(&cfg); err != nil {
		return nil, err
	}
	if err := validateResolve(&cfg); err != nil {
		return nil, err
	}
	if err := validateRun(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadProject loads explicit when given, otherwise apiscribe.toml in root.
// A missing file in root yields the defaults; a missing explicit file is an
// error.
//
// Values the file leaves unset are inferred from Cargo.toml and
// pyproject.toml in root.
func LoadProject(root, explicit string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if strings.TrimSpace(explicit) != "" {
		cfg, err = Load(explicit)
	} else {
		cfg, err = Load(filepath.Join(root, FileName))
		if errors.Is(err, fs.ErrNotExist) {
			cfg, err = Default(), nil
		}
	}
	if err != nil {
		return nil, err
	}

	manifest, err := ReadManifest(root)
	if err != nil {
		return nil, err
	}
	cfg.Infer(manifest)
	normalize(cfg)
	if err := validateRust(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Output.Path) == "" {
		cfg.Output.Path = "docs"
	}
	if strings.TrimSpace(cfg.Output.Backend) == "" {
		cfg.Output.Backend = "mkdocs"
	}
	if strings.TrimSpace(cfg.Output.Layout) == "" {
		cfg.Output.Layout = "project-first"
	}

	if cfg.Walk.Exclude == nil {
		cfg.Walk.Exclude = append([]string(nil), DefaultExclude...)
	}

	if strings.TrimSpace(cfg.Resolve.Precedence) == "" {
		cfg.Resolve.Precedence = "compiled"
	}

	// Zero workers means one per CPU; the run phase decides.
	if cfg.Run.Workers < 0 {
		cfg.Run.Workers = 0
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if cfg.Watch.MinInterval == 0 {
		cfg.Watch.MinInterval = time.Second
	}
}

func normalize(cfg *Config) {
	cfg.Project.Name = strings.TrimSpace(cfg.Project.Name)
	cfg.Project.Version = strings.TrimSpace(cfg.Project.Version)
	cfg.Output.Path = strings.TrimSpace(cfg.Output.Path)
	cfg.Output.Backend = strings.ToLower(strings.TrimSpace(cfg.Output.Backend))
	cfg.Output.Layout = strings.ToLower(strings.TrimSpace(cfg.Output.Layout))
	cfg.Python.Source = strings.TrimSpace(cfg.Python.Source)
	cfg.Python.Package = strings.TrimSpace(cfg.Python.Package)
	cfg.Resolve.Precedence = strings.ToLower(strings.TrimSpace(cfg.Resolve.Precedence))
	for i := range cfg.Rust.Crates {
		cfg.Rust.Crates[i].Path = strings.TrimSpace(cfg.Rust.Crates[i].Path)
		cfg.Rust.Crates[i].Module = strings.TrimSpace(cfg.Rust.Crates[i].Module)
	}
	cfg.Observability.MetricsPath = strings.TrimSpace(cfg.Observability.MetricsPath)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)
}
