package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ErrConfigExists is returned by WriteStarter when the project already has
// a configuration file and overwriting was not requested.
var ErrConfigExists = errors.New(FileName + " already exists")

const starterHeader = `# apiscribe configuration.
# Values left out here are inferred from Cargo.toml and pyproject.toml.

`

type starterFile struct {
	Version int            `toml:"version"`
	Project starterProject `toml:"project"`
	Output  starterOutput  `toml:"output"`
	Python  *starterPython `toml:"python,omitempty"`
	Rust    *starterRust   `toml:"rust,omitempty"`
}

type starterProject struct {
	Name string `toml:"name"`
}

type starterOutput struct {
	Path    string `toml:"path"`
	Backend string `toml:"backend"`
}

type starterPython struct {
	Package string `toml:"package,omitempty"`
	Source  string `toml:"source,omitempty"`
}

type starterRust struct {
	Crates []starterCrate `toml:"crates"`
}

type starterCrate struct {
	Path   string `toml:"path"`
	Module string `toml:"module,omitempty"`
}

// Starter renders the apiscribe.toml that init writes for root, seeded from
// the project's manifests.
func Starter(root, backend string) ([]byte, error) {
	m, err := ReadManifest(root)
	if err != nil {
		return nil, err
	}
	if backend == "" {
		backend = "mkdocs"
	}
	cfg := Default()
	cfg.Infer(m)

	file := starterFile{
		Version: 1,
		Project: starterProject{Name: cfg.ProjectName(root)},
		Output:  starterOutput{Path: cfg.Output.Path, Backend: backend},
	}
	if cfg.Python.Package != "" || cfg.Python.Source != "" {
		file.Python = &starterPython{Package: cfg.Python.Package, Source: cfg.Python.Source}
	}
	if len(cfg.Rust.Crates) > 0 {
		file.Rust = &starterRust{}
		for _, c := range cfg.Rust.Crates {
			file.Rust.Crates = append(file.Rust.Crates, starterCrate{Path: c.Path, Module: c.Module})
		}
	}

	var buf bytes.Buffer
	buf.WriteString(starterHeader)
	if err := toml.NewEncoder(&buf).Encode(file); err != nil {
		return nil, fmt.Errorf("encode %s: %w", FileName, err)
	}
	return buf.Bytes(), nil
}

// WriteStarter creates apiscribe.toml in root and returns its path. An
// existing file is only replaced when force is set.
func WriteStarter(root, backend string, force bool) (string, error) {
	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); err == nil && !force {
		return path, ErrConfigExists
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return path, err
	}
	data, err := Starter(root, backend)
	if err != nil {
		return path, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return path, err
	}
	return path, nil
}
