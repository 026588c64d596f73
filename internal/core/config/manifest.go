package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest holds the values read from a project's Cargo.toml and
// pyproject.toml that can stand in for unset configuration.
type Manifest struct {
	Name          string
	Version       string
	PythonPackage string
	PythonSource  string
	Crates        []Crate
}

type cargoManifest struct {
	Package *struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"package"`
	Workspace *struct {
		Members []string `toml:"members"`
	} `toml:"workspace"`
	Dependencies map[string]toml.Primitive `toml:"dependencies"`
}

type pyprojectManifest struct {
	Project *struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"project"`
	Tool struct {
		Maturin *struct {
			PythonSource string `toml:"python-source"`
			ModuleName   string `toml:"module-name"`
		} `toml:"maturin"`
		Setuptools *struct {
			PackageDir map[string]string `toml:"package-dir"`
		} `toml:"setuptools"`
	} `toml:"tool"`
}

// ReadManifest collects project metadata from the manifests in root. Missing
// manifests are skipped; a manifest that does not decode is an error.
func ReadManifest(root string) (Manifest, error) {
	var m Manifest

	var cargo cargoManifest
	found, err := decodeManifest(filepath.Join(root, "Cargo.toml"), &cargo)
	if err != nil {
		return m, err
	}
	if found {
		if cargo.Package != nil {
			m.Name = strings.TrimSpace(cargo.Package.Name)
			m.Version = strings.TrimSpace(cargo.Package.Version)
		}
		switch {
		case cargo.Workspace != nil && len(cargo.Workspace.Members) > 0:
			for _, member := range cargo.Workspace.Members {
				if bindsPython(root, member) {
					m.Crates = append(m.Crates, Crate{Path: filepath.ToSlash(member)})
				}
			}
		case cargo.Package != nil && hasPyO3(cargo):
			m.Crates = []Crate{{Path: "."}}
		}
	}

	var py pyprojectManifest
	found, err = decodeManifest(filepath.Join(root, "pyproject.toml"), &py)
	if err != nil {
		return m, err
	}
	if !found {
		return m, nil
	}
	if py.Project != nil {
		if name := strings.TrimSpace(py.Project.Name); name != "" {
			m.Name = name
			m.PythonPackage = strings.ReplaceAll(name, "-", "_")
		}
		if v := strings.TrimSpace(py.Project.Version); v != "" {
			m.Version = v
		}
	}
	switch {
	case py.Tool.Maturin != nil:
		m.PythonSource = strings.TrimSpace(py.Tool.Maturin.PythonSource)
		if mod := strings.TrimSpace(py.Tool.Maturin.ModuleName); mod != "" && len(m.Crates) == 1 {
			m.Crates[0].Module = mod
		}
	case py.Tool.Setuptools != nil:
		m.PythonSource = strings.TrimSpace(py.Tool.Setuptools.PackageDir[""])
	}
	return m, nil
}

func decodeManifest(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := toml.Decode(string(data), v); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

func hasPyO3(c cargoManifest) bool {
	_, ok := c.Dependencies["pyo3"]
	return ok
}

// bindsPython reports whether a workspace member depends on pyo3. Members
// whose manifest cannot be read are skipped.
func bindsPython(root, member string) bool {
	var c cargoManifest
	found, err := decodeManifest(filepath.Join(root, filepath.FromSlash(member), "Cargo.toml"), &c)
	return err == nil && found && hasPyO3(c)
}

// Infer fills configuration values the file left unset from m. Explicit
// values always win.
func (c *Config) Infer(m Manifest) {
	if c.Project.Name == "" {
		c.Project.Name = m.Name
	}
	if c.Project.Version == "" {
		c.Project.Version = m.Version
	}
	if c.Python.Package == "" {
		c.Python.Package = m.PythonPackage
	}
	if c.Python.Source == "" {
		c.Python.Source = m.PythonSource
	}
	if len(c.Rust.Crates) == 0 && len(m.Crates) > 0 {
		c.Rust.Crates = append([]Crate(nil), m.Crates...)
	}
}
