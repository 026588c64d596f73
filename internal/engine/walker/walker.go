// Package walker discovers the on-disk package tree of a project and tags
// each module with the provenance of its symbol information.
package walker

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"apiscribe/internal/core/diagnostics"
	"apiscribe/internal/core/errors"
	"apiscribe/internal/engine/model"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"
)

var skipDirs = map[string]struct{}{
	"__pycache__":   {},
	"node_modules":  {},
	".git":          {},
	".hg":           {},
	"venv":          {},
	".venv":         {},
	"build":         {},
	"dist":          {},
	".tox":          {},
	".mypy_cache":   {},
	".ruff_cache":   {},
	".pytest_cache": {},
	"site-packages": {},
	"target":        {},
}

// Crate is a PyO3 binding crate whose Rust sources describe a compiled
// module.
type Crate struct {
	// Path of the crate directory, relative to the project root.
	Path string
	// Module overrides the qualified name taken from #[pymodule].
	Module string
}

type Options struct {
	Root string
	// Source is the directory holding the top-level packages, relative to
	// Root. Empty means Root itself.
	Source           string
	Exclude          []string
	RespectGitignore bool
	Crates           []Crate
}

// Unit is one parse job: a module whose content must be read and extracted.
type Unit struct {
	Module *model.ModuleNode
	// Files lists absolute paths to read. Python modules have one file;
	// Rust crates have every .rs file under src, sorted.
	Files []string
	Crate *Crate
}

// Tree is the walker output.
type Tree struct {
	Root  *model.PackageNode
	Units []Unit
}

type walker struct {
	ctx      context.Context
	root     string
	excludes []glob.Glob
	gi       *ignore.GitIgnore
	units    []Unit
	diags    []diagnostics.Diagnostic
}

// Walk builds the package tree under opts.Root. Per-directory read failures
// are returned as diagnostics; a missing or unreadable root is fatal.
func Walk(ctx context.Context, opts Options) (*Tree, []diagnostics.Diagnostic, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, nil, errors.FatalIO(err, opts.Root, "cannot resolve project root")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, errors.FatalIO(err, opts.Root, "project root is not readable")
	}
	if !info.IsDir() {
		return nil, nil, errors.FatalIO(fmt.Errorf("not a directory"), opts.Root, "project root is not a directory")
	}

	w := &walker{ctx: ctx, root: root}
	for _, pattern := range opts.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid exclude pattern %q", pattern))
		}
		w.excludes = append(w.excludes, g)
	}
	if opts.RespectGitignore {
		if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
			w.gi = gi
		}
	}

	srcDir := filepath.Join(root, filepath.FromSlash(opts.Source))
	if _, err := os.Stat(srcDir); err != nil {
		return nil, nil, errors.FatalIO(err, srcDir, "python source directory is not readable")
	}
	tree := &model.PackageNode{Path: w.rel(srcDir), Provenance: model.SourceProvenance()}
	if err := w.walkDir(srcDir, tree); err != nil {
		return nil, nil, err
	}

	for i := range opts.Crates {
		if err := w.crate(&opts.Crates[i]); err != nil {
			return nil, nil, err
		}
	}
	return &Tree{Root: tree, Units: w.units}, w.diags, nil
}

// stemFiles groups the Python-relevant files sharing one module name.
type stemFiles struct {
	py, pyi, ext string
}

func (w *walker) walkDir(dir string, pkg *model.PackageNode) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.diags = append(w.diags, diagnostics.Diagnostic{
			Kind: diagnostics.IOWarning, Path: w.rel(dir), Message: err.Error(),
		})
		return nil
	}

	stems := make(map[string]*stemFiles)
	var subdirs []fs.DirEntry
	for _, e := range entries {
		name := e.Name()
		full := filepath.Join(dir, name)
		if e.IsDir() {
			if w.skipDir(full, name) {
				continue
			}
			subdirs = append(subdirs, e)
			continue
		}
		if strings.HasPrefix(name, ".") || e.Type()&os.ModeSymlink != 0 || w.excluded(full, false) {
			continue
		}
		stem, kind := classify(name)
		if kind == "" {
			continue
		}
		sf := stems[stem]
		if sf == nil {
			sf = &stemFiles{}
			stems[stem] = sf
		}
		switch kind {
		case ".py":
			sf.py = full
		case ".pyi":
			sf.pyi = full
		default:
			sf.ext = full
		}
	}

	names := make([]string, 0, len(stems))
	for stem := range stems {
		names = append(names, stem)
	}
	sort.Strings(names)
	for _, stem := range names {
		isInit := stem == "__init__"
		qn := model.Qualify(pkg.QualifiedName, stem)
		if isInit {
			qn = pkg.QualifiedName
			if qn == "" {
				// An initializer at the source root is not importable.
				continue
			}
		}
		for _, mod := range w.modules(qn, isInit, stems[stem]) {
			mod.Package = pkg.QualifiedName
			if isInit && pkg.Init == nil {
				pkg.Init = mod
			} else {
				pkg.Modules = append(pkg.Modules, mod)
			}
		}
	}

	for _, d := range subdirs {
		full := filepath.Join(dir, d.Name())
		if !isIdentifier(d.Name()) {
			continue
		}
		child := &model.PackageNode{
			Path:          w.rel(full),
			QualifiedName: model.Qualify(pkg.QualifiedName, d.Name()),
			Provenance:    model.SourceProvenance(),
		}
		if err := w.walkDir(full, child); err != nil {
			return err
		}
		regular := child.Init != nil
		if !regular && len(child.Modules) == 0 && len(child.Packages) == 0 {
			// Plain directories only count once they hold modules.
			continue
		}
		if child.Init != nil && child.Init.Provenance.IsCompiled() {
			child.Provenance = model.CompiledProvenance()
		}
		pkg.Packages = append(pkg.Packages, child)
	}
	return nil
}

// modules turns the files of one stem into module nodes. A compiled artifact
// or a stub without source yields a compiled module; a .py next to a compiled
// artifact is an overlay of it.
func (w *walker) modules(qn string, isInit bool, sf *stemFiles) []*model.ModuleNode {
	var out []*model.ModuleNode
	compiled := sf.ext != "" || (sf.pyi != "" && sf.py == "")
	if compiled {
		mod := &model.ModuleNode{
			QualifiedName: qn,
			IsPackage:     isInit,
			Provenance:    model.CompiledProvenance(),
		}
		switch {
		case sf.pyi != "":
			mod.Origin = model.OriginStub
			mod.Path = w.rel(sf.pyi)
			w.units = append(w.units, Unit{Module: mod, Files: []string{sf.pyi}})
		default:
			// No interface description: symbols stay opaque.
			mod.Origin = model.OriginExtension
			mod.Path = w.rel(sf.ext)
		}
		out = append(out, mod)
	}
	if sf.py != "" {
		mod := &model.ModuleNode{
			QualifiedName: qn,
			Origin:        model.OriginPython,
			IsPackage:     isInit,
			Path:          w.rel(sf.py),
			Provenance:    model.SourceProvenance(),
		}
		if compiled {
			mod.Provenance = model.OverlayProvenance(qn)
		}
		w.units = append(w.units, Unit{Module: mod, Files: []string{sf.py}})
		out = append(out, mod)
	}
	return out
}

func (w *walker) crate(c *Crate) error {
	dir := filepath.Join(w.root, filepath.FromSlash(c.Path))
	src := filepath.Join(dir, "src")
	if _, err := os.Stat(src); err != nil {
		w.diags = append(w.diags, diagnostics.Diagnostic{
			Kind: diagnostics.IOWarning, Path: c.Path, Message: "crate has no src directory",
		})
		return nil
	}
	var files []string
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			w.diags = append(w.diags, diagnostics.Diagnostic{
				Kind: diagnostics.IOWarning, Path: w.rel(p), Message: err.Error(),
			})
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(p) == ".rs" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(files)
	mod := &model.ModuleNode{
		QualifiedName: c.Module,
		Origin:        model.OriginRust,
		Path:          w.rel(dir),
		Provenance:    model.CompiledProvenance(),
	}
	w.units = append(w.units, Unit{Module: mod, Files: files, Crate: c})
	return nil
}

func (w *walker) skipDir(full, name string) bool {
	if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".egg-info") {
		return true
	}
	return w.excluded(full, true)
}

func (w *walker) excluded(full string, isDir bool) bool {
	rel := w.rel(full)
	base := path.Base(rel)
	for _, g := range w.excludes {
		if g.Match(rel) || g.Match(base) {
			return true
		}
	}
	if w.gi != nil {
		if isDir {
			return w.gi.MatchesPath(rel + "/")
		}
		return w.gi.MatchesPath(rel)
	}
	return false
}

// rel returns full relative to the project root, slash separated.
func (w *walker) rel(full string) string {
	rel, err := filepath.Rel(w.root, full)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

// classify maps a file name to its module stem and artifact kind. Extension
// modules carry an ABI tag: `_core.cpython-312-x86_64-linux-gnu.so`.
func classify(name string) (stem, kind string) {
	switch ext := filepath.Ext(name); ext {
	case ".py", ".pyi":
		stem = strings.TrimSuffix(name, ext)
		kind = ext
	case ".so", ".pyd":
		stem, _, _ = strings.Cut(strings.TrimSuffix(name, ext), ".")
		kind = ext
	default:
		return "", ""
	}
	if !isIdentifier(stem) {
		return "", ""
	}
	return stem, kind
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
