package backend

import (
	"fmt"
	"path"
	"strings"

	"apiscribe/internal/core/errors"
)

type Layout string

const (
	// ProjectFirst nests pages under a directory named after the project.
	ProjectFirst Layout = "project-first"
	Flat         Layout = "flat"
)

func ParseLayout(name string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(name))) {
	case "", ProjectFirst:
		return ProjectFirst, nil
	case Flat:
		return Flat, nil
	}
	return "", errors.New(errors.CodeValidationError,
		fmt.Sprintf("unknown layout %q (supported: project-first, flat)", name))
}

// Site fixes where the pages of one project land.
type Site struct {
	Backend Backend
	Layout  Layout
	Project string
}

// base is the directory of every page, relative to the content directory.
func (s Site) base() string {
	if s.Layout == Flat || s.Project == "" {
		return ""
	}
	return s.Project
}

// ModulePath is the page of a module, relative to the content directory.
func (s Site) ModulePath(module string) string {
	return path.Join(s.base(), strings.ReplaceAll(module, ".", "/")+".md")
}

// SymbolPath is the page of a top-level class-like symbol.
func (s Site) SymbolPath(module, name string) string {
	return path.Join(s.base(), strings.ReplaceAll(module, ".", "/"), name+".md")
}

// OutputPath joins a content-relative page path onto the output root.
func (s Site) OutputPath(rel string) string {
	return path.Join(s.Backend.ContentDir, rel)
}

// Owned lists the content-relative paths a run for this project regenerates,
// given the top-level package and module names. They are cleared before
// writing so removed symbols leave no stale pages.
func (s Site) Owned(heads []string) []string {
	if s.base() != "" {
		return []string{s.base()}
	}
	var out []string
	for _, h := range heads {
		out = append(out, h, h+".md")
	}
	return out
}

// Link returns the relative link from one page to another.
func Link(from, to string) string {
	if from == to {
		return path.Base(to)
	}
	fromDir := strings.Split(path.Dir(from), "/")
	if path.Dir(from) == "." {
		fromDir = nil
	}
	toParts := strings.Split(to, "/")
	i := 0
	for i < len(fromDir) && i < len(toParts)-1 && fromDir[i] == toParts[i] {
		i++
	}
	var parts []string
	for range fromDir[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, toParts[i:]...)
	return strings.Join(parts, "/")
}
