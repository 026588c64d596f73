package util

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// NormalizePatternPath turns a configured path such as a crate directory or
// an exclude pattern into slash form without a leading "./". The project
// root itself normalizes to "".
func NormalizePatternPath(s string) string {
	p := path.Clean(strings.TrimSpace(strings.ReplaceAll(s, "\\", "/")))
	if p == "." {
		return ""
	}
	return strings.TrimPrefix(p, "./")
}

// HasPathPrefix reports whether p is prefix or lies under it, comparing
// whole segments so "docs/demo" does not contain "docs/demo-extra".
func HasPathPrefix(p, prefix string) bool {
	p, prefix = NormalizePatternPath(p), NormalizePatternPath(prefix)
	switch {
	case p == "" || prefix == "":
		return p == prefix
	case p == prefix:
		return true
	}
	return strings.HasPrefix(p, prefix+"/")
}

// ContainsPathSeparator reports a forward or back slash, which a dotted
// module name never has.
func ContainsPathSeparator(value string) bool {
	return strings.ContainsAny(value, `/\`)
}

// SortedStringKeys returns the keys of m in byte order so generated files
// are written deterministically.
func SortedStringKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// WriteFileWithDirs writes a page, creating its parent directories first.
func WriteFileWithDirs(name string, data []byte, perm fs.FileMode) error {
	if dir := filepath.Dir(name); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(name, data, perm)
}
