package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizePatternPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "ProjectRoot", input: ".", expected: ""},
		{name: "Empty", input: "  ", expected: ""},
		{name: "CrateDir", input: "  ./crates/native/ ", expected: "crates/native"},
		{name: "WindowsCrateDir", input: `crates\native`, expected: "crates/native"},
		{name: "ExcludeGlob", input: "./**/_vendor/**", expected: "**/_vendor/**"},
		{name: "ParentSegments", input: "python/../src/pkg", expected: "src/pkg"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizePatternPath(tc.input); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestHasPathPrefix(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		path     string
		prefix   string
		expected bool
	}{
		{name: "OutputDir", path: "docs/demo", prefix: "docs/demo", expected: true},
		{name: "GeneratedPage", path: "docs/demo/pkg/core.md", prefix: "docs", expected: true},
		{name: "SiblingProject", path: "docs/demo-extra/index.md", prefix: "docs/demo", expected: false},
		{name: "ParentOfOutput", path: "docs", prefix: "docs/demo", expected: false},
		{name: "WindowsSeparators", path: `crates\native\src\lib.rs`, prefix: "crates/native", expected: true},
		{name: "DotPrefixed", path: "./pkg/_native.py", prefix: "pkg", expected: true},
		{name: "RootOnly", path: "", prefix: "", expected: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := HasPathPrefix(tc.path, tc.prefix); got != tc.expected {
				t.Fatalf("HasPathPrefix(%q, %q) = %v, want %v", tc.path, tc.prefix, got, tc.expected)
			}
		})
	}
}

func TestContainsPathSeparator(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"pkg._native":      false,
		"demo_pkg":         false,
		"pkg/_native":      true,
		`pkg\_native`:      true,
		"crates/native.rs": true,
	}
	for value, expected := range cases {
		if got := ContainsPathSeparator(value); got != expected {
			t.Fatalf("ContainsPathSeparator(%q) = %v, want %v", value, got, expected)
		}
	}
}

func TestSortedStringKeys(t *testing.T) {
	t.Parallel()

	nav := map[string][]byte{
		"mkdocs.nav.yml":  nil,
		"SUMMARY.md":      nil,
		"demo/index.md":   nil,
		"demo/pkg/api.md": nil,
	}
	keys := SortedStringKeys(nav)
	expected := []string{"SUMMARY.md", "demo/index.md", "demo/pkg/api.md", "mkdocs.nav.yml"}
	if len(keys) != len(expected) {
		t.Fatalf("expected %d keys, got %d", len(expected), len(keys))
	}
	for i, key := range expected {
		if keys[i] != key {
			t.Fatalf("expected %q at %d, got %q", key, i, keys[i])
		}
	}
}

func TestWriteFileWithDirs(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	page := filepath.Join(out, "demo", "pkg", "_native", "Counter.md")
	content := []byte("# `Counter`\n")

	if err := WriteFileWithDirs(page, content, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	got, err := os.ReadFile(page)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("expected %q, got %q", content, got)
	}

	// Rewriting replaces the page in place.
	if err := WriteFileWithDirs(page, []byte("# `Counter`\n\nUpdated.\n"), 0o644); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}
	if got, _ := os.ReadFile(page); string(got) != "# `Counter`\n\nUpdated.\n" {
		t.Fatalf("page not replaced: %q", got)
	}
}

func TestHeapAllocMB(t *testing.T) {
	t.Parallel()

	// A 64 MiB slice must be visible in the live heap while it is referenced.
	buf := make([]byte, 64<<20)
	if got := HeapAllocMB(); got < 64 {
		t.Fatalf("expected at least 64 MiB live heap, got %d", got)
	}
	buf[len(buf)-1] = 1
}
