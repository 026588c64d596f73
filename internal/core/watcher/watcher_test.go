// # internal/core/watcher/watcher_test.go
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitFor(t *testing.T, changed <-chan []string, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change of %s", want)
		}
	}
}

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(Options{Debounce: 100 * time.Millisecond}, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(Options{Debounce: 100 * time.Millisecond}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "module.py")
	if err := os.WriteFile(testFile, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, testFile, 2*time.Second)

	// Files the pipeline does not read are ignored.
	ignored := filepath.Join(tmpDir, "notes.txt")
	if err := os.WriteFile(ignored, []byte("ignore me"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changedFiles:
		for _, p := range paths {
			if p == ignored {
				t.Error("unrelated file triggered a change")
			}
		}
	case <-time.After(500 * time.Millisecond):
	}

	// New directories are watched recursively after creation.
	subdir := filepath.Join(tmpDir, "pkg")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "core.pyi")
	if err := os.WriteFile(subFile, []byte("def f() -> int: ...\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, subFile, 2*time.Second)
}

func TestWatcher_IdenticalContentIsIgnored(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "lib.rs")
	content := []byte("fn main() {}\n")
	if err := os.WriteFile(testFile, content, 0o644); err != nil {
		t.Fatal(err)
	}

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(Options{Debounce: 50 * time.Millisecond}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(testFile, content, 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changedFiles:
		t.Fatalf("received unexpected change for identical content: %v", paths)
	case <-time.After(300 * time.Millisecond):
	}

	if err := os.WriteFile(testFile, []byte("fn main() { println!(\"1\"); }\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, testFile, 2*time.Second)
}

func TestWatcher_Filters(t *testing.T) {
	out := filepath.Join(t.TempDir(), "docs")
	w, err := NewWatcher(Options{Debounce: 10 * time.Millisecond, SkipPaths: []string{out}}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	for _, name := range []string{"a.py", "a.pyi", "lib.rs", "apiscribe.toml", "Cargo.toml"} {
		if w.shouldExcludeFile(filepath.Join("/src", name)) {
			t.Errorf("expected %s to be watched", name)
		}
	}
	for _, name := range []string{"a.md", "a.pyc", "README"} {
		if !w.shouldExcludeFile(filepath.Join("/src", name)) {
			t.Errorf("expected %s to be ignored", name)
		}
	}
	if !w.shouldExcludeFile(filepath.Join(out, "pkg", "mod.py")) {
		t.Error("expected files under the output directory to be ignored")
	}
	for _, dir := range []string{".git", "__pycache__", "target", "demo.egg-info"} {
		if !w.shouldExcludeDir(filepath.Join("/src", dir)) {
			t.Errorf("expected directory %s to be skipped", dir)
		}
	}
	if w.shouldExcludeDir("/src/pkg") {
		t.Error("expected package directories to be watched")
	}
}
