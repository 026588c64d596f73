package app

import (
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"

	"apiscribe/internal/core/errors"
	"apiscribe/internal/shared/util"
)

// write clears the subtree this project owns and writes pages and
// navigation files. It returns the written paths relative to the output
// directory. Any failure here is fatal.
func (a *App) write(pages []renderedPage, navFiles map[string][]byte, heads []string) ([]string, error) {
	outDir := a.Paths.OutputDir
	content := a.Site.Backend.ContentDir

	if err := checkWritable(filepath.Join(outDir, filepath.FromSlash(content))); err != nil {
		return nil, err
	}
	if a.Config.Output.CleanOutput() {
		for _, owned := range a.Site.Owned(heads) {
			target := filepath.Join(outDir, filepath.FromSlash(path.Join(content, owned)))
			if err := os.RemoveAll(target); err != nil {
				return nil, errors.FatalIO(err, target, "cannot clear previous output")
			}
			slog.Debug("cleared output", "path", target)
		}
	}

	files := make([]string, 0, len(pages)+len(navFiles))
	for _, p := range pages {
		rel := a.Site.OutputPath(p.path)
		if err := writeFile(outDir, rel, []byte(p.content)); err != nil {
			return nil, err
		}
		files = append(files, rel)
	}
	for _, rel := range util.SortedStringKeys(navFiles) {
		if err := writeFile(outDir, rel, navFiles[rel]); err != nil {
			return nil, err
		}
		files = append(files, rel)
	}
	sort.Strings(files)
	return files, nil
}

// checkWritable creates dir and writes a scratch file into it, so an
// unwritable output fails before previous output is cleared.
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.FatalIO(err, dir, "cannot create output directory")
	}
	f, err := os.CreateTemp(dir, ".apiscribe-write-*")
	if err != nil {
		return errors.FatalIO(err, dir, "output directory is not writable")
	}
	name := f.Name()
	f.Close()
	if err := os.Remove(name); err != nil {
		return errors.FatalIO(err, name, "cannot remove scratch file")
	}
	return nil
}

func writeFile(outDir, rel string, data []byte) error {
	target := filepath.Join(outDir, filepath.FromSlash(rel))
	if err := util.WriteFileWithDirs(target, data, 0o644); err != nil {
		return errors.FatalIO(err, target, "cannot write output")
	}
	return nil
}
