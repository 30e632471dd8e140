package tester

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoInputDir is returned when the input directory is missing.
var ErrNoInputDir = errors.New("input directory doesn't exist")

// ListInputs returns input files of indir with extension ext, sorted.
func ListInputs(indir, ext string) ([]string, error) {
	st, err := os.Stat(indir)
	if err != nil || !st.IsDir() {
		return nil, fmt.Errorf("%w: Input directory `%s` doesn't exist.", ErrNoInputDir, indir)
	}
	entries, err := os.ReadDir(indir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", indir, err)
	}
	var inputs []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), "."+ext) {
			continue
		}
		inputs = append(inputs, filepath.Join(indir, e.Name()))
	}
	sort.Strings(inputs)
	return inputs, nil
}

// ClearTemp removes leftover temporary outputs from dir and returns the
// number of removed files.
func ClearTemp(dir, tempExt string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*."+tempExt))
	if err != nil {
		return 0, err
	}
	removed := 0
	var errs []error
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
