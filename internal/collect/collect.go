package collect

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrInputNotFound is returned when the input path does not exist.
var ErrInputNotFound = errors.New("input path not found")

// ErrNotHTML is returned when the input is a single file without an HTML extension.
var ErrNotHTML = errors.New("input file is not an HTML file")

// IsHTML reports whether path has a .html or .htm extension, ignoring case.
func IsHTML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	default:
		return false
	}
}

// HTMLFiles returns every HTML file under root, sorted and without duplicates.
// A root that is itself an HTML file yields a one-element list.
func HTMLFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, root)
		}
		return nil, err
	}

	if !info.IsDir() {
		if !IsHTML(root) {
			return nil, fmt.Errorf("%w: %s", ErrNotHTML, root)
		}
		return []string{filepath.Clean(root)}, nil
	}

	files := make([]string, 0)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsHTML(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}
