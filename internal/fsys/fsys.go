// Package fsys isolates the handful of filesystem operations the patcher needs
// so that patch logic can run against an in-memory tree in tests.
package fsys

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// FS is the filesystem surface used by the patcher.
type FS interface {
	ReadFile(path string) ([]byte, error)
	// WriteFile replaces the whole file. Implementations must not leave a
	// partially written file behind on failure.
	WriteFile(path string, data []byte) error
	// Exists reports whether path is an existing regular file.
	Exists(path string) bool
	DirExists(path string) bool
	// Glob returns the paths below dir whose dir-relative slash path matches
	// the doublestar pattern, sorted.
	Glob(dir, pattern string) ([]string, error)
}

// OS is the real filesystem.
type OS struct{}

// NewOS returns the real filesystem.
func NewOS() OS {
	return OS{}
}

func (OS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes to a temp file next to path and renames it into place,
// keeping the original file mode when the file already exists.
func (OS) WriteFile(path string, data []byte) error {
	mode := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (OS) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (OS) DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (OS) Glob(dir, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(dir, filepath.FromSlash(m)))
	}
	sort.Strings(out)
	return out, nil
}
