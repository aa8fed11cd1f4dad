package fsys

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Mem is an in-memory FS. The zero value is not usable; call NewMem.
type Mem struct {
	mu     sync.RWMutex
	files  map[string][]byte
	dirs   map[string]bool
	writes map[string]int
	// FailWrites makes WriteFile fail for the listed paths.
	FailWrites map[string]error
}

// NewMem creates an empty in-memory filesystem.
func NewMem() *Mem {
	return &Mem{
		files:      make(map[string][]byte),
		dirs:       make(map[string]bool),
		writes:     make(map[string]int),
		FailWrites: make(map[string]error),
	}
}

// AddFile stores a file and registers its parent directories.
func (m *Mem) AddFile(path string, content string) *Mem {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.files[path] = []byte(content)
	m.addParents(path)
	return m
}

// AddDir registers a directory and its parents.
func (m *Mem) AddDir(path string) *Mem {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.dirs[path] = true
	m.addParents(path)
	return m
}

func (m *Mem) addParents(path string) {
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		m.dirs[dir] = true
		if dir == filepath.Dir(dir) {
			return
		}
	}
}

// Content returns the current content of path, or "" when missing.
func (m *Mem) Content(path string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return string(m.files[filepath.Clean(path)])
}

// Writes returns how many times WriteFile succeeded for path.
func (m *Mem) Writes(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes[filepath.Clean(path)]
}

func (m *Mem) ReadFile(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *Mem) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if err, ok := m.FailWrites[path]; ok {
		return &fs.PathError{Op: "write", Path: path, Err: err}
	}
	if !m.dirs[filepath.Dir(path)] {
		return &fs.PathError{Op: "write", Path: path, Err: fs.ErrNotExist}
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	m.files[path] = stored
	m.writes[path]++
	return nil
}

func (m *Mem) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok
}

func (m *Mem) DirExists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirs[filepath.Clean(path)]
}

func (m *Mem) Glob(dir, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	dir = filepath.Clean(dir)
	prefix := dir + string(filepath.Separator)
	if dir == string(filepath.Separator) {
		prefix = dir
	}

	var out []string
	for path := range m.files {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rel := filepath.ToSlash(strings.TrimPrefix(path, prefix))
		if ok, _ := doublestar.Match(pattern, rel); ok {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out, nil
}
