package memory

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/opentrees/wfsget/internal/core/ports/driven"
)

// Ensure FileSystem implements the interface.
var _ driven.FileSystem = (*FileSystem)(nil)

// ErrDirNotEmpty is returned when removing a directory that still has entries.
var ErrDirNotEmpty = errors.New("directory not empty")

// FileSystem is an in-memory implementation of driven.FileSystem.
// Errors mirror the os package: missing files are *fs.PathError wrapping fs.ErrNotExist.
type FileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool
}

// NewFileSystem creates an empty in-memory filesystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

// MkdirAll records dir and its parents.
func (f *FileSystem) MkdirAll(dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for d := filepath.Clean(dir); d != "." && d != "/" && !f.dirs[d]; d = filepath.Dir(d) {
		f.dirs[d] = true
	}
	return nil
}

// WriteFile stores a copy of data at path.
func (f *FileSystem) WriteFile(path string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	f.files[filepath.Clean(path)] = buf
	return nil
}

// ReadFile returns a copy of the data at path.
func (f *FileSystem) ReadFile(path string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	data, ok := f.files[filepath.Clean(path)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// Remove deletes the file at path, or the directory at path when it is empty.
func (f *FileSystem) Remove(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := filepath.Clean(path)
	if _, ok := f.files[p]; ok {
		delete(f.files, p)
		return nil
	}
	if !f.dirs[p] {
		return &fs.PathError{Op: "remove", Path: path, Err: fs.ErrNotExist}
	}
	prefix := p + string(filepath.Separator)
	for name := range f.files {
		if strings.HasPrefix(name, prefix) {
			return &fs.PathError{Op: "remove", Path: path, Err: ErrDirNotEmpty}
		}
	}
	for name := range f.dirs {
		if strings.HasPrefix(name, prefix) {
			return &fs.PathError{Op: "remove", Path: path, Err: ErrDirNotEmpty}
		}
	}
	delete(f.dirs, p)
	return nil
}

// IsDir reports whether a directory is recorded at path.
func (f *FileSystem) IsDir(path string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dirs[filepath.Clean(path)]
}

// Exists reports whether a file is stored at path.
func (f *FileSystem) Exists(path string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.files[filepath.Clean(path)]
	return ok
}

// Files lists stored file paths in sorted order.
func (f *FileSystem) Files() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.files))
	for p := range f.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
