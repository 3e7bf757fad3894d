// Package localfs implements driven.FileSystem on the local disk.
package localfs

import (
	"os"

	"github.com/opentrees/wfsget/internal/core/ports/driven"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Ensure FileSystem implements the interface.
var _ driven.FileSystem = (*FileSystem)(nil)

// FileSystem reads and writes real files. Paths are used as given.
type FileSystem struct{}

// New creates a local filesystem.
func New() *FileSystem {
	return &FileSystem{}
}

// MkdirAll creates dir and any missing parents.
func (FileSystem) MkdirAll(dir string) error {
	return os.MkdirAll(dir, dirPerm)
}

// WriteFile creates or truncates path and writes data.
func (FileSystem) WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, filePerm)
}

// ReadFile returns the contents of path.
func (FileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Remove deletes the file or empty directory at path.
func (FileSystem) Remove(path string) error {
	return os.Remove(path)
}
