package driven

// FileSystem is the storage capability the engine writes artifacts through.
type FileSystem interface {
	// MkdirAll creates a directory and any missing parents.
	MkdirAll(dir string) error

	// WriteFile creates or truncates path and writes data.
	WriteFile(path string, data []byte) error

	// ReadFile returns the content of path.
	ReadFile(path string) ([]byte, error)

	// Remove deletes a file or an empty directory.
	Remove(path string) error
}
