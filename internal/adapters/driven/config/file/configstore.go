package file

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/opentrees/wfsget/internal/core/ports/driven"
)

const (
	configFileName = "config.toml"
	dirPerm        = 0o700
	// The file may hold http.token.
	filePerm = 0o600
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in a TOML file. Keys are dotted paths and each
// leading segment becomes a table, so "wfs.page_size_v2" is stored as
//
//	[wfs]
//	page_size_v2 = 1000
type ConfigStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]any
}

// NewConfigStore opens configDir/config.toml, creating configDir when needed.
// An empty configDir means ~/.wfsget. A missing file is an empty store.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate home directory: %w", err)
		}
		configDir = filepath.Join(home, ".wfsget")
	}
	if err := os.MkdirAll(configDir, dirPerm); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	s := &ConfigStore{path: filepath.Join(configDir, configFileName)}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.path
}

// Get returns the raw value stored under key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// GetString returns the value under key when it is a string.
func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// GetInt returns the value under key when it is an integer.
// go-toml decodes every integer as int64.
func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	}
	return 0
}

// GetFloat returns the value under key as a float. Integers count, so a
// hand-written rate_limit = 2 reads the same as 2.0.
func (s *ConfigStore) GetFloat(key string) float64 {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

// Keys lists every stored key in sorted order.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.values))
}

// Set stores value under key and rewrites the file. The in-memory value only
// changes once the file has been written.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.values)
	if next == nil {
		next = map[string]any{}
	}
	next[key] = value
	if err := s.write(next); err != nil {
		return err
	}
	s.values = next
	return nil
}

// Load replaces the in-memory values with the file's contents.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.values = map[string]any{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}

	tables := map[string]any{}
	if err := toml.Unmarshal(raw, &tables); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	s.values = fromTables(tables)
	return nil
}

// write replaces the file through a temporary sibling so a failed write
// never truncates the existing configuration. Caller holds the lock.
func (s *ConfigStore) write(values map[string]any) error {
	raw, err := toml.Marshal(toTables(values))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// fromTables turns decoded TOML tables into dotted keys:
// {"a": {"b": 1}} becomes {"a.b": 1}.
func fromTables(tables map[string]any) map[string]any {
	flat := map[string]any{}
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for name, v := range m {
			key := name
			if prefix != "" {
				key = prefix + "." + name
			}
			if sub, ok := v.(map[string]any); ok {
				walk(key, sub)
				continue
			}
			flat[key] = v
		}
	}
	walk("", tables)
	return flat
}

// toTables is the inverse of fromTables.
func toTables(flat map[string]any) map[string]any {
	tables := map[string]any{}
	for key, v := range flat {
		segments := strings.Split(key, ".")
		table := tables
		for _, seg := range segments[:len(segments)-1] {
			sub, ok := table[seg].(map[string]any)
			if !ok {
				sub = map[string]any{}
				table[seg] = sub
			}
			table = sub
		}
		table[segments[len(segments)-1]] = v
	}
	return tables
}
