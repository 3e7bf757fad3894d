package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".wfsget", "config.toml"), store.Path())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("http.user_agent", "wfsget-test"))

	val, ok := store.Get("http.user_agent")
	assert.True(t, ok)
	assert.Equal(t, "wfsget-test", val)
}

func TestConfigStore_GetString(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("data.dir", "/tmp/wfs"))
	assert.Equal(t, "/tmp/wfs", store.GetString("data.dir"))

	// Non-existent key
	assert.Equal(t, "", store.GetString("nonexistent"))

	// Wrong type
	require.NoError(t, store.Set("wfs.max_pages", 42))
	assert.Equal(t, "", store.GetString("wfs.max_pages"))
}

func TestConfigStore_GetInt(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("wfs.page_size_v2", 2000))
	assert.Equal(t, 2000, store.GetInt("wfs.page_size_v2"))

	// TOML integers are int64
	store.mu.Lock()
	store.values["wfs.hits_threshold"] = int64(9999)
	store.mu.Unlock()
	assert.Equal(t, 9999, store.GetInt("wfs.hits_threshold"))

	// Wrong type
	require.NoError(t, store.Set("http.token", "secret"))
	assert.Equal(t, 0, store.GetInt("http.token"))
}

func TestConfigStore_GetFloat(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("http.rate_limit", 0.5))
	assert.Equal(t, 0.5, store.GetFloat("http.rate_limit"))

	require.NoError(t, store.Set("http.rate_limit", 3))
	assert.Equal(t, 3.0, store.GetFloat("http.rate_limit"))

	require.NoError(t, store.Set("http.rate_limit", "fast"))
	assert.Equal(t, 0.0, store.GetFloat("http.rate_limit"))
	assert.Equal(t, 0.0, store.GetFloat("nonexistent"))
}

func TestConfigStore_Keys(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("wfs.max_pages", 10))
	require.NoError(t, store.Set("data.dir", "out"))

	assert.Equal(t, []string{"data.dir", "wfs.max_pages"}, store.Keys())
}

func TestConfigStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()

	store1, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store1.Set("wfs.page_size_v1", 250))
	require.NoError(t, store1.Set("http.timeout", "30s"))
	require.NoError(t, store1.Set("http.rate_limit", 1.5))

	// Create new store instance - should load from file
	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 250, store2.GetInt("wfs.page_size_v1"))
	assert.Equal(t, "30s", store2.GetString("http.timeout"))
	assert.Equal(t, 1.5, store2.GetFloat("http.rate_limit"))
}

func TestConfigStore_WritesTables(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("wfs.max_pages", 10))
	require.NoError(t, store.Set("http.user_agent", "ua"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[wfs]")
	assert.Contains(t, string(data), "[http]")
	assert.NotContains(t, string(data), "'wfs.max_pages'")
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := "[wfs]\nhits_threshold = 5000\n\n[http]\nrate_limit = 4\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 5000, store.GetInt("wfs.hits_threshold"))
	assert.Equal(t, 4.0, store.GetFloat("http.rate_limit"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("http.token", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("# Just a comment\n\n"), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	val, ok := store.Get("any_key")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			key := "k.key" + string(rune('0'+id))
			_ = store.Set(key, id)
			_ = store.GetInt(key)
			_ = store.GetString(key)
			_ = store.GetFloat(key)
			_ = store.Keys()
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

// TestNewConfigStore_MkdirAllError tests error handling when directory creation fails
func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

// TestNewConfigStore_LoadCorruptedFile tests error handling when loading corrupted TOML
func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("this is not valid TOML {{{[["), 0600))

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

// TestConfigStore_Save_WriteFileError tests error handling when WriteFile fails
func TestConfigStore_Save_WriteFileError(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("test", "value"))

	// Replace the file with a directory to cause write error
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Set("another", "value"))
}

// TestConfigStore_SetWithUnmarshallableValue tests that a value which cannot
// be encoded is rejected and not kept
func TestConfigStore_SetWithUnmarshallableValue(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Set("channel", make(chan int)))
	_, ok := store.Get("channel")
	assert.False(t, ok)
}

// TestConfigStore_FailedWriteKeepsFile tests that a failed Set leaves the
// previous file and values in place
func TestConfigStore_FailedWriteKeepsFile(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("wfs.max_pages", 10))

	before, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	// A directory in the temporary file's place makes the write fail.
	require.NoError(t, os.Mkdir(store.Path()+".tmp", 0700))
	assert.Error(t, store.Set("wfs.max_pages", 20))

	after, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 10, store.GetInt("wfs.max_pages"))
}

func TestTables(t *testing.T) {
	tables := toTables(map[string]any{"a.b": 1, "a.c": "x", "d": true})

	assert.Equal(t, map[string]any{
		"a": map[string]any{"b": 1, "c": "x"},
		"d": true,
	}, tables)
	assert.Equal(t, map[string]any{"a.b": 1, "a.c": "x", "d": true}, fromTables(tables))
}
