package credential

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Lifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credential.yaml")
	s := NewFileStore(path)

	key, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, key)

	require.NoError(t, s.Save("abc123"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// a fresh store sees the written value
	key, err = NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "abc123", key)

	require.NoError(t, s.Save("def456"))
	key, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, "def456", key)

	require.NoError(t, s.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	key, err = s.Load()
	require.NoError(t, err)
	assert.Empty(t, key)

	require.NoError(t, s.Clear(), "clearing twice is fine")
}

func TestFileStore_FileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential.yaml")
	require.NoError(t, NewFileStore(path).Save("abc123"))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini_api_key: abc123\n", string(b))
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gemini_api_key: [unterminated"), 0o600))

	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore("")
	key, _ := s.Load()
	assert.Empty(t, key)

	require.NoError(t, s.Save("abc123"))
	key, _ = s.Load()
	assert.Equal(t, "abc123", key)

	require.NoError(t, s.Clear())
	key, _ = s.Load()
	assert.Empty(t, key)
}

func TestMemoryStore_BlankKeyIsEmpty(t *testing.T) {
	for _, raw := range []string{" ", "\t\n", "  "} {
		key, err := NewMemoryStore(raw).Load()
		require.NoError(t, err)
		assert.Empty(t, key)
	}

	key, err := NewMemoryStore(" abc123\n").Load()
	require.NoError(t, err)
	assert.Equal(t, "abc123", key)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("HOME", "/tmp/home")
	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("pdf-chapters", "credential.yaml"), filepath.Join(filepath.Base(filepath.Dir(p)), filepath.Base(p)))
}
