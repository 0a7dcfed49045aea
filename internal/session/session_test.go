package session

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	s := NewMemoryStore()

	_, ok := s.Token()
	assert.False(t, ok, "fresh store is signed out")
	_, ok = s.UserID()
	assert.False(t, ok)

	require.NoError(t, s.Set(4, "alice", "tok-123"))

	token, ok := s.Token()
	require.True(t, ok)
	assert.Equal(t, "tok-123", token)

	id, ok := s.UserID()
	require.True(t, ok)
	assert.Equal(t, int64(4), id)
	assert.Equal(t, "alice", s.Username())

	require.NoError(t, s.Clear())
	_, ok = s.Token()
	assert.False(t, ok)
	assert.Empty(t, s.Username())
}

func TestFileStore_MissingFileReadsSignedOut(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nope", "session.json"))

	_, ok := s.Token()
	assert.False(t, ok)
	_, ok = s.UserID()
	assert.False(t, ok)
	assert.Empty(t, s.Username())
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".babble", "session.json")
	s := NewFileStore(path)

	require.NoError(t, s.Set(4, "alice", "tok-123"))

	// A fresh store over the same path sees the session, the way a second
	// CLI invocation would.
	s2 := NewFileStore(path)
	token, ok := s2.Token()
	require.True(t, ok)
	assert.Equal(t, "tok-123", token)
	id, ok := s2.UserID()
	require.True(t, ok)
	assert.Equal(t, int64(4), id)
	assert.Equal(t, "alice", s2.Username())
}

func TestFileStore_PermissionsProtectTheToken(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStore(path)
	require.NoError(t, s.Set(4, "alice", "tok-123"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStore(path)
	require.NoError(t, s.Set(4, "alice", "tok-123"))

	require.NoError(t, s.Clear())
	_, ok := s.Token()
	assert.False(t, ok)

	// Clearing an already-absent session is not an error.
	require.NoError(t, s.Clear())
}

func TestFileStore_CorruptFileReadsSignedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := NewFileStore(path)
	_, ok := s.Token()
	assert.False(t, ok)
}
