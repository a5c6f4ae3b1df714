package session

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"script-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "uploads"), zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestStore_CreateSaveRead(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Create()
	require.NoError(t, err)
	assert.True(t, store.Exists(id))

	n, err := store.Save(id, CharacterFile, strings.NewReader("Alice, 34, detective"))
	require.NoError(t, err)
	assert.Equal(t, int64(len("Alice, 34, detective")), n)

	text, err := store.ReadText(id, CharacterFile)
	require.NoError(t, err)
	assert.Equal(t, "Alice, 34, detective", text)

	_, err = store.ReadText(id, StoryFile)
	assert.ErrorIs(t, err, models.ErrFileNotFound)
}

func TestStore_CreateGivesDistinctIDs(t *testing.T) {
	store := newTestStore(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := store.Create()
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate session id %s", id)
		seen[id] = true
	}
}

func TestStore_RejectsNonCanonicalIDs(t *testing.T) {
	store := newTestStore(t)

	// A directory that exists but is not a session id.
	require.NoError(t, os.Mkdir(filepath.Join(store.Root(), "20240101_120000"), 0o755))

	for _, id := range []string{"", "..", "../etc", "20240101_120000", "{" + "6ba7b810-9dad-11d1-80b4-00c04fd430c8" + "}"} {
		assert.False(t, store.Exists(id), "id %q", id)
		_, err := store.Save(id, CharacterFile, strings.NewReader("x"))
		assert.ErrorIs(t, err, models.ErrSessionNotFound, "id %q", id)
	}
}

func TestStore_WriteTextReplacesAtomically(t *testing.T) {
	store := newTestStore(t)
	id, err := store.Create()
	require.NoError(t, err)

	require.NoError(t, store.WriteText(id, GeneratedFile, "first"))
	require.NoError(t, store.WriteText(id, GeneratedFile, "second"))

	data, err := os.ReadFile(store.FilePath(id, GeneratedFile))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Join(store.Root(), id))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStore_Remove(t *testing.T) {
	store := newTestStore(t)
	id, err := store.Create()
	require.NoError(t, err)
	_, err = store.Save(id, StoryFile, bytes.NewReader([]byte("plot")))
	require.NoError(t, err)

	require.NoError(t, store.Remove(id))
	assert.False(t, store.Exists(id))
}

func TestStore_TryLock(t *testing.T) {
	store := newTestStore(t)
	id, err := store.Create()
	require.NoError(t, err)

	unlock, err := store.TryLock(id)
	require.NoError(t, err)

	_, err = store.TryLock(id)
	assert.ErrorIs(t, err, models.ErrGenerationInProgress)

	unlock()

	unlock2, err := store.TryLock(id)
	require.NoError(t, err)
	unlock2()

	_, err = store.TryLock("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestIsDownloadable(t *testing.T) {
	for _, name := range []string{CharacterFile, StoryFile, GeneratedFile, ReasoningFile} {
		assert.True(t, IsDownloadable(name), name)
	}
	for _, name := range []string{lockFileName, "../character.txt", "notes.txt", ""} {
		assert.False(t, IsDownloadable(name), name)
	}
}

func TestStore_Sweep(t *testing.T) {
	store := newTestStore(t)

	oldID, err := store.Create()
	require.NoError(t, err)
	freshID, err := store.Create()
	require.NoError(t, err)
	busyID, err := store.Create()
	require.NoError(t, err)

	// Lock first: creating the lock file touches the directory mtime.
	unlock, err := store.TryLock(busyID)
	require.NoError(t, err)
	defer unlock()

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.Root(), oldID), past, past))
	require.NoError(t, os.Chtimes(filepath.Join(store.Root(), busyID), past, past))

	removed, err := store.Sweep(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, removed)
	assert.False(t, store.Exists(oldID))
	assert.True(t, store.Exists(freshID))
	assert.True(t, store.Exists(busyID))
}

func TestStore_RemoveFile(t *testing.T) {
	store := newTestStore(t)
	id, err := store.Create()
	require.NoError(t, err)

	require.NoError(t, store.WriteText(id, ReasoningFile, "thinking"))
	require.NoError(t, store.RemoveFile(id, ReasoningFile))
	assert.False(t, store.FileExists(id, ReasoningFile))

	// second call on a missing file is a no-op
	assert.NoError(t, store.RemoveFile(id, ReasoningFile))
}

func TestStore_LoggerName(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	store, err := NewStore(filepath.Join(t.TempDir(), "uploads"), zap.New(core))
	require.NoError(t, err)

	id, err := store.Create()
	require.NoError(t, err)
	unlock, err := store.TryLock(id)
	require.NoError(t, err)
	defer unlock()

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.Root(), id), past, past))
	_, err = store.Sweep(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)

	entries := logs.FilterMessage("Skipping session during sweep").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "SessionStore", entries[0].LoggerName)
}
