package tempfile

import (
	"context"
	"io"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(afero.NewMemMapFs(), "uploads/tmp")
	require.NoError(t, err)
	return store
}

func stage(t *testing.T, store *Store, name, content string) string {
	t.Helper()
	id, err := store.Save(context.Background(), name, int64(len(content)), strings.NewReader(content))
	require.NoError(t, err)
	return id
}

func TestStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)

	id := stage(t, store, "doc.txt", "hello world")

	f, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, f.ID)
	assert.Equal(t, "doc.txt", f.Name)
	assert.Equal(t, int64(len("hello world")), f.Size)

	rc, err := f.Open()
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))
}

func TestStore_SaveRejectsEmptyFile(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save(context.Background(), "empty.txt", 0, strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestStore_SaveRejectsOversizedFile(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save(context.Background(), "big.bin", MaxFileSize+1, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestStore_SaveStripsPathComponents(t *testing.T) {
	store := newTestStore(t)

	id := stage(t, store, "../../etc/passwd", "data")

	f, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "passwd", f.Name)
}

func TestStore_GetUnknownID(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "1b4e28ba-2fa1-11d2-883f-0016d3cca427")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestStore_GetInvalidID(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "../escape")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestStore_DeleteTwice(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := stage(t, store, "doc.txt", "hello")

	require.NoError(t, store.Delete(ctx, id))

	// Second delete must fail with a distinguishable not-found, leaving the
	// store intact.
	err := store.Delete(ctx, id)
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestStore_ExpiredIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	oldID := stage(t, store, "old.txt", "old")
	freshID := stage(t, store, "fresh.txt", "fresh")

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, store.fs.Chtimes(path.Join(store.baseDir, oldID), past, past))

	ids, err := store.ExpiredIDs(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Contains(t, ids, oldID)
	assert.NotContains(t, ids, freshID)
}

func TestStore_ExpiredIDsSkipsForeignEntries(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.fs.MkdirAll(path.Join(store.baseDir, "not-a-uuid"), 0o755))

	ids, err := store.ExpiredIDs(context.Background(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.NotContains(t, ids, "not-a-uuid")
}
