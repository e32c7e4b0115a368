package ingest_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabg-gob/sabg-sistema/pkg/ingest"
)

func TestFileCursorStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursors.json")
	store := ingest.NewFileCursorStore(path)

	got, err := store.Load("archivo-a")
	require.NoError(t, err)
	assert.Zero(t, got)

	require.NoError(t, store.Save("archivo-a", 3))
	got, err = store.Load("archivo-a")
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	// a fresh store sees the persisted value
	got, err = ingest.NewFileCursorStore(path).Load("archivo-a")
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestFileCursorStore_NeverMovesBack(t *testing.T) {
	store := ingest.NewFileCursorStore(filepath.Join(t.TempDir(), "cursors.json"))

	require.NoError(t, store.Save("k", 5))
	require.NoError(t, store.Save("k", 2))
	got, err := store.Load("k")
	require.NoError(t, err)
	assert.Equal(t, 5, got)
}

func TestFileCursorStore_Reset(t *testing.T) {
	store := ingest.NewFileCursorStore(filepath.Join(t.TempDir(), "cursors.json"))

	require.NoError(t, store.Save("k", 4))
	require.NoError(t, store.Reset("k"))
	got, err := store.Load("k")
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestFileSignature_ChangesWithContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datos.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))

	sig1, err := ingest.FileSignature(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))
	require.NoError(t, os.Chtimes(path, time.Now(), time.Now().Add(time.Second)))

	sig2, err := ingest.FileSignature(path)
	require.NoError(t, err)
	assert.NotEqual(t, sig1, sig2)
}
