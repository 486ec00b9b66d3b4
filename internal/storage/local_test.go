package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/mapaction/mapimporter/pkg/mapimporter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLocalStore_PutOpenDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "blobs"), "http://localhost:8080/files")
	require.NoError(t, err)

	src := writeTemp(t, "map.pdf", "pdf bytes")
	u, err := store.Put(ctx, "res-1/map.pdf", src)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/res-1/map.pdf", u)

	rc, err := store.Open("res-1/map.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(data))

	require.NoError(t, store.Delete(ctx, "res-1/map.pdf"))
	_, err = store.Open("res-1/map.pdf")
	assert.ErrorIs(t, err, mapimporter.ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "res-1/map.pdf"), "deleting a missing key is not an error")
}

func TestLocalStore_KeysStayInsideRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "blobs")
	store, err := NewLocalStore(root, "")
	require.NoError(t, err)

	u, err := store.Put(context.Background(), "../../escape.txt", writeTemp(t, "x.txt", "x"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "escape.txt"), u)
}

func TestLocalStore_EmptyKey(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "", writeTemp(t, "x.txt", "x"))
	assert.Error(t, err)
}

func TestNewLocalStore_EmptyRoot(t *testing.T) {
	_, err := NewLocalStore("", "")
	assert.ErrorIs(t, err, mapimporter.ErrInvalidConfig)
}

func TestLocalStore_PutMissingSource(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "k", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
