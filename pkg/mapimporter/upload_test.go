package mapimporter_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mapaction/mapimporter/pkg/mapimporter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUpload(t *testing.T) {
	assert.ErrorIs(t, mapimporter.ValidateUpload(nil), mapimporter.ErrNoUpload)
	assert.ErrorIs(t, mapimporter.ValidateUpload(mapimporter.NewBytesUpload("empty.zip", nil)), mapimporter.ErrNoUpload)
	assert.NoError(t, mapimporter.ValidateUpload(mapimporter.NewBytesUpload("a.zip", []byte("PK"))))
}

func TestValidateUpload_TypedNil(t *testing.T) {
	tests := []struct {
		name   string
		upload mapimporter.Upload
	}{
		{"bytes", (*mapimporter.BytesUpload)(nil)},
		{"file", (*mapimporter.FileUpload)(nil)},
		{"reader", (*mapimporter.ReaderUpload)(nil)},
		{"reader without source", mapimporter.NewReaderUpload("a.zip", nil, 10)},
		{"zero bytes upload", &mapimporter.BytesUpload{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapimporter.ValidateUpload(tt.upload), mapimporter.ErrNoUpload)
		})
	}
}

func TestOpenFileUpload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "package.zip")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	u, err := mapimporter.OpenFileUpload(path)
	require.NoError(t, err)
	defer u.Close()

	assert.Equal(t, "package.zip", u.Name())
	assert.Equal(t, int64(5), u.Size())

	buf := make([]byte, 3)
	n, err := u.ReadAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, "llo", string(buf[:n]))
}

func TestOpenFileUpload_Directory(t *testing.T) {
	_, err := mapimporter.OpenFileUpload(t.TempDir())
	assert.ErrorIs(t, err, mapimporter.ErrNoUpload)
}
