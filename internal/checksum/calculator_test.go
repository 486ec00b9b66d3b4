package checksum

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	emptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	abcSHA256   = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
)

var _ Calculator = SHA256{}

func TestSHA256_CalculateRaw(t *testing.T) {
	calc := New()

	assert.Equal(t, emptySHA256, calc.CalculateRaw(nil))
	assert.Equal(t, abcSHA256, calc.CalculateRaw([]byte("abc")))
}

func TestSHA256_CalculateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.pdf")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	sum, size, err := New().CalculateFile(path)
	require.NoError(t, err)

	assert.Equal(t, abcSHA256, sum)
	assert.Equal(t, int64(3), size)
}

func TestSHA256_CalculateFile_Missing(t *testing.T) {
	_, _, err := New().CalculateFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestSHA256_CalculateReader_MatchesRaw(t *testing.T) {
	content := strings.Repeat("map package ", 10000)

	sum, size, err := New().CalculateReader(strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, New().CalculateRaw([]byte(content)), sum)
	assert.Equal(t, int64(len(content)), size)
}
