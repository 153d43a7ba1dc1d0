package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")

	exists, err := Exists(path)
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, WriteFileAtomic(path, []byte("one")))
	require.NoError(t, WriteFileAtomic(path, []byte("two")))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "two", string(contents))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	exists, err = Exists(path)
	require.NoError(t, err)
	require.True(t, exists)
}
