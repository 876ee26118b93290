package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "nested", "picup.service")

	require.NoError(t, AtomicWrite(dst, strings.NewReader("first"), 0644))
	require.NoError(t, AtomicWrite(dst, strings.NewReader("second"), 0600))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(dst))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestRemoveIfExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	require.NoError(t, RemoveIfExists(path))
	require.NoError(t, RemoveIfExists(path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
