package os

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResetDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "stale", "deeper"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale", "file"), []byte("x"), 0644))

	require.NoError(t, ResetDir(dir))

	empty, err := IsDirEmpty(dir)
	require.NoError(t, err)
	require.True(t, empty)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new"), nil, 0644))
	empty, err = IsDirEmpty(dir)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestResetDirCreatesMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fresh")
	require.NoError(t, ResetDir(dir))

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestResetDirRefusesRoot(t *testing.T) {
	require.ErrorIs(t, ResetDir("/"), ErrUnsafeDir)
	require.ErrorIs(t, ResetDir(""), ErrUnsafeDir)
	require.ErrorIs(t, ResetDir("."), ErrUnsafeDir)
}
