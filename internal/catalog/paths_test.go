package catalog

import (
	"testing"

	"github.com/ostafen/unjffs2/internal/jffs2"
	"github.com/stretchr/testify/require"
)

func TestResolvePaths(t *testing.T) {
	c := New(nil)
	c.Fold(dirent(1, 2, jffs2.DTDir, "etc"))
	c.Fold(dirent(2, 3, jffs2.DTDir, "passwd"))
	c.Fold(dirent(3, 4, jffs2.DTDir, "deep"))

	require.Empty(t, c.ResolvePaths())

	d, _ := c.Dir(2)
	require.Equal(t, "/etc", d.Path)
	d, _ = c.Dir(3)
	require.Equal(t, "/etc/passwd", d.Path)
	d, _ = c.Dir(4)
	require.Equal(t, "/etc/passwd/deep", d.Path)

	path, ok := c.DirPath(3)
	require.True(t, ok)
	require.Equal(t, "/etc/passwd", path)
}

func TestResolvePathsParentWithHigherInode(t *testing.T) {
	c := New(nil)
	c.Fold(dirent(1, 20, jffs2.DTDir, "usr"))
	c.Fold(dirent(20, 6, jffs2.DTDir, "lib"))

	require.Empty(t, c.ResolvePaths())

	d, _ := c.Dir(6)
	require.Equal(t, "/usr/lib", d.Path)
}

func TestResolvePathsUnresolved(t *testing.T) {
	c := New(nil)
	c.Fold(dirent(1, 2, jffs2.DTDir, "ok"))
	c.Fold(dirent(99, 3, jffs2.DTDir, "orphan"))
	c.Fold(inode(4, jffs2.SIFDIR|0o755, 0, ""))
	c.Fold(dirent(6, 5, jffs2.DTDir, "a"))
	c.Fold(dirent(5, 6, jffs2.DTDir, "b"))

	unresolved := c.ResolvePaths()

	var inos []uint32
	for _, d := range unresolved {
		inos = append(inos, d.Ino)
	}
	require.Equal(t, []uint32{3, 4, 5, 6}, inos)

	_, ok := c.DirPath(3)
	require.False(t, ok)
	_, ok = c.DirPath(42)
	require.False(t, ok)

	path, ok := c.DirPath(2)
	require.True(t, ok)
	require.Equal(t, "/ok", path)
}
