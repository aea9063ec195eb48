package catalog

import (
	"testing"

	"github.com/ostafen/unjffs2/internal/jffs2"
	"github.com/stretchr/testify/require"
)

func dirent(pino, ino uint32, typ uint8, name string) jffs2.Node {
	return jffs2.Node{
		Type:   jffs2.NodeTypeDirent,
		Dirent: &jffs2.Dirent{Pino: pino, Ino: ino, Type: typ, Name: name},
	}
}

func inode(ino, mode, offset uint32, data string) jffs2.Node {
	return jffs2.Node{
		Type: jffs2.NodeTypeInode,
		Inode: &jffs2.Inode{
			Ino:    ino,
			Mode:   mode,
			Offset: offset,
			CSize:  uint32(len(data)),
			DSize:  uint32(len(data)),
			Data:   []byte(data),
		},
	}
}

func dirInos(c *Catalog) []uint32 {
	var inos []uint32
	for _, d := range c.Dirs() {
		inos = append(inos, d.Ino)
	}
	return inos
}

func TestDirOrderingAndOverwrite(t *testing.T) {
	c := New(nil)
	c.Fold(dirent(1, 5, jffs2.DTDir, "five"))
	c.Fold(dirent(1, 2, jffs2.DTDir, "two"))
	c.Fold(dirent(1, 9, jffs2.DTDir, "nine"))
	c.Fold(dirent(5, 2, jffs2.DTDir, "renamed"))

	require.Equal(t, []uint32{2, 5, 9}, dirInos(c))

	d, ok := c.Dir(2)
	require.True(t, ok)
	require.Equal(t, "renamed", d.Name)
	require.Equal(t, uint32(5), d.Pino)
}

func TestDirAttrKeepsName(t *testing.T) {
	c := New(nil)
	c.Fold(inode(7, jffs2.SIFDIR|0o700, 0, ""))
	c.Fold(dirent(1, 7, jffs2.DTDir, "home"))
	c.Fold(inode(7, jffs2.SIFDIR|0o755, 0, ""))

	require.Equal(t, []uint32{7}, dirInos(c))

	d, _ := c.Dir(7)
	require.Equal(t, "home", d.Name)
	require.Equal(t, uint32(1), d.Pino)
	require.Equal(t, uint32(jffs2.SIFDIR|0o755), d.Mode)
	require.True(t, d.HasAttr())
}

func TestRootIsNeverStored(t *testing.T) {
	c := New(nil)
	c.Fold(inode(jffs2.RootIno, jffs2.SIFDIR|0o755, 0, ""))
	c.Fold(dirent(0, jffs2.RootIno, jffs2.DTDir, "root"))

	require.Empty(t, c.Dirs())

	path, ok := c.DirPath(jffs2.RootIno)
	require.True(t, ok)
	require.Empty(t, path)
}

func TestFileNamedOnce(t *testing.T) {
	c := New(nil)
	c.Fold(dirent(1, 10, jffs2.DTReg, "first"))
	c.Fold(dirent(3, 10, jffs2.DTReg, "second"))
	c.Fold(dirent(1, 4, jffs2.DTLnk, "link"))

	files := c.Files()
	require.Len(t, files, 2)
	require.Equal(t, uint32(4), files[0].Ino)
	require.Equal(t, uint32(10), files[1].Ino)
	require.Equal(t, "first", files[1].Name)
	require.Equal(t, uint32(1), files[1].Pino)
}

func TestFileCreatedByData(t *testing.T) {
	c := New(nil)
	c.Fold(inode(8, jffs2.SIFREG|0o644, 0, "abc"))

	f, ok := c.File(8)
	require.True(t, ok)
	require.False(t, f.Named())

	c.Fold(dirent(1, 8, jffs2.DTReg, "late"))
	require.True(t, f.Named())
	require.Equal(t, "late", f.Name)
	require.Len(t, f.Fragments, 1)
}

func TestFragmentOrdering(t *testing.T) {
	c := New(nil)
	c.Fold(inode(3, jffs2.SIFREG|0o644, 40, "c"))
	c.Fold(inode(3, jffs2.SIFREG|0o644, 0, "a"))
	c.Fold(inode(3, jffs2.SIFREG|0o644, 20, "b"))
	c.Fold(inode(3, jffs2.SIFREG|0o600, 20, "B"))

	f, ok := c.File(3)
	require.True(t, ok)

	var offsets []uint32
	var data string
	for _, fr := range f.Fragments {
		offsets = append(offsets, fr.Offset)
		data += string(fr.Data)
	}
	require.Equal(t, []uint32{0, 20, 20, 40}, offsets)
	require.Equal(t, "abBc", data)
	require.Equal(t, uint32(jffs2.SIFREG|0o644), f.Mode())
}

func TestLatestFragment(t *testing.T) {
	f := &File{Fragments: []*Fragment{
		{Offset: 0, Version: 3},
		{Offset: 10, Version: 7},
		{Offset: 20, Version: 5},
	}}
	require.Equal(t, uint32(7), f.Latest().Version)
	require.Nil(t, (&File{}).Latest())
}

func TestInvalidNamesAreIgnored(t *testing.T) {
	c := New(nil)
	c.Fold(dirent(1, 2, jffs2.DTDir, ".."))
	c.Fold(dirent(1, 3, jffs2.DTDir, "a/b"))
	c.Fold(dirent(1, 4, jffs2.DTReg, ""))
	c.Fold(dirent(1, 5, jffs2.DTReg, "nul\x00"))

	require.Empty(t, c.Dirs())
	require.Empty(t, c.Files())
}

func TestValidateName(t *testing.T) {
	require.NoError(t, ValidateName("busybox"))
	require.NoError(t, ValidateName(".profile"))
	require.Error(t, ValidateName("."))

	long := make([]byte, jffs2.MaxNameLen+1)
	for i := range long {
		long[i] = 'x'
	}
	require.Error(t, ValidateName(string(long)))
	require.NoError(t, ValidateName(string(long[1:])))
}
