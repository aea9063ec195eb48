// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package catalog rebuilds the directory hierarchy and the per-file
// fragment lists from the nodes found in a JFFS2 image.
//
// Nodes are folded in scan order. Both catalogs are kept sorted by inode
// number, and the fragments of a file are kept sorted by offset. For
// directories the newest dirent wins; for files the first dirent names the
// object and later ones are ignored.
package catalog

import (
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/ostafen/unjffs2/internal/jffs2"
)

// Dir is a directory entry record.
type Dir struct {
	Pino uint32
	Ino  uint32
	Name string
	Path string // Resolved path relative to the output root, e.g. "/etc"
	Mode uint32
	UID  uint16
	GID  uint16

	hasAttr bool
}

// HasAttr reports whether an inode node has been seen for the directory.
func (d *Dir) HasAttr() bool {
	return d.hasAttr
}

// Fragment is one inode node's data payload.
type Fragment struct {
	Offset    uint32
	CSize     uint32
	DSize     uint32
	Compr     uint8
	Data      []byte
	ImgOffset int // Position of the node within the image

	Version uint32
	Mode    uint32
	UID     uint16
	GID     uint16
	ISize   uint32
	Atime   uint32
	Mtime   uint32
	Ctime   uint32
}

// File is a non-directory object: regular file, symlink, device or fifo.
type File struct {
	Pino      uint32
	Ino       uint32
	Name      string
	Type      uint8 // dirent type of the naming dirent
	Fragments []*Fragment
}

// Named reports whether a dirent has been seen for the file.
func (f *File) Named() bool {
	return f.Pino != 0
}

// Mode returns the mode of the first fragment, which decides the kind of
// object to create.
func (f *File) Mode() uint32 {
	if len(f.Fragments) == 0 {
		return 0
	}
	return f.Fragments[0].Mode
}

// Latest returns the fragment with the highest version, the one carrying
// the most recent metadata.
func (f *File) Latest() *Fragment {
	var latest *Fragment
	for _, frag := range f.Fragments {
		if latest == nil || frag.Version >= latest.Version {
			latest = frag
		}
	}
	return latest
}

type Catalog struct {
	logger *slog.Logger

	dirs  []*Dir
	files []*File
}

func New(logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Catalog{logger: logger}
}

// Dirs returns the directory records, ascending by inode number.
func (c *Catalog) Dirs() []*Dir {
	return c.dirs
}

// Files returns the file records, ascending by inode number.
func (c *Catalog) Files() []*File {
	return c.files
}

func (c *Catalog) Dir(ino uint32) (*Dir, bool) {
	i, found := slices.BinarySearchFunc(c.dirs, ino, cmpDir)
	if !found {
		return nil, false
	}
	return c.dirs[i], true
}

func (c *Catalog) File(ino uint32) (*File, bool) {
	i, found := slices.BinarySearchFunc(c.files, ino, cmpFile)
	if !found {
		return nil, false
	}
	return c.files[i], true
}

// Fold applies a validated node to the catalogs.
func (c *Catalog) Fold(n jffs2.Node) {
	switch {
	case n.Dirent != nil:
		if n.Dirent.Type == jffs2.DTDir {
			c.AddDir(n.Dirent)
		} else {
			c.AddFile(n.Dirent)
		}
	case n.Inode != nil:
		if jffs2.IsDir(n.Inode.Mode) {
			c.AddDirAttr(n.Inode)
		} else {
			c.AddData(n.Inode, n.Offset)
		}
	}
}

// AddDir records a directory dirent. A later dirent for the same inode
// overwrites name and parent.
func (c *Catalog) AddDir(d *jffs2.Dirent) {
	if d.Ino == jffs2.RootIno {
		return
	}
	if err := ValidateName(d.Name); err != nil {
		c.logger.Warn("ignoring directory entry", "ino", d.Ino, "err", err)
		return
	}

	dir := c.dirFor(d.Ino)
	dir.Pino = d.Pino
	dir.Name = d.Name
}

// AddDirAttr records the metadata of a directory inode. It never touches
// name or parent.
func (c *Catalog) AddDirAttr(ino *jffs2.Inode) {
	if ino.Ino == jffs2.RootIno {
		return
	}

	dir := c.dirFor(ino.Ino)
	dir.Mode = ino.Mode
	dir.UID = ino.UID
	dir.GID = ino.GID
	dir.hasAttr = true
}

// AddFile records a non-directory dirent. Only the first dirent seen for
// an inode names the file.
func (c *Catalog) AddFile(d *jffs2.Dirent) {
	if err := ValidateName(d.Name); err != nil {
		c.logger.Warn("ignoring file entry", "ino", d.Ino, "err", err)
		return
	}

	f := c.fileFor(d.Ino)
	if f.Named() {
		return
	}
	f.Pino = d.Pino
	f.Name = d.Name
	f.Type = d.Type
}

// AddData appends the payload of a file inode node to its fragment list,
// keeping the list ordered by offset. Fragments at the same offset stay in
// scan order.
func (c *Catalog) AddData(ino *jffs2.Inode, imgOffset int) {
	f := c.fileFor(ino.Ino)

	frag := &Fragment{
		Offset:    ino.Offset,
		CSize:     ino.CSize,
		DSize:     ino.DSize,
		Compr:     ino.Compr,
		Data:      ino.Data,
		ImgOffset: imgOffset,
		Version:   ino.Version,
		Mode:      ino.Mode,
		UID:       ino.UID,
		GID:       ino.GID,
		ISize:     ino.ISize,
		Atime:     ino.Atime,
		Mtime:     ino.Mtime,
		Ctime:     ino.Ctime,
	}

	i := sort.Search(len(f.Fragments), func(i int) bool {
		return f.Fragments[i].Offset > frag.Offset
	})
	f.Fragments = slices.Insert(f.Fragments, i, frag)
}

func (c *Catalog) dirFor(ino uint32) *Dir {
	i, found := slices.BinarySearchFunc(c.dirs, ino, cmpDir)
	if found {
		return c.dirs[i]
	}

	dir := &Dir{Ino: ino}
	c.dirs = slices.Insert(c.dirs, i, dir)
	return dir
}

func (c *Catalog) fileFor(ino uint32) *File {
	i, found := slices.BinarySearchFunc(c.files, ino, cmpFile)
	if found {
		return c.files[i]
	}

	f := &File{Ino: ino}
	c.files = slices.Insert(c.files, i, f)
	return f
}

func cmpDir(d *Dir, ino uint32) int {
	return cmp.Compare(d.Ino, ino)
}

func cmpFile(f *File, ino uint32) int {
	return cmp.Compare(f.Ino, ino)
}

// ValidateName rejects names that cannot be safely joined to a path.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("empty name")
	case len(name) > jffs2.MaxNameLen:
		return fmt.Errorf("name too long (%d bytes)", len(name))
	case name == "." || name == "..":
		return fmt.Errorf("reserved name %q", name)
	case strings.ContainsAny(name, "/\x00"):
		return fmt.Errorf("invalid character in name %q", name)
	}
	return nil
}
