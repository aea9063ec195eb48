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

// Package extract materializes a reconstructed catalog as a directory tree.
//
// Directories are created first, sequentially and in inode order. File
// objects are then written, optionally in parallel, and directory
// permissions are applied last, deepest first, so that read-only
// directories can still be populated.
package extract

import (
	"cmp"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	"github.com/ostafen/unjffs2/internal/catalog"
	"github.com/ostafen/unjffs2/internal/jffs2"
	osutil "github.com/ostafen/unjffs2/pkg/util/os"
)

const DefaultOutputDir = "jffs2"

var (
	ErrUnresolvedParent = errors.New("unresolved parent directory")
	ErrUnsafeOutputDir  = osutil.ErrUnsafeDir
)

type Options struct {
	OutputDir     string
	ByteOrder     binary.ByteOrder // Order of device node payloads
	Jobs          int
	SeekWrites    bool
	PreserveOwner bool
	PreserveTimes bool
}

type Kind uint8

const (
	KindDir Kind = iota
	KindRegular
	KindSymlink
	KindFifo
	KindCharDevice
	KindBlockDevice
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "directory"
	case KindRegular:
		return "file"
	case KindSymlink:
		return "symlink"
	case KindFifo:
		return "fifo"
	case KindCharDevice:
		return "char device"
	case KindBlockDevice:
		return "block device"
	}
	return "unknown"
}

// NameType returns the DFXML name_type letter of the kind.
func (k Kind) NameType() string {
	return [...]string{"d", "r", "l", "p", "c", "b"}[k]
}

// Run is the part of a regular file supplied by one fragment.
type Run struct {
	Offset    uint32
	ImgOffset int
	Length    uint32
}

// Object describes a filesystem object written to the output tree.
type Object struct {
	Path   string // Slash separated, relative to the output root
	Ino    uint32
	Kind   Kind
	Size   uint64
	Mode   uint32
	UID    uint16
	GID    uint16
	Mtime  uint32
	Digest digest.Digest // Regular files only
	Runs   []Run

	// Err is set when the object was created but its content could not
	// be fully written.
	Err error
}

type Result struct {
	Dirs     int
	Files    int
	Symlinks int
	Fifos    int
	Devices  int
	Skipped  int
	Failed   int
	Bytes    uint64
	Objects  []Object
}

type Extractor struct {
	logger *slog.Logger
	opts   Options
	root   string
}

func New(logger *slog.Logger, opts Options) *Extractor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir
	}
	if opts.ByteOrder == nil {
		opts.ByteOrder = binary.LittleEndian
	}
	opts.Jobs = max(opts.Jobs, 1)

	return &Extractor{
		logger: logger,
		opts:   opts,
		root:   opts.OutputDir,
	}
}

// Extract replaces the output directory with the tree described by cat.
// Only failures to create the tree itself are returned; objects that
// cannot be represented are logged and counted in the result.
func (e *Extractor) Extract(ctx context.Context, cat *catalog.Catalog) (*Result, error) {
	if empty, err := osutil.IsDirEmpty(e.root); err == nil && !empty {
		e.logger.Warn("replacing existing content of output directory", "dir", e.root)
	}
	if err := osutil.ResetDir(e.root); err != nil {
		return nil, fmt.Errorf("failed to prepare output directory: %w", err)
	}

	res := &Result{}

	unresolved := cat.ResolvePaths()
	res.Skipped += len(unresolved)

	dirs, err := e.makeDirs(cat)
	if err != nil {
		return nil, err
	}
	res.Dirs = len(dirs)
	res.Objects = append(res.Objects, dirs...)

	files, err := e.extractFiles(ctx, cat)
	if err != nil {
		return nil, err
	}

	for _, obj := range files {
		if obj == nil {
			res.Skipped++
			continue
		}

		switch obj.Kind {
		case KindRegular:
			res.Files++
		case KindSymlink:
			res.Symlinks++
		case KindFifo:
			res.Fifos++
		case KindCharDevice, KindBlockDevice:
			res.Devices++
		}
		if obj.Err != nil {
			res.Failed++
		}
		res.Bytes += obj.Size
		res.Objects = append(res.Objects, *obj)
	}

	if err := e.finishDirs(dirs); err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Extractor) makeDirs(cat *catalog.Catalog) ([]Object, error) {
	var objs []Object
	for _, d := range cat.Dirs() {
		if d.Path == "" {
			continue
		}

		mode := d.Mode
		if !d.HasAttr() {
			mode = jffs2.SIFDIR | 0o755
		}

		p := e.hostPath(d.Path)
		if err := os.MkdirAll(p, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %q: %w", p, err)
		}
		e.logger.Info("created directory", "path", d.Path)

		objs = append(objs, Object{
			Path: strings.TrimPrefix(d.Path, "/"),
			Ino:  d.Ino,
			Kind: KindDir,
			Mode: mode,
			UID:  d.UID,
			GID:  d.GID,
		})
	}
	return objs, nil
}

// finishDirs applies the recorded permissions, deepest directories first.
func (e *Extractor) finishDirs(dirs []Object) error {
	sorted := slices.Clone(dirs)
	slices.SortStableFunc(sorted, func(a, b Object) int {
		return cmp.Compare(strings.Count(b.Path, "/"), strings.Count(a.Path, "/"))
	})

	for _, d := range sorted {
		p := e.hostPath(d.Path)
		if e.opts.PreserveOwner {
			e.chown(p, d.UID, d.GID)
		}
		if err := os.Chmod(p, fileMode(d.Mode)); err != nil {
			return fmt.Errorf("failed to set mode of %q: %w", p, err)
		}
	}
	return nil
}

// extractFiles writes the file records. Records that resolve to the same
// output path are handled by a single worker in ascending inode order, so
// the highest inode replaces the others whatever the number of jobs.
func (e *Extractor) extractFiles(ctx context.Context, cat *catalog.Catalog) ([]*Object, error) {
	files := cat.Files()
	objs := make([]*Object, len(files))

	var (
		keys   []string
		groups = make(map[string][]int)
	)
	for i, f := range files {
		key := outputKey(cat, f)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], i)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Jobs)

	for _, key := range keys {
		group := groups[key]
		g.Go(func() error {
			for _, i := range group {
				if err := gctx.Err(); err != nil {
					return err
				}

				obj, err := e.extractFile(cat, files[i])
				if err != nil {
					return err
				}
				objs[i] = obj
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return objs, nil
}

// outputKey returns the path a file record is written to. Records that
// have no path get a key of their own.
func outputKey(cat *catalog.Catalog, f *catalog.File) string {
	if f.Named() {
		if parent, ok := cat.DirPath(f.Pino); ok {
			return path.Join("/", parent, f.Name)
		}
	}
	return fmt.Sprintf("#%d", f.Ino)
}

// hostPath maps a slash separated path relative to the output root to a
// path on the host filesystem.
func (e *Extractor) hostPath(rel string) string {
	return filepath.Join(e.root, filepath.FromSlash(strings.TrimPrefix(rel, "/")))
}

func (e *Extractor) chown(p string, uid, gid uint16) {
	if err := lchown(p, int(uid), int(gid)); err != nil {
		e.logger.Debug("unable to change owner", "path", p, "err", err)
	}
}

// fileMode converts the permission bits of an on-flash mode.
func fileMode(mode uint32) os.FileMode {
	m := os.FileMode(mode & 0o777)
	if mode&0o4000 != 0 {
		m |= os.ModeSetuid
	}
	if mode&0o2000 != 0 {
		m |= os.ModeSetgid
	}
	if mode&0o1000 != 0 {
		m |= os.ModeSticky
	}
	return m
}
