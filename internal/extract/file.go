package extract

import (
	"cmp"
	_ "crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/ostafen/unjffs2/internal/catalog"
	"github.com/ostafen/unjffs2/internal/compr"
	"github.com/ostafen/unjffs2/internal/jffs2"
)

// extractFile creates the object for a file record. It returns a nil
// object when the record was skipped.
func (e *Extractor) extractFile(cat *catalog.Catalog, f *catalog.File) (*Object, error) {
	if !f.Named() {
		e.logger.Warn("skipping file without directory entry", "ino", f.Ino)
		return nil, nil
	}

	parent, ok := cat.DirPath(f.Pino)
	if !ok {
		return nil, fmt.Errorf("%w: %q (ino %d) has parent inode %d", ErrUnresolvedParent, f.Name, f.Ino, f.Pino)
	}

	rel := strings.TrimPrefix(path.Join(parent, f.Name), "/")
	if len(f.Fragments) == 0 {
		e.logger.Warn("skipping file without data", "path", rel, "ino", f.Ino)
		return nil, nil
	}

	latest := f.Latest()
	obj := &Object{
		Path:  rel,
		Ino:   f.Ino,
		Mode:  f.Mode(),
		UID:   latest.UID,
		GID:   latest.GID,
		Mtime: latest.Mtime,
	}

	p := e.hostPath(rel)
	if fi, err := os.Lstat(p); err == nil {
		if fi.IsDir() {
			e.logger.Warn("skipping file shadowed by a directory", "path", rel, "ino", f.Ino)
			return nil, nil
		}
		if err := os.Remove(p); err != nil {
			return nil, fmt.Errorf("failed to replace %q: %w", p, err)
		}
	}

	var (
		skip bool
		err  error
	)
	switch f.Mode() & jffs2.SIFMT {
	case jffs2.SIFREG:
		obj.Kind = KindRegular
		err = e.writeRegular(p, f, obj)
	case jffs2.SIFLNK:
		obj.Kind = KindSymlink
		skip, err = e.makeSymlink(p, f, obj)
	case jffs2.SIFIFO:
		obj.Kind = KindFifo
		skip, err = e.makeFifo(p, obj)
	case jffs2.SIFCHR, jffs2.SIFBLK:
		obj.Kind = KindCharDevice
		if f.Mode()&jffs2.SIFMT == jffs2.SIFBLK {
			obj.Kind = KindBlockDevice
		}
		skip, err = e.makeDevice(p, f, obj)
	default:
		e.logger.Warn("skipping unsupported file type", "path", rel, "ino", f.Ino, "mode", fmt.Sprintf("%#o", f.Mode()))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if skip {
		return nil, nil
	}

	e.logger.Info("created "+obj.Kind.String(), "path", rel)
	e.applyMetadata(p, obj, latest)
	return obj, nil
}

// writeRegular writes the fragments of f to p. A fragment that cannot be
// decoded or written abandons the rest of the file; this is recorded in
// obj.Err and is not returned.
func (e *Extractor) writeRegular(p string, f *catalog.File, obj *Object) error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if e.opts.SeekWrites {
		flags = os.O_CREATE | os.O_RDWR | os.O_TRUNC
	}

	out, err := os.OpenFile(p, flags, fileMode(obj.Mode)|0o200)
	if err != nil {
		return fmt.Errorf("failed to create file %q: %w", p, err)
	}
	defer out.Close()

	digester := digest.SHA256.Digester()
	w := io.MultiWriter(out, digester.Hash())

	frags := f.Fragments
	if e.opts.SeekWrites {
		// Newer data overwrites older data at the same position.
		frags = slices.Clone(frags)
		slices.SortStableFunc(frags, func(a, b *catalog.Fragment) int {
			return cmp.Compare(a.Version, b.Version)
		})
	}

	for _, frag := range frags {
		if frag.DSize == 0 {
			continue
		}

		data, err := compr.Decompress(compr.Method(frag.Compr), frag.Data, int(frag.DSize))
		if err == nil {
			if e.opts.SeekWrites {
				_, err = out.WriteAt(data, int64(frag.Offset))
			} else {
				_, err = w.Write(data)
			}
		}
		if err != nil {
			obj.Err = fmt.Errorf("fragment at offset %d: %w", frag.Offset, err)
			e.logger.Warn("unable to write file data", "path", obj.Path, "ino", f.Ino, "offset", frag.Offset, "err", err)
			break
		}

		obj.Runs = append(obj.Runs, Run{
			Offset:    frag.Offset,
			ImgOffset: frag.ImgOffset,
			Length:    frag.DSize,
		})
		obj.Size += uint64(len(data))
	}

	if !e.opts.SeekWrites || obj.Err != nil {
		if obj.Err == nil {
			obj.Digest = digester.Digest()
		}
		return nil
	}

	size := int64(f.Latest().ISize)
	if err := out.Truncate(size); err != nil {
		return fmt.Errorf("failed to truncate %q: %w", p, err)
	}
	if _, err := out.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to read back %q: %w", p, err)
	}

	d, err := digest.SHA256.FromReader(out)
	if err != nil {
		return fmt.Errorf("failed to read back %q: %w", p, err)
	}
	obj.Digest = d
	obj.Size = uint64(size)
	return nil
}

func (e *Extractor) makeSymlink(p string, f *catalog.File, obj *Object) (skip bool, err error) {
	frag := e.soleFragment(f, obj)
	target, err := compr.Decompress(compr.Method(frag.Compr), frag.Data, int(frag.DSize))
	if err != nil {
		e.logger.Warn("unable to decode symlink target", "path", obj.Path, "ino", f.Ino, "err", err)
		return true, nil
	}
	if len(target) == 0 {
		e.logger.Warn("skipping symlink with empty target", "path", obj.Path, "ino", f.Ino)
		return true, nil
	}

	if err := os.Symlink(string(target), p); err != nil {
		return false, fmt.Errorf("failed to create symlink %q: %w", p, err)
	}
	obj.Size = uint64(len(target))
	return false, nil
}

func (e *Extractor) makeFifo(p string, obj *Object) (skip bool, err error) {
	err = mkfifo(p, obj.Mode&0o7777)
	if errors.Is(err, errors.ErrUnsupported) {
		e.logger.Warn("unable to create fifo", "path", obj.Path, "err", err)
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create fifo %q: %w", p, err)
	}
	return false, nil
}

// makeDevice creates a device node. Nodes with an undecodable payload, or
// that the process is not privileged to create, are skipped.
func (e *Extractor) makeDevice(p string, f *catalog.File, obj *Object) (skip bool, err error) {
	frag := e.soleFragment(f, obj)
	payload, err := compr.Decompress(compr.Method(frag.Compr), frag.Data, int(frag.DSize))
	if err != nil {
		e.logger.Warn("unable to decode device number", "path", obj.Path, "ino", f.Ino, "err", err)
		return true, nil
	}

	major, minor, ok := decodeDevice(payload, e.opts.ByteOrder)
	if !ok {
		e.logger.Warn("skipping device with unexpected payload size", "path", obj.Path, "ino", f.Ino, "size", len(payload))
		return true, nil
	}

	err = mknod(p, f.Mode(), major, minor)
	if errors.Is(err, os.ErrPermission) || errors.Is(err, errors.ErrUnsupported) {
		e.logger.Warn("unable to create device node", "path", obj.Path, "major", major, "minor", minor, "err", err)
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create device %q: %w", p, err)
	}
	return false, nil
}

// soleFragment returns the first fragment of a symlink or device, whose
// payload is expected to fit in a single node.
func (e *Extractor) soleFragment(f *catalog.File, obj *Object) *catalog.Fragment {
	if len(f.Fragments) > 1 {
		e.logger.Warn("ignoring extra fragments", "path", obj.Path, "ino", f.Ino, "fragments", len(f.Fragments))
	}
	return f.Fragments[0]
}

func (e *Extractor) applyMetadata(p string, obj *Object, latest *catalog.Fragment) {
	if e.opts.PreserveOwner {
		e.chown(p, obj.UID, obj.GID)
	}

	if obj.Kind != KindSymlink {
		if err := os.Chmod(p, fileMode(obj.Mode)); err != nil {
			e.logger.Warn("unable to set mode", "path", obj.Path, "err", err)
		}
	}

	if !e.opts.PreserveTimes {
		return
	}

	atime := time.Unix(int64(latest.Atime), 0)
	mtime := time.Unix(int64(latest.Mtime), 0)

	var err error
	if obj.Kind == KindSymlink {
		err = lchtimes(p, atime, mtime)
	} else {
		err = os.Chtimes(p, atime, mtime)
	}
	if err != nil {
		e.logger.Debug("unable to set times", "path", obj.Path, "err", err)
	}
}
