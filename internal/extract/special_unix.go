//go:build linux || darwin

package extract

import (
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ostafen/unjffs2/internal/jffs2"
)

func mkfifo(path string, perm uint32) error {
	if err := unix.Mkfifo(path, perm); err != nil {
		return &os.PathError{Op: "mkfifo", Path: path, Err: err}
	}
	return nil
}

func mknod(path string, mode uint32, major, minor uint32) error {
	typ := uint32(unix.S_IFCHR)
	if mode&jffs2.SIFMT == jffs2.SIFBLK {
		typ = unix.S_IFBLK
	}

	dev := unix.Mkdev(major, minor)
	if err := unix.Mknod(path, typ|mode&0o7777, int(dev)); err != nil {
		return &os.PathError{Op: "mknod", Path: path, Err: err}
	}
	return nil
}

func lchown(path string, uid, gid int) error {
	return unix.Lchown(path, uid, gid)
}

func lchtimes(path string, atime, mtime time.Time) error {
	ts := []unix.Timespec{
		unix.NsecToTimespec(atime.UnixNano()),
		unix.NsecToTimespec(mtime.UnixNano()),
	}
	return unix.UtimesNanoAt(unix.AT_FDCWD, path, ts, unix.AT_SYMLINK_NOFOLLOW)
}
