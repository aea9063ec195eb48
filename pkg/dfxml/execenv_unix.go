//go:build linux || darwin || freebsd || netbsd || openbsd

package dfxml

import (
	"runtime"

	"golang.org/x/sys/unix"
)

func osInfo() (sysname, release, version string) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return runtime.GOOS, "unknown", "unknown"
	}
	return unix.ByteSliceToString(u.Sysname[:]),
		unix.ByteSliceToString(u.Release[:]),
		unix.ByteSliceToString(u.Version[:])
}
