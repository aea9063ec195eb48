//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package dfxml

import "runtime"

func osInfo() (sysname, release, version string) {
	return runtime.GOOS, "unknown", "unknown"
}
