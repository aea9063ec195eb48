//go:build !(linux || darwin)

package extract

import (
	"errors"
	"time"
)

func mkfifo(string, uint32) error {
	return errors.ErrUnsupported
}

func mknod(string, uint32, uint32, uint32) error {
	return errors.ErrUnsupported
}

func lchown(string, int, int) error {
	return errors.ErrUnsupported
}

func lchtimes(string, time.Time, time.Time) error {
	return errors.ErrUnsupported
}
