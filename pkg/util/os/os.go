package os

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrUnsafeDir = errors.New("refusing to reset directory")

// ResetDir removes dir and everything below it, then creates it again
// empty with 0755 permissions. The filesystem root and the current
// directory are refused.
func ResetDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	wd, _ := os.Getwd()
	if dir == "" || abs == filepath.Dir(abs) || abs == wd {
		return fmt.Errorf("%w %q", ErrUnsafeDir, dir)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", dir, err)
	}
	if err := os.Mkdir(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}

// IsDirEmpty returns true if the directory at path is empty, false otherwise.
// Returns an error if the path does not exist or is not a directory.
func IsDirEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}
