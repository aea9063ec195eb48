package mmap

import (
	"errors"
	"fmt"
	"os"
)

var ErrEmptyFile = errors.New("file is empty")

// Image is a read-only view of a whole image file.
type Image struct {
	Data []byte
	Path string

	unmap func() error
}

// Open maps the file at path read-only. Where mapping is not available the
// file is read into memory instead.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %q: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat image %q: %w", path, err)
	}
	if fi.Size() == 0 {
		return nil, fmt.Errorf("image %q: %w", path, ErrEmptyFile)
	}
	if int64(int(fi.Size())) != fi.Size() {
		return nil, fmt.Errorf("image %q is too large to map (%d bytes)", path, fi.Size())
	}

	data, unmap, err := mapFile(f, int(fi.Size()))
	if err != nil {
		return nil, fmt.Errorf("failed to map image %q: %w", path, err)
	}

	return &Image{
		Data:  data,
		Path:  path,
		unmap: unmap,
	}, nil
}

// Len returns the size of the image in bytes.
func (img *Image) Len() int {
	return len(img.Data)
}

// Close releases the mapping. Slices obtained from Data must not be used
// afterwards.
func (img *Image) Close() error {
	if img.Data == nil {
		return nil
	}
	img.Data = nil

	if img.unmap == nil {
		return nil
	}
	if err := img.unmap(); err != nil {
		return fmt.Errorf("failed to unmap %q: %w", img.Path, err)
	}
	return nil
}
