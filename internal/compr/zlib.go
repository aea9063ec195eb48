//go:build !nozlib

package compr

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

func init() {
	mustRegister(Codec{
		Method:      Zlib,
		Description: "zlib (deflate) stream",
		Decompress:  decompressZlib,
	})
}

func decompressZlib(src []byte, dlen int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	defer r.Close()

	out := make([]byte, dlen)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return out, nil
}
