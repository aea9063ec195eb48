//go:build !nolzo

package compr

import (
	"bytes"
	"fmt"

	"github.com/rasky/go-lzo"
)

func init() {
	mustRegister(Codec{
		Method:      LZO,
		Description: "lzo1x stream",
		Decompress:  decompressLZO,
	})
}

func decompressLZO(src []byte, dlen int) ([]byte, error) {
	out, err := lzo.Decompress1X(bytes.NewReader(src), len(src), dlen)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if len(out) != dlen {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrUnexpectedSize, len(out), dlen)
	}
	return out, nil
}
