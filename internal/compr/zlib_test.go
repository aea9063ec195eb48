//go:build !nozlib

package compr

import (
	"bytes"
	"strings"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"
)

func zlibCompress(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDecompressZlib(t *testing.T) {
	plain := []byte(strings.Repeat("#!/bin/sh\necho jffs2\n", 50))
	enc := zlibCompress(t, plain)

	out, err := Decompress(Zlib, enc, len(plain))
	require.NoError(t, err)
	require.Equal(t, plain, out)
}

func TestDecompressZlibTruncated(t *testing.T) {
	plain := []byte(strings.Repeat("0123456789", 100))
	enc := zlibCompress(t, plain)

	_, err := Decompress(Zlib, enc[:len(enc)/2], len(plain))
	require.ErrorIs(t, err, ErrCorrupt)

	_, err = Decompress(Zlib, []byte("not zlib"), 8)
	require.ErrorIs(t, err, ErrCorrupt)
}
