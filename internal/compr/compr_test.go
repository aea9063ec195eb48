package compr

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecompressNone(t *testing.T) {
	out, err := Decompress(None, []byte("hi\n"), 3)
	require.NoError(t, err)
	require.Equal(t, []byte("hi\n"), out)

	out, err = Decompress(None, []byte("ab"), 4)
	require.NoError(t, err)
	require.Equal(t, []byte{'a', 'b', 0, 0}, out)

	_, err = Decompress(None, []byte("abcd"), 2)
	require.ErrorIs(t, err, ErrShortDestination)
}

func TestDecompressZero(t *testing.T) {
	out, err := Decompress(Zero, nil, 4096)
	require.NoError(t, err)
	require.Equal(t, make([]byte, 4096), out)
}

func TestDecompressUnknownMethod(t *testing.T) {
	_, err := Decompress(DynRubin, []byte{1, 2, 3}, 3)
	require.ErrorIs(t, err, ErrUnknownMethod)

	_, err = Decompress(Method(0x7f), nil, 0)
	require.ErrorIs(t, err, ErrUnknownMethod)
	require.Contains(t, err.Error(), "0x7f")
}

func TestRTimeKnownSample(t *testing.T) {
	// 'c' with a zero back reference copies "abcabc" from the start of
	// the output, overlapping the bytes being written.
	src := []byte{'a', 0, 'b', 0, 'c', 6, 'X', 0}

	out, err := Decompress(RTime, src, 10)
	require.NoError(t, err)
	require.Equal(t, []byte("abcabcabcX"), out)
	require.Equal(t, src, CompressRTime([]byte("abcabcabcX")))
}

func TestRTimeRunOfSameByte(t *testing.T) {
	out, err := DecompressRTime([]byte{'a', 4}, 5)
	require.NoError(t, err)
	require.Equal(t, []byte("aaaaa"), out)
}

func TestRTimeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	lowEntropy := make([]byte, 8192)
	for i := range lowEntropy {
		lowEntropy[i] = byte(rng.Intn(4))
	}
	random := make([]byte, 4096)
	rng.Read(random)

	inputs := [][]byte{
		{},
		[]byte("x"),
		[]byte("no repeats here"),
		[]byte("hello hello hello world"),
		bytes.Repeat([]byte{0}, 1000),
		bytes.Repeat([]byte("abc"), 300),
		lowEntropy,
		random,
	}

	for _, in := range inputs {
		enc := CompressRTime(in)
		out, err := Decompress(RTime, enc, len(in))
		require.NoError(t, err)
		require.Equal(t, in, out)
	}
}

func TestRTimeCorruptInput(t *testing.T) {
	_, err := DecompressRTime([]byte{'a', 0}, 4)
	require.ErrorIs(t, err, ErrCorrupt)

	_, err = DecompressRTime([]byte{'a', 200}, 10)
	require.ErrorIs(t, err, ErrCorrupt)

	_, err = DecompressRTime([]byte{'a'}, 1)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestCodecsRegistry(t *testing.T) {
	codecs := Codecs()
	require.NotEmpty(t, codecs)
	for i := 1; i < len(codecs); i++ {
		require.Less(t, codecs[i-1].Method, codecs[i].Method)
	}

	_, ok := Lookup(None)
	require.True(t, ok)

	err := Register(Codec{Method: RTime, Decompress: DecompressRTime})
	require.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestMethodString(t *testing.T) {
	require.Equal(t, "rtime", RTime.String())
	require.Equal(t, "lzma", LZMA.String())
	require.Len(t, KnownMethods(), 9)
	require.Equal(t, None, KnownMethods()[0])
}
