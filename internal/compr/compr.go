// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package compr decompresses the payload of JFFS2 inode nodes.
//
// Codecs register themselves by method tag. NONE, ZERO and RTIME are always
// available; ZLIB and LZO can be left out of a build with the nozlib and
// nolzo build tags.
package compr

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	ErrUnknownMethod     = errors.New("unknown compression method")
	ErrShortDestination  = errors.New("destination smaller than source")
	ErrCorrupt           = errors.New("corrupt compressed data")
	ErrUnexpectedSize    = errors.New("unexpected decompressed size")
	ErrAlreadyRegistered = errors.New("codec already registered")
)

type Method uint8

const (
	None      Method = 0x00
	Zero      Method = 0x01
	RTime     Method = 0x02
	RubinMIPS Method = 0x03
	Copy      Method = 0x04
	DynRubin  Method = 0x05
	Zlib      Method = 0x06
	LZO       Method = 0x07
	LZMA      Method = 0x08
)

var methodNames = map[Method]string{
	None:      "none",
	Zero:      "zero",
	RTime:     "rtime",
	RubinMIPS: "rubinmips",
	Copy:      "copy",
	DynRubin:  "dynrubin",
	Zlib:      "zlib",
	LZO:       "lzo",
	LZMA:      "lzma",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("method(%#x)", uint8(m))
}

// KnownMethods returns every method tag defined by the on-flash format,
// whether or not a codec is available for it.
func KnownMethods() []Method {
	methods := make([]Method, 0, len(methodNames))
	for m := range methodNames {
		methods = append(methods, m)
	}
	slices.Sort(methods)
	return methods
}

// DecompressFunc inflates src into exactly dlen bytes.
type DecompressFunc func(src []byte, dlen int) ([]byte, error)

type Codec struct {
	Method      Method
	Description string
	Decompress  DecompressFunc
}

var (
	mu     sync.RWMutex
	codecs = map[Method]Codec{}
)

// Register makes a codec available to Decompress.
func Register(c Codec) error {
	mu.Lock()
	defer mu.Unlock()

	if _, ok := codecs[c.Method]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, c.Method)
	}
	codecs[c.Method] = c
	return nil
}

func mustRegister(c Codec) {
	if err := Register(c); err != nil {
		panic(err)
	}
}

func Lookup(m Method) (Codec, bool) {
	mu.RLock()
	defer mu.RUnlock()

	c, ok := codecs[m]
	return c, ok
}

// Codecs returns the registered codecs ordered by method tag.
func Codecs() []Codec {
	mu.RLock()
	defer mu.RUnlock()

	list := make([]Codec, 0, len(codecs))
	for _, c := range codecs {
		list = append(list, c)
	}
	slices.SortFunc(list, func(a, b Codec) int {
		return int(a.Method) - int(b.Method)
	})
	return list
}

// Decompress inflates the payload of a node compressed with method m
// into a buffer of dlen bytes.
func Decompress(m Method, src []byte, dlen int) ([]byte, error) {
	if dlen < 0 {
		return nil, fmt.Errorf("%s: negative destination length %d", m, dlen)
	}

	c, ok := Lookup(m)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, m)
	}

	out, err := c.Decompress(src, dlen)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m, err)
	}
	if len(out) != dlen {
		return nil, fmt.Errorf("%s: %w: got %d bytes, want %d", m, ErrUnexpectedSize, len(out), dlen)
	}
	return out, nil
}

func init() {
	mustRegister(Codec{
		Method:      None,
		Description: "stored without compression",
		Decompress:  decompressNone,
	})
	mustRegister(Codec{
		Method:      Zero,
		Description: "all-zero data (holes)",
		Decompress:  decompressZero,
	})
	mustRegister(Codec{
		Method:      RTime,
		Description: "jffs2 run-length/back-reference coding",
		Decompress:  DecompressRTime,
	})
}

func decompressNone(src []byte, dlen int) ([]byte, error) {
	if dlen < len(src) {
		return nil, fmt.Errorf("%w: %d < %d", ErrShortDestination, dlen, len(src))
	}

	out := make([]byte, dlen)
	copy(out, src)
	return out, nil
}

func decompressZero(_ []byte, dlen int) ([]byte, error) {
	return make([]byte, dlen), nil
}
