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
package compr

import "fmt"

// DecompressRTime expands an rtime stream. The stream is a sequence of
// (literal, repeat) byte pairs: each literal is emitted, then repeat bytes
// are copied from the position that followed the previous occurrence of
// the same literal. The stream has no end marker, so dlen must be exact.
func DecompressRTime(src []byte, dlen int) ([]byte, error) {
	var positions [256]int

	out := make([]byte, dlen)
	outpos, pos := 0, 0

	for outpos < dlen {
		if pos+2 > len(src) {
			return nil, fmt.Errorf("%w: input exhausted at output byte %d", ErrCorrupt, outpos)
		}

		value := src[pos]
		repeat := int(src[pos+1])
		pos += 2

		out[outpos] = value
		outpos++

		backoffs := positions[value]
		positions[value] = outpos

		if repeat == 0 {
			continue
		}
		if outpos+repeat > dlen {
			return nil, fmt.Errorf("%w: repeat of %d overruns output at byte %d", ErrCorrupt, repeat, outpos)
		}

		if backoffs+repeat >= outpos {
			// Overlapping ranges: the copy must see the bytes it produces.
			for ; repeat > 0; repeat-- {
				out[outpos] = out[backoffs]
				outpos++
				backoffs++
			}
		} else {
			copy(out[outpos:outpos+repeat], out[backoffs:backoffs+repeat])
			outpos += repeat
		}
	}
	return out, nil
}

// CompressRTime encodes src with the rtime scheme. The result is only
// useful if it is shorter than src, which the caller must check.
func CompressRTime(src []byte) []byte {
	var positions [256]int

	out := make([]byte, 0, len(src)*2)
	pos := 0

	for pos < len(src) {
		value := src[pos]
		pos++

		backpos := positions[value]
		positions[value] = pos

		runlen := 0
		for backpos < pos && pos < len(src) && src[pos] == src[backpos] && runlen < 255 {
			pos++
			backpos++
			runlen++
		}
		out = append(out, value, byte(runlen))
	}
	return out
}
