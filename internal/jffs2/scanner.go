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
package jffs2

import (
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
)

// Stats summarizes what a scan found.
type Stats struct {
	ScannedBytes uint64
	SkippedBytes uint64
	Dirents      int
	Inodes       int
	Xrefs        int
	Xattrs       int
	Cleanmarkers int
	Rejected     int // nodes with a valid header but a bad body
	Unknown      int // nodes with a valid header but an unknown type
}

func (s Stats) Nodes() int {
	return s.Dirents + s.Inodes + s.Xrefs + s.Xattrs + s.Cleanmarkers
}

type Scanner struct {
	logger *slog.Logger
	order  binary.ByteOrder
	stats  Stats
}

func NewScanner(logger *slog.Logger, order binary.ByteOrder) *Scanner {
	if order == nil {
		order = binary.LittleEndian
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scanner{
		logger: logger,
		order:  order,
	}
}

func (sc *Scanner) ByteOrder() binary.ByteOrder {
	return sc.order
}

// Stats returns the counters accumulated by the scans run so far.
func (sc *Scanner) Stats() Stats {
	return sc.stats
}

// Scan walks buf and yields every node that validates. On any framing
// failure the cursor moves forward by a single byte, so that a corrupted
// region is skipped until the next valid node boundary.
func (sc *Scanner) Scan(buf []byte) func(yield func(Node) bool) {
	return func(yield func(Node) bool) {
		off := 0
		defer func() {
			sc.stats.ScannedBytes += uint64(off)
		}()

		for len(buf)-off >= HeaderSize {
			rest := buf[off:]

			hdr, err := ReadHeader(rest, sc.order)
			if err != nil {
				if !errors.Is(err, ErrBadMagic) {
					sc.logger.Debug("rejected node header", "offset", off, "err", err)
				}
				sc.stats.SkippedBytes++
				off++
				continue
			}

			node := Node{
				Offset: off,
				Type:   hdr.NodeType,
			}

			var n int
			switch hdr.NodeType {
			case NodeTypeCleanmarker:
				n = HeaderSize
			case NodeTypeDirent:
				node.Dirent, n, err = ReadDirent(rest, sc.order)
			case NodeTypeInode:
				node.Inode, n, err = ReadInode(rest, sc.order)
			case NodeTypeXref:
				node.Xref, n, err = ReadXref(rest, sc.order)
			case NodeTypeXattr:
				node.Xattr, n, err = ReadXattr(rest, sc.order)
			default:
				sc.logger.Warn("unknown node", "type", hdr.NodeType, "offset", off)
				sc.stats.Unknown++
				sc.stats.SkippedBytes++
				off++
				continue
			}

			if err != nil {
				sc.logger.Debug("rejected node", "type", hdr.NodeType, "offset", off, "err", err)
				sc.stats.Rejected++
				sc.stats.SkippedBytes++
				off++
				continue
			}

			sc.count(hdr.NodeType)

			node.Len = n
			off += n

			if !yield(node) {
				return
			}
		}
	}
}

func (sc *Scanner) count(t NodeType) {
	switch t {
	case NodeTypeCleanmarker:
		sc.stats.Cleanmarkers++
	case NodeTypeDirent:
		sc.stats.Dirents++
	case NodeTypeInode:
		sc.stats.Inodes++
	case NodeTypeXref:
		sc.stats.Xrefs++
	case NodeTypeXattr:
		sc.stats.Xattrs++
	}
}

// DetectByteOrder looks for the first node header that validates under
// either byte order. It reports false if buf holds no valid header, in
// which case little endian is returned.
func DetectByteOrder(buf []byte) (binary.ByteOrder, bool) {
	for off := 0; len(buf)-off >= HeaderSize; off++ {
		rest := buf[off:]
		if _, err := ReadHeader(rest, binary.LittleEndian); err == nil {
			return binary.LittleEndian, true
		}
		if _, err := ReadHeader(rest, binary.BigEndian); err == nil {
			return binary.BigEndian, true
		}
	}
	return binary.LittleEndian, false
}
