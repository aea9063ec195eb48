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
	"fmt"
)

var (
	ErrBadMagic     = errors.New("bad magic")
	ErrBadHeaderCRC = errors.New("bad header crc")
	ErrBadNodeCRC   = errors.New("bad node crc")
	ErrBadDataCRC   = errors.New("bad data crc")
	ErrBadLength    = errors.New("inconsistent node length")
	ErrTruncated    = errors.New("node extends past end of buffer")
)

// ReadHeader validates the common header found at the start of buf.
// The caller guarantees len(buf) >= HeaderSize.
func ReadHeader(buf []byte, order binary.ByteOrder) (Header, error) {
	hdr := Header{
		Magic:    order.Uint16(buf[0:]),
		NodeType: NodeType(order.Uint16(buf[2:])),
		TotLen:   order.Uint32(buf[4:]),
		HdrCRC:   order.Uint32(buf[8:]),
	}
	if hdr.Magic != Magic {
		return hdr, ErrBadMagic
	}
	if CRC(buf[:HeaderSize-4]) != hdr.HdrCRC {
		return hdr, ErrBadHeaderCRC
	}
	return hdr, nil
}

// ReadDirent validates and decodes the dirent node at the start of buf.
// buf extends to the end of the scanned image: nothing beyond it is trusted.
func ReadDirent(buf []byte, order binary.ByteOrder) (*Dirent, int, error) {
	if len(buf) < DirentSize {
		return nil, 0, ErrTruncated
	}

	nsize := int(buf[28])
	if len(buf) < DirentSize+nsize {
		return nil, 0, ErrTruncated
	}

	if CRC(buf[:DirentSize-8]) != order.Uint32(buf[32:]) {
		return nil, 0, ErrBadNodeCRC
	}

	totlen := order.Uint32(buf[4:])
	if totlen != uint32(DirentSize+nsize) {
		return nil, 0, fmt.Errorf("%w: totlen %d, want %d", ErrBadLength, totlen, DirentSize+nsize)
	}

	name := buf[DirentSize : DirentSize+nsize]
	if CRC(name) != order.Uint32(buf[36:]) {
		return nil, 0, ErrBadDataCRC
	}

	return &Dirent{
		Pino:    order.Uint32(buf[12:]),
		Version: order.Uint32(buf[16:]),
		Ino:     order.Uint32(buf[20:]),
		Mctime:  order.Uint32(buf[24:]),
		Type:    buf[29],
		Name:    string(name),
	}, int(totlen), nil
}

// ReadInode validates and decodes the inode node at the start of buf.
// The returned Inode.Data aliases buf.
func ReadInode(buf []byte, order binary.ByteOrder) (*Inode, int, error) {
	if len(buf) < InodeSize {
		return nil, 0, ErrTruncated
	}

	totlen := order.Uint32(buf[4:])
	if uint64(totlen) > uint64(len(buf)) {
		return nil, 0, ErrTruncated
	}

	if CRC(buf[:InodeSize-8]) != order.Uint32(buf[64:]) {
		return nil, 0, ErrBadNodeCRC
	}

	csize := order.Uint32(buf[48:])
	if uint64(totlen) != InodeSize+uint64(csize) {
		return nil, 0, fmt.Errorf("%w: totlen %d, csize %d", ErrBadLength, totlen, csize)
	}

	data := buf[InodeSize:totlen]
	if CRC(data) != order.Uint32(buf[60:]) {
		return nil, 0, ErrBadDataCRC
	}

	return &Inode{
		Ino:       order.Uint32(buf[12:]),
		Version:   order.Uint32(buf[16:]),
		Mode:      order.Uint32(buf[20:]),
		UID:       order.Uint16(buf[24:]),
		GID:       order.Uint16(buf[26:]),
		ISize:     order.Uint32(buf[28:]),
		Atime:     order.Uint32(buf[32:]),
		Mtime:     order.Uint32(buf[36:]),
		Ctime:     order.Uint32(buf[40:]),
		Offset:    order.Uint32(buf[44:]),
		CSize:     csize,
		DSize:     order.Uint32(buf[52:]),
		Compr:     buf[56],
		UserCompr: buf[57],
		Flags:     order.Uint16(buf[58:]),
		Data:      data[:len(data):len(data)],
	}, int(totlen), nil
}

// ReadXref validates the framing of an xref node.
func ReadXref(buf []byte, order binary.ByteOrder) (*Xref, int, error) {
	if len(buf) < XrefSize {
		return nil, 0, ErrTruncated
	}

	totlen := order.Uint32(buf[4:])
	if totlen < XrefSize {
		return nil, 0, ErrBadLength
	}
	if uint64(totlen) > uint64(len(buf)) {
		return nil, 0, ErrTruncated
	}

	if CRC(buf[:XrefSize-4]) != order.Uint32(buf[24:]) {
		return nil, 0, ErrBadNodeCRC
	}

	return &Xref{
		Xid:    order.Uint32(buf[12:]),
		Xseqno: order.Uint32(buf[16:]),
		Ino:    order.Uint32(buf[20:]),
	}, int(totlen), nil
}

// ReadXattr validates the framing of an xattr node. Name and value are
// checked against their CRC but not decoded.
func ReadXattr(buf []byte, order binary.ByteOrder) (*Xattr, int, error) {
	if len(buf) < XattrSize {
		return nil, 0, ErrTruncated
	}

	totlen := order.Uint32(buf[4:])
	if uint64(totlen) > uint64(len(buf)) {
		return nil, 0, ErrTruncated
	}

	if CRC(buf[:XattrSize-4]) != order.Uint32(buf[28:]) {
		return nil, 0, ErrBadNodeCRC
	}

	x := &Xattr{
		Xid:      order.Uint32(buf[12:]),
		Version:  order.Uint32(buf[16:]),
		Xprefix:  buf[20],
		NameLen:  buf[21],
		ValueLen: order.Uint16(buf[22:]),
	}

	dataLen := int(x.NameLen) + 1 + int(x.ValueLen)
	if int(totlen) < XattrSize+dataLen {
		return nil, 0, ErrBadLength
	}
	if CRC(buf[XattrSize:XattrSize+dataLen]) != order.Uint32(buf[24:]) {
		return nil, 0, ErrBadDataCRC
	}
	return x, int(totlen), nil
}
