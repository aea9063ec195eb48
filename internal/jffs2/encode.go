package jffs2

import "encoding/binary"

// The encoders below produce well-formed nodes. They are used to build
// synthetic images; an image writer would pad each node to 4 bytes,
// which is left to the caller.

func putHeader(buf []byte, order binary.ByteOrder, typ NodeType, totlen uint32) {
	order.PutUint16(buf[0:], Magic)
	order.PutUint16(buf[2:], uint16(typ))
	order.PutUint32(buf[4:], totlen)
	order.PutUint32(buf[8:], CRC(buf[:HeaderSize-4]))
}

// EncodeCleanmarker returns an erase block cleanmarker.
func EncodeCleanmarker(order binary.ByteOrder) []byte {
	buf := make([]byte, HeaderSize)
	putHeader(buf, order, NodeTypeCleanmarker, HeaderSize)
	return buf
}

// EncodeDirent returns a dirent node. The name must not exceed 255 bytes.
func EncodeDirent(order binary.ByteOrder, d *Dirent) []byte {
	buf := make([]byte, DirentSize+len(d.Name))
	putHeader(buf, order, NodeTypeDirent, uint32(len(buf)))

	order.PutUint32(buf[12:], d.Pino)
	order.PutUint32(buf[16:], d.Version)
	order.PutUint32(buf[20:], d.Ino)
	order.PutUint32(buf[24:], d.Mctime)
	buf[28] = uint8(len(d.Name))
	buf[29] = d.Type
	order.PutUint32(buf[32:], CRC(buf[:DirentSize-8]))
	copy(buf[DirentSize:], d.Name)
	order.PutUint32(buf[36:], CRC(buf[DirentSize:]))
	return buf
}

// EncodeInode returns an inode node carrying ino.Data as its payload.
// CSize is always taken from len(ino.Data).
func EncodeInode(order binary.ByteOrder, ino *Inode) []byte {
	buf := make([]byte, InodeSize+len(ino.Data))
	putHeader(buf, order, NodeTypeInode, uint32(len(buf)))

	order.PutUint32(buf[12:], ino.Ino)
	order.PutUint32(buf[16:], ino.Version)
	order.PutUint32(buf[20:], ino.Mode)
	order.PutUint16(buf[24:], ino.UID)
	order.PutUint16(buf[26:], ino.GID)
	order.PutUint32(buf[28:], ino.ISize)
	order.PutUint32(buf[32:], ino.Atime)
	order.PutUint32(buf[36:], ino.Mtime)
	order.PutUint32(buf[40:], ino.Ctime)
	order.PutUint32(buf[44:], ino.Offset)
	order.PutUint32(buf[48:], uint32(len(ino.Data)))
	order.PutUint32(buf[52:], ino.DSize)
	buf[56] = ino.Compr
	buf[57] = ino.UserCompr
	order.PutUint16(buf[58:], ino.Flags)
	copy(buf[InodeSize:], ino.Data)
	order.PutUint32(buf[60:], CRC(buf[InodeSize:]))
	order.PutUint32(buf[64:], CRC(buf[:InodeSize-8]))
	return buf
}

// EncodeXref returns an xattr cross reference node.
func EncodeXref(order binary.ByteOrder, x *Xref) []byte {
	buf := make([]byte, XrefSize)
	putHeader(buf, order, NodeTypeXref, XrefSize)

	order.PutUint32(buf[12:], x.Xid)
	order.PutUint32(buf[16:], x.Xseqno)
	order.PutUint32(buf[20:], x.Ino)
	order.PutUint32(buf[24:], CRC(buf[:XrefSize-4]))
	return buf
}

// EncodeXattr returns an xattr node holding name and value.
func EncodeXattr(order binary.ByteOrder, xid uint32, prefix uint8, name string, value []byte) []byte {
	dataLen := len(name) + 1 + len(value)
	buf := make([]byte, XattrSize+dataLen)
	putHeader(buf, order, NodeTypeXattr, uint32(len(buf)))

	order.PutUint32(buf[12:], xid)
	order.PutUint32(buf[16:], 1)
	buf[20] = prefix
	buf[21] = uint8(len(name))
	order.PutUint16(buf[22:], uint16(len(value)))
	copy(buf[XattrSize:], name)
	copy(buf[XattrSize+len(name)+1:], value)
	order.PutUint32(buf[24:], CRC(buf[XattrSize:]))
	order.PutUint32(buf[28:], CRC(buf[:XattrSize-4]))
	return buf
}

// Pad4 appends 0xff bytes (erased flash) until len(buf) is a multiple of 4.
func Pad4(buf []byte) []byte {
	for len(buf)%4 != 0 {
		buf = append(buf, 0xff)
	}
	return buf
}
