package jffs2

import (
	"encoding/binary"
	"fmt"
)

// Magic is the bitmask found at the start of every valid node.
const Magic uint16 = 0x1985

type NodeType uint16

const (
	featureIncompat      = 0xc000
	featureRWCompatDel   = 0x0000
	nodeAccurate         = 0x2000
	NodeTypeDirent       = NodeType(featureIncompat | nodeAccurate | 1)
	NodeTypeInode        = NodeType(featureIncompat | nodeAccurate | 2)
	NodeTypeCleanmarker  = NodeType(featureRWCompatDel | nodeAccurate | 3)
	NodeTypePadding      = NodeType(featureRWCompatDel | nodeAccurate | 4)
	NodeTypeSummary      = NodeType(featureRWCompatDel | nodeAccurate | 6)
	NodeTypeXattr        = NodeType(featureIncompat | nodeAccurate | 8)
	NodeTypeXref         = NodeType(featureIncompat | nodeAccurate | 9)
)

func (t NodeType) String() string {
	switch t {
	case NodeTypeDirent:
		return "DIRENT"
	case NodeTypeInode:
		return "INODE"
	case NodeTypeCleanmarker:
		return "CLEANMARKER"
	case NodeTypePadding:
		return "PADDING"
	case NodeTypeSummary:
		return "SUMMARY"
	case NodeTypeXattr:
		return "XATTR"
	case NodeTypeXref:
		return "XREF"
	}
	return fmt.Sprintf("%#04x", uint16(t))
}

// Fixed on-flash sizes of the node structures.
const (
	HeaderSize = 12
	DirentSize = 40
	InodeSize  = 68
	XrefSize   = 28
	XattrSize  = 32
)

// MaxNameLen is the longest name a dirent may carry.
const MaxNameLen = 254

// RootIno is the inode number of the (implicit) root directory.
const RootIno = 1

// Dirent entry types, as stored in the type field of a dirent node.
const (
	DTUnknown = 0
	DTFifo    = 1
	DTChr     = 2
	DTDir     = 4
	DTBlk     = 6
	DTReg     = 8
	DTLnk     = 10
	DTSock    = 12
)

// File type bits of the mode field.
const (
	SIFMT   = 0o170000
	SIFSOCK = 0o140000
	SIFLNK  = 0o120000
	SIFREG  = 0o100000
	SIFBLK  = 0o060000
	SIFDIR  = 0o040000
	SIFCHR  = 0o020000
	SIFIFO  = 0o010000
)

func IsDir(mode uint32) bool {
	return mode&SIFMT == SIFDIR
}

// Header is the common header shared by every node.
type Header struct {
	Magic    uint16
	NodeType NodeType
	TotLen   uint32
	HdrCRC   uint32
}

// Dirent is a decoded directory entry node.
type Dirent struct {
	Pino    uint32
	Version uint32
	Ino     uint32
	Mctime  uint32
	Type    uint8
	Name    string
}

// Inode is a decoded inode node. Data borrows from the scanned buffer.
type Inode struct {
	Ino       uint32
	Version   uint32
	Mode      uint32
	UID       uint16
	GID       uint16
	ISize     uint32
	Atime     uint32
	Mtime     uint32
	Ctime     uint32
	Offset    uint32
	CSize     uint32
	DSize     uint32
	Compr     uint8
	UserCompr uint8
	Flags     uint16
	Data      []byte
}

// Xref links an inode to an extended attribute. Only its framing is used.
type Xref struct {
	Xid    uint32
	Xseqno uint32
	Ino    uint32
}

// Xattr is an extended attribute node. Only its framing is used.
type Xattr struct {
	Xid      uint32
	Version  uint32
	Xprefix  uint8
	NameLen  uint8
	ValueLen uint16
}

// Node is a validated node found by the Scanner. Exactly one of the
// typed fields is set, except for cleanmarkers which carry no payload.
type Node struct {
	Offset int // Position of the node within the scanned buffer
	Len    int // Number of bytes the scanner advanced past the node
	Type   NodeType

	Dirent *Dirent
	Inode  *Inode
	Xref   *Xref
	Xattr  *Xattr
}

// ByteOrderName returns a printable name for one of the two supported orders.
func ByteOrderName(order binary.ByteOrder) string {
	if order == binary.BigEndian {
		return "big"
	}
	return "little"
}
