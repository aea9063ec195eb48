package extract

import "encoding/binary"

// decodeDevice unpacks the device number stored as the payload of a
// device inode. Two encodings exist: the old 16 bit one and the 32 bit
// one introduced with large device numbers.
func decodeDevice(payload []byte, order binary.ByteOrder) (major, minor uint32, ok bool) {
	switch len(payload) {
	case 2:
		dev := uint32(order.Uint16(payload))
		return dev >> 8, dev & 0xff, true
	case 4:
		dev := order.Uint32(payload)
		return (dev & 0xfff00) >> 8, (dev & 0xff) | ((dev >> 12) & 0xfff00), true
	}
	return 0, 0, false
}
