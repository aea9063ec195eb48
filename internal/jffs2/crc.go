package jffs2

import "hash/crc32"

// CRC computes the checksum used by the on-flash format: the reflected
// IEEE CRC-32 seeded with zero and without the final inversion.
func CRC(p []byte) uint32 {
	return ^crc32.Update(0xffffffff, crc32.IEEETable, p)
}
