package hash

import "hash/crc32"

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// Verify reports the checksum of data and whether it equals want.
func Verify(data []byte, want uint32) (uint32, bool) {
	got := CRC32C(data)
	return got, got == want
}
