// Package hash provides the CRC32-Castagnoli checksum used by archive
// chunks and manifests. Go's hash/crc32 uses SSE4.2 or the ARM CRC
// extension for this polynomial when available.
package hash
