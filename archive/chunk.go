package archive

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hupe1980/meshcache/internal/conv"
	"github.com/hupe1980/meshcache/internal/hash"
)

// Chunk layout (little-endian):
//
//	[0:4)   magic "MCC1"
//	[4]     DataType
//	[5]     Compression
//	[6:8)   reserved
//	[8:12)  element count
//	[12:16) raw payload length
//	[16:20) stored payload length
//	[20:24) CRC32C of the raw payload
//	[24:)   stored payload
const chunkHeaderSize = 24

var chunkMagic = [4]byte{'M', 'C', 'C', '1'}

type chunkHeader struct {
	dtype    DataType
	comp     Compression
	count    uint32
	rawLen   uint32
	storeLen uint32
	crc      uint32
}

func encodeChunk(dtype DataType, count int, raw []byte, c Compression) ([]byte, error) {
	stored, used, err := compress(raw, c)
	if err != nil {
		return nil, err
	}
	var hdr [3]uint32
	for i, v := range [3]int{count, len(raw), len(stored)} {
		if hdr[i], err = conv.IntToUint32(v); err != nil {
			return nil, fmt.Errorf("archive: chunk too large: %w", err)
		}
	}

	out := make([]byte, chunkHeaderSize+len(stored))
	copy(out[0:4], chunkMagic[:])
	out[4] = byte(dtype)
	out[5] = byte(used)
	binary.LittleEndian.PutUint32(out[8:], hdr[0])
	binary.LittleEndian.PutUint32(out[12:], hdr[1])
	binary.LittleEndian.PutUint32(out[16:], hdr[2])
	binary.LittleEndian.PutUint32(out[20:], hash.CRC32C(raw))
	copy(out[chunkHeaderSize:], stored)
	return out, nil
}

func parseChunkHeader(b []byte) (chunkHeader, error) {
	if len(b) < chunkHeaderSize {
		return chunkHeader{}, corruptf("chunk header truncated (%d bytes)", len(b))
	}
	if [4]byte(b[0:4]) != chunkMagic {
		return chunkHeader{}, corruptf("bad chunk magic %q", b[0:4])
	}
	return chunkHeader{
		dtype:    DataType(b[4]),
		comp:     Compression(b[5]),
		count:    binary.LittleEndian.Uint32(b[8:]),
		rawLen:   binary.LittleEndian.Uint32(b[12:]),
		storeLen: binary.LittleEndian.Uint32(b[16:]),
		crc:      binary.LittleEndian.Uint32(b[20:]),
	}, nil
}

// decodeChunk validates a whole chunk (header + payload) read at off and
// returns its header and raw payload.
func decodeChunk(b []byte, off int64) (chunkHeader, []byte, error) {
	h, err := parseChunkHeader(b)
	if err != nil {
		return h, nil, err
	}
	if int64(len(b)) != chunkHeaderSize+int64(h.storeLen) {
		return h, nil, corruptf("chunk at %d has %d bytes, header says %d", off, len(b), chunkHeaderSize+int64(h.storeLen))
	}
	if want := int(h.count) * h.dtype.Width() * 4; want != int(h.rawLen) {
		return h, nil, corruptf("chunk at %d: %d elements of %s need %d bytes, header says %d", off, h.count, h.dtype, want, h.rawLen)
	}

	raw, err := decompress(b[chunkHeaderSize:], h.comp, int(h.rawLen))
	if err != nil {
		return h, nil, err
	}
	if sum, ok := hash.Verify(raw, h.crc); !ok {
		return h, nil, &ChecksumMismatchError{Offset: off, Expected: h.crc, Actual: sum}
	}
	return h, raw, nil
}

func putFloat32s(dst []byte, src []float32) {
	for i, v := range src {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

func encodeFloat32s(v []float32) []byte {
	out := make([]byte, len(v)*4)
	putFloat32s(out, v)
	return out
}

func encodeInt32s(v []int32) []byte {
	out := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(x))
	}
	return out
}

func encodeVec3s(v []mgl32.Vec3) []byte {
	out := make([]byte, len(v)*12)
	for i := range v {
		putFloat32s(out[i*12:], v[i][:])
	}
	return out
}

func encodeMat4(m mgl32.Mat4) []byte {
	return encodeFloat32s(m[:])
}

func decodeFloat32s(raw []byte) []float32 {
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}

func decodeInt32s(raw []byte) []int32 {
	out := make([]int32, len(raw)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}

func decodeVec3s(raw []byte) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(raw)/12)
	for i := range out {
		b := raw[i*12:]
		out[i] = mgl32.Vec3{
			math.Float32frombits(binary.LittleEndian.Uint32(b[0:])),
			math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
			math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
		}
	}
	return out
}

func decodeMat4s(raw []byte) []mgl32.Mat4 {
	out := make([]mgl32.Mat4, len(raw)/64)
	for i := range out {
		copy(out[i][:], decodeFloat32s(raw[i*64:(i+1)*64]))
	}
	return out
}
