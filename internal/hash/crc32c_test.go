package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C(t *testing.T) {
	// Check value from RFC 3720, B.4.
	assert.Equal(t, uint32(0xE3069283), CRC32C([]byte("123456789")))
	assert.Equal(t, uint32(0), CRC32C(nil))

	got, ok := Verify([]byte("123456789"), 0xE3069283)
	assert.True(t, ok)
	assert.Equal(t, uint32(0xE3069283), got)

	_, ok = Verify([]byte("123456780"), 0xE3069283)
	assert.False(t, ok)
}
