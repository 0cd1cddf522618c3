package archive

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an object, property or archive is missing.
	ErrNotFound = errors.New("archive: not found")
	// ErrCorrupt is returned when stored bytes fail validation.
	ErrCorrupt = errors.New("archive: corrupt data")
	// ErrClosed is returned when using a closed reader or writer.
	ErrClosed = errors.New("archive: closed")
	// ErrPropertyExists is returned when creating a duplicate property or child.
	ErrPropertyExists = errors.New("archive: already exists")
	// ErrTypeMismatch is returned when reading or writing a property with the
	// wrong element type.
	ErrTypeMismatch = errors.New("archive: data type mismatch")
	// ErrAbsent is returned when reading a sample index that carries no data.
	ErrAbsent = errors.New("archive: sample absent")
	// ErrSampleRange is returned for sample indices outside [0, NumSamples).
	ErrSampleRange = errors.New("archive: sample index out of range")
)

// ChecksumMismatchError is returned when a chunk's CRC does not match.
type ChecksumMismatchError struct {
	Offset   int64
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch at offset %d: expected 0x%08x, got 0x%08x", e.Offset, e.Expected, e.Actual)
}

// Is reports ErrCorrupt.
func (e *ChecksumMismatchError) Is(target error) bool {
	return target == ErrCorrupt
}

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrCorrupt}, args...)...)
}
