package meshcache

import (
	"errors"
	"fmt"
)

var (
	// ErrNotOpen is returned when writing through a writer that is not open.
	ErrNotOpen = errors.New("meshcache: archive not open")
	// ErrClosed is returned when using a closed reader.
	ErrClosed = errors.New("meshcache: closed")
	// ErrOutOfRange is returned by cursor moves that would leave [0, count).
	ErrOutOfRange = errors.New("meshcache: sample index out of range")
	// ErrUndeclaredAttribute is returned for attribute names not in the schema.
	ErrUndeclaredAttribute = errors.New("meshcache: undeclared attribute")
	// ErrObjectNotFound is returned when a transform or mesh path is missing.
	ErrObjectNotFound = errors.New("meshcache: object not found")
	// ErrInvalidMeshIndex is returned for mesh indices outside [0, NumObjects).
	ErrInvalidMeshIndex = errors.New("meshcache: invalid mesh index")
	// ErrUnknownElementType is returned for declarations with an unknown type.
	ErrUnknownElementType = errors.New("meshcache: unknown element type")
	// ErrUnknownScope is returned for declarations or normals with an unknown scope.
	ErrUnknownScope = errors.New("meshcache: unknown scope")
	// ErrInvalidAttributeName is returned for declarations with an empty name.
	ErrInvalidAttributeName = errors.New("meshcache: invalid attribute name")
	// ErrDuplicateAttribute is returned for a name declared twice with the same type.
	ErrDuplicateAttribute = errors.New("meshcache: duplicate attribute")
	// ErrAttributeTypeConflict is returned for a name declared with both types.
	ErrAttributeTypeConflict = errors.New("meshcache: attribute declared as scalar and vector")
	// ErrInvalidSample is returned when a full sample carries more attribute
	// arrays than the schema declares.
	ErrInvalidSample = errors.New("meshcache: invalid sample")
	// ErrBackend marks failures of the underlying archive or storage.
	ErrBackend = errors.New("meshcache: backend failure")
)

// SchemaError describes a dropped attribute declaration.
//
// The reason can be matched with errors.Is against ErrUnknownElementType,
// ErrUnknownScope, ErrDuplicateAttribute or ErrAttributeTypeConflict.
type SchemaError struct {
	Index int
	Name  string
	cause error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("declaration %d (%q): %v", e.Index, e.Name, e.cause)
}

func (e *SchemaError) Unwrap() error { return e.cause }

// OpenError describes a failed Open or Create.
type OpenError struct {
	Path   string
	Object string
	cause  error
}

func (e *OpenError) Error() string {
	if e.Object != "" {
		return fmt.Sprintf("open %s (object %s): %v", e.Path, e.Object, e.cause)
	}
	return fmt.Sprintf("open %s: %v", e.Path, e.cause)
}

func (e *OpenError) Unwrap() error { return e.cause }

// BackendError wraps a failure of the archive layer.
// It matches ErrBackend with errors.Is.
type BackendError struct {
	Op    string
	cause error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.cause)
}

func (e *BackendError) Unwrap() error { return e.cause }

// Is reports ErrBackend.
func (e *BackendError) Is(target error) bool { return target == ErrBackend }

// SampleIndexError reports a sample index outside [0, Count).
// It matches ErrOutOfRange with errors.Is.
type SampleIndexError struct {
	Index int
	Count int
}

func (e *SampleIndexError) Error() string {
	return fmt.Sprintf("sample index %d out of range [0,%d)", e.Index, e.Count)
}

// Is reports ErrOutOfRange.
func (e *SampleIndexError) Is(target error) bool { return target == ErrOutOfRange }

func backendError(op string, err error) error {
	if err == nil {
		return nil
	}
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	return &BackendError{Op: op, cause: err}
}
