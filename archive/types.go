package archive

import (
	"fmt"
	"time"
)

// DataType is the element type of a property.
type DataType uint8

const (
	// Int32 stores int32 elements.
	Int32 DataType = iota + 1
	// Float32 stores float32 elements.
	Float32
	// Float32x3 stores 3-component float32 vectors.
	Float32x3
	// Float32x16 stores column-major 4x4 float32 matrices.
	Float32x16
)

// Width returns the number of float32/int32 words per element.
func (t DataType) Width() int {
	switch t {
	case Int32, Float32:
		return 1
	case Float32x3:
		return 3
	case Float32x16:
		return 16
	default:
		return 0
	}
}

func (t DataType) String() string {
	switch t {
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	case Float32x3:
		return "float32x3"
	case Float32x16:
		return "float32x16"
	default:
		return fmt.Sprintf("DataType(%d)", uint8(t))
	}
}

// Interpretation tags how a vector property should be understood.
type Interpretation string

const (
	InterpretNone   Interpretation = ""
	InterpretPoint  Interpretation = "point"
	InterpretNormal Interpretation = "normal"
	InterpretVector Interpretation = "vector"
	InterpretColor  Interpretation = "color"
	InterpretMatrix Interpretation = "matrix"
)

// Scope is the topological element a property's values map to.
type Scope uint8

const (
	// ScopeConstant holds one value for the whole object.
	ScopeConstant Scope = iota
	// ScopePoint holds one value per point (varying).
	ScopePoint
	// ScopeVertex holds one value per face-vertex.
	ScopeVertex
	// ScopeFace holds one value per face.
	ScopeFace
)

func (s Scope) String() string {
	switch s {
	case ScopeConstant:
		return "constant"
	case ScopePoint:
		return "point"
	case ScopeVertex:
		return "vertex"
	case ScopeFace:
		return "face"
	default:
		return fmt.Sprintf("Scope(%d)", uint8(s))
	}
}

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool { return s <= ScopeFace }

// Kind is the schema of an object.
type Kind string

const (
	KindXform    Kind = "xform"
	KindPolyMesh Kind = "polymesh"
)

// Property names and groups used by the mesh schemas.
const (
	PropPositions   = "P"
	PropFaceIndices = ".faceIndices"
	PropFaceCounts  = ".faceCounts"
	PropNormals     = "N"
	PropXform       = ".xform"

	// GroupArbGeomParams holds custom per-mesh attributes.
	GroupArbGeomParams = "arbGeomParams"
)

// TimeSampling maps sample indices to seconds.
type TimeSampling struct {
	Start float64 `json:"start"`
	Step  float64 `json:"step"`
}

// DefaultTimeSampling is 24 samples per second starting at zero.
var DefaultTimeSampling = TimeSampling{Start: 0, Step: 1.0 / 24.0}

// SampleTime returns the time of sample i in seconds.
func (ts TimeSampling) SampleTime(i int) float64 {
	return ts.Start + float64(i)*ts.Step
}

// Duration returns the time of sample i as a time.Duration.
func (ts TimeSampling) Duration(i int) time.Duration {
	return time.Duration(ts.SampleTime(i) * float64(time.Second))
}
