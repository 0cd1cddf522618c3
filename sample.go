package meshcache

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Vec3 is a 3-component float32 vector.
type Vec3 = mgl32.Vec3

// Mat4 is a column-major 4x4 float32 matrix.
type Mat4 = mgl32.Mat4

// GeometrySample is one time step of a mesh.
//
// Scalars and Vectors are indexed by the slots of the owning AttributeIndex.
// ScalarPresent and VectorPresent report whether the slot was loaded for this
// sample; an absent slot keeps the contents of an earlier sample.
//
// Normals do not carry over. When a sample has no normals the reader sets
// Normals to nil and NormalsPresent to false, and NormalScope keeps its last
// value.
type GeometrySample struct {
	Positions   []Vec3
	FaceIndices []int32
	FaceCounts  []int32

	Normals        []Vec3
	NormalScope    Scope
	NormalsPresent bool

	Scalars       [][]float32
	Vectors       [][]Vec3
	ScalarPresent []bool
	VectorPresent []bool
}

// newGeometrySample allocates slot tables sized for idx.
func newGeometrySample(idx *AttributeIndex) *GeometrySample {
	return &GeometrySample{
		NormalScope:   ScopeVertex,
		Scalars:       make([][]float32, idx.NumScalars()),
		Vectors:       make([][]Vec3, idx.NumVectors()),
		ScalarPresent: make([]bool, idx.NumScalars()),
		VectorPresent: make([]bool, idx.NumVectors()),
	}
}

// NumFaces returns the number of faces.
func (s *GeometrySample) NumFaces() int { return len(s.FaceCounts) }

// Count returns the number of elements an array of the given scope must hold.
func (s *GeometrySample) Count(scope Scope) int {
	switch scope {
	case ScopePoint:
		return len(s.Positions)
	case ScopeVertex:
		return len(s.FaceIndices)
	case ScopeFace:
		return len(s.FaceCounts)
	default:
		return -1
	}
}

// Clone returns a deep copy of s.
func (s *GeometrySample) Clone() *GeometrySample {
	c := &GeometrySample{
		Positions:      append([]Vec3(nil), s.Positions...),
		FaceIndices:    append([]int32(nil), s.FaceIndices...),
		FaceCounts:     append([]int32(nil), s.FaceCounts...),
		Normals:        append([]Vec3(nil), s.Normals...),
		NormalScope:    s.NormalScope,
		NormalsPresent: s.NormalsPresent,
		ScalarPresent:  append([]bool(nil), s.ScalarPresent...),
		VectorPresent:  append([]bool(nil), s.VectorPresent...),
	}
	if s.Scalars != nil {
		c.Scalars = make([][]float32, len(s.Scalars))
		for i, v := range s.Scalars {
			c.Scalars[i] = append([]float32(nil), v...)
		}
	}
	if s.Vectors != nil {
		c.Vectors = make([][]Vec3, len(s.Vectors))
		for i, v := range s.Vectors {
			c.Vectors[i] = append([]Vec3(nil), v...)
		}
	}
	return c
}

func (s *GeometrySample) scalarPresent(slot int) bool {
	if slot >= len(s.ScalarPresent) {
		// Unset presence means every supplied array is present.
		return s.ScalarPresent == nil
	}
	return s.ScalarPresent[slot]
}

func (s *GeometrySample) vectorPresent(slot int) bool {
	if slot >= len(s.VectorPresent) {
		return s.VectorPresent == nil
	}
	return s.VectorPresent[slot]
}

// Validate checks topology and the element counts implied by each scope.
// It is not applied on append; callers opt in.
func (s *GeometrySample) Validate(idx *AttributeIndex) error {
	var errs []error
	sum := 0
	for f, n := range s.FaceCounts {
		if n < 3 {
			errs = append(errs, fmt.Errorf("face %d has %d vertices", f, n))
		}
		sum += int(n)
	}
	if sum != len(s.FaceIndices) {
		errs = append(errs, fmt.Errorf("face counts sum to %d, have %d face indices", sum, len(s.FaceIndices)))
	}
	for i, p := range s.FaceIndices {
		if p < 0 || int(p) >= len(s.Positions) {
			errs = append(errs, fmt.Errorf("face index %d at %d out of range [0,%d)", p, i, len(s.Positions)))
			break
		}
	}
	if s.NormalsPresent {
		if want := s.Count(s.NormalScope); len(s.Normals) != want {
			errs = append(errs, fmt.Errorf("normals: %s scope wants %d values, have %d", s.NormalScope, want, len(s.Normals)))
		}
	}
	if idx != nil {
		for slot := 0; slot < idx.NumScalars() && slot < len(s.Scalars); slot++ {
			d := idx.Scalar(slot)
			if want := s.Count(d.Scope); s.scalarPresent(slot) && len(s.Scalars[slot]) != want {
				errs = append(errs, fmt.Errorf("%s: %s scope wants %d values, have %d", d.Name, d.Scope, want, len(s.Scalars[slot])))
			}
		}
		for slot := 0; slot < idx.NumVectors() && slot < len(s.Vectors); slot++ {
			d := idx.Vector(slot)
			if want := s.Count(d.Scope); s.vectorPresent(slot) && len(s.Vectors[slot]) != want {
				errs = append(errs, fmt.Errorf("%s: %s scope wants %d values, have %d", d.Name, d.Scope, want, len(s.Vectors[slot])))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSample, errors.Join(errs...))
	}
	return nil
}
