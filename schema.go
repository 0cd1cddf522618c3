package meshcache

import (
	"fmt"
	"strings"

	"github.com/hupe1980/meshcache/archive"
)

// ColorAttributeName is the vector attribute name stored as colour.
const ColorAttributeName = "Cd"

// ElementType is the value type of a custom attribute.
type ElementType uint8

const (
	// Scalar attributes hold one float32 per element.
	Scalar ElementType = iota
	// Vector3 attributes hold one Vec3 per element.
	Vector3
)

func (t ElementType) String() string {
	switch t {
	case Scalar:
		return "scalar"
	case Vector3:
		return "vector3"
	default:
		return fmt.Sprintf("ElementType(%d)", uint8(t))
	}
}

// Valid reports whether t is a known element type.
func (t ElementType) Valid() bool { return t <= Vector3 }

// ParseElementType parses "scalar", "float", "vector3", "vec3" or "vector".
func ParseElementType(s string) (ElementType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scalar", "float":
		return Scalar, nil
	case "vector3", "vec3", "vector":
		return Vector3, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownElementType, s)
	}
}

// Scope is the element domain an attribute or normal array varies over.
type Scope uint8

const (
	// ScopePoint holds one value per position.
	ScopePoint Scope = iota
	// ScopeVertex holds one value per face corner.
	ScopeVertex
	// ScopeFace holds one value per face.
	ScopeFace
)

func (s Scope) String() string {
	switch s {
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

// ParseScope parses "point", "vertex" or "face".
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "point", "varying":
		return ScopePoint, nil
	case "vertex", "facevarying":
		return ScopeVertex, nil
	case "face", "uniform":
		return ScopeFace, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownScope, s)
	}
}

// Scope mapping between the public enumeration and the archive's.
// ScopePoint, ScopeVertex and ScopeFace are the only scopes an attribute
// can carry; archive.ScopeConstant is never produced.

func (s Scope) archive() (archive.Scope, error) {
	switch s {
	case ScopePoint:
		return archive.ScopePoint, nil
	case ScopeVertex:
		return archive.ScopeVertex, nil
	case ScopeFace:
		return archive.ScopeFace, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownScope, s)
	}
}

func scopeFromArchive(s archive.Scope) (Scope, error) {
	switch s {
	case archive.ScopePoint:
		return ScopePoint, nil
	case archive.ScopeVertex:
		return ScopeVertex, nil
	case archive.ScopeFace:
		return ScopeFace, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownScope, s)
	}
}

// AttributeDescriptor declares one custom attribute.
type AttributeDescriptor struct {
	Name  string
	Type  ElementType
	Scope Scope
}

// IsColor reports whether the attribute is stored through the colour channel.
func (d AttributeDescriptor) IsColor() bool {
	return d.Type == Vector3 && d.Name == ColorAttributeName
}

func (d AttributeDescriptor) String() string {
	return fmt.Sprintf("%s:%s:%s", d.Name, d.Type, d.Scope)
}

// ParseAttributeDescriptor parses "name:type:scope", e.g. "Cd:vector3:point".
func ParseAttributeDescriptor(s string) (AttributeDescriptor, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] == "" {
		return AttributeDescriptor{}, fmt.Errorf("meshcache: attribute %q: want name:type:scope", s)
	}
	t, err := ParseElementType(parts[1])
	if err != nil {
		return AttributeDescriptor{}, err
	}
	sc, err := ParseScope(parts[2])
	if err != nil {
		return AttributeDescriptor{}, err
	}
	return AttributeDescriptor{Name: parts[0], Type: t, Scope: sc}, nil
}

// VectorKind tags a vector slot as a plain vector or a colour.
type VectorKind uint8

const (
	VectorPlain VectorKind = iota
	VectorColor
)

func (k VectorKind) String() string {
	if k == VectorColor {
		return "color"
	}
	return "vector"
}

// AttributeIndex maps declared attribute names to dense slots, one slot
// space per element type. It is immutable once built.
type AttributeIndex struct {
	decls   []AttributeDescriptor
	scalars []AttributeDescriptor
	vectors []AttributeDescriptor
	scalar  map[string]int
	vector  map[string]int
}

// BuildIndex builds an AttributeIndex in one pass over decls. Slots are
// assigned in declaration order within each element type.
//
// Malformed entries are dropped and reported as *SchemaError values; the
// returned index is always usable. A name may be declared once across both
// element types; later conflicting declarations are dropped.
func BuildIndex(decls []AttributeDescriptor) (*AttributeIndex, []error) {
	idx := &AttributeIndex{
		scalar: make(map[string]int),
		vector: make(map[string]int),
	}
	var diags []error
	reject := func(i int, d AttributeDescriptor, cause error) {
		diags = append(diags, &SchemaError{Index: i, Name: d.Name, cause: cause})
	}

	for i, d := range decls {
		switch {
		case d.Name == "":
			reject(i, d, ErrInvalidAttributeName)
			continue
		case !d.Type.Valid():
			reject(i, d, fmt.Errorf("%w: %s", ErrUnknownElementType, d.Type))
			continue
		case !d.Scope.Valid():
			reject(i, d, fmt.Errorf("%w: %s", ErrUnknownScope, d.Scope))
			continue
		}

		_, isScalar := idx.scalar[d.Name]
		_, isVector := idx.vector[d.Name]
		switch {
		case (d.Type == Scalar && isScalar) || (d.Type == Vector3 && isVector):
			reject(i, d, ErrDuplicateAttribute)
			continue
		case isScalar || isVector:
			reject(i, d, ErrAttributeTypeConflict)
			continue
		}

		if d.Type == Scalar {
			idx.scalar[d.Name] = len(idx.scalars)
			idx.scalars = append(idx.scalars, d)
		} else {
			idx.vector[d.Name] = len(idx.vectors)
			idx.vectors = append(idx.vectors, d)
		}
		idx.decls = append(idx.decls, d)
	}
	return idx, diags
}

// ScalarSlot returns the scalar slot of name.
func (x *AttributeIndex) ScalarSlot(name string) (int, bool) {
	s, ok := x.scalar[name]
	return s, ok
}

// VectorSlot returns the vector slot of name.
func (x *AttributeIndex) VectorSlot(name string) (int, bool) {
	s, ok := x.vector[name]
	return s, ok
}

// NumScalars returns the number of scalar slots.
func (x *AttributeIndex) NumScalars() int { return len(x.scalars) }

// NumVectors returns the number of vector slots.
func (x *AttributeIndex) NumVectors() int { return len(x.vectors) }

// Scalar returns the declaration occupying scalar slot.
func (x *AttributeIndex) Scalar(slot int) AttributeDescriptor { return x.scalars[slot] }

// Vector returns the declaration occupying vector slot.
func (x *AttributeIndex) Vector(slot int) AttributeDescriptor { return x.vectors[slot] }

// VectorKind returns whether vector slot is a colour.
func (x *AttributeIndex) VectorKind(slot int) VectorKind {
	if x.vectors[slot].IsColor() {
		return VectorColor
	}
	return VectorPlain
}

// Lookup returns the declaration and slot of name.
func (x *AttributeIndex) Lookup(name string) (AttributeDescriptor, int, bool) {
	if s, ok := x.scalar[name]; ok {
		return x.scalars[s], s, true
	}
	if s, ok := x.vector[name]; ok {
		return x.vectors[s], s, true
	}
	return AttributeDescriptor{}, 0, false
}

// Declarations returns the accepted declarations in declaration order.
func (x *AttributeIndex) Declarations() []AttributeDescriptor {
	out := make([]AttributeDescriptor, len(x.decls))
	copy(out, x.decls)
	return out
}
