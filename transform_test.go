package meshcache

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func apply(m Mat4, p Vec3) Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

func TestEulerTransform(t *testing.T) {
	t.Run("Identity", func(t *testing.T) {
		m := EulerTransform(Vec3{}, Vec3{1, 1, 1}, Vec3{})
		assert.True(t, m.ApproxEqual(mgl32.Ident4()))
	})

	t.Run("Order", func(t *testing.T) {
		// Rz first, then scale, then translate.
		m := EulerTransform(Vec3{1, 2, 3}, Vec3{2, 2, 2}, Vec3{0, 0, 90})
		got := apply(m, Vec3{1, 0, 0})
		assert.True(t, got.ApproxEqualThreshold(Vec3{1, 4, 3}, 1e-5), "got %v", got)
	})

	t.Run("XThenY", func(t *testing.T) {
		// Ry is applied before Rx: (0,0,1) -Ry90-> (1,0,0) -Rx90-> (1,0,0).
		m := EulerTransform(Vec3{}, Vec3{1, 1, 1}, Vec3{90, 90, 0})
		got := apply(m, Vec3{0, 0, 1})
		assert.True(t, got.ApproxEqualThreshold(Vec3{1, 0, 0}, 1e-5), "got %v", got)
	})
}

func TestAxisAngleTransform(t *testing.T) {
	m := AxisAngleTransform(Vec3{1, 2, 3}, Vec3{1, 1, 1}, Vec3{0, 0, 5}, 90)
	got := apply(m, Vec3{1, 0, 0})
	assert.True(t, got.ApproxEqualThreshold(Vec3{1, 3, 3}, 1e-5), "got %v", got)

	noAxis := AxisAngleTransform(Vec3{1, 0, 0}, Vec3{1, 1, 1}, Vec3{}, 45)
	assert.True(t, noAxis.ApproxEqual(mgl32.Translate3D(1, 0, 0)))
}
