package meshcache

import "github.com/go-gl/mathgl/mgl32"

// EulerTransform composes translate, scale and rotations about X, Y and Z,
// applied in that order as an operation stack: M = T * S * Rx * Ry * Rz.
// Angles are in degrees.
func EulerTransform(translate, scale, rotateDeg Vec3) Mat4 {
	return mgl32.Translate3D(translate.X(), translate.Y(), translate.Z()).
		Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z())).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(rotateDeg.X()))).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(rotateDeg.Y()))).
		Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(rotateDeg.Z())))
}

// AxisAngleTransform composes translate, scale and a rotation of angleDeg
// degrees about axis: M = T * S * R. A zero axis yields no rotation.
func AxisAngleTransform(translate, scale, axis Vec3, angleDeg float32) Mat4 {
	m := mgl32.Translate3D(translate.X(), translate.Y(), translate.Z()).
		Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z()))
	if axis.Len() == 0 {
		return m
	}
	return m.Mul4(mgl32.HomogRotate3D(mgl32.DegToRad(angleDeg), axis.Normalize()))
}
