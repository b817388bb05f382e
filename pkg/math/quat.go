package math

import "math"

// AxisAngle is a rotation of Angle radians around Axis, the orientation form
// written to model files.
type AxisAngle struct {
	X, Y, Z float64
	Angle   float64
}

// Axis returns the rotation axis as a vector.
func (a AxisAngle) Axis() Vec3 {
	return Vec3{a.X, a.Y, a.Z}
}

// Quat represents a quaternion for 3D rotations.
// Components are stored as X, Y, Z, W where W is the scalar part.
type Quat struct {
	X, Y, Z, W float64
}

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// QuatFromAxisAngle creates a quaternion from an axis-angle rotation.
// The axis does not need to be normalized; a zero axis yields identity.
func QuatFromAxisAngle(a AxisAngle) Quat {
	axis := a.Axis().Normalize()
	if axis == (Vec3{}) {
		return QuatIdentity()
	}
	s := math.Sin(a.Angle / 2)
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: math.Cos(a.Angle / 2),
	}
}

// Normalize returns a normalized quaternion.
func (q Quat) Normalize() Quat {
	length := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if length < 1e-9 {
		return QuatIdentity()
	}
	inv := 1 / length
	return Quat{X: q.X * inv, Y: q.Y * inv, Z: q.Z * inv, W: q.W * inv}
}

// AxisAngle converts the quaternion to axis-angle form. The identity rotation
// maps to a zero axis and zero angle, which is how files spell "no rotation".
func (q Quat) AxisAngle() AxisAngle {
	q = q.Normalize()
	if q.W < 0 {
		q = Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
	}
	angle := 2 * math.Acos(math.Min(q.W, 1))
	s := math.Sqrt(1 - q.W*q.W)
	if s < 1e-9 {
		return AxisAngle{}
	}
	return AxisAngle{X: q.X / s, Y: q.Y / s, Z: q.Z / s, Angle: angle}
}

// Mul multiplies two quaternions (combines rotations).
func (q Quat) Mul(other Quat) Quat {
	return Quat{
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}
