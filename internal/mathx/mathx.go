package mathx

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float32) float32 {
	return d * math32.Pi / 180
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(r float32) float32 {
	return r * 180 / math32.Pi
}

// EulerToQuat converts Euler XYZ angles (radians, X applied first) to a
// quaternion.
func EulerToQuat(e mgl32.Vec3) mgl32.Quat {
	cx, sx := math32.Cos(e.X()*0.5), math32.Sin(e.X()*0.5)
	cy, sy := math32.Cos(e.Y()*0.5), math32.Sin(e.Y()*0.5)
	cz, sz := math32.Cos(e.Z()*0.5), math32.Sin(e.Z()*0.5)

	return mgl32.Quat{
		W: cx*cy*cz + sx*sy*sz,
		V: mgl32.Vec3{
			sx*cy*cz - cx*sy*sz,
			cx*sy*cz + sx*cy*sz,
			cx*cy*sz - sx*sy*cz,
		},
	}
}

// QuatToEuler is the inverse of EulerToQuat. The Y angle is clamped to ±π/2
// at gimbal lock.
func QuatToEuler(q mgl32.Quat) mgl32.Vec3 {
	x, y, z, w := q.V.X(), q.V.Y(), q.V.Z(), q.W

	sinY := 2 * (w*y - z*x)
	var ry float32
	if sinY >= 1 {
		ry = math32.Pi / 2
	} else if sinY <= -1 {
		ry = -math32.Pi / 2
	} else {
		ry = math32.Asin(sinY)
	}

	rx := math32.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))
	rz := math32.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
	return mgl32.Vec3{rx, ry, rz}
}
