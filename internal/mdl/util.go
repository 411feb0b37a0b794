package mdl

import (
	"github.com/go-gl/mathgl/mgl32"

	"mdl-decompiler/internal/rawio"
)

func vec3At(b []byte, off int) mgl32.Vec3 {
	return mgl32.Vec3{rawio.F32(b, off), rawio.F32(b, off+4), rawio.F32(b, off+8)}
}

// quatAt reads an (x, y, z, w) quaternion.
func quatAt(b []byte, off int) mgl32.Quat {
	return mgl32.Quat{
		V: mgl32.Vec3{rawio.F32(b, off), rawio.F32(b, off+4), rawio.F32(b, off+8)},
		W: rawio.F32(b, off+12),
	}
}

func mgl3(x, y, z float32) mgl32.Vec3 {
	return mgl32.Vec3{x, y, z}
}
