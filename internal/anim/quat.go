package anim

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"mdl-decompiler/internal/rawio"
)

// DecodeQuat48 unpacks the 6-byte quaternion form: x and y as 16-bit values
// biased by 32768, z as a 15-bit value biased by 16384, with the spare high
// bit of z carrying the sign of the reconstructed w.
func DecodeQuat48(b []byte, off int) mgl32.Quat {
	x := (float32(rawio.U16(b, off)) - 32768) / 32768
	y := (float32(rawio.U16(b, off+2)) - 32768) / 32768
	zRaw := rawio.U16(b, off+4)
	z := (float32(zRaw&0x7fff) - 16384) / 16384
	w := reconstructW(x, y, z, zRaw&0x8000 != 0)
	return mgl32.Quat{W: w, V: mgl32.Vec3{x, y, z}}
}

// DecodeQuat64 unpacks the 8-byte quaternion form: x, y, z as consecutive
// 21-bit values biased by 1048576, plus a w sign bit in the top bit.
func DecodeQuat64(b []byte, off int) mgl32.Quat {
	v := rawio.U64(b, off)
	x := (float32(v&0x1fffff) - 1048576) / 1048576.5
	y := (float32((v>>21)&0x1fffff) - 1048576) / 1048576.5
	z := (float32((v>>42)&0x1fffff) - 1048576) / 1048576.5
	w := reconstructW(x, y, z, v>>63 != 0)
	return mgl32.Quat{W: w, V: mgl32.Vec3{x, y, z}}
}

func reconstructW(x, y, z float32, negative bool) float32 {
	w := math32.Sqrt(math32.Max(0, 1-x*x-y*y-z*z))
	if negative {
		return -w
	}
	return w
}
