package rawio

import (
	"encoding/binary"
	"math"
)

// Bounded primitive reads at explicit offsets. Every function returns the zero
// value when the read would run past the end of the buffer; nothing here panics.
// Callers decide whether a zero result is fatal (container header) or a
// truncation signal (table overrun).

// I32 reads a little-endian int32 at off.
func I32(b []byte, off int) int32 {
	if off < 0 || off+4 > len(b) {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b[off:]))
}

// U32 reads a little-endian uint32 at off.
func U32(b []byte, off int) uint32 {
	if off < 0 || off+4 > len(b) {
		return 0
	}
	return binary.LittleEndian.Uint32(b[off:])
}

// I16 reads a little-endian int16 at off.
func I16(b []byte, off int) int16 {
	if off < 0 || off+2 > len(b) {
		return 0
	}
	return int16(binary.LittleEndian.Uint16(b[off:]))
}

// U16 reads a little-endian uint16 at off.
func U16(b []byte, off int) uint16 {
	if off < 0 || off+2 > len(b) {
		return 0
	}
	return binary.LittleEndian.Uint16(b[off:])
}

// U8 reads a single byte at off.
func U8(b []byte, off int) byte {
	if off < 0 || off >= len(b) {
		return 0
	}
	return b[off]
}

// I8 reads a signed byte at off.
func I8(b []byte, off int) int8 {
	return int8(U8(b, off))
}

// U64 reads a little-endian uint64 at off.
func U64(b []byte, off int) uint64 {
	if off < 0 || off+8 > len(b) {
		return 0
	}
	return binary.LittleEndian.Uint64(b[off:])
}

// F32 reads a little-endian float32 at off.
func F32(b []byte, off int) float32 {
	if off < 0 || off+4 > len(b) {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

// F16 reads a half-precision float at off and widens it to float32.
// No corpus library decodes half floats, so the 1:5:10 layout is unpacked here.
func F16(b []byte, off int) float32 {
	bits := U16(b, off)
	if off < 0 || off+2 > len(b) {
		return 0
	}
	sign := uint32(bits>>15) & 1
	exp := uint32(bits>>10) & 0x1f
	frac := uint32(bits) & 0x3ff

	var out uint32
	switch {
	case exp == 0:
		if frac == 0 {
			out = sign << 31 // signed zero
		} else {
			// subnormal: renormalize
			e := uint32(127 - 15 + 1)
			for frac&0x400 == 0 {
				frac <<= 1
				e--
			}
			out = sign<<31 | e<<23 | (frac&0x3ff)<<13
		}
	case exp == 0x1f:
		out = sign<<31 | 0xff<<23 | frac<<13 // inf / nan
	default:
		out = sign<<31 | (exp+127-15)<<23 | frac<<13
	}
	return math.Float32frombits(out)
}

// Vec3 reads three consecutive float32s at off.
func Vec3(b []byte, off int) [3]float32 {
	return [3]float32{F32(b, off), F32(b, off+4), F32(b, off+8)}
}

// CString resolves base+rel and scans for a NUL terminator bounded by the
// buffer. rel <= 0 means "no string stored" and yields "".
func CString(b []byte, base, rel int) string {
	if rel <= 0 {
		return ""
	}
	start := base + rel
	if start < 0 || start >= len(b) {
		return ""
	}
	end := start
	for end < len(b) && b[end] != 0 {
		end++
	}
	return string(b[start:end])
}

// FixedString reads up to n bytes at off, stopping at the first NUL.
func FixedString(b []byte, off, n int) string {
	if off < 0 || off >= len(b) {
		return ""
	}
	end := off + n
	if end > len(b) {
		end = len(b)
	}
	s := b[off:end]
	for i, c := range s {
		if c == 0 {
			return string(s[:i])
		}
	}
	return string(s)
}

// InRange reports whether [off, off+size) lies inside the buffer.
func InRange(b []byte, off, size int) bool {
	return off >= 0 && size >= 0 && off+size <= len(b)
}
