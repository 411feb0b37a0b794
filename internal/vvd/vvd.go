// Package vvd decodes the vertex container: the per-vertex data shared by
// every LOD, plus the fixup table that reorders it per LOD.
package vvd

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"mdl-decompiler/internal/logx"
	"mdl-decompiler/internal/rawio"
)

const (
	magic   = "IDSV"
	version = 4

	headerSize  = 64
	fixupSize   = 12
	vertexSize  = 48
	tangentSize = 16

	maxLODs = 8
)

// Vertex is one entry of the shared vertex array.
type Vertex struct {
	Weights  [3]float32
	Bones    [3]byte
	NumBones byte
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

// Fixup remaps a range of source vertices into a LOD's vertex order.
type Fixup struct {
	LOD            int32
	SourceVertexID int32
	NumVertexes    int32
}

// File is the decoded vertex container.
type File struct {
	Checksum      int32
	NumLODs       int32
	LODVertexes   [maxLODs]int32
	Fixups        []Fixup
	Vertices      []Vertex
	Tangents      []mgl32.Vec4
}

// Parse decodes a vertex container buffer.
func Parse(data []byte, log logx.Sink) (*File, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("vvd: buffer too small for header (%d bytes)", len(data))
	}
	if string(data[0:4]) != magic {
		return nil, fmt.Errorf("vvd: bad magic %q", string(data[0:4]))
	}
	if v := rawio.I32(data, 4); v != version {
		return nil, fmt.Errorf("vvd: unsupported version %d", v)
	}

	f := &File{
		Checksum: rawio.I32(data, 8),
		NumLODs:  rawio.I32(data, 12),
	}
	for i := 0; i < maxLODs; i++ {
		f.LODVertexes[i] = rawio.I32(data, 16+i*4)
	}

	numFixups := int(rawio.I32(data, 48))
	fixupStart := int(rawio.I32(data, 52))
	vertexStart := int(rawio.I32(data, 56))
	tangentStart := int(rawio.I32(data, 60))

	for i := 0; i < numFixups; i++ {
		base := fixupStart + i*fixupSize
		if !rawio.InRange(data, base, fixupSize) {
			log.Warnf("vvd: fixup table truncated at %d of %d", i, numFixups)
			break
		}
		f.Fixups = append(f.Fixups, Fixup{
			LOD:            rawio.I32(data, base),
			SourceVertexID: rawio.I32(data, base+4),
			NumVertexes:    rawio.I32(data, base+8),
		})
	}

	// The raw vertex array spans from vertexDataStart to tangentDataStart.
	numVerts := 0
	if tangentStart > vertexStart {
		numVerts = (tangentStart - vertexStart) / vertexSize
	}
	for i := 0; i < numVerts; i++ {
		base := vertexStart + i*vertexSize
		if !rawio.InRange(data, base, vertexSize) {
			log.Warnf("vvd: vertex data truncated at %d of %d", i, numVerts)
			break
		}
		v := Vertex{
			Weights:  [3]float32{rawio.F32(data, base), rawio.F32(data, base+4), rawio.F32(data, base+8)},
			Bones:    [3]byte{rawio.U8(data, base+12), rawio.U8(data, base+13), rawio.U8(data, base+14)},
			NumBones: rawio.U8(data, base+15),
			Position: mgl32.Vec3{rawio.F32(data, base+16), rawio.F32(data, base+20), rawio.F32(data, base+24)},
			Normal:   mgl32.Vec3{rawio.F32(data, base+28), rawio.F32(data, base+32), rawio.F32(data, base+36)},
			UV:       mgl32.Vec2{rawio.F32(data, base+40), rawio.F32(data, base+44)},
		}
		f.Vertices = append(f.Vertices, v)
	}

	numTangents := (len(data) - tangentStart) / tangentSize
	if numTangents > numVerts {
		numTangents = numVerts
	}
	for i := 0; i < numTangents; i++ {
		base := tangentStart + i*tangentSize
		if !rawio.InRange(data, base, tangentSize) {
			break
		}
		f.Tangents = append(f.Tangents, mgl32.Vec4{
			rawio.F32(data, base), rawio.F32(data, base+4),
			rawio.F32(data, base+8), rawio.F32(data, base+12),
		})
	}

	return f, nil
}

// VerticesForLOD returns the vertex array as seen by the given LOD.
//
// With no fixups the raw array is already in final order. With fixups the raw
// array is stored pre-reordering, so they must be applied even for LOD 0:
// concatenate, in table order, the range of every fixup whose LOD is at
// least the requested one.
func (f *File) VerticesForLOD(lod int) []Vertex {
	if len(f.Fixups) == 0 {
		return f.Vertices
	}
	var out []Vertex
	for _, fx := range f.Fixups {
		if int(fx.LOD) < lod {
			continue
		}
		start := int(fx.SourceVertexID)
		end := start + int(fx.NumVertexes)
		if start < 0 || end > len(f.Vertices) || start > end {
			continue
		}
		out = append(out, f.Vertices[start:end]...)
	}
	return out
}
