// Package vtx decodes the strip/index container: per-LOD triangle strip and
// strip-group data referencing the shared vertex buffer.
package vtx

import (
	"fmt"

	"mdl-decompiler/internal/logx"
	"mdl-decompiler/internal/rawio"
)

const (
	version = 7

	headerSize   = 36
	bodyPartSize = 8
	modelSize    = 8
	lodSize      = 12
	meshSize     = 9

	stripGroupSizeOld = 25
	stripGroupSizeNew = 33 // adds the topology index pair
	stripSizeOld      = 27
	stripSizeNew      = 35

	stripGroupVertSize = 9
	indexSize          = 2
)

// topologyVersion is the first source-model version whose strip and
// strip-group records carry the extra topology index pair.
const topologyVersion = 49

// Strip flag bits.
const (
	StripIsTriList  = 0x01
	StripIsTriStrip = 0x02
)

// Strip is a run of indices inside its strip group, either a triangle list
// or a triangle strip.
type Strip struct {
	NumIndices  int32
	IndexOffset int32
	NumVerts    int32
	VertOffset  int32
	Flags       byte
}

// Vertex maps a strip-group-local vertex to its original mesh-relative index.
type Vertex struct {
	OrigMeshVertID uint16
	BoneCount      byte
	Bones          [3]byte
}

// StripGroup holds local vertex and index arrays plus the strips over them.
type StripGroup struct {
	Vertices []Vertex
	Indices  []uint16
	Strips   []Strip
	Flags    byte
}

// Mesh, LOD, Model, BodyPart mirror the container's nesting.
type Mesh struct {
	StripGroups []StripGroup
	Flags       byte
}

type LOD struct {
	Meshes      []Mesh
	SwitchPoint float32
}

type Model struct {
	LODs []LOD
}

type BodyPart struct {
	Models []Model
}

// File is the decoded strip/index container.
type File struct {
	Checksum  int32
	NumLODs   int32
	BodyParts []BodyPart
}

// Parse decodes a strip/index container. mdlVersion is the owning model's
// version; it gates the record sizes of strips and strip groups.
func Parse(data []byte, mdlVersion int32, log logx.Sink) (*File, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("vtx: buffer too small for header (%d bytes)", len(data))
	}
	if v := rawio.I32(data, 0); v != version {
		return nil, fmt.Errorf("vtx: unsupported version %d", v)
	}

	f := &File{
		Checksum: rawio.I32(data, 16),
		NumLODs:  rawio.I32(data, 20),
	}

	sgSize := stripGroupSizeOld
	stripSize := stripSizeOld
	if mdlVersion >= topologyVersion {
		sgSize = stripGroupSizeNew
		stripSize = stripSizeNew
	}

	numBodyParts := int(rawio.I32(data, 28))
	bodyPartOffset := int(rawio.I32(data, 32))

	for i := 0; i < numBodyParts; i++ {
		base := bodyPartOffset + i*bodyPartSize
		if !rawio.InRange(data, base, bodyPartSize) {
			log.Warnf("vtx: body part table truncated at %d of %d", i, numBodyParts)
			break
		}
		bp := BodyPart{}
		numModels := int(rawio.I32(data, base))
		modelBase := base + int(rawio.I32(data, base+4))
		for j := 0; j < numModels; j++ {
			mb := modelBase + j*modelSize
			if !rawio.InRange(data, mb, modelSize) {
				log.Warnf("vtx: model table truncated at %d of %d", j, numModels)
				break
			}
			bp.Models = append(bp.Models, parseModel(data, mb, sgSize, stripSize, log))
		}
		f.BodyParts = append(f.BodyParts, bp)
	}
	return f, nil
}

func parseModel(data []byte, base, sgSize, stripSize int, log logx.Sink) Model {
	m := Model{}
	numLODs := int(rawio.I32(data, base))
	lodBase := base + int(rawio.I32(data, base+4))
	for i := 0; i < numLODs; i++ {
		lb := lodBase + i*lodSize
		if !rawio.InRange(data, lb, lodSize) {
			log.Warnf("vtx: LOD table truncated at %d of %d", i, numLODs)
			break
		}
		lod := LOD{SwitchPoint: rawio.F32(data, lb+8)}
		numMeshes := int(rawio.I32(data, lb))
		meshBase := lb + int(rawio.I32(data, lb+4))
		for j := 0; j < numMeshes; j++ {
			mb := meshBase + j*meshSize
			if !rawio.InRange(data, mb, meshSize) {
				log.Warnf("vtx: mesh table truncated at %d of %d", j, numMeshes)
				break
			}
			lod.Meshes = append(lod.Meshes, parseMesh(data, mb, sgSize, stripSize, log))
		}
		m.LODs = append(m.LODs, lod)
	}
	return m
}

func parseMesh(data []byte, base, sgSize, stripSize int, log logx.Sink) Mesh {
	mesh := Mesh{Flags: rawio.U8(data, base+8)}
	numGroups := int(rawio.I32(data, base))
	groupBase := base + int(rawio.I32(data, base+4))
	for i := 0; i < numGroups; i++ {
		gb := groupBase + i*sgSize
		if !rawio.InRange(data, gb, sgSize) {
			log.Warnf("vtx: strip group table truncated at %d of %d", i, numGroups)
			break
		}
		mesh.StripGroups = append(mesh.StripGroups, parseStripGroup(data, gb, stripSize, log))
	}
	return mesh
}

func parseStripGroup(data []byte, base, stripSize int, log logx.Sink) StripGroup {
	sg := StripGroup{Flags: rawio.U8(data, base+24)}

	numVerts := int(rawio.I32(data, base))
	vertBase := base + int(rawio.I32(data, base+4))
	for i := 0; i < numVerts; i++ {
		vb := vertBase + i*stripGroupVertSize
		if !rawio.InRange(data, vb, stripGroupVertSize) {
			log.Warnf("vtx: strip group vertices truncated at %d of %d", i, numVerts)
			break
		}
		sg.Vertices = append(sg.Vertices, Vertex{
			Bones:          [3]byte{rawio.U8(data, vb+6), rawio.U8(data, vb+7), rawio.U8(data, vb+8)},
			BoneCount:      rawio.U8(data, vb+3),
			OrigMeshVertID: rawio.U16(data, vb+4),
		})
	}

	numIndices := int(rawio.I32(data, base+8))
	indexBase := base + int(rawio.I32(data, base+12))
	for i := 0; i < numIndices; i++ {
		ib := indexBase + i*indexSize
		if !rawio.InRange(data, ib, indexSize) {
			log.Warnf("vtx: strip group indices truncated at %d of %d", i, numIndices)
			break
		}
		sg.Indices = append(sg.Indices, rawio.U16(data, ib))
	}

	numStrips := int(rawio.I32(data, base+16))
	stripBase := base + int(rawio.I32(data, base+20))
	for i := 0; i < numStrips; i++ {
		sb := stripBase + i*stripSize
		if !rawio.InRange(data, sb, stripSize) {
			log.Warnf("vtx: strip table truncated at %d of %d", i, numStrips)
			break
		}
		sg.Strips = append(sg.Strips, Strip{
			NumIndices:  rawio.I32(data, sb),
			IndexOffset: rawio.I32(data, sb+4),
			NumVerts:    rawio.I32(data, sb+8),
			VertOffset:  rawio.I32(data, sb+12),
			Flags:       rawio.U8(data, sb+18),
		})
	}
	return sg
}
