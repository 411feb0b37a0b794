package vtx

import (
	"encoding/binary"
	"testing"

	"mdl-decompiler/internal/logx"
)

func putI32(b []byte, off int, v int32) {
	binary.LittleEndian.PutUint32(b[off:], uint32(v))
}

func putU16(b []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(b[off:], v)
}

// buildFile lays out one body part / model / LOD / mesh / strip group with
// three vertices, five indices and one strip, using the record sizes
// selected by mdlVersion.
func buildFile(t *testing.T, mdlVersion int32) *File {
	t.Helper()

	sgSize := stripGroupSizeOld
	stripSize := stripSizeOld
	if mdlVersion >= topologyVersion {
		sgSize = stripGroupSizeNew
		stripSize = stripSizeNew
	}

	const (
		bodyPartAt = headerSize
		modelAt    = bodyPartAt + bodyPartSize
		lodAt      = modelAt + modelSize
		meshAt     = lodAt + lodSize
		groupAt    = meshAt + meshSize
	)
	vertsAt := groupAt + sgSize
	indicesAt := vertsAt + 3*stripGroupVertSize
	stripsAt := indicesAt + 5*indexSize

	b := make([]byte, stripsAt+stripSize)
	putI32(b, 0, version)
	putI32(b, 16, 777) // checksum
	putI32(b, 20, 1)   // numLODs
	putI32(b, 28, 1)   // numBodyParts
	putI32(b, 32, bodyPartAt)

	putI32(b, bodyPartAt, 1)
	putI32(b, bodyPartAt+4, modelAt-bodyPartAt)

	putI32(b, modelAt, 1)
	putI32(b, modelAt+4, lodAt-modelAt)

	putI32(b, lodAt, 1)
	putI32(b, lodAt+4, meshAt-lodAt)

	putI32(b, meshAt, 1)
	putI32(b, meshAt+4, groupAt-meshAt)

	putI32(b, groupAt, 3)
	putI32(b, groupAt+4, int32(vertsAt-groupAt))
	putI32(b, groupAt+8, 5)
	putI32(b, groupAt+12, int32(indicesAt-groupAt))
	putI32(b, groupAt+16, 1)
	putI32(b, groupAt+20, int32(stripsAt-groupAt))

	for i := 0; i < 3; i++ {
		vb := vertsAt + i*stripGroupVertSize
		b[vb] = byte(i) // bone weight index, distinct from the bone IDs
		b[vb+3] = 1
		putU16(b, vb+4, uint16(10+i))
		b[vb+6] = byte(40 + i)
		b[vb+7] = byte(50 + i)
		b[vb+8] = byte(60 + i)
	}
	for i := 0; i < 5; i++ {
		putU16(b, indicesAt+i*indexSize, uint16(i))
	}
	putI32(b, stripsAt, 5)      // numIndices
	putI32(b, stripsAt+4, 0)    // indexOffset
	putI32(b, stripsAt+8, 3)    // numVerts
	putI32(b, stripsAt+12, 0)   // vertOffset
	b[stripsAt+18] = StripIsTriStrip

	f, err := Parse(b, mdlVersion, logx.Sink{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return f
}

func TestParseRejectsWrongVersion(t *testing.T) {
	b := make([]byte, headerSize)
	putI32(b, 0, 6)
	if _, err := Parse(b, 48, logx.Sink{}); err == nil {
		t.Fatal("Parse accepted version 6")
	}
}

func TestParseNestedTables(t *testing.T) {
	for _, mdlVersion := range []int32{48, 49} {
		f := buildFile(t, mdlVersion)
		if len(f.BodyParts) != 1 || len(f.BodyParts[0].Models) != 1 {
			t.Fatalf("v%d: body part/model nesting wrong", mdlVersion)
		}
		lods := f.BodyParts[0].Models[0].LODs
		if len(lods) != 1 || len(lods[0].Meshes) != 1 {
			t.Fatalf("v%d: LOD/mesh nesting wrong", mdlVersion)
		}
		groups := lods[0].Meshes[0].StripGroups
		if len(groups) != 1 {
			t.Fatalf("v%d: got %d strip groups", mdlVersion, len(groups))
		}
		sg := groups[0]
		if len(sg.Vertices) != 3 || len(sg.Indices) != 5 || len(sg.Strips) != 1 {
			t.Fatalf("v%d: group contents %d/%d/%d", mdlVersion,
				len(sg.Vertices), len(sg.Indices), len(sg.Strips))
		}
		for i, v := range sg.Vertices {
			if v.OrigMeshVertID != uint16(10+i) {
				t.Errorf("v%d: vertex %d orig id = %d", mdlVersion, i, v.OrigMeshVertID)
			}
			want := [3]byte{byte(40 + i), byte(50 + i), byte(60 + i)}
			if v.Bones != want {
				t.Errorf("v%d: vertex %d bones = %v, want %v", mdlVersion, i, v.Bones, want)
			}
		}
		if sg.Strips[0].Flags&StripIsTriStrip == 0 {
			t.Errorf("v%d: strip flags = %#x", mdlVersion, sg.Strips[0].Flags)
		}
		if sg.Strips[0].NumIndices != 5 {
			t.Errorf("v%d: strip index count = %d", mdlVersion, sg.Strips[0].NumIndices)
		}
	}
}

func TestChecksumExposed(t *testing.T) {
	f := buildFile(t, 48)
	if f.Checksum != 777 {
		t.Errorf("checksum = %d, want 777", f.Checksum)
	}
}
