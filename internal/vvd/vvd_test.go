package vvd

import (
	"encoding/binary"
	"math"
	"testing"

	"mdl-decompiler/internal/logx"
)

func putI32(b []byte, off int, v int32) {
	binary.LittleEndian.PutUint32(b[off:], uint32(v))
}

func putF32(b []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(b[off:], math.Float32bits(v))
}

// buildFile assembles a synthetic container with the given vertices (marked
// by X position) and fixups.
func buildFile(t *testing.T, numVerts int, fixups []Fixup) *File {
	t.Helper()

	fixupStart := headerSize
	vertexStart := fixupStart + len(fixups)*fixupSize
	tangentStart := vertexStart + numVerts*vertexSize

	b := make([]byte, tangentStart)
	copy(b, magic)
	putI32(b, 4, version)
	putI32(b, 8, 1234)
	putI32(b, 12, 1)
	lod0 := numVerts
	if len(fixups) > 0 {
		lod0 = 0
		for _, fx := range fixups {
			if fx.LOD >= 0 {
				lod0 += int(fx.NumVertexes)
			}
		}
	}
	putI32(b, 16, int32(lod0)) // declared LOD 0 vertex count
	putI32(b, 48, int32(len(fixups)))
	putI32(b, 52, int32(fixupStart))
	putI32(b, 56, int32(vertexStart))
	putI32(b, 60, int32(tangentStart))

	for i, fx := range fixups {
		base := fixupStart + i*fixupSize
		putI32(b, base, fx.LOD)
		putI32(b, base+4, fx.SourceVertexID)
		putI32(b, base+8, fx.NumVertexes)
	}
	for i := 0; i < numVerts; i++ {
		base := vertexStart + i*vertexSize
		b[base+15] = 1                        // one bone
		putF32(b, base, 1.0)                  // full weight
		putF32(b, base+16, float32(i))        // position.x marks the vertex
	}

	f, err := Parse(b, logx.Sink{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return f
}

func TestParseRejectsBadHeader(t *testing.T) {
	b := make([]byte, headerSize)
	copy(b, "XXXX")
	if _, err := Parse(b, logx.Sink{}); err == nil {
		t.Fatal("Parse accepted bad magic")
	}
	copy(b, magic)
	putI32(b, 4, 2)
	if _, err := Parse(b, logx.Sink{}); err == nil {
		t.Fatal("Parse accepted version 2")
	}
}

func TestVerticesForLODNoFixupsIsIdentity(t *testing.T) {
	f := buildFile(t, 5, nil)
	got := f.VerticesForLOD(0)
	if len(got) != 5 {
		t.Fatalf("got %d vertices, want 5", len(got))
	}
	for i, v := range got {
		if v.Position.X() != float32(i) {
			t.Errorf("vertex %d position.x = %v, want %d", i, v.Position.X(), i)
		}
	}
}

func TestVerticesForLODAppliesFixupsEvenAtLOD0(t *testing.T) {
	// Raw order 0..5; the fixup table reorders LOD 0 to [4 5 0 1 2].
	f := buildFile(t, 6, []Fixup{
		{LOD: 0, SourceVertexID: 4, NumVertexes: 2},
		{LOD: 1, SourceVertexID: 0, NumVertexes: 3},
	})
	got := f.VerticesForLOD(0)
	want := []float32{4, 5, 0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("got %d vertices, want %d", len(got), len(want))
	}
	if int32(len(got)) != f.LODVertexes[0] {
		t.Errorf("length %d does not match declared LOD-0 count %d", len(got), f.LODVertexes[0])
	}
	for i, w := range want {
		if got[i].Position.X() != w {
			t.Errorf("vertex %d position.x = %v, want %v", i, got[i].Position.X(), w)
		}
	}
}

func TestVerticesForLODFiltersLowerLODs(t *testing.T) {
	f := buildFile(t, 6, []Fixup{
		{LOD: 0, SourceVertexID: 4, NumVertexes: 2},
		{LOD: 1, SourceVertexID: 0, NumVertexes: 3},
	})
	got := f.VerticesForLOD(1)
	if len(got) != 3 {
		t.Fatalf("got %d vertices at LOD 1, want 3", len(got))
	}
	for i := 0; i < 3; i++ {
		if got[i].Position.X() != float32(i) {
			t.Errorf("vertex %d position.x = %v", i, got[i].Position.X())
		}
	}
}
