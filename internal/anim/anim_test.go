package anim

import (
	"encoding/binary"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"mdl-decompiler/internal/build"
	"mdl-decompiler/internal/logx"
	"mdl-decompiler/internal/mdl"
)

// encodeQuat48 is the test-side inverse of DecodeQuat48.
func encodeQuat48(q mgl32.Quat) []byte {
	out := make([]byte, 6)
	binary.LittleEndian.PutUint16(out[0:], uint16(q.V[0]*32768+32768))
	binary.LittleEndian.PutUint16(out[2:], uint16(q.V[1]*32768+32768))
	z := uint16(q.V[2]*16384+16384) & 0x7fff
	if q.W < 0 {
		z |= 0x8000
	}
	binary.LittleEndian.PutUint16(out[4:], z)
	return out
}

// encodeQuat64 is the test-side inverse of DecodeQuat64.
func encodeQuat64(q mgl32.Quat) []byte {
	var v uint64
	v |= uint64(int64(q.V[0]*1048576.5)+1048576) & 0x1fffff
	v |= (uint64(int64(q.V[1]*1048576.5)+1048576) & 0x1fffff) << 21
	v |= (uint64(int64(q.V[2]*1048576.5)+1048576) & 0x1fffff) << 42
	if q.W < 0 {
		v |= 1 << 63
	}
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, v)
	return out
}

func quatClose(a, b mgl32.Quat, tol float32) bool {
	return math32.Abs(a.W-b.W) < tol &&
		math32.Abs(a.V[0]-b.V[0]) < tol &&
		math32.Abs(a.V[1]-b.V[1]) < tol &&
		math32.Abs(a.V[2]-b.V[2]) < tol
}

func TestQuat48RoundTrip(t *testing.T) {
	cases := []mgl32.Quat{
		mgl32.QuatIdent(),
		mgl32.QuatRotate(1.2, mgl32.Vec3{0, 0, 1}),
		mgl32.QuatRotate(-0.7, mgl32.Vec3{1, 0, 0}),
		{W: -0.5, V: mgl32.Vec3{0.5, 0.5, 0.5}},
	}
	for _, q := range cases {
		q = q.Normalize()
		got := DecodeQuat48(encodeQuat48(q), 0)
		if !quatClose(q, got, 1e-3) {
			t.Errorf("quat48 round trip: %v -> %v", q, got)
		}
	}
}

func TestQuat64RoundTrip(t *testing.T) {
	cases := []mgl32.Quat{
		mgl32.QuatIdent(),
		mgl32.QuatRotate(2.1, mgl32.Vec3{0, 1, 0}),
		{W: -0.3, V: mgl32.Vec3{0.1, 0.6, 0.2}},
	}
	for _, q := range cases {
		q = q.Normalize()
		got := DecodeQuat64(encodeQuat64(q), 0)
		if !quatClose(q, got, 1e-5) {
			t.Errorf("quat64 round trip: %v -> %v", q, got)
		}
	}
}

func TestExtractValueWalksPairs(t *testing.T) {
	// pair one: valid=2 total=5 samples 10,20,30; pair two: valid=1 total=3
	// samples 40,50
	stream := []byte{
		2, 5, 10, 0, 20, 0, 30, 0,
		1, 3, 40, 0, 50, 0,
	}
	v, ok := extractValue(stream, 0, 6)
	if !ok || v != 50 {
		t.Fatalf("frame 6 = %d (%v), want 50", v, ok)
	}

	// frames past a pair's stored samples hold the last sample
	v, _ = extractValue(stream, 0, 4)
	if v != 30 {
		t.Errorf("frame 4 = %d, want held 30", v)
	}
	v, _ = extractValue(stream, 0, 1)
	if v != 20 {
		t.Errorf("frame 1 = %d, want 20", v)
	}

	if _, ok := extractValue(stream, 0, 100); ok {
		t.Error("walk past the stream end did not fail")
	}
}

// testAnimFile lays one sequence, one animation and one inline channel chunk
// into a raw buffer.
func testAnimFile() *mdl.File {
	data := make([]byte, 600)
	le := binary.LittleEndian

	// animation description at 0
	le.PutUint32(data[8:], math32.Float32bits(30)) // fps
	le.PutUint32(data[16:], 2)                     // frames
	le.PutUint32(data[56:], 100)                   // channel data

	// chunk at 100: bone 0 run-length rotation, then bone 1 raw position
	data[100] = 0
	data[101] = flagAnimRot
	le.PutUint16(data[102:], 14)
	le.PutUint16(data[104:], 6) // x channel right after the offsets
	// stream: valid=0 total=2, one sample of 100
	data[110], data[111] = 0, 2
	le.PutUint16(data[112:], 100)

	data[114] = 1
	data[115] = flagRawPos
	le.PutUint16(data[116:], 0)
	le.PutUint16(data[118:], 0x3c00) // 1.0
	le.PutUint16(data[120:], 0x4000) // 2.0
	le.PutUint16(data[122:], 0x4200) // 3.0

	// sequence description at 300
	le.PutUint32(data[304:], 212) // label at 512
	copy(data[512:], "idle\x00")
	le.PutUint32(data[360:], 220) // blend table at 520
	le.PutUint32(data[368:], 1)
	le.PutUint32(data[372:], 1)
	le.PutUint16(data[520:], 0) // entry -> animation 0

	return &mdl.File{
		Bones: []mdl.Bone{
			{Index: 0, Rot: mgl32.Vec3{0.5, 0.1, 0.2}, RotScale: mgl32.Vec3{0.01, 1, 1}},
			{Index: 1, Pos: mgl32.Vec3{9, 9, 9}},
		},
		LocalAnimCount:  1,
		LocalAnimOffset: 0,
		LocalSeqCount:   1,
		LocalSeqOffset:  300,
		Data:            data,
	}
}

func TestDecodeSequence(t *testing.T) {
	f := testAnimFile()
	var ctx build.Context
	Decode(f, &ctx, logx.Sink{})

	if len(ctx.Sequences) != 1 {
		t.Fatalf("got %d sequences", len(ctx.Sequences))
	}
	seq := ctx.Sequences[0]
	if seq.Name != "idle" || seq.FPS != 30 || len(seq.Frames) != 2 {
		t.Fatalf("sequence = %q fps %v frames %d", seq.Name, seq.FPS, len(seq.Frames))
	}

	pose := seq.Frames[0]
	// bone 0: x from the run-length channel (100 * 0.01 + base 0.5),
	// y and z keep the base pose
	if math32.Abs(pose.Rotations[0][0]-1.5) > 1e-5 {
		t.Errorf("bone 0 rot x = %v, want 1.5", pose.Rotations[0][0])
	}
	if pose.Rotations[0][1] != 0.1 || pose.Rotations[0][2] != 0.2 {
		t.Errorf("bone 0 rot = %v", pose.Rotations[0])
	}
	// bone 1: raw half-float position overrides the base pose
	if pose.Positions[1] != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("bone 1 pos = %v", pose.Positions[1])
	}
}

func TestDecodeSkipsExternalBlock(t *testing.T) {
	f := testAnimFile()
	binary.LittleEndian.PutUint32(f.Data[52:], 2) // external block
	var ctx build.Context
	warned := false
	Decode(f, &ctx, logx.Sink{Warn: func(string, ...any) { warned = true }})
	if len(ctx.Sequences) != 0 {
		t.Errorf("sequences = %+v, want none", ctx.Sequences)
	}
	if !warned {
		t.Error("no warning for the skipped sequence")
	}
}
