// Package anim decodes embedded animation bitstreams into per-frame bone
// poses.
package anim

import (
	"github.com/go-gl/mathgl/mgl32"

	"mdl-decompiler/internal/build"
	"mdl-decompiler/internal/logx"
	"mdl-decompiler/internal/mathx"
	"mdl-decompiler/internal/mdl"
	"mdl-decompiler/internal/names"
	"mdl-decompiler/internal/rawio"
)

const (
	animDescSize = 100
	seqDescSize  = 212
	sectionSize  = 8
)

// Per-bone channel flags in the run-length stream headers.
const (
	flagRawPos  = 0x01 // constant position, three half floats
	flagRawRot  = 0x02 // constant rotation, 48-bit quaternion
	flagAnimPos = 0x04 // per-axis run-length position channels
	flagAnimRot = 0x08 // per-axis run-length rotation channels
	flagDelta   = 0x10 // channels are offsets, not absolute poses
	flagRawRot2 = 0x20 // constant rotation, 64-bit quaternion
)

type animDesc struct {
	base          int
	Name          string
	FPS           float32
	Flags         int32
	NumFrames     int32
	Block         int32
	AnimIndex     int32
	SectionIndex  int32
	SectionFrames int32
}

// Decode resolves every local sequence to its primary animation and appends
// the decoded frame poses to the context. Sequences referencing external
// animation blocks are skipped with a warning.
func Decode(f *mdl.File, ctx *build.Context, log logx.Sink) {
	if f.LocalSeqCount <= 0 {
		return
	}
	descs := parseAnimDescs(f, log)
	seqDedup := names.NewDedup()

	for i := 0; i < int(f.LocalSeqCount); i++ {
		base := int(f.LocalSeqOffset) + i*seqDescSize
		if !rawio.InRange(f.Data, base, seqDescSize) {
			log.Warnf("anim: sequence table truncated at entry %d", i)
			break
		}
		label := rawio.CString(f.Data, base, int(rawio.I32(f.Data, base+4)))
		name := seqDedup.Take(names.Canonicalize(label))

		animIdx, ok := primaryAnim(f.Data, base)
		if !ok {
			log.Warnf("anim: sequence %s has no usable blend entry", name)
			continue
		}
		if animIdx >= len(descs) {
			log.Warnf("anim: sequence %s references animation %d of %d", name, animIdx, len(descs))
			continue
		}
		d := descs[animIdx]
		if d.Block > 0 {
			log.Warnf("anim: sequence %s uses external animation block %d, skipping", name, d.Block)
			continue
		}
		frames, ok := decodeFrames(f, d)
		if !ok {
			log.Warnf("anim: sequence %s uses an external section block, skipping", name)
			continue
		}
		ctx.Sequences = append(ctx.Sequences, build.SequencePoses{
			Name:   name,
			FPS:    d.FPS,
			Frames: frames,
		})
	}
}

func parseAnimDescs(f *mdl.File, log logx.Sink) []animDesc {
	var out []animDesc
	for i := 0; i < int(f.LocalAnimCount); i++ {
		base := int(f.LocalAnimOffset) + i*animDescSize
		if !rawio.InRange(f.Data, base, animDescSize) {
			log.Warnf("anim: animation table truncated at entry %d", i)
			break
		}
		out = append(out, animDesc{
			base:          base,
			Name:          rawio.CString(f.Data, base, int(rawio.I32(f.Data, base+4))),
			FPS:           rawio.F32(f.Data, base+8),
			Flags:         rawio.I32(f.Data, base+12),
			NumFrames:     rawio.I32(f.Data, base+16),
			Block:         rawio.I32(f.Data, base+52),
			AnimIndex:     rawio.I32(f.Data, base+56),
			SectionIndex:  rawio.I32(f.Data, base+80),
			SectionFrames: rawio.I32(f.Data, base+84),
		})
	}
	return out
}

// primaryAnim reads the sequence's blend-index table and returns the first
// non-negative entry.
func primaryAnim(data []byte, seqBase int) (int, bool) {
	w := int(rawio.I32(data, seqBase+68))
	h := int(rawio.I32(data, seqBase+72))
	count := w * h
	if count <= 0 {
		count = int(rawio.I32(data, seqBase+56))
	}
	table := seqBase + int(rawio.I32(data, seqBase+60))
	for i := 0; i < count; i++ {
		if !rawio.InRange(data, table+i*2, 2) {
			return 0, false
		}
		if idx := rawio.I16(data, table+i*2); idx >= 0 {
			return int(idx), true
		}
	}
	return 0, false
}

// decodeFrames produces one pose per frame. The second return is false when
// a section chunk lives in an external block.
func decodeFrames(f *mdl.File, d animDesc) ([]build.FramePose, bool) {
	numFrames := int(d.NumFrames)
	if numFrames < 1 {
		numFrames = 1
	}
	sectioned := d.SectionIndex != 0 && d.SectionFrames > 0

	frames := make([]build.FramePose, 0, numFrames)
	for fr := 0; fr < numFrames; fr++ {
		chunk := d.base + int(d.AnimIndex)
		local := fr
		if sectioned {
			sec := fr / int(d.SectionFrames)
			local = fr % int(d.SectionFrames)
			secBase := d.base + int(d.SectionIndex) + sec*sectionSize
			if rawio.I32(f.Data, secBase) != 0 {
				return nil, false
			}
			chunk = d.base + int(rawio.I32(f.Data, secBase+4))
		}
		frames = append(frames, decodePose(f, d, chunk, local))
	}
	return frames, true
}

// decodePose walks the per-bone channel headers of one chunk and fills a
// frame pose. Bones with no channel data keep the base pose.
func decodePose(f *mdl.File, d animDesc, chunk, frame int) build.FramePose {
	pose := build.FramePose{
		Positions: make([]mgl32.Vec3, len(f.Bones)),
		Rotations: make([]mgl32.Vec3, len(f.Bones)),
	}
	for i := range f.Bones {
		pose.Positions[i] = f.Bones[i].Pos
		pose.Rotations[i] = f.Bones[i].Rot
	}

	off := chunk
	for rawio.InRange(f.Data, off, 4) {
		bone := int(rawio.U8(f.Data, off))
		flags := rawio.U8(f.Data, off+1)
		next := int(rawio.U16(f.Data, off+2))
		if bone < len(f.Bones) {
			decodeBone(f.Data, &f.Bones[bone], flags, off+4, frame,
				&pose.Positions[bone], &pose.Rotations[bone])
		}
		if next == 0 {
			break
		}
		off += next
	}
	return pose
}

func decodeBone(data []byte, bone *mdl.Bone, flags byte, p, frame int,
	pos, rot *mgl32.Vec3) {

	// delta channels store offsets from zero rather than absolute poses
	delta := flags&flagDelta != 0
	if delta {
		*pos = mgl32.Vec3{}
		*rot = mgl32.Vec3{}
	}

	switch {
	case flags&flagRawRot2 != 0:
		*rot = mathx.QuatToEuler(DecodeQuat64(data, p))
		p += 8
	case flags&flagRawRot != 0:
		*rot = mathx.QuatToEuler(DecodeQuat48(data, p))
		p += 6
	}

	if flags&flagRawPos != 0 {
		*pos = mgl32.Vec3{rawio.F16(data, p), rawio.F16(data, p+2), rawio.F16(data, p+4)}
		p += 6
	}

	if flags&flagAnimRot != 0 {
		e := *rot
		for axis := 0; axis < 3; axis++ {
			o := int(rawio.U16(data, p+axis*2))
			if o == 0 {
				continue
			}
			if v, ok := extractValue(data, p+o, frame); ok {
				e[axis] = float32(v)*bone.RotScale[axis] + e[axis]
			}
		}
		*rot = e
		p += 6
	}

	if flags&flagAnimPos != 0 {
		e := *pos
		for axis := 0; axis < 3; axis++ {
			o := int(rawio.U16(data, p+axis*2))
			if o == 0 {
				continue
			}
			if v, ok := extractValue(data, p+o, frame); ok {
				e[axis] = float32(v)*bone.PosScale[axis] + e[axis]
			}
		}
		*pos = e
	}
}
