// Package skeleton derives world-space bone transforms from the bone table's
// parent-relative locals.
package skeleton

import (
	"github.com/go-gl/mathgl/mgl32"

	"mdl-decompiler/internal/mathx"
	"mdl-decompiler/internal/mdl"
)

// Transform is one bone's world-space pose.
type Transform struct {
	Pos   mgl32.Vec3
	Rot   mgl32.Quat
	Valid bool
}

const (
	statePending = iota
	stateComputing
	stateDone
)

// WorldTransforms composes each bone's local pose with its parent's world
// pose. The walk is iterative over the bone arena with an explicit
// in-progress marker: a bone whose parent chain loops back onto a bone still
// being computed is treated as a root instead of recursing forever.
func WorldTransforms(bones []mdl.Bone) []Transform {
	out := make([]Transform, len(bones))
	state := make([]uint8, len(bones))

	for i := range bones {
		if state[i] == stateDone {
			continue
		}
		stack := []int{i}
		for len(stack) > 0 {
			j := stack[len(stack)-1]
			if state[j] == stateDone {
				stack = stack[:len(stack)-1]
				continue
			}
			p := int(bones[j].Parent)
			rootLike := p < 0 || p >= len(bones) || p == j ||
				state[p] == stateComputing
			if rootLike {
				out[j] = localPose(&bones[j])
				state[j] = stateDone
				stack = stack[:len(stack)-1]
				continue
			}
			if state[p] == stateDone {
				out[j] = compose(out[p], localPose(&bones[j]))
				state[j] = stateDone
				stack = stack[:len(stack)-1]
				continue
			}
			state[j] = stateComputing
			stack = append(stack, p)
		}
	}
	return out
}

func localPose(b *mdl.Bone) Transform {
	rot := b.Quat
	if rot.Len() < 1e-6 {
		rot = mathx.EulerToQuat(b.Rot)
	}
	return Transform{Pos: b.Pos, Rot: rot.Normalize(), Valid: true}
}

func compose(parent, local Transform) Transform {
	return Transform{
		Pos:   parent.Pos.Add(parent.Rot.Rotate(local.Pos)),
		Rot:   parent.Rot.Mul(local.Rot).Normalize(),
		Valid: true,
	}
}
