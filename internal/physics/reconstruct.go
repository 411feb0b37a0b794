// Package physics derives collision shapes, body markers and ragdoll joints
// from the decoded physics container.
package physics

import (
	"strconv"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"mdl-decompiler/internal/build"
	"mdl-decompiler/internal/logx"
	"mdl-decompiler/internal/names"
	"mdl-decompiler/internal/phy"
	"mdl-decompiler/internal/skeleton"
	"mdl-decompiler/internal/studio"
)

// fallbackRadius sizes the placeholder sphere for solids without usable hull
// data. It is a deliberate approximation, not a fit.
const fallbackRadius = 1.0

// activeThreshold is the angular range, in degrees, below which a constraint
// axis counts as locked.
const activeThreshold = 5.0

// Reconstruct fills the context's shapes, bodies and joints. It is a no-op
// when the model carries no physics container. It expects the context's bone
// export names to be populated already.
func Reconstruct(m *studio.Model, ctx *build.Context, log logx.Sink) {
	if !m.HasPhysics() {
		return
	}
	world := skeleton.WorldTransforms(m.MDL.Bones)

	bound := make([]binding, len(m.Physics.Solids))
	seenBody := make(map[string]bool)
	for i := range m.Physics.Solids {
		solid := &m.Physics.Solids[i]
		b := bindSolid(solid, m, ctx)
		bound[i] = b

		ctx.Shapes = append(ctx.Shapes, solidShape(solid, b))
		if seenBody[b.name] {
			continue
		}
		seenBody[b.name] = true
		ctx.Bodies = append(ctx.Bodies, build.Body{
			BoneName: b.name,
			Mass:     solid.Mass,
			Surface:  solid.SurfaceProp,
		})
	}

	for _, c := range m.Physics.Constraints {
		j, ok := classifyConstraint(c, bound, world, m)
		if !ok {
			log.Warnf("physics: constraint links unknown solids %d and %d", c.Parent, c.Child)
			continue
		}
		ctx.Joints = append(ctx.Joints, j)
	}
}

// binding resolves a solid to a bone: the export name used on output and the
// bone table index, or -1 when no bone matched.
type binding struct {
	name string
	bone int
}

func bindSolid(solid *phy.Solid, m *studio.Model, ctx *build.Context) binding {
	for i := range m.MDL.Bones {
		if m.MDL.Bones[i].Name == solid.Name {
			return binding{name: ctx.BoneNames[i], bone: i}
		}
	}
	canon := names.Canonicalize(solid.Name)
	for i, exported := range ctx.BoneNames {
		if exported == canon {
			return binding{name: exported, bone: i}
		}
	}
	if solid.Name == "" {
		return binding{name: "solid_" + strconv.Itoa(solid.Index), bone: -1}
	}
	return binding{name: canon, bone: -1}
}

// solidShape fits an axis-aligned box around the solid's hull points, or
// falls back to a small placeholder sphere when there is no usable hull or
// no bound bone.
func solidShape(solid *phy.Solid, b binding) build.Shape {
	if b.bone < 0 || !hasPoints(solid.Hulls) {
		return build.SphereShape{BoneName: b.name, Radius: fallbackRadius}
	}
	first := true
	var min, max mgl32.Vec3
	for _, hull := range solid.Hulls {
		for _, p := range hull {
			if first {
				min, max = p, p
				first = false
				continue
			}
			for c := 0; c < 3; c++ {
				min[c] = math32.Min(min[c], p[c])
				max[c] = math32.Max(max[c], p[c])
			}
		}
	}
	return build.BoxShape{
		BoneName:   b.name,
		Origin:     min.Add(max).Mul(0.5),
		Dimensions: max.Sub(min),
	}
}

func hasPoints(hulls [][]mgl32.Vec3) bool {
	for _, h := range hulls {
		if len(h) > 0 {
			return true
		}
	}
	return false
}

func classifyConstraint(c phy.RagdollConstraint, bound []binding,
	world []skeleton.Transform, m *studio.Model) (build.Joint, bool) {

	if int(c.Parent) >= len(bound) || int(c.Child) >= len(bound) ||
		c.Parent < 0 || c.Child < 0 {
		return nil, false
	}
	parent, child := bound[c.Parent], bound[c.Child]
	anchor := jointAnchor(parent, child, world, m)

	active := 0
	bestAxis, bestRange := 0, float32(-1)
	for axis := 0; axis < 3; axis++ {
		r := math32.Abs(c.Axes[axis].Max - c.Axes[axis].Min)
		if r > activeThreshold {
			active++
		}
		if r > bestRange {
			bestAxis, bestRange = axis, r
		}
	}

	if active <= 1 {
		return build.RevoluteJoint{
			ParentBone: parent.name,
			ChildBone:  child.name,
			Anchor:     anchor,
			Axis:       bestAxis,
			Min:        c.Axes[bestAxis].Min,
			Max:        c.Axes[bestAxis].Max,
		}, true
	}

	swing := math32.Max(
		math32.Max(math32.Abs(c.Axes[1].Min), math32.Abs(c.Axes[1].Max)),
		math32.Max(math32.Abs(c.Axes[2].Min), math32.Abs(c.Axes[2].Max)))
	return build.ConicalJoint{
		ParentBone: parent.name,
		ChildBone:  child.name,
		Anchor:     anchor,
		Swing:      swing,
		TwistMin:   c.Axes[0].Min,
		TwistMax:   c.Axes[0].Max,
	}, true
}

// jointAnchor places the joint at the child bone's position expressed in the
// parent bone's local space. When either transform is unavailable it falls
// back to the child's stored local position.
func jointAnchor(parent, child binding, world []skeleton.Transform, m *studio.Model) mgl32.Vec3 {
	if parent.bone >= 0 && child.bone >= 0 &&
		world[parent.bone].Valid && world[child.bone].Valid {
		delta := world[child.bone].Pos.Sub(world[parent.bone].Pos)
		return world[parent.bone].Rot.Inverse().Rotate(delta)
	}
	if child.bone >= 0 {
		return m.MDL.Bones[child.bone].Pos
	}
	return mgl32.Vec3{}
}
