package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"mdl-decompiler/internal/build"
	"mdl-decompiler/internal/logx"
	"mdl-decompiler/internal/mdl"
	"mdl-decompiler/internal/phy"
	"mdl-decompiler/internal/studio"
)

func ragdollModel() (*studio.Model, *build.Context) {
	m := &studio.Model{
		MDL: &mdl.File{Bones: []mdl.Bone{
			{Index: 0, Name: "Bip01 Pelvis", Parent: -1, Quat: mgl32.QuatIdent()},
			{Index: 1, Name: "Bip01 Spine", Parent: 0, Pos: mgl32.Vec3{0, 0, 8}, Quat: mgl32.QuatIdent()},
		}},
		Physics: &phy.File{},
	}
	ctx := &build.Context{BoneNames: []string{"Bip01_Pelvis", "Bip01_Spine"}}
	return m, ctx
}

func TestReconstructNoPhysicsIsNoop(t *testing.T) {
	m, ctx := ragdollModel()
	m.Physics = nil
	Reconstruct(m, ctx, logx.Sink{})
	if len(ctx.Shapes) != 0 || len(ctx.Bodies) != 0 || len(ctx.Joints) != 0 {
		t.Errorf("context mutated without physics data: %+v", ctx)
	}
}

func TestSolidWithHullGetsBox(t *testing.T) {
	m, ctx := ragdollModel()
	m.Physics.Solids = []phy.Solid{{
		Index: 0, Name: "Bip01 Pelvis", Mass: 12, SurfaceProp: "flesh",
		Hulls: [][]mgl32.Vec3{{
			{-1, -2, -3}, {5, 2, 3}, {0, 0, 0},
		}},
	}}
	Reconstruct(m, ctx, logx.Sink{})

	if len(ctx.Shapes) != 1 {
		t.Fatalf("got %d shapes", len(ctx.Shapes))
	}
	box, ok := ctx.Shapes[0].(build.BoxShape)
	if !ok {
		t.Fatalf("shape = %T, want box", ctx.Shapes[0])
	}
	if box.BoneName != "Bip01_Pelvis" {
		t.Errorf("bone = %q", box.BoneName)
	}
	if box.Origin != (mgl32.Vec3{2, 0, 0}) || box.Dimensions != (mgl32.Vec3{6, 4, 6}) {
		t.Errorf("box = %+v", box)
	}
	if len(ctx.Bodies) != 1 || ctx.Bodies[0].Mass != 12 || ctx.Bodies[0].Surface != "flesh" {
		t.Errorf("bodies = %+v", ctx.Bodies)
	}
}

func TestUnboundSolidGetsFallbackSphere(t *testing.T) {
	m, ctx := ragdollModel()
	m.Physics.Solids = []phy.Solid{{
		Index: 3, Name: "prop_handle", Mass: 1,
		Hulls: [][]mgl32.Vec3{{{1, 1, 1}}},
	}}
	Reconstruct(m, ctx, logx.Sink{})

	sphere, ok := ctx.Shapes[0].(build.SphereShape)
	if !ok {
		t.Fatalf("shape = %T, want sphere", ctx.Shapes[0])
	}
	if sphere.BoneName != "prop_handle" || sphere.Radius != fallbackRadius {
		t.Errorf("sphere = %+v", sphere)
	}
}

func TestCanonicalizedNameBinding(t *testing.T) {
	// solid names the bone with the exported underscore form
	m, ctx := ragdollModel()
	m.Physics.Solids = []phy.Solid{{
		Name:  "Bip01_Spine",
		Hulls: [][]mgl32.Vec3{{{0, 0, 0}, {1, 1, 1}}},
	}}
	Reconstruct(m, ctx, logx.Sink{})
	if _, ok := ctx.Shapes[0].(build.BoxShape); !ok {
		t.Fatalf("canonicalized binding failed: %T", ctx.Shapes[0])
	}
}

func TestDuplicateBodyNamesCollapse(t *testing.T) {
	m, ctx := ragdollModel()
	m.Physics.Solids = []phy.Solid{
		{Index: 0, Name: "Bip01 Pelvis", Mass: 5, Hulls: [][]mgl32.Vec3{{{0, 0, 0}, {1, 1, 1}}}},
		{Index: 1, Name: "Bip01 Pelvis", Mass: 7, Hulls: [][]mgl32.Vec3{{{0, 0, 0}, {2, 2, 2}}}},
	}
	Reconstruct(m, ctx, logx.Sink{})
	if len(ctx.Shapes) != 2 {
		t.Errorf("got %d shapes, want both kept", len(ctx.Shapes))
	}
	if len(ctx.Bodies) != 1 || ctx.Bodies[0].Mass != 5 {
		t.Errorf("bodies = %+v, want one with the first solid's mass", ctx.Bodies)
	}
}

func constraintModel(axes [3]phy.ConstraintAxis) (*studio.Model, *build.Context) {
	m, ctx := ragdollModel()
	m.Physics.Solids = []phy.Solid{
		{Index: 0, Name: "Bip01 Pelvis", Hulls: [][]mgl32.Vec3{{{0, 0, 0}, {1, 1, 1}}}},
		{Index: 1, Name: "Bip01 Spine", Hulls: [][]mgl32.Vec3{{{0, 0, 0}, {1, 1, 1}}}},
	}
	m.Physics.Constraints = []phy.RagdollConstraint{{Parent: 0, Child: 1, Axes: axes}}
	return m, ctx
}

func TestSingleActiveAxisIsRevolute(t *testing.T) {
	m, ctx := constraintModel([3]phy.ConstraintAxis{
		{Min: -10, Max: 10}, {}, {},
	})
	Reconstruct(m, ctx, logx.Sink{})

	if len(ctx.Joints) != 1 {
		t.Fatalf("got %d joints", len(ctx.Joints))
	}
	j, ok := ctx.Joints[0].(build.RevoluteJoint)
	if !ok {
		t.Fatalf("joint = %T, want revolute", ctx.Joints[0])
	}
	if j.Axis != 0 || j.Min != -10 || j.Max != 10 {
		t.Errorf("joint = %+v", j)
	}
	if j.ParentBone != "Bip01_Pelvis" || j.ChildBone != "Bip01_Spine" {
		t.Errorf("joint bones = %q, %q", j.ParentBone, j.ChildBone)
	}
	// child sits 8 units up from the parent; parent rotation is identity
	if j.Anchor != (mgl32.Vec3{0, 0, 8}) {
		t.Errorf("anchor = %v", j.Anchor)
	}
}

func TestMultipleActiveAxesAreConical(t *testing.T) {
	m, ctx := constraintModel([3]phy.ConstraintAxis{
		{Min: -5, Max: 5}, {Min: -30, Max: 30}, {},
	})
	Reconstruct(m, ctx, logx.Sink{})

	j, ok := ctx.Joints[0].(build.ConicalJoint)
	if !ok {
		t.Fatalf("joint = %T, want conical", ctx.Joints[0])
	}
	if j.Swing != 30 || j.TwistMin != -5 || j.TwistMax != 5 {
		t.Errorf("joint = %+v", j)
	}
}

func TestLockedConstraintPicksWidestAxis(t *testing.T) {
	// nothing exceeds the activation threshold; the widest axis still
	// names the hinge, ties going to the lower axis index
	m, ctx := constraintModel([3]phy.ConstraintAxis{
		{Min: -1, Max: 1}, {Min: -2, Max: 2}, {Min: -2, Max: 2},
	})
	Reconstruct(m, ctx, logx.Sink{})

	j, ok := ctx.Joints[0].(build.RevoluteJoint)
	if !ok {
		t.Fatalf("joint = %T, want revolute", ctx.Joints[0])
	}
	if j.Axis != 1 || j.Min != -2 || j.Max != 2 {
		t.Errorf("joint = %+v", j)
	}
}

func TestConstraintWithBadSolidIndexSkipped(t *testing.T) {
	m, ctx := constraintModel([3]phy.ConstraintAxis{{Min: -10, Max: 10}, {}, {}})
	m.Physics.Constraints[0].Child = 9
	Reconstruct(m, ctx, logx.Sink{})
	if len(ctx.Joints) != 0 {
		t.Errorf("joints = %+v, want none", ctx.Joints)
	}
}
