// Package build holds the engine-agnostic representation produced by the
// reconstruction stages and consumed by output writers. A Context is created
// once per model, filled in fixed pipeline order (geometry, then physics, then
// animation), and treated as immutable afterwards.
package build

import "github.com/go-gl/mathgl/mgl32"

// Vertex is one resolved render vertex with up to three bone influences.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	Bones    [3]int32
	Weights  [3]float32
	NumBones int
}

// Triangle references three vertices and the material the face uses.
type Triangle struct {
	Verts    [3]Vertex
	Material string
}

// MorphDelta is one vertex's contribution to a morph channel.
type MorphDelta struct {
	VertexID    int
	Delta       mgl32.Vec3
	NormalDelta mgl32.Vec3
	Weight      float32
}

// Morph is a named set of per-vertex deltas applied on top of a base mesh.
type Morph struct {
	Name   string
	Deltas []MorphDelta
}

// RenderMesh is one exported mesh: a bodygroup choice's geometry plus any
// morph channels that target it.
type RenderMesh struct {
	Name      string
	FileStem  string
	Triangles []Triangle
	Morphs    []Morph
	Hidden    bool
}

// BodyGroup is a named slot whose choices select between alternate meshes
// (index into Context.Meshes) or nothing (-1).
type BodyGroup struct {
	Name    string
	Choices []int
}

// Hitbox is one oriented box attached to a bone.
type Hitbox struct {
	Bone     int32
	Group    int32
	Min, Max mgl32.Vec3
	Name     string
}

// HitboxSet groups hitboxes under a named set.
type HitboxSet struct {
	Name     string
	Hitboxes []Hitbox
}

// Shape is the sum type over derived collision shapes.
type Shape interface {
	shape()
	Bone() string
}

// BoxShape is an axis-aligned box in the owning bone's space.
type BoxShape struct {
	BoneName   string
	Origin     mgl32.Vec3
	Dimensions mgl32.Vec3
}

func (BoxShape) shape() {}

// Bone returns the owning bone's export name.
func (s BoxShape) Bone() string { return s.BoneName }

// SphereShape is the fallback placeholder shape for solids with no usable
// hull data.
type SphereShape struct {
	BoneName string
	Center   mgl32.Vec3
	Radius   float32
}

func (SphereShape) shape() {}

// Bone returns the owning bone's export name.
func (s SphereShape) Bone() string { return s.BoneName }

// Body marks a bone as a dynamic physics body with a mass.
type Body struct {
	BoneName string
	Mass     float32
	Surface  string
}

// Joint is the sum type over derived ragdoll joints.
type Joint interface {
	joint()
	Bones() (parent, child string)
}

// RevoluteJoint is a single-axis hinge with angular limits in degrees.
type RevoluteJoint struct {
	ParentBone string
	ChildBone  string
	Anchor     mgl32.Vec3
	Axis       int // 0=X 1=Y 2=Z
	Min, Max   float32
}

func (RevoluteJoint) joint() {}

// Bones returns the parent and child bone export names.
func (j RevoluteJoint) Bones() (string, string) { return j.ParentBone, j.ChildBone }

// ConicalJoint is a swing/twist joint; swing is symmetric, twist limits are
// the X-axis bounds, all in degrees.
type ConicalJoint struct {
	ParentBone string
	ChildBone  string
	Anchor     mgl32.Vec3
	Swing      float32
	TwistMin   float32
	TwistMax   float32
}

func (ConicalJoint) joint() {}

// Bones returns the parent and child bone export names.
func (j ConicalJoint) Bones() (string, string) { return j.ParentBone, j.ChildBone }

// FramePose is one decoded animation frame: per-bone position plus rotation
// as Euler XYZ radians, indexed by bone.
type FramePose struct {
	Positions []mgl32.Vec3
	Rotations []mgl32.Vec3
}

// SequencePoses is one decoded sequence.
type SequencePoses struct {
	Name   string
	FPS    float32
	Frames []FramePose
}

// Context is the sole handoff artifact from the core to the writers.
type Context struct {
	Name       string
	BoneNames  []string
	Meshes     []RenderMesh
	BodyGroups []BodyGroup
	HitboxSets []HitboxSet
	Shapes     []Shape
	Bodies     []Body
	Joints     []Joint
	MorphNames []string
	Sequences  []SequencePoses
}
