package mdl

import "github.com/go-gl/mathgl/mgl32"

// Supported container versions. Anything else is a format error.
var supportedVersions = map[int32]bool{
	44: true, 45: true, 46: true, 47: true, 48: true, 49: true, 53: true,
}

// Bone flag bits relevant to animation decoding.
const (
	BoneFlagAlwaysProcedural = 0x04
)

// Bone is one entry of the bone table, local space relative to its parent.
type Bone struct {
	Index       int
	Name        string
	Parent      int32
	Pos         mgl32.Vec3
	Quat        mgl32.Quat
	Rot         mgl32.Vec3 // Euler XYZ radians
	PosScale    mgl32.Vec3
	RotScale    mgl32.Vec3
	Flags       int32
	PhysicsBone int32
	SurfaceProp string
}

// Mesh references a material and a vertex range inside the shared vertex
// buffer; VertexOffset is relative to the owning model's vertex base.
type Mesh struct {
	MaterialIndex int32
	NumVertices   int32
	VertexOffset  int32
	MaterialType  int32
	MaterialParam int32
	Flexes        []Flex
}

// Model is one bodygroup choice.
type Model struct {
	Name        string
	NumVertices int32
	VertexIndex int32
	Meshes      []Mesh
	NumEyeballs int32
}

// BodyPart is a bodygroup slot: a set of selectable choices.
type BodyPart struct {
	Name   string
	Base   int32
	Models []Model
}

// Flex is one morph channel on a mesh.
type Flex struct {
	DescIndex    int32
	Targets      [4]float32
	PairIndex    int32
	VertAnimType byte
	VertAnims    []VertAnim
}

// VertAnim is one per-vertex morph delta; Index is mesh-relative.
type VertAnim struct {
	Index  uint16
	Speed  byte
	Side   byte
	Delta  mgl32.Vec3
	NDelta mgl32.Vec3
}

// Material is one entry of the material name table.
type Material struct {
	Name string
}

// Attachment is a named transform hung off a bone.
type Attachment struct {
	Name      string
	Flags     int32
	LocalBone int32
	Local     [12]float32 // 3x4 row-major transform
}

// Hitbox is an axis-aligned box in bone space.
type Hitbox struct {
	Bone     int32
	Group    int32
	Min, Max mgl32.Vec3
	Name     string
}

// HitboxSet is a named group of hitboxes.
type HitboxSet struct {
	Name     string
	Hitboxes []Hitbox
}

// FlexDesc names a morph target; DisplayName is resolved from the controller
// UI tables after parsing (falls back to Name).
type FlexDesc struct {
	Name        string
	DisplayName string
}

// FlexController is one animatable morph input.
type FlexController struct {
	Type          string
	Name          string
	LocalToGlobal int32
	Min, Max      float32
}

// Flex rule op codes (expression bytecode); only controller fetches matter
// for display-name resolution.
const (
	FlexOpConst = 1
	FlexOpFetch = 2
)

// FlexOp is one expression op; Index and Value overlay the same dword.
type FlexOp struct {
	Op    int32
	Index int32
	Value float32
}

// FlexRule binds a flex descriptor to a controller expression.
type FlexRule struct {
	Flex int32
	Ops  []FlexOp
}

// FlexControllerUI is a display-name entry; for stereo entries the left and
// right controller indices differ.
type FlexControllerUI struct {
	Name            string
	Stereo          bool
	ControllerIndex int32 // mono
	LeftIndex       int32
	RightIndex      int32
}

// Eyeball is one eyeball record; TextureIndex is back-filled from the mesh
// that carries the eyeball material type.
type Eyeball struct {
	Name         string
	Bone         int32
	Org          mgl32.Vec3
	Radius       float32
	TextureIndex int32
}

// File is the decoded primary container. Data retains the raw buffer so the
// animation decoder can follow offsets stored in the header.
type File struct {
	Version     int32
	Checksum    int32
	Name        string
	Flags       int32
	Mass        float32
	SurfaceProp string

	Bones             []Bone
	BodyParts         []BodyPart
	Materials         []Material
	MaterialPaths     []string
	SkinFamilies      [][]int16
	Attachments       []Attachment
	HitboxSets        []HitboxSet
	FlexDescs         []FlexDesc
	FlexControllers   []FlexController
	FlexRules         []FlexRule
	FlexControllerUIs []FlexControllerUI
	Eyeballs          []Eyeball

	LocalAnimCount  int32
	LocalAnimOffset int32
	LocalSeqCount   int32
	LocalSeqOffset  int32
	AnimBlockCount  int32

	Data []byte
}
