package batch

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"mdl-decompiler/internal/build"
)

// contextDump is the JSON projection of a build context: full skeleton,
// physics and sequence data, with per-mesh geometry reduced to counts so the
// dump stays reviewable.
type contextDump struct {
	Name       string          `json:"name"`
	Bones      []string        `json:"bones"`
	Meshes     []meshDump      `json:"meshes"`
	BodyGroups []bodyGroupDump `json:"bodygroups"`
	Morphs     []string        `json:"morphs,omitempty"`
	Shapes     []shapeDump     `json:"shapes,omitempty"`
	Bodies     []bodyDump      `json:"bodies,omitempty"`
	Joints     []jointDump     `json:"joints,omitempty"`
	Sequences  []sequenceDump  `json:"sequences,omitempty"`
}

type meshDump struct {
	Name      string   `json:"name"`
	Triangles int      `json:"triangles"`
	Materials []string `json:"materials"`
	Morphs    []string `json:"morphs,omitempty"`
	Hidden    bool     `json:"hidden,omitempty"`
}

type bodyGroupDump struct {
	Name    string `json:"name"`
	Choices []int  `json:"choices"`
}

type shapeDump struct {
	Type       string     `json:"type"`
	Bone       string     `json:"bone"`
	Origin     mgl32.Vec3 `json:"origin"`
	Dimensions mgl32.Vec3 `json:"dimensions,omitempty"`
	Radius     float32    `json:"radius,omitempty"`
}

type bodyDump struct {
	Bone    string  `json:"bone"`
	Mass    float32 `json:"mass"`
	Surface string  `json:"surface"`
}

type jointDump struct {
	Type     string     `json:"type"`
	Parent   string     `json:"parent"`
	Child    string     `json:"child"`
	Anchor   mgl32.Vec3 `json:"anchor"`
	Axis     int        `json:"axis,omitempty"`
	Min      float32    `json:"min,omitempty"`
	Max      float32    `json:"max,omitempty"`
	Swing    float32    `json:"swing,omitempty"`
	TwistMin float32    `json:"twist_min,omitempty"`
	TwistMax float32    `json:"twist_max,omitempty"`
}

type sequenceDump struct {
	Name   string  `json:"name"`
	FPS    float32 `json:"fps"`
	Frames int     `json:"frames"`
}

// marshalContext renders the context dump as indented JSON.
func marshalContext(ctx *build.Context) ([]byte, error) {
	d := contextDump{
		Name:       ctx.Name,
		Bones:      ctx.BoneNames,
		BodyGroups: make([]bodyGroupDump, 0, len(ctx.BodyGroups)),
		Morphs:     ctx.MorphNames,
	}
	for _, m := range ctx.Meshes {
		md := meshDump{
			Name:      m.Name,
			Triangles: len(m.Triangles),
			Hidden:    m.Hidden,
		}
		seen := map[string]bool{}
		for _, tri := range m.Triangles {
			if !seen[tri.Material] {
				seen[tri.Material] = true
				md.Materials = append(md.Materials, tri.Material)
			}
		}
		for _, mo := range m.Morphs {
			md.Morphs = append(md.Morphs, mo.Name)
		}
		d.Meshes = append(d.Meshes, md)
	}
	for _, g := range ctx.BodyGroups {
		d.BodyGroups = append(d.BodyGroups, bodyGroupDump{Name: g.Name, Choices: g.Choices})
	}
	for _, s := range ctx.Shapes {
		switch s := s.(type) {
		case build.BoxShape:
			d.Shapes = append(d.Shapes, shapeDump{
				Type: "box", Bone: s.BoneName,
				Origin: s.Origin, Dimensions: s.Dimensions,
			})
		case build.SphereShape:
			d.Shapes = append(d.Shapes, shapeDump{
				Type: "sphere", Bone: s.BoneName,
				Origin: s.Center, Radius: s.Radius,
			})
		default:
			return nil, fmt.Errorf("batch: unknown shape type %T", s)
		}
	}
	for _, b := range ctx.Bodies {
		d.Bodies = append(d.Bodies, bodyDump{Bone: b.BoneName, Mass: b.Mass, Surface: b.Surface})
	}
	for _, j := range ctx.Joints {
		switch j := j.(type) {
		case build.RevoluteJoint:
			d.Joints = append(d.Joints, jointDump{
				Type: "revolute", Parent: j.ParentBone, Child: j.ChildBone,
				Anchor: j.Anchor, Axis: j.Axis, Min: j.Min, Max: j.Max,
			})
		case build.ConicalJoint:
			d.Joints = append(d.Joints, jointDump{
				Type: "conical", Parent: j.ParentBone, Child: j.ChildBone,
				Anchor: j.Anchor, Swing: j.Swing, TwistMin: j.TwistMin, TwistMax: j.TwistMax,
			})
		default:
			return nil, fmt.Errorf("batch: unknown joint type %T", j)
		}
	}
	for _, s := range ctx.Sequences {
		d.Sequences = append(d.Sequences, sequenceDump{Name: s.Name, FPS: s.FPS, Frames: len(s.Frames)})
	}
	return json.MarshalIndent(d, "", "  ")
}
