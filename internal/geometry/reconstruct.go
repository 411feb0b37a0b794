// Package geometry rebuilds render meshes, bodygroups and morph channels
// from the decoded containers.
package geometry

import (
	"strings"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"mdl-decompiler/internal/build"
	"mdl-decompiler/internal/logx"
	"mdl-decompiler/internal/mdl"
	"mdl-decompiler/internal/names"
	"mdl-decompiler/internal/skeleton"
	"mdl-decompiler/internal/studio"
	"mdl-decompiler/internal/vtx"
	"mdl-decompiler/internal/vvd"
)

// Bodygroup choices whose model name starts with this token are explicitly
// "off".
const blankToken = "blank"

// anchorEpsilon sizes the degenerate triangles of the skeleton anchor mesh.
const anchorEpsilon = 0.001

// Reconstruct fills the context's bone names, meshes, bodygroups, morphs and
// hitbox sets. It must run before the physics and animation stages.
func Reconstruct(m *studio.Model, ctx *build.Context, log logx.Sink) {
	f := m.MDL
	ctx.Name = names.FileStem(f.Name)

	boneDedup := names.NewDedup()
	for _, b := range f.Bones {
		ctx.BoneNames = append(ctx.BoneNames, boneDedup.Take(names.Canonicalize(b.Name)))
	}

	verts := m.VVD.VerticesForLOD(0)
	morphSeen := make(map[string]bool)
	running := 0

	for bpIdx := range f.BodyParts {
		bp := &f.BodyParts[bpIdx]
		group := build.BodyGroup{Name: names.Canonicalize(bp.Name)}
		sawEmpty := false
		nonEmpty := 0

		for mIdx := range bp.Models {
			model := &bp.Models[mIdx]
			strips := vtxModel(m.VTX, bpIdx, mIdx)

			if isExplicitlyEmpty(model, strips) {
				sawEmpty = true
				group.Choices = append(group.Choices, -1)
				running += int(model.NumVertices)
				continue
			}

			mesh := buildRenderMesh(f, bp, model, strips, running, verts, log)
			for _, mo := range mesh.Morphs {
				if !morphSeen[mo.Name] {
					morphSeen[mo.Name] = true
					ctx.MorphNames = append(ctx.MorphNames, mo.Name)
				}
			}
			group.Choices = append(group.Choices, len(ctx.Meshes))
			ctx.Meshes = append(ctx.Meshes, mesh)
			nonEmpty++
			running += int(model.NumVertices)
		}

		// A one-choice bodygroup is not a choice at all; give it an "off"
		// option unless the source already provided one.
		if nonEmpty == 1 && !sawEmpty {
			group.Choices = append(group.Choices, -1)
		}
		ctx.BodyGroups = append(ctx.BodyGroups, group)
	}

	if len(f.Bones) > 0 {
		anchor := anchorMesh(f.Bones)
		ctx.BodyGroups = append(ctx.BodyGroups, build.BodyGroup{
			Name:    anchor.Name,
			Choices: []int{-1, len(ctx.Meshes)},
		})
		ctx.Meshes = append(ctx.Meshes, anchor)
	}

	for _, set := range f.HitboxSets {
		out := build.HitboxSet{Name: names.Canonicalize(set.Name)}
		for _, hb := range set.Hitboxes {
			out.Hitboxes = append(out.Hitboxes, build.Hitbox{
				Bone:  hb.Bone,
				Group: hb.Group,
				Min:   hb.Min,
				Max:   hb.Max,
				Name:  hb.Name,
			})
		}
		ctx.HitboxSets = append(ctx.HitboxSets, out)
	}
}

func vtxModel(f *vtx.File, bodyPart, model int) *vtx.Model {
	if f == nil || bodyPart >= len(f.BodyParts) {
		return nil
	}
	bp := &f.BodyParts[bodyPart]
	if model >= len(bp.Models) {
		return nil
	}
	return &bp.Models[model]
}

func isExplicitlyEmpty(model *mdl.Model, strips *vtx.Model) bool {
	name := strings.ToLower(strings.TrimSpace(model.Name))
	if name == "" || strings.HasPrefix(name, blankToken) {
		return true
	}
	if len(model.Meshes) == 0 {
		return true
	}
	return strips == nil || len(strips.LODs) == 0
}

func buildRenderMesh(f *mdl.File, bp *mdl.BodyPart, model *mdl.Model,
	strips *vtx.Model, running int, verts []vvd.Vertex, log logx.Sink) build.RenderMesh {

	out := build.RenderMesh{
		Name:     names.Canonicalize(bp.Name) + "_" + names.Canonicalize(model.Name),
		FileStem: names.FileStem(model.Name),
	}

	lod := strips.LODs[0]
	dropped := 0
	for meshIdx := range model.Meshes {
		mesh := &model.Meshes[meshIdx]
		if meshIdx >= len(lod.Meshes) {
			log.Warnf("geometry: no strip data for mesh %d of %s", meshIdx, model.Name)
			break
		}
		material := materialName(f, mesh.MaterialIndex)
		meshBase := running + int(mesh.VertexOffset)

		for _, sg := range lod.Meshes[meshIdx].StripGroups {
			for _, strip := range sg.Strips {
				start := int(strip.IndexOffset)
				end := start + int(strip.NumIndices)
				if start < 0 || end > len(sg.Indices) {
					dropped += int(strip.NumIndices) / 3
					continue
				}
				for _, tri := range StripTriangles(strip.Flags, sg.Indices[start:end]) {
					t, ok := resolveTriangle(tri, &sg, meshBase, verts, material)
					if !ok {
						dropped++
						continue
					}
					out.Triangles = append(out.Triangles, t)
				}
			}
		}

		out.Morphs = append(out.Morphs, extractMorphs(f, mesh, meshBase)...)
	}
	if dropped > 0 {
		log.Warnf("geometry: dropped %d out-of-range triangles in %s", dropped, out.Name)
	}
	return out
}

// StripTriangles turns a strip's index run into triangles. A triangle list
// yields one triangle per three indices with the winding flipped to
// (v0, v2, v1). A triangle strip of N indices yields N-2 triangles,
// alternating winding so all faces agree.
func StripTriangles(flags byte, indices []uint16) [][3]uint16 {
	var out [][3]uint16
	switch {
	case flags&vtx.StripIsTriList != 0:
		for i := 0; i+2 < len(indices); i += 3 {
			out = append(out, [3]uint16{indices[i], indices[i+2], indices[i+1]})
		}
	case flags&vtx.StripIsTriStrip != 0:
		for i := 0; i+2 < len(indices); i++ {
			if i%2 == 0 {
				out = append(out, [3]uint16{indices[i], indices[i+2], indices[i+1]})
			} else {
				out = append(out, [3]uint16{indices[i], indices[i+1], indices[i+2]})
			}
		}
	}
	return out
}

// resolveTriangle follows strip-group-local indices out to the shared vertex
// buffer; any out-of-range step drops the whole triangle.
func resolveTriangle(tri [3]uint16, sg *vtx.StripGroup, meshBase int,
	verts []vvd.Vertex, material string) (build.Triangle, bool) {

	var out build.Triangle
	out.Material = material
	for c := 0; c < 3; c++ {
		li := int(tri[c])
		if li >= len(sg.Vertices) {
			return out, false
		}
		gi := int(sg.Vertices[li].OrigMeshVertID) + meshBase
		if gi < 0 || gi >= len(verts) {
			return out, false
		}
		out.Verts[c] = resolveVertex(verts[gi])
	}
	return out, true
}

// resolveVertex clamps the influence count to [1,3] and renormalizes weights
// that do not sum to 1 within 1e-3. A single-bone vertex always gets full
// weight.
func resolveVertex(v vvd.Vertex) build.Vertex {
	out := build.Vertex{
		Position: v.Position,
		Normal:   v.Normal,
		UV:       v.UV,
	}
	n := int(v.NumBones)
	if n < 1 {
		n = 1
	}
	if n > 3 {
		n = 3
	}
	out.NumBones = n
	for i := 0; i < n; i++ {
		out.Bones[i] = int32(v.Bones[i])
		out.Weights[i] = v.Weights[i]
	}
	if n == 1 {
		out.Weights[0] = 1
		return out
	}
	sum := float32(0)
	for i := 0; i < n; i++ {
		sum += out.Weights[i]
	}
	if math32.Abs(sum-1) > 1e-3 {
		if sum <= 0 {
			even := 1 / float32(n)
			for i := 0; i < n; i++ {
				out.Weights[i] = even
			}
		} else {
			for i := 0; i < n; i++ {
				out.Weights[i] /= sum
			}
		}
	}
	return out
}

func materialName(f *mdl.File, index int32) string {
	if index < 0 || int(index) >= len(f.Materials) {
		return "unnamed"
	}
	return names.Canonicalize(f.Materials[index].Name)
}

// anchorMesh builds the hidden mesh that pins every bone into the geometry:
// one epsilon-sized triangle per three consecutive bones, each corner fully
// weighted to its bone, so importers cannot prune "unused" bones.
func anchorMesh(bones []mdl.Bone) build.RenderMesh {
	world := skeleton.WorldTransforms(bones)
	out := build.RenderMesh{
		Name:     "skeleton_anchor",
		FileStem: "skeleton_anchor",
		Hidden:   true,
	}
	n := len(bones)
	for i := 0; i < n; i += 3 {
		ids := [3]int{i, minInt(i+1, n-1), minInt(i+2, n-1)}
		var tri build.Triangle
		tri.Material = "anchor"
		for c := 0; c < 3; c++ {
			b := ids[c]
			pos := world[b].Pos.Add(mgl32.Vec3{float32(c) * anchorEpsilon, 0, 0})
			tri.Verts[c] = build.Vertex{
				Position: pos,
				Normal:   mgl32.Vec3{0, 0, 1},
				Bones:    [3]int32{int32(b), 0, 0},
				Weights:  [3]float32{1, 0, 0},
				NumBones: 1,
			}
		}
		out.Triangles = append(out.Triangles, tri)
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
