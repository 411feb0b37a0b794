package geometry

import (
	"strings"

	"mdl-decompiler/internal/build"
	"mdl-decompiler/internal/mdl"
)

// extractMorphs turns a mesh's flex channels into morph channels with
// vertex-buffer-relative indices. A channel carrying stereo data (a partner
// flex or mixed per-vertex side bytes) is split into left and right channels
// unless the opposite-side channel already exists explicitly; deltas for the
// same vertex across multiple entries accumulate.
func extractMorphs(f *mdl.File, mesh *mdl.Mesh, meshBase int) []build.Morph {
	if len(mesh.Flexes) == 0 {
		return nil
	}

	// names of channels this mesh declares explicitly, to avoid splitting a
	// channel whose opposite side is already authored
	declared := make(map[string]bool)
	for _, fl := range mesh.Flexes {
		declared[flexDisplayName(f, &fl)] = true
	}

	acc := newMorphAccumulator()
	for i := range mesh.Flexes {
		fl := &mesh.Flexes[i]
		if len(fl.VertAnims) == 0 {
			continue
		}
		name := flexDisplayName(f, fl)
		opposite := oppositeName(name)

		split := (fl.PairIndex > 0 || mixedSides(fl.VertAnims)) && !declared[opposite]
		if !split {
			for _, va := range fl.VertAnims {
				acc.add(name, meshBase+int(va.Index), va, 1)
			}
			continue
		}

		// right weight comes from the side byte; left is the complement
		rightName, leftName := opposite, name
		if mdl.SideHint(name) == mdl.SideRight {
			rightName, leftName = name, opposite
		}
		for _, va := range fl.VertAnims {
			right := float32(va.Side) / 255
			if right > 0 {
				acc.add(rightName, meshBase+int(va.Index), va, right)
			}
			if left := 1 - right; left > 0 {
				acc.add(leftName, meshBase+int(va.Index), va, left)
			}
		}
	}
	return acc.morphs()
}

func flexDisplayName(f *mdl.File, fl *mdl.Flex) string {
	if fl.DescIndex >= 0 && int(fl.DescIndex) < len(f.FlexDescs) {
		return f.FlexDescs[fl.DescIndex].DisplayName
	}
	return "flex"
}

// mixedSides reports whether the per-vertex side bytes disagree.
func mixedSides(anims []mdl.VertAnim) bool {
	for i := 1; i < len(anims); i++ {
		if anims[i].Side != anims[0].Side {
			return true
		}
	}
	return false
}

// oppositeName flips a left name to its right counterpart and vice versa; a
// sideless name gets an _R suffix.
func oppositeName(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, "_l"):
		return name[:len(name)-1] + "R"
	case strings.HasSuffix(lower, "_r"):
		return name[:len(name)-1] + "L"
	case strings.Contains(lower, "left"):
		return replaceFold(name, "left", "right")
	case strings.Contains(lower, "right"):
		return replaceFold(name, "right", "left")
	}
	return name + "_R"
}

// replaceFold replaces the first case-insensitive occurrence of old,
// matching the replacement's case to the original's leading letter.
func replaceFold(s, old, new string) string {
	idx := strings.Index(strings.ToLower(s), old)
	if idx < 0 {
		return s
	}
	repl := new
	if s[idx] >= 'A' && s[idx] <= 'Z' {
		repl = strings.ToUpper(new[:1]) + new[1:]
	}
	return s[:idx] + repl + s[idx+len(old):]
}

// morphAccumulator sums deltas per channel and vertex, preserving channel
// and vertex first-seen order.
type morphAccumulator struct {
	order  []string
	byName map[string]map[int]*build.MorphDelta
	vorder map[string][]int
}

func newMorphAccumulator() *morphAccumulator {
	return &morphAccumulator{
		byName: make(map[string]map[int]*build.MorphDelta),
		vorder: make(map[string][]int),
	}
}

func (a *morphAccumulator) add(name string, vertexID int, va mdl.VertAnim, weight float32) {
	chans, ok := a.byName[name]
	if !ok {
		chans = make(map[int]*build.MorphDelta)
		a.byName[name] = chans
		a.order = append(a.order, name)
	}
	d, ok := chans[vertexID]
	if !ok {
		d = &build.MorphDelta{VertexID: vertexID, Weight: weight}
		chans[vertexID] = d
		a.vorder[name] = append(a.vorder[name], vertexID)
	}
	d.Delta = d.Delta.Add(va.Delta.Mul(weight))
	d.NormalDelta = d.NormalDelta.Add(va.NDelta.Mul(weight))
}

func (a *morphAccumulator) morphs() []build.Morph {
	var out []build.Morph
	for _, name := range a.order {
		m := build.Morph{Name: name}
		for _, vid := range a.vorder[name] {
			m.Deltas = append(m.Deltas, *a.byName[name][vid])
		}
		out = append(out, m)
	}
	return out
}
