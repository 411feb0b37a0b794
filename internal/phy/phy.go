// Package phy decodes the physics container: per-solid packed convex-hull
// trees followed by an ASCII key-value block describing solids and ragdoll
// constraints.
package phy

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"mdl-decompiler/internal/logx"
	"mdl-decompiler/internal/rawio"
)

const (
	headerSize     = 16
	maxSolids      = 128
	collideMagic   = "VPHY"
	nodeSize       = 28
	ledgeHdrSize   = 16
	triangleSize   = 16
	pointSize      = 16
	metersToInches = 39.3701
)

// Solid is one physics solid: its convex hulls from the binary section and
// its properties from the text section.
type Solid struct {
	Index       int
	Name        string
	Parent      string
	Mass        float32
	SurfaceProp string
	Damping     float32
	RotDamping  float32
	Inertia     float32
	Volume      float32
	Hulls       [][]mgl32.Vec3
}

// ConstraintAxis is one axis of a ragdoll constraint, limits in degrees.
type ConstraintAxis struct {
	Min, Max, Friction float32
}

// RagdollConstraint links two solids with per-axis angular limits.
type RagdollConstraint struct {
	Parent int32
	Child  int32
	Axes   [3]ConstraintAxis
}

// File is the decoded physics container.
type File struct {
	Checksum    int32
	Solids      []Solid
	Constraints []RagdollConstraint
}

// Parse decodes a physics container buffer.
func Parse(data []byte, log logx.Sink) (*File, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("phy: buffer too small for header (%d bytes)", len(data))
	}
	if size := rawio.I32(data, 0); size != headerSize {
		return nil, fmt.Errorf("phy: bad header size %d", size)
	}
	solidCount := int(rawio.I32(data, 8))
	if solidCount <= 0 || solidCount > maxSolids {
		return nil, fmt.Errorf("phy: implausible solid count %d", solidCount)
	}

	f := &File{Checksum: rawio.I32(data, 12)}

	off := headerSize
	for i := 0; i < solidCount; i++ {
		if !rawio.InRange(data, off, 4) {
			log.Warnf("phy: solid %d of %d missing", i, solidCount)
			break
		}
		blockSize := int(rawio.I32(data, off))
		if blockSize <= 0 || !rawio.InRange(data, off+4, blockSize) {
			log.Warnf("phy: solid %d block size %d out of range", i, blockSize)
			break
		}
		block := data[off+4 : off+4+blockSize]

		solid := Solid{
			Index:       i,
			Mass:        1,
			Inertia:     1,
			SurfaceProp: "default",
		}
		hulls, err := parseSolidHulls(block)
		if err != nil {
			log.Warnf("phy: solid %d: %v", i, err)
		}
		solid.Hulls = hulls
		f.Solids = append(f.Solids, solid)

		off += 4 + blockSize
	}

	if off < len(data) {
		parseText(f, data[off:], log)
	}
	return f, nil
}

// parseSolidHulls walks one solid's compact surface. Modern blocks start
// with a VPHY collide header plus a 20-byte surface header; legacy blocks
// are a bare compact surface.
func parseSolidHulls(block []byte) ([][]mgl32.Vec3, error) {
	base := 0
	if len(block) >= 8 && string(block[0:4]) == collideMagic {
		modelType := rawio.U16(block, 6)
		if modelType != 0 {
			// not a convex-hull solid
			return nil, nil
		}
		base = 8 + 20
	}
	if !rawio.InRange(block, base, 36) {
		return nil, fmt.Errorf("compact surface truncated")
	}

	rootOff := int(rawio.I32(block, base+32))
	root := base + rootOff
	if !rawio.InRange(block, root, nodeSize) {
		return nil, fmt.Errorf("ledge tree root %d out of range", root)
	}

	var hulls [][]mgl32.Vec3

	// Depth is data-controlled, so walk with an explicit stack. The visit
	// cap bounds malformed self-referencing trees.
	stack := []int{root}
	visits := 0
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visits++; visits > 1<<16 {
			return hulls, fmt.Errorf("ledge tree walk did not terminate")
		}
		if !rawio.InRange(block, node, nodeSize) {
			continue
		}
		rightOff := int(rawio.I32(block, node))
		if rightOff == 0 {
			ledge := node + int(rawio.I32(block, node+4))
			if hull := parseLedge(block, ledge); len(hull) > 0 {
				hulls = append(hulls, hull)
			}
			continue
		}
		stack = append(stack, node+rightOff, node+nodeSize)
	}
	return hulls, nil
}

// parseLedge collects the deduplicated, coordinate-converted points of one
// compact ledge.
func parseLedge(block []byte, ledge int) []mgl32.Vec3 {
	if !rawio.InRange(block, ledge, ledgeHdrSize) {
		return nil
	}
	pointsBase := ledge + int(rawio.I32(block, ledge))
	numTris := int(rawio.U16(block, ledge+12))

	var hull []mgl32.Vec3
	seen := make(map[uint16]bool)
	for t := 0; t < numTris; t++ {
		tri := ledge + ledgeHdrSize + t*triangleSize
		if !rawio.InRange(block, tri, triangleSize) {
			break
		}
		for e := 0; e < 3; e++ {
			// start point index sits in the low 16 bits of each edge word
			idx := rawio.U16(block, tri+4+e*4)
			if seen[idx] {
				continue
			}
			seen[idx] = true
			p := pointsBase + int(idx)*pointSize
			if !rawio.InRange(block, p, pointSize) {
				continue
			}
			x := rawio.F32(block, p)
			y := rawio.F32(block, p+4)
			z := rawio.F32(block, p+8)
			hull = append(hull, mgl32.Vec3{
				x * metersToInches,
				z * metersToInches,
				-y * metersToInches,
			})
		}
	}
	return hull
}
