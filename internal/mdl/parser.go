package mdl

import (
	"fmt"

	"mdl-decompiler/internal/logx"
	"mdl-decompiler/internal/rawio"
)

const magic = "IDST"

// Fixed record sizes for the supported version range.
const (
	headerSize = 408

	boneSizeNew = 216 // with the trailing unused block
	boneSizeOld = 184

	bodyPartSize  = 16
	modelSize     = 148
	meshSize      = 116
	materialSize  = 64
	attachSize    = 92
	hitboxSetSize = 12
	hitboxSize    = 68

	flexDescSize = 4
	flexCtrlSize = 20
	flexRuleSize = 12
	flexOpSize   = 8
	flexUISize   = 20
	flexSize     = 60
	vertAnimSize = 16
	eyeballSize  = 172
)

// boneUnusedBlockVersion is the first version whose bone records carry the
// trailing 32-byte unused block.
const boneUnusedBlockVersion = 44

// Parse decodes a primary container. Bad magic or an unsupported version is
// fatal; a table running past the buffer stops that table with a warning and
// keeps the rows already read.
func Parse(data []byte, log logx.Sink) (*File, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("mdl: buffer too small for header (%d bytes)", len(data))
	}
	if string(data[0:4]) != magic {
		return nil, fmt.Errorf("mdl: bad magic %q", string(data[0:4]))
	}
	version := rawio.I32(data, 4)
	if !supportedVersions[version] {
		return nil, fmt.Errorf("mdl: unsupported version %d", version)
	}

	f := &File{
		Version:  version,
		Checksum: rawio.I32(data, 8),
		Name:     rawio.FixedString(data, 12, 64),
		Flags:    rawio.I32(data, 152),
		Mass:     rawio.F32(data, 328),
		Data:     data,
	}
	f.SurfaceProp = rawio.CString(data, 0, int(rawio.I32(data, 308)))

	f.LocalAnimCount = rawio.I32(data, 180)
	f.LocalAnimOffset = rawio.I32(data, 184)
	f.LocalSeqCount = rawio.I32(data, 188)
	f.LocalSeqOffset = rawio.I32(data, 192)
	f.AnimBlockCount = rawio.I32(data, 352)

	// Secondary header: only consulted when its offset is in range. Nothing
	// reconstruction needs lives there, so presence is all we check.
	if hdr2 := int(rawio.I32(data, 400)); hdr2 > 0 && !rawio.InRange(data, hdr2, 4) {
		log.Warnf("mdl: secondary header offset %d out of range", hdr2)
	}

	parseBones(f, log)

	// Flex tables come before meshes so descriptor display names can be
	// resolved for the morph channels.
	parseFlexTables(f, log)
	parseBodyParts(f, log)
	parseMaterials(f, log)
	parseSkinFamilies(f, log)
	parseAttachments(f, log)
	parseHitboxSets(f, log)

	resolveFlexNames(f)
	return f, nil
}

func boneRecordSize(version int32) int {
	if version >= boneUnusedBlockVersion {
		return boneSizeNew
	}
	return boneSizeOld
}

func parseBones(f *File, log logx.Sink) {
	data := f.Data
	count := int(rawio.I32(data, 156))
	offset := int(rawio.I32(data, 160))
	size := boneRecordSize(f.Version)

	for i := 0; i < count; i++ {
		base := offset + i*size
		if !rawio.InRange(data, base, size) {
			log.Warnf("mdl: bone table truncated at %d of %d", i, count)
			break
		}
		b := Bone{
			Index:       i,
			Name:        rawio.CString(data, base, int(rawio.I32(data, base))),
			Parent:      rawio.I32(data, base+4),
			Pos:         vec3At(data, base+32),
			Quat:        quatAt(data, base+44),
			Rot:         vec3At(data, base+60),
			PosScale:    vec3At(data, base+72),
			RotScale:    vec3At(data, base+84),
			Flags:       rawio.I32(data, base+160),
			PhysicsBone: rawio.I32(data, base+172),
		}
		b.SurfaceProp = rawio.CString(data, base, int(rawio.I32(data, base+176)))
		f.Bones = append(f.Bones, b)
	}
}

func parseFlexTables(f *File, log logx.Sink) {
	data := f.Data

	count := int(rawio.I32(data, 260))
	offset := int(rawio.I32(data, 264))
	for i := 0; i < count; i++ {
		base := offset + i*flexDescSize
		if !rawio.InRange(data, base, flexDescSize) {
			log.Warnf("mdl: flex descriptor table truncated at %d of %d", i, count)
			break
		}
		name := rawio.CString(data, base, int(rawio.I32(data, base)))
		f.FlexDescs = append(f.FlexDescs, FlexDesc{Name: name, DisplayName: name})
	}

	count = int(rawio.I32(data, 268))
	offset = int(rawio.I32(data, 272))
	for i := 0; i < count; i++ {
		base := offset + i*flexCtrlSize
		if !rawio.InRange(data, base, flexCtrlSize) {
			log.Warnf("mdl: flex controller table truncated at %d of %d", i, count)
			break
		}
		f.FlexControllers = append(f.FlexControllers, FlexController{
			Type:          rawio.CString(data, base, int(rawio.I32(data, base))),
			Name:          rawio.CString(data, base, int(rawio.I32(data, base+4))),
			LocalToGlobal: rawio.I32(data, base+8),
			Min:           rawio.F32(data, base+12),
			Max:           rawio.F32(data, base+16),
		})
	}

	count = int(rawio.I32(data, 276))
	offset = int(rawio.I32(data, 280))
	for i := 0; i < count; i++ {
		base := offset + i*flexRuleSize
		if !rawio.InRange(data, base, flexRuleSize) {
			log.Warnf("mdl: flex rule table truncated at %d of %d", i, count)
			break
		}
		rule := FlexRule{Flex: rawio.I32(data, base)}
		numOps := int(rawio.I32(data, base+4))
		opBase := base + int(rawio.I32(data, base+8))
		for j := 0; j < numOps; j++ {
			ob := opBase + j*flexOpSize
			if !rawio.InRange(data, ob, flexOpSize) {
				break
			}
			rule.Ops = append(rule.Ops, FlexOp{
				Op:    rawio.I32(data, ob),
				Index: rawio.I32(data, ob+4),
				Value: rawio.F32(data, ob+4),
			})
		}
		f.FlexRules = append(f.FlexRules, rule)
	}

	ctrlOffset := int(rawio.I32(data, 272))
	count = int(rawio.I32(data, 384))
	offset = int(rawio.I32(data, 388))
	for i := 0; i < count; i++ {
		base := offset + i*flexUISize
		if !rawio.InRange(data, base, flexUISize) {
			log.Warnf("mdl: flex controller UI table truncated at %d of %d", i, count)
			break
		}
		ui := FlexControllerUI{
			Name:            rawio.CString(data, base, int(rawio.I32(data, base))),
			Stereo:          rawio.U8(data, base+17) != 0,
			ControllerIndex: -1,
			LeftIndex:       -1,
			RightIndex:      -1,
		}
		// The index fields are record offsets to controller entries; turn
		// them back into table indices.
		toIndex := func(rel int32) int32 {
			if rel == 0 {
				return -1
			}
			abs := base + int(rel)
			if ctrlOffset <= 0 || abs < ctrlOffset || (abs-ctrlOffset)%flexCtrlSize != 0 {
				return -1
			}
			idx := int32((abs - ctrlOffset) / flexCtrlSize)
			if int(idx) >= len(f.FlexControllers) {
				return -1
			}
			return idx
		}
		if ui.Stereo {
			ui.LeftIndex = toIndex(rawio.I32(data, base+4))
			ui.RightIndex = toIndex(rawio.I32(data, base+8))
		} else {
			ui.ControllerIndex = toIndex(rawio.I32(data, base+4))
		}
		f.FlexControllerUIs = append(f.FlexControllerUIs, ui)
	}
}

func parseBodyParts(f *File, log logx.Sink) {
	data := f.Data
	count := int(rawio.I32(data, 232))
	offset := int(rawio.I32(data, 236))

	for i := 0; i < count; i++ {
		base := offset + i*bodyPartSize
		if !rawio.InRange(data, base, bodyPartSize) {
			log.Warnf("mdl: body part table truncated at %d of %d", i, count)
			break
		}
		bp := BodyPart{
			Name: rawio.CString(data, base, int(rawio.I32(data, base))),
			Base: rawio.I32(data, base+8),
		}
		numModels := int(rawio.I32(data, base+4))
		modelBase := base + int(rawio.I32(data, base+12))
		for j := 0; j < numModels; j++ {
			mb := modelBase + j*modelSize
			if !rawio.InRange(data, mb, modelSize) {
				log.Warnf("mdl: model table truncated at %d of %d (body part %d)", j, numModels, i)
				break
			}
			bp.Models = append(bp.Models, parseModel(f, mb, log))
		}
		f.BodyParts = append(f.BodyParts, bp)
	}
}

func parseModel(f *File, base int, log logx.Sink) Model {
	data := f.Data
	m := Model{
		Name:        rawio.FixedString(data, base, 64),
		NumVertices: rawio.I32(data, base+80),
		VertexIndex: rawio.I32(data, base+84),
		NumEyeballs: rawio.I32(data, base+100),
	}

	eyeballBase := len(f.Eyeballs)
	ebOffset := base + int(rawio.I32(data, base+104))
	for k := 0; k < int(m.NumEyeballs); k++ {
		eb := ebOffset + k*eyeballSize
		if !rawio.InRange(data, eb, eyeballSize) {
			log.Warnf("mdl: eyeball table truncated at %d of %d", k, m.NumEyeballs)
			break
		}
		f.Eyeballs = append(f.Eyeballs, Eyeball{
			Name:         rawio.CString(data, eb, int(rawio.I32(data, eb))),
			Bone:         rawio.I32(data, eb+4),
			Org:          vec3At(data, eb+8),
			Radius:       rawio.F32(data, eb+24),
			TextureIndex: -1,
		})
	}

	numMeshes := int(rawio.I32(data, base+72))
	meshBase := base + int(rawio.I32(data, base+76))
	for k := 0; k < numMeshes; k++ {
		mb := meshBase + k*meshSize
		if !rawio.InRange(data, mb, meshSize) {
			log.Warnf("mdl: mesh table truncated at %d of %d", k, numMeshes)
			break
		}
		mesh := Mesh{
			MaterialIndex: rawio.I32(data, mb),
			NumVertices:   rawio.I32(data, mb+8),
			VertexOffset:  rawio.I32(data, mb+12),
			MaterialType:  rawio.I32(data, mb+24),
			MaterialParam: rawio.I32(data, mb+28),
		}
		parseMeshFlexes(f, &mesh, mb, log)

		// Eyeball meshes store which eyeball they texture; the eyeball
		// record itself has no texture index, so back-fill it here.
		if mesh.MaterialType == 1 {
			idx := eyeballBase + int(mesh.MaterialParam)
			if idx >= eyeballBase && idx < len(f.Eyeballs) {
				f.Eyeballs[idx].TextureIndex = mesh.MaterialIndex
			}
		}
		m.Meshes = append(m.Meshes, mesh)
	}
	return m
}

func parseMeshFlexes(f *File, mesh *Mesh, meshBase int, log logx.Sink) {
	data := f.Data
	numFlexes := int(rawio.I32(data, meshBase+16))
	flexBase := meshBase + int(rawio.I32(data, meshBase+20))

	for i := 0; i < numFlexes; i++ {
		fb := flexBase + i*flexSize
		if !rawio.InRange(data, fb, flexSize) {
			log.Warnf("mdl: flex table truncated at %d of %d", i, numFlexes)
			break
		}
		fl := Flex{
			DescIndex: rawio.I32(data, fb),
			Targets: [4]float32{
				rawio.F32(data, fb+4), rawio.F32(data, fb+8),
				rawio.F32(data, fb+12), rawio.F32(data, fb+16),
			},
			PairIndex:    rawio.I32(data, fb+28),
			VertAnimType: rawio.U8(data, fb+32),
		}
		numVerts := int(rawio.I32(data, fb+20))
		vaBase := fb + int(rawio.I32(data, fb+24))
		for j := 0; j < numVerts; j++ {
			vb := vaBase + j*vertAnimSize
			if !rawio.InRange(data, vb, vertAnimSize) {
				break
			}
			fl.VertAnims = append(fl.VertAnims, VertAnim{
				Index: rawio.U16(data, vb),
				Speed: rawio.U8(data, vb+2),
				Side:  rawio.U8(data, vb+3),
				Delta: mgl3(rawio.F16(data, vb+4), rawio.F16(data, vb+6), rawio.F16(data, vb+8)),
				NDelta: mgl3(rawio.F16(data, vb+10), rawio.F16(data, vb+12),
					rawio.F16(data, vb+14)),
			})
		}
		mesh.Flexes = append(mesh.Flexes, fl)
	}
}

func parseMaterials(f *File, log logx.Sink) {
	data := f.Data
	count := int(rawio.I32(data, 204))
	offset := int(rawio.I32(data, 208))
	for i := 0; i < count; i++ {
		base := offset + i*materialSize
		if !rawio.InRange(data, base, materialSize) {
			log.Warnf("mdl: material table truncated at %d of %d", i, count)
			break
		}
		f.Materials = append(f.Materials, Material{
			Name: rawio.CString(data, base, int(rawio.I32(data, base))),
		})
	}

	count = int(rawio.I32(data, 212))
	offset = int(rawio.I32(data, 216))
	for i := 0; i < count; i++ {
		base := offset + i*4
		if !rawio.InRange(data, base, 4) {
			log.Warnf("mdl: material path table truncated at %d of %d", i, count)
			break
		}
		f.MaterialPaths = append(f.MaterialPaths, rawio.CString(data, 0, int(rawio.I32(data, base))))
	}
}

func parseSkinFamilies(f *File, log logx.Sink) {
	data := f.Data
	numRef := int(rawio.I32(data, 220))
	numFamilies := int(rawio.I32(data, 224))
	offset := int(rawio.I32(data, 228))
	if numRef <= 0 || numFamilies <= 0 {
		return
	}
	for i := 0; i < numFamilies; i++ {
		base := offset + i*numRef*2
		if !rawio.InRange(data, base, numRef*2) {
			log.Warnf("mdl: skin table truncated at family %d of %d", i, numFamilies)
			break
		}
		family := make([]int16, numRef)
		for j := range family {
			family[j] = rawio.I16(data, base+j*2)
		}
		f.SkinFamilies = append(f.SkinFamilies, family)
	}
}

func parseAttachments(f *File, log logx.Sink) {
	data := f.Data
	count := int(rawio.I32(data, 240))
	offset := int(rawio.I32(data, 244))
	for i := 0; i < count; i++ {
		base := offset + i*attachSize
		if !rawio.InRange(data, base, attachSize) {
			log.Warnf("mdl: attachment table truncated at %d of %d", i, count)
			break
		}
		a := Attachment{
			Name:      rawio.CString(data, base, int(rawio.I32(data, base))),
			Flags:     rawio.I32(data, base+4),
			LocalBone: rawio.I32(data, base+8),
		}
		for j := 0; j < 12; j++ {
			a.Local[j] = rawio.F32(data, base+12+j*4)
		}
		f.Attachments = append(f.Attachments, a)
	}
}

func parseHitboxSets(f *File, log logx.Sink) {
	data := f.Data
	count := int(rawio.I32(data, 172))
	offset := int(rawio.I32(data, 176))
	for i := 0; i < count; i++ {
		base := offset + i*hitboxSetSize
		if !rawio.InRange(data, base, hitboxSetSize) {
			log.Warnf("mdl: hitbox set table truncated at %d of %d", i, count)
			break
		}
		set := HitboxSet{Name: rawio.CString(data, base, int(rawio.I32(data, base)))}
		numBoxes := int(rawio.I32(data, base+4))
		boxBase := base + int(rawio.I32(data, base+8))
		for j := 0; j < numBoxes; j++ {
			hb := boxBase + j*hitboxSize
			if !rawio.InRange(data, hb, hitboxSize) {
				log.Warnf("mdl: hitbox table truncated at %d of %d (set %d)", j, numBoxes, i)
				break
			}
			set.Hitboxes = append(set.Hitboxes, Hitbox{
				Bone:  rawio.I32(data, hb),
				Group: rawio.I32(data, hb+4),
				Min:   vec3At(data, hb+8),
				Max:   vec3At(data, hb+20),
				Name:  rawio.CString(data, hb, int(rawio.I32(data, hb+32))),
			})
		}
		f.HitboxSets = append(f.HitboxSets, set)
	}
}
