package anim

import "mdl-decompiler/internal/rawio"

// extractValue resolves one frame's sample from a run-length value stream.
// The stream is a sequence of pairs, each a (valid, total) byte header
// followed by valid+1 signed 16-bit samples; a pair covers total frames.
// Frames past a pair's last stored sample hold that sample. Returns false
// when the walk runs off the buffer.
func extractValue(b []byte, off, frame int) (int16, bool) {
	for {
		if !rawio.InRange(b, off, 2) {
			return 0, false
		}
		valid := int(rawio.U8(b, off))
		total := int(rawio.U8(b, off+1))
		if total == 0 {
			return 0, false
		}
		if frame < total {
			idx := frame
			if idx > valid {
				idx = valid
			}
			pos := off + 2 + idx*2
			if !rawio.InRange(b, pos, 2) {
				return 0, false
			}
			return rawio.I16(b, pos), true
		}
		frame -= total
		off += 2 + (valid+1)*2
	}
}
