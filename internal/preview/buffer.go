package preview

import "math"

// frameBuffer is the render target as flat slices for cache locality.
type frameBuffer struct {
	width  int
	height int
	color  []uint8   // RGBA interleaved, len = W*H*4
	zbuf   []float64 // depth per pixel, initialized to -inf
}

func newFrameBuffer(w, h int) *frameBuffer {
	n := w * h
	zbuf := make([]float64, n)
	for i := range zbuf {
		zbuf[i] = math.Inf(-1)
	}
	return &frameBuffer{
		width:  w,
		height: h,
		color:  make([]uint8, n*4),
		zbuf:   zbuf,
	}
}
