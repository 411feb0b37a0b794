// Package preview renders a flat-shaded orthographic snapshot of the
// reconstructed meshes, for eyeballing a conversion without opening the
// output in a modeling tool.
package preview

import (
	"hash/fnv"
	"image"
	"io"
	"math"

	"github.com/HugoSmits86/nativewebp"

	"mdl-decompiler/internal/build"
)

// Render draws the context's visible meshes into a size×size image. The view
// is orthographic from the front, z-up. supersample > 1 renders at a higher
// resolution and downsamples for smoother edges.
func Render(ctx *build.Context, size, supersample int) *image.NRGBA {
	if supersample < 1 {
		supersample = 1
	}
	renderSize := size * supersample

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, m := range ctx.Meshes {
		if m.Hidden {
			continue
		}
		for _, tri := range m.Triangles {
			for _, v := range tri.Verts {
				sx, sy := float64(v.Position.X()), -float64(v.Position.Z())
				minX = math.Min(minX, sx)
				maxX = math.Max(maxX, sx)
				minY = math.Min(minY, sy)
				maxY = math.Max(maxY, sy)
			}
		}
	}
	if minX > maxX {
		return image.NewNRGBA(image.Rect(0, 0, size, size))
	}

	span := math.Max(maxX-minX, maxY-minY)
	if span < 0.001 {
		span = 0.001
	}
	margin := 16 * supersample
	scale := float64(renderSize-2*margin) / span
	cx := (minX + maxX) / 2
	cy := (minY + maxY) / 2
	half := float64(renderSize) / 2

	fb := newFrameBuffer(renderSize, renderSize)
	lc := defaultLightConfig()

	for _, m := range ctx.Meshes {
		if m.Hidden {
			continue
		}
		for _, tri := range m.Triangles {
			r, g, b := materialColor(tri.Material)
			var px, py, pz [3]float64
			for c, v := range tri.Verts {
				px[c] = (float64(v.Position.X())-cx)*scale + half
				py[c] = (-float64(v.Position.Z())-cy)*scale + half
				pz[c] = float64(v.Position.Y())
			}
			rasterizeTriangle(fb, px, py, pz, r, g, b, &lc)
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, renderSize, renderSize))
	copy(img.Pix, fb.color)
	if supersample > 1 {
		img = downsample(img, size)
	}
	return img
}

// Encode writes the preview image as WebP.
func Encode(w io.Writer, img *image.NRGBA) error {
	return nativewebp.Encode(w, img, nil)
}

// materialColor picks a stable palette color from the material name, so the
// preview shows mesh/material boundaries without any texture data.
func materialColor(name string) (uint8, uint8, uint8) {
	h := fnv.New32a()
	h.Write([]byte(name))
	s := h.Sum32()
	return 96 + uint8(s&0x7f), 96 + uint8((s>>8)&0x7f), 96 + uint8((s>>16)&0x7f)
}

// rasterizeTriangle fills one flat-shaded triangle with z-buffering, sRGB in
// linear space, and ACES tone mapping. Hot path, no allocation.
func rasterizeTriangle(fb *frameBuffer, px, py, pz [3]float64, r, g, b uint8, lc *lightConfig) {
	x0, y0, z0 := px[0], py[0], pz[0]
	x1, y1, z1 := px[1], py[1], pz[1]
	x2, y2, z2 := px[2], py[2], pz[2]

	e1x, e1y, e1z := x1-x0, y1-y0, z1-z0
	e2x, e2y, e2z := x2-x0, y2-y0, z2-z0
	nx := e1y*e2z - e1z*e2y
	ny := e1z*e2x - e1x*e2z
	nz := e1x*e2y - e1y*e2x
	nl := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if nl < 1e-8 {
		return
	}
	nx, ny, nz = nx/nl, ny/nl, nz/nl

	shade := lc.shade(nx, ny, nz) * lc.exposure
	lr := acesTonemap(math.Pow(float64(r)/255, 2.2) * shade)
	lg := acesTonemap(math.Pow(float64(g)/255, 2.2) * shade)
	lb := acesTonemap(math.Pow(float64(b)/255, 2.2) * shade)
	outR := clamp8(math.Pow(lr, lc.invGamma) * 255)
	outG := clamp8(math.Pow(lg, lc.invGamma) * 255)
	outB := clamp8(math.Pow(lb, lc.invGamma) * 255)

	size := fb.width
	minX := clampInt(int(math.Min(math.Min(x0, x1), x2)), 0, size-1)
	maxX := clampInt(int(math.Max(math.Max(x0, x1), x2))+1, 0, size-1)
	minY := clampInt(int(math.Min(math.Min(y0, y1), y2)), 0, size-1)
	maxY := clampInt(int(math.Max(math.Max(y0, y1), y2))+1, 0, size-1)
	if minX >= maxX || minY >= maxY {
		return
	}

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det
	dy12, dx21 := y1-y2, x2-x1
	dy20, dx02 := y2-y0, x0-x2

	for y := minY; y <= maxY; y++ {
		fy := float64(y) + 0.5
		row := y * size
		for x := minX; x <= maxX; x++ {
			fx := float64(x) + 0.5
			w0 := (dy12*(fx-x2) + dx21*(fy-y2)) * invDet
			w1 := (dy20*(fx-x2) + dx02*(fy-y2)) * invDet
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*z0 + w1*z1 + w2*z2
			i := row + x
			if z <= fb.zbuf[i] {
				continue
			}
			fb.zbuf[i] = z
			o := i * 4
			fb.color[o] = outR
			fb.color[o+1] = outG
			fb.color[o+2] = outB
			fb.color[o+3] = 255
		}
	}
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
