package preview

import (
	"image"

	"golang.org/x/image/draw"
)

type pixOffseter interface {
	PixOffset(x, y int) int
}

// eachPixel walks bounds and hands the paired source/destination pixel
// offsets to fn.
func eachPixel(b image.Rectangle, src, dst pixOffseter, fn func(si, di int)) {
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			fn(src.PixOffset(x, y), dst.PixOffset(x, y))
		}
	}
}

// downsample reduces the image with premultiplied-alpha CatmullRom filtering,
// avoiding dark halos at transparent edges.
func downsample(img *image.NRGBA, targetSize int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= targetSize && b.Dy() <= targetSize {
		return img
	}

	premul := image.NewRGBA(b)
	eachPixel(b, img, premul, func(si, di int) {
		a := float64(img.Pix[si+3]) / 255.0
		for c := 0; c < 3; c++ {
			premul.Pix[di+c] = uint8(float64(img.Pix[si+c])*a + 0.5)
		}
		premul.Pix[di+3] = img.Pix[si+3]
	})

	dst := image.NewRGBA(image.Rect(0, 0, targetSize, targetSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	result := image.NewNRGBA(dst.Bounds())
	eachPixel(dst.Bounds(), dst, result, func(si, di int) {
		if a := float64(dst.Pix[si+3]); a > 1 {
			inv := 255.0 / a
			for c := 0; c < 3; c++ {
				result.Pix[di+c] = clamp8(float64(dst.Pix[si+c]) * inv)
			}
		}
		result.Pix[di+3] = dst.Pix[si+3]
	})
	return result
}
