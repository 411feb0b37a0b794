package preview

import "math"

// lightConfig holds precomputed lighting parameters for the flat-shaded
// preview render.
type lightConfig struct {
	lightDir [3]float64
	rimDir   [3]float64
	halfMain [3]float64
	ambient  float64
	hemi     float64
	direct   float64
	rim      float64
	specInt  float64
	specPow  float64
	exposure float64
	invGamma float64
}

func defaultLightConfig() lightConfig {
	lightDir := normalize3([3]float64{180, 260, 140})
	rimDir := normalize3([3]float64{-160, 130, -210})
	viewDir := normalize3([3]float64{0, -110, -400})
	halfMain := normalize3([3]float64{
		lightDir[0] - viewDir[0],
		lightDir[1] - viewDir[1],
		lightDir[2] - viewDir[2],
	})
	return lightConfig{
		lightDir: lightDir,
		rimDir:   rimDir,
		halfMain: halfMain,
		ambient:  0.55,
		hemi:     0.50,
		direct:   1.50,
		rim:      0.60,
		specInt:  0.45,
		specPow:  12.0,
		exposure: 1.05,
		invGamma: 1.0 / 2.2,
	}
}

// shade returns the combined lighting scalar for a unit face normal.
// Lambertian terms use abs so back faces read double-sided.
func (lc *lightConfig) shade(nx, ny, nz float64) float64 {
	ndlMain := math.Abs(nx*lc.lightDir[0] + ny*lc.lightDir[1] + nz*lc.lightDir[2])
	ndlRim := math.Abs(nx*lc.rimDir[0] + ny*lc.rimDir[1] + nz*lc.rimDir[2])
	hemi := ((1.0-math.Abs(ny))*0.5 + 0.5) * lc.hemi
	ndh := nx*lc.halfMain[0] + ny*lc.halfMain[1] + nz*lc.halfMain[2]
	if ndh < 0 {
		ndh = 0
	}
	spec := math.Pow(ndh, lc.specPow) * lc.specInt
	return lc.ambient + hemi + ndlMain*lc.direct + ndlRim*lc.rim + spec
}

// acesTonemap applies ACES filmic tone mapping to a linear value.
func acesTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

func normalize3(v [3]float64) [3]float64 {
	l := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if l == 0 {
		return v
	}
	return [3]float64{v[0] / l, v[1] / l, v[2] / l}
}
