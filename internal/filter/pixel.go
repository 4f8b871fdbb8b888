package filter

import (
	"image"
	"image/color"
)

// op transforms one pixel. Channels are normalized to [0,1]; clamping happens
// once after the whole chain so intermediate values may leave the range, the
// same way stacked CSS filter functions compose.
type op func(r, g, b float64) (float64, float64, float64)

// Luminance coefficients from the CSS Filter Effects grayscale/saturate
// matrices.
const (
	lumR = 0.2126
	lumG = 0.7152
	lumB = 0.0722

	satR = 0.213
	satG = 0.715
	satB = 0.072
)

func grayscale(amount float64) op {
	keep := 1 - amount
	return func(r, g, b float64) (float64, float64, float64) {
		l := lumR*r + lumG*g + lumB*b
		return l + keep*(r-l), l + keep*(g-l), l + keep*(b-l)
	}
}

// sepia interpolates between the identity matrix and the full sepia matrix.
func sepia(amount float64) op {
	k := amount
	return func(r, g, b float64) (float64, float64, float64) {
		nr := (1-k*(1-0.393))*r + k*0.769*g + k*0.189*b
		ng := k*0.349*r + (1-k*(1-0.686))*g + k*0.168*b
		nb := k*0.272*r + k*0.534*g + (1-k*(1-0.131))*b
		return nr, ng, nb
	}
}

func saturate(amount float64) op {
	s := amount
	return func(r, g, b float64) (float64, float64, float64) {
		nr := (satR+(1-satR)*s)*r + satG*(1-s)*g + satB*(1-s)*b
		ng := satR*(1-s)*r + (satG+(1-satG)*s)*g + satB*(1-s)*b
		nb := satR*(1-s)*r + satG*(1-s)*g + (satB+(1-satB)*s)*b
		return nr, ng, nb
	}
}

func contrast(amount float64) op {
	return func(r, g, b float64) (float64, float64, float64) {
		return (r-0.5)*amount + 0.5, (g-0.5)*amount + 0.5, (b-0.5)*amount + 0.5
	}
}

func brightness(amount float64) op {
	return func(r, g, b float64) (float64, float64, float64) {
		return r * amount, g * amount, b * amount
	}
}

// applyOps runs the op chain over every pixel and returns a new RGBA image.
// Alpha passes through untouched.
func applyOps(src image.Image, ops []op) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			cr, cg, cb, ca := src.At(x, y).RGBA()
			r := float64(cr) / 65535
			g := float64(cg) / 65535
			b := float64(cb) / 65535

			for _, f := range ops {
				r, g, b = f(r, g, b)
			}

			dst.SetRGBA(x, y, color.RGBA{
				R: clamp8(r),
				G: clamp8(g),
				B: clamp8(b),
				A: uint8(ca >> 8),
			})
		}
	}
	return dst
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
