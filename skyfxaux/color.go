package skyfxaux

import (
	"fmt"
	"image/color"

	math "github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms1"
	"github.com/soypat/skyfx/gleval"
)

// HSV interpolation adapted from Esme Lamb's (@dedelala) color manipulation
// work presented at Gophercon AU 2024.
// https://github.com/dedelala/disco/tree/main/color

var red = color.NRGBA{R: 255, A: 255}

// ParseConversion returns the color conversion named by view:
//   - "" or "clamp": nil, the renderer's default 8 bit clamp.
//   - "gamma": [ColorConversionGamma] with gamma 2.2.
//   - "coverage": [ColorConversionCoverage] from black sky to white cloud.
func ParseConversion(view string) (func(gleval.RGBA) color.Color, error) {
	switch view {
	case "", "clamp":
		return nil, nil
	case "gamma":
		return ColorConversionGamma(2.2), nil
	case "coverage":
		return ColorConversionCoverage(color.Black, color.White), nil
	}
	return nil, fmt.Errorf("unknown color conversion %q, want clamp, gamma or coverage", view)
}

// ColorConversionGamma returns a conversion that encodes linear colors with the
// given gamma, usually 2.2. The result is opaque. Returns red for NaN colors.
func ColorConversionGamma(gamma float32) func(gleval.RGBA) color.Color {
	inv := 1 / gamma
	enc := func(v float32) uint8 {
		return uint8(255*math.Pow(ms1.Clamp(v, 0, 1), inv) + 0.5)
	}
	return func(c gleval.RGBA) color.Color {
		if math.IsNaN(c.R + c.G + c.B) {
			return red
		}
		return color.NRGBA{R: enc(c.R), G: enc(c.G), B: enc(c.B), A: 255}
	}
}

// ColorConversionCoverage visualizes the alpha channel, blending from c0 at
// zero coverage to c1 at full coverage through HSV space. Useful for tuning
// cloud density. Returns red for NaN alpha.
func ColorConversionCoverage(c0, c1 color.Color) func(gleval.RGBA) color.Color {
	h0, s0, v0 := colorToHSV(c0)
	h1, s1, v1 := colorToHSV(c1)
	return func(c gleval.RGBA) color.Color {
		if math.IsNaN(c.A) {
			return red
		} else if c.A <= 0 {
			return c0
		} else if c.A >= 1 {
			return c1
		}
		r, g, b := hsvToRGB(interpHSV(h0, s0, v0, h1, s1, v1, c.A))
		return color.NRGBA{R: to8(r), G: to8(g), B: to8(b), A: 255}
	}
}

func to8(v float32) uint8 {
	return uint8(ms1.Clamp(v, 0, 1)*math.MaxUint8 + 0.5)
}

func interpHSV(h0, s0, v0, h1, s1, v1, t float32) (h, s, v float32) {
	// Go around the hue circle the short way.
	switch {
	case h1-h0 > 0.5:
		h0 += 1
	case h1-h0 < -0.5:
		h1 += 1
	}
	h = ms1.Interp(h0, h1, t)
	if h > 1 {
		h -= 1
	}
	s = ms1.Interp(s0, s1, t)
	v = ms1.Interp(v0, v1, t)
	return h, s, v
}

func colorToHSV(c color.Color) (h, s, v float32) {
	r, g, b, _ := c.RGBA()
	return rgbToHSV(float32(r)/0xffff, float32(g)/0xffff, float32(b)/0xffff)
}

// hsvToRGB converts hue, saturation and value in [0,1] to RGB in [0,1].
func hsvToRGB(h, s, v float32) (r, g, b float32) {
	var (
		c = s * v
		x = c * (1 - math.Abs(math.Mod(h*6, 2)-1))
		m = v - c
	)
	switch {
	case h <= 1.0/6:
		r, g, b = c, x, 0
	case h <= 2.0/6:
		r, g, b = x, c, 0
	case h <= 3.0/6:
		r, g, b = 0, c, x
	case h <= 4.0/6:
		r, g, b = 0, x, c
	case h <= 5.0/6:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}

// rgbToHSV is the inverse of hsvToRGB.
func rgbToHSV(r, g, b float32) (h, s, v float32) {
	var (
		xmax = max(r, g, b)
		xmin = min(r, g, b)
		c    = xmax - xmin
	)
	v = xmax
	switch {
	case c == 0:
		h = 0
	case v == r:
		h = (g - b) / (c * 6)
	case v == g:
		h = 1.0/3 + (b-r)/(c*6)
	case v == b:
		h = 2.0/3 + (r-g)/(c*6)
	}
	if h < 0 {
		h += 1
	}
	if xmax > 0 {
		s = c / xmax
	}
	return h, s, v
}
