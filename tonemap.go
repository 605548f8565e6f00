package skyfx

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// ColorCorrection applies exposure, tone mapping, contrast, saturation and
// tint to a linear color in that order. Disabled toggles are skipped.
func ColorCorrection(col ms3.Vec, p ToneParams) ms3.Vec {
	exposure, saturation, tint := p.factors()
	col = ms3.Scale(exposure, col)
	col = Tonemap(col, p.Type)
	col = ms3.Vec{
		X: math32.Pow(maxf(col.X, 0), p.Contrast),
		Y: math32.Pow(maxf(col.Y, 0), p.Contrast),
		Z: math32.Pow(maxf(col.Z, 0), p.Contrast),
	}
	if saturation != 1 {
		luma := 0.21*col.X + 0.71*col.Y + 0.08*col.Z
		col = mix3(ms3.Vec{X: luma, Y: luma, Z: luma}, col, saturation)
	}
	return ms3.MulElem(col, tint)
}

// factors returns the effective exposure, saturation and tint. Disabled toggles are identities.
func (p ToneParams) factors() (exposure, saturation float32, tint ms3.Vec) {
	exposure, saturation, tint = 1, 1, ms3.Vec{X: 1, Y: 1, Z: 1}
	if p.Exposure.Enabled {
		exposure = p.Exposure.Value
	}
	if p.Saturation.Enabled {
		saturation = p.Saturation.Value
	}
	if p.Tint.Enabled {
		tint = p.Tint.Color
	}
	return exposure, saturation, tint
}

// Tonemap maps an HDR color into displayable range with the curve selected by typ.
// Unknown types return col unchanged.
func Tonemap(col ms3.Vec, typ TonemapType) ms3.Vec {
	var fn func(float32) float32
	switch typ {
	case TonemapExponential:
		fn = func(x float32) float32 { return 1 - math32.Exp(-0.8*x) }
	case TonemapReinhard:
		fn = func(x float32) float32 { return x / (1 + x) }
	case TonemapExtendedReinhard:
		fn = func(x float32) float32 { return x * (1 + x*0.063) / (1 + x) }
	case TonemapACES:
		const a, b, c, d, e = 1.04, 0.03, 0.93, 0.56, 0.14
		fn = func(x float32) float32 {
			x *= 0.85
			return clampf((x*(a*x+b))/(x*(c*x+d)+e), 0, 1)
		}
	default:
		return col
	}
	return ms3.Vec{X: fn(col.X), Y: fn(col.Y), Z: fn(col.Z)}
}
