package skyfx

import (
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/skyfx/gleval"
)

// RenderCloudsSimple shades the soft 2D cloud layer at fragment position pos.
// Alpha is the cloud coverage. A second noise octave darkens clouds seen from
// below and rain darkens them further.
func RenderCloudsSimple(sky SkyColors, pos ms3.Vec, t, rain float32, p SoftCloudParams) gleval.RGBA {
	xz := ms2.MulElem(ms2.Vec{X: pos.X, Y: pos.Z}, p.Scale)
	alpha := CloudNoise2D(xz, t, rain, p.Speed)
	shadow := CloudNoise2D(ms2.Scale(0.91, xz), t, rain, p.Speed)

	col := ms3.Add(vec3(0.02, 0.04, 0.05), sky.HorizonEdge)
	col = ms3.Scale(1-0.5*shadow*step(0, pos.Y), col)
	col = ms3.Add(col, ms3.Scale(0.7, sky.Zenith))
	col = ms3.Scale(1-0.4*rain, col)
	return gleval.NewRGBA(col, alpha)
}

// CloudDensity samples the rounded cloud density field in [0,1]. pos.X and
// pos.Z select the noise lattice cell and pos.Y is the normalized height
// inside the slab, with 0.5 at mid height. boxiness of 0 gives a round cross
// section and 1 a hard edged box.
func CloudDensity(pos ms3.Vec, rain, boxiness float32) float32 {
	p0 := floor2(ms2.Vec{X: pos.X, Y: pos.Z})
	ux := Smoothstep(0.999*boxiness, 1, pos.X-p0.X)
	uy := Smoothstep(0.999*boxiness, 1, pos.Z-p0.Y)
	t := RoundedRainTransition(rain)
	n := mixf(
		mixf(RandT(p0, t), RandT(ms2.Vec{X: p0.X + 1, Y: p0.Y}, t), ux),
		mixf(RandT(ms2.Vec{X: p0.X, Y: p0.Y + 1}, t), RandT(ms2.Vec{X: p0.X + 1, Y: p0.Y + 1}, t), ux),
		uy,
	)
	// Vertical falloff: 1 at mid height, negative near the slab faces.
	b := 1 - 1.9*Smoothstep(boxiness, 2-boxiness, 2*absf(pos.Y-0.5))
	return Smoothstep(0.2, 1, n*b)
}

// MarchInput is the per-fragment input of the cloud marcher.
type MarchInput struct {
	// Dir is the unit view direction.
	Dir ms3.Vec
	// Pos is the fragment's view-space position. Pos.Y > 0 means the
	// layer is seen from below.
	Pos      ms3.Vec
	Rain     float32
	Time     float32
	FogColor ms3.Vec
	SkyColor ms3.Vec
}

// RenderClouds ray marches the rounded cloud slab along in.Dir and returns
// the layer's color with coverage in alpha. It always takes exactly p.Steps
// density samples.
func RenderClouds(in MarchInput, p RoundedCloudParams) gleval.RGBA {
	return renderClouds(in, p, func(pos ms3.Vec) float32 {
		return CloudDensity(pos, in.Rain, p.Boxiness)
	})
}

func renderClouds(in MarchInput, p RoundedCloudParams, density func(ms3.Vec) float32) gleval.RGBA {
	height := slabScale * mixf(p.Thickness, p.RainThickness, in.Rain)
	stepsf := float32(p.Steps)

	// Horizontal traversal grows with ray obliqueness.
	oblique := height * p.Scale / (horizonEps + (1-horizonEps)*absf(in.Dir.Y))
	delta := ms3.Vec{X: oblique * in.Dir.X, Y: 1, Z: oblique * in.Dir.Z}
	pos := ms3.Vec{
		X: p.Scale * (in.Pos.X + in.Time*p.Speed),
		Z: p.Scale * (in.Pos.Z + 0.5*in.Time*p.Speed),
	}
	pos = ms3.Add(pos, delta)
	delta = ms3.Scale(-1/stepsf, delta)

	// Accumulated density and density weighted height.
	dx, dy := float32(0), float32(1)
	for i := 0; i < p.Steps; i++ {
		m := density(pos)
		dx += m
		dy = mixf(dy, pos.Y, m)
		pos = ms3.Add(pos, delta)
	}
	dx *= step(1, dx)
	dx = NormalizeDensity(dx, p.Steps, p.Density)

	if in.Pos.Y > 0 {
		dy = 1 - dy
	}
	dy = 1 - p.ShadowIntensity*dy*dy

	col := ms3.Scale(0.3, in.SkyColor)
	lit := ms3.Add(in.SkyColor, ms3.Scale(p.Brightness, in.FogColor))
	col = ms3.Add(col, ms3.Scale(dy, lit))
	col = ms3.Scale(1-0.5*in.Rain, col)
	col = ms3.Scale(1-0.8*NightFactor(in.FogColor), col)
	alpha := dx
	if p.NightIntensity.Enabled {
		alpha *= p.NightIntensity.Value
	}
	return gleval.NewRGBA(col, alpha)
}

// NormalizeDensity maps accumulated density into [0,1) with a saturating
// Reinhard curve: accum/(steps/density + accum).
func NormalizeDensity(accum float32, steps int, density float32) float32 {
	return accum / (float32(steps)/density + accum)
}

// NightFactor estimates how dark the scene is from the fog color. It is
// clamped at zero but not above, reaching 1.1 for black fog.
func NightFactor(fog ms3.Vec) float32 {
	return maxf(1.1-3*fogBrightness(fog), 0)
}

// layerFragment returns the fragment position on a cloud layer offset units
// above the one at pos, shifted by the parallax of dir.
func layerFragment(dir, pos ms3.Vec, offset float32) ms3.Vec {
	k := offset / (horizonEps + (1-horizonEps)*absf(dir.Y))
	return ms3.Vec{X: pos.X + k*dir.X, Y: pos.Y, Z: pos.Z + k*dir.Z}
}
