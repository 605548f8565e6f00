package skyfx

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/skyfx/gleval"
)

// RenderAurora returns the additive aurora contribution at world position p.
// Two phase shifted sine fields are combined into thin bands whose color
// moves between a.Col1 and a.Col2. Rain and daylight fade it out.
// Returns the zero color when a is disabled.
func RenderAurora(p ms3.Vec, t, rain float32, fog ms3.Vec, a AuroraParams) gleval.RGBA {
	if !a.Enabled {
		return gleval.RGBA{}
	}
	t *= a.Velocity
	x := p.X * a.Scale
	z := p.Z * a.Scale
	wobble := 0.05 * math32.Sin(x*4+20*t)
	x += wobble
	z += wobble

	d0 := math32.Sin(x*0.1 + t + math32.Sin(z*0.2))
	d1 := math32.Sin(z*0.1 - t + math32.Sin(x*0.2))
	d2 := math32.Sin(z*0.1 + math32.Sin(d0+d1*2) + d1*2 + d0)
	d0 *= d0
	d1 *= d1
	d2 *= d2
	d2 = d0 / (1 + d2/a.Width)

	k := d2 * AuroraMask(rain, fog)
	col := ms3.Scale(a.Intensity*k, mix3(a.Col1, a.Col2, d1))
	return gleval.NewRGBA(col, k)
}

// AuroraMask is the visibility of the aurora: it fades with rain and vanishes
// once the fog color is bright enough to be daytime.
func AuroraMask(rain float32, fog ms3.Vec) float32 {
	return (1 - 0.8*rain) * maxf(1-4*fogBrightness(fog), 0)
}
