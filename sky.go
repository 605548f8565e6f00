package skyfx

import (
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/skyfx/gleval"
)

// SkyColors is the sky gradient at one time of day.
type SkyColors struct {
	Zenith      ms3.Vec
	Horizon     ms3.Vec
	HorizonEdge ms3.Vec
}

// DayNight returns the night and dusk weights in [0,1] estimated from fog color.
// Dusk is non-zero when the fog leans red and it is not fully night.
func DayNight(fog ms3.Vec) (night, dusk float32) {
	night = clampf(1-2.5*fogBrightness(fog), 0, 1)
	dusk = clampf(2*(fog.X-fog.Z), 0, 1) * (1 - night)
	return night, dusk
}

// SkyColorsFor returns the overworld sky gradient for a rain intensity and fog color.
func SkyColorsFor(rain float32, fog ms3.Vec, p SkyParams) SkyColors {
	night, dusk := DayNight(fog)
	zenith := mix3(p.DayZenith, p.NightZenith, night)
	horizon := mix3(p.DayHorizon, p.NightHorizon, night)
	horizon = mix3(horizon, p.DawnHorizon, dusk)
	edge := mix3(horizon, p.DawnEdge, dusk)

	// Overcast skies keep their hue but follow the light level.
	light := 0.15 + 0.55*(1-night)
	zenith = mix3(zenith, ms3.Scale(light, p.RainZenith), rain)
	horizon = mix3(horizon, ms3.Scale(light, p.RainHorizon), rain)
	edge = mix3(edge, ms3.Scale(light, p.RainHorizon), rain)
	return SkyColors{Zenith: zenith, Horizon: horizon, HorizonEdge: edge}
}

// EndSkyColors returns the sky gradient of the End dimension.
func EndSkyColors(p SkyParams) SkyColors {
	return SkyColors{Zenith: p.EndZenith, Horizon: p.EndHorizon, HorizonEdge: p.EndHorizon}
}

// SkyGradient returns the sky color for a view direction with elevation dirY.
func SkyGradient(sky SkyColors, dirY float32) ms3.Vec {
	g := 1 - clampf(absf(dirY), 0, 1)
	g2 := g * g
	g8 := g2 * g2 * g2 * g2
	col := mix3(sky.Zenith, sky.Horizon, g2)
	return mix3(col, sky.HorizonEdge, g8)
}

// Env returns the per-frame environment for a sky at time t.
func (sky SkyColors) Env(t, rain float32, fog ms3.Vec) gleval.Env {
	return gleval.Env{
		Time:        t,
		Rain:        rain,
		FogColor:    fog,
		Zenith:      sky.Zenith,
		Horizon:     sky.Horizon,
		HorizonEdge: sky.HorizonEdge,
	}
}

func envSky(env gleval.Env) SkyColors {
	return SkyColors{Zenith: env.Zenith, Horizon: env.Horizon, HorizonEdge: env.HorizonEdge}
}
