package skyfx

import (
	"strconv"
	"strings"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/skyfx/glbuild"
)

// AppendDefines appends cfg as a GLSL header of NL_ prefixed #define
// directives, the form consumed by the host's shader build. Disabled
// toggles are omitted.
func (cfg Config) AppendDefines(b []byte) []byte {
	b = append(b, "#ifndef NL_CONFIG_H\n#define NL_CONFIG_H\n\n"...)

	b = append(b, "// Color correction\n"...)
	b = defineInt(b, "NL_TONEMAP_TYPE", int(cfg.Tone.Type))
	b = defineFloat(b, "NL_CONSTRAST", cfg.Tone.Contrast)
	b = defineToggle(b, "NL_EXPOSURE", cfg.Tone.Exposure)
	b = defineToggle(b, "NL_SATURATION", cfg.Tone.Saturation)
	if cfg.Tone.Tint.Enabled {
		b = defineVec3(b, "NL_TINT", cfg.Tone.Tint.Color)
	}

	l := cfg.Lighting
	b = append(b, "\n// Terrain lighting\n"...)
	b = defineFloat(b, "NL_SUN_INTENSITY", l.SunIntensity)
	b = defineFloat(b, "NL_TORCH_INTENSITY", l.TorchIntensity)
	b = defineFloat(b, "NL_NIGHT_BRIGHTNESS", l.NightBrightness)
	b = defineFloat(b, "NL_CAVE_BRIGHTNESS", l.CaveBrightness)
	b = defineFloat(b, "NL_SHADOW_INTENSITY", l.ShadowIntensity)
	b = defineFlag(b, "NL_BLINKING_TORCH", l.BlinkingTorch)
	b = defineFlag(b, "NL_CLOUD_SHADOW", cfg.Clouds.Shadow)
	b = defineVec3(b, "NL_MORNING_SUN_COL", l.MorningSun)
	b = defineVec3(b, "NL_NOON_SUN_COL", l.NoonSun)
	b = defineVec3(b, "NL_NIGHT_SUN_COL", l.NightSun)
	b = defineVec3(b, "NL_OVERWORLD_TORCH_COL", l.OverworldTorch)
	b = defineVec3(b, "NL_UNDERWATER_TORCH_COL", l.UnderwaterTorch)
	b = defineVec3(b, "NL_NETHER_TORCH_COL", l.NetherTorch)
	b = defineVec3(b, "NL_END_TORCH_COL", l.EndTorch)
	b = defineFloat(b, "NL_GLOW_TEX", l.GlowTex)

	b = append(b, "\n// Fog\n"...)
	b = defineInt(b, "NL_FOG_TYPE", int(cfg.Fog.Type))
	b = defineFloat(b, "NL_MIST_DENSITY", cfg.Fog.MistDensity)

	s := cfg.Sky
	b = append(b, "\n// Sky colors\n"...)
	b = defineVec3(b, "NL_DAY_ZENITH_COL", s.DayZenith)
	b = defineVec3(b, "NL_DAY_HORIZON_COL", s.DayHorizon)
	b = defineVec3(b, "NL_NIGHT_ZENITH_COL", s.NightZenith)
	b = defineVec3(b, "NL_NIGHT_HORIZON_COL", s.NightHorizon)
	b = defineVec3(b, "NL_RAIN_ZENITH_COL", s.RainZenith)
	b = defineVec3(b, "NL_RAIN_HORIZON_COL", s.RainHorizon)
	b = defineVec3(b, "NL_END_ZENITH_COL", s.EndZenith)
	b = defineVec3(b, "NL_END_HORIZON_COL", s.EndHorizon)
	b = defineVec3(b, "NL_DAWN_HORIZON_COL", s.DawnHorizon)
	b = defineVec3(b, "NL_DAWN_EDGE_COL", s.DawnEdge)

	b = append(b, "\n// Waving\n"...)
	b = defineToggle(b, "NL_PLANTS_WAVE", cfg.Wave.Plants)
	b = defineToggle(b, "NL_LANTERN_WAVE", cfg.Wave.Lantern)
	b = defineFloat(b, "NL_WAVE_SPEED", cfg.Wave.Speed)
	b = defineFlag(b, "NL_EXTRA_PLANTS_WAVE", cfg.Wave.ExtraPlants)

	w := cfg.Water
	b = append(b, "\n// Water\n"...)
	b = defineFloat(b, "NL_WATER_TRANSPARENCY", w.Transparency)
	b = defineFloat(b, "NL_WATER_BUMP", w.Bump)
	b = defineFloat(b, "NL_WATER_TEX_OPACITY", w.TexOpacity)
	b = defineFlag(b, "NL_WATER_WAVE", w.Wave)
	b = defineFlag(b, "NL_WATER_FOG_FADE", w.FogFade)
	b = defineFlag(b, "NL_WATER_CLOUD_REFLECTION", w.CloudReflection)
	b = defineVec3(b, "NL_WATER_TINT", w.Tint)

	u := cfg.Underwater
	b = append(b, "\n// Underwater\n"...)
	b = defineFloat(b, "NL_UNDERWATER_BRIGHTNESS", u.Brightness)
	b = defineFloat(b, "NL_CAUSTIC_INTENSITY", u.CausticIntensity)
	b = defineToggle(b, "NL_UNDERWATER_WAVE", u.Wave)
	b = defineVec3(b, "NL_UNDERWATER_TINT", u.Tint)

	c := cfg.Clouds
	b = append(b, "\n// Clouds\n"...)
	b = defineInt(b, "NL_CLOUD_TYPE", int(c.Type))
	b = defineFloat(b, "NL_CLOUD0_THICKNESS", c.Vanilla.Thickness)
	b = defineFloat(b, "NL_CLOUD0_RAIN_THICKNESS", c.Vanilla.RainThickness)
	b = defineVec2(b, "NL_CLOUD1_SCALE", c.Soft.Scale)
	b = defineFloat(b, "NL_CLOUD1_DEPTH", c.Soft.Depth)
	b = defineFloat(b, "NL_CLOUD1_SPEED", c.Soft.Speed)
	b = defineFloat(b, "NL_CLOUD1_DENSITY", c.Soft.Density)
	b = defineFloat(b, "NL_CLOUD1_OPACITY", c.Soft.Opacity)
	r := c.Rounded
	b = defineFloat(b, "NL_CLOUD2_THICKNESS", r.Thickness)
	b = defineFloat(b, "NL_CLOUD2_RAIN_THICKNESS", r.RainThickness)
	b = defineInt(b, "NL_CLOUD2_STEPS", r.Steps)
	b = defineFloat(b, "NL_CLOUD2_SCALE", r.Scale)
	b = defineFloat(b, "NL_CLOUD2_SHAPE", r.Boxiness)
	b = defineFloat(b, "NL_CLOUD2_DENSITY", r.Density)
	b = defineFloat(b, "NL_CLOUD2_VELOCIY", r.Speed)
	b = defineFloat(b, "NL_CLOUD2_SHADOW_INTENSITY", r.ShadowIntensity)
	b = defineFloat(b, "NL_CLOUD2_BRIGHTNESS", r.Brightness)
	b = defineToggle(b, "NL_NIGHT_CLOUD2_INTENSITY", r.NightIntensity)
	b = defineFlag(b, "NL_CLOUD2_MULTILAYER", c.Multilayer.Enabled)

	a := cfg.Aurora
	b = append(b, "\n// Aurora\n"...)
	if a.Enabled {
		b = defineFloat(b, "NL_AURORA", a.Intensity)
	}
	b = defineFloat(b, "NL_AURORA_VELOCITY", a.Velocity)
	b = defineFloat(b, "NL_AURORA_SCALE", a.Scale)
	b = defineFloat(b, "NL_AURORA_WIDTH", a.Width)
	b = defineVec3(b, "NL_AURORA_COL1", a.Col1)
	b = defineVec3(b, "NL_AURORA_COL2", a.Col2)

	b = append(b, "\n// Rain\n"...)
	b = defineToggle(b, "NL_RAIN_MIST_OPACITY", cfg.Rain.MistOpacity)
	b = defineFloat(b, "NL_RAIN_WETNESS", cfg.Rain.Wetness)
	b = defineFloat(b, "NL_RAIN_PUDDLES", cfg.Rain.Puddles)

	b = append(b, "\n// Misc\n"...)
	b = defineToggle(b, "NL_CHUNK_LOAD_ANIM", cfg.ChunkLoadAnim)
	b = defineToggle(b, "NL_SUNMOON_ANGLE", cfg.SunMoon.Angle)
	b = defineFloat(b, "NL_SUNMOON_SIZE", cfg.SunMoon.Size)

	b = append(b, "\n#endif\n"...)
	return b
}

// glslFloat formats v in its shortest form as a float literal, i.e: 32 is written 32.0.
func glslFloat(v float32) string {
	s := strconv.FormatFloat(float64(v), 'f', -1, 32)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func defineFloat(b []byte, name string, v float32) []byte {
	return glbuild.AppendDefineDecl(b, name, glslFloat(v))
}

func defineInt(b []byte, name string, v int) []byte {
	return glbuild.AppendDefineDecl(b, name, strconv.Itoa(v))
}

func defineFlag(b []byte, name string, enabled bool) []byte {
	if !enabled {
		return b
	}
	b = append(b, "#define "...)
	b = append(b, name...)
	return append(b, '\n')
}

func defineToggle(b []byte, name string, t Toggle) []byte {
	if !t.Enabled {
		return b
	}
	return defineFloat(b, name, t.Value)
}

func defineVec3(b []byte, name string, v ms3.Vec) []byte {
	return glbuild.AppendDefineDecl(b, name, "vec3("+glslFloat(v.X)+","+glslFloat(v.Y)+","+glslFloat(v.Z)+")")
}

func defineVec2(b []byte, name string, v ms2.Vec) []byte {
	return glbuild.AppendDefineDecl(b, name, "vec2("+glslFloat(v.X)+","+glslFloat(v.Y)+")")
}
