package glsllib

import (
	_ "embed"

	"github.com/soypat/skyfx/glbuild"
)

func mustShaderFunction(src []byte) glbuild.ShaderObject {
	obj, err := glbuild.MakeShaderFunction(src)
	if err != nil {
		panic(err)
	}
	return obj
}

//go:embed smoothstep.glsl
var smoothstepSrc []byte

// Smoothstep is a Hermite step that accepts inverted edges and degrades to step(e0,x) when e0==e1:
//
//	float skyfxSmoothstep(float e0, float e1, float x)
func Smoothstep() glbuild.ShaderObject {
	return mustShaderFunction(smoothstepSrc)
}

//go:embed rand.glsl
var randSrc []byte

// Rand is the lattice hash in [0,1]:
//
//	float skyfxRand(vec2 p)
func Rand() glbuild.ShaderObject {
	return mustShaderFunction(randSrc)
}

//go:embed randt.glsl
var randtSrc []byte

// RandT is the lattice hash remapped by a rain transition pair. Requires [Smoothstep] and [Rand].
//
//	float skyfxRandT(vec2 p, vec2 t)
func RandT() glbuild.ShaderObject {
	return mustShaderFunction(randtSrc)
}

//go:embed cloudnoise2D.glsl
var cloudNoise2DSrc []byte

// CloudNoise2D is the drifting value noise used by soft clouds. Requires [RandT].
//
//	float skyfxCloudNoise2D(vec2 p, float t, float rain, float speed)
func CloudNoise2D() glbuild.ShaderObject {
	return mustShaderFunction(cloudNoise2DSrc)
}

//go:embed cloudssimple.glsl
var cloudsSimpleSrc []byte

// CloudsSimple shades the soft 2D cloud layer. Requires [CloudNoise2D].
//
//	vec4 skyfxCloudsSimple(vec3 horizonEdge, vec3 zenith, vec3 pos, float t, float rain, vec2 scale, float speed)
func CloudsSimple() glbuild.ShaderObject {
	return mustShaderFunction(cloudsSimpleSrc)
}

//go:embed clouddensity.glsl
var cloudDensitySrc []byte

// CloudDensity is the rounded cloud density field. Requires [RandT].
//
//	float skyfxCloudDensity(vec3 pos, float rain, float boxiness)
func CloudDensity() glbuild.ShaderObject {
	return mustShaderFunction(cloudDensitySrc)
}

//go:embed nightfactor.glsl
var nightFactorSrc []byte

// NightFactor estimates darkness from the fog color:
//
//	float skyfxNightFactor(vec3 fog)
func NightFactor() glbuild.ShaderObject {
	return mustShaderFunction(nightFactorSrc)
}

//go:embed cloudsrounded.glsl
var cloudsRoundedSrc []byte

// CloudsRounded ray marches the rounded cloud slab. Requires [CloudDensity] and [NightFactor].
//
//	vec4 skyfxCloudsRounded(vec3 vDir, vec3 vPos, float rain, float time, vec3 fogCol, vec3 skyCol,
//		int steps, float thickness, float thicknessRain, float speed, vec2 scale, float density,
//		float boxiness, float shadowIntensity, float brightness)
func CloudsRounded() glbuild.ShaderObject {
	return mustShaderFunction(cloudsRoundedSrc)
}

//go:embed aurora.glsl
var auroraSrc []byte

// Aurora shades banded aurora streaks.
//
//	vec4 skyfxAurora(vec3 p, float t, float rain, vec3 fog, float intensity, float velocity,
//		float scale, float width, vec3 col1, vec3 col2)
func Aurora() glbuild.ShaderObject {
	return mustShaderFunction(auroraSrc)
}

//go:embed skygradient.glsl
var skyGradientSrc []byte

// SkyGradient blends zenith, horizon and horizon edge colors by view elevation:
//
//	vec3 skyfxSkyGradient(vec3 zenith, vec3 horizon, vec3 horizonEdge, float dirY)
func SkyGradient() glbuild.ShaderObject {
	return mustShaderFunction(skyGradientSrc)
}

// AppendNoise appends the hash functions in dependency order.
func AppendNoise(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objs, Smoothstep(), Rand(), RandT())
}

// AppendCloudsSimple appends the soft cloud layer and its dependencies.
func AppendCloudsSimple(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	objs = AppendNoise(objs)
	return append(objs, CloudNoise2D(), CloudsSimple())
}

// AppendCloudsRounded appends the rounded cloud marcher and its dependencies.
func AppendCloudsRounded(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	objs = AppendNoise(objs)
	return append(objs, CloudDensity(), NightFactor(), CloudsRounded())
}

//go:embed colorcorrection.glsl
var colorCorrectionSrc []byte

// ColorCorrection applies exposure, tone mapping, contrast, saturation and tint:
//
//	vec3 skyfxColorCorrection(vec3 col, float exposure, int tonemap, float contrast, float saturation, vec3 tint)
func ColorCorrection() glbuild.ShaderObject {
	return mustShaderFunction(colorCorrectionSrc)
}
