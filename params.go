package skyfx

import (
	"errors"
	"fmt"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

// Toggle is an optional tunable. When Enabled is false Value is ignored.
type Toggle struct {
	Enabled bool
	Value   float32
}

// On returns an enabled toggle with value v.
func On(v float32) Toggle { return Toggle{Enabled: true, Value: v} }

// Off returns a disabled toggle that keeps v as the value used when re-enabled.
func Off(v float32) Toggle { return Toggle{Value: v} }

// ColorToggle is an optional color.
type ColorToggle struct {
	Enabled bool
	Color   ms3.Vec
}

// TonemapType selects the tone mapping curve.
type TonemapType int

const (
	TonemapExponential TonemapType = iota + 1
	TonemapReinhard
	TonemapExtendedReinhard
	TonemapACES
)

func (t TonemapType) String() string {
	switch t {
	case TonemapExponential:
		return "exponential"
	case TonemapReinhard:
		return "reinhard"
	case TonemapExtendedReinhard:
		return "extended-reinhard"
	case TonemapACES:
		return "aces"
	}
	return fmt.Sprintf("TonemapType(%d)", int(t))
}

// FogType selects the terrain fog curve.
type FogType int

const (
	FogNone FogType = iota
	FogVanilla
	FogSmooth
)

// CloudType selects which cloud renderer the scene uses.
type CloudType int

const (
	// CloudsVanilla leaves clouds to the host's mesh clouds.
	CloudsVanilla CloudType = iota
	// CloudsSoft renders 2D noise clouds, see [RenderCloudsSimple].
	CloudsSoft
	// CloudsRounded ray marches volumetric clouds, see [RenderClouds].
	CloudsRounded
)

func (c CloudType) String() string {
	switch c {
	case CloudsVanilla:
		return "vanilla"
	case CloudsSoft:
		return "soft"
	case CloudsRounded:
		return "rounded"
	}
	return fmt.Sprintf("CloudType(%d)", int(c))
}

// ToneParams controls color correction.
type ToneParams struct {
	Type       TonemapType
	Contrast   float32
	Exposure   Toggle
	Saturation Toggle
	Tint       ColorToggle
}

// LightingParams controls terrain lighting. Carried for header export.
type LightingParams struct {
	SunIntensity    float32
	TorchIntensity  float32
	NightBrightness float32
	CaveBrightness  float32
	ShadowIntensity float32
	BlinkingTorch   bool
	GlowTex         float32

	MorningSun ms3.Vec
	NoonSun    ms3.Vec
	NightSun   ms3.Vec

	OverworldTorch  ms3.Vec
	UnderwaterTorch ms3.Vec
	NetherTorch     ms3.Vec
	EndTorch        ms3.Vec
}

type FogParams struct {
	Type        FogType
	MistDensity float32
}

// SkyParams are the sky gradient colors. Zenith is the top of the sky, horizon the bottom.
type SkyParams struct {
	DayZenith    ms3.Vec
	DayHorizon   ms3.Vec
	NightZenith  ms3.Vec
	NightHorizon ms3.Vec
	RainZenith   ms3.Vec
	RainHorizon  ms3.Vec
	EndZenith    ms3.Vec
	EndHorizon   ms3.Vec
	DawnHorizon  ms3.Vec
	DawnEdge     ms3.Vec
}

type WaveParams struct {
	Plants      Toggle
	Lantern     Toggle
	Speed       float32
	ExtraPlants bool
}

type WaterParams struct {
	Transparency    float32
	Bump            float32
	TexOpacity      float32
	Wave            bool
	FogFade         bool
	CloudReflection bool
	Tint            ms3.Vec
}

type UnderwaterParams struct {
	Brightness       float32
	CausticIntensity float32
	Wave             Toggle
	Tint             ms3.Vec
}

// VanillaCloudParams are used by the host's mesh clouds.
type VanillaCloudParams struct {
	Thickness     float32
	RainThickness float32
}

// SoftCloudParams configure [RenderCloudsSimple].
type SoftCloudParams struct {
	// Scale is the horizontal noise frequency per axis.
	Scale   ms2.Vec
	Depth   float32
	Speed   float32
	Density float32
	Opacity float32
}

// RoundedCloudParams configure the cloud marcher [RenderClouds].
type RoundedCloudParams struct {
	Thickness     float32
	RainThickness float32
	// Steps is the fixed number of density samples along each ray.
	Steps int
	// Scale is the horizontal noise frequency.
	Scale float32
	// Boxiness blends a round cross section (0) into a hard box (1).
	Boxiness float32
	// Density divides the step count in the saturating alpha remap.
	Density float32
	Speed   float32
	// ShadowIntensity darkens the cloud by its accumulated height.
	ShadowIntensity float32
	// Brightness weights the fog color added to lit parts of the cloud.
	Brightness float32
	// NightIntensity, when enabled, scales the final cloud alpha.
	NightIntensity Toggle
}

// MultilayerParams configure the second rounded cloud layer.
type MultilayerParams struct {
	Enabled bool
	// LayerOffset is the vertical distance to the second layer in fragment position units.
	LayerOffset float32
	// SpeedFactor and ScaleFactor multiply the first layer's speed and scale.
	SpeedFactor float32
	ScaleFactor float32
	// Opacity multiplies the second layer's alpha.
	Opacity float32
}

type CloudParams struct {
	Type       CloudType
	Vanilla    VanillaCloudParams
	Soft       SoftCloudParams
	Rounded    RoundedCloudParams
	Multilayer MultilayerParams
	// Shadow enables terrain shadows cast by soft clouds.
	Shadow bool
}

// AuroraParams configure [RenderAurora].
type AuroraParams struct {
	Enabled bool
	// Intensity multiplies the streak color.
	Intensity float32
	Velocity  float32
	Scale     float32
	// Width controls the thickness of streaks.
	Width float32
	Col1  ms3.Vec
	Col2  ms3.Vec
}

type RainParams struct {
	MistOpacity Toggle
	Wetness     float32
	Puddles     float32
}

type SunMoonParams struct {
	// Angle is the tilt in degrees.
	Angle Toggle
	Size  float32
}

// Config is the complete tunable set of the renderer. A Config is a value
// and is never modified by the functions that read it.
type Config struct {
	Tone          ToneParams
	Lighting      LightingParams
	Fog           FogParams
	Sky           SkyParams
	Wave          WaveParams
	Water         WaterParams
	Underwater    UnderwaterParams
	Clouds        CloudParams
	Aurora        AuroraParams
	Rain          RainParams
	SunMoon       SunMoonParams
	ChunkLoadAnim Toggle
}

func vec3(x, y, z float32) ms3.Vec { return ms3.Vec{X: x, Y: y, Z: z} }

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	torch := vec3(1.0, 0.52, 0.18)
	return Config{
		Tone: ToneParams{
			Type:       TonemapExtendedReinhard,
			Contrast:   0.75,
			Exposure:   On(1.7),
			Saturation: Off(1.1),
			Tint:       ColorToggle{Color: vec3(1.0, 0.75, 0.5)},
		},
		Lighting: LightingParams{
			SunIntensity:    2.95,
			TorchIntensity:  0.51,
			NightBrightness: 0.040,
			CaveBrightness:  0.18,
			ShadowIntensity: 0.94,
			GlowTex:         5.0,
			MorningSun:      vec3(1.0, 0.45, 0.14),
			NoonSun:         vec3(1.0, 0.75, 0.57),
			NightSun:        vec3(0.5, 0.64, 1.00),
			OverworldTorch:  torch,
			UnderwaterTorch: torch,
			NetherTorch:     torch,
			EndTorch:        torch,
		},
		Fog: FogParams{
			Type:        FogSmooth,
			MistDensity: 0.24,
		},
		Sky: SkyParams{
			DayZenith:    vec3(0.0, 0.186, 0.565),
			DayHorizon:   vec3(0.53, 0.83, 0.93),
			NightZenith:  vec3(0.008, 0.035, 0.09),
			NightHorizon: vec3(0.002, 0.118, 0.220),
			RainZenith:   vec3(0.85, 0.9, 1.0),
			RainHorizon:  vec3(1.0, 1.0, 1.0),
			EndZenith:    vec3(0.08, 0.001, 0.1),
			EndHorizon:   vec3(0.28, 0.031, 0.33),
			DawnHorizon:  vec3(1.0, 0.4, 0.3),
			DawnEdge:     vec3(1.0, 0.4, 0.2),
		},
		Wave: WaveParams{
			Plants:  On(0.05),
			Lantern: On(0.16),
			Speed:   3.1,
		},
		Water: WaterParams{
			Transparency:    0.95,
			Bump:            0.02,
			TexOpacity:      3.15,
			Wave:            true,
			CloudReflection: true,
			Tint:            vec3(0.914, 0.929, 0.961),
		},
		Underwater: UnderwaterParams{
			Brightness:       0.8,
			CausticIntensity: 1.9,
			Wave:             On(0.1),
			Tint:             vec3(0.9, 1.0, 0.9),
		},
		Clouds: CloudParams{
			Type: CloudsRounded,
			Vanilla: VanillaCloudParams{
				Thickness:     2.0,
				RainThickness: 4.0,
			},
			Soft: SoftCloudParams{
				Scale:   ms2.Vec{X: 0.016, Y: 0.022},
				Depth:   1.3,
				Speed:   0.04,
				Density: 0.54,
				Opacity: 0.9,
			},
			Rounded: RoundedCloudParams{
				Thickness:       2.2,
				RainThickness:   2.5,
				Steps:           8,
				Scale:           0.036,
				Boxiness:        0.68,
				Density:         7.8,
				Speed:           0.8,
				ShadowIntensity: 0.7,
				Brightness:      0.8,
				NightIntensity:  Off(0.8),
			},
			Multilayer: MultilayerParams{
				LayerOffset: 143,
				SpeedFactor: 0.8,
				ScaleFactor: 1.6,
				Opacity:     0.5,
			},
		},
		Aurora: AuroraParams{
			Intensity: 3.0,
			Velocity:  0.03,
			Scale:     0.04,
			Width:     0.18,
			Col1:      vec3(0.1, 1.0, 0.0),
			Col2:      vec3(0.0, 0.66, 1.0),
		},
		Rain: RainParams{
			MistOpacity: On(0.12),
			Wetness:     0.5,
			Puddles:     1.86,
		},
		SunMoon: SunMoonParams{
			Angle: Off(45.0),
			Size:  1.42,
		},
		ChunkLoadAnim: Off(100.0),
	}
}

// Validate checks the configuration and returns every violation found joined
// with [errors.Join], or nil if the configuration can be rendered.
func (cfg Config) Validate() error {
	var v validator
	tone := cfg.Tone
	if tone.Type < TonemapExponential || tone.Type > TonemapACES {
		v.errorf("unknown tonemap type %d", int(tone.Type))
	}
	v.positive("tone contrast", tone.Contrast)
	if tone.Exposure.Enabled {
		v.positive("tone exposure", tone.Exposure.Value)
	}
	if tone.Saturation.Enabled && tone.Saturation.Value < 0 {
		v.errorf("negative tone saturation %g", tone.Saturation.Value)
	}
	if cfg.Fog.Type < FogNone || cfg.Fog.Type > FogSmooth {
		v.errorf("unknown fog type %d", int(cfg.Fog.Type))
	}
	v.unit("fog mist density", cfg.Fog.MistDensity)

	clouds := cfg.Clouds
	switch clouds.Type {
	case CloudsVanilla:
		v.positive("vanilla cloud thickness", clouds.Vanilla.Thickness)
		v.positive("vanilla cloud rain thickness", clouds.Vanilla.RainThickness)
	case CloudsSoft:
		v.errorIf(clouds.Soft.validate())
	case CloudsRounded:
		v.errorIf(clouds.Rounded.validate())
	default:
		v.errorf("unknown cloud type %d", int(clouds.Type))
	}
	if clouds.Multilayer.Enabled {
		if clouds.Type != CloudsRounded {
			v.errorf("multilayer clouds require rounded clouds, got %s", clouds.Type)
		}
		v.positive("multilayer speed factor", clouds.Multilayer.SpeedFactor)
		v.positive("multilayer scale factor", clouds.Multilayer.ScaleFactor)
		v.unit("multilayer opacity", clouds.Multilayer.Opacity)
	}
	if clouds.Shadow && clouds.Type != CloudsSoft {
		v.errorf("cloud shadow requires soft clouds, got %s", clouds.Type)
	}
	if cfg.Aurora.Enabled {
		v.errorIf(cfg.Aurora.validate())
	}
	v.positive("sun/moon size", cfg.SunMoon.Size)
	return v.err()
}

func (p SoftCloudParams) validate() error {
	var v validator
	v.positive("soft cloud x scale", p.Scale.X)
	v.positive("soft cloud y scale", p.Scale.Y)
	v.nonNegative("soft cloud speed", p.Speed)
	v.unit("soft cloud opacity", p.Opacity)
	return v.err()
}

func (p RoundedCloudParams) validate() error {
	var v validator
	if p.Steps <= 0 {
		v.errorf("rounded cloud steps must be positive, got %d", p.Steps)
	}
	v.positive("rounded cloud thickness", p.Thickness)
	v.positive("rounded cloud rain thickness", p.RainThickness)
	v.positive("rounded cloud scale", p.Scale)
	v.positive("rounded cloud density", p.Density)
	v.unit("rounded cloud boxiness", p.Boxiness)
	v.nonNegative("rounded cloud speed", p.Speed)
	v.unit("rounded cloud shadow intensity", p.ShadowIntensity)
	if p.NightIntensity.Enabled {
		v.nonNegative("rounded cloud night intensity", p.NightIntensity.Value)
	}
	return v.err()
}

func (p AuroraParams) validate() error {
	var v validator
	v.nonNegative("aurora intensity", p.Intensity)
	v.positive("aurora width", p.Width)
	v.positive("aurora scale", p.Scale)
	v.nonNegative("aurora velocity", p.Velocity)
	return v.err()
}

// validator accumulates validation errors.
type validator struct {
	errs []error
}

func (v *validator) errorf(msg string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(msg, args...))
}

func (v *validator) errorIf(err error) {
	if err != nil {
		v.errs = append(v.errs, err)
	}
}

func (v *validator) positive(name string, f float32) {
	if !(f > 0) {
		v.errorf("%s must be positive, got %g", name, f)
	}
}

func (v *validator) nonNegative(name string, f float32) {
	if !(f >= 0) {
		v.errorf("%s must not be negative, got %g", name, f)
	}
}

func (v *validator) unit(name string, f float32) {
	if !(f >= 0 && f <= 1) {
		v.errorf("%s must be within [0,1], got %g", name, f)
	}
}

func (v *validator) err() error {
	return errors.Join(v.errs...)
}
