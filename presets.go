package skyfx

import (
	"fmt"
	"strings"
)

// Preset names a subpack variant that overrides a fixed subset of a [Config].
type Preset string

const (
	PresetLow               Preset = "LOW"
	PresetMedium            Preset = "MEDIUM"
	PresetHigh              Preset = "HIGH"
	PresetCompAurora        Preset = "COMP_AURORA"
	PresetCompStyle         Preset = "COMP_STYLE"
	PresetCustom            Preset = "CUSTOM"
	PresetDoubleCloudAurora Preset = "DOUBLE_CLOUD_AURORA"
	PresetDoubleCloud       Preset = "DOUBLE_CLOUD"
	PresetAurora            Preset = "AURORA"
	PresetDefault           Preset = "DEFAULT"
)

// Presets returns all known presets in subpack order.
func Presets() []Preset {
	return []Preset{
		PresetLow, PresetMedium, PresetHigh, PresetCompAurora, PresetCompStyle,
		PresetCustom, PresetDoubleCloudAurora, PresetDoubleCloud, PresetAurora, PresetDefault,
	}
}

// ParsePreset returns the preset matching name, ignoring case.
func ParsePreset(name string) (Preset, error) {
	p := Preset(strings.ToUpper(strings.TrimSpace(name)))
	for _, known := range Presets() {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown preset %q", name)
}

// ApplyPreset applies the overrides of preset p to cfg.
// Values the preset does not name are left untouched.
func ApplyPreset(cfg *Config, p Preset) error {
	if cfg == nil {
		return fmt.Errorf("nil config for preset %s", p)
	}
	switch p {
	case PresetLow:
		cfg.Wave.Plants.Enabled = false
		cfg.Wave.Lantern.Enabled = false
		cfg.Underwater.Wave.Enabled = false
		cfg.Water.Wave = false
		cfg.Rain.MistOpacity.Enabled = false
		cfg.Clouds.Type = CloudsVanilla
		cfg.Fog.Type = FogNone
	case PresetMedium:
		cfg.Clouds.Type = CloudsSoft
		cfg.Clouds.Shadow = true
		enableAurora(cfg, 3.1)
	case PresetHigh:
		cfg.ChunkLoadAnim = On(100)
		cfg.Clouds.Multilayer.Enabled = true
		cfg.Wave.ExtraPlants = true
		enableAurora(cfg, 3.0)
	case PresetCompAurora, PresetCompStyle:
		cfg.Tone.Exposure = On(1.7)
		cfg.Tone.Saturation = On(1.1)
		cfg.Lighting.GlowTex = 5.0
		cfg.Wave.Plants = On(0.05)
		cfg.Wave.ExtraPlants = true
		if p == PresetCompAurora {
			enableAurora(cfg, 3.0)
		} else {
			cfg.Aurora.Enabled = false
		}
	case PresetCustom:
		cfg.Tone.Exposure = On(1.7)
		cfg.Clouds.Multilayer.Enabled = true
		enableAurora(cfg, 3.1)
		cfg.ChunkLoadAnim = On(100)
	case PresetDoubleCloudAurora:
		cfg.Clouds.Multilayer.Enabled = true
		enableAurora(cfg, 3.0)
		cfg.Lighting.BlinkingTorch = true
	case PresetDoubleCloud:
		cfg.Clouds.Multilayer.Enabled = true
		cfg.Aurora.Enabled = false
	case PresetAurora:
		cfg.Clouds.Multilayer.Enabled = false
		enableAurora(cfg, 3.0)
		cfg.Lighting.BlinkingTorch = true
	case PresetDefault:
		cfg.Clouds.Type = CloudsRounded
		cfg.Aurora.Enabled = false
	default:
		return fmt.Errorf("unknown preset %q", string(p))
	}
	return nil
}

func enableAurora(cfg *Config, intensity float32) {
	cfg.Aurora.Enabled = true
	cfg.Aurora.Intensity = intensity
}
