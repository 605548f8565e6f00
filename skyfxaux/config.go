package skyfxaux

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	css "github.com/mazznoer/csscolorparser"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/skyfx"
	"github.com/soypat/skyfx/gleval"
)

// Color is a linear RGB color read from JSON either as a CSS color string
// ("#87ceeb", "rgb(30,40,50)", "skyblue") or as an array of three floats.
type Color ms3.Vec

func (c *Color) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := css.Parse(s)
		if err != nil {
			return fmt.Errorf("color %q: %w", s, err)
		}
		*c = Color{X: float32(parsed.R), Y: float32(parsed.G), Z: float32(parsed.B)}
		return nil
	}
	var arr []float32
	if err := json.Unmarshal(b, &arr); err != nil {
		return fmt.Errorf("color must be a CSS string or [r,g,b] array: %w", err)
	}
	if len(arr) != 3 {
		return fmt.Errorf("color array needs 3 components, got %d", len(arr))
	}
	*c = Color{X: arr[0], Y: arr[1], Z: arr[2]}
	return nil
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float32{c.X, c.Y, c.Z})
}

// Frame describes one moment of the sky as seen by the camera.
type Frame struct {
	Time float32 `json:"time"`
	Rain float32 `json:"rain"`
	// Fog is the host's fog color, which encodes time of day.
	Fog Color `json:"fog"`
	// Yaw, Pitch and FOV are in degrees.
	Yaw         float32 `json:"yaw"`
	Pitch       float32 `json:"pitch"`
	FOV         float32 `json:"fov"`
	CloudHeight float32 `json:"cloudHeight"`
	// End selects the End dimension sky colors.
	End bool `json:"end,omitempty"`
}

// DefaultFrame is a clear midday sky seen from the default camera.
func DefaultFrame() Frame {
	return Frame{
		Time:        100,
		Fog:         Color{X: 0.75, Y: 0.85, Z: 1},
		Pitch:       30,
		FOV:         70,
		CloudHeight: 120,
	}
}

// Env returns the per-frame environment of f for the sky colors of cfg.
func (f Frame) Env(cfg skyfx.Config) gleval.Env {
	fog := ms3.Vec(f.Fog)
	sky := skyfx.SkyColorsFor(f.Rain, fog, cfg.Sky)
	if f.End {
		sky = skyfx.EndSkyColors(cfg.Sky)
	}
	return sky.Env(f.Time, f.Rain, fog)
}

// File is the JSON representation of a sky configuration. Only the fields present
// in the file override the defaults of the named preset.
type File struct {
	Preset string      `json:"preset,omitempty"`
	Frame  *Frame      `json:"frame,omitempty"`
	Sky    *skyFile    `json:"sky,omitempty"`
	Clouds *cloudsFile `json:"clouds,omitempty"`
	Aurora *auroraFile `json:"aurora,omitempty"`
	Tone   *toneFile   `json:"tone,omitempty"`
}

type skyFile struct {
	DayZenith    *Color `json:"dayZenith,omitempty"`
	DayHorizon   *Color `json:"dayHorizon,omitempty"`
	NightZenith  *Color `json:"nightZenith,omitempty"`
	NightHorizon *Color `json:"nightHorizon,omitempty"`
	RainZenith   *Color `json:"rainZenith,omitempty"`
	RainHorizon  *Color `json:"rainHorizon,omitempty"`
	EndZenith    *Color `json:"endZenith,omitempty"`
	EndHorizon   *Color `json:"endHorizon,omitempty"`
	DawnHorizon  *Color `json:"dawnHorizon,omitempty"`
	DawnEdge     *Color `json:"dawnEdge,omitempty"`
}

type cloudsFile struct {
	Type       *string         `json:"type,omitempty"`
	Shadow     *bool           `json:"shadow,omitempty"`
	Soft       *softFile       `json:"soft,omitempty"`
	Rounded    *roundedFile    `json:"rounded,omitempty"`
	Multilayer *multilayerFile `json:"multilayer,omitempty"`
}

type softFile struct {
	Scale   *[2]float32 `json:"scale,omitempty"`
	Depth   *float32    `json:"depth,omitempty"`
	Speed   *float32    `json:"speed,omitempty"`
	Density *float32    `json:"density,omitempty"`
	Opacity *float32    `json:"opacity,omitempty"`
}

type roundedFile struct {
	Thickness       *float32 `json:"thickness,omitempty"`
	RainThickness   *float32 `json:"rainThickness,omitempty"`
	Steps           *int     `json:"steps,omitempty"`
	Scale           *float32 `json:"scale,omitempty"`
	Boxiness        *float32 `json:"boxiness,omitempty"`
	Density         *float32 `json:"density,omitempty"`
	Speed           *float32 `json:"speed,omitempty"`
	ShadowIntensity *float32 `json:"shadowIntensity,omitempty"`
	Brightness      *float32 `json:"brightness,omitempty"`
	// NightIntensity is enabled when present.
	NightIntensity *float32 `json:"nightIntensity,omitempty"`
}

type multilayerFile struct {
	Enabled     *bool    `json:"enabled,omitempty"`
	LayerOffset *float32 `json:"layerOffset,omitempty"`
	SpeedFactor *float32 `json:"speedFactor,omitempty"`
	ScaleFactor *float32 `json:"scaleFactor,omitempty"`
	Opacity     *float32 `json:"opacity,omitempty"`
}

type auroraFile struct {
	Enabled   *bool    `json:"enabled,omitempty"`
	Intensity *float32 `json:"intensity,omitempty"`
	Velocity  *float32 `json:"velocity,omitempty"`
	Scale     *float32 `json:"scale,omitempty"`
	Width     *float32 `json:"width,omitempty"`
	Col1      *Color   `json:"col1,omitempty"`
	Col2      *Color   `json:"col2,omitempty"`
}

type toneFile struct {
	Type       *int     `json:"type,omitempty"`
	Contrast   *float32 `json:"contrast,omitempty"`
	Exposure   *float32 `json:"exposure,omitempty"`
	Saturation *float32 `json:"saturation,omitempty"`
	Tint       *Color   `json:"tint,omitempty"`
}

// LoadConfigFile reads a JSON sky configuration from the named file. See [LoadConfig].
func LoadConfigFile(name string) (skyfx.Config, Frame, error) {
	f, err := LoadFile(name)
	if err != nil {
		return skyfx.Config{}, Frame{}, err
	}
	cfg, frame, err := f.Config()
	if err != nil {
		return cfg, frame, fmt.Errorf("%s: %w", name, err)
	}
	return cfg, frame, nil
}

// LoadConfig decodes a JSON [File] from r. The named preset is applied on top of
// [skyfx.DefaultConfig] before the file's overrides, and the result is validated.
// Unknown fields are rejected.
func LoadConfig(r io.Reader) (skyfx.Config, Frame, error) {
	f, err := DecodeFile(r)
	if err != nil {
		return skyfx.Config{}, Frame{}, err
	}
	return f.Config()
}

// LoadFile decodes the named JSON file without resolving it. See [DecodeFile].
func LoadFile(name string) (*File, error) {
	fp, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	f, err := DecodeFile(fp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

// DecodeFile decodes a JSON [File] from r so that it can be amended before
// calling [File.Config]. The returned file always has a frame.
func DecodeFile(r io.Reader) (*File, error) {
	// Frame fields missing from the file keep their defaults.
	frame := DefaultFrame()
	f := &File{Frame: &frame}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	err := dec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if f.Frame == nil {
		// Decoding "frame": null leaves frame untouched.
		f.Frame = &frame
	}
	return f, nil
}

// Overrides are command line settings layered over a [File].
type Overrides struct {
	// Preset is used when the file names none.
	Preset string
	// Time and Rain replace the frame's values when not nil.
	Time, Rain *float32
}

// Apply sets o on f. The frame takes its defaults when f has none.
// Values are checked later by [File.Config].
func (o Overrides) Apply(f *File) {
	if f.Preset == "" {
		f.Preset = o.Preset
	}
	if f.Frame == nil {
		frame := DefaultFrame()
		f.Frame = &frame
	}
	set(&f.Frame.Time, o.Time)
	set(&f.Frame.Rain, o.Rain)
}

// Config resolves the file into a validated configuration and frame.
func (f *File) Config() (skyfx.Config, Frame, error) {
	cfg := skyfx.DefaultConfig()
	frame := DefaultFrame()
	if f.Preset != "" {
		preset, err := skyfx.ParsePreset(f.Preset)
		if err != nil {
			return cfg, frame, err
		}
		err = skyfx.ApplyPreset(&cfg, preset)
		if err != nil {
			return cfg, frame, err
		}
	}
	if f.Frame != nil {
		frame = *f.Frame
	}
	var errs []error
	if f.Sky != nil {
		f.Sky.apply(&cfg.Sky)
	}
	if f.Clouds != nil {
		errs = append(errs, f.Clouds.apply(&cfg.Clouds))
	}
	if f.Aurora != nil {
		f.Aurora.apply(&cfg.Aurora)
	}
	if f.Tone != nil {
		f.Tone.apply(&cfg.Tone)
	}
	errs = append(errs, cfg.Validate(), frame.validate())
	return cfg, frame, errors.Join(errs...)
}

func (f Frame) validate() error {
	var errs []error
	if f.Rain < 0 || f.Rain > 1 {
		errs = append(errs, fmt.Errorf("frame rain must be within [0,1], got %g", f.Rain))
	}
	if !(f.FOV > 0 && f.FOV < 180) {
		errs = append(errs, fmt.Errorf("frame fov must be within (0,180) degrees, got %g", f.FOV))
	}
	if !(f.CloudHeight > 0) {
		errs = append(errs, fmt.Errorf("frame cloud height must be positive, got %g", f.CloudHeight))
	}
	return errors.Join(errs...)
}

func (s *skyFile) apply(p *skyfx.SkyParams) {
	setColor(&p.DayZenith, s.DayZenith)
	setColor(&p.DayHorizon, s.DayHorizon)
	setColor(&p.NightZenith, s.NightZenith)
	setColor(&p.NightHorizon, s.NightHorizon)
	setColor(&p.RainZenith, s.RainZenith)
	setColor(&p.RainHorizon, s.RainHorizon)
	setColor(&p.EndZenith, s.EndZenith)
	setColor(&p.EndHorizon, s.EndHorizon)
	setColor(&p.DawnHorizon, s.DawnHorizon)
	setColor(&p.DawnEdge, s.DawnEdge)
}

func (c *cloudsFile) apply(p *skyfx.CloudParams) error {
	if c.Type != nil {
		typ, err := ParseCloudType(*c.Type)
		if err != nil {
			return err
		}
		p.Type = typ
	}
	set(&p.Shadow, c.Shadow)
	if s := c.Soft; s != nil {
		if s.Scale != nil {
			p.Soft.Scale = ms2.Vec{X: s.Scale[0], Y: s.Scale[1]}
		}
		set(&p.Soft.Depth, s.Depth)
		set(&p.Soft.Speed, s.Speed)
		set(&p.Soft.Density, s.Density)
		set(&p.Soft.Opacity, s.Opacity)
	}
	if r := c.Rounded; r != nil {
		set(&p.Rounded.Thickness, r.Thickness)
		set(&p.Rounded.RainThickness, r.RainThickness)
		set(&p.Rounded.Steps, r.Steps)
		set(&p.Rounded.Scale, r.Scale)
		set(&p.Rounded.Boxiness, r.Boxiness)
		set(&p.Rounded.Density, r.Density)
		set(&p.Rounded.Speed, r.Speed)
		set(&p.Rounded.ShadowIntensity, r.ShadowIntensity)
		set(&p.Rounded.Brightness, r.Brightness)
		if r.NightIntensity != nil {
			p.Rounded.NightIntensity = skyfx.On(*r.NightIntensity)
		}
	}
	if m := c.Multilayer; m != nil {
		set(&p.Multilayer.Enabled, m.Enabled)
		set(&p.Multilayer.LayerOffset, m.LayerOffset)
		set(&p.Multilayer.SpeedFactor, m.SpeedFactor)
		set(&p.Multilayer.ScaleFactor, m.ScaleFactor)
		set(&p.Multilayer.Opacity, m.Opacity)
	}
	return nil
}

func (a *auroraFile) apply(p *skyfx.AuroraParams) {
	set(&p.Enabled, a.Enabled)
	set(&p.Intensity, a.Intensity)
	set(&p.Velocity, a.Velocity)
	set(&p.Scale, a.Scale)
	set(&p.Width, a.Width)
	setColor(&p.Col1, a.Col1)
	setColor(&p.Col2, a.Col2)
}

func (t *toneFile) apply(p *skyfx.ToneParams) {
	if t.Type != nil {
		p.Type = skyfx.TonemapType(*t.Type)
	}
	set(&p.Contrast, t.Contrast)
	if t.Exposure != nil {
		p.Exposure = skyfx.On(*t.Exposure)
	}
	if t.Saturation != nil {
		p.Saturation = skyfx.On(*t.Saturation)
	}
	if t.Tint != nil {
		p.Tint = skyfx.ColorToggle{Enabled: true, Color: ms3.Vec(*t.Tint)}
	}
}

// ParseCloudType parses the names returned by [skyfx.CloudType.String].
func ParseCloudType(s string) (skyfx.CloudType, error) {
	for _, typ := range []skyfx.CloudType{skyfx.CloudsVanilla, skyfx.CloudsSoft, skyfx.CloudsRounded} {
		if typ.String() == s {
			return typ, nil
		}
	}
	return 0, fmt.Errorf("unknown cloud type %q", s)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setColor(dst *ms3.Vec, c *Color) {
	if c != nil {
		*dst = ms3.Vec(*c)
	}
}
