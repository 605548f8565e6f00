package skyfxaux_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/skyfx"
	"github.com/soypat/skyfx/gleval"
	"github.com/soypat/skyfx/skyfxaux"
	"go.uber.org/zap"
)

const testConfig = `{
	"preset": "high",
	"frame": {"rain": 0.25, "fog": "#406080"},
	"sky": {"dayZenith": "rgb(0, 51, 255)", "dayHorizon": [0.5, 0.6, 0.7]},
	"clouds": {"rounded": {"steps": 12, "nightIntensity": 0.5}, "multilayer": {"enabled": true}},
	"aurora": {"enabled": true, "col1": "lime"},
	"tone": {"type": 2, "tint": "white"}
}`

func TestLoadConfig(t *testing.T) {
	cfg, frame, err := skyfxaux.LoadConfig(strings.NewReader(testConfig))
	if err != nil {
		t.Fatal(err)
	}
	want := skyfx.DefaultConfig()
	err = skyfx.ApplyPreset(&want, skyfx.PresetHigh)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Clouds.Type != want.Clouds.Type {
		t.Errorf("preset cloud type not applied: %v", cfg.Clouds.Type)
	}
	if cfg.Clouds.Rounded.Steps != 12 {
		t.Errorf("steps override: got %d", cfg.Clouds.Rounded.Steps)
	}
	if cfg.Clouds.Rounded.NightIntensity != skyfx.On(0.5) {
		t.Errorf("night intensity: got %+v", cfg.Clouds.Rounded.NightIntensity)
	}
	if cfg.Clouds.Rounded.Scale != want.Clouds.Rounded.Scale {
		t.Error("unspecified field should keep preset value")
	}
	if !cfg.Clouds.Multilayer.Enabled || !cfg.Aurora.Enabled {
		t.Error("toggles not applied")
	}
	if cfg.Sky.DayZenith != (ms3.Vec{X: 0, Y: 0.2, Z: 1}) {
		t.Errorf("CSS rgb color: got %v", cfg.Sky.DayZenith)
	}
	if cfg.Sky.DayHorizon != (ms3.Vec{X: 0.5, Y: 0.6, Z: 0.7}) {
		t.Errorf("array color: got %v", cfg.Sky.DayHorizon)
	}
	if cfg.Aurora.Col1 != (ms3.Vec{X: 0, Y: 1, Z: 0}) {
		t.Errorf("named color: got %v", cfg.Aurora.Col1)
	}
	if cfg.Tone.Type != skyfx.TonemapReinhard || !cfg.Tone.Tint.Enabled {
		t.Errorf("tone override: got %+v", cfg.Tone)
	}
	if frame.Rain != 0.25 {
		t.Errorf("frame rain: got %v", frame.Rain)
	}
	def := skyfxaux.DefaultFrame()
	if frame.FOV != def.FOV || frame.CloudHeight != def.CloudHeight {
		t.Errorf("missing frame fields should keep defaults: %+v", frame)
	}
	if frame.Fog.Z <= frame.Fog.X {
		t.Errorf("hex fog color not parsed: %v", frame.Fog)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	for _, test := range []struct {
		name string
		json string
	}{
		{name: "unknown field", json: `{"sky": {"dayZenit": "red"}}`},
		{name: "bad css", json: `{"sky": {"dayZenith": "not-a-color"}}`},
		{name: "short array", json: `{"sky": {"dayZenith": [1, 2]}}`},
		{name: "unknown preset", json: `{"preset": "ULTRA"}`},
		{name: "unknown cloud type", json: `{"clouds": {"type": "fluffy"}}`},
		{name: "invalid steps", json: `{"clouds": {"rounded": {"steps": 0}}}`},
		{name: "rain out of range", json: `{"frame": {"rain": 2}}`},
		{name: "multilayer without rounded", json: `{"clouds": {"type": "soft", "multilayer": {"enabled": true}}}`},
		{name: "syntax", json: `{"preset":`},
	} {
		_, _, err := skyfxaux.LoadConfig(strings.NewReader(test.json))
		if err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}
}

func TestRender(t *testing.T) {
	cfg := skyfx.DefaultConfig()
	root, err := skyfx.NewScene(cfg)
	if err != nil {
		t.Fatal(err)
	}
	var pngBuf, compute, visual, header bytes.Buffer
	err = skyfxaux.Render(context.Background(), root, skyfxaux.RenderConfig{
		Logger:        zap.NewExample(),
		Config:        cfg,
		Frame:         skyfxaux.DefaultFrame(),
		PNGOutput:     &pngBuf,
		ComputeOutput: &compute,
		VisualOutput:  &visual,
		HeaderOutput:  &header,
		Width:         32,
		Height:        24,
		Supersample:   2,
		Workers:       3,
	})
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&pngBuf)
	if err != nil {
		t.Fatal(err)
	}
	if sz := img.Bounds().Size(); sz.X != 32 || sz.Y != 24 {
		t.Errorf("image size %v", sz)
	}
	if !strings.Contains(compute.String(), "void main()") || !strings.HasPrefix(compute.String(), "#shader compute") {
		t.Error("bad compute program")
	}
	if !strings.Contains(visual.String(), "uniform float uYaw;") {
		t.Error("bad visualizer program")
	}
	if !strings.Contains(header.String(), "#define NL_CLOUD_TYPE") {
		t.Errorf("bad header:\n%s", header.String())
	}
}

func TestRenderRequiresOutput(t *testing.T) {
	root, err := skyfx.NewScene(skyfx.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	err = skyfxaux.Render(context.Background(), root, skyfxaux.RenderConfig{})
	if err == nil {
		t.Error("expected error without outputs")
	}
	err = skyfxaux.Render(context.Background(), root, skyfxaux.RenderConfig{PNGOutput: new(bytes.Buffer), Frame: skyfxaux.DefaultFrame()})
	if err == nil {
		t.Error("expected error for zero image size")
	}
}

func TestColorConversions(t *testing.T) {
	gamma := skyfxaux.ColorConversionGamma(2.2)
	if got := gamma(gleval.RGBA{R: 1, G: 0, B: 2}); got != (color.NRGBA{R: 255, B: 255, A: 255}) {
		t.Errorf("gamma clamp: got %v", got)
	}
	mid := gamma(gleval.RGBA{R: 0.5, G: 0.5, B: 0.5}).(color.NRGBA)
	if mid.R <= 128 {
		t.Errorf("gamma should brighten midtones, got %v", mid)
	}
	cov := skyfxaux.ColorConversionCoverage(color.Black, color.White)
	if got := cov(gleval.RGBA{A: -1}); got != color.Black {
		t.Errorf("zero coverage: got %v", got)
	}
	if got := cov(gleval.RGBA{A: 2}); got != color.White {
		t.Errorf("full coverage: got %v", got)
	}
	half := cov(gleval.RGBA{A: 0.5}).(color.NRGBA)
	if half.R != half.G || half.G != half.B || half.R < 120 || half.R > 135 {
		t.Errorf("half coverage should be mid gray, got %v", half)
	}
}

func TestOverrides(t *testing.T) {
	ptr := func(v float32) *float32 { return &v }
	for _, test := range []struct {
		name       string
		json       string
		over       skyfxaux.Overrides
		wantErr    bool
		multilayer bool
		aurora     bool
		typ        skyfx.CloudType
		rain       float32
	}{
		{
			name: "preset when file names none", json: `{"frame": {"rain": 0.2}}`,
			over:       skyfxaux.Overrides{Preset: "HIGH"},
			multilayer: true, aurora: true, typ: skyfx.CloudsRounded, rain: 0.2,
		},
		{
			name: "file preset wins", json: `{"preset": "LOW"}`,
			over: skyfxaux.Overrides{Preset: "HIGH"},
			typ:  skyfx.CloudsVanilla,
		},
		{
			name: "rain replaced", json: `{"frame": {"rain": 0.2}}`,
			over: skyfxaux.Overrides{Rain: ptr(0.7)},
			typ:  skyfx.CloudsRounded, rain: 0.7,
		},
		{
			name: "rain out of range", json: `{}`,
			over:    skyfxaux.Overrides{Rain: ptr(3)},
			wantErr: true,
		},
		{
			name: "unknown preset", json: `{}`,
			over:    skyfxaux.Overrides{Preset: "ULTRA"},
			wantErr: true,
		},
	} {
		file, err := skyfxaux.DecodeFile(strings.NewReader(test.json))
		if err != nil {
			t.Fatalf("%s: %v", test.name, err)
		}
		test.over.Apply(file)
		cfg, frame, err := file.Config()
		if test.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", test.name)
			}
			continue
		} else if err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		if cfg.Clouds.Multilayer.Enabled != test.multilayer || cfg.Aurora.Enabled != test.aurora {
			t.Errorf("%s: multilayer=%v aurora=%v", test.name, cfg.Clouds.Multilayer.Enabled, cfg.Aurora.Enabled)
		}
		if cfg.Clouds.Type != test.typ {
			t.Errorf("%s: cloud type %v, want %v", test.name, cfg.Clouds.Type, test.typ)
		}
		if frame.Rain != test.rain {
			t.Errorf("%s: rain %v, want %v", test.name, frame.Rain, test.rain)
		}
	}
}

func TestOverridesWithoutFile(t *testing.T) {
	now := float32(12)
	var file skyfxaux.File
	skyfxaux.Overrides{Time: &now}.Apply(&file)
	_, frame, err := file.Config()
	if err != nil {
		t.Fatal(err)
	}
	want := skyfxaux.DefaultFrame()
	want.Time = now
	if frame != want {
		t.Errorf("got frame %+v, want %+v", frame, want)
	}
}

func TestParseConversion(t *testing.T) {
	for _, view := range []string{"", "clamp"} {
		conv, err := skyfxaux.ParseConversion(view)
		if err != nil || conv != nil {
			t.Errorf("%q: want default conversion, got err=%v", view, err)
		}
	}
	_, err := skyfxaux.ParseConversion("sepia")
	if err == nil {
		t.Error("expected error for unknown conversion")
	}
}

func TestRenderCoverage(t *testing.T) {
	cfg := skyfx.DefaultConfig()
	root, err := skyfx.NewScene(cfg)
	if err != nil {
		t.Fatal(err)
	}
	conv, err := skyfxaux.ParseConversion("coverage")
	if err != nil {
		t.Fatal(err)
	}
	var pngBuf bytes.Buffer
	err = skyfxaux.Render(context.Background(), root, skyfxaux.RenderConfig{
		Config:     cfg,
		Frame:      skyfxaux.DefaultFrame(),
		Conversion: conv,
		PNGOutput:  &pngBuf,
		Width:      16,
		Height:     12,
		Workers:    2,
	})
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&pngBuf)
	if err != nil {
		t.Fatal(err)
	}
	bb := img.Bounds()
	for y := bb.Min.Y; y < bb.Max.Y; y++ {
		for x := bb.Min.X; x < bb.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.R != c.G || c.G != c.B || c.A != 255 {
				t.Fatalf("coverage pixel (%d,%d) should be opaque gray, got %v", x, y, c)
			}
		}
	}
}

func TestFileReencode(t *testing.T) {
	file, err := skyfxaux.DecodeFile(strings.NewReader(testConfig))
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(file)
	if err != nil {
		t.Fatal(err)
	}
	want, wantFrame, err := file.Config()
	if err != nil {
		t.Fatal(err)
	}
	got, gotFrame, err := skyfxaux.LoadConfig(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("%s: %v", b, err)
	}
	if got != want || gotFrame != wantFrame {
		t.Errorf("re-encoded file resolves differently:\n%s", b)
	}
}
