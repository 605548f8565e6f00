package skyfx

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/skyfx/gleval"
)

func roundedDefaults() RoundedCloudParams {
	return RoundedCloudParams{
		Thickness:       2.2,
		RainThickness:   2.5,
		Steps:           8,
		Scale:           0.036,
		Boxiness:        0.68,
		Density:         7.8,
		Speed:           0.8,
		ShadowIntensity: 0.7,
		Brightness:      0.8,
	}
}

func solidCloud(ms3.Vec) float32 { return 1 }

func TestMarchSaturatedAlpha(t *testing.T) {
	p := roundedDefaults()
	in := MarchInput{
		Dir:      ms3.Vec{Y: 1},
		Pos:      ms3.Vec{Y: -1},
		FogColor: ms3.Vec{X: 0.8, Y: 0.9, Z: 1},
		SkyColor: ms3.Vec{X: 0.5, Y: 0.7, Z: 0.9},
	}
	got := renderClouds(in, p, solidCloud)
	want := float32(8 / (8/7.8 + 8.0))
	if math32.Abs(got.A-want) > 1e-5 {
		t.Errorf("alpha: got %v, want %v", got.A, want)
	}
	if math32.Abs(got.A-0.886) > 1e-3 {
		t.Errorf("alpha: got %v, want ~0.886", got.A)
	}

	p.NightIntensity = On(0.5)
	night := renderClouds(in, p, solidCloud)
	if math32.Abs(night.A-0.5*want) > 1e-5 {
		t.Errorf("night intensity alpha: got %v, want %v", night.A, 0.5*want)
	}
	if night.RGB() != got.RGB() {
		t.Error("night intensity must only scale alpha")
	}
}

func TestMarchSampleCount(t *testing.T) {
	p := roundedDefaults()
	for _, steps := range []int{1, 3, 8, 16} {
		p.Steps = steps
		calls := 0
		renderClouds(MarchInput{Dir: ms3.Vec{X: 0.2, Y: 0.9, Z: 0.1}}, p, func(pos ms3.Vec) float32 {
			calls++
			return 0
		})
		if calls != steps {
			t.Errorf("steps=%d: got %d density samples", steps, calls)
		}
	}
}

func TestMarchBelowUnitDensityIsClear(t *testing.T) {
	p := roundedDefaults()
	// Accumulated density under 1 is cut off by the step threshold.
	thin := func(ms3.Vec) float32 { return 0.9 / 8 }
	got := renderClouds(MarchInput{Dir: ms3.Vec{Y: 1}}, p, thin)
	if got.A != 0 {
		t.Errorf("want zero alpha below unit density, got %v", got.A)
	}
}

func TestMarchRainAttenuation(t *testing.T) {
	p := roundedDefaults()
	in := MarchInput{
		Dir:      ms3.Vec{X: 0.1, Y: 0.95, Z: 0.2},
		Pos:      ms3.Vec{X: 10, Y: -1, Z: 3},
		FogColor: ms3.Vec{X: 0.8, Y: 0.9, Z: 1},
		SkyColor: ms3.Vec{X: 0.5, Y: 0.7, Z: 0.9},
	}
	prev := float32(math32.Inf(1))
	for _, rain := range []float32{0, 0.5, 1} {
		in.Rain = rain
		c := renderClouds(in, p, solidCloud)
		mag := ms3.Norm(c.RGB())
		if mag >= prev {
			t.Fatalf("rain=%v: color magnitude %v did not decrease from %v", rain, mag, prev)
		}
		prev = mag
	}
}

func TestMarchViewFromBelow(t *testing.T) {
	p := roundedDefaults()
	in := MarchInput{
		Dir:      ms3.Vec{Y: 1},
		FogColor: ms3.Vec{X: 0.8, Y: 0.9, Z: 1},
		SkyColor: ms3.Vec{X: 0.5, Y: 0.7, Z: 0.9},
	}
	in.Pos.Y = -1
	top := renderClouds(in, p, solidCloud)
	in.Pos.Y = 1
	bottom := renderClouds(in, p, solidCloud)
	if top.A != bottom.A {
		t.Error("viewing side must not change coverage")
	}
	// With a constant field the height estimate ends at the last sample 1/8,
	// so seen from above the cloud is lit and from below it is shadowed.
	if bottom.R >= top.R {
		t.Errorf("cloud seen from below should be darker: %v >= %v", bottom.R, top.R)
	}
}

func TestLayerFragment(t *testing.T) {
	pos := ms3.Vec{X: 1, Y: 5, Z: 2}
	got := layerFragment(ms3.Vec{Y: 1}, pos, 143)
	if got != pos {
		t.Errorf("vertical ray should not shift layer: %v", got)
	}
	got = layerFragment(ms3.Vec{X: 0.6, Y: 0.8}, pos, 143)
	wantX := pos.X + 0.6*143/(0.02+0.98*0.8)
	if math32.Abs(got.X-wantX) > 1e-3 || got.Y != pos.Y || got.Z != pos.Z {
		t.Errorf("got %v, want x=%v", got, wantX)
	}
}

func TestCloudLayer(t *testing.T) {
	cfg := DefaultConfig()
	p := cfg.Clouds.Rounded
	m := cfg.Clouds.Multilayer
	if m.LayerOffset != 143 || m.SpeedFactor != 0.8 || m.ScaleFactor != 1.6 || m.Opacity != 0.5 {
		t.Fatalf("unexpected multilayer defaults %+v", m)
	}
	var bld Builder
	layer := bld.NewCloudLayer(p, m)

	scaled := p
	scaled.Speed = p.Speed * 0.8
	scaled.Scale = p.Scale * 1.6

	rng := rand.New(rand.NewSource(1))
	frags := make([]gleval.Fragment, 256)
	for i := range frags {
		dir := ms3.Unit(ms3.Vec{X: rng.Float32()*2 - 1, Y: 0.05 + rng.Float32(), Z: rng.Float32()*2 - 1})
		frags[i] = gleval.Fragment{Dir: dir, Pos: ms3.Scale(120/dir.Y, dir)}
	}
	env := SkyColorsFor(0.3, ms3.Vec{X: 0.7, Y: 0.8, Z: 1}, cfg.Sky).Env(37, 0.3, ms3.Vec{X: 0.7, Y: 0.8, Z: 1})
	dst := make([]gleval.RGBA, len(frags))
	err := layer.Sample(env, frags, dst, nil)
	if err != nil {
		t.Fatal(err)
	}
	in := MarchInput{Rain: env.Rain, Time: env.Time, FogColor: env.FogColor, SkyColor: env.Horizon}
	covered := 0
	for i, f := range frags {
		in.Dir = f.Dir
		in.Pos = layerFragment(f.Dir, f.Pos, 143)
		want := RenderClouds(in, scaled)
		want.A *= 0.5
		if dst[i] != want {
			t.Fatalf("fragment %d: got %+v, want %+v", i, dst[i], want)
		}
		if want.A > 0 {
			covered++
		}
	}
	if covered == 0 {
		t.Error("layer rendered no clouds, test is not meaningful")
	}
}

func TestCloudLayerShader(t *testing.T) {
	cfg := DefaultConfig()
	p := cfg.Clouds.Rounded
	m := cfg.Clouds.Multilayer
	var bld Builder
	base := bld.NewRoundedClouds(p)
	layer := bld.NewCloudLayer(p, m)
	shifted := m
	shifted.LayerOffset = 200
	faded := m
	faded.Opacity = 0.25

	name := func(n Node) string { return string(n.AppendShaderName(nil)) }
	body := func(n Node) string { return string(n.AppendShaderBody(nil)) }
	names := map[string]bool{}
	for _, n := range []Node{base, layer, bld.NewCloudLayer(p, shifted), bld.NewCloudLayer(p, faded)} {
		names[name(n)] = true
	}
	if len(names) != 4 {
		t.Errorf("layer offset and opacity must change the shader name: %v", names)
	}
	if strings.Contains(body(base), "pos.xz +=") || strings.Contains(body(base), "col.a *=") {
		t.Errorf("base layer should not shift or fade:\n%s", body(base))
	}
	lb := body(layer)
	if !strings.Contains(lb, "pos.xz += vDir.xz*(143.") {
		t.Errorf("layer body missing parallax offset:\n%s", lb)
	}
	if !strings.Contains(lb, "col.a *= 0.5") {
		t.Errorf("layer body missing opacity:\n%s", lb)
	}
	for _, decl := range []string{"int steps=8;\n", "vec2 scale=vec2(", "float density="} {
		if !strings.Contains(lb, decl) {
			t.Errorf("layer body missing parameter declaration %q:\n%s", decl, lb)
		}
	}
	if !strings.Contains(body(bld.NewCloudLayer(p, faded)), "col.a *= 0.25") {
		t.Error("faded layer body missing opacity")
	}

	cfg.Clouds.Multilayer.Enabled = true
	scene, err := NewScene(cfg)
	if err != nil {
		t.Fatal(err)
	}
	// The extra layer is composited under the base layer.
	if want := "over_" + name(base) + "__" + name(layer); !strings.Contains(name(scene), want) {
		t.Errorf("scene %q does not contain %q", name(scene), want)
	}
}

func TestFractUpperBound(t *testing.T) {
	// Tiny negative values round up to exactly 1 in float32.
	got := fract(-1e-9)
	if got < 0 || got > 1 {
		t.Fatalf("fract out of [0,1]: %v", got)
	}
	if got != 1 {
		t.Errorf("want fract(-1e-9) to round to 1, got %v", got)
	}
}
