package skyfx

import (
	"fmt"
	"strconv"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/skyfx/glbuild"
	"github.com/soypat/skyfx/glbuild/glsllib"
	"github.com/soypat/skyfx/gleval"
)

// Node is a sky layer or a composition of layers. It can be evaluated on the
// CPU with [gleval.Sampler] and emitted as a GLSL function with [glbuild.Shader].
type Node interface {
	glbuild.Shader
	gleval.Sampler
}

// appendParamName appends prefix followed by vals encoded as identifier-safe floats.
func appendParamName(b []byte, prefix string, vals ...float32) []byte {
	b = append(b, prefix...)
	for _, v := range vals {
		b = append(b, '_')
		b = glbuild.AppendFloat(b, 'n', 'p', v)
	}
	return b
}

// NewSkyGradient returns the background sky layer. Its colors are read from the
// environment so that it follows the host's time of day.
func (bld *Builder) NewSkyGradient() Node {
	return &skyGradient{}
}

type skyGradient struct{}

func (s *skyGradient) Sample(env gleval.Env, frags []gleval.Fragment, dst []gleval.RGBA, userData any) error {
	if err := gleval.CheckBuffers(frags, dst); err != nil {
		return err
	}
	sky := envSky(env)
	for i, f := range frags {
		dst[i] = gleval.NewRGBA(SkyGradient(sky, f.Dir.Y), 1)
	}
	return nil
}

func (s *skyGradient) AppendShaderName(b []byte) []byte {
	return append(b, "sky"...)
}

func (s *skyGradient) AppendShaderBody(b []byte) []byte {
	return append(b, "return vec4(skyfxSkyGradient(env.zenith, env.horizon, env.horizonEdge, vDir.y), 1.0);"...)
}

func (s *skyGradient) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objs, glsllib.SkyGradient())
}

func (s *skyGradient) ForEachChild(userData any, fn func(userData any, s *glbuild.Shader) error) error {
	return nil
}

// NewSimpleClouds returns the soft 2D cloud layer, see [RenderCloudsSimple].
func (bld *Builder) NewSimpleClouds(p SoftCloudParams) Node {
	if err := p.validate(); err != nil {
		bld.paramErrorf("simple clouds: %v", err)
	}
	return &simpleClouds{p: p}
}

type simpleClouds struct {
	p SoftCloudParams
}

func (c *simpleClouds) Sample(env gleval.Env, frags []gleval.Fragment, dst []gleval.RGBA, userData any) error {
	if err := gleval.CheckBuffers(frags, dst); err != nil {
		return err
	}
	sky := envSky(env)
	for i, f := range frags {
		dst[i] = RenderCloudsSimple(sky, f.Pos, env.Time, env.Rain, c.p)
	}
	return nil
}

func (c *simpleClouds) AppendShaderName(b []byte) []byte {
	return appendParamName(b, "clouds1", c.p.Scale.X, c.p.Scale.Y, c.p.Speed)
}

func (c *simpleClouds) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendVec2Decl(b, "scale", c.p.Scale)
	b = glbuild.AppendFloatDecl(b, "speed", c.p.Speed)
	b = append(b, "return skyfxCloudsSimple(env.horizonEdge, env.zenith, vPos, env.time, env.rain, scale, speed);"...)
	return b
}

func (c *simpleClouds) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return glsllib.AppendCloudsSimple(objs)
}

func (c *simpleClouds) ForEachChild(userData any, fn func(userData any, s *glbuild.Shader) error) error {
	return nil
}

// NewRoundedClouds returns the ray marched cloud layer, see [RenderClouds].
// The layer is lit by the environment's horizon color.
func (bld *Builder) NewRoundedClouds(p RoundedCloudParams) Node {
	if err := p.validate(); err != nil {
		bld.paramErrorf("rounded clouds: %v", err)
	}
	return &roundedClouds{p: p, opacity: 1}
}

// NewCloudLayer returns an extra rounded cloud layer lying m.LayerOffset above the
// one described by p, moving and scaled by the multilayer factors and faded by m.Opacity.
func (bld *Builder) NewCloudLayer(p RoundedCloudParams, m MultilayerParams) Node {
	if !(m.SpeedFactor > 0) || !(m.ScaleFactor > 0) {
		bld.paramErrorf("cloud layer speed and scale factors must be positive, got %g and %g", m.SpeedFactor, m.ScaleFactor)
	}
	if m.Opacity < 0 || m.Opacity > 1 {
		bld.paramErrorf("cloud layer opacity must be within [0,1], got %g", m.Opacity)
	}
	p.Speed *= m.SpeedFactor
	p.Scale *= m.ScaleFactor
	if err := p.validate(); err != nil {
		bld.paramErrorf("cloud layer: %v", err)
	}
	return &roundedClouds{p: p, offset: m.LayerOffset, opacity: m.Opacity}
}

type roundedClouds struct {
	p RoundedCloudParams
	// offset is the parallax distance to the layer. Zero for the base layer.
	offset float32
	// opacity multiplies the resulting alpha.
	opacity float32
}

func (c *roundedClouds) alphaFactor() float32 {
	a := c.opacity
	if c.p.NightIntensity.Enabled {
		a *= c.p.NightIntensity.Value
	}
	return a
}

func (c *roundedClouds) Sample(env gleval.Env, frags []gleval.Fragment, dst []gleval.RGBA, userData any) error {
	if err := gleval.CheckBuffers(frags, dst); err != nil {
		return err
	}
	in := MarchInput{
		Rain:     env.Rain,
		Time:     env.Time,
		FogColor: env.FogColor,
		SkyColor: env.Horizon,
	}
	for i, f := range frags {
		in.Dir = f.Dir
		in.Pos = f.Pos
		if c.offset != 0 {
			in.Pos = layerFragment(f.Dir, f.Pos, c.offset)
		}
		col := RenderClouds(in, c.p)
		col.A *= c.opacity
		dst[i] = col
	}
	return nil
}

func (c *roundedClouds) AppendShaderName(b []byte) []byte {
	p := c.p
	b = appendParamName(b, "clouds2", p.Thickness, p.RainThickness, p.Scale, p.Boxiness, p.Density,
		p.Speed, p.ShadowIntensity, p.Brightness, c.offset, c.alphaFactor())
	b = append(b, "_s"...)
	b = strconv.AppendInt(b, int64(p.Steps), 10)
	return b
}

func (c *roundedClouds) AppendShaderBody(b []byte) []byte {
	p := c.p
	b = append(b, "vec3 pos = vPos;\n"...)
	if c.offset != 0 {
		b = append(b, "pos.xz += vDir.xz*("...)
		b = glbuild.AppendFloat(b, '-', '.', c.offset)
		b = append(b, "/(0.02 + 0.98*abs(vDir.y)));\n"...)
	}
	b = glbuild.AppendIntDecl(b, "steps", p.Steps)
	b = glbuild.AppendFloatDecl(b, "thickness", p.Thickness)
	b = glbuild.AppendFloatDecl(b, "thicknessRain", p.RainThickness)
	b = glbuild.AppendFloatDecl(b, "speed", p.Speed)
	b = glbuild.AppendVec2Decl(b, "scale", ms2.Vec{X: p.Scale, Y: p.Scale})
	b = glbuild.AppendFloatDecl(b, "density", p.Density)
	b = glbuild.AppendFloatDecl(b, "boxiness", p.Boxiness)
	b = glbuild.AppendFloatDecl(b, "shadow", p.ShadowIntensity)
	b = glbuild.AppendFloatDecl(b, "brightness", p.Brightness)
	b = append(b, "vec4 col = skyfxCloudsRounded(vDir, pos, env.rain, env.time, env.fogColor, env.horizon, steps, thickness, thicknessRain, speed, scale, density, boxiness, shadow, brightness);\n"...)
	if a := c.alphaFactor(); a != 1 {
		b = append(b, "col.a *= "...)
		b = glbuild.AppendFloat(b, '-', '.', a)
		b = append(b, ";\n"...)
	}
	b = append(b, "return col;"...)
	return b
}

func (c *roundedClouds) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return glsllib.AppendCloudsRounded(objs)
}

func (c *roundedClouds) ForEachChild(userData any, fn func(userData any, s *glbuild.Shader) error) error {
	return nil
}

// NewAurora returns the aurora layer, see [RenderAurora]. A disabled aurora
// evaluates to transparent black.
func (bld *Builder) NewAurora(p AuroraParams) Node {
	if p.Enabled {
		if err := p.validate(); err != nil {
			bld.paramErrorf("aurora: %v", err)
		}
	}
	return &aurora{p: p}
}

type aurora struct {
	p AuroraParams
}

func (a *aurora) Sample(env gleval.Env, frags []gleval.Fragment, dst []gleval.RGBA, userData any) error {
	if err := gleval.CheckBuffers(frags, dst); err != nil {
		return err
	}
	for i, f := range frags {
		dst[i] = RenderAurora(f.Pos, env.Time, env.Rain, env.FogColor, a.p)
	}
	return nil
}

func (a *aurora) AppendShaderName(b []byte) []byte {
	p := a.p
	if !p.Enabled {
		return append(b, "auroraOff"...)
	}
	return appendParamName(b, "aurora", p.Intensity, p.Velocity, p.Scale, p.Width,
		p.Col1.X, p.Col1.Y, p.Col1.Z, p.Col2.X, p.Col2.Y, p.Col2.Z)
}

func (a *aurora) AppendShaderBody(b []byte) []byte {
	p := a.p
	if !p.Enabled {
		return append(b, "return vec4(0.0);"...)
	}
	b = glbuild.AppendFloatDecl(b, "intensity", p.Intensity)
	b = glbuild.AppendFloatDecl(b, "velocity", p.Velocity)
	b = glbuild.AppendFloatDecl(b, "scale", p.Scale)
	b = glbuild.AppendFloatDecl(b, "width", p.Width)
	b = glbuild.AppendVec3Decl(b, "col1", p.Col1)
	b = glbuild.AppendVec3Decl(b, "col2", p.Col2)
	b = append(b, "return skyfxAurora(vPos, env.time, env.rain, env.fogColor, intensity, velocity, scale, width, col1, col2);"...)
	return b
}

func (a *aurora) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	if !a.p.Enabled {
		return objs
	}
	return append(objs, glsllib.Aurora())
}

func (a *aurora) ForEachChild(userData any, fn func(userData any, s *glbuild.Shader) error) error {
	return nil
}

// Over composites top over bottom with the Porter-Duff over operator on
// non-premultiplied colors.
func (bld *Builder) Over(top, bottom Node) Node {
	if top == nil || bottom == nil {
		bld.nilnode("Over")
	}
	return &over{top: top, bottom: bottom}
}

type over struct {
	top, bottom glbuild.Shader
}

func (o *over) Sample(env gleval.Env, frags []gleval.Fragment, dst []gleval.RGBA, userData any) error {
	if err := gleval.CheckBuffers(frags, dst); err != nil {
		return err
	}
	bp, err := gleval.GetBufferPool(userData)
	if err != nil {
		return fmt.Errorf("over: %w", err)
	}
	bottom := bp.Acquire(len(frags))
	defer bp.Release(bottom)
	err = o.top.(gleval.Sampler).Sample(env, frags, dst, userData)
	if err != nil {
		return err
	}
	err = o.bottom.(gleval.Sampler).Sample(env, frags, bottom, userData)
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i] = overRGBA(dst[i], bottom[i])
	}
	return nil
}

func overRGBA(t, b gleval.RGBA) gleval.RGBA {
	a := t.A + b.A*(1-t.A)
	if a <= 0 {
		return gleval.RGBA{}
	}
	kb := b.A * (1 - t.A)
	col := ms3.Add(ms3.Scale(t.A, t.RGB()), ms3.Scale(kb, b.RGB()))
	return gleval.NewRGBA(ms3.Scale(1/a, col), a)
}

func (o *over) AppendShaderName(b []byte) []byte {
	b = append(b, "over_"...)
	b = o.top.AppendShaderName(b)
	b = append(b, "__"...)
	b = o.bottom.AppendShaderName(b)
	return b
}

func (o *over) AppendShaderBody(b []byte) []byte {
	b = appendChildCall(b, "t", o.top)
	b = appendChildCall(b, "b", o.bottom)
	b = append(b, `float a = t.a + b.a*(1.0 - t.a);
if (a <= 0.0) {
	return vec4(0.0);
}
return vec4((t.rgb*t.a + b.rgb*b.a*(1.0 - t.a))/a, a);`...)
	return b
}

func (o *over) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objs
}

func (o *over) ForEachChild(userData any, fn func(userData any, s *glbuild.Shader) error) error {
	err := fn(userData, &o.top)
	if err != nil {
		return err
	}
	return fn(userData, &o.bottom)
}

// Add sums the color of a and b. Alpha saturates at 1. Used for emissive
// layers such as the aurora.
func (bld *Builder) Add(a, b Node) Node {
	if a == nil || b == nil {
		bld.nilnode("Add")
	}
	return &add{a: a, b: b}
}

type add struct {
	a, b glbuild.Shader
}

func (s *add) Sample(env gleval.Env, frags []gleval.Fragment, dst []gleval.RGBA, userData any) error {
	if err := gleval.CheckBuffers(frags, dst); err != nil {
		return err
	}
	bp, err := gleval.GetBufferPool(userData)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	aux := bp.Acquire(len(frags))
	defer bp.Release(aux)
	err = s.a.(gleval.Sampler).Sample(env, frags, dst, userData)
	if err != nil {
		return err
	}
	err = s.b.(gleval.Sampler).Sample(env, frags, aux, userData)
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i] = gleval.RGBA{
			R: dst[i].R + aux[i].R,
			G: dst[i].G + aux[i].G,
			B: dst[i].B + aux[i].B,
			A: clampf(dst[i].A+aux[i].A, 0, 1),
		}
	}
	return nil
}

func (s *add) AppendShaderName(b []byte) []byte {
	b = append(b, "add_"...)
	b = s.a.AppendShaderName(b)
	b = append(b, "__"...)
	b = s.b.AppendShaderName(b)
	return b
}

func (s *add) AppendShaderBody(b []byte) []byte {
	b = appendChildCall(b, "a", s.a)
	b = appendChildCall(b, "b", s.b)
	b = append(b, "return vec4(a.rgb + b.rgb, clamp(a.a + b.a, 0.0, 1.0));"...)
	return b
}

func (s *add) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objs
}

func (s *add) ForEachChild(userData any, fn func(userData any, s *glbuild.Shader) error) error {
	err := fn(userData, &s.a)
	if err != nil {
		return err
	}
	return fn(userData, &s.b)
}

// ColorCorrect applies [ColorCorrection] to the color of n. Alpha is kept.
func (bld *Builder) ColorCorrect(n Node, p ToneParams) Node {
	if n == nil {
		bld.nilnode("ColorCorrect")
	}
	if p.Type < TonemapExponential || p.Type > TonemapACES {
		bld.paramErrorf("unknown tonemap type %d", int(p.Type))
	}
	if !(p.Contrast > 0) {
		bld.paramErrorf("contrast must be positive, got %g", p.Contrast)
	}
	return &colorCorrect{s: n, p: p}
}

type colorCorrect struct {
	s glbuild.Shader
	p ToneParams
}

func (c *colorCorrect) Sample(env gleval.Env, frags []gleval.Fragment, dst []gleval.RGBA, userData any) error {
	err := c.s.(gleval.Sampler).Sample(env, frags, dst, userData)
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i] = gleval.NewRGBA(ColorCorrection(dst[i].RGB(), c.p), dst[i].A)
	}
	return nil
}

func (c *colorCorrect) AppendShaderName(b []byte) []byte {
	exposure, saturation, tint := c.p.factors()
	b = appendParamName(b, "tone", float32(c.p.Type), c.p.Contrast, exposure, saturation, tint.X, tint.Y, tint.Z)
	b = append(b, "__"...)
	return c.s.AppendShaderName(b)
}

func (c *colorCorrect) AppendShaderBody(b []byte) []byte {
	exposure, saturation, tint := c.p.factors()
	b = appendChildCall(b, "c", c.s)
	b = glbuild.AppendFloatDecl(b, "exposure", exposure)
	b = glbuild.AppendIntDecl(b, "tonemap", int(c.p.Type))
	b = glbuild.AppendFloatDecl(b, "contrast", c.p.Contrast)
	b = glbuild.AppendFloatDecl(b, "saturation", saturation)
	b = glbuild.AppendVec3Decl(b, "tint", tint)
	b = append(b, "return vec4(skyfxColorCorrection(c.rgb, exposure, tonemap, contrast, saturation, tint), c.a);"...)
	return b
}

func (c *colorCorrect) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objs, glsllib.ColorCorrection())
}

func (c *colorCorrect) ForEachChild(userData any, fn func(userData any, s *glbuild.Shader) error) error {
	return fn(userData, &c.s)
}

func appendChildCall(b []byte, varname string, child glbuild.Shader) []byte {
	b = append(b, "vec4 "...)
	b = append(b, varname...)
	b = append(b, " = "...)
	b = child.AppendShaderName(b)
	b = append(b, "(vDir, vPos, env);\n"...)
	return b
}

// NewScene composes the sky described by cfg: the sky gradient with the aurora
// added on top when enabled, covered by the cloud layers selected by cfg.Clouds,
// all passed through color correction. Vanilla clouds add no layer.
// cfg is validated first.
func NewScene(cfg Config) (Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	bld := Builder{NoParamPanic: true}
	root := bld.NewSkyGradient()
	if cfg.Aurora.Enabled {
		root = bld.Add(root, bld.NewAurora(cfg.Aurora))
	}
	switch cfg.Clouds.Type {
	case CloudsSoft:
		root = bld.Over(bld.NewSimpleClouds(cfg.Clouds.Soft), root)
	case CloudsRounded:
		var clouds Node = bld.NewRoundedClouds(cfg.Clouds.Rounded)
		if cfg.Clouds.Multilayer.Enabled {
			upper := bld.NewCloudLayer(cfg.Clouds.Rounded, cfg.Clouds.Multilayer)
			clouds = bld.Over(clouds, upper)
		}
		root = bld.Over(clouds, root)
	}
	root = bld.ColorCorrect(root, cfg.Tone)
	if err := bld.Err(); err != nil {
		return nil, err
	}
	return root, nil
}
