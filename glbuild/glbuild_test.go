package glbuild_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/skyfx"
	"github.com/soypat/skyfx/glbuild"
)

func TestShaderNameDeduplication(t *testing.T) {
	var bld skyfx.Builder
	// c1 and c2 are identical in name and body but different nodes.
	p := skyfx.DefaultConfig().Clouds.Rounded
	c1 := bld.NewRoundedClouds(p)
	c2 := bld.NewRoundedClouds(p)
	c1c1 := bld.Over(c1, c1)
	c1c2 := bld.Over(c1, c2)
	c1Name := string(c1.AppendShaderName(nil))
	c2Name := string(c2.AppendShaderName(nil))
	if c1Name != c2Name {
		t.Error("expected same name, got\n", c1Name, "\n", c2Name)
	}
	decl := "vec4 " + c1Name + "(vec3 vDir, vec3 vPos, Env env)"
	for _, obj := range []glbuild.Shader{c1c1, c1c2} {
		programmer := glbuild.NewDefaultProgrammer()
		source := new(bytes.Buffer)
		n, err := programmer.WriteFragmentVisualizer(source, obj)
		if n != source.Len() {
			t.Fatal("written length mismatch", err)
		}
		if err != nil {
			t.Error(err)
		}
		src := source.String()
		declCount := strings.Count(src, decl)
		if declCount != 1 {
			t.Errorf("\n%s\nVisualizer: want one declaration, got %d", src, declCount)
		}
		if strings.Count(src, "float skyfxCloudDensity(") != 1 {
			t.Error("Visualizer: helper declared more than once")
		}
		source.Reset()
		n, err = programmer.WriteComputeSky(source, obj)
		if n != source.Len() {
			t.Fatal("written length mismatch", err)
		}
		if err != nil {
			t.Error(err)
		}
		src = source.String()
		declCount = strings.Count(src, decl)
		if declCount != 1 {
			t.Errorf("\n%s\nCompute: want one declaration, got %d", src, declCount)
		}
		if !strings.HasPrefix(src, "#shader compute\n#version 430\n") {
			t.Error("missing compute header")
		}
	}
}

func TestDuplicateNameConflict(t *testing.T) {
	var bld skyfx.Builder
	a := bld.NewSkyGradient()
	b := &renamed{Node: bld.NewAurora(skyfx.AuroraParams{}), name: "sky"}
	programmer := glbuild.NewDefaultProgrammer()
	_, err := programmer.WriteComputeSky(new(bytes.Buffer), bld.Add(a, b))
	if err == nil {
		t.Fatal("expected duplicate name error")
	}
}

type renamed struct {
	skyfx.Node
	name string
}

func (r *renamed) AppendShaderName(b []byte) []byte { return append(b, r.name...) }

func TestMakeShaderFunction(t *testing.T) {
	obj, err := glbuild.MakeShaderFunction([]byte("\n  float skyfxFoo(vec2 p) {\n\treturn p.x;\n}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if string(obj.NamePtr) != "skyfxFoo" {
		t.Errorf("got name %q", obj.NamePtr)
	}
	_, err = glbuild.MakeShaderFunction([]byte("no function here"))
	if err == nil {
		t.Error("expected error")
	}
}

func TestAppendFloat(t *testing.T) {
	for _, test := range []struct {
		v        float32
		neg, dec byte
		want     string
	}{
		{v: 1, neg: '-', dec: '.', want: "1."},
		{v: 0.5, neg: '-', dec: '.', want: "0.5"},
		{v: -2.25, neg: '-', dec: '.', want: "-2.25"},
		{v: -2.25, neg: 'n', dec: 'p', want: "n2p25"},
		{v: 143, neg: 'n', dec: 'p', want: "143p"},
	} {
		got := string(glbuild.AppendFloat(nil, test.neg, test.dec, test.v))
		if got != test.want {
			t.Errorf("AppendFloat(%v)=%q, want %q", test.v, got, test.want)
		}
	}
	got := string(glbuild.AppendVec3Decl(nil, "c", ms3.Vec{X: 1, Y: 0.5, Z: 0}))
	if got != "vec3 c=vec3(1.,0.5,0.);\n" {
		t.Errorf("AppendVec3Decl: got %q", got)
	}
	got = string(glbuild.AppendDefineDecl(nil, "NL_AURORA", "3.0"))
	if got != "#define NL_AURORA 3.0\n" {
		t.Errorf("AppendDefineDecl: got %q", got)
	}
}
