package glbuild

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

const VersionStr = "#version 430\n"

// Shader stores information for automatically generating sky shading programs
// and evaluating them correctly on a GPU.
//
// Every shader is emitted as a GLSL function with the signature
//
//	vec4 name(vec3 vDir, vec3 vPos, Env env)
//
// returning a non-premultiplied color with coverage in the alpha channel.
type Shader interface {
	// AppendShaderName appends the name of the GL shader function
	// to the buffer and returns the result. It should be unique to that shader.
	AppendShaderName(b []byte) []byte
	// AppendShaderBody appends the body of the shader function to the
	// buffer and returns the result.
	AppendShaderBody(b []byte) []byte
	// AppendShaderObjects appends helper functions needed to
	// evaluate the shader correctly, in dependency order.
	AppendShaderObjects(objs []ShaderObject) []ShaderObject
	// ForEachChild iterates over the Shader's direct children.
	// Layers have no children, compositing operations have two.
	ForEachChild(userData any, fn func(userData any, s *Shader) error) error
}

// EnvDecl is the GLSL declaration of the per-frame environment passed to every shader function.
const EnvDecl = `struct Env {
	float time;
	float rain;
	vec3 fogColor;
	vec3 zenith;
	vec3 horizon;
	vec3 horizonEdge;
};
`

// ShaderObject is a handle to a GLSL helper function needed to evaluate a [Shader] correctly.
type ShaderObject struct {
	// NamePtr is a pointer to the name of the function inside of the [Shader].
	NamePtr    []byte
	funcSource []byte
}

// MakeShaderFunction parses a GLSL function definition and returns it as a [ShaderObject].
// The definition must start with the function's return type.
func MakeShaderFunction(shaderDef []byte) (sf ShaderObject, err error) {
	shaderDef = bytes.TrimSpace(shaderDef)
	fnNameEnd := bytes.IndexByte(shaderDef, '(')
	fnNameStart := bytes.IndexByte(shaderDef, ' ')
	if fnNameEnd < 0 || fnNameStart < 0 || fnNameStart > fnNameEnd {
		return ShaderObject{}, errors.New("unable to parse function name")
	}
	name := shaderDef[fnNameStart:fnNameEnd]
	name = bytes.TrimSpace(name)
	if len(name) == 0 {
		return ShaderObject{}, errors.New("empty function name")
	}
	sf = ShaderObject{
		NamePtr:    name,
		funcSource: shaderDef,
	}
	return sf, nil
}

// Source returns the GLSL definition of the function.
func (obj ShaderObject) Source() []byte { return obj.funcSource }

// Programmer implements shader generation logic for Shader type.
type Programmer struct {
	scratchNodes  []Shader
	scratch       []byte
	computeHeader []byte
	objsScratch   []ShaderObject
	// names maps shader names to body hashes for checking duplicates.
	names map[uint64]uint64
	// Invocations size in X (local group size) to give each compute work group.
	invocX int
}

var defaultComputeHeader = []byte("#shader compute\n" + VersionStr)

// NewDefaultProgrammer returns a Programmer with reasonable default parameters for use with glgl package on the local machine.
func NewDefaultProgrammer() *Programmer {
	return &Programmer{
		scratchNodes:  make([]Shader, 16),
		scratch:       make([]byte, 1024),
		computeHeader: defaultComputeHeader,
		names:         make(map[uint64]uint64),
		invocX:        32,
	}
}

// SetComputeInvocations sets the work group local-sizes. x*y*z must be less than maximum number of invocations.
func (p *Programmer) SetComputeInvocations(x, y, z int) {
	if y != 1 || z != 1 {
		panic("unsupported")
	} else if x < 1 {
		panic("zero or negative X invocation size")
	}
	p.invocX = x
}

// ComputeInvocations returns the worker group invocation size in x y and z.
func (p *Programmer) ComputeInvocations() (int, int, int) {
	return p.invocX, 1, 1
}

// WriteDecl writes the environment struct, helper functions and shader function
// declarations and returns the top-level shader function name.
func (p *Programmer) WriteDecl(w io.Writer, s Shader) (baseName string, n int, err error) {
	baseName, nodes, err := ParseAppendNodes(p.scratchNodes[:0], s)
	if err != nil {
		return "", 0, err
	}
	n, err = w.Write([]byte(EnvDecl))
	if err != nil {
		return "", n, err
	}
	ngot, err := p.writeShaders(w, nodes)
	n += ngot
	if err != nil {
		return "", n, err
	}
	return baseName, n, nil
}

// WriteComputeSky creates the compute program that shades a buffer of fragments
// and writes it to the writer. The buffer layout matches gleval's ComputeSampler.
func (p *Programmer) WriteComputeSky(w io.Writer, s Shader) (int, error) {
	n, err := w.Write(p.computeHeader)
	if err != nil {
		return n, err
	}
	baseName, ngot, err := p.WriteDecl(w, s)
	n += ngot
	if err != nil {
		return n, err
	}
	ngot, err = fmt.Fprintf(w, `
layout(local_size_x = %d, local_size_y = 1, local_size_z = 1) in;

// Input: view direction and position, 6 floats per fragment.
layout(std430, binding = 0) buffer FragmentsBuffer {
	float vbo_frags[];
};

// Output: shaded color per fragment.
layout(std430, binding = 1) buffer ColorsBuffer {
	vec4 vbo_colors[];
};

// Input: per-frame environment.
layout(std430, binding = 2) buffer EnvBuffer {
	float vbo_env[];
};

Env loadEnv() {
	Env env;
	env.time = vbo_env[0];
	env.rain = vbo_env[1];
	env.fogColor = vec3(vbo_env[2], vbo_env[3], vbo_env[4]);
	env.zenith = vec3(vbo_env[5], vbo_env[6], vbo_env[7]);
	env.horizon = vec3(vbo_env[8], vbo_env[9], vbo_env[10]);
	env.horizonEdge = vec3(vbo_env[11], vbo_env[12], vbo_env[13]);
	return env;
}

void main() {
	int idx = int( gl_GlobalInvocationID.x );
	if (idx >= vbo_colors.length()) {
		return;
	}
	int base = 6*idx;
	vec3 vDir = vec3(vbo_frags[base], vbo_frags[base+1], vbo_frags[base+2]);
	vec3 vPos = vec3(vbo_frags[base+3], vbo_frags[base+4], vbo_frags[base+5]);
	vbo_colors[idx] = %s(vDir, vPos, loadEnv());
}
`, p.invocX, baseName)
	n += ngot
	return n, err
}

// WriteFragmentVisualizer generates a full-screen fragment program that renders the sky
// from a yaw/pitch camera placed under a cloud plane. The program expects the vertex
// stage to output vTexCoord in [0,1] and is null terminated for use with glgl.
func (p *Programmer) WriteFragmentVisualizer(w io.Writer, s Shader) (int, error) {
	n, err := w.Write([]byte("#version 460\n"))
	if err != nil {
		return n, err
	}
	baseName, ngot, err := p.WriteDecl(w, s)
	n += ngot
	if err != nil {
		return n, err
	}
	ngot, err = fmt.Fprintf(w, `
in vec2 vTexCoord;
out vec4 fragColor;

uniform vec2 uResolution;
uniform float uYaw;
uniform float uPitch;
uniform float uFocal;
uniform float uCloudHeight;
uniform float uTime;
uniform float uRain;
uniform vec3 uFogColor;
uniform vec3 uZenith;
uniform vec3 uHorizon;
uniform vec3 uHorizonEdge;

void main() {
	vec2 p = (2.0*vTexCoord*uResolution - uResolution) / uResolution.y;
	vec3 ww = vec3(cos(uPitch)*sin(uYaw), sin(uPitch), cos(uPitch)*cos(uYaw));
	vec3 uu = normalize(cross(ww, vec3(0.0, 1.0, 0.0)));
	vec3 vv = cross(uu, ww);
	vec3 vDir = normalize(p.x*uu + p.y*vv + uFocal*ww);
	vec3 hitDir = vec3(vDir.x, abs(vDir.y), vDir.z);
	vec3 vPos = hitDir*(uCloudHeight/(0.02 + 0.98*hitDir.y));
	vPos.y = uCloudHeight;
	Env env;
	env.time = uTime;
	env.rain = uRain;
	env.fogColor = uFogColor;
	env.zenith = uZenith;
	env.horizon = uHorizon;
	env.horizonEdge = uHorizonEdge;
	vec4 col = %s(vDir, vPos, env);
	fragColor = vec4(clamp(col.rgb, 0.0, 1.0), 1.0);
}
`, baseName)
	n += ngot
	if err != nil {
		return n, err
	}
	ngot, err = w.Write([]byte{0})
	n += ngot
	return n, err
}

func (p *Programmer) writeShaders(w io.Writer, nodes []Shader) (n int, err error) {
	clear(p.names)
	p.scratch = p.scratch[:0]
	p.objsScratch = p.objsScratch[:0]
	for i := len(nodes) - 1; i >= 0; i-- {
		p.objsScratch = nodes[i].AppendShaderObjects(p.objsScratch)
	}
	funcNames := make(map[uint64][]byte)
	for _, obj := range p.objsScratch {
		nameHash := hash(obj.NamePtr, 0)
		if src, written := funcNames[nameHash]; written {
			if !bytes.Equal(src, obj.funcSource) {
				return n, fmt.Errorf("conflicting definitions for shader function %q", obj.NamePtr)
			}
			continue // Skip this function, is duplicate.
		}
		funcNames[nameHash] = obj.funcSource
		p.scratch = append(p.scratch[:0], obj.funcSource...)
		p.scratch = append(p.scratch, '\n', '\n')
		ngot, err := w.Write(p.scratch)
		n += ngot
		if err != nil {
			return n, err
		}
	}

	for i := len(nodes) - 1; i >= 0; i-- {
		node := nodes[i]
		var name, body []byte
		p.scratch, name, body = AppendShaderSource(p.scratch[:0], node)
		nameHash := hash(name, 0)
		bodyHash := hash(body, nameHash) // Body hash mixes name as well.
		if _, isFunc := funcNames[nameHash]; isFunc {
			return n, fmt.Errorf("%T shader name %q conflicts with helper function", node, name)
		}
		gotBodyHash, nameConflict := p.names[nameHash]
		if nameConflict {
			if bodyHash == gotBodyHash {
				continue // Shader already written and is identical, skip.
			}
			return n, fmt.Errorf("duplicate %T shader name %q w/ body:\n%s", node, name, body)
		}
		p.names[nameHash] = bodyHash
		ngot, err := w.Write(p.scratch)
		n += ngot
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// ParseAppendNodes parses the shader object tree and appends all nodes in breadth first order
// to the dst Shader argument buffer and returns the result.
func ParseAppendNodes(dst []Shader, root Shader) (baseName string, nodes []Shader, err error) {
	if root == nil {
		return "", nil, errors.New("nil shader object")
	}
	baseName = string(root.AppendShaderName([]byte{}))
	if baseName == "" {
		return "", nil, errors.New("empty shader name")
	}
	dst, err = AppendAllNodes(dst, root)
	if err != nil {
		return "", nil, err
	}
	return baseName, dst, nil
}

// AppendShaderSource appends the full GLSL function of s to dst and returns the
// result along with the name and body subslices.
func AppendShaderSource(dst []byte, s Shader) (result, name, body []byte) {
	dst = append(dst, "vec4 "...)
	nameStart := len(dst)
	dst = s.AppendShaderName(dst)
	nameEnd := len(dst)
	dst = append(dst, "(vec3 vDir, vec3 vPos, Env env) {\n"...)
	bodyStart := len(dst)
	dst = s.AppendShaderBody(dst)
	bodyEnd := len(dst)
	dst = append(dst, "\n}\n\n"...)
	return dst, dst[nameStart:nameEnd], dst[bodyStart:bodyEnd]
}

// AppendAllNodes BFS iterates over all of root's descendants and appends all nodes
// found to dst.
//
// To generate shaders one must iterate over nodes in reverse order to ensure
// the first iterated nodes are the nodes with no dependencies on other nodes.
func AppendAllNodes(dst []Shader, root Shader) ([]Shader, error) {
	var userData any
	children := []Shader{root}
	nextChild := 0
	nilChild := errors.New("got nil child in AppendAllNodes")
	for len(children[nextChild:]) > 0 {
		newChildren := children[nextChild:]
		for _, obj := range newChildren {
			nextChild++
			err := obj.ForEachChild(userData, func(userData any, s *Shader) error {
				if s == nil || *s == nil {
					return nilChild
				}
				children = append(children, *s)
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}
	dst = append(dst, children...)
	return dst, nil
}

func AppendDefineDecl(b []byte, aliasToDefine, aliasReplace string) []byte {
	b = append(b, "#define "...)
	b = append(b, aliasToDefine...)
	b = append(b, ' ')
	b = append(b, aliasReplace...)
	b = append(b, '\n')
	return b
}

// AppendVec3Literal appends a GLSL vec3 constructor, i.e: vec3(1.,0.5,0.).
func AppendVec3Literal(b []byte, v ms3.Vec) []byte {
	b = append(b, "vec3("...)
	arr := v.Array()
	b = AppendFloats(b, ',', '-', '.', arr[:]...)
	b = append(b, ')')
	return b
}

// AppendVec2Literal appends a GLSL vec2 constructor, i.e: vec2(1.,0.5).
func AppendVec2Literal(b []byte, v ms2.Vec) []byte {
	b = append(b, "vec2("...)
	arr := v.Array()
	b = AppendFloats(b, ',', '-', '.', arr[:]...)
	b = append(b, ')')
	return b
}

func AppendVec3Decl(b []byte, vec3Varname string, v ms3.Vec) []byte {
	b = append(b, "vec3 "...)
	b = append(b, vec3Varname...)
	b = append(b, '=')
	b = AppendVec3Literal(b, v)
	b = append(b, ';', '\n')
	return b
}

func AppendVec2Decl(b []byte, vec2Varname string, v ms2.Vec) []byte {
	b = append(b, "vec2 "...)
	b = append(b, vec2Varname...)
	b = append(b, '=')
	b = AppendVec2Literal(b, v)
	b = append(b, ';', '\n')
	return b
}

func AppendFloatDecl(b []byte, floatVarname string, v float32) []byte {
	b = append(b, "float "...)
	b = append(b, floatVarname...)
	b = append(b, '=')
	b = AppendFloat(b, '-', '.', v)
	b = append(b, ';', '\n')
	return b
}

func AppendIntDecl(b []byte, intVarname string, v int) []byte {
	b = append(b, "int "...)
	b = append(b, intVarname...)
	b = append(b, '=')
	b = strconv.AppendInt(b, int64(v), 10)
	b = append(b, ';', '\n')
	return b
}

const decimalDigits = 9

// AppendFloat appends v with trailing zeros trimmed. neg replaces the minus sign
// and decimal the decimal point, which lets the result be used inside identifiers.
func AppendFloat(b []byte, neg, decimal byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', decimalDigits, 32)
	idx := bytes.IndexByte(b[start:], '.')
	if decimal != '.' && idx >= 0 {
		b[start+idx] = decimal
	}
	if b[start] == '-' {
		b[start] = neg
	}
	// Finally trim zeroes.
	end := len(b)
	for i := len(b) - 1; idx >= 0 && i > idx+start && b[i] == '0'; i-- {
		end--
	}
	return b[:end]
}

func AppendFloats(b []byte, sep, neg, decimal byte, s ...float32) []byte {
	for i, v := range s {
		b = AppendFloat(b, neg, decimal, v)
		if sep != 0 && i != len(s)-1 {
			b = append(b, sep)
		}
	}
	return b
}

func hash(b []byte, in uint64) uint64 {
	x := in
	for len(b) >= 8 {
		x ^= binary.LittleEndian.Uint64(b)
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
		b = b[8:]
	}
	if len(b) > 0 {
		var buf [8]byte
		copy(buf[:], b)
		x ^= binary.LittleEndian.Uint64(buf[:])
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
	}
	return x
}
