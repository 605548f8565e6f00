// Package skyfx implements the procedural sky layer of a block game's renderer:
// soft 2D clouds, ray marched rounded clouds, aurora streaks and the sky gradient.
// Each effect can be evaluated on the CPU and emitted as GLSL from the same node.
package skyfx

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/math/ms1"
)

const (
	// horizonEps keeps the parallax divisor away from zero for near horizontal rays.
	horizonEps = 0.02
	// slabScale converts configured cloud thickness into marched slab height.
	slabScale = 7.0
)

// Builder wraps node construction logic.
// Provides error handling strategies with panics or error accumulation during node generation.
type Builder struct {
	// NoParamPanic makes invalid parameters accumulate as errors returned by [Builder.Err] instead of panicking.
	NoParamPanic bool
	accumErrs    []error
}

// Err returns all accumulated construction errors joined, or nil.
func (bld *Builder) Err() error {
	if len(bld.accumErrs) == 0 {
		return nil
	}
	return errors.Join(bld.accumErrs...)
}

func (bld *Builder) paramErrorf(msg string, args ...any) {
	if !bld.NoParamPanic {
		panic(fmt.Sprintf(msg, args...))
	}
	bld.accumErrs = append(bld.accumErrs, fmt.Errorf(msg, args...))
}

func (*Builder) nilnode(msg string) {
	panic("nil Node argument: " + msg)
}

func clampf(v, Min, Max float32) float32 {
	return ms1.Clamp(v, Min, Max)
}

func mixf(x, y, a float32) float32 {
	return ms1.Interp(x, y, a)
}

func maxf(a, b float32) float32 {
	return math32.Max(a, b)
}

func absf(a float32) float32 {
	return math32.Abs(a)
}

func fract(x float32) float32 {
	return x - math32.Floor(x)
}

func step(edge, x float32) float32 {
	if x < edge {
		return 0
	}
	return 1
}

// Smoothstep is the GLSL Hermite step. Inverted edges (e0 > e1) are
// allowed and flip the ramp. Equal edges degrade to a binary step at e0
// instead of dividing by zero.
func Smoothstep(e0, e1, x float32) float32 {
	if e0 == e1 {
		return step(e0, x)
	}
	t := clampf((x-e0)/(e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}

func mix3(x, y ms3.Vec, a float32) ms3.Vec {
	return ms3.Add(ms3.Scale(1-a, x), ms3.Scale(a, y))
}

func floor2(p ms2.Vec) ms2.Vec {
	return ms2.Vec{X: math32.Floor(p.X), Y: math32.Floor(p.Y)}
}

// fogBrightness is the brighter of the fog's green and blue channels, the
// signal every day/night estimate in this package is derived from.
func fogBrightness(fog ms3.Vec) float32 {
	return maxf(fog.Z, fog.Y)
}
