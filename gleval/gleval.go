package gleval

import (
	"errors"
	"fmt"

	"github.com/soypat/geometry/ms3"
)

// Sampler shades a batch of sky fragments. Implementations must be pure:
// the result for a fragment depends only on that fragment and env, never on
// other fragments of the batch or on previous calls.
type Sampler interface {
	// Sample shades frags and stores the resulting colors in dst.
	// dst and frags must be of same length.
	//
	// userData facilitates getting data to the samplers for use in processing, such as [BufferPool].
	Sample(env Env, frags []Fragment, dst []RGBA, userData any) error
}

// Fragment is the per-pixel input supplied by the host pipeline.
type Fragment struct {
	// Dir is the unit view direction.
	Dir ms3.Vec
	// Pos is the fragment's view-space position on the sky/cloud layer.
	Pos ms3.Vec
}

// RGBA is a linear, non-premultiplied color sample with coverage in A.
type RGBA struct {
	R, G, B, A float32
}

// RGB returns the color channels as a vector.
func (c RGBA) RGB() ms3.Vec { return ms3.Vec{X: c.R, Y: c.G, Z: c.B} }

// NewRGBA creates a color sample from a color vector and an alpha value.
func NewRGBA(rgb ms3.Vec, a float32) RGBA {
	return RGBA{R: rgb.X, G: rgb.Y, B: rgb.Z, A: a}
}

// Env holds the per-frame values the host pipeline supplies to every fragment.
// It is read-only during a render.
type Env struct {
	Time     float32
	Rain     float32
	FogColor ms3.Vec
	// Sky gradient colors at the current time of day.
	Zenith      ms3.Vec
	Horizon     ms3.Vec
	HorizonEdge ms3.Vec
}

// EnvFloats is the number of float32 values [Env.AppendFloats] appends.
const EnvFloats = 2 + 4*3

// AppendFloats appends the GPU layout of env to dst: time, rain, followed by
// fog, zenith, horizon and horizon edge colors, 3 floats each.
func (env Env) AppendFloats(dst []float32) []float32 {
	dst = append(dst, env.Time, env.Rain)
	for _, v := range [4]ms3.Vec{env.FogColor, env.Zenith, env.Horizon, env.HorizonEdge} {
		dst = append(dst, v.X, v.Y, v.Z)
	}
	return dst
}

var (
	errEmptyBuffers         = errors.New("empty buffers")
	errMismatchBufferLength = errors.New("fragment and color buffer length mismatch")
)

// CheckBuffers returns an error if the fragment and color buffers can not be used for a call to Sample.
func CheckBuffers(frags []Fragment, dst []RGBA) error {
	if len(frags) != len(dst) {
		return errMismatchBufferLength
	} else if len(frags) == 0 {
		return errEmptyBuffers
	}
	return nil
}

// BufferPool hands out scratch color buffers to composite samplers so that
// nested evaluation does not allocate on every call. A BufferPool is not safe
// for concurrent use; give each worker its own.
type BufferPool struct {
	free [][]RGBA
	// acquired counts buffers currently checked out.
	acquired int
}

// Acquire returns a buffer of length n. Contents are undefined.
func (bp *BufferPool) Acquire(n int) []RGBA {
	bp.acquired++
	for i := len(bp.free) - 1; i >= 0; i-- {
		if cap(bp.free[i]) >= n {
			buf := bp.free[i][:n]
			bp.free = append(bp.free[:i], bp.free[i+1:]...)
			return buf
		}
	}
	return make([]RGBA, n)
}

// Release returns a buffer obtained with Acquire to the pool.
func (bp *BufferPool) Release(buf []RGBA) {
	bp.acquired--
	bp.free = append(bp.free, buf[:0])
}

// Acquired returns the number of buffers not yet released.
func (bp *BufferPool) Acquired() int { return bp.acquired }

// GetBufferPool extracts a [BufferPool] from userData. Returns an error if userData is not a *BufferPool.
func GetBufferPool(userData any) (*BufferPool, error) {
	switch v := userData.(type) {
	case *BufferPool:
		if v == nil {
			return nil, errors.New("nil *BufferPool in userData")
		}
		return v, nil
	case interface{ BufferPool() *BufferPool }:
		bp := v.BufferPool()
		if bp == nil {
			return nil, errors.New("nil BufferPool returned by userData")
		}
		return bp, nil
	case nil:
		return nil, errors.New("nil userData, require *BufferPool")
	}
	return nil, fmt.Errorf("want *BufferPool in userData, got %T", userData)
}
