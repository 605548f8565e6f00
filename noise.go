package skyfx

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
)

// Rand hashes a lattice coordinate into [0,1]. The upper bound is reached when
// fract rounds a tiny negative product up to 1. It is the sine hash common to
// GPU shaders so CPU and GPU renders agree up to float rounding.
func Rand(p ms2.Vec) float32 {
	return fract(math32.Sin(p.X*12.9898+p.Y*4.1414) * 43758.5453)
}

// RandT remaps [Rand] through a smoothstep whose edges are given by the
// rain transition pair t. Edges may be inverted. The result lies in [0,1]
// for every t.
func RandT(p, t ms2.Vec) float32 {
	return Smoothstep(t.X, t.Y, Rand(p))
}

// ValueNoise2D interpolates [RandT] at the four corners of p's lattice cell
// with a cubic fade. At integer coordinates it returns the corner hash exactly.
func ValueNoise2D(p, transition ms2.Vec) float32 {
	p0 := floor2(p)
	u := ms2.Sub(p, p0)
	u = ms2.Vec{X: u.X * u.X * (3 - 2*u.X), Y: u.Y * u.Y * (3 - 2*u.Y)}
	v := ms2.Vec{X: 1 - u.X, Y: 1 - u.Y}
	n00 := RandT(p0, transition)
	n10 := RandT(ms2.Vec{X: p0.X + 1, Y: p0.Y}, transition)
	n01 := RandT(ms2.Vec{X: p0.X, Y: p0.Y + 1}, transition)
	n11 := RandT(ms2.Vec{X: p0.X + 1, Y: p0.Y + 1}, transition)
	return v.Y*(n00*v.X+n10*u.X) + u.Y*(n01*v.X+n11*u.X)
}

// SoftRainTransition is the transition pair soft clouds use for a rain intensity.
func SoftRainTransition(rain float32) ms2.Vec {
	return ms2.Vec{X: 0.09 + 0.5*rain, Y: 0.089 + 0.5*rain*rain}
}

// RoundedRainTransition is the transition pair the rounded cloud density uses for a rain intensity.
func RoundedRainTransition(rain float32) ms2.Vec {
	return ms2.Vec{X: 0.1001 + 0.2*rain, Y: 0.1 + 0.2*rain*rain}
}

// CloudNoise2D is [ValueNoise2D] drifting with time t*speed and bent by a
// sinusoidal wind distortion along x.
func CloudNoise2D(p ms2.Vec, t, rain, speed float32) float32 {
	t *= speed
	p = ms2.Vec{X: p.X + t, Y: p.Y + t}
	p.X += math32.Sin(p.Y*0.4 + t)
	return ValueNoise2D(p, SoftRainTransition(rain))
}
