//go:build tinygo || !cgo

package gleval

import (
	"errors"
	"io"
)

var errNoCGO = errors.New("GPU evaluation requires CGo and is not supported on TinyGo")

// Init1x1GLFW starts a 1x1 sized GLFW so that user can start working with GPU.
func Init1x1GLFW() (terminate func(), err error) {
	return nil, errNoCGO
}

// ComputeSampler is a [Sampler] that shades fragments on the GPU. Unavailable without CGo.
type ComputeSampler struct{}

// NewComputeGPUSampler instantiates a [Sampler] that runs on the GPU.
func NewComputeGPUSampler(glglSourceCode io.Reader, invocX int) (*ComputeSampler, error) {
	return nil, errNoCGO
}

func (cs *ComputeSampler) Close() error { return errNoCGO }

func (cs *ComputeSampler) Sample(env Env, frags []Fragment, dst []RGBA, userData any) error {
	return errNoCGO
}
