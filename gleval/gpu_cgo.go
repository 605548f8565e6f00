//go:build !tinygo && cgo

package gleval

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/soypat/glgl/v4.6-core/glgl"
)

// Init1x1GLFW starts a 1x1 sized GLFW so that user can start working with GPU.
// It returns a termination function that should be called when user is done running loads on GPU.
func Init1x1GLFW() (terminate func(), err error) {
	_, terminate, err = glgl.InitWithCurrentWindow33(glgl.WindowConfig{
		Title:   "compute",
		Version: [2]int{4, 6},
		Width:   1,
		Height:  1,
	})
	return terminate, err
}

// ComputeSampler is a [Sampler] that shades fragments with a compute program on the GPU.
// It must be used from the thread that owns the GL context.
type ComputeSampler struct {
	prog   glgl.Program
	invocX int
	envbuf []float32
}

// NewComputeGPUSampler compiles a compute program such as the one generated by
// glbuild's WriteComputeSky and returns a [Sampler] that runs it. invocX must match the
// local size the program was generated with.
func NewComputeGPUSampler(glglSourceCode io.Reader, invocX int) (*ComputeSampler, error) {
	if invocX < 1 {
		return nil, errors.New("zero or negative invocation size")
	}
	combinedSource, err := glgl.ParseCombined(glglSourceCode)
	if err != nil {
		return nil, err
	}
	glprog, err := glgl.CompileProgram(combinedSource)
	if err != nil {
		return nil, errors.New(string(combinedSource.Compute) + "\n" + err.Error())
	}
	return &ComputeSampler{prog: glprog, invocX: invocX}, nil
}

// Close releases the GL program.
func (cs *ComputeSampler) Close() error {
	cs.prog.Delete()
	return glgl.Err()
}

// Sample implements [Sampler] by dispatching the compute program over frags.
func (cs *ComputeSampler) Sample(env Env, frags []Fragment, dst []RGBA, userData any) error {
	err := CheckBuffers(frags, dst)
	if err != nil {
		return err
	} else if cs.prog.ID() == 0 {
		return errors.New("program id is 0, did you create the ComputeSampler with NewComputeGPUSampler?")
	}
	cs.prog.Bind()
	defer cs.prog.Unbind()
	cs.envbuf = env.AppendFloats(cs.envbuf[:0])

	var p runtime.Pinner
	var fragSSBO, colorSSBO, envSSBO uint32
	p.Pin(&fragSSBO)
	p.Pin(&colorSSBO)
	p.Pin(&envSSBO)
	defer p.Unpin()

	fragSSBO = loadSSBO(frags, 0, gl.STATIC_DRAW)
	if fragSSBO == 0 {
		return glErrOrMessage("zero SSBO id set by GL loading fragments")
	}
	defer gl.DeleteBuffers(1, &fragSSBO)
	envSSBO = loadSSBO(cs.envbuf, 2, gl.STATIC_DRAW)
	if envSSBO == 0 {
		return glErrOrMessage("zero SSBO id set by GL loading environment")
	}
	defer gl.DeleteBuffers(1, &envSSBO)
	colorSSBO = createSSBO(elemSize[RGBA]()*len(dst), 1, gl.DYNAMIC_READ)
	if colorSSBO == 0 {
		return glErrOrMessage("zero SSBO id creating color buffer")
	}
	defer gl.DeleteBuffers(1, &colorSSBO)

	nWorkX := (len(dst) + cs.invocX - 1) / cs.invocX
	gl.DispatchCompute(uint32(nWorkX), 1, 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)
	err = copySSBO(dst, colorSSBO)
	if err != nil {
		return err
	}
	return glgl.Err()
}

func loadSSBO[T any](slice []T, base, usage uint32) (ssbo uint32) {
	var p runtime.Pinner
	p.Pin(&ssbo)
	gl.GenBuffers(1, &ssbo)
	p.Unpin()
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	size := len(slice) * elemSize[T]()
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, unsafe.Pointer(&slice[0]), usage)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, base, ssbo)
	return ssbo
}

func createSSBO(size int, base, usage uint32) (ssbo uint32) {
	gl.GenBuffers(1, &ssbo)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, nil, usage)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, base, ssbo)
	return ssbo
}

func copySSBO[T any](dst []T, ssbo uint32) error {
	bufSize := elemSize[T]() * len(dst)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	ptr := gl.MapBufferRange(gl.SHADER_STORAGE_BUFFER, 0, bufSize, gl.MAP_READ_BIT)
	if ptr == nil {
		return glErrOrMessage("failed to map SSBO buffer during copy")
	}
	defer gl.UnmapBuffer(gl.SHADER_STORAGE_BUFFER)
	gpuBytes := unsafe.Slice((*byte)(ptr), bufSize)
	bufBytes := unsafe.Slice((*byte)(unsafe.Pointer(&dst[0])), bufSize)
	copy(bufBytes, gpuBytes)
	return nil
}

func elemSize[T any]() int {
	var z T
	return int(unsafe.Sizeof(z))
}

func glErrOrMessage(defaultMsg string) (err error) {
	err = glgl.Err()
	if err == nil {
		err = errors.New(defaultMsg)
	} else {
		err = fmt.Errorf("%s: %w", defaultMsg, err)
	}
	return err
}
