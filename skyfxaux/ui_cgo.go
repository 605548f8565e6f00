//go:build !tinygo && cgo

package skyfxaux

import (
	"bytes"
	"fmt"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/skyfx"
	"github.com/soypat/skyfx/glbuild"
)

const vertexSource = `#version 460
in vec2 aPos;
out vec2 vTexCoord;
void main() {
	vTexCoord = aPos * 0.5 + 0.5;
	gl_Position = vec4(aPos, 0.0, 1.0);
}
` + "\x00"

func ui(root skyfx.Node, cfg UIConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", cfg.Width, cfg.Height)
	}
	window, term, err := startGLFW(cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer term()
	var fragSrc bytes.Buffer
	_, err = glbuild.NewDefaultProgrammer().WriteFragmentVisualizer(&fragSrc, root)
	if err != nil {
		return err
	}
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   vertexSource,
		Fragment: fragSrc.String(),
	})
	if err != nil {
		return fmt.Errorf("%s\n\n%w", fragSrc.String(), err)
	}
	prog.Bind()
	// Quad covering the screen.
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	vertices := []float32{
		-1.0, -1.0,
		1.0, -1.0,
		-1.0, 1.0,
		-1.0, 1.0,
		1.0, -1.0,
		1.0, 1.0,
	}
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(vertices), gl.Ptr(vertices), gl.STATIC_DRAW)

	u, err := locateUniforms(prog.UniformLocation)
	if err != nil {
		return err
	}
	posAttrib, err := prog.AttribLocation("aPos\x00")
	if err != nil {
		return err
	}
	gl.EnableVertexAttribArray(posAttrib)
	gl.VertexAttribPointer(posAttrib, 2, gl.FLOAT, false, 0, gl.PtrOffset(0))

	cam := cfg.Frame.Camera()
	var (
		lastMouseX     float64
		lastMouseY     float64
		firstMouseMove = true
		isMousePressed = false
		sensitivity    = float32(0.005)
		minFOV         = mgl32.DegToRad(10)
		maxFOV         = mgl32.DegToRad(150)
	)
	window.SetCursorPosCallback(func(w *glfw.Window, xpos float64, ypos float64) {
		if !isMousePressed {
			return
		}
		if firstMouseMove {
			lastMouseX = xpos
			lastMouseY = ypos
			firstMouseMove = false
		}
		cam.Yaw += float32(xpos-lastMouseX) * sensitivity
		cam.Pitch -= float32(ypos-lastMouseY) * sensitivity // Invert y-axis.
		const maxPitch = 0.999 * math32.Pi / 2
		cam.Pitch = mgl32.Clamp(cam.Pitch, -maxPitch, maxPitch)
		lastMouseX = xpos
		lastMouseY = ypos
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		cam.FOV = mgl32.Clamp(cam.FOV-float32(yoff)*0.05*cam.FOV, minFOV, maxFOV)
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		if action == glfw.Press {
			isMousePressed = true
			firstMouseMove = true
			window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		} else if action == glfw.Release {
			isMousePressed = false
			window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		}
	})

	ctx := cfg.Context
	start := glfw.GetTime()
	for !window.ShouldClose() {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		frame := cfg.Frame
		frame.Time += cfg.TimeScale * float32(glfw.GetTime()-start)
		env := frame.Env(cfg.Config)
		width, height := window.GetSize()

		gl.ClearColor(0, 0, 0, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT)
		prog.Bind()
		gl.Uniform2f(u.res, float32(width), float32(height))
		gl.Uniform1f(u.yaw, cam.Yaw)
		gl.Uniform1f(u.pitch, cam.Pitch)
		gl.Uniform1f(u.focal, cam.FocalLength())
		gl.Uniform1f(u.height, cam.CloudHeight)
		gl.Uniform1f(u.time, env.Time)
		gl.Uniform1f(u.rain, env.Rain)
		gl.Uniform3f(u.fog, env.FogColor.X, env.FogColor.Y, env.FogColor.Z)
		gl.Uniform3f(u.zenith, env.Zenith.X, env.Zenith.Y, env.Zenith.Z)
		gl.Uniform3f(u.horizon, env.Horizon.X, env.Horizon.Y, env.Horizon.Z)
		gl.Uniform3f(u.edge, env.HorizonEdge.X, env.HorizonEdge.Y, env.HorizonEdge.Z)

		gl.BindVertexArray(vao)
		gl.DrawArrays(gl.TRIANGLES, 0, 6)
		window.SwapBuffers()
		glfw.PollEvents()
		time.Sleep(time.Second / 60)
	}
	return nil
}

func startGLFW(width, height int) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("initializing GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	window, err = glfw.CreateWindow(width, height, "skyfx sky viewer", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("creating GLFW window: %w", err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	return window, glfw.Terminate, nil
}
