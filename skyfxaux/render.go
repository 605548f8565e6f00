package skyfxaux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/soypat/skyfx"
	"github.com/soypat/skyfx/glbuild"
	"github.com/soypat/skyfx/gleval"
	"github.com/soypat/skyfx/glrender"
	"go.uber.org/zap"
)

type RenderConfig struct {
	// Logger receives progress and timings. Nil disables logging.
	Logger *zap.Logger
	// Config is written to HeaderOutput. It is not used to build the sky.
	Config skyfx.Config
	Frame  Frame
	// Conversion maps shaded colors to PNG pixels. Nil clamps to 8 bits, see [ParseConversion].
	Conversion func(gleval.RGBA) color.Color

	PNGOutput     io.Writer
	ComputeOutput io.Writer
	VisualOutput  io.Writer
	HeaderOutput  io.Writer

	Width, Height int
	// Supersample renders at Supersample times the resolution before downscaling.
	Supersample int
	// Workers is the number of concurrent row bands on the CPU.
	Workers int
	UseGPU  bool
}

// Camera returns the camera described by the frame.
func (f Frame) Camera() glrender.Camera {
	return glrender.Camera{
		Yaw:         mgl32.DegToRad(f.Yaw),
		Pitch:       mgl32.DegToRad(f.Pitch),
		FOV:         mgl32.DegToRad(f.FOV),
		CloudHeight: f.CloudHeight,
	}
}

// Render is an auxiliary function to aid users in getting setup in using skyfx quickly.
// It writes every output set in cfg: the shaded sky as a PNG, the compute and visualizer
// GLSL programs of root and the configuration header.
func Render(ctx context.Context, root skyfx.Node, cfg RenderConfig) (err error) {
	if cfg.PNGOutput == nil && cfg.ComputeOutput == nil && cfg.VisualOutput == nil && cfg.HeaderOutput == nil {
		return errors.New("Render requires output parameter in config")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	programmer := glbuild.NewDefaultProgrammer()

	if cfg.HeaderOutput != nil {
		_, err = cfg.HeaderOutput.Write(cfg.Config.AppendDefines(nil))
		if err != nil {
			return fmt.Errorf("writing config header: %w", err)
		}
		log.Info("wrote config header", zap.String("file", outputName(cfg.HeaderOutput)))
	}
	if cfg.ComputeOutput != nil {
		watch := stopwatch()
		_, err = programmer.WriteComputeSky(cfg.ComputeOutput, root)
		if err != nil {
			return fmt.Errorf("writing compute GLSL: %w", err)
		}
		log.Info("wrote compute program", zap.String("file", outputName(cfg.ComputeOutput)), zap.Duration("elapsed", watch()))
	}
	if cfg.VisualOutput != nil {
		watch := stopwatch()
		_, err = programmer.WriteFragmentVisualizer(cfg.VisualOutput, root)
		if err != nil {
			return fmt.Errorf("writing visual GLSL: %w", err)
		}
		log.Info("wrote visualizer program", zap.String("file", outputName(cfg.VisualOutput)), zap.Duration("elapsed", watch()))
	}
	if cfg.PNGOutput == nil {
		return nil
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", cfg.Width, cfg.Height)
	}

	watch := stopwatch()
	var sampler gleval.Sampler = root
	workers := cfg.Workers
	if cfg.UseGPU {
		log.Info("using GPU")
		terminate, err := gleval.Init1x1GLFW()
		if err != nil {
			return err
		}
		defer terminate()
		var source bytes.Buffer
		_, err = programmer.WriteComputeSky(&source, root)
		if err != nil {
			return err
		}
		invocX, _, _ := programmer.ComputeInvocations()
		gpu, err := gleval.NewComputeGPUSampler(&source, invocX)
		if err != nil {
			return fmt.Errorf("instantiating GPU sampler: %w", err)
		}
		defer gpu.Close()
		sampler = gpu
		// GL contexts are bound to the calling thread.
		workers = 1
	} else {
		log.Info("using CPU", zap.Int("workers", workers))
	}
	log.Debug("instantiated sampler", zap.Duration("elapsed", watch()))

	renderer, err := glrender.NewImageRenderer(cfg.Frame.Camera(), workers, cfg.Conversion)
	if err != nil {
		return err
	}
	watch = stopwatch()
	img := image.NewNRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	err = renderer.RenderSupersampled(ctx, sampler, cfg.Frame.Env(cfg.Config), img, cfg.Supersample)
	if err != nil {
		return fmt.Errorf("rendering sky: %w", err)
	}
	log.Info("rendered sky",
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Int("supersample", max(cfg.Supersample, 1)),
		zap.Duration("elapsed", watch()))

	watch = stopwatch()
	err = png.Encode(cfg.PNGOutput, img)
	if err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	log.Info("wrote image", zap.String("file", outputName(cfg.PNGOutput)), zap.Duration("elapsed", watch()))
	return nil
}

func outputName(w io.Writer) string {
	if fp, ok := w.(*os.File); ok {
		return fp.Name()
	}
	return fmt.Sprintf("%T", w)
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
