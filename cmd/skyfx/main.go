// Command skyfx renders a sky configuration to a PNG image and exports its
// GLSL programs and #define header.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"

	"github.com/soypat/skyfx"
	"github.com/soypat/skyfx/skyfxaux"
	"go.uber.org/zap"
)

func init() {
	// GL contexts are bound to the main thread.
	runtime.LockOSThread()
}

type flags struct {
	config  string
	preset  string
	png     string
	compute string
	visual  string
	header  string
	view    string
	width   int
	height  int
	ss      int
	workers int
	time    float64
	rain    float64
	useGPU  bool
	ui      bool
	verbose bool
}

func main() {
	var f flags
	flag.StringVar(&f.config, "config", "", "JSON sky configuration file. Defaults are used when empty")
	flag.StringVar(&f.preset, "preset", "", "preset applied on top of the defaults, ignored when a config file names one")
	flag.StringVar(&f.png, "o", "sky.png", "output PNG image, empty to skip")
	flag.StringVar(&f.compute, "glsl", "", "output file for the compute GLSL program")
	flag.StringVar(&f.visual, "vis", "", "output file for the fragment visualizer GLSL program")
	flag.StringVar(&f.header, "header", "", "output file for the NL_* #define header")
	flag.StringVar(&f.view, "view", "", "PNG color conversion: clamp, gamma or coverage")
	flag.IntVar(&f.width, "w", 640, "image width in pixels")
	flag.IntVar(&f.height, "h", 360, "image height in pixels")
	flag.IntVar(&f.ss, "ss", 1, "supersampling factor")
	flag.IntVar(&f.workers, "workers", runtime.NumCPU(), "concurrent CPU row bands")
	flag.Float64Var(&f.time, "time", -1, "sky time in seconds, overrides the config when not negative")
	flag.Float64Var(&f.rain, "rain", -1, "rain factor in [0,1], overrides the config when not negative")
	flag.BoolVar(&f.useGPU, "gpu", false, "enable GPU usage")
	flag.BoolVar(&f.ui, "ui", false, "open the interactive GPU viewer instead of writing files")
	flag.BoolVar(&f.verbose, "v", false, "verbose logging")
	flag.Parse()

	var log *zap.Logger
	var err error
	if f.verbose {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "creating logger:", err)
		os.Exit(1)
	}
	defer log.Sync()
	err = run(f, log)
	if err != nil {
		log.Error("skyfx failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

// loadConfig resolves the configuration file and the command line overrides.
func loadConfig(f flags) (skyfx.Config, skyfxaux.Frame, error) {
	file := &skyfxaux.File{}
	if f.config != "" {
		var err error
		file, err = skyfxaux.LoadFile(f.config)
		if err != nil {
			return skyfx.Config{}, skyfxaux.Frame{}, err
		}
	}
	over := skyfxaux.Overrides{Preset: f.preset}
	if f.time >= 0 {
		t := float32(f.time)
		over.Time = &t
	}
	if f.rain >= 0 {
		r := float32(f.rain)
		over.Rain = &r
	}
	over.Apply(file)
	return file.Config()
}

func run(f flags, log *zap.Logger) error {
	cfg, frame, err := loadConfig(f)
	if err != nil {
		return err
	}
	conversion, err := skyfxaux.ParseConversion(f.view)
	if err != nil {
		return err
	}
	root, err := skyfx.NewScene(cfg)
	if err != nil {
		return err
	}
	log.Info("built scene",
		zap.Stringer("clouds", cfg.Clouds.Type),
		zap.Bool("multilayer", cfg.Clouds.Multilayer.Enabled),
		zap.Bool("aurora", cfg.Aurora.Enabled))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if f.ui {
		return skyfxaux.UI(root, skyfxaux.UIConfig{
			Width:     f.width,
			Height:    f.height,
			Context:   ctx,
			Config:    cfg,
			Frame:     frame,
			TimeScale: 1,
		})
	}

	rcfg := skyfxaux.RenderConfig{
		Logger:      log,
		Config:      cfg,
		Frame:       frame,
		Conversion:  conversion,
		Width:       f.width,
		Height:      f.height,
		Supersample: f.ss,
		Workers:     f.workers,
		UseGPU:      f.useGPU,
	}
	var files []*os.File
	defer func() {
		for _, fp := range files {
			fp.Close()
		}
	}()
	for _, out := range []struct {
		name string
		dst  *io.Writer
	}{
		{f.png, &rcfg.PNGOutput},
		{f.compute, &rcfg.ComputeOutput},
		{f.visual, &rcfg.VisualOutput},
		{f.header, &rcfg.HeaderOutput},
	} {
		if out.name == "" {
			continue
		}
		fp, err := os.Create(out.name)
		if err != nil {
			return err
		}
		files = append(files, fp)
		*out.dst = fp
	}
	return skyfxaux.Render(ctx, root, rcfg)
}
