//go:build ebiten

// Command skyview is a live CPU preview of a sky configuration.
// Arrow keys look around, R and F raise and lower the rain and N toggles night.
package main

import (
	"context"
	"errors"
	"flag"
	"image"
	"runtime"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/soypat/skyfx"
	"github.com/soypat/skyfx/glrender"
	"github.com/soypat/skyfx/skyfxaux"
	"go.uber.org/zap"
)

var nightFog = skyfxaux.Color{X: 0.03, Y: 0.04, Z: 0.08}

type game struct {
	log    *zap.Logger
	scene  skyfx.Node
	cfg    skyfx.Config
	frame  skyfxaux.Frame
	dayFog skyfxaux.Color
	night  bool

	workers int
	scale   int
	img     *image.NRGBA
	screen  *ebiten.Image
}

func (g *game) Update() error {
	const turn = 0.02
	switch {
	case ebiten.IsKeyPressed(ebiten.KeyArrowLeft):
		g.frame.Yaw -= turn * 180
	case ebiten.IsKeyPressed(ebiten.KeyArrowRight):
		g.frame.Yaw += turn * 180
	}
	switch {
	case ebiten.IsKeyPressed(ebiten.KeyArrowUp):
		g.frame.Pitch = min(g.frame.Pitch+turn*90, 89)
	case ebiten.IsKeyPressed(ebiten.KeyArrowDown):
		g.frame.Pitch = max(g.frame.Pitch-turn*90, -89)
	}
	if ebiten.IsKeyPressed(ebiten.KeyR) {
		g.frame.Rain = min(g.frame.Rain+0.01, 1)
	} else if ebiten.IsKeyPressed(ebiten.KeyF) {
		g.frame.Rain = max(g.frame.Rain-0.01, 0)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.night = !g.night
		g.frame.Fog = g.dayFog
		if g.night {
			g.frame.Fog = nightFog
		}
		g.log.Info("toggled night", zap.Bool("night", g.night))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	g.frame.Time += 1 / float32(ebiten.TPS())

	renderer, err := glrender.NewImageRenderer(g.frame.Camera(), g.workers, nil)
	if err != nil {
		return err
	}
	err = renderer.Render(context.Background(), g.scene, g.frame.Env(g.cfg), g.img)
	if err != nil {
		return err
	}
	g.screen.WritePixels(g.img.Pix)
	return nil
}

func (g *game) Draw(dst *ebiten.Image) {
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(g.scale), float64(g.scale))
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(g.screen, op)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	bb := g.img.Bounds()
	return bb.Dx() * g.scale, bb.Dy() * g.scale
}

func main() {
	var (
		configFile string
		preset     string
		width      = 192
		height     = 108
		scale      = 5
		tps        = 30
	)
	flag.StringVar(&configFile, "config", "", "JSON sky configuration file")
	flag.StringVar(&preset, "preset", "", "preset applied on top of the defaults, ignored when a config file names one")
	flag.IntVar(&width, "w", width, "preview width in pixels before scaling")
	flag.IntVar(&height, "h", height, "preview height in pixels before scaling")
	flag.IntVar(&scale, "scale", scale, "window pixels per preview pixel")
	flag.IntVar(&tps, "tps", tps, "frames shaded per second")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	file := &skyfxaux.File{}
	if configFile != "" {
		file, err = skyfxaux.LoadFile(configFile)
		if err != nil {
			log.Fatal("loading configuration", zap.Error(err))
		}
	}
	skyfxaux.Overrides{Preset: preset}.Apply(file)
	cfg, frame, err := file.Config()
	if err != nil {
		log.Fatal("loading configuration", zap.Error(err))
	}
	scene, err := skyfx.NewScene(cfg)
	if err != nil {
		log.Fatal("building scene", zap.Error(err))
	}
	if width <= 0 || height <= 0 || scale <= 0 {
		log.Fatal("invalid preview size", zap.Int("width", width), zap.Int("height", height), zap.Int("scale", scale))
	}
	g := &game{
		log:     log,
		scene:   scene,
		cfg:     cfg,
		frame:   frame,
		dayFog:  frame.Fog,
		workers: runtime.NumCPU(),
		scale:   scale,
		img:     image.NewNRGBA(image.Rect(0, 0, width, height)),
		screen:  ebiten.NewImage(width, height),
	}
	log.Info("starting preview", zap.Stringer("clouds", cfg.Clouds.Type), zap.Bool("aurora", cfg.Aurora.Enabled))

	ebiten.SetWindowTitle("skyview")
	ebiten.SetTPS(tps)
	ebiten.SetWindowSize(width*scale, height*scale)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal("running preview", zap.Error(err))
	}
}
