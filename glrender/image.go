package glrender

import (
	"context"
	"errors"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/soypat/skyfx/gleval"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// ImageRenderer shades every pixel of an image with a [gleval.Sampler] seen
// through a [Camera]. Rows are split into bands that are shaded independently.
type ImageRenderer struct {
	cam     Camera
	conv    func(gleval.RGBA) color.Color
	workers int
	// bandRows is the number of image rows per band.
	bandRows int
}

// NewImageRenderer instances a new [ImageRenderer]. workers is the maximum number of
// bands shaded concurrently. Samplers bound to a thread, such as GPU samplers,
// require workers<=1 which shades all bands on the calling goroutine.
// A nil conversion function clamps colors to 8 bits per channel.
func NewImageRenderer(cam Camera, workers int, conversion func(gleval.RGBA) color.Color) (*ImageRenderer, error) {
	if !(cam.FOV > 0) || cam.FOV >= math32.Pi {
		return nil, errors.New("camera field of view must be within (0,pi)")
	}
	if conversion == nil {
		conversion = ClampRGBA
	}
	return &ImageRenderer{
		cam:      cam,
		conv:     conversion,
		workers:  workers,
		bandRows: 16,
	}, nil
}

// ClampRGBA converts a linear color to 8 bits per channel, clamping out of range values.
func ClampRGBA(c gleval.RGBA) color.Color {
	return color.NRGBA{R: to8bit(c.R), G: to8bit(c.G), B: to8bit(c.B), A: to8bit(c.A)}
}

func to8bit(f float32) uint8 {
	if !(f > 0) {
		return 0
	} else if f >= 1 {
		return 255
	}
	return uint8(f*255 + 0.5)
}

// Render shades img with s. Each band passes its own [gleval.BufferPool] to s as userData.
func (ir *ImageRenderer) Render(ctx context.Context, s gleval.Sampler, env gleval.Env, img *image.NRGBA) error {
	bb := img.Bounds()
	w, h := bb.Dx(), bb.Dy()
	if w == 0 || h == 0 {
		return errors.New("empty image")
	}
	right, up, forward := ir.cam.basis()
	focal := ir.cam.FocalLength()
	renderBand := func(y0, y1 int) error {
		n := (y1 - y0) * w
		frags := make([]gleval.Fragment, n)
		dst := make([]gleval.RGBA, n)
		for j := y0; j < y1; j++ {
			for i := 0; i < w; i++ {
				frags[(j-y0)*w+i] = ir.cam.fragment(right, up, forward, focal, i, j, w, h)
			}
		}
		var pool gleval.BufferPool
		err := s.Sample(env, frags, dst, &pool)
		if err != nil {
			return err
		}
		for j := y0; j < y1; j++ {
			for i := 0; i < w; i++ {
				img.Set(bb.Min.X+i, bb.Min.Y+j, ir.conv(dst[(j-y0)*w+i]))
			}
		}
		return nil
	}

	if ir.workers <= 1 {
		for y := 0; y < h; y += ir.bandRows {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := renderBand(y, min(y+ir.bandRows, h)); err != nil {
				return err
			}
		}
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ir.workers)
	for y := 0; y < h; y += ir.bandRows {
		y0, y1 := y, min(y+ir.bandRows, h)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return renderBand(y0, y1)
		})
	}
	return g.Wait()
}

// RenderSupersampled shades img at k times its resolution and downsamples the
// result into img with a Catmull-Rom filter. k<=1 is equivalent to Render.
func (ir *ImageRenderer) RenderSupersampled(ctx context.Context, s gleval.Sampler, env gleval.Env, img *image.NRGBA, k int) error {
	if k <= 1 {
		return ir.Render(ctx, s, env, img)
	}
	bb := img.Bounds()
	big := image.NewNRGBA(image.Rect(0, 0, k*bb.Dx(), k*bb.Dy()))
	err := ir.Render(ctx, s, env, big)
	if err != nil {
		return err
	}
	draw.CatmullRom.Scale(img, bb, big, big.Bounds(), draw.Src, nil)
	return nil
}
