package skyfxaux

import (
	"context"

	"github.com/soypat/skyfx"
)

type UIConfig struct {
	Width, Height int
	// Context stops the viewer when done. May be nil.
	Context context.Context
	Config  skyfx.Config
	// Frame sets the initial camera and the sky at time zero of the viewer.
	Frame Frame
	// TimeScale multiplies the wall clock to advance the sky's time. Zero freezes the sky.
	TimeScale float32
}

// UI opens a window that shades root on the GPU with a mouse controlled camera.
// Dragging with the left button looks around and scrolling changes the field of view.
// It must be called from the main goroutine and requires CGo.
func UI(root skyfx.Node, cfg UIConfig) error {
	return ui(root, cfg)
}

// viewerUniforms holds the uniform locations of the visualizer program.
// Location -1 marks a uniform the driver stripped because the sky never reads
// it; gl.Uniform* calls on it are ignored.
type viewerUniforms struct {
	res, yaw, pitch, focal                         int32
	height, time, rain, fog, zenith, horizon, edge int32
}

// locateUniforms resolves the viewer's uniforms with lookup. Only the
// uniforms that build the view ray are required.
func locateUniforms(lookup func(name string) (int32, error)) (u viewerUniforms, err error) {
	for _, loc := range []struct {
		dst      *int32
		name     string
		optional bool
	}{
		{&u.res, "uResolution\x00", false},
		{&u.yaw, "uYaw\x00", false},
		{&u.pitch, "uPitch\x00", false},
		{&u.focal, "uFocal\x00", false},
		{&u.height, "uCloudHeight\x00", true},
		{&u.time, "uTime\x00", true},
		{&u.rain, "uRain\x00", true},
		{&u.fog, "uFogColor\x00", true},
		{&u.zenith, "uZenith\x00", true},
		{&u.horizon, "uHorizon\x00", true},
		{&u.edge, "uHorizonEdge\x00", true},
	} {
		*loc.dst, err = lookup(loc.name)
		if err != nil {
			if !loc.optional {
				return u, err
			}
			*loc.dst = -1
		}
	}
	return u, nil
}
