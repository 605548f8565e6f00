package skyfxaux

import (
	"errors"
	"strings"
	"testing"
)

func TestLocateUniforms(t *testing.T) {
	// Stripped uniforms as in a scene without clouds or aurora.
	stripped := map[string]bool{"uTime": true, "uRain": true, "uFogColor": true, "uCloudHeight": true}
	var next int32
	lookup := func(name string) (int32, error) {
		name = strings.TrimSuffix(name, "\x00")
		if stripped[name] {
			return -1, errors.New("uniform not found: " + name)
		}
		next++
		return next, nil
	}
	u, err := locateUniforms(lookup)
	if err != nil {
		t.Fatal(err)
	}
	for _, loc := range []int32{u.height, u.time, u.rain, u.fog} {
		if loc != -1 {
			t.Errorf("stripped uniform should have location -1, got %d", loc)
		}
	}
	for _, loc := range []int32{u.res, u.yaw, u.pitch, u.focal, u.zenith, u.horizon, u.edge} {
		if loc <= 0 {
			t.Errorf("used uniform got location %d", loc)
		}
	}

	stripped["uYaw"] = true
	_, err = locateUniforms(lookup)
	if err == nil {
		t.Error("expected error for missing camera uniform")
	}
}
