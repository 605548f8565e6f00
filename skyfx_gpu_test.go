//go:build !tinygo && cgo

package skyfx_test

import (
	"bytes"
	"log"
	"math/rand"
	"os"
	"runtime"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/skyfx"
	"github.com/soypat/skyfx/glbuild"
	"github.com/soypat/skyfx/gleval"
)

var gpuAvailable bool

// Since GPU must be run in main thread we need to do some dark arts for GPU code to be code-covered.
func TestMain(m *testing.M) {
	runtime.LockOSThread()
	term, err := gleval.Init1x1GLFW()
	if err != nil {
		log.Println("GPU tests disabled:", err)
	} else {
		gpuAvailable = true
	}
	code := m.Run()
	if term != nil {
		term()
	}
	os.Exit(code)
}

func TestSceneGPU(t *testing.T) {
	if !gpuAvailable {
		t.Skip("no GPU context")
	}
	rng := rand.New(rand.NewSource(1))
	frags := sceneFragments(1024, rng)
	cpu := make([]gleval.RGBA, len(frags))
	gpu := make([]gleval.RGBA, len(frags))
	prog := glbuild.NewDefaultProgrammer()
	invocX, _, _ := prog.ComputeInvocations()
	var pool gleval.BufferPool
	var source bytes.Buffer

	for _, preset := range []skyfx.Preset{skyfx.PresetLow, skyfx.PresetMedium, skyfx.PresetHigh} {
		cfg := skyfx.DefaultConfig()
		skyfx.ApplyPreset(&cfg, preset)
		scene, err := skyfx.NewScene(cfg)
		if err != nil {
			t.Fatal(err)
		}
		fog := ms3.Vec{X: 0.1, Y: 0.12, Z: 0.2}
		env := skyfx.SkyColorsFor(0.1, fog, cfg.Sky).Env(12.5, 0.1, fog)
		err = scene.Sample(env, frags, cpu, &pool)
		if err != nil {
			t.Fatal(err)
		}
		source.Reset()
		_, err = prog.WriteComputeSky(&source, scene)
		if err != nil {
			t.Fatal(err)
		}
		sampler, err := gleval.NewComputeGPUSampler(&source, invocX)
		if err != nil {
			t.Fatal(err)
		}
		err = sampler.Sample(env, frags, gpu, nil)
		sampler.Close()
		if err != nil {
			t.Fatal(err)
		}
		// The sine hash amplifies float differences between CPU and GPU so
		// a few fragments landing near cell edges may legitimately disagree.
		const tol = 2e-2
		mismatches := 0
		for i := range cpu {
			c, g := cpu[i], gpu[i]
			if math32.Abs(c.R-g.R) > tol || math32.Abs(c.G-g.G) > tol || math32.Abs(c.B-g.B) > tol || math32.Abs(c.A-g.A) > tol {
				mismatches++
			}
		}
		if mismatches > len(cpu)/20 {
			t.Errorf("%s: %d/%d fragments differ between CPU and GPU", preset, mismatches, len(cpu))
		}
	}
}
