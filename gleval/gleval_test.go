package gleval_test

import (
	"testing"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/skyfx/gleval"
)

func TestBufferPool(t *testing.T) {
	var bp gleval.BufferPool
	a := bp.Acquire(16)
	b := bp.Acquire(8)
	if len(a) != 16 || len(b) != 8 {
		t.Fatalf("bad lengths %d %d", len(a), len(b))
	}
	if bp.Acquired() != 2 {
		t.Fatalf("want 2 acquired, got %d", bp.Acquired())
	}
	bp.Release(a)
	bp.Release(b)
	if bp.Acquired() != 0 {
		t.Fatalf("want 0 acquired, got %d", bp.Acquired())
	}
	c := bp.Acquire(12)
	if len(c) != 12 || cap(c) < 16 {
		t.Errorf("expected reuse of released buffer, got len=%d cap=%d", len(c), cap(c))
	}
}

func TestGetBufferPool(t *testing.T) {
	var bp gleval.BufferPool
	got, err := gleval.GetBufferPool(&bp)
	if err != nil || got != &bp {
		t.Errorf("GetBufferPool(*BufferPool)=%p,%v", got, err)
	}
	got, err = gleval.GetBufferPool(poolHolder{&bp})
	if err != nil || got != &bp {
		t.Errorf("GetBufferPool(holder)=%p,%v", got, err)
	}
	for _, bad := range []any{nil, 3, (*gleval.BufferPool)(nil), poolHolder{}} {
		_, err = gleval.GetBufferPool(bad)
		if err == nil {
			t.Errorf("expected error for %T", bad)
		}
	}
}

type poolHolder struct{ bp *gleval.BufferPool }

func (h poolHolder) BufferPool() *gleval.BufferPool { return h.bp }

func TestCheckBuffers(t *testing.T) {
	if err := gleval.CheckBuffers(make([]gleval.Fragment, 3), make([]gleval.RGBA, 3)); err != nil {
		t.Error(err)
	}
	if gleval.CheckBuffers(make([]gleval.Fragment, 3), make([]gleval.RGBA, 2)) == nil {
		t.Error("expected length mismatch error")
	}
	if gleval.CheckBuffers(nil, nil) == nil {
		t.Error("expected empty buffer error")
	}
}

func TestEnvFloats(t *testing.T) {
	env := gleval.Env{
		Time:        1,
		Rain:        2,
		FogColor:    ms3.Vec{X: 3, Y: 4, Z: 5},
		Zenith:      ms3.Vec{X: 6, Y: 7, Z: 8},
		Horizon:     ms3.Vec{X: 9, Y: 10, Z: 11},
		HorizonEdge: ms3.Vec{X: 12, Y: 13, Z: 14},
	}
	got := env.AppendFloats(nil)
	if len(got) != gleval.EnvFloats {
		t.Fatalf("want %d floats, got %d", gleval.EnvFloats, len(got))
	}
	for i, v := range got {
		if v != float32(i+1) {
			t.Errorf("float %d: want %d, got %v", i, i+1, v)
		}
	}
}
