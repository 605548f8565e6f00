package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestPresetWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "sky.json")
	err := os.WriteFile(config, []byte(`{"frame": {"rain": 0.2}}`), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	header := filepath.Join(dir, "config.h")
	err = run(flags{config: config, preset: "HIGH", header: header, time: -1, rain: -1}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(header)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"#define NL_CLOUD2_MULTILAYER\n", "#define NL_AURORA "} {
		if !strings.Contains(string(b), want) {
			t.Errorf("header missing %q:\n%s", want, b)
		}
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	_, frame, err := loadConfig(flags{time: 7, rain: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if frame.Time != 7 || frame.Rain != 0.5 {
		t.Errorf("overrides not applied: %+v", frame)
	}
	_, _, err = loadConfig(flags{time: -1, rain: 3})
	if err == nil {
		t.Error("expected error for rain out of range")
	}
	_, _, err = loadConfig(flags{config: filepath.Join(t.TempDir(), "missing.json"), time: -1, rain: -1})
	if err == nil {
		t.Error("expected error for missing config file")
	}
}
