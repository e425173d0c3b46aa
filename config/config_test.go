package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Version != "1" {
		t.Errorf("expected version 1, got %q", cfg.Version)
	}
	if cfg.Dataset.Variant != "kand" || cfg.Dataset.Split != "train" {
		t.Errorf("unexpected dataset defaults: %+v", cfg.Dataset)
	}
	if cfg.Mask.RetainLimit != 10 {
		t.Errorf("expected retain limit 10, got %d", cfg.Mask.RetainLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "kand.yaml")
	cfg := DefaultConfig()
	cfg.Dataset.Variant = "minikand"
	cfg.Dataset.Finetuning = 3
	cfg.Mask.Policy = "specific"
	cfg.Mask.Samples = []int{1, 2}
	cfg.Mask.Figures = []int{0, 2}
	cfg.Mask.Objects = []int{1, 1}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}

	p := got.Policy()
	if !reflect.DeepEqual(p.Samples, []int{1, 2}) || !reflect.DeepEqual(p.FigureIdx, []int{0, 2}) {
		t.Errorf("policy lists not carried over: %+v", p)
	}
	if got.Options().Finetuning != 3 {
		t.Errorf("finetuning not carried over: %+v", got.Options())
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kand.yaml")
	if err := os.WriteFile(path, []byte("dataset:\n  split: test\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Dataset.Split != "test" {
		t.Errorf("expected split test, got %q", cfg.Dataset.Split)
	}
	if cfg.Dataset.Variant != "kand" || cfg.Report.OutDir != "output" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad-yaml.yaml": "dataset: [",
		"variant.yaml":  "dataset:\n  variant: imagenet\n",
		"negative.yaml": "dataset:\n  finetuning: -2\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}
