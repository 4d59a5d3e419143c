package mandel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestConfigC(t *testing.T) {
	cfg := Presets["tt320"].Config
	if cfg.CrOffset != -1020 || cfg.CiOffset != -480 || cfg.Scale != 4 {
		t.Fatalf("tt320 preset = %+v", cfg)
	}
	cr, ci := cfg.C(319, 239)
	if cr != -1020+319*4 || ci != -480+239*4 {
		t.Errorf("C(319, 239) = (%d, %d)", cr, ci)
	}
	if got := cfg.ScaleRegister(); got != 3 {
		t.Errorf("ScaleRegister() = %d, want 3", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"reference", Presets["tt320"].Config, true},
		{"zero iterations", Config{MaxIter: 0, Scale: 1}, true},
		{"too many iterations", Config{MaxIter: 16, Scale: 1}, false},
		{"zero scale", Config{MaxIter: 3, Scale: 0}, false},
		{"bad mode", Config{MaxIter: 3, Scale: 1, Mode: 7}, false},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		if tt.ok && err != nil {
			t.Errorf("%s: Validate() = %v", tt.name, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: Validate() = %v, want ErrInvalidConfig", tt.name, err)
		}
	}
}

func TestModeJSON(t *testing.T) {
	b, err := json.Marshal(Config{Mode: Streaming})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"mode":"streaming"`) {
		t.Errorf("Marshal = %s", b)
	}

	var cfg Config
	if err := json.Unmarshal([]byte(`{"mode":"ondemand","max_iter":4}`), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != OnDemand || cfg.MaxIter != 4 {
		t.Errorf("Unmarshal = %+v", cfg)
	}
	if err := json.Unmarshal([]byte(`{"mode":"sideways"}`), &cfg); err == nil {
		t.Error("unknown mode accepted")
	}
}

func TestFrameDrawTile(t *testing.T) {
	full := NewFrame(image.Rect(0, 0, 8, 4), 15)
	tile := NewFrame(image.Rect(6, 2, 10, 6), 15)
	for i := range tile.Counts {
		tile.Counts[i] = 9
	}
	full.DrawTile(tile)

	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			want := uint8(0)
			if x >= 6 && y >= 2 {
				want = 9
			}
			if got := full.Count(x, y); got != want {
				t.Errorf("Count(%d, %d) = %d, want %d", x, y, got, want)
			}
		}
	}
	if got := full.Row(3); len(got) != 8 || got[7] != 9 {
		t.Errorf("Row(3) = %v", got)
	}
}

func TestFrameImage(t *testing.T) {
	f := NewFrame(image.Rect(0, 0, 2, 1), 15)
	f.SetCount(1, 0, 15)
	r, _, _, _ := f.At(1, 0).RGBA()
	if r != 0xffff {
		t.Errorf("At(1, 0) red = %#x, want 0xffff", r)
	}
	r, _, _, _ = f.At(0, 0).RGBA()
	if r != 0 {
		t.Errorf("At(0, 0) red = %#x, want 0", r)
	}
}

func TestCheckGeometry(t *testing.T) {
	if err := CheckGeometry(0, 10); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("CheckGeometry(0, 10) = %v", err)
	}
	if err := CheckGeometry(1, 1); err != nil {
		t.Errorf("CheckGeometry(1, 1) = %v", err)
	}
}

func TestConfigFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var cf ConfigFlags
	cf.Register(fs)

	if err := fs.Parse([]string{"--preset", "tt640", "--max-iter", "7", "--mode", "streaming"}); err != nil {
		t.Fatal(err)
	}
	cfg, w, h, err := cf.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	want := Presets["tt640"]
	if w != want.Width || h != want.Height {
		t.Errorf("geometry = %dx%d, want %dx%d", w, h, want.Width, want.Height)
	}
	if cfg.MaxIter != 7 || cfg.Scale != want.Scale || cfg.Mode != Streaming {
		t.Errorf("config = %+v", cfg)
	}
}

func TestConfigFlagsRejects(t *testing.T) {
	for _, args := range [][]string{
		{"--preset", "nowhere"},
		{"--max-iter", "20"},
		{"--width", "0"},
	} {
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		var cf ConfigFlags
		cf.Register(fs)
		if err := fs.Parse(args); err != nil {
			t.Fatal(err)
		}
		if _, _, _, err := cf.Resolve(); err == nil {
			t.Errorf("%v: Resolve() succeeded", args)
		}
	}
}

func TestLoggerDefaultSilent(t *testing.T) {
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger is enabled")
	}
}

func TestSetLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	Logger().Info("frame done", "pixels", 4)
	if !strings.Contains(buf.String(), "frame done") {
		t.Errorf("log output = %q", buf.String())
	}

	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) did not restore the silent logger")
	}
}
