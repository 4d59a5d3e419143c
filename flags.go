package mandel

import (
	"fmt"

	"github.com/spf13/pflag"
)

// ConfigFlags binds the configuration word and raster size to a flag set.
// A preset, when named, fills every field the user did not set explicitly.
type ConfigFlags struct {
	Preset string
	Config Config
	Width  int
	Height int

	fs *pflag.FlagSet
}

func (cf *ConfigFlags) Register(fs *pflag.FlagSet) {
	def := Presets["tt320"]
	cf.fs = fs

	fs.StringVar(&cf.Preset, "preset", "", "named configuration (overridden by explicit flags)")
	fs.Uint8Var(&cf.Config.MaxIter, "max-iter", def.MaxIter, "iteration cap, 0..15")
	fs.Int64Var(&cf.Config.Scale, "scale", def.Scale, "C step per pixel in fixed-point LSBs")
	fs.Int64Var(&cf.Config.CrOffset, "cr-offset", def.CrOffset, "real part of C at x=0")
	fs.Int64Var(&cf.Config.CiOffset, "ci-offset", def.CiOffset, "imaginary part of C at y=0")
	fs.Var(&cf.Config.Mode, "mode", "controller mode: ondemand or streaming")
	fs.IntVarP(&cf.Width, "width", "W", def.Width, "raster width")
	fs.IntVarP(&cf.Height, "height", "H", def.Height, "raster height")
}

// Resolve applies the preset and validates the result.
func (cf *ConfigFlags) Resolve() (Config, int, int, error) {
	cfg, w, h := cf.Config, cf.Width, cf.Height

	if cf.Preset != "" {
		p, err := LookupPreset(cf.Preset)
		if err != nil {
			return Config{}, 0, 0, err
		}
		changed := func(name string) bool { return cf.fs != nil && cf.fs.Changed(name) }
		if !changed("max-iter") {
			cfg.MaxIter = p.MaxIter
		}
		if !changed("scale") {
			cfg.Scale = p.Scale
		}
		if !changed("cr-offset") {
			cfg.CrOffset = p.CrOffset
		}
		if !changed("ci-offset") {
			cfg.CiOffset = p.CiOffset
		}
		if !changed("width") {
			w = p.Width
		}
		if !changed("height") {
			h = p.Height
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, 0, 0, fmt.Errorf("config: %w", err)
	}
	if err := CheckGeometry(w, h); err != nil {
		return Config{}, 0, 0, fmt.Errorf("config: %w", err)
	}
	return cfg, w, h, nil
}
