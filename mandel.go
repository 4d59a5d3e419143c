package mandel

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrInvalidGeometry = errors.New("invalid geometry")
)

// MaxIterLimit is the largest iteration cap the 4-bit counter can hold.
const MaxIterLimit = 15

// Mode selects how the controller walks the raster.
type Mode uint8

const (
	// OnDemand computes one pixel per start strobe.
	OnDemand Mode = iota
	// Streaming renders a whole frame after a single start strobe.
	Streaming
)

func (m Mode) String() string {
	switch m {
	case OnDemand:
		return "ondemand"
	case Streaming:
		return "streaming"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Set implements pflag.Value.
func (m *Mode) Set(s string) error {
	switch strings.ToLower(s) {
	case "ondemand", "on-demand":
		*m = OnDemand
	case "streaming", "stream":
		*m = Streaming
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
	}
	return nil
}

func (m *Mode) Type() string { return "mode" }

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error { return m.Set(string(b)) }

// Config is the configuration word loaded into the controller before a run.
// Offsets and Scale are raw fixed-point values in the ALU's Z format.
type Config struct {
	MaxIter uint8 `json:"max_iter"`
	// Scale is the step of C between neighbouring pixels.
	Scale    int64 `json:"scale"`
	CrOffset int64 `json:"cr_offset"`
	CiOffset int64 `json:"ci_offset"`
	Mode     Mode  `json:"mode"`
}

// C returns the constant for raster position (x, y).
func (c Config) C(x, y int) (cr, ci int64) {
	return c.CrOffset + int64(x)*c.Scale, c.CiOffset + int64(y)*c.Scale
}

// ScaleRegister is the value the hardware scale register holds (Scale-1).
func (c Config) ScaleRegister() int64 {
	return c.Scale - 1
}

func (c Config) Validate() error {
	if c.MaxIter > MaxIterLimit {
		return fmt.Errorf("%w: max iterations %d exceed %d", ErrInvalidConfig, c.MaxIter, MaxIterLimit)
	}
	if c.Scale < 1 {
		return fmt.Errorf("%w: scale %d must be at least 1", ErrInvalidConfig, c.Scale)
	}
	if c.Mode != OnDemand && c.Mode != Streaming {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, c.Mode)
	}
	return nil
}

// Preset is a named configuration together with the raster it was made for.
type Preset struct {
	Config
	Width, Height int
}

// Presets are known-good configurations for the default 9-bit ALU format.
var Presets = map[string]Preset{
	// The reference frame: whole set on a 320x240 raster.
	"tt320": {
		Config: Config{MaxIter: 15, Scale: 4, CrOffset: -(511 * 320 / 640) * 4, CiOffset: -(240 / 2) * 4},
		Width:  320,
		Height: 240,
	},
	// Same view on a VGA raster.
	"tt640": {
		Config: Config{MaxIter: 15, Scale: 2, CrOffset: -(511 * 640 / 640) * 2, CiOffset: -(480 / 2) * 2},
		Width:  640,
		Height: 480,
	},
	// Seahorse valley, around -0.75 + 0.1i.
	"seahorse": {
		Config: Config{MaxIter: 15, Scale: 1, CrOffset: -384 - 160, CiOffset: 51 - 120},
		Width:  320,
		Height: 240,
	},
	// Elephant valley, around 0.3 + 0i.
	"elephant": {
		Config: Config{MaxIter: 15, Scale: 1, CrOffset: 154 - 160, CiOffset: -120},
		Width:  320,
		Height: 240,
	},
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for n := range Presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LookupPreset returns the named preset.
func LookupPreset(name string) (Preset, error) {
	p, ok := Presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: unknown preset %q (known: %s)",
			ErrInvalidConfig, name, strings.Join(PresetNames(), ", "))
	}
	return p, nil
}
