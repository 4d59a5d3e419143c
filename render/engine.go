// Package render drives the iteration controller to produce frames: a whole
// raster in streaming mode, pixel by pixel in on-demand mode, or tile by tile
// for the parallel scheduler.
package render

import (
	"context"
	"fmt"
	"image"
	"strings"

	mandel "github.com/marben/hwmandel"
	"github.com/marben/hwmandel/alu"
	"github.com/marben/hwmandel/ctrl"
)

// ctxCheckMask sets how often (in ticks) render loops look at the context.
const ctxCheckMask = 1<<12 - 1

// Multiplier selects the multiplier arrangement behind the ALU.
type Multiplier uint8

const (
	// MulArray is three single-cycle multipliers (two-cycle ALU).
	MulArray Multiplier = iota
	// MulSerial is three radix-4 serial multipliers side by side.
	MulSerial
	// MulShared is one radix-4 serial multiplier used three times per step.
	MulShared
)

func (m Multiplier) String() string {
	switch m {
	case MulArray:
		return "array"
	case MulSerial:
		return "serial"
	case MulShared:
		return "shared"
	}
	return fmt.Sprintf("Multiplier(%d)", uint8(m))
}

// Set implements pflag.Value.
func (m *Multiplier) Set(s string) error {
	switch strings.ToLower(s) {
	case "array":
		*m = MulArray
	case "serial":
		*m = MulSerial
	case "shared":
		*m = MulShared
	default:
		return fmt.Errorf("%w: unknown multiplier %q", mandel.ErrInvalidConfig, s)
	}
	return nil
}

func (m *Multiplier) Type() string { return "multiplier" }

// Engine builds a fresh controller per render call, so one Engine can be
// shared by concurrent workers.
type Engine struct {
	params alu.Params
	mul    Multiplier
}

type Option func(*Engine)

func WithParams(p alu.Params) Option {
	return func(e *Engine) { e.params = p }
}

func WithMultiplier(m Multiplier) Option {
	return func(e *Engine) { e.mul = m }
}

func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{params: alu.DefaultParams(), mul: MulArray}
	for _, o := range opts {
		o(e)
	}
	if err := e.params.Validate(); err != nil {
		return nil, fmt.Errorf("render.NewEngine: %w", err)
	}
	if e.mul > MulShared {
		return nil, fmt.Errorf("render.NewEngine: %w: %s", mandel.ErrInvalidConfig, e.mul)
	}
	return e, nil
}

func (e *Engine) Params() alu.Params { return e.params }

func (e *Engine) Multiplier() Multiplier { return e.mul }

func (e *Engine) newUnit() *alu.Unit {
	switch e.mul {
	case MulSerial:
		return alu.NewSerial(e.params)
	case MulShared:
		return alu.NewShared(e.params)
	}
	return alu.NewParallel(e.params)
}

func (e *Engine) newController(cfg mandel.Config, mode mandel.Mode, width, height int) (*ctrl.Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c, err := ctrl.New(e.newUnit(), width, height)
	if err != nil {
		return nil, err
	}
	cfg.Mode = mode
	c.Load(cfg)
	return c, nil
}

// Stream renders one frame in streaming mode, handing every pixel to sink in
// raster order. The controller stalls while sink is not ready; there is no
// timeout, only ctx.
func (e *Engine) Stream(ctx context.Context, cfg mandel.Config, width, height int, sink mandel.Sink) (ctrl.Stats, error) {
	c, err := e.newController(cfg, mandel.Streaming, width, height)
	if err != nil {
		return ctrl.Stats{}, fmt.Errorf("stream: %w", err)
	}

	log := mandel.Logger()
	log.Debug("stream start", "width", width, "height", height, "multiplier", e.mul)

	c.Start()
	for tick := 0; ; tick++ {
		if tick&ctxCheckMask == 0 {
			if err := ctx.Err(); err != nil {
				return c.Stats(), err
			}
		}
		c.SetReady(sink.Ready())
		c.Tick()
		if c.NewCtr() {
			x, y := c.OutPos()
			if err := sink.Accept(x, y, c.CtrOut()); err != nil {
				return c.Stats(), fmt.Errorf("sink.Accept(%d, %d): %w", x, y, err)
			}
		}
		if c.Finished() && !c.Running() {
			st := c.Stats()
			log.Debug("stream done", "cycles", st.Cycles, "stalls", st.StallCycles, "steps", st.Steps)
			return st, nil
		}
	}
}

// frameSink collects a streamed frame.
type frameSink struct {
	frame *mandel.Frame
}

func (s frameSink) Ready() bool { return true }

func (s frameSink) Accept(x, y int, ctr uint8) error {
	s.frame.SetCount(x, y, ctr)
	return nil
}

// RenderFrame renders a whole frame in streaming mode.
func (e *Engine) RenderFrame(ctx context.Context, cfg mandel.Config, width, height int) (*mandel.Frame, ctrl.Stats, error) {
	f := mandel.NewFrame(image.Rect(0, 0, max(width, 0), max(height, 0)), cfg.MaxIter)
	st, err := e.Stream(ctx, cfg, width, height, frameSink{f})
	if err != nil {
		return nil, st, err
	}
	return f, st, nil
}

// runPixel strobes start and ticks until the controller drops running.
func runPixel(ctx context.Context, c *ctrl.Controller) error {
	c.Start()
	c.Tick()
	for tick := 1; c.Running(); tick++ {
		if tick&ctxCheckMask == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		c.Tick()
	}
	return nil
}

// RenderOnDemand renders a frame with one start strobe per pixel, letting the
// controller advance the raster itself.
func (e *Engine) RenderOnDemand(ctx context.Context, cfg mandel.Config, width, height int) (*mandel.Frame, ctrl.Stats, error) {
	c, err := e.newController(cfg, mandel.OnDemand, width, height)
	if err != nil {
		return nil, ctrl.Stats{}, fmt.Errorf("on-demand: %w", err)
	}

	f := mandel.NewFrame(image.Rect(0, 0, width, height), cfg.MaxIter)
	for i := 0; i < width*height; i++ {
		if err := runPixel(ctx, c); err != nil {
			return nil, c.Stats(), err
		}
		x, y := c.OutPos()
		f.SetCount(x, y, c.CtrOut())
	}
	if !c.Finished() {
		return nil, c.Stats(), fmt.Errorf("on-demand: controller not finished after %d pixels", width*height)
	}
	return f, c.Stats(), nil
}

// RenderTile renders tile of a width x height raster with on-demand queries.
func (e *Engine) RenderTile(ctx context.Context, cfg mandel.Config, tile image.Rectangle, width, height int) (*mandel.Frame, error) {
	if err := mandel.CheckGeometry(width, height); err != nil {
		return nil, fmt.Errorf("tile %s: %w", tile, err)
	}
	clipped := tile.Intersect(image.Rect(0, 0, width, height))
	if clipped.Empty() {
		return nil, fmt.Errorf("tile %s: %w: outside %dx%d raster", tile, mandel.ErrInvalidGeometry, width, height)
	}

	c, err := e.newController(cfg, mandel.OnDemand, width, height)
	if err != nil {
		return nil, fmt.Errorf("tile %s: %w", tile, err)
	}

	f := mandel.NewFrame(clipped, cfg.MaxIter)
	for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
		for x := clipped.Min.X; x < clipped.Max.X; x++ {
			c.Seek(x, y)
			if err := runPixel(ctx, c); err != nil {
				return nil, err
			}
			f.SetCount(x, y, c.CtrOut())
		}
	}
	return f, nil
}

// Pixel answers a single on-demand query.
func (e *Engine) Pixel(ctx context.Context, cfg mandel.Config, x, y, width, height int) (uint8, error) {
	f, err := e.RenderTile(ctx, cfg, image.Rect(x, y, x+1, y+1), width, height)
	if err != nil {
		return 0, err
	}
	return f.Count(x, y), nil
}

// Count is the software reference for one pixel: alu.Step iterated from
// Z = 0 with the controller's termination rule.
func Count(p alu.Params, cfg mandel.Config, x, y int) uint8 {
	cr, ci := cfg.C(x, y)
	in := alu.Input{Cr: cr, Ci: ci}
	maxIter := cfg.MaxIter & 0x0f
	for n := uint8(0); ; n++ {
		out := alu.Step(p, in)
		if out.Overflow || out.Size || n >= maxIter {
			return n
		}
		in.Zr, in.Zi = out.Zr, out.Zi
	}
}

var _ mandel.Renderer = (*Engine)(nil)
