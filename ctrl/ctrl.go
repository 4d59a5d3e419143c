// Package ctrl is the iteration controller: it sequences ALU steps for one
// pixel until the orbit escapes, overflows or reaches the iteration cap,
// emits the count and walks the raster.
//
// Everything advances through Tick, one call per clock. Inputs set between
// ticks (Start, SetReady, Load, Seek) are sampled by the next Tick.
package ctrl

import (
	"fmt"

	mandel "github.com/marben/hwmandel"
	"github.com/marben/hwmandel/alu"
)

type State uint8

const (
	Idle State = iota
	Running
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Done:
		return "done"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// pixel is the context of the pixel being iterated. It is rebuilt from the
// raster position at the start of every pixel and never outlives it.
type pixel struct {
	x, y    int
	cr, ci  int64
	zr, zi  int64
	ctr     uint8
	maxIter uint8
}

// Stats are free-running counters, cleared by Reset.
type Stats struct {
	Cycles        uint64
	StallCycles   uint64
	Steps         uint64
	Pixels        uint64
	IgnoredStarts uint64
}

type Controller struct {
	alu           *alu.Unit
	width, height int

	cfg  mandel.Config
	mode mandel.Mode

	state State
	px    pixel
	x, y  int

	// inputs
	start bool
	ready bool

	// outputs
	ctrOut     uint8
	outX, outY int
	newCtr     bool
	finished   bool
	frameDone  bool

	stats Stats
}

// New returns a controller for a width x height raster driving u.
func New(u *alu.Unit, width, height int) (*Controller, error) {
	if err := mandel.CheckGeometry(width, height); err != nil {
		return nil, fmt.Errorf("ctrl.New: %w", err)
	}
	c := &Controller{alu: u, width: width, height: height}
	c.Reset()
	return c, nil
}

// Reset is the synchronous reset: idle at (0, 0), zero configuration,
// consumer assumed ready.
func (c *Controller) Reset() {
	c.alu.Reset()
	c.cfg = mandel.Config{}
	c.mode = mandel.OnDemand
	c.state = Idle
	c.px = pixel{}
	c.x, c.y = 0, 0
	c.start = false
	c.ready = true
	c.ctrOut = 0
	c.outX, c.outY = 0, 0
	c.newCtr = false
	c.finished = false
	c.frameDone = false
	c.stats = Stats{}
}

// Load stores a completed configuration word. Loading during a run is a
// loader error; the last value wins and takes effect from the next pixel.
func (c *Controller) Load(cfg mandel.Config) {
	cfg.MaxIter &= 0x0f
	c.cfg = cfg
}

func (c *Controller) Config() mandel.Config { return c.cfg }

// Start raises the start strobe for the next tick.
func (c *Controller) Start() { c.start = true }

// SetReady drives the consumer-ready input used for streaming backpressure.
func (c *Controller) SetReady(ready bool) { c.ready = ready }

// Seek loads the raster position. It is ignored unless the controller is idle.
func (c *Controller) Seek(x, y int) {
	if c.state != Idle || x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	c.x, c.y = x, y
}

func (c *Controller) Tick() {
	c.stats.Cycles++
	c.newCtr = false
	c.frameDone = false

	start := c.start
	c.start = false

	switch c.state {
	case Idle:
		if start {
			c.mode = c.cfg.Mode
			c.finished = false
			c.begin()
		}
	case Running:
		if start {
			c.stats.IgnoredStarts++
		}
		c.step()
	case Done:
		if start {
			c.stats.IgnoredStarts++
		}
		if c.mode == mandel.Streaming && !c.ready {
			c.stats.StallCycles++
			return
		}
		c.emit()
	}
}

func (c *Controller) begin() {
	cr, ci := c.cfg.C(c.x, c.y)
	c.px = pixel{x: c.x, y: c.y, cr: cr, ci: ci, maxIter: c.cfg.MaxIter}
	c.state = Running
	c.alu.Issue(alu.Input{Zr: c.px.zr, Zi: c.px.zi, Cr: c.px.cr, Ci: c.px.ci})
}

func (c *Controller) step() {
	c.alu.Tick()
	if !c.alu.Valid() {
		return
	}
	c.stats.Steps++

	out := c.alu.Output()
	if out.Overflow || out.Size || c.px.ctr >= c.px.maxIter {
		c.state = Done
		return
	}
	c.px.zr, c.px.zi = out.Zr, out.Zi
	c.px.ctr++
	c.alu.Issue(alu.Input{Zr: c.px.zr, Zi: c.px.zi, Cr: c.px.cr, Ci: c.px.ci})
}

func (c *Controller) emit() {
	c.ctrOut = c.px.ctr
	c.outX, c.outY = c.px.x, c.px.y
	c.newCtr = true
	c.stats.Pixels++

	c.x++
	if c.x == c.width {
		c.x = 0
		c.y++
		if c.y == c.height {
			c.y = 0
			c.frameDone = true
		}
	}

	if c.mode == mandel.Streaming && !c.frameDone {
		c.begin()
		return
	}
	c.state = Idle
	c.finished = true
}

// CtrOut is the count of the last emitted pixel, held until the next one.
func (c *Controller) CtrOut() uint8 { return c.ctrOut }

// NewCtr is high for the one tick in which CtrOut changed.
func (c *Controller) NewCtr() bool { return c.newCtr }

// OutPos is the raster position of the pixel in CtrOut.
func (c *Controller) OutPos() (x, y int) { return c.outX, c.outY }

// Running is high while a pixel (on-demand) or a frame (streaming) is active.
func (c *Controller) Running() bool { return c.state != Idle }

// Finished is high from the end of a run until the next run starts: per
// pixel in on-demand mode, per frame in streaming mode.
func (c *Controller) Finished() bool { return c.finished }

// FrameDone is high for the tick in which the last pixel of the raster was
// emitted.
func (c *Controller) FrameDone() bool { return c.frameDone }

// Position is the raster position of the next pixel to compute.
func (c *Controller) Position() (x, y int) { return c.x, c.y }

func (c *Controller) State() State { return c.state }

func (c *Controller) Stats() Stats { return c.stats }

// Geometry returns the raster size.
func (c *Controller) Geometry() (width, height int) { return c.width, c.height }
