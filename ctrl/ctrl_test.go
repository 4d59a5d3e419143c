package ctrl

import (
	"errors"
	"testing"

	mandel "github.com/marben/hwmandel"
	"github.com/marben/hwmandel/alu"
)

var reference = mandel.Presets["tt320"].Config

func newController(t *testing.T, width, height int) *Controller {
	t.Helper()
	c, err := New(alu.NewParallel(alu.DefaultParams()), width, height)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// count is the expected escape count for (x, y), computed with alu.Step.
func count(cfg mandel.Config, x, y int) uint8 {
	p := alu.DefaultParams()
	cr, ci := cfg.C(x, y)
	in := alu.Input{Cr: cr, Ci: ci}
	for n := uint8(0); ; n++ {
		out := alu.Step(p, in)
		if out.Overflow || out.Size || n == cfg.MaxIter {
			return n
		}
		in.Zr, in.Zi = out.Zr, out.Zi
	}
}

// pixelOnDemand strobes start once and waits for running to drop.
func pixelOnDemand(t *testing.T, c *Controller) uint8 {
	t.Helper()
	c.Start()
	c.Tick()
	for i := 0; c.Running(); i++ {
		if i > 10000 {
			t.Fatal("pixel never finished")
		}
		c.Tick()
	}
	return c.CtrOut()
}

func TestNewRejectsGeometry(t *testing.T) {
	if _, err := New(alu.NewParallel(alu.DefaultParams()), 0, 4); !errors.Is(err, mandel.ErrInvalidGeometry) {
		t.Errorf("New(0, 4) = %v, want ErrInvalidGeometry", err)
	}
}

func TestOnDemandPixels(t *testing.T) {
	c := newController(t, 320, 240)
	c.Load(reference)

	for _, pos := range [][2]int{{0, 0}, {160, 120}, {255, 120}, {319, 239}, {100, 17}} {
		c.Seek(pos[0], pos[1])
		got := pixelOnDemand(t, c)
		if want := count(reference, pos[0], pos[1]); got != want {
			t.Errorf("pixel %v = %d, want %d", pos, got, want)
		}
		if x, y := c.OutPos(); x != pos[0] || y != pos[1] {
			t.Errorf("OutPos() = (%d, %d), want %v", x, y, pos)
		}
		if !c.Finished() {
			t.Errorf("pixel %v: Finished() low after completion", pos)
		}
	}
}

func TestOnDemandStrobes(t *testing.T) {
	c := newController(t, 4, 1)
	c.Load(mandel.Config{MaxIter: 15, Scale: 1})

	if c.Running() || c.Finished() {
		t.Fatal("controller active after reset")
	}

	c.Start()
	c.Tick()
	if !c.Running() || c.State() != Running {
		t.Fatalf("state after start = %s", c.State())
	}

	newCtr := 0
	for c.Running() {
		c.Tick()
		if c.NewCtr() {
			newCtr++
		}
	}
	if newCtr != 1 {
		t.Errorf("new_ctr asserted %d times, want 1", newCtr)
	}

	// Outputs hold until the next start.
	held := c.CtrOut()
	for i := 0; i < 10; i++ {
		c.Tick()
		if c.NewCtr() || c.CtrOut() != held || !c.Finished() || c.Running() {
			t.Fatal("outputs changed while idle")
		}
	}
	if x, y := c.Position(); x != 1 || y != 0 {
		t.Errorf("Position() = (%d, %d), want (1, 0)", x, y)
	}
}

func TestOnDemandTiming(t *testing.T) {
	c := newController(t, 1, 1)
	// C = 0 never escapes, so the pixel runs MaxIter+1 ALU steps.
	c.Load(mandel.Config{MaxIter: 5, Scale: 1})

	c.Start()
	ticks := 0
	for {
		c.Tick()
		ticks++
		if c.NewCtr() {
			break
		}
	}
	// start tick + 6 steps of 2 ticks + emit tick
	if want := 1 + 6*2 + 1; ticks != want {
		t.Errorf("pixel took %d ticks, want %d", ticks, want)
	}
	if c.CtrOut() != 5 {
		t.Errorf("CtrOut() = %d, want 5", c.CtrOut())
	}
	if s := c.Stats(); s.Steps != 6 || s.Pixels != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestZeroIterations(t *testing.T) {
	c := newController(t, 1, 1)
	c.Load(mandel.Config{MaxIter: 0, Scale: 1})
	if got := pixelOnDemand(t, c); got != 0 {
		t.Errorf("CtrOut() = %d, want 0", got)
	}
}

func TestOverflowTerminates(t *testing.T) {
	c := newController(t, 1, 1)
	// C far outside the representable range overflows on the first step.
	c.Load(mandel.Config{MaxIter: 15, Scale: 1, CrOffset: 5000})
	if got := pixelOnDemand(t, c); got != 0 {
		t.Errorf("CtrOut() = %d, want 0", got)
	}
}

func TestSpuriousStartIgnored(t *testing.T) {
	c := newController(t, 2, 1)
	c.Load(mandel.Config{MaxIter: 15, Scale: 1})

	c.Start()
	c.Tick()
	pixels := 0
	for c.Running() {
		c.Start()
		c.Tick()
		if c.NewCtr() {
			pixels++
		}
	}
	if pixels != 1 {
		t.Errorf("%d pixels emitted, want 1", pixels)
	}
	if c.Stats().IgnoredStarts == 0 {
		t.Error("no ignored starts counted")
	}
	// Nothing was queued.
	for i := 0; i < 50; i++ {
		c.Tick()
	}
	if c.Running() {
		t.Error("a start strobe was queued")
	}
}

func TestMaxIterMasked(t *testing.T) {
	c := newController(t, 1, 1)
	c.Load(mandel.Config{MaxIter: 0x13, Scale: 1})
	if got := c.Config().MaxIter; got != 3 {
		t.Errorf("MaxIter = %d, want 3", got)
	}
}

func TestLoadDuringRunKeepsPixelLimit(t *testing.T) {
	c := newController(t, 2, 1)
	// C near 0 never escapes, so each pixel runs to its limit.
	c.Load(mandel.Config{MaxIter: 15, Scale: 1})

	c.Start()
	c.Tick()
	c.Load(mandel.Config{MaxIter: 2, Scale: 1})
	for i := 0; c.Running(); i++ {
		if i > 10000 {
			t.Fatal("pixel never finished")
		}
		c.Tick()
	}
	if got := c.CtrOut(); got != 15 {
		t.Errorf("in-flight pixel = %d, want 15", got)
	}

	if got := pixelOnDemand(t, c); got != 2 {
		t.Errorf("next pixel = %d, want 2", got)
	}
}

type emitted struct {
	x, y int
	ctr  uint8
}

// stream runs one streaming frame, calling ready before every tick.
func stream(t *testing.T, c *Controller, ready func(tick int) bool) []emitted {
	t.Helper()
	var out []emitted
	c.Start()
	for tick := 0; ; tick++ {
		if tick > 5_000_000 {
			t.Fatal("frame never finished")
		}
		c.SetReady(ready(tick))
		c.Tick()
		if c.NewCtr() {
			x, y := c.OutPos()
			out = append(out, emitted{x, y, c.CtrOut()})
		}
		if tick > 0 && !c.Running() {
			return out
		}
	}
}

func TestStreamingRasterOrder(t *testing.T) {
	const w, h = 16, 12
	cfg := mandel.Config{MaxIter: 15, Scale: 80, CrOffset: -1020, CiOffset: -480, Mode: mandel.Streaming}
	c := newController(t, w, h)
	c.Load(cfg)

	frameDone := 0
	c.Start()
	var got []emitted
	for c.Tick(); c.Running(); c.Tick() {
		if c.NewCtr() {
			x, y := c.OutPos()
			got = append(got, emitted{x, y, c.CtrOut()})
		}
		if c.FrameDone() {
			frameDone++
		}
	}
	// the final emit happens on the tick that drops running
	if c.NewCtr() {
		x, y := c.OutPos()
		got = append(got, emitted{x, y, c.CtrOut()})
	}
	if c.FrameDone() {
		frameDone++
	}

	if len(got) != w*h {
		t.Fatalf("%d pixels emitted, want %d", len(got), w*h)
	}
	for i, e := range got {
		if e.x != i%w || e.y != i/w {
			t.Fatalf("pixel %d at (%d, %d), want (%d, %d)", i, e.x, e.y, i%w, i/w)
		}
		if e.ctr > cfg.MaxIter {
			t.Fatalf("pixel %d count %d exceeds %d", i, e.ctr, cfg.MaxIter)
		}
		if want := count(cfg, e.x, e.y); e.ctr != want {
			t.Fatalf("pixel (%d, %d) = %d, want %d", e.x, e.y, e.ctr, want)
		}
	}
	if frameDone != 1 {
		t.Errorf("frame done fired %d times, want 1", frameDone)
	}
	if !c.Finished() {
		t.Error("Finished() low after the frame")
	}
	if x, y := c.Position(); x != 0 || y != 0 {
		t.Errorf("Position() = (%d, %d) after wrap, want (0, 0)", x, y)
	}
}

func TestStreamingBackpressure(t *testing.T) {
	const w, h = 8, 4
	cfg := mandel.Config{MaxIter: 15, Scale: 160, CrOffset: -1020, CiOffset: -480, Mode: mandel.Streaming}

	free := newController(t, w, h)
	free.Load(cfg)
	want := stream(t, free, func(int) bool { return true })

	slow := newController(t, w, h)
	slow.Load(cfg)
	got := stream(t, slow, func(tick int) bool { return tick%7 == 0 })

	if len(got) != len(want) {
		t.Fatalf("%d pixels with backpressure, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pixel %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if slow.Stats().StallCycles == 0 {
		t.Error("no stall cycles with a slow consumer")
	}
	if slow.Stats().Cycles <= free.Stats().Cycles {
		t.Errorf("slow consumer took %d cycles, free took %d", slow.Stats().Cycles, free.Stats().Cycles)
	}
}

func TestStreamingStallHoldsRunning(t *testing.T) {
	c := newController(t, 2, 1)
	c.Load(mandel.Config{MaxIter: 1, Scale: 1, Mode: mandel.Streaming})
	c.SetReady(false)
	c.Start()
	for i := 0; i < 100; i++ {
		c.Tick()
		if c.NewCtr() {
			t.Fatal("pixel emitted while the consumer was not ready")
		}
	}
	if !c.Running() || c.State() != Done {
		t.Fatalf("state = %s, running = %v", c.State(), c.Running())
	}

	c.SetReady(true)
	c.Tick()
	if !c.NewCtr() {
		t.Fatal("pixel not emitted once ready")
	}
}

func TestResetDeterminism(t *testing.T) {
	const w, h = 10, 6
	cfg := mandel.Config{MaxIter: 15, Scale: 120, CrOffset: -1020, CiOffset: -480, Mode: mandel.Streaming}
	c := newController(t, w, h)

	c.Load(cfg)
	first := stream(t, c, func(int) bool { return true })
	firstStats := c.Stats()

	c.Reset()
	c.Load(cfg)
	second := stream(t, c, func(int) bool { return true })

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("pixel %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
	if c.Stats() != firstStats {
		t.Errorf("stats differ after reset: %+v vs %+v", c.Stats(), firstStats)
	}
}

func TestSeekIgnoredWhileRunning(t *testing.T) {
	c := newController(t, 4, 4)
	c.Load(mandel.Config{MaxIter: 15, Scale: 1})
	c.Start()
	c.Tick()
	c.Seek(3, 3)
	for c.Running() {
		c.Tick()
	}
	if x, y := c.OutPos(); x != 0 || y != 0 {
		t.Errorf("OutPos() = (%d, %d), want (0, 0)", x, y)
	}
}

func TestSharedMultiplierController(t *testing.T) {
	c, err := New(alu.NewShared(alu.DefaultParams()), 320, 240)
	if err != nil {
		t.Fatal(err)
	}
	c.Load(reference)
	for _, pos := range [][2]int{{0, 0}, {200, 100}, {318, 5}} {
		c.Seek(pos[0], pos[1])
		if got, want := pixelOnDemand(t, c), count(reference, pos[0], pos[1]); got != want {
			t.Errorf("pixel %v = %d, want %d", pos, got, want)
		}
	}
}
