package mult

import (
	"math/rand"
	"testing"
)

// run drives m through one multiplication and returns the tick at which
// finished asserted.
func run(t *testing.T, m Multiplier, x, y int64) int {
	t.Helper()

	m.Start(x, y)
	for tick := 1; tick <= 64; tick++ {
		m.Tick()
		if m.Finished() {
			return tick
		}
	}
	t.Fatalf("%d * %d: finished never asserted", x, y)
	return 0
}

func TestBoothExhaustive8Bit(t *testing.T) {
	for x := int64(-128); x < 128; x++ {
		for y := int64(-128); y < 128; y++ {
			if got := Booth(x, y, 8); got != x*y {
				t.Fatalf("Booth(%d, %d, 8) = %d, want %d", x, y, got, x*y)
			}
		}
	}
}

func TestBoothWide(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100000; i++ {
		x := rng.Int63n(4096) - 2048
		y := rng.Int63n(4096) - 2048
		if got := Booth(x, y, 12); got != x*y {
			t.Fatalf("Booth(%d, %d, 12) = %d, want %d", x, y, got, x*y)
		}
	}
}

func TestSerialCorners(t *testing.T) {
	cases := [][2]int64{
		{0, 0},
		{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
		{2, 2}, {2, -2}, {-2, 2}, {-2, -2},
		{3, 3}, {3, -3}, {-3, 3}, {-3, -3},
		{127, 127}, {127, -128}, {-128, 127}, {-128, -128},
	}

	m := NewSerial(8)
	for _, c := range cases {
		tick := run(t, m, c[0], c[1])
		if tick != m.Latency() {
			t.Errorf("%d * %d: finished at tick %d, want %d", c[0], c[1], tick, m.Latency())
		}
		if got := m.Result(); got != c[0]*c[1] {
			t.Errorf("%d * %d = %d, want %d", c[0], c[1], got, c[0]*c[1])
		}
	}
}

func TestSerialExhaustive8Bit(t *testing.T) {
	m := NewSerial(8)
	if m.Latency() != 5 {
		t.Fatalf("Latency() = %d, want 5", m.Latency())
	}

	for x := int64(-128); x < 128; x++ {
		for y := int64(-128); y < 128; y++ {
			m.Start(x, y)
			for tick := 1; tick <= m.Latency(); tick++ {
				m.Tick()
				if done := m.Finished(); done != (tick == m.Latency()) {
					t.Fatalf("%d * %d: Finished() = %v at tick %d", x, y, done, tick)
				}
			}
			if got := m.Result(); got != x*y {
				t.Fatalf("%d * %d = %d, want %d", x, y, got, x*y)
			}
		}
	}
}

func TestSerialHoldsResult(t *testing.T) {
	m := NewSerial(8)
	run(t, m, -77, 91)

	for i := 0; i < 20; i++ {
		m.Tick()
		if !m.Finished() || m.Result() != -77*91 {
			t.Fatalf("tick %d after finish: finished=%v result=%d", i, m.Finished(), m.Result())
		}
	}

	// The held product survives until the next start is sampled.
	m.Start(5, 5)
	if m.Result() != -77*91 {
		t.Fatalf("result changed before the start was sampled: %d", m.Result())
	}
	m.Tick()
	if m.Finished() {
		t.Fatal("finished still asserted after a new start was sampled")
	}
}

func TestSerialConstantLatency(t *testing.T) {
	m := NewSerial(12)
	want := m.Latency()
	for _, c := range [][2]int64{{0, 0}, {0, 2047}, {-2048, -2048}, {1, 0}} {
		if got := run(t, m, c[0], c[1]); got != want {
			t.Errorf("%d * %d: latency %d, want %d", c[0], c[1], got, want)
		}
	}
}

func TestSerialTruncatesOperands(t *testing.T) {
	m := NewSerial(8)
	run(t, m, 200, 3) // 200 wraps to -56 in 8 bits
	if got := m.Result(); got != -56*3 {
		t.Errorf("Result() = %d, want %d", got, -56*3)
	}
}

func TestArray(t *testing.T) {
	m := NewArray(12)
	if tick := run(t, m, -2048, 2047); tick != 1 {
		t.Errorf("finished at tick %d, want 1", tick)
	}
	if got := m.Result(); got != -2048*2047 {
		t.Errorf("Result() = %d, want %d", got, -2048*2047)
	}
}

func TestReset(t *testing.T) {
	m := NewSerial(8)
	run(t, m, 3, 4)
	m.Reset()
	if m.Finished() || m.Result() != 0 {
		t.Errorf("after Reset finished=%v result=%d", m.Finished(), m.Result())
	}
	if m.Width() != 8 {
		t.Errorf("Reset changed width to %d", m.Width())
	}
}

func TestNewSerialRejectsOddWidth(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewSerial(7) did not panic")
		}
	}()
	NewSerial(7)
}
