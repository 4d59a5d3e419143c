// Package mult models the signed multiplier primitives used by the
// complex-step unit. Every multiplier follows the same handshake: Start
// latches operands, the next Tick samples them, and Finished asserts after
// Latency ticks. The product then stays stable until the next start is
// sampled.
package mult

import (
	"fmt"

	"github.com/marben/hwmandel/fixed"
)

// DefaultWidth is the operand width of the serial multiplier cell.
const DefaultWidth = 8

// Multiplier is a clocked signed multiplier with a start/finished handshake.
type Multiplier interface {
	// Start presents operands together with the start strobe.
	// They are sampled on the next Tick.
	Start(x, y int64)
	Tick()
	Finished() bool
	Result() int64
	// Latency is the number of ticks from Start to Finished.
	Latency() int
	Reset()
}

// boothDigit maps the bit triple (y[2i+1], y[2i], y[2i-1]) to its radix-4 digit.
var boothDigit = [8]int64{0, 1, 1, 2, -2, -1, -1, 0}

func checkWidth(width uint) {
	if width < 2 || width > 30 || width%2 != 0 {
		panic(fmt.Sprintf("mult: operand width must be even and in [2,30], got %d", width))
	}
}

// Booth returns x*y computed with radix-4 Booth recoding of y. Both operands
// are truncated to width bits first, the result is a 2*width-bit signed value.
func Booth(x, y int64, width uint) int64 {
	checkWidth(width)

	mcand := fixed.SignExtend(x, width)
	recoded := (uint64(y) & (1<<width - 1)) << 1

	var acc int64
	for i := uint(0); i < width/2; i++ {
		d := boothDigit[(recoded>>(2*i))&7]
		acc += (d * mcand) << (2 * i)
	}
	return fixed.SignExtend(acc, 2*width)
}

// Serial is a radix-4 serial multiplier: one load cycle, then two bits of the
// multiplier consumed per cycle. Latency does not depend on operand values.
type Serial struct {
	width uint

	// start strobe and operand inputs
	start  bool
	inX    int64
	inY    int64
	busy   bool
	mcand  int64
	mplier uint64
	step   uint
	acc    int64

	finished bool
	result   int64
}

// NewSerial returns a serial multiplier for width-bit operands.
// It panics if width is odd or out of range.
func NewSerial(width uint) *Serial {
	checkWidth(width)
	return &Serial{width: width}
}

func (m *Serial) Start(x, y int64) {
	m.start = true
	m.inX = x
	m.inY = y
}

func (m *Serial) Tick() {
	if m.start {
		// A start sampled while busy restarts the unit.
		m.start = false
		m.busy = true
		m.finished = false
		m.mcand = fixed.SignExtend(m.inX, m.width)
		m.mplier = (uint64(m.inY) & (1<<m.width - 1)) << 1
		m.step = 0
		m.acc = 0
		return
	}
	if !m.busy {
		return
	}

	d := boothDigit[(m.mplier>>(2*m.step))&7]
	m.acc += (d * m.mcand) << (2 * m.step)
	m.step++

	if m.step == m.width/2 {
		m.busy = false
		m.finished = true
		m.result = fixed.SignExtend(m.acc, 2*m.width)
	}
}

func (m *Serial) Finished() bool { return m.finished }

func (m *Serial) Result() int64 { return m.result }

func (m *Serial) Latency() int { return int(m.width/2) + 1 }

// Width returns the operand width in bits.
func (m *Serial) Width() uint { return m.width }

func (m *Serial) Reset() {
	*m = Serial{width: m.width}
}

// Array is a single-cycle registered multiplier.
type Array struct {
	width uint

	start    bool
	inX, inY int64

	finished bool
	result   int64
}

// NewArray returns a single-cycle multiplier for width-bit operands.
func NewArray(width uint) *Array {
	checkWidth(width)
	return &Array{width: width}
}

func (m *Array) Start(x, y int64) {
	m.start = true
	m.inX = x
	m.inY = y
}

func (m *Array) Tick() {
	if !m.start {
		return
	}
	m.start = false
	m.result = fixed.SignExtend(m.inX, m.width) * fixed.SignExtend(m.inY, m.width)
	m.finished = true
}

func (m *Array) Finished() bool { return m.finished }

func (m *Array) Result() int64 { return m.result }

func (m *Array) Latency() int { return 1 }

func (m *Array) Reset() {
	*m = Array{width: m.width}
}

var (
	_ Multiplier = (*Serial)(nil)
	_ Multiplier = (*Array)(nil)
)
