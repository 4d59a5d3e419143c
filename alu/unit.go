package alu

import (
	"github.com/marben/hwmandel/mult"
)

type phase uint8

const (
	phaseIdle phase = iota
	phaseMultiply
	phaseCombine
	phaseValid
)

// Unit is the registered, clocked version of Step. The three products are
// independent requests; they are spread over the attached multipliers and
// each instance serves its share in order.
type Unit struct {
	p     Params
	mults []mult.Multiplier

	in    Input
	phase phase

	// jobs[i] lists the product indexes served by mults[i]; next[i] is the
	// position of the one currently in flight.
	jobs     [][]int
	next     []int
	products [3]int64

	out Output
}

// New builds a unit on one shared multiplier or on three instances.
// It panics for any other count.
func New(p Params, mults ...mult.Multiplier) *Unit {
	u := &Unit{p: p, mults: mults, next: make([]int, len(mults))}
	switch len(mults) {
	case 1:
		u.jobs = [][]int{{0, 1, 2}}
	case 3:
		u.jobs = [][]int{{0}, {1}, {2}}
	default:
		panic("alu: need one or three multipliers")
	}
	return u
}

// NewParallel uses three single-cycle multipliers; results are valid two
// ticks after Issue.
func NewParallel(p Params) *Unit {
	return New(p, mult.NewArray(p.MulWidth), mult.NewArray(p.MulWidth), mult.NewArray(p.MulWidth))
}

// NewSerial uses three radix-4 serial multipliers working side by side.
func NewSerial(p Params) *Unit {
	return New(p, mult.NewSerial(p.MulWidth), mult.NewSerial(p.MulWidth), mult.NewSerial(p.MulWidth))
}

// NewShared uses one radix-4 serial multiplier for all three products.
func NewShared(p Params) *Unit {
	return New(p, mult.NewSerial(p.MulWidth))
}

func (u *Unit) Params() Params { return u.p }

// Latency is the number of ticks from Issue to Valid.
func (u *Unit) Latency() int {
	longest := 0
	for i, m := range u.mults {
		if l := len(u.jobs[i]) * m.Latency(); l > longest {
			longest = l
		}
	}
	return longest + 1
}

func (u *Unit) operands(job int) (int64, int64) {
	switch job {
	case 0:
		return u.in.Zr, u.in.Zr
	case 1:
		return u.in.Zi, u.in.Zi
	default:
		return u.in.Zr, u.in.Zi
	}
}

// Issue samples the inputs and starts the products. Issuing while a step is
// in flight abandons that step.
func (u *Unit) Issue(in Input) {
	u.in = in
	u.phase = phaseMultiply
	for i, m := range u.mults {
		u.next[i] = 0
		m.Start(u.operands(u.jobs[i][0]))
	}
}

func (u *Unit) Tick() {
	switch u.phase {
	case phaseMultiply:
		pending := false
		for i, m := range u.mults {
			if u.next[i] == len(u.jobs[i]) {
				continue
			}
			m.Tick()
			if !m.Finished() {
				pending = true
				continue
			}
			u.products[u.jobs[i][u.next[i]]] = m.Result()
			u.next[i]++
			if u.next[i] < len(u.jobs[i]) {
				m.Start(u.operands(u.jobs[i][u.next[i]]))
				pending = true
			}
		}
		if !pending {
			u.phase = phaseCombine
		}
	case phaseCombine:
		u.out = combine(u.p, u.in, u.products[0], u.products[1], u.products[2])
		u.phase = phaseValid
	}
}

// Valid reports whether Output holds the result of the last Issue.
func (u *Unit) Valid() bool { return u.phase == phaseValid }

func (u *Unit) Output() Output { return u.out }

func (u *Unit) Reset() {
	for _, m := range u.mults {
		m.Reset()
	}
	u.in = Input{}
	u.phase = phaseIdle
	u.products = [3]int64{}
	u.out = Output{}
	for i := range u.next {
		u.next[i] = 0
	}
}
