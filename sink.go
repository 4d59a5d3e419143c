package mandel

// Sink consumes pixels emitted by a streaming render. Ready is sampled once
// per clock; while it reports false the controller holds the pending pixel.
type Sink interface {
	Ready() bool
	Accept(x, y int, ctr uint8) error
}
