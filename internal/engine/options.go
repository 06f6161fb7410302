package engine

import (
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxDepth bounds how many links a single synchronous chain of
// signals may cross before the trace is aborted.
const DefaultMaxDepth = 1024

// Option configures a Player.
type Option func(*Player)

// WithTracer sets the tracer used for fire and resume spans.
func WithTracer(t trace.Tracer) Option {
	return func(p *Player) {
		if t != nil {
			p.tracer = t
		}
	}
}

// WithHost sets the opaque host handle placed in every new scope.
func WithHost(host any) Option {
	return func(p *Player) {
		p.host = host
	}
}

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(p *Player) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// WithOnDestroy registers a hook run once when the player tears down.
func WithOnDestroy(fn func()) Option {
	return func(p *Player) {
		p.onDestroy = fn
	}
}
