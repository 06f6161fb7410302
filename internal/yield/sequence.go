package yield

import "context"

// Sequence is a resumable exec sequence. Each Next call runs the node's code
// up to its next yield and returns it; ok is false once the sequence is
// exhausted. A nil Yield with ok true ends the current branch just like
// exhaustion does.
//
// Sequences are explicit state machines: whatever a node needs to resume
// (loop counters, the scope clone of the current iteration, which step comes
// next) lives in the value implementing Sequence.
type Sequence interface {
	Next(ctx context.Context) (y Yield, ok bool)
}

// Func adapts a plain function to Sequence.
type Func func(ctx context.Context) (Yield, bool)

func (f Func) Next(ctx context.Context) (Yield, bool) {
	return f(ctx)
}

// Empty returns a sequence with no values.
func Empty() Sequence {
	return Func(func(context.Context) (Yield, bool) { return nil, false })
}

// Of returns a sequence delivering ys in order.
func Of(ys ...Yield) Sequence {
	return &steps{fns: nil, vals: ys}
}

// Step is one lazily evaluated stage of a Steps sequence. Returning a nil
// Yield ends the sequence.
type Step func(ctx context.Context) Yield

// Steps returns a sequence that runs each step only when the engine asks for
// the next value, so a step placed after a wait observes the world as it is
// after the wait.
func Steps(fns ...Step) Sequence {
	return &steps{fns: fns}
}

type steps struct {
	fns  []Step
	vals []Yield
	pos  int
}

func (s *steps) Next(ctx context.Context) (Yield, bool) {
	if s.fns == nil {
		if s.pos >= len(s.vals) {
			return nil, false
		}
		y := s.vals[s.pos]
		s.pos++
		return y, true
	}
	if s.pos >= len(s.fns) {
		return nil, false
	}
	fn := s.fns[s.pos]
	s.pos++
	return fn(ctx), true
}

// Collect drains a sequence that never suspends. It stops at the first nil
// yield. It is meant for tests and for nodes composing other sequences.
func Collect(ctx context.Context, seq Sequence) []Yield {
	var out []Yield
	for {
		y, ok := seq.Next(ctx)
		if !ok || y == nil {
			return out
		}
		out = append(out, y)
	}
}
