// Package scope holds the per-trace evaluation state: the memo of socket
// values computed so far, the set of nodes already evaluated, and the
// trace's variable snapshot.
package scope

import (
	"context"
	"maps"

	"github.com/vk/nodegraph/internal/socket"
	"github.com/vk/nodegraph/internal/vars"
	"github.com/zclconf/go-cty/cty"
)

// Evaluator pulls a node's linked data inputs within a scope and runs the
// node's Eval. The engine provides one so that nodes can re-read their inputs
// mid-sequence.
type Evaluator interface {
	Evaluate(ctx context.Context, nodeID int, sc *Scope) error
}

// Scope is created fresh for every trace. It is not safe for concurrent use.
type Scope struct {
	// Host is an opaque handle to whatever runs the graph. Nodes may read it.
	Host any
	// Vars is the trace's variable snapshot. Clones share it.
	Vars *vars.Table
	// Evaluator is shared with clones. It may be nil outside the engine.
	Evaluator Evaluator

	values  map[socket.Socket]cty.Value
	visited map[int]struct{}
}

// New returns an empty scope. A nil table gets an empty one.
func New(host any, v *vars.Table) *Scope {
	if v == nil {
		v = vars.New()
	}
	return &Scope{
		Host:    host,
		Vars:    v,
		values:  make(map[socket.Socket]cty.Value),
		visited: make(map[int]struct{}),
	}
}

// Clone returns a scope with an empty memo and visited set that shares Host
// and Vars. Loop bodies run on a clone so each repetition re-evaluates its
// inputs instead of reading memoized values.
func (s *Scope) Clone() *Scope {
	c := New(s.Host, s.Vars)
	c.Evaluator = s.Evaluator
	return c
}

// Copy returns a scope with copies of the memo and visited set.
func (s *Scope) Copy() *Scope {
	return &Scope{
		Host:      s.Host,
		Vars:      s.Vars,
		Evaluator: s.Evaluator,
		values:    maps.Clone(s.values),
		visited:   maps.Clone(s.visited),
	}
}

// ShouldEvaluate marks node id as visited and reports whether this call was
// the one that marked it.
func (s *Scope) ShouldEvaluate(id int) bool {
	if _, seen := s.visited[id]; seen {
		return false
	}
	s.visited[id] = struct{}{}
	return true
}

// Visited reports whether id has been marked.
func (s *Scope) Visited(id int) bool {
	_, seen := s.visited[id]
	return seen
}

// Value returns the memoized value of sock.
func (s *Scope) Value(sock socket.Socket) (cty.Value, bool) {
	v, ok := s.values[sock]
	return v, ok
}

// SetValue memoizes v for sock, replacing any earlier value.
func (s *Scope) SetValue(sock socket.Socket, v cty.Value) {
	s.values[sock] = v
}

// Len returns the number of memoized sockets.
func (s *Scope) Len() int {
	return len(s.values)
}
