package engine

import (
	"fmt"
	"slices"
	"time"

	"github.com/vk/nodegraph/internal/node"
	"github.com/vk/nodegraph/internal/scope"
	"github.com/vk/nodegraph/internal/socket"
	"github.com/vk/nodegraph/internal/trigger"
	"github.com/vk/nodegraph/internal/yield"
)

// State is the lifecycle of a trace.
type State int

const (
	Running State = iota
	Suspended
	Completed
	Aborted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Trace is one step of control flow: the exec sequence of the node reached
// through the link (From, To), together with everything needed to resume it.
// Signals it yields spawn child traces for each destination; a child that
// suspends is parked in the player on its own.
type Trace struct {
	ID      uint64
	Trigger trigger.Kind
	From    socket.Socket
	To      socket.Socket

	scope   *scope.Scope
	node    node.Node
	seq     yield.Sequence
	waiting yield.Yield
	state   State
	err     error
	depth   int

	// children are the traces this one started that had not settled when
	// their signal returned.
	children []*Trace
}

// State returns the trace's current state.
func (t *Trace) State() State {
	return t.state
}

// Err returns why the trace was aborted.
func (t *Trace) Err() error {
	return t.err
}

// Waiting returns the yield the trace is suspended on, or nil.
func (t *Trace) Waiting() yield.Yield {
	return t.waiting
}

// Scope returns the scope the trace runs with.
func (t *Trace) Scope() *scope.Scope {
	return t.scope
}

// settled reports whether t and every trace it started are done. Settled
// children are dropped along the way.
func (t *Trace) settled() bool {
	t.children = slices.DeleteFunc(t.children, (*Trace).settled)
	return t.state != Suspended && len(t.children) == 0
}

func (t *Trace) abort(err error) error {
	t.state = Aborted
	t.err = err
	t.waiting = nil
	return err
}

func (t *Trace) String() string {
	return fmt.Sprintf("trace#%d(%s %s -> %s, %s)", t.ID, t.Trigger, t.From, t.To, t.state)
}

// join keeps a trace suspended until the traces started by one of its
// signals have settled.
type join struct {
	traces []*Trace
}

func (j *join) Finished() bool {
	j.traces = slices.DeleteFunc(j.traces, (*Trace).settled)
	return len(j.traces) == 0
}

func (*join) Advance(time.Duration) {}

func (j *join) String() string {
	return fmt.Sprintf("wait(%d started traces)", len(j.traces))
}
