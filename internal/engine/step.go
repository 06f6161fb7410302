package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/node"
	"github.com/vk/nodegraph/internal/scope"
	"github.com/vk/nodegraph/internal/socket"
	"github.com/vk/nodegraph/internal/yield"
)

// start performs one step: resolve the destination node, snapshot its
// outputs into the memo, evaluate it, open its exec sequence and drive it.
// A destination that does not resolve aborts the trace; the error travels
// up through every ancestor driving it synchronously.
func (p *Player) start(ctx context.Context, t *Trace) error {
	if t.depth > p.maxDepth {
		return t.abort(fmt.Errorf("exec depth limit %d exceeded at %s", p.maxDepth, t.To))
	}
	d, err := p.graph.Node(t.To.NodeID)
	if err != nil {
		return t.abort(fmt.Errorf("dispatch to %s: %w", t.To, err))
	}
	t.node = d

	for _, out := range d.Outputs() {
		if v, err := d.Value(out.Field); err == nil {
			t.scope.SetValue(out, v)
		}
	}
	p.eval(ctx, d, t.scope)

	t.seq = d.Exec(ctx, t.From, t.To, t.scope)
	if t.seq == nil {
		t.seq = yield.Empty()
	}
	return p.drive(ctx, t)
}

// drive pulls values from the trace's sequence until it suspends, ends or
// fails. Signals are propagated depth-first before the next pull.
func (p *Player) drive(ctx context.Context, t *Trace) error {
	for {
		if t.waiting != nil {
			if !t.waiting.Finished() {
				t.state = Suspended
				return nil
			}
			t.waiting = nil
		}
		t.state = Running

		y, ok := t.seq.Next(ctx)
		if !ok || y == nil {
			t.state = Completed
			p.stats.Completed++
			return nil
		}

		if sig, isSignal := y.(*yield.Signal); isSignal {
			started, err := p.propagate(ctx, t, sig)
			if err != nil {
				return t.abort(err)
			}
			if sig.Wait && len(started) > 0 {
				t.waiting = &join{traces: started}
				t.state = Suspended
				return nil
			}
			continue
		}

		if !y.Finished() {
			t.waiting = y
			t.state = Suspended
			return nil
		}
	}
}

// propagate starts a child trace for every destination of the signalled
// socket, in link order. Each child runs to completion or suspension before
// the next begins; suspended children are parked on their own. It returns
// the children that have not settled yet.
func (p *Player) propagate(ctx context.Context, parent *Trace, sig *yield.Signal) ([]*Trace, error) {
	sc := sig.Scope
	if sc == nil {
		sc = parent.scope
	}
	var unsettled []*Trace
	for _, to := range p.graph.Links.HasSocketAsSource(sig.Socket) {
		child := p.newTrace(parent.Trigger, sig.Socket, to, sc, parent.depth+1)
		if err := p.start(ctx, child); err != nil {
			return nil, err
		}
		if child.state == Suspended {
			p.park(child)
		}
		if !child.settled() {
			unsettled = append(unsettled, child)
		}
	}
	parent.children = slices.DeleteFunc(parent.children, (*Trace).settled)
	parent.children = append(parent.children, unsettled...)
	return unsettled, nil
}

// eval makes every linked data input of n hold its current value and then
// runs n's own Eval. Upstream nodes are evaluated at most once per scope;
// their outputs are memoized and read back from the memo.
func (p *Player) eval(ctx context.Context, n node.Node, sc *scope.Scope) {
	logger := ctxlog.FromContext(ctx)

	for _, def := range n.Defs() {
		if !def.Input || def.IsExec() {
			continue
		}
		in := socket.New(n.ID(), def.Name)
		sources := p.graph.Links.HasSocketAsDestination(in)
		if len(sources) > 1 && !def.Flags.Has(socket.AllowMultipleLinks) {
			logger.Warn("Input has several sources, the last one wins.", "input", in.String(), "sources", len(sources))
		}

		for _, src := range sources {
			m, err := p.graph.Node(src.NodeID)
			if err != nil {
				if errors.Is(err, graph.ErrNodeNotFound) {
					logger.Warn("Skipping input, its source node does not exist.", "input", in.String(), "source", src.String())
					continue
				}
				logger.Error("Skipping input, source lookup failed.", "input", in.String(), "source", src.String(), "error", err)
				continue
			}

			if sc.ShouldEvaluate(m.ID()) {
				p.eval(ctx, m, sc)
				for _, out := range m.Outputs() {
					if v, err := m.Value(out.Field); err == nil {
						sc.SetValue(out, v)
					}
				}
			}

			v, ok := sc.Value(src)
			if !ok {
				// Reached again while still being evaluated (a data cycle).
				if v, err = m.Value(src.Field); err != nil {
					logger.Warn("Skipping input, source socket does not exist.", "input", in.String(), "source", src.String(), "error", err)
					continue
				}
			}
			if err := n.SetValue(def.Name, v); err != nil {
				logger.Warn("Could not assign input value.", "input", in.String(), "source", src.String(), "error", err)
			}
		}
	}

	if err := n.Eval(ctx, sc); err != nil {
		logger.Warn("Node evaluation failed.", "node_id", n.ID(), "kind", n.Kind(), "error", err)
	}
}
