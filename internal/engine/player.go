package engine

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/petermattis/goid"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/scope"
	"github.com/vk/nodegraph/internal/socket"
	"github.com/vk/nodegraph/internal/trigger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/vk/nodegraph/internal/engine"

// Stats are cumulative counters for one player.
type Stats struct {
	Fired     uint64
	Traces    uint64
	Parked    uint64
	Resumed   uint64
	Completed uint64
	Aborted   uint64
}

// Player runs one graph. It indexes trigger entry points, starts a trace
// per entry link when a trigger fires, parks traces that wait, and resumes
// them on Tick.
//
// A Player is single-threaded: Fire, Tick and Teardown must all be called
// from the goroutine that first called any of them.
type Player struct {
	graph     *graph.Graph
	host      any
	tracer    trace.Tracer
	maxDepth  int
	onDestroy func()

	entries        map[trigger.Kind][]socket.Socket
	entriesVersion uint64
	entriesBuilt   bool

	pending         []*Trace
	nextTraceID     uint64
	destroyWhenDone bool
	destroyed       bool

	owner atomic.Int64
	stats Stats
}

// New returns a player for g.
func New(g *graph.Graph, opts ...Option) *Player {
	p := &Player{
		graph:    g,
		tracer:   otel.Tracer(tracerName),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Graph returns the graph being played.
func (p *Player) Graph() *graph.Graph {
	return p.graph
}

// Entries returns the exec outputs whose selector value is kind, in node
// order. The index is rebuilt whenever the graph version moved.
func (p *Player) Entries(kind trigger.Kind) []socket.Socket {
	p.refreshEntries()
	return slices.Clone(p.entries[kind])
}

// Invalidate forces the entry index to be rebuilt on next use. Call it after
// editing a selector value directly on a node.
func (p *Player) Invalidate() {
	p.entriesBuilt = false
}

func (p *Player) refreshEntries() {
	if p.entriesBuilt && p.entriesVersion == p.graph.Version() {
		return
	}
	p.entries = make(map[trigger.Kind][]socket.Socket)
	for _, n := range p.graph.Nodes() {
		for _, def := range n.Defs() {
			if def.Input || !def.IsExec() {
				continue
			}
			v, err := n.Value(def.Name)
			if err != nil {
				continue
			}
			if k := trigger.FromValue(v); k != trigger.None {
				p.entries[k] = append(p.entries[k], socket.New(n.ID(), def.Name))
			}
		}
	}
	p.entriesVersion = p.graph.Version()
	p.entriesBuilt = true
}

// Fire starts execution for every entry point registered for kind and
// returns the root traces it started, one per link leaving an entry socket.
// Roots that suspended are already parked. Firing OnDestroy additionally
// schedules teardown for the first tick on which nothing is pending.
func (p *Player) Fire(ctx context.Context, kind trigger.Kind) []*Trace {
	p.checkOwner(ctx)
	ctx = ctxlog.With(ctx, "trigger", kind.String())
	logger := ctxlog.FromContext(ctx)

	if p.destroyed {
		logger.Warn("Trigger ignored, player has been torn down.")
		return nil
	}
	if kind == trigger.OnDestroy {
		p.destroyWhenDone = true
	}

	ctx, span := p.tracer.Start(ctx, "nodegraph.fire", trace.WithAttributes(
		attribute.String("nodegraph.graph", p.graph.Name),
		attribute.String("nodegraph.trigger", kind.String()),
	))
	defer span.End()

	p.stats.Fired++
	entries := p.Entries(kind)
	logger.Debug("Firing trigger.", "entry_count", len(entries))

	var roots []*Trace
	for _, from := range entries {
		owner, err := p.graph.Node(from.NodeID)
		if err != nil {
			logger.Error("Entry socket has no owner.", "socket", from.String(), "error", err)
			continue
		}
		sc := scope.New(p.host, p.graph.Vars.Snapshot())
		sc.Evaluator = p
		if err := p.protect(func() { p.eval(ctx, owner, sc) }); err != nil {
			logger.Error("Entry node evaluation panicked.", "node_id", owner.ID(), "kind", owner.Kind(), "error", err)
			continue
		}
		for _, to := range p.graph.Links.HasSocketAsSource(from) {
			t := p.newTrace(kind, from, to, sc, 0)
			p.finishRoot(ctx, t, p.protectTrace(t, func() error { return p.start(ctx, t) }))
			roots = append(roots, t)
		}
	}
	span.SetAttributes(attribute.Int("nodegraph.traces", len(roots)))
	return roots
}

// Tick advances every parked trace's wait by dt and resumes the ones that
// finished. Traces parked during this tick are not advanced until the next
// one. A trace waiting on traces it started resumes in the same tick as the
// last of them finishes. Once OnDestroy has fired and nothing is pending,
// the player tears itself down.
func (p *Player) Tick(ctx context.Context, dt time.Duration) {
	p.checkOwner(ctx)
	if p.destroyed {
		return
	}

	batch := p.pending
	p.pending = nil
	var kept []*Trace
	for _, t := range batch {
		if t.state != Suspended || t.waiting == nil {
			continue
		}
		t.waiting.Advance(dt)
		if !t.waiting.Finished() || p.resume(ctx, t) {
			kept = append(kept, t)
		}
	}
	p.pending = append(kept, p.pending...)
	p.resumeJoined(ctx)

	if p.destroyWhenDone && len(p.pending) == 0 {
		p.teardown(ctx)
	}
}

// resume drives a parked trace whose wait finished. It reports whether the
// trace suspended again.
func (p *Player) resume(ctx context.Context, t *Trace) bool {
	p.stats.Resumed++
	ctx = ctxlog.With(ctx, "trigger", t.Trigger.String())
	ctx, span := p.tracer.Start(ctx, "nodegraph.resume", trace.WithAttributes(
		attribute.String("nodegraph.trigger", t.Trigger.String()),
		attribute.Int64("nodegraph.trace", int64(t.ID)),
	))
	err := p.protectTrace(t, func() error { return p.drive(ctx, t) })
	span.End()
	if t.state == Suspended {
		return true
	}
	p.finishRoot(ctx, t, err)
	return false
}

// resumeJoined resumes parked traces whose started traces settled after the
// trace itself was visited this tick.
func (p *Player) resumeJoined(ctx context.Context) {
	for {
		i := slices.IndexFunc(p.pending, func(t *Trace) bool {
			j, ok := t.waiting.(*join)
			return ok && t.state == Suspended && j.Finished()
		})
		if i < 0 {
			return
		}
		t := p.pending[i]
		p.pending = slices.Delete(p.pending, i, i+1)
		if p.resume(ctx, t) {
			p.pending = slices.Insert(p.pending, i, t)
		}
	}
}

// Evaluate pulls the data inputs of node id within sc and runs its Eval.
// Nodes reach it through the scope to refresh inputs mid-sequence.
func (p *Player) Evaluate(ctx context.Context, id int, sc *scope.Scope) error {
	n, err := p.graph.Node(id)
	if err != nil {
		return err
	}
	sc.ShouldEvaluate(id)
	p.eval(ctx, n, sc)
	return nil
}

// Pending returns the number of parked traces.
func (p *Player) Pending() int {
	return len(p.pending)
}

// PendingTraces returns the parked traces in resume order.
func (p *Player) PendingTraces() []*Trace {
	return slices.Clone(p.pending)
}

// Destroyed reports whether the player has torn down.
func (p *Player) Destroyed() bool {
	return p.destroyed
}

// DestroyRequested reports whether OnDestroy has fired.
func (p *Player) DestroyRequested() bool {
	return p.destroyWhenDone
}

// Stats returns a copy of the player's counters.
func (p *Player) Stats() Stats {
	return p.stats
}

// Teardown destroys the player immediately, dropping whatever is pending.
func (p *Player) Teardown(ctx context.Context) {
	p.checkOwner(ctx)
	if p.destroyed {
		return
	}
	if n := len(p.pending); n > 0 {
		ctxlog.FromContext(ctx).Warn("Tearing down with traces still pending, dropping them.", "pending", n)
	}
	p.teardown(ctx)
}

func (p *Player) teardown(ctx context.Context) {
	p.pending = nil
	p.destroyed = true
	ctxlog.FromContext(ctx).Debug("Player torn down.", "graph", p.graph.Name)
	if p.onDestroy != nil {
		p.onDestroy()
	}
}

func (p *Player) newTrace(kind trigger.Kind, from, to socket.Socket, sc *scope.Scope, depth int) *Trace {
	p.nextTraceID++
	p.stats.Traces++
	return &Trace{
		ID:      p.nextTraceID,
		Trigger: kind,
		From:    from,
		To:      to,
		scope:   sc,
		depth:   depth,
		state:   Running,
	}
}

func (p *Player) park(t *Trace) {
	p.stats.Parked++
	p.pending = append(p.pending, t)
}

// finishRoot records the outcome of a trace driven from the top: either a
// fresh root from Fire or a resumed one from Tick.
func (p *Player) finishRoot(ctx context.Context, t *Trace, err error) {
	switch {
	case err != nil || t.state == Aborted:
		p.stats.Aborted++
		ctxlog.FromContext(ctx).Error("Trace aborted.", "trace", t.ID, "from", t.From.String(), "to", t.To.String(), "error", t.err)
	case t.state == Suspended:
		p.park(t)
	}
}

// protectTrace converts a panic in node code into an aborted trace.
func (p *Player) protectTrace(t *Trace, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = t.abort(fmt.Errorf("panic in node code: %v", r))
		}
	}()
	return fn()
}

func (p *Player) protect(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in node code: %v", r)
		}
	}()
	fn()
	return nil
}

func (p *Player) checkOwner(ctx context.Context) {
	gid := goid.Get()
	if p.owner.CompareAndSwap(0, gid) {
		return
	}
	if owner := p.owner.Load(); owner != gid {
		ctxlog.FromContext(ctx).Error("Player used from a goroutine that does not own it.", "owner_goroutine", owner, "goroutine", gid)
	}
}
