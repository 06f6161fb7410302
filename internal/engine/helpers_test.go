package engine

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/node"
	"github.com/vk/nodegraph/internal/scope"
	"github.com/vk/nodegraph/internal/socket"
	"github.com/vk/nodegraph/internal/trigger"
	"github.com/vk/nodegraph/internal/yield"
	"github.com/zclconf/go-cty/cty"
)

// testContext returns a context whose logger writes text lines to the
// returned buffer.
func testContext(t *testing.T) (context.Context, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger), buf
}

func countLines(buf *bytes.Buffer, substr string) int {
	n := 0
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}

// entry is a trigger selector.
type entry struct{ node.Base }

func newEntry(kind trigger.Kind) *entry {
	e := &entry{Base: node.NewBase("test/entry",
		node.ExecOut("exec_out").WithFlags(socket.Editable),
	)}
	if err := e.SetValue("exec_out", trigger.Value(kind)); err != nil {
		panic(err)
	}
	return e
}

// journal records what the recorders saw, in order.
type journal struct {
	entries []string
	values  []cty.Value
	scopes  []*scope.Scope
}

// recorder appends its label to the journal when executed and continues.
type recorder struct {
	node.Base
	label string
	j     *journal
}

func newRecorder(label string, j *journal) *recorder {
	return &recorder{
		Base: node.NewBase("test/recorder",
			node.ExecIn("exec_in"),
			node.ExecOut("exec_out"),
			node.In("value", cty.DynamicPseudoType),
		),
		label: label,
		j:     j,
	}
}

func (r *recorder) Exec(ctx context.Context, from, to socket.Socket, sc *scope.Scope) yield.Sequence {
	return yield.Steps(func(context.Context) yield.Yield {
		v, _ := r.Value("value")
		r.j.entries = append(r.j.entries, r.label)
		r.j.values = append(r.j.values, v)
		r.j.scopes = append(r.j.scopes, sc)
		return yield.SignalTo(sc, r.Socket("exec_out"))
	})
}

// waiter waits for a fixed duration and then continues.
type waiter struct {
	node.Base
	seconds float64
	tick    bool
}

func newWaiter(seconds float64) *waiter {
	return &waiter{
		Base:    node.NewBase("test/wait", node.ExecIn("exec_in"), node.ExecOut("exec_out")),
		seconds: seconds,
	}
}

func newTickWaiter() *waiter {
	w := newWaiter(0)
	w.tick = true
	return w
}

func (w *waiter) Exec(ctx context.Context, from, to socket.Socket, sc *scope.Scope) yield.Sequence {
	return yield.Steps(
		func(context.Context) yield.Yield {
			if w.tick {
				return yield.NextTick()
			}
			return yield.Seconds(w.seconds)
		},
		func(context.Context) yield.Yield { return yield.SignalTo(sc, w.Socket("exec_out")) },
	)
}

// source is a data node that counts its evaluations.
type source struct {
	node.Base
	evals int
	value float64
}

func newSource(value float64) *source {
	return &source{
		Base: node.NewBase("test/source",
			node.In("in", cty.Number).WithFlags(socket.AllowMultipleLinks),
			node.Out("out", cty.Number).WithFlags(socket.AllowMultipleLinks),
		),
		value: value,
	}
}

func (s *source) Eval(ctx context.Context, sc *scope.Scope) error {
	s.evals++
	return s.Set("out", s.value)
}

// panicker blows up when executed.
type panicker struct{ node.Base }

func newPanicker() *panicker {
	return &panicker{Base: node.NewBase("test/panic", node.ExecIn("exec_in"), node.ExecOut("exec_out"))}
}

func (p *panicker) Exec(context.Context, socket.Socket, socket.Socket, *scope.Scope) yield.Sequence {
	return yield.Func(func(context.Context) (yield.Yield, bool) { panic("node exploded") })
}

// looper signals its own exec_out forever, used to hit the depth limit.
type looper struct{ node.Base }

func newLooper() *looper {
	return &looper{Base: node.NewBase("test/loop", node.ExecIn("exec_in"), node.ExecOut("exec_out"))}
}

func (l *looper) Exec(ctx context.Context, from, to socket.Socket, sc *scope.Scope) yield.Sequence {
	return yield.Of(yield.SignalTo(sc, l.Socket("exec_out")))
}

type builder struct {
	t *testing.T
	g *graph.Graph
}

func newBuilder(t *testing.T) *builder {
	return &builder{t: t, g: graph.New("test")}
}

func (b *builder) add(n node.Node) int {
	b.t.Helper()
	id, err := b.g.Add(n)
	require.NoError(b.t, err)
	return id
}

func (b *builder) exec(from, to int) {
	b.t.Helper()
	_, err := b.g.Connect(socket.New(from, "exec_out"), socket.New(to, "exec_in"))
	require.NoError(b.t, err)
}

func (b *builder) data(from int, fromField string, to int, toField string) {
	b.t.Helper()
	_, err := b.g.Connect(socket.New(from, fromField), socket.New(to, toField))
	require.NoError(b.t, err)
}

// sequencer signals first and then then, optionally waiting for first to
// settle.
type sequencer struct {
	node.Base
	wait bool
}

func newSequencer(wait bool) *sequencer {
	return &sequencer{
		Base: node.NewBase("test/sequence", node.ExecIn("exec_in"), node.ExecOut("first"), node.ExecOut("then")),
		wait: wait,
	}
}

func (s *sequencer) Exec(ctx context.Context, from, to socket.Socket, sc *scope.Scope) yield.Sequence {
	first := yield.SignalTo(sc, s.Socket("first"))
	first.Wait = s.wait
	return yield.Of(first, yield.SignalTo(sc, s.Socket("then")))
}
