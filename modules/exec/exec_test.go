package exec

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/engine"
	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/node"
	"github.com/vk/nodegraph/internal/registry"
	"github.com/vk/nodegraph/internal/scope"
	"github.com/vk/nodegraph/internal/socket"
	"github.com/vk/nodegraph/internal/trigger"
	"github.com/vk/nodegraph/internal/yield"
	"github.com/zclconf/go-cty/cty"
)

func testContext() (context.Context, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger), buf
}

// mark records every time it is reached.
type mark struct {
	node.Base
	hits   int
	scopes []*scope.Scope
}

func newMark() *mark {
	return &mark{Base: node.NewBase("test/mark", node.ExecIn("exec_in"))}
}

func (m *mark) Exec(ctx context.Context, from, to socket.Socket, sc *scope.Scope) yield.Sequence {
	m.hits++
	m.scopes = append(m.scopes, sc)
	return yield.Empty()
}

// counter reports more=true for its first n evaluations.
type counter struct {
	node.Base
	n, evals int
}

func newCounter(n int) *counter {
	return &counter{Base: node.NewBase("test/counter", node.Out("more", cty.Bool).WithFlags(socket.AllowMultipleLinks)), n: n}
}

func (c *counter) Eval(context.Context, *scope.Scope) error {
	c.evals++
	return c.Set("more", c.evals <= c.n)
}

func connect(t *testing.T, g *graph.Graph, from int, fromField string, to int, toField string) {
	t.Helper()
	_, err := g.Connect(socket.New(from, fromField), socket.New(to, toField))
	require.NoError(t, err)
}

func add(t *testing.T, g *graph.Graph, n node.Node) int {
	t.Helper()
	id, err := g.Add(n)
	require.NoError(t, err)
	return id
}

func TestRegister(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(r)
	assert.Equal(t, []string{EntryKind, GateKind, IfKind, NextTickKind, WaitForSecondsKind, WhileKind}, r.Paths())

	ctx, _ := testContext()
	assert.NoError(t, r.ValidateRegistry(ctx))
}

func TestEntryDefaultsToOnStart(t *testing.T) {
	v, err := NewEntry().Value("exec_out")
	require.NoError(t, err)
	assert.Equal(t, trigger.OnStart, trigger.FromValue(v))
}

func TestIf(t *testing.T) {
	for _, tc := range []struct {
		cond cty.Value
		want string
	}{
		{cty.True, "true"},
		{cty.False, "false"},
		{cty.NullVal(cty.Bool), "false"},
	} {
		t.Run(tc.want+"/"+tc.cond.GoString(), func(t *testing.T) {
			ctx, _ := testContext()
			n := NewIf()
			n.SetID(3)
			require.NoError(t, n.SetValue("condition", tc.cond))

			ys := yield.Collect(ctx, n.Exec(ctx, socket.Socket{}, n.Socket("exec_in"), scope.New(nil, nil)))
			require.Len(t, ys, 1)
			assert.Equal(t, socket.New(3, tc.want), ys[0].(*yield.Signal).Socket)
		})
	}
}

func TestGate(t *testing.T) {
	ctx, _ := testContext()
	g := NewGate()
	sc := scope.New(nil, nil)
	run := func(field string) []yield.Yield {
		return yield.Collect(ctx, g.Exec(ctx, socket.Socket{}, g.Socket(field), sc))
	}

	assert.Empty(t, run("exec_in"), "closed by default")
	assert.Empty(t, run("open"))
	assert.Len(t, run("exec_in"), 1)
	assert.Empty(t, run("close"))
	assert.Empty(t, run("exec_in"))
}

func TestWhileRunsBodyUntilConditionFails(t *testing.T) {
	ctx, _ := testContext()
	g := graph.New("while")
	start := add(t, g, NewEntry())
	loop := add(t, g, NewWhile())
	cnt := newCounter(3)
	cntID := add(t, g, cnt)
	body, done := newMark(), newMark()
	bodyID, doneID := add(t, g, body), add(t, g, done)

	connect(t, g, start, "exec_out", loop, "exec_in")
	connect(t, g, cntID, "more", loop, "condition")
	connect(t, g, loop, "true", bodyID, "exec_in")
	connect(t, g, loop, "done", doneID, "exec_in")

	engine.New(g).Fire(ctx, trigger.OnStart)

	assert.Equal(t, 3, body.hits)
	assert.Equal(t, 1, done.hits)
	assert.Equal(t, 4, cnt.evals, "condition is re-evaluated after every repetition")
	require.Len(t, body.scopes, 3)
	assert.NotSame(t, body.scopes[0], body.scopes[1], "each repetition runs on its own scope")
}

func TestWhileLimit(t *testing.T) {
	ctx, logs := testContext()
	g := graph.New("while")
	start := add(t, g, NewEntry())
	w := NewWhile()
	require.NoError(t, w.SetValue("condition", cty.True))
	require.NoError(t, w.SetValue("limit", cty.NumberIntVal(5)))
	loop := add(t, g, w)
	body := newMark()
	bodyID := add(t, g, body)
	connect(t, g, start, "exec_out", loop, "exec_in")
	connect(t, g, loop, "true", bodyID, "exec_in")

	engine.New(g).Fire(ctx, trigger.OnStart)

	assert.Equal(t, 5, body.hits)
	assert.Contains(t, logs.String(), "Loop hit its iteration limit")
}

func TestWhileWithoutEvaluatorStops(t *testing.T) {
	ctx, logs := testContext()
	w := NewWhile()
	require.NoError(t, w.SetValue("condition", cty.True))

	ys := yield.Collect(ctx, w.Exec(ctx, socket.Socket{}, w.Socket("exec_in"), scope.New(nil, nil)))
	require.Len(t, ys, 2)
	assert.Equal(t, "true", ys[0].(*yield.Signal).Socket.Field)
	assert.Equal(t, "done", ys[1].(*yield.Signal).Socket.Field)
	assert.Contains(t, logs.String(), "cannot re-evaluate")
}

func TestWaitForSecondsAndNextTick(t *testing.T) {
	ctx, _ := testContext()
	g := graph.New("wait")
	start := add(t, g, NewEntry())
	wait := NewWaitForSeconds()
	require.NoError(t, wait.SetValue("seconds", cty.NumberFloatVal(0.25)))
	waitID := add(t, g, wait)
	tick := add(t, g, NewNextTick())
	end := newMark()
	endID := add(t, g, end)
	connect(t, g, start, "exec_out", waitID, "exec_in")
	connect(t, g, waitID, "exec_out", tick, "exec_in")
	connect(t, g, tick, "exec_out", endID, "exec_in")

	p := engine.New(g)
	p.Fire(ctx, trigger.OnStart)
	assert.Equal(t, 1, p.Pending())

	p.Tick(ctx, 250*time.Millisecond)
	assert.Zero(t, end.hits, "next_tick parks for one more tick")
	p.Tick(ctx, time.Millisecond)
	assert.Equal(t, 1, end.hits)
	assert.Zero(t, p.Pending())
}

func TestWhileHoldsUntilWaitingBodyFinishes(t *testing.T) {
	ctx, logs := testContext()
	g := graph.New("while")
	start := add(t, g, NewEntry())
	w := NewWhile()
	require.NoError(t, w.SetValue("condition", cty.True))
	require.NoError(t, w.SetValue("limit", cty.NumberIntVal(3)))
	loop := add(t, g, w)
	wait := NewWaitForSeconds()
	require.NoError(t, wait.SetValue("seconds", cty.NumberFloatVal(0.5)))
	waitID := add(t, g, wait)
	body, done := newMark(), newMark()
	bodyID, doneID := add(t, g, body), add(t, g, done)

	connect(t, g, start, "exec_out", loop, "exec_in")
	connect(t, g, loop, "true", waitID, "exec_in")
	connect(t, g, waitID, "exec_out", bodyID, "exec_in")
	connect(t, g, loop, "done", doneID, "exec_in")

	p := engine.New(g)
	p.Fire(ctx, trigger.OnStart)
	assert.Equal(t, 2, p.Pending(), "the loop and its first repetition")
	assert.Zero(t, body.hits)

	for i := 1; i <= 3; i++ {
		p.Tick(ctx, 500*time.Millisecond)
		assert.Equal(t, i, body.hits, "one repetition per finished wait")
	}
	assert.Equal(t, 1, done.hits)
	assert.Zero(t, p.Pending())
	assert.Contains(t, logs.String(), "Loop hit its iteration limit")
}

func TestWhileHoldsForNestedWaits(t *testing.T) {
	ctx, _ := testContext()
	g := graph.New("while")
	start := add(t, g, NewEntry())
	w := NewWhile()
	require.NoError(t, w.SetValue("condition", cty.True))
	require.NoError(t, w.SetValue("limit", cty.NumberIntVal(2)))
	loop := add(t, g, w)
	first, second := add(t, g, NewNextTick()), add(t, g, NewNextTick())
	body := newMark()
	bodyID := add(t, g, body)

	connect(t, g, start, "exec_out", loop, "exec_in")
	connect(t, g, loop, "true", first, "exec_in")
	connect(t, g, first, "exec_out", second, "exec_in")
	connect(t, g, second, "exec_out", bodyID, "exec_in")

	p := engine.New(g)
	p.Fire(ctx, trigger.OnStart)
	p.Tick(ctx, time.Millisecond)
	assert.Zero(t, body.hits, "the second wait is still pending")
	p.Tick(ctx, time.Millisecond)
	assert.Equal(t, 1, body.hits)
	p.Tick(ctx, time.Millisecond)
	assert.Equal(t, 1, body.hits, "the next repetition starts only after the whole body")
	p.Tick(ctx, time.Millisecond)
	assert.Equal(t, 2, body.hits)
	assert.Zero(t, p.Pending())
}

func TestUnreadableNumbersFallBackToDefaults(t *testing.T) {
	huge := cty.MustParseNumberVal("1e400")

	t.Run("wait seconds", func(t *testing.T) {
		ctx, logs := testContext()
		w := NewWaitForSeconds()
		require.NoError(t, w.SetValue("seconds", huge))

		y, ok := w.Exec(ctx, socket.Socket{}, w.Socket("exec_in"), scope.New(nil, nil)).Next(ctx)
		require.True(t, ok)
		assert.Equal(t, time.Second, y.(*yield.WaitForSeconds).Duration)
		assert.Contains(t, logs.String(), "Could not read wait duration")
	})

	t.Run("while limit", func(t *testing.T) {
		ctx, logs := testContext()
		w := NewWhile()
		require.NoError(t, w.SetValue("condition", cty.True))
		require.NoError(t, w.SetValue("limit", huge))

		y, ok := w.Exec(ctx, socket.Socket{}, w.Socket("exec_in"), scope.New(nil, nil)).Next(ctx)
		require.True(t, ok)
		assert.Equal(t, "true", y.(*yield.Signal).Socket.Field)
		assert.Contains(t, logs.String(), "Could not read loop limit")
	})
}
