package node

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/scope"
	"github.com/vk/nodegraph/internal/socket"
	"github.com/vk/nodegraph/internal/trigger"
	"github.com/vk/nodegraph/internal/yield"
	"github.com/zclconf/go-cty/cty"
)

func testCtx() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.DiscardHandler))
}

func newAdder() Base {
	return NewBase("test/add",
		In("l", cty.Number).WithDefault(cty.NumberIntVal(1)),
		In("r", cty.Number),
		Out("result", cty.Number).WithFlags(socket.AllowMultipleLinks),
		ExecIn("exec_in"),
		ExecOut("exec_out"),
	)
}

func TestBaseShape(t *testing.T) {
	b := newAdder()
	b.SetID(7)

	assert.Equal(t, 7, b.ID())
	assert.Equal(t, "test/add", b.Kind())
	assert.Equal(t, []socket.Socket{
		socket.New(7, "l"), socket.New(7, "r"), socket.New(7, "exec_in"),
	}, b.Inputs())
	assert.Equal(t, []socket.Socket{
		socket.New(7, "result"), socket.New(7, "exec_out"),
	}, b.Outputs())
	assert.Len(t, b.Sockets(), 5)

	isIn, err := b.IsInput("l")
	require.NoError(t, err)
	assert.True(t, isIn)

	flags, err := b.Flags("exec_out")
	require.NoError(t, err)
	assert.True(t, flags.Has(socket.AllowMultipleLinks))

	ty, err := b.Type("exec_in")
	require.NoError(t, err)
	assert.True(t, trigger.IsExec(ty))

	_, err = b.Def("nope")
	assert.ErrorIs(t, err, ErrUnknownSocket)
}

func TestBaseValues(t *testing.T) {
	b := newAdder()

	l, err := b.Number("l")
	require.NoError(t, err)
	assert.Equal(t, 1.0, l)

	r, err := b.Number("r")
	require.NoError(t, err)
	assert.Zero(t, r, "null reads as zero")

	require.NoError(t, b.SetValue("r", cty.StringVal("2.5")))
	r, err = b.Number("r")
	require.NoError(t, err)
	assert.Equal(t, 2.5, r)

	require.NoError(t, b.Set("result", 3.5))
	v, err := b.Value("result")
	require.NoError(t, err)
	assert.True(t, v.RawEquals(cty.NumberFloatVal(3.5)))

	assert.ErrorContains(t, b.SetValue("r", cty.StringVal("x")), "expects number")
	assert.ErrorIs(t, b.SetValue("missing", cty.True), ErrUnknownSocket)

	require.NoError(t, b.SetValue("r", cty.NilVal))
	v, _ = b.Value("r")
	assert.True(t, v.IsNull())
}

func TestNewBasePanicsOnDuplicateSocket(t *testing.T) {
	assert.Panics(t, func() {
		NewBase("test/dup", In("a", cty.Number), Out("a", cty.Number))
	})
}

func TestBaseDefaults(t *testing.T) {
	b := NewBase("test/defaults", In("any", cty.NilType))
	ty, err := b.Type("any")
	require.NoError(t, err)
	assert.Equal(t, cty.DynamicPseudoType, ty)

	require.NoError(t, b.Set("any", "hello"))
	s, err := b.Text("any")
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	seq := b.Exec(testCtx(), socket.Socket{}, socket.Socket{}, scope.New(nil, nil))
	assert.Empty(t, yield.Collect(testCtx(), seq))
	assert.NoError(t, b.Eval(testCtx(), nil))
}

func TestDynamic(t *testing.T) {
	ctx := testCtx()
	d := NewDynamic("test/dynamic")
	d.SetID(4)
	require.NoError(t, d.AddSocket(ExecIn("go")))
	require.NoError(t, d.AddSocket(ExecOut("done")))
	require.NoError(t, d.AddSocket(Out("count", cty.Number)))
	assert.Error(t, d.AddSocket(Out("count", cty.Number)))

	evals := 0
	d.OnEval(func(ctx context.Context, d *Dynamic, sc *scope.Scope) error {
		evals++
		return d.Set("count", evals)
	})

	var order []string
	require.NoError(t, d.OnExec("go", "done", func(context.Context, *Dynamic, *scope.Scope) error {
		order = append(order, "first")
		return nil
	}))
	require.NoError(t, d.OnExec("go", "", func(context.Context, *Dynamic, *scope.Scope) error {
		order = append(order, "second")
		return nil
	}))

	assert.Error(t, d.OnExec("done", "", nil), "trigger must be an exec input")
	assert.Error(t, d.OnExec("go", "count", nil), "continuation must be an exec output")

	require.NoError(t, d.Eval(ctx, nil))
	n, err := d.Number("count")
	require.NoError(t, err)
	assert.Equal(t, 1.0, n)

	sc := scope.New(nil, nil)
	ys := yield.Collect(ctx, d.Exec(ctx, socket.Socket{}, d.Socket("go"), sc))
	require.Len(t, ys, 1)
	sig, ok := ys[0].(*yield.Signal)
	require.True(t, ok)
	assert.Equal(t, socket.New(4, "done"), sig.Socket)
	assert.Same(t, sc, sig.Scope)
	assert.Equal(t, []string{"first", "second"}, order)

	assert.Empty(t, yield.Collect(ctx, d.Exec(ctx, socket.Socket{}, d.Socket("done"), sc)))
}

func TestDynamicFailingInvokeEndsBranch(t *testing.T) {
	ctx := testCtx()
	d := NewDynamic("test/failing")
	require.NoError(t, d.AddSocket(ExecIn("go")))
	require.NoError(t, d.AddSocket(ExecOut("done")))

	ran := 0
	require.NoError(t, d.OnExec("go", "done", func(context.Context, *Dynamic, *scope.Scope) error {
		return errors.New("boom")
	}))
	require.NoError(t, d.OnExec("go", "done", func(context.Context, *Dynamic, *scope.Scope) error {
		ran++
		return nil
	}))

	assert.Empty(t, yield.Collect(ctx, d.Exec(ctx, socket.Socket{}, d.Socket("go"), scope.New(nil, nil))))
	assert.Zero(t, ran)

	d.OnEval(func(context.Context, *Dynamic, *scope.Scope) error { return errors.New("eval boom") })
	assert.ErrorContains(t, d.Eval(ctx, nil), "eval boom")
}
