package registry

import (
	"bytes"
	"context"
	"log/slog"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/node"
	"github.com/vk/nodegraph/internal/trigger"
	"github.com/zclconf/go-cty/cty"
)

func testContext() context.Context {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

type fakeNode struct{ node.Base }

func fixed(path string, defs ...node.Def) Kind {
	return Kind{Path: path, New: func(Params) (node.Node, error) {
		return &fakeNode{Base: node.NewBase(path, defs...)}, nil
	}}
}

type fakeModule struct{ paths []string }

func (m fakeModule) Register(r *Registry) {
	for _, p := range m.paths {
		r.RegisterKind(fixed(p, node.ExecIn("exec_in")))
	}
}

func TestRegisterAndCreate(t *testing.T) {
	r := New()
	r.Register(fakeModule{paths: []string{"math/add", "debug/log"}})

	assert.Equal(t, []string{"debug/log", "math/add"}, r.Paths())
	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Contains("math/add"))
	assert.False(t, r.Contains("math/sub"))

	k, ok := r.Kind("math/add")
	require.True(t, ok)
	assert.Equal(t, "math/add", k.Path)

	n, err := r.Create("math/add", nil)
	require.NoError(t, err)
	assert.Equal(t, "math/add", n.Kind())

	other, err := r.Create("math/add", nil)
	require.NoError(t, err)
	assert.NotSame(t, n, other, "every Create builds a fresh node")
}

func TestCreateErrors(t *testing.T) {
	r := New()
	r.RegisterKind(Kind{Path: "bad/kind", New: func(Params) (node.Node, error) {
		return &fakeNode{Base: node.NewBase("other/kind")}, nil
	}})
	r.RegisterKind(Kind{Path: "bad/nil", New: func(Params) (node.Node, error) { return nil, nil }})

	t.Run("unknown path", func(t *testing.T) {
		_, err := r.Create("nope", nil)
		assert.ErrorIs(t, err, ErrUnknownKind)
	})
	t.Run("kind mismatch", func(t *testing.T) {
		_, err := r.Create("bad/kind", nil)
		assert.ErrorContains(t, err, `built a node of kind "other/kind"`)
	})
	t.Run("nil node", func(t *testing.T) {
		_, err := r.Create("bad/nil", nil)
		assert.ErrorContains(t, err, "returned no node")
	})
}

func TestRegisterKindPanics(t *testing.T) {
	r := New()
	r.RegisterKind(fixed("a/b"))
	assert.Panics(t, func() { r.RegisterKind(fixed("a/b")) })
	assert.Panics(t, func() { r.RegisterKind(Kind{Path: "no/ctor"}) })
}

func TestParamsString(t *testing.T) {
	p := Params{"name": cty.StringVal("score"), "n": cty.NumberIntVal(1)}

	s, err := p.String("name")
	require.NoError(t, err)
	assert.Equal(t, "score", s)

	_, err = p.String("n")
	assert.ErrorContains(t, err, "must be a string")
	_, err = p.String("missing")
	assert.ErrorContains(t, err, `missing parameter "missing"`)
}

func TestValidateRegistry(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		r := New()
		r.RegisterKind(fixed("ok/node",
			node.ExecIn("exec_in"),
			node.In("n", cty.Number).WithDefault(cty.NumberIntVal(1)),
			node.Out("any", cty.DynamicPseudoType),
		))
		r.RegisterKind(Kind{Path: "dyn/node", Dynamic: true, New: func(p Params) (node.Node, error) {
			_, err := p.String("name")
			return nil, err
		}})
		assert.NoError(t, r.ValidateRegistry(testContext()))
	})

	t.Run("broken kinds are all reported", func(t *testing.T) {
		r := New()
		r.RegisterKind(fixed("dup/socket", node.ExecIn("x"), node.ExecIn("x")))
		r.RegisterKind(fixed("bad/capsule", node.In("c", cty.Capsule("thing", reflect.TypeOf(0)))))
		r.RegisterKind(fixed("good/exec", node.ExecOut("out").WithDefault(trigger.Value(trigger.OnStart))))

		err := r.ValidateRegistry(testContext())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kind 'dup/socket': constructor panicked")
		assert.Contains(t, err.Error(), "kind 'bad/capsule', socket 'c'")
		assert.NotContains(t, err.Error(), "good/exec")
	})
}
