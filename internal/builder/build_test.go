package builder_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nodegraph/internal/builder"
	"github.com/vk/nodegraph/internal/config"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/registry"
	"github.com/vk/nodegraph/internal/socket"
	"github.com/vk/nodegraph/modules/debuglog"
	"github.com/vk/nodegraph/modules/exec"
	"github.com/vk/nodegraph/modules/math"
	"github.com/vk/nodegraph/modules/vars"
	"github.com/zclconf/go-cty/cty"
)

func testContext() context.Context {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

func testRegistry() *registry.Registry {
	r := registry.New()
	r.Register(&exec.Module{}, &math.Module{}, &debuglog.Module{}, &vars.Module{})
	return r
}

func ref(node, field string) config.SocketRef {
	return config.SocketRef{Node: node, Field: field}
}

func TestBuild(t *testing.T) {
	model := &config.Model{
		Name: "demo",
		Variables: []*config.Variable{
			{Name: "score", Type: cty.Number, Default: cty.NumberIntVal(1)},
		},
		Nodes: []*config.Node{
			{Name: "start", Kind: exec.EntryKind},
			{Name: "two", Kind: "math/number", ID: 10, Values: map[string]cty.Value{"value": cty.NumberIntVal(2)}},
			{Name: "sum", Kind: "math/add"},
			{Name: "log", Kind: debuglog.Kind},
			{Name: "get", Kind: vars.GetKind, Params: map[string]cty.Value{"name": cty.StringVal("score")}},
		},
		Links: []*config.Link{
			{From: ref("start", "exec_out"), To: ref("log", "exec_in")},
			// written input-first; the builder orients it
			{From: ref("sum", "l"), To: ref("two", "value")},
			{From: ref("get", "score"), To: ref("sum", "r")},
			{From: ref("sum", "result"), To: ref("log", "message")},
		},
		NextNodeID: 100,
	}

	res, err := builder.Build(testContext(), model, testRegistry())
	require.NoError(t, err)
	g := res.Graph

	assert.Equal(t, "demo", g.Name)
	assert.Equal(t, map[string]int{"start": 11, "two": 10, "sum": 12, "log": 13, "get": 14}, res.IDs,
		"explicit ids are kept, the rest follow the highest in declaration order")
	assert.Equal(t, 5, g.Len())
	assert.Equal(t, 100, g.NextNodeID())
	assert.Equal(t, 4, g.Links.Len())

	two, err := g.Node(10)
	require.NoError(t, err)
	v, err := two.Value("value")
	require.NoError(t, err)
	assert.True(t, v.RawEquals(cty.NumberIntVal(2)))

	assert.Equal(t, []socket.Socket{socket.New(12, "l")}, g.Links.HasSocketAsSource(socket.New(10, "value")))

	score, err := g.Vars.Get("score")
	require.NoError(t, err)
	assert.True(t, score.RawEquals(cty.NumberIntVal(1)))

	s, err := res.Socket(ref("log", "exec_in"))
	require.NoError(t, err)
	assert.Equal(t, socket.New(13, "exec_in"), s)
}

func TestBuildDefaultsName(t *testing.T) {
	res, err := builder.Build(testContext(), &config.Model{}, testRegistry())
	require.NoError(t, err)
	assert.Equal(t, "main", res.Graph.Name)
	assert.Zero(t, res.Graph.Len())
}

func TestBuildErrors(t *testing.T) {
	nodes := func(ns ...*config.Node) []*config.Node { return ns }

	for _, tc := range []struct {
		name  string
		model *config.Model
		want  string
	}{
		{
			name:  "unknown kind",
			model: &config.Model{Nodes: nodes(&config.Node{Name: "a", Kind: "no/such"})},
			want:  `node "a"`,
		},
		{
			name: "shared id",
			model: &config.Model{Nodes: nodes(
				&config.Node{Name: "a", Kind: exec.EntryKind, ID: 3},
				&config.Node{Name: "b", Kind: exec.EntryKind, ID: 3},
			)},
			want: `nodes "a" and "b" share id 3`,
		},
		{
			name: "value on unknown socket",
			model: &config.Model{Nodes: nodes(
				&config.Node{Name: "a", Kind: "math/number", Values: map[string]cty.Value{"nope": cty.Zero}},
			)},
			want: `node "a"`,
		},
		{
			name: "link to unknown node",
			model: &config.Model{
				Nodes: nodes(&config.Node{Name: "a", Kind: exec.EntryKind}),
				Links: []*config.Link{{From: ref("a", "exec_out"), To: ref("ghost", "exec_in")}},
			},
			want: `no node named "ghost"`,
		},
		{
			name: "two outputs",
			model: &config.Model{
				Nodes: nodes(
					&config.Node{Name: "a", Kind: "math/number"},
					&config.Node{Name: "b", Kind: "math/number"},
				),
				Links: []*config.Link{{From: ref("a", "value"), To: ref("b", "value")}},
			},
			want: "both are outputs",
		},
		{
			name: "exec to data",
			model: &config.Model{
				Nodes: nodes(
					&config.Node{Name: "a", Kind: exec.EntryKind},
					&config.Node{Name: "b", Kind: "math/add"},
				),
				Links: []*config.Link{{From: ref("a", "exec_out"), To: ref("b", "l")}},
			},
			want: "exec sockets can only link to exec sockets",
		},
		{
			name: "second source on a single-link input",
			model: &config.Model{
				Nodes: nodes(
					&config.Node{Name: "a", Kind: "math/number"},
					&config.Node{Name: "b", Kind: "math/number"},
					&config.Node{Name: "sum", Kind: "math/add"},
				),
				Links: []*config.Link{
					{From: ref("a", "value"), To: ref("sum", "l")},
					{From: ref("b", "value"), To: ref("sum", "l")},
				},
			},
			want: "does not allow multiple links",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := builder.Build(testContext(), tc.model, testRegistry())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestBuildReportsEveryBadLink(t *testing.T) {
	model := &config.Model{
		Nodes: []*config.Node{{Name: "a", Kind: exec.EntryKind}},
		Links: []*config.Link{
			{From: ref("a", "exec_out"), To: ref("x", "exec_in")},
			{From: ref("a", "exec_out"), To: ref("y", "exec_in")},
		},
	}
	_, err := builder.Build(testContext(), model, testRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"x"`)
	assert.Contains(t, err.Error(), `"y"`)
}
