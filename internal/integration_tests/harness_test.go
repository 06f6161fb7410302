package integration_tests

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/nodegraph/internal/builder"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/engine"
	"github.com/vk/nodegraph/internal/registry"
	"github.com/vk/nodegraph/internal/testutil"
	"github.com/vk/nodegraph/modules/debuglog"
	"github.com/vk/nodegraph/modules/env_vars"
	"github.com/vk/nodegraph/modules/exec"
	"github.com/vk/nodegraph/modules/math"
	"github.com/vk/nodegraph/modules/vars"
)

func stockRegistry(t *testing.T, ctx context.Context) *registry.Registry {
	t.Helper()
	r := registry.New()
	r.Register(&exec.Module{}, &debuglog.Module{}, &math.Module{}, &vars.Module{}, &env_vars.Module{})
	require.NoError(t, r.ValidateRegistry(ctx))
	return r
}

type run struct {
	ctx    context.Context
	logs   *testutil.SafeBuffer
	graph  *builder.Result
	player *engine.Player
}

// play loads graph with the stock modules and returns a player for it. The
// run logs JSON so messages() can pick out what debug/log nodes wrote.
func play(t *testing.T, graph string) *run {
	t.Helper()
	logs := &testutil.SafeBuffer{}
	logger := slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	res := testutil.MustLoadGraph(ctx, t, stockRegistry(t, ctx), map[string]string{"main.hcl": graph})
	return &run{ctx: ctx, logs: logs, graph: res, player: engine.New(res.Graph)}
}

// messages returns, in order, what debug/log nodes wrote at info level.
// Those are the only info lines carrying a node_id without a kind.
func (r *run) messages(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(r.logs.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		if rec["level"] != "INFO" {
			continue
		}
		if _, ok := rec["node_id"]; !ok {
			continue
		}
		if _, ok := rec["kind"]; ok {
			continue
		}
		out = append(out, rec["msg"].(string))
	}
	return out
}
