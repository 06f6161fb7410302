package exec

import (
	"context"

	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/node"
	"github.com/vk/nodegraph/internal/scope"
	"github.com/vk/nodegraph/internal/socket"
	"github.com/vk/nodegraph/internal/yield"
	"github.com/zclconf/go-cty/cty"
)

const (
	WaitForSecondsKind = "exec/wait_for_seconds"
	NextTickKind       = "exec/next_tick"
)

// DefaultWaitSeconds is used when seconds cannot be read.
const DefaultWaitSeconds = 1

type WaitForSeconds struct {
	node.Base
}

func NewWaitForSeconds() *WaitForSeconds {
	return &WaitForSeconds{Base: node.NewBase(WaitForSecondsKind,
		node.ExecIn("exec_in").Describe("The input signal."),
		node.In("seconds", cty.Number).WithFlags(socket.Editable).WithDefault(cty.NumberIntVal(DefaultWaitSeconds)).
			Describe("The number of seconds to wait for."),
		node.ExecOut("exec_out").Describe("The output signal."),
	)}
}

// Exec reads seconds when reached, so a change made while waiting does not
// shorten the wait.
func (w *WaitForSeconds) Exec(ctx context.Context, from, to socket.Socket, sc *scope.Scope) yield.Sequence {
	return yield.Steps(
		func(ctx context.Context) yield.Yield {
			s, err := w.Number("seconds")
			if err != nil {
				s = DefaultWaitSeconds
				ctxlog.FromContext(ctx).Warn("Could not read wait duration, using the default.", "node_id", w.ID(), "default", s, "error", err)
			}
			return yield.Seconds(s)
		},
		func(context.Context) yield.Yield { return yield.SignalTo(sc, w.Socket("exec_out")) },
	)
}

type NextTick struct {
	node.Base
}

func NewNextTick() *NextTick {
	return &NextTick{Base: node.NewBase(NextTickKind, node.ExecIn("exec_in"), node.ExecOut("exec_out"))}
}

func (n *NextTick) Exec(ctx context.Context, from, to socket.Socket, sc *scope.Scope) yield.Sequence {
	return yield.Steps(
		func(context.Context) yield.Yield { return yield.NextTick() },
		func(context.Context) yield.Yield { return yield.SignalTo(sc, n.Socket("exec_out")) },
	)
}
