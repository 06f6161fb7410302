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
	IfKind    = "exec/if"
	GateKind  = "exec/gate"
	WhileKind = "exec/while"
)

// DefaultWhileLimit caps the iterations of one while loop run.
const DefaultWhileLimit = 10000

type If struct {
	node.Base
}

func NewIf() *If {
	return &If{Base: node.NewBase(IfKind,
		node.ExecIn("exec_in").Describe("The execution signal that performs the test."),
		node.In("condition", cty.Bool).WithFlags(socket.Editable).WithDefault(cty.False).
			Describe("True if the signal should continue through true."),
		node.ExecOut("true").Describe("The execution signal, if the condition was true."),
		node.ExecOut("false").Describe("The execution signal, if the condition was false."),
	)}
}

func (n *If) Exec(ctx context.Context, from, to socket.Socket, sc *scope.Scope) yield.Sequence {
	return yield.Steps(func(ctx context.Context) yield.Yield {
		ok, err := n.Bool("condition")
		if err != nil {
			ctxlog.FromContext(ctx).Warn("Could not read condition, taking the false branch.", "node_id", n.ID(), "error", err)
		}
		if ok {
			return yield.SignalTo(sc, n.Socket("true"))
		}
		return yield.SignalTo(sc, n.Socket("false"))
	})
}

// Gate forwards exec_in to exec_out only while open. Reaching open or close
// flips the gate without continuing.
type Gate struct {
	node.Base
}

func NewGate() *Gate {
	return &Gate{Base: node.NewBase(GateKind,
		node.ExecIn("open").Describe("Opens the gate."),
		node.ExecIn("close").Describe("Closes the gate."),
		node.ExecIn("exec_in"),
		node.In("is_open", cty.Bool).WithFlags(socket.Editable).WithDefault(cty.False),
		node.ExecOut("exec_out"),
	)}
}

func (g *Gate) Exec(ctx context.Context, from, to socket.Socket, sc *scope.Scope) yield.Sequence {
	return yield.Steps(func(ctx context.Context) yield.Yield {
		switch to.Field {
		case "open":
			g.setOpen(ctx, true)
			return nil
		case "close":
			g.setOpen(ctx, false)
			return nil
		}
		if open, _ := g.Bool("is_open"); open {
			return yield.SignalTo(sc, g.Socket("exec_out"))
		}
		return nil
	})
}

func (g *Gate) setOpen(ctx context.Context, open bool) {
	if err := g.Set("is_open", open); err != nil {
		ctxlog.FromContext(ctx).Error("Could not set gate state.", "node_id", g.ID(), "error", err)
	}
}

// While signals its body while condition holds. Each repetition runs on a
// clone of the scope, and the condition is re-read from a fresh clone after
// every repetition so that upstream nodes are evaluated again. A repetition
// whose body waits holds the loop until the body has finished. Once the
// condition is false, done is signalled.
type While struct {
	node.Base
}

func NewWhile() *While {
	return &While{Base: node.NewBase(WhileKind,
		node.ExecIn("exec_in").Describe("The input signal."),
		node.In("condition", cty.Bool).WithFlags(socket.Editable).WithDefault(cty.False).
			Describe("True if the loop should run again."),
		node.In("limit", cty.Number).WithFlags(socket.Editable).WithDefault(cty.NumberIntVal(DefaultWhileLimit)).
			Describe("Maximum repetitions per run. Zero or less means the default."),
		node.ExecOut("true").Describe("The loop body signal."),
		node.ExecOut("done").Describe("Signalled once the condition is false."),
	)}
}

func (w *While) Exec(ctx context.Context, from, to socket.Socket, sc *scope.Scope) yield.Sequence {
	return &whileLoop{w: w, sc: sc}
}

type whileLoop struct {
	w     *While
	sc    *scope.Scope
	iter  int
	limit int
	done  bool
}

func (l *whileLoop) Next(ctx context.Context) (yield.Yield, bool) {
	if l.done {
		return nil, false
	}
	logger := ctxlog.FromContext(ctx)

	if l.iter == 0 {
		limit, err := l.w.Number("limit")
		if err != nil {
			logger.Warn("Could not read loop limit, using the default.", "node_id", l.w.ID(), "default", DefaultWhileLimit, "error", err)
		}
		l.limit = int(limit)
		if l.limit <= 0 {
			l.limit = DefaultWhileLimit
		}
	} else {
		if l.sc.Evaluator == nil {
			logger.Warn("Loop cannot re-evaluate its condition outside the engine, stopping.", "node_id", l.w.ID())
			return l.finish()
		}
		if err := l.sc.Evaluator.Evaluate(ctx, l.w.ID(), l.sc.Clone()); err != nil {
			logger.Error("Loop condition re-evaluation failed, stopping.", "node_id", l.w.ID(), "error", err)
			return l.finish()
		}
	}

	cond, err := l.w.Bool("condition")
	if err != nil {
		logger.Warn("Could not read loop condition, stopping.", "node_id", l.w.ID(), "error", err)
		return l.finish()
	}
	if !cond {
		return l.finish()
	}
	if l.iter >= l.limit {
		logger.Warn("Loop hit its iteration limit, stopping.", "node_id", l.w.ID(), "limit", l.limit)
		return l.finish()
	}
	l.iter++
	return yield.SignalAndWait(l.sc.Clone(), l.w.Socket("true")), true
}

func (l *whileLoop) finish() (yield.Yield, bool) {
	l.done = true
	return yield.SignalTo(l.sc, l.w.Socket("done")), true
}
