package node

import (
	"context"
	"fmt"

	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/scope"
	"github.com/vk/nodegraph/internal/socket"
	"github.com/vk/nodegraph/internal/yield"
)

// InvokeFunc is the behavior bound to a dynamic node.
type InvokeFunc func(ctx context.Context, d *Dynamic, sc *scope.Scope) error

// Invoke binds behavior to a dynamic node. Exec invokes run when their
// Trigger exec input is reached and then signal Next, if set. Eval invokes
// leave both empty and run, in order, on every Eval.
type Invoke struct {
	Trigger string
	Next    string
	Fn      InvokeFunc
}

// Dynamic is a node whose sockets and behavior are assembled by whoever
// builds it (for example one getter per declared graph variable) instead of
// being fixed by a Go type.
type Dynamic struct {
	Base
	evals []Invoke
	execs []Invoke
}

// NewDynamic returns an empty dynamic node of the given kind.
func NewDynamic(kind string) *Dynamic {
	return &Dynamic{Base: NewBase(kind)}
}

// AddSocket appends a socket. It is meant for build time, before the node is
// placed in a graph.
func (d *Dynamic) AddSocket(def Def) error {
	return d.addDef(def)
}

// OnEval appends an eval invoke.
func (d *Dynamic) OnEval(fn InvokeFunc) {
	d.evals = append(d.evals, Invoke{Fn: fn})
}

// OnExec binds fn to the exec input trigger, continuing through next.
func (d *Dynamic) OnExec(trigger, next string, fn InvokeFunc) error {
	def, err := d.Def(trigger)
	if err != nil {
		return err
	}
	if !def.Input || !def.IsExec() {
		return fmt.Errorf("node %s: invoke trigger %q is not an exec input", d.kind, trigger)
	}
	if next != "" {
		def, err = d.Def(next)
		if err != nil {
			return err
		}
		if def.Input || !def.IsExec() {
			return fmt.Errorf("node %s: invoke continuation %q is not an exec output", d.kind, next)
		}
	}
	d.execs = append(d.execs, Invoke{Trigger: trigger, Next: next, Fn: fn})
	return nil
}

// Eval runs every eval invoke in order and stops at the first error.
func (d *Dynamic) Eval(ctx context.Context, sc *scope.Scope) error {
	for _, inv := range d.evals {
		if err := inv.Fn(ctx, d, sc); err != nil {
			return err
		}
	}
	return nil
}

// Exec runs the invokes bound to the reached exec input in order, yielding
// each one's continuation signal. A failing invoke is logged and ends the
// branch.
func (d *Dynamic) Exec(ctx context.Context, from, to socket.Socket, sc *scope.Scope) yield.Sequence {
	pos := 0
	return yield.Func(func(ctx context.Context) (yield.Yield, bool) {
		for pos < len(d.execs) {
			inv := d.execs[pos]
			pos++
			if inv.Trigger != to.Field {
				continue
			}
			if inv.Fn != nil {
				if err := inv.Fn(ctx, d, sc); err != nil {
					ctxlog.FromContext(ctx).Error("Dynamic node invoke failed.", "node_id", d.id, "kind", d.kind, "trigger", inv.Trigger, "error", err)
					pos = len(d.execs)
					return nil, false
				}
			}
			if inv.Next != "" {
				return yield.SignalTo(sc, d.Socket(inv.Next)), true
			}
		}
		return nil, false
	})
}
