package exec

import (
	"context"

	"github.com/vk/nodegraph/internal/node"
	"github.com/vk/nodegraph/internal/scope"
	"github.com/vk/nodegraph/internal/socket"
	"github.com/vk/nodegraph/internal/trigger"
	"github.com/vk/nodegraph/internal/yield"
)

const EntryKind = "exec/entry"

// Entry is a trigger entry point. The value of its exec output selects
// which trigger starts the graph from here; it defaults to on_start.
type Entry struct {
	node.Base
}

func NewEntry() *Entry {
	return &Entry{Base: node.NewBase(EntryKind,
		node.ExecOut("exec_out").
			WithFlags(socket.Editable).
			WithDefault(trigger.Value(trigger.OnStart)).
			Describe("The execution entry point."),
	)}
}

// Exec passes the signal straight through when control reaches the entry
// from elsewhere.
func (e *Entry) Exec(ctx context.Context, from, to socket.Socket, sc *scope.Scope) yield.Sequence {
	return yield.Of(yield.SignalTo(sc, e.Socket("exec_out")))
}
