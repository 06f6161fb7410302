package node

import (
	"context"
	"errors"

	"github.com/vk/nodegraph/internal/scope"
	"github.com/vk/nodegraph/internal/socket"
	"github.com/vk/nodegraph/internal/yield"
	"github.com/zclconf/go-cty/cty"
)

// ErrUnknownSocket is returned when a field name is not declared on a node.
var ErrUnknownSocket = errors.New("unknown socket")

// Node is the contract the engine drives. Implementations usually embed
// Base (fixed shape) or Dynamic (shape assembled at build time) and supply
// Eval and Exec.
type Node interface {
	ID() int
	SetID(id int)
	// Kind is the registry path the node was created from, e.g. "math/add".
	Kind() string

	Defs() []Def
	Def(field string) (Def, error)
	Inputs() []socket.Socket
	Outputs() []socket.Socket
	Sockets() []socket.Socket
	IsInput(field string) (bool, error)
	Type(field string) (cty.Type, error)
	Flags(field string) (socket.Flags, error)

	Value(field string) (cty.Value, error)
	SetValue(field string, v cty.Value) error

	// Eval recomputes outputs from inputs. The engine has already pulled
	// every linked data input into place before calling it.
	Eval(ctx context.Context, sc *scope.Scope) error

	// Exec returns the lazy control-flow sequence run when the exec input
	// `to` is reached from the exec output `from`.
	Exec(ctx context.Context, from, to socket.Socket, sc *scope.Scope) yield.Sequence
}
