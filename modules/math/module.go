// Package math provides number constants, arithmetic and comparisons.
//
// Binary nodes read l and r and write result whenever they are evaluated.
// Null inputs read as zero.
package math

import (
	"context"
	"fmt"
	stdmath "math"

	"github.com/vk/nodegraph/internal/node"
	"github.com/vk/nodegraph/internal/registry"
	"github.com/vk/nodegraph/internal/scope"
	"github.com/vk/nodegraph/internal/socket"
	"github.com/zclconf/go-cty/cty"
)

// Epsilon is the tolerance used by equal.
const Epsilon = 1e-6

// Module implements the registry.Module interface for this package.
type Module struct{}

type binaryOp struct {
	name string
	desc string
	out  cty.Type
	fn   func(l, r float64) any
}

var binaryOps = []binaryOp{
	{"add", "The result of L + R.", cty.Number, func(l, r float64) any { return l + r }},
	{"subtract", "The result of L - R.", cty.Number, func(l, r float64) any { return l - r }},
	{"multiply", "The result of L * R.", cty.Number, func(l, r float64) any { return l * r }},
	{"divide", "The result of L / R.", cty.Number, func(l, r float64) any { return l / r }},
	{"min", "The smaller of L and R.", cty.Number, func(l, r float64) any { return stdmath.Min(l, r) }},
	{"max", "The larger of L and R.", cty.Number, func(l, r float64) any { return stdmath.Max(l, r) }},
	{"equal", "True if L and R are approximately equal.", cty.Bool, func(l, r float64) any { return stdmath.Abs(l-r) < Epsilon }},
	{"less_than", "True if L < R.", cty.Bool, func(l, r float64) any { return l < r }},
}

// Register registers every math kind.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(registry.Kind{
		Path:        "math/number",
		Description: "A number constant.",
		New:         func(registry.Params) (node.Node, error) { return NewNumber(), nil },
	})
	r.RegisterKind(registry.Kind{
		Path:        "math/abs",
		Description: "The absolute value.",
		New:         func(registry.Params) (node.Node, error) { return NewAbs(), nil },
	})
	for _, op := range binaryOps {
		r.RegisterKind(registry.Kind{
			Path:        "math/" + op.name,
			Description: op.desc,
			New:         func(registry.Params) (node.Node, error) { return newBinary(op), nil },
		})
	}
}

// Number holds a constant in its editable output.
type Number struct {
	node.Base
}

func NewNumber() *Number {
	return &Number{Base: node.NewBase("math/number",
		node.Out("value", cty.Number).
			WithFlags(socket.Editable | socket.AllowMultipleLinks).
			WithDefault(cty.Zero).
			Describe("The value."),
	)}
}

// Binary applies one operator to l and r.
type Binary struct {
	node.Base
	op binaryOp
}

// NewBinary returns the binary node registered as math/<name>.
func NewBinary(name string) (*Binary, error) {
	for _, op := range binaryOps {
		if op.name == name {
			return newBinary(op), nil
		}
	}
	return nil, fmt.Errorf("unknown math operator %q", name)
}

func newBinary(op binaryOp) *Binary {
	return &Binary{
		Base: node.NewBase("math/"+op.name,
			node.In("l", cty.Number).WithFlags(socket.Editable).WithDefault(cty.Zero).Describe("The left-hand value."),
			node.In("r", cty.Number).WithFlags(socket.Editable).WithDefault(cty.Zero).Describe("The right-hand value."),
			node.Out("result", op.out).WithFlags(socket.AllowMultipleLinks).Describe(op.desc),
		),
		op: op,
	}
}

func (b *Binary) Eval(ctx context.Context, sc *scope.Scope) error {
	l, err := b.Number("l")
	if err != nil {
		return err
	}
	r, err := b.Number("r")
	if err != nil {
		return err
	}
	res := b.op.fn(l, r)
	if f, ok := res.(float64); ok && (stdmath.IsInf(f, 0) || stdmath.IsNaN(f)) {
		// cty numbers cannot hold infinities or NaN.
		if err := b.SetValue("result", cty.NullVal(cty.Number)); err != nil {
			return err
		}
		return fmt.Errorf("math/%s: result of %v and %v is not a finite number", b.op.name, l, r)
	}
	return b.Set("result", res)
}

type Abs struct {
	node.Base
}

func NewAbs() *Abs {
	return &Abs{Base: node.NewBase("math/abs",
		node.In("value", cty.Number).WithFlags(socket.Editable).WithDefault(cty.Zero),
		node.Out("result", cty.Number).WithFlags(socket.AllowMultipleLinks),
	)}
}

func (a *Abs) Eval(ctx context.Context, sc *scope.Scope) error {
	v, err := a.Number("value")
	if err != nil {
		return err
	}
	return a.Set("result", stdmath.Abs(v))
}
