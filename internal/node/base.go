package node

import (
	"context"
	"fmt"

	"github.com/vk/nodegraph/internal/scope"
	"github.com/vk/nodegraph/internal/socket"
	"github.com/vk/nodegraph/internal/yield"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Base implements everything in Node except behavior. Its socket list is
// declared once at construction and never changes.
type Base struct {
	id     int
	kind   string
	defs   []Def
	index  map[string]int
	values []cty.Value
}

// NewBase declares a fixed-shape node. Duplicate socket names panic: they
// are a programming error in the node's constructor.
func NewBase(kind string, defs ...Def) Base {
	b := Base{kind: kind, index: make(map[string]int, len(defs))}
	for _, d := range defs {
		if err := b.addDef(d); err != nil {
			panic(err)
		}
	}
	return b
}

func (b *Base) addDef(d Def) error {
	if d.Name == "" {
		return fmt.Errorf("node %s: socket name cannot be empty", b.kind)
	}
	if _, dup := b.index[d.Name]; dup {
		return fmt.Errorf("node %s: socket %q declared more than once", b.kind, d.Name)
	}
	if d.Type == cty.NilType {
		d.Type = cty.DynamicPseudoType
	}
	v := cty.NullVal(d.Type)
	if d.Default != cty.NilVal {
		conv, err := convert.Convert(d.Default, d.Type)
		if err != nil {
			return fmt.Errorf("node %s: default for %q: %w", b.kind, d.Name, err)
		}
		v = conv
	}
	b.index[d.Name] = len(b.defs)
	b.defs = append(b.defs, d)
	b.values = append(b.values, v)
	return nil
}

func (b *Base) ID() int { return b.id }

func (b *Base) SetID(id int) { b.id = id }

func (b *Base) Kind() string { return b.kind }

func (b *Base) Defs() []Def { return append([]Def(nil), b.defs...) }

func (b *Base) Def(field string) (Def, error) {
	i, ok := b.index[field]
	if !ok {
		return Def{}, fmt.Errorf("%w %q on node %d (%s)", ErrUnknownSocket, field, b.id, b.kind)
	}
	return b.defs[i], nil
}

// Socket returns the address of field on this node. It does not check that
// the field exists.
func (b *Base) Socket(field string) socket.Socket {
	return socket.New(b.id, field)
}

func (b *Base) Inputs() []socket.Socket {
	return b.sockets(func(d Def) bool { return d.Input })
}

func (b *Base) Outputs() []socket.Socket {
	return b.sockets(func(d Def) bool { return !d.Input })
}

func (b *Base) Sockets() []socket.Socket {
	return b.sockets(func(Def) bool { return true })
}

func (b *Base) sockets(keep func(Def) bool) []socket.Socket {
	out := make([]socket.Socket, 0, len(b.defs))
	for _, d := range b.defs {
		if keep(d) {
			out = append(out, socket.New(b.id, d.Name))
		}
	}
	return out
}

func (b *Base) IsInput(field string) (bool, error) {
	d, err := b.Def(field)
	return d.Input, err
}

func (b *Base) Type(field string) (cty.Type, error) {
	d, err := b.Def(field)
	if err != nil {
		return cty.NilType, err
	}
	return d.Type, nil
}

func (b *Base) Flags(field string) (socket.Flags, error) {
	d, err := b.Def(field)
	return d.Flags, err
}

func (b *Base) Value(field string) (cty.Value, error) {
	i, ok := b.index[field]
	if !ok {
		return cty.NilVal, fmt.Errorf("%w %q on node %d (%s)", ErrUnknownSocket, field, b.id, b.kind)
	}
	return b.values[i], nil
}

// SetValue converts v to the socket's type and stores it.
func (b *Base) SetValue(field string, v cty.Value) error {
	i, ok := b.index[field]
	if !ok {
		return fmt.Errorf("%w %q on node %d (%s)", ErrUnknownSocket, field, b.id, b.kind)
	}
	ty := b.defs[i].Type
	if v == cty.NilVal || v.IsNull() {
		b.values[i] = cty.NullVal(ty)
		return nil
	}
	conv, err := convert.Convert(v, ty)
	if err != nil {
		return fmt.Errorf("socket %q on node %d (%s) expects %s: %w", field, b.id, b.kind, ty.FriendlyName(), err)
	}
	b.values[i] = conv
	return nil
}

// Eval does nothing by default.
func (b *Base) Eval(context.Context, *scope.Scope) error { return nil }

// Exec yields nothing by default.
func (b *Base) Exec(context.Context, socket.Socket, socket.Socket, *scope.Scope) yield.Sequence {
	return yield.Empty()
}

// Number reads field as a float64. Null reads as 0.
func (b *Base) Number(field string) (float64, error) {
	var f float64
	return f, b.decode(field, &f)
}

// Text reads field as a string. Null reads as "".
func (b *Base) Text(field string) (string, error) {
	var s string
	return s, b.decode(field, &s)
}

// Bool reads field as a bool. Null reads as false.
func (b *Base) Bool(field string) (bool, error) {
	var v bool
	return v, b.decode(field, &v)
}

func (b *Base) decode(field string, target any) error {
	v, err := b.Value(field)
	if err != nil {
		return err
	}
	if v.IsNull() || !v.IsKnown() {
		return nil
	}
	if err := gocty.FromCtyValue(v, target); err != nil {
		return fmt.Errorf("socket %q on node %d (%s): %w", field, b.id, b.kind, err)
	}
	return nil
}

// Set encodes a Go value into field.
func (b *Base) Set(field string, goVal any) error {
	ty, err := b.Type(field)
	if err != nil {
		return err
	}
	if ty == cty.DynamicPseudoType {
		ty, err = gocty.ImpliedType(goVal)
		if err != nil {
			return fmt.Errorf("socket %q on node %d (%s): %w", field, b.id, b.kind, err)
		}
	}
	v, err := gocty.ToCtyValue(goVal, ty)
	if err != nil {
		return fmt.Errorf("socket %q on node %d (%s): %w", field, b.id, b.kind, err)
	}
	return b.SetValue(field, v)
}
