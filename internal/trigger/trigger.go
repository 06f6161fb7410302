// Package trigger defines the closed set of host lifecycle events that start
// execution traces, and the cty capsule type used for exec sockets.
package trigger

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Kind is a host lifecycle event.
type Kind int

const (
	None Kind = iota
	OnAwake
	OnStart
	OnUpdate
	OnFixedUpdate
	OnLateUpdate
	OnEnable
	OnDisable
	OnDestroy
	OnApplicationFocus
	OnApplicationPause
	OnApplicationQuit

	kindCount
)

var names = [kindCount]string{
	None:               "none",
	OnAwake:            "on_awake",
	OnStart:            "on_start",
	OnUpdate:           "on_update",
	OnFixedUpdate:      "on_fixed_update",
	OnLateUpdate:       "on_late_update",
	OnEnable:           "on_enable",
	OnDisable:          "on_disable",
	OnDestroy:          "on_destroy",
	OnApplicationFocus: "on_application_focus",
	OnApplicationPause: "on_application_pause",
	OnApplicationQuit:  "on_application_quit",
}

// String returns the snake_case name used in graph files and relay events.
func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("trigger(%d)", int(k))
	}
	return names[k]
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

// Parse resolves a snake_case name (case-insensitive) to a Kind.
func Parse(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range names {
		if name == s {
			return Kind(k), nil
		}
	}
	return None, fmt.Errorf("unknown trigger %q", s)
}

// All returns every kind except None, in declaration order.
func All() []Kind {
	out := make([]Kind, 0, kindCount-1)
	for k := OnAwake; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// Type is the socket type of every exec socket. Exec sockets carry no data;
// a trigger-selector output stores which Kind it answers to as a capsule
// value of this type, and a null value means None.
var Type = cty.Capsule("exec", reflect.TypeOf(Kind(0)))

// One shared cell per kind keeps capsule values for the same kind
// pointer-identical, so cty equality behaves.
var cells [kindCount]Kind

func init() {
	for k := range cells {
		cells[k] = Kind(k)
	}
}

// Value wraps k as an exec socket value. None becomes a null value.
func Value(k Kind) cty.Value {
	if k == None || !k.Valid() {
		return cty.NullVal(Type)
	}
	return cty.CapsuleVal(Type, &cells[k])
}

// FromValue extracts the Kind held by an exec socket value. Null, unknown or
// foreign values yield None.
func FromValue(v cty.Value) Kind {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() || !v.Type().Equals(Type) {
		return None
	}
	k, ok := v.EncapsulatedValue().(*Kind)
	if !ok || k == nil {
		return None
	}
	return *k
}

// IsExec reports whether t is the exec socket type.
func IsExec(t cty.Type) bool {
	return t.Equals(Type)
}

// Object returns an object value mapping every kind name to its exec value.
// Graph files reference it as `trigger.on_start`.
func Object() cty.Value {
	attrs := make(map[string]cty.Value, kindCount)
	for k := None; k < kindCount; k++ {
		attrs[k.String()] = Value(k)
	}
	return cty.ObjectVal(attrs)
}
