// Package debuglog provides the debug/log node, which writes a message
// through the logger carried by the execution context.
package debuglog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/node"
	"github.com/vk/nodegraph/internal/registry"
	"github.com/vk/nodegraph/internal/scope"
	"github.com/vk/nodegraph/internal/socket"
	"github.com/vk/nodegraph/internal/yield"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

const Kind = "debug/log"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the debug/log kind.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(registry.Kind{
		Path:        Kind,
		Description: "Logs a message and continues.",
		New:         func(registry.Params) (node.Node, error) { return New(), nil },
	})
}

// Log writes message at severity each time it is reached.
type Log struct {
	node.Base
}

func New() *Log {
	return &Log{Base: node.NewBase(Kind,
		node.ExecIn("exec_in").Describe("The input signal."),
		node.In("severity", cty.String).WithFlags(socket.Editable).WithDefault(cty.StringVal("info")).
			Describe("One of debug, info, warning or error."),
		node.In("message", cty.DynamicPseudoType).WithFlags(socket.Editable).
			Describe("The message to log."),
		node.ExecOut("exec_out").Describe("The output signal."),
	)}
}

func (l *Log) Exec(ctx context.Context, from, to socket.Socket, sc *scope.Scope) yield.Sequence {
	return yield.Steps(func(ctx context.Context) yield.Yield {
		sev, _ := l.Text("severity")
		msg, _ := l.Value("message")
		ctxlog.FromContext(ctx).Log(ctx, Level(sev), Format(msg), "node_id", l.ID())
		return yield.SignalTo(sc, l.Socket("exec_out"))
	})
}

// Level maps a severity name to a slog level. Unknown names log at info.
func Level(severity string) slog.Level {
	switch strings.ToLower(severity) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Format renders a socket value as log text. Strings are printed raw and
// everything else as JSON.
func Format(v cty.Value) string {
	switch {
	case v == cty.NilVal || v.IsNull():
		return "(null)"
	case !v.IsKnown():
		return "(unknown)"
	case v.Type() == cty.String:
		return v.AsString()
	}
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(b)
}
