// Package http_client provides the http/request node: it performs one HTTP
// request per exec signal on a shared client and suspends the trace until
// the response arrives.
package http_client

import (
	"net/http"
	"time"

	"github.com/vk/nodegraph/internal/node"
	"github.com/vk/nodegraph/internal/registry"
)

const (
	Kind = "http/request"

	DefaultTimeout = 30 * time.Second
)

// Module implements the registry.Module interface for this package. All
// request nodes it creates share Client, or a pooled default client when
// it is nil.
type Module struct {
	Client *http.Client
}

// newClient builds the shared client. Per-request deadlines come from the
// node's timeout socket, so the client itself has none.
func newClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Register registers the http/request kind.
func (m *Module) Register(r *registry.Registry) {
	if m.Client == nil {
		m.Client = newClient()
	}
	r.RegisterKind(registry.Kind{
		Path:        Kind,
		Description: "Sends an HTTP request and continues once the response arrives.",
		New:         func(registry.Params) (node.Node, error) { return NewRequest(m.Client), nil },
	})
}
