package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/nodegraph/internal/node"
	"github.com/zclconf/go-cty/cty"
)

// ErrUnknownKind is returned by Create for an unregistered path.
var ErrUnknownKind = errors.New("unknown node kind")

// Module is the interface that all node libraries implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Params are the build-time arguments of a node, keyed by name. Kinds with a
// fixed shape ignore them; dynamic kinds (for example a getter for a named
// variable) read them.
type Params map[string]cty.Value

// String returns the named parameter as a Go string.
func (p Params) String(name string) (string, error) {
	v, ok := p[name]
	if !ok || v.IsNull() {
		return "", fmt.Errorf("missing parameter %q", name)
	}
	if v.Type() != cty.String {
		return "", fmt.Errorf("parameter %q must be a string, got %s", name, v.Type().FriendlyName())
	}
	return v.AsString(), nil
}

// Constructor builds a fresh node.
type Constructor func(p Params) (node.Node, error)

// Kind describes one registered node kind.
type Kind struct {
	Path        string
	Description string
	// Dynamic kinds require parameters and are skipped by ValidateRegistry.
	Dynamic bool
	New     Constructor
}

// Registry holds every node kind known to one application instance.
type Registry struct {
	kinds map[string]*Kind
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{kinds: make(map[string]*Kind)}
}

// RegisterKind adds a node kind. Registering the same path twice panics.
func (r *Registry) RegisterKind(k Kind) {
	if k.Path == "" || k.New == nil {
		panic(fmt.Sprintf("node kind %q must have a path and a constructor", k.Path))
	}
	if _, exists := r.kinds[k.Path]; exists {
		panic(fmt.Sprintf("node kind with path '%s' already registered", k.Path))
	}
	slog.Debug("Registering node kind.", "path", k.Path)
	r.kinds[k.Path] = &k
}

// Kind returns the kind registered under path.
func (r *Registry) Kind(path string) (Kind, bool) {
	k, ok := r.kinds[path]
	if !ok {
		return Kind{}, false
	}
	return *k, true
}

// Paths returns every registered path in sorted order.
func (r *Registry) Paths() []string {
	paths := make([]string, 0, len(r.kinds))
	for p := range r.kinds {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of registered kinds.
func (r *Registry) Len() int {
	return len(r.kinds)
}

// Create builds a new node of the kind registered under path.
func (r *Registry) Create(path string, p Params) (node.Node, error) {
	k, ok := r.kinds[path]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, path)
	}
	if p == nil {
		p = Params{}
	}
	n, err := k.New(p)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	if n == nil {
		return nil, fmt.Errorf("create %s: constructor returned no node", path)
	}
	if n.Kind() != path {
		return nil, fmt.Errorf("create %s: constructor built a node of kind %q", path, n.Kind())
	}
	return n, nil
}

// Register runs every module's Register method against r.
func (r *Registry) Register(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}

// Contains reports whether path is registered.
func (r *Registry) Contains(path string) bool {
	_, ok := r.kinds[path]
	return ok
}
