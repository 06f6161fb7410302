package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/nodegraph/internal/config"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/links"
	"github.com/vk/nodegraph/internal/registry"
	"github.com/vk/nodegraph/internal/socket"
)

// Result is a built graph together with the file-local node names.
type Result struct {
	Graph *graph.Graph
	// IDs maps node names from the graph file to node ids.
	IDs map[string]int
}

// Socket resolves a file-level socket reference.
func (r *Result) Socket(ref config.SocketRef) (socket.Socket, error) {
	id, ok := r.IDs[ref.Node]
	if !ok {
		return socket.Socket{}, fmt.Errorf("%s: no node named %q", ref, ref.Node)
	}
	return socket.New(id, ref.Field), nil
}

// Build constructs a validated graph from a config model.
func Build(ctx context.Context, model *config.Model, r *registry.Registry) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.", "graph", model.Name)

	name := model.Name
	if name == "" {
		name = "main"
	}
	res := &Result{Graph: graph.New(name), IDs: make(map[string]int, len(model.Nodes))}

	for _, v := range model.Variables {
		if err := res.Graph.Vars.Declare(v.Name, v.Type, v.Default, v.Description); err != nil {
			return nil, err
		}
	}
	logger.Debug("Build: Variables declared.", "count", res.Graph.Vars.Len())

	if err := createNodes(model, r, res); err != nil {
		return nil, err
	}
	if model.NextNodeID > 0 {
		res.Graph.SetNextNodeID(model.NextNodeID)
	}
	logger.Debug("Build: Node creation complete.", "node_count", res.Graph.Len())

	if err := linkNodes(model, res); err != nil {
		return nil, err
	}
	logger.Debug("Build: Node linking complete.", "link_count", res.Graph.Links.Len())

	if err := res.Graph.Validate(); err != nil {
		return nil, fmt.Errorf("error validating graph %q: %w", name, err)
	}
	logger.Info("Build: Graph construction successful.", "graph", name, "nodes", res.Graph.Len(), "links", res.Graph.Links.Len())
	return res, nil
}

func assignIDs(nodes []*config.Node) (map[string]int, error) {
	ids := make(map[string]int, len(nodes))
	owner := make(map[int]string)
	next := 1
	for _, n := range nodes {
		if n.ID == 0 {
			continue
		}
		if prev, dup := owner[n.ID]; dup {
			return nil, fmt.Errorf("nodes %q and %q share id %d", prev, n.Name, n.ID)
		}
		owner[n.ID] = n.Name
		ids[n.Name] = n.ID
		next = max(next, n.ID+1)
	}
	for _, n := range nodes {
		if n.ID == 0 {
			ids[n.Name] = next
			next++
		}
	}
	return ids, nil
}

func createNodes(model *config.Model, r *registry.Registry, res *Result) error {
	ids, err := assignIDs(model.Nodes)
	if err != nil {
		return err
	}
	for _, cn := range model.Nodes {
		n, err := r.Create(cn.Kind, cn.Params)
		if err != nil {
			return fmt.Errorf("node %q: %w", cn.Name, err)
		}
		n.SetID(ids[cn.Name])
		if err := res.Graph.Insert(n); err != nil {
			return fmt.Errorf("node %q: %w", cn.Name, err)
		}
		res.IDs[cn.Name] = n.ID()

		for field, v := range cn.Values {
			if err := n.SetValue(field, v); err != nil {
				return fmt.Errorf("node %q: %w", cn.Name, err)
			}
		}
	}
	return nil
}

func linkNodes(model *config.Model, res *Result) error {
	g := res.Graph
	var errs []error
	for _, l := range model.Links {
		a, err := res.Socket(l.From)
		if err != nil {
			errs = append(errs, fmt.Errorf("link %s -> %s: %w", l.From, l.To, err))
			continue
		}
		b, err := res.Socket(l.To)
		if err != nil {
			errs = append(errs, fmt.Errorf("link %s -> %s: %w", l.From, l.To, err))
			continue
		}
		d, err := links.Orient(g, a, b)
		if err != nil {
			errs = append(errs, fmt.Errorf("link %s -> %s: %w", l.From, l.To, err))
			continue
		}
		if err := checkLinkPolicy(g, d); err != nil {
			errs = append(errs, fmt.Errorf("link %s -> %s: %w", l.From, l.To, err))
			continue
		}
		if _, err := g.Connect(d.From, d.To); err != nil {
			errs = append(errs, fmt.Errorf("link %s -> %s: %w", l.From, l.To, err))
		}
	}
	return errors.Join(errs...)
}

// checkLinkPolicy rejects a second link on an endpoint that does not allow
// multiple links, which Connect would otherwise resolve by evicting the
// first one.
func checkLinkPolicy(g *graph.Graph, d socket.Directed) error {
	for _, end := range []struct {
		s     socket.Socket
		other socket.Socket
		peers func(socket.Socket) []socket.Socket
		role  string
	}{
		{d.From, d.To, g.Links.HasSocketAsSource, "output"},
		{d.To, d.From, g.Links.HasSocketAsDestination, "input"},
	} {
		n, err := g.Node(end.s.NodeID)
		if err != nil {
			return err
		}
		def, err := n.Def(end.s.Field)
		if err != nil {
			return err
		}
		if def.Flags.Has(socket.AllowMultipleLinks) {
			continue
		}
		for _, peer := range end.peers(end.s) {
			if peer != end.other {
				return fmt.Errorf("%s %s does not allow multiple links and is already linked to %s", end.role, end.s, peer)
			}
		}
	}
	return nil
}
