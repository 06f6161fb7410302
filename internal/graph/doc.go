// Package graph owns a node graph: its nodes, the link index, the id counter
// and the variable table.
//
// # Identity
//
// Nodes are addressed by integer id. Ids are assigned from a counter that
// only moves forward, so an id is never reused within a graph even after the
// node is removed. A link or trace that outlives its node resolves to
// ErrNodeNotFound instead of a stale pointer.
//
// # Editing Policy
//
// Connect is the editor-facing way to link sockets:
//
//   - **Orientation:** the pair may be given in either order.
//   - **Type check:** exec sockets only link to exec sockets, and a data
//     output must convert to the input's type.
//   - **Eviction:** an endpoint without AllowMultipleLinks drops its existing
//     links before the new one is added.
//
// Links.Add bypasses the policy. Graphs assembled that way should be checked
// with Validate.
//
// # Versioning
//
// Version moves on every edit made through the graph. The player compares it
// to decide when its trigger index is stale.
package graph
