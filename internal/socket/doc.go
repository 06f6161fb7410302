// Package socket defines the addressing primitives of a node graph.
//
// A Socket is the pair (node id, field name) and is compared by value. Links
// are stored only as socket pairs; resolving a socket to its owning node
// always goes through the graph's id index, so nothing in this package holds
// a pointer back into the graph.
//
//   - **Socket:** value identity of one port.
//   - **Flags:** per-socket editing policy (AllowMultipleLinks, Editable).
//   - **Link / Directed:** an unoriented editor pair and its oriented form.
package socket
