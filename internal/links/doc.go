// Package links implements the bidirectional link index of a node graph.
//
// Editors hand over links as unordered socket pairs. On insertion the index
// asks a RoleResolver which end is the input and stores the link oriented
// from output to input. Three views are kept in lockstep:
//
//   - **List:** the ordered, authoritative sequence of directed links.
//   - **From:** output socket to the destinations it feeds, in insertion order.
//   - **To:** input socket to the sources feeding it, in insertion order.
//
// Bulk removals rebuild both maps from the list, so the maps can never hold
// an entry the list does not. Queries return fresh, non-nil slices.
package links
