// Package engine plays a node graph: it turns host triggers into execution
// traces and drives them across ticks.
//
// # Triggers
//
// Every exec output whose value holds a trigger kind is an entry point. The
// player indexes them by kind and rebuilds the index whenever the graph's
// version moves. Firing a kind creates one fresh scope per entry socket,
// evaluates the entry node, and starts one root trace per link leaving it.
//
// # Steps
//
// A step is the traversal of one link (from, to):
//
//  1. Resolve the destination node. A dangling id aborts the trace.
//  2. Snapshot the destination's outputs into the scope memo.
//  3. Evaluate it, pulling every linked data input (upstream nodes are
//     evaluated at most once per scope).
//  4. Open its exec sequence and pull values from it.
//
// A Signal starts a child step for each destination of the signalled
// socket, in link order, depth-first. An unfinished wait suspends the step,
// which is parked in the pending set while the enclosing fan-out carries on.
//
// # Ticks
//
// Tick advances each parked trace's wait. Finished waits resume their
// sequence exactly where it stopped. Once OnDestroy has fired, the first
// tick that leaves nothing pending tears the player down.
//
// # Failure
//
// Nothing here returns errors to the caller of Fire or Tick. Missing data
// sources are skipped with a warning; dangling exec destinations, exceeded
// depth and panics in node code abort the affected trace and are logged.
// Other traces keep running.
package engine
