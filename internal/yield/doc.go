// Package yield defines what a node's exec sequence can hand back to the
// engine, and the Sequence abstraction used to resume it.
//
// There are two families of yield:
//
//   - **Signal:** continue execution through every link leaving a socket.
//     Always finished, so it never suspends a trace.
//   - **Waits:** WaitForSeconds, WaitForTick and WaitUntil. An unfinished wait
//     parks the trace in the engine's pending set until a later tick
//     reports it finished.
//
// A Sequence is pulled one value at a time. Node code runs only inside
// Next, so nothing executes between a suspension and its resumption.
package yield
