// Package relay lets a remote socket.io server fire triggers on a running
// graph.
//
// The server emits "trigger" events whose payload names a trigger kind,
// either as a plain string ("on_update") or as an object with a "trigger"
// key. Events arrive on socket.io goroutines and are only queued there; the
// host drains the queue from its own tick loop and fires the triggers on the
// player's goroutine, so the player stays single-threaded.
package relay
