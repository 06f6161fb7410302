// Package app hosts one graph: it loads and builds it, drives the player
// through the lifecycle triggers on a fixed tick, feeds it relayed triggers
// and serves health and stats over HTTP. It is decoupled from any specific
// entrypoint like a CLI.
package app
