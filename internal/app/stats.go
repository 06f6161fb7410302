package app

import (
	"sync"

	"github.com/vk/nodegraph/internal/engine"
)

// Stats is the JSON view of the player counters served on /stats.
type Stats struct {
	Graph     string `json:"graph"`
	Fired     uint64 `json:"fired"`
	Traces    uint64 `json:"traces"`
	Parked    uint64 `json:"parked"`
	Resumed   uint64 `json:"resumed"`
	Completed uint64 `json:"completed"`
	Aborted   uint64 `json:"aborted"`
	Pending   int    `json:"pending"`
	Destroyed bool   `json:"destroyed"`
}

// statsBox hands the player's counters from the tick goroutine to HTTP
// handlers. The player itself must not be touched off its goroutine.
type statsBox struct {
	mu sync.RWMutex
	s  Stats
}

func (b *statsBox) publish(graph string, p *engine.Player) {
	es := p.Stats()
	s := Stats{
		Graph:     graph,
		Fired:     es.Fired,
		Traces:    es.Traces,
		Parked:    es.Parked,
		Resumed:   es.Resumed,
		Completed: es.Completed,
		Aborted:   es.Aborted,
		Pending:   p.Pending(),
		Destroyed: p.Destroyed(),
	}
	b.mu.Lock()
	b.s = s
	b.mu.Unlock()
}

func (b *statsBox) load() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.s
}
