package relay

import (
	"errors"
	"fmt"

	"github.com/vk/nodegraph/internal/trigger"
)

// ErrQueueFull is returned by Push when the host has fallen behind.
var ErrQueueFull = errors.New("relay queue is full")

// DefaultQueueSize bounds the number of undrained triggers.
const DefaultQueueSize = 256

// Queue is a bounded, non-blocking hand-off of trigger kinds from any
// goroutine to the host's tick loop.
type Queue struct {
	ch chan trigger.Kind
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan trigger.Kind, size)}
}

// Push enqueues k without blocking.
func (q *Queue) Push(k trigger.Kind) error {
	if !k.Valid() || k == trigger.None {
		return fmt.Errorf("cannot relay trigger %s", k)
	}
	select {
	case q.ch <- k:
		return nil
	default:
		return ErrQueueFull
	}
}

// Drain returns every queued kind in arrival order without blocking.
func (q *Queue) Drain() []trigger.Kind {
	var out []trigger.Kind
	for {
		select {
		case k := <-q.ch:
			out = append(out, k)
		default:
			return out
		}
	}
}

// Len returns the number of queued kinds.
func (q *Queue) Len() int {
	return len(q.ch)
}

// ParsePayload extracts a trigger kind from a socket.io event payload.
func ParsePayload(args ...any) (trigger.Kind, error) {
	if len(args) == 0 {
		return trigger.None, errors.New("trigger event has no payload")
	}
	switch v := args[0].(type) {
	case string:
		return trigger.Parse(v)
	case map[string]any:
		name, ok := v["trigger"].(string)
		if !ok {
			return trigger.None, errors.New(`trigger event object has no string "trigger" key`)
		}
		return trigger.Parse(name)
	default:
		return trigger.None, fmt.Errorf("unsupported trigger payload of type %T", v)
	}
}
