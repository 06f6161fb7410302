package yield

import (
	"fmt"
	"time"

	"github.com/vk/nodegraph/internal/scope"
	"github.com/vk/nodegraph/internal/socket"
)

// Yield is one step reported by a node's exec sequence. The engine calls
// Advance once per host tick while the yield keeps a trace suspended, and
// resumes the trace once Finished reports true.
type Yield interface {
	Finished() bool
	Advance(dt time.Duration)
}

// Signal asks the engine to continue execution from Socket using Scope.
// A signal is always finished.
//
// With Wait set, the sequence that yielded it is not pulled again until
// every trace the signal started, and everything those traces started in
// turn, has completed or aborted.
type Signal struct {
	Scope  *scope.Scope
	Socket socket.Socket
	Wait   bool
}

// SignalTo builds a signal.
func SignalTo(sc *scope.Scope, s socket.Socket) *Signal {
	return &Signal{Scope: sc, Socket: s}
}

// SignalAndWait builds a signal with Wait set.
func SignalAndWait(sc *scope.Scope, s socket.Socket) *Signal {
	return &Signal{Scope: sc, Socket: s, Wait: true}
}

func (*Signal) Finished() bool { return true }

func (*Signal) Advance(time.Duration) {}

func (s *Signal) String() string {
	return fmt.Sprintf("signal(%s)", s.Socket)
}

// WaitForSeconds suspends until the accumulated tick time reaches Duration.
// A zero duration still waits for one tick.
type WaitForSeconds struct {
	Duration time.Duration
	elapsed  time.Duration
	ticked   bool
}

// Seconds builds a WaitForSeconds from a float second count.
func Seconds(s float64) *WaitForSeconds {
	if s < 0 {
		s = 0
	}
	return &WaitForSeconds{Duration: time.Duration(s * float64(time.Second))}
}

func (w *WaitForSeconds) Finished() bool {
	return w.ticked && w.Duration <= w.elapsed
}

func (w *WaitForSeconds) Advance(dt time.Duration) {
	w.ticked = true
	w.elapsed += dt
}

// Elapsed returns the time accumulated so far.
func (w *WaitForSeconds) Elapsed() time.Duration {
	return w.elapsed
}

func (w *WaitForSeconds) String() string {
	return fmt.Sprintf("wait(%s, elapsed %s)", w.Duration, w.elapsed)
}

// WaitForTick suspends until the next host tick.
type WaitForTick struct {
	done bool
}

// NextTick builds a WaitForTick.
func NextTick() *WaitForTick {
	return &WaitForTick{}
}

func (w *WaitForTick) Finished() bool { return w.done }

func (w *WaitForTick) Advance(time.Duration) { w.done = true }

func (w *WaitForTick) String() string {
	return "wait(next tick)"
}

// WaitUntil suspends until its predicate returns true. The predicate is
// only consulted on ticks, never at the moment the yield is produced.
type WaitUntil struct {
	Until func() bool
	done  bool
}

// Until builds a WaitUntil.
func Until(pred func() bool) *WaitUntil {
	return &WaitUntil{Until: pred}
}

func (w *WaitUntil) Finished() bool { return w.done }

func (w *WaitUntil) Advance(time.Duration) {
	if !w.done && w.Until != nil {
		w.done = w.Until()
	}
}

func (w *WaitUntil) String() string {
	return "wait(until)"
}
