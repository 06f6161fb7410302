package search

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/agext/levenshtein"
	"github.com/vk/nodegraph/internal/ctxlog"
)

// Symbol is one searchable entry.
type Symbol struct {
	Path        string
	Description string
}

// Result is a matched symbol.
type Result struct {
	Symbol
	Score int
	// Distance is the edit distance between the pattern and the path, used
	// to order results of equal score.
	Distance int
}

// Job scores symbols against a pattern on its own goroutine.
type Job struct {
	pattern string
	symbols []Symbol

	results   SyncList[Result]
	cancelled atomic.Bool
	running   atomic.Bool
	start     sync.Once
	done      chan struct{}
}

// NewJob returns a job that has not started yet.
func NewJob(pattern string, symbols []Symbol) *Job {
	return &Job{
		pattern: pattern,
		symbols: slices.Clone(symbols),
		done:    make(chan struct{}),
	}
}

// Start launches the worker. Calling it again has no effect. It returns the
// job for chaining.
func (j *Job) Start(ctx context.Context) *Job {
	j.start.Do(func() {
		j.running.Store(true)
		go j.run(ctx)
	})
	return j
}

func (j *Job) run(ctx context.Context) {
	defer close(j.done)
	defer j.running.Store(false)

	logger := ctxlog.FromContext(ctx)
	lower := strings.ToLower(j.pattern)
	for i, sym := range j.symbols {
		if j.cancelled.Load() || ctx.Err() != nil {
			logger.Debug("Search cancelled.", "pattern", j.pattern, "scanned", i, "matched", j.results.Len())
			return
		}
		score, ok := Score(j.pattern, sym.Path)
		if !ok {
			continue
		}
		j.results.Add(Result{
			Symbol:   sym,
			Score:    score,
			Distance: levenshtein.Distance(lower, strings.ToLower(sym.Path), nil),
		})
	}
	logger.Debug("Search finished.", "pattern", j.pattern, "scanned", len(j.symbols), "matched", j.results.Len())
}

// Cancel asks the worker to stop at its next iteration.
func (j *Job) Cancel() {
	j.cancelled.Store(true)
}

// Running reports whether the worker is still scanning.
func (j *Job) Running() bool {
	return j.running.Load()
}

// Wait blocks until the worker returns or ctx is done. The job must have
// been started.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Results returns the matches found so far, best first: highest score, then
// smallest edit distance, then path.
func (j *Job) Results() []Result {
	out := j.results.Snapshot()
	slices.SortFunc(out, func(a, b Result) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
	return out
}

// Run scores symbols synchronously and returns the ranked matches.
func Run(ctx context.Context, pattern string, symbols []Symbol) ([]Result, error) {
	j := NewJob(pattern, symbols).Start(ctx)
	if err := j.Wait(ctx); err != nil {
		j.Cancel()
		return nil, err
	}
	return j.Results(), nil
}
