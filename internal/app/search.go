package app

import (
	"context"
	"fmt"

	"github.com/vk/nodegraph/internal/search"
)

func bracket(s string) string { return "[" + s + "]" }

// runSearch prints every registered node kind matching the configured
// pattern, best match first.
func (a *App) runSearch(ctx context.Context) error {
	pattern := a.config.Search
	paths := a.registry.Paths()
	symbols := make([]search.Symbol, 0, len(paths))
	for _, p := range paths {
		k, _ := a.registry.Kind(p)
		symbols = append(symbols, search.Symbol{Path: p, Description: k.Description})
	}

	results, err := search.Run(ctx, pattern, symbols)
	if err != nil {
		return fmt.Errorf("search for %q failed: %w", pattern, err)
	}
	if len(results) == 0 {
		fmt.Fprintf(a.outW, "No node kinds match %q.\n", pattern)
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(a.outW, "%4d  %-28s %s\n", r.Score, search.Highlight(pattern, r.Path, bracket), r.Description)
	}
	return nil
}
