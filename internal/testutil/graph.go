package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/nodegraph/internal/builder"
	"github.com/vk/nodegraph/internal/hcl"
	"github.com/vk/nodegraph/internal/registry"
)

// WriteFiles lays files out under a fresh temp dir and returns its path.
// Names may contain subdirectories.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

// LoadGraph writes files, loads them with the HCL loader and builds the
// graph against reg.
func LoadGraph(ctx context.Context, t *testing.T, reg *registry.Registry, files map[string]string) (*builder.Result, error) {
	t.Helper()
	model, err := hcl.NewLoader().Load(ctx, WriteFiles(t, files))
	if err != nil {
		return nil, err
	}
	return builder.Build(ctx, model, reg)
}

// MustLoadGraph is LoadGraph for graphs that are expected to build.
func MustLoadGraph(ctx context.Context, t *testing.T, reg *registry.Registry, files map[string]string) *builder.Result {
	t.Helper()
	res, err := LoadGraph(ctx, t, reg, files)
	require.NoError(t, err)
	return res
}
