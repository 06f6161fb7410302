package env_vars

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nodegraph/internal/scope"
	"github.com/zclconf/go-cty/cty"
)

func TestLookup(t *testing.T) {
	t.Setenv("NODEGRAPH_TEST_VALUE", "forty-two")

	tests := []struct {
		key   string
		value string
		found bool
	}{
		{"NODEGRAPH_TEST_VALUE", "forty-two", true},
		{"NODEGRAPH_TEST_MISSING", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			n := New()
			require.NoError(t, n.SetValue("key", cty.StringVal(tc.key)))
			require.NoError(t, n.Eval(context.Background(), scope.New(nil, nil)))

			v, _ := n.Text("value")
			assert.Equal(t, tc.value, v)
			f, _ := n.Bool("found")
			assert.Equal(t, tc.found, f)
		})
	}
}
