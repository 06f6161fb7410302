package socket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocketIdentity(t *testing.T) {
	a := New(3, "value")
	b := Socket{NodeID: 3, Field: "value"}

	assert.Equal(t, a, b)
	assert.True(t, a == b)
	assert.NotEqual(t, a, New(3, "other"))
	assert.NotEqual(t, a, New(4, "value"))

	seen := map[Socket]int{a: 1}
	seen[b]++
	assert.Len(t, seen, 1)
	assert.Equal(t, 2, seen[a])
	assert.Equal(t, "3.value", a.String())
}

func TestNewLink(t *testing.T) {
	t.Run("distinct sockets", func(t *testing.T) {
		l, err := NewLink(New(1, "out"), New(2, "in"))
		require.NoError(t, err)
		assert.Equal(t, New(1, "out"), l.A)
		assert.Equal(t, New(2, "in"), l.B)
	})

	t.Run("self link is rejected", func(t *testing.T) {
		_, err := NewLink(New(1, "out"), New(1, "out"))
		assert.ErrorIs(t, err, ErrSelfLink)
	})
}

func TestFlags(t *testing.T) {
	f := AllowMultipleLinks | Editable
	assert.True(t, f.Has(AllowMultipleLinks))
	assert.True(t, f.Has(Editable))
	assert.False(t, Flags(0).Has(Editable))
	assert.Equal(t, "none", Flags(0).String())
	assert.Equal(t, "allow_multiple_links|editable", f.String())
}
