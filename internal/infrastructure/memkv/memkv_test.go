package memkv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlots(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, b := s.Slot("a"), s.Slot("b")

	require.NoError(t, a.Set(ctx, "one"))
	v, ok, err := a.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "one", v)

	_, ok, _ = b.Get(ctx)
	require.False(t, ok)

	v, ok, _ = s.Slot("a").Get(ctx)
	require.True(t, ok)
	require.Equal(t, "one", v)

	require.NoError(t, a.Delete(ctx))
	require.NoError(t, a.Delete(ctx))
	require.Zero(t, s.Len())
}
