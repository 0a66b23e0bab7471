package logx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextIDs(t *testing.T) {
	ctx := WithSessionID(WithRequestID(context.Background(), "req-1"), "sess-1")
	require.Equal(t, "req-1", RequestID(ctx))
	require.Equal(t, "sess-1", SessionID(ctx))
	require.Empty(t, RequestID(context.Background()))
	require.NotNil(t, WithFields(ctx))
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	_, err := Init("chatty")
	require.Error(t, err)
	l, err := Init("debug")
	require.NoError(t, err)
	require.Same(t, l, L())
}
