package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageHandlerFunc(t *testing.T) {
	var got string
	var h MessageHandler = MessageHandlerFunc(func(_ context.Context, msg string) error {
		got = msg
		return nil
	})

	require.NoError(t, h.HandleMessage(context.Background(), "ping\n"))
	assert.Equal(t, "ping\n", got)
}

func TestStateHandlerFunc(t *testing.T) {
	var sent []string
	send := AppendFunc(func(_ context.Context, msg string) error {
		sent = append(sent, msg)
		return nil
	})

	var h StateHandler = StateHandlerFunc(func(ctx context.Context, send AppendFunc) error {
		return send(ctx, "hello world")
	})

	require.NoError(t, h.Run(context.Background(), send))
	assert.Equal(t, []string{"hello world"}, sent)
}

func TestSleep(t *testing.T) {
	t.Run("elapses", func(t *testing.T) {
		start := time.Now()
		require.NoError(t, Sleep(context.Background(), 20*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	})

	t.Run("zero duration reports cancellation only", func(t *testing.T) {
		assert.NoError(t, Sleep(context.Background(), 0))
	})
}
