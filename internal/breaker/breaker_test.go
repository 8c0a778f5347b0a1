package breaker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(now *time.Time) *Breaker {
	b := New("test", Config{MaxFailures: 2, ResetTimeout: time.Minute}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	b.now = func() time.Time { return *now }
	return b
}

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	now := time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)
	b := newTestBreaker(&now)
	boom := errors.New("boom")
	fail := func(context.Context) error { return boom }
	ctx := context.Background()

	assert.ErrorIs(t, b.Execute(ctx, fail), boom)
	assert.Equal(t, Closed, b.State())
	assert.ErrorIs(t, b.Execute(ctx, fail), boom)
	assert.Equal(t, Open, b.State())

	called := false
	err := b.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreakerTrialCallCloses(t *testing.T) {
	now := time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)
	b := newTestBreaker(&now)
	var transitions []State
	b.OnStateChange = func(_ string, to State) { transitions = append(transitions, to) }
	ctx := context.Background()
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_ = b.Execute(ctx, func(context.Context) error { return boom })
	}
	require.Equal(t, Open, b.State())

	now = now.Add(2 * time.Minute)
	require.NoError(t, b.Execute(ctx, func(context.Context) error { return nil }))
	assert.Equal(t, Closed, b.State())
	assert.Equal(t, []State{Open, HalfOpen, Closed}, transitions)
}

func TestBreakerFailedTrialReopens(t *testing.T) {
	now := time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)
	b := newTestBreaker(&now)
	ctx := context.Background()
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_ = b.Execute(ctx, func(context.Context) error { return boom })
	}
	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, b.Execute(ctx, func(context.Context) error { return boom }), boom)
	assert.Equal(t, Open, b.State())
	assert.ErrorIs(t, b.Execute(ctx, func(context.Context) error { return nil }), ErrOpen)
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	now := time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)
	b := newTestBreaker(&now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = b.Execute(ctx, func(context.Context) error { return context.Canceled })
	}
	assert.Equal(t, Closed, b.State())
}
