package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddValidatesSpec(t *testing.T) {
	s := New(nil)
	noop := func(context.Context) error { return nil }

	assert.Error(t, s.Add("bad", "every tuesday", noop))
	require.NoError(t, s.Add("purge", "@hourly", noop))
	assert.ErrorContains(t, s.Add("purge", "@daily", noop), "already registered")

	require.NoError(t, s.Add("off", "", noop))
	assert.Equal(t, []string{"purge"}, s.Names())
	assert.ErrorContains(t, s.Trigger(context.Background(), "off"), "not registered")
}

func TestTriggerRunsJob(t *testing.T) {
	s := New(nil)
	boom := errors.New("boom")
	require.NoError(t, s.Add("fails", "@daily", func(context.Context) error { return boom }))
	assert.ErrorIs(t, s.Trigger(context.Background(), "fails"), boom)
}

func TestScheduledJobRunsAndStopCancels(t *testing.T) {
	s := New(nil)
	var runs atomic.Int32
	require.NoError(t, s.Add("tick", "@every 1s", func(ctx context.Context) error {
		runs.Add(1)
		return ctx.Err()
	}))
	s.Start()

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Error(t, s.ctx.Err())
}

func TestRecoverFromPanic(t *testing.T) {
	s := New(nil)
	var runs atomic.Int32
	require.NoError(t, s.Add("panics", "@every 1s", func(context.Context) error {
		runs.Add(1)
		panic("bad job")
	}))
	s.Start()
	defer func() { _ = s.Stop(context.Background()) }()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 4*time.Second, 50*time.Millisecond)
}
