package scheduler

import (
	"context"
	"testing"
	"time"

	"UniPath/internal/config"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestScheduler(t *testing.T, tz string) *Scheduler {
	t.Helper()
	cfg := &config.Config{Scheduler: config.SchedulerConfig{Timezone: tz, JobTimeout: time.Second}}
	s, err := NewScheduler(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return s
}

func TestRegister(t *testing.T) {
	s := newTestScheduler(t, "UTC")
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Register(Task{Name: "deadline-sweep", Spec: "0 9 * * *", Run: noop}))

	err := s.Register(Task{Name: "deadline-sweep", Spec: "0 9 * * *", Run: noop})
	assert.Error(t, err)

	err = s.Register(Task{Name: "broken", Spec: "not a spec", Run: noop})
	assert.Error(t, err)
}

func TestNextUsesLocation(t *testing.T) {
	s := newTestScheduler(t, "Asia/Tokyo")
	require.NoError(t, s.Register(Task{Name: "sweep", Spec: "0 9 * * *", Run: func(context.Context) error { return nil }}))

	s.Start()
	defer func() { _ = s.Stop(context.Background()) }()

	next, ok := s.Next("sweep")
	require.True(t, ok)
	tokyo, _ := time.LoadLocation("Asia/Tokyo")
	assert.Equal(t, 9, next.In(tokyo).Hour())
	assert.Equal(t, 0, next.In(tokyo).Minute())

	_, ok = s.Next("missing")
	assert.False(t, ok)
}

func TestBadTimezone(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{Timezone: "Mars/Olympus"}}
	_, err := NewScheduler(cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestRunTaskHonoursCancellation(t *testing.T) {
	s := newTestScheduler(t, "UTC")
	var seen error
	task := Task{Name: "slow", Run: func(ctx context.Context) error {
		<-ctx.Done()
		seen = ctx.Err()
		return errors.Wrap(ctx.Err(), "interrupted")
	}}

	s.cancel()
	s.runTask(task)
	assert.ErrorIs(t, seen, context.Canceled)
}
