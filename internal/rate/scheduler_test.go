package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestScheduler() *Scheduler {
	svc := NewService(new(MockRateProvider), new(MockRateRepository), "RUB")
	return NewScheduler(svc, time.Hour)
}

func TestNewScheduler_Constructs(t *testing.T) {
	s := newTestScheduler()
	require.NotNil(t, s)
	require.Nil(t, s.sched)
}

func TestNewScheduler_DefaultsIntervalWhenInvalid(t *testing.T) {
	svc := NewService(new(MockRateProvider), new(MockRateRepository), "RUB")
	s := NewScheduler(svc, 0)
	require.Equal(t, 24*time.Hour, s.interval)
}

func TestScheduler_Shutdown_NoScheduler_ReturnsNil(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Shutdown())
	require.Nil(t, s.sched)
}

func TestScheduler_Start_And_ContextCancel_ShutsDown(t *testing.T) {
	s := newTestScheduler()
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	require.NotNil(t, s.sched)

	cancel()

	// Wait until the shutdown goroutine clears the field.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.sched == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Nil(t, s.sched, "expected scheduler to be shutdown after ctx cancel")
}

func TestScheduler_Shutdown_Idempotent(t *testing.T) {
	s := newTestScheduler()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Shutdown())
	require.Nil(t, s.sched)
	require.NoError(t, s.Shutdown())
}
