package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolib/folio/internal/config"
)

func TestSchedulerDisabled(t *testing.T) {
	s := NewScheduler(nil, config.Scheduler{Enabled: false})
	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewScheduler(nil, config.Scheduler{
		Enabled:             true,
		ViewRefreshSchedule: "*/30 * * * *",
		ReindexSchedule:     "0 4 * * *",
	})
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.Len(t, s.NextRuns(), 2)

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextRuns())
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(nil, config.Scheduler{
		Enabled:             true,
		ViewRefreshSchedule: "not a schedule",
	})
	assert.Error(t, s.Start(context.Background()))
}

func TestSchedulerContextCancelStops(t *testing.T) {
	s := NewScheduler(nil, config.Scheduler{
		Enabled:             true,
		ViewRefreshSchedule: "*/30 * * * *",
	})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	require.True(t, s.IsRunning())

	cancel()
	// Stop runs on the monitor goroutine; poll briefly.
	for i := 0; i < 100 && s.IsRunning(); i++ {
		time.Sleep(10 * time.Millisecond)
	}
	assert.False(t, s.IsRunning())
}
