package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"ezm_trade_backend/internal/config"
	"ezm_trade_backend/internal/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingTriggers struct {
	calls atomic.Int32
	err   error
}

func (c *countingTriggers) RunAll(ctx context.Context) (notification.TriggerStats, error) {
	c.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return notification.TriggerStats{}, errors.New("missing deadline")
	}
	return notification.TriggerStats{Created: 2}, c.err
}

type countingExpirer struct {
	calls atomic.Int32
}

func (c *countingExpirer) DeactivateExpired(context.Context) (int64, error) {
	c.calls.Add(1)
	return 3, nil
}

func TestNotificationJobs_RunOnce(t *testing.T) {
	triggers := &countingTriggers{}
	expirer := &countingExpirer{}
	j := NewNotificationJobs(triggers, expirer, zap.NewNop(), &config.Config{})

	stats, err := j.RunTriggerCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Created)

	n, err := j.RunExpiry(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.EqualValues(t, 1, triggers.calls.Load())
	assert.EqualValues(t, 1, expirer.calls.Load())
}

func TestNotificationJobs_ScheduledRunsAndStops(t *testing.T) {
	triggers := &countingTriggers{err: errors.New("inventory unavailable")}
	expirer := &countingExpirer{}
	core, logs := observer.New(zap.InfoLevel)
	j := NewNotificationJobs(triggers, expirer, zap.New(core), &config.Config{
		TriggerCheckJobSchedule:       "@every 1s",
		NotificationExpiryJobSchedule: "@every 1s",
	})

	require.NoError(t, j.SetupAndStart())
	assert.Eventually(t, func() bool {
		return triggers.calls.Load() > 0 && expirer.calls.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)
	j.Stop()

	assert.NotZero(t, logs.FilterMessage("Notification trigger job run had failures").Len())
	assert.NotZero(t, logs.FilterMessage("Notification expiry job run completed").Len())
}

func TestNotificationJobs_EmptyScheduleDisablesJob(t *testing.T) {
	j := NewNotificationJobs(&countingTriggers{}, &countingExpirer{}, zap.NewNop(), &config.Config{})
	require.NoError(t, j.SetupAndStart())
	j.Stop()
}

func TestNotificationJobs_InvalidSchedule(t *testing.T) {
	j := NewNotificationJobs(&countingTriggers{}, &countingExpirer{}, zap.NewNop(), &config.Config{
		TriggerCheckJobSchedule: "every now and then",
	})
	assert.Error(t, j.SetupAndStart())
}
