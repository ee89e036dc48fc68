package jobs

import (
	"context"
	"fmt"
	"time"

	"ezm_trade_backend/internal/config"
	"ezm_trade_backend/internal/notification"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = 5 * time.Minute

// TriggerRunner runs a full notification trigger pass.
type TriggerRunner interface {
	RunAll(ctx context.Context) (notification.TriggerStats, error)
}

// Expirer switches off notifications whose expiry has passed.
type Expirer interface {
	DeactivateExpired(ctx context.Context) (int64, error)
}

// NotificationJobs schedules the periodic trigger pass and the expiry sweep.
type NotificationJobs struct {
	triggers      TriggerRunner
	expirer       Expirer
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

// NewNotificationJobs creates the notification job scheduler.
func NewNotificationJobs(
	triggers TriggerRunner,
	expirer Expirer,
	logger *zap.Logger,
	cfg *config.Config,
) *NotificationJobs {
	cronLog := NewCronLogger(logger.Named("cron"))
	scheduler := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	return &NotificationJobs{
		triggers:      triggers,
		expirer:       expirer,
		logger:        logger.Named("NotificationJobs"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules both jobs and starts the scheduler. An empty schedule
// disables that job.
func (j *NotificationJobs) SetupAndStart() error {
	scheduled := 0
	for _, job := range []struct {
		name string
		spec string
		run  func()
	}{
		{"trigger check", j.cfg.TriggerCheckJobSchedule, j.runTriggerCheck},
		{"notification expiry", j.cfg.NotificationExpiryJobSchedule, j.runExpiry},
	} {
		if job.spec == "" {
			j.logger.Warn("Job schedule not defined. Job will not run.", zap.String("job", job.name))
			continue
		}
		jobID, err := j.cronScheduler.AddFunc(job.spec, job.run)
		if err != nil {
			j.logger.Error("Failed to schedule job", zap.String("job", job.name), zap.String("spec", job.spec), zap.Error(err))
			return fmt.Errorf("scheduling %s job: %w", job.name, err)
		}
		j.logger.Info("Job scheduled", zap.String("job", job.name), zap.String("spec", job.spec), zap.Any("jobID", jobID))
		scheduled++
	}

	if scheduled > 0 {
		j.cronScheduler.Start()
	}
	return nil
}

// RunTriggerCheck runs one trigger pass synchronously.
func (j *NotificationJobs) RunTriggerCheck(ctx context.Context) (notification.TriggerStats, error) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()
	return j.triggers.RunAll(ctx)
}

// RunExpiry runs one expiry sweep synchronously.
func (j *NotificationJobs) RunExpiry(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()
	return j.expirer.DeactivateExpired(ctx)
}

func (j *NotificationJobs) runTriggerCheck() {
	j.logger.Info("Starting notification trigger job run...")
	stats, err := j.RunTriggerCheck(context.Background())
	if err != nil {
		j.logger.Error("Notification trigger job run had failures", zap.Int("created", stats.Created), zap.Error(err))
		return
	}
	j.logger.Info("Notification trigger job run completed", zap.Int("created", stats.Created))
}

func (j *NotificationJobs) runExpiry() {
	count, err := j.RunExpiry(context.Background())
	if err != nil {
		j.logger.Error("Notification expiry job run failed", zap.Error(err))
		return
	}
	j.logger.Info("Notification expiry job run completed", zap.Int64("deactivated", count))
}

// Stop gracefully stops the cron scheduler, waiting for running jobs.
func (j *NotificationJobs) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping notification job scheduler...")
		stopCtx := j.cronScheduler.Stop()
		select {
		case <-stopCtx.Done():
			j.logger.Info("Notification job scheduler stopped gracefully.")
		case <-time.After(10 * time.Second):
			j.logger.Warn("Notification job scheduler stop timed out.")
		}
	}
}
