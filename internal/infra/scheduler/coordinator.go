package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitealert_reminder_service/internal/app"
	"bitealert_reminder_service/internal/domain/cronjob"
	"bitealert_reminder_service/internal/domain/schedule"
	domainTelegram "bitealert_reminder_service/internal/domain/telegram"
	idb "bitealert_reminder_service/internal/infra/database"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// JobNameTreatmentReminders keys the daily sweep in the execution ledger.
const JobNameTreatmentReminders = "treatment_reminders"

// ReminderCoordinator triggers the reminder sweep on a fixed daily
// schedule in a named timezone, guarantees at most one successful run
// per day through the execution ledger, and catches up a run missed
// while the process was offline. The ledger guard is best-effort, not a
// distributed lock: a rare duplicate send is accepted as a lesser
// failure than a missed send.
type ReminderCoordinator struct {
	cronEngine      *cron.Cron
	reminderService app.ReminderService
	cronRepo        cronjob.Repository
	alertClient     domainTelegram.Client // optional, may be nil
	adminChatID     int64
	location        *time.Location
	cronSpec        string
	logger          *logrus.Logger
	now             func() time.Time
}

func NewReminderCoordinator(
	rs app.ReminderService,
	cr cronjob.Repository,
	alertClient domainTelegram.Client,
	adminChatID int64,
	loc *time.Location,
	cronSpec string,
	logger *logrus.Logger,
) *ReminderCoordinator {
	return &ReminderCoordinator{
		cronEngine:      cron.New(cron.WithLocation(loc)),
		reminderService: rs,
		cronRepo:        cr,
		alertClient:     alertClient,
		adminChatID:     adminChatID,
		location:        loc,
		cronSpec:        cronSpec,
		logger:          logger,
		now:             time.Now,
	}
}

// Start registers the daily job, starts the cron engine and kicks off
// the startup catch-up check in the background.
func (c *ReminderCoordinator) Start() error {
	_, err := c.cronEngine.AddFunc(c.cronSpec, func() {
		c.logger.Info("Cron trigger fired for daily treatment reminders")
		ctx := context.Background()
		if err := c.RunDaily(ctx); err != nil {
			c.logger.WithError(err).Error("Daily treatment reminder run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("could not add daily reminder cron job: %w", err)
	}

	c.cronEngine.Start()
	c.logger.WithFields(logrus.Fields{
		"spec":     c.cronSpec,
		"timezone": c.location.String(),
	}).Info("Reminder coordinator started")

	go c.catchUpIfMissed(context.Background())
	return nil
}

// Stop halts the cron engine and waits for a running job to finish.
func (c *ReminderCoordinator) Stop() {
	c.logger.Info("Stopping reminder coordinator...")
	ctx := c.cronEngine.Stop()
	<-ctx.Done()
	c.logger.Info("Reminder coordinator stopped")
}

// catchUpIfMissed runs at process startup: if today's trigger time has
// already passed and no execution record exists for today, the sweep is
// executed immediately instead of waiting a full day.
func (c *ReminderCoordinator) catchUpIfMissed(ctx context.Context) {
	spec, err := cron.ParseStandard(c.cronSpec)
	if err != nil {
		c.logger.WithError(err).Error("Could not parse cron spec for catch-up check")
		return
	}

	now := c.now().In(c.location)
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.location)
	trigger := spec.Next(startOfDay.Add(-time.Second))
	if trigger.Day() != now.Day() || now.Before(trigger) {
		c.logger.WithField("next_trigger", trigger.Format(time.RFC3339)).
			Info("Trigger time not reached yet, waiting for schedule")
		return
	}

	day, _ := schedule.DayWindow(c.now(), c.location)
	_, err = c.cronRepo.GetByJobAndDay(ctx, JobNameTreatmentReminders, day)
	if err == nil {
		c.logger.Info("Execution record already exists for today, no catch-up needed")
		return
	}
	if !errors.Is(err, idb.ErrExecutionNotFound) {
		c.logger.WithError(err).Error("Could not check execution ledger for catch-up")
		return
	}

	c.logger.Info("Trigger time missed while offline, running catch-up sweep")
	if err := c.RunDaily(ctx); err != nil {
		c.logger.WithError(err).Error("Catch-up reminder run failed")
	}
}

// RunDaily executes the guarded daily sweep. The conditional create on
// the ledger makes the run idempotent per day: any existing record for
// today, whether success, running or failed, means skip.
func (c *ReminderCoordinator) RunDaily(ctx context.Context) error {
	day, _ := schedule.DayWindow(c.now(), c.location)

	exec, claimed, err := c.cronRepo.Claim(ctx, JobNameTreatmentReminders, day)
	if err != nil {
		return fmt.Errorf("could not claim execution record: %w", err)
	}
	if !claimed {
		existing, err := c.cronRepo.GetByJobAndDay(ctx, JobNameTreatmentReminders, day)
		if err != nil {
			c.logger.WithError(err).Warn("Execution record exists for today but could not be read")
			return nil
		}
		c.logger.WithFields(logrus.Fields{
			"day":    day.Format("2006-01-02"),
			"status": existing.Status,
		}).Info("Execution record already exists for today, skipping run")
		return nil
	}

	c.logger.WithField("execution_id", exec.ID).Info("Starting daily treatment reminder sweep")
	summary, err := c.reminderService.SendTreatmentReminders(ctx)
	if err != nil {
		if finErr := c.cronRepo.Finalize(ctx, exec.ID, cronjob.StatusFailed, 0, 0, err.Error()); finErr != nil {
			c.logger.WithError(finErr).Error("Could not finalize failed execution record")
		}
		c.alert(fmt.Sprintf("Treatment reminder sweep for %s FAILED: %v", day.Format("2006-01-02"), err))
		return err
	}

	if finErr := c.cronRepo.Finalize(ctx, exec.ID, cronjob.StatusSuccess, summary.TotalDue, summary.Sent, ""); finErr != nil {
		c.logger.WithError(finErr).Error("Could not finalize successful execution record")
	}
	c.alert(fmt.Sprintf("Treatment reminder sweep for %s finished: %d/%d sent.",
		day.Format("2006-01-02"), summary.Sent, summary.TotalDue))
	return nil
}

// TriggerNow runs the sweep outside its schedule, bypassing the daily
// guard. Used by the operational HTTP trigger.
func (c *ReminderCoordinator) TriggerNow(ctx context.Context) (*app.ReminderSummary, error) {
	c.logger.Info("Manual trigger: running treatment reminder sweep")
	return c.reminderService.SendTreatmentReminders(ctx)
}

// Status describes the coordinator for the operational status endpoint.
type Status struct {
	JobName  string `json:"jobName"`
	Schedule string `json:"schedule"`
	Timezone string `json:"timezone"`
}

func (c *ReminderCoordinator) Status() Status {
	return Status{
		JobName:  JobNameTreatmentReminders,
		Schedule: c.cronSpec,
		Timezone: c.location.String(),
	}
}

// alert sends an ops message to the admin chat when the channel is
// configured. Failures are logged only.
func (c *ReminderCoordinator) alert(text string) {
	if c.alertClient == nil || c.adminChatID == 0 {
		return
	}
	if err := c.alertClient.SendMessage(c.adminChatID, text, nil); err != nil {
		c.logger.WithError(err).Warn("Could not deliver ops alert to admin chat")
	}
}
