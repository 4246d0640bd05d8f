package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"bitealert_reminder_service/internal/app"
	"bitealert_reminder_service/internal/domain/cronjob"
	idb "bitealert_reminder_service/internal/infra/database"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReminderService struct {
	calls   int
	summary *app.ReminderSummary
	err     error
}

func (f *fakeReminderService) SendTreatmentReminders(context.Context) (*app.ReminderSummary, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

// fakeLedger is an in-memory cronjob.Repository keyed by job name and
// day, mirroring the conditional-create semantics of the real store.
type fakeLedger struct {
	nextID     int64
	records    map[string]*cronjob.Execution
	claimErr   error
	finalized  []cronjob.Status
	finalizeTo map[int64]*cronjob.Execution
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		records:    make(map[string]*cronjob.Execution),
		finalizeTo: make(map[int64]*cronjob.Execution),
	}
}

func ledgerKey(jobName string, day time.Time) string {
	return fmt.Sprintf("%s@%s", jobName, day.Format("2006-01-02"))
}

func (f *fakeLedger) Claim(_ context.Context, jobName string, day time.Time) (*cronjob.Execution, bool, error) {
	if f.claimErr != nil {
		return nil, false, f.claimErr
	}
	key := ledgerKey(jobName, day)
	if _, exists := f.records[key]; exists {
		return nil, false, nil
	}
	f.nextID++
	e := &cronjob.Execution{
		ID:            f.nextID,
		JobName:       jobName,
		ExecutionDate: day,
		Status:        cronjob.StatusRunning,
		StartedAt:     time.Now(),
	}
	f.records[key] = e
	f.finalizeTo[e.ID] = e
	return e, true, nil
}

func (f *fakeLedger) GetByJobAndDay(_ context.Context, jobName string, day time.Time) (*cronjob.Execution, error) {
	e, ok := f.records[ledgerKey(jobName, day)]
	if !ok {
		return nil, idb.ErrExecutionNotFound
	}
	return e, nil
}

func (f *fakeLedger) Finalize(_ context.Context, id int64, status cronjob.Status, scanned, sent int, _ string) error {
	e, ok := f.finalizeTo[id]
	if !ok || e.Status != cronjob.StatusRunning {
		return idb.ErrExecutionNotFound
	}
	e.Status = status
	e.TotalScanned = scanned
	e.NotificationsSent = sent
	f.finalized = append(f.finalized, status)
	return nil
}

func newTestCoordinator(rs app.ReminderService, ledger cronjob.Repository, cronSpec string, now time.Time) *ReminderCoordinator {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	c := NewReminderCoordinator(rs, ledger, nil, 0, time.UTC, cronSpec, logger)
	c.now = func() time.Time { return now }
	return c
}

func TestRunDaily_ClaimsAndFinalizesSuccess(t *testing.T) {
	rs := &fakeReminderService{summary: &app.ReminderSummary{TotalDue: 3, Sent: 2}}
	ledger := newFakeLedger()
	now := time.Date(2026, 8, 30, 8, 0, 1, 0, time.UTC)
	c := newTestCoordinator(rs, ledger, "0 8 * * *", now)

	require.NoError(t, c.RunDaily(context.Background()))

	assert.Equal(t, 1, rs.calls)
	require.Equal(t, []cronjob.Status{cronjob.StatusSuccess}, ledger.finalized)
	rec := ledger.records[ledgerKey(JobNameTreatmentReminders, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC))]
	require.NotNil(t, rec)
	assert.Equal(t, 3, rec.TotalScanned)
	assert.Equal(t, 2, rec.NotificationsSent)
}

func TestRunDaily_SecondRunSameDaySkips(t *testing.T) {
	rs := &fakeReminderService{summary: &app.ReminderSummary{}}
	ledger := newFakeLedger()
	now := time.Date(2026, 8, 30, 8, 0, 1, 0, time.UTC)
	c := newTestCoordinator(rs, ledger, "0 8 * * *", now)
	ctx := context.Background()

	require.NoError(t, c.RunDaily(ctx))
	require.NoError(t, c.RunDaily(ctx))

	assert.Equal(t, 1, rs.calls, "the ledger guard must prevent a second sweep")
	assert.Len(t, ledger.finalized, 1)
}

func TestRunDaily_SweepFailureFinalizesFailed(t *testing.T) {
	rs := &fakeReminderService{err: errors.New("db down")}
	ledger := newFakeLedger()
	now := time.Date(2026, 8, 30, 8, 0, 1, 0, time.UTC)
	c := newTestCoordinator(rs, ledger, "0 8 * * *", now)

	err := c.RunDaily(context.Background())
	require.Error(t, err)
	assert.Equal(t, []cronjob.Status{cronjob.StatusFailed}, ledger.finalized)
}

func TestRunDaily_ClaimErrorPropagates(t *testing.T) {
	rs := &fakeReminderService{}
	ledger := newFakeLedger()
	ledger.claimErr = errors.New("connection refused")
	c := newTestCoordinator(rs, ledger, "0 8 * * *", time.Date(2026, 8, 30, 8, 0, 1, 0, time.UTC))

	err := c.RunDaily(context.Background())
	require.Error(t, err)
	assert.Zero(t, rs.calls)
}

func TestCatchUp_RunsWhenTriggerMissed(t *testing.T) {
	rs := &fakeReminderService{summary: &app.ReminderSummary{TotalDue: 1, Sent: 1}}
	ledger := newFakeLedger()
	// 10:00, two hours past the 08:00 trigger, no record for today.
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	c := newTestCoordinator(rs, ledger, "0 8 * * *", now)

	c.catchUpIfMissed(context.Background())

	assert.Equal(t, 1, rs.calls)
	assert.Equal(t, []cronjob.Status{cronjob.StatusSuccess}, ledger.finalized)
}

func TestCatchUp_SkipsBeforeTriggerTime(t *testing.T) {
	rs := &fakeReminderService{}
	ledger := newFakeLedger()
	now := time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)
	c := newTestCoordinator(rs, ledger, "0 8 * * *", now)

	c.catchUpIfMissed(context.Background())

	assert.Zero(t, rs.calls, "before the trigger time the scheduled run is still coming")
}

func TestCatchUp_SkipsWhenAlreadyRanToday(t *testing.T) {
	rs := &fakeReminderService{summary: &app.ReminderSummary{}}
	ledger := newFakeLedger()
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	_, claimed, err := ledger.Claim(context.Background(), JobNameTreatmentReminders, day)
	require.NoError(t, err)
	require.True(t, claimed)

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	c := newTestCoordinator(rs, ledger, "0 8 * * *", now)

	c.catchUpIfMissed(context.Background())

	assert.Zero(t, rs.calls)
}

func TestTriggerNow_BypassesLedgerGuard(t *testing.T) {
	rs := &fakeReminderService{summary: &app.ReminderSummary{TotalDue: 2, Sent: 2}}
	ledger := newFakeLedger()
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	_, _, err := ledger.Claim(context.Background(), JobNameTreatmentReminders, day)
	require.NoError(t, err)

	c := newTestCoordinator(rs, ledger, "0 8 * * *", time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))

	summary, err := c.TriggerNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Sent)
	assert.Equal(t, 1, rs.calls)
}

func TestStatus(t *testing.T) {
	c := newTestCoordinator(&fakeReminderService{}, newFakeLedger(), "0 8 * * *", time.Now())

	st := c.Status()
	assert.Equal(t, JobNameTreatmentReminders, st.JobName)
	assert.Equal(t, "0 8 * * *", st.Schedule)
	assert.Equal(t, "UTC", st.Timezone)
}
