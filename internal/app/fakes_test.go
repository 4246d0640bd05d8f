package app

import (
	"context"
	"io"
	"time"

	"bitealert_reminder_service/internal/domain/audit"
	"bitealert_reminder_service/internal/domain/bitecase"
	"bitealert_reminder_service/internal/domain/device"
	"bitealert_reminder_service/internal/domain/patient"
	"bitealert_reminder_service/internal/domain/push"
	"bitealert_reminder_service/internal/domain/schedule"
	idb "bitealert_reminder_service/internal/infra/database"

	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeScheduleRepo struct {
	byID      map[string]*schedule.VaccinationSchedule
	due       []*schedule.VaccinationSchedule
	created   []*schedule.VaccinationSchedule
	updated   []*schedule.VaccinationSchedule
	getErr    error
	createErr error
	updateErr error
	dueErr    error
}

func (f *fakeScheduleRepo) Create(_ context.Context, s *schedule.VaccinationSchedule) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, s)
	return nil
}

func (f *fakeScheduleRepo) GetByID(_ context.Context, id string) (*schedule.VaccinationSchedule, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.byID[id]
	if !ok {
		return nil, idb.ErrScheduleNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeScheduleRepo) ListByBiteCase(_ context.Context, biteCaseID string) ([]*schedule.VaccinationSchedule, error) {
	var out []*schedule.VaccinationSchedule
	for _, s := range f.byID {
		if s.BiteCaseID == biteCaseID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) ListByPatient(_ context.Context, patientID string) ([]*schedule.VaccinationSchedule, error) {
	var out []*schedule.VaccinationSchedule
	for _, s := range f.byID {
		if s.PatientID == patientID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) Update(_ context.Context, s *schedule.VaccinationSchedule) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, s)
	return nil
}

func (f *fakeScheduleRepo) ListDueBetween(_ context.Context, _, _ time.Time) ([]*schedule.VaccinationSchedule, error) {
	return f.due, f.dueErr
}

type fakeCaseRepo struct {
	byID        map[string]*bitecase.Case
	syncedDates map[string][]string
	syncErr     error
}

func (f *fakeCaseRepo) GetByID(_ context.Context, id string) (*bitecase.Case, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, context.Canceled
	}
	return c, nil
}

func (f *fakeCaseRepo) UpdateScheduleDates(_ context.Context, id string, dates []string) error {
	if f.syncErr != nil {
		return f.syncErr
	}
	if f.syncedDates == nil {
		f.syncedDates = make(map[string][]string)
	}
	f.syncedDates[id] = dates
	return nil
}

type fakePatientRepo struct {
	byID map[string]*patient.Patient
}

func (f *fakePatientRepo) GetByID(_ context.Context, id string) (*patient.Patient, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, context.Canceled
	}
	return p, nil
}

type fakeDeviceRepo struct {
	byUser        map[string]*device.Registration
	usersByDevice map[string][]string
	lookupErr     error
	coResidentErr error
	upserted      []*device.Registration
	deactivated   int64
}

func (f *fakeDeviceRepo) Upsert(_ context.Context, r *device.Registration) error {
	f.upserted = append(f.upserted, r)
	return nil
}

func (f *fakeDeviceRepo) GetActiveByUser(_ context.Context, userID string) (*device.Registration, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	r, ok := f.byUser[userID]
	if !ok {
		return nil, idb.ErrRegistrationNotFound
	}
	return r, nil
}

func (f *fakeDeviceRepo) ListActiveUserIDsByDevice(_ context.Context, deviceID string) ([]string, error) {
	if f.coResidentErr != nil {
		return nil, f.coResidentErr
	}
	return f.usersByDevice[deviceID], nil
}

func (f *fakeDeviceRepo) DeactivateByUser(_ context.Context, _ string) (int64, error) {
	return f.deactivated, nil
}

type sentMessage struct {
	msg push.Message
}

type fakePushClient struct {
	sent    []sentMessage
	failFor map[string]error // keyed by token
}

func (f *fakePushClient) Send(_ context.Context, msg push.Message) (string, error) {
	if err, ok := f.failFor[msg.Token]; ok {
		return "", err
	}
	f.sent = append(f.sent, sentMessage{msg: msg})
	return "msg-" + msg.Token, nil
}

type fakeRecorder struct {
	entries []audit.Entry
}

func (f *fakeRecorder) Append(_ context.Context, e audit.Entry) {
	f.entries = append(f.entries, e)
}

type fakeAuditRepo struct {
	inserted  []audit.Entry
	exists    bool
	existsErr error
	insertErr error
}

func (f *fakeAuditRepo) Insert(_ context.Context, e *audit.Entry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, *e)
	return nil
}

func (f *fakeAuditRepo) ExistsSince(_ context.Context, _, _, _, _ string, _ time.Time) (bool, error) {
	return f.exists, f.existsErr
}
