package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bitealert_reminder_service/internal/domain/audit"
	"bitealert_reminder_service/internal/domain/bitecase"
	"bitealert_reminder_service/internal/domain/schedule"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Custom application-level errors for schedule updates.
var ErrEmptyUpdate = fmt.Errorf("update contains no fields")
var ErrUnknownDose = fmt.Errorf("unknown dose label")
var ErrInvalidDoseStatus = fmt.Errorf("invalid dose status")
var ErrDoseStatusRegression = fmt.Errorf("dose status cannot leave completed")
var ErrMissingRequiredField = fmt.Errorf("missing required field")

// NewSchedule carries the initial dose dates supplied by the
// case-intake collaborator at case creation.
type NewSchedule struct {
	BiteCaseID         string
	PatientID          string
	RegistrationNumber string
	D0Date             time.Time
	D3Date             time.Time
	D7Date             time.Time
	D14Date            *time.Time
	D28Date            *time.Time
}

// ScheduleService owns the per-case dose state machine.
type ScheduleService interface {
	Create(ctx context.Context, input NewSchedule, actor audit.Actor) (*schedule.VaccinationSchedule, error)
	// ApplyUpdate applies a partial update: fields absent from the
	// update are left untouched. Monotonic rules are enforced here.
	ApplyUpdate(ctx context.Context, scheduleID string, upd schedule.Update, actor audit.Actor) (*schedule.VaccinationSchedule, error)
	ListByBiteCase(ctx context.Context, biteCaseID string) ([]*schedule.VaccinationSchedule, error)
	ListByPatient(ctx context.Context, patientID string) ([]*schedule.VaccinationSchedule, error)
}

type ScheduleServiceImpl struct {
	scheduleRepo schedule.Repository
	caseRepo     bitecase.Repository
	auditor      audit.Recorder
	logger       *logrus.Logger
}

func NewScheduleService(
	sr schedule.Repository,
	cr bitecase.Repository,
	ar audit.Recorder,
	logger *logrus.Logger,
) *ScheduleServiceImpl {
	return &ScheduleServiceImpl{
		scheduleRepo: sr,
		caseRepo:     cr,
		auditor:      ar,
		logger:       logger,
	}
}

func (s *ScheduleServiceImpl) Create(ctx context.Context, input NewSchedule, actor audit.Actor) (*schedule.VaccinationSchedule, error) {
	if input.BiteCaseID == "" || input.PatientID == "" {
		return nil, fmt.Errorf("%w: biteCaseId and patientId are required", ErrMissingRequiredField)
	}
	if input.D0Date.IsZero() || input.D3Date.IsZero() || input.D7Date.IsZero() {
		return nil, fmt.Errorf("%w: D0, D3 and D7 dates are required", ErrMissingRequiredField)
	}

	sched := &schedule.VaccinationSchedule{
		ID:                 uuid.NewString(),
		BiteCaseID:         input.BiteCaseID,
		PatientID:          input.PatientID,
		RegistrationNumber: input.RegistrationNumber,
		D0:                 schedule.Dose{Date: nullDate(&input.D0Date), Status: schedule.DosePending},
		D3:                 schedule.Dose{Date: nullDate(&input.D3Date), Status: schedule.DosePending},
		D7:                 schedule.Dose{Date: nullDate(&input.D7Date), Status: schedule.DosePending},
		D14:                schedule.Dose{Date: nullDate(input.D14Date), Status: schedule.DoseOptional},
		D28:                schedule.Dose{Date: nullDate(input.D28Date), Status: schedule.DoseOptional},
		TreatmentStatus:    schedule.TreatmentInProgress,
	}

	if err := s.scheduleRepo.Create(ctx, sched); err != nil {
		return nil, fmt.Errorf("failed to create vaccination schedule: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"schedule_id": sched.ID, "bite_case_id": sched.BiteCaseID}).
		Info("Vaccination schedule created")

	s.auditor.Append(ctx, audit.Entry{
		ActorRole:   actor.Role,
		ActorName:   actor.Name,
		ActorCenter: actor.Center,
		Action:      audit.ActionScheduleCreated,
		BiteCaseID:  sched.BiteCaseID,
		PatientID:   sched.PatientID,
	})
	s.syncCaseScheduleDates(ctx, sched)
	return sched, nil
}

func (s *ScheduleServiceImpl) ApplyUpdate(ctx context.Context, scheduleID string, upd schedule.Update, actor audit.Actor) (*schedule.VaccinationSchedule, error) {
	if upd.IsEmpty() {
		return nil, ErrEmptyUpdate
	}
	for label, st := range upd.Statuses {
		if !knownLabel(label) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDose, label)
		}
		if !schedule.ValidDoseStatus(st) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDoseStatus, st)
		}
	}
	for label := range upd.Dates {
		if !knownLabel(label) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDose, label)
		}
	}

	sched, err := s.scheduleRepo.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	type event struct {
		action string
		dose   schedule.DoseLabel
	}
	var events []event

	for label, newDate := range upd.Dates {
		dose := sched.Dose(label)
		day := dateOnly(newDate)
		if dose.Date.Valid && dose.Date.Time.Equal(day) {
			continue // unchanged value, no event
		}
		dose.Date = sql.NullTime{Time: day, Valid: true}
		events = append(events, event{audit.ActionDoseRescheduled, label})
	}

	for label, newStatus := range upd.Statuses {
		dose := sched.Dose(label)
		if dose.Status == newStatus {
			continue
		}
		if dose.Status == schedule.DoseCompleted {
			return nil, fmt.Errorf("%w: %s", ErrDoseStatusRegression, label)
		}
		if newStatus == schedule.DoseCompleted {
			events = append(events, event{audit.ActionDoseCompleted, label})
		}
		dose.Status = newStatus
	}

	sched.TreatmentStatus = sched.DeriveTreatmentStatus()

	if err := s.scheduleRepo.Update(ctx, sched); err != nil {
		return nil, fmt.Errorf("failed to update vaccination schedule %s: %w", scheduleID, err)
	}
	s.logger.WithFields(logrus.Fields{
		"schedule_id":      sched.ID,
		"treatment_status": sched.TreatmentStatus,
	}).Info("Vaccination schedule updated")

	for _, ev := range events {
		s.auditor.Append(ctx, audit.Entry{
			ActorRole:   actor.Role,
			ActorName:   actor.Name,
			ActorCenter: actor.Center,
			Action:      ev.action,
			BiteCaseID:  sched.BiteCaseID,
			PatientID:   sched.PatientID,
			DoseLabel:   string(ev.dose),
		})
	}

	s.syncCaseScheduleDates(ctx, sched)
	return sched, nil
}

func (s *ScheduleServiceImpl) ListByBiteCase(ctx context.Context, biteCaseID string) ([]*schedule.VaccinationSchedule, error) {
	return s.scheduleRepo.ListByBiteCase(ctx, biteCaseID)
}

func (s *ScheduleServiceImpl) ListByPatient(ctx context.Context, patientID string) ([]*schedule.VaccinationSchedule, error) {
	return s.scheduleRepo.ListByPatient(ctx, patientID)
}

// syncCaseScheduleDates pushes the non-empty slot dates into the bite
// case record. The schedule is authoritative and the case record is a
// read cache, so a failure here is logged and swallowed.
func (s *ScheduleServiceImpl) syncCaseScheduleDates(ctx context.Context, sched *schedule.VaccinationSchedule) {
	if err := s.caseRepo.UpdateScheduleDates(ctx, sched.BiteCaseID, sched.SlotDates()); err != nil {
		s.logger.WithError(err).WithField("bite_case_id", sched.BiteCaseID).
			Warn("Best-effort schedule date sync to bite case failed")
	}
}

func knownLabel(label schedule.DoseLabel) bool {
	for _, l := range schedule.DoseOrder {
		if l == label {
			return true
		}
	}
	return false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nullDate(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: dateOnly(*t), Valid: true}
}
