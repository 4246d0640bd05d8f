package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitealert_reminder_service/internal/domain/bitecase"
	"bitealert_reminder_service/internal/domain/device"
	"bitealert_reminder_service/internal/domain/patient"
	"bitealert_reminder_service/internal/domain/push"
	"bitealert_reminder_service/internal/domain/schedule"
	idb "bitealert_reminder_service/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// CaseOutcome is the per-case result of one sweep.
type CaseOutcome struct {
	BiteCaseID  string `json:"biteCaseId"`
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName,omitempty"`
	DoseLabel   string `json:"doseLabel,omitempty"`
	MessageID   string `json:"messageId,omitempty"`
	Sent        bool   `json:"sent"`
	Reason      string `json:"reason,omitempty"`
}

// ReminderSummary is the aggregate returned by one sweep invocation.
type ReminderSummary struct {
	TotalDue int           `json:"totalDue"`
	Sent     int           `json:"sent"`
	Outcomes []CaseOutcome `json:"outcomes"`
}

// ReminderService runs the daily batch scan of due, incomplete doses
// and dispatches one reminder per case.
type ReminderService interface {
	SendTreatmentReminders(ctx context.Context) (*ReminderSummary, error)
}

type ReminderServiceImpl struct {
	scheduleRepo schedule.Repository
	deviceRepo   device.Repository
	caseRepo     bitecase.Repository
	patientRepo  patient.Repository
	pushClient   push.Client
	location     *time.Location
	logger       *logrus.Logger
}

func NewReminderService(
	sr schedule.Repository,
	dr device.Repository,
	cr bitecase.Repository,
	pr patient.Repository,
	pc push.Client,
	loc *time.Location,
	logger *logrus.Logger,
) *ReminderServiceImpl {
	return &ReminderServiceImpl{
		scheduleRepo: sr,
		deviceRepo:   dr,
		caseRepo:     cr,
		patientRepo:  pr,
		pushClient:   pc,
		location:     loc,
		logger:       logger,
	}
}

// SendTreatmentReminders scans schedules due today in the configured
// timezone and dispatches reminders sequentially. Each case is isolated:
// a transport failure is captured into that case's outcome and does not
// stop the remaining cases.
func (s *ReminderServiceImpl) SendTreatmentReminders(ctx context.Context) (*ReminderSummary, error) {
	dayStart, dayEnd := schedule.DayWindow(time.Now(), s.location)
	s.logger.WithField("day", dayStart.Format("2006-01-02")).Info("Scanning treatments due today")

	dueSchedules, err := s.scheduleRepo.ListDueBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list due schedules: %w", err)
	}

	summary := &ReminderSummary{Outcomes: make([]CaseOutcome, 0, len(dueSchedules))}
	for _, sched := range dueSchedules {
		label, dose, ok := sched.DueDose(dayStart, dayEnd)
		if !ok {
			// Selected by the store but no slot survives the priority
			// pick; nothing to remind about.
			continue
		}
		summary.TotalDue++

		outcome := s.dispatchOne(ctx, sched, label, dose.Date.Time)
		if outcome.Sent {
			summary.Sent++
		}
		summary.Outcomes = append(summary.Outcomes, outcome)
	}

	s.logger.WithFields(logrus.Fields{"due": summary.TotalDue, "sent": summary.Sent}).
		Info("Treatment reminder sweep finished")
	return summary, nil
}

func (s *ReminderServiceImpl) dispatchOne(ctx context.Context, sched *schedule.VaccinationSchedule, label schedule.DoseLabel, scheduledDate time.Time) CaseOutcome {
	outcome := CaseOutcome{
		BiteCaseID: sched.BiteCaseID,
		PatientID:  sched.PatientID,
		DoseLabel:  string(label),
	}

	reg, err := s.deviceRepo.GetActiveByUser(ctx, sched.PatientID)
	if err != nil {
		if errors.Is(err, idb.ErrRegistrationNotFound) {
			// No registered device is an expected skip, not an error.
			s.logger.WithField("patient_id", sched.PatientID).Info("No active device registration, skipping reminder")
			outcome.Reason = "no active device registration"
			return outcome
		}
		s.logger.WithError(err).WithField("patient_id", sched.PatientID).Error("Device lookup failed")
		outcome.Reason = err.Error()
		return outcome
	}

	patientName := s.resolvePatientName(ctx, sched)
	outcome.PatientName = patientName

	coResidents, err := s.deviceRepo.ListActiveUserIDsByDevice(ctx, reg.DeviceID)
	if err != nil {
		s.logger.WithError(err).WithField("device_id", reg.DeviceID).
			Warn("Could not resolve co-resident users on device, assuming single user")
		coResidents = []string{sched.PatientID}
	}
	multiUser := len(coResidents) > 1

	body := fmt.Sprintf("Hello, you have a %s treatment scheduled today. Please visit the center for your vaccination.", label)
	if multiUser {
		// On a shared device the recipient cannot be inferred from the
		// token, so the body must name the patient.
		body = fmt.Sprintf("Hello, %s has a %s treatment scheduled today. Please visit the center for the vaccination.", patientName, label)
	}

	msg := push.Message{
		Token: reg.Token,
		Title: "Treatment Reminder",
		Body:  body,
		Data: map[string]string{
			"type":          "treatment_reminder",
			"caseId":        sched.BiteCaseID,
			"patientId":     sched.PatientID,
			"patientName":   patientName,
			"doseName":      string(label),
			"scheduledDate": scheduledDate.Format(time.RFC3339),
			"multiUser":     fmt.Sprintf("%t", multiUser),
			"deviceUserIds": strings.Join(coResidents, ","),
		},
	}

	msgID, err := s.pushClient.Send(ctx, msg)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"patient_id": sched.PatientID,
			"dose":       label,
		}).Error("Failed to send treatment reminder")
		outcome.Reason = err.Error()
		return outcome
	}

	outcome.Sent = true
	outcome.MessageID = msgID
	s.logger.WithFields(logrus.Fields{"patient_id": sched.PatientID, "dose": label, "message_id": msgID}).
		Info("Treatment reminder sent")
	return outcome
}

// resolvePatientName walks the best-effort cascade: bite case record,
// then patient profile, then a generic placeholder. A lookup failure
// never blocks sending.
func (s *ReminderServiceImpl) resolvePatientName(ctx context.Context, sched *schedule.VaccinationSchedule) string {
	if c, err := s.caseRepo.GetByID(ctx, sched.BiteCaseID); err == nil {
		if name := c.DisplayName(); name != "" {
			return name
		}
	}
	if p, err := s.patientRepo.GetByID(ctx, sched.PatientID); err == nil {
		if name := p.DisplayName(); name != "" {
			return name
		}
	}
	return "Patient"
}
