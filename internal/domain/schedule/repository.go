package schedule

import (
	"context"
	"time"
)

// Repository defines persistence for vaccination schedules.
type Repository interface {
	Create(ctx context.Context, s *VaccinationSchedule) error
	GetByID(ctx context.Context, id string) (*VaccinationSchedule, error)
	ListByBiteCase(ctx context.Context, biteCaseID string) ([]*VaccinationSchedule, error)
	ListByPatient(ctx context.Context, patientID string) ([]*VaccinationSchedule, error)
	Update(ctx context.Context, s *VaccinationSchedule) error

	// ListDueBetween returns schedules with at least one dose dated in
	// [dayStart, dayEnd) whose status is not completed, excluding
	// schedules whose overall treatment is already completed.
	ListDueBetween(ctx context.Context, dayStart, dayEnd time.Time) ([]*VaccinationSchedule, error)
}
