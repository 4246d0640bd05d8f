package schedule

import (
	"database/sql"
	"time"
)

// DoseLabel identifies one of the five administration points of the
// post-exposure prophylaxis regimen.
type DoseLabel string

const (
	DoseD0  DoseLabel = "D0"
	DoseD3  DoseLabel = "D3"
	DoseD7  DoseLabel = "D7"
	DoseD14 DoseLabel = "D14"
	DoseD28 DoseLabel = "D28"
)

// DoseOrder is the fixed reminder priority: when several doses fall on
// the same day, the earliest label in this order wins.
var DoseOrder = []DoseLabel{DoseD0, DoseD3, DoseD7, DoseD14, DoseD28}

// MandatoryDoses are required for a completed course. D14 and D28 may
// be waived depending on the exposure category.
var MandatoryDoses = []DoseLabel{DoseD0, DoseD3, DoseD7}

// DoseStatus is the per-slot administration state.
type DoseStatus string

const (
	DosePending   DoseStatus = "pending"
	DoseCompleted DoseStatus = "completed"
	DoseMissed    DoseStatus = "missed"
	DoseOptional  DoseStatus = "optional"
)

// ValidDoseStatus reports whether s is one of the known slot statuses.
func ValidDoseStatus(s DoseStatus) bool {
	switch s {
	case DosePending, DoseCompleted, DoseMissed, DoseOptional:
		return true
	}
	return false
}

// TreatmentStatus is the aggregate course state. It is derived from the
// slot statuses and never set directly by callers.
type TreatmentStatus string

const (
	TreatmentInProgress TreatmentStatus = "in_progress"
	TreatmentCompleted  TreatmentStatus = "completed"
	TreatmentMissed     TreatmentStatus = "missed"
)

// Dose is one slot of the regimen: the scheduled calendar date and its
// administration status. D14/D28 dates may be absent.
type Dose struct {
	Date   sql.NullTime
	Status DoseStatus
}

// VaccinationSchedule tracks the dose plan for a single bite case.
// Corresponds to the 'vaccination_schedules' table.
type VaccinationSchedule struct {
	ID                 string
	BiteCaseID         string
	PatientID          string
	RegistrationNumber string
	D0                 Dose
	D3                 Dose
	D7                 Dose
	D14                Dose
	D28                Dose
	TreatmentStatus    TreatmentStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Dose returns a pointer to the slot for the given label, or nil for an
// unknown label.
func (s *VaccinationSchedule) Dose(label DoseLabel) *Dose {
	switch label {
	case DoseD0:
		return &s.D0
	case DoseD3:
		return &s.D3
	case DoseD7:
		return &s.D7
	case DoseD14:
		return &s.D14
	case DoseD28:
		return &s.D28
	}
	return nil
}

// DeriveTreatmentStatus computes the aggregate course state from the
// mandatory slots. The aggregate never regresses from completed: once a
// schedule is completed it stays completed regardless of later edits.
func (s *VaccinationSchedule) DeriveTreatmentStatus() TreatmentStatus {
	if s.TreatmentStatus == TreatmentCompleted {
		return TreatmentCompleted
	}
	allCompleted := true
	anyMissed := false
	for _, label := range MandatoryDoses {
		switch s.Dose(label).Status {
		case DoseCompleted:
		case DoseMissed:
			allCompleted = false
			anyMissed = true
		default:
			allCompleted = false
		}
	}
	if allCompleted {
		return TreatmentCompleted
	}
	if anyMissed {
		return TreatmentMissed
	}
	return TreatmentInProgress
}

// DueDose picks the single dose to remind about within [dayStart,
// dayEnd): the first slot in priority order whose date falls in the
// window and whose status is not completed. At most one reminder per
// case per run follows from the first-match rule.
func (s *VaccinationSchedule) DueDose(dayStart, dayEnd time.Time) (DoseLabel, *Dose, bool) {
	for _, label := range DoseOrder {
		d := s.Dose(label)
		if !d.Date.Valid || d.Status == DoseCompleted {
			continue
		}
		if !d.Date.Time.Before(dayStart) && d.Date.Time.Before(dayEnd) {
			return label, d, true
		}
	}
	return "", nil, false
}

// SlotDates returns the non-empty scheduled dates in dose order,
// formatted as YYYY-MM-DD. This is the denormalized view pushed into
// the bite case record after every successful schedule write.
func (s *VaccinationSchedule) SlotDates() []string {
	dates := make([]string, 0, len(DoseOrder))
	for _, label := range DoseOrder {
		d := s.Dose(label)
		if d.Date.Valid {
			dates = append(dates, d.Date.Time.Format("2006-01-02"))
		}
	}
	return dates
}

// DayWindow returns the [startOfToday, startOfTomorrow) pair for the
// calendar day of now in loc, expressed as UTC midnights so the bounds
// compare exactly against DATE column values decoded by the driver.
func DayWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
