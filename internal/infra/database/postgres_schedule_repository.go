package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bitealert_reminder_service/internal/domain/schedule"
)

// Custom errors specific to the schedule repository.
var ErrScheduleNotFound = fmt.Errorf("vaccination schedule not found")

const scheduleColumns = `id, bite_case_id, patient_id, registration_number,
		d0_date, d0_status, d3_date, d3_status, d7_date, d7_status,
		d14_date, d14_status, d28_date, d28_status,
		treatment_status, created_at, updated_at`

type PostgresScheduleRepository struct {
	db *sql.DB
}

func NewPostgresScheduleRepository(db *sql.DB) *PostgresScheduleRepository {
	return &PostgresScheduleRepository{db: db}
}

func (r *PostgresScheduleRepository) Create(ctx context.Context, s *schedule.VaccinationSchedule) error {
	query := `INSERT INTO vaccination_schedules
		(id, bite_case_id, patient_id, registration_number,
		 d0_date, d0_status, d3_date, d3_status, d7_date, d7_status,
		 d14_date, d14_status, d28_date, d28_status, treatment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		s.ID, s.BiteCaseID, s.PatientID, s.RegistrationNumber,
		s.D0.Date, s.D0.Status, s.D3.Date, s.D3.Status, s.D7.Date, s.D7.Status,
		s.D14.Date, s.D14.Status, s.D28.Date, s.D28.Status, s.TreatmentStatus,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating vaccination schedule: %w", err)
	}
	return nil
}

func (r *PostgresScheduleRepository) GetByID(ctx context.Context, id string) (*schedule.VaccinationSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM vaccination_schedules WHERE id = $1`
	s := &schedule.VaccinationSchedule{}
	err := scanSchedule(r.db.QueryRowContext(ctx, query, id), s)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("error getting vaccination schedule by ID: %w", err)
	}
	return s, nil
}

func (r *PostgresScheduleRepository) ListByBiteCase(ctx context.Context, biteCaseID string) ([]*schedule.VaccinationSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM vaccination_schedules WHERE bite_case_id = $1 ORDER BY created_at`
	return r.list(ctx, query, biteCaseID)
}

func (r *PostgresScheduleRepository) ListByPatient(ctx context.Context, patientID string) ([]*schedule.VaccinationSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM vaccination_schedules WHERE patient_id = $1 ORDER BY created_at`
	return r.list(ctx, query, patientID)
}

func (r *PostgresScheduleRepository) Update(ctx context.Context, s *schedule.VaccinationSchedule) error {
	query := `UPDATE vaccination_schedules
		SET d0_date = $1, d0_status = $2, d3_date = $3, d3_status = $4,
		    d7_date = $5, d7_status = $6, d14_date = $7, d14_status = $8,
		    d28_date = $9, d28_status = $10, treatment_status = $11, updated_at = NOW()
		WHERE id = $12
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		s.D0.Date, s.D0.Status, s.D3.Date, s.D3.Status,
		s.D7.Date, s.D7.Status, s.D14.Date, s.D14.Status,
		s.D28.Date, s.D28.Status, s.TreatmentStatus, s.ID,
	).Scan(&s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrScheduleNotFound
		}
		return fmt.Errorf("error updating vaccination schedule: %w", err)
	}
	return nil
}

// ListDueBetween selects schedules with at least one non-completed dose
// dated in [dayStart, dayEnd), skipping completed treatments. The
// per-slot OR mirrors the due-today scan shape the dispatcher expects.
func (r *PostgresScheduleRepository) ListDueBetween(ctx context.Context, dayStart, dayEnd time.Time) ([]*schedule.VaccinationSchedule, error) {
	query := `SELECT ` + scheduleColumns + `
		FROM vaccination_schedules
		WHERE treatment_status != 'completed'
		  AND (
			(d0_date  >= $1 AND d0_date  < $2 AND d0_status  != 'completed') OR
			(d3_date  >= $1 AND d3_date  < $2 AND d3_status  != 'completed') OR
			(d7_date  >= $1 AND d7_date  < $2 AND d7_status  != 'completed') OR
			(d14_date >= $1 AND d14_date < $2 AND d14_status != 'completed') OR
			(d28_date >= $1 AND d28_date < $2 AND d28_status != 'completed')
		  )
		ORDER BY created_at`
	return r.list(ctx, query, dayStart, dayEnd)
}

func (r *PostgresScheduleRepository) list(ctx context.Context, query string, args ...any) ([]*schedule.VaccinationSchedule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying vaccination schedules: %w", err)
	}
	defer rows.Close()

	schedules := make([]*schedule.VaccinationSchedule, 0)
	for rows.Next() {
		s := &schedule.VaccinationSchedule{}
		if err := scanSchedule(rows, s); err != nil {
			return nil, fmt.Errorf("error scanning vaccination schedule row: %w", err)
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vaccination schedule rows: %w", err)
	}
	return schedules, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner, s *schedule.VaccinationSchedule) error {
	return row.Scan(
		&s.ID, &s.BiteCaseID, &s.PatientID, &s.RegistrationNumber,
		&s.D0.Date, &s.D0.Status, &s.D3.Date, &s.D3.Status, &s.D7.Date, &s.D7.Status,
		&s.D14.Date, &s.D14.Status, &s.D28.Date, &s.D28.Status,
		&s.TreatmentStatus, &s.CreatedAt, &s.UpdatedAt,
	)
}
