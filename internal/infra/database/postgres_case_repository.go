package database

import (
	"context"
	"database/sql"
	"fmt"

	"bitealert_reminder_service/internal/domain/bitecase"

	"github.com/lib/pq" // For pq.Array on schedule_dates
)

var ErrCaseNotFound = fmt.Errorf("bite case not found")

type PostgresCaseRepository struct {
	db *sql.DB
}

func NewPostgresCaseRepository(db *sql.DB) *PostgresCaseRepository {
	return &PostgresCaseRepository{db: db}
}

func (r *PostgresCaseRepository) GetByID(ctx context.Context, id string) (*bitecase.Case, error) {
	query := `SELECT id, patient_id, registration_number, first_name, middle_name, last_name,
			center, schedule_dates, status, updated_at
		FROM bite_cases WHERE id = $1`
	c := &bitecase.Case{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.PatientID, &c.RegistrationNumber, &c.FirstName, &c.MiddleName, &c.LastName,
		&c.Center, pq.Array(&c.ScheduleDates), &c.Status, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("error getting bite case by ID: %w", err)
	}
	return c, nil
}

// UpdateScheduleDates overwrites the denormalized schedule date cache
// on the case record.
func (r *PostgresCaseRepository) UpdateScheduleDates(ctx context.Context, id string, dates []string) error {
	query := `UPDATE bite_cases SET schedule_dates = $1, updated_at = NOW() WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, pq.Array(dates), id)
	if err != nil {
		return fmt.Errorf("error updating bite case schedule dates: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking bite case update result: %w", err)
	}
	if affected == 0 {
		return ErrCaseNotFound
	}
	return nil
}
