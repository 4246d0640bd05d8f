package database

import (
	"context"
	"database/sql"
	"fmt"

	"bitealert_reminder_service/internal/domain/patient"
)

var ErrPatientNotFound = fmt.Errorf("patient not found")

type PostgresPatientRepository struct {
	db *sql.DB
}

func NewPostgresPatientRepository(db *sql.DB) *PostgresPatientRepository {
	return &PostgresPatientRepository{db: db}
}

func (r *PostgresPatientRepository) GetByID(ctx context.Context, id string) (*patient.Patient, error) {
	query := `SELECT id, first_name, middle_name, last_name FROM patients WHERE id = $1`
	p := &patient.Patient{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.FirstName, &p.MiddleName, &p.LastName)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("error getting patient by ID: %w", err)
	}
	return p, nil
}
