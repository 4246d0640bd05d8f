package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bitealert_reminder_service/internal/domain/audit"
)

type PostgresAuditRepository struct {
	db *sql.DB
}

func NewPostgresAuditRepository(db *sql.DB) *PostgresAuditRepository {
	return &PostgresAuditRepository{db: db}
}

// Insert appends one immutable entry. There is no update or delete on
// this table by design.
func (r *PostgresAuditRepository) Insert(ctx context.Context, e *audit.Entry) error {
	query := `INSERT INTO audit_trail
			(occurred_at, actor_role, actor_name, actor_center, action, bite_case_id, patient_id, dose_label)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		e.OccurredAt, e.ActorRole, e.ActorName, e.ActorCenter,
		e.Action, e.BiteCaseID, e.PatientID, e.DoseLabel,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("error inserting audit entry: %w", err)
	}
	return nil
}

func (r *PostgresAuditRepository) ExistsSince(ctx context.Context, action, biteCaseID, doseLabel, actorName string, since time.Time) (bool, error) {
	query := `SELECT EXISTS (
			SELECT 1 FROM audit_trail
			WHERE action = $1 AND bite_case_id = $2 AND dose_label = $3
			  AND actor_name = $4 AND occurred_at >= $5
		)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, action, biteCaseID, doseLabel, actorName, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking recent audit entries: %w", err)
	}
	return exists, nil
}
