package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bitealert_reminder_service/internal/domain/cronjob"
)

var ErrExecutionNotFound = fmt.Errorf("cron execution record not found")

type PostgresCronRepository struct {
	db *sql.DB
}

func NewPostgresCronRepository(db *sql.DB) *PostgresCronRepository {
	return &PostgresCronRepository{db: db}
}

// Claim conditionally creates the running record for (jobName, day).
// ON CONFLICT DO NOTHING makes losing the race a clean no-op rather
// than an error: RETURNING yields no row and claimed stays false.
func (r *PostgresCronRepository) Claim(ctx context.Context, jobName string, day time.Time) (*cronjob.Execution, bool, error) {
	query := `INSERT INTO cron_executions (job_name, execution_date, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_name, execution_date) DO NOTHING
		RETURNING id, started_at`
	e := &cronjob.Execution{
		JobName:       jobName,
		ExecutionDate: day,
		Status:        cronjob.StatusRunning,
	}
	err := r.db.QueryRowContext(ctx, query, jobName, day, cronjob.StatusRunning).Scan(&e.ID, &e.StartedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil // someone already holds the day
		}
		return nil, false, fmt.Errorf("error claiming cron execution: %w", err)
	}
	return e, true, nil
}

func (r *PostgresCronRepository) GetByJobAndDay(ctx context.Context, jobName string, day time.Time) (*cronjob.Execution, error) {
	query := `SELECT id, job_name, execution_date, status, total_scanned, notifications_sent,
			error_message, started_at, finished_at
		FROM cron_executions
		WHERE job_name = $1 AND execution_date = $2`
	e := &cronjob.Execution{}
	err := r.db.QueryRowContext(ctx, query, jobName, day).Scan(
		&e.ID, &e.JobName, &e.ExecutionDate, &e.Status, &e.TotalScanned,
		&e.NotificationsSent, &e.ErrorMessage, &e.StartedAt, &e.FinishedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrExecutionNotFound
		}
		return nil, fmt.Errorf("error getting cron execution: %w", err)
	}
	return e, nil
}

// Finalize moves a running record to its terminal status. The status
// guard keeps the transition one-way: a record that already reached
// success or failed is never rewritten.
func (r *PostgresCronRepository) Finalize(ctx context.Context, id int64, status cronjob.Status, scanned, sent int, errMsg string) error {
	query := `UPDATE cron_executions
		SET status = $1, total_scanned = $2, notifications_sent = $3,
		    error_message = NULLIF($4, ''), finished_at = NOW()
		WHERE id = $5 AND status = $6`
	res, err := r.db.ExecContext(ctx, query, status, scanned, sent, errMsg, id, cronjob.StatusRunning)
	if err != nil {
		return fmt.Errorf("error finalizing cron execution: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking finalize result: %w", err)
	}
	if affected == 0 {
		return ErrExecutionNotFound
	}
	return nil
}
