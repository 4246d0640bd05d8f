package cronjob

import (
	"context"
	"database/sql"
	"time"
)

// Status of a daily job execution. The ledger is a per (jobName, day)
// state machine: none -> running -> {success, failed}, terminal once a
// final state is reached.
type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Execution is one row of the daily execution ledger and the
// idempotency guard for the day.
// Corresponds to the 'cron_executions' table.
type Execution struct {
	ID                int64
	JobName           string
	ExecutionDate     time.Time // day granularity
	Status            Status
	TotalScanned      int
	NotificationsSent int
	ErrorMessage      sql.NullString
	StartedAt         time.Time
	FinishedAt        sql.NullTime
}

// Repository defines persistence for the execution ledger.
type Repository interface {
	// Claim conditionally creates a running record for (jobName, day).
	// When a record for the day already exists, whatever its status,
	// no row is created and claimed is false. This is the single point
	// needing single-writer discipline for a given day.
	Claim(ctx context.Context, jobName string, day time.Time) (e *Execution, claimed bool, err error)

	GetByJobAndDay(ctx context.Context, jobName string, day time.Time) (*Execution, error)

	// Finalize moves a running record to its terminal status exactly
	// once, storing the result summary.
	Finalize(ctx context.Context, id int64, status Status, scanned, sent int, errMsg string) error
}
