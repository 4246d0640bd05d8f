package audit

import (
	"context"
	"time"
)

// Action labels for the domain-meaningful state transitions this core
// records.
const (
	ActionDoseRescheduled = "dose_rescheduled"
	ActionDoseCompleted   = "dose_completed"
	ActionScheduleCreated = "schedule_created"
)

// Actor is the attributed identity performing a state change. A missing
// or invalid credential resolves to an unattributed staff actor rather
// than failing the operation.
type Actor struct {
	Role   string
	Name   string
	Center string
}

// UnattributedStaff is the fallback actor when the bearer credential
// cannot be resolved.
var UnattributedStaff = Actor{Role: "Staff"}

// Entry is one immutable audit record. Entries are never mutated or
// deleted after insertion.
// Corresponds to the 'audit_trail' table.
type Entry struct {
	ID          int64
	OccurredAt  time.Time
	ActorRole   string
	ActorName   string
	ActorCenter string
	Action      string
	BiteCaseID  string
	PatientID   string
	DoseLabel   string
}

// Recorder appends audit entries. Append is fire-and-forget: a failed
// audit write must never propagate to the business operation that
// triggered it.
type Recorder interface {
	Append(ctx context.Context, e Entry)
}

// Repository defines persistence for audit entries.
type Repository interface {
	Insert(ctx context.Context, e *Entry) error

	// ExistsSince reports whether an entry with the same action,
	// subject and actor was written at or after the given instant.
	// Backs the short-window reschedule dedup.
	ExistsSince(ctx context.Context, action, biteCaseID, doseLabel, actorName string, since time.Time) (bool, error)
}
