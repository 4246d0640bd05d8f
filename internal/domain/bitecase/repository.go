package bitecase

import "context"

// Repository exposes the two operations this service needs from the
// bite case store: name/center lookups and the best-effort schedule
// date sync.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Case, error)
	UpdateScheduleDates(ctx context.Context, id string, dates []string) error
}
