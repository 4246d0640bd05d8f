package device

import "context"

// Repository defines persistence for device registrations. Upsert must
// be atomic on the token so concurrent registrations of the same token
// never produce duplicate active rows.
type Repository interface {
	Upsert(ctx context.Context, r *Registration) error
	GetActiveByUser(ctx context.Context, userID string) (*Registration, error)
	ListActiveUserIDsByDevice(ctx context.Context, deviceID string) ([]string, error)

	// DeactivateByUser soft-deletes all active registrations of a user
	// and returns how many rows were touched. Rows are never hard
	// deleted so registration history survives.
	DeactivateByUser(ctx context.Context, userID string) (int64, error)
}
