package database

import (
	"context"
	"database/sql"
	"fmt"

	"bitealert_reminder_service/internal/domain/device"
)

var ErrRegistrationNotFound = fmt.Errorf("device registration not found")

type PostgresDeviceRepository struct {
	db *sql.DB
}

func NewPostgresDeviceRepository(db *sql.DB) *PostgresDeviceRepository {
	return &PostgresDeviceRepository{db: db}
}

// Upsert registers a token or refreshes an existing registration. The
// ON CONFLICT clause makes the insert-or-update atomic on the unique
// token, so concurrent registrations of one token cannot produce
// duplicate active rows.
func (r *PostgresDeviceRepository) Upsert(ctx context.Context, reg *device.Registration) error {
	query := `INSERT INTO device_registrations
			(user_id, token, device_id, platform, user_role, is_active, registered_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
		ON CONFLICT (token) DO UPDATE
		SET user_id = EXCLUDED.user_id,
		    device_id = EXCLUDED.device_id,
		    platform = EXCLUDED.platform,
		    user_role = EXCLUDED.user_role,
		    is_active = TRUE,
		    last_used_at = NOW()
		RETURNING id, is_active, registered_at, last_used_at`
	err := r.db.QueryRowContext(ctx, query,
		reg.UserID, reg.Token, reg.DeviceID, reg.Platform, reg.UserRole,
	).Scan(&reg.ID, &reg.IsActive, &reg.RegisteredAt, &reg.LastUsedAt)
	if err != nil {
		return fmt.Errorf("error upserting device registration: %w", err)
	}
	return nil
}

func (r *PostgresDeviceRepository) GetActiveByUser(ctx context.Context, userID string) (*device.Registration, error) {
	query := `SELECT id, user_id, token, device_id, platform, user_role, is_active, registered_at, last_used_at
		FROM device_registrations
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY last_used_at DESC
		LIMIT 1`
	reg := &device.Registration{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&reg.ID, &reg.UserID, &reg.Token, &reg.DeviceID, &reg.Platform,
		&reg.UserRole, &reg.IsActive, &reg.RegisteredAt, &reg.LastUsedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("error getting active registration by user: %w", err)
	}
	return reg, nil
}

func (r *PostgresDeviceRepository) ListActiveUserIDsByDevice(ctx context.Context, deviceID string) ([]string, error) {
	query := `SELECT DISTINCT user_id FROM device_registrations
		WHERE device_id = $1 AND is_active = TRUE
		ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("error listing active users on device: %w", err)
	}
	defer rows.Close()

	userIDs := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning user id on device: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users on device: %w", err)
	}
	return userIDs, nil
}

// DeactivateByUser soft-deletes the user's active registrations.
// Rows stay in place to preserve registration history.
func (r *PostgresDeviceRepository) DeactivateByUser(ctx context.Context, userID string) (int64, error) {
	query := `UPDATE device_registrations
		SET is_active = FALSE, last_used_at = NOW()
		WHERE user_id = $1 AND is_active = TRUE`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("error deactivating registrations for user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error checking deactivation result: %w", err)
	}
	return affected, nil
}
