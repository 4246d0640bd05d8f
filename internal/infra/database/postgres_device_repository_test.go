package database

import (
	"context"
	"testing"
	"time"

	"bitealert_reminder_service/internal/domain/device"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceRepository_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO device_registrations`).
		WithArgs("patient-1", "tok-1", "dev-1", "android", "patient").
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_active", "registered_at", "last_used_at"}).
			AddRow(int64(7), true, now, now))

	repo := NewPostgresDeviceRepository(db)
	reg := &device.Registration{
		UserID:   "patient-1",
		Token:    "tok-1",
		DeviceID: "dev-1",
		Platform: "android",
		UserRole: "patient",
	}
	require.NoError(t, repo.Upsert(context.Background(), reg))

	assert.Equal(t, int64(7), reg.ID)
	assert.True(t, reg.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_GetActiveByUserNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM device_registrations`).
		WithArgs("patient-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewPostgresDeviceRepository(db)
	_, err = repo.GetActiveByUser(context.Background(), "patient-1")
	assert.ErrorIs(t, err, ErrRegistrationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_GetActiveByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM device_registrations`).
		WithArgs("patient-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "token", "device_id", "platform", "user_role",
			"is_active", "registered_at", "last_used_at",
		}).AddRow(int64(7), "patient-1", "tok-1", "dev-1", "android", "patient", true, now, now))

	repo := NewPostgresDeviceRepository(db)
	reg, err := repo.GetActiveByUser(context.Background(), "patient-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", reg.Token)
	assert.Equal(t, "dev-1", reg.DeviceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_ListActiveUserIDsByDevice(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT DISTINCT user_id FROM device_registrations`).
		WithArgs("dev-shared").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).
			AddRow("patient-1").AddRow("patient-2"))

	repo := NewPostgresDeviceRepository(db)
	ids, err := repo.ListActiveUserIDsByDevice(context.Background(), "dev-shared")
	require.NoError(t, err)
	assert.Equal(t, []string{"patient-1", "patient-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_DeactivateByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE device_registrations`).
		WithArgs("patient-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	repo := NewPostgresDeviceRepository(db)
	affected, err := repo.DeactivateByUser(context.Background(), "patient-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
