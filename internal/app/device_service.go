package app

import (
	"context"
	"fmt"

	"bitealert_reminder_service/internal/domain/device"
	idb "bitealert_reminder_service/internal/infra/database"

	"github.com/sirupsen/logrus"
)

var ErrInvalidPlatform = fmt.Errorf("unknown device platform")
var ErrInvalidUserRole = fmt.Errorf("unknown user role")

// DeviceService manages push-notification device registrations.
type DeviceService interface {
	// Register is an idempotent upsert keyed by token. Re-registering
	// an existing token refreshes its metadata and may reassign the
	// token to a different user.
	Register(ctx context.Context, userID, userRole, token, platform string) (*device.Registration, error)
	TokenStatus(ctx context.Context, userID string) (*device.Registration, error)
	UsersOnDevice(ctx context.Context, deviceID string) ([]string, error)
	// Deactivate soft-deletes all active registrations of a user.
	Deactivate(ctx context.Context, userID string) error
}

type DeviceServiceImpl struct {
	repo       device.Repository
	identifier device.Identifier
	logger     *logrus.Logger
}

func NewDeviceService(r device.Repository, id device.Identifier, logger *logrus.Logger) *DeviceServiceImpl {
	return &DeviceServiceImpl{repo: r, identifier: id, logger: logger}
}

func (s *DeviceServiceImpl) Register(ctx context.Context, userID, userRole, token, platform string) (*device.Registration, error) {
	if userID == "" || token == "" {
		return nil, fmt.Errorf("%w: userId and token are required", ErrMissingRequiredField)
	}
	if !device.ValidPlatform(platform) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlatform, platform)
	}
	if userRole != "patient" && userRole != "staff" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUserRole, userRole)
	}

	reg := &device.Registration{
		UserID:   userID,
		Token:    token,
		DeviceID: s.identifier.DeviceID(token),
		Platform: platform,
		UserRole: userRole,
		IsActive: true,
	}
	if err := s.repo.Upsert(ctx, reg); err != nil {
		return nil, fmt.Errorf("failed to register device token: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"user_role": userRole,
		"device_id": reg.DeviceID,
		"platform":  platform,
	}).Info("Device token registered")
	return reg, nil
}

func (s *DeviceServiceImpl) TokenStatus(ctx context.Context, userID string) (*device.Registration, error) {
	return s.repo.GetActiveByUser(ctx, userID)
}

func (s *DeviceServiceImpl) UsersOnDevice(ctx context.Context, deviceID string) ([]string, error) {
	return s.repo.ListActiveUserIDsByDevice(ctx, deviceID)
}

func (s *DeviceServiceImpl) Deactivate(ctx context.Context, userID string) error {
	n, err := s.repo.DeactivateByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate device registrations for user %s: %w", userID, err)
	}
	if n == 0 {
		return idb.ErrRegistrationNotFound
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "deactivated": n}).Info("Device registrations deactivated")
	return nil
}
