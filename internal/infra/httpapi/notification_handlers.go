package httpapi

import (
	"errors"
	"net/http"
	"time"

	"bitealert_reminder_service/internal/app"
	idb "bitealert_reminder_service/internal/infra/database"

	"github.com/labstack/echo/v4"
)

type registerTokenRequest struct {
	UserID   string `json:"userId"`
	UserRole string `json:"userRole"`
	Token    string `json:"fcmToken"`
	Platform string `json:"platform"`
}

type registerTokenResponse struct {
	Message  string `json:"message"`
	UserID   string `json:"userId"`
	UserRole string `json:"userRole"`
	DeviceID string `json:"deviceId"`
}

func (s *Server) handleRegisterToken(c echo.Context) error {
	var req registerTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	reg, err := s.deviceService.Register(c.Request().Context(), req.UserID, req.UserRole, req.Token, req.Platform)
	if err != nil {
		if errors.Is(err, app.ErrMissingRequiredField) ||
			errors.Is(err, app.ErrInvalidPlatform) ||
			errors.Is(err, app.ErrInvalidUserRole) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, registerTokenResponse{
		Message:  "Device token registered successfully",
		UserID:   reg.UserID,
		UserRole: reg.UserRole,
		DeviceID: reg.DeviceID,
	})
}

type tokenStatusResponse struct {
	UserID       string    `json:"userId"`
	HasToken     bool      `json:"hasToken"`
	Platform     string    `json:"platform,omitempty"`
	DeviceID     string    `json:"deviceId,omitempty"`
	RegisteredAt time.Time `json:"registeredAt,omitempty"`
}

func (s *Server) handleTokenStatus(c echo.Context) error {
	userID := c.Param("userId")
	reg, err := s.deviceService.TokenStatus(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, idb.ErrRegistrationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no active device registration for user")
		}
		return err
	}
	return c.JSON(http.StatusOK, tokenStatusResponse{
		UserID:       reg.UserID,
		HasToken:     true,
		Platform:     reg.Platform,
		DeviceID:     reg.DeviceID,
		RegisteredAt: reg.RegisteredAt,
	})
}

func (s *Server) handleRemoveToken(c echo.Context) error {
	userID := c.Param("userId")
	if err := s.deviceService.Deactivate(c.Request().Context(), userID); err != nil {
		if errors.Is(err, idb.ErrRegistrationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no active device registration for user")
		}
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Device token deactivated successfully",
		"userId":  userID,
	})
}

// handleSendTreatmentReminders is the on-demand operational trigger: it
// runs the sweep outside the daily schedule and returns the aggregate.
func (s *Server) handleSendTreatmentReminders(c echo.Context) error {
	summary, err := s.coordinator.TriggerNow(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

func (s *Server) handleCronStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.coordinator.Status())
}
