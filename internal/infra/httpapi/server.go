package httpapi

import (
	"context"
	"net/http"

	"bitealert_reminder_service/internal/app"
	"bitealert_reminder_service/internal/infra/scheduler"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// SweepCoordinator is the operational surface of the cron coordinator
// exposed over HTTP.
type SweepCoordinator interface {
	TriggerNow(ctx context.Context) (*app.ReminderSummary, error)
	Status() scheduler.Status
}

// Server wires the HTTP surface: device registration, schedule
// create/update/lookups, and the operational sweep trigger.
type Server struct {
	echo            *echo.Echo
	scheduleService app.ScheduleService
	deviceService   app.DeviceService
	coordinator     SweepCoordinator
	logger          *logrus.Logger
}

func NewServer(
	ss app.ScheduleService,
	ds app.DeviceService,
	coord SweepCoordinator,
	jwtSecret string,
	logger *logrus.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(ActorMiddleware(jwtSecret))

	s := &Server{
		echo:            e,
		scheduleService: ss,
		deviceService:   ds,
		coordinator:     coord,
		logger:          logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := s.echo.Group("/api")

	notifications := api.Group("/notifications")
	notifications.POST("/register-token", s.handleRegisterToken)
	notifications.GET("/token-status/:userId", s.handleTokenStatus)
	notifications.DELETE("/remove-token/:userId", s.handleRemoveToken)
	notifications.POST("/send-treatment-reminders", s.handleSendTreatmentReminders)
	notifications.GET("/cron-status", s.handleCronStatus)

	schedules := api.Group("/vaccination-dates")
	schedules.POST("", s.handleCreateSchedule)
	schedules.PUT("/:id", s.handleUpdateSchedule)
	schedules.GET("/bite-case/:biteCaseId", s.handleListSchedulesByBiteCase)
	schedules.GET("/patient/:patientId", s.handleListSchedulesByPatient)
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.WithField("addr", addr).Info("HTTP server starting")
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the underlying router, used by handler tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
