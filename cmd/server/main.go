package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitealert_reminder_service/internal/app"
	"bitealert_reminder_service/internal/domain/device"
	domainTelegram "bitealert_reminder_service/internal/domain/telegram"
	"bitealert_reminder_service/internal/infra/config"
	idb "bitealert_reminder_service/internal/infra/database"
	"bitealert_reminder_service/internal/infra/httpapi"
	"bitealert_reminder_service/internal/infra/logger"
	"bitealert_reminder_service/internal/infra/push"
	"bitealert_reminder_service/internal/infra/scheduler"
	"bitealert_reminder_service/internal/infra/telegram"

	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	log := logger.Get()
	log.Infof("Configuration loaded. Environment: %s, Timezone: %s", cfg.Environment, cfg.ReminderTimezone)

	location, err := time.LoadLocation(cfg.ReminderTimezone)
	if err != nil {
		log.Fatalf("FATAL: Invalid reminder timezone %q: %v", cfg.ReminderTimezone, err)
	}

	// Database
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	if err := idb.RunMigrations(context.Background(), db); err != nil {
		log.Fatalf("FATAL: Could not apply database migrations: %v", err)
	}
	log.Info("Database migrations applied")

	// Repositories
	scheduleRepo := idb.NewPostgresScheduleRepository(db)
	caseRepo := idb.NewPostgresCaseRepository(db)
	patientRepo := idb.NewPostgresPatientRepository(db)
	deviceRepo := idb.NewPostgresDeviceRepository(db)
	auditRepo := idb.NewPostgresAuditRepository(db)
	cronRepo := idb.NewPostgresCronRepository(db)

	// Push transport
	fcmClient, err := push.NewFCMClient(context.Background(), cfg.FirebaseCredentialsFile)
	if err != nil {
		log.Fatalf("FATAL: Could not initialize FCM client: %v", err)
	}
	log.Info("FCM messaging client initialized")

	// Services
	auditService := app.NewAuditService(auditRepo, cfg.AuditDedupWindow, log)
	scheduleService := app.NewScheduleService(scheduleRepo, caseRepo, auditService, log)
	deviceService := app.NewDeviceService(deviceRepo, device.TokenPrefixIdentifier{PrefixLength: cfg.TokenPrefixLength}, log)
	reminderService := app.NewReminderService(scheduleRepo, deviceRepo, caseRepo, patientRepo, fcmClient, location, log)

	// Optional Telegram ops alert channel
	var alertClient domainTelegram.Client
	if cfg.TelegramToken != "" {
		bot, err := telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		})
		if err != nil {
			log.Warnf("Could not create Telegram bot for ops alerts, continuing without: %v", err)
		} else {
			alertClient = telegram.NewTelebotAdapter(bot)
			log.Info("Telegram ops alert channel initialized")
		}
	}

	// Cron coordinator
	coordinator := scheduler.NewReminderCoordinator(
		reminderService, cronRepo, alertClient, cfg.AdminChatID,
		location, cfg.CronSpecDaily, log,
	)
	if err := coordinator.Start(); err != nil {
		log.Fatalf("FATAL: Could not start reminder coordinator: %v", err)
	}

	// HTTP server
	server := httpapi.NewServer(scheduleService, deviceService, coordinator, cfg.JWTSecret, log)
	go func() {
		if err := server.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("FATAL: HTTP server stopped unexpectedly: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down application...")
	coordinator.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP server shutdown error: %v", err)
	}
	log.Info("Application shut down gracefully")
}
