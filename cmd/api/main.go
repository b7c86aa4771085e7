package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/sitetrack/sitetrack-backend/internal/audit"
	"github.com/sitetrack/sitetrack-backend/internal/http/handlers"
	jwtmw "github.com/sitetrack/sitetrack-backend/internal/http/middleware"
	"github.com/sitetrack/sitetrack-backend/internal/importer"
	"github.com/sitetrack/sitetrack-backend/internal/platform/mailer"
	"github.com/sitetrack/sitetrack-backend/internal/repo/postgres"
	"github.com/sitetrack/sitetrack-backend/pkg/config"
	"github.com/sitetrack/sitetrack-backend/pkg/database"
	"github.com/sitetrack/sitetrack-backend/pkg/events"
	"github.com/sitetrack/sitetrack-backend/pkg/logger"
	"github.com/sitetrack/sitetrack-backend/pkg/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	bus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer bus.Close()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid redis URL", "error", err)
		os.Exit(1)
	}
	if cfg.Redis.Password != "" {
		redisOpts.Password = cfg.Redis.Password
	}
	redisOpts.DB = cfg.Redis.DB
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	mail := pickMailer(cfg)

	users := postgres.NewUserRepository(pool)
	projects := postgres.NewProjectRepository(pool)
	attendance := postgres.NewAttendanceRepository(pool)
	tasks := postgres.NewTaskRepository(pool)
	issues := postgres.NewIssueRepository(pool)
	materials := postgres.NewMaterialRepository(pool)
	pettyCash := postgres.NewPettyCashRepository(pool)
	activity := postgres.NewActivityRepository(pool)

	imp := importer.New(users, attendance, projects, activity, bus, mail, cfg.Import)

	if err := audit.NewRecorder(activity).Start(bus); err != nil {
		logger.Error("Failed to start audit recorder", "error", err)
		os.Exit(1)
	}

	attendanceHandler := handlers.NewAttendanceHandler(attendance, users, imp, bus, cfg.Import)
	userHandler := handlers.NewUserHandler(users)
	projectHandler := handlers.NewProjectHandler(projects, users)
	taskHandler := handlers.NewTaskHandler(tasks, users, bus)
	issueHandler := handlers.NewIssueHandler(issues, users, projects, bus, mail)
	inventoryHandler := handlers.NewInventoryHandler(materials, users, bus)
	pettyCashHandler := handlers.NewPettyCashHandler(pettyCash, users, bus)
	activityHandler := handlers.NewActivityHandler(activity, users)
	reportHandler := handlers.NewReportHandler(users, projects, attendance, materials, pettyCash)

	idempotency := middleware.Idempotency(middleware.NewRedisIdempotencyStore(redisClient))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(jwtmw.RequireJWT)
			r.With(idempotency).Mount("/attendance", attendanceHandler.Routes())
			r.Mount("/users", userHandler.Routes())
			r.Mount("/projects", projectHandler.Routes())
			r.Mount("/tasks", taskHandler.Routes())
			r.Mount("/issues", issueHandler.Routes())
			r.Mount("/inventory", inventoryHandler.Routes())
			r.Mount("/petty-cash", pettyCashHandler.Routes())
			r.Mount("/activity", activityHandler.Routes())
			r.Mount("/reports", reportHandler.Routes())
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}

// pickMailer chooses the outbound mail transport: dev logging, MailerSend
// when an API key is configured, plain SMTP otherwise.
func pickMailer(cfg *config.Config) mailer.Service {
	if cfg.Email.DevMode {
		return mailer.NewDevMailer()
	}
	if cfg.Email.MailerSendKey != "" {
		return mailer.NewMailer(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom)
	}
	return mailer.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPFrom, cfg.Email.SMTPUser, cfg.Email.SMTPPass, cfg.Email.SMTPUseTLS)
}
