package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/manulsahu/MediSight/internal/config"
	"github.com/manulsahu/MediSight/internal/handler/middleware"
	v1 "github.com/manulsahu/MediSight/internal/handler/v1"
	"github.com/manulsahu/MediSight/internal/notify"
	"github.com/manulsahu/MediSight/internal/repository/postgres"
	"github.com/manulsahu/MediSight/internal/service"
	"github.com/manulsahu/MediSight/pkg/auth"
	"github.com/manulsahu/MediSight/pkg/cache"
	"github.com/manulsahu/MediSight/pkg/database"
	"github.com/manulsahu/MediSight/pkg/logger"
	"github.com/manulsahu/MediSight/pkg/metrics"
	"github.com/manulsahu/MediSight/pkg/tracer"
)

const limiterCleanupInterval = time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	baseLog, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = baseLog.Sync() }()
	log := logger.WithService(baseLog, cfg.App)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers cleanups
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		closers.run(closeCtx, log)
	}()

	tp, err := tracer.Init(ctx, cfg.Tracing, cfg.App.Version)
	if err != nil {
		return fmt.Errorf("initialising tracer: %w", err)
	}
	closers.add("tracer", tp.Shutdown)

	m := metrics.NewCollector(cfg.App.Name)

	db, err := database.Connect(cfg.Database, log, m)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying sql.DB: %w", err)
	}
	closers.add("postgres", func(context.Context) error { return sqlDB.Close() })

	if err := database.Migrate(db, log); err != nil {
		return err
	}

	rdb, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	closers.add("redis", func(context.Context) error { return rdb.Close() })

	users := postgres.NewUserRepository(db)
	patients := postgres.NewPatientRepository(db)
	doctors := postgres.NewDoctorRepository(db)
	appointments := postgres.NewAppointmentRepository(db)
	reports := postgres.NewReportRepository(db)
	medications := postgres.NewMedicationRepository(db)
	messages := postgres.NewMessageRepository(db)

	auditSvc := service.NewAuditService(postgres.NewAuditRepository(db), log, m)
	closers.add("audit", func(context.Context) error {
		auditSvc.Shutdown()
		return nil
	})
	notifier := notify.NewRedisNotifier(rdb.Redis(), log, m)
	tokens := auth.NewJWTManager(cfg.JWT)

	insightSvc := service.NewInsightService(reports, rdb, cfg.Analysis, auditSvc, m, log)
	reportSvc := service.NewReportService(reports, patients, insightSvc, auditSvc, notifier, m, log)

	handlers := v1.Handlers{
		Auth:          v1.NewAuthHandler(service.NewAuthService(users, tokens, auditSvc, log)),
		Patients:      v1.NewPatientHandler(service.NewPatientService(patients, auditSvc, log)),
		Doctors:       v1.NewDoctorHandler(service.NewDoctorService(doctors, auditSvc, log)),
		Appointments:  v1.NewAppointmentHandler(service.NewAppointmentService(appointments, patients, doctors, auditSvc, notifier, m, log)),
		Reports:       v1.NewReportHandler(reportSvc, insightSvc),
		Medications:   v1.NewMedicationHandler(service.NewMedicationService(medications, patients, auditSvc, notifier, m, log)),
		Messages:      v1.NewMessageHandler(service.NewMessageService(messages, users, notifier, m, log)),
		Notifications: v1.NewNotificationHandler(notifier, log),
		Health: v1.NewHealthHandler(cfg.App.Version, map[string]v1.Check{
			"postgres": sqlDB.PingContext,
			"redis":    rdb.Ping,
		}),
	}

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.BurstSize)
	authLimiter := middleware.PerMinute(cfg.RateLimit.AuthRequestsPerMinute)
	go limiter.Cleanup(ctx, limiterCleanupInterval)
	go authLimiter.Cleanup(ctx, limiterCleanupInterval)

	router := v1.NewRouter(v1.RouterDeps{
		Log:         log,
		Metrics:     m,
		Tokens:      tokens,
		CORS:        cfg.CORS,
		Limiter:     limiter,
		AuthLimiter: authLimiter,
		Production:  cfg.App.IsProduction(),
	}, handlers)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server forced to shut down", zap.Error(err))
	}
	log.Info("server stopped")
	return nil
}
