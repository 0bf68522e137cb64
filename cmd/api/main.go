package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/streetpaws/tnvr-booking/internal/accounts"
	"github.com/streetpaws/tnvr-booking/internal/api/router"
	"github.com/streetpaws/tnvr-booking/internal/appointments"
	"github.com/streetpaws/tnvr-booking/internal/capacity"
	"github.com/streetpaws/tnvr-booking/internal/clinic"
	appconfig "github.com/streetpaws/tnvr-booking/internal/config"
	"github.com/streetpaws/tnvr-booking/internal/identity"
	"github.com/streetpaws/tnvr-booking/internal/notify"
	"github.com/streetpaws/tnvr-booking/internal/observability/metrics"
	"github.com/streetpaws/tnvr-booking/internal/worker/reconcile"
	"github.com/streetpaws/tnvr-booking/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting tnvr-booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	sqlDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open postgres", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOptions)
	defer redisClient.Close()

	// Clinic settings: admin-editable in Redis, seeded from env defaults.
	// Address and timezone are captured here once; edits via the admin
	// surface apply after a restart.
	defaults := clinic.DefaultSettings(cfg.ClinicAddress, cfg.ClinicTimezone)
	defaults.TreatMissingCapacityUnlimited = cfg.AdminUnlimitedWhenUnscheduled
	clinicStore := clinic.NewStore(redisClient, defaults)
	settings, err := clinicStore.Get(ctx)
	if err != nil {
		logger.Error("failed to load clinic settings, using defaults", "error", err)
		settings = defaults
	}
	location := settings.Location()

	bookingMetrics := metrics.NewBookingMetrics(nil)
	reconcilerMetrics := metrics.NewReconcilerMetrics(nil)

	provider := identity.NewPostgresProvider(sqlDB)
	accountsRepo := accounts.NewRepository(sqlDB)
	accountsSvc := accounts.NewService(accountsRepo, provider, cfg.CredentialPrefix, logger)
	accountsHandler := accounts.NewHandler(accountsSvc, accountsRepo, logger)
	authHandler := accounts.NewAuthHandler(accountsSvc, accountsRepo, provider,
		cfg.AuthJWTSecret, cfg.AuthTokenTTL, logger)

	capacityRepo := capacity.NewRepository(sqlDB)
	capacityHandler := capacity.NewHandler(capacityRepo, settings.Address, logger)

	var emailSender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	} else {
		emailSender = notify.NewStubEmailSender(logger)
	}
	tokenStore := notify.NewTokenStore(redisClient)
	notifier := notify.NewService(emailSender, tokenStore, notify.NewLogPusher(logger), settings.Address, logger)
	deviceHandler := notify.NewDeviceHandler(tokenStore, logger)

	apptRepo := appointments.NewRepository(pool)
	calculator := appointments.NewCalculator(capacityRepo, apptRepo, settings.Address, location)
	bookingSvc := appointments.NewBookingService(appointments.BookingServiceParams{
		Repo:          apptRepo,
		Calc:          calculator,
		Profiles:      accountsRepo,
		Notifier:      notifier,
		Metrics:       bookingMetrics,
		Logger:        logger,
		ClinicAddress: settings.Address,
		Location:      location,
	})
	bookingHandler := appointments.NewHandler(bookingSvc, logger)
	adminBookingHandler := appointments.NewAdminHandler(bookingSvc, logger)
	clinicHandler := clinic.NewHandler(clinicStore, logger)

	reconciler := reconcile.NewWorker(apptRepo, reconcilerMetrics, logger).
		WithInterval(cfg.ReconcileInterval).
		WithChunkSize(cfg.ReconcileChunkSize)
	workerCtx, stopWorker := context.WithCancel(ctx)
	go reconciler.Run(workerCtx)

	r := router.New(&router.Config{
		Logger:              logger,
		AuthHandler:         authHandler,
		AccountsHandler:     accountsHandler,
		BookingHandler:      bookingHandler,
		AdminBookingHandler: adminBookingHandler,
		CapacityHandler:     capacityHandler,
		ClinicHandler:       clinicHandler,
		DeviceHandler:       deviceHandler,
		AccountReader:       accountsRepo,
		AuthSecret:          cfg.AuthJWTSecret,
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerSecond:  cfg.RateLimitPerSecond,
		RateLimitBurst:      cfg.RateLimitBurst,
		ReconcileTrigger: func(w http.ResponseWriter, req *http.Request) {
			completed, err := reconciler.RunOnce(req.Context())
			if err != nil {
				http.Error(w, "reconcile failed, see logs", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]int64{"completed": completed})
		},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
