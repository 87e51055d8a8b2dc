package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/medibot/intake-platform/internal/api/router"
	"github.com/medibot/intake-platform/internal/appointments"
	"github.com/medibot/intake-platform/internal/booking"
	appconfig "github.com/medibot/intake-platform/internal/config"
	"github.com/medibot/intake-platform/internal/doctors"
	"github.com/medibot/intake-platform/internal/importer"
	"github.com/medibot/intake-platform/internal/intake"
	"github.com/medibot/intake-platform/internal/mapping"
	"github.com/medibot/intake-platform/internal/notify"
	"github.com/medibot/intake-platform/internal/observability/metrics"
	"github.com/medibot/intake-platform/internal/oracle"
	"github.com/medibot/intake-platform/internal/patients"
	"github.com/medibot/intake-platform/internal/transcript"
	"github.com/medibot/intake-platform/pkg/logging"
)

func main() {
	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting intake-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	archiveDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open archive connection", "error", err)
		os.Exit(1)
	}
	defer archiveDB.Close()

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	var oracleClient oracle.Client = oracle.Disabled{}
	if cfg.GeminiAPIKey != "" {
		gemini, err := oracle.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to create Gemini client", "error", err)
			os.Exit(1)
		}
		defer gemini.Close()
		oracleClient = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, oracle features disabled")
	}

	intakeMetrics := metrics.NewIntakeMetrics(prometheus.DefaultRegisterer)
	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)

	patientsRepo := patients.NewRepository(pool)
	doctorsRepo := doctors.NewRepository(pool, logger)

	var notifier appointments.Notifier
	if cfg.SendGridAPIKey != "" && cfg.SendGridFromEmail != "" {
		sender := notify.NewSendGridSender(cfg.SendGridAPIKey, cfg.SendGridFromName, cfg.SendGridFromEmail)
		notifier = notify.NewService(sender, logger)
	}

	reservations := appointments.NewService(pool,
		appointments.ParseMissingPatientPolicy(cfg.OnMissingPatient),
		notifier, bookingMetrics, logger)
	booker := booking.New(doctorsRepo, reservations, cfg.BookingHorizonDays, logger)

	recommender := oracle.NewRecommender(oracleClient, cfg.OracleTimeout, logger)
	profiles := oracle.NewProfileGenerator(oracleClient, cfg.OracleTimeout, logger)
	engine := intake.NewEngine(oracleClient, patientsRepo, profiles, recommender,
		cfg.OracleTimeout, intakeMetrics, logger)
	sessionStore := intake.NewRedisSessionStore(redisClient, cfg.SessionTTL)

	im := importer.New(pool, cfg.SymptomMaxLength, logger)
	journal := importer.NewJournal(redisClient, cfg.SessionTTL)
	archive := transcript.NewStore(archiveDB, logger)

	intakeHandler := intake.NewHandler(engine, sessionStore, mapping.NewMapper(),
		booker, im, journal, archive, logger)
	doctorsHandler := doctors.NewHandler(doctorsRepo, bookingMetrics, logger)
	appointmentsHandler := appointments.NewHandler(reservations, logger)

	r := router.New(&router.Config{
		Logger:              logger,
		IntakeHandler:       intakeHandler,
		DoctorsHandler:      doctorsHandler,
		AppointmentsHandler: appointmentsHandler,
		MetricsHandler:      promhttp.Handler(),
		AdminAuthSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins:  cfg.CORSOrigins(),
		IntakeRateLimit:     cfg.IntakeRateLimit,
		IntakeRateBurst:     cfg.IntakeRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
