// Entry point for the kiosk and manager REST API
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"workclock.service/internal/adapters/sqs"
	"workclock.service/internal/api"
	"workclock.service/internal/api/handler"
	"workclock.service/internal/config"
	"workclock.service/internal/core"
	"workclock.service/internal/ports/repository"
	"workclock.service/pkg/aws"
	"workclock.service/pkg/database"
	"workclock.service/pkg/logger"
	"workclock.service/pkg/telemetry"
	"workclock.service/pkg/workerpool"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	// Configure structured logging
	logger.Setup(cfg.IsLocalDev)

	// Configure OpenTelemetry Tracing
	shutdownTracer, err := telemetry.InitTracer("workclock-api", cfg.TraceExporter, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	// DB connection
	db, err := database.NewInstrumentedConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer db.Close()
	log.Info().Str("driver", cfg.DBDriver).Msg("Successfully connected to the database.")

	if cfg.AutoMigrate {
		if err := database.Migrate(context.Background(), db, cfg.DBDriver); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply schema")
		}
	}

	// AWS SDK Config
	awsCfg, err := aws.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	// Initialize dependencies
	sqsClient := sqs.NewFromConfig(awsCfg)
	producer := sqsadapter.NewSQSProducer(sqsClient, cfg.EmailSQSQueueURL)
	notifyPool := workerpool.NewWorkerPool(cfg.NotifyWorkers, cfg.NotifyQueueSize)

	repo := repository.NewSQLRepository(db)
	identity := core.NewIdentityService(repo)
	notifications := core.NewNotificationService(repo, producer, notifyPool, cfg.ManagerEmail)

	h := &handler.Handler{
		Attendance: core.NewAttendanceService(repo, identity, notifications),
		Identity:   identity,
		Payroll:    core.NewPayrollService(repo, cfg.OvertimeMonthlyThreshold),
		Employees:  core.NewEmployeeService(repo, identity),
		JWTSecret:  cfg.JWTSecret,
		TokenTTL:   time.Duration(cfg.JWTTTLMinutes) * time.Minute,
	}

	// Setup router and server
	router := api.NewRouter(h)

	// Middleware to inject logger with trace ID
	loggerMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.EnrichContextWithLogger(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	// Wrap the router with OpenTelemetry middleware to create spans for each request
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           otelhttp.NewHandler(loggerMiddleware(router), "api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("API Service starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// In-flight requests get 5 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Flush queued clock notifications before the process exits.
	notifyPool.Close()
	log.Info().Msg("Server exiting")
}
