package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
	"workclock.service/internal/adapters/ses"
	"workclock.service/internal/config"
	"workclock.service/internal/worker"
	"workclock.service/internal/worker/email"
	"workclock.service/pkg/aws"
	"workclock.service/pkg/logger"
	"workclock.service/pkg/telemetry"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	logger.Setup(cfg.IsLocalDev)

	shutdownTracer, err := telemetry.InitTracer("workclock-email-worker", cfg.TraceExporter, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	// AWS SDK Config
	awsCfg, err := aws.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	// Initialize Dependencies
	sqsClient := sqs.NewFromConfig(awsCfg)
	mailer := sesadapter.NewMailer(ses.NewFromConfig(awsCfg), cfg.MailSender)
	processor := email.NewProcessor(mailer)

	// Start Worker
	ctx, cancel := context.WithCancel(context.Background())
	app := worker.NewWorker(sqsClient, cfg.EmailSQSQueueURL, processor)

	done := make(chan struct{})
	go func() {
		app.Start(ctx)
		close(done)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info().Msg("Shutting down worker...")

	// Stop polling and let in-flight messages finish.
	cancel()
	<-done

	log.Info().Msg("Worker exited gracefully")
}
