// Monthly payroll report job, run by an external scheduler on the 1st.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"workclock.service/internal/adapters/ses"
	"workclock.service/internal/config"
	"workclock.service/internal/core"
	"workclock.service/internal/core/model"
	"workclock.service/internal/ports/repository"
	"workclock.service/pkg/aws"
	"workclock.service/pkg/database"
	"workclock.service/pkg/logger"
	"workclock.service/pkg/telemetry"
)

func main() {
	flags := pflag.NewFlagSet("monthly-report", pflag.ExitOnError)
	flags.Int("year", 0, "report year (with --month: send that period unconditionally)")
	flags.Int("month", 0, "report month 1-12")
	flags.Bool("force", false, "send the previous month even if it was already sent")
	_ = flags.Parse(os.Args[1:])
	if err := viper.BindPFlags(flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}
	logger.Setup(cfg.IsLocalDev)

	shutdownTracer, err := telemetry.InitTracer("workclock-monthly-report", cfg.TraceExporter, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	db, err := database.NewInstrumentedConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer db.Close()

	ctx := context.Background()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply schema")
		}
	}

	awsCfg, err := aws.NewAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	repo := repository.NewSQLRepository(db)
	payroll := core.NewPayrollService(repo, cfg.OvertimeMonthlyThreshold)
	recipients := core.NewNotificationService(repo, nil, nil, cfg.ManagerEmail)
	mailer := sesadapter.NewMailer(ses.NewFromConfig(awsCfg), cfg.MailSender)
	reports := core.NewReportService(repo, payroll, mailer, recipients)

	if err := run(ctx, reports, viper.GetInt("year"), viper.GetInt("month"), viper.GetBool("force")); err != nil {
		log.Fatal().Err(err).Msg("Monthly report failed")
	}
	fmt.Println("Done!")
}

func run(ctx context.Context, reports *core.ReportService, year, month int, force bool) error {
	switch {
	case year != 0 || month != 0:
		p, err := model.NewPeriod(year, month)
		if err != nil {
			return err
		}
		log.Info().Str("period", p.String()).Msg("Generating report for requested period")
		if err := reports.SendMonthlyReport(ctx, p); err != nil {
			log.Error().Err(err).Str("period", p.String()).Msg("Failed to send monthly report")
		}
		return nil
	case force:
		p := model.PeriodOf(time.Now()).Previous()
		log.Info().Str("period", p.String()).Msg("Forcing report for previous month")
		if err := reports.SendMonthlyReport(ctx, p); err != nil {
			log.Error().Err(err).Str("period", p.String()).Msg("Failed to send monthly report")
		}
		return nil
	default:
		p, status, err := reports.RunMonthlyReport(ctx)
		if err != nil {
			return err
		}
		log.Info().Str("period", p.String()).Str("status", string(status)).Msg("Monthly report run finished")
		return nil
	}
}
