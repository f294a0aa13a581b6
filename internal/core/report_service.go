package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"workclock.service/internal/core/model"
	"workclock.service/internal/export"
	"workclock.service/internal/ports/messaging"
	"workclock.service/internal/ports/repository"
)

// ReportStatus is what a monthly report run ended up doing.
type ReportStatus string

const (
	ReportSent    ReportStatus = "sent"
	ReportSkipped ReportStatus = "skipped"
	ReportFailed  ReportStatus = "failed"
)

// RecipientSource lists who receives manager mail.
type RecipientSource interface {
	ManagerEmails(ctx context.Context) ([]string, error)
}

// ReportService emails the monthly payroll report to managers.
type ReportService struct {
	repo       repository.Repository
	payroll    *PayrollService
	mailer     messaging.Mailer
	recipients RecipientSource
	clock      Clock
}

func NewReportService(repo repository.Repository, payroll *PayrollService, mailer messaging.Mailer, recipients RecipientSource) *ReportService {
	return &ReportService{
		repo:       repo,
		payroll:    payroll,
		mailer:     mailer,
		recipients: recipients,
	}
}

// SetClock replaces the time source.
func (s *ReportService) SetClock(c Clock) {
	s.clock = c
}

func reportMessage(p model.Period) string {
	return "Monthly report for " + p.String()
}

// AlreadySent reports whether a monthly_summary entry for p has been logged.
// The match is a substring search on the free-text message.
func (s *ReportService) AlreadySent(ctx context.Context, p model.Period) (bool, error) {
	n, err := s.repo.FindNotification(ctx, model.NotificationFilter{
		Type:            model.NotificationMonthlySummary,
		SentSince:       p.Start(),
		MessageContains: p.String(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to check report log: %w", err)
	}
	return n != nil, nil
}

// RunMonthlyReport sends the report for the month before now unless it was
// already sent. Dispatch failures are logged and reported as ReportFailed, not
// returned.
func (s *ReportService) RunMonthlyReport(ctx context.Context) (model.Period, ReportStatus, error) {
	p := model.PeriodOf(s.clock.now()).Previous()
	l := log.Ctx(ctx).With().Str("period", p.String()).Logger()

	sent, err := s.AlreadySent(ctx, p)
	if err != nil {
		return p, ReportFailed, err
	}
	if sent {
		l.Info().Msg("Monthly report already sent. Skipping.")
		return p, ReportSkipped, nil
	}

	l.Info().Msg("Generating monthly payroll report")
	if err := s.SendMonthlyReport(ctx, p); err != nil {
		l.Error().Err(err).Msg("Failed to send monthly report")
		return p, ReportFailed, nil
	}
	return p, ReportSent, nil
}

// SendMonthlyReport emails the report for p unconditionally and, once the mail
// is accepted, logs one monthly_summary entry per employee in it.
func (s *ReportService) SendMonthlyReport(ctx context.Context, p model.Period) error {
	to, err := s.recipients.ManagerEmails(ctx)
	if err != nil {
		return err
	}
	if len(to) == 0 {
		log.Ctx(ctx).Warn().Msg("No manager emails configured for monthly report")
		return nil
	}

	summaries, err := s.payroll.AllEmployeesMonthlySummary(ctx, p)
	if err != nil {
		return err
	}
	csv, err := export.CSV(summaries)
	if err != nil {
		return fmt.Errorf("render csv: %w", err)
	}

	email := messaging.Email{
		To:      to,
		Subject: fmt.Sprintf("[WorkClock] Monthly Payroll Report — %s", p),
		Text:    renderReportText(p, summaries),
		Attachments: []messaging.Attachment{{
			Filename:    export.FileName(p, "csv"),
			ContentType: export.ContentTypeCSV,
			Data:        csv,
		}},
	}
	if err := s.mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("send report email: %w", err)
	}

	now := s.clock.now()
	for _, summary := range summaries {
		err := s.repo.AppendNotification(ctx, &model.Notification{
			EmployeeID: summary.EmployeeID,
			Type:       model.NotificationMonthlySummary,
			Message:    reportMessage(p),
			SentAt:     now,
		})
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Int64("employee_id", summary.EmployeeID).Msg("Failed to log monthly report notification")
		}
	}

	log.Ctx(ctx).Info().Str("period", p.String()).Strs("to", to).Int("employees", len(summaries)).Msg("Monthly report sent")
	return nil
}

func renderReportText(p model.Period, summaries []model.EmployeeSummary) string {
	t := model.SumSummaries(summaries)

	var b strings.Builder
	b.WriteString("WorkClock Monthly Payroll Report\n")
	b.WriteString("===================================\n\n")
	fmt.Fprintf(&b, "Period: %s\n", p)
	fmt.Fprintf(&b, "Total Employees: %d\n", len(summaries))
	fmt.Fprintf(&b, "Total Hours: %s\n", t.TotalHours.StringFixed(2))
	fmt.Fprintf(&b, "Total Overtime Hours: %s\n", t.OvertimeHours.StringFixed(2))
	fmt.Fprintf(&b, "Total Payroll: $%s\n\n", t.TotalPay.StringFixed(2))
	b.WriteString("Employee Summary:\n")
	for _, s := range summaries {
		fmt.Fprintf(&b, "  - %s: %sh (OT: %sh) = $%s\n",
			s.EmployeeName, s.TotalHours.StringFixed(2), s.OvertimeHours.StringFixed(2), s.TotalPay.StringFixed(2))
	}
	b.WriteString("\nDetailed CSV report attached.\n\nWorkClock Attendance System")
	return b.String()
}
