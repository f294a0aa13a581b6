package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"workclock.service/internal/core/model"
	"workclock.service/internal/ports/repository"
)

// DefaultOvertimeThreshold is the monthly hour count above which overtime applies.
const DefaultOvertimeThreshold = 160

// PayrollService aggregates closed sessions into monthly hours and pay.
type PayrollService struct {
	repo      repository.Repository
	threshold decimal.Decimal
	clock     Clock
}

// NewPayrollService creates the aggregator. A non-positive threshold falls
// back to DefaultOvertimeThreshold.
func NewPayrollService(repo repository.Repository, thresholdHours float64) *PayrollService {
	if thresholdHours <= 0 {
		thresholdHours = DefaultOvertimeThreshold
	}
	return &PayrollService{
		repo:      repo,
		threshold: decimal.NewFromFloat(thresholdHours),
	}
}

// SetClock replaces the time source.
func (s *PayrollService) SetClock(c Clock) {
	s.clock = c
}

// Threshold is the configured overtime threshold in hours.
func (s *PayrollService) Threshold() decimal.Decimal {
	return s.threshold
}

// SplitHours rounds totalMinutes to hours and splits it around threshold.
func SplitHours(totalMinutes int64, threshold decimal.Decimal) model.MonthlyHours {
	total := model.MinutesToHours(totalMinutes)
	return model.MonthlyHours{
		TotalMinutes:  totalMinutes,
		TotalHours:    total,
		RegularHours:  decimal.Min(total, threshold),
		OvertimeHours: decimal.Max(decimal.Zero, total.Sub(threshold)),
	}
}

// ComputePay prices hours at rate. Each component is rounded to cents before
// they are summed, so the total always equals the sum of the printed parts.
func ComputePay(h model.MonthlyHours, rate decimal.Decimal) (regular, overtime, total decimal.Decimal) {
	regular = h.RegularHours.Mul(rate).Round(2)
	overtime = h.OvertimeHours.Mul(rate).Mul(model.OvertimeMultiplier).Round(2)
	return regular, overtime, regular.Add(overtime)
}

// MonthlyHours sums an employee's closed sessions that started within the period.
func (s *PayrollService) MonthlyHours(ctx context.Context, employeeID int64, p model.Period) (model.MonthlyHours, error) {
	minutes, err := s.repo.SumWorkedMinutes(ctx, model.SessionFilter{
		EmployeeID: employeeID,
		From:       p.Start(),
		To:         p.End(),
	})
	if err != nil {
		return model.MonthlyHours{}, fmt.Errorf("failed to sum minutes for employee %d: %w", employeeID, err)
	}
	return SplitHours(minutes, s.threshold), nil
}

// Summarize builds one payroll row.
func (s *PayrollService) Summarize(ctx context.Context, e model.Employee, p model.Period) (model.EmployeeSummary, error) {
	h, err := s.MonthlyHours(ctx, e.ID, p)
	if err != nil {
		return model.EmployeeSummary{}, err
	}
	regular, overtime, total := ComputePay(h, e.HourlyRate)
	return model.EmployeeSummary{
		EmployeeID:    e.ID,
		EmployeeName:  e.Name,
		Email:         e.Email,
		HourlyRate:    e.HourlyRate,
		TotalHours:    h.TotalHours,
		RegularHours:  h.RegularHours,
		OvertimeHours: h.OvertimeHours,
		RegularPay:    regular,
		OvertimePay:   overtime,
		TotalPay:      total,
	}, nil
}

// AllEmployeesMonthlySummary returns one row per active employee, ordered by name.
func (s *PayrollService) AllEmployeesMonthlySummary(ctx context.Context, p model.Period) ([]model.EmployeeSummary, error) {
	employees, err := s.repo.ListActiveEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}

	summaries := make([]model.EmployeeSummary, 0, len(employees))
	for _, e := range employees {
		summary, err := s.Summarize(ctx, e, p)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// DashboardMetrics gathers the manager overview for a period.
func (s *PayrollService) DashboardMetrics(ctx context.Context, p model.Period) (*model.DashboardMetrics, error) {
	summaries, err := s.AllEmployeesMonthlySummary(ctx, p)
	if err != nil {
		return nil, err
	}

	active, err := s.repo.CountActiveEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active employees: %w", err)
	}

	todayMinutes, err := s.repo.SumWorkedMinutes(ctx, model.SessionFilter{From: s.startOfDay()})
	if err != nil {
		return nil, fmt.Errorf("failed to sum today's minutes: %w", err)
	}

	totals := model.SumSummaries(summaries)
	return &model.DashboardMetrics{
		Period:            p.String(),
		ActiveCount:       active,
		TotalHoursToday:   model.MinutesToHours(todayMinutes),
		MonthlySummaries:  summaries,
		TotalMonthlyHours: totals.TotalHours.Round(2),
		TotalPayroll:      totals.TotalPay.Round(2),
		TotalOvertimePay:  totals.OvertimePay.Round(2),
	}, nil
}

// EmployeeMonthlyLog lists an employee's sessions in the period, newest first.
func (s *PayrollService) EmployeeMonthlyLog(ctx context.Context, employeeID int64, p model.Period) ([]model.Session, error) {
	return s.repo.ListSessions(ctx, model.SessionFilter{
		EmployeeID: employeeID,
		From:       p.Start(),
		To:         p.End(),
	})
}

// TodayHours is the closed time an employee has logged since UTC midnight.
func (s *PayrollService) TodayHours(ctx context.Context, employeeID int64) (decimal.Decimal, error) {
	minutes, err := s.repo.SumWorkedMinutes(ctx, model.SessionFilter{
		EmployeeID: employeeID,
		From:       s.startOfDay(),
	})
	if err != nil {
		return decimal.Zero, err
	}
	return model.MinutesToHours(minutes), nil
}

func (s *PayrollService) startOfDay() time.Time {
	return s.clock.now().Truncate(24 * time.Hour)
}
