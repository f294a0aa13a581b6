package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	minutesPerHour     = decimal.NewFromInt(60)
	OvertimeMultiplier = decimal.NewFromFloat(1.5)
)

// Period is a calendar month in UTC.
type Period struct {
	Year  int
	Month time.Month
}

// NewPeriod validates year and month.
func NewPeriod(year, month int) (Period, error) {
	if year < 1970 || year > 9999 || month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: period %d-%02d", ErrInvalidInput, year, month)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// PeriodOf returns the month containing t (in UTC).
func PeriodOf(t time.Time) Period {
	t = t.UTC()
	return Period{Year: t.Year(), Month: t.Month()}
}

// Start is the first instant of the month.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the first instant after the month; the period is [Start, End).
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// LastInstant is the last representable instant of the last calendar day.
func (p Period) LastInstant() time.Time {
	return p.End().Add(-time.Nanosecond)
}

// DaysIn is the month length.
func (p Period) DaysIn() int {
	return time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (p Period) Previous() Period {
	return PeriodOf(p.Start().AddDate(0, -1, 0))
}

// String formats the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// MinutesToHours converts minutes to hours rounded to 2 places.
func MinutesToHours(minutes int64) decimal.Decimal {
	return decimal.NewFromInt(minutes).DivRound(minutesPerHour, 2)
}

// MonthlyHours splits worked time around the overtime threshold.
type MonthlyHours struct {
	TotalMinutes  int64           `json:"totalMinutes"`
	TotalHours    decimal.Decimal `json:"totalHours"`
	RegularHours  decimal.Decimal `json:"regularHours"`
	OvertimeHours decimal.Decimal `json:"overtimeHours"`
}

// EmployeeSummary is one payroll row.
type EmployeeSummary struct {
	EmployeeID    int64           `json:"employeeId"`
	EmployeeName  string          `json:"employeeName"`
	Email         string          `json:"email"`
	HourlyRate    decimal.Decimal `json:"hourlyRate"`
	TotalHours    decimal.Decimal `json:"totalHours"`
	RegularHours  decimal.Decimal `json:"regularHours"`
	OvertimeHours decimal.Decimal `json:"overtimeHours"`
	RegularPay    decimal.Decimal `json:"regularPay"`
	OvertimePay   decimal.Decimal `json:"overtimePay"`
	TotalPay      decimal.Decimal `json:"totalPay"`
}

// PayrollTotals sums the rounded per-employee values.
type PayrollTotals struct {
	TotalHours    decimal.Decimal `json:"totalHours"`
	RegularHours  decimal.Decimal `json:"regularHours"`
	OvertimeHours decimal.Decimal `json:"overtimeHours"`
	RegularPay    decimal.Decimal `json:"regularPay"`
	OvertimePay   decimal.Decimal `json:"overtimePay"`
	TotalPay      decimal.Decimal `json:"totalPay"`
}

func SumSummaries(summaries []EmployeeSummary) PayrollTotals {
	var t PayrollTotals
	for _, s := range summaries {
		t.TotalHours = t.TotalHours.Add(s.TotalHours)
		t.RegularHours = t.RegularHours.Add(s.RegularHours)
		t.OvertimeHours = t.OvertimeHours.Add(s.OvertimeHours)
		t.RegularPay = t.RegularPay.Add(s.RegularPay)
		t.OvertimePay = t.OvertimePay.Add(s.OvertimePay)
		t.TotalPay = t.TotalPay.Add(s.TotalPay)
	}
	return t
}

// DashboardMetrics backs the manager overview.
type DashboardMetrics struct {
	Period            string            `json:"period"`
	ActiveCount       int64             `json:"activeCount"`
	TotalHoursToday   decimal.Decimal   `json:"totalHoursToday"`
	MonthlySummaries  []EmployeeSummary `json:"monthlySummaries"`
	TotalMonthlyHours decimal.Decimal   `json:"totalMonthlyHours"`
	TotalPayroll      decimal.Decimal   `json:"totalPayroll"`
	TotalOvertimePay  decimal.Decimal   `json:"totalOvertimePay"`
}
