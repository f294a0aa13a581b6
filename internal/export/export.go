// Package export renders payroll summaries for download and email.
package export

import (
	"fmt"

	"workclock.service/internal/core/model"
)

var Header = []string{
	"Employee ID", "Employee Name", "Email", "Hourly Rate",
	"Total Hours", "Regular Hours", "Overtime Hours",
	"Regular Pay", "Overtime Pay (1.5x)", "Total Pay",
}

const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// FileName is the download name for a period, e.g. workclock_payroll_2024_03.csv.
func FileName(p model.Period, ext string) string {
	return fmt.Sprintf("workclock_payroll_%04d_%02d.%s", p.Year, int(p.Month), ext)
}
