package export

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/shopspring/decimal"
	"workclock.service/internal/core/model"
)

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// CSV renders one row per summary, a blank line, then a totals row.
func CSV(summaries []model.EmployeeSummary) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	if err := w.Write(Header); err != nil {
		return nil, err
	}
	for _, s := range summaries {
		row := []string{
			strconv.FormatInt(s.EmployeeID, 10), s.EmployeeName, s.Email,
			money(s.HourlyRate),
			s.TotalHours.StringFixed(2), s.RegularHours.StringFixed(2), s.OvertimeHours.StringFixed(2),
			money(s.RegularPay), money(s.OvertimePay), money(s.TotalPay),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	t := model.SumSummaries(summaries)
	// encoding/csv writes an empty record as a blank line.
	if err := w.Write([]string{""}); err != nil {
		return nil, err
	}
	totals := []string{
		"", "", "", "TOTALS",
		t.TotalHours.StringFixed(2), t.RegularHours.StringFixed(2), t.OvertimeHours.StringFixed(2),
		money(t.RegularPay), money(t.OvertimePay), money(t.TotalPay),
	}
	if err := w.Write(totals); err != nil {
		return nil, err
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}
