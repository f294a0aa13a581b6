package export

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"workclock.service/internal/core/model"
)

const (
	currencyFormat = "$#,##0.00"
	hoursFormat    = "0.00"
	headerRow      = 3
	firstDataRow   = 4
	minColumnWidth = 12
)

// Columns 4, 8, 9 and 10 hold money; 5-7 hold hours.
var currencyColumns = map[int]bool{4: true, 8: true, 9: true, 10: true}

// SheetName is the worksheet title for a period.
func SheetName(p model.Period) string {
	return "Payroll " + p.String()
}

type xlsxStyles struct {
	title, header, text, currency, hours, totalsLabel int
}

func newStyles(f *excelize.File) (xlsxStyles, error) {
	var (
		s   xlsxStyles
		err error
	)
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	currency, hours := currencyFormat, hoursFormat

	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return s, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F2937"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    border,
	}); err != nil {
		return s, err
	}
	if s.text, err = f.NewStyle(&excelize.Style{Border: border}); err != nil {
		return s, err
	}
	if s.currency, err = f.NewStyle(&excelize.Style{Border: border, CustomNumFmt: &currency}); err != nil {
		return s, err
	}
	if s.hours, err = f.NewStyle(&excelize.Style{Border: border, CustomNumFmt: &hours}); err != nil {
		return s, err
	}
	if s.totalsLabel, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, err
	}
	return s, nil
}

// XLSX renders the payroll workbook: merged title, header on row 3, one row
// per employee from row 4, and a totals row after a blank line.
func XLSX(p model.Period, summaries []model.EmployeeSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(p)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}
	styles, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("create styles: %w", err)
	}

	widths := make([]int, len(Header)+1)
	set := func(col, row int, value any, style int) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
		if style != 0 {
			if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
				return err
			}
		}
		if w := len(fmt.Sprint(value)); w > widths[col] {
			widths[col] = w
		}
		return nil
	}

	if err := f.MergeCell(sheet, "A1", "J1"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheet, "A1", "WorkClock Payroll Report — "+p.String()); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", styles.title); err != nil {
		return nil, err
	}

	for i, h := range Header {
		if err := set(i+1, headerRow, h, styles.header); err != nil {
			return nil, err
		}
	}

	numberStyle := func(col int) int {
		if currencyColumns[col] {
			return styles.currency
		}
		return styles.hours
	}

	for i, s := range summaries {
		row := firstDataRow + i
		values := []any{
			s.EmployeeID, s.EmployeeName, s.Email,
			s.HourlyRate.InexactFloat64(), s.TotalHours.InexactFloat64(), s.RegularHours.InexactFloat64(),
			s.OvertimeHours.InexactFloat64(), s.RegularPay.InexactFloat64(), s.OvertimePay.InexactFloat64(), s.TotalPay.InexactFloat64(),
		}
		for j, v := range values {
			col := j + 1
			style := styles.text
			if col >= 4 {
				style = numberStyle(col)
			}
			if err := set(col, row, v, style); err != nil {
				return nil, err
			}
		}
	}

	t := model.SumSummaries(summaries)
	totalsRow := len(summaries) + 5
	if err := set(4, totalsRow, "TOTALS", styles.totalsLabel); err != nil {
		return nil, err
	}
	for j, d := range []decimal.Decimal{t.TotalHours, t.RegularHours, t.OvertimeHours, t.RegularPay, t.OvertimePay, t.TotalPay} {
		col := 5 + j
		if err := set(col, totalsRow, d.InexactFloat64(), numberStyle(col)); err != nil {
			return nil, err
		}
	}

	for col := 1; col <= len(Header); col++ {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, name, name, float64(max(widths[col]+2, minColumnWidth))); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
