package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"workclock.service/internal/core/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleSummaries() []model.EmployeeSummary {
	return []model.EmployeeSummary{
		{
			EmployeeID: 1, EmployeeName: "Alice", Email: "alice@example.com", HourlyRate: d("20"),
			TotalHours: d("170"), RegularHours: d("160"), OvertimeHours: d("10"),
			RegularPay: d("3200"), OvertimePay: d("300"), TotalPay: d("3500"),
		},
		{
			EmployeeID: 2, EmployeeName: "Bob, Jr.", Email: "bob@example.com", HourlyRate: d("20"),
			TotalHours: d("3.08"), RegularHours: d("3.08"), OvertimeHours: d("0"),
			RegularPay: d("61.6"), OvertimePay: d("0"), TotalPay: d("61.6"),
		},
	}
}

func TestCSVLayout(t *testing.T) {
	out, err := CSV(sampleSummaries())
	require.NoError(t, err)

	r := csv.NewReader(bytes.NewReader(out))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)

	// encoding/csv skips the blank separator line when reading.
	require.Len(t, records, 4)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, []string{"1", "Alice", "alice@example.com", "$20.00", "170.00", "160.00", "10.00", "$3200.00", "$300.00", "$3500.00"}, records[1])
	assert.Equal(t, "Bob, Jr.", records[2][1])
	assert.Equal(t, []string{"", "", "", "TOTALS", "173.08", "163.08", "10.00", "$3261.60", "$300.00", "$3561.60"}, records[3])

	assert.Contains(t, string(out), "\r\n\r\n,,,TOTALS")
}

func TestCSVEmpty(t *testing.T) {
	out, err := CSV(nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "TOTALS,0.00,0.00,0.00,$0.00,$0.00,$0.00")
}

func TestXLSXLayout(t *testing.T) {
	p := model.Period{Year: 2024, Month: time.March}
	out, err := XLSX(p, sampleSummaries())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out), excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	defer f.Close()

	sheet := "Payroll 2024-03"
	assert.Equal(t, []string{sheet}, f.GetSheetList())

	title, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "WorkClock Payroll Report — 2024-03", title)

	merged, err := f.GetMergeCells(sheet)
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, "A1", merged[0].GetStartAxis())
	assert.Equal(t, "J1", merged[0].GetEndAxis())

	header, err := f.GetCellValue(sheet, "I3")
	require.NoError(t, err)
	assert.Equal(t, "Overtime Pay (1.5x)", header)

	name, err := f.GetCellValue(sheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)

	pay, err := f.GetCellValue(sheet, "J4")
	require.NoError(t, err)
	assert.Equal(t, "3500", pay)

	// Two employees: totals land on row 2 + 5.
	label, err := f.GetCellValue(sheet, "D7")
	require.NoError(t, err)
	assert.Equal(t, "TOTALS", label)
	total, err := f.GetCellValue(sheet, "J7")
	require.NoError(t, err)
	assert.Equal(t, "3561.6", total)

	styleID, err := f.GetCellStyle(sheet, "J4")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.CustomNumFmt)
	assert.Equal(t, "$#,##0.00", *style.CustomNumFmt)
}

func TestFileName(t *testing.T) {
	p := model.Period{Year: 2024, Month: time.March}
	assert.Equal(t, "workclock_payroll_2024_03.csv", FileName(p, "csv"))
	assert.Equal(t, "workclock_payroll_2024_03.xlsx", FileName(p, "xlsx"))
}
