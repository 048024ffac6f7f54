package models

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mmlivehub/opsboard_backend/config"
	"github.com/mmlivehub/opsboard_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// DailySummaryRow is one employee's aggregated day for the summary report.
type DailySummaryRow struct {
	EmployeeId   int             `json:"employee_id"`
	EmployeeName *string         `json:"employee_name"`
	EntryCount   int             `json:"entry_count"`
	TotalSales   decimal.Decimal `json:"total_sales"`
}

// GetDailySummary aggregates per-employee totals for one local day.
func GetDailySummary(ctx context.Context, date time.Time) ([]*DailySummaryRow, error) {

	reportDate, err := utils.ConvertToDate(date, AgencyTimezone())
	if err != nil {
		return nil, err
	}

	sql := `
SELECT
    dsr.employee_id,
    employees.name AS employee_name,
    COUNT(dsr.id) AS entry_count,
    SUM(dsr.closing_balance - dsr.opening_balance) AS total_sales
FROM
    daily_shift_reports AS dsr
    LEFT JOIN employees ON employees.id = dsr.employee_id
WHERE
    dsr.report_date = ?
GROUP BY
    dsr.employee_id, employees.name
ORDER BY
    total_sales DESC;
`

	var records []*DailySummaryRow
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, reportDate).Scan(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

func totalSalesOfRows(rows []*DailyShiftReport) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.ClosingBalance.Sub(row.OpeningBalance))
	}
	return total
}

// WriteDailyReportExcel streams the full day's shift rows as an xlsx file.
func WriteDailyReportExcel(ctx context.Context, date time.Time, w io.Writer) error {

	rows, err := GetReportsForDate(ctx, date)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	sheetName := "Sheet1"
	_, err = f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	// Add headers
	f.SetCellValue(sheetName, "A1", "Date")
	f.SetCellValue(sheetName, "B1", "Employee")
	f.SetCellValue(sheetName, "C1", "Device")
	f.SetCellValue(sheetName, "D1", "Account")
	f.SetCellValue(sheetName, "E1", "Shift")
	f.SetCellValue(sheetName, "F1", "LiveStatus")
	f.SetCellValue(sheetName, "G1", "ProductCategory")
	f.SetCellValue(sheetName, "H1", "OpeningBalance")
	f.SetCellValue(sheetName, "I1", "ClosingBalance")
	f.SetCellValue(sheetName, "J1", "Sales")

	// Add data
	for i, d := range rows {
		rowNo := fmt.Sprint(i + 2)
		employeeName := ""
		if d.Employee != nil {
			employeeName = d.Employee.Name
		}
		deviceName := ""
		if d.Device != nil {
			deviceName = d.Device.Name
		}
		accountName := ""
		if d.Account != nil {
			accountName = d.Account.Name
		}
		f.SetCellValue(sheetName, "A"+rowNo, d.ReportDate.Format("2006-01-02"))
		f.SetCellValue(sheetName, "B"+rowNo, employeeName)
		f.SetCellValue(sheetName, "C"+rowNo, deviceName)
		f.SetCellValue(sheetName, "D"+rowNo, accountName)
		f.SetCellValue(sheetName, "E"+rowNo, d.Shift)
		f.SetCellValue(sheetName, "F"+rowNo, string(d.LiveStatus))
		f.SetCellValue(sheetName, "G"+rowNo, d.ProductCategory)
		f.SetCellValue(sheetName, "H"+rowNo, d.OpeningBalance.String())
		f.SetCellValue(sheetName, "I"+rowNo, d.ClosingBalance.String())
		f.SetCellValue(sheetName, "J"+rowNo, d.ClosingBalance.Sub(d.OpeningBalance).String())
	}

	// Totals row
	totalRow := fmt.Sprint(len(rows) + 2)
	f.SetCellValue(sheetName, "A"+totalRow, "Total")
	f.SetCellValue(sheetName, "J"+totalRow, totalSalesOfRows(rows).String())

	return f.Write(w)
}
