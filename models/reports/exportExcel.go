package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const ExcelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportParams carries the query values shared by all exportable reports.
type ReportParams struct {
	From      *time.Time
	To        *time.Time
	Date      time.Time
	Limit     int
	Threshold decimal.Decimal
}

type ReportSheet struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

func decimalCell(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// BuildReportSheet runs the named report and flattens it into rows.
func BuildReportSheet(ctx context.Context, name string, params ReportParams) (*ReportSheet, error) {
	sheet := &ReportSheet{Name: name}
	switch name {
	case "top-products":
		rows, err := GetTopProductsReport(ctx, params.From, params.To, params.Limit)
		if err != nil {
			return nil, err
		}
		sheet.Headers = []string{"Id", "Name", "Qty", "Total"}
		for _, r := range rows {
			sheet.Rows = append(sheet.Rows, []interface{}{r.Id, r.Name, decimalCell(r.Qty), decimalCell(r.Total)})
		}
	case "sales-by-hour":
		rows, err := GetSalesByHourReport(ctx, params.Date)
		if err != nil {
			return nil, err
		}
		sheet.Headers = []string{"Hour", "Orders", "Total"}
		for _, r := range rows {
			sheet.Rows = append(sheet.Rows, []interface{}{r.Hour, r.Orders, decimalCell(r.Total)})
		}
	case "inventory-valuation":
		report, err := GetInventoryValuationReport(ctx)
		if err != nil {
			return nil, err
		}
		sheet.Headers = []string{"Id", "Name", "VariantId", "VariantName", "Quantity", "Cost", "Value"}
		for _, r := range report.Items {
			var cost interface{}
			if r.Cost != nil {
				cost = decimalCell(*r.Cost)
			}
			sheet.Rows = append(sheet.Rows, []interface{}{r.Id, r.Name, r.VariantId, r.VariantName, decimalCell(r.Quantity), cost, decimalCell(r.Value)})
		}
		sheet.Rows = append(sheet.Rows, []interface{}{nil, "Total", nil, nil, nil, nil, decimalCell(report.Total)})
	case "low-rotation":
		rows, err := GetLowRotationReport(ctx, params.From, params.To, params.Threshold)
		if err != nil {
			return nil, err
		}
		sheet.Headers = []string{"Id", "Name", "Qty"}
		for _, r := range rows {
			sheet.Rows = append(sheet.Rows, []interface{}{r.Id, r.Name, decimalCell(r.Qty)})
		}
	case "employees-sales":
		rows, err := GetEmployeesSalesReport(ctx, params.From, params.To)
		if err != nil {
			return nil, err
		}
		sheet.Headers = []string{"Id", "Name", "Orders", "Total"}
		for _, r := range rows {
			sheet.Rows = append(sheet.Rows, []interface{}{r.Id, r.Name, r.Orders, decimalCell(r.Total)})
		}
	case "financial-summary":
		r, err := GetFinancialSummaryReport(ctx, params.From, params.To)
		if err != nil {
			return nil, err
		}
		sheet.Headers = []string{"Income", "Expense", "Profit"}
		sheet.Rows = append(sheet.Rows, []interface{}{decimalCell(r.Income), decimalCell(r.Expense), decimalCell(r.Profit)})
	case "daily-summary":
		rows, err := GetDailySummaryReport(ctx, params.From, params.To)
		if err != nil {
			return nil, err
		}
		sheet.Headers = []string{"Date", "Orders", "Subtotal", "Tips", "Discounts", "TotalSales", "Payments", "Expenses"}
		for _, r := range rows {
			sheet.Rows = append(sheet.Rows, []interface{}{
				r.SummaryDate.Format("2006-01-02"), r.Orders, decimalCell(r.Subtotal), decimalCell(r.Tips),
				decimalCell(r.Discounts), decimalCell(r.TotalSales), decimalCell(r.Payments), decimalCell(r.Expenses),
			})
		}
	default:
		return nil, utils.ErrorRecordNotFound
	}
	return sheet, nil
}

// WriteExcel renders a sheet as an .xlsx workbook.
func WriteExcel(sheet *ReportSheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sheet1"
	for i, h := range sheet.Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}
	for r, row := range sheet.Rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportReport returns the xlsx bytes and a download file name.
func ExportReport(ctx context.Context, name string, params ReportParams) ([]byte, string, error) {
	sheet, err := BuildReportSheet(ctx, name, params)
	if err != nil {
		return nil, "", err
	}
	data, err := WriteExcel(sheet)
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("%s-%s.xlsx", name, time.Now().In(config.Location()).Format("20060102")), nil
}
