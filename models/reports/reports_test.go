package reports

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mmdatafocus/pos_backend/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	prev := config.GetDB()
	config.SetDB(gdb)
	t.Cleanup(func() {
		config.SetDB(prev)
		_ = sqlDB.Close()
	})
	t.Setenv("REPORT_CACHE_ENABLED", "false")
	return mock
}

func TestTopProductsReportUsesRangeAndLimit(t *testing.T) {
	mock := newMockDB(t)
	from := time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 2, 3, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM\s+order_items AS oi(.|\n)*opened_at >= \?(.|\n)*opened_at < \?(.|\n)*LIMIT \?`).
		WithArgs(from, to, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "qty", "total"}).
			AddRow(7, "Empanada · Pino", "12", "30000").
			AddRow(3, "Coca-Cola", "4", "6000"))

	rows, err := GetTopProductsReport(context.Background(), &from, &to, 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 7, rows[0].Id)
	assert.Equal(t, "Empanada · Pino", rows[0].Name)
	assert.True(t, rows[0].Qty.Equal(decimal.NewFromInt(12)))
	assert.True(t, rows[1].Total.Equal(decimal.NewFromInt(6000)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTopProductsReportWithoutRangeDefaultsLimit(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`FROM\s+order_items AS oi`).
		WithArgs(DefaultTopProductsLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "qty", "total"}))

	rows, err := GetTopProductsReport(context.Background(), nil, nil, 0)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryValuationSumsValues(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`FROM\s+products AS p`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "variant_id", "variant_name", "quantity", "cost", "value"}).
			AddRow(1, "Empanada", 10, "Pino", "10", "1200", "12000").
			AddRow(2, "Jugo", 20, "Único", "5", nil, "0"))

	report, err := GetInventoryValuationReport(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Items, 2)
	assert.Equal(t, 10, report.Items[0].VariantId)
	assert.Nil(t, report.Items[1].Cost)
	assert.True(t, report.Total.Equal(decimal.NewFromInt(12000)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinancialSummaryComputesProfit(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`AS income(.|\n)*AS expense`).
		WillReturnRows(sqlmock.NewRows([]string{"income", "expense"}).AddRow("150000", "42000.5"))

	summary, err := GetFinancialSummaryReport(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.True(t, summary.Profit.Equal(decimal.RequireFromString("107999.5")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLowRotationPassesThreshold(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`HAVING COALESCE\(SUM\(sold.qty\), 0\) <= \?`).
		WithArgs(DefaultLowRotationThreshold).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "qty"}).AddRow(4, "Pisco Sour", "0"))

	rows, err := GetLowRotationReport(context.Background(), nil, nil, DefaultLowRotationThreshold)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Qty.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportFinancialSummaryWritesWorkbook(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`AS income(.|\n)*AS expense`).
		WillReturnRows(sqlmock.NewRows([]string{"income", "expense"}).AddRow("1000", "250"))

	data, filename, err := ExportReport(context.Background(), "financial-summary", ReportParams{})
	require.NoError(t, err)
	assert.Contains(t, filename, "financial-summary-")

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Income", header)
	profit, err := f.GetCellValue("Sheet1", "C2")
	require.NoError(t, err)
	assert.Equal(t, "750", profit)
}

func TestExportUnknownReport(t *testing.T) {
	_, _, err := ExportReport(context.Background(), "nope", ReportParams{})
	assert.Error(t, err)
}

func TestCacheKeyFormatsTimes(t *testing.T) {
	from := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "Report:top-products:2024-01-02T03:04:05Z:-:10", cacheKey("top-products", &from, (*time.Time)(nil), 10))
}

func TestNamedArgsSkipsEmptyParams(t *testing.T) {
	assert.Nil(t, namedArgs(map[string]interface{}{}))
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	args := namedArgs(map[string]interface{}{"from": from})
	require.Len(t, args, 1)
	assert.Equal(t, map[string]interface{}{"from": from}, args[0])
}

func TestEmployeesSalesWithoutRange(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`FROM\s+users AS u\s+LEFT JOIN\s+orders AS o ON o.user_id = u.id\s+GROUP BY`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "orders", "total"}).
			AddRow(2, "Caja", 3, "18500").
			AddRow(1, "Admin", 0, "0"))

	rows, err := GetEmployeesSalesReport(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 3, rows[0].Orders)
	assert.True(t, rows[1].Total.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinancialSummaryBindsRange(t *testing.T) {
	mock := newMockDB(t)
	from := time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 1, 3, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`o.opened_at >= \? AND o.opened_at < \?(.|\n)*e.occurred_at >= \? AND e.occurred_at < \?`).
		WithArgs(from, to, from, to).
		WillReturnRows(sqlmock.NewRows([]string{"income", "expense"}).AddRow("10", "4"))

	summary, err := GetFinancialSummaryReport(context.Background(), &from, &to)
	require.NoError(t, err)
	assert.True(t, summary.Profit.Equal(decimal.NewFromInt(6)))
	require.NoError(t, mock.ExpectationsWereMet())
}
