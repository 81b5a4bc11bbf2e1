package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
)

type FinancialSummaryResponse struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Profit  decimal.Decimal `json:"profit"`
}

// GetFinancialSummaryReport: income is the sum of order totals, expense the sum of expenses.
func GetFinancialSummaryReport(ctx context.Context, from *time.Time, to *time.Time) (*FinancialSummaryResponse, error) {
	return cachedReport(ctx, "financial-summary", []any{from, to}, func(ctx context.Context) (*FinancialSummaryResponse, error) {
		sqlT := `
SELECT
    (SELECT
            COALESCE(SUM(o.total), 0)
        FROM
            orders AS o
        WHERE
            1 = 1
            {{- if .from }} AND o.opened_at >= @from {{- end }}
            {{- if .to }} AND o.opened_at < @to {{- end }}) AS income,
    (SELECT
            COALESCE(SUM(e.amount), 0)
        FROM
            expenses AS e
        WHERE
            1 = 1
            {{- if .from }} AND e.occurred_at >= @from {{- end }}
            {{- if .to }} AND e.occurred_at < @to {{- end }}) AS expense
`
		tmpl, params := rangeArgs(from, to)
		sql, err := utils.ExecTemplate(sqlT, tmpl)
		if err != nil {
			return nil, err
		}

		var result FinancialSummaryResponse
		db := config.GetDB()
		if err := db.WithContext(ctx).Raw(sql, namedArgs(params)...).Scan(&result).Error; err != nil {
			return nil, err
		}
		result.Profit = result.Income.Sub(result.Expense)
		return &result, nil
	})
}
