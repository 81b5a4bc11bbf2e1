package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
)

type EmployeeSalesResponse struct {
	Id     int             `json:"id"`
	Name   string          `json:"name"`
	Orders int             `json:"orders"`
	Total  decimal.Decimal `json:"total"`
}

// GetEmployeesSalesReport includes every user, with zero totals for users without orders in range.
func GetEmployeesSalesReport(ctx context.Context, from *time.Time, to *time.Time) ([]*EmployeeSalesResponse, error) {
	return cachedReport(ctx, "employees-sales", []any{from, to}, func(ctx context.Context) ([]*EmployeeSalesResponse, error) {
		sqlT := `
SELECT
    u.id AS id,
    u.full_name AS name,
    COUNT(o.id) AS orders,
    COALESCE(SUM(o.total), 0) AS total
FROM
    users AS u
        LEFT JOIN
    orders AS o ON o.user_id = u.id
        {{- if .from }} AND o.opened_at >= @from {{- end }}
        {{- if .to }} AND o.opened_at < @to {{- end }}
GROUP BY u.id , u.full_name
ORDER BY total DESC , u.id
`
		tmpl, params := rangeArgs(from, to)
		sql, err := utils.ExecTemplate(sqlT, tmpl)
		if err != nil {
			return nil, err
		}

		results := []*EmployeeSalesResponse{}
		db := config.GetDB()
		if err := db.WithContext(ctx).Raw(sql, namedArgs(params)...).Scan(&results).Error; err != nil {
			return nil, err
		}
		return results, nil
	})
}
