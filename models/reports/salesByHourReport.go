package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
)

type SalesByHourResponse struct {
	Hour   int             `json:"hour"`
	Orders int             `json:"orders"`
	Total  decimal.Decimal `json:"total"`
}

// GetSalesByHourReport groups the orders of the local day containing date by local hour.
func GetSalesByHourReport(ctx context.Context, date time.Time) ([]*SalesByHourResponse, error) {
	start, end := utils.DayRange(date, config.Location())
	return cachedReport(ctx, "sales-by-hour", []any{&start}, func(ctx context.Context) ([]*SalesByHourResponse, error) {
		sql := `
SELECT
    HOUR(DATE_ADD(o.opened_at, INTERVAL @offset SECOND)) AS hour,
    COUNT(*) AS orders,
    COALESCE(SUM(o.total), 0) AS total
FROM
    orders AS o
WHERE
    o.opened_at >= @start AND o.opened_at < @end
GROUP BY hour
ORDER BY hour
`
		_, offset := start.Zone()
		results := []*SalesByHourResponse{}
		db := config.GetDB()
		if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
			"offset": offset,
			"start":  start.UTC(),
			"end":    end.UTC(),
		}).Scan(&results).Error; err != nil {
			return nil, err
		}
		return results, nil
	})
}

