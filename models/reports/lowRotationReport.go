package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
)

var DefaultLowRotationThreshold = decimal.NewFromInt(3)

type LowRotationResponse struct {
	Id   int             `json:"id"`
	Name string          `json:"name"`
	Qty  decimal.Decimal `json:"qty"`
}

// GetLowRotationReport lists variants whose sold quantity in [from, to) is at most threshold.
// Only order items of orders inside the range count toward the sold quantity.
func GetLowRotationReport(ctx context.Context, from *time.Time, to *time.Time, threshold decimal.Decimal) ([]*LowRotationResponse, error) {
	return cachedReport(ctx, "low-rotation", []any{from, to, threshold.String()}, func(ctx context.Context) ([]*LowRotationResponse, error) {
		sqlT := `
SELECT
    pv.id AS id,
    ` + variantNameSql + ` AS name,
    COALESCE(SUM(sold.qty), 0) AS qty
FROM
    product_variants AS pv
        JOIN
    products AS p ON p.id = pv.product_id
        LEFT JOIN
    (SELECT
        oi.product_variant_id, oi.qty
    FROM
        order_items AS oi
    JOIN orders AS o ON o.id = oi.order_id
    WHERE
        1 = 1
        {{- if .from }} AND o.opened_at >= @from {{- end }}
        {{- if .to }} AND o.opened_at < @to {{- end }}) AS sold ON sold.product_variant_id = pv.id
GROUP BY pv.id , p.name , pv.name
HAVING COALESCE(SUM(sold.qty), 0) <= @threshold
ORDER BY qty ASC , pv.id
`
		tmpl, params := rangeArgs(from, to)
		sql, err := utils.ExecTemplate(sqlT, tmpl)
		if err != nil {
			return nil, err
		}
		params["threshold"] = threshold

		results := []*LowRotationResponse{}
		db := config.GetDB()
		if err := db.WithContext(ctx).Raw(sql, namedArgs(params)...).Scan(&results).Error; err != nil {
			return nil, err
		}
		return results, nil
	})
}
