package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
)

const DefaultTopProductsLimit = 10

type TopProductResponse struct {
	Id    int             `json:"id"`
	Name  string          `json:"name"`
	Qty   decimal.Decimal `json:"qty"`
	Total decimal.Decimal `json:"total"`
}

func GetTopProductsReport(ctx context.Context, from *time.Time, to *time.Time, limit int) ([]*TopProductResponse, error) {
	if limit <= 0 {
		limit = DefaultTopProductsLimit
	}
	return cachedReport(ctx, "top-products", []any{from, to, limit}, func(ctx context.Context) ([]*TopProductResponse, error) {
		sqlT := `
SELECT
    pv.id AS id,
    ` + variantNameSql + ` AS name,
    SUM(oi.qty) AS qty,
    SUM(oi.total) AS total
FROM
    order_items AS oi
        JOIN
    product_variants AS pv ON pv.id = oi.product_variant_id
        JOIN
    products AS p ON p.id = pv.product_id
        JOIN
    orders AS o ON o.id = oi.order_id
WHERE
    1 = 1
    {{- if .from }} AND o.opened_at >= @from {{- end }}
    {{- if .to }} AND o.opened_at < @to {{- end }}
GROUP BY pv.id , p.name , pv.name
ORDER BY qty DESC , pv.id
LIMIT @limit
`
		tmpl, params := rangeArgs(from, to)
		sql, err := utils.ExecTemplate(sqlT, tmpl)
		if err != nil {
			return nil, err
		}
		params["limit"] = limit

		results := []*TopProductResponse{}
		db := config.GetDB()
		if err := db.WithContext(ctx).Raw(sql, namedArgs(params)...).Scan(&results).Error; err != nil {
			return nil, err
		}
		return results, nil
	})
}
