package reports

import (
	"context"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/shopspring/decimal"
)

type InventoryValuationItem struct {
	Id          int              `json:"id"`
	Name        string           `json:"name"`
	VariantId   int              `json:"variantId"`
	VariantName string           `json:"variantName"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Cost        *decimal.Decimal `json:"cost"`
	Value       decimal.Decimal  `json:"value"`
}

type InventoryValuationResponse struct {
	Items []*InventoryValuationItem `json:"items"`
	Total decimal.Decimal           `json:"total"`
}

// GetInventoryValuationReport values stock on hand at cost; a missing cost counts as zero.
func GetInventoryValuationReport(ctx context.Context) (*InventoryValuationResponse, error) {
	return cachedReport(ctx, "inventory-valuation", nil, func(ctx context.Context) (*InventoryValuationResponse, error) {
		sql := `
SELECT
    p.id AS id,
    p.name AS name,
    pv.id AS variant_id,
    pv.name AS variant_name,
    pv.quantity AS quantity,
    pv.cost AS cost,
    pv.quantity * COALESCE(pv.cost, 0) AS value
FROM
    products AS p
        JOIN
    product_variants AS pv ON pv.product_id = p.id
ORDER BY p.name , pv.name , pv.id
`
		items := []*InventoryValuationItem{}
		db := config.GetDB()
		if err := db.WithContext(ctx).Raw(sql).Scan(&items).Error; err != nil {
			return nil, err
		}

		total := decimal.Zero
		for _, item := range items {
			total = total.Add(item.Value)
		}
		return &InventoryValuationResponse{Items: items, Total: total}, nil
	})
}
