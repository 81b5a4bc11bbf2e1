package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// DailySalesSummary is a derived, query-friendly aggregate of one business day.
//
// Grain: summary_date in the configured TIMEZONE.
// The row can always be rebuilt from orders, payments and expenses.
type DailySalesSummary struct {
	SummaryDate time.Time       `gorm:"primaryKey;type:date" json:"summaryDate"`
	Orders      int             `gorm:"not null;default:0" json:"orders"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"subtotal"`
	Tips        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"tips"`
	Discounts   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"discounts"`
	TotalSales  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"totalSales"`
	Payments    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"payments"`
	Expenses    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"expenses"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

type dailyOrderTotals struct {
	Orders    int
	Subtotal  decimal.Decimal
	Tips      decimal.Decimal
	Discounts decimal.Decimal
	Total     decimal.Decimal
}

const dailyOrderTotalsSql = `
SELECT
	COUNT(*) AS orders,
	COALESCE(SUM(subtotal), 0) AS subtotal,
	COALESCE(SUM(tip), 0) AS tips,
	COALESCE(SUM(discount), 0) AS discounts,
	COALESCE(SUM(total), 0) AS total
FROM orders
WHERE opened_at >= @start AND opened_at < @end
`

// ComputeDailySummary aggregates the day containing `day` and upserts its row.
func ComputeDailySummary(ctx context.Context, day time.Time) (*DailySalesSummary, error) {
	loc := config.Location()
	start, end := utils.DayRange(day, loc)
	params := map[string]interface{}{
		"start": start.UTC(),
		"end":   end.UTC(),
	}

	db := config.GetDB().WithContext(ctx)

	var orderTotals dailyOrderTotals
	if err := db.Raw(dailyOrderTotalsSql, params).Scan(&orderTotals).Error; err != nil {
		return nil, err
	}
	var payments decimal.Decimal
	if err := db.Raw("SELECT COALESCE(SUM(amount), 0) FROM payments WHERE paid_at >= @start AND paid_at < @end", params).
		Scan(&payments).Error; err != nil {
		return nil, err
	}
	var expenses decimal.Decimal
	if err := db.Raw("SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE occurred_at >= @start AND occurred_at < @end", params).
		Scan(&expenses).Error; err != nil {
		return nil, err
	}

	summary := DailySalesSummary{
		SummaryDate: time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		Orders:      orderTotals.Orders,
		Subtotal:    orderTotals.Subtotal,
		Tips:        orderTotals.Tips,
		Discounts:   orderTotals.Discounts,
		TotalSales:  orderTotals.Total,
		Payments:    payments,
		Expenses:    expenses,
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "summary_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"orders", "subtotal", "tips", "discounts", "total_sales", "payments", "expenses", "updated_at"}),
	}).Create(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// BackfillDailySummaries recomputes every day in [from, to] inclusive.
func BackfillDailySummaries(ctx context.Context, from time.Time, to time.Time) (int, error) {
	loc := config.Location()
	day, _ := utils.DayRange(from, loc)
	last, _ := utils.DayRange(to, loc)
	count := 0
	for !day.After(last) {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if _, err := ComputeDailySummary(ctx, day); err != nil {
			return count, err
		}
		count++
		day = day.AddDate(0, 0, 1)
	}
	return count, nil
}

// ListDailySummaries returns persisted rows whose date falls in [from, to).
func ListDailySummaries(ctx context.Context, from *time.Time, to *time.Time) ([]*DailySalesSummary, error) {
	db := config.GetDB()
	query := db.WithContext(ctx)
	loc := config.Location()
	if from != nil {
		query = query.Where("summary_date >= ?", summaryDateOf(*from, loc))
	}
	if to != nil {
		query = query.Where("summary_date < ?", summaryDateOf(*to, loc))
	}
	var rows []*DailySalesSummary
	if err := query.Order("summary_date").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func summaryDateOf(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
