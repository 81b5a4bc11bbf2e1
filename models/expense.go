package models

import (
	"context"
	"strings"
	"time"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
)

type Expense struct {
	ID          int             `gorm:"primary_key" json:"id"`
	Description string          `gorm:"size:255;not null" json:"description"`
	Category    string          `gorm:"size:100" json:"category"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	OccurredAt  time.Time       `gorm:"index;not null" json:"occurredAt"`
	CreatedById *int            `gorm:"index" json:"createdById"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

type NewExpense struct {
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	OccurredAt  *time.Time      `json:"occurredAt"`
}

func (input *NewExpense) validate() error {
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)
	if input.Description == "" {
		return utils.NewValidationError("description is required")
	}
	if input.Amount.IsNegative() {
		return utils.NewValidationError("amount must be >= 0")
	}
	return nil
}

func CreateExpense(ctx context.Context, input *NewExpense) (*Expense, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	expense := Expense{
		Description: input.Description,
		Category:    input.Category,
		Amount:      input.Amount,
		OccurredAt:  time.Now().UTC(),
	}
	if input.OccurredAt != nil {
		expense.OccurredAt = input.OccurredAt.UTC()
	}
	if userId, ok := utils.GetUserIdFromContext(ctx); ok {
		expense.CreatedById = &userId
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&expense).Error; err != nil {
		return nil, err
	}
	InvalidateReportCache()
	return &expense, nil
}

func ListExpenses(ctx context.Context, from *time.Time, to *time.Time) ([]*Expense, error) {
	db := config.GetDB()
	query := db.WithContext(ctx).Model(&Expense{})
	if from != nil {
		query = query.Where("occurred_at >= ?", from.UTC())
	}
	if to != nil {
		query = query.Where("occurred_at < ?", to.UTC())
	}
	var expenses []*Expense
	if err := query.Order("occurred_at DESC").Order("id DESC").Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

func DeleteExpense(ctx context.Context, id int) (*Expense, error) {
	expense, err := utils.FetchModel[Expense](ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(expense).Error; err != nil {
		return nil, err
	}
	InvalidateReportCache()
	return expense, nil
}
