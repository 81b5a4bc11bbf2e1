package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Payment struct {
	ID        int             `gorm:"primary_key" json:"id"`
	OrderId   int             `gorm:"index;not null" json:"orderId"`
	Method    PaymentMethod   `gorm:"type:enum('CASH','CARD','TRANSFER','QR','OTHER');not null" json:"method"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	UserId    *int            `gorm:"index" json:"userId"`
	PaidAt    time.Time       `gorm:"index;not null" json:"paidAt"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"createdAt"`
}

type NewPayment struct {
	Method PaymentMethod   `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

type paymentRecordedPayload struct {
	PaymentId int             `json:"paymentId"`
	OrderId   int             `json:"orderId"`
	Method    PaymentMethod   `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
}

func (input *NewPayment) validate() error {
	if !input.Method.IsValid() {
		return utils.NewValidationError("invalid payment method")
	}
	if input.Amount.IsNegative() {
		return utils.NewValidationError("amount must be >= 0")
	}
	return nil
}

func CreatePayment(ctx context.Context, orderId int, input *NewPayment) (*Payment, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[Order](ctx, orderId); err != nil {
		return nil, err
	}

	payment := Payment{
		OrderId: orderId,
		Method:  input.Method,
		Amount:  input.Amount,
		PaidAt:  time.Now().UTC(),
	}
	if userId, ok := utils.GetUserIdFromContext(ctx); ok {
		payment.UserId = &userId
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		return createOutboxMessage(ctx, tx, EventTypePaymentRecorded, payment.ID, paymentRecordedPayload{
			PaymentId: payment.ID,
			OrderId:   orderId,
			Method:    payment.Method,
			Amount:    payment.Amount,
		})
	})
	if err != nil {
		if utils.IsMissingReferenceError(err) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	InvalidateReportCache()
	return &payment, nil
}
