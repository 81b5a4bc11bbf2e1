package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductVariant struct {
	ID        int              `gorm:"primary_key" json:"id"`
	ProductId int              `gorm:"index;not null" json:"productId"`
	Product   *Product         `gorm:"foreignKey:ProductId" json:"product,omitempty"`
	Name      string           `gorm:"size:100;not null" json:"name"`
	Price     decimal.Decimal  `gorm:"type:decimal(20,4);not null;default:0" json:"price"`
	Cost      *decimal.Decimal `gorm:"type:decimal(20,4)" json:"cost"`
	Quantity  decimal.Decimal  `gorm:"type:decimal(20,4);not null;default:0" json:"quantity"`
	Active    *bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updatedAt"`
}

type NewProductVariant struct {
	Name     string           `json:"name"`
	Price    decimal.Decimal  `json:"price"`
	Cost     *decimal.Decimal `json:"cost"`
	Quantity *decimal.Decimal `json:"quantity"`
	Active   *bool            `json:"active"`
}

type UpdateProductVariantInput struct {
	Name     *string          `json:"name"`
	Price    *decimal.Decimal `json:"price"`
	Cost     *decimal.Decimal `json:"cost"`
	Quantity *decimal.Decimal `json:"quantity"`
	Active   *bool            `json:"active"`
}

type NewStockAdjustment struct {
	Delta  decimal.Decimal `json:"delta"`
	Reason string          `json:"reason"`
}

type stockAdjustedPayload struct {
	VariantId int             `json:"variantId"`
	ProductId int             `json:"productId"`
	Delta     decimal.Decimal `json:"delta"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reason    string          `json:"reason"`
	UserId    int             `json:"userId"`
}

func (v ProductVariant) IsActive() bool {
	return v.Active != nil && *v.Active
}

// DisplayName is "Product · Variant", or the product name alone when the variant has none.
func (v ProductVariant) DisplayName(productName string) string {
	if strings.TrimSpace(v.Name) == "" {
		return productName
	}
	return productName + " · " + v.Name
}

func ListProductVariants(ctx context.Context, productId int) ([]*ProductVariant, error) {
	if err := utils.ValidateResourceId[Product](ctx, productId); err != nil {
		return nil, err
	}
	db := config.GetDB()
	var variants []*ProductVariant
	if err := db.WithContext(ctx).Where("product_id = ?", productId).Order("id").Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

func CreateProductVariant(ctx context.Context, productId int, input *NewProductVariant) (*ProductVariant, error) {
	if err := utils.ValidateResourceId[Product](ctx, productId); err != nil {
		return nil, err
	}
	if err := validateAmounts(&input.Price, input.Quantity, input.Cost); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = DefaultVariantName
	}

	variant := ProductVariant{
		ProductId: productId,
		Name:      name,
		Price:     input.Price,
		Cost:      input.Cost,
		Quantity:  utils.DereferencePtr(input.Quantity, decimal.Zero),
		Active:    utils.NewTrue(),
	}
	if input.Active != nil {
		variant.Active = input.Active
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&variant).Error; err != nil {
		return nil, err
	}
	InvalidateReportCache()
	return &variant, nil
}

func UpdateProductVariant(ctx context.Context, id int, input *UpdateProductVariantInput) (*ProductVariant, error) {
	if err := validateAmounts(input.Price, input.Quantity, input.Cost); err != nil {
		return nil, err
	}
	variant, err := utils.FetchModel[ProductVariant](ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, utils.NewValidationError("name is required")
		}
		updates["Name"] = name
	}
	if input.Price != nil {
		updates["Price"] = *input.Price
	}
	if input.Cost != nil {
		updates["Cost"] = *input.Cost
	}
	if input.Quantity != nil {
		updates["Quantity"] = *input.Quantity
	}
	if input.Active != nil {
		updates["Active"] = *input.Active
	}
	if len(updates) == 0 {
		return variant, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(variant).Updates(updates).Error; err != nil {
		return nil, err
	}
	InvalidateReportCache()
	return utils.FetchModel[ProductVariant](ctx, id)
}

// AdjustVariantStock applies a signed stock delta under a row lock.
func AdjustVariantStock(ctx context.Context, id int, input *NewStockAdjustment) (*ProductVariant, error) {
	if input.Delta.IsZero() {
		return nil, utils.NewValidationError("delta must not be zero")
	}
	userId, _ := utils.GetUserIdFromContext(ctx)

	var variant ProductVariant
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&variant, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}

		quantity := variant.Quantity.Add(input.Delta)
		if quantity.IsNegative() {
			return utils.NewValidationError("resulting quantity cannot be negative. available: %s", variant.Quantity.String())
		}
		if err := tx.Model(&variant).Update("quantity", quantity).Error; err != nil {
			return err
		}
		variant.Quantity = quantity

		return createOutboxMessage(ctx, tx, EventTypeStockAdjusted, variant.ID, stockAdjustedPayload{
			VariantId: variant.ID,
			ProductId: variant.ProductId,
			Delta:     input.Delta,
			Quantity:  quantity,
			Reason:    strings.TrimSpace(input.Reason),
			UserId:    userId,
		})
	})
	if err != nil {
		return nil, err
	}
	InvalidateReportCache()
	return &variant, nil
}
