package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DefaultVariantName = "Único"

type Product struct {
	ID          int              `gorm:"primary_key" json:"id"`
	Name        string           `gorm:"size:150;not null;index" json:"name"`
	Description string           `gorm:"type:text" json:"description"`
	ImageUrl    string           `gorm:"size:500" json:"imageUrl"`
	ImageKey    *string          `gorm:"size:255" json:"-"`
	ImageType   *string          `gorm:"size:100" json:"-"`
	HasImage    bool             `gorm:"-" json:"hasImage"`
	IsSellable  *bool            `gorm:"not null;default:true" json:"isSellable"`
	IsStockItem *bool            `gorm:"not null;default:false" json:"isStockItem"`
	CategoryId  *int             `gorm:"index" json:"categoryId"`
	Category    *ProductCategory `gorm:"foreignKey:CategoryId" json:"category,omitempty"`
	TypeId      *int             `gorm:"index" json:"typeId"`
	Type        *ProductType     `gorm:"foreignKey:TypeId" json:"type,omitempty"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductId" json:"variants"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updatedAt"`
}

type NewProduct struct {
	Name        string           `json:"name"`
	Price       decimal.Decimal  `json:"price"`
	Size        *string          `json:"size"`
	Category    string           `json:"category"`
	Type        *string          `json:"type"`
	Quantity    *decimal.Decimal `json:"quantity"`
	ImageUrl    *string          `json:"imageUrl"`
	Description *string          `json:"description"`
	IsSellable  *bool            `json:"isSellable"`
	IsStockItem *bool            `json:"isStockItem"`
	Cost        *decimal.Decimal `json:"cost"`
	Active      *bool            `json:"active"`
}

type UpdateProductInput struct {
	Name        *string          `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	Size        *string          `json:"size"`
	Category    *string          `json:"category"`
	Type        *string          `json:"type"`
	Quantity    *decimal.Decimal `json:"quantity"`
	ImageUrl    *string          `json:"imageUrl"`
	Description *string          `json:"description"`
	IsSellable  *bool            `json:"isSellable"`
	IsStockItem *bool            `json:"isStockItem"`
	Cost        *decimal.Decimal `json:"cost"`
	Active      *bool            `json:"active"`
}

var errInvalidCategory = utils.NewValidationError("invalid category: must match an existing product type")

func (p *Product) AfterFind(tx *gorm.DB) error {
	p.HasImage = p.ImageKey != nil && *p.ImageKey != ""
	return nil
}

func productImagePath(id int) string {
	return fmt.Sprintf("/products/%d/image", id)
}

func validateAmounts(price *decimal.Decimal, quantity *decimal.Decimal, cost *decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return utils.NewValidationError("price must be >= 0")
	}
	if quantity != nil && quantity.IsNegative() {
		return utils.NewValidationError("quantity must be >= 0")
	}
	if cost != nil && cost.IsNegative() {
		return utils.NewValidationError("cost must be >= 0")
	}
	return nil
}

func (input *NewProduct) validate() error {
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)
	if input.Name == "" {
		return utils.NewValidationError("name is required")
	}
	if input.Category == "" {
		return utils.NewValidationError("category is required")
	}
	return validateAmounts(&input.Price, input.Quantity, input.Cost)
}

func (input *UpdateProductInput) validate() error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return utils.NewValidationError("name is required")
		}
		input.Name = &name
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		input.Category = &category
	}
	return validateAmounts(input.Price, input.Quantity, input.Cost)
}

func (input *UpdateProductInput) variantUpdates() map[string]interface{} {
	updates := map[string]interface{}{}
	if input.Price != nil {
		updates["price"] = *input.Price
	}
	if input.Quantity != nil {
		updates["quantity"] = *input.Quantity
	}
	if input.Cost != nil {
		updates["cost"] = *input.Cost
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}
	if input.Size != nil {
		updates["name"] = strings.TrimSpace(*input.Size)
	}
	return updates
}

// resolveCategory checks the category against product types and upserts it.
// The matching product type is returned for products created without an explicit type.
func resolveCategory(tx *gorm.DB, name string) (*ProductCategory, *ProductType, error) {
	productType, err := findProductTypeByName(tx, name)
	if err != nil {
		return nil, nil, err
	}
	if productType == nil {
		return nil, nil, errInvalidCategory
	}
	category, err := upsertProductCategory(tx, name)
	if err != nil {
		return nil, nil, err
	}
	return category, productType, nil
}

func ListProducts(ctx context.Context, typeId int, typeName string) ([]*Product, error) {
	db := config.GetDB()
	query := db.WithContext(ctx).
		Where("is_sellable = ?", true).
		Where("EXISTS (SELECT 1 FROM product_variants pv WHERE pv.product_id = products.id AND pv.active = ?)", true)
	if typeId > 0 {
		query = query.Where("type_id = ?", typeId)
	}
	if typeName = strings.TrimSpace(typeName); typeName != "" {
		query = query.Where("type_id IN (SELECT id FROM product_types WHERE name = ?)", typeName)
	}

	var products []*Product
	err := query.
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Category").
		Preload("Type").
		Order("name").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	db := config.GetDB()
	var product Product
	err := db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Category").
		Preload("Type").
		First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &product, nil
}

func CreateProduct(ctx context.Context, input *NewProduct, image *FileUpload) (*Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var imageKey, imageType string
	if image != nil {
		var err error
		if imageKey, imageType, err = storeImage(ctx, "products", image); err != nil {
			return nil, err
		}
	}

	variantName := strings.TrimSpace(utils.DereferencePtr(input.Size))
	if variantName == "" {
		variantName = DefaultVariantName
	}

	product := Product{
		Name:        input.Name,
		Description: utils.DereferencePtr(input.Description),
		ImageUrl:    utils.DereferencePtr(input.ImageUrl),
		IsSellable:  utils.NewTrue(),
		IsStockItem: utils.NewFalse(),
		Variants: []ProductVariant{{
			Name:     variantName,
			Price:    input.Price,
			Quantity: utils.DereferencePtr(input.Quantity, decimal.Zero),
			Cost:     input.Cost,
			Active:   utils.NewTrue(),
		}},
	}
	if input.IsSellable != nil {
		product.IsSellable = input.IsSellable
	}
	if input.IsStockItem != nil {
		product.IsStockItem = input.IsStockItem
	}
	if input.Active != nil {
		product.Variants[0].Active = input.Active
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, matchedType, err := resolveCategory(tx, input.Category)
		if err != nil {
			return err
		}
		product.CategoryId = &category.ID
		product.TypeId = &matchedType.ID

		if typeName := strings.TrimSpace(utils.DereferencePtr(input.Type)); typeName != "" {
			productType, err := upsertProductType(tx, typeName)
			if err != nil {
				return err
			}
			product.TypeId = &productType.ID
		}

		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		if imageKey != "" {
			return tx.Model(&product).Updates(map[string]interface{}{
				"ImageKey":  imageKey,
				"ImageType": imageType,
				"ImageUrl":  productImagePath(product.ID),
			}).Error
		}
		return nil
	})
	if err != nil {
		if imageKey != "" {
			removeObjects(ctx, imageKey, utils.ThumbnailKey(imageKey))
		}
		return nil, err
	}
	InvalidateReportCache()

	return GetProduct(ctx, product.ID)
}

func UpdateProduct(ctx context.Context, id int, input *UpdateProductInput, image *FileUpload) (*Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}

	var imageKey, imageType string
	if image != nil {
		if imageKey, imageType, err = storeImage(ctx, "products", image); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["Name"] = *input.Name
	}
	if input.Description != nil {
		updates["Description"] = *input.Description
	}
	if input.ImageUrl != nil {
		updates["ImageUrl"] = *input.ImageUrl
	}
	if input.IsSellable != nil {
		updates["IsSellable"] = *input.IsSellable
	}
	if input.IsStockItem != nil {
		updates["IsStockItem"] = *input.IsStockItem
	}
	if imageKey != "" {
		updates["ImageKey"] = imageKey
		updates["ImageType"] = imageType
		updates["ImageUrl"] = productImagePath(id)
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.Category != nil && *input.Category != "" {
			category, _, err := resolveCategory(tx, *input.Category)
			if err != nil {
				return err
			}
			updates["CategoryId"] = category.ID
		}
		if typeName := strings.TrimSpace(utils.DereferencePtr(input.Type)); typeName != "" {
			productType, err := upsertProductType(tx, typeName)
			if err != nil {
				return err
			}
			updates["TypeId"] = productType.ID
		}

		if len(updates) > 0 {
			if err := tx.Model(product).Updates(updates).Error; err != nil {
				return err
			}
		}
		if variantUpdates := input.variantUpdates(); len(variantUpdates) > 0 {
			if err := tx.Model(&ProductVariant{}).
				Where("product_id = ? AND active = ?", id, true).
				Updates(variantUpdates).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if imageKey != "" {
			removeObjects(ctx, imageKey, utils.ThumbnailKey(imageKey))
		}
		return nil, err
	}

	if imageKey != "" && product.ImageKey != nil && *product.ImageKey != "" {
		removeObjects(ctx, *product.ImageKey, utils.ThumbnailKey(*product.ImageKey))
	}
	if input.Price != nil || input.Quantity != nil || input.Cost != nil {
		InvalidateReportCache()
	}
	return GetProduct(ctx, id)
}

// DeleteProduct hard deletes the product and its variants. When order items still
// reference a variant the product is retired instead: not sellable, variants inactive.
func DeleteProduct(ctx context.Context, id int) (*Product, bool, error) {
	product, err := GetProduct(ctx, id)
	if err != nil {
		return nil, false, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&ProductVariant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Product{}, id).Error
	})
	if err == nil {
		if product.ImageKey != nil && *product.ImageKey != "" {
			removeObjects(ctx, *product.ImageKey, utils.ThumbnailKey(*product.ImageKey))
		}
		InvalidateReportCache()
		return product, false, nil
	}
	if !utils.IsForeignKeyError(err) {
		return nil, false, err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Product{}).Where("id = ?", id).Update("is_sellable", false).Error; err != nil {
			return err
		}
		return tx.Model(&ProductVariant{}).Where("product_id = ?", id).Update("active", false).Error
	})
	if err != nil {
		return nil, false, err
	}
	InvalidateReportCache()

	product, err = GetProduct(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return product, true, nil
}

// GetProductImage returns the stored image, or its thumbnail.
func GetProductImage(ctx context.Context, id int, thumbnail bool) ([]byte, string, error) {
	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !product.HasImage {
		return nil, "", utils.ErrorRecordNotFound
	}
	key := *product.ImageKey
	if thumbnail {
		key = utils.ThumbnailKey(key)
	}
	return readObject(ctx, key)
}
