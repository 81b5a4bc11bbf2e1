package models

import (
	"context"
	"strings"
	"time"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
	"gorm.io/gorm"
)

type ProductType struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null;unique" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

type NewProductType struct {
	Name string `json:"name"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewProductType) validate(ctx context.Context, id int) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return utils.NewValidationError("name is required")
	}
	return utils.ValidateUnique[ProductType](ctx, "name", input.Name, id)
}

func ListProductTypes(ctx context.Context) ([]*ProductType, error) {
	return utils.FetchAllModels[ProductType](ctx, "name")
}

func CreateProductType(ctx context.Context, input *NewProductType) (*ProductType, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	productType := ProductType{Name: input.Name}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&productType).Error; err != nil {
		if utils.IsDuplicateKeyError(err) {
			return nil, utils.ErrDuplicate
		}
		return nil, err
	}
	return &productType, nil
}

func UpdateProductType(ctx context.Context, id int, input *NewProductType) (*ProductType, error) {
	productType, err := utils.FetchModel[ProductType](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(productType).Update("Name", input.Name).Error; err != nil {
		if utils.IsDuplicateKeyError(err) {
			return nil, utils.ErrDuplicate
		}
		return nil, err
	}
	productType.Name = input.Name
	return productType, nil
}

func DeleteProductType(ctx context.Context, id int) (*ProductType, error) {
	productType, err := utils.FetchModel[ProductType](ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[Product](ctx, "type_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("used by product")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(productType).Error; err != nil {
		if utils.IsForeignKeyError(err) {
			return nil, utils.NewValidationError("used by product")
		}
		return nil, err
	}
	return productType, nil
}

// upsertProductType returns the product type with that name, creating it if needed.
func upsertProductType(tx *gorm.DB, name string) (*ProductType, error) {
	productType := ProductType{}
	if err := tx.Where(ProductType{Name: name}).FirstOrCreate(&productType).Error; err != nil {
		return nil, err
	}
	return &productType, nil
}

// findProductTypeByName returns nil when absent.
func findProductTypeByName(tx *gorm.DB, name string) (*ProductType, error) {
	var productTypes []ProductType
	if err := tx.Where("name = ?", name).Limit(1).Find(&productTypes).Error; err != nil {
		return nil, err
	}
	if len(productTypes) == 0 {
		return nil, nil
	}
	return &productTypes[0], nil
}

// SeedProductTypes makes sure the default product types exist.
func SeedProductTypes(ctx context.Context, names ...string) error {
	db := config.GetDB().WithContext(ctx)
	for _, name := range names {
		if _, err := upsertProductType(db, name); err != nil {
			return err
		}
	}
	return nil
}
