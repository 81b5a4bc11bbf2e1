package models

import (
	"context"
	"strings"
	"time"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
	"gorm.io/gorm"
)

type ProductCategory struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null;unique" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

type NewProductCategory struct {
	Name string `json:"name"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewProductCategory) validate(ctx context.Context, id int) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return utils.NewValidationError("name is required")
	}
	return utils.ValidateUnique[ProductCategory](ctx, "name", input.Name, id)
}

func ListProductCategories(ctx context.Context) ([]*ProductCategory, error) {
	return utils.FetchAllModels[ProductCategory](ctx, "name")
}

func CreateProductCategory(ctx context.Context, input *NewProductCategory) (*ProductCategory, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	category := ProductCategory{Name: input.Name}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&category).Error; err != nil {
		if utils.IsDuplicateKeyError(err) {
			return nil, utils.ErrDuplicate
		}
		return nil, err
	}
	return &category, nil
}

func UpdateProductCategory(ctx context.Context, id int, input *NewProductCategory) (*ProductCategory, error) {
	category, err := utils.FetchModel[ProductCategory](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(category).Update("Name", input.Name).Error; err != nil {
		if utils.IsDuplicateKeyError(err) {
			return nil, utils.ErrDuplicate
		}
		return nil, err
	}
	category.Name = input.Name
	return category, nil
}

func DeleteProductCategory(ctx context.Context, id int) (*ProductCategory, error) {
	category, err := utils.FetchModel[ProductCategory](ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[Product](ctx, "category_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("used by product")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(category).Error; err != nil {
		if utils.IsForeignKeyError(err) {
			return nil, utils.NewValidationError("used by product")
		}
		return nil, err
	}
	return category, nil
}

// upsertProductCategory returns the category with that name, creating it if needed.
func upsertProductCategory(tx *gorm.DB, name string) (*ProductCategory, error) {
	category := ProductCategory{}
	if err := tx.Where(ProductCategory{Name: name}).FirstOrCreate(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}
