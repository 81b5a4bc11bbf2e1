package models

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteProductCategoryInUse(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `product_categories` WHERE `product_categories`.`id` = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(8, "Bebidas"))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `products` WHERE category_id = \\?").
		WithArgs(8).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	_, err := DeleteProductCategory(context.Background(), 8)
	require.Error(t, err)
	assert.True(t, utils.IsValidationError(err))
	assert.Equal(t, "used by product", err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProductRejectsUnknownCategory(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `product_types` WHERE name = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectRollback()

	_, err := CreateProduct(context.Background(), &NewProduct{Name: "Flan", Price: dec("1500"), Category: " Postres "}, nil)
	require.Error(t, err)
	assert.True(t, utils.IsValidationError(err))
	assert.Equal(t, "invalid category: must match an existing product type", err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProductInvalidatesReportCache(t *testing.T) {
	mock := newMockDB(t)
	mock.MatchExpectationsInOrder(false)
	mr := newMockRedis(t)
	require.NoError(t, mr.Set(ReportCachePrefix+"top-products", "[]"))
	require.NoError(t, mr.Set("User:1", "{}"))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `product_types` WHERE name = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "Bebidas"))
	mock.ExpectQuery("SELECT \\* FROM `product_categories` WHERE `product_categories`.`name` = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(8, "Bebidas"))
	mock.ExpectExec("INSERT INTO `products`").
		WillReturnResult(sqlmock.NewResult(15, 1))
	mock.ExpectExec("INSERT INTO `product_variants`").
		WillReturnResult(sqlmock.NewResult(30, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT \\* FROM `products` WHERE `products`.`id` = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "category_id", "type_id", "is_sellable", "is_stock_item"}).
			AddRow(15, "Jugo", 8, 3, true, false))
	mock.ExpectQuery("SELECT \\* FROM `product_categories` WHERE `product_categories`.`id` = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(8, "Bebidas"))
	mock.ExpectQuery("SELECT \\* FROM `product_types` WHERE `product_types`.`id` = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "Bebidas"))
	mock.ExpectQuery("SELECT \\* FROM `product_variants` WHERE `product_variants`.`product_id` = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "name", "price", "quantity", "active"}).
			AddRow(30, 15, DefaultVariantName, "1200", "0", true))

	product, err := CreateProduct(context.Background(), &NewProduct{Name: "Jugo", Price: dec("1200"), Category: "Bebidas"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 15, product.ID)
	require.Len(t, product.Variants, 1)
	assert.Equal(t, DefaultVariantName, product.Variants[0].Name)
	assert.False(t, mr.Exists(ReportCachePrefix+"top-products"))
	assert.True(t, mr.Exists("User:1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
