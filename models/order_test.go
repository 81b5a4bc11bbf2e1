package models

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	prev := config.GetDB()
	config.SetDB(gdb)
	t.Cleanup(func() {
		config.SetDB(prev)
		_ = sqlDB.Close()
	})
	return mock
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestCalculateOrderTotals(t *testing.T) {
	totals, err := CalculateOrderTotals(&NewOrder{
		Items: []NewOrderItem{
			{ProductVariantId: 1, Qty: dec("2"), UnitPrice: dec("2500")},
			{ProductVariantId: 2, Qty: dec("1"), UnitPrice: dec("1990.50")},
		},
		Tip:      decPtr("700"),
		Discount: decPtr("190.50"),
	})
	require.NoError(t, err)
	assert.True(t, totals.Subtotal.Equal(dec("6990.50")), totals.Subtotal.String())
	assert.True(t, totals.Total.Equal(dec("7500")), totals.Total.String())
	assert.True(t, totals.Tax.IsZero())
}

func TestCalculateOrderTotalsRejectsBadInput(t *testing.T) {
	item := NewOrderItem{ProductVariantId: 1, Qty: dec("1"), UnitPrice: dec("1000")}
	tests := []struct {
		name  string
		input NewOrder
		want  string
	}{
		{"no items", NewOrder{}, "items must not be empty"},
		{"missing variant", NewOrder{Items: []NewOrderItem{{Qty: dec("1"), UnitPrice: dec("1")}}}, "items[0]: productVariantId is required"},
		{"zero qty", NewOrder{Items: []NewOrderItem{{ProductVariantId: 1, Qty: dec("0"), UnitPrice: dec("1")}}}, "items[0]: qty must be >= 1"},
		{"negative price", NewOrder{Items: []NewOrderItem{{ProductVariantId: 1, Qty: dec("1"), UnitPrice: dec("-1")}}}, "items[0]: unitPrice must be >= 0"},
		{"negative tip", NewOrder{Items: []NewOrderItem{item}, Tip: decPtr("-1")}, "tip must be >= 0"},
		{"negative discount", NewOrder{Items: []NewOrderItem{item}, Discount: decPtr("-5")}, "discount must be >= 0"},
		{"negative total", NewOrder{Items: []NewOrderItem{item}, Discount: decPtr("1000.01")}, "total must be >= 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateOrderTotals(&tt.input)
			require.Error(t, err)
			assert.True(t, utils.IsValidationError(err))
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestRequestedQuantitiesAggregatesPerVariant(t *testing.T) {
	requested, ids := requestedQuantities([]NewOrderItem{
		{ProductVariantId: 9, Qty: dec("1")},
		{ProductVariantId: 3, Qty: dec("2")},
		{ProductVariantId: 9, Qty: dec("4")},
	})
	assert.Equal(t, []int{3, 9}, ids)
	assert.True(t, requested[9].Equal(dec("5")))
	assert.True(t, requested[3].Equal(dec("2")))
}

func TestInsufficientStockError(t *testing.T) {
	err := error(&InsufficientStockError{ProductName: "Empanada", VariantName: "Pino", Available: dec("1")})
	assert.Equal(t, "insufficient stock for Empanada (Pino). available: 1", err.Error())
	assert.True(t, errors.Is(err, utils.ErrInsufficientStock))
}

func TestCreateOrderRequiresUser(t *testing.T) {
	_, err := CreateOrder(context.Background(), &NewOrder{})
	assert.ErrorIs(t, err, utils.ErrUnauthorized)
}

func TestCreateOrderRollsBackOnInsufficientStock(t *testing.T) {
	mock := newMockDB(t)
	ctx := utils.SetUserIdInContext(context.Background(), 4)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `product_variants` WHERE id IN \\(\\?,\\?\\) ORDER BY id FOR UPDATE").
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "name", "price", "quantity", "active"}).
			AddRow(1, 10, "Pino", "2500", "5", true).
			AddRow(2, 11, "", "1500", "1", true))
	mock.ExpectQuery("SELECT \\* FROM `products` WHERE id IN \\(\\?,\\?\\)").
		WithArgs(10, 11).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "is_sellable", "is_stock_item"}).
			AddRow(10, "Empanada", true, true).
			AddRow(11, "Coca-Cola", true, true))
	mock.ExpectRollback()

	_, err := CreateOrder(ctx, &NewOrder{Items: []NewOrderItem{
		{ProductVariantId: 1, Qty: dec("2"), UnitPrice: dec("2500")},
		{ProductVariantId: 2, Qty: dec("1"), UnitPrice: dec("1500")},
		{ProductVariantId: 2, Qty: dec("1"), UnitPrice: dec("1500")},
	}})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "insufficient stock for Coca-Cola (). available: 1", err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderRejectsUnknownVariant(t *testing.T) {
	mock := newMockDB(t)
	ctx := utils.SetUserIdInContext(context.Background(), 4)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `product_variants`").
		WithArgs(1, 99).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "name", "price", "quantity", "active"}).
			AddRow(1, 10, "Pino", "2500", "5", true))
	mock.ExpectRollback()

	_, err := CreateOrder(ctx, &NewOrder{Items: []NewOrderItem{
		{ProductVariantId: 99, Qty: dec("1"), UnitPrice: dec("1")},
		{ProductVariantId: 1, Qty: dec("1"), UnitPrice: dec("1")},
	}})
	require.Error(t, err)
	assert.True(t, utils.IsValidationError(err))
	assert.Equal(t, "product variant 99 not found", err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderRejectsInactiveVariant(t *testing.T) {
	mock := newMockDB(t)
	ctx := utils.SetUserIdInContext(context.Background(), 4)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `product_variants`").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "name", "price", "quantity", "active"}).
			AddRow(1, 10, "Pino", "2500", "5", false))
	mock.ExpectQuery("SELECT \\* FROM `products`").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "is_stock_item"}).AddRow(10, "Empanada", false))
	mock.ExpectRollback()

	_, err := CreateOrder(ctx, &NewOrder{Items: []NewOrderItem{{ProductVariantId: 1, Qty: dec("1"), UnitPrice: dec("1")}}})
	require.Error(t, err)
	assert.Equal(t, "product variant 1 is inactive", err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderBalance(t *testing.T) {
	order := Order{Total: dec("10000"), Payments: []Payment{{Amount: dec("6000")}, {Amount: dec("1500")}}}
	order.computeBalance()
	assert.True(t, order.Paid.Equal(dec("7500")))
	assert.True(t, order.Balance.Equal(dec("2500")))
}

func TestCreateOrderDecrementsOnlyStockItems(t *testing.T) {
	mock := newMockDB(t)
	mr := newMockRedis(t)
	require.NoError(t, mr.Set(ReportCachePrefix+"financial-summary", "{}"))
	ctx := utils.SetUserIdInContext(context.Background(), 4)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `product_variants` WHERE id IN \\(\\?,\\?\\) ORDER BY id FOR UPDATE").
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "name", "price", "quantity", "active"}).
			AddRow(1, 10, "Pino", "2500", "5", true).
			AddRow(2, 11, "", "3000", "0", true))
	mock.ExpectQuery("SELECT \\* FROM `products` WHERE id IN \\(\\?,\\?\\)").
		WithArgs(10, 11).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "is_sellable", "is_stock_item"}).
			AddRow(10, "Empanada", true, true).
			AddRow(11, "Completo", true, false))
	mock.ExpectExec("INSERT INTO `orders`").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("INSERT INTO `order_items`").
		WillReturnResult(sqlmock.NewResult(100, 2))
	mock.ExpectExec("UPDATE `product_variants` SET `quantity`=quantity - \\? WHERE id = \\?").
		WithArgs("3", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `outbox_messages`").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	order, err := CreateOrder(ctx, &NewOrder{
		Items: []NewOrderItem{
			{ProductVariantId: 1, Qty: dec("3"), UnitPrice: dec("2500")},
			{ProductVariantId: 2, Qty: dec("1"), UnitPrice: dec("3000")},
		},
		Tip: decPtr("500"),
	})
	require.NoError(t, err)
	assert.Equal(t, 42, order.ID)
	assert.Equal(t, 4, order.UserId)
	assert.Equal(t, OrderStatusDelivered, order.Status)
	assert.True(t, order.Total.Equal(dec("11000")), order.Total.String())
	assert.True(t, order.Balance.Equal(dec("11000")))
	require.Len(t, order.Items, 2)
	assert.Equal(t, 42, order.Items[0].OrderId)
	assert.False(t, mr.Exists(ReportCachePrefix+"financial-summary"))
	require.NoError(t, mock.ExpectationsWereMet())
}
