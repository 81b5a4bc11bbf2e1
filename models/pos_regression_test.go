package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/models"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
)

func setupIntegration(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })
	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "pos_test")
	t.Setenv("STORAGE_PROVIDER", "db")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx := context.Background()
	admin, _, err := models.EnsureAdmin(ctx, "admin@pos.local", "Admin123", "Administrator")
	if err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if err := models.SeedProductTypes(ctx, "Comida", "Bebidas", "Alcohol"); err != nil {
		t.Fatalf("SeedProductTypes: %v", err)
	}
	ctx = utils.SetUserIdInContext(ctx, admin.ID)
	ctx = utils.SetUserRoleInContext(ctx, string(admin.Role))
	return ctx
}

func createStockProduct(t *testing.T, ctx context.Context, name string, qty int64) *models.Product {
	t.Helper()
	quantity := decimal.NewFromInt(qty)
	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:        name,
		Price:       decimal.NewFromInt(2500),
		Category:    "Comida",
		Quantity:    &quantity,
		IsStockItem: utils.NewTrue(),
	}, nil)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if len(product.Variants) != 1 || product.Variants[0].Name != models.DefaultVariantName {
		t.Fatalf("expected one default variant, got %+v", product.Variants)
	}
	return product
}

func variantQuantity(t *testing.T, ctx context.Context, id int) decimal.Decimal {
	t.Helper()
	variant, err := utils.FetchModel[models.ProductVariant](ctx, id)
	if err != nil {
		t.Fatalf("fetch variant: %v", err)
	}
	return variant.Quantity
}

// Two concurrent sales of the last unit: exactly one wins and stock never goes negative.
func TestConcurrentOrdersNeverOversell(t *testing.T) {
	ctx := setupIntegration(t)
	product := createStockProduct(t, ctx, "Empanada", 1)
	variantId := product.Variants[0].ID

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = models.CreateOrder(ctx, &models.NewOrder{Items: []models.NewOrderItem{
				{ProductVariantId: variantId, Qty: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(2500)},
			}})
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, utils.ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("expected one success and one rejection, got %d/%d", succeeded, rejected)
	}
	if q := variantQuantity(t, ctx, variantId); !q.IsZero() {
		t.Fatalf("expected stock 0, got %s", q)
	}
}

// A rejected order leaves no order row and no stock change behind.
func TestRejectedOrderRollsBack(t *testing.T) {
	ctx := setupIntegration(t)
	tracked := createStockProduct(t, ctx, "Pisco Sour", 5)
	scarce := createStockProduct(t, ctx, "Completo", 1)

	_, err := models.CreateOrder(ctx, &models.NewOrder{Items: []models.NewOrderItem{
		{ProductVariantId: tracked.Variants[0].ID, Qty: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(4500)},
		{ProductVariantId: scarce.Variants[0].ID, Qty: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(3000)},
	}})
	if !errors.Is(err, utils.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	want := "insufficient stock for Completo (Único). available: 1"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}

	if q := variantQuantity(t, ctx, tracked.Variants[0].ID); !q.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("tracked stock changed to %s", q)
	}
	var orders int64
	if err := config.GetDB().Model(&models.Order{}).Count(&orders).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orders != 0 {
		t.Fatalf("expected no orders, got %d", orders)
	}
}

// Products referenced by sales are soft deleted instead of removed.
func TestDeleteSoldProductFallsBackToSoftDelete(t *testing.T) {
	ctx := setupIntegration(t)
	product := createStockProduct(t, ctx, "Chorrillana", 10)

	order, err := models.CreateOrder(ctx, &models.NewOrder{Items: []models.NewOrderItem{
		{ProductVariantId: product.Variants[0].ID, Qty: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(9000)},
	}})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if !order.Total.Equal(decimal.NewFromInt(18000)) {
		t.Fatalf("total = %s", order.Total)
	}

	deleted, softDeleted, err := models.DeleteProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if !softDeleted {
		t.Fatalf("expected soft delete")
	}
	if deleted.IsSellable == nil || *deleted.IsSellable {
		t.Fatalf("expected isSellable=false")
	}
	for _, v := range deleted.Variants {
		if v.IsActive() {
			t.Fatalf("variant %d still active", v.ID)
		}
	}

	payment, err := models.CreatePayment(ctx, order.ID, &models.NewPayment{Method: models.PaymentMethodCash, Amount: decimal.NewFromInt(18000)})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	loaded, err := models.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if !loaded.Balance.IsZero() || len(loaded.Payments) != 1 || loaded.Payments[0].ID != payment.ID {
		t.Fatalf("unexpected order after payment: %+v", loaded)
	}
}
