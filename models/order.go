package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/metrics"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var tracer = otel.Tracer("pos_backend/models")

type Order struct {
	ID        int             `gorm:"primary_key" json:"id"`
	Channel   OrderChannel    `gorm:"type:enum('SALON','TAKEAWAY','DELIVERY');not null;default:SALON" json:"channel"`
	Status    OrderStatus     `gorm:"type:enum('OPEN','DELIVERED','CANCELLED');not null;default:OPEN" json:"status"`
	UserId    int             `gorm:"index;not null" json:"userId"`
	User      *User           `gorm:"foreignKey:UserId" json:"user,omitempty"`
	OpenedAt  time.Time       `gorm:"index;not null" json:"openedAt"`
	ClosedAt  *time.Time      `json:"closedAt"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"subtotal"`
	Tax       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"tax"`
	Tip       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"tip"`
	Discount  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"discount"`
	Total     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total"`
	Items     []OrderItem     `gorm:"foreignKey:OrderId" json:"items"`
	Payments  []Payment       `gorm:"foreignKey:OrderId" json:"payments"`
	Paid      decimal.Decimal `gorm:"-" json:"paid"`
	Balance   decimal.Decimal `gorm:"-" json:"balance"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

type OrderItem struct {
	ID               int             `gorm:"primary_key" json:"id"`
	OrderId          int             `gorm:"index;not null" json:"orderId"`
	ProductVariantId int             `gorm:"index;not null" json:"productVariantId"`
	ProductVariant   *ProductVariant `gorm:"foreignKey:ProductVariantId" json:"productVariant,omitempty"`
	Description      string          `gorm:"size:255" json:"description"`
	Qty              decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unitPrice"`
	Total            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"createdAt"`
}

type NewOrderItem struct {
	ProductVariantId int             `json:"productVariantId"`
	Description      string          `json:"description"`
	Qty              decimal.Decimal `json:"qty"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
}

type NewOrder struct {
	Items    []NewOrderItem   `json:"items"`
	Tip      *decimal.Decimal `json:"tip"`
	Discount *decimal.Decimal `json:"discount"`
}

// OrderTotals are the amounts derived from an order request.
type OrderTotals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Tip      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// InsufficientStockError rejects an order that would take a stock-tracked variant below zero.
type InsufficientStockError struct {
	ProductName string
	VariantName string
	Available   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (%s). available: %s", e.ProductName, e.VariantName, e.Available.String())
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == utils.ErrInsufficientStock
}

type orderCreatedPayload struct {
	OrderId int             `json:"orderId"`
	UserId  int             `json:"userId"`
	Total   decimal.Decimal `json:"total"`
	Items   []OrderItem     `json:"items"`
}

// CalculateOrderTotals validates the request amounts and computes
// subtotal = Σ unitPrice·qty and total = subtotal + tip - discount. Tax is always zero.
func CalculateOrderTotals(input *NewOrder) (*OrderTotals, error) {
	if len(input.Items) == 0 {
		return nil, utils.NewValidationError("items must not be empty")
	}

	subtotal := decimal.Zero
	for i, item := range input.Items {
		if item.ProductVariantId <= 0 {
			return nil, utils.NewValidationError("items[%d]: productVariantId is required", i)
		}
		if item.Qty.LessThan(decimal.NewFromInt(1)) {
			return nil, utils.NewValidationError("items[%d]: qty must be >= 1", i)
		}
		if item.UnitPrice.IsNegative() {
			return nil, utils.NewValidationError("items[%d]: unitPrice must be >= 0", i)
		}
		subtotal = subtotal.Add(item.UnitPrice.Mul(item.Qty))
	}

	tip := utils.DereferencePtr(input.Tip, decimal.Zero)
	discount := utils.DereferencePtr(input.Discount, decimal.Zero)
	if tip.IsNegative() {
		return nil, utils.NewValidationError("tip must be >= 0")
	}
	if discount.IsNegative() {
		return nil, utils.NewValidationError("discount must be >= 0")
	}

	total := subtotal.Add(tip).Sub(discount)
	if total.IsNegative() {
		return nil, utils.NewValidationError("total must be >= 0")
	}

	return &OrderTotals{
		Subtotal: subtotal,
		Tax:      decimal.Zero,
		Tip:      tip,
		Discount: discount,
		Total:    total,
	}, nil
}

// requestedQuantities sums qty per variant; ids are returned ascending.
func requestedQuantities(items []NewOrderItem) (map[int]decimal.Decimal, []int) {
	requested := make(map[int]decimal.Decimal)
	for _, item := range items {
		requested[item.ProductVariantId] = requested[item.ProductVariantId].Add(item.Qty)
	}
	ids := make([]int, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return requested, ids
}

// CreateOrder records a sale: order, items and stock decrements in a single transaction.
// Variant rows are locked in ascending id order so concurrent sales of the same
// variants serialize; a stock-tracked variant that would go negative rejects the whole order.
func CreateOrder(ctx context.Context, input *NewOrder) (order *Order, err error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId <= 0 {
		return nil, utils.ErrUnauthorized
	}

	ctx, span := tracer.Start(ctx, "models.CreateOrder")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.Int("order.items", len(input.Items)), attribute.Int("user.id", userId))

	totals, err := CalculateOrderTotals(input)
	if err != nil {
		return nil, err
	}
	requested, variantIds := requestedQuantities(input.Items)

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var variants []ProductVariant
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", variantIds).
			Order("id").
			Find(&variants).Error; err != nil {
			return err
		}
		if len(variants) != len(variantIds) {
			found := make(map[int]bool, len(variants))
			for _, v := range variants {
				found[v.ID] = true
			}
			for _, id := range variantIds {
				if !found[id] {
					return utils.NewValidationError("product variant %d not found", id)
				}
			}
		}

		productIds := make([]int, 0, len(variants))
		for _, v := range variants {
			productIds = append(productIds, v.ProductId)
		}
		var products []Product
		if err := tx.Where("id IN ?", utils.UniqueSlice(productIds)).Find(&products).Error; err != nil {
			return err
		}
		productById := make(map[int]Product, len(products))
		for _, p := range products {
			productById[p.ID] = p
		}

		var decrements []ProductVariant
		for _, v := range variants {
			if !v.IsActive() {
				return utils.NewValidationError("product variant %d is inactive", v.ID)
			}
			product := productById[v.ProductId]
			if product.IsStockItem == nil || !*product.IsStockItem {
				continue
			}
			if v.Quantity.Sub(requested[v.ID]).IsNegative() {
				return &InsufficientStockError{
					ProductName: product.Name,
					VariantName: v.Name,
					Available:   v.Quantity,
				}
			}
			decrements = append(decrements, v)
		}

		now := time.Now().UTC()
		order = &Order{
			Channel:  OrderChannelSalon,
			Status:   OrderStatusDelivered,
			UserId:   userId,
			OpenedAt: now,
			ClosedAt: &now,
			Subtotal: totals.Subtotal,
			Tax:      totals.Tax,
			Tip:      totals.Tip,
			Discount: totals.Discount,
			Total:    totals.Total,
		}
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}

		items := make([]OrderItem, 0, len(input.Items))
		for _, item := range input.Items {
			items = append(items, OrderItem{
				OrderId:          order.ID,
				ProductVariantId: item.ProductVariantId,
				Description:      strings.TrimSpace(item.Description),
				Qty:              item.Qty,
				UnitPrice:        item.UnitPrice,
				Total:            item.UnitPrice.Mul(item.Qty),
			})
		}
		if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
			return err
		}
		order.Items = items

		for _, v := range decrements {
			if err := tx.Model(&ProductVariant{}).
				Where("id = ?", v.ID).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", requested[v.ID])).Error; err != nil {
				return err
			}
		}

		return createOutboxMessage(ctx, tx, EventTypeOrderCreated, order.ID, orderCreatedPayload{
			OrderId: order.ID,
			UserId:  userId,
			Total:   order.Total,
			Items:   items,
		})
	})
	if err != nil {
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) {
			metrics.StockRejected()
		}
		return nil, err
	}

	metrics.OrderCreated()
	order.Payments = []Payment{}
	order.computeBalance()
	span.SetAttributes(attribute.Int("order.id", order.ID))
	InvalidateReportCache()
	return order, nil
}

func (o *Order) computeBalance() {
	paid := decimal.Zero
	for _, p := range o.Payments {
		paid = paid.Add(p.Amount)
	}
	o.Paid = paid
	o.Balance = o.Total.Sub(paid)
}

func preloadOrderDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

func GetOrder(ctx context.Context, id int) (*Order, error) {
	db := config.GetDB()
	var order Order
	if err := preloadOrderDetails(db.WithContext(ctx)).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	order.computeBalance()
	return &order, nil
}

// ListOrders returns orders opened in [from, to), newest first.
func ListOrders(ctx context.Context, from *time.Time, to *time.Time) ([]*Order, error) {
	db := config.GetDB()
	query := preloadOrderDetails(db.WithContext(ctx))
	if from != nil {
		query = query.Where("opened_at >= ?", from.UTC())
	}
	if to != nil {
		query = query.Where("opened_at < ?", to.UTC())
	}

	var orders []*Order
	if err := query.Order("opened_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	for _, o := range orders {
		o.computeBalance()
	}
	return orders, nil
}
