package models

import (
	"encoding/json"
	"errors"
	"strings"
)

type UserRole string

const (
	UserRoleAdmin     UserRole = "ADMIN"
	UserRoleShiftLead UserRole = "SHIFT_LEAD"
	UserRoleCashier   UserRole = "CASHIER"
)

var userRoles = map[string]UserRole{
	"ADMIN":      UserRoleAdmin,
	"SHIFT_LEAD": UserRoleShiftLead,
	"CASHIER":    UserRoleCashier,
}

// legacy role names still sent by older clients
var userRoleAliases = map[string]UserRole{
	"JEFE_LOCAL": UserRoleShiftLead,
	"VENDEDOR":   UserRoleCashier,
}

func (r UserRole) IsValid() bool {
	_, ok := userRoles[string(r)]
	return ok
}

func (r *UserRole) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("user role must be string")
	}
	name := strings.ToUpper(strings.TrimSpace(str))
	role, ok := userRoles[name]
	if !ok {
		role, ok = userRoleAliases[name]
	}
	if !ok {
		return errors.New("invalid user role")
	}
	*r = role
	return nil
}

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodQR       PaymentMethod = "QR"
	PaymentMethodOther    PaymentMethod = "OTHER"
)

var paymentMethods = map[string]PaymentMethod{
	"CASH":     PaymentMethodCash,
	"CARD":     PaymentMethodCard,
	"TRANSFER": PaymentMethodTransfer,
	"QR":       PaymentMethodQR,
	"OTHER":    PaymentMethodOther,
}

func (m PaymentMethod) IsValid() bool {
	_, ok := paymentMethods[string(m)]
	return ok
}

func (m *PaymentMethod) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("payment method must be string")
	}
	method, ok := paymentMethods[strings.ToUpper(strings.TrimSpace(str))]
	if !ok {
		return errors.New("invalid payment method")
	}
	*m = method
	return nil
}

type OrderChannel string

const (
	OrderChannelSalon    OrderChannel = "SALON"
	OrderChannelTakeaway OrderChannel = "TAKEAWAY"
	OrderChannelDelivery OrderChannel = "DELIVERY"
)

type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "OPEN"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type EventType string

const (
	EventTypeOrderCreated    EventType = "order.created"
	EventTypePaymentRecorded EventType = "payment.recorded"
	EventTypeStockAdjusted   EventType = "stock.adjusted"
)

const (
	OutboxStatusPending    = "PENDING"
	OutboxStatusProcessing = "PROCESSING"
	OutboxStatusSent       = "SENT"
	OutboxStatusFailed     = "FAILED"
	OutboxStatusDead       = "DEAD"
)
