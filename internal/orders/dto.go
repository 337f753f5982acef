package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-backend/pkg/db/models"
	"github.com/angelmondragon/pos-backend/pkg/enums"
)

// MaxListLimit caps how many orders List returns.
const MaxListLimit = 100

// CreateItemInput is one requested order line.
type CreateItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderInput carries the lines of a new order and the cashier placing it.
type CreateOrderInput struct {
	Items       []CreateItemInput
	ActorUserID uuid.UUID
}

// ConfirmOrderInput settles a pending order with a payment method.
type ConfirmOrderInput struct {
	OrderID       uuid.UUID
	PaymentMethod enums.PaymentMethod
	ActorUserID   uuid.UUID
}

// ListOrdersInput scopes the order listing to the caller.
type ListOrdersInput struct {
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
	Status      *enums.OrderStatus
	Limit       int
}

// ListFilters are the repository-level filters for ListOrders.
type ListFilters struct {
	UserID *uuid.UUID
	Status *enums.OrderStatus
	Limit  int
}

// Order is the API view of an order with its items.
type Order struct {
	ID            uuid.UUID            `json:"id"`
	UserID        uuid.UUID            `json:"userId"`
	Status        enums.OrderStatus    `json:"status"`
	TotalAmount   decimal.Decimal      `json:"totalAmount"`
	PaymentMethod *enums.PaymentMethod `json:"paymentMethod,omitempty"`
	ConfirmedAt   *time.Time           `json:"confirmedAt,omitempty"`
	Items         []OrderItem          `json:"items"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// OrderItem is one order line with the name and price captured at creation.
type OrderItem struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

func orderFromModel(m *models.Order) *Order {
	out := &Order{
		ID:            m.ID,
		UserID:        m.UserID,
		Status:        m.Status,
		TotalAmount:   m.TotalAmount,
		PaymentMethod: m.PaymentMethod,
		ConfirmedAt:   m.ConfirmedAt,
		Items:         make([]OrderItem, 0, len(m.Items)),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	for _, item := range m.Items {
		out.Items = append(out.Items, OrderItem{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return out
}
