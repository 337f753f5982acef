package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-backend/internal/stock"
	"github.com/angelmondragon/pos-backend/pkg/audit"
	"github.com/angelmondragon/pos-backend/pkg/db/models"
	"github.com/angelmondragon/pos-backend/pkg/enums"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveProducts(ctx context.Context, productIDs []uuid.UUID) ([]models.Product, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ClaimPending(ctx context.Context, orderID uuid.UUID, method enums.PaymentMethod, confirmedAt time.Time) (bool, error)
	IngredientDeductions(ctx context.Context, orderID uuid.UUID) ([]stock.Deduction, error)
	ListOrders(ctx context.Context, filters ListFilters) ([]models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AvailabilityChecker answers whether a product can currently be made.
type AvailabilityChecker interface {
	CanFulfill(ctx context.Context, productID uuid.UUID, quantity int64) (bool, error)
}

// StockDeductor consumes recipe ingredients for a confirmed order.
type StockDeductor interface {
	DeductForSale(ctx context.Context, tx *gorm.DB, input stock.SaleInput) ([]models.StockMovement, error)
	SaleCommitted(ctx context.Context, input stock.SaleInput, movements []models.StockMovement)
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

type orderMetrics interface {
	IncOrderCreated()
	IncOrderConfirmed(paymentMethod string)
	IncConfirmFailure(reason string)
}
