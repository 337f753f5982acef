package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-backend/internal/stock"
	"github.com/angelmondragon/pos-backend/pkg/db/models"
	"github.com/angelmondragon/pos-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an order repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActiveProducts(ctx context.Context, productIDs []uuid.UUID) ([]models.Product, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Where("is_active = ?", true).
		Find(&products).Error
	return products, err
}

// CreateOrder inserts the order and its items in one statement batch.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ClaimPending moves a pending order to confirmed. It reports false when the
// order was not pending, which is how concurrent confirmations lose the race.
func (r *repository) ClaimPending(ctx context.Context, orderID uuid.UUID, method enums.PaymentMethod, confirmedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusPending).
		Updates(map[string]any{
			"status":         enums.OrderStatusConfirmed,
			"payment_method": method,
			"confirmed_at":   confirmedAt,
			"updated_at":     confirmedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

type deductionRow struct {
	IngredientID uuid.UUID
	Grams        decimal.Decimal
}

// IngredientDeductions sums recipe grams times item quantity per ingredient
// across the whole order.
func (r *repository) IngredientDeductions(ctx context.Context, orderID uuid.UUID) ([]stock.Deduction, error) {
	var rows []deductionRow
	err := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select("ri.ingredient_id AS ingredient_id, SUM(ri.quantity_grams * oi.quantity) AS grams").
		Joins("JOIN products AS p ON p.id = oi.product_id").
		Joins("JOIN recipe_ingredients AS ri ON ri.recipe_id = p.recipe_id").
		Where("oi.order_id = ?", orderID).
		Group("ri.ingredient_id").
		Order("ri.ingredient_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]stock.Deduction, 0, len(rows))
	for _, row := range rows {
		out = append(out, stock.Deduction{IngredientID: row.IngredientID, Grams: row.Grams})
	}
	return out, nil
}

func (r *repository) ListOrders(ctx context.Context, filters ListFilters) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if filters.UserID != nil {
		q = q.Where("user_id = ?", *filters.UserID)
	}
	if filters.Status != nil {
		q = q.Where("status = ?", *filters.Status)
	}
	var orders []models.Order
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("line_no ASC")
	}).
		Order("created_at DESC").
		Order("id DESC").
		Limit(filters.Limit).
		Find(&orders).Error
	return orders, err
}
