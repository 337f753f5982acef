package availability

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-backend/pkg/db/models"
)

// Requirement is one recipe component of a product joined to its stock level.
type Requirement struct {
	ProductID     uuid.UUID
	IngredientID  uuid.UUID
	RequiredGrams decimal.Decimal
	StockGrams    decimal.Decimal
}

// Repository reads the product, recipe and stock rows availability depends on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ProductExists(ctx context.Context, productID uuid.UUID) (bool, error)
	ProductIDs(ctx context.Context, activeOnly bool) ([]uuid.UUID, error)
	Requirements(ctx context.Context, productIDs []uuid.UUID) ([]Requirement, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an availability repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ProductExists(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ProductIDs(ctx context.Context, activeOnly bool) ([]uuid.UUID, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var ids []uuid.UUID
	err := q.Order("name ASC").Pluck("id", &ids).Error
	return ids, err
}

// Requirements returns every component of the given products in a single
// query. Ingredients without a stock row report zero grams.
func (r *repository) Requirements(ctx context.Context, productIDs []uuid.UUID) ([]Requirement, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var rows []Requirement
	err := r.db.WithContext(ctx).
		Table("products AS p").
		Select(`p.id AS product_id, ri.ingredient_id AS ingredient_id,
			ri.quantity_grams AS required_grams, COALESCE(s.quantity_grams, 0) AS stock_grams`).
		Joins("JOIN recipe_ingredients AS ri ON ri.recipe_id = p.recipe_id").
		Joins("LEFT JOIN stocks AS s ON s.ingredient_id = ri.ingredient_id").
		Where("p.id IN ?", productIDs).
		Scan(&rows).Error
	return rows, err
}
