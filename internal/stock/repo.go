package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-backend/pkg/db/models"
	"github.com/angelmondragon/pos-backend/pkg/pagination"
)

// Repository defines persistence operations for stocks and the movement ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByIngredient(ctx context.Context, ingredientID uuid.UUID) (*models.Stock, error)
	IngredientName(ctx context.Context, ingredientID uuid.UUID) (string, error)
	ApplyDelta(ctx context.Context, ingredientID uuid.UUID, delta decimal.Decimal) (bool, error)
	Deduct(ctx context.Context, ingredientID uuid.UUID, grams decimal.Decimal) (bool, error)
	InsertMovements(ctx context.Context, movements []models.StockMovement) error
	ListLevels(ctx context.Context) ([]Level, error)
	ListBelow(ctx context.Context, threshold decimal.Decimal) ([]Level, error)
	ListMovements(ctx context.Context, ingredientID *uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.StockMovement, error)
	LedgerSnapshot(ctx context.Context, ingredientID uuid.UUID) (*LedgerSnapshot, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a stock repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByIngredient(ctx context.Context, ingredientID uuid.UUID) (*models.Stock, error) {
	var stock models.Stock
	if err := r.db.WithContext(ctx).Where("ingredient_id = ?", ingredientID).First(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *repository) IngredientName(ctx context.Context, ingredientID uuid.UUID) (string, error) {
	var ingredient models.Ingredient
	if err := r.db.WithContext(ctx).Select("id", "name").Where("id = ?", ingredientID).First(&ingredient).Error; err != nil {
		return "", err
	}
	return ingredient.Name, nil
}

// ApplyDelta adds a signed delta unless the balance would drop below zero.
// It reports false when no row was updated.
func (r *repository) ApplyDelta(ctx context.Context, ingredientID uuid.UUID, delta decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stocks
		SET quantity_grams = quantity_grams + ?,
			updated_at = ?
		WHERE ingredient_id = ? AND quantity_grams + ? >= 0
	`, delta, time.Now().UTC(), ingredientID, delta)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Deduct subtracts grams when at least that much is on hand. In Postgres the
// UPDATE holds the row lock until the surrounding transaction ends.
func (r *repository) Deduct(ctx context.Context, ingredientID uuid.UUID, grams decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stocks
		SET quantity_grams = quantity_grams - ?,
			updated_at = ?
		WHERE ingredient_id = ? AND quantity_grams >= ?
	`, grams, time.Now().UTC(), ingredientID, grams)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// InsertMovements writes the rows in place; generated ids and timestamps are
// visible through the caller's slice.
func (r *repository) InsertMovements(ctx context.Context, movements []models.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&movements).Error
}

func (r *repository) levelsQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("stocks AS s").
		Select(`i.id AS ingredient_id, i.name AS ingredient_name, i.unit AS unit,
			s.id AS stock_id, s.quantity_grams AS quantity_grams, s.updated_at AS updated_at`).
		Joins("JOIN ingredients AS i ON i.id = s.ingredient_id")
}

func (r *repository) ListLevels(ctx context.Context) ([]Level, error) {
	var levels []Level
	err := r.levelsQuery(ctx).
		Order("i.name ASC").
		Scan(&levels).Error
	return levels, err
}

func (r *repository) ListBelow(ctx context.Context, threshold decimal.Decimal) ([]Level, error) {
	var levels []Level
	err := r.levelsQuery(ctx).
		Where("s.quantity_grams < ?", threshold).
		Order("s.quantity_grams ASC").
		Order("i.name ASC").
		Scan(&levels).Error
	return levels, err
}

func (r *repository) ListMovements(ctx context.Context, ingredientID *uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.StockMovement, error) {
	q := r.db.WithContext(ctx).Model(&models.StockMovement{})
	if ingredientID != nil {
		q = q.Where("ingredient_id = ?", *ingredientID)
	}
	if cursor != nil {
		q = q.Where("((created_at < ?) OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.StockMovement
	err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// LedgerSnapshot is a stock balance and its movement totals read together.
type LedgerSnapshot struct {
	QuantityGrams decimal.Decimal
	LedgerSum     decimal.Decimal
	MovementCount int64
}

// LedgerSnapshot reads the balance and the movement sum in one statement so a
// concurrent movement lands in both or neither. No stock row yields
// gorm.ErrRecordNotFound.
func (r *repository) LedgerSnapshot(ctx context.Context, ingredientID uuid.UUID) (*LedgerSnapshot, error) {
	var rows []LedgerSnapshot
	err := r.db.WithContext(ctx).
		Table("stocks AS s").
		Select("s.quantity_grams AS quantity_grams, COALESCE(SUM(m.quantity_grams), 0) AS ledger_sum, COUNT(m.id) AS movement_count").
		Joins("LEFT JOIN stock_movements AS m ON m.stock_id = s.id").
		Where("s.ingredient_id = ?", ingredientID).
		Group("s.id, s.quantity_grams").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}
