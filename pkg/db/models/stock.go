package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Stock holds the current on-hand quantity for exactly one ingredient.
type Stock struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	IngredientID  uuid.UUID       `gorm:"column:ingredient_id;type:uuid;not null;uniqueIndex:stocks_ingredient_id_key"`
	QuantityGrams decimal.Decimal `gorm:"column:quantity_grams;type:numeric(14,3);not null;default:0"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Stock) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
