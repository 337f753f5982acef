package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-backend/pkg/enums"
)

// StockMovement is an immutable signed ledger entry against a Stock row.
type StockMovement struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	StockID       uuid.UUID               `gorm:"column:stock_id;type:uuid;not null;index"`
	IngredientID  uuid.UUID               `gorm:"column:ingredient_id;type:uuid;not null;index"`
	Type          enums.StockMovementType `gorm:"column:type;type:text;not null"`
	QuantityGrams decimal.Decimal         `gorm:"column:quantity_grams;type:numeric(14,3);not null"`
	Note          *string                 `gorm:"column:note"`
	Reference     *string                 `gorm:"column:reference;index"`
	ActorUserID   *uuid.UUID              `gorm:"column:actor_user_id;type:uuid"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime;index"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
