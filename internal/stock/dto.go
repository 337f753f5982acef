package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-backend/pkg/db/models"
	"github.com/angelmondragon/pos-backend/pkg/enums"
)

// RecordMovementInput describes one ledger entry to apply.
type RecordMovementInput struct {
	IngredientID uuid.UUID
	Type         enums.StockMovementType
	DeltaGrams   decimal.Decimal
	Note         *string
	Reference    *string
	ActorUserID  uuid.UUID
}

// AddStockInput records a delivery of QuantityGrams.
type AddStockInput struct {
	IngredientID  uuid.UUID
	QuantityGrams decimal.Decimal
	Note          *string
	ActorUserID   uuid.UUID
}

// AdjustStockInput records a signed manual correction.
type AdjustStockInput struct {
	IngredientID uuid.UUID
	DeltaGrams   decimal.Decimal
	Note         *string
	ActorUserID  uuid.UUID
}

// Deduction is the total grams of one ingredient consumed by a sale.
type Deduction struct {
	IngredientID uuid.UUID
	Grams        decimal.Decimal
}

// SaleInput identifies the order whose ingredients are being consumed.
type SaleInput struct {
	OrderID     uuid.UUID
	ActorUserID uuid.UUID
	Deductions  []Deduction
}

// MovementQuery filters and pages the movement history.
type MovementQuery struct {
	IngredientID *uuid.UUID
	Limit        int
	Cursor       string
}

// Movement is the API view of a ledger entry.
type Movement struct {
	ID            uuid.UUID               `json:"id"`
	StockID       uuid.UUID               `json:"stockId"`
	IngredientID  uuid.UUID               `json:"ingredientId"`
	Type          enums.StockMovementType `json:"type"`
	QuantityGrams decimal.Decimal         `json:"quantityGrams"`
	Note          *string                 `json:"note,omitempty"`
	Reference     *string                 `json:"reference,omitempty"`
	ActorUserID   *uuid.UUID              `json:"actorUserId,omitempty"`
	CreatedAt     time.Time               `json:"createdAt"`
}

// MovementResult pairs a recorded movement with the resulting balance.
type MovementResult struct {
	Movement     Movement        `json:"movement"`
	BalanceGrams decimal.Decimal `json:"balanceGrams"`
}

// Level is the current quantity of one ingredient.
type Level struct {
	IngredientID   uuid.UUID       `json:"ingredientId"`
	IngredientName string          `json:"ingredientName"`
	Unit           string          `json:"unit"`
	StockID        uuid.UUID       `json:"stockId"`
	QuantityGrams  decimal.Decimal `json:"quantityGrams"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Reconciliation compares a stock balance with the sum of its ledger.
type Reconciliation struct {
	IngredientID   uuid.UUID       `json:"ingredientId"`
	QuantityGrams  decimal.Decimal `json:"quantityGrams"`
	LedgerSumGrams decimal.Decimal `json:"ledgerSumGrams"`
	MovementCount  int64           `json:"movementCount"`
	Balanced       bool            `json:"balanced"`
}

func movementFromModel(m models.StockMovement) Movement {
	return Movement{
		ID:            m.ID,
		StockID:       m.StockID,
		IngredientID:  m.IngredientID,
		Type:          m.Type,
		QuantityGrams: m.QuantityGrams,
		Note:          m.Note,
		Reference:     m.Reference,
		ActorUserID:   m.ActorUserID,
		CreatedAt:     m.CreatedAt,
	}
}
