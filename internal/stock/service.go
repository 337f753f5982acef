package stock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-backend/pkg/audit"
	"github.com/angelmondragon/pos-backend/pkg/db/models"
	"github.com/angelmondragon/pos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-backend/pkg/errors"
	"github.com/angelmondragon/pos-backend/pkg/logger"
	"github.com/angelmondragon/pos-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

type movementMetrics interface {
	AddStockMovements(movementType string, n int)
}

// Service exposes the stock ledger.
type Service interface {
	RecordMovement(ctx context.Context, input RecordMovementInput) (*MovementResult, error)
	AddStock(ctx context.Context, input AddStockInput) (*MovementResult, error)
	AdjustStock(ctx context.Context, input AdjustStockInput) (*MovementResult, error)
	DeductForSale(ctx context.Context, tx *gorm.DB, input SaleInput) ([]models.StockMovement, error)
	SaleCommitted(ctx context.Context, input SaleInput, movements []models.StockMovement)
	CurrentQuantity(ctx context.Context, ingredientID uuid.UUID) (decimal.Decimal, error)
	ListStock(ctx context.Context) ([]Level, error)
	ListMovements(ctx context.Context, query MovementQuery) (*pagination.Page[Movement], error)
	ListBelowThreshold(ctx context.Context, thresholdGrams decimal.Decimal) ([]Level, error)
	Reconcile(ctx context.Context, ingredientID uuid.UUID) (*Reconciliation, error)
}

// ServiceParams wires the stock service collaborators. Metrics and Logger are optional.
type ServiceParams struct {
	Repository Repository
	Tx         txRunner
	Audit      auditRecorder
	Metrics    movementMetrics
	Logger     *logger.Logger
}

type service struct {
	repo    Repository
	tx      txRunner
	audit   auditRecorder
	metrics movementMetrics
	logg    *logger.Logger
}

// NewService builds the stock ledger service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{
		repo:    params.Repository,
		tx:      params.Tx,
		audit:   params.Audit,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

func validateMovement(input RecordMovementInput) error {
	if input.IngredientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "ingredient id required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement type %q", input.Type))
	}
	if input.DeltaGrams.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-zero")
	}
	switch input.Type {
	case enums.StockMovementDelivery:
		if !input.DeltaGrams.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "delivery quantity must be positive")
		}
	case enums.StockMovementSale:
		if !input.DeltaGrams.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "sale quantity must be negative")
		}
		if input.Reference == nil || strings.TrimSpace(*input.Reference) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "sale movement requires a reference")
		}
	}
	return nil
}

func (s *service) RecordMovement(ctx context.Context, input RecordMovementInput) (*MovementResult, error) {
	if err := validateMovement(input); err != nil {
		return nil, err
	}

	var (
		movement models.StockMovement
		balance  decimal.Decimal
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		applied, err := repo.ApplyDelta(ctx, input.IngredientID, input.DeltaGrams)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock")
		}
		current, err := repo.FindByIngredient(ctx, input.IngredientID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "stock not found for ingredient")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "stock cannot go below zero").WithDetails(map[string]any{
				"ingredientId":    input.IngredientID,
				"currentQuantity": current.QuantityGrams,
				"delta":           input.DeltaGrams,
			})
		}

		inserted := []models.StockMovement{{
			StockID:       current.ID,
			IngredientID:  input.IngredientID,
			Type:          input.Type,
			QuantityGrams: input.DeltaGrams,
			Note:          trimmed(input.Note),
			Reference:     trimmed(input.Reference),
			ActorUserID:   audit.Actor(input.ActorUserID),
		}}
		if err := repo.InsertMovements(ctx, inserted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert stock movement")
		}
		movement = inserted[0]
		balance = current.QuantityGrams
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &MovementResult{Movement: movementFromModel(movement), BalanceGrams: balance}

	s.audit.Record(ctx, audit.Entry{
		ActorUserID:  audit.Actor(input.ActorUserID),
		Action:       auditActionFor(input.Type),
		ResourceType: audit.ResourceStock,
		ResourceID:   input.IngredientID.String(),
		Metadata: map[string]any{
			"movementId":   result.Movement.ID,
			"type":         input.Type,
			"deltaGrams":   input.DeltaGrams.String(),
			"balanceGrams": balance.String(),
			"reference":    result.Movement.Reference,
		},
	})
	if s.metrics != nil {
		s.metrics.AddStockMovements(input.Type.String(), 1)
	}
	if s.logg != nil {
		logCtx := s.logg.WithIngredientID(ctx, input.IngredientID.String())
		s.logg.Info(logCtx, fmt.Sprintf("stock movement recorded: %s %s", input.Type, input.DeltaGrams))
	}
	return result, nil
}

func (s *service) AddStock(ctx context.Context, input AddStockInput) (*MovementResult, error) {
	if !input.QuantityGrams.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return s.RecordMovement(ctx, RecordMovementInput{
		IngredientID: input.IngredientID,
		Type:         enums.StockMovementDelivery,
		DeltaGrams:   input.QuantityGrams,
		Note:         input.Note,
		ActorUserID:  input.ActorUserID,
	})
}

func (s *service) AdjustStock(ctx context.Context, input AdjustStockInput) (*MovementResult, error) {
	return s.RecordMovement(ctx, RecordMovementInput{
		IngredientID: input.IngredientID,
		Type:         enums.StockMovementAdjustment,
		DeltaGrams:   input.DeltaGrams,
		Note:         input.Note,
		ActorUserID:  input.ActorUserID,
	})
}

// DeductForSale applies every deduction inside tx. Ingredients are processed
// in ascending id order so concurrent sales lock rows in the same order. The
// first shortfall aborts with InsufficientStock; the caller rolls back.
func (s *service) DeductForSale(ctx context.Context, tx *gorm.DB, input SaleInput) ([]models.StockMovement, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required for sale deduction")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	repo := s.repo.WithTx(tx)
	reference := input.OrderID.String()
	deductions := mergeDeductions(input.Deductions)
	movements := make([]models.StockMovement, 0, len(deductions))

	for _, d := range deductions {
		applied, err := repo.Deduct(ctx, d.IngredientID, d.Grams)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deduct stock")
		}
		current, err := repo.FindByIngredient(ctx, d.IngredientID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock not found for ingredient").WithDetails(map[string]any{
					"ingredientId": d.IngredientID,
				})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock")
		}
		if !applied {
			name, nerr := repo.IngredientName(ctx, d.IngredientID)
			if nerr != nil {
				name = d.IngredientID.String()
			}
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient stock for ingredient %s", name)).WithDetails(map[string]any{
				"ingredientId":   d.IngredientID,
				"ingredientName": name,
				"requiredGrams":  d.Grams,
				"availableGrams": current.QuantityGrams,
			})
		}

		ref := reference
		movements = append(movements, models.StockMovement{
			StockID:       current.ID,
			IngredientID:  d.IngredientID,
			Type:          enums.StockMovementSale,
			QuantityGrams: d.Grams.Neg(),
			Reference:     &ref,
			ActorUserID:   audit.Actor(input.ActorUserID),
		})
	}

	if err := repo.InsertMovements(ctx, movements); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert sale movements")
	}
	return movements, nil
}

// SaleCommitted emits the audit entry and metrics for a committed sale.
func (s *service) SaleCommitted(ctx context.Context, input SaleInput, movements []models.StockMovement) {
	if len(movements) == 0 {
		return
	}
	lines := make([]map[string]any, 0, len(movements))
	for _, m := range movements {
		lines = append(lines, map[string]any{
			"ingredientId": m.IngredientID,
			"deltaGrams":   m.QuantityGrams.String(),
		})
	}
	s.audit.Record(ctx, audit.Entry{
		ActorUserID:  audit.Actor(input.ActorUserID),
		Action:       enums.AuditActionStockDeduct,
		ResourceType: audit.ResourceOrder,
		ResourceID:   input.OrderID.String(),
		Metadata:     map[string]any{"deductions": lines},
	})
	if s.metrics != nil {
		s.metrics.AddStockMovements(enums.StockMovementSale.String(), len(movements))
	}
}

func (s *service) CurrentQuantity(ctx context.Context, ingredientID uuid.UUID) (decimal.Decimal, error) {
	current, err := s.repo.FindByIngredient(ctx, ingredientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "stock not found for ingredient")
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock")
	}
	return current.QuantityGrams, nil
}

func (s *service) ListStock(ctx context.Context) ([]Level, error) {
	levels, err := s.repo.ListLevels(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock")
	}
	return levels, nil
}

func (s *service) ListMovements(ctx context.Context, query MovementQuery) (*pagination.Page[Movement], error) {
	cursor, err := pagination.ParseCursor(query.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListMovements(ctx, query.IngredientID, cursor, pagination.FetchLimit(query.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock movements")
	}

	page := pagination.Build(rows, query.Limit, movementCursor, movementFromModel)
	return &page, nil
}

func movementCursor(m models.StockMovement) pagination.Cursor {
	return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
}

func (s *service) ListBelowThreshold(ctx context.Context, thresholdGrams decimal.Decimal) ([]Level, error) {
	if thresholdGrams.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "threshold must not be negative")
	}
	levels, err := s.repo.ListBelow(ctx, thresholdGrams)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock")
	}
	return levels, nil
}

func (s *service) Reconcile(ctx context.Context, ingredientID uuid.UUID) (*Reconciliation, error) {
	snap, err := s.repo.LedgerSnapshot(ctx, ingredientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock not found for ingredient")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read stock ledger")
	}
	return &Reconciliation{
		IngredientID:   ingredientID,
		QuantityGrams:  snap.QuantityGrams,
		LedgerSumGrams: snap.LedgerSum,
		MovementCount:  snap.MovementCount,
		Balanced:       snap.LedgerSum.Equal(snap.QuantityGrams),
	}, nil
}

// mergeDeductions sums duplicate ingredients, drops non-positive amounts and
// sorts by ingredient id.
func mergeDeductions(in []Deduction) []Deduction {
	totals := make(map[uuid.UUID]decimal.Decimal, len(in))
	for _, d := range in {
		if d.IngredientID == uuid.Nil || !d.Grams.IsPositive() {
			continue
		}
		totals[d.IngredientID] = totals[d.IngredientID].Add(d.Grams)
	}
	out := make([]Deduction, 0, len(totals))
	for id, grams := range totals {
		out = append(out, Deduction{IngredientID: id, Grams: grams})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].IngredientID.String() < out[j].IngredientID.String()
	})
	return out
}

func auditActionFor(t enums.StockMovementType) enums.AuditAction {
	switch t {
	case enums.StockMovementDelivery:
		return enums.AuditActionStockAdd
	case enums.StockMovementSale:
		return enums.AuditActionStockDeduct
	default:
		return enums.AuditActionStockAdjust
	}
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
