package sweep

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-backend/internal/stock"
	"github.com/angelmondragon/pos-backend/pkg/logger"
)

// StockReader is the slice of the stock ledger the sweep jobs read.
type StockReader interface {
	ListStock(ctx context.Context) ([]stock.Level, error)
	ListBelowThreshold(ctx context.Context, thresholdGrams decimal.Decimal) ([]stock.Level, error)
	Reconcile(ctx context.Context, ingredientID uuid.UUID) (*stock.Reconciliation, error)
}

type stockGauges interface {
	SetLowStockIngredients(n int)
	SetLedgerImbalances(n int)
}

// LowStockJob logs every ingredient below the threshold and exports the count.
type LowStockJob struct {
	stock     StockReader
	threshold decimal.Decimal
	gauges    stockGauges
	logg      *logger.Logger
}

// NewLowStockJob builds the low stock report. gauges may be nil.
func NewLowStockJob(reader StockReader, threshold decimal.Decimal, gauges stockGauges, logg *logger.Logger) (*LowStockJob, error) {
	if reader == nil {
		return nil, errors.New("stock reader required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if threshold.IsNegative() {
		return nil, errors.New("low stock threshold must not be negative")
	}
	return &LowStockJob{stock: reader, threshold: threshold, gauges: gauges, logg: logg}, nil
}

func (j *LowStockJob) Name() string { return "low_stock_report" }

func (j *LowStockJob) Run(ctx context.Context) error {
	levels, err := j.stock.ListBelowThreshold(ctx, j.threshold)
	if err != nil {
		return fmt.Errorf("list low stock: %w", err)
	}
	for _, level := range levels {
		levelCtx := j.logg.WithIngredientID(ctx, level.IngredientID.String())
		levelCtx = j.logg.WithFields(levelCtx, map[string]any{
			"ingredient_name": level.IngredientName,
			"quantity_grams":  level.QuantityGrams.String(),
			"threshold_grams": j.threshold.String(),
		})
		j.logg.Warn(levelCtx, "ingredient below low stock threshold")
	}
	if j.gauges != nil {
		j.gauges.SetLowStockIngredients(len(levels))
	}
	return nil
}

// LedgerReconcileJob checks every stock balance against the sum of its movements.
type LedgerReconcileJob struct {
	stock  StockReader
	gauges stockGauges
	logg   *logger.Logger
}

// NewLedgerReconcileJob builds the reconciliation sweep. gauges may be nil.
func NewLedgerReconcileJob(reader StockReader, gauges stockGauges, logg *logger.Logger) (*LedgerReconcileJob, error) {
	if reader == nil {
		return nil, errors.New("stock reader required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &LedgerReconcileJob{stock: reader, gauges: gauges, logg: logg}, nil
}

func (j *LedgerReconcileJob) Name() string { return "ledger_reconcile" }

// Run fails when any ingredient is out of balance so the job failure is counted.
func (j *LedgerReconcileJob) Run(ctx context.Context) error {
	levels, err := j.stock.ListStock(ctx)
	if err != nil {
		return fmt.Errorf("list stock: %w", err)
	}

	imbalanced := 0
	for _, level := range levels {
		if err := ctx.Err(); err != nil {
			return err
		}
		levelCtx := j.logg.WithIngredientID(ctx, level.IngredientID.String())
		result, err := j.stock.Reconcile(levelCtx, level.IngredientID)
		if err != nil {
			return fmt.Errorf("reconcile ingredient %s: %w", level.IngredientID, err)
		}
		if result.Balanced {
			continue
		}
		imbalanced++
		levelCtx = j.logg.WithFields(levelCtx, map[string]any{
			"quantity_grams":   result.QuantityGrams.String(),
			"ledger_sum_grams": result.LedgerSumGrams.String(),
			"movement_count":   result.MovementCount,
		})
		j.logg.Error(levelCtx, "stock balance does not match ledger", nil)
	}

	if j.gauges != nil {
		j.gauges.SetLedgerImbalances(imbalanced)
	}
	if imbalanced > 0 {
		return fmt.Errorf("%d of %d ingredients out of balance", imbalanced, len(levels))
	}
	return nil
}
