package stock

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-backend/api/middleware"
	"github.com/angelmondragon/pos-backend/api/responses"
	"github.com/angelmondragon/pos-backend/api/validators"
	internalstock "github.com/angelmondragon/pos-backend/internal/stock"
	pkgerrors "github.com/angelmondragon/pos-backend/pkg/errors"
	"github.com/angelmondragon/pos-backend/pkg/logger"
	"github.com/angelmondragon/pos-backend/pkg/pagination"
)

const maxNoteLength = 500

var maxLowStockThreshold = decimal.NewFromInt(1_000_000)

// movementRequest is shared by add and adjust; adjust accepts a negative quantity.
type movementRequest struct {
	IngredientID  string           `json:"ingredientId" validate:"required,uuid"`
	QuantityGrams *decimal.Decimal `json:"quantityGrams" validate:"required"`
	Note          *string          `json:"note,omitempty" validate:"omitempty,max=500"`
}

// List returns the current quantity of every ingredient.
func List(svc internalstock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		levels, err := svc.ListStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, levels)
	}
}

// Movements pages through the ledger newest first.
func Movements(svc internalstock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ingredientID, err := validators.ParseQueryUUID(r, "ingredientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListMovements(r.Context(), internalstock.MovementQuery{
			IngredientID: ingredientID,
			Limit:        validators.ClampQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit),
			Cursor:       strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// Low lists ingredients strictly below the threshold query parameter.
func Low(svc internalstock.Service, defaultThreshold decimal.Decimal, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threshold := validators.ClampQueryDecimal(r, "threshold", defaultThreshold, decimal.Zero, maxLowStockThreshold)
		levels, err := svc.ListBelowThreshold(r.Context(), threshold)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, levels)
	}
}

// Add records a delivery.
func Add(svc internalstock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFrom(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var body movementRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ingredientID, err := uuid.Parse(body.IngredientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ingredient id"))
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithIngredientID(ctx, ingredientID.String())
		}

		result, err := svc.AddStock(ctx, internalstock.AddStockInput{
			IngredientID:  ingredientID,
			QuantityGrams: *body.QuantityGrams,
			Note:          sanitizeNote(body.Note),
			ActorUserID:   actor.UserID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteCreated(w, result)
	}
}

// Adjust records a signed manual correction such as waste or a recount.
func Adjust(svc internalstock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFrom(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var body movementRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ingredientID, err := uuid.Parse(body.IngredientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ingredient id"))
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithIngredientID(ctx, ingredientID.String())
		}

		result, err := svc.AdjustStock(ctx, internalstock.AdjustStockInput{
			IngredientID: ingredientID,
			DeltaGrams:   *body.QuantityGrams,
			Note:         sanitizeNote(body.Note),
			ActorUserID:  actor.UserID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteCreated(w, result)
	}
}

// Reconcile compares an ingredient's balance with the sum of its ledger.
func Reconcile(svc internalstock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ingredientID, err := validators.ParseURLUUID(r, "ingredientId", "ingredient id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.Reconcile(r.Context(), ingredientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func sanitizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	cleaned := validators.SanitizeString(*note, maxNoteLength)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
