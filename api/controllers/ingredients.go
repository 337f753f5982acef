package controllers

import (
	"net/http"

	"github.com/angelmondragon/pos-backend/api/responses"
	"github.com/angelmondragon/pos-backend/api/validators"
	"github.com/angelmondragon/pos-backend/internal/catalog"
	"github.com/angelmondragon/pos-backend/pkg/logger"
)

type createIngredientRequest struct {
	Name string `json:"name" validate:"required,notblank,max=120"`
	Unit string `json:"unit,omitempty" validate:"omitempty,max=16"`
}

// AdminCreateIngredient registers an ingredient together with its empty stock row.
func AdminCreateIngredient(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createIngredientRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ingredient, err := svc.CreateIngredient(r.Context(), catalog.CreateIngredientInput{
			Name: validators.SanitizeString(payload.Name, 120),
			Unit: validators.SanitizeString(payload.Unit, 16),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, ingredient)
	}
}

func AdminListIngredients(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ingredients, err := svc.ListIngredients(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ingredients)
	}
}
