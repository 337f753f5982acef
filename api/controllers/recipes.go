package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-backend/api/responses"
	"github.com/angelmondragon/pos-backend/api/validators"
	"github.com/angelmondragon/pos-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/pos-backend/pkg/errors"
	"github.com/angelmondragon/pos-backend/pkg/logger"
)

type recipeComponentRequest struct {
	IngredientID  string           `json:"ingredientId" validate:"required,uuid"`
	QuantityGrams *decimal.Decimal `json:"quantityGrams" validate:"required"`
}

type createRecipeRequest struct {
	Name       string                   `json:"name" validate:"required,notblank,max=120"`
	Components []recipeComponentRequest `json:"components" validate:"required,min=1,dive"`
}

func (r createRecipeRequest) toCreateInput() (catalog.CreateRecipeInput, error) {
	input := catalog.CreateRecipeInput{
		Name:       validators.SanitizeString(r.Name, 120),
		Components: make([]catalog.ComponentInput, 0, len(r.Components)),
	}
	for _, c := range r.Components {
		ingredientID, err := uuid.Parse(c.IngredientID)
		if err != nil {
			return catalog.CreateRecipeInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ingredient id")
		}
		input.Components = append(input.Components, catalog.ComponentInput{
			IngredientID:  ingredientID,
			QuantityGrams: *c.QuantityGrams,
		})
	}
	return input, nil
}

func AdminCreateRecipe(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createRecipeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recipe, err := svc.CreateRecipe(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, recipe)
	}
}

func AdminListRecipes(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipes, err := svc.ListRecipes(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, recipes)
	}
}

// AdminDeleteRecipe removes a recipe no product is bound to.
func AdminDeleteRecipe(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipeID, err := validators.ParseURLUUID(r, "recipeId", "recipe id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteRecipe(r.Context(), recipeID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
