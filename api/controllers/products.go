package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-backend/api/responses"
	"github.com/angelmondragon/pos-backend/api/validators"
	"github.com/angelmondragon/pos-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/pos-backend/pkg/errors"
	"github.com/angelmondragon/pos-backend/pkg/logger"
)

const maxProductNameLength = 120

type createProductRequest struct {
	Name     string           `json:"name" validate:"required,notblank,max=120"`
	RecipeID string           `json:"recipeId" validate:"required,uuid"`
	Price    *decimal.Decimal `json:"price" validate:"required"`
}

func (r createProductRequest) toCreateInput() (catalog.CreateProductInput, error) {
	recipeID, err := uuid.Parse(r.RecipeID)
	if err != nil {
		return catalog.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid recipe id")
	}
	return catalog.CreateProductInput{
		Name:     validators.SanitizeString(r.Name, maxProductNameLength),
		RecipeID: recipeID,
		Price:    *r.Price,
	}, nil
}

type updateProductRequest struct {
	Name     *string          `json:"name,omitempty" validate:"omitempty,max=120"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	IsActive *bool            `json:"isActive,omitempty"`
}

func (r updateProductRequest) toUpdateInput() catalog.UpdateProductInput {
	input := catalog.UpdateProductInput{Price: r.Price, IsActive: r.IsActive}
	if r.Name != nil {
		name := validators.SanitizeString(*r.Name, maxProductNameLength)
		input.Name = &name
	}
	return input
}

// POSProducts lists active products with the units that can be made right now.
func POSProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListForPOS(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

// AdminListProducts lists every product with its recipe and availability.
func AdminListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListForAdmin(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func AdminGetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseURLUUID(r, "productId", "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetForAdmin(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// AdminCreateProduct binds a new product to an unused recipe.
func AdminCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, product)
	}
}

func AdminUpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseURLUUID(r, "productId", "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Name != nil && strings.TrimSpace(*payload.Name) == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "name must not be blank"))
			return
		}
		product, err := svc.UpdateProduct(r.Context(), productID, payload.toUpdateInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
