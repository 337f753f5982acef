package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-backend/pkg/db/models"
)

// CreateIngredientInput names a new raw material.
type CreateIngredientInput struct {
	Name string
	Unit string
}

// ComponentInput is one ingredient line of a recipe being created.
type ComponentInput struct {
	IngredientID  uuid.UUID
	QuantityGrams decimal.Decimal
}

// CreateRecipeInput describes a recipe and its components.
type CreateRecipeInput struct {
	Name       string
	Components []ComponentInput
}

// CreateProductInput binds a sellable product to a recipe.
type CreateProductInput struct {
	Name     string
	RecipeID uuid.UUID
	Price    decimal.Decimal
}

// UpdateProductInput changes only the fields that are set.
type UpdateProductInput struct {
	Name     *string
	Price    *decimal.Decimal
	IsActive *bool
}

// Ingredient is the API view of an ingredient with its on-hand quantity.
type Ingredient struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	QuantityGrams decimal.Decimal `json:"quantityGrams"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Component is one recipe line.
type Component struct {
	IngredientID   uuid.UUID       `json:"ingredientId"`
	IngredientName string          `json:"ingredientName,omitempty"`
	QuantityGrams  decimal.Decimal `json:"quantityGrams"`
}

// Recipe is the API view of a recipe.
type Recipe struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	Components []Component `json:"components"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// POSProduct is what the till shows: active products with current availability.
type POSProduct struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	AvailableQuantity int64           `json:"availableQuantity"`
}

// ProductDetail is the admin view of a product including its recipe.
type ProductDetail struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	IsActive          bool            `json:"isActive"`
	Recipe            *Recipe         `json:"recipe,omitempty"`
	AvailableQuantity int64           `json:"availableQuantity"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

func ingredientFromModel(m models.Ingredient) Ingredient {
	out := Ingredient{
		ID:        m.ID,
		Name:      m.Name,
		Unit:      m.Unit,
		CreatedAt: m.CreatedAt,
	}
	if m.Stock != nil {
		out.QuantityGrams = m.Stock.QuantityGrams
	}
	return out
}

func recipeFromModel(m *models.Recipe) *Recipe {
	if m == nil {
		return nil
	}
	out := &Recipe{
		ID:         m.ID,
		Name:       m.Name,
		Components: make([]Component, 0, len(m.Ingredients)),
		CreatedAt:  m.CreatedAt,
	}
	for _, ri := range m.Ingredients {
		c := Component{IngredientID: ri.IngredientID, QuantityGrams: ri.QuantityGrams}
		if ri.Ingredient != nil {
			c.IngredientName = ri.Ingredient.Name
		}
		out.Components = append(out.Components, c)
	}
	return out
}

func productDetailFromModel(m *models.Product, available int64) *ProductDetail {
	return &ProductDetail{
		ID:                m.ID,
		Name:              m.Name,
		Price:             m.Price,
		IsActive:          m.IsActive,
		Recipe:            recipeFromModel(m.Recipe),
		AvailableQuantity: available,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
