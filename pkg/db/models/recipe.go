package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Recipe lists the ingredient grams needed to make one unit of a product.
type Recipe struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Name        string             `gorm:"column:name;not null"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Recipe) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// RecipeIngredient is one component line of a recipe.
type RecipeIngredient struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	RecipeID      uuid.UUID       `gorm:"column:recipe_id;type:uuid;not null;uniqueIndex:recipe_ingredients_recipe_ingredient_key,priority:1"`
	IngredientID  uuid.UUID       `gorm:"column:ingredient_id;type:uuid;not null;uniqueIndex:recipe_ingredients_recipe_ingredient_key,priority:2"`
	QuantityGrams decimal.Decimal `gorm:"column:quantity_grams;type:numeric(14,3);not null"`
	Ingredient    *Ingredient     `gorm:"foreignKey:IngredientID"`
}

func (ri *RecipeIngredient) BeforeCreate(*gorm.DB) error {
	ensureID(&ri.ID)
	return nil
}
