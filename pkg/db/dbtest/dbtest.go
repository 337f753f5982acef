// Package dbtest provides an in-memory SQLite database with the POS schema for
// repository and service tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-backend/pkg/db"
	"github.com/angelmondragon/pos-backend/pkg/db/models"
)

// Open returns a fresh, migrated database private to the calling test. The pool
// is pinned to one connection, so concurrent transactions run one at a time and
// every query issued inside a transaction must go through that transaction.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:pos_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), db.Config())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}

// Client wraps Open in a *db.Client for services that need WithTx.
func Client(t testing.TB) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t)
	return db.Wrap(conn), conn
}

// Grams is shorthand for decimal.NewFromInt in fixtures.
func Grams(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// MustCreateIngredient inserts an ingredient with a stock row holding grams.
// No movement is written, so fixtures that care about reconciliation should
// seed through the stock service instead.
func MustCreateIngredient(t testing.TB, conn *gorm.DB, name string, grams int64) *models.Ingredient {
	t.Helper()
	ingredient := &models.Ingredient{Name: name, Unit: "g"}
	if err := conn.Create(ingredient).Error; err != nil {
		t.Fatalf("create ingredient %s: %v", name, err)
	}
	stock := &models.Stock{IngredientID: ingredient.ID, QuantityGrams: Grams(grams)}
	if err := conn.Create(stock).Error; err != nil {
		t.Fatalf("create stock %s: %v", name, err)
	}
	ingredient.Stock = stock
	return ingredient
}

// Component is one recipe line in a fixture.
type Component struct {
	IngredientID uuid.UUID
	Grams        int64
}

// MustCreateRecipe inserts a recipe with the given components.
func MustCreateRecipe(t testing.TB, conn *gorm.DB, name string, components ...Component) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{Name: name}
	for _, c := range components {
		recipe.Ingredients = append(recipe.Ingredients, models.RecipeIngredient{
			IngredientID:  c.IngredientID,
			QuantityGrams: Grams(c.Grams),
		})
	}
	if err := conn.Create(recipe).Error; err != nil {
		t.Fatalf("create recipe %s: %v", name, err)
	}
	return recipe
}

// MustCreateProduct inserts an active product bound to recipeID.
func MustCreateProduct(t testing.TB, conn *gorm.DB, name string, recipeID uuid.UUID, price string) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     name,
		RecipeID: recipeID,
		Price:    decimal.RequireFromString(price),
		IsActive: true,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return product
}

// MustDeactivateProduct flips is_active off for productID.
func MustDeactivateProduct(t testing.TB, conn *gorm.DB, productID uuid.UUID) {
	t.Helper()
	if err := conn.Model(&models.Product{}).Where("id = ?", productID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product: %v", err)
	}
}
