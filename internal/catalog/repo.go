package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-backend/internal/repo"
	"github.com/angelmondragon/pos-backend/pkg/db/models"
)

// Repository defines persistence operations for ingredients, recipes and products.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateIngredient(ctx context.Context, ingredient *models.Ingredient) error
	IngredientNameTaken(ctx context.Context, name string) (bool, error)
	CountIngredients(ctx context.Context, ids []uuid.UUID) (int64, error)
	ListIngredients(ctx context.Context) ([]models.Ingredient, error)
	CreateRecipe(ctx context.Context, recipe *models.Recipe) error
	FindRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	ListRecipes(ctx context.Context) ([]models.Recipe, error)
	RecipeInUse(ctx context.Context, recipeID uuid.UUID) (bool, error)
	DeleteRecipe(ctx context.Context, id uuid.UUID) error
	CreateProduct(ctx context.Context, product *models.Product) error
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	repo.Base
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

// CreateIngredient inserts the ingredient and, when set, its stock row.
func (r *repository) CreateIngredient(ctx context.Context, ingredient *models.Ingredient) error {
	return r.DB(ctx).Create(ingredient).Error
}

func (r *repository) IngredientNameTaken(ctx context.Context, name string) (bool, error) {
	return r.Exists(ctx, &models.Ingredient{}, "LOWER(name) = LOWER(?)", name)
}

func (r *repository) CountIngredients(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.DB(ctx).Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

func (r *repository) ListIngredients(ctx context.Context) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	err := r.DB(ctx).Preload("Stock").Order("name ASC").Find(&ingredients).Error
	return ingredients, err
}

func (r *repository) CreateRecipe(ctx context.Context, recipe *models.Recipe) error {
	return r.DB(ctx).Create(recipe).Error
}

const (
	recipeComponents  = "Ingredients.Ingredient"
	productComponents = "Recipe.Ingredients.Ingredient"
)

func (r *repository) FindRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	return repo.FindByID[models.Recipe](r.DB(ctx), id, recipeComponents)
}

func (r *repository) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := r.DB(ctx).Preload(recipeComponents).Order("name ASC").Find(&recipes).Error
	return recipes, err
}

func (r *repository) RecipeInUse(ctx context.Context, recipeID uuid.UUID) (bool, error) {
	return r.Exists(ctx, &models.Product{}, "recipe_id = ?", recipeID)
}

// DeleteRecipe removes the recipe and its component rows.
func (r *repository) DeleteRecipe(ctx context.Context, id uuid.UUID) error {
	db := r.DB(ctx)
	if err := db.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return err
	}
	return repo.Affected(db.Where("id = ?", id).Delete(&models.Recipe{}))
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Create(product).Error
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return repo.FindByID[models.Product](r.DB(ctx), id, productComponents)
}

func (r *repository) ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	q := r.DB(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	} else {
		q = q.Preload(productComponents)
	}
	var products []models.Product
	err := q.Order("name ASC").Find(&products).Error
	return products, err
}

func (r *repository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return repo.Affected(r.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates))
}
