package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-backend/internal/repo"
	"github.com/angelmondragon/pos-backend/pkg/db"
	"github.com/angelmondragon/pos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/pos-backend/pkg/errors"
	"github.com/angelmondragon/pos-backend/pkg/logger"
)

const defaultUnit = "g"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AvailabilityReader supplies the sellable unit counts shown next to products.
type AvailabilityReader interface {
	AvailableUnits(ctx context.Context, productID uuid.UUID) (int64, error)
	AvailabilityFor(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

// Service maintains ingredients, recipes and products.
type Service interface {
	CreateIngredient(ctx context.Context, input CreateIngredientInput) (*Ingredient, error)
	ListIngredients(ctx context.Context) ([]Ingredient, error)
	CreateRecipe(ctx context.Context, input CreateRecipeInput) (*Recipe, error)
	ListRecipes(ctx context.Context) ([]Recipe, error)
	DeleteRecipe(ctx context.Context, recipeID uuid.UUID) error
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDetail, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDetail, error)
	ListForPOS(ctx context.Context) ([]POSProduct, error)
	ListForAdmin(ctx context.Context) ([]ProductDetail, error)
	GetForAdmin(ctx context.Context, productID uuid.UUID) (*ProductDetail, error)
}

type service struct {
	repo         Repository
	tx           txRunner
	availability AvailabilityReader
	logg         *logger.Logger
}

// NewService builds the catalog service. logg may be nil.
func NewService(repository Repository, tx txRunner, availability AvailabilityReader, logg *logger.Logger) (Service, error) {
	if repository == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if availability == nil {
		return nil, fmt.Errorf("availability reader required")
	}
	return &service{repo: repository, tx: tx, availability: availability, logg: logg}, nil
}

func (s *service) info(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Info(ctx, msg)
	}
}

func (s *service) CreateIngredient(ctx context.Context, input CreateIngredientInput) (*Ingredient, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		unit = defaultUnit
	}

	taken, err := s.repo.IngredientNameTaken(ctx, name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check ingredient name")
	}
	if taken {
		return nil, duplicateIngredient(name)
	}

	ingredient := &models.Ingredient{
		Name:  name,
		Unit:  unit,
		Stock: &models.Stock{QuantityGrams: decimal.Zero},
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).CreateIngredient(ctx, ingredient)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, duplicateIngredient(name)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ingredient")
	}

	s.info(ctx, fmt.Sprintf("ingredient created: %s", name))
	out := ingredientFromModel(*ingredient)
	return &out, nil
}

func duplicateIngredient(name string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("ingredient %q already exists", name))
}

func (s *service) ListIngredients(ctx context.Context) ([]Ingredient, error) {
	rows, err := s.repo.ListIngredients(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ingredients")
	}
	out := make([]Ingredient, 0, len(rows))
	for _, row := range rows {
		out = append(out, ingredientFromModel(row))
	}
	return out, nil
}

func validateRecipe(input CreateRecipeInput) (string, []uuid.UUID, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if len(input.Components) == 0 {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "recipe must have at least one ingredient")
	}
	seen := make(map[uuid.UUID]struct{}, len(input.Components))
	ids := make([]uuid.UUID, 0, len(input.Components))
	for i, c := range input.Components {
		if c.IngredientID == uuid.Nil {
			return "", nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("ingredients[%d].ingredientId required", i))
		}
		if !c.QuantityGrams.IsPositive() {
			return "", nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("ingredients[%d].quantityGrams must be positive", i))
		}
		if _, dup := seen[c.IngredientID]; dup {
			return "", nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("ingredient %s listed twice", c.IngredientID))
		}
		seen[c.IngredientID] = struct{}{}
		ids = append(ids, c.IngredientID)
	}
	return name, ids, nil
}

func (s *service) CreateRecipe(ctx context.Context, input CreateRecipeInput) (*Recipe, error) {
	name, ids, err := validateRecipe(input)
	if err != nil {
		return nil, err
	}

	var created *models.Recipe
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		count, err := r.CountIngredients(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check ingredients")
		}
		if count != int64(len(ids)) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "one or more ingredients not found")
		}

		recipe := &models.Recipe{Name: name}
		for _, c := range input.Components {
			recipe.Ingredients = append(recipe.Ingredients, models.RecipeIngredient{
				IngredientID:  c.IngredientID,
				QuantityGrams: c.QuantityGrams,
			})
		}
		if err := r.CreateRecipe(ctx, recipe); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create recipe")
		}
		created, err = r.FindRecipe(ctx, recipe.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload recipe")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.info(ctx, fmt.Sprintf("recipe created: %s", name))
	return recipeFromModel(created), nil
}

func (s *service) ListRecipes(ctx context.Context) ([]Recipe, error) {
	rows, err := s.repo.ListRecipes(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recipes")
	}
	out := make([]Recipe, 0, len(rows))
	for i := range rows {
		out = append(out, *recipeFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) DeleteRecipe(ctx context.Context, recipeID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		if _, err := r.FindRecipe(ctx, recipeID); err != nil {
			if repo.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "recipe not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipe")
		}
		inUse, err := r.RecipeInUse(ctx, recipeID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check recipe usage")
		}
		if inUse {
			return pkgerrors.New(pkgerrors.CodeConflict, "cannot delete recipe: a product is linked to it")
		}
		if err := r.DeleteRecipe(ctx, recipeID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete recipe")
		}
		return nil
	})
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDetail, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if input.RecipeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipeId required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}

	var productID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		if _, err := r.FindRecipe(ctx, input.RecipeID); err != nil {
			if repo.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "recipe not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipe")
		}
		bound, err := r.RecipeInUse(ctx, input.RecipeID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check recipe usage")
		}
		if bound {
			return recipeBound()
		}
		product := &models.Product{
			Name:     name,
			RecipeID: input.RecipeID,
			Price:    input.Price,
			IsActive: true,
		}
		if err := r.CreateProduct(ctx, product); err != nil {
			if db.IsUniqueViolation(err, "") {
				return recipeBound()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}
		productID = product.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.info(ctx, fmt.Sprintf("product created: %s", name))
	return s.GetForAdmin(ctx, productID)
}

func recipeBound() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "a product already uses this recipe")
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDetail, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		updates["name"] = name
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		updates["price"] = *input.Price
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if _, err := s.repo.FindProduct(ctx, productID); err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateProduct(ctx, productID, updates); err != nil {
			if repo.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
	}
	return s.GetForAdmin(ctx, productID)
}

func (s *service) ListForPOS(ctx context.Context) ([]POSProduct, error) {
	products, err := s.repo.ListProducts(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	units, err := s.availability.AvailabilityFor(ctx, productIDs(products))
	if err != nil {
		return nil, err
	}
	out := make([]POSProduct, 0, len(products))
	for _, p := range products {
		out = append(out, POSProduct{
			ID:                p.ID,
			Name:              p.Name,
			Price:             p.Price,
			AvailableQuantity: units[p.ID],
		})
	}
	return out, nil
}

func (s *service) ListForAdmin(ctx context.Context) ([]ProductDetail, error) {
	products, err := s.repo.ListProducts(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	units, err := s.availability.AvailabilityFor(ctx, productIDs(products))
	if err != nil {
		return nil, err
	}
	out := make([]ProductDetail, 0, len(products))
	for i := range products {
		out = append(out, *productDetailFromModel(&products[i], units[products[i].ID]))
	}
	return out, nil
}

func (s *service) GetForAdmin(ctx context.Context, productID uuid.UUID) (*ProductDetail, error) {
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	units, err := s.availability.AvailableUnits(ctx, productID)
	if err != nil {
		return nil, err
	}
	return productDetailFromModel(product, units), nil
}

func productIDs(products []models.Product) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}
