package models

// All lists every persisted model in dependency order for AutoMigrate.
func All() []any {
	return []any{
		&Ingredient{},
		&Stock{},
		&StockMovement{},
		&Recipe{},
		&RecipeIngredient{},
		&Product{},
		&Order{},
		&OrderItem{},
		&AuditLog{},
	}
}
