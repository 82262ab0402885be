// Package catalog holds the reference data every other component consumes:
// meal types, shopping categories, stores with their aisle ordering, and the
// canonical ingredient registry.
package catalog

// MealType categorises recipes by their primary carbohydrate/base.
type MealType struct {
	ID     int64  `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Colour string `db:"colour" json:"colour"`
}

// ShoppingCategory is the intrinsic category for ingredients.
type ShoppingCategory struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Store represents a supermarket with its own aisle ordering.
type Store struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	IsDefault bool   `db:"is_default" json:"is_default"`
}

// CategoryRank maps a shopping category to its sort position within a store.
type CategoryRank struct {
	CategoryID int64 `db:"category_id" json:"category_id"`
	SortOrder  int   `db:"sort_order" json:"sort_order"`
}

// Ingredient is a distinct grocery item that recipes and shopping lists
// reference. Name uniqueness is case-insensitive at creation time even though
// the column constraint is case-sensitive; all lookups go through
// FindIngredientByName.
type Ingredient struct {
	ID             int64  `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	CategoryID     int64  `db:"category_id" json:"category_id"`
	IsPantryStaple bool   `db:"is_pantry_staple" json:"is_pantry_staple"`
	DefaultUnit    string `db:"default_unit" json:"default_unit"`
}

// IngredientFilter narrows ListIngredients output.
type IngredientFilter struct {
	CategoryID   *int64
	PantryStaple *bool
	Search       string
}
