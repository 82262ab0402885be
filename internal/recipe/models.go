// Package recipe manages recipes and their ingredient lines.
package recipe

import "time"

// Difficulty bounds for recipes (1=Easy, 2=Medium, 3=Hard).
const (
	DifficultyEasy = 1
	DifficultyHard = 3
)

// Recipe is a meal recipe with ingredients and instructions.
type Recipe struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	MealTypeID   int64     `db:"meal_type_id" json:"meal_type_id"`
	Difficulty   *int      `db:"difficulty" json:"difficulty,omitempty"`
	Instructions string    `db:"instructions" json:"instructions"`
	Reference    string    `db:"reference" json:"reference"`
	IsArchived   bool      `db:"is_archived" json:"is_archived"`
	IsFavourite  bool      `db:"is_favourite" json:"is_favourite"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// IngredientLine links a recipe to an ingredient with a free-text quantity.
type IngredientLine struct {
	ID           int64  `db:"id" json:"id"`
	RecipeID     int64  `db:"recipe_id" json:"recipe_id"`
	IngredientID int64  `db:"ingredient_id" json:"ingredient_id"`
	Quantity     string `db:"quantity" json:"quantity"`
}

// Stats holds usage statistics derived from planned meals. Never stored;
// recomputed from the plan rows referencing the recipe.
type Stats struct {
	TimesMade int        `json:"times_made"`
	LastMade  *time.Time `json:"last_made,omitempty"`
}

// Filter narrows List output.
type Filter struct {
	MealTypeID      *int64
	Difficulty      *int
	FavouritesOnly  bool
	IncludeArchived bool
	Search          string
}
