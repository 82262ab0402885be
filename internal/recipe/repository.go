package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"household-meal-planner/internal/database"
)

// ErrInvalidDifficulty is returned when a difficulty outside 1-3 is supplied.
var ErrInvalidDifficulty = errors.New("difficulty must be between 1 and 3")

// Repository is a database-backed repository for recipes.
//
// Every mutation that changes what a planned week would cook (saving or
// deleting a recipe, or replacing its ingredient lines) advances modified_at
// on all week plans referencing the recipe, within the same transaction. The
// shopping list staleness check depends on this propagation.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func validateDifficulty(d *int) error {
	if d != nil && (*d < DifficultyEasy || *d > DifficultyHard) {
		return fmt.Errorf("%w, got %d", ErrInvalidDifficulty, *d)
	}
	return nil
}

// Create inserts a recipe along with its ingredient lines.
func (r *Repository) Create(ctx context.Context, rec Recipe, lines []IngredientLine) (*Recipe, error) {
	if err := validateDifficulty(rec.Difficulty); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO recipes (name, meal_type_id, difficulty, instructions, reference, is_archived, is_favourite, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.Name, rec.MealTypeID, rec.Difficulty, rec.Instructions, rec.Reference,
			rec.IsArchived, rec.IsFavourite, rec.CreatedAt, rec.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert recipe: %w", err)
		}
		rec.ID, _ = res.LastInsertId()
		return insertLines(ctx, tx, rec.ID, lines)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Update saves a recipe and replaces its ingredient lines, then touches every
// week plan that references it.
func (r *Repository) Update(ctx context.Context, rec Recipe, lines []IngredientLine) error {
	if err := validateDifficulty(rec.Difficulty); err != nil {
		return err
	}

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE recipes SET name = ?, meal_type_id = ?, difficulty = ?, instructions = ?, reference = ?, is_archived = ?, updated_at = ?
			 WHERE id = ?`,
			rec.Name, rec.MealTypeID, rec.Difficulty, rec.Instructions, rec.Reference,
			rec.IsArchived, time.Now().UTC(), rec.ID)
		if err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return database.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM recipe_ingredients WHERE recipe_id = ?`, rec.ID); err != nil {
			return fmt.Errorf("failed to clear ingredient lines: %w", err)
		}
		if err := insertLines(ctx, tx, rec.ID, lines); err != nil {
			return err
		}
		return touchDependentPlans(ctx, tx, rec.ID)
	})
}

// Delete removes a recipe. Planned meals referencing it degrade to empty
// days, and their plans are touched first so derived shopping lists read as
// stale.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := touchDependentPlans(ctx, tx, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return database.ErrNotFound
		}
		return nil
	})
}

// Get retrieves a recipe by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Recipe, error) {
	var rec Recipe
	err := r.db.GetContext(ctx, &rec, `SELECT * FROM recipes WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &rec, nil
}

// List returns recipes matching the filter, ordered by name.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Recipe, error) {
	builder := sq.Select("*").From("recipes").OrderBy("name")

	if !filter.IncludeArchived {
		builder = builder.Where(sq.Eq{"is_archived": false})
	}
	if filter.MealTypeID != nil {
		builder = builder.Where(sq.Eq{"meal_type_id": *filter.MealTypeID})
	}
	if filter.Difficulty != nil {
		builder = builder.Where(sq.Eq{"difficulty": *filter.Difficulty})
	}
	if filter.FavouritesOnly {
		builder = builder.Where(sq.Eq{"is_favourite": true})
	}
	if filter.Search != "" {
		builder = builder.Where(sq.Like{"LOWER(name)": "%" + strings.ToLower(filter.Search) + "%"})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build recipe query: %w", err)
	}

	var recipes []Recipe
	if err := r.db.SelectContext(ctx, &recipes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

// ListByMealType returns active recipes grouped by meal type ID. Archived
// recipes are excluded; the shuffle engine consumes this.
func (r *Repository) ListByMealType(ctx context.Context) (map[int64][]Recipe, error) {
	recipes, err := r.List(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	grouped := make(map[int64][]Recipe)
	for _, rec := range recipes {
		grouped[rec.MealTypeID] = append(grouped[rec.MealTypeID], rec)
	}
	return grouped, nil
}

// Ingredients returns the ingredient lines for a recipe.
func (r *Repository) Ingredients(ctx context.Context, recipeID int64) ([]IngredientLine, error) {
	var lines []IngredientLine
	err := r.db.SelectContext(ctx, &lines,
		`SELECT ri.id, ri.recipe_id, ri.ingredient_id, ri.quantity
		 FROM recipe_ingredients ri
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id = ?
		 ORDER BY i.name`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredient lines: %w", err)
	}
	return lines, nil
}

// ToggleFavourite flips the favourite flag and returns the new value.
func (r *Repository) ToggleFavourite(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recipes SET is_favourite = NOT is_favourite WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to toggle favourite: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, database.ErrNotFound
	}
	var fav bool
	if err := r.db.GetContext(ctx, &fav,
		`SELECT is_favourite FROM recipes WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("failed to read favourite flag: %w", err)
	}
	return fav, nil
}

// Duplicate copies a recipe and its ingredient lines. The copy shares the
// same Ingredient rows and never inherits the favourite flag.
func (r *Repository) Duplicate(ctx context.Context, id int64) (*Recipe, error) {
	source, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := r.Ingredients(ctx, id)
	if err != nil {
		return nil, err
	}

	dup := *source
	dup.Name = source.Name + " COPY"
	dup.IsFavourite = false
	return r.Create(ctx, dup, lines)
}

// Stats computes usage statistics for a recipe from planned meal rows.
func (r *Repository) Stats(ctx context.Context, recipeID int64) (*Stats, error) {
	var stats Stats
	if err := r.db.GetContext(ctx, &stats.TimesMade,
		`SELECT COUNT(*) FROM planned_meals WHERE recipe_id = ?`, recipeID); err != nil {
		return nil, fmt.Errorf("failed to count planned meals: %w", err)
	}

	var row struct {
		StartDate time.Time `db:"start_date"`
		DayOffset int       `db:"day_offset"`
	}
	err := r.db.GetContext(ctx, &row,
		`SELECT wp.start_date, pm.day_offset
		 FROM planned_meals pm
		 JOIN week_plans wp ON wp.id = pm.week_plan_id
		 WHERE pm.recipe_id = ?
		 ORDER BY wp.start_date DESC, pm.day_offset DESC
		 LIMIT 1`, recipeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &stats, nil
		}
		return nil, fmt.Errorf("failed to get last planned meal: %w", err)
	}
	last := row.StartDate.AddDate(0, 0, row.DayOffset)
	stats.LastMade = &last
	return &stats, nil
}

func insertLines(ctx context.Context, tx *sqlx.Tx, recipeID int64, lines []IngredientLine) error {
	for _, line := range lines {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, quantity) VALUES (?, ?, ?)`,
			recipeID, line.IngredientID, line.Quantity); err != nil {
			return fmt.Errorf("failed to insert ingredient line: %w", err)
		}
	}
	return nil
}

// touchDependentPlans advances modified_at on every week plan with at least
// one planned meal referencing the recipe.
func touchDependentPlans(ctx context.Context, tx *sqlx.Tx, recipeID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE week_plans SET modified_at = ?
		 WHERE id IN (SELECT DISTINCT week_plan_id FROM planned_meals WHERE recipe_id = ?)`,
		time.Now().UTC(), recipeID)
	if err != nil {
		return fmt.Errorf("failed to touch dependent plans: %w", err)
	}
	return nil
}
