package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"household-meal-planner/internal/database"
)

// ErrIngredientInUse is returned when deleting an ingredient that is still
// referenced by at least one recipe.
var ErrIngredientInUse = errors.New("ingredient is used by recipes")

// ErrDuplicateName is returned when creating an entity whose name is already
// taken (case-insensitively for ingredients).
var ErrDuplicateName = errors.New("name already exists")

// ErrCategoryRequired is returned when resolving an unknown ingredient name
// with no category to create it under.
var ErrCategoryRequired = errors.New("a category is required for a new ingredient")

// Repository provides access to catalog reference data.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Meal types

// CreateMealType inserts a meal type.
func (r *Repository) CreateMealType(ctx context.Context, name, colour string) (*MealType, error) {
	if colour == "" {
		colour = "#6B7280"
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO meal_types (name, colour) VALUES (?, ?)`, name, colour)
	if err != nil {
		return nil, fmt.Errorf("failed to insert meal type: %w", err)
	}
	id, _ := res.LastInsertId()
	return &MealType{ID: id, Name: name, Colour: colour}, nil
}

// ListMealTypes returns all meal types ordered by name.
func (r *Repository) ListMealTypes(ctx context.Context) ([]MealType, error) {
	var types []MealType
	if err := r.db.SelectContext(ctx, &types,
		`SELECT id, name, colour FROM meal_types ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list meal types: %w", err)
	}
	return types, nil
}

// Shopping categories

// CreateCategory inserts a shopping category.
func (r *Repository) CreateCategory(ctx context.Context, name string) (*ShoppingCategory, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO shopping_categories (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to insert category: %w", err)
	}
	id, _ := res.LastInsertId()
	return &ShoppingCategory{ID: id, Name: name}, nil
}

// GetCategory retrieves a category by ID.
func (r *Repository) GetCategory(ctx context.Context, id int64) (*ShoppingCategory, error) {
	var cat ShoppingCategory
	err := r.db.GetContext(ctx, &cat,
		`SELECT id, name FROM shopping_categories WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &cat, nil
}

// ListCategories returns all shopping categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]ShoppingCategory, error) {
	var cats []ShoppingCategory
	if err := r.db.SelectContext(ctx, &cats,
		`SELECT id, name FROM shopping_categories ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return cats, nil
}

// Stores

// CreateStore inserts a store. When isDefault is set, any previous default is
// unset in the same transaction.
func (r *Repository) CreateStore(ctx context.Context, name string, isDefault bool) (*Store, error) {
	var store Store
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if isDefault {
			if _, err := tx.ExecContext(ctx, `UPDATE stores SET is_default = 0 WHERE is_default = 1`); err != nil {
				return fmt.Errorf("failed to unset default stores: %w", err)
			}
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO stores (name, is_default) VALUES (?, ?)`, name, isDefault)
		if err != nil {
			return fmt.Errorf("failed to insert store: %w", err)
		}
		id, _ := res.LastInsertId()
		store = Store{ID: id, Name: name, IsDefault: isDefault}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &store, nil
}

// GetStore retrieves a store by ID.
func (r *Repository) GetStore(ctx context.Context, id int64) (*Store, error) {
	var store Store
	err := r.db.GetContext(ctx, &store,
		`SELECT id, name, is_default FROM stores WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return &store, nil
}

// ListStores returns all stores ordered by name.
func (r *Repository) ListStores(ctx context.Context) ([]Store, error) {
	var stores []Store
	if err := r.db.SelectContext(ctx, &stores,
		`SELECT id, name, is_default FROM stores ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	return stores, nil
}

// DefaultStore returns the default store, falling back to any store, or nil
// when no stores exist.
func (r *Repository) DefaultStore(ctx context.Context) (*Store, error) {
	var store Store
	err := r.db.GetContext(ctx, &store,
		`SELECT id, name, is_default FROM stores ORDER BY is_default DESC, id LIMIT 1`)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get default store: %w", err)
	}
	return &store, nil
}

// UpdateStore renames a store.
func (r *Repository) UpdateStore(ctx context.Context, id int64, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE stores SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("failed to update store: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return database.ErrNotFound
	}
	return nil
}

// DeleteStore removes a store. Its category ordering rows cascade away and
// lists pointing at it fall back to a null store (name-only item ordering).
func (r *Repository) DeleteStore(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete store: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return database.ErrNotFound
	}
	return nil
}

// SetDefaultStore marks one store as default and unsets all others atomically.
func (r *Repository) SetDefaultStore(ctx context.Context, id int64) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE stores SET is_default = 1 WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to set default store: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return database.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE stores SET is_default = 0 WHERE is_default = 1 AND id != ?`, id); err != nil {
			return fmt.Errorf("failed to unset other default stores: %w", err)
		}
		return nil
	})
}

// SetCategoryOrder replaces the category ordering for a store.
func (r *Repository) SetCategoryOrder(ctx context.Context, storeID int64, ranks []CategoryRank) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var exists int
		if err := tx.GetContext(ctx, &exists,
			`SELECT COUNT(*) FROM stores WHERE id = ?`, storeID); err != nil {
			return fmt.Errorf("failed to check store: %w", err)
		}
		if exists == 0 {
			return database.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM store_category_orders WHERE store_id = ?`, storeID); err != nil {
			return fmt.Errorf("failed to clear category order: %w", err)
		}
		for _, rank := range ranks {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO store_category_orders (store_id, category_id, sort_order) VALUES (?, ?, ?)`,
				storeID, rank.CategoryID, rank.SortOrder); err != nil {
				return fmt.Errorf("failed to insert category order: %w", err)
			}
		}
		return nil
	})
}

// CategoryOrder returns the configured ranks for a store, keyed by category.
func (r *Repository) CategoryOrder(ctx context.Context, storeID int64) (map[int64]int, error) {
	var ranks []CategoryRank
	if err := r.db.SelectContext(ctx, &ranks,
		`SELECT category_id, sort_order FROM store_category_orders WHERE store_id = ? ORDER BY sort_order`,
		storeID); err != nil {
		return nil, fmt.Errorf("failed to get category order: %w", err)
	}
	order := make(map[int64]int, len(ranks))
	for _, rank := range ranks {
		order[rank.CategoryID] = rank.SortOrder
	}
	return order, nil
}

// Ingredients

// CreateIngredient inserts an ingredient after a case-insensitive name check.
func (r *Repository) CreateIngredient(ctx context.Context, ing Ingredient) (*Ingredient, error) {
	existing, err := r.FindIngredientByName(ctx, ing.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("ingredient %q: %w", ing.Name, ErrDuplicateName)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ingredients (name, category_id, is_pantry_staple, default_unit) VALUES (?, ?, ?, ?)`,
		ing.Name, ing.CategoryID, ing.IsPantryStaple, ing.DefaultUnit)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ingredient: %w", err)
	}
	ing.ID, _ = res.LastInsertId()
	return &ing, nil
}

// FindIngredientByName performs a case-insensitive lookup. Returns nil when
// no ingredient matches.
func (r *Repository) FindIngredientByName(ctx context.Context, name string) (*Ingredient, error) {
	var ing Ingredient
	err := r.db.GetContext(ctx, &ing,
		`SELECT id, name, category_id, is_pantry_staple, default_unit
		 FROM ingredients WHERE LOWER(name) = LOWER(?)`, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find ingredient by name: %w", err)
	}
	return &ing, nil
}

// ResolveIngredient finds an ingredient by name case-insensitively, creating
// it when absent and a category was supplied. Auto-created ingredients are
// never pantry staples. With no match and no category the resolution fails
// rather than creating an uncategorised ingredient.
func (r *Repository) ResolveIngredient(ctx context.Context, name string, categoryID *int64) (*Ingredient, error) {
	existing, err := r.FindIngredientByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	if categoryID == nil {
		return nil, fmt.Errorf("ingredient %q: %w", name, ErrCategoryRequired)
	}
	return r.CreateIngredient(ctx, Ingredient{Name: name, CategoryID: *categoryID})
}

// GetIngredient retrieves an ingredient by ID.
func (r *Repository) GetIngredient(ctx context.Context, id int64) (*Ingredient, error) {
	var ing Ingredient
	err := r.db.GetContext(ctx, &ing,
		`SELECT id, name, category_id, is_pantry_staple, default_unit FROM ingredients WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	return &ing, nil
}

// ListIngredients returns ingredients matching the filter, ordered by name.
func (r *Repository) ListIngredients(ctx context.Context, filter IngredientFilter) ([]Ingredient, error) {
	builder := sq.Select("id", "name", "category_id", "is_pantry_staple", "default_unit").
		From("ingredients").
		OrderBy("name")

	if filter.CategoryID != nil {
		builder = builder.Where(sq.Eq{"category_id": *filter.CategoryID})
	}
	if filter.PantryStaple != nil {
		builder = builder.Where(sq.Eq{"is_pantry_staple": *filter.PantryStaple})
	}
	if filter.Search != "" {
		builder = builder.Where(sq.Like{"LOWER(name)": "%" + strings.ToLower(filter.Search) + "%"})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build ingredient query: %w", err)
	}

	var ings []Ingredient
	if err := r.db.SelectContext(ctx, &ings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ings, nil
}

// UpdateIngredient saves changes to an existing ingredient.
func (r *Repository) UpdateIngredient(ctx context.Context, ing Ingredient) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ingredients SET name = ?, category_id = ?, is_pantry_staple = ?, default_unit = ? WHERE id = ?`,
		ing.Name, ing.CategoryID, ing.IsPantryStaple, ing.DefaultUnit, ing.ID)
	if err != nil {
		return fmt.Errorf("failed to update ingredient: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return database.ErrNotFound
	}
	return nil
}

// DeleteIngredient removes an ingredient. The delete is rejected while any
// recipe references it; shopping list items degrade to plain-name items via
// the ON DELETE SET NULL constraint.
func (r *Repository) DeleteIngredient(ctx context.Context, id int64) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var refs int
		if err := tx.GetContext(ctx, &refs,
			`SELECT COUNT(*) FROM recipe_ingredients WHERE ingredient_id = ?`, id); err != nil {
			return fmt.Errorf("failed to count recipe references: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("%w (%d recipe references)", ErrIngredientInUse, refs)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM ingredients WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete ingredient: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return database.ErrNotFound
		}
		return nil
	})
}
