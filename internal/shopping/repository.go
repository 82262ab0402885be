package shopping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"household-meal-planner/internal/database"
)

// ErrSameList is returned when moving an item onto the list it is already on.
var ErrSameList = errors.New("destination list equals source list")

// ErrCategoryRequired is returned when a manual item names an unknown
// ingredient and no category was supplied to create it under.
var ErrCategoryRequired = errors.New("a category is required for a new ingredient")

// Repository manages shopping lists and their items.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetList retrieves a shopping list by ID.
func (r *Repository) GetList(ctx context.Context, id int64) (*ShoppingList, error) {
	var list ShoppingList
	err := r.db.GetContext(ctx, &list, `SELECT * FROM shopping_lists WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get shopping list: %w", err)
	}
	return &list, nil
}

// ListLists returns all shopping lists, most recent first.
func (r *Repository) ListLists(ctx context.Context) ([]ShoppingList, error) {
	var lists []ShoppingList
	if err := r.db.SelectContext(ctx, &lists,
		`SELECT * FROM shopping_lists ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, fmt.Errorf("failed to list shopping lists: %w", err)
	}
	return lists, nil
}

// ActiveList returns the active list, or nil when none is active.
func (r *Repository) ActiveList(ctx context.Context) (*ShoppingList, error) {
	var list ShoppingList
	err := r.db.GetContext(ctx, &list,
		`SELECT * FROM shopping_lists WHERE is_active = 1 LIMIT 1`)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active list: %w", err)
	}
	return &list, nil
}

// CreateManualList creates an ad hoc list with no plan link and makes it the
// active one.
func (r *Repository) CreateManualList(ctx context.Context, name string, storeID *int64) (*ShoppingList, error) {
	if name == "" {
		name = "Shopping List"
	}
	list := ShoppingList{Name: name, StoreID: storeID, CreatedAt: time.Now().UTC(), IsActive: true}

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE shopping_lists SET is_active = 0 WHERE is_active = 1`); err != nil {
			return fmt.Errorf("failed to deactivate prior lists: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO shopping_lists (name, store_id, created_at, is_active) VALUES (?, ?, ?, 1)`,
			list.Name, list.StoreID, list.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert shopping list: %w", err)
		}
		list.ID, _ = res.LastInsertId()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// DeleteList removes a list and, via cascade, its items.
func (r *Repository) DeleteList(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shopping_lists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shopping list: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return database.ErrNotFound
	}
	return nil
}

// ChangeStore points a list at a different store; items re-sort on the next
// read, nothing on the items themselves changes.
func (r *Repository) ChangeStore(ctx context.Context, listID, storeID int64) error {
	var exists int
	if err := r.db.GetContext(ctx, &exists,
		`SELECT COUNT(*) FROM stores WHERE id = ?`, storeID); err != nil {
		return fmt.Errorf("failed to check store: %w", err)
	}
	if exists == 0 {
		return database.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE shopping_lists SET store_id = ? WHERE id = ?`, storeID, listID)
	if err != nil {
		return fmt.Errorf("failed to change store: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return database.ErrNotFound
	}
	return nil
}

// SortedItems returns a list's items in display order: the store's category
// rank first (unranked categories last), then case-insensitive name.
func (r *Repository) SortedItems(ctx context.Context, listID int64) ([]ItemView, error) {
	var items []ItemView
	err := r.db.SelectContext(ctx, &items,
		`SELECT it.id, it.shopping_list_id, it.ingredient_id, it.name, it.category_id,
		        it.quantities, it.is_checked, it.is_manual, it.is_pantry_override, it.is_starred,
		        sc.name AS category_name,
		        COALESCE(sco.sort_order, ?) AS category_rank
		 FROM shopping_list_items it
		 JOIN shopping_lists sl ON sl.id = it.shopping_list_id
		 LEFT JOIN shopping_categories sc ON sc.id = it.category_id
		 LEFT JOIN store_category_orders sco
		        ON sco.store_id = sl.store_id AND sco.category_id = it.category_id
		 WHERE it.shopping_list_id = ?
		 ORDER BY category_rank, LOWER(it.name), it.id`,
		unrankedCategory, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// GetItem retrieves an item by ID.
func (r *Repository) GetItem(ctx context.Context, id int64) (*Item, error) {
	var item Item
	err := r.db.GetContext(ctx, &item, `SELECT * FROM shopping_list_items WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// ToggleChecked flips an item's checked flag and returns the new state.
func (r *Repository) ToggleChecked(ctx context.Context, itemID int64) (bool, error) {
	return r.toggleFlag(ctx, itemID, "is_checked")
}

// ToggleStarred flips an item's starred flag and returns the new state.
func (r *Repository) ToggleStarred(ctx context.Context, itemID int64) (bool, error) {
	return r.toggleFlag(ctx, itemID, "is_starred")
}

func (r *Repository) toggleFlag(ctx context.Context, itemID int64, column string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE shopping_list_items SET %s = NOT %s WHERE id = ?`, column, column), itemID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle %s: %w", column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, database.ErrNotFound
	}
	var value bool
	if err := r.db.GetContext(ctx, &value,
		fmt.Sprintf(`SELECT %s FROM shopping_list_items WHERE id = ?`, column), itemID); err != nil {
		return false, fmt.Errorf("failed to read %s: %w", column, err)
	}
	return value, nil
}

// ClearChecked deletes every checked item on a list and returns the count.
// Unchecked items are never bulk-deleted through this interface.
func (r *Repository) ClearChecked(ctx context.Context, listID int64) (int64, error) {
	if _, err := r.GetList(ctx, listID); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM shopping_list_items WHERE shopping_list_id = ? AND is_checked = 1`, listID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear checked items: %w", err)
	}
	count, _ := res.RowsAffected()
	return count, nil
}

// MoveItem reassigns an item to another list, preserving every other
// attribute. The destination must exist and differ from the source.
func (r *Repository) MoveItem(ctx context.Context, itemID, destListID int64) (*Item, error) {
	item, err := r.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.ShoppingListID == destListID {
		return nil, ErrSameList
	}
	if _, err := r.GetList(ctx, destListID); err != nil {
		return nil, err
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE shopping_list_items SET shopping_list_id = ? WHERE id = ?`,
		destListID, itemID); err != nil {
		return nil, fmt.Errorf("failed to move item: %w", err)
	}
	item.ShoppingListID = destListID
	return item, nil
}

// AddManualItem adds a hand-entered item to a list. The name resolves to an
// ingredient case-insensitively; when it matches, the ingredient and its
// category win over any supplied category. An unknown name with a supplied
// category creates the ingredient (never a pantry staple); an unknown name
// without one is rejected with ErrCategoryRequired rather than creating an
// uncategorised ingredient.
func (r *Repository) AddManualItem(ctx context.Context, listID int64, name string, categoryID *int64, quantity string) (*Item, error) {
	if _, err := r.GetList(ctx, listID); err != nil {
		return nil, err
	}

	item := Item{ShoppingListID: listID, Name: name, Quantities: quantity, IsManual: true}

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var ing struct {
			ID             int64  `db:"id"`
			Name           string `db:"name"`
			CategoryID     int64  `db:"category_id"`
			IsPantryStaple bool   `db:"is_pantry_staple"`
		}
		err := tx.GetContext(ctx, &ing,
			`SELECT id, name, category_id, is_pantry_staple FROM ingredients WHERE LOWER(name) = LOWER(?)`, name)
		switch {
		case err == nil:
			item.IngredientID = &ing.ID
			item.Name = ing.Name
			item.CategoryID = &ing.CategoryID
			item.IsPantryOverride = ing.IsPantryStaple
		case err == sql.ErrNoRows:
			if categoryID == nil {
				return ErrCategoryRequired
			}
			var exists int
			if err := tx.GetContext(ctx, &exists,
				`SELECT COUNT(*) FROM shopping_categories WHERE id = ?`, *categoryID); err != nil {
				return fmt.Errorf("failed to check category: %w", err)
			}
			if exists == 0 {
				return database.ErrNotFound
			}
			res, err := tx.ExecContext(ctx,
				`INSERT INTO ingredients (name, category_id, is_pantry_staple) VALUES (?, ?, 0)`,
				name, *categoryID)
			if err != nil {
				return fmt.Errorf("failed to create ingredient: %w", err)
			}
			id, _ := res.LastInsertId()
			item.IngredientID = &id
			item.CategoryID = categoryID
		default:
			return fmt.Errorf("failed to resolve ingredient: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO shopping_list_items (shopping_list_id, ingredient_id, name, category_id, quantities, is_manual, is_pantry_override)
			 VALUES (?, ?, ?, ?, ?, 1, ?)`,
			item.ShoppingListID, item.IngredientID, item.Name, item.CategoryID, item.Quantities, item.IsPantryOverride)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
		item.ID, _ = res.LastInsertId()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RefreshItems re-syncs each linked item's cached name and category from its
// ingredient. Items whose ingredient was deleted are left as plain-name rows.
func (r *Repository) RefreshItems(ctx context.Context, listID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE shopping_list_items
		 SET name = (SELECT i.name FROM ingredients i WHERE i.id = ingredient_id),
		     category_id = (SELECT i.category_id FROM ingredients i WHERE i.id = ingredient_id)
		 WHERE shopping_list_id = ? AND ingredient_id IS NOT NULL`, listID)
	if err != nil {
		return fmt.Errorf("failed to refresh items: %w", err)
	}
	return nil
}

// Staleness reports whether the list's governing plan changed after the list
// was generated. Absent plan or timestamp means not stale, never an error.
func (r *Repository) Staleness(ctx context.Context, listID int64) (bool, error) {
	list, err := r.GetList(ctx, listID)
	if err != nil {
		return false, err
	}
	if list.WeekPlanID == nil || list.GeneratedAt == nil {
		return false, nil
	}

	var modifiedAt time.Time
	err = r.db.GetContext(ctx, &modifiedAt,
		`SELECT modified_at FROM week_plans WHERE id = ?`, *list.WeekPlanID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to get plan modified_at: %w", err)
	}
	return IsStale(list.GeneratedAt, &modifiedAt), nil
}
