package shopping

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"household-meal-planner/internal/database"
)

// Generator builds shopping lists from week plans.
type Generator struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewGenerator creates a new Generator.
func NewGenerator(db *sqlx.DB, logger *zap.Logger) *Generator {
	return &Generator{db: db, logger: logger}
}

// ingredientRow is one recipe-ingredient reachable from the plan.
type ingredientRow struct {
	IngredientID   int64  `db:"ingredient_id"`
	Quantity       string `db:"quantity"`
	Name           string `db:"name"`
	CategoryID     int64  `db:"category_id"`
	IsPantryStaple bool   `db:"is_pantry_staple"`
}

// aggregate groups rows by ingredient identity, preserving first-encounter
// order, and drops pantry staples. Quantity strings are joined as-is; no
// unit parsing or numeric summation happens here.
func aggregate(rows []ingredientRow) []Item {
	type bucket struct {
		row        ingredientRow
		quantities []string
	}
	order := make([]int64, 0, len(rows))
	buckets := make(map[int64]*bucket, len(rows))

	for _, row := range rows {
		b, seen := buckets[row.IngredientID]
		if !seen {
			b = &bucket{row: row}
			buckets[row.IngredientID] = b
			order = append(order, row.IngredientID)
		}
		b.quantities = append(b.quantities, row.Quantity)
	}

	items := make([]Item, 0, len(order))
	for _, id := range order {
		b := buckets[id]
		if b.row.IsPantryStaple {
			continue
		}
		ingredientID := b.row.IngredientID
		categoryID := b.row.CategoryID
		items = append(items, Item{
			IngredientID: &ingredientID,
			Name:         b.row.Name,
			CategoryID:   &categoryID,
			Quantities:   strings.Join(b.quantities, ", "),
		})
	}
	return items
}

// Generate derives a fresh shopping list from a week plan. Each call creates
// a new list and makes it the single active one; prior lists are deactivated
// but kept. The whole read + deactivate + create + bulk-insert sequence runs
// in one transaction: no reader observes a half-built active list, and a plan
// edit can never land between collecting the ingredients and stamping
// generated_at (the list would read as fresh while its contents predate the
// edit).
//
// When storeID is nil the default store is used, falling back to any store,
// or none (items then sort by name only).
func (g *Generator) Generate(ctx context.Context, weekPlanID int64, storeID *int64) (*ShoppingList, error) {
	var list ShoppingList
	var itemCount int

	err := database.WithTx(ctx, g.db, func(tx *sqlx.Tx) error {
		var planStart time.Time
		err := tx.GetContext(ctx, &planStart,
			`SELECT start_date FROM week_plans WHERE id = ?`, weekPlanID)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrNotFound
			}
			return fmt.Errorf("failed to get week plan: %w", err)
		}

		if storeID != nil {
			var exists int
			if err := tx.GetContext(ctx, &exists,
				`SELECT COUNT(*) FROM stores WHERE id = ?`, *storeID); err != nil {
				return fmt.Errorf("failed to check store: %w", err)
			}
			if exists == 0 {
				return database.ErrNotFound
			}
		} else {
			var defaultID int64
			err := tx.GetContext(ctx, &defaultID,
				`SELECT id FROM stores ORDER BY is_default DESC, id LIMIT 1`)
			if err == nil {
				storeID = &defaultID
			} else if err != sql.ErrNoRows {
				return fmt.Errorf("failed to get default store: %w", err)
			}
		}

		var rows []ingredientRow
		err = tx.SelectContext(ctx, &rows,
			`SELECT ri.ingredient_id, ri.quantity, i.name, i.category_id, i.is_pantry_staple
			 FROM planned_meals pm
			 JOIN recipes r ON r.id = pm.recipe_id
			 JOIN recipe_ingredients ri ON ri.recipe_id = r.id
			 JOIN ingredients i ON i.id = ri.ingredient_id
			 WHERE pm.week_plan_id = ?
			 ORDER BY pm.day_offset, ri.id`, weekPlanID)
		if err != nil {
			return fmt.Errorf("failed to collect plan ingredients: %w", err)
		}

		items := aggregate(rows)
		itemCount = len(items)
		now := time.Now().UTC()
		list = ShoppingList{
			Name:        fmt.Sprintf("Shopping for week of %s", planStart.Format("02 Jan 2006")),
			WeekPlanID:  &weekPlanID,
			StoreID:     storeID,
			CreatedAt:   now,
			GeneratedAt: &now,
			IsActive:    true,
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE shopping_lists SET is_active = 0 WHERE is_active = 1`); err != nil {
			return fmt.Errorf("failed to deactivate prior lists: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO shopping_lists (name, week_plan_id, store_id, created_at, generated_at, is_active)
			 VALUES (?, ?, ?, ?, ?, 1)`,
			list.Name, list.WeekPlanID, list.StoreID, list.CreatedAt, list.GeneratedAt)
		if err != nil {
			return fmt.Errorf("failed to insert shopping list: %w", err)
		}
		list.ID, _ = res.LastInsertId()

		for _, item := range items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO shopping_list_items (shopping_list_id, ingredient_id, name, category_id, quantities)
				 VALUES (?, ?, ?, ?, ?)`,
				list.ID, item.IngredientID, item.Name, item.CategoryID, item.Quantities); err != nil {
				return fmt.Errorf("failed to insert item %q: %w", item.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	g.logger.Info("generated shopping list",
		zap.Int64("list_id", list.ID),
		zap.Int64("week_plan_id", weekPlanID),
		zap.Int("items", itemCount))
	return &list, nil
}
