package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"household-meal-planner/internal/database"
)

// seedMealTypes are the starter meal types with their display colours.
var seedMealTypes = []struct {
	name   string
	colour string
}{
	{"Rice", "#10B981"},
	{"Pasta", "#F59E0B"},
	{"Potato", "#8B5CF6"},
}

var seedCategories = []string{
	"Fruit & Veg",
	"Dairy",
	"Tinned",
	"Cereals",
	"Bread",
	"Baking",
	"Household",
	"Frozen",
	"Meat",
	"Condiments",
}

// seedStores maps each starter store to its aisle order.
var seedStores = []struct {
	name      string
	isDefault bool
	order     []string
}{
	{
		name:      "Tesco",
		isDefault: true,
		order: []string{
			"Fruit & Veg", "Dairy", "Meat", "Tinned", "Cereals",
			"Bread", "Baking", "Condiments", "Household", "Frozen",
		},
	},
	{
		name:      "Morrisons",
		isDefault: false,
		order: []string{
			"Fruit & Veg", "Bread", "Dairy", "Meat", "Tinned",
			"Cereals", "Baking", "Condiments", "Frozen", "Household",
		},
	},
}

// seed inserts the starter rows, skipping anything already present so the
// command can run on every deploy.
func seed(ctx context.Context, db *database.DB) error {
	return database.WithTx(ctx, db.SQL, func(tx *sqlx.Tx) error {
		for _, mt := range seedMealTypes {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO meal_types (name, colour) VALUES (?, ?)`,
				mt.name, mt.colour); err != nil {
				return fmt.Errorf("failed to seed meal type %q: %w", mt.name, err)
			}
		}

		for _, name := range seedCategories {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO shopping_categories (name) VALUES (?)`, name); err != nil {
				return fmt.Errorf("failed to seed category %q: %w", name, err)
			}
		}

		for _, store := range seedStores {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO stores (name, is_default) VALUES (?, ?)`,
				store.name, store.isDefault); err != nil {
				return fmt.Errorf("failed to seed store %q: %w", store.name, err)
			}
			var storeID int64
			if err := tx.GetContext(ctx, &storeID,
				`SELECT id FROM stores WHERE name = ?`, store.name); err != nil {
				return fmt.Errorf("failed to look up store %q: %w", store.name, err)
			}
			for i, category := range store.order {
				if _, err := tx.ExecContext(ctx,
					`INSERT OR IGNORE INTO store_category_orders (store_id, category_id, sort_order)
					 SELECT ?, id, ? FROM shopping_categories WHERE name = ?`,
					storeID, i+1, category); err != nil {
					return fmt.Errorf("failed to seed category order for %q: %w", store.name, err)
				}
			}
		}
		return nil
	})
}
