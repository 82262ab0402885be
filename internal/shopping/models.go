// Package shopping derives store-ordered shopping lists from week plans and
// manages list items, staleness, and the stale-list notice.
package shopping

import "time"

// ShoppingList is a generated or manual list. At most one list is active
// system-wide; activating one deactivates the others at write time.
type ShoppingList struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	WeekPlanID  *int64     `db:"week_plan_id" json:"week_plan_id,omitempty"`
	StoreID     *int64     `db:"store_id" json:"store_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	GeneratedAt *time.Time `db:"generated_at" json:"generated_at,omitempty"`
	IsActive    bool       `db:"is_active" json:"is_active"`
}

// Item is one entry on a shopping list. IngredientID is nil for ad hoc items
// identified only by free text, and for items whose ingredient was deleted.
type Item struct {
	ID               int64  `db:"id" json:"id"`
	ShoppingListID   int64  `db:"shopping_list_id" json:"shopping_list_id"`
	IngredientID     *int64 `db:"ingredient_id" json:"ingredient_id,omitempty"`
	Name             string `db:"name" json:"name"`
	CategoryID       *int64 `db:"category_id" json:"category_id,omitempty"`
	Quantities       string `db:"quantities" json:"quantities"`
	IsChecked        bool   `db:"is_checked" json:"is_checked"`
	IsManual         bool   `db:"is_manual" json:"is_manual"`
	IsPantryOverride bool   `db:"is_pantry_override" json:"is_pantry_override"`
	IsStarred        bool   `db:"is_starred" json:"is_starred"`
}

// ItemView is an item joined with its category name and the store's rank for
// that category, in display order.
type ItemView struct {
	Item
	CategoryName *string `db:"category_name" json:"category_name,omitempty"`
	CategoryRank int     `db:"category_rank" json:"category_rank"`
}

// unrankedCategory sorts categories with no configured store rank (and items
// with no category) after every ranked one.
const unrankedCategory = 999999

// IsStale reports whether a list generated from a plan is out of date. Lists
// with no plan link or no generation timestamp are never stale.
func IsStale(generatedAt *time.Time, planModifiedAt *time.Time) bool {
	if generatedAt == nil || planModifiedAt == nil {
		return false
	}
	return planModifiedAt.After(*generatedAt)
}
