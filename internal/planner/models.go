// Package planner manages week plans: seven-day meal schedules filled by
// hand or by the shuffle engine.
package planner

import "time"

// DaysPerPlan is the fixed length of a week plan.
const DaysPerPlan = 7

// WeekPlan is a meal plan for a specific week. modified_at advances whenever
// the plan's meal assignments change, or when a recipe referenced by one of
// its meals is saved or deleted.
type WeekPlan struct {
	ID         int64     `db:"id" json:"id"`
	StartDate  time.Time `db:"start_date" json:"start_date"`
	IsLocked   bool      `db:"is_locked" json:"is_locked"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	ModifiedAt time.Time `db:"modified_at" json:"modified_at"`
}

// PlannedMeal is a single day slot within a week plan. A nil RecipeID means
// the day has no meal; Note can annotate such days ("Eating out").
type PlannedMeal struct {
	ID         int64  `db:"id" json:"id"`
	WeekPlanID int64  `db:"week_plan_id" json:"week_plan_id"`
	DayOffset  int    `db:"day_offset" json:"day_offset"`
	RecipeID   *int64 `db:"recipe_id" json:"recipe_id,omitempty"`
	Note       string `db:"note" json:"note"`
}

// DayView is a planned meal joined with its recipe for display.
type DayView struct {
	PlannedMeal
	RecipeName *string `db:"recipe_name" json:"recipe_name,omitempty"`
	MealTypeID *int64  `db:"meal_type_id" json:"meal_type_id,omitempty"`
}

// Date returns the calendar date of a day slot.
func (d DayView) Date(plan WeekPlan) time.Time {
	return plan.StartDate.AddDate(0, 0, d.DayOffset)
}
