package planner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"household-meal-planner/internal/database"
)

// ErrInvalidDayOffset is returned for day offsets outside 0-6.
var ErrInvalidDayOffset = errors.New("day offset must be between 0 and 6")

// ErrPlanLocked is returned when mutating a locked plan's meals.
var ErrPlanLocked = errors.New("plan is locked")

// ErrDuplicateStartDate is returned when a plan already exists for the week.
var ErrDuplicateStartDate = errors.New("a plan already exists for this start date")

// Repository is a database-backed repository for week plans.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// CreatePlan inserts a week plan with its seven empty day slots.
func (r *Repository) CreatePlan(ctx context.Context, startDate time.Time) (*WeekPlan, error) {
	startDate = startDate.UTC().Truncate(24 * time.Hour)
	now := time.Now().UTC()
	plan := WeekPlan{StartDate: startDate, CreatedAt: now, ModifiedAt: now}

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var existing int
		if err := tx.GetContext(ctx, &existing,
			`SELECT COUNT(*) FROM week_plans WHERE start_date = ?`, startDate); err != nil {
			return fmt.Errorf("failed to check start date: %w", err)
		}
		if existing > 0 {
			return ErrDuplicateStartDate
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO week_plans (start_date, is_locked, created_at, modified_at) VALUES (?, 0, ?, ?)`,
			startDate, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert week plan: %w", err)
		}
		plan.ID, _ = res.LastInsertId()

		for day := 0; day < DaysPerPlan; day++ {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO planned_meals (week_plan_id, day_offset) VALUES (?, ?)`,
				plan.ID, day); err != nil {
				return fmt.Errorf("failed to insert day slot %d: %w", day, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetPlan retrieves a week plan by ID.
func (r *Repository) GetPlan(ctx context.Context, id int64) (*WeekPlan, error) {
	var plan WeekPlan
	err := r.db.GetContext(ctx, &plan, `SELECT * FROM week_plans WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get week plan: %w", err)
	}
	return &plan, nil
}

// ListPlans returns all week plans, most recent first.
func (r *Repository) ListPlans(ctx context.Context) ([]WeekPlan, error) {
	var plans []WeekPlan
	if err := r.db.SelectContext(ctx, &plans,
		`SELECT * FROM week_plans ORDER BY start_date DESC`); err != nil {
		return nil, fmt.Errorf("failed to list week plans: %w", err)
	}
	return plans, nil
}

// DeletePlan removes a plan and, via cascade, its planned meals. Shopping
// lists generated from it survive with a null plan link.
func (r *Repository) DeletePlan(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM week_plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete week plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return database.ErrNotFound
	}
	return nil
}

// ToggleLock flips the lock flag and returns the new state.
func (r *Repository) ToggleLock(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE week_plans SET is_locked = NOT is_locked WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to toggle lock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, database.ErrNotFound
	}
	var locked bool
	if err := r.db.GetContext(ctx, &locked,
		`SELECT is_locked FROM week_plans WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("failed to read lock flag: %w", err)
	}
	return locked, nil
}

// Days returns the plan's seven day slots with recipe details joined in.
func (r *Repository) Days(ctx context.Context, planID int64) ([]DayView, error) {
	var days []DayView
	err := r.db.SelectContext(ctx, &days,
		`SELECT pm.id, pm.week_plan_id, pm.day_offset, pm.recipe_id, pm.note,
		        r.name AS recipe_name, r.meal_type_id
		 FROM planned_meals pm
		 LEFT JOIN recipes r ON r.id = pm.recipe_id
		 WHERE pm.week_plan_id = ?
		 ORDER BY pm.day_offset`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan days: %w", err)
	}
	return days, nil
}

// AssignMeal sets a day slot to a recipe, or to a recipe-less note when
// recipeID is nil. Assigning clears any previous note; clearing keeps the
// slot row so the seven-slot invariant holds.
func (r *Repository) AssignMeal(ctx context.Context, planID int64, dayOffset int, recipeID *int64, note string) (*PlannedMeal, error) {
	if dayOffset < 0 || dayOffset >= DaysPerPlan {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidDayOffset, dayOffset)
	}

	var meal PlannedMeal
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		plan, err := getPlanTx(ctx, tx, planID)
		if err != nil {
			return err
		}
		if plan.IsLocked {
			return ErrPlanLocked
		}

		if recipeID != nil {
			var exists int
			if err := tx.GetContext(ctx, &exists,
				`SELECT COUNT(*) FROM recipes WHERE id = ?`, *recipeID); err != nil {
				return fmt.Errorf("failed to check recipe: %w", err)
			}
			if exists == 0 {
				return database.ErrNotFound
			}
			note = ""
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE planned_meals SET recipe_id = ?, note = ? WHERE week_plan_id = ? AND day_offset = ?`,
			recipeID, note, planID, dayOffset); err != nil {
			return fmt.Errorf("failed to assign meal: %w", err)
		}
		if err := touchPlanTx(ctx, tx, planID); err != nil {
			return err
		}
		return tx.GetContext(ctx, &meal,
			`SELECT id, week_plan_id, day_offset, recipe_id, note
			 FROM planned_meals WHERE week_plan_id = ? AND day_offset = ?`, planID, dayOffset)
	})
	if err != nil {
		return nil, err
	}
	return &meal, nil
}

// ClearDay empties a day slot.
func (r *Repository) ClearDay(ctx context.Context, planID int64, dayOffset int) error {
	_, err := r.AssignMeal(ctx, planID, dayOffset, nil, "")
	return err
}

// ApplyShuffle persists shuffle engine output, replacing every day slot's
// assignment in one transaction and advancing modified_at.
func (r *Repository) ApplyShuffle(ctx context.Context, planID int64, assignments []Assignment) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		plan, err := getPlanTx(ctx, tx, planID)
		if err != nil {
			return err
		}
		if plan.IsLocked {
			return ErrPlanLocked
		}

		for _, a := range assignments {
			if a.DayOffset < 0 || a.DayOffset >= DaysPerPlan {
				return fmt.Errorf("%w, got %d", ErrInvalidDayOffset, a.DayOffset)
			}
			var recipeID *int64
			if a.Recipe != nil {
				recipeID = &a.Recipe.RecipeID
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE planned_meals SET recipe_id = ?, note = '' WHERE week_plan_id = ? AND day_offset = ?`,
				recipeID, planID, a.DayOffset); err != nil {
				return fmt.Errorf("failed to apply assignment for day %d: %w", a.DayOffset, err)
			}
		}
		return touchPlanTx(ctx, tx, planID)
	})
}

func getPlanTx(ctx context.Context, tx *sqlx.Tx, id int64) (*WeekPlan, error) {
	var plan WeekPlan
	err := tx.GetContext(ctx, &plan, `SELECT * FROM week_plans WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get week plan: %w", err)
	}
	return &plan, nil
}

func touchPlanTx(ctx context.Context, tx *sqlx.Tx, id int64) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE week_plans SET modified_at = ? WHERE id = ?`, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to touch week plan: %w", err)
	}
	return nil
}
