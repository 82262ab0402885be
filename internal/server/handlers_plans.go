package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"household-meal-planner/internal/planner"
)

func (s *Server) handleListPlans(c echo.Context) error {
	plans, err := s.plans.ListPlans(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, plans)
}

func (s *Server) handleCreatePlan(c echo.Context) error {
	var req struct {
		StartDate string `json:"start_date"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "start_date must be YYYY-MM-DD")
	}
	plan, err := s.plans.CreatePlan(c.Request().Context(), start)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, plan)
}

// planDetail bundles a plan with its seven day slots.
type planDetail struct {
	planner.WeekPlan
	Days []planner.DayView `json:"days"`
}

func (s *Server) handleGetPlan(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	plan, err := s.plans.GetPlan(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	days, err := s.plans.Days(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, planDetail{WeekPlan: *plan, Days: days})
}

func (s *Server) handleDeletePlan(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.plans.DeletePlan(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleToggleLock(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	locked, err := s.plans.ToggleLock(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"is_locked": locked})
}

// handleShufflePlan fills a plan's week with randomized assignments and
// returns the resulting day slots.
func (s *Server) handleShufflePlan(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	grouped, err := s.recipes.ListByMealType(ctx)
	if err != nil {
		return respondError(c, err)
	}
	byType := make(map[int64][]planner.Candidate, len(grouped))
	for typeID, recipes := range grouped {
		for _, rec := range recipes {
			byType[typeID] = append(byType[typeID], planner.Candidate{
				RecipeID:   rec.ID,
				Name:       rec.Name,
				MealTypeID: rec.MealTypeID,
			})
		}
	}

	s.rngMu.Lock()
	assignments := planner.Shuffle(byType, planner.DaysPerPlan, s.rng)
	s.rngMu.Unlock()

	if err := s.plans.ApplyShuffle(ctx, id, assignments); err != nil {
		return respondError(c, err)
	}

	days, err := s.plans.Days(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, days)
}

func (s *Server) handleAssignMeal(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	day, err := pathID(c, "day")
	if err != nil {
		return err
	}
	var req struct {
		RecipeID *int64 `json:"recipe_id"`
		Note     string `json:"note"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	meal, err := s.plans.AssignMeal(c.Request().Context(), id, int(day), req.RecipeID, req.Note)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, meal)
}

func (s *Server) handleClearDay(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	day, err := pathID(c, "day")
	if err != nil {
		return err
	}
	if err := s.plans.ClearDay(c.Request().Context(), id, int(day)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
