package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"household-meal-planner/internal/recipe"
)

// recipeRequest is the write shape for recipes: the recipe fields plus its
// full set of ingredient lines (updates replace the set). A line names its
// ingredient either by ID or by name; unknown names resolve to a new
// ingredient when a category is supplied.
type recipeRequest struct {
	Name         string `json:"name"`
	MealTypeID   int64  `json:"meal_type_id"`
	Difficulty   *int   `json:"difficulty"`
	Instructions string `json:"instructions"`
	Reference    string `json:"reference"`
	IsArchived   bool   `json:"is_archived"`
	Ingredients  []struct {
		IngredientID int64  `json:"ingredient_id"`
		Name         string `json:"name"`
		CategoryID   *int64 `json:"category_id"`
		Quantity     string `json:"quantity"`
	} `json:"ingredients"`
}

func (s *Server) resolveLines(c echo.Context, req recipeRequest) ([]recipe.IngredientLine, error) {
	ctx := c.Request().Context()
	lines := make([]recipe.IngredientLine, 0, len(req.Ingredients))
	for _, l := range req.Ingredients {
		id := l.IngredientID
		if id == 0 {
			if l.Name == "" {
				return nil, echo.NewHTTPError(http.StatusBadRequest, "each ingredient line needs an ingredient_id or a name")
			}
			ing, err := s.catalog.ResolveIngredient(ctx, l.Name, l.CategoryID)
			if err != nil {
				return nil, err
			}
			id = ing.ID
		}
		lines = append(lines, recipe.IngredientLine{IngredientID: id, Quantity: l.Quantity})
	}
	return lines, nil
}

func (s *Server) handleListRecipes(c echo.Context) error {
	var filter recipe.Filter
	if v := c.QueryParam("meal_type"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MealTypeID = &id
		}
	}
	if v := c.QueryParam("difficulty"); v != "" {
		if d, err := strconv.Atoi(v); err == nil {
			filter.Difficulty = &d
		}
	}
	filter.FavouritesOnly = c.QueryParam("favourites") == "true"
	filter.IncludeArchived = c.QueryParam("archived") == "true"
	filter.Search = c.QueryParam("search")

	recipes, err := s.recipes.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, recipes)
}

func (s *Server) handleCreateRecipe(c echo.Context) error {
	var req recipeRequest
	if err := c.Bind(&req); err != nil || req.Name == "" || req.MealTypeID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "name and meal_type_id are required")
	}
	lines, err := s.resolveLines(c, req)
	if err != nil {
		if httpErr, ok := err.(*echo.HTTPError); ok {
			return httpErr
		}
		return respondError(c, err)
	}
	rec, err := s.recipes.Create(c.Request().Context(), recipe.Recipe{
		Name:         req.Name,
		MealTypeID:   req.MealTypeID,
		Difficulty:   req.Difficulty,
		Instructions: req.Instructions,
		Reference:    req.Reference,
		IsArchived:   req.IsArchived,
	}, lines)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

// recipeDetail bundles the recipe with its ingredient lines and derived
// usage stats.
type recipeDetail struct {
	recipe.Recipe
	Ingredients []recipe.IngredientLine `json:"ingredients"`
	Stats       recipe.Stats            `json:"stats"`
}

func (s *Server) handleGetRecipe(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	rec, err := s.recipes.Get(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	lines, err := s.recipes.Ingredients(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	stats, err := s.recipes.Stats(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, recipeDetail{Recipe: *rec, Ingredients: lines, Stats: *stats})
}

func (s *Server) handleUpdateRecipe(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req recipeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	rec := recipe.Recipe{
		ID:           id,
		Name:         req.Name,
		MealTypeID:   req.MealTypeID,
		Difficulty:   req.Difficulty,
		Instructions: req.Instructions,
		Reference:    req.Reference,
		IsArchived:   req.IsArchived,
	}
	lines, err := s.resolveLines(c, req)
	if err != nil {
		if httpErr, ok := err.(*echo.HTTPError); ok {
			return httpErr
		}
		return respondError(c, err)
	}
	if err := s.recipes.Update(c.Request().Context(), rec, lines); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleDeleteRecipe(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.recipes.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleDuplicateRecipe(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	dup, err := s.recipes.Duplicate(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dup)
}

func (s *Server) handleToggleFavourite(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	fav, err := s.recipes.ToggleFavourite(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"is_favourite": fav})
}
