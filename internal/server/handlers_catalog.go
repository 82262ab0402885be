package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"household-meal-planner/internal/catalog"
)

func (s *Server) handleListMealTypes(c echo.Context) error {
	types, err := s.catalog.ListMealTypes(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, types)
}

func (s *Server) handleCreateMealType(c echo.Context) error {
	var req struct {
		Name   string `json:"name"`
		Colour string `json:"colour"`
	}
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	mt, err := s.catalog.CreateMealType(c.Request().Context(), req.Name, req.Colour)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, mt)
}

func (s *Server) handleListCategories(c echo.Context) error {
	cats, err := s.catalog.ListCategories(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	cat, err := s.catalog.CreateCategory(c.Request().Context(), req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (s *Server) handleListStores(c echo.Context) error {
	stores, err := s.catalog.ListStores(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stores)
}

func (s *Server) handleCreateStore(c echo.Context) error {
	var req struct {
		Name      string `json:"name"`
		IsDefault bool   `json:"is_default"`
	}
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	store, err := s.catalog.CreateStore(c.Request().Context(), req.Name, req.IsDefault)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, store)
}

func (s *Server) handleUpdateStore(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if err := s.catalog.UpdateStore(c.Request().Context(), id, req.Name); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleDeleteStore(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.catalog.DeleteStore(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSetDefaultStore(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.catalog.SetDefaultStore(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSetCategoryOrder(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Ranks []catalog.CategoryRank `json:"ranks"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.catalog.SetCategoryOrder(c.Request().Context(), id, req.Ranks); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleListIngredients(c echo.Context) error {
	var filter catalog.IngredientFilter
	if v := c.QueryParam("category"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.CategoryID = &id
		}
	}
	switch c.QueryParam("pantry") {
	case "yes":
		yes := true
		filter.PantryStaple = &yes
	case "no":
		no := false
		filter.PantryStaple = &no
	}
	filter.Search = c.QueryParam("search")

	ings, err := s.catalog.ListIngredients(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, ings)
}

func (s *Server) handleCreateIngredient(c echo.Context) error {
	var req catalog.Ingredient
	if err := c.Bind(&req); err != nil || req.Name == "" || req.CategoryID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "name and category_id are required")
	}
	ing, err := s.catalog.CreateIngredient(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, ing)
}

func (s *Server) handleGetIngredient(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ing, err := s.catalog.GetIngredient(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, ing)
}

func (s *Server) handleUpdateIngredient(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req catalog.Ingredient
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.ID = id
	if err := s.catalog.UpdateIngredient(c.Request().Context(), req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

func (s *Server) handleDeleteIngredient(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.catalog.DeleteIngredient(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
