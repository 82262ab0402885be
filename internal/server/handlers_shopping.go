package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"household-meal-planner/internal/shopping"
)

func (s *Server) handleGenerateList(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		StoreID *int64 `json:"store_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	list, err := s.gen.Generate(c.Request().Context(), id, req.StoreID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, list)
}

func (s *Server) handleListShoppingLists(c echo.Context) error {
	lists, err := s.lists.ListLists(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, lists)
}

func (s *Server) handleCreateManualList(c echo.Context) error {
	var req struct {
		Name    string `json:"name"`
		StoreID *int64 `json:"store_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	list, err := s.lists.CreateManualList(c.Request().Context(), req.Name, req.StoreID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, list)
}

// listDetail is a shopping list with its items in display order plus the
// staleness verdict. ShowNotice is per-session: stale but dismissed for this
// exact plan revision stays hidden until the plan changes again.
type listDetail struct {
	shopping.ShoppingList
	Items      []shopping.ItemView `json:"items"`
	IsStale    bool                `json:"is_stale"`
	ShowNotice bool                `json:"show_notice"`
}

func (s *Server) handleGetShoppingList(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	list, err := s.lists.GetList(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	items, err := s.lists.SortedItems(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	stale, err := s.lists.Staleness(ctx, id)
	if err != nil {
		return respondError(c, err)
	}

	detail := listDetail{ShoppingList: *list, Items: items, IsStale: stale}
	if stale && list.WeekPlanID != nil {
		plan, err := s.plans.GetPlan(ctx, *list.WeekPlanID)
		if err != nil {
			return respondError(c, err)
		}
		detail.ShowNotice = !s.notices.Suppressed(sessionID(c), id, plan.ModifiedAt)
	}
	return c.JSON(http.StatusOK, detail)
}

func (s *Server) handleDeleteShoppingList(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.lists.DeleteList(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	s.notices.ForgetList(id)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleAddManualItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Name       string `json:"name"`
		CategoryID *int64 `json:"category_id"`
		Quantity   string `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	item, err := s.lists.AddManualItem(c.Request().Context(), id, req.Name, req.CategoryID, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (s *Server) handleClearChecked(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	count, err := s.lists.ClearChecked(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"removed": count})
}

func (s *Server) handleChangeListStore(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		StoreID int64 `json:"store_id"`
	}
	if err := c.Bind(&req); err != nil || req.StoreID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "store_id is required")
	}
	if err := s.lists.ChangeStore(c.Request().Context(), id, req.StoreID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleDismissNotice records that this session has seen the stale notice for
// the plan's current revision. A later plan edit moves modified_at forward and
// the notice reappears.
func (s *Server) handleDismissNotice(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	list, err := s.lists.GetList(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	if list.WeekPlanID == nil {
		return c.NoContent(http.StatusNoContent)
	}
	plan, err := s.plans.GetPlan(ctx, *list.WeekPlanID)
	if err != nil {
		return respondError(c, err)
	}
	s.notices.Dismiss(sessionID(c), id, plan.ModifiedAt)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleToggleItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	checked, err := s.lists.ToggleChecked(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"is_checked": checked})
}

func (s *Server) handleStarItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	starred, err := s.lists.ToggleStarred(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"is_starred": starred})
}

func (s *Server) handleMoveItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		ListID int64 `json:"list_id"`
	}
	if err := c.Bind(&req); err != nil || req.ListID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "list_id is required")
	}
	item, err := s.lists.MoveItem(c.Request().Context(), id, req.ListID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}
