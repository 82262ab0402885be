// Package server exposes the meal planner operations as an HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"household-meal-planner/internal/catalog"
	"household-meal-planner/internal/database"
	"household-meal-planner/internal/planner"
	"household-meal-planner/internal/recipe"
	"household-meal-planner/internal/shopping"
)

// sessionHeader carries the client's session identity, used only for
// stale-notice dismissal. The server mints one when absent and echoes it back
// so polling clients converge on a stable identity.
const sessionHeader = "X-Session-ID"

// Config holds the HTTP listener settings.
type Config struct {
	Host string
	Port int
}

// Server wires the repositories behind the HTTP API.
type Server struct {
	echo   *echo.Echo
	logger *zap.Logger
	config Config

	// rand.Rand is not safe for concurrent use; handlers take rngMu
	// before drawing from it.
	rngMu sync.Mutex
	rng   *rand.Rand

	catalog *catalog.Repository
	recipes *recipe.Repository
	plans   *planner.Repository
	lists   *shopping.Repository
	gen     *shopping.Generator
	notices *shopping.NoticeBoard
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(db *database.DB, logger *zap.Logger, cfg Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(sessionMiddleware)
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		}
	})

	s := &Server{
		echo:    e,
		logger:  logger,
		config:  cfg,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		catalog: catalog.NewRepository(db.SQL),
		recipes: recipe.NewRepository(db.SQL),
		plans:   planner.NewRepository(db.SQL),
		lists:   shopping.NewRepository(db.SQL),
		gen:     shopping.NewGenerator(db.SQL, logger),
		notices: shopping.NewNoticeBoard(),
	}
	s.registerRoutes()
	return s
}

func sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session := c.Request().Header.Get(sessionHeader)
		if session == "" {
			session = uuid.NewString()
		}
		c.Set("session", session)
		c.Response().Header().Set(sessionHeader, session)
		return next(c)
	}
}

func sessionID(c echo.Context) string {
	session, _ := c.Get("session").(string)
	return session
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	v1 := s.echo.Group("/api/v1")

	v1.GET("/meal-types", s.handleListMealTypes)
	v1.POST("/meal-types", s.handleCreateMealType)

	v1.GET("/categories", s.handleListCategories)
	v1.POST("/categories", s.handleCreateCategory)

	v1.GET("/stores", s.handleListStores)
	v1.POST("/stores", s.handleCreateStore)
	v1.PUT("/stores/:id", s.handleUpdateStore)
	v1.DELETE("/stores/:id", s.handleDeleteStore)
	v1.POST("/stores/:id/default", s.handleSetDefaultStore)
	v1.PUT("/stores/:id/category-order", s.handleSetCategoryOrder)

	v1.GET("/ingredients", s.handleListIngredients)
	v1.POST("/ingredients", s.handleCreateIngredient)
	v1.GET("/ingredients/:id", s.handleGetIngredient)
	v1.PUT("/ingredients/:id", s.handleUpdateIngredient)
	v1.DELETE("/ingredients/:id", s.handleDeleteIngredient)

	v1.GET("/recipes", s.handleListRecipes)
	v1.POST("/recipes", s.handleCreateRecipe)
	v1.GET("/recipes/:id", s.handleGetRecipe)
	v1.PUT("/recipes/:id", s.handleUpdateRecipe)
	v1.DELETE("/recipes/:id", s.handleDeleteRecipe)
	v1.POST("/recipes/:id/duplicate", s.handleDuplicateRecipe)
	v1.POST("/recipes/:id/favourite", s.handleToggleFavourite)

	v1.GET("/plans", s.handleListPlans)
	v1.POST("/plans", s.handleCreatePlan)
	v1.GET("/plans/:id", s.handleGetPlan)
	v1.DELETE("/plans/:id", s.handleDeletePlan)
	v1.POST("/plans/:id/lock", s.handleToggleLock)
	v1.POST("/plans/:id/shuffle", s.handleShufflePlan)
	v1.PUT("/plans/:id/meals/:day", s.handleAssignMeal)
	v1.DELETE("/plans/:id/meals/:day", s.handleClearDay)
	v1.POST("/plans/:id/shopping-list", s.handleGenerateList)

	v1.GET("/shopping-lists", s.handleListShoppingLists)
	v1.POST("/shopping-lists", s.handleCreateManualList)
	v1.GET("/shopping-lists/:id", s.handleGetShoppingList)
	v1.DELETE("/shopping-lists/:id", s.handleDeleteShoppingList)
	v1.POST("/shopping-lists/:id/items", s.handleAddManualItem)
	v1.POST("/shopping-lists/:id/clear-checked", s.handleClearChecked)
	v1.POST("/shopping-lists/:id/store", s.handleChangeListStore)
	v1.POST("/shopping-lists/:id/dismiss-notice", s.handleDismissNotice)

	v1.POST("/items/:id/toggle", s.handleToggleItem)
	v1.POST("/items/:id/star", s.handleStarItem)
	v1.POST("/items/:id/move", s.handleMoveItem)
}

// errorResponse is the structured failure body: a human reason plus a stable
// code callers can branch on.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// respondError maps domain errors onto the HTTP taxonomy: not-found 404,
// conflicts 409, validation failures 400.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, catalog.ErrIngredientInUse):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error(), Code: "ingredient_in_use"})
	case errors.Is(err, catalog.ErrDuplicateName):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error(), Code: "duplicate_name"})
	case errors.Is(err, planner.ErrDuplicateStartDate):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error(), Code: "duplicate_start_date"})
	case errors.Is(err, planner.ErrPlanLocked):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error(), Code: "plan_locked"})
	case errors.Is(err, catalog.ErrCategoryRequired):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "category_required"})
	case errors.Is(err, shopping.ErrCategoryRequired):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "category_required"})
	case errors.Is(err, shopping.ErrSameList):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "same_list"})
	case errors.Is(err, planner.ErrInvalidDayOffset):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid_day_offset"})
	case errors.Is(err, recipe.ErrInvalidDifficulty):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid_difficulty"})
	default:
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
