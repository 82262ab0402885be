package shopping

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"household-meal-planner/internal/catalog"
	"household-meal-planner/internal/database"
	"household-meal-planner/internal/planner"
	"household-meal-planner/internal/recipe"
)

// fixture seeds a small household: two recipes over a week plan, a default
// store with Dairy ranked before Bakery, and one pantry staple.
type fixture struct {
	db      *database.DB
	repo    *Repository
	gen     *Generator
	catalog *catalog.Repository
	recipes *recipe.Repository
	plans   *planner.Repository

	dairy  *catalog.ShoppingCategory
	bakery *catalog.ShoppingCategory
	tesco  *catalog.Store

	milk   *catalog.Ingredient
	cheese *catalog.Ingredient
	bread  *catalog.Ingredient
	salt   *catalog.Ingredient

	curry *recipe.Recipe
	pasta *recipe.Recipe
	plan  *planner.WeekPlan
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := database.NewTestDB(t)
	f := &fixture{
		db:      db,
		repo:    NewRepository(db.SQL),
		gen:     NewGenerator(db.SQL, zap.NewNop()),
		catalog: catalog.NewRepository(db.SQL),
		recipes: recipe.NewRepository(db.SQL),
		plans:   planner.NewRepository(db.SQL),
	}
	ctx := context.Background()

	var err error
	f.dairy, err = f.catalog.CreateCategory(ctx, "Dairy")
	require.NoError(t, err)
	f.bakery, err = f.catalog.CreateCategory(ctx, "Bakery")
	require.NoError(t, err)

	f.tesco, err = f.catalog.CreateStore(ctx, "Tesco", true)
	require.NoError(t, err)
	require.NoError(t, f.catalog.SetCategoryOrder(ctx, f.tesco.ID, []catalog.CategoryRank{
		{CategoryID: f.dairy.ID, SortOrder: 1},
		{CategoryID: f.bakery.ID, SortOrder: 2},
	}))

	f.milk, err = f.catalog.CreateIngredient(ctx, catalog.Ingredient{Name: "Milk", CategoryID: f.dairy.ID})
	require.NoError(t, err)
	f.cheese, err = f.catalog.CreateIngredient(ctx, catalog.Ingredient{Name: "Cheese", CategoryID: f.dairy.ID})
	require.NoError(t, err)
	f.bread, err = f.catalog.CreateIngredient(ctx, catalog.Ingredient{Name: "Bread", CategoryID: f.bakery.ID})
	require.NoError(t, err)
	f.salt, err = f.catalog.CreateIngredient(ctx, catalog.Ingredient{Name: "Salt", CategoryID: f.dairy.ID, IsPantryStaple: true})
	require.NoError(t, err)

	mealType, err := f.catalog.CreateMealType(ctx, "Rice", "")
	require.NoError(t, err)

	f.curry, err = f.recipes.Create(ctx, recipe.Recipe{Name: "Chicken Curry", MealTypeID: mealType.ID},
		[]recipe.IngredientLine{
			{IngredientID: f.milk.ID, Quantity: "200ml"},
			{IngredientID: f.salt.ID, Quantity: "pinch"},
			{IngredientID: f.bread.ID, Quantity: "1 loaf"},
		})
	require.NoError(t, err)
	f.pasta, err = f.recipes.Create(ctx, recipe.Recipe{Name: "Mac and Cheese", MealTypeID: mealType.ID},
		[]recipe.IngredientLine{
			{IngredientID: f.milk.ID, Quantity: "one splash"},
			{IngredientID: f.cheese.ID, Quantity: "100g"},
		})
	require.NoError(t, err)

	f.plan, err = f.plans.CreatePlan(ctx, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = f.plans.AssignMeal(ctx, f.plan.ID, 0, &f.curry.ID, "")
	require.NoError(t, err)
	_, err = f.plans.AssignMeal(ctx, f.plan.ID, 1, &f.pasta.ID, "")
	require.NoError(t, err)

	return f
}

func (f *fixture) generate(t *testing.T) *ShoppingList {
	t.Helper()
	list, err := f.gen.Generate(context.Background(), f.plan.ID, nil)
	require.NoError(t, err)
	return list
}
