package recipe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"household-meal-planner/internal/catalog"
	"household-meal-planner/internal/database"
	"household-meal-planner/internal/planner"
)

type fixture struct {
	db      *database.DB
	repo    *Repository
	catalog *catalog.Repository
	plans   *planner.Repository

	mealType   *catalog.MealType
	onion      *catalog.Ingredient
	riceGrains *catalog.Ingredient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := database.NewTestDB(t)
	f := &fixture{
		db:      db,
		repo:    NewRepository(db.SQL),
		catalog: catalog.NewRepository(db.SQL),
		plans:   planner.NewRepository(db.SQL),
	}
	ctx := context.Background()

	var err error
	f.mealType, err = f.catalog.CreateMealType(ctx, "Rice", "#10B981")
	require.NoError(t, err)
	cat, err := f.catalog.CreateCategory(ctx, "Fruit & Veg")
	require.NoError(t, err)
	f.onion, err = f.catalog.CreateIngredient(ctx, catalog.Ingredient{Name: "Onion", CategoryID: cat.ID})
	require.NoError(t, err)
	f.riceGrains, err = f.catalog.CreateIngredient(ctx, catalog.Ingredient{Name: "Basmati Rice", CategoryID: cat.ID})
	require.NoError(t, err)
	return f
}

func (f *fixture) createRecipe(t *testing.T, name string) *Recipe {
	t.Helper()
	rec, err := f.repo.Create(context.Background(), Recipe{Name: name, MealTypeID: f.mealType.ID},
		[]IngredientLine{
			{IngredientID: f.onion.ID, Quantity: "1"},
			{IngredientID: f.riceGrains.ID, Quantity: "200g"},
		})
	require.NoError(t, err)
	return rec
}

func TestCreateAndGetRecipe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.createRecipe(t, "Chicken Curry")

	got, err := f.repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chicken Curry", got.Name)
	assert.Equal(t, f.mealType.ID, got.MealTypeID)

	lines, err := f.repo.Ingredients(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	// Ordered by ingredient name.
	assert.Equal(t, f.riceGrains.ID, lines[0].IngredientID)
	assert.Equal(t, f.onion.ID, lines[1].IngredientID)
}

func TestCreateRecipeInvalidDifficulty(t *testing.T) {
	f := newFixture(t)

	bad := 4
	_, err := f.repo.Create(context.Background(),
		Recipe{Name: "Too Hard", MealTypeID: f.mealType.ID, Difficulty: &bad}, nil)
	assert.ErrorIs(t, err, ErrInvalidDifficulty)
}

func TestUpdateReplacesIngredientLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.createRecipe(t, "Egg Fried Rice")

	rec.Name = "Special Fried Rice"
	err := f.repo.Update(ctx, *rec, []IngredientLine{
		{IngredientID: f.riceGrains.ID, Quantity: "300g"},
	})
	require.NoError(t, err)

	got, err := f.repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Special Fried Rice", got.Name)

	lines, err := f.repo.Ingredients(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "300g", lines[0].Quantity)
}

func TestUpdateTouchesDependentPlans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.createRecipe(t, "Chicken Curry")
	planned, err := f.plans.CreatePlan(ctx, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = f.plans.AssignMeal(ctx, planned.ID, 0, &rec.ID, "")
	require.NoError(t, err)

	other, err := f.plans.CreatePlan(ctx, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	before, err := f.plans.GetPlan(ctx, planned.ID)
	require.NoError(t, err)
	otherBefore, err := f.plans.GetPlan(ctx, other.ID)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, f.repo.Update(ctx, *rec, nil))

	after, err := f.plans.GetPlan(ctx, planned.ID)
	require.NoError(t, err)
	assert.True(t, after.ModifiedAt.After(before.ModifiedAt),
		"plan referencing the recipe should be touched")

	otherAfter, err := f.plans.GetPlan(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, otherAfter.ModifiedAt.Equal(otherBefore.ModifiedAt),
		"unrelated plan must not be touched")
}

func TestDeleteTouchesPlansAndDegradesDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.createRecipe(t, "Chicken Curry")
	planned, err := f.plans.CreatePlan(ctx, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = f.plans.AssignMeal(ctx, planned.ID, 3, &rec.ID, "")
	require.NoError(t, err)

	before, err := f.plans.GetPlan(ctx, planned.ID)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, f.repo.Delete(ctx, rec.ID))

	after, err := f.plans.GetPlan(ctx, planned.ID)
	require.NoError(t, err)
	assert.True(t, after.ModifiedAt.After(before.ModifiedAt))

	days, err := f.plans.Days(ctx, planned.ID)
	require.NoError(t, err)
	require.Len(t, days, planner.DaysPerPlan)
	assert.Nil(t, days[3].RecipeID, "day should fall back to unassigned")
}

func TestDuplicateRecipe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.createRecipe(t, "Chicken Curry")
	_, err := f.repo.ToggleFavourite(ctx, rec.ID)
	require.NoError(t, err)

	dup, err := f.repo.Duplicate(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chicken Curry COPY", dup.Name)
	assert.False(t, dup.IsFavourite, "copy must not inherit the favourite flag")
	assert.NotEqual(t, rec.ID, dup.ID)

	lines, err := f.repo.Ingredients(ctx, dup.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	curry := f.createRecipe(t, "Chicken Curry")
	f.createRecipe(t, "Egg Fried Rice")

	archived := f.createRecipe(t, "Old Standby")
	archived.IsArchived = true
	require.NoError(t, f.repo.Update(ctx, *archived, nil))

	active, err := f.repo.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	all, err := f.repo.List(ctx, Filter{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.repo.ToggleFavourite(ctx, curry.ID)
	require.NoError(t, err)
	favs, err := f.repo.List(ctx, Filter{FavouritesOnly: true})
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, curry.ID, favs[0].ID)

	search, err := f.repo.List(ctx, Filter{Search: "fried"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, "Egg Fried Rice", search[0].Name)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.createRecipe(t, "Chicken Curry")

	stats, err := f.repo.Stats(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TimesMade)
	assert.Nil(t, stats.LastMade)

	week1, err := f.plans.CreatePlan(ctx, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	week2, err := f.plans.CreatePlan(ctx, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = f.plans.AssignMeal(ctx, week1.ID, 1, &rec.ID, "")
	require.NoError(t, err)
	_, err = f.plans.AssignMeal(ctx, week2.ID, 4, &rec.ID, "")
	require.NoError(t, err)

	stats, err = f.repo.Stats(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TimesMade)
	require.NotNil(t, stats.LastMade)
	assert.Equal(t, time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC), stats.LastMade.UTC())
}
