package shopping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"household-meal-planner/internal/catalog"
	"household-meal-planner/internal/database"
)

func TestClearCheckedRemovesOnlyChecked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list := f.generate(t)
	items, err := f.repo.SortedItems(ctx, list.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)

	// Check two of three.
	for _, item := range items[:2] {
		checked, err := f.repo.ToggleChecked(ctx, item.ID)
		require.NoError(t, err)
		require.True(t, checked)
	}

	removed, err := f.repo.ClearChecked(ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	remaining, err := f.repo.SortedItems(ctx, list.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.False(t, remaining[0].IsChecked)

	// Nothing left to clear.
	removed, err = f.repo.ClearChecked(ctx, list.ID)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestClearCheckedUnknownList(t *testing.T) {
	f := newFixture(t)

	_, err := f.repo.ClearChecked(context.Background(), 9999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestToggleCheckedRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list := f.generate(t)
	items, err := f.repo.SortedItems(ctx, list.ID)
	require.NoError(t, err)

	checked, err := f.repo.ToggleChecked(ctx, items[0].ID)
	require.NoError(t, err)
	assert.True(t, checked)

	checked, err = f.repo.ToggleChecked(ctx, items[0].ID)
	require.NoError(t, err)
	assert.False(t, checked)
}

func TestToggleStarred(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list := f.generate(t)
	items, err := f.repo.SortedItems(ctx, list.ID)
	require.NoError(t, err)

	starred, err := f.repo.ToggleStarred(ctx, items[0].ID)
	require.NoError(t, err)
	assert.True(t, starred)

	_, err = f.repo.ToggleStarred(ctx, 9999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestMoveItemPreservesAttributes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list := f.generate(t)
	items, err := f.repo.SortedItems(ctx, list.ID)
	require.NoError(t, err)
	source := items[0]

	_, err = f.repo.ToggleChecked(ctx, source.ID)
	require.NoError(t, err)
	_, err = f.repo.ToggleStarred(ctx, source.ID)
	require.NoError(t, err)

	dest, err := f.repo.CreateManualList(ctx, "Next week", nil)
	require.NoError(t, err)

	moved, err := f.repo.MoveItem(ctx, source.ID, dest.ID)
	require.NoError(t, err)
	assert.Equal(t, dest.ID, moved.ShoppingListID)
	assert.Equal(t, source.Name, moved.Name)
	assert.Equal(t, source.Quantities, moved.Quantities)
	assert.True(t, moved.IsChecked)
	assert.True(t, moved.IsStarred)

	destItems, err := f.repo.SortedItems(ctx, dest.ID)
	require.NoError(t, err)
	require.Len(t, destItems, 1)
	assert.Equal(t, source.ID, destItems[0].ID)
}

func TestMoveItemRejectsSameList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list := f.generate(t)
	items, err := f.repo.SortedItems(ctx, list.ID)
	require.NoError(t, err)

	_, err = f.repo.MoveItem(ctx, items[0].ID, list.ID)
	assert.ErrorIs(t, err, ErrSameList)

	_, err = f.repo.MoveItem(ctx, items[0].ID, 9999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestAddManualItemResolvesIngredientCaseInsensitively(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list, err := f.repo.CreateManualList(ctx, "Quick run", &f.tesco.ID)
	require.NoError(t, err)

	item, err := f.repo.AddManualItem(ctx, list.ID, "milk", nil, "2 pints")
	require.NoError(t, err)

	// Canonical name and category win over the typed form.
	assert.Equal(t, "Milk", item.Name)
	require.NotNil(t, item.IngredientID)
	assert.Equal(t, f.milk.ID, *item.IngredientID)
	require.NotNil(t, item.CategoryID)
	assert.Equal(t, f.dairy.ID, *item.CategoryID)
	assert.True(t, item.IsManual)
	assert.False(t, item.IsPantryOverride)
}

func TestAddManualItemPantryStapleOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list, err := f.repo.CreateManualList(ctx, "Quick run", nil)
	require.NoError(t, err)

	// Pantry staples never enter generated lists, but a deliberate manual
	// add is honoured and flagged.
	item, err := f.repo.AddManualItem(ctx, list.ID, "Salt", nil, "")
	require.NoError(t, err)
	assert.True(t, item.IsPantryOverride)
}

func TestAddManualItemCreatesIngredient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list, err := f.repo.CreateManualList(ctx, "Quick run", nil)
	require.NoError(t, err)

	item, err := f.repo.AddManualItem(ctx, list.ID, "Sourdough", &f.bakery.ID, "1")
	require.NoError(t, err)
	require.NotNil(t, item.IngredientID)

	created, err := f.catalog.GetIngredient(ctx, *item.IngredientID)
	require.NoError(t, err)
	assert.Equal(t, "Sourdough", created.Name)
	assert.Equal(t, f.bakery.ID, created.CategoryID)
	assert.False(t, created.IsPantryStaple, "ad hoc ingredients are never staples")
}

func TestAddManualItemRequiresCategoryForNewIngredient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list, err := f.repo.CreateManualList(ctx, "Quick run", nil)
	require.NoError(t, err)

	_, err = f.repo.AddManualItem(ctx, list.ID, "Dragon Fruit", nil, "2")
	assert.ErrorIs(t, err, ErrCategoryRequired)

	missing := int64(9999)
	_, err = f.repo.AddManualItem(ctx, list.ID, "Dragon Fruit", &missing, "2")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestCreateManualListBecomesActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	generated := f.generate(t)
	manual, err := f.repo.CreateManualList(ctx, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Shopping List", manual.Name)

	active, err := f.repo.ActiveList(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, manual.ID, active.ID)

	prior, err := f.repo.GetList(ctx, generated.ID)
	require.NoError(t, err)
	assert.False(t, prior.IsActive)
}

func TestChangeStoreResorts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list := f.generate(t)

	// A store ordering Bakery before Dairy flips the display order.
	aldi, err := f.catalog.CreateStore(ctx, "Aldi", false)
	require.NoError(t, err)
	require.NoError(t, f.catalog.SetCategoryOrder(ctx, aldi.ID, []catalog.CategoryRank{
		{CategoryID: f.bakery.ID, SortOrder: 1},
		{CategoryID: f.dairy.ID, SortOrder: 2},
	}))

	require.NoError(t, f.repo.ChangeStore(ctx, list.ID, aldi.ID))

	items, err := f.repo.SortedItems(ctx, list.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Bread", items[0].Name)
	assert.Equal(t, "Cheese", items[1].Name)
	assert.Equal(t, "Milk", items[2].Name)
}

func TestChangeStoreUnknownStore(t *testing.T) {
	f := newFixture(t)

	list := f.generate(t)
	err := f.repo.ChangeStore(context.Background(), list.ID, 9999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRefreshItemsResyncsFromIngredient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list := f.generate(t)

	renamed := *f.milk
	renamed.Name = "Whole Milk"
	renamed.CategoryID = f.bakery.ID
	require.NoError(t, f.catalog.UpdateIngredient(ctx, renamed))

	require.NoError(t, f.repo.RefreshItems(ctx, list.ID))

	items, err := f.repo.SortedItems(ctx, list.ID)
	require.NoError(t, err)
	found := itemByName(t, items, "Whole Milk")
	require.NotNil(t, found.CategoryID)
	assert.Equal(t, f.bakery.ID, *found.CategoryID)
}

func TestDeleteListCascadesItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list := f.generate(t)
	require.NoError(t, f.repo.DeleteList(ctx, list.ID))

	_, err := f.repo.GetList(ctx, list.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	var count int
	require.NoError(t, f.db.SQL.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM shopping_list_items WHERE shopping_list_id = ?`, list.ID))
	assert.Zero(t, count)

	assert.ErrorIs(t, f.repo.DeleteList(ctx, list.ID), database.ErrNotFound)
}
