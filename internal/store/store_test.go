package store

import (
	"context"
	"os"
	"testing"

	"stock-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore connects to TEST_DATABASE_URL and applies the schema.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Integration test - set TEST_DATABASE_URL")
	}

	store, err := NewStore(url)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func newTestItem(t *testing.T, s *Store, name string, usable int) (*models.InventoryItem, *models.Batch) {
	t.Helper()
	ctx := context.Background()

	category, err := s.GetCategoryByName(ctx, models.CategoryConsumable)
	require.NoError(t, err)
	require.NotNil(t, category)

	item := &models.InventoryItem{
		ItemID:       "ITEM-" + uuid.NewString()[:8],
		ItemName:     name,
		CategoryID:   category.ID,
		UnitMeasure:  "pcs",
		CurrentStock: usable,
		ReorderLevel: 3,
		Status:       models.ItemStatusAvailable,
		CreatedBy:    1,
	}
	batch := &models.Batch{
		BatchID:        "BAT-" + uuid.NewString()[:8],
		UsableQuantity: usable,
		CreatedBy:      1,
	}
	require.NoError(t, s.CreateItemWithBatch(ctx, item, batch))
	return item, batch
}

// batchesOf returns every batch of an item, deleted or not.
func batchesOf(t *testing.T, s *Store, itemID string) []models.Batch {
	t.Helper()
	var batches []models.Batch
	err := s.db.SelectContext(context.Background(), &batches,
		"SELECT "+batchColumns+" FROM batches WHERE item_id = $1 ORDER BY date_created", itemID)
	require.NoError(t, err)
	return batches
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := openTestStore(t)

	assert.NoError(t, store.Migrate(context.Background()))
}

func TestCreateAndMergeBatch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	name := "Gloves " + uuid.NewString()

	item, batch := newTestItem(t, store, name, 10)
	assert.Equal(t, item.ItemID, batch.ItemID)
	assert.False(t, item.DateCreated.IsZero())

	found, err := store.FindLiveItemByName(ctx, name)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 10, found.CurrentStock)

	second := &models.Batch{BatchID: "BAT-" + uuid.NewString()[:8], UsableQuantity: 5, DefectiveQuantity: 2, CreatedBy: 1}
	updated, err := store.AddBatchToItem(ctx, item.ItemID, StockMerge{
		Usable:       5,
		ReorderLevel: 7,
		Status:       models.ItemStatusLowStock,
	}, second)
	require.NoError(t, err)
	assert.Equal(t, 15, updated.CurrentStock)
	assert.Equal(t, 7, updated.ReorderLevel)
	assert.Equal(t, models.ItemStatusLowStock, updated.Status)
	assert.NotNil(t, updated.DateUpdated)

	assert.Len(t, batchesOf(t, store, item.ItemID), 2)
}

func TestSoftDeleteHidesItem(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	name := "Drill " + uuid.NewString()

	item, _ := newTestItem(t, store, name, 4)

	deleted, err := store.SoftDeleteItem(ctx, item.ItemID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)

	found, err := store.FindLiveItemByName(ctx, name)
	require.NoError(t, err)
	assert.Nil(t, found)

	summary, err := store.FindLiveItemSummary(ctx, name)
	require.NoError(t, err)
	assert.Nil(t, summary)

	count, err := store.CountDeletedItemsByName(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	n, err := store.SoftDeleteBatchesByItem(ctx, item.ItemID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.AddBatchToItem(ctx, item.ItemID, StockMerge{Usable: 1, Status: models.ItemStatusAvailable},
		&models.Batch{BatchID: "BAT-" + uuid.NewString()[:8], CreatedBy: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotFoundErrors(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.UpdateItemThreshold(ctx, "ITEM-missing", 1, models.ItemStatusAvailable)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.SoftDeleteItem(ctx, "ITEM-missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.SoftDeleteBatch(ctx, "BAT-missing")
	assert.ErrorIs(t, err, ErrNotFound)

	category, err := store.GetCategoryByName(ctx, "Furniture")
	require.NoError(t, err)
	assert.Nil(t, category)
}

func TestNextSequenceIsMonotonic(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	kind := "test-" + uuid.NewString()

	first, err := store.NextSequence(ctx, kind)
	require.NoError(t, err)
	second, err := store.NextSequence(ctx, kind)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
}

func TestListLiveBatchesByItemIDsEmpty(t *testing.T) {
	s := &Store{}

	batches, err := s.ListLiveBatchesByItemIDs(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, batches)
}
