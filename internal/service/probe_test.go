package service

import (
	"context"
	"testing"
	"time"

	"stock-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeMissingItem(t *testing.T) {
	p := NewExistenceProbe(newSeededStore(), nil, 0)

	result, err := p.Probe(context.Background(), "Gloves")

	require.NoError(t, err)
	assert.False(t, result.Exists)
	assert.Nil(t, result.Item)
}

func TestProbeExistingItem(t *testing.T) {
	s := newSeededStore()
	seedItem(t, s, "Gloves", 10)
	p := NewExistenceProbe(s, nil, 0)

	result, err := p.Probe(context.Background(), "Gloves")

	require.NoError(t, err)
	require.True(t, result.Exists)
	assert.Equal(t, models.CategoryConsumable, result.Item.CategoryName)
	assert.Equal(t, int64(1), result.Item.CategoryID)
	assert.Equal(t, 5, result.Item.ReorderLevel)
	assert.Equal(t, "box", result.Item.UnitMeasure)
}

func TestProbeRequiresName(t *testing.T) {
	p := NewExistenceProbe(newSeededStore(), nil, 0)

	_, err := p.Probe(context.Background(), " ")

	assert.ErrorIs(t, err, ErrValidation)
}

func TestProbeCachesHits(t *testing.T) {
	s := newSeededStore()
	seedItem(t, s, "Gloves", 10)
	cache := newMemCache()
	p := NewExistenceProbe(s, cache, time.Minute)

	_, err := p.Probe(context.Background(), "Gloves")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// A store outage does not matter once the hit is cached.
	s.failLookup = errBoom
	result, err := p.Probe(context.Background(), "Gloves")
	require.NoError(t, err)
	assert.True(t, result.Exists)
	assert.Equal(t, 1, cache.sets)
}

func TestProbeDoesNotCacheMisses(t *testing.T) {
	cache := newMemCache()
	p := NewExistenceProbe(newSeededStore(), cache, time.Minute)

	result, err := p.Probe(context.Background(), "Gloves")

	require.NoError(t, err)
	assert.False(t, result.Exists)
	assert.Equal(t, 0, cache.sets)
}

func TestProbeFallsBackWhenCacheFails(t *testing.T) {
	s := newSeededStore()
	seedItem(t, s, "Gloves", 10)
	cache := newMemCache()
	cache.failGet = errBoom
	cache.failSet = errBoom
	p := NewExistenceProbe(s, cache, time.Minute)

	result, err := p.Probe(context.Background(), "Gloves")

	require.NoError(t, err)
	assert.True(t, result.Exists)
}

func TestProbeStoreFailure(t *testing.T) {
	s := newSeededStore()
	s.failLookup = errBoom
	p := NewExistenceProbe(s, nil, 0)

	_, err := p.Probe(context.Background(), "Gloves")

	assert.ErrorIs(t, err, ErrStoreFailure)
}

func TestProbeSeesMergeAfterInvalidation(t *testing.T) {
	s := newSeededStore()
	cache := newMemCache()
	r := newTestReconciler(s, cache, nil)
	p := NewExistenceProbe(s, cache, time.Minute)

	r.ingestEntries(context.Background(), []models.StockEntry{entry("Gloves", 10)})
	first, err := p.Probe(context.Background(), "Gloves")
	require.NoError(t, err)
	assert.Equal(t, 5, first.Item.ReorderLevel)

	later := entry("Gloves", 1)
	later.Reorder = 40
	r.ingestEntries(context.Background(), []models.StockEntry{later})

	second, err := p.Probe(context.Background(), "Gloves")
	require.NoError(t, err)
	assert.Equal(t, 40, second.Item.ReorderLevel)
}

func TestProbeDoesNotCacheHitRacingDelete(t *testing.T) {
	s := newSeededStore()
	item := seedItem(t, s, "Gloves", 10)
	cache := newMemCache()
	lifecycle := NewItemLifecycle(s, cache, nil)
	p := NewExistenceProbe(s, cache, time.Minute)

	// The delete commits after the probe has read the live row.
	s.afterSummary = func() {
		require.NoError(t, lifecycle.SoftDeleteItem(context.Background(), item.ItemID))
	}

	first, err := p.Probe(context.Background(), "Gloves")
	require.NoError(t, err)
	assert.True(t, first.Exists)
	assert.Equal(t, 0, cache.sets)
	assert.NotContains(t, cache.entries, "Gloves")

	second, err := p.Probe(context.Background(), "Gloves")
	require.NoError(t, err)
	assert.False(t, second.Exists)
}
