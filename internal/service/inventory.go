package service

import (
	"context"

	"stock-service/internal/models"
	"stock-service/internal/util"

	"go.uber.org/zap"
)

// InventoryReader serves the read-all view of the inventory
type InventoryReader struct {
	store  ReadStore
	logger *zap.Logger
}

func NewInventoryReader(store ReadStore) *InventoryReader {
	return &InventoryReader{store: store, logger: util.GetLogger()}
}

// ListItems returns every live item with its live batches
func (r *InventoryReader) ListItems(ctx context.Context) ([]models.ItemView, error) {
	ctx, span := util.StartSpan(ctx, "InventoryReader.ListItems")
	defer span.End()

	items, err := r.store.ListLiveItems(ctx)
	if err != nil {
		return nil, storeFailure("list items", err)
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ItemID
	}

	batches, err := r.store.ListLiveBatchesByItemIDs(ctx, ids)
	if err != nil {
		return nil, storeFailure("list batches", err)
	}

	byItem := make(map[string][]models.Batch, len(items))
	for _, b := range batches {
		byItem[b.ItemID] = append(byItem[b.ItemID], b)
	}

	views := make([]models.ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, models.NewItemView(item, byItem[item.ItemID]))
	}

	r.logger.Debug("Listed inventory", zap.Int("items", len(views)), zap.Int("batches", len(batches)))
	return views, nil
}
