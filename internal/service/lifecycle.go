package service

import (
	"context"
	"errors"
	"strings"

	"stock-service/internal/models"
	"stock-service/internal/store"
	"stock-service/internal/util"

	"go.uber.org/zap"
)

// ItemLifecycle handles direct item mutation and soft deletion
type ItemLifecycle struct {
	store     LifecycleStore
	cache     SummaryCache
	publisher EventPublisher
	logger    *zap.Logger
}

// NewItemLifecycle creates the lifecycle manager. cache and publisher may
// be nil.
func NewItemLifecycle(store LifecycleStore, cache SummaryCache, publisher EventPublisher) *ItemLifecycle {
	return &ItemLifecycle{
		store:     store,
		cache:     cache,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// validateID rejects empty ids and the literal placeholders a browser
// client sends for an unset variable.
func validateID(field, id string) error {
	switch strings.TrimSpace(id) {
	case "", "undefined", "null":
		return validationError("missing or invalid %s", field)
	}
	return nil
}

// UpdateThreshold overwrites reorder level and status of an item. Stock and
// batches are left alone.
func (l *ItemLifecycle) UpdateThreshold(ctx context.Context, itemID string, reorderLevel int, status models.ItemStatus) (*models.InventoryItem, error) {
	ctx, span := util.StartSpan(ctx, "ItemLifecycle.UpdateThreshold", "item_id", itemID)
	defer span.End()

	if err := validateID("item_id", itemID); err != nil {
		return nil, err
	}
	if reorderLevel < 0 {
		return nil, validationError("reorder_level must be non-negative")
	}
	if !status.Valid() {
		return nil, validationError("unknown status %q", status)
	}

	item, err := l.store.UpdateItemThreshold(ctx, itemID, reorderLevel, status)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, storeFailure("update item threshold", err)
	}

	l.invalidate(ctx, item.ItemName)
	l.publish(ctx, &models.StockEvent{
		BaseEvent:    models.BaseEvent{EventType: models.EventTypeItemThresholdUpdated},
		ItemID:       item.ItemID,
		ItemName:     item.ItemName,
		CurrentStock: item.CurrentStock,
		Status:       item.Status,
	})

	l.logger.Info("Item threshold updated",
		zap.String("item_id", item.ItemID),
		zap.Int("reorder_level", item.ReorderLevel),
		zap.String("status", string(item.Status)))
	return item, nil
}

// SoftDeleteItem runs the two-step delete: flag the item, then flag all of
// its batches. The steps are separate writes; when the second one fails the
// item stays deleted and a *PartialCascadeError is returned.
func (l *ItemLifecycle) SoftDeleteItem(ctx context.Context, itemID string) error {
	ctx, span := util.StartSpan(ctx, "ItemLifecycle.SoftDeleteItem", "item_id", itemID)
	defer span.End()

	if err := validateID("item_id", itemID); err != nil {
		return err
	}

	item, err := l.store.SoftDeleteItem(ctx, itemID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrItemNotFound
	}
	if err != nil {
		return storeFailure("soft-delete item", err)
	}

	util.ItemsSoftDeletedTotal.Inc()
	l.invalidate(ctx, item.ItemName)

	batches, err := l.store.SoftDeleteBatchesByItem(ctx, itemID)
	if err != nil {
		util.CascadeFailuresTotal.Inc()
		l.logger.Error("Batch cascade failed after item delete",
			zap.String("item_id", itemID),
			zap.Error(err))
		l.publish(ctx, &models.StockEvent{
			BaseEvent: models.BaseEvent{EventType: models.EventTypeItemDeleted},
			ItemID:    item.ItemID,
			ItemName:  item.ItemName,
			Partial:   true,
		})
		return &PartialCascadeError{ItemID: itemID, Err: storeFailure("soft-delete batches", err)}
	}

	util.BatchesSoftDeletedTotal.Add(float64(batches))
	l.publish(ctx, &models.StockEvent{
		BaseEvent: models.BaseEvent{EventType: models.EventTypeItemDeleted},
		ItemID:    item.ItemID,
		ItemName:  item.ItemName,
		Quantity:  int(batches),
	})

	l.logger.Info("Item soft-deleted",
		zap.String("item_id", itemID),
		zap.Int64("batches", batches))
	return nil
}

// SoftDeleteBatch flags one batch deleted. The parent item's current_stock
// is not recomputed.
func (l *ItemLifecycle) SoftDeleteBatch(ctx context.Context, batchID string) error {
	ctx, span := util.StartSpan(ctx, "ItemLifecycle.SoftDeleteBatch", "batch_id", batchID)
	defer span.End()

	if err := validateID("batch_id", batchID); err != nil {
		return err
	}

	batch, err := l.store.SoftDeleteBatch(ctx, batchID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrBatchNotFound
	}
	if err != nil {
		return storeFailure("soft-delete batch", err)
	}

	util.BatchesSoftDeletedTotal.Inc()
	l.publish(ctx, &models.StockEvent{
		BaseEvent: models.BaseEvent{EventType: models.EventTypeBatchDeleted},
		ItemID:    batch.ItemID,
		BatchID:   batch.BatchID,
		Quantity:  batch.UsableQuantity,
	})

	l.logger.Info("Batch soft-deleted",
		zap.String("batch_id", batchID),
		zap.String("item_id", batch.ItemID))
	return nil
}

func (l *ItemLifecycle) invalidate(ctx context.Context, itemName string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.InvalidateItemSummary(ctx, itemName); err != nil {
		l.logger.Warn("Failed to invalidate probe cache", zap.String("item_name", itemName), zap.Error(err))
	}
}

func (l *ItemLifecycle) publish(ctx context.Context, event *models.StockEvent) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.PublishStockEvent(ctx, event); err != nil {
		l.logger.Error("Failed to publish stock event",
			zap.String("event_type", event.EventType),
			zap.Error(err))
	}
}
