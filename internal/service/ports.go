package service

import (
	"context"
	"time"

	"stock-service/internal/models"
	"stock-service/internal/store"
)

// ItemStore is the part of the inventory store the reconciliation engine
// writes through.
type ItemStore interface {
	FindLiveItemByName(ctx context.Context, name string) (*models.InventoryItem, error)
	CountDeletedItemsByName(ctx context.Context, name string) (int, error)
	CreateItemWithBatch(ctx context.Context, item *models.InventoryItem, batch *models.Batch) error
	AddBatchToItem(ctx context.Context, itemID string, merge store.StockMerge, batch *models.Batch) (*models.InventoryItem, error)
}

type CategoryStore interface {
	GetCategoryByName(ctx context.Context, name string) (*models.Category, error)
}

type LifecycleStore interface {
	UpdateItemThreshold(ctx context.Context, itemID string, reorderLevel int, status models.ItemStatus) (*models.InventoryItem, error)
	SoftDeleteItem(ctx context.Context, itemID string) (*models.InventoryItem, error)
	SoftDeleteBatchesByItem(ctx context.Context, itemID string) (int64, error)
	SoftDeleteBatch(ctx context.Context, batchID string) (*models.Batch, error)
}

type ProbeStore interface {
	FindLiveItemSummary(ctx context.Context, name string) (*models.ItemSummary, error)
}

type ReadStore interface {
	ListLiveItems(ctx context.Context) ([]models.InventoryItem, error)
	ListLiveBatchesByItemIDs(ctx context.Context, itemIDs []string) ([]models.Batch, error)
}

// SequenceSource hands out per-kind monotonically increasing numbers.
// Implemented by redisclient.Client and store.Store.
type SequenceSource interface {
	NextSequence(ctx context.Context, kind string) (int64, error)
}

type IDGenerator interface {
	Generate(ctx context.Context, kind, prefix string) (string, error)
}

// SummaryCache caches existence-probe hits by item name. Every
// invalidation bumps the name's generation; SetItemSummary drops writes
// made against an older generation.
type SummaryCache interface {
	GetItemSummary(ctx context.Context, itemName string) (*models.ItemSummary, bool, error)
	SummaryGeneration(ctx context.Context, itemName string) (int64, error)
	SetItemSummary(ctx context.Context, itemName string, summary *models.ItemSummary, ttl time.Duration, generation int64) (bool, error)
	InvalidateItemSummary(ctx context.Context, itemName string) error
}

type EventPublisher interface {
	PublishStockEvent(ctx context.Context, event *models.StockEvent) error
}
