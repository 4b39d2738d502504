package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"stock-service/internal/models"
	"stock-service/internal/store"
	"stock-service/internal/util"

	"go.uber.org/zap"
)

// Action is the outcome kind of one stock entry
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionFailed  Action = "failed"
)

// EntryOutcome is the per-entry result of an ingestion run. Item is set for
// created/updated; Name and Error for failed.
type EntryOutcome struct {
	Success bool                  `json:"success"`
	Action  Action                `json:"action"`
	Item    *models.InventoryItem `json:"item,omitempty"`
	Name    string                `json:"name,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// IngestResult holds one outcome per submitted entry, in input order
type IngestResult struct {
	Success bool           `json:"success"`
	Results []EntryOutcome `json:"results"`
}

// Counts tallies outcomes by action
func (r *IngestResult) Counts() map[Action]int {
	counts := make(map[Action]int, 3)
	for _, o := range r.Results {
		counts[o.Action]++
	}
	return counts
}

// StockReconciler decides, per stock entry, whether it adds to an existing
// item or creates a new one, and records a batch either way.
type StockReconciler struct {
	items      ItemStore
	categories *CategoryResolver
	ids        IDGenerator
	cache      SummaryCache
	publisher  EventPublisher
	createdBy  int64
	logger     *zap.Logger
}

// NewStockReconciler creates the reconciliation engine. cache and publisher
// may be nil.
func NewStockReconciler(
	items ItemStore,
	categories *CategoryResolver,
	ids IDGenerator,
	cache SummaryCache,
	publisher EventPublisher,
	createdBy int64,
) *StockReconciler {
	return &StockReconciler{
		items:      items,
		categories: categories,
		ids:        ids,
		cache:      cache,
		publisher:  publisher,
		createdBy:  createdBy,
		logger:     util.GetLogger(),
	}
}

// Ingest processes entries strictly in order. Each entry is decoded on
// its own; one that fails to decode, or fails any later step, becomes a
// failed outcome and never stops the entries after it.
func (r *StockReconciler) Ingest(ctx context.Context, entries []json.RawMessage) *IngestResult {
	return r.run(ctx, len(entries), func(i int) (models.StockEntry, error) {
		return decodeEntry(entries[i])
	})
}

// ingestEntries is Ingest over already decoded entries.
func (r *StockReconciler) ingestEntries(ctx context.Context, entries []models.StockEntry) *IngestResult {
	return r.run(ctx, len(entries), func(i int) (models.StockEntry, error) {
		return entries[i], nil
	})
}

func (r *StockReconciler) run(ctx context.Context, n int, entryAt func(i int) (models.StockEntry, error)) *IngestResult {
	ctx, span := util.StartSpan(ctx, "StockReconciler.Ingest")
	defer span.End()

	start := time.Now()
	defer func() {
		util.StockIngestLatency.Observe(time.Since(start).Seconds())
	}()

	r.logger.Info("Starting stock ingestion", zap.Int("entries", n))

	results := make([]EntryOutcome, 0, n)
	for i := 0; i < n; i++ {
		entry, err := entryAt(i)
		var outcome *EntryOutcome
		if err == nil {
			outcome, err = r.processEntry(ctx, i, entry)
		}
		if err != nil {
			r.logger.Error("Stock entry failed",
				zap.Int("position", i+1),
				zap.String("name", entry.Name),
				zap.String("item_name", entry.ItemName),
				zap.Error(err))
			outcome = &EntryOutcome{
				Success: false,
				Action:  ActionFailed,
				Name:    entry.Name,
				Error:   err.Error(),
			}
		}
		util.StockEntriesTotal.WithLabelValues(string(outcome.Action)).Inc()
		results = append(results, *outcome)
	}

	result := &IngestResult{Success: true, Results: results}
	counts := result.Counts()
	r.logger.Info("Finished stock ingestion",
		zap.Int("created", counts[ActionCreated]),
		zap.Int("updated", counts[ActionUpdated]),
		zap.Int("failed", counts[ActionFailed]))

	return result
}

func (r *StockReconciler) processEntry(ctx context.Context, position int, entry models.StockEntry) (*EntryOutcome, error) {
	expiration, err := validateEntry(entry)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Processing stock entry",
		zap.Int("position", position+1),
		zap.String("item_name", entry.ItemName))

	existing, err := r.items.FindLiveItemByName(ctx, entry.ItemName)
	if err != nil {
		return nil, storeFailure("lookup item", err)
	}

	status := MapEntryStatus(entry.Status)

	batchID, err := r.ids.Generate(ctx, KindBatch, PrefixBatch)
	if err != nil {
		return nil, err
	}

	batch := &models.Batch{
		BatchID:           batchID,
		UsableQuantity:    entry.Usable,
		DefectiveQuantity: entry.Defective,
		MissingQuantity:   entry.Missing,
		ExpirationDate:    expiration,
		CreatedBy:         r.createdBy,
	}

	if existing != nil {
		return r.mergeIntoItem(ctx, existing, entry, status, batch)
	}
	return r.createItem(ctx, entry, status, batch)
}

// mergeIntoItem adds the entry's usable quantity to the item, overwrites
// its threshold and status, and appends the batch.
func (r *StockReconciler) mergeIntoItem(
	ctx context.Context,
	existing *models.InventoryItem,
	entry models.StockEntry,
	status models.ItemStatus,
	batch *models.Batch,
) (*EntryOutcome, error) {
	updated, err := r.items.AddBatchToItem(ctx, existing.ItemID, store.StockMerge{
		Usable:       entry.Usable,
		ReorderLevel: entry.Reorder,
		Status:       status,
	}, batch)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s was deleted during ingestion", ErrItemNotFound, existing.ItemID)
	}
	if err != nil {
		return nil, storeFailure("update item", err)
	}

	util.StockUnitsReceivedTotal.Add(float64(entry.Usable))
	r.invalidate(ctx, updated.ItemName)
	r.publish(ctx, &models.StockEvent{
		BaseEvent:    models.BaseEvent{EventType: models.EventTypeStockReceived},
		ItemID:       updated.ItemID,
		ItemName:     updated.ItemName,
		BatchID:      batch.BatchID,
		Quantity:     entry.Usable,
		CurrentStock: updated.CurrentStock,
		Status:       updated.Status,
	})

	r.logger.Info("Updated inventory item",
		zap.String("item_id", updated.ItemID),
		zap.String("batch_id", batch.BatchID),
		zap.Int("current_stock", updated.CurrentStock))

	return &EntryOutcome{Success: true, Action: ActionUpdated, Item: updated}, nil
}

// createItem registers a new item with the batch as its first receipt.
func (r *StockReconciler) createItem(
	ctx context.Context,
	entry models.StockEntry,
	status models.ItemStatus,
	batch *models.Batch,
) (*EntryOutcome, error) {
	category, err := r.categories.Resolve(ctx, entry.Category)
	if err != nil {
		return nil, err
	}

	r.checkDuplicateRisk(ctx, entry.ItemName)

	itemID, err := r.ids.Generate(ctx, KindInventoryItem, PrefixItem)
	if err != nil {
		return nil, err
	}

	item := &models.InventoryItem{
		ItemID:       itemID,
		ItemName:     entry.ItemName,
		CategoryID:   category.ID,
		UnitMeasure:  entry.Unit,
		CurrentStock: entry.Usable,
		ReorderLevel: entry.Reorder,
		Status:       status,
		CreatedBy:    r.createdBy,
	}
	if entry.Name != "" {
		ref := entry.Name
		item.FItemID = &ref
	}

	if err := r.items.CreateItemWithBatch(ctx, item, batch); err != nil {
		return nil, storeFailure("create item", err)
	}

	util.StockUnitsReceivedTotal.Add(float64(entry.Usable))
	r.publish(ctx, &models.StockEvent{
		BaseEvent:    models.BaseEvent{EventType: models.EventTypeItemCreated},
		ItemID:       item.ItemID,
		ItemName:     item.ItemName,
		BatchID:      batch.BatchID,
		Quantity:     entry.Usable,
		CurrentStock: item.CurrentStock,
		Status:       item.Status,
	})

	r.logger.Info("Created inventory item",
		zap.String("item_id", item.ItemID),
		zap.String("batch_id", batch.BatchID),
		zap.Int64("category_id", category.ID))

	return &EntryOutcome{Success: true, Action: ActionCreated, Item: item}, nil
}

// checkDuplicateRisk logs when a new item shadows a soft-deleted one with
// the same name. It never fails the entry.
func (r *StockReconciler) checkDuplicateRisk(ctx context.Context, itemName string) {
	count, err := r.items.CountDeletedItemsByName(ctx, itemName)
	if err != nil {
		r.logger.Warn("Failed to check deleted items", zap.String("item_name", itemName), zap.Error(err))
		return
	}
	if count > 0 {
		util.DuplicateRiskTotal.Inc()
		r.logger.Warn("Creating item with the name of a deleted item",
			zap.String("item_name", itemName),
			zap.Int("deleted_items", count))
	}
}

func (r *StockReconciler) invalidate(ctx context.Context, itemName string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.InvalidateItemSummary(ctx, itemName); err != nil {
		r.logger.Warn("Failed to invalidate probe cache", zap.String("item_name", itemName), zap.Error(err))
	}
}

func (r *StockReconciler) publish(ctx context.Context, event *models.StockEvent) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishStockEvent(ctx, event); err != nil {
		r.logger.Error("Failed to publish stock event",
			zap.String("event_type", event.EventType),
			zap.String("item_id", event.ItemID),
			zap.Error(err))
	}
}

// validateEntry rejects entries the store could not hold and parses the
// optional expiration date.
func validateEntry(entry models.StockEntry) (*time.Time, error) {
	if strings.TrimSpace(entry.ItemName) == "" {
		return nil, validationError("itemName is required")
	}
	if entry.Usable < 0 || entry.Defective < 0 || entry.Missing < 0 {
		return nil, validationError("quantities must be non-negative")
	}
	return parseExpiration(entry.Expiration)
}

// decodeEntry decodes one stock entry. On a type mismatch the fields that
// did decode, name included, are still returned for reporting.
func decodeEntry(raw json.RawMessage) (models.StockEntry, error) {
	var entry models.StockEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return entry, validationError("malformed stock entry: %v", err)
	}
	return entry, nil
}

var expirationLayouts = []string{time.RFC3339, "2006-01-02"}

func parseExpiration(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	for _, layout := range expirationLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, validationError("invalid expiration date %q", value)
}
