package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stock-service/internal/models"
	"stock-service/internal/store"
)

var errBoom = errors.New("boom")

// memStore is an in-memory stand-in for store.Store used by the service
// tests. The fail* fields inject errors into single operations.
type memStore struct {
	mu         sync.Mutex
	categories map[string]models.Category
	items      []*models.InventoryItem
	batches    []*models.Batch
	seq        map[string]int64
	writes     int

	failLookup     error
	failCreateName string
	failMerge      error
	failCascade    error
	failSequence   error
	failList       error

	// afterSummary runs once a summary read has released the lock.
	afterSummary func()
}

func newMemStore(categoryNames ...string) *memStore {
	s := &memStore{
		categories: make(map[string]models.Category),
		seq:        make(map[string]int64),
	}
	for i, name := range categoryNames {
		s.categories[name] = models.Category{ID: int64(i + 1), Name: name}
	}
	return s
}

func newSeededStore() *memStore {
	return newMemStore(models.CategoryConsumable, models.CategoryMachineEquipment)
}

func (s *memStore) FindLiveItemByName(_ context.Context, name string) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLookup != nil {
		return nil, s.failLookup
	}
	for _, item := range s.items {
		if item.ItemName == name && !item.IsDeleted {
			cp := *item
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) CountDeletedItemsByName(_ context.Context, name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, item := range s.items {
		if item.ItemName == name && item.IsDeleted {
			count++
		}
	}
	return count, nil
}

func (s *memStore) GetCategoryByName(_ context.Context, name string) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[name]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *memStore) CreateItemWithBatch(_ context.Context, item *models.InventoryItem, batch *models.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreateName != "" && item.ItemName == s.failCreateName {
		return errBoom
	}
	now := time.Now()
	item.DateCreated = now
	batch.ItemID = item.ItemID
	batch.DateCreated = now

	itemCopy, batchCopy := *item, *batch
	s.items = append(s.items, &itemCopy)
	s.batches = append(s.batches, &batchCopy)
	s.writes++
	return nil
}

func (s *memStore) AddBatchToItem(_ context.Context, itemID string, merge store.StockMerge, batch *models.Batch) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMerge != nil {
		return nil, s.failMerge
	}
	item := s.findByID(itemID)
	if item == nil || item.IsDeleted {
		return nil, fmt.Errorf("item %s: %w", itemID, store.ErrNotFound)
	}
	now := time.Now()
	item.CurrentStock += merge.Usable
	item.ReorderLevel = merge.ReorderLevel
	item.Status = merge.Status
	item.DateUpdated = &now

	batch.ItemID = itemID
	batch.DateCreated = now
	batchCopy := *batch
	s.batches = append(s.batches, &batchCopy)
	s.writes++

	cp := *item
	return &cp, nil
}

func (s *memStore) UpdateItemThreshold(_ context.Context, itemID string, reorderLevel int, status models.ItemStatus) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.findByID(itemID)
	if item == nil {
		return nil, fmt.Errorf("item %s: %w", itemID, store.ErrNotFound)
	}
	item.ReorderLevel = reorderLevel
	item.Status = status
	s.writes++
	cp := *item
	return &cp, nil
}

func (s *memStore) SoftDeleteItem(_ context.Context, itemID string) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.findByID(itemID)
	if item == nil {
		return nil, fmt.Errorf("item %s: %w", itemID, store.ErrNotFound)
	}
	item.IsDeleted = true
	s.writes++
	cp := *item
	return &cp, nil
}

func (s *memStore) SoftDeleteBatchesByItem(_ context.Context, itemID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCascade != nil {
		return 0, s.failCascade
	}
	var n int64
	for _, b := range s.batches {
		if b.ItemID == itemID && !b.IsDeleted {
			b.IsDeleted = true
			n++
		}
	}
	s.writes++
	return n, nil
}

func (s *memStore) SoftDeleteBatch(_ context.Context, batchID string) (*models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.batches {
		if b.BatchID == batchID {
			b.IsDeleted = true
			s.writes++
			cp := *b
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("batch %s: %w", batchID, store.ErrNotFound)
}

func (s *memStore) FindLiveItemSummary(_ context.Context, name string) (*models.ItemSummary, error) {
	summary, err := s.findSummary(name)
	if hook := s.afterSummary; hook != nil {
		s.afterSummary = nil
		hook()
	}
	return summary, err
}

func (s *memStore) findSummary(name string) (*models.ItemSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLookup != nil {
		return nil, s.failLookup
	}
	for _, item := range s.items {
		if item.ItemName != name || item.IsDeleted {
			continue
		}
		summary := &models.ItemSummary{
			CategoryID:   item.CategoryID,
			ReorderLevel: item.ReorderLevel,
			UnitMeasure:  item.UnitMeasure,
		}
		for _, c := range s.categories {
			if c.ID == item.CategoryID {
				summary.CategoryName = c.Name
			}
		}
		return summary, nil
	}
	return nil, nil
}

func (s *memStore) ListLiveItems(_ context.Context) ([]models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList != nil {
		return nil, s.failList
	}
	var out []models.InventoryItem
	for _, item := range s.items {
		if !item.IsDeleted {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *memStore) ListLiveBatchesByItemIDs(_ context.Context, itemIDs []string) ([]models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = true
	}
	var out []models.Batch
	for _, b := range s.batches {
		if wanted[b.ItemID] && !b.IsDeleted {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *memStore) NextSequence(_ context.Context, kind string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSequence != nil {
		return 0, s.failSequence
	}
	s.seq[kind]++
	return s.seq[kind], nil
}

func (s *memStore) findByID(itemID string) *models.InventoryItem {
	for _, item := range s.items {
		if item.ItemID == itemID {
			return item
		}
	}
	return nil
}

func (s *memStore) batchesOf(itemID string) []models.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Batch
	for _, b := range s.batches {
		if b.ItemID == itemID {
			out = append(out, *b)
		}
	}
	return out
}

func (s *memStore) itemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

type memCache struct {
	entries     map[string]models.ItemSummary
	generations map[string]int64
	invalidated []string
	sets        int
	failGet     error
	failSet     error
}

func newMemCache() *memCache {
	return &memCache{
		entries:     make(map[string]models.ItemSummary),
		generations: make(map[string]int64),
	}
}

func (c *memCache) GetItemSummary(_ context.Context, itemName string) (*models.ItemSummary, bool, error) {
	if c.failGet != nil {
		return nil, false, c.failGet
	}
	s, ok := c.entries[itemName]
	if !ok {
		return nil, false, nil
	}
	return &s, true, nil
}

func (c *memCache) SummaryGeneration(_ context.Context, itemName string) (int64, error) {
	if c.failGet != nil {
		return 0, c.failGet
	}
	return c.generations[itemName], nil
}

func (c *memCache) SetItemSummary(_ context.Context, itemName string, summary *models.ItemSummary, _ time.Duration, generation int64) (bool, error) {
	if c.failSet != nil {
		return false, c.failSet
	}
	if c.generations[itemName] != generation {
		return false, nil
	}
	c.entries[itemName] = *summary
	c.sets++
	return true, nil
}

func (c *memCache) InvalidateItemSummary(_ context.Context, itemName string) error {
	c.generations[itemName]++
	delete(c.entries, itemName)
	c.invalidated = append(c.invalidated, itemName)
	return nil
}

type recordingPublisher struct {
	events []models.StockEvent
	err    error
}

func (p *recordingPublisher) PublishStockEvent(_ context.Context, event *models.StockEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, *event)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType
	}
	return out
}
