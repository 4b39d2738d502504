package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stock-service/internal/models"

	"github.com/jmoiron/sqlx"
)

const itemColumns = `item_id, f_item_id, item_name, category_id, unit_measure, current_stock,
	reorder_level, status, isdeleted, created_by, date_created, date_updated`

const batchColumns = `batch_id, item_id, usable_quantity, defective_quantity, missing_quantity,
	expiration_date, isdeleted, created_by, date_created`

// StockMerge describes how a new batch changes its parent item
type StockMerge struct {
	Usable       int
	ReorderLevel int
	Status       models.ItemStatus
}

// FindLiveItemByName returns the oldest non-deleted item with exactly this
// name, or nil when there is none.
func (s *Store) FindLiveItemByName(ctx context.Context, name string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.GetContext(ctx, &item,
		`SELECT `+itemColumns+` FROM inventory_items
		WHERE item_name = $1 AND isdeleted = FALSE
		ORDER BY date_created LIMIT 1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CountDeletedItemsByName counts soft-deleted items carrying this name
func (s *Store) CountDeletedItemsByName(ctx context.Context, name string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM inventory_items WHERE item_name = $1 AND isdeleted = TRUE", name)
	return count, err
}

// GetCategoryByName returns the category with this exact name, or nil
func (s *Store) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	err := s.db.GetContext(ctx, &category,
		"SELECT category_id, category_name FROM categories WHERE category_name = $1", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateItemWithBatch inserts an item and its first batch in one transaction
func (s *Store) CreateItemWithBatch(ctx context.Context, item *models.InventoryItem, batch *models.Batch) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO inventory_items (item_id, f_item_id, item_name, category_id, unit_measure,
			current_stock, reorder_level, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING date_created`,
		item.ItemID, item.FItemID, item.ItemName, item.CategoryID, item.UnitMeasure,
		item.CurrentStock, item.ReorderLevel, item.Status, item.CreatedBy,
	).Scan(&item.DateCreated)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	batch.ItemID = item.ItemID
	if err := insertBatch(ctx, tx, batch); err != nil {
		return err
	}

	return tx.Commit()
}

// AddBatchToItem applies merge to a live item and inserts batch under it,
// in one transaction. The stock increment happens in SQL so concurrent
// merges on the same row serialize on the row lock.
func (s *Store) AddBatchToItem(ctx context.Context, itemID string, merge StockMerge, batch *models.Batch) (*models.InventoryItem, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var item models.InventoryItem
	err = tx.GetContext(ctx, &item, `
		UPDATE inventory_items
		SET current_stock = current_stock + $1, reorder_level = $2, status = $3, date_updated = NOW()
		WHERE item_id = $4 AND isdeleted = FALSE
		RETURNING `+itemColumns,
		merge.Usable, merge.ReorderLevel, merge.Status, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update item stock: %w", err)
	}

	batch.ItemID = itemID
	if err := insertBatch(ctx, tx, batch); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &item, nil
}

func insertBatch(ctx context.Context, tx *sqlx.Tx, batch *models.Batch) error {
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO batches (batch_id, item_id, usable_quantity, defective_quantity,
			missing_quantity, expiration_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING date_created`,
		batch.BatchID, batch.ItemID, batch.UsableQuantity, batch.DefectiveQuantity,
		batch.MissingQuantity, batch.ExpirationDate, batch.CreatedBy,
	).Scan(&batch.DateCreated)
	if err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}
	return nil
}

// UpdateItemThreshold overwrites reorder level and status of an item
func (s *Store) UpdateItemThreshold(ctx context.Context, itemID string, reorderLevel int, status models.ItemStatus) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.GetContext(ctx, &item, `
		UPDATE inventory_items SET reorder_level = $1, status = $2, date_updated = NOW()
		WHERE item_id = $3
		RETURNING `+itemColumns,
		reorderLevel, status, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SoftDeleteItem flags an item deleted and returns it
func (s *Store) SoftDeleteItem(ctx context.Context, itemID string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.GetContext(ctx, &item, `
		UPDATE inventory_items SET isdeleted = TRUE, date_updated = NOW()
		WHERE item_id = $1
		RETURNING `+itemColumns, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SoftDeleteBatchesByItem flags every live batch of an item deleted
func (s *Store) SoftDeleteBatchesByItem(ctx context.Context, itemID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE batches SET isdeleted = TRUE WHERE item_id = $1 AND isdeleted = FALSE", itemID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SoftDeleteBatch flags one batch deleted and returns it
func (s *Store) SoftDeleteBatch(ctx context.Context, batchID string) (*models.Batch, error) {
	var batch models.Batch
	err := s.db.GetContext(ctx, &batch,
		"UPDATE batches SET isdeleted = TRUE WHERE batch_id = $1 RETURNING "+batchColumns, batchID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("batch %s: %w", batchID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// ListLiveItems returns all non-deleted items
func (s *Store) ListLiveItems(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT "+itemColumns+" FROM inventory_items WHERE isdeleted = FALSE ORDER BY date_created")
	return items, err
}

// ListLiveBatchesByItemIDs returns the non-deleted batches of the given items
func (s *Store) ListLiveBatchesByItemIDs(ctx context.Context, itemIDs []string) ([]models.Batch, error) {
	if len(itemIDs) == 0 {
		return []models.Batch{}, nil
	}

	query, args, err := sqlx.In(
		"SELECT "+batchColumns+" FROM batches WHERE isdeleted = FALSE AND item_id IN (?) ORDER BY date_created",
		itemIDs)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var batches []models.Batch
	err = s.db.SelectContext(ctx, &batches, query, args...)
	return batches, err
}

// FindLiveItemSummary returns category and threshold metadata for a live
// item name, or nil when there is none.
func (s *Store) FindLiveItemSummary(ctx context.Context, name string) (*models.ItemSummary, error) {
	var summary models.ItemSummary
	err := s.db.GetContext(ctx, &summary, `
		SELECT c.category_name, i.category_id, i.reorder_level, i.unit_measure
		FROM inventory_items i
		JOIN categories c ON c.category_id = i.category_id
		WHERE i.item_name = $1 AND i.isdeleted = FALSE
		ORDER BY i.date_created LIMIT 1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
