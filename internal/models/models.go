package models

import "time"

// ItemStatus is the stock status of an inventory item
type ItemStatus string

// Item statuses
const (
	ItemStatusAvailable        ItemStatus = "AVAILABLE"
	ItemStatusOutOfStock       ItemStatus = "OUT_OF_STOCK"
	ItemStatusLowStock         ItemStatus = "LOW_STOCK"
	ItemStatusUnderMaintenance ItemStatus = "UNDER_MAINTENANCE"
)

// Valid reports whether s is one of the known statuses.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusAvailable, ItemStatusOutOfStock, ItemStatusLowStock, ItemStatusUnderMaintenance:
		return true
	}
	return false
}

// Category names
const (
	CategoryConsumable       = "Consumable"
	CategoryMachineEquipment = "Machine & Equipment"
)

// Category classifies inventory items
type Category struct {
	ID   int64  `db:"category_id" json:"category_id"`
	Name string `db:"category_name" json:"category_name"`
}

// InventoryItem is a tracked physical item. CurrentStock is the running sum
// of usable quantity received through its batches.
type InventoryItem struct {
	ItemID       string     `db:"item_id" json:"item_id"`
	FItemID      *string    `db:"f_item_id" json:"f_item_id"`
	ItemName     string     `db:"item_name" json:"item_name"`
	CategoryID   int64      `db:"category_id" json:"category_id"`
	UnitMeasure  string     `db:"unit_measure" json:"unit_measure"`
	CurrentStock int        `db:"current_stock" json:"current_stock"`
	ReorderLevel int        `db:"reorder_level" json:"reorder_level"`
	Status       ItemStatus `db:"status" json:"status"`
	IsDeleted    bool       `db:"isdeleted" json:"isdeleted"`
	CreatedBy    int64      `db:"created_by" json:"created_by"`
	DateCreated  time.Time  `db:"date_created" json:"date_created"`
	DateUpdated  *time.Time `db:"date_updated" json:"date_updated"`
}

// Batch is one receipt of stock for an item. Quantities never change after
// insert; only IsDeleted does.
type Batch struct {
	BatchID           string     `db:"batch_id" json:"batch_id"`
	ItemID            string     `db:"item_id" json:"item_id"`
	UsableQuantity    int        `db:"usable_quantity" json:"usable_quantity"`
	DefectiveQuantity int        `db:"defective_quantity" json:"defective_quantity"`
	MissingQuantity   int        `db:"missing_quantity" json:"missing_quantity"`
	ExpirationDate    *time.Time `db:"expiration_date" json:"expiration_date"`
	IsDeleted         bool       `db:"isdeleted" json:"isdeleted"`
	CreatedBy         int64      `db:"created_by" json:"created_by"`
	DateCreated       time.Time  `db:"date_created" json:"date_created"`
}

// ItemSummary is the metadata returned for an existing item name
type ItemSummary struct {
	CategoryName string `db:"category_name" json:"category_name"`
	CategoryID   int64  `db:"category_id" json:"category_id"`
	ReorderLevel int    `db:"reorder_level" json:"reorder_level"`
	UnitMeasure  string `db:"unit_measure" json:"unit_measure"`
}

// BatchView is the read projection of a batch
type BatchView struct {
	BatchID           string     `json:"batch_id"`
	UsableQuantity    int        `json:"usable_quantity"`
	DefectiveQuantity int        `json:"defective_quantity"`
	MissingQuantity   int        `json:"missing_quantity"`
	ExpirationDate    *time.Time `json:"expiration_date"`
}

// ItemView is the read projection of an item with its live batches
type ItemView struct {
	ItemID       string      `json:"item_id"`
	FItemID      *string     `json:"f_item_id"`
	ItemName     string      `json:"item_name"`
	CurrentStock int         `json:"current_stock"`
	UnitMeasure  string      `json:"unit_measure"`
	Status       ItemStatus  `json:"status"`
	CategoryID   int64       `json:"category_id"`
	ReorderLevel int         `json:"reorder_level"`
	Batches      []BatchView `json:"batches"`
}

// NewItemView projects an item and its batches to the read shape.
func NewItemView(item InventoryItem, batches []Batch) ItemView {
	views := make([]BatchView, 0, len(batches))
	for _, b := range batches {
		views = append(views, BatchView{
			BatchID:           b.BatchID,
			UsableQuantity:    b.UsableQuantity,
			DefectiveQuantity: b.DefectiveQuantity,
			MissingQuantity:   b.MissingQuantity,
			ExpirationDate:    b.ExpirationDate,
		})
	}
	return ItemView{
		ItemID:       item.ItemID,
		FItemID:      item.FItemID,
		ItemName:     item.ItemName,
		CurrentStock: item.CurrentStock,
		UnitMeasure:  item.UnitMeasure,
		Status:       item.Status,
		CategoryID:   item.CategoryID,
		ReorderLevel: item.ReorderLevel,
		Batches:      views,
	}
}
