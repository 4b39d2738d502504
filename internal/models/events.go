package models

import (
	"encoding/json"
	"time"
)

// Event types
const (
	EventTypeItemCreated          = "ITEM_CREATED"
	EventTypeStockReceived        = "STOCK_RECEIVED"
	EventTypeItemThresholdUpdated = "ITEM_THRESHOLD_UPDATED"
	EventTypeItemDeleted          = "ITEM_DELETED"
	EventTypeBatchDeleted         = "BATCH_DELETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// StockEvent is published after every committed inventory mutation.
// Partial is set on an ITEM_DELETED whose batches are still live.
type StockEvent struct {
	BaseEvent
	ItemID       string     `json:"item_id,omitempty"`
	ItemName     string     `json:"item_name,omitempty"`
	BatchID      string     `json:"batch_id,omitempty"`
	Quantity     int        `json:"quantity,omitempty"`
	CurrentStock int        `json:"current_stock,omitempty"`
	Status       ItemStatus `json:"status,omitempty"`
	Partial      bool       `json:"partial,omitempty"`
}

// StockFeedMessage is the payload of the upstream inventory feed topic.
// Entries stay undecoded so one malformed entry fails alone.
type StockFeedMessage struct {
	FeedID     string            `json:"feed_id,omitempty"`
	StockItems []json.RawMessage `json:"stockItems"`
}

// StockEntry is one externally reported stock receipt. Name is the
// external reference; ItemName is the dedup key.
type StockEntry struct {
	Name       string  `json:"name"`
	ItemName   string  `json:"itemName"`
	Category   string  `json:"category"`
	Unit       string  `json:"unit"`
	Usable     int     `json:"usable"`
	Defective  int     `json:"defective"`
	Missing    int     `json:"missing"`
	Expiration *string `json:"expiration,omitempty"`
	Reorder    int     `json:"reorder"`
	Status     string  `json:"status"`
}
