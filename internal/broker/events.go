package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stock-service/internal/models"

	"github.com/google/uuid"
)

// EventPublisher handles publishing inventory events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishStockEvent stamps and publishes an inventory event keyed by item
func (ep *EventPublisher) PublishStockEvent(ctx context.Context, event *models.StockEvent) error {
	StampEvent(event)
	return ep.producer.PublishEvent(ctx, EventKey(event), event)
}

// StampEvent fills in the id and timestamp of an event when unset
func StampEvent(event *models.StockEvent) {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
}

// EventKey is the partition key of an event
func EventKey(event *models.StockEvent) string {
	if event.ItemID != "" {
		return fmt.Sprintf("item-%s", event.ItemID)
	}
	return fmt.Sprintf("batch-%s", event.BatchID)
}

// DecodeFeedMessage parses an upstream stock feed payload
func DecodeFeedMessage(value []byte) (*models.StockFeedMessage, error) {
	var msg models.StockFeedMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stock feed message: %w", err)
	}
	if msg.StockItems == nil {
		return nil, fmt.Errorf("stock feed message has no stockItems")
	}
	return &msg, nil
}
