package worker

import (
	"context"
	"encoding/json"

	"stock-service/internal/broker"
	"stock-service/internal/service"
	"stock-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// StockIngester runs stock reconciliation over undecoded entries
type StockIngester interface {
	Ingest(ctx context.Context, entries []json.RawMessage) *service.IngestResult
}

// FeedWorker reconciles stock entries arriving on the upstream feed topic
type FeedWorker struct {
	consumer *broker.Consumer
	ingester StockIngester
	logger   *zap.Logger
}

// NewFeedWorker creates a new feed worker
func NewFeedWorker(consumer *broker.Consumer, ingester StockIngester) *FeedWorker {
	return &FeedWorker{
		consumer: consumer,
		ingester: ingester,
		logger:   util.GetLogger(),
	}
}

// Start consumes the feed until ctx is cancelled
func (w *FeedWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting stock feed worker")
	return w.consumer.StartConsuming(ctx, w.handleMessage)
}

// Stop stops the worker
func (w *FeedWorker) Stop() error {
	w.logger.Info("Stopping stock feed worker")
	return w.consumer.Close()
}

// handleMessage never fails: an undecodable message would be redelivered
// forever, and entry failures are already part of the result.
func (w *FeedWorker) handleMessage(ctx context.Context, msg kafka.Message) error {
	feed, err := broker.DecodeFeedMessage(msg.Value)
	if err != nil {
		util.FeedMessagesTotal.WithLabelValues("skipped").Inc()
		w.logger.Warn("Skipping undecodable feed message",
			zap.Int64("offset", msg.Offset),
			zap.Int("partition", msg.Partition),
			zap.Error(err))
		return nil
	}

	ctx, span := util.StartSpan(ctx, "FeedWorker.handleMessage", "feed_id", feed.FeedID)
	defer span.End()

	result := w.ingester.Ingest(ctx, feed.StockItems)
	counts := result.Counts()

	util.FeedMessagesTotal.WithLabelValues("processed").Inc()
	w.logger.Info("Processed stock feed message",
		zap.String("feed_id", feed.FeedID),
		zap.Int64("offset", msg.Offset),
		zap.Int("created", counts[service.ActionCreated]),
		zap.Int("updated", counts[service.ActionUpdated]),
		zap.Int("failed", counts[service.ActionFailed]))
	return nil
}
