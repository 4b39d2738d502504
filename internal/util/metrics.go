package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StockEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_entries_total",
		Help: "Total number of stock entries processed, by outcome action",
	}, []string{"action"})

	StockIngestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stock_ingest_latency_seconds",
		Help:    "Latency of a whole stock ingestion run",
		Buckets: prometheus.DefBuckets,
	})

	StockUnitsReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_units_received_total",
		Help: "Total usable units added to inventory through ingestion",
	})

	DuplicateRiskTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_duplicate_risk_total",
		Help: "Items created while a soft-deleted item with the same name exists",
	})

	ItemsSoftDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_items_soft_deleted_total",
		Help: "Total number of inventory items soft-deleted",
	})

	BatchesSoftDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_batches_soft_deleted_total",
		Help: "Total number of batches soft-deleted",
	})

	CascadeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_cascade_failures_total",
		Help: "Item deletions whose batch cascade failed after the item was deleted",
	})

	ProbeCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "existence_probe_cache_total",
		Help: "Existence probe cache lookups, by result",
	}, []string{"result"})

	FeedMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_feed_messages_total",
		Help: "Stock feed messages consumed, by result",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
