package service

import (
	"context"
	"strings"
	"time"

	"stock-service/internal/models"
	"stock-service/internal/util"

	"go.uber.org/zap"
)

// ProbeResult answers whether an item name is registered
type ProbeResult struct {
	Exists bool                `json:"exists"`
	Item   *models.ItemSummary `json:"item,omitempty"`
}

// ExistenceProbe looks up live items by name for client-side pre-fill.
// It is independent of the reconciliation engine's own lookup.
type ExistenceProbe struct {
	store  ProbeStore
	cache  SummaryCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewExistenceProbe creates a probe. Hits are cached for ttl when cache is
// not nil and ttl is positive.
func NewExistenceProbe(store ProbeStore, cache SummaryCache, ttl time.Duration) *ExistenceProbe {
	return &ExistenceProbe{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		logger: util.GetLogger(),
	}
}

func (p *ExistenceProbe) cacheEnabled() bool {
	return p.cache != nil && p.ttl > 0
}

func (p *ExistenceProbe) Probe(ctx context.Context, itemName string) (*ProbeResult, error) {
	ctx, span := util.StartSpan(ctx, "ExistenceProbe.Probe", "item_name", itemName)
	defer span.End()

	if strings.TrimSpace(itemName) == "" {
		return nil, validationError("item name is required")
	}

	generation, cacheable := int64(0), false
	if p.cacheEnabled() {
		summary, ok, err := p.cache.GetItemSummary(ctx, itemName)
		switch {
		case err != nil:
			util.ProbeCacheTotal.WithLabelValues("error").Inc()
			p.logger.Warn("Probe cache read failed, using store", zap.String("item_name", itemName), zap.Error(err))
		case ok:
			util.ProbeCacheTotal.WithLabelValues("hit").Inc()
			return &ProbeResult{Exists: true, Item: summary}, nil
		default:
			util.ProbeCacheTotal.WithLabelValues("miss").Inc()
		}

		// Taken before the store read so a delete that lands in between
		// makes the write below a no-op.
		generation, err = p.cache.SummaryGeneration(ctx, itemName)
		cacheable = err == nil
	}

	summary, err := p.store.FindLiveItemSummary(ctx, itemName)
	if err != nil {
		return nil, storeFailure("probe item", err)
	}
	if summary == nil {
		return &ProbeResult{Exists: false}, nil
	}

	if cacheable {
		stored, err := p.cache.SetItemSummary(ctx, itemName, summary, p.ttl, generation)
		switch {
		case err != nil:
			p.logger.Warn("Probe cache write failed", zap.String("item_name", itemName), zap.Error(err))
		case !stored:
			util.ProbeCacheTotal.WithLabelValues("stale").Inc()
			p.logger.Debug("Probe cache write dropped after invalidation", zap.String("item_name", itemName))
		}
	}

	return &ProbeResult{Exists: true, Item: summary}, nil
}
