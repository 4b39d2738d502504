package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stock-service/internal/models"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client and verifies the connection
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// NextSequence atomically increments the per-kind id counter. The first
// call for a kind returns 1.
func (c *Client) NextSequence(ctx context.Context, kind string) (int64, error) {
	n, err := c.rdb.Incr(ctx, fmt.Sprintf("id:%s", kind)).Result()
	if err != nil {
		return 0, fmt.Errorf("incr sequence %s failed: %w", kind, err)
	}
	return n, nil
}

// generationTTL bounds how long an untouched name keeps its generation
// counter. An expired counter reads as 0, which never matches a generation
// taken after an invalidation.
const generationTTL = 24 * time.Hour

func summaryKey(itemName string) string {
	return fmt.Sprintf("probe:item:%s", itemName)
}

func generationKey(itemName string) string {
	return fmt.Sprintf("probe:gen:%s", itemName)
}

// GetItemSummary reads a cached existence-probe hit. ok is false on a miss.
func (c *Client) GetItemSummary(ctx context.Context, itemName string) (*models.ItemSummary, bool, error) {
	raw, err := c.rdb.Get(ctx, summaryKey(itemName)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var summary models.ItemSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, false, fmt.Errorf("corrupt probe cache entry: %w", err)
	}
	return &summary, true, nil
}

// SummaryGeneration returns the invalidation counter of a name. Read it
// before loading the summary from the store and pass it to SetItemSummary.
func (c *Client) SummaryGeneration(ctx context.Context, itemName string) (int64, error) {
	n, err := c.rdb.Get(ctx, generationKey(itemName)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// SetItemSummary caches an existence-probe hit with a TTL, but only while
// the name's generation still equals generation. stored is false when an
// invalidation happened in between.
func (c *Client) SetItemSummary(ctx context.Context, itemName string, summary *models.ItemSummary, ttl time.Duration, generation int64) (bool, error) {
	raw, err := json.Marshal(summary)
	if err != nil {
		return false, err
	}

	genKey := generationKey(itemName)
	stored := false
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, summaryKey(itemName), raw, ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, genKey)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

// InvalidateItemSummary drops the cached probe entry for a name and bumps
// its generation so in-flight probes cannot write it back.
func (c *Client) InvalidateItemSummary(ctx context.Context, itemName string) error {
	genKey := generationKey(itemName)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, summaryKey(itemName))
		return nil
	})
	return err
}
