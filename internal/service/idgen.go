package service

import (
	"context"
	"fmt"
)

// Identifier kinds and prefixes
const (
	KindBatch         = "batch"
	PrefixBatch       = "BAT"
	KindInventoryItem = "inventoryItem"
	PrefixItem        = "ITEM"
)

// SequenceIDGenerator formats ids as PREFIX-000042 from a shared counter.
// Uniqueness across callers comes from the counter's atomic increment.
type SequenceIDGenerator struct {
	source SequenceSource
}

func NewSequenceIDGenerator(source SequenceSource) *SequenceIDGenerator {
	return &SequenceIDGenerator{source: source}
}

func (g *SequenceIDGenerator) Generate(ctx context.Context, kind, prefix string) (string, error) {
	n, err := g.source.NextSequence(ctx, kind)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s id: %w", kind, err)
	}
	return fmt.Sprintf("%s-%06d", prefix, n), nil
}
