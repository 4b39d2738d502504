package service

import (
	"context"
	"fmt"

	"stock-service/internal/models"
)

// CategoryResolver maps entry classification text to a category row
type CategoryResolver struct {
	store CategoryStore
}

func NewCategoryResolver(store CategoryStore) *CategoryResolver {
	return &CategoryResolver{store: store}
}

// ResolvedName splits classifications in two: exactly "Consumable", or
// everything else.
func (r *CategoryResolver) ResolvedName(classification string) string {
	if classification == models.CategoryConsumable {
		return models.CategoryConsumable
	}
	return models.CategoryMachineEquipment
}

func (r *CategoryResolver) Resolve(ctx context.Context, classification string) (*models.Category, error) {
	category, err := r.store.GetCategoryByName(ctx, r.ResolvedName(classification))
	if err != nil {
		return nil, storeFailure("lookup category", err)
	}
	if category == nil {
		return nil, fmt.Errorf("%w for %q", ErrCategoryNotFound, classification)
	}
	return category, nil
}
