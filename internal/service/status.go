package service

import "stock-service/internal/models"

var entryStatuses = map[string]models.ItemStatus{
	"available":    models.ItemStatusAvailable,
	"out-of-stock": models.ItemStatusOutOfStock,
	"low-stock":    models.ItemStatusLowStock,
	"maintenance":  models.ItemStatusUnderMaintenance,
}

// MapEntryStatus converts the free-text status of a stock entry. Unknown
// text maps to AVAILABLE; an entry is never rejected for its status.
func MapEntryStatus(raw string) models.ItemStatus {
	if status, ok := entryStatuses[raw]; ok {
		return status
	}
	return models.ItemStatusAvailable
}
