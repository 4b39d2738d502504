package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")

	ErrItemNotFound     = fmt.Errorf("item %w", ErrNotFound)
	ErrBatchNotFound    = fmt.Errorf("batch %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)

	ErrStoreFailure = errors.New("store failure")
)

// PartialCascadeError reports an item soft-delete that committed while the
// follow-up soft-delete of its batches failed. The item is gone from reads;
// its batches are still flagged live.
type PartialCascadeError struct {
	ItemID string
	Err    error
}

func (e *PartialCascadeError) Error() string {
	return fmt.Sprintf("item %s deleted but batch cascade failed: %v", e.ItemID, e.Err)
}

func (e *PartialCascadeError) Unwrap() error {
	return e.Err
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func storeFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreFailure, err)
}
