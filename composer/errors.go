package composer

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by composer operations. Every operation either
// mutates the cart or returns one of these and leaves the cart untouched.
var (
	// ErrSubmitInFlight is returned when Submit is called while a previous
	// submission has not resolved yet.
	ErrSubmitInFlight = errors.New("a submission is already in progress")

	// ErrCompatibilityFetch marks a failed compatibility lookup. The cart is
	// still editable; the composer degrades to "no compatibility info".
	ErrCompatibilityFetch = errors.New("failed to fetch compatible products")

	// ErrNoPendingAdd is returned by ConfirmAdd when nothing was proposed.
	ErrNoPendingAdd = errors.New("no pending add to confirm")

	// ErrUnknownProduct is returned when an operation references a product id
	// that is not present in the catalog snapshot.
	ErrUnknownProduct = errors.New("product not found in catalog")
)

// ValidationError reports a missing or malformed customer field, or an empty
// cart, at submit time. No network call is issued when validation fails.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// OutOfStockError means the product has zero remaining stock and cannot be
// added at all.
type OutOfStockError struct {
	ProductID string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %s is out of stock", e.ProductID)
}

// InsufficientStockError means the requested quantity exceeds the available
// ceiling. Available reports how many units can still be ordered.
type InsufficientStockError struct {
	ProductID string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d units of product %s available in stock", e.Available, e.ProductID)
}

// SubmitError wraps a rejection from the order submitter. The cart is left
// intact so the user can retry.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("failed to submit order: %v", e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}
