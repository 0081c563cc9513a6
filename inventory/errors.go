/*
errors.go - Centralized error types for the inventory core

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers (HTTP handlers) map these onto status codes with the helpers
  at the bottom.

ERROR CATEGORIES:
  1. Shortage errors - expected, user-facing; carry per-material messages
  2. Referential errors - operating on rows that no longer exist
  3. Invariant violations - deduction would push stock negative

USAGE:
  var shortage *inventory.ShortageError
  if errors.As(err, &shortage) {
      respond(400, shortage.Shortages)
  }
*/
package inventory

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientStock is the category behind every ShortageError.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrMaterialNotFound is returned when a referenced material doesn't exist.
	ErrMaterialNotFound = errors.New("material not found")

	// ErrProductNotFound is returned when a referenced product doesn't exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrNegativeStock is returned when a deduction would push a material's
	// quantity below zero. Verification should make this unreachable; if it
	// fires anyway, the whole transaction must abort rather than clamp.
	ErrNegativeStock = errors.New("deduction would make stock negative")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ShortageError aggregates every per-material shortage message produced by
// stock verification for one order. The order is rejected as a whole.
type ShortageError struct {
	Shortages []string
}

func (e *ShortageError) Error() string {
	return fmt.Sprintf("stock validation failed for %d material(s)", len(e.Shortages))
}

func (e *ShortageError) Unwrap() error { return ErrInsufficientStock }

// NegativeStockError reports which material a deduction tried to overdraw.
type NegativeStockError struct {
	MaterialID string
	Requested  string
	Available  string
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("material %s: requested %s exceeds available %s",
		e.MaterialID, e.Requested, e.Available)
}

func (e *NegativeStockError) Unwrap() error { return ErrNegativeStock }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input
// rather than an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}

// IsNotFound returns true if the error indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMaterialNotFound) ||
		errors.Is(err, ErrProductNotFound)
}
