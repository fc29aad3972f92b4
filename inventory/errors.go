/*
errors.go - Centralized error types for the inventory engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The HTTP layer maps these onto status codes; nothing outside this
  package invents its own error taxonomy.

ERROR CATEGORIES:
  1. Validation errors - malformed or out-of-range input, client-correctable
  2. Not-found errors - a referenced id does not exist
  3. Insufficient stock - a subtract would drive quantity below zero
  4. Persistence errors - durable read/write failure, not client-correctable

SEE ALSO:
  - engine.go: Produces these errors
  - api/handlers.go: Maps them to HTTP status codes
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
	// ErrProductNotFound is returned when a referenced product doesn't exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrCustomerNotFound is returned when a referenced customer doesn't exist.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrInsufficientStock is returned when a subtract exceeds on-hand quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports malformed or missing input. It is detected before
// any mutation, so a command failing validation has zero effect.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InsufficientStockError provides details about a rejected subtraction.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// PersistenceError wraps a durable read/write failure. The in-flight command
// is aborted and the previous durable state remains authoritative.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrCustomerNotFound)
}

// IsClientError returns true if the error is due to invalid client input
// and resubmitting a corrected command could succeed.
func IsClientError(err error) bool {
	return IsValidation(err) || errors.Is(err, ErrInsufficientStock)
}
