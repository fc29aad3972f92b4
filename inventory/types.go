/*
Package inventory provides the core inventory ledger engine.

PURPOSE:
  This package contains the types and algorithms for managing a retail
  catalog and its stock levels. Products carry a current on-hand quantity;
  every change to that quantity is recorded as an immutable transaction in
  an append-only journal, so the catalog and its history never drift apart.

KEY CONCEPTS IN THIS FILE (types.go):
  - Product: A sellable item with price, quantity, and alert threshold
  - StockTransaction: An immutable journal entry recording one stock movement
  - Sale: A completed multi-item checkout (separate journal, for reporting)
  - Customer: A shop customer record (loyalty points, last visit)

DESIGN PRINCIPLES:
  1. Immutability: Journal entries are never modified or removed
  2. Precision: Uses decimal.Decimal for money to avoid floating-point errors
  3. Non-negativity: Quantity and price can never go below zero
  4. Single source of truth: Derived views are recomputed, never stored

SEE ALSO:
  - engine.go: Atomic application of commands to catalog+journal
  - projection.go: Read-only derived views
  - store.go: Persistence interfaces
*/
package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRODUCT - Catalog record
// =============================================================================

// Product represents one sellable item in the catalog.
//
// INVARIANTS:
//   - ID is unique across the catalog
//   - Quantity is never negative
//   - Price is never negative
//
// Quantity is mutated only by the Engine applying a stock transaction;
// all other fields change only through catalog update commands.
type Product struct {
	ID            string
	Name          string
	Description   string
	Category      string
	Price         decimal.Decimal
	Quantity      int
	MinStockLevel int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsLowStock reports whether the product is at or below its alert threshold.
func (p Product) IsLowStock() bool {
	return p.Quantity <= p.MinStockLevel
}

// Value returns price × quantity for this product.
func (p Product) Value() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// =============================================================================
// STOCK TRANSACTION - Immutable journal entry
// =============================================================================

// TxType is the direction of a stock movement.
type TxType string

const (
	TxAdd      TxType = "add"      // Stock received (restock, correction up)
	TxSubtract TxType = "subtract" // Stock removed (sale, shrinkage, correction down)
)

// Valid reports whether t is a known transaction type.
func (t TxType) Valid() bool {
	return t == TxAdd || t == TxSubtract
}

// StockTransaction is one stock movement against a product.
// Once appended to the journal it is immutable: there is no update or
// delete operation. It is the durable record of why a quantity changed.
type StockTransaction struct {
	ID        string
	ProductID string
	Type      TxType
	Quantity  int // always positive; direction comes from Type
	Notes     string
	CreatedAt time.Time
}

// Delta returns the signed quantity change this transaction applies.
func (tx StockTransaction) Delta() int {
	if tx.Type == TxSubtract {
		return -tx.Quantity
	}
	return tx.Quantity
}

// =============================================================================
// SALE - Completed checkout (separate journal, reporting source)
// =============================================================================

// PaymentMethod is how a sale was paid.
type PaymentMethod string

const (
	PayCash   PaymentMethod = "cash"
	PayCard   PaymentMethod = "card"
	PayMobile PaymentMethod = "mobile"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == PayCash || m == PayCard || m == PayMobile
}

// SaleLine is one item on a sale. The unit price is captured from the
// catalog at checkout time so later price changes don't rewrite history.
type SaleLine struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Subtotal returns unit price × quantity for this line.
func (l SaleLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Sale represents a completed multi-item purchase.
//
// INVARIANT: Total = Σ(line subtotals) × (1 − DiscountPercent/100).
// A sale is recorded only after all constituent stock subtractions succeed.
type Sale struct {
	ID              string
	Customer        string
	Lines           []SaleLine
	DiscountPercent decimal.Decimal
	Total           decimal.Decimal
	PaymentMethod   PaymentMethod
	CreatedAt       time.Time
}

// =============================================================================
// CUSTOMER - Shop customer record
// =============================================================================

// Customer is a known shop customer. Customers are optional collaborators
// of sales (a sale may name a walk-in customer not on file).
type Customer struct {
	ID            string
	Name          string
	Email         string
	Phone         string
	LoyaltyPoints int
	LastVisit     time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
