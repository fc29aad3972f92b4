/*
projection.go - Read-only derived views

PURPOSE:
  Pure functions computing the views the UI screens consume: low-stock
  list, inventory valuation, top sellers, sales totals. A projection is
  never a source of truth - it is recomputed freshly from the current
  catalog/journal snapshot on every call, so there is no cache to go
  stale.

TOP SELLERS:
  Aggregated from sale lines, not raw subtract transactions: sale lines
  carry the unit price needed for revenue, and direct stock adjustments
  (shrinkage, corrections) are not sales. Products deleted since the
  sale are reported under the name recorded on the sale line.

DATE RANGES:
  All ranges are [from, to] inclusive.

SEE ALSO:
  - engine.go: Convenience wrappers loading the snapshot from the store
*/
package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PURE PROJECTIONS - Snapshot in, derived view out
// =============================================================================

// LowStock returns the products at or below their alert threshold,
// preserving catalog order.
func LowStock(products []Product) []Product {
	result := []Product{}
	for _, p := range products {
		if p.IsLowStock() {
			result = append(result, p)
		}
	}
	return result
}

// OutOfStock returns the products with zero on-hand quantity,
// preserving catalog order.
func OutOfStock(products []Product) []Product {
	result := []Product{}
	for _, p := range products {
		if p.Quantity == 0 {
			result = append(result, p)
		}
	}
	return result
}

// InventoryValue returns Σ(price × quantity) over all products.
func InventoryValue(products []Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Value())
	}
	return total
}

// ProductSales is one row of the top-sellers view.
type ProductSales struct {
	ProductID   string
	ProductName string
	Quantity    int
	Revenue     decimal.Decimal
}

// TopSelling aggregates sale lines in [from, to] by product, summing
// quantity and revenue, sorted descending by quantity. Ties keep
// first-sold order. Truncated to n rows (n <= 0 means no rows).
func TopSelling(sales []Sale, n int, from, to time.Time) []ProductSales {
	byProduct := make(map[string]*ProductSales)
	var order []string

	for _, sale := range sales {
		if !inRange(sale.CreatedAt, from, to) {
			continue
		}
		for _, l := range sale.Lines {
			row, ok := byProduct[l.ProductID]
			if !ok {
				row = &ProductSales{
					ProductID:   l.ProductID,
					ProductName: l.ProductName,
					Revenue:     decimal.Zero,
				}
				byProduct[l.ProductID] = row
				order = append(order, l.ProductID)
			}
			row.Quantity += l.Quantity
			row.Revenue = row.Revenue.Add(l.Subtotal())
		}
	}

	rows := make([]ProductSales, 0, len(order))
	for _, id := range order {
		rows = append(rows, *byProduct[id])
	}
	// Stable sort keeps first-sold order among equal quantities.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Quantity > rows[j].Quantity
	})

	if n < 0 {
		n = 0
	}
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// SalesTotal returns the sum of sale totals in [from, to].
func SalesTotal(sales []Sale, from, to time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, s := range sales {
		if inRange(s.CreatedAt, from, to) {
			total = total.Add(s.Total)
		}
	}
	return total
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

// =============================================================================
// ENGINE WRAPPERS - Load the last-committed snapshot, then project
// =============================================================================

// LowStock returns the current low-stock list.
func (e *Engine) LowStock(ctx context.Context) ([]Product, error) {
	products, err := e.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return LowStock(products), nil
}

// OutOfStock returns the products currently out of stock.
func (e *Engine) OutOfStock(ctx context.Context) ([]Product, error) {
	products, err := e.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return OutOfStock(products), nil
}

// InventoryValue returns the current total inventory valuation.
func (e *Engine) InventoryValue(ctx context.Context) (decimal.Decimal, error) {
	products, err := e.store.ListProducts(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return InventoryValue(products), nil
}

// TopSelling returns the top n selling products in [from, to].
func (e *Engine) TopSelling(ctx context.Context, n int, from, to time.Time) ([]ProductSales, error) {
	sales, err := e.store.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	return TopSelling(sales, n, from, to), nil
}

// SalesTotal returns the sum of sale totals in [from, to].
func (e *Engine) SalesTotal(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	sales, err := e.store.ListSales(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return SalesTotal(sales, from, to), nil
}
