/*
engine.go - Atomic application of commands to the catalog + journal

PURPOSE:
  The Engine is the single writer of ledger state. Every command
  (catalog mutation, stock transaction, sale) runs as one logical
  transaction: read current state, validate, mutate in memory, commit
  everything to the store as one unit. A command is not complete until
  the durable write succeeds.

CRITICAL INVARIANTS:
  1. SERIALIZED WRITES: One exclusive lock guards the entire
     read-validate-mutate-commit sequence of every mutating command.
     Two concurrent subtracts can never both read the same stale
     quantity and overdraw stock.
  2. ATOMIC EFFECTS: A quantity change and its journal entry commit
     together or not at all; no state is observable in which one
     happened without the other.
  3. NON-NEGATIVE STOCK: A subtract that would drive quantity below
     zero is rejected before any mutation.
  4. ADVISORY ALERTS: Low-stock warnings are evaluated after applying
     a transaction and never block the commit.

QUERIES:
  Read-only operations do not take the writer lock; they observe the
  last-committed snapshot. Stale by at most one in-flight command,
  never torn.

FAILURE SEMANTICS:
  Validation and not-found failures are detected pre-commit and leave
  state untouched. A durable-write failure aborts the whole command and
  the previous durable state remains authoritative; the engine does not
  retry.

SEE ALSO:
  - store.go: WithTx commit contract
  - projection.go: Derived read-only views
*/
package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WalkInCustomer is the label recorded on sales with no named customer.
const WalkInCustomer = "Walk-in Customer"

// =============================================================================
// ENGINE
// =============================================================================

// Engine validates and applies commands against the combined
// catalog+journal state, committing each command atomically.
type Engine struct {
	store TxStore
	log   zerolog.Logger

	// mu serializes all mutating commands. Persisting is part of the
	// critical section: in-memory reasoning and the durable copy must
	// not diverge.
	mu sync.Mutex

	now   func() time.Time
	newID func() string
}

// NewEngine creates an engine on top of the given store.
func NewEngine(store TxStore) *Engine {
	return &Engine{
		store: store,
		log:   zerolog.Nop(),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// SetLogger attaches a structured logger for alerts and commit failures.
func (e *Engine) SetLogger(log zerolog.Logger) {
	e.log = log
}

// commit runs fn inside a store transaction, classifying failures.
// Domain errors pass through untouched; anything else is a persistence
// failure fatal to the in-flight command only.
func (e *Engine) commit(ctx context.Context, op string, fn func(Store) error) error {
	err := e.store.WithTx(ctx, fn)
	if err == nil {
		return nil
	}
	if IsClientError(err) || IsNotFound(err) {
		return err
	}
	e.log.Error().Err(err).Str("op", op).Msg("commit failed")
	return &PersistenceError{Op: op, Err: err}
}

// =============================================================================
// CATALOG COMMANDS
// =============================================================================

// CreateProduct validates the spec and adds a new product to the catalog.
func (e *Engine) CreateProduct(ctx context.Context, spec ProductSpec) (*Product, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	p := Product{
		ID:            e.newID(),
		Name:          spec.Name,
		Description:   spec.Description,
		Category:      spec.Category,
		Price:         spec.Price,
		Quantity:      spec.Quantity,
		MinStockLevel: spec.MinStockLevel,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := e.commit(ctx, "create product", func(s Store) error {
		return s.SaveProduct(ctx, p)
	}); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct merges the patch over the existing record. Unsupplied
// fields are retained; supplied fields overwrite, including with empty
// values.
func (e *Engine) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*Product, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.store.GetProduct(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "load product", Err: err}
	}
	if p == nil {
		return nil, ErrProductNotFound
	}

	patch.ApplyTo(p)
	p.UpdatedAt = e.now()

	if err := e.commit(ctx, "update product", func(s Store) error {
		return s.SaveProduct(ctx, *p)
	}); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes a product from the catalog. Journal entries
// referencing it are retained as history.
func (e *Engine) DeleteProduct(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.commit(ctx, "delete product", func(s Store) error {
		return s.DeleteProduct(ctx, id)
	})
}

// GetProduct returns a single product.
func (e *Engine) GetProduct(ctx context.Context, id string) (*Product, error) {
	p, err := e.store.GetProduct(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "load product", Err: err}
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

// ListProducts returns all products in insertion order.
func (e *Engine) ListProducts(ctx context.Context) ([]Product, error) {
	return e.store.ListProducts(ctx)
}

// =============================================================================
// STOCK TRANSACTIONS
// =============================================================================

// PostStockTransaction applies one stock movement to a product.
//
// The product's quantity update and the journal append commit together.
// Returns the committed transaction and an advisory low-stock warning
// ("" when stock is fine); the warning never blocks the commit.
func (e *Engine) PostStockTransaction(ctx context.Context, productID string, txType TxType, quantity int, notes string) (*StockTransaction, string, error) {
	if productID == "" {
		return nil, "", &ValidationError{Field: "productId", Message: "must not be empty"}
	}
	if !txType.Valid() {
		return nil, "", &ValidationError{Field: "type", Message: fmt.Sprintf("must be %q or %q", TxAdd, TxSubtract)}
	}
	if quantity <= 0 {
		return nil, "", &ValidationError{Field: "quantity", Message: "must be a positive integer"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, "", &PersistenceError{Op: "load product", Err: err}
	}
	if p == nil {
		return nil, "", ErrProductNotFound
	}

	switch txType {
	case TxAdd:
		p.Quantity += quantity
	case TxSubtract:
		if quantity > p.Quantity {
			return nil, "", &InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   quantity,
				Available:   p.Quantity,
			}
		}
		p.Quantity -= quantity
	}
	now := e.now()
	p.UpdatedAt = now

	tx := StockTransaction{
		ID:        e.newID(),
		ProductID: productID,
		Type:      txType,
		Quantity:  quantity,
		Notes:     notes,
		CreatedAt: now,
	}

	if err := e.commit(ctx, "post stock transaction", func(s Store) error {
		if err := s.SaveProduct(ctx, *p); err != nil {
			return err
		}
		return s.AppendTransaction(ctx, tx)
	}); err != nil {
		return nil, "", err
	}

	warning := ""
	if p.Quantity < p.MinStockLevel {
		warning = fmt.Sprintf("Low stock alert: %s has only %d units left", p.Name, p.Quantity)
		e.log.Warn().
			Str("product_id", p.ID).
			Int("quantity", p.Quantity).
			Int("min_stock_level", p.MinStockLevel).
			Msg("low stock")
	}
	return &tx, warning, nil
}

// ListTransactions returns the whole journal, chronologically.
func (e *Engine) ListTransactions(ctx context.Context) ([]StockTransaction, error) {
	return e.store.ListTransactions(ctx)
}

// ListTransactionsByProduct returns a product's journal entries,
// chronologically. The product may have been deleted; history remains.
func (e *Engine) ListTransactionsByProduct(ctx context.Context, productID string) ([]StockTransaction, error) {
	return e.store.ListTransactionsByProduct(ctx, productID)
}

// =============================================================================
// SALES
// =============================================================================

// SaleLineInput is one requested item of a sale. The unit price is
// captured from the catalog, not supplied by the client.
type SaleLineInput struct {
	ProductID string
	Quantity  int
}

// SaleInput is the input to record a sale.
type SaleInput struct {
	Customer        string
	Lines           []SaleLineInput
	DiscountPercent decimal.Decimal
	PaymentMethod   PaymentMethod
}

// RecordSale checks out a multi-item purchase.
//
// Every line behaves as a subtract transaction against its product. If ANY
// line would fail (unknown product, insufficient stock) the entire sale is
// rejected with zero effect. On success, all product decrements, one journal
// entry per line, and the sale record commit as one unit.
func (e *Engine) RecordSale(ctx context.Context, input SaleInput) (*Sale, error) {
	if len(input.Lines) == 0 {
		return nil, &ValidationError{Field: "lines", Message: "must contain at least one line"}
	}
	hundred := decimal.NewFromInt(100)
	if input.DiscountPercent.IsNegative() || input.DiscountPercent.GreaterThan(hundred) {
		return nil, &ValidationError{Field: "discountPercent", Message: "must be between 0 and 100"}
	}
	payment := input.PaymentMethod
	if payment == "" {
		payment = PayCash
	}
	if !payment.Valid() {
		return nil, &ValidationError{Field: "paymentMethod", Message: "unknown payment method"}
	}
	for _, ln := range input.Lines {
		if ln.Quantity <= 0 {
			return nil, &ValidationError{Field: "lines.quantity", Message: "must be a positive integer"}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Stage all decrements in memory first so a failing line leaves
	// nothing behind. A product appearing on multiple lines draws down
	// cumulatively.
	staged := make(map[string]*Product)
	var productOrder []string
	lines := make([]SaleLine, 0, len(input.Lines))

	for _, ln := range input.Lines {
		p, ok := staged[ln.ProductID]
		if !ok {
			loaded, err := e.store.GetProduct(ctx, ln.ProductID)
			if err != nil {
				return nil, &PersistenceError{Op: "load product", Err: err}
			}
			if loaded == nil {
				return nil, fmt.Errorf("line %s: %w", ln.ProductID, ErrProductNotFound)
			}
			p = loaded
			staged[ln.ProductID] = p
			productOrder = append(productOrder, ln.ProductID)
		}
		if ln.Quantity > p.Quantity {
			return nil, &InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   ln.Quantity,
				Available:   p.Quantity,
			}
		}
		p.Quantity -= ln.Quantity
		lines = append(lines, SaleLine{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    ln.Quantity,
			UnitPrice:   p.Price,
		})
	}

	now := e.now()
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal())
	}
	total := subtotal.Mul(decimal.NewFromInt(1).Sub(input.DiscountPercent.Div(hundred)))

	customer := input.Customer
	if customer == "" {
		customer = WalkInCustomer
	}

	sale := Sale{
		ID:              e.newID(),
		Customer:        customer,
		Lines:           lines,
		DiscountPercent: input.DiscountPercent,
		Total:           total,
		PaymentMethod:   payment,
		CreatedAt:       now,
	}

	if err := e.commit(ctx, "record sale", func(s Store) error {
		for _, id := range productOrder {
			p := staged[id]
			p.UpdatedAt = now
			if err := s.SaveProduct(ctx, *p); err != nil {
				return err
			}
		}
		for _, l := range lines {
			tx := StockTransaction{
				ID:        e.newID(),
				ProductID: l.ProductID,
				Type:      TxSubtract,
				Quantity:  l.Quantity,
				Notes:     fmt.Sprintf("sale %s", sale.ID),
				CreatedAt: now,
			}
			if err := s.AppendTransaction(ctx, tx); err != nil {
				return err
			}
		}
		return s.AppendSale(ctx, sale)
	}); err != nil {
		return nil, err
	}

	e.log.Info().
		Str("sale_id", sale.ID).
		Int("lines", len(sale.Lines)).
		Str("total", sale.Total.String()).
		Msg("sale recorded")
	return &sale, nil
}

// ListSales returns all sales, chronologically.
func (e *Engine) ListSales(ctx context.Context) ([]Sale, error) {
	return e.store.ListSales(ctx)
}

// =============================================================================
// CUSTOMER COMMANDS
// =============================================================================

// CreateCustomer adds a new customer.
func (e *Engine) CreateCustomer(ctx context.Context, spec CustomerSpec) (*Customer, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	c := Customer{
		ID:            e.newID(),
		Name:          spec.Name,
		Email:         spec.Email,
		Phone:         spec.Phone,
		LoyaltyPoints: spec.LoyaltyPoints,
		LastVisit:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := e.commit(ctx, "create customer", func(s Store) error {
		return s.SaveCustomer(ctx, c)
	}); err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCustomer merges the patch over the existing record.
func (e *Engine) UpdateCustomer(ctx context.Context, id string, patch CustomerPatch) (*Customer, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "load customer", Err: err}
	}
	if c == nil {
		return nil, ErrCustomerNotFound
	}

	patch.ApplyTo(c)
	c.UpdatedAt = e.now()

	if err := e.commit(ctx, "update customer", func(s Store) error {
		return s.SaveCustomer(ctx, *c)
	}); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCustomer removes a customer.
func (e *Engine) DeleteCustomer(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.commit(ctx, "delete customer", func(s Store) error {
		return s.DeleteCustomer(ctx, id)
	})
}

// ListCustomers returns all customers in insertion order.
func (e *Engine) ListCustomers(ctx context.Context) ([]Customer, error) {
	return e.store.ListCustomers(ctx)
}
