/*
store.go - Persistence interfaces for the catalog and journals

PURPOSE:
  Defines the interface between the engine and the database. The Store
  holds four collections: products, transactions, customers, and sales.
  Different implementations can use SQLite or in-memory storage.

APPEND-ONLY CONTRACT:
  The stock-transaction journal and the sale journal are append-only:
  - AppendTransaction / AppendSale are the only write operations
  - NO update or delete methods exist for either journal
  Deleting a product does not touch journal entries that reference it.

ATOMIC COMMITS:
  WithTx ensures all-or-nothing semantics. Posting a stock transaction
  writes the product's new quantity AND the journal entry; recording a
  sale writes every line's decrement, one journal entry per line, and the
  sale record. Either all of it is durable or none of it is.

ORDERING:
  List operations return records in insertion order. For the journals
  insertion order is chronological order.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - inventory/store/memory.go: In-memory for testing

SEE ALSO:
  - engine.go: The only writer, always through WithTx
*/
package inventory

import "context"

// =============================================================================
// STORE - The four persisted collections
// =============================================================================

// Store handles persistence of the catalog and journals.
type Store interface {
	// SaveProduct inserts or replaces a product by ID. Replacing keeps the
	// product's original position in the catalog ordering.
	SaveProduct(ctx context.Context, p Product) error

	// DeleteProduct removes a product. Returns ErrProductNotFound if absent.
	// Journal entries referencing the product are retained.
	DeleteProduct(ctx context.Context, id string) error

	// GetProduct returns the product, or nil if absent.
	GetProduct(ctx context.Context, id string) (*Product, error)

	// ListProducts returns all products in insertion order.
	ListProducts(ctx context.Context) ([]Product, error)

	// AppendTransaction adds an entry to the end of the journal.
	// This is the ONLY write operation on the journal.
	AppendTransaction(ctx context.Context, tx StockTransaction) error

	// ListTransactions returns the whole journal, chronologically.
	ListTransactions(ctx context.Context) ([]StockTransaction, error)

	// ListTransactionsByProduct returns the journal entries for one product,
	// chronologically.
	ListTransactionsByProduct(ctx context.Context, productID string) ([]StockTransaction, error)

	// SaveCustomer inserts or replaces a customer by ID.
	SaveCustomer(ctx context.Context, c Customer) error

	// DeleteCustomer removes a customer. Returns ErrCustomerNotFound if absent.
	DeleteCustomer(ctx context.Context, id string) error

	// GetCustomer returns the customer, or nil if absent.
	GetCustomer(ctx context.Context, id string) (*Customer, error)

	// ListCustomers returns all customers in insertion order.
	ListCustomers(ctx context.Context) ([]Customer, error)

	// AppendSale adds a sale to the end of the sale journal.
	AppendSale(ctx context.Context, s Sale) error

	// ListSales returns all sales, chronologically.
	ListSales(ctx context.Context) ([]Sale, error)
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic multi-write commits
// =============================================================================

// TxStore wraps Store with transaction support.
//
// The engine performs every mutating command inside WithTx so that the
// durable state always reflects a consistent sequence of applied commands;
// no partial command is ever observable.
type TxStore interface {
	Store

	// WithTx executes fn against a transactional store view.
	// If fn returns an error, all writes are rolled back.
	// If fn returns nil, all writes are committed together.
	WithTx(ctx context.Context, fn func(Store) error) error
}
