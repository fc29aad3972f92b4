/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements inventory.TxStore using SQLite. This is the durable copy of
  the catalog and journals: the single source of truth across restarts.
  In production, the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

APPEND-ONLY ENFORCEMENT:
  The journal tables are append-only:
  - No UPDATE statements on transactions or sales
  - No DELETE statements on transactions or sales
  Deleting a product leaves its journal rows in place.

KEY TABLES:
  products:     Catalog records (position column keeps insertion order)
  transactions: Immutable journal of stock movements
  customers:    Customer records
  sales:        Completed checkouts
  sale_lines:   Per-sale line items (ordered by line_no)

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

ATOMIC COMMITS:
  WithTx wraps fn in BEGIN...COMMIT. A failed fn or a failed commit rolls
  everything back, so the durable state always reflects whole commands.

USAGE:
  store, err := sqlite.New("./data/inventory.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := inventory.NewEngine(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - inventory/store.go: Interface definitions
  - inventory/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/inventory-ledger/inventory"
)

// Store implements inventory.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database. Collections start empty
// on first run.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Catalog. position preserves insertion order across upserts.
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		price TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 0),
		min_stock_level INTEGER NOT NULL DEFAULT 0 CHECK (min_stock_level >= 0),
		position INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);

	-- Stock journal. Append-only; seq gives chronological order.
	CREATE TABLE IF NOT EXISTS transactions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		product_id TEXT NOT NULL,
		tx_type TEXT NOT NULL CHECK (tx_type IN ('add', 'subtract')),
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_product
		ON transactions(product_id);

	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		loyalty_points INTEGER NOT NULL DEFAULT 0,
		last_visit TEXT NOT NULL,
		position INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Sale journal. Append-only.
	CREATE TABLE IF NOT EXISTS sales (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		customer TEXT NOT NULL,
		discount_percent TEXT NOT NULL,
		total TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sale_lines (
		sale_id TEXT NOT NULL REFERENCES sales(id),
		line_no INTEGER NOT NULL,
		product_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price TEXT NOT NULL,
		PRIMARY KEY (sale_id, line_no)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (s *Store) SaveProduct(ctx context.Context, p inventory.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveProduct(ctx, s.db, p)
}

func saveProduct(ctx context.Context, q dbtx, p inventory.Product) error {
	query := `
		INSERT INTO products
		(id, name, description, category, price, quantity, min_stock_level, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM products), ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			category = excluded.category,
			price = excluded.price,
			quantity = excluded.quantity,
			min_stock_level = excluded.min_stock_level,
			updated_at = excluded.updated_at
	`
	_, err := q.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.Category,
		p.Price.String(), p.Quantity, p.MinStockLevel,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteProduct(ctx, s.db, id)
}

func deleteProduct(ctx context.Context, q dbtx, id string) error {
	res, err := q.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if n == 0 {
		return inventory.ErrProductNotFound
	}
	return nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*inventory.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getProduct(ctx, s.db, id)
}

func getProduct(ctx context.Context, q dbtx, id string) (*inventory.Product, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, description, category, price, quantity, min_stock_level, created_at, updated_at
		FROM products WHERE id = ?
	`, id)

	p, err := scanProduct(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]inventory.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listProducts(ctx, s.db)
}

func listProducts(ctx context.Context, q dbtx) ([]inventory.Product, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, description, category, price, quantity, min_stock_level, created_at, updated_at
		FROM products ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []inventory.Product{}
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func scanProduct(scan func(...any) error) (inventory.Product, error) {
	var (
		p         inventory.Product
		price     string
		createdAt string
		updatedAt string
	)
	if err := scan(&p.ID, &p.Name, &p.Description, &p.Category, &price,
		&p.Quantity, &p.MinStockLevel, &createdAt, &updatedAt); err != nil {
		return inventory.Product{}, err
	}

	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return inventory.Product{}, fmt.Errorf("invalid price %q: %w", price, err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return inventory.Product{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return inventory.Product{}, err
	}
	return p, nil
}

// =============================================================================
// STOCK JOURNAL
// =============================================================================

func (s *Store) AppendTransaction(ctx context.Context, tx inventory.StockTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendTransaction(ctx, s.db, tx)
}

func appendTransaction(ctx context.Context, q dbtx, tx inventory.StockTransaction) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO transactions (id, product_id, tx_type, quantity, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, tx.ID, tx.ProductID, string(tx.Type), tx.Quantity, tx.Notes, formatTime(tx.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]inventory.StockTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryTransactions(ctx, s.db, `
		SELECT id, product_id, tx_type, quantity, notes, created_at
		FROM transactions ORDER BY seq ASC
	`)
}

func (s *Store) ListTransactionsByProduct(ctx context.Context, productID string) ([]inventory.StockTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryTransactions(ctx, s.db, `
		SELECT id, product_id, tx_type, quantity, notes, created_at
		FROM transactions WHERE product_id = ? ORDER BY seq ASC
	`, productID)
}

func queryTransactions(ctx context.Context, q dbtx, query string, args ...any) ([]inventory.StockTransaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	txs := []inventory.StockTransaction{}
	for rows.Next() {
		var (
			tx        inventory.StockTransaction
			txType    string
			createdAt string
		)
		if err := rows.Scan(&tx.ID, &tx.ProductID, &txType, &tx.Quantity, &tx.Notes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Type = inventory.TxType(txType)
		if tx.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// =============================================================================
// CUSTOMERS
// =============================================================================

func (s *Store) SaveCustomer(ctx context.Context, c inventory.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveCustomer(ctx, s.db, c)
}

func saveCustomer(ctx context.Context, q dbtx, c inventory.Customer) error {
	query := `
		INSERT INTO customers
		(id, name, email, phone, loyalty_points, last_visit, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM customers), ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			loyalty_points = excluded.loyalty_points,
			last_visit = excluded.last_visit,
			updated_at = excluded.updated_at
	`
	_, err := q.ExecContext(ctx, query,
		c.ID, c.Name, c.Email, c.Phone, c.LoyaltyPoints,
		formatTime(c.LastVisit), formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save customer: %w", err)
	}
	return nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteCustomer(ctx, s.db, id)
}

func deleteCustomer(ctx context.Context, q dbtx, id string) error {
	res, err := q.ExecContext(ctx, "DELETE FROM customers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	if n == 0 {
		return inventory.ErrCustomerNotFound
	}
	return nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*inventory.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getCustomer(ctx, s.db, id)
}

func getCustomer(ctx context.Context, q dbtx, id string) (*inventory.Customer, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, email, phone, loyalty_points, last_visit, created_at, updated_at
		FROM customers WHERE id = ?
	`, id)

	c, err := scanCustomer(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &c, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]inventory.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listCustomers(ctx, s.db)
}

func listCustomers(ctx context.Context, q dbtx) ([]inventory.Customer, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, email, phone, loyalty_points, last_visit, created_at, updated_at
		FROM customers ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []inventory.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func scanCustomer(scan func(...any) error) (inventory.Customer, error) {
	var (
		c         inventory.Customer
		lastVisit string
		createdAt string
		updatedAt string
	)
	if err := scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.LoyaltyPoints,
		&lastVisit, &createdAt, &updatedAt); err != nil {
		return inventory.Customer{}, err
	}

	var err error
	if c.LastVisit, err = parseTime(lastVisit); err != nil {
		return inventory.Customer{}, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return inventory.Customer{}, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return inventory.Customer{}, err
	}
	return c, nil
}

// =============================================================================
// SALES
// =============================================================================

func (s *Store) AppendSale(ctx context.Context, sale inventory.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendSale(ctx, s.db, sale)
}

func appendSale(ctx context.Context, q dbtx, sale inventory.Sale) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO sales (id, customer, discount_percent, total, payment_method, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sale.ID, sale.Customer, sale.DiscountPercent.String(), sale.Total.String(),
		string(sale.PaymentMethod), formatTime(sale.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to append sale: %w", err)
	}

	for i, l := range sale.Lines {
		_, err := q.ExecContext(ctx, `
			INSERT INTO sale_lines (sale_id, line_no, product_id, product_name, quantity, unit_price)
			VALUES (?, ?, ?, ?, ?, ?)
		`, sale.ID, i, l.ProductID, l.ProductName, l.Quantity, l.UnitPrice.String())
		if err != nil {
			return fmt.Errorf("failed to append sale line: %w", err)
		}
	}
	return nil
}

func (s *Store) ListSales(ctx context.Context) ([]inventory.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSales(ctx, s.db)
}

func listSales(ctx context.Context, q dbtx) ([]inventory.Sale, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, customer, discount_percent, total, payment_method, created_at
		FROM sales ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	sales := []inventory.Sale{}
	index := map[string]int{}
	for rows.Next() {
		var (
			sale      inventory.Sale
			discount  string
			total     string
			payment   string
			createdAt string
		)
		if err := rows.Scan(&sale.ID, &sale.Customer, &discount, &total, &payment, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		if sale.DiscountPercent, err = decimal.NewFromString(discount); err != nil {
			return nil, fmt.Errorf("invalid discount %q: %w", discount, err)
		}
		if sale.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("invalid total %q: %w", total, err)
		}
		sale.PaymentMethod = inventory.PaymentMethod(payment)
		if sale.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		index[sale.ID] = len(sales)
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lineRows, err := q.QueryContext(ctx, `
		SELECT sale_id, product_id, product_name, quantity, unit_price
		FROM sale_lines ORDER BY sale_id, line_no ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sale lines: %w", err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var (
			saleID    string
			line      inventory.SaleLine
			unitPrice string
		)
		if err := lineRows.Scan(&saleID, &line.ProductID, &line.ProductName, &line.Quantity, &unitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan sale line: %w", err)
		}
		if line.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("invalid unit price %q: %w", unitPrice, err)
		}
		if i, ok := index[saleID]; ok {
			sales[i].Lines = append(sales[i].Lines, line)
		}
	}
	return sales, lineRows.Err()
}

// =============================================================================
// TRANSACTIONAL COMMITS
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(inventory.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txView{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// txView routes Store calls through an open database transaction.
type txView struct {
	q dbtx
}

func (v *txView) SaveProduct(ctx context.Context, p inventory.Product) error {
	return saveProduct(ctx, v.q, p)
}

func (v *txView) DeleteProduct(ctx context.Context, id string) error {
	return deleteProduct(ctx, v.q, id)
}

func (v *txView) GetProduct(ctx context.Context, id string) (*inventory.Product, error) {
	return getProduct(ctx, v.q, id)
}

func (v *txView) ListProducts(ctx context.Context) ([]inventory.Product, error) {
	return listProducts(ctx, v.q)
}

func (v *txView) AppendTransaction(ctx context.Context, tx inventory.StockTransaction) error {
	return appendTransaction(ctx, v.q, tx)
}

func (v *txView) ListTransactions(ctx context.Context) ([]inventory.StockTransaction, error) {
	return queryTransactions(ctx, v.q, `
		SELECT id, product_id, tx_type, quantity, notes, created_at
		FROM transactions ORDER BY seq ASC
	`)
}

func (v *txView) ListTransactionsByProduct(ctx context.Context, productID string) ([]inventory.StockTransaction, error) {
	return queryTransactions(ctx, v.q, `
		SELECT id, product_id, tx_type, quantity, notes, created_at
		FROM transactions WHERE product_id = ? ORDER BY seq ASC
	`, productID)
}

func (v *txView) SaveCustomer(ctx context.Context, c inventory.Customer) error {
	return saveCustomer(ctx, v.q, c)
}

func (v *txView) DeleteCustomer(ctx context.Context, id string) error {
	return deleteCustomer(ctx, v.q, id)
}

func (v *txView) GetCustomer(ctx context.Context, id string) (*inventory.Customer, error) {
	return getCustomer(ctx, v.q, id)
}

func (v *txView) ListCustomers(ctx context.Context) ([]inventory.Customer, error) {
	return listCustomers(ctx, v.q)
}

func (v *txView) AppendSale(ctx context.Context, sale inventory.Sale) error {
	return appendSale(ctx, v.q, sale)
}

func (v *txView) ListSales(ctx context.Context) ([]inventory.Sale, error) {
	return listSales(ctx, v.q)
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
