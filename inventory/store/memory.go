// Package store provides Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/inventory-ledger/inventory"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	products  []inventory.Product
	txs       []inventory.StockTransaction
	customers []inventory.Customer
	sales     []inventory.Sale
}

func NewMemory() *Memory {
	return &Memory{}
}

// SaveProduct inserts or replaces by ID, keeping insertion order.
func (m *Memory) SaveProduct(_ context.Context, p inventory.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveProductLocked(p)
	return nil
}

func (m *Memory) saveProductLocked(p inventory.Product) {
	for i := range m.products {
		if m.products[i].ID == p.ID {
			m.products[i] = p
			return
		}
	}
	m.products = append(m.products, p)
}

func (m *Memory) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteProductLocked(id)
}

func (m *Memory) deleteProductLocked(id string) error {
	for i := range m.products {
		if m.products[i].ID == id {
			m.products = append(m.products[:i], m.products[i+1:]...)
			return nil
		}
	}
	return inventory.ErrProductNotFound
}

func (m *Memory) GetProduct(_ context.Context, id string) (*inventory.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getProductLocked(id), nil
}

func (m *Memory) getProductLocked(id string) *inventory.Product {
	for i := range m.products {
		if m.products[i].ID == id {
			p := m.products[i]
			return &p
		}
	}
	return nil
}

func (m *Memory) ListProducts(_ context.Context) ([]inventory.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]inventory.Product, len(m.products))
	copy(result, m.products)
	return result, nil
}

// AppendTransaction adds a journal entry. Append-only.
func (m *Memory) AppendTransaction(_ context.Context, tx inventory.StockTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs = append(m.txs, tx)
	return nil
}

func (m *Memory) ListTransactions(_ context.Context) ([]inventory.StockTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]inventory.StockTransaction, len(m.txs))
	copy(result, m.txs)
	return result, nil
}

func (m *Memory) ListTransactionsByProduct(_ context.Context, productID string) ([]inventory.StockTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := []inventory.StockTransaction{}
	for _, tx := range m.txs {
		if tx.ProductID == productID {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (m *Memory) SaveCustomer(_ context.Context, c inventory.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCustomerLocked(c)
	return nil
}

func (m *Memory) saveCustomerLocked(c inventory.Customer) {
	for i := range m.customers {
		if m.customers[i].ID == c.ID {
			m.customers[i] = c
			return
		}
	}
	m.customers = append(m.customers, c)
}

func (m *Memory) DeleteCustomer(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteCustomerLocked(id)
}

func (m *Memory) deleteCustomerLocked(id string) error {
	for i := range m.customers {
		if m.customers[i].ID == id {
			m.customers = append(m.customers[:i], m.customers[i+1:]...)
			return nil
		}
	}
	return inventory.ErrCustomerNotFound
}

func (m *Memory) GetCustomer(_ context.Context, id string) (*inventory.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.customers {
		if m.customers[i].ID == id {
			c := m.customers[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListCustomers(_ context.Context) ([]inventory.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]inventory.Customer, len(m.customers))
	copy(result, m.customers)
	return result, nil
}

// AppendSale adds a sale record. Append-only.
func (m *Memory) AppendSale(_ context.Context, s inventory.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales = append(m.sales, s)
	return nil
}

func (m *Memory) ListSales(_ context.Context) ([]inventory.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]inventory.Sale, len(m.sales))
	copy(result, m.sales)
	return result, nil
}

// =============================================================================
// TRANSACTIONAL COMMITS
// =============================================================================

// WithTx executes fn within a transaction.
// For the memory store this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(_ context.Context, fn func(inventory.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()

	if err := fn(&memView{parent: m}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memSnapshot struct {
	products  []inventory.Product
	txs       []inventory.StockTransaction
	customers []inventory.Customer
	sales     []inventory.Sale
}

func (m *Memory) snapshot() memSnapshot {
	return memSnapshot{
		products:  append([]inventory.Product{}, m.products...),
		txs:       append([]inventory.StockTransaction{}, m.txs...),
		customers: append([]inventory.Customer{}, m.customers...),
		sales:     append([]inventory.Sale{}, m.sales...),
	}
}

func (m *Memory) restore(s memSnapshot) {
	m.products = s.products
	m.txs = s.txs
	m.customers = s.customers
	m.sales = s.sales
}

// memView routes writes to the already-locked parent.
type memView struct {
	parent *Memory
}

func (v *memView) SaveProduct(_ context.Context, p inventory.Product) error {
	v.parent.saveProductLocked(p)
	return nil
}

func (v *memView) DeleteProduct(_ context.Context, id string) error {
	return v.parent.deleteProductLocked(id)
}

func (v *memView) GetProduct(_ context.Context, id string) (*inventory.Product, error) {
	return v.parent.getProductLocked(id), nil
}

func (v *memView) ListProducts(_ context.Context) ([]inventory.Product, error) {
	result := make([]inventory.Product, len(v.parent.products))
	copy(result, v.parent.products)
	return result, nil
}

func (v *memView) AppendTransaction(_ context.Context, tx inventory.StockTransaction) error {
	v.parent.txs = append(v.parent.txs, tx)
	return nil
}

func (v *memView) ListTransactions(_ context.Context) ([]inventory.StockTransaction, error) {
	result := make([]inventory.StockTransaction, len(v.parent.txs))
	copy(result, v.parent.txs)
	return result, nil
}

func (v *memView) ListTransactionsByProduct(_ context.Context, productID string) ([]inventory.StockTransaction, error) {
	result := []inventory.StockTransaction{}
	for _, tx := range v.parent.txs {
		if tx.ProductID == productID {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (v *memView) SaveCustomer(_ context.Context, c inventory.Customer) error {
	v.parent.saveCustomerLocked(c)
	return nil
}

func (v *memView) DeleteCustomer(_ context.Context, id string) error {
	return v.parent.deleteCustomerLocked(id)
}

func (v *memView) GetCustomer(_ context.Context, id string) (*inventory.Customer, error) {
	for i := range v.parent.customers {
		if v.parent.customers[i].ID == id {
			c := v.parent.customers[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (v *memView) ListCustomers(_ context.Context) ([]inventory.Customer, error) {
	result := make([]inventory.Customer, len(v.parent.customers))
	copy(result, v.parent.customers)
	return result, nil
}

func (v *memView) AppendSale(_ context.Context, s inventory.Sale) error {
	v.parent.sales = append(v.parent.sales, s)
	return nil
}

func (v *memView) ListSales(_ context.Context) ([]inventory.Sale, error) {
	result := make([]inventory.Sale, len(v.parent.sales))
	copy(result, v.parent.sales)
	return result, nil
}
