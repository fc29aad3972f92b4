package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/inventory-ledger/inventory"
	"github.com/warp/inventory-ledger/inventory/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestEngine(t *testing.T) (*inventory.Engine, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return inventory.NewEngine(mem), mem
}

func createProduct(t *testing.T, e *inventory.Engine, name string, price string, quantity, minStock int) *inventory.Product {
	t.Helper()
	p, err := e.CreateProduct(context.Background(), inventory.ProductSpec{
		Name:          name,
		Category:      "beverages",
		Price:         decimal.RequireFromString(price),
		Quantity:      quantity,
		MinStockLevel: minStock,
	})
	require.NoError(t, err)
	return p
}

// =============================================================================
// CATALOG TESTS
// =============================================================================

func TestCreateProduct_RejectsInvalidSpec(t *testing.T) {
	// GIVEN: An empty catalog
	// WHEN: Creating a product with no name
	// THEN: The command is rejected and nothing is stored

	e, mem := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreateProduct(ctx, inventory.ProductSpec{
		Category: "beverages",
		Price:    decimal.NewFromInt(3),
	})

	assert.True(t, inventory.IsValidation(err), "should be a validation error")

	products, err := mem.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestCreateProduct_AssignsIDAndTimestamps(t *testing.T) {
	e, _ := newTestEngine(t)

	p := createProduct(t, e, "Coffee", "3.50", 10, 5)

	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)

	got, err := e.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, *p, *got)
}

func TestUpdateProduct_PartialMerge(t *testing.T) {
	// GIVEN: An existing product
	// WHEN: Updating with a patch that supplies only some fields
	// THEN: Supplied fields overwrite (including with empty values),
	//       missing fields are retained

	e, _ := newTestEngine(t)
	ctx := context.Background()
	p := createProduct(t, e, "Coffee", "3.50", 10, 5)

	newName := "Espresso"
	emptyDescription := ""
	updated, err := e.UpdateProduct(ctx, p.ID, inventory.ProductPatch{
		Name:        &newName,
		Description: &emptyDescription,
	})
	require.NoError(t, err)

	assert.Equal(t, "Espresso", updated.Name)
	assert.Equal(t, "", updated.Description)
	assert.Equal(t, "beverages", updated.Category, "unsupplied field retained")
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("3.50")))
	assert.Equal(t, 10, updated.Quantity)
}

func TestUpdateProduct_UnknownID(t *testing.T) {
	e, _ := newTestEngine(t)

	name := "Coffee"
	_, err := e.UpdateProduct(context.Background(), "missing", inventory.ProductPatch{Name: &name})

	assert.ErrorIs(t, err, inventory.ErrProductNotFound)
}

func TestDeleteProduct_RetainsJournalHistory(t *testing.T) {
	// GIVEN: A product with journal entries
	// WHEN: The product is deleted
	// THEN: The catalog no longer has it, but its journal entries remain

	e, _ := newTestEngine(t)
	ctx := context.Background()
	p := createProduct(t, e, "Coffee", "3.50", 10, 0)

	_, _, err := e.PostStockTransaction(ctx, p.ID, inventory.TxAdd, 5, "restock")
	require.NoError(t, err)

	require.NoError(t, e.DeleteProduct(ctx, p.ID))

	_, err = e.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, inventory.ErrProductNotFound)

	txs, err := e.ListTransactionsByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 1, "history survives product deletion")
}

// =============================================================================
// STOCK TRANSACTION TESTS
// =============================================================================

func TestPostStockTransaction_AddThenSubtract(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	p := createProduct(t, e, "Coffee", "3.50", 10, 0)

	_, _, err := e.PostStockTransaction(ctx, p.ID, inventory.TxAdd, 5, "")
	require.NoError(t, err)
	_, _, err = e.PostStockTransaction(ctx, p.ID, inventory.TxSubtract, 3, "")
	require.NoError(t, err)

	got, err := e.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Quantity)

	txs, err := e.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, 5, txs[0].Delta())
	assert.Equal(t, -3, txs[1].Delta())
}

func TestPostStockTransaction_RejectsOverdraw(t *testing.T) {
	// GIVEN: A product with 10 units
	// WHEN: Subtracting 11
	// THEN: The command is rejected, quantity and journal are untouched

	e, _ := newTestEngine(t)
	ctx := context.Background()
	p := createProduct(t, e, "Coffee", "3.50", 10, 0)

	_, _, err := e.PostStockTransaction(ctx, p.ID, inventory.TxSubtract, 11, "")

	var stockErr *inventory.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 11, stockErr.Requested)
	assert.Equal(t, 10, stockErr.Available)

	got, err := e.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity, "quantity unchanged after rejection")

	txs, err := e.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs, "rejected command leaves no journal entry")
}

func TestPostStockTransaction_LowStockWarning(t *testing.T) {
	// GIVEN: A product with quantity 10 and alert threshold 5
	// WHEN: Subtracting 7 units
	// THEN: The transaction commits (quantity 3) and a warning is returned
	// AND WHEN: Subtracting 5 more
	// THEN: The command is rejected and quantity stays 3

	e, _ := newTestEngine(t)
	ctx := context.Background()
	p := createProduct(t, e, "Coffee", "3.50", 10, 5)

	_, warning, err := e.PostStockTransaction(ctx, p.ID, inventory.TxSubtract, 7, "")
	require.NoError(t, err)
	assert.Equal(t, "Low stock alert: Coffee has only 3 units left", warning)

	got, err := e.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)

	_, _, err = e.PostStockTransaction(ctx, p.ID, inventory.TxSubtract, 5, "")
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	got, err = e.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
}

func TestPostStockTransaction_NoWarningAtThreshold(t *testing.T) {
	// The advisory warning fires only strictly below the threshold;
	// landing exactly on it is not an alert.

	e, _ := newTestEngine(t)
	p := createProduct(t, e, "Coffee", "3.50", 10, 5)

	_, warning, err := e.PostStockTransaction(context.Background(), p.ID, inventory.TxSubtract, 5, "")
	require.NoError(t, err)
	assert.Empty(t, warning)
}

func TestPostStockTransaction_Validation(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	p := createProduct(t, e, "Coffee", "3.50", 10, 0)

	_, _, err := e.PostStockTransaction(ctx, p.ID, "transfer", 1, "")
	assert.True(t, inventory.IsValidation(err), "unknown type rejected")

	_, _, err = e.PostStockTransaction(ctx, p.ID, inventory.TxAdd, 0, "")
	assert.True(t, inventory.IsValidation(err), "zero quantity rejected")

	_, _, err = e.PostStockTransaction(ctx, "missing", inventory.TxAdd, 1, "")
	assert.ErrorIs(t, err, inventory.ErrProductNotFound)
}

func TestJournalLengthMatchesAcceptedCommands(t *testing.T) {
	// GIVEN: A mix of accepted and rejected stock commands
	// THEN: The journal holds exactly one entry per accepted command

	e, _ := newTestEngine(t)
	ctx := context.Background()
	p := createProduct(t, e, "Coffee", "3.50", 5, 0)

	accepted := 0
	for _, qty := range []int{3, 4, 2, 10, 1} {
		if _, _, err := e.PostStockTransaction(ctx, p.ID, inventory.TxSubtract, qty, ""); err == nil {
			accepted++
		}
	}

	txs, err := e.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, accepted)
}

func TestConcurrentSubtract_ExactlyOneWins(t *testing.T) {
	// GIVEN: A product with 5 units
	// WHEN: Two concurrent subtracts of 5 race
	// THEN: Exactly one commits; quantity ends at 0, never negative

	e, _ := newTestEngine(t)
	ctx := context.Background()
	p := createProduct(t, e, "Coffee", "3.50", 5, 0)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = e.PostStockTransaction(ctx, p.ID, inventory.TxSubtract, 5, "")
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one subtract should lose the race")

	got, err := e.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)
}

// =============================================================================
// SALE TESTS
// =============================================================================

func TestRecordSale_TotalWithDiscount(t *testing.T) {
	// GIVEN: Coffee at 3.00 and Muffin at 5.00
	// WHEN: Selling 2 coffees and 1 muffin with a 10% discount
	// THEN: Total is (2*3.00 + 5.00) * 0.9 = 9.90

	e, _ := newTestEngine(t)
	ctx := context.Background()
	coffee := createProduct(t, e, "Coffee", "3.00", 10, 0)
	muffin := createProduct(t, e, "Muffin", "5.00", 10, 0)

	sale, err := e.RecordSale(ctx, inventory.SaleInput{
		Customer: "Alice",
		Lines: []inventory.SaleLineInput{
			{ProductID: coffee.ID, Quantity: 2},
			{ProductID: muffin.ID, Quantity: 1},
		},
		DiscountPercent: decimal.NewFromInt(10),
		PaymentMethod:   inventory.PayCard,
	})
	require.NoError(t, err)

	assert.True(t, sale.Total.Equal(decimal.RequireFromString("9.90")),
		"expected 9.90, got %s", sale.Total)
	assert.Equal(t, "Alice", sale.Customer)
	assert.Equal(t, inventory.PayCard, sale.PaymentMethod)
	require.Len(t, sale.Lines, 2)
	assert.Equal(t, "Coffee", sale.Lines[0].ProductName)
	assert.True(t, sale.Lines[0].UnitPrice.Equal(decimal.RequireFromString("3.00")),
		"unit price captured from catalog")
}

func TestRecordSale_DecrementsStockAndJournals(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	coffee := createProduct(t, e, "Coffee", "3.00", 10, 0)
	muffin := createProduct(t, e, "Muffin", "5.00", 10, 0)

	sale, err := e.RecordSale(ctx, inventory.SaleInput{
		Lines: []inventory.SaleLineInput{
			{ProductID: coffee.ID, Quantity: 2},
			{ProductID: muffin.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	got, err := e.GetProduct(ctx, coffee.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Quantity)

	got, err = e.GetProduct(ctx, muffin.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Quantity)

	// One subtract journal entry per line, tagged with the sale id.
	txs, err := e.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	for _, tx := range txs {
		assert.Equal(t, inventory.TxSubtract, tx.Type)
		assert.Contains(t, tx.Notes, sale.ID)
	}
}

func TestRecordSale_AtomicOnInsufficientStock(t *testing.T) {
	// GIVEN: Coffee with plenty of stock and Muffin with only 1 unit
	// WHEN: A sale requests 2 coffees and 3 muffins
	// THEN: The whole sale is rejected; no quantity changed, no journal
	//       entry appended, no sale recorded

	e, _ := newTestEngine(t)
	ctx := context.Background()
	coffee := createProduct(t, e, "Coffee", "3.00", 10, 0)
	muffin := createProduct(t, e, "Muffin", "5.00", 1, 0)

	_, err := e.RecordSale(ctx, inventory.SaleInput{
		Lines: []inventory.SaleLineInput{
			{ProductID: coffee.ID, Quantity: 2},
			{ProductID: muffin.ID, Quantity: 3},
		},
	})
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)

	got, err := e.GetProduct(ctx, coffee.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity, "first line rolled back")

	txs, err := e.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)

	sales, err := e.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestRecordSale_UnknownProductRejectsWholeSale(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	coffee := createProduct(t, e, "Coffee", "3.00", 10, 0)

	_, err := e.RecordSale(ctx, inventory.SaleInput{
		Lines: []inventory.SaleLineInput{
			{ProductID: coffee.ID, Quantity: 2},
			{ProductID: "missing", Quantity: 1},
		},
	})
	require.ErrorIs(t, err, inventory.ErrProductNotFound)

	got, err := e.GetProduct(ctx, coffee.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)
}

func TestRecordSale_RepeatedProductDrawsDownCumulatively(t *testing.T) {
	// GIVEN: A product with 5 units
	// WHEN: A sale lists it twice, 3 + 3
	// THEN: The second line sees the staged quantity (2) and the sale fails

	e, _ := newTestEngine(t)
	ctx := context.Background()
	coffee := createProduct(t, e, "Coffee", "3.00", 5, 0)

	_, err := e.RecordSale(ctx, inventory.SaleInput{
		Lines: []inventory.SaleLineInput{
			{ProductID: coffee.ID, Quantity: 3},
			{ProductID: coffee.ID, Quantity: 3},
		},
	})

	var stockErr *inventory.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Available)

	got, err := e.GetProduct(ctx, coffee.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)
}

func TestRecordSale_Defaults(t *testing.T) {
	e, _ := newTestEngine(t)
	coffee := createProduct(t, e, "Coffee", "3.00", 10, 0)

	sale, err := e.RecordSale(context.Background(), inventory.SaleInput{
		Lines: []inventory.SaleLineInput{{ProductID: coffee.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, inventory.WalkInCustomer, sale.Customer)
	assert.Equal(t, inventory.PayCash, sale.PaymentMethod)
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("3.00")))
}

func TestRecordSale_Validation(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	coffee := createProduct(t, e, "Coffee", "3.00", 10, 0)

	_, err := e.RecordSale(ctx, inventory.SaleInput{})
	assert.True(t, inventory.IsValidation(err), "empty sale rejected")

	_, err = e.RecordSale(ctx, inventory.SaleInput{
		Lines:           []inventory.SaleLineInput{{ProductID: coffee.ID, Quantity: 1}},
		DiscountPercent: decimal.NewFromInt(101),
	})
	assert.True(t, inventory.IsValidation(err), "discount over 100 rejected")

	_, err = e.RecordSale(ctx, inventory.SaleInput{
		Lines: []inventory.SaleLineInput{{ProductID: coffee.ID, Quantity: 0}},
	})
	assert.True(t, inventory.IsValidation(err), "zero line quantity rejected")

	_, err = e.RecordSale(ctx, inventory.SaleInput{
		Lines:         []inventory.SaleLineInput{{ProductID: coffee.ID, Quantity: 1}},
		PaymentMethod: "barter",
	})
	assert.True(t, inventory.IsValidation(err), "unknown payment method rejected")
}

// =============================================================================
// CUSTOMER TESTS
// =============================================================================

func TestCustomerLifecycle(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	c, err := e.CreateCustomer(ctx, inventory.CustomerSpec{
		Name:  "Alice",
		Email: "alice@example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)

	points := 42
	updated, err := e.UpdateCustomer(ctx, c.ID, inventory.CustomerPatch{LoyaltyPoints: &points})
	require.NoError(t, err)
	assert.Equal(t, 42, updated.LoyaltyPoints)
	assert.Equal(t, "alice@example.com", updated.Email, "unsupplied field retained")

	require.NoError(t, e.DeleteCustomer(ctx, c.ID))
	err = e.DeleteCustomer(ctx, c.ID)
	assert.ErrorIs(t, err, inventory.ErrCustomerNotFound)
}

func TestCreateCustomer_Validation(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.CreateCustomer(context.Background(), inventory.CustomerSpec{})
	assert.True(t, inventory.IsValidation(err))
}
