package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/inventory-ledger/inventory"
)

func TestProductSpec_Validate(t *testing.T) {
	valid := inventory.ProductSpec{
		Name:     "Coffee",
		Category: "beverages",
		Price:    decimal.NewFromFloat(3.50),
		Quantity: 10,
	}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*inventory.ProductSpec)
		field  string
	}{
		{"empty name", func(s *inventory.ProductSpec) { s.Name = "" }, "name"},
		{"empty category", func(s *inventory.ProductSpec) { s.Category = "" }, "category"},
		{"negative price", func(s *inventory.ProductSpec) { s.Price = decimal.NewFromInt(-1) }, "price"},
		{"negative quantity", func(s *inventory.ProductSpec) { s.Quantity = -1 }, "quantity"},
		{"negative threshold", func(s *inventory.ProductSpec) { s.MinStockLevel = -1 }, "minStockLevel"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := valid
			tc.mutate(&spec)
			err := spec.Validate()

			var vErr *inventory.ValidationError
			assert.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestProductPatch_NilFieldsAreValid(t *testing.T) {
	assert.NoError(t, inventory.ProductPatch{}.Validate())
}

func TestProductPatch_SuppliedFieldsAreChecked(t *testing.T) {
	empty := ""
	err := inventory.ProductPatch{Name: &empty}.Validate()
	assert.True(t, inventory.IsValidation(err))

	negative := decimal.NewFromInt(-1)
	err = inventory.ProductPatch{Price: &negative}.Validate()
	assert.True(t, inventory.IsValidation(err))
}

func TestProductPatch_ApplyTo(t *testing.T) {
	// Nil keeps, non-nil overwrites, including with the zero value.
	prod := inventory.Product{
		Name:        "Coffee",
		Description: "dark roast",
		Category:    "beverages",
		Price:       decimal.NewFromFloat(3.50),
		Quantity:    10,
	}

	newName := "Espresso"
	clearDescription := ""
	zeroQuantity := 0
	patch := inventory.ProductPatch{
		Name:        &newName,
		Description: &clearDescription,
		Quantity:    &zeroQuantity,
	}
	patch.ApplyTo(&prod)

	assert.Equal(t, "Espresso", prod.Name)
	assert.Equal(t, "", prod.Description)
	assert.Equal(t, 0, prod.Quantity)
	assert.Equal(t, "beverages", prod.Category, "nil field untouched")
	assert.True(t, prod.Price.Equal(decimal.NewFromFloat(3.50)), "nil field untouched")
}

func TestCustomerSpec_Validate(t *testing.T) {
	assert.NoError(t, inventory.CustomerSpec{Name: "Alice"}.Validate())

	err := inventory.CustomerSpec{}.Validate()
	assert.True(t, inventory.IsValidation(err))

	err = inventory.CustomerSpec{Name: "Alice", LoyaltyPoints: -1}.Validate()
	assert.True(t, inventory.IsValidation(err))
}

func TestCustomerPatch_ApplyTo(t *testing.T) {
	c := inventory.Customer{Name: "Alice", Email: "alice@example.com", LoyaltyPoints: 5}

	points := 10
	clearEmail := ""
	patch := inventory.CustomerPatch{Email: &clearEmail, LoyaltyPoints: &points}
	patch.ApplyTo(&c)

	assert.Equal(t, "Alice", c.Name)
	assert.Equal(t, "", c.Email)
	assert.Equal(t, 10, c.LoyaltyPoints)
}
