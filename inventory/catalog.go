/*
catalog.go - Product specs, validation, and partial-update merge

PURPOSE:
  Input types for catalog commands. Creation uses a full spec; updates use
  a patch whose pointer fields distinguish "not supplied" (nil, keep the
  old value) from "set to empty" (pointer to zero value). This makes the
  merge contract explicit instead of silently defaulting from the old
  record.

SEE ALSO:
  - engine.go: Routes these through the commit path
*/
package inventory

import "github.com/shopspring/decimal"

// =============================================================================
// PRODUCT SPEC - Full record for creation
// =============================================================================

// ProductSpec is the input to create a product.
type ProductSpec struct {
	Name          string
	Description   string
	Category      string
	Price         decimal.Decimal
	Quantity      int
	MinStockLevel int
}

// Validate checks the spec before any mutation happens.
func (s ProductSpec) Validate() error {
	if s.Name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if s.Category == "" {
		return &ValidationError{Field: "category", Message: "must not be empty"}
	}
	if s.Price.IsNegative() {
		return &ValidationError{Field: "price", Message: "must not be negative"}
	}
	if s.Quantity < 0 {
		return &ValidationError{Field: "quantity", Message: "must not be negative"}
	}
	if s.MinStockLevel < 0 {
		return &ValidationError{Field: "minStockLevel", Message: "must not be negative"}
	}
	return nil
}

// =============================================================================
// PRODUCT PATCH - Partial update with explicit unset sentinels
// =============================================================================

// ProductPatch is the input to update a product. Nil fields are retained
// from the existing record; non-nil fields overwrite, including overwriting
// with an empty value.
type ProductPatch struct {
	Name          *string
	Description   *string
	Category      *string
	Price         *decimal.Decimal
	Quantity      *int
	MinStockLevel *int
}

// Validate checks the supplied fields of the patch.
func (p ProductPatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if p.Category != nil && *p.Category == "" {
		return &ValidationError{Field: "category", Message: "must not be empty"}
	}
	if p.Price != nil && p.Price.IsNegative() {
		return &ValidationError{Field: "price", Message: "must not be negative"}
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		return &ValidationError{Field: "quantity", Message: "must not be negative"}
	}
	if p.MinStockLevel != nil && *p.MinStockLevel < 0 {
		return &ValidationError{Field: "minStockLevel", Message: "must not be negative"}
	}
	return nil
}

// ApplyTo merges the supplied fields over prod.
func (p ProductPatch) ApplyTo(prod *Product) {
	if p.Name != nil {
		prod.Name = *p.Name
	}
	if p.Description != nil {
		prod.Description = *p.Description
	}
	if p.Category != nil {
		prod.Category = *p.Category
	}
	if p.Price != nil {
		prod.Price = *p.Price
	}
	if p.Quantity != nil {
		prod.Quantity = *p.Quantity
	}
	if p.MinStockLevel != nil {
		prod.MinStockLevel = *p.MinStockLevel
	}
}

// =============================================================================
// CUSTOMER SPEC / PATCH
// =============================================================================

// CustomerSpec is the input to create a customer.
type CustomerSpec struct {
	Name          string
	Email         string
	Phone         string
	LoyaltyPoints int
}

func (s CustomerSpec) Validate() error {
	if s.Name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if s.LoyaltyPoints < 0 {
		return &ValidationError{Field: "loyaltyPoints", Message: "must not be negative"}
	}
	return nil
}

// CustomerPatch is the input to update a customer, with the same nil
// semantics as ProductPatch.
type CustomerPatch struct {
	Name          *string
	Email         *string
	Phone         *string
	LoyaltyPoints *int
}

func (p CustomerPatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if p.LoyaltyPoints != nil && *p.LoyaltyPoints < 0 {
		return &ValidationError{Field: "loyaltyPoints", Message: "must not be negative"}
	}
	return nil
}

func (p CustomerPatch) ApplyTo(c *Customer) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.LoyaltyPoints != nil {
		c.LoyaltyPoints = *p.LoyaltyPoints
	}
}
