/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Internally all money is decimal. DTOs carry float64 because the JSON
  contract uses plain numbers; rounding happens only at the boundary.

PARTIAL UPDATES:
  Update requests use pointer fields. A missing field keeps the stored
  value; a present field overwrites it, including with an empty value.

SEE ALSO:
  - handlers.go: Uses these types
  - inventory/types.go: Domain model
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/inventory-ledger/inventory"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ProductDTO represents a product in API responses.
type ProductDTO struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	Price         float64 `json:"price"`
	Quantity      int     `json:"quantity"`
	MinStockLevel int     `json:"minStockLevel"`
	CreatedAt     string  `json:"createdAt,omitempty"`
	UpdatedAt     string  `json:"updatedAt,omitempty"`
}

// CreateProductRequest is the request to create a product.
type CreateProductRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	Price         float64 `json:"price"`
	Quantity      int     `json:"quantity"`
	MinStockLevel int     `json:"minStockLevel"`
}

// UpdateProductRequest is the request to update a product.
// Missing fields are left unchanged.
type UpdateProductRequest struct {
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Category      *string  `json:"category,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	Quantity      *int     `json:"quantity,omitempty"`
	MinStockLevel *int     `json:"minStockLevel,omitempty"`
}

// TransactionDTO represents a stock-journal entry.
type TransactionDTO struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Type      string `json:"type"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// PostTransactionRequest is the request to post a stock movement.
type PostTransactionRequest struct {
	ProductID string `json:"productId"`
	Type      string `json:"type"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
}

// PostTransactionResponse is the response after posting a stock movement.
// Warning is set when the resulting quantity fell below the product's
// alert threshold; the transaction is committed either way.
type PostTransactionResponse struct {
	Transaction TransactionDTO `json:"transaction"`
	Warning     string         `json:"warning,omitempty"`
}

// SaleLineDTO represents one line of a completed sale.
type SaleLineDTO struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Subtotal    float64 `json:"subtotal"`
}

// SaleDTO represents a completed sale.
type SaleDTO struct {
	ID              string        `json:"id"`
	Customer        string        `json:"customer"`
	Items           []SaleLineDTO `json:"items"`
	DiscountPercent float64       `json:"discountPercent"`
	Total           float64       `json:"total"`
	PaymentMethod   string        `json:"paymentMethod"`
	CreatedAt       string        `json:"createdAt,omitempty"`
}

// SaleItemRequest is one line of a checkout request.
type SaleItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// RecordSaleRequest is the request to record a sale.
type RecordSaleRequest struct {
	Customer        string            `json:"customer,omitempty"`
	Items           []SaleItemRequest `json:"items"`
	DiscountPercent float64           `json:"discountPercent,omitempty"`
	PaymentMethod   string            `json:"paymentMethod,omitempty"`
}

// CustomerDTO represents a customer in API responses.
type CustomerDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	LoyaltyPoints int    `json:"loyaltyPoints"`
	LastVisit     string `json:"lastVisit,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

// CreateCustomerRequest is the request to create a customer.
type CreateCustomerRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	LoyaltyPoints int    `json:"loyaltyPoints,omitempty"`
}

// UpdateCustomerRequest is the request to update a customer.
// Missing fields are left unchanged.
type UpdateCustomerRequest struct {
	Name          *string `json:"name,omitempty"`
	Email         *string `json:"email,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	LoyaltyPoints *int    `json:"loyaltyPoints,omitempty"`
}

// InventoryValueDTO is the inventory valuation report.
type InventoryValueDTO struct {
	TotalValue   float64 `json:"totalValue"`
	ProductCount int     `json:"productCount"`
}

// ProductSalesDTO is one row of the top-sellers report.
type ProductSalesDTO struct {
	ProductID    string  `json:"productId"`
	ProductName  string  `json:"productName"`
	QuantitySold int     `json:"quantitySold"`
	Revenue      float64 `json:"revenue"`
}

// SalesTotalDTO is the sales-total report for a date range.
type SalesTotalDTO struct {
	Total float64 `json:"total"`
	From  string  `json:"from"`
	To    string  `json:"to"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toProductDTO(p inventory.Product) ProductDTO {
	price, _ := p.Price.Float64()
	return ProductDTO{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Price:         price,
		Quantity:      p.Quantity,
		MinStockLevel: p.MinStockLevel,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     p.UpdatedAt.Format(time.RFC3339),
	}
}

func toProductDTOs(products []inventory.Product) []ProductDTO {
	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = toProductDTO(p)
	}
	return dtos
}

func toTransactionDTO(tx inventory.StockTransaction) TransactionDTO {
	return TransactionDTO{
		ID:        tx.ID,
		ProductID: tx.ProductID,
		Type:      string(tx.Type),
		Quantity:  tx.Quantity,
		Notes:     tx.Notes,
		CreatedAt: tx.CreatedAt.Format(time.RFC3339),
	}
}

func toTransactionDTOs(txs []inventory.StockTransaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	return dtos
}

func toSaleDTO(s inventory.Sale) SaleDTO {
	items := make([]SaleLineDTO, len(s.Lines))
	for i, l := range s.Lines {
		unitPrice, _ := l.UnitPrice.Float64()
		subtotal, _ := l.Subtotal().Float64()
		items[i] = SaleLineDTO{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   unitPrice,
			Subtotal:    subtotal,
		}
	}
	discount, _ := s.DiscountPercent.Float64()
	total, _ := s.Total.Float64()
	return SaleDTO{
		ID:              s.ID,
		Customer:        s.Customer,
		Items:           items,
		DiscountPercent: discount,
		Total:           total,
		PaymentMethod:   string(s.PaymentMethod),
		CreatedAt:       s.CreatedAt.Format(time.RFC3339),
	}
}

func toSaleDTOs(sales []inventory.Sale) []SaleDTO {
	dtos := make([]SaleDTO, len(sales))
	for i, s := range sales {
		dtos[i] = toSaleDTO(s)
	}
	return dtos
}

func toCustomerDTO(c inventory.Customer) CustomerDTO {
	return CustomerDTO{
		ID:            c.ID,
		Name:          c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		LoyaltyPoints: c.LoyaltyPoints,
		LastVisit:     c.LastVisit.Format(time.RFC3339),
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     c.UpdatedAt.Format(time.RFC3339),
	}
}

func toCustomerDTOs(customers []inventory.Customer) []CustomerDTO {
	dtos := make([]CustomerDTO, len(customers))
	for i, c := range customers {
		dtos[i] = toCustomerDTO(c)
	}
	return dtos
}

func toProductSalesDTOs(rows []inventory.ProductSales) []ProductSalesDTO {
	dtos := make([]ProductSalesDTO, len(rows))
	for i, row := range rows {
		revenue, _ := row.Revenue.Float64()
		dtos[i] = ProductSalesDTO{
			ProductID:    row.ProductID,
			ProductName:  row.ProductName,
			QuantitySold: row.Quantity,
			Revenue:      revenue,
		}
	}
	return dtos
}

func (r CreateProductRequest) toSpec() inventory.ProductSpec {
	return inventory.ProductSpec{
		Name:          r.Name,
		Description:   r.Description,
		Category:      r.Category,
		Price:         decimal.NewFromFloat(r.Price),
		Quantity:      r.Quantity,
		MinStockLevel: r.MinStockLevel,
	}
}

func (r UpdateProductRequest) toPatch() inventory.ProductPatch {
	patch := inventory.ProductPatch{
		Name:          r.Name,
		Description:   r.Description,
		Category:      r.Category,
		Quantity:      r.Quantity,
		MinStockLevel: r.MinStockLevel,
	}
	if r.Price != nil {
		price := decimal.NewFromFloat(*r.Price)
		patch.Price = &price
	}
	return patch
}

func (r CreateCustomerRequest) toSpec() inventory.CustomerSpec {
	return inventory.CustomerSpec{
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		LoyaltyPoints: r.LoyaltyPoints,
	}
}

func (r UpdateCustomerRequest) toPatch() inventory.CustomerPatch {
	return inventory.CustomerPatch{
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		LoyaltyPoints: r.LoyaltyPoints,
	}
}

func (r RecordSaleRequest) toInput() inventory.SaleInput {
	lines := make([]inventory.SaleLineInput, len(r.Items))
	for i, item := range r.Items {
		lines[i] = inventory.SaleLineInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}
	return inventory.SaleInput{
		Customer:        r.Customer,
		Lines:           lines,
		DiscountPercent: decimal.NewFromFloat(r.DiscountPercent),
		PaymentMethod:   inventory.PaymentMethod(r.PaymentMethod),
	}
}
