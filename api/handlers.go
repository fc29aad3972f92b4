/*
handlers.go - HTTP request handlers

PURPOSE:
  Implements the HTTP endpoints. Handlers are thin: decode the request,
  call the engine, convert the result to DTOs, write JSON. All domain
  rules live in the inventory package.

ERROR MAPPING:
  Domain errors map to HTTP status codes in one place (writeEngineError):
  - ValidationError            -> 400 VALIDATION_ERROR
  - InsufficientStockError     -> 400 INSUFFICIENT_STOCK
  - ErrProductNotFound et al.  -> 404 NOT_FOUND
  - anything else              -> 500 PERSISTENCE_ERROR

CONVENTIONS:
  - List endpoints always return a JSON array, never null
  - Creation endpoints return 201 with the created record
  - Deletion endpoints return 204 with no body
  - POST /api/transactions returns 200 with {transaction, warning?}

SEE ALSO:
  - server.go: Route wiring
  - dto.go: Request/response types
  - inventory/engine.go: The domain logic behind each endpoint
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/inventory-ledger/inventory"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Engine *inventory.Engine
}

// NewHandler creates a new handler.
func NewHandler(engine *inventory.Engine) *Handler {
	return &Handler{Engine: engine}
}

// =============================================================================
// PRODUCT ENDPOINTS
// =============================================================================

// ListProducts returns the catalog in insertion order.
// GET /api/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Engine.ListProducts(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTOs(products))
}

// CreateProduct adds a product to the catalog.
// POST /api/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	product, err := h.Engine.CreateProduct(r.Context(), req.toSpec())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(*product))
}

// GetProduct returns a single product.
// GET /api/products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.Engine.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(*product))
}

// UpdateProduct applies a partial update to a product.
// PUT /api/products/{id}
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	product, err := h.Engine.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req.toPatch())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(*product))
}

// DeleteProduct removes a product from the catalog. Its journal entries
// are retained.
// DELETE /api/products/{id}
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TRANSACTION ENDPOINTS
// =============================================================================

// ListTransactions returns the stock journal, chronologically.
// An optional productId query parameter filters to one product.
// GET /api/transactions[?productId=...]
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		txs []inventory.StockTransaction
		err error
	)
	if productID := r.URL.Query().Get("productId"); productID != "" {
		txs, err = h.Engine.ListTransactionsByProduct(ctx, productID)
	} else {
		txs, err = h.Engine.ListTransactions(ctx)
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

// PostTransaction records a stock movement and updates the product's
// quantity atomically. The response carries an advisory warning when the
// resulting quantity fell below the alert threshold.
// POST /api/transactions
func (h *Handler) PostTransaction(w http.ResponseWriter, r *http.Request) {
	var req PostTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tx, warning, err := h.Engine.PostStockTransaction(r.Context(),
		req.ProductID, inventory.TxType(req.Type), req.Quantity, req.Notes)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PostTransactionResponse{
		Transaction: toTransactionDTO(*tx),
		Warning:     warning,
	})
}

// =============================================================================
// SALE ENDPOINTS
// =============================================================================

// ListSales returns all recorded sales, chronologically.
// GET /api/sales
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.Engine.ListSales(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTOs(sales))
}

// RecordSale checks out a multi-item purchase. All lines commit together
// or the sale is rejected in full.
// POST /api/sales
func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var req RecordSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sale, err := h.Engine.RecordSale(r.Context(), req.toInput())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSaleDTO(*sale))
}

// =============================================================================
// CUSTOMER ENDPOINTS
// =============================================================================

// ListCustomers returns all customers in insertion order.
// GET /api/customers
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Engine.ListCustomers(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTOs(customers))
}

// CreateCustomer adds a customer.
// POST /api/customers
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	customer, err := h.Engine.CreateCustomer(r.Context(), req.toSpec())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerDTO(*customer))
}

// UpdateCustomer applies a partial update to a customer.
// PUT /api/customers/{id}
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req UpdateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	customer, err := h.Engine.UpdateCustomer(r.Context(), chi.URLParam(r, "id"), req.toPatch())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTO(*customer))
}

// DeleteCustomer removes a customer.
// DELETE /api/customers/{id}
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.DeleteCustomer(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPORT ENDPOINTS
// =============================================================================

// LowStock returns products at or below their alert threshold.
// GET /api/reports/low-stock
func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.Engine.LowStock(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTOs(products))
}

// OutOfStock returns products with zero on-hand quantity.
// GET /api/reports/out-of-stock
func (h *Handler) OutOfStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.Engine.OutOfStock(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTOs(products))
}

// InventoryValue returns the total valuation of the current catalog.
// GET /api/reports/inventory-value
func (h *Handler) InventoryValue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	value, err := h.Engine.InventoryValue(ctx)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	products, err := h.Engine.ListProducts(ctx)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	total, _ := value.Float64()
	writeJSON(w, http.StatusOK, InventoryValueDTO{
		TotalValue:   total,
		ProductCount: len(products),
	})
}

// TopSelling returns the best-selling products in a date range.
// GET /api/reports/top-selling[?limit=5&from=...&to=...]
func (h *Handler) TopSelling(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
	}

	rows, err := h.Engine.TopSelling(r.Context(), limit, from, to)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductSalesDTOs(rows))
}

// SalesTotal returns the sum of sale totals in a date range.
// GET /api/reports/sales-total[?from=...&to=...]
func (h *Handler) SalesTotal(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	total, err := h.Engine.SalesTotal(r.Context(), from, to)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	value, _ := total.Float64()
	writeJSON(w, http.StatusOK, SalesTotalDTO{
		Total: value,
		From:  from.Format(time.RFC3339),
		To:    to.Format(time.RFC3339),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps domain errors to HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	var validationErr *inventory.ValidationError
	var stockErr *inventory.InsufficientStockError

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: validationErr.Error(),
			Code:  "VALIDATION_ERROR",
		})
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: stockErr.Error(),
			Code:  "INSUFFICIENT_STOCK",
			Details: map[string]any{
				"productId": stockErr.ProductID,
				"requested": stockErr.Requested,
				"available": stockErr.Available,
			},
		})
	case errors.Is(err, inventory.ErrInsufficientStock):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INSUFFICIENT_STOCK",
		})
	case inventory.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
			Code:  "NOT_FOUND",
		})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal server error",
			Code:    "PERSISTENCE_ERROR",
			Details: err.Error(),
		})
	}
}

// parseDateRange reads optional from/to query parameters. Dates may be
// ISO dates (2006-01-02) or full RFC3339 timestamps. A date-only "to"
// extends to the end of that day so the range stays inclusive. Defaults
// cover all time.
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	from := time.Time{}
	to := time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

	if raw := r.URL.Query().Get("from"); raw != "" {
		t, _, err := parseDateParam(raw)
		if err != nil {
			return from, to, err
		}
		from = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, dateOnly, err := parseDateParam(raw)
		if err != nil {
			return from, to, err
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		to = t
	}
	return from, to, nil
}

func parseDateParam(raw string) (time.Time, bool, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return t.UTC(), false, nil
}
