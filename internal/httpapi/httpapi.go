package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vendia/backend/internal/domain"
	"vendia/backend/internal/service"
	"vendia/backend/internal/store"
)

type API struct {
	service       *service.Service
	allowedOrigin string
	log           zerolog.Logger
}

func New(svc *service.Service, allowedOrigin string, log zerolog.Logger) *API {
	return &API{
		service:       svc,
		allowedOrigin: allowedOrigin,
		log:           log,
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)

	mux.HandleFunc("/api/v1/products", a.handleProducts)
	mux.HandleFunc("/api/v1/products/", a.handleProductActions)
	mux.HandleFunc("/api/v1/categories", a.handleCategories)
	mux.HandleFunc("/api/v1/suppliers", a.handleSuppliers)
	mux.HandleFunc("/api/v1/suppliers/", a.handleSupplierActions)
	mux.HandleFunc("/api/v1/customers", a.handleCustomers)
	mux.HandleFunc("/api/v1/customers/", a.handleCustomerActions)
	mux.HandleFunc("/api/v1/shipping-methods", a.handleShippingMethods)

	mux.HandleFunc("/api/v1/sales", a.handleSales)
	mux.HandleFunc("/api/v1/sales/", a.handleSaleActions)
	mux.HandleFunc("/api/v1/purchases", a.handlePurchases)
	mux.HandleFunc("/api/v1/purchases/", a.handlePurchaseActions)
	mux.HandleFunc("/api/v1/returns", a.handleReturns)
	mux.HandleFunc("/api/v1/returns/", a.handleReturnActions)

	mux.HandleFunc("/api/v1/inventory/low-stock", a.handleLowStock)
	mux.HandleFunc("/api/v1/inventory/", a.handleInventoryActions)

	return a.withMiddleware(mux)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		products, err := a.service.ListProducts(r.Context())
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
	case http.MethodPost:
		var req domain.ProductCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, badRequest(err))
			return
		}
		product, err := a.service.CreateProduct(r.Context(), req)
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"product": product})
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handleProductActions(w http.ResponseWriter, r *http.Request) {
	tail := pathTail(r.URL.Path, "/api/v1/products/")
	if tail == "" {
		a.writeError(w, badRequest(errors.New("product id required")))
		return
	}

	if id, ok := strings.CutSuffix(tail, "/stock"); ok {
		if r.Method != http.MethodGet {
			a.writeMethodNotAllowed(w)
			return
		}
		stock, err := a.service.AvailableStock(r.Context(), strings.Trim(id, "/"))
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product_id": strings.Trim(id, "/"), "stock": stock})
		return
	}

	switch r.Method {
	case http.MethodGet:
		product, err := a.service.GetProduct(r.Context(), tail)
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": product})
	case http.MethodPatch:
		var req domain.ProductUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, badRequest(err))
			return
		}
		updated, err := a.service.UpdateProduct(r.Context(), tail, req)
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": updated})
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		categories, err := a.service.ListCategories(r.Context())
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
	case http.MethodPost:
		var req domain.CategoryCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, badRequest(err))
			return
		}
		category, err := a.service.CreateCategory(r.Context(), req)
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"category": category})
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handleSuppliers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		suppliers, err := a.service.ListSuppliers(r.Context())
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"suppliers": suppliers})
	case http.MethodPost:
		var req domain.SupplierCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, badRequest(err))
			return
		}
		supplier, err := a.service.CreateSupplier(r.Context(), req)
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"supplier": supplier})
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handleSupplierActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}
	tail := pathTail(r.URL.Path, "/api/v1/suppliers/")
	if tail == "" {
		a.writeError(w, badRequest(errors.New("supplier id required")))
		return
	}
	supplier, err := a.service.GetSupplier(r.Context(), tail)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"supplier": supplier})
}

func (a *API) handleCustomers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		customers, err := a.service.ListCustomers(r.Context())
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
	case http.MethodPost:
		var req domain.CustomerCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, badRequest(err))
			return
		}
		customer, err := a.service.CreateCustomer(r.Context(), req)
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"customer": customer})
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handleCustomerActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}
	tail := pathTail(r.URL.Path, "/api/v1/customers/")
	if tail == "" {
		a.writeError(w, badRequest(errors.New("customer id required")))
		return
	}
	customer, err := a.service.GetCustomer(r.Context(), tail)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customer": customer})
}

func (a *API) handleShippingMethods(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		methods, err := a.service.ListShippingMethods(r.Context())
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"shipping_methods": methods})
	case http.MethodPost:
		var req domain.ShippingMethodCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, badRequest(err))
			return
		}
		method, err := a.service.CreateShippingMethod(r.Context(), req)
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"shipping_method": method})
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handleSales(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)
		sales, err := a.service.ListSales(r.Context(), limit)
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
	case http.MethodPost:
		var req domain.SaleCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, badRequest(err))
			return
		}
		sale, err := a.service.CreateSale(r.Context(), req)
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"sale": sale})
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handleSaleActions(w http.ResponseWriter, r *http.Request) {
	tail := pathTail(r.URL.Path, "/api/v1/sales/")
	if tail == "" {
		a.writeError(w, badRequest(errors.New("sale id required")))
		return
	}

	if id, ok := strings.CutSuffix(tail, "/cancel"); ok {
		if r.Method != http.MethodPost {
			a.writeMethodNotAllowed(w)
			return
		}
		sale, err := a.service.CancelSale(r.Context(), strings.Trim(id, "/"))
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sale": sale})
		return
	}

	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}
	sale, err := a.service.GetSale(r.Context(), tail)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sale": sale})
}

func (a *API) handlePurchases(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)
		purchases, err := a.service.ListPurchases(r.Context(), limit)
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"purchases": purchases})
	case http.MethodPost:
		var req domain.PurchaseCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, badRequest(err))
			return
		}
		purchase, err := a.service.CreatePurchase(r.Context(), req)
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"purchase": purchase})
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handlePurchaseActions(w http.ResponseWriter, r *http.Request) {
	tail := pathTail(r.URL.Path, "/api/v1/purchases/")
	if tail == "" {
		a.writeError(w, badRequest(errors.New("purchase id required")))
		return
	}

	if id, ok := strings.CutSuffix(tail, "/cancel"); ok {
		if r.Method != http.MethodPost {
			a.writeMethodNotAllowed(w)
			return
		}
		purchase, err := a.service.CancelPurchase(r.Context(), strings.Trim(id, "/"))
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"purchase": purchase})
		return
	}

	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}
	purchase, err := a.service.GetPurchase(r.Context(), tail)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"purchase": purchase})
}

func (a *API) handleReturns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)
		returns, err := a.service.ListReturns(r.Context(), limit)
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"returns": returns})
	case http.MethodPost:
		var req domain.ReturnCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, badRequest(err))
			return
		}
		ret, err := a.service.CreateReturn(r.Context(), req)
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"return": ret})
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handleReturnActions(w http.ResponseWriter, r *http.Request) {
	tail := pathTail(r.URL.Path, "/api/v1/returns/")
	if tail == "" {
		a.writeError(w, badRequest(errors.New("return id required")))
		return
	}

	if id, ok := strings.CutSuffix(tail, "/transition"); ok {
		if r.Method != http.MethodPost {
			a.writeMethodNotAllowed(w)
			return
		}
		var req domain.ReturnTransitionRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, badRequest(err))
			return
		}
		ret, err := a.service.AdvanceReturn(r.Context(), strings.Trim(id, "/"), req)
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"return": ret})
		return
	}

	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}
	ret, err := a.service.GetReturn(r.Context(), tail)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"return": ret})
}

func (a *API) handleLowStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}
	entries, err := a.service.ListLowStock(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"low_stock": entries})
}

func (a *API) handleInventoryActions(w http.ResponseWriter, r *http.Request) {
	tail := pathTail(r.URL.Path, "/api/v1/inventory/")
	if tail == "" {
		a.writeError(w, badRequest(errors.New("product id required")))
		return
	}

	if id, ok := strings.CutSuffix(tail, "/levels"); ok {
		if r.Method != http.MethodPut {
			a.writeMethodNotAllowed(w)
			return
		}
		var req domain.InventoryLevelsRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, badRequest(err))
			return
		}
		record, err := a.service.SetInventoryLevels(r.Context(), strings.Trim(id, "/"), req)
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"inventory": record})
		return
	}

	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}
	record, err := a.service.GetInventory(r.Context(), tail)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"inventory": record})
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		a.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(startedAt)).
			Msg("request")
	})
}

type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &statusError{status: http.StatusBadRequest, err: err}
}

// errorStatus folds domain errors into HTTP status codes. Stock contention
// and insufficient stock both map to 409 so clients can retry or refresh.
func errorStatus(err error) int {
	var withStatus *statusError
	if errors.As(err, &withStatus) {
		return withStatus.status
	}

	var insufficient *store.InsufficientStockError
	var missingInventory *store.InventoryNotFoundError
	switch {
	case errors.As(err, &insufficient):
		return http.StatusConflict
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &missingInventory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	// 5xx detail stays in the log; clients get a generic message.
	msg := err.Error()
	if status >= 500 {
		a.log.Error().Err(err).Int("status", status).Msg("internal error")
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{"error": msg})
}

func (a *API) writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func pathTail(path string, prefix string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimPrefix(path, prefix), "/"))
}
