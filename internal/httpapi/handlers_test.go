package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vendia/backend/internal/cache"
	"vendia/backend/internal/notify"
	"vendia/backend/internal/reconcile"
	"vendia/backend/internal/service"
	"vendia/backend/internal/store/memory"
)

func newTestAPI(t *testing.T) http.Handler {
	t.Helper()
	repo := memory.New()
	log := zerolog.Nop()
	engine := reconcile.New(repo, cache.NoopStockCache{}, notify.NewLogEmitter(log), time.Minute, 3, log)
	svc := service.New(repo, engine, log)
	return New(svc, "*", log).Handler()
}

func doJSON(t *testing.T, handler http.Handler, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func createProduct(t *testing.T, handler http.Handler, name string, stock int) string {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/products", map[string]any{
		"name":          name,
		"category_id":   "cat-1",
		"sale_price":    "10",
		"initial_stock": stock,
		"min_stock":     2,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product: status %d body %s", rec.Code, rec.Body.String())
	}
	product := decodeBody(t, rec)["product"].(map[string]any)
	return product["id"].(string)
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ok, _ := decodeBody(t, rec)["ok"].(bool); !ok {
		t.Fatalf("expected ok=true, got %s", rec.Body.String())
	}
}

func TestProductCreateAndStockView(t *testing.T) {
	handler := newTestAPI(t)
	id := createProduct(t, handler, "beans", 7)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/products/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get product: status %d body %s", rec.Code, rec.Body.String())
	}
	product := decodeBody(t, rec)["product"].(map[string]any)
	if stock := product["stock"].(float64); stock != 7 {
		t.Fatalf("expected stock 7, got %v", stock)
	}

	rec = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/products/%s/stock", id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get stock: status %d body %s", rec.Code, rec.Body.String())
	}
	if stock := decodeBody(t, rec)["stock"].(float64); stock != 7 {
		t.Fatalf("expected stock 7, got %v", stock)
	}
}

func TestProductMissingReturns404(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/products/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSaleLifecycle(t *testing.T) {
	handler := newTestAPI(t)
	id := createProduct(t, handler, "beans", 10)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", map[string]any{
		"items": []map[string]any{{"product_id": id, "quantity": 4}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create sale: status %d body %s", rec.Code, rec.Body.String())
	}
	sale := decodeBody(t, rec)["sale"].(map[string]any)
	saleID := sale["id"].(string)
	if sale["state"].(string) != "finished" {
		t.Fatalf("expected finished sale, got %v", sale["state"])
	}

	rec = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/products/%s/stock", id), nil)
	if stock := decodeBody(t, rec)["stock"].(float64); stock != 6 {
		t.Fatalf("expected stock 6, got %v", stock)
	}

	rec = doJSON(t, handler, http.MethodPost, fmt.Sprintf("/api/v1/sales/%s/cancel", saleID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel sale: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/products/%s/stock", id), nil)
	if stock := decodeBody(t, rec)["stock"].(float64); stock != 10 {
		t.Fatalf("expected stock restored to 10, got %v", stock)
	}
}

func TestSaleInsufficientStockConflict(t *testing.T) {
	handler := newTestAPI(t)
	id := createProduct(t, handler, "beans", 2)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", map[string]any{
		"items": []map[string]any{{"product_id": id, "quantity": 5}},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestSaleUnknownFieldRejected(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", map[string]any{
		"items":  []map[string]any{},
		"bogus":  true,
		"field2": "x",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown fields, got %d", rec.Code)
	}
}

func TestReturnTransitionEndpoint(t *testing.T) {
	handler := newTestAPI(t)
	id := createProduct(t, handler, "beans", 10)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", map[string]any{
		"items": []map[string]any{{"product_id": id, "quantity": 3}},
	})
	saleID := decodeBody(t, rec)["sale"].(map[string]any)["id"].(string)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/returns", map[string]any{
		"sale_id":    saleID,
		"product_id": id,
		"quantity":   1,
		"reason":     "wrong size",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create return: status %d body %s", rec.Code, rec.Body.String())
	}
	returnID := decodeBody(t, rec)["return"].(map[string]any)["id"].(string)

	// Skipping straight to completed violates the state machine.
	rec = doJSON(t, handler, http.MethodPost, fmt.Sprintf("/api/v1/returns/%s/transition", returnID), map[string]any{
		"status": "completed",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid transition, got %d body %s", rec.Code, rec.Body.String())
	}

	for _, status := range []string{"in_process", "processed", "completed"} {
		rec = doJSON(t, handler, http.MethodPost, fmt.Sprintf("/api/v1/returns/%s/transition", returnID), map[string]any{
			"status": status,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("transition to %s: status %d body %s", status, rec.Code, rec.Body.String())
		}
	}

	rec = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/products/%s/stock", id), nil)
	if stock := decodeBody(t, rec)["stock"].(float64); stock != 8 {
		t.Fatalf("expected stock 8 (10 - 3 + 1), got %v", stock)
	}
}

func TestLowStockEndpoint(t *testing.T) {
	handler := newTestAPI(t)
	id := createProduct(t, handler, "beans", 3) // min stock 2

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", map[string]any{
		"items": []map[string]any{{"product_id": id, "quantity": 2}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create sale: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/inventory/low-stock", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("low stock: status %d", rec.Code)
	}
	entries := decodeBody(t, rec)["low_stock"].([]any)
	if len(entries) != 1 {
		t.Fatalf("expected one low-stock entry, got %d", len(entries))
	}
	entry := entries[0].(map[string]any)
	if entry["product_id"].(string) != id || entry["current_stock"].(float64) != 1 {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestInventoryLevelsEndpoint(t *testing.T) {
	handler := newTestAPI(t)
	id := createProduct(t, handler, "beans", 5)

	rec := doJSON(t, handler, http.MethodPut, fmt.Sprintf("/api/v1/inventory/%s/levels", id), map[string]any{
		"min_stock": 10,
		"max_stock": 50,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set levels: status %d body %s", rec.Code, rec.Body.String())
	}
	record := decodeBody(t, rec)["inventory"].(map[string]any)
	if record["min_stock"].(float64) != 10 || record["max_stock"].(float64) != 50 {
		t.Fatalf("unexpected record: %v", record)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/inventory/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get inventory: status %d", rec.Code)
	}
	record = decodeBody(t, rec)["inventory"].(map[string]any)
	if record["current_stock"].(float64) != 5 {
		t.Fatalf("expected current stock 5, got %v", record["current_stock"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodDelete, "/api/v1/products", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/healthz", nil)
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing nosniff header")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatal("missing frame options header")
	}
}
