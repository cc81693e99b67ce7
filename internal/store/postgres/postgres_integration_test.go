package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"vendia/backend/internal/domain"
	"vendia/backend/internal/store"
)

func TestSaleAndReturnReversal(t *testing.T) {
	databaseURL := os.Getenv("VENDIA_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set VENDIA_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	categoryID := fmt.Sprintf("cat-it-%d", stamp)
	productID := fmt.Sprintf("prod-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM returns WHERE product_id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sale_items WHERE product_id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE id IN (SELECT sale_id FROM sale_items WHERE product_id = $1)`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM inventory WHERE product_id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, categoryID)
	})

	if _, err := s.CreateCategory(ctx, domain.Category{ID: categoryID, Name: "integration " + categoryID}); err != nil {
		t.Fatalf("create category: %v", err)
	}

	product := domain.Product{
		ID:         productID,
		Name:       "integration widget",
		CategoryID: categoryID,
		Slug:       productID,
	}
	if _, err := s.CreateProduct(ctx, product, domain.InventoryRecord{CurrentStock: 10, MinStock: 2}); err != nil {
		t.Fatalf("create product: %v", err)
	}

	sale, changes, err := s.CreateSale(ctx, domain.Sale{
		Items: []domain.SaleItem{{ProductID: productID, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if len(changes) != 1 || changes[0].NewStock != 6 {
		t.Fatalf("expected stock change to 6, got %+v", changes)
	}
	if sale.CorrelativeNumber == "" {
		t.Fatal("expected a correlative number")
	}

	ret, err := s.CreateReturn(ctx, domain.Return{SaleID: sale.ID, ProductID: productID, Quantity: 3})
	if err != nil {
		t.Fatalf("create return: %v", err)
	}

	for _, next := range []string{domain.ReturnStatusInProcess, domain.ReturnStatusProcessed} {
		if _, _, err := s.TransitionReturn(ctx, ret.ID, next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}

	_, changes, err = s.TransitionReturn(ctx, ret.ID, domain.ReturnStatusCompleted)
	if err != nil {
		t.Fatalf("complete return: %v", err)
	}
	if len(changes) != 1 || changes[0].NewStock != 9 {
		t.Fatalf("expected stock 9 after reversal, got %+v", changes)
	}

	// Completion is terminal; repeating it must not move stock again.
	if _, _, err := s.TransitionReturn(ctx, ret.ID, domain.ReturnStatusCompleted); !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected ErrInvalid on repeated completion, got %v", err)
	}

	record, err := s.GetInventory(ctx, productID)
	if err != nil {
		t.Fatalf("get inventory: %v", err)
	}
	if record.CurrentStock != 9 {
		t.Fatalf("expected stock 9, got %d", record.CurrentStock)
	}
}
