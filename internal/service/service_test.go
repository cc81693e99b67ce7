package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"vendia/backend/internal/cache"
	"vendia/backend/internal/domain"
	"vendia/backend/internal/notify"
	"vendia/backend/internal/reconcile"
	"vendia/backend/internal/store"
	"vendia/backend/internal/store/memory"
)

func newTestService() (*Service, *memory.Store) {
	repo := memory.New()
	log := zerolog.Nop()
	engine := reconcile.New(repo, cache.NoopStockCache{}, notify.NewLogEmitter(log), time.Minute, 3, log)
	return New(repo, engine, log), repo
}

func mustCreateProduct(t *testing.T, svc *Service, name string, salePrice int64, stock int) *domain.ProductView {
	t.Helper()
	view, err := svc.CreateProduct(context.Background(), domain.ProductCreateRequest{
		Name:          name,
		CategoryID:    "cat-1",
		PurchasePrice: decimal.NewFromInt(salePrice / 2),
		SalePrice:     decimal.NewFromInt(salePrice),
		InitialStock:  stock,
	})
	if err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return view
}

func TestCreateSaleTotalsIncludeShipping(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p1 := mustCreateProduct(t, svc, "espresso beans", 20, 50)
	p2 := mustCreateProduct(t, svc, "drip filter", 5, 50)

	method, err := svc.CreateShippingMethod(ctx, domain.ShippingMethodCreateRequest{
		Name: "courier",
		Cost: decimal.NewFromInt(3),
	})
	if err != nil {
		t.Fatalf("create shipping method: %v", err)
	}

	sale, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
		ShippingID: method.ID,
		Items: []domain.SaleLineRequest{
			{ProductID: p1.ID, Quantity: 2},
			{ProductID: p2.ID, Quantity: 4},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	// 2*20 + 4*5 + 3 shipping
	if !sale.Total.Equal(decimal.NewFromInt(63)) {
		t.Fatalf("expected total 63, got %s", sale.Total)
	}
	if !sale.ShippingCost.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("expected shipping cost 3, got %s", sale.ShippingCost)
	}
	if sale.State != domain.SaleStateFinished {
		t.Fatalf("expected finished sale, got %s", sale.State)
	}
	if sale.CorrelativeNumber == "" {
		t.Fatal("expected a correlative number")
	}
	for _, item := range sale.Items {
		want := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if !item.Subtotal.Equal(want) {
			t.Fatalf("line %s: expected subtotal %s, got %s", item.ProductID, want, item.Subtotal)
		}
	}
}

func TestCreateSaleUsesOfferPriceWhenSet(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	view, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{
		Name:         "teapot",
		CategoryID:   "cat-1",
		SalePrice:    decimal.NewFromInt(30),
		OfferPrice:   decimal.NewFromInt(25),
		InitialStock: 10,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	sale, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
		Items: []domain.SaleLineRequest{{ProductID: view.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if !sale.Items[0].UnitPrice.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected offer price 25, got %s", sale.Items[0].UnitPrice)
	}
}

func TestCreateSaleCustomUnitPriceWins(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p := mustCreateProduct(t, svc, "mug", 12, 10)
	custom := decimal.NewFromInt(9)

	sale, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
		Items: []domain.SaleLineRequest{{ProductID: p.ID, Quantity: 2, UnitPrice: &custom}},
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if !sale.Total.Equal(decimal.NewFromInt(18)) {
		t.Fatalf("expected total 18, got %s", sale.Total)
	}
}

func TestCancelSaleRestoresStock(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	p := mustCreateProduct(t, svc, "kettle", 40, 6)
	sale, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
		Items: []domain.SaleLineRequest{{ProductID: p.ID, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	if _, err := svc.CancelSale(ctx, sale.ID); err != nil {
		t.Fatalf("CancelSale: %v", err)
	}

	record, err := repo.GetInventory(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetInventory: %v", err)
	}
	if record.CurrentStock != 6 {
		t.Fatalf("expected stock back at 6, got %d", record.CurrentStock)
	}

	// A canceled sale cannot be canceled again.
	if _, err := svc.CancelSale(ctx, sale.ID); !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestCreatePurchaseTotalsAndDeliveryDate(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	supplier, err := svc.CreateSupplier(ctx, domain.SupplierCreateRequest{Name: "acme"})
	if err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	p := mustCreateProduct(t, svc, "grinder", 50, 2) // purchase price 25

	purchase, err := svc.CreatePurchase(ctx, domain.PurchaseCreateRequest{
		SupplierID:   supplier.ID,
		Tax:          decimal.NewFromInt(10),
		DeliveryDate: "2026-09-15",
		Items:        []domain.PurchaseLineRequest{{ProductID: p.ID, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}

	// 4*25 + 10 tax
	if !purchase.Total.Equal(decimal.NewFromInt(110)) {
		t.Fatalf("expected total 110, got %s", purchase.Total)
	}
	if purchase.DeliveryDate == nil || purchase.DeliveryDate.Format("2006-01-02") != "2026-09-15" {
		t.Fatalf("unexpected delivery date: %v", purchase.DeliveryDate)
	}

	record, err := repo.GetInventory(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetInventory: %v", err)
	}
	if record.CurrentStock != 6 {
		t.Fatalf("expected stock 6, got %d", record.CurrentStock)
	}
}

func TestCreatePurchaseUnknownSupplier(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreatePurchase(context.Background(), domain.PurchaseCreateRequest{
		SupplierID: "nope",
		Items:      []domain.PurchaseLineRequest{{ProductID: "p", Quantity: 1}},
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCancelPurchaseBlockedWhenUnitsSold(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	supplier, err := svc.CreateSupplier(ctx, domain.SupplierCreateRequest{Name: "acme"})
	if err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	p := mustCreateProduct(t, svc, "scale", 30, 0)

	purchase, err := svc.CreatePurchase(ctx, domain.PurchaseCreateRequest{
		SupplierID: supplier.ID,
		Items:      []domain.PurchaseLineRequest{{ProductID: p.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}

	// Sell two of the three purchased units, then try to cancel the purchase.
	if _, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
		Items: []domain.SaleLineRequest{{ProductID: p.ID, Quantity: 2}},
	}); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	_, err = svc.CancelPurchase(ctx, purchase.ID)
	var insufficient *store.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
}

func TestReturnWorkflow(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	p := mustCreateProduct(t, svc, "thermos", 15, 8)
	sale, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
		Items: []domain.SaleLineRequest{{ProductID: p.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	ret, err := svc.CreateReturn(ctx, domain.ReturnCreateRequest{
		SaleID:    sale.ID,
		ProductID: p.ID,
		Quantity:  2,
		Reason:    "damaged lid",
	})
	if err != nil {
		t.Fatalf("CreateReturn: %v", err)
	}
	if ret.Status != domain.ReturnStatusPending {
		t.Fatalf("expected pending return, got %s", ret.Status)
	}

	// Returning more than the remaining sold quantity is rejected.
	if _, err := svc.CreateReturn(ctx, domain.ReturnCreateRequest{
		SaleID:    sale.ID,
		ProductID: p.ID,
		Quantity:  2,
	}); !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for over-return, got %v", err)
	}

	for _, next := range []string{domain.ReturnStatusInProcess, domain.ReturnStatusProcessed, domain.ReturnStatusCompleted} {
		ret, err = svc.AdvanceReturn(ctx, ret.ID, domain.ReturnTransitionRequest{Status: next})
		if err != nil {
			t.Fatalf("advance to %s: %v", next, err)
		}
	}
	if !ret.StockReversed {
		t.Fatal("completed return must mark stock reversed")
	}

	record, err := repo.GetInventory(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetInventory: %v", err)
	}
	if record.CurrentStock != 7 {
		t.Fatalf("expected stock 7 (8 - 3 + 2), got %d", record.CurrentStock)
	}
}

func TestReturnSkippingStatesRejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p := mustCreateProduct(t, svc, "tray", 10, 5)
	sale, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
		Items: []domain.SaleLineRequest{{ProductID: p.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	ret, err := svc.CreateReturn(ctx, domain.ReturnCreateRequest{SaleID: sale.ID, ProductID: p.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("CreateReturn: %v", err)
	}

	if _, err := svc.AdvanceReturn(ctx, ret.ID, domain.ReturnTransitionRequest{Status: domain.ReturnStatusCompleted}); !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected ErrInvalid when skipping states, got %v", err)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Espresso Beans 1kg": "espresso-beans-1kg",
		"  Café -- Premium ": "caf-premium",
		"simple":             "simple",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
