package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"vendia/backend/internal/cache"
	"vendia/backend/internal/domain"
	"vendia/backend/internal/notify"
	"vendia/backend/internal/store"
	"vendia/backend/internal/store/memory"
)

type spyCache struct {
	mu          sync.Mutex
	values      map[string]int
	invalidated []string
}

func newSpyCache() *spyCache {
	return &spyCache{values: make(map[string]int)}
}

func (c *spyCache) GetStock(_ context.Context, productID string) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stock, ok := c.values[productID]
	return stock, ok, nil
}

func (c *spyCache) SetStock(_ context.Context, productID string, stock int, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[productID] = stock
	return nil
}

func (c *spyCache) Invalidate(_ context.Context, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, productID)
	c.invalidated = append(c.invalidated, productID)
	return nil
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []notify.StockEvent
}

func (e *recordingEmitter) Emit(_ context.Context, event notify.StockEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

func (e *recordingEmitter) all() []notify.StockEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]notify.StockEvent(nil), e.events...)
}

type failingEmitter struct{}

func (failingEmitter) Emit(context.Context, notify.StockEvent) error {
	return errors.New("broker unavailable")
}

type conflictRepo struct {
	store.Repository
	mu        sync.Mutex
	conflicts int
}

func (r *conflictRepo) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, []domain.StockChange, error) {
	r.mu.Lock()
	if r.conflicts > 0 {
		r.conflicts--
		r.mu.Unlock()
		return nil, nil, store.ErrConflict
	}
	r.mu.Unlock()
	return r.Repository.CreateSale(ctx, sale)
}

func seedProduct(t *testing.T, repo store.Repository, id string, stock int, minStock int) {
	t.Helper()
	_, err := repo.CreateProduct(context.Background(), domain.Product{
		ID:            id,
		Name:          "widget " + id,
		CategoryID:    "cat-1",
		PurchasePrice: decimal.NewFromInt(7),
		SalePrice:     decimal.NewFromInt(10),
	}, domain.InventoryRecord{CurrentStock: stock, MinStock: minStock})
	if err != nil {
		t.Fatalf("seed product %s: %v", id, err)
	}
}

func saleOf(productID string, qty int) domain.Sale {
	return domain.Sale{Items: []domain.SaleItem{{
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: decimal.NewFromInt(10),
	}}}
}

func newEngine(repo store.Repository, stock cache.StockCache, emitter notify.Emitter) *Engine {
	return New(repo, stock, emitter, time.Minute, 3, zerolog.Nop())
}

func TestAvailableStockReadThrough(t *testing.T) {
	repo := memory.New()
	seedProduct(t, repo, "p1", 12, 3)
	stockCache := newSpyCache()
	engine := newEngine(repo, stockCache, &recordingEmitter{})

	got, err := engine.AvailableStock(context.Background(), "p1")
	if err != nil {
		t.Fatalf("AvailableStock: %v", err)
	}
	if got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
	if cached, ok := stockCache.values["p1"]; !ok || cached != 12 {
		t.Fatalf("expected cache populated with 12, got %d (present=%v)", cached, ok)
	}
}

func TestCommitSaleStoreOverridesStaleCache(t *testing.T) {
	repo := memory.New()
	seedProduct(t, repo, "p1", 5, 0)
	stockCache := newSpyCache()
	stockCache.values["p1"] = 8 // stale: store only has 5
	engine := newEngine(repo, stockCache, &recordingEmitter{})

	_, err := engine.CommitSale(context.Background(), saleOf("p1", 6))
	var insufficient *store.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
	if insufficient.Available != 5 || insufficient.Requested != 6 {
		t.Fatalf("unexpected error detail: %+v", insufficient)
	}

	record, err := repo.GetInventory(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetInventory: %v", err)
	}
	if record.CurrentStock != 5 {
		t.Fatalf("rejected sale must not move stock, got %d", record.CurrentStock)
	}
}

func TestCommitSaleAllOrNothing(t *testing.T) {
	repo := memory.New()
	seedProduct(t, repo, "p1", 10, 0)
	seedProduct(t, repo, "p2", 1, 0)
	engine := newEngine(repo, cache.NoopStockCache{}, &recordingEmitter{})

	_, err := engine.CommitSale(context.Background(), domain.Sale{Items: []domain.SaleItem{
		{ProductID: "p1", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
		{ProductID: "p2", Quantity: 3, UnitPrice: decimal.NewFromInt(10)},
	}})
	var insufficient *store.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
	if insufficient.ProductID != "p2" {
		t.Fatalf("expected p2 to fail the sale, got %s", insufficient.ProductID)
	}

	for id, want := range map[string]int{"p1": 10, "p2": 1} {
		record, err := repo.GetInventory(context.Background(), id)
		if err != nil {
			t.Fatalf("GetInventory %s: %v", id, err)
		}
		if record.CurrentStock != want {
			t.Fatalf("product %s: expected stock %d, got %d", id, want, record.CurrentStock)
		}
	}
}

func TestCommitSaleConcurrentDoubleSpend(t *testing.T) {
	repo := memory.New()
	seedProduct(t, repo, "p1", 10, 0)
	engine := newEngine(repo, cache.NoopStockCache{}, &recordingEmitter{})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.CommitSale(context.Background(), saleOf("p1", 6))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var insufficient *store.InsufficientStockError
		if !errors.As(err, &insufficient) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one sale to succeed, got %d", succeeded)
	}

	record, err := repo.GetInventory(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetInventory: %v", err)
	}
	if record.CurrentStock != 4 {
		t.Fatalf("expected stock 4 after one successful sale, got %d", record.CurrentStock)
	}
}

func TestCommitSaleRetriesOnConflict(t *testing.T) {
	repo := memory.New()
	seedProduct(t, repo, "p1", 10, 0)
	wrapped := &conflictRepo{Repository: repo, conflicts: 2}
	engine := newEngine(wrapped, cache.NoopStockCache{}, &recordingEmitter{})

	sale, err := engine.CommitSale(context.Background(), saleOf("p1", 2))
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if sale.State != domain.SaleStateFinished {
		t.Fatalf("expected finished sale, got %s", sale.State)
	}
}

func TestCommitSaleGivesUpAfterMaxRetries(t *testing.T) {
	repo := memory.New()
	seedProduct(t, repo, "p1", 10, 0)
	wrapped := &conflictRepo{Repository: repo, conflicts: 100}
	engine := newEngine(wrapped, cache.NoopStockCache{}, &recordingEmitter{})

	_, err := engine.CommitSale(context.Background(), saleOf("p1", 2))
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict after exhausted retries, got %v", err)
	}
}

func TestCommitSaleInvalidatesCacheAndEmits(t *testing.T) {
	repo := memory.New()
	seedProduct(t, repo, "p1", 10, 4)
	stockCache := newSpyCache()
	stockCache.values["p1"] = 10
	emitter := &recordingEmitter{}
	engine := newEngine(repo, stockCache, emitter)

	if _, err := engine.CommitSale(context.Background(), saleOf("p1", 7)); err != nil {
		t.Fatalf("CommitSale: %v", err)
	}

	if len(stockCache.invalidated) != 1 || stockCache.invalidated[0] != "p1" {
		t.Fatalf("expected p1 cache invalidation, got %v", stockCache.invalidated)
	}
	events := emitter.all()
	if len(events) != 1 {
		t.Fatalf("expected one stock event, got %d", len(events))
	}
	event := events[0]
	if event.ProductID != "p1" || event.Stock != 3 || event.Reason != domain.StockReasonSale {
		t.Fatalf("unexpected event: %+v", event)
	}
	if !event.LowStock {
		t.Fatalf("stock 3 below min 4 should flag low stock")
	}
}

func TestCommitPurchaseIncrementsAndEmits(t *testing.T) {
	repo := memory.New()
	seedProduct(t, repo, "p1", 10, 0)
	emitter := &recordingEmitter{}
	engine := newEngine(repo, cache.NoopStockCache{}, emitter)

	purchase, err := engine.CommitPurchase(context.Background(), domain.Purchase{
		SupplierID: "sup-1",
		Tax:        decimal.NewFromInt(2),
		Items:      []domain.PurchaseItem{{ProductID: "p1", Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("CommitPurchase: %v", err)
	}
	// 5 units at purchase price 7, plus tax 2
	if !purchase.Total.Equal(decimal.NewFromInt(37)) {
		t.Fatalf("expected total 37, got %s", purchase.Total)
	}

	record, err := repo.GetInventory(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetInventory: %v", err)
	}
	if record.CurrentStock != 15 {
		t.Fatalf("expected stock 15, got %d", record.CurrentStock)
	}

	events := emitter.all()
	if len(events) != 1 || events[0].Stock != 15 || events[0].Reason != domain.StockReasonPurchase {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestEmitterFailureDoesNotFailSale(t *testing.T) {
	repo := memory.New()
	seedProduct(t, repo, "p1", 10, 0)
	engine := newEngine(repo, cache.NoopStockCache{}, failingEmitter{})

	if _, err := engine.CommitSale(context.Background(), saleOf("p1", 3)); err != nil {
		t.Fatalf("emit failure must not fail the sale, got %v", err)
	}

	record, err := repo.GetInventory(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetInventory: %v", err)
	}
	if record.CurrentStock != 7 {
		t.Fatalf("expected stock 7, got %d", record.CurrentStock)
	}
}

func TestCancelSaleRestoresStock(t *testing.T) {
	repo := memory.New()
	seedProduct(t, repo, "p1", 10, 0)
	emitter := &recordingEmitter{}
	engine := newEngine(repo, cache.NoopStockCache{}, emitter)

	sale, err := engine.CommitSale(context.Background(), saleOf("p1", 4))
	if err != nil {
		t.Fatalf("CommitSale: %v", err)
	}

	canceled, err := engine.CancelSale(context.Background(), sale.ID)
	if err != nil {
		t.Fatalf("CancelSale: %v", err)
	}
	if canceled.State != domain.SaleStateCanceled {
		t.Fatalf("expected canceled state, got %s", canceled.State)
	}

	record, err := repo.GetInventory(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetInventory: %v", err)
	}
	if record.CurrentStock != 10 {
		t.Fatalf("expected stock restored to 10, got %d", record.CurrentStock)
	}

	events := emitter.all()
	if len(events) != 2 || events[1].Reason != domain.StockReasonSaleCanceled || events[1].Stock != 10 {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestReturnCompletionReversesStockOnce(t *testing.T) {
	repo := memory.New()
	seedProduct(t, repo, "p1", 10, 0)
	engine := newEngine(repo, cache.NoopStockCache{}, &recordingEmitter{})
	ctx := context.Background()

	sale, err := engine.CommitSale(ctx, saleOf("p1", 3))
	if err != nil {
		t.Fatalf("CommitSale: %v", err)
	}

	ret, err := repo.CreateReturn(ctx, domain.Return{SaleID: sale.ID, ProductID: "p1", Quantity: 2})
	if err != nil {
		t.Fatalf("CreateReturn: %v", err)
	}

	for _, next := range []string{domain.ReturnStatusInProcess, domain.ReturnStatusProcessed, domain.ReturnStatusCompleted} {
		if _, err := engine.AdvanceReturn(ctx, ret.ID, next); err != nil {
			t.Fatalf("advance to %s: %v", next, err)
		}
	}

	record, err := repo.GetInventory(ctx, "p1")
	if err != nil {
		t.Fatalf("GetInventory: %v", err)
	}
	if record.CurrentStock != 9 {
		t.Fatalf("expected stock 9 after completed return, got %d", record.CurrentStock)
	}

	// Completed is terminal; a second completion attempt must not move stock.
	if _, err := engine.AdvanceReturn(ctx, ret.ID, domain.ReturnStatusCompleted); !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected ErrInvalid on repeated completion, got %v", err)
	}
	record, err = repo.GetInventory(ctx, "p1")
	if err != nil {
		t.Fatalf("GetInventory: %v", err)
	}
	if record.CurrentStock != 9 {
		t.Fatalf("repeated completion must not move stock, got %d", record.CurrentStock)
	}
}

func TestReserveForSaleMissingInventory(t *testing.T) {
	repo := memory.New()
	engine := newEngine(repo, cache.NoopStockCache{}, &recordingEmitter{})

	err := engine.ReserveForSale(context.Background(), []domain.SaleItem{{ProductID: "ghost", Quantity: 1}})
	var missing *store.InventoryNotFoundError
	if !errors.As(err, &missing) {
		t.Fatalf("expected inventory not found error, got %v", err)
	}
	if missing.ProductID != "ghost" {
		t.Fatalf("expected ghost, got %s", missing.ProductID)
	}
}
