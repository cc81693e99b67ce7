// Package reconcile keeps cached stock, the inventory store, and downstream
// consumers consistent around every stock movement. The cache is advisory:
// it can reject a sale early, but only the store's locked rows decide
// whether stock actually moves.
package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"vendia/backend/internal/cache"
	"vendia/backend/internal/domain"
	"vendia/backend/internal/notify"
	"vendia/backend/internal/store"
)

type Engine struct {
	repo    store.Repository
	stock   cache.StockCache
	emitter notify.Emitter

	ttl        time.Duration
	maxRetries int
	log        zerolog.Logger
}

func New(repo store.Repository, stock cache.StockCache, emitter notify.Emitter, ttl time.Duration, maxRetries int, log zerolog.Logger) *Engine {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Engine{
		repo:       repo,
		stock:      stock,
		emitter:    emitter,
		ttl:        ttl,
		maxRetries: maxRetries,
		log:        log,
	}
}

// AvailableStock reads the cached stock for a product, falling back to the
// inventory record on a miss and repopulating the cache.
func (e *Engine) AvailableStock(ctx context.Context, productID string) (int, error) {
	stock, hit, err := e.stock.GetStock(ctx, productID)
	if err != nil {
		e.log.Warn().Err(err).Str("product_id", productID).Msg("stock cache read failed")
	} else if hit {
		return stock, nil
	}

	record, err := e.repo.GetInventory(ctx, productID)
	if err != nil {
		return 0, err
	}
	if err := e.stock.SetStock(ctx, productID, record.CurrentStock, e.ttl); err != nil {
		e.log.Warn().Err(err).Str("product_id", productID).Msg("stock cache write failed")
	}
	return record.CurrentStock, nil
}

// ReserveForSale pre-checks every line of a prospective sale. The whole
// request fails on the first product whose available stock cannot cover its
// aggregated quantity. This is a fast-path rejection only; the committing
// transaction re-validates against locked rows.
func (e *Engine) ReserveForSale(ctx context.Context, items []domain.SaleItem) error {
	if len(items) == 0 {
		return store.ErrInvalid
	}

	qtyByProduct := make(map[string]int, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		if item.ProductID == "" || item.Quantity < 1 {
			return store.ErrInvalid
		}
		if _, seen := qtyByProduct[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		qtyByProduct[item.ProductID] += item.Quantity
	}

	for _, productID := range order {
		available, err := e.AvailableStock(ctx, productID)
		if err != nil {
			return err
		}
		if qtyByProduct[productID] > available {
			return &store.InsufficientStockError{
				ProductID: productID,
				Requested: qtyByProduct[productID],
				Available: available,
			}
		}
	}
	return nil
}

// CommitSale runs the full sale path: advisory reservation, the
// authoritative store transaction with bounded retry on serialization
// conflicts, then cache invalidation and event emission for every product
// whose stock moved.
func (e *Engine) CommitSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if err := e.ReserveForSale(ctx, sale.Items); err != nil {
		return nil, err
	}

	var created *domain.Sale
	var changes []domain.StockChange
	err := e.withRetry(ctx, "create sale", func() error {
		var err error
		created, changes, err = e.repo.CreateSale(ctx, sale)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.settle(ctx, changes)
	return created, nil
}

// CommitPurchase persists a purchase, increments stock, and reconciles
// cache and consumers.
func (e *Engine) CommitPurchase(ctx context.Context, purchase domain.Purchase) (*domain.Purchase, error) {
	var created *domain.Purchase
	var changes []domain.StockChange
	err := e.withRetry(ctx, "create purchase", func() error {
		var err error
		created, changes, err = e.repo.CreatePurchase(ctx, purchase)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.settle(ctx, changes)
	return created, nil
}

// CancelSale restores the stock a finished sale consumed.
func (e *Engine) CancelSale(ctx context.Context, id string) (*domain.Sale, error) {
	var sale *domain.Sale
	var changes []domain.StockChange
	err := e.withRetry(ctx, "cancel sale", func() error {
		var err error
		sale, changes, err = e.repo.CancelSale(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.settle(ctx, changes)
	return sale, nil
}

// CancelPurchase reverses the increment of a finished purchase.
func (e *Engine) CancelPurchase(ctx context.Context, id string) (*domain.Purchase, error) {
	var purchase *domain.Purchase
	var changes []domain.StockChange
	err := e.withRetry(ctx, "cancel purchase", func() error {
		var err error
		purchase, changes, err = e.repo.CancelPurchase(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.settle(ctx, changes)
	return purchase, nil
}

// AdvanceReturn moves a return to its next status. Completing a return
// reverses the sold quantity back into stock exactly once; the store's
// guarded update enforces the once-only reversal.
func (e *Engine) AdvanceReturn(ctx context.Context, id string, next string) (*domain.Return, error) {
	var ret *domain.Return
	var changes []domain.StockChange
	err := e.withRetry(ctx, "advance return", func() error {
		var err error
		ret, changes, err = e.repo.TransitionReturn(ctx, id, next)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.settle(ctx, changes)
	return ret, nil
}

// withRetry reruns the store operation while it keeps failing with
// ErrConflict, up to the configured maximum attempts.
func (e *Engine) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		err = fn()
		if !errors.Is(err, store.ErrConflict) {
			return err
		}
		e.log.Warn().Str("op", op).Int("attempt", attempt).Msg("serialization conflict, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return err
}

// settle runs the post-commit tail for each stock change: drop the stale
// cache entry, then publish the authoritative stock value. Both steps are
// best effort; the stock movement has already committed.
func (e *Engine) settle(ctx context.Context, changes []domain.StockChange) {
	for _, change := range changes {
		if err := e.stock.Invalidate(ctx, change.ProductID); err != nil {
			e.log.Warn().Err(err).Str("product_id", change.ProductID).Msg("stock cache invalidation failed")
		}

		event := notify.StockEvent{
			ProductID: change.ProductID,
			Stock:     change.NewStock,
			Reason:    change.Reason,
			LowStock:  change.NewStock < change.MinStock,
		}
		if err := e.emitter.Emit(ctx, event); err != nil {
			e.log.Warn().Err(err).Str("product_id", change.ProductID).Msg("stock event emission failed")
		}
	}
}
