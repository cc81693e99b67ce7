package cache

import (
	"context"
	"time"
)

// StockCache is an advisory read-through cache of per-product stock. It is
// never the system of record: the store re-checks under its own transaction
// before any mutation, and every committed write invalidates the key.
type StockCache interface {
	GetStock(ctx context.Context, productID string) (int, bool, error)
	SetStock(ctx context.Context, productID string, stock int, ttl time.Duration) error
	Invalidate(ctx context.Context, productID string) error
}

type NoopStockCache struct{}

func (NoopStockCache) GetStock(_ context.Context, _ string) (int, bool, error) {
	return 0, false, nil
}

func (NoopStockCache) SetStock(_ context.Context, _ string, _ int, _ time.Duration) error {
	return nil
}

func (NoopStockCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
