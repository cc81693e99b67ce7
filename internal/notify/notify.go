package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// StockEvent is the payload published after a committed stock change. The
// product_id and stock fields form the wire contract consumed by the
// storefront's live stock widgets.
type StockEvent struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
	Reason    string `json:"reason,omitempty"`
	LowStock  bool   `json:"low_stock,omitempty"`
}

// Emitter publishes stock events to interested consumers. Emit failures are
// the caller's to log; they must never fail the stock movement that
// produced the event.
type Emitter interface {
	Emit(ctx context.Context, event StockEvent) error
}

// LogEmitter writes stock events to the log. It stands in for the broker
// when no redis address is configured.
type LogEmitter struct {
	log zerolog.Logger
}

func NewLogEmitter(log zerolog.Logger) *LogEmitter {
	return &LogEmitter{log: log}
}

func (e *LogEmitter) Emit(_ context.Context, event StockEvent) error {
	e.log.Info().
		Str("product_id", event.ProductID).
		Int("stock", event.Stock).
		Str("reason", event.Reason).
		Bool("low_stock", event.LowStock).
		Msg("stock event")
	return nil
}
