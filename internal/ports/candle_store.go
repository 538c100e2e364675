package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/volarb/internal/domain"
)

// CandleStore persiste y recupera velas para alimentar backtests sin
// volver a pedirlas al exchange.
type CandleStore interface {
	// SaveCandles inserta o actualiza las velas (idempotente por symbol+timestamp).
	SaveCandles(ctx context.Context, candles []domain.Candle) error

	// LoadCandles devuelve las velas de los símbolos dados dentro del rango,
	// ordenadas por (symbol, timestamp). Símbolos vacío = todos.
	LoadCandles(ctx context.Context, symbols []string, from, to time.Time) ([]domain.Candle, error)
}
