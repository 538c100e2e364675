package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/volarb/internal/domain"
)

// CandleProvider obtiene velas históricas de un exchange externo.
type CandleProvider interface {
	// FetchCandles devuelve hasta limit velas del símbolo que terminan en
	// endTime, de la más antigua a la más reciente. Pagina el caller.
	FetchCandles(ctx context.Context, symbol string, limit int, endTime time.Time) ([]domain.Candle, error)

	// CollectHistorical descarga days días de velas paginando hacia atrás,
	// en orden cronológico.
	CollectHistorical(ctx context.Context, symbol string, days int) ([]domain.Candle, error)
}
