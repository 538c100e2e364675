package ports

import (
	"context"

	"github.com/alejandrodnm/volarb/internal/domain"
)

// Notifier presenta los resultados de un run al usuario.
type Notifier interface {
	// Notify imprime (o envía) el reporte del backtest.
	Notify(ctx context.Context, results *domain.BacktestResults) error
}
