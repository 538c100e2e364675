package ports

import (
	"context"

	"github.com/alejandrodnm/volarb/internal/domain"
)

// RunStore persiste el resumen y los trades de cada run de backtest.
type RunStore interface {
	// SaveRun guarda el run completo (resumen + trades) de forma atómica.
	SaveRun(ctx context.Context, results *domain.BacktestResults) error
}
