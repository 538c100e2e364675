// Package engine orquesta el backtest: recorre los mercados simulados en
// orden de generación, ejecuta como mucho un trade por mercado y acumula
// equity, drawdown y estadísticas finales.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/alejandrodnm/volarb/internal/domain"
	"github.com/alejandrodnm/volarb/internal/ports"
	"github.com/alejandrodnm/volarb/internal/strategy"
)

// Config controla la contabilidad del run.
type Config struct {
	InitialCapital float64
	// Seed es la semilla efectiva del simulador; se anota en el reporte
	// para poder reproducir el run.
	Seed int64
}

// Engine ejecuta un backtest sobre una secuencia de mercados simulados.
// store y notifier son opcionales: a nil, el run no se persiste / no se
// imprime el reporte.
type Engine struct {
	cfg      Config
	strat    *strategy.VolArb
	store    ports.RunStore
	notifier ports.Notifier
}

// New crea un Engine. El capital inicial a cero se normaliza al default.
func New(cfg Config, strat *strategy.VolArb, store ports.RunStore, notifier ports.Notifier) *Engine {
	if cfg.InitialCapital <= 0 {
		cfg.InitialCapital = 1000
	}
	return &Engine{
		cfg:      cfg,
		strat:    strat,
		store:    store,
		notifier: notifier,
	}
}

// Run procesa los mercados estrictamente en orden de generación: el estimador
// de vol por símbolo y la curva de equity son estado secuencial, así que el
// orden no es negociable aunque la generación de mercados se paralelice.
func (e *Engine) Run(ctx context.Context, markets []domain.SimulatedMarket) (*domain.BacktestResults, error) {
	slog.Info("running volatility arbitrage backtest",
		"markets", len(markets),
		"initial_capital", e.cfg.InitialCapital,
		"seed", e.cfg.Seed,
	)

	results := &domain.BacktestResults{
		RunID:    uuid.New().String(),
		Seed:     e.cfg.Seed,
		BySymbol: make(map[string]domain.SymbolStats),
	}

	equity := e.cfg.InitialCapital
	peakEquity := equity

	for i := range markets {
		market := &markets[i]
		if i%100 == 0 {
			slog.Debug("processing market", "n", i, "total", len(markets))
		}

		// Alimentar el estimador aunque no salga trade — lo mantiene caliente.
		if len(market.Snapshots) > 0 {
			e.strat.ObserveVolatility(market.Symbol, market.Snapshots[0].HistVol)
		}

		best, ok := bestSignal(e.strat, market)
		if !ok {
			continue
		}
		results.TotalSignals++

		trade := domain.ResolveTrade(best, market.Outcome, e.strat.FeeRate())
		results.Trades = append(results.Trades, trade)

		equity += trade.PnL
		if equity > peakEquity {
			peakEquity = equity
		}
		results.EquityCurve = append(results.EquityCurve, domain.EquityPoint{
			Time:   market.ResolutionTime,
			Equity: equity,
		})
	}

	results.TotalMarkets = len(markets)
	results.Finalize(e.cfg.InitialCapital)

	slog.Info("backtest complete",
		"run_id", results.RunID,
		"signals", results.TotalSignals,
		"trades", results.TotalTrades,
		"win_rate", results.WinRate,
		"total_pnl", results.TotalPnL,
	)

	if e.notifier != nil {
		if err := e.notifier.Notify(ctx, results); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}
	if e.store != nil {
		if err := e.store.SaveRun(ctx, results); err != nil {
			return results, fmt.Errorf("engine.Run: persist run %s: %w", results.RunID, err)
		}
		slog.Info("run persisted", "run_id", results.RunID)
	}
	return results, nil
}

// bestSignal es un fold sobre los snapshots que conserva la señal calificada
// de mayor confianza. El desempate es estricto (>): ante empate gana la
// primera vista, manteniendo el resultado determinista.
func bestSignal(strat *strategy.VolArb, market *domain.SimulatedMarket) (domain.Signal, bool) {
	var best domain.Signal
	found := false
	bestConfidence := 0.0

	for _, snap := range market.Snapshots {
		sig, ok := strat.Analyze(market, snap)
		if ok && sig.Confidence > bestConfidence {
			best = sig
			bestConfidence = sig.Confidence
			found = true
		}
	}
	return best, found
}
