// Package report escribe los dos artefactos de salida de un run:
// backtest_results.json (resumen) y trades.json (lista de trades).
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/alejandrodnm/volarb/internal/domain"
)

// summary es el DTO del resumen. Los nombres de campo son contrato con los
// consumidores del reporte — no los cambies.
type summary struct {
	RunID         string                 `json:"run_id"`
	Seed          int64                  `json:"seed"`
	TotalMarkets  int                    `json:"total_markets"`
	TotalSignals  int                    `json:"total_signals"`
	TotalTrades   int                    `json:"total_trades"`
	WinningTrades int                    `json:"winning_trades"`
	WinRate       float64                `json:"win_rate"`
	TotalPnL      float64                `json:"total_pnl"`
	AvgPnL        float64                `json:"avg_pnl"`
	ProfitFactor  any                    `json:"profit_factor"` // float o "inf"
	MaxDrawdown   float64                `json:"max_drawdown"`
	SharpeRatio   float64                `json:"sharpe_ratio"`
	AvgVolEdge    float64                `json:"avg_vol_edge"`
	AvgPriceEdge  float64                `json:"avg_price_edge"`
	BySymbol      map[string]symbolStats `json:"by_symbol"`
}

type symbolStats struct {
	Trades  int     `json:"trades"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"win_rate"`
	PnL     float64 `json:"pnl"`
}

type tradeRecord struct {
	Timestamp  string  `json:"timestamp"` // ISO-8601
	Symbol     string  `json:"symbol"`
	Direction  string  `json:"direction"`
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`
	FairValue  float64 `json:"fair_value"`
	PriceEdge  float64 `json:"price_edge"`
	VolEdgePct float64 `json:"vol_edge_pct"`
	Won        bool    `json:"won"`
	PnL        float64 `json:"pnl"`
	PnLPct     float64 `json:"pnl_pct"`
}

// Write vuelca el resumen y la lista de trades al directorio dado,
// creándolo si no existe.
func Write(dir string, r *domain.BacktestResults) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report.Write: mkdir %q: %w", dir, err)
	}

	if err := writeJSON(filepath.Join(dir, "backtest_results.json"), buildSummary(r)); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, "trades.json"), buildTrades(r))
}

func buildSummary(r *domain.BacktestResults) summary {
	s := summary{
		RunID:         r.RunID,
		Seed:          r.Seed,
		TotalMarkets:  r.TotalMarkets,
		TotalSignals:  r.TotalSignals,
		TotalTrades:   r.TotalTrades,
		WinningTrades: r.WinningTrades,
		WinRate:       r.WinRate,
		TotalPnL:      r.TotalPnL,
		AvgPnL:        r.AvgPnL,
		MaxDrawdown:   r.MaxDrawdown,
		SharpeRatio:   r.SharpeRatio,
		AvgVolEdge:    r.AvgVolEdge,
		AvgPriceEdge:  r.AvgPriceEdge,
		BySymbol:      make(map[string]symbolStats, len(r.BySymbol)),
	}

	// JSON no representa Inf: el profit factor sin trades perdedores sale
	// como el string "inf".
	if math.IsInf(r.ProfitFactor, 1) {
		s.ProfitFactor = "inf"
	} else {
		s.ProfitFactor = r.ProfitFactor
	}

	for sym, stats := range r.BySymbol {
		s.BySymbol[sym] = symbolStats{
			Trades:  stats.Trades,
			Wins:    stats.Wins,
			WinRate: stats.WinRate,
			PnL:     stats.PnL,
		}
	}
	return s
}

func buildTrades(r *domain.BacktestResults) []tradeRecord {
	records := make([]tradeRecord, 0, len(r.Trades))
	for _, t := range r.Trades {
		records = append(records, tradeRecord{
			Timestamp:  t.Signal.Timestamp.UTC().Format(time.RFC3339),
			Symbol:     t.Signal.Symbol,
			Direction:  string(t.Signal.Direction),
			EntryPrice: t.Signal.EntryPrice,
			ExitPrice:  t.ExitPrice,
			FairValue:  t.Signal.FairValue,
			PriceEdge:  t.Signal.PriceEdge,
			VolEdgePct: t.Signal.VolEdgePct,
			Won:        t.Won,
			PnL:        t.PnL,
			PnLPct:     t.PnLPct,
		})
	}
	return records
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("report.writeJSON: marshal %q: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report.writeJSON: write %q: %w", path, err)
	}
	return nil
}
