package domain

import (
	"math"
	"time"
)

// EquityPoint es un punto de la curva de equity, anotado en la resolución
// de cada trade.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// SymbolStats es el desglose de rendimiento por símbolo.
type SymbolStats struct {
	Trades  int
	Wins    int
	WinRate float64
	PnL     float64
}

// BacktestResults es el output agregado de un run completo.
// Se construye incrementalmente durante el run y se cierra con Finalize.
type BacktestResults struct {
	RunID string
	Seed  int64

	TotalMarkets  int
	TotalSignals  int
	TotalTrades   int
	WinningTrades int

	WinRate      float64
	TotalPnL     float64
	AvgPnL       float64
	ProfitFactor float64
	MaxDrawdown  float64
	SharpeRatio  float64
	AvgVolEdge   float64
	AvgPriceEdge float64

	BySymbol    map[string]SymbolStats
	Trades      []Trade
	EquityCurve []EquityPoint
}

// Finalize calcula las estadísticas agregadas a partir de la lista de trades
// y la curva de equity. Con cero trades todos los ratios quedan en 0.0 —
// nunca divide por cero ni lanza.
func (r *BacktestResults) Finalize(initialCapital float64) {
	r.TotalTrades = len(r.Trades)
	if r.BySymbol == nil {
		r.BySymbol = make(map[string]SymbolStats)
	}
	if len(r.Trades) == 0 {
		return
	}

	var totalPnL, volEdgeSum, priceEdgeSum, grossWins, grossLosses float64
	for _, t := range r.Trades {
		if t.Won {
			r.WinningTrades++
		}
		totalPnL += t.PnL
		volEdgeSum += t.Signal.VolEdgePct
		priceEdgeSum += t.Signal.PriceEdge
		if t.PnL > 0 {
			grossWins += t.PnL
		} else if t.PnL < 0 {
			grossLosses += -t.PnL
		}

		stats := r.BySymbol[t.Signal.Symbol]
		stats.Trades++
		if t.Won {
			stats.Wins++
		}
		stats.PnL += t.PnL
		r.BySymbol[t.Signal.Symbol] = stats
	}

	n := float64(len(r.Trades))
	r.WinRate = float64(r.WinningTrades) / n
	r.TotalPnL = totalPnL
	r.AvgPnL = totalPnL / n
	r.AvgVolEdge = volEdgeSum / n
	r.AvgPriceEdge = priceEdgeSum / n

	if grossLosses > 0 {
		r.ProfitFactor = grossWins / grossLosses
	} else {
		r.ProfitFactor = math.Inf(1)
	}

	r.MaxDrawdown = maxDrawdown(r.EquityCurve, initialCapital)
	r.SharpeRatio = sharpeRatio(r.Trades)

	for sym, stats := range r.BySymbol {
		stats.WinRate = float64(stats.Wins) / float64(stats.Trades)
		r.BySymbol[sym] = stats
	}
}

// maxDrawdown reproduce la curva de equity registrando el pico acumulado.
func maxDrawdown(curve []EquityPoint, initialCapital float64) float64 {
	peak := initialCapital
	maxDD := 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			if dd := (peak - p.Equity) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// sharpeRatio calcula mean/std de los retornos por trade, escalado por
// sqrt(100). El escalar es una anualización fija ligada a la frecuencia de
// trades asumida — los consumidores calibran umbrales contra este valor
// exacto, no lo cambies sin coordinarlo.
func sharpeRatio(trades []Trade) float64 {
	if len(trades) < 2 {
		return 0
	}

	n := float64(len(trades))
	var mean float64
	for _, t := range trades {
		mean += t.PnLPct
	}
	mean /= n

	var variance float64
	for _, t := range trades {
		d := t.PnLPct - mean
		variance += d * d
	}
	variance /= n

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(100)
}
