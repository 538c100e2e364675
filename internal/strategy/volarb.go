// Package strategy implementa la estrategia de arbitraje de volatilidad:
// comparar nuestra estimación de vol contra la vol implícita del mercado y
// comprar el lado que el mispricing deja barato.
package strategy

import (
	"math"
	"time"

	"github.com/alejandrodnm/volarb/internal/domain"
)

// volWindowCap es la capacidad del buffer circular de observaciones por símbolo.
const volWindowCap = 20

// defaultVolEstimate se usa mientras un símbolo no tiene observaciones.
const defaultVolEstimate = 0.003

// Config contiene los umbrales de la estrategia.
type Config struct {
	// MinVolEdgePct: desacuerdo relativo mínimo entre nuestra vol y la implícita.
	MinVolEdgePct float64
	// MinPriceEdge: edge de precio mínimo después de fees.
	MinPriceEdge float64
	// MinBufferPct / MaxBufferPct: rango de |buffer| operable — excluye
	// mercados demasiado pegados al threshold y demasiado lejos de él.
	MinBufferPct float64
	MaxBufferPct float64
	// MinTimeRemaining / MaxTimeRemaining: ventana de entrada en segundos.
	MinTimeRemaining int
	MaxTimeRemaining int
	// FeeRate: fee del mercado sobre el coste de entrada.
	FeeRate float64
	// PositionSize: shares por trade.
	PositionSize int
}

// DefaultConfig devuelve los umbrales de referencia de la estrategia.
func DefaultConfig() Config {
	return Config{
		MinVolEdgePct:    0.15,
		MinPriceEdge:     0.03,
		MinBufferPct:     0.001,
		MaxBufferPct:     0.02,
		MinTimeRemaining: 120,
		MaxTimeRemaining: 600,
		FeeRate:          0.02,
		PositionSize:     100,
	}
}

// volWindow es un buffer circular acotado de observaciones de vol histórica.
type volWindow struct {
	vals  [volWindowCap]float64
	start int
	n     int
}

func (w *volWindow) push(v float64) {
	if w.n < volWindowCap {
		w.vals[(w.start+w.n)%volWindowCap] = v
		w.n++
		return
	}
	w.vals[w.start] = v
	w.start = (w.start + 1) % volWindowCap
}

// weightedMean pondera linealmente: la observación más reciente pesa más.
func (w *volWindow) weightedMean() float64 {
	if w.n == 0 {
		return defaultVolEstimate
	}
	var sum, weightSum float64
	for i := 0; i < w.n; i++ {
		weight := float64(i + 1)
		sum += w.vals[(w.start+i)%volWindowCap] * weight
		weightSum += weight
	}
	return sum / weightSum
}

// VolArb es la estrategia con su estado propio: una ventana de vol por
// símbolo. El estado pertenece al valor, no es global — varios backtests
// (p.ej. un parameter sweep) pueden correr independientes en el mismo proceso.
type VolArb struct {
	cfg     Config
	windows map[string]*volWindow
}

// New crea una estrategia con el estado de volatilidad vacío.
func New(cfg Config) *VolArb {
	return &VolArb{
		cfg:     cfg,
		windows: make(map[string]*volWindow),
	}
}

// ObserveVolatility registra una observación de vol histórica para el símbolo.
// Se llama una vez por mercado, antes de evaluar sus snapshots, resulte o no
// en trade — así el estimador se mantiene caliente.
func (v *VolArb) ObserveVolatility(symbol string, vol float64) {
	w, ok := v.windows[symbol]
	if !ok {
		w = &volWindow{}
		v.windows[symbol] = w
	}
	w.push(vol)
}

// VolatilityEstimate devuelve la estimación actual para el símbolo: media
// ponderada linealmente de la ventana, con la más reciente pesando más.
func (v *VolArb) VolatilityEstimate(symbol string) float64 {
	w, ok := v.windows[symbol]
	if !ok {
		return defaultVolEstimate
	}
	return w.weightedMean()
}

// Analyze evalúa un snapshot y devuelve una señal si supera todos los filtros.
// Es un pipeline secuencial: el primer predicado que falla aborta.
func (v *VolArb) Analyze(market *domain.SimulatedMarket, snap domain.Snapshot) (domain.Signal, bool) {
	timeRemaining := snap.TimeRemainingSecs
	if timeRemaining < v.cfg.MinTimeRemaining || timeRemaining > v.cfg.MaxTimeRemaining {
		return domain.Signal{}, false
	}

	buffer := math.Abs(snap.BufferPct)
	if buffer < v.cfg.MinBufferPct || buffer > v.cfg.MaxBufferPct {
		return domain.Signal{}, false
	}

	ourVol := v.VolatilityEstimate(market.Symbol)
	impliedVol := snap.ImpliedVol

	volEdge := 0.0
	if impliedVol > 0 {
		volEdge = math.Abs(ourVol-impliedVol) / impliedVol
	}
	if volEdge < v.cfg.MinVolEdgePct {
		return domain.Signal{}, false
	}

	// El fair value se recalcula con NUESTRA vol, no la implícita del mercado.
	fairValue := domain.FairYesPrice(snap.BufferPct, ourVol, snap.TimeFraction())

	var direction domain.Direction
	var entryPrice, priceEdge float64
	if ourVol < impliedVol {
		// El mercado sobreestima la vol → YES está barato → compramos YES al ask.
		direction = domain.DirectionYes
		entryPrice = snap.YesAsk
		priceEdge = fairValue - entryPrice
	} else {
		// El mercado subestima la vol → NO está barato → compramos NO.
		direction = domain.DirectionNo
		entryPrice = 1 - snap.YesBid
		priceEdge = (1 - fairValue) - entryPrice
	}

	netEdge := priceEdge - v.cfg.FeeRate
	if netEdge < v.cfg.MinPriceEdge {
		return domain.Signal{}, false
	}

	// La confianza solo rankea snapshots del mismo mercado; no es un filtro.
	confidence := math.Min(1.0, volEdge*2) * math.Min(1.0, netEdge*10)

	elapsed := time.Duration(domain.WindowSecs-timeRemaining) * time.Second
	return domain.Signal{
		Timestamp:         market.StartTime.Add(elapsed),
		MarketID:          market.MarketID,
		Symbol:            market.Symbol,
		Direction:         direction,
		EntryPrice:        entryPrice,
		FairValue:         fairValue,
		PriceEdge:         priceEdge,
		VolEdgePct:        volEdge,
		Confidence:        confidence,
		BufferPct:         snap.BufferPct,
		OurVolatility:     ourVol,
		ImpliedVolatility: impliedVol,
		TimeRemainingSecs: timeRemaining,
		Shares:            v.cfg.PositionSize,
	}, true
}

// FeeRate expone el fee configurado; el engine lo necesita para resolver trades.
func (v *VolArb) FeeRate() float64 {
	return v.cfg.FeeRate
}
