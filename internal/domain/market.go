package domain

import "time"

// MarketWindow es la duración de cada mercado simulado: una vela de 15m.
const MarketWindow = 15 * time.Minute

// WindowSecs es MarketWindow en segundos, la escala temporal de los snapshots.
const WindowSecs = 900

// SimulatedMarket es un mercado binario sintético que cubre la ventana de una
// vela. El outcome queda fijado en la creación (el close de la vela ya es
// conocido) y se usa únicamente como ground truth en la resolución.
type SimulatedMarket struct {
	MarketID       string // symbol + "_" + timestamp
	Symbol         string
	Threshold      float64 // strike: "¿cierra el spot por encima de esto?"
	StartTime      time.Time
	ResolutionTime time.Time
	Outcome        bool // true = YES gana (close > threshold)
	Snapshots      []Snapshot
}

// Snapshot es una cotización simulada en un instante de la ventana.
// TimeRemainingSecs decrece estrictamente dentro de un mercado.
type Snapshot struct {
	TimeRemainingSecs int
	SpotPrice         float64
	BufferPct         float64 // (spot - threshold) / threshold
	FairValue         float64 // nuestro precio justo con la vol histórica
	YesPrice          float64 // mid del market maker simulado
	YesBid            float64
	YesAsk            float64
	ImpliedVol        float64 // vol que justifica YesPrice (o la histórica si no invertible)
	HistVol           float64
}

// TimeFraction devuelve la fracción de ventana restante en [0,1].
func (s Snapshot) TimeFraction() float64 {
	return float64(s.TimeRemainingSecs) / WindowSecs
}
