package domain

import "time"

// Direction es el lado del mercado que compra una señal.
type Direction string

const (
	DirectionYes Direction = "YES"
	DirectionNo  Direction = "NO"
)

// Signal es una propuesta de trade derivada de un snapshot. Es efímera:
// o se descarta o se promociona al único Trade del mercado.
type Signal struct {
	Timestamp         time.Time
	MarketID          string
	Symbol            string
	Direction         Direction
	EntryPrice        float64
	FairValue         float64 // recalculado con nuestra vol, no la implícita
	PriceEdge         float64 // fair value - entry (bruto, sin fees)
	VolEdgePct        float64 // |nuestra vol - implícita| / implícita
	Confidence        float64 // solo para rankear snapshots del mismo mercado
	BufferPct         float64
	OurVolatility     float64
	ImpliedVolatility float64
	TimeRemainingSecs int
	Shares            int
}

// Trade es el resultado ejecutado de la mejor señal de un mercado.
type Trade struct {
	Signal    Signal
	ExitPrice float64 // 1.0 si ganó, 0.0 si perdió
	Won       bool
	PnL       float64
	PnLPct    float64
}

// ResolveTrade ejecuta una señal contra el outcome real del mercado.
// Las opciones binarias liquidan a 1.0 o 0.0; los fees se cobran sobre el
// coste de entrada.
func ResolveTrade(sig Signal, outcome bool, feeRate float64) Trade {
	won := (sig.Direction == DirectionYes) == outcome
	exitPrice := 0.0
	if won {
		exitPrice = 1.0
	}

	shares := float64(sig.Shares)
	cost := sig.EntryPrice * shares
	revenue := exitPrice * shares
	fees := cost * feeRate
	pnl := revenue - cost - fees

	pnlPct := 0.0
	if cost > 0 {
		pnlPct = pnl / cost
	}

	return Trade{
		Signal:    sig,
		ExitPrice: exitPrice,
		Won:       won,
		PnL:       pnl,
		PnLPct:    pnlPct,
	}
}
