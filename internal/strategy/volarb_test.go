package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/volarb/internal/domain"
)

func testMarket() *domain.SimulatedMarket {
	start := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	return &domain.SimulatedMarket{
		MarketID:       "BTCUSDT_1705320000",
		Symbol:         "BTCUSDT",
		Threshold:      43000,
		StartTime:      start,
		ResolutionTime: start.Add(domain.MarketWindow),
		Outcome:        true,
	}
}

// Snapshot base que pasa todos los filtros con la config por defecto y la
// estimación de vol por defecto (0.003): la vol implícita del mercado es el
// doble, así que YES está infravalorado.
func passingSnapshot() domain.Snapshot {
	return domain.Snapshot{
		TimeRemainingSecs: 300,
		BufferPct:         0.005,
		YesBid:            0.56,
		YesAsk:            0.60,
		ImpliedVol:        0.006,
		HistVol:           0.003,
	}
}

func TestVolatilityEstimate_DefaultWithoutObservations(t *testing.T) {
	v := New(DefaultConfig())
	assert.Equal(t, 0.003, v.VolatilityEstimate("BTCUSDT"))
}

func TestVolatilityEstimate_WeightedMean(t *testing.T) {
	v := New(DefaultConfig())
	v.ObserveVolatility("BTCUSDT", 0.002)
	v.ObserveVolatility("BTCUSDT", 0.004)

	// Pesos 1 y 2: (0.002 + 0.008) / 3.
	assert.InDelta(t, 0.0033333, v.VolatilityEstimate("BTCUSDT"), 1e-6)

	// Otros símbolos no se ven afectados.
	assert.Equal(t, 0.003, v.VolatilityEstimate("ETHUSDT"))
}

func TestVolatilityEstimate_WindowEvictsOldest(t *testing.T) {
	v := New(DefaultConfig())
	for i := 1; i <= 25; i++ {
		v.ObserveVolatility("BTCUSDT", float64(i))
	}

	// Quedan las observaciones 6..25; media ponderada = 3920/210.
	assert.InDelta(t, 18.6666667, v.VolatilityEstimate("BTCUSDT"), 1e-6)
}

func TestAnalyze_YesSignal(t *testing.T) {
	v := New(DefaultConfig())
	market := testMarket()
	snap := passingSnapshot()

	sig, ok := v.Analyze(market, snap)
	require.True(t, ok)

	assert.Equal(t, domain.DirectionYes, sig.Direction)
	assert.Equal(t, snap.YesAsk, sig.EntryPrice)
	assert.Equal(t, market.MarketID, sig.MarketID)
	assert.Equal(t, 100, sig.Shares)
	assert.Equal(t, 300, sig.TimeRemainingSecs)
	// 600s transcurridos desde la apertura de la ventana.
	assert.Equal(t, market.StartTime.Add(600*time.Second), sig.Timestamp)

	// ourVol=0.003, implied=0.006 → volEdge = 0.5.
	assert.InDelta(t, 0.5, sig.VolEdgePct, 1e-9)
	// Fair con nuestra vol ≈ 0.998, muy por encima del ask.
	assert.Greater(t, sig.FairValue, 0.95)
	assert.InDelta(t, sig.FairValue-snap.YesAsk, sig.PriceEdge, 1e-9)
	// Ambos factores saturan: min(1, 0.5·2)·min(1, netEdge·10) = 1.
	assert.InDelta(t, 1.0, sig.Confidence, 1e-9)
}

func TestAnalyze_NoSignal(t *testing.T) {
	v := New(DefaultConfig())
	market := testMarket()
	snap := domain.Snapshot{
		TimeRemainingSecs: 300,
		BufferPct:         -0.005,
		YesBid:            0.40,
		YesAsk:            0.44,
		ImpliedVol:        0.001, // el mercado subestima la vol
		HistVol:           0.003,
	}

	sig, ok := v.Analyze(market, snap)
	require.True(t, ok)

	assert.Equal(t, domain.DirectionNo, sig.Direction)
	assert.InDelta(t, 1-snap.YesBid, sig.EntryPrice, 1e-9)
	// Fair YES ≈ 0.002 → el lado NO vale casi 1.
	assert.Less(t, sig.FairValue, 0.05)
	assert.InDelta(t, (1-sig.FairValue)-sig.EntryPrice, sig.PriceEdge, 1e-9)
}

func TestAnalyze_RejectsOutOfTimeWindow(t *testing.T) {
	v := New(DefaultConfig())
	market := testMarket()

	early := passingSnapshot()
	early.TimeRemainingSecs = 700 // demasiado pronto
	_, ok := v.Analyze(market, early)
	assert.False(t, ok)

	late := passingSnapshot()
	late.TimeRemainingSecs = 60 // demasiado tarde
	_, ok = v.Analyze(market, late)
	assert.False(t, ok)
}

func TestAnalyze_RejectsBufferOutOfRange(t *testing.T) {
	v := New(DefaultConfig())
	market := testMarket()

	tight := passingSnapshot()
	tight.BufferPct = 0.0005 // pegado al threshold
	_, ok := v.Analyze(market, tight)
	assert.False(t, ok)

	far := passingSnapshot()
	far.BufferPct = 0.05 // demasiado lejos del dinero
	_, ok = v.Analyze(market, far)
	assert.False(t, ok)

	// El rango aplica sobre el valor absoluto.
	negFar := passingSnapshot()
	negFar.BufferPct = -0.05
	_, ok = v.Analyze(market, negFar)
	assert.False(t, ok)
}

func TestAnalyze_RejectsInsufficientVolEdge(t *testing.T) {
	v := New(DefaultConfig())
	market := testMarket()

	snap := passingSnapshot()
	snap.ImpliedVol = 0.003 // coincide con nuestra estimación → edge cero
	_, ok := v.Analyze(market, snap)
	assert.False(t, ok)

	snap.ImpliedVol = 0 // no invertible → edge cero, nunca división por cero
	_, ok = v.Analyze(market, snap)
	assert.False(t, ok)
}

func TestAnalyze_RejectsInsufficientNetEdge(t *testing.T) {
	v := New(DefaultConfig())
	market := testMarket()

	snap := passingSnapshot()
	snap.YesAsk = 0.99 // el ask se come todo el edge
	_, ok := v.Analyze(market, snap)
	assert.False(t, ok)
}

func TestAnalyze_UsesPerSymbolEstimate(t *testing.T) {
	v := New(DefaultConfig())
	market := testMarket()

	// Acercamos nuestra estimación a la implícita: el vol edge cae bajo el umbral.
	for i := 0; i < 5; i++ {
		v.ObserveVolatility("BTCUSDT", 0.006)
	}
	_, ok := v.Analyze(market, passingSnapshot())
	assert.False(t, ok)
}

func TestFeeRate(t *testing.T) {
	v := New(DefaultConfig())
	assert.Equal(t, 0.02, v.FeeRate())
}
