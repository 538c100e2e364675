// Package simulator convierte series de velas OHLC en mercados binarios
// sintéticos de 15 minutos, con un path intra-ventana de cotizaciones.
//
// La forma es determinista (un mercado por vela, 30 snapshots cada 30s);
// el contenido es estocástico pero reproducible: todo el ruido sale de un
// *rand.Rand sembrado explícitamente, nunca del generador global.
package simulator

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/alejandrodnm/volarb/internal/domain"
)

const (
	// Snapshots por mercado: uno cada 30 segundos simulados.
	snapshotsPerMarket = 30
	// Velas hacia atrás (incluida la actual) para la vol histórica.
	volLookback = 12
	// Suelo de la desviación estándar de los log-returns.
	histVolFloor = 0.0005
	// Vol por defecto cuando no hay suficiente historia.
	defaultHistVol = 0.003
	// Probabilidad de desplazar el threshold fuera del redondeo exacto.
	offsetProbability = 0.3
)

// Config controla cuánto se puede explotar el market maker simulado.
type Config struct {
	// MarketMakerEfficiency en [0,1]: 1 = mercado perfectamente valorado,
	// menos = más mispricing explotable.
	MarketMakerEfficiency float64
	// NoiseStd es la desviación del ruido gaussiano sobre la cotización.
	NoiseStd float64
}

// DefaultConfig devuelve los parámetros de simulación de referencia.
func DefaultConfig() Config {
	return Config{
		MarketMakerEfficiency: 0.85,
		NoiseStd:              0.03,
	}
}

// Simulator genera mercados sintéticos a partir de velas.
type Simulator struct {
	cfg  Config
	rng  *rand.Rand
	seed int64
}

// New crea un Simulator sembrado. seed=0 usa el reloj, para runs exploratorios;
// cualquier otro valor hace el run byte a byte reproducible.
func New(cfg Config, seed int64) *Simulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed devuelve la semilla efectiva del run, para anotarla en el reporte.
func (s *Simulator) Seed() int64 {
	return s.seed
}

// GenerateMarkets produce exactamente un SimulatedMarket por vela de entrada.
// Las velas se agrupan por símbolo y se ordenan cronológicamente; los símbolos
// se procesan en orden alfabético para que el orden de generación — del que
// dependen la curva de equity y el estimador de vol — sea determinista.
func (s *Simulator) GenerateMarkets(candles []domain.Candle) []domain.SimulatedMarket {
	groups, symbols := domain.GroupBySymbol(candles)

	markets := make([]domain.SimulatedMarket, 0, len(candles))
	for _, symbol := range symbols {
		group := groups[symbol]
		for i, candle := range group {
			start := time.Unix(candle.Timestamp, 0).UTC()
			threshold := s.generateThreshold(candle)

			markets = append(markets, domain.SimulatedMarket{
				MarketID:       fmt.Sprintf("%s_%d", symbol, candle.Timestamp),
				Symbol:         symbol,
				Threshold:      threshold,
				StartTime:      start,
				ResolutionTime: start.Add(domain.MarketWindow),
				Outcome:        candle.Close > threshold,
				Snapshots:      s.generateSnapshots(candle, threshold, group[:i+1]),
			})
		}
	}
	return markets
}

// generateThreshold redondea el open a un "número redondo" según magnitud,
// emulando dónde colocan strikes los mercados reales. Con probabilidad 0.3
// desplaza el strike un paso en una dirección aleatoria para producir también
// mercados lejos del dinero.
func (s *Simulator) generateThreshold(candle domain.Candle) float64 {
	price := candle.Open

	var threshold float64
	switch {
	case price > 10000: // BTC: al millar
		threshold = math.Round(price/1000) * 1000
	case price > 1000: // ETH: a la centena
		threshold = math.Round(price/100) * 100
	case price > 100: // SOL: a la decena
		threshold = math.Round(price/10) * 10
	default: // XRP: al décimo
		threshold = math.Round(price*10) / 10
	}

	if s.rng.Float64() < offsetProbability {
		direction := 1.0
		if s.rng.Intn(2) == 0 {
			direction = -1.0
		}
		switch {
		case price > 10000:
			threshold += direction * 500
		case price > 1000:
			threshold += direction * 50
		case price > 100:
			threshold += direction * 5
		default:
			threshold += direction * 0.05
		}
	}

	return threshold
}

// generateSnapshots construye el path intra-ventana: spot interpolado con
// ruido, precio justo con la vol histórica, y la cotización de un market
// maker que usa una vol perturbada mezclada según la eficiencia configurada.
func (s *Simulator) generateSnapshots(candle domain.Candle, threshold float64, history []domain.Candle) []domain.Snapshot {
	histVol := histVolatility(history)

	snapshots := make([]domain.Snapshot, 0, snapshotsPerMarket)
	for i := 0; i < snapshotsPerMarket; i++ {
		t := float64(i) / snapshotsPerMarket
		timeRemaining := domain.WindowSecs * (1 - t)

		base := candle.Open + (candle.Close-candle.Open)*t
		noise := s.rng.NormFloat64() * math.Abs(candle.Close-candle.Open) * 0.1
		spot := base + noise

		buffer := (spot - threshold) / threshold
		timeFraction := timeRemaining / domain.WindowSecs
		fairValue := domain.FairYesPrice(buffer, histVol, timeFraction)

		// El MM valora con una vol ligeramente distinta: U(0.8, 1.2)·histVol.
		mmVol := histVol * (0.8 + s.rng.Float64()*0.4)
		mmFair := domain.FairYesPrice(buffer, mmVol, timeFraction)

		marketYes := mmFair*s.cfg.MarketMakerEfficiency + fairValue*(1-s.cfg.MarketMakerEfficiency)
		marketYes += s.rng.NormFloat64() * s.cfg.NoiseStd
		marketYes = math.Max(0.01, math.Min(0.99, marketYes))

		spread := 0.02 + s.rng.Float64()*0.02
		yesBid := math.Max(0.01, marketYes-spread/2)
		yesAsk := math.Min(0.99, marketYes+spread/2)

		impliedVol, ok := domain.ImpliedVolatility(marketYes, buffer, timeFraction)
		if !ok {
			impliedVol = histVol
		}

		snapshots = append(snapshots, domain.Snapshot{
			TimeRemainingSecs: int(timeRemaining),
			SpotPrice:         spot,
			BufferPct:         buffer,
			FairValue:         fairValue,
			YesPrice:          marketYes,
			YesBid:            yesBid,
			YesAsk:            yesAsk,
			ImpliedVol:        impliedVol,
			HistVol:           histVol,
		})
	}
	return snapshots
}

// histVolatility es la desviación estándar de los log-returns de las últimas
// volLookback velas, con suelo histVolFloor. Menos de dos velas utilizables
// devuelve la vol por defecto.
func histVolatility(candles []domain.Candle) float64 {
	if len(candles) < 2 {
		return defaultHistVol
	}

	recent := candles
	if len(recent) > volLookback {
		recent = recent[len(recent)-volLookback:]
	}

	var returns []float64
	for i := 1; i < len(recent); i++ {
		prev := recent[i-1].Close
		if prev > 0 {
			returns = append(returns, math.Log(recent[i].Close/prev))
		}
	}
	if len(returns) == 0 {
		return defaultHistVol
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))

	return math.Max(histVolFloor, math.Sqrt(variance))
}
