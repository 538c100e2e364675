package domain

import "sort"

// Candle es una vela OHLC de 15 minutos producida por el collector.
// Es input de solo lectura: el simulador nunca la modifica.
type Candle struct {
	Timestamp int64  // unix seconds (inicio de la vela)
	Datetime  string // "2006-01-02 15:04:05" UTC, informativo
	Symbol    string // p.ej. "BTCUSDT"
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Trades    int
}

// GroupBySymbol agrupa las velas por símbolo y ordena cada grupo por timestamp
// ascendente. Devuelve además los símbolos en orden alfabético para que el
// orden de generación de mercados sea determinista.
func GroupBySymbol(candles []Candle) (map[string][]Candle, []string) {
	groups := make(map[string][]Candle)
	for _, c := range candles {
		groups[c.Symbol] = append(groups[c.Symbol], c)
	}

	symbols := make([]string, 0, len(groups))
	for sym := range groups {
		symbols = append(symbols, sym)
		sort.Slice(groups[sym], func(i, j int) bool {
			return groups[sym][i].Timestamp < groups[sym][j].Timestamp
		})
	}
	sort.Strings(symbols)
	return groups, symbols
}
