package storage

// csv.go — carga y escritura de velas en el formato CSV del collector:
// timestamp,datetime,symbol,open,high,low,close,volume,trades

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/alejandrodnm/volarb/internal/domain"
)

var csvHeader = []string{"timestamp", "datetime", "symbol", "open", "high", "low", "close", "volume", "trades"}

// LoadCandlesCSV lee un archivo CSV de velas. La primera fila debe ser el header.
func LoadCandlesCSV(path string) ([]domain.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadCandlesCSV: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage.LoadCandlesCSV: read %q: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	candles := make([]domain.Candle, 0, len(rows)-1)
	for i, row := range rows[1:] { // saltar header
		c, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("storage.LoadCandlesCSV: row %d: %w", i+2, err)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// WriteCandlesCSV escribe las velas en el formato del collector.
func WriteCandlesCSV(path string, candles []domain.Candle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage.WriteCandlesCSV: create %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("storage.WriteCandlesCSV: header: %w", err)
	}

	for _, c := range candles {
		row := []string{
			strconv.FormatInt(c.Timestamp, 10),
			c.Datetime,
			c.Symbol,
			formatFloat(c.Open),
			formatFloat(c.High),
			formatFloat(c.Low),
			formatFloat(c.Close),
			formatFloat(c.Volume),
			strconv.Itoa(c.Trades),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("storage.WriteCandlesCSV: row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("storage.WriteCandlesCSV: flush: %w", err)
	}
	return nil
}

func parseRow(row []string) (domain.Candle, error) {
	if len(row) < 9 {
		return domain.Candle{}, fmt.Errorf("got %d columns, want 9", len(row))
	}

	ts, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("timestamp %q: %w", row[0], err)
	}
	trades, err := strconv.Atoi(row[8])
	if err != nil {
		return domain.Candle{}, fmt.Errorf("trades %q: %w", row[8], err)
	}

	floats := make([]float64, 5)
	for i, col := range []int{3, 4, 5, 6, 7} {
		v, err := strconv.ParseFloat(row[col], 64)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("column %d %q: %w", col, row[col], err)
		}
		floats[i] = v
	}

	return domain.Candle{
		Timestamp: ts,
		Datetime:  row[1],
		Symbol:    row[2],
		Open:      floats[0],
		High:      floats[1],
		Low:       floats[2],
		Close:     floats[3],
		Volume:    floats[4],
		Trades:    trades,
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
