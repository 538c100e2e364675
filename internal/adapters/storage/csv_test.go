package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandlesCSV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "klines.csv")
	candles := testCandles()

	require.NoError(t, WriteCandlesCSV(path, candles))

	got, err := LoadCandlesCSV(path)
	require.NoError(t, err)
	assert.Equal(t, candles, got)
}

func TestLoadCandlesCSV_MissingFile(t *testing.T) {
	_, err := LoadCandlesCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestLoadCandlesCSV_MalformedRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	data := "timestamp,datetime,symbol,open,high,low,close,volume,trades\n" +
		"notanumber,2024-01-15 12:00:00,BTCUSDT,43100,43300,43050,43250,120.5,987\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, err := LoadCandlesCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestLoadCandlesCSV_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, WriteCandlesCSV(path, nil))

	got, err := LoadCandlesCSV(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}
