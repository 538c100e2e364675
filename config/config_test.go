package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 0.85, cfg.Simulator.MarketMakerEfficiency)
	assert.Equal(t, 0.03, cfg.Simulator.NoiseStd)
	assert.Equal(t, 0.15, cfg.Strategy.MinVolEdgePct)
	assert.Equal(t, 0.03, cfg.Strategy.MinPriceEdge)
	assert.Equal(t, 0.001, cfg.Strategy.MinBufferPct)
	assert.Equal(t, 0.02, cfg.Strategy.MaxBufferPct)
	assert.Equal(t, 120, cfg.Strategy.MinTimeRemaining)
	assert.Equal(t, 600, cfg.Strategy.MaxTimeRemaining)
	assert.Equal(t, 0.02, cfg.Strategy.PMFeeRate)
	assert.Equal(t, 100, cfg.Strategy.PositionSize)
	assert.Equal(t, 1000.0, cfg.Backtest.InitialCapital)
	assert.Equal(t, "https://api.binance.com", cfg.Binance.BaseURL)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "XRPUSDT"}, cfg.Binance.Symbols)
	assert.Equal(t, "15m", cfg.Binance.Interval)
	assert.Equal(t, 7, cfg.Binance.Days)
	assert.Equal(t, "volarb.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
simulator:
  market_maker_efficiency: 0.70
  seed: 42
strategy:
  min_vol_edge_pct: 0.25
binance:
  symbols: [BTCUSDT]
  days: 30
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.70, cfg.Simulator.MarketMakerEfficiency)
	assert.Equal(t, int64(42), cfg.Simulator.Seed)
	assert.Equal(t, 0.25, cfg.Strategy.MinVolEdgePct)
	assert.Equal(t, []string{"BTCUSDT"}, cfg.Binance.Symbols)
	assert.Equal(t, 30, cfg.Binance.Days)

	// Lo no especificado cae a los defaults.
	assert.Equal(t, 0.03, cfg.Simulator.NoiseStd)
	assert.Equal(t, 0.03, cfg.Strategy.MinPriceEdge)
	assert.Equal(t, 1000.0, cfg.Backtest.InitialCapital)
}

func TestLoad_NegativeMinPriceEdgePreserved(t *testing.T) {
	// Un min_price_edge negativo desactiva el filtro de edge; el default solo
	// aplica cuando el campo no aparece en el YAML.
	path := writeConfig(t, `
strategy:
  min_price_edge: -1
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, -1.0, cfg.Strategy.MinPriceEdge)
}

func TestLoad_ExplicitZeroThresholdsPreserved(t *testing.T) {
	// Cero explícito ≠ campo ausente: min_vol_edge_pct: 0 y min_price_edge: 0
	// desactivan esos filtros y no deben caer a 0.15/0.03.
	path := writeConfig(t, `
strategy:
  min_vol_edge_pct: 0
  min_price_edge: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.Strategy.MinVolEdgePct)
	assert.Zero(t, cfg.Strategy.MinPriceEdge)

	// El resto del bloque sí conserva sus defaults.
	assert.Equal(t, 0.001, cfg.Strategy.MinBufferPct)
	assert.Equal(t, 120, cfg.Strategy.MinTimeRemaining)
	assert.Equal(t, 0.02, cfg.Strategy.PMFeeRate)
	assert.Equal(t, 100, cfg.Strategy.PositionSize)
}

func TestLoad_StrategyBlockAbsent(t *testing.T) {
	path := writeConfig(t, `
simulator:
  seed: 7
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.15, cfg.Strategy.MinVolEdgePct)
	assert.Equal(t, 0.03, cfg.Strategy.MinPriceEdge)
	assert.Equal(t, 600, cfg.Strategy.MaxTimeRemaining)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "strategy: [not a map")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	path := writeConfig(t, `
log:
  level: warn
  format: text
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}
