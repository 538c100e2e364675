package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/volarb/internal/domain"
)

func winningResults() *domain.BacktestResults {
	r := &domain.BacktestResults{
		RunID:        "run-console-1",
		Seed:         42,
		TotalMarkets: 8,
		TotalSignals: 3,
	}
	base := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	entries := []struct {
		symbol string
		won    bool
		pnl    float64
	}{
		{"BTCUSDT", true, 40},
		{"BTCUSDT", true, 35},
		{"ETHUSDT", false, -55},
	}
	for i, e := range entries {
		r.Trades = append(r.Trades, domain.Trade{
			Signal: domain.Signal{
				Timestamp:  base.Add(time.Duration(i) * 15 * time.Minute),
				Symbol:     e.symbol,
				Direction:  domain.DirectionYes,
				EntryPrice: 0.55,
				Shares:     100,
			},
			Won:    e.won,
			PnL:    e.pnl,
			PnLPct: e.pnl / 55,
		})
	}
	r.Finalize(1000)
	return r
}

func TestNotify_Sections(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, 20)

	require.NoError(t, c.Notify(context.Background(), winningResults()))
	out := buf.String()

	assert.Contains(t, out, "run-console-1")
	assert.Contains(t, out, "seed 42")
	assert.Contains(t, out, "--- SUMMARY ---")
	assert.Contains(t, out, "Total markets:     8")
	assert.Contains(t, out, "Trades executed:   3")
	assert.Contains(t, out, "--- PERFORMANCE ---")
	assert.Contains(t, out, "--- SIGNAL QUALITY ---")
	assert.Contains(t, out, "--- BY SYMBOL ---")
	assert.Contains(t, out, "BTCUSDT")
	assert.Contains(t, out, "--- TRADES")
	assert.Contains(t, out, "--- VERDICT ---")
}

func TestNotify_ZeroTrades(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, 20)

	r := &domain.BacktestResults{RunID: "run-empty", TotalMarkets: 8}
	r.Finalize(1000)

	require.NoError(t, c.Notify(context.Background(), r))
	out := buf.String()

	assert.Contains(t, out, "No qualifying signals")
	assert.NotContains(t, out, "--- TRADES")
	assert.NotContains(t, out, "--- BY SYMBOL ---")
}

func TestNotify_MaxTradesLimit(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, 2)

	require.NoError(t, c.Notify(context.Background(), winningResults()))
	assert.Contains(t, buf.String(), "TRADES (first 2 of 3)")
}

func TestNotify_TradesTableDisabled(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, 0)

	require.NoError(t, c.Notify(context.Background(), winningResults()))
	assert.NotContains(t, buf.String(), "--- TRADES")
}

func TestNotify_InfiniteProfitFactor(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, 0)

	// Sin perdedores el profit factor es +Inf y se imprime "INF".
	r := &domain.BacktestResults{
		RunID:        "run-inf",
		TotalMarkets: 2,
		TotalSignals: 2,
		Trades:       winningResults().Trades[:2],
	}
	r.Finalize(1000)

	require.NoError(t, c.Notify(context.Background(), r))
	assert.Contains(t, buf.String(), "Profit factor:     INF")
}
