package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupBySymbol(t *testing.T) {
	candles := []Candle{
		{Symbol: "ETHUSDT", Timestamp: 200},
		{Symbol: "BTCUSDT", Timestamp: 300},
		{Symbol: "ETHUSDT", Timestamp: 100},
		{Symbol: "BTCUSDT", Timestamp: 100},
	}

	groups, symbols := GroupBySymbol(candles)

	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, symbols)

	require.Len(t, groups["ETHUSDT"], 2)
	assert.Equal(t, int64(100), groups["ETHUSDT"][0].Timestamp)
	assert.Equal(t, int64(200), groups["ETHUSDT"][1].Timestamp)

	require.Len(t, groups["BTCUSDT"], 2)
	assert.Equal(t, int64(100), groups["BTCUSDT"][0].Timestamp)
}

func TestGroupBySymbol_Empty(t *testing.T) {
	groups, symbols := GroupBySymbol(nil)
	assert.Empty(t, groups)
	assert.Empty(t, symbols)
}

func TestSnapshotTimeFraction(t *testing.T) {
	assert.Equal(t, 1.0, Snapshot{TimeRemainingSecs: 900}.TimeFraction())
	assert.InDelta(t, 1.0/3, Snapshot{TimeRemainingSecs: 300}.TimeFraction(), 1e-9)
	assert.Zero(t, Snapshot{}.TimeFraction())
}
