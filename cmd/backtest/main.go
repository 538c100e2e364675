package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/volarb/config"
	"github.com/alejandrodnm/volarb/internal/adapters/notify"
	"github.com/alejandrodnm/volarb/internal/adapters/report"
	"github.com/alejandrodnm/volarb/internal/adapters/storage"
	"github.com/alejandrodnm/volarb/internal/domain"
	"github.com/alejandrodnm/volarb/internal/engine"
	"github.com/alejandrodnm/volarb/internal/ports"
	"github.com/alejandrodnm/volarb/internal/simulator"
	"github.com/alejandrodnm/volarb/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	klines := flag.String("klines", "", "path to kline CSV (empty = load from SQLite store)")
	output := flag.String("output", "results", "output directory for JSON reports")
	seed := flag.Int64("seed", 0, "simulator seed (0 = from config, or clock if unset)")
	efficiency := flag.Float64("efficiency", 0, "market maker efficiency override (0-1)")
	minVolEdge := flag.Float64("min-vol-edge", 0, "minimum volatility edge override")
	minPriceEdge := flag.Float64("min-price-edge", 0, "minimum price edge after fees override")
	positionSize := flag.Int("position-size", 0, "position size in shares override")
	showTrades := flag.Int("trades", 20, "number of trades to print (0 = none)")
	noStore := flag.Bool("no-store", false, "skip persisting the run to SQLite")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	if *seed != 0 {
		cfg.Simulator.Seed = *seed
	}
	if *efficiency > 0 {
		cfg.Simulator.MarketMakerEfficiency = *efficiency
	}
	if *minVolEdge != 0 {
		cfg.Strategy.MinVolEdgePct = *minVolEdge
	}
	if *minPriceEdge != 0 {
		cfg.Strategy.MinPriceEdge = *minPriceEdge
	}
	if *positionSize > 0 {
		cfg.Strategy.PositionSize = *positionSize
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// El store SQLite hace falta para leer velas (sin -klines) y para
	// persistir el run (sin -no-store).
	var store *storage.SQLiteStorage
	if *klines == "" || !*noStore {
		store, err = storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer store.Close()
	}

	candles, err := loadCandles(ctx, store, cfg.Binance.Symbols, *klines)
	if err != nil {
		slog.Error("failed to load candles", "err", err)
		os.Exit(1)
	}
	if len(candles) == 0 {
		slog.Error("no candles loaded — run the collector first or pass -klines")
		os.Exit(1)
	}
	slog.Info("candles loaded", "count", len(candles))

	sim := simulator.New(simulator.Config{
		MarketMakerEfficiency: cfg.Simulator.MarketMakerEfficiency,
		NoiseStd:              cfg.Simulator.NoiseStd,
	}, cfg.Simulator.Seed)

	markets := sim.GenerateMarkets(candles)
	slog.Info("markets generated", "count", len(markets), "seed", sim.Seed())

	strat := strategy.New(strategy.Config{
		MinVolEdgePct:    cfg.Strategy.MinVolEdgePct,
		MinPriceEdge:     cfg.Strategy.MinPriceEdge,
		MinBufferPct:     cfg.Strategy.MinBufferPct,
		MaxBufferPct:     cfg.Strategy.MaxBufferPct,
		MinTimeRemaining: cfg.Strategy.MinTimeRemaining,
		MaxTimeRemaining: cfg.Strategy.MaxTimeRemaining,
		FeeRate:          cfg.Strategy.PMFeeRate,
		PositionSize:     cfg.Strategy.PositionSize,
	})

	var runs ports.RunStore
	if !*noStore {
		runs = store
	}
	notifier := notify.NewConsole(*showTrades)

	eng := engine.New(engine.Config{
		InitialCapital: cfg.Backtest.InitialCapital,
		Seed:           sim.Seed(),
	}, strat, runs, notifier)

	results, err := eng.Run(ctx, markets)
	if err != nil {
		slog.Error("backtest failed", "err", err)
		os.Exit(1)
	}

	if err := report.Write(*output, results); err != nil {
		slog.Error("failed to write reports", "err", err, "dir", *output)
		os.Exit(1)
	}
	slog.Info("reports written", "dir", *output)
}

// loadCandles lee velas del CSV si se pasó -klines, o del store si no.
func loadCandles(ctx context.Context, store ports.CandleStore, symbols []string, klinesPath string) ([]domain.Candle, error) {
	if klinesPath != "" {
		return storage.LoadCandlesCSV(klinesPath)
	}
	return store.LoadCandles(ctx, symbols, time.Time{}, time.Time{})
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
