package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alejandrodnm/volarb/config"
	"github.com/alejandrodnm/volarb/internal/adapters/binance"
	"github.com/alejandrodnm/volarb/internal/adapters/storage"
	"github.com/alejandrodnm/volarb/internal/domain"
	"github.com/alejandrodnm/volarb/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	days := flag.Int("days", 0, "days of history to collect (overrides config)")
	symbols := flag.String("symbols", "", "comma-separated symbols (overrides config)")
	output := flag.String("output", "data/klines.csv", "output CSV path")
	noStore := flag.Bool("no-store", false, "skip the SQLite candle cache")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	setupLogger(cfg.Log)

	if *days > 0 {
		cfg.Binance.Days = *days
	}
	if *symbols != "" {
		cfg.Binance.Symbols = strings.Split(*symbols, ",")
	}

	slog.Info("collector starting",
		"symbols", cfg.Binance.Symbols,
		"interval", cfg.Binance.Interval,
		"days", cfg.Binance.Days,
		"output", *output,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var provider ports.CandleProvider = binance.NewClient(cfg.Binance.BaseURL, cfg.Binance.Interval)

	var all []domain.Candle
	for _, symbol := range cfg.Binance.Symbols {
		symbol = strings.TrimSpace(symbol)
		slog.Info("fetching klines", "symbol", symbol)

		candles, err := provider.CollectHistorical(ctx, symbol, cfg.Binance.Days)
		if err != nil {
			slog.Error("fetch failed", "symbol", symbol, "err", err)
			os.Exit(1)
		}
		slog.Info("klines fetched", "symbol", symbol, "count", len(candles))
		all = append(all, candles...)
	}

	if err := os.MkdirAll(filepath.Dir(*output), 0o755); err != nil {
		slog.Error("failed to create output dir", "err", err)
		os.Exit(1)
	}
	if err := storage.WriteCandlesCSV(*output, all); err != nil {
		slog.Error("failed to write CSV", "err", err, "path", *output)
		os.Exit(1)
	}
	slog.Info("CSV written", "path", *output, "candles", len(all))

	if !*noStore {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer store.Close()

		if err := store.SaveCandles(ctx, all); err != nil {
			slog.Error("failed to cache candles", "err", err)
			os.Exit(1)
		}
		slog.Info("candles cached", "dsn", cfg.Storage.DSN)
	}

	slog.Info("collector done")
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
