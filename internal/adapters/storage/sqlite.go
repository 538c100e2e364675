package storage

// sqlite.go — persistencia de velas y runs de backtest.
//
// Estrategia:
//   - `candles`: una fila por (symbol, timestamp), UPSERT idempotente. El
//     collector puede re-descargar rangos sin duplicar.
//   - `runs`: resumen de cada backtest (una fila, incluye la semilla).
//   - `run_trades`: los trades del run, para inspección posterior con SQL.
//   - Prune automático al arrancar: runs con más de 90 días.

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/volarb/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Velas OHLC descargadas por el collector
CREATE TABLE IF NOT EXISTS candles (
    symbol    TEXT    NOT NULL,
    timestamp INTEGER NOT NULL,
    datetime  TEXT    NOT NULL,
    open      REAL    NOT NULL,
    high      REAL    NOT NULL,
    low       REAL    NOT NULL,
    close     REAL    NOT NULL,
    volume    REAL    NOT NULL DEFAULT 0,
    trades    INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (symbol, timestamp)
);

-- Resumen de cada run de backtest
CREATE TABLE IF NOT EXISTS runs (
    id             TEXT PRIMARY KEY,
    created_at     DATETIME NOT NULL,
    seed           INTEGER  NOT NULL,
    total_markets  INTEGER  NOT NULL,
    total_signals  INTEGER  NOT NULL,
    total_trades   INTEGER  NOT NULL,
    winning_trades INTEGER  NOT NULL,
    win_rate       REAL     NOT NULL,
    total_pnl      REAL     NOT NULL,
    profit_factor  REAL     NOT NULL,
    max_drawdown   REAL     NOT NULL,
    sharpe_ratio   REAL     NOT NULL
);

-- Trades individuales de cada run
CREATE TABLE IF NOT EXISTS run_trades (
    run_id       TEXT    NOT NULL REFERENCES runs(id),
    ts           DATETIME NOT NULL,
    symbol       TEXT    NOT NULL,
    direction    TEXT    NOT NULL,
    entry_price  REAL    NOT NULL,
    exit_price   REAL    NOT NULL,
    fair_value   REAL    NOT NULL,
    price_edge   REAL    NOT NULL,
    vol_edge_pct REAL    NOT NULL,
    won          INTEGER NOT NULL,
    pnl          REAL    NOT NULL,
    pnl_pct      REAL    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_candles_ts     ON candles(timestamp);
CREATE INDEX IF NOT EXISTS idx_runs_created   ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_run_trades_run ON run_trades(run_id);
`

// retentionRuns limita cuánto histórico de runs guardamos.
const retentionRuns = 90 * 24 * time.Hour

// SQLiteStorage implementa ports.CandleStore y ports.RunStore usando SQLite
// (driver pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada,
// aplica el schema y limpia runs antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveCandles hace upsert de las velas. Idempotente: re-descargar un rango
// no produce duplicados.
func (s *SQLiteStorage) SaveCandles(ctx context.Context, candles []domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveCandles: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candles (symbol, timestamp, datetime, open, high, low, close, volume, trades)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, timestamp) DO UPDATE SET
			datetime = excluded.datetime,
			open     = excluded.open,
			high     = excluded.high,
			low      = excluded.low,
			close    = excluded.close,
			volume   = excluded.volume,
			trades   = excluded.trades
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveCandles: prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx,
			c.Symbol, c.Timestamp, c.Datetime,
			c.Open, c.High, c.Low, c.Close, c.Volume, c.Trades,
		); err != nil {
			return fmt.Errorf("storage.SaveCandles: upsert %s@%d: %w", c.Symbol, c.Timestamp, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveCandles: commit: %w", err)
	}
	return nil
}

// LoadCandles devuelve velas ordenadas por (symbol, timestamp). Con symbols
// vacío devuelve todos los símbolos; from/to a cero no acotan.
func (s *SQLiteStorage) LoadCandles(ctx context.Context, symbols []string, from, to time.Time) ([]domain.Candle, error) {
	query := `SELECT symbol, timestamp, datetime, open, high, low, close, volume, trades
	          FROM candles WHERE 1=1`
	var args []any

	if len(symbols) > 0 {
		query += ` AND symbol IN (?` + repeat(",?", len(symbols)-1) + `)`
		for _, sym := range symbols {
			args = append(args, sym)
		}
	}
	if !from.IsZero() {
		query += ` AND timestamp >= ?`
		args = append(args, from.Unix())
	}
	if !to.IsZero() {
		query += ` AND timestamp <= ?`
		args = append(args, to.Unix())
	}
	query += ` ORDER BY symbol, timestamp`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadCandles: query: %w", err)
	}
	defer rows.Close()

	var candles []domain.Candle
	for rows.Next() {
		var c domain.Candle
		if err := rows.Scan(&c.Symbol, &c.Timestamp, &c.Datetime,
			&c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.Trades); err != nil {
			return nil, fmt.Errorf("storage.LoadCandles: scan row: %w", err)
		}
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

// SaveRun persiste el resumen del run y sus trades en una sola transacción.
func (s *SQLiteStorage) SaveRun(ctx context.Context, r *domain.BacktestResults) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
			(id, created_at, seed, total_markets, total_signals, total_trades,
			 winning_trades, win_rate, total_pnl, profit_factor, max_drawdown, sharpe_ratio)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.RunID, time.Now().UTC(), r.Seed,
		r.TotalMarkets, r.TotalSignals, r.TotalTrades, r.WinningTrades,
		r.WinRate, r.TotalPnL, finite(r.ProfitFactor), r.MaxDrawdown, r.SharpeRatio,
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run %s: %w", r.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_trades
			(run_id, ts, symbol, direction, entry_price, exit_price,
			 fair_value, price_edge, vol_edge_pct, won, pnl, pnl_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: prepare: %w", err)
	}
	defer stmt.Close()

	for _, t := range r.Trades {
		won := 0
		if t.Won {
			won = 1
		}
		if _, err := stmt.ExecContext(ctx,
			r.RunID, t.Signal.Timestamp.UTC(), t.Signal.Symbol, string(t.Signal.Direction),
			t.Signal.EntryPrice, t.ExitPrice, t.Signal.FairValue,
			t.Signal.PriceEdge, t.Signal.VolEdgePct, won, t.PnL, t.PnLPct,
		); err != nil {
			return fmt.Errorf("storage.SaveRun: insert trade: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld elimina runs antiguos (y sus trades) para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionRuns)
	s.db.ExecContext(ctx, `DELETE FROM run_trades WHERE run_id IN (SELECT id FROM runs WHERE created_at < ?)`, cutoff)
	s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff)
}

func repeat(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(s, n)
}

// finite sustituye ±Inf por un centinela almacenable (SQLite REAL no admite Inf).
func finite(v float64) float64 {
	const profitFactorInf = 1e12
	if v > profitFactorInf {
		return profitFactorInf
	}
	return v
}
