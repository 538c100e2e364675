package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/volarb/internal/domain"
)

// Console implementa ports.Notifier escribiendo el reporte a un io.Writer.
type Console struct {
	out io.Writer
	// maxTrades limita la tabla de trades; 0 = no imprimirla.
	maxTrades int
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(maxTrades int) *Console {
	return &Console{out: os.Stdout, maxTrades: maxTrades}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, maxTrades int) *Console {
	return &Console{out: w, maxTrades: maxTrades}
}

// Notify imprime el reporte completo del backtest.
func (c *Console) Notify(_ context.Context, r *domain.BacktestResults) error {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] VOLATILITY ARBITRAGE BACKTEST — run %s (seed %d)\n",
		now, r.RunID, r.Seed)

	c.printSummary(r)
	c.printBySymbol(r)
	c.printTrades(r)
	c.printVerdict(r)
	return nil
}

// printSummary imprime los contadores y métricas de rendimiento.
func (c *Console) printSummary(r *domain.BacktestResults) {
	pfLabel := fmt.Sprintf("%.2f", r.ProfitFactor)
	if math.IsInf(r.ProfitFactor, 1) {
		pfLabel = "INF"
	}

	fmt.Fprintf(c.out, "\n  --- SUMMARY ---\n")
	fmt.Fprintf(c.out, "  Total markets:     %d\n", r.TotalMarkets)
	fmt.Fprintf(c.out, "  Signals generated: %d\n", r.TotalSignals)
	fmt.Fprintf(c.out, "  Trades executed:   %d\n", r.TotalTrades)
	fmt.Fprintf(c.out, "  Winning trades:    %d\n", r.WinningTrades)
	fmt.Fprintf(c.out, "  Win rate:          %.2f%%\n", r.WinRate*100)

	fmt.Fprintf(c.out, "\n  --- PERFORMANCE ---\n")
	fmt.Fprintf(c.out, "  Total PnL:         $%.2f\n", r.TotalPnL)
	fmt.Fprintf(c.out, "  Avg PnL/trade:     $%.2f\n", r.AvgPnL)
	fmt.Fprintf(c.out, "  Profit factor:     %s\n", pfLabel)
	fmt.Fprintf(c.out, "  Max drawdown:      %.2f%%\n", r.MaxDrawdown*100)
	fmt.Fprintf(c.out, "  Sharpe ratio:      %.2f\n", r.SharpeRatio)

	fmt.Fprintf(c.out, "\n  --- SIGNAL QUALITY ---\n")
	fmt.Fprintf(c.out, "  Avg vol edge:      %.2f%%\n", r.AvgVolEdge*100)
	fmt.Fprintf(c.out, "  Avg price edge:    %.2f%%\n", r.AvgPriceEdge*100)
}

// printBySymbol imprime el desglose por símbolo, mejores primero.
func (c *Console) printBySymbol(r *domain.BacktestResults) {
	if len(r.BySymbol) == 0 {
		return
	}

	symbols := make([]string, 0, len(r.BySymbol))
	for sym := range r.BySymbol {
		symbols = append(symbols, sym)
	}
	sort.Slice(symbols, func(i, j int) bool {
		return r.BySymbol[symbols[i]].PnL > r.BySymbol[symbols[j]].PnL
	})

	fmt.Fprintf(c.out, "\n  --- BY SYMBOL ---\n")
	table := tablewriter.NewWriter(c.out)
	table.Header("Symbol", "Trades", "Wins", "Win %", "PnL")

	for _, sym := range symbols {
		stats := r.BySymbol[sym]
		table.Append(
			sym,
			fmt.Sprintf("%d", stats.Trades),
			fmt.Sprintf("%d", stats.Wins),
			fmt.Sprintf("%.1f%%", stats.WinRate*100),
			fmt.Sprintf("$%.2f", stats.PnL),
		)
	}
	table.Render()
}

// printTrades imprime los primeros maxTrades trades del run.
func (c *Console) printTrades(r *domain.BacktestResults) {
	if c.maxTrades <= 0 || len(r.Trades) == 0 {
		return
	}

	shown := r.Trades
	if len(shown) > c.maxTrades {
		shown = shown[:c.maxTrades]
	}

	fmt.Fprintf(c.out, "\n  --- TRADES (first %d of %d) ---\n", len(shown), len(r.Trades))
	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Symbol", "Dir", "Entry", "Fair", "VolEdge", "Won", "PnL")

	for _, t := range shown {
		won := "no"
		if t.Won {
			won = "yes"
		}
		table.Append(
			t.Signal.Timestamp.UTC().Format("01-02 15:04"),
			t.Signal.Symbol,
			string(t.Signal.Direction),
			fmt.Sprintf("%.3f", t.Signal.EntryPrice),
			fmt.Sprintf("%.3f", t.Signal.FairValue),
			fmt.Sprintf("%.0f%%", t.Signal.VolEdgePct*100),
			won,
			fmt.Sprintf("$%.2f", t.PnL),
		)
	}
	table.Render()
}

// printVerdict resume si la estrategia promete con esta configuración.
func (c *Console) printVerdict(r *domain.BacktestResults) {
	fmt.Fprintf(c.out, "\n  --- VERDICT ---\n")
	switch {
	case r.TotalTrades == 0:
		fmt.Fprintf(c.out, "  No qualifying signals — no edge found with this configuration.\n")
	case r.WinRate > 0.55 && r.SharpeRatio > 1.0:
		fmt.Fprintf(c.out, "  Strategy shows promise. Consider paper trading.\n")
	case r.WinRate > 0.50:
		fmt.Fprintf(c.out, "  Strategy is marginal. Needs more optimization.\n")
	default:
		fmt.Fprintf(c.out, "  Strategy underperforms. Reconsider parameters.\n")
	}
	fmt.Fprintln(c.out)
}
