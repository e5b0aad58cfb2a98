// Package reporting renders backtest results to the console and exports them
// to CSV and Excel files.
package reporting

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/hoanglm/trading-core/internal/backtest"
	"github.com/hoanglm/trading-core/pkg/types"
)

// ConsoleReporter renders results as rounded tables.
type ConsoleReporter struct {
	out io.Writer
}

func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout}
}

// NewConsoleReporterTo writes to the given writer instead of stdout.
func NewConsoleReporterTo(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

// PrintSummary renders the performance statistics table.
func (r *ConsoleReporter) PrintSummary(res *backtest.Result) {
	s := res.Stats

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("BACKTEST RESULTS")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"💰 Initial Equity", fmt.Sprintf("$%.2f", s.InitialEquity)},
		{"💰 Final Equity", fmt.Sprintf("$%.2f", s.FinalEquity)},
		{"📈 Total Return", fmt.Sprintf("%.2f%%", s.TotalReturn*100)},
		{"📉 Max Drawdown", fmt.Sprintf("%.2f%%", s.MaxDrawdown*100)},
		{"📊 Sharpe Ratio", fmt.Sprintf("%.2f", s.SharpeRatio)},
		{"📊 Sortino Ratio", formatRatio(s.SortinoRatio)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"🔄 Total Trades", fmt.Sprintf("%d", s.TotalTrades)},
		{"✅ Winning Trades", fmt.Sprintf("%d (%.1f%%)", s.WinningTrades, s.WinRate*100)},
		{"❌ Losing Trades", fmt.Sprintf("%d", s.LosingTrades)},
		{"💹 Profit Factor", formatRatio(s.ProfitFactor)},
		{"🎯 Expectancy", fmt.Sprintf("$%.2f", s.Expectancy)},
		{"📏 Avg Win / Avg Loss", fmt.Sprintf("$%.2f / $%.2f", s.AvgWin, s.AvgLoss)},
		{"💸 Total Fees", fmt.Sprintf("$%.2f", s.TotalFees)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"🧮 Bars Tested", fmt.Sprintf("%d", res.BarsTested)},
		{"🧮 Decisions", formatDecisions(res.Decisions)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 22, Align: text.AlignLeft},
		{Number: 2, WidthMin: 24, Align: text.AlignLeft},
	})
	t.Render()
}

// PrintTrades renders the trade ledger, capped at the most recent limit rows.
func (r *ConsoleReporter) PrintTrades(trades []types.TradeRecord, limit int) {
	if len(trades) == 0 {
		fmt.Fprintln(r.out, "No trades executed.")
		return
	}
	if limit > 0 && len(trades) > limit {
		trades = trades[len(trades)-limit:]
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("TRADES")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Side", "Entry", "Exit", "Hold", "Net PnL", "Reason"})

	for i, tr := range trades {
		t.AppendRow(table.Row{
			i + 1,
			tr.Side.String(),
			fmt.Sprintf("%.2f", tr.Entry.Price),
			fmt.Sprintf("%.2f", tr.Exit.Price),
			tr.HoldDuration.Round(time.Second).String(),
			fmt.Sprintf("%+.2f", tr.NetPnL),
			tr.ExitReason,
		})
	}
	t.Render()
}

func formatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "∞"
	}
	return fmt.Sprintf("%.2f", v)
}

func formatDecisions(counts map[string]int) string {
	order := []string{"BUY", "SELL", "HOLD", "HALT"}
	s := ""
	for _, k := range order {
		if n, ok := counts[k]; ok && n > 0 {
			if s != "" {
				s += "  "
			}
			s += fmt.Sprintf("%s:%d", k, n)
		}
	}
	if s == "" {
		s = "none"
	}
	return s
}
