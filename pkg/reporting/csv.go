package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hoanglm/trading-core/pkg/types"
)

// WriteTradesCSV exports the trade ledger.
func WriteTradesCSV(trades []types.TradeRecord, path string) error {
	w, closeFn, err := createCSV(path)
	if err != nil {
		return err
	}
	defer closeFn()

	header := []string{
		"symbol", "side", "entry_time", "entry_price", "exit_time", "exit_price",
		"quantity", "gross_pnl", "fees_total", "net_pnl", "hold_duration", "exit_reason",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, tr := range trades {
		row := []string{
			tr.Symbol,
			tr.Side.String(),
			tr.Entry.Timestamp.UTC().Format(time.RFC3339),
			formatFloat(tr.Entry.Price),
			tr.Exit.Timestamp.UTC().Format(time.RFC3339),
			formatFloat(tr.Exit.Price),
			formatFloat(tr.Entry.Quantity),
			formatFloat(tr.GrossPnL),
			formatFloat(tr.FeesTotal),
			formatFloat(tr.NetPnL),
			tr.HoldDuration.String(),
			tr.ExitReason,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteEquityCSV exports the equity curve.
func WriteEquityCSV(curve []types.EquityPoint, path string) error {
	w, closeFn, err := createCSV(path)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := w.Write([]string{"timestamp", "equity"}); err != nil {
		return err
	}
	for _, p := range curve {
		row := []string{p.Timestamp.UTC().Format(time.RFC3339), formatFloat(p.Equity)}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func createCSV(path string) (*csv.Writer, func(), error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return csv.NewWriter(f), func() { f.Close() }, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
