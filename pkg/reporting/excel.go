package reporting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hoanglm/trading-core/internal/backtest"
)

// WriteExcel exports the full result as a workbook with Summary, Trades and
// Equity sheets.
func WriteExcel(res *backtest.Result, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	if err := writeSummarySheet(fx, res); err != nil {
		return err
	}
	if err := writeTradesSheet(fx, res); err != nil {
		return err
	}
	if err := writeEquitySheet(fx, res); err != nil {
		return err
	}
	fx.DeleteSheet("Sheet1")
	return fx.SaveAs(path)
}

func writeSummarySheet(fx *excelize.File, res *backtest.Result) error {
	const sheet = "Summary"
	if _, err := fx.NewSheet(sheet); err != nil {
		return err
	}

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	s := res.Stats
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Initial Equity", s.InitialEquity},
		{"Final Equity", s.FinalEquity},
		{"Total Return %", s.TotalReturn * 100},
		{"Max Drawdown %", s.MaxDrawdown * 100},
		{"Sharpe Ratio", s.SharpeRatio},
		{"Sortino Ratio", finiteOr(s.SortinoRatio, 0)},
		{"Total Trades", s.TotalTrades},
		{"Winning Trades", s.WinningTrades},
		{"Losing Trades", s.LosingTrades},
		{"Win Rate %", s.WinRate * 100},
		{"Profit Factor", finiteOr(s.ProfitFactor, 0)},
		{"Expectancy", s.Expectancy},
		{"Avg Win", s.AvgWin},
		{"Avg Loss", s.AvgLoss},
		{"Largest Win", s.LargestWin},
		{"Largest Loss", s.LargestLoss},
		{"Total Net PnL", s.TotalNetPnL},
		{"Total Fees", s.TotalFees},
		{"Bars Tested", res.BarsTested},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := fx.SetCellStyle(sheet, "A1", "B1", headerStyle); err != nil {
		return err
	}
	return fx.SetColWidth(sheet, "A", "A", 20)
}

func writeTradesSheet(fx *excelize.File, res *backtest.Result) error {
	const sheet = "Trades"
	if _, err := fx.NewSheet(sheet); err != nil {
		return err
	}

	header := []interface{}{
		"Symbol", "Side", "Entry Time", "Entry Price", "Exit Time", "Exit Price",
		"Quantity", "Gross PnL", "Fees", "Net PnL", "Hold", "Exit Reason",
	}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, tr := range res.Trades {
		row := []interface{}{
			tr.Symbol,
			tr.Side.String(),
			tr.Entry.Timestamp.UTC().Format(time.RFC3339),
			tr.Entry.Price,
			tr.Exit.Timestamp.UTC().Format(time.RFC3339),
			tr.Exit.Price,
			tr.Entry.Quantity,
			tr.GrossPnL,
			tr.FeesTotal,
			tr.NetPnL,
			tr.HoldDuration.String(),
			tr.ExitReason,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeEquitySheet(fx *excelize.File, res *backtest.Result) error {
	const sheet = "Equity"
	if _, err := fx.NewSheet(sheet); err != nil {
		return err
	}

	header := []interface{}{"Timestamp", "Equity"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, p := range res.EquityCurve {
		row := []interface{}{p.Timestamp.UTC().Format(time.RFC3339), p.Equity}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func finiteOr(v, fallback float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return fallback
	}
	return v
}
