package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hoanglm/trading-core/internal/analysis"
	"github.com/hoanglm/trading-core/internal/backtest"
	"github.com/hoanglm/trading-core/internal/decision"
	"github.com/hoanglm/trading-core/internal/exchange"
	"github.com/hoanglm/trading-core/internal/logger"
	"github.com/hoanglm/trading-core/internal/portfolio"
	"github.com/hoanglm/trading-core/internal/regime"
	"github.com/hoanglm/trading-core/internal/risk"
	"github.com/hoanglm/trading-core/pkg/config"
	"github.com/hoanglm/trading-core/pkg/data"
	"github.com/hoanglm/trading-core/pkg/reporting"
)

const (
	appName    = "trading-core backtest"
	appVersion = "1.0.0"
)

func main() {
	flags := newFlags()
	flag.Parse()

	if *flags.showVersion {
		fmt.Printf("%s v%s\n", appName, appVersion)
		return
	}
	if *flags.dataFile == "" {
		log.Fatalf("❌ -data is required (CSV candle history)")
	}

	cfg, err := config.Load(*flags.configFile)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}
	applyFlagOverrides(&cfg, flags)

	zl, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("❌ Logger error: %v", err)
	}

	candles, err := data.NewCSVProvider(zl).Load(*flags.dataFile)
	if err != nil {
		log.Fatalf("❌ Data error: %v", err)
	}

	corr := analysis.NewCorrelationAnalyzer(zl)
	engine := decision.NewEngine(
		cfg.Engine,
		regime.NewClassifier(cfg.Regime, zl),
		analysis.NewMTFAggregator(analysis.DefaultTimeframes(), zl),
		analysis.NewVolumeAnalyzer(zl),
		analysis.NewLiquidityAnalyzer(zl),
		corr,
		risk.NewSizer(cfg.Sizer, zl),
		risk.NewStopManager(cfg.Stops, zl),
		risk.NewGuard(cfg.Guard, zl),
		zl,
	)
	sim := exchange.NewSimulator(cfg.Simulator, zl)
	tracker := portfolio.NewTracker(cfg.Simulator.InitialCash, periodsPerYear(cfg.Backtest.Interval), zl)
	driver := backtest.NewDriver(cfg.Backtest, engine, sim, corr, tracker, zl)

	result, err := driver.Run(context.Background(), candles)
	if err != nil {
		log.Fatalf("❌ Backtest error: %v", err)
	}

	console := reporting.NewConsoleReporter()
	console.PrintSummary(result)
	console.PrintTrades(result.Trades, *flags.tradesLimit)

	if *flags.tradesCSV != "" {
		if err := reporting.WriteTradesCSV(result.Trades, *flags.tradesCSV); err != nil {
			log.Fatalf("❌ Trades export error: %v", err)
		}
		fmt.Printf("📝 Trades written to %s\n", *flags.tradesCSV)
	}
	if *flags.equityCSV != "" {
		if err := reporting.WriteEquityCSV(result.EquityCurve, *flags.equityCSV); err != nil {
			log.Fatalf("❌ Equity export error: %v", err)
		}
		fmt.Printf("📝 Equity curve written to %s\n", *flags.equityCSV)
	}
	if *flags.excelFile != "" {
		if err := reporting.WriteExcel(result, *flags.excelFile); err != nil {
			log.Fatalf("❌ Excel export error: %v", err)
		}
		fmt.Printf("📝 Workbook written to %s\n", *flags.excelFile)
	}

	if result.Stats.TotalTrades == 0 {
		fmt.Fprintln(os.Stderr, "⚠️  No trades executed; check thresholds and data coverage")
	}
}

// periodsPerYear converts a bar interval to the annualization factor the
// tracker uses for Sharpe and Sortino.
func periodsPerYear(interval string) float64 {
	dur, err := backtest.IntervalDuration(interval)
	if err != nil || dur <= 0 {
		return 365 * 24
	}
	return (365 * 24 * 3600) / dur.Seconds()
}
