package main

import (
	"flag"

	"github.com/hoanglm/trading-core/pkg/config"
)

type flags struct {
	configFile  *string
	dataFile    *string
	symbol      *string
	interval    *string
	windowSize  *int
	initialCash *float64
	tradesCSV   *string
	equityCSV   *string
	excelFile   *string
	tradesLimit *int
	showVersion *bool
}

func newFlags() *flags {
	return &flags{
		configFile:  flag.String("config", "", "YAML configuration file (optional)"),
		dataFile:    flag.String("data", "", "CSV candle history file (required)"),
		symbol:      flag.String("symbol", "", "override trading symbol"),
		interval:    flag.String("interval", "", "override bar interval (5m, 15m, 1h, ...)"),
		windowSize:  flag.Int("window", 0, "override decision window size"),
		initialCash: flag.Float64("cash", 0, "override initial cash"),
		tradesCSV:   flag.String("trades-csv", "", "write trade ledger CSV to this path"),
		equityCSV:   flag.String("equity-csv", "", "write equity curve CSV to this path"),
		excelFile:   flag.String("excel", "", "write Excel workbook to this path"),
		tradesLimit: flag.Int("trades-limit", 30, "max trades to print on console"),
		showVersion: flag.Bool("version", false, "print version and exit"),
	}
}

func applyFlagOverrides(cfg *config.Config, f *flags) {
	if *f.symbol != "" {
		cfg.Backtest.Symbol = *f.symbol
	}
	if *f.interval != "" {
		cfg.Backtest.Interval = *f.interval
	}
	if *f.windowSize > 0 {
		cfg.Backtest.WindowSize = *f.windowSize
	}
	if *f.initialCash > 0 {
		cfg.Simulator.InitialCash = *f.initialCash
	}
}
