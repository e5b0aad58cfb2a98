package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/hoanglm/trading-core/internal/analysis"
	"github.com/hoanglm/trading-core/internal/bot"
	"github.com/hoanglm/trading-core/internal/decision"
	"github.com/hoanglm/trading-core/internal/exchange"
	"github.com/hoanglm/trading-core/internal/exchange/bybit"
	"github.com/hoanglm/trading-core/internal/logger"
	"github.com/hoanglm/trading-core/internal/monitoring"
	"github.com/hoanglm/trading-core/internal/portfolio"
	"github.com/hoanglm/trading-core/internal/regime"
	"github.com/hoanglm/trading-core/internal/risk"
	"github.com/hoanglm/trading-core/pkg/config"
)

const (
	appName    = "trading-core live-bot"
	appVersion = "1.0.0"
)

func main() {
	configFile := flag.String("config", "", "YAML configuration file (optional)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s v%s\n", appName, appVersion)
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}
	zl, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("❌ Logger error: %v", err)
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
	tracker := portfolio.NewTracker(cfg.Simulator.InitialCash, 365*24*12, zl)
	venue := bybit.NewClient(cfg.Bybit, zl)

	health := monitoring.NewHealthChecker(3 * cfg.Bot.PollInterval)
	if cfg.Metrics.Enabled {
		go func() {
			if err := monitoring.Serve(cfg.Metrics.Addr, health); err != nil {
				zl.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		zl.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics server listening")
	}

	b := bot.New(cfg.Bot, venue, engine, sim, corr, tracker, health, zl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("❌ Bot error: %v", err)
	}

	stats := tracker.Stats()
	zl.Info().
		Int("trades", stats.TotalTrades).
		Float64("net_pnl", stats.TotalNetPnL).
		Float64("final_equity", stats.FinalEquity).
		Msg("session summary")
}
