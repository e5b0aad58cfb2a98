// Package monitoring exposes Prometheus metrics and a health endpoint for the
// live bot.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_core_decisions_total",
			Help: "Decisions emitted per symbol and action",
		},
		[]string{"symbol", "action"},
	)

	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_core_trades_total",
			Help: "Completed round trips per symbol and exit reason",
		},
		[]string{"symbol", "reason"},
	)

	tradePnL = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trading_core_trade_net_pnl",
			Help:    "Distribution of net profit and loss per round trip",
			Buckets: prometheus.LinearBuckets(-100, 20, 11),
		},
		[]string{"symbol"},
	)

	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trading_core_current_price",
			Help: "Last observed close price per symbol",
		},
		[]string{"symbol"},
	)

	accountEquity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trading_core_account_equity",
			Help: "Mark-to-market account equity",
		},
	)

	decisionConfidence = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trading_core_decision_confidence",
			Help: "Confidence of the most recent decision per symbol",
		},
		[]string{"symbol"},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_core_errors_total",
			Help: "Errors by type",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(decisionsTotal)
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(tradePnL)
	prometheus.MustRegister(currentPrice)
	prometheus.MustRegister(accountEquity)
	prometheus.MustRegister(decisionConfidence)
	prometheus.MustRegister(errorsTotal)
}

// RecordDecision counts one engine verdict and its confidence.
func RecordDecision(symbol, action string, confidence float64) {
	decisionsTotal.WithLabelValues(symbol, action).Inc()
	decisionConfidence.WithLabelValues(symbol).Set(confidence)
}

// RecordTrade counts one completed round trip.
func RecordTrade(symbol, reason string, netPnL float64) {
	tradesTotal.WithLabelValues(symbol, reason).Inc()
	tradePnL.WithLabelValues(symbol).Observe(netPnL)
}

// UpdatePrice sets the latest close for a symbol.
func UpdatePrice(symbol string, price float64) {
	currentPrice.WithLabelValues(symbol).Set(price)
}

// UpdateEquity sets the mark-to-market equity gauge.
func UpdateEquity(equity float64) {
	accountEquity.Set(equity)
}

// RecordError counts one error by type.
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
