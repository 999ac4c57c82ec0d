package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	backtestsTotal    *prometheus.CounterVec
	backtestDuration  prometheus.Histogram
	tradesTotal       *prometheus.CounterVec
	screenedSymbols   *prometheus.CounterVec
	fetchTotal        *prometheus.CounterVec
	signalsGenerated  *prometheus.CounterVec
	notificationsSent *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{Registry: reg}

	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twquant_backtests_total",
			Help: "Total number of single-symbol backtests",
		},
		[]string{"status"},
	)
	r.backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "twquant_backtest_duration_seconds",
			Help:    "Backtest duration in seconds, including data fetch",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)
	r.tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twquant_trades_total",
			Help: "Total number of simulated round trips by exit kind",
		},
		[]string{"exit"},
	)
	r.screenedSymbols = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twquant_screened_symbols_total",
			Help: "Total number of screened symbols by outcome",
		},
		[]string{"result"},
	)
	r.fetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twquant_fetch_total",
			Help: "Total number of market data fetches",
		},
		[]string{"source", "status"},
	)
	r.signalsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twquant_signals_generated_total",
			Help: "Total number of signals generated",
		},
		[]string{"strategy", "action"},
	)
	r.notificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twquant_notifications_total",
			Help: "Total number of notifier deliveries",
		},
		[]string{"notifier", "status"},
	)

	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.tradesTotal)
	reg.MustRegister(r.screenedSymbols)
	reg.MustRegister(r.fetchTotal)
	reg.MustRegister(r.signalsGenerated)
	reg.MustRegister(r.notificationsSent)

	return r
}

// RecordBacktest records a backtest completion.
func (r *Registry) RecordBacktest(status string, duration float64) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(duration)
}

// RecordTrade records a closed simulated trade.
func (r *Registry) RecordTrade(exit string) {
	r.tradesTotal.WithLabelValues(exit).Inc()
}

// RecordScreened records a screening outcome ("selected", "passed", "failed").
func (r *Registry) RecordScreened(result string) {
	r.screenedSymbols.WithLabelValues(result).Inc()
}

// RecordFetch records a market data fetch.
func (r *Registry) RecordFetch(source, status string) {
	r.fetchTotal.WithLabelValues(source, status).Inc()
}

// RecordSignal records a generated signal.
func (r *Registry) RecordSignal(strategy, action string) {
	r.signalsGenerated.WithLabelValues(strategy, action).Inc()
}

// RecordNotification records a notifier delivery.
func (r *Registry) RecordNotification(notifier, status string) {
	r.notificationsSent.WithLabelValues(notifier, status).Inc()
}

// WriteTextfile writes the current metrics in the node-exporter textfile
// format. The write is atomic.
func (r *Registry) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating metrics dir: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
