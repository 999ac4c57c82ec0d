package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/newthinker/twquant/internal/collector"
	"github.com/newthinker/twquant/internal/collector/csvfile"
	"github.com/newthinker/twquant/internal/collector/yahoo"
	"github.com/newthinker/twquant/internal/config"
	"github.com/newthinker/twquant/internal/core"
	"github.com/newthinker/twquant/internal/metrics"
	"github.com/newthinker/twquant/internal/notifier"
	"github.com/newthinker/twquant/internal/notifier/telegram"
	"github.com/newthinker/twquant/internal/notifier/webhook"
	"github.com/newthinker/twquant/internal/router"
	"github.com/newthinker/twquant/internal/storage/archive"
	"github.com/newthinker/twquant/internal/storage/history"
	"github.com/newthinker/twquant/internal/storage/signal"
	"github.com/newthinker/twquant/internal/strategy"
	"github.com/newthinker/twquant/internal/strategy/ma_crossover"
	"github.com/newthinker/twquant/internal/strategy/rsi_rebound"
	"go.uber.org/zap"
)

// App is the main application orchestrator
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	metrics    *metrics.Registry
	store      archive.Storage
	cache      *history.Cache
	collectors *collector.Registry
	strategies *strategy.Engine
	notifiers  *notifier.Registry
	router     *router.Router
	now        func() time.Time
}

// Option customises App construction
type Option func(*options)

type options struct {
	store      archive.Storage
	collectors []collector.Collector
	notifiers  []notifier.Notifier
	now        func() time.Time
}

// WithStorage replaces the configured archive backend
func WithStorage(s archive.Storage) Option {
	return func(o *options) { o.store = s }
}

// WithCollectors replaces the configured market data sources
func WithCollectors(cs ...collector.Collector) Option {
	return func(o *options) { o.collectors = cs }
}

// WithNotifiers replaces the configured notifiers
func WithNotifiers(ns ...notifier.Notifier) Option {
	return func(o *options) { o.notifiers = ns }
}

// WithClock sets the time source used for windows and report dates
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a new App instance from configuration
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics.NewRegistry(),
		collectors: collector.NewRegistry(logger),
		strategies: strategy.NewEngine(logger),
		notifiers:  notifier.NewRegistry(),
		now:        o.now,
	}

	a.store = o.store
	if a.store == nil {
		store, err := archive.Open(archive.Options{
			Type: cfg.Storage.Type,
			Path: cfg.Storage.Path,
			S3: archive.S3Config{
				Bucket:    cfg.Storage.S3.Bucket,
				Endpoint:  cfg.Storage.S3.Endpoint,
				Region:    cfg.Storage.S3.Region,
				AccessKey: cfg.Storage.S3.AccessKey,
				SecretKey: cfg.Storage.S3.SecretKey,
				Prefix:    cfg.Storage.S3.Prefix,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("opening storage: %w", err)
		}
		a.store = store
	}
	a.cache = history.NewCache(a.store)

	a.collectors.SetRecorder(a.metrics)
	sources := o.collectors
	if sources == nil {
		sources = a.configuredCollectors()
	}
	for _, c := range sources {
		if cfg.Collector.Cache {
			c = collector.NewCached(c, a.cache, logger)
		}
		a.collectors.Register(c)
	}

	if err := a.registerStrategies(); err != nil {
		return nil, err
	}

	ns := o.notifiers
	if ns == nil {
		var err error
		if ns, err = a.configuredNotifiers(); err != nil {
			return nil, err
		}
	}
	for _, n := range ns {
		if err := a.notifiers.Register(recording{Notifier: n, metrics: a.metrics}); err != nil {
			return nil, err
		}
	}

	routerCfg := router.DefaultConfig()
	routerCfg.MinConfidence = cfg.Signals.MinConfidence
	routerCfg.CooldownDuration = cfg.Signals.Cooldown
	a.router = router.New(routerCfg, a.notifiers, signal.NewArchiveStore(a.store), logger)
	a.router.SetClock(a.now)

	logger.Debug("app initialised",
		zap.Int("collectors", len(a.collectors.GetAll())),
		zap.Int("strategies", len(a.strategies.GetAll())),
		zap.Int("notifiers", a.notifiers.Len()),
	)
	return a, nil
}

// configuredCollectors builds the primary source, with the CSV directory as
// a fallback behind Yahoo when one is configured.
func (a *App) configuredCollectors() []collector.Collector {
	cc := a.cfg.Collector
	switch cc.Source {
	case "csv":
		return []collector.Collector{csvfile.New(cc.CSVDir)}
	default:
		cs := []collector.Collector{yahoo.New(yahoo.WithTimeout(cc.Timeout))}
		if cc.CSVDir != "" {
			cs = append(cs, csvfile.New(cc.CSVDir))
		}
		return cs
	}
}

func (a *App) registerStrategies() error {
	for _, name := range a.cfg.Signals.Strategies {
		switch name {
		case "rsi_rebound":
			a.strategies.Register(rsi_rebound.New(a.cfg.BacktestRules()))
		case "ma_crossover":
			mc := a.cfg.Signals.MACrossover
			a.strategies.Register(ma_crossover.New(mc.FastPeriod, mc.SlowPeriod))
		default:
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown strategy %q", name))
		}
	}
	return nil
}

func (a *App) configuredNotifiers() ([]notifier.Notifier, error) {
	names := make([]string, 0, len(a.cfg.Notifiers))
	for name := range a.cfg.Notifiers {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []notifier.Notifier
	for _, name := range names {
		nc := a.cfg.Notifiers[name]
		if !nc.Enabled {
			continue
		}

		var n notifier.Notifier
		switch name {
		case "telegram":
			n = telegram.New(nc.BotToken, nc.ChatID)
		case "webhook":
			n = webhook.New(nc.URL, nc.Headers)
		default:
			return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown notifier %q", name))
		}
		if err := n.Init(notifier.Config{Type: name}); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Config returns the configuration the app was built from
func (a *App) Config() *config.Config {
	return a.cfg
}

// Metrics returns the app's metrics registry
func (a *App) Metrics() *metrics.Registry {
	return a.metrics
}

// Storage returns the archive backend
func (a *App) Storage() archive.Storage {
	return a.store
}

// FlushMetrics writes the metrics textfile when metrics are enabled.
func (a *App) FlushMetrics() error {
	if !a.cfg.Metrics.Enabled {
		return nil
	}
	return a.metrics.WriteTextfile(a.cfg.Metrics.Textfile)
}

// PruneCache drops cached price history older than keepDays days and
// returns the number of files removed.
func (a *App) PruneCache(ctx context.Context, keepDays int) (int, error) {
	cutoff := a.now().AddDate(0, 0, -keepDays)
	n, err := a.cache.Prune(ctx, cutoff)
	if err != nil {
		return n, err
	}
	a.logger.Info("cache pruned", zap.Int("files_removed", n), zap.Time("cutoff", cutoff))
	return n, nil
}

// GetStats returns application statistics
func (a *App) GetStats() map[string]any {
	return map[string]any{
		"universe":   len(a.cfg.Universe),
		"collectors": len(a.collectors.GetAll()),
		"strategies": len(a.strategies.GetAll()),
		"notifiers":  a.notifiers.Len(),
		"router":     a.router.GetStats(),
	}
}

// window is the history window ending today.
func (a *App) window() (time.Time, time.Time) {
	end := a.now()
	years := a.cfg.Collector.HistoryYears
	if years <= 0 {
		years = 3
	}
	return end.AddDate(-years, 0, 0), end
}

// recording counts deliveries per notifier.
type recording struct {
	notifier.Notifier
	metrics *metrics.Registry
}

func (r recording) Send(ctx context.Context, msg notifier.Message) error {
	err := r.Notifier.Send(ctx, msg)
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.metrics.RecordNotification(r.Name(), status)
	return err
}
