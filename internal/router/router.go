package router

import (
	"context"
	"slices"
	"time"

	"github.com/newthinker/twquant/internal/core"
	"github.com/newthinker/twquant/internal/notifier"
	"github.com/newthinker/twquant/internal/storage/signal"
	"go.uber.org/zap"
)

// Config holds router configuration
type Config struct {
	MinConfidence    float64       `mapstructure:"min_confidence"`
	CooldownDuration time.Duration `mapstructure:"cooldown"`
	EnabledActions   []core.Action `mapstructure:"enabled_actions"`
}

// DefaultConfig returns default router configuration
func DefaultConfig() Config {
	return Config{
		MinConfidence:    0.5,
		CooldownDuration: 72 * time.Hour,
		EnabledActions:   []core.Action{core.ActionBuy, core.ActionSell},
	}
}

// Router filters signals, logs the survivors and sends them to notifiers.
// A signal is suppressed while the log holds one for the same symbol and
// action inside the cooldown window.
type Router struct {
	cfg      Config
	registry *notifier.Registry
	store    signal.Store
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a new signal router. A nil store disables the cooldown.
func New(cfg Config, registry *notifier.Registry, store signal.Store, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		cfg:      cfg,
		registry: registry,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock replaces the time source of the cooldown window
func (r *Router) SetClock(now func() time.Time) {
	r.now = now
}

// Route processes signals through the filters and sends the survivors to
// all notifiers as one message. It returns the routed signals.
func (r *Router) Route(ctx context.Context, signals []core.Signal) ([]core.Signal, error) {
	var routed []core.Signal

	for _, sig := range signals {
		ok, err := r.passesFilters(ctx, sig, routed)
		if err != nil {
			return routed, err
		}
		if !ok {
			r.logger.Debug("signal filtered out",
				zap.String("symbol", sig.Symbol),
				zap.String("action", string(sig.Action)),
				zap.Float64("confidence", sig.Confidence),
			)
			continue
		}

		// Persist signal if store is configured
		if r.store != nil {
			if err := r.store.Save(ctx, sig); err != nil {
				r.logger.Error("failed to persist signal", zap.Error(err))
			}
		}
		routed = append(routed, sig)
	}

	if len(routed) == 0 || r.registry == nil {
		return routed, nil
	}

	errors := r.registry.NotifyAll(ctx, notifier.SignalMessage(routed))
	for name, err := range errors {
		r.logger.Error("notifier failed",
			zap.String("notifier", name),
			zap.Error(err),
		)
	}

	r.logger.Info("signals routed",
		zap.Int("total", len(signals)),
		zap.Int("routed", len(routed)),
		zap.Int("notifiers", r.registry.Len()),
		zap.Int("errors", len(errors)),
	)

	return routed, nil
}

// passesFilters checks if a signal passes all configured filters
func (r *Router) passesFilters(ctx context.Context, sig core.Signal, routed []core.Signal) (bool, error) {
	// Check confidence threshold
	if sig.Confidence < r.cfg.MinConfidence {
		return false, nil
	}

	// Check action whitelist
	if len(r.cfg.EnabledActions) > 0 && !slices.Contains(r.cfg.EnabledActions, sig.Action) {
		return false, nil
	}

	// One signal per symbol and action within a run
	for _, prev := range routed {
		if prev.Symbol == sig.Symbol && prev.Action == sig.Action {
			return false, nil
		}
	}

	// Check cooldown
	if r.store == nil || r.cfg.CooldownDuration <= 0 {
		return true, nil
	}
	recent, err := r.store.List(ctx, signal.ListFilter{
		Symbol: sig.Symbol,
		Action: sig.Action,
		From:   r.now().Add(-r.cfg.CooldownDuration),
		Limit:  1,
	})
	if err != nil {
		return false, err
	}
	return len(recent) == 0, nil
}

// GetStats returns router statistics
func (r *Router) GetStats() map[string]any {
	return map[string]any{
		"min_confidence":   r.cfg.MinConfidence,
		"cooldown_seconds": r.cfg.CooldownDuration.Seconds(),
		"enabled_actions":  r.cfg.EnabledActions,
	}
}
