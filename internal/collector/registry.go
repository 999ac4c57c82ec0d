package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/twquant/internal/core"
	"go.uber.org/zap"
)

// Registry manages collectors in registration order. Fetches try each
// collector supporting the symbol's market until one succeeds.
type Registry struct {
	mu         sync.RWMutex
	collectors map[string]Collector
	order      []string
	recorder   FetchRecorder
	logger     *zap.Logger
}

// NewRegistry creates a new collector registry
func NewRegistry(logger ...*zap.Logger) *Registry {
	log := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		log = logger[0]
	}
	return &Registry{
		collectors: make(map[string]Collector),
		logger:     log,
	}
}

// SetRecorder installs a fetch outcome recorder.
func (r *Registry) SetRecorder(rec FetchRecorder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorder = rec
}

// Register adds a collector to the registry. Re-registering a name
// replaces the collector but keeps its position.
func (r *Registry) Register(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.collectors[c.Name()]; !ok {
		r.order = append(r.order, c.Name())
	}
	r.collectors[c.Name()] = c
}

// Get retrieves a collector by name
func (r *Registry) Get(name string) (Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collectors[name]
	return c, ok
}

// GetAll returns all registered collectors in registration order
func (r *Registry) GetAll() []Collector {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Collector, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.collectors[name])
	}
	return result
}

func (r *Registry) record(source, status string) {
	r.mu.RLock()
	rec := r.recorder
	r.mu.RUnlock()
	if rec != nil {
		rec.RecordFetch(source, status)
	}
}

func (r *Registry) candidates(symbol string) ([]Collector, error) {
	var out []Collector
	for _, c := range r.GetAll() {
		if Supports(c, symbol) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, core.WrapError(core.ErrCollectorFailed,
			fmt.Errorf("no collector supports %s", symbol))
	}
	return out, nil
}

// FetchHistory returns the first non-empty history from the candidates.
func (r *Registry) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	cs, err := r.candidates(symbol)
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, c := range cs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bars, err := c.FetchHistory(ctx, symbol, start, end, interval)
		if err == nil && len(bars) == 0 {
			err = core.WrapError(core.ErrNoData, fmt.Errorf("%s returned no bars for %s", c.Name(), symbol))
		}
		if err != nil {
			r.record(c.Name(), "error")
			r.logger.Debug("history fetch failed, trying next collector",
				zap.String("collector", c.Name()),
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
			continue
		}
		r.record(c.Name(), "ok")
		return bars, nil
	}
	return nil, errors.Join(errs...)
}

// FetchInfo returns the first info answer from the candidates.
func (r *Registry) FetchInfo(ctx context.Context, symbol string) (*core.Info, error) {
	cs, err := r.candidates(symbol)
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, c := range cs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := c.FetchInfo(ctx, symbol)
		if err != nil {
			r.record(c.Name(), "error")
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
			continue
		}
		r.record(c.Name(), "ok")
		return info, nil
	}
	return nil, errors.Join(errs...)
}
