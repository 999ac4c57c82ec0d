package strategy

import (
	"context"
	"sync"

	"github.com/newthinker/twquant/internal/core"
	"go.uber.org/zap"
)

// Engine manages and runs strategies in registration order
type Engine struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	order      []string
	logger     *zap.Logger
}

// NewEngine creates a new strategy engine
func NewEngine(logger ...*zap.Logger) *Engine {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Engine{
		strategies: make(map[string]Strategy),
		logger:     l,
	}
}

// Register adds a strategy to the engine
func (e *Engine) Register(s Strategy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.strategies[s.Name()]; !ok {
		e.order = append(e.order, s.Name())
	}
	e.strategies[s.Name()] = s
}

// Get retrieves a strategy by name
func (e *Engine) Get(name string) (Strategy, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.strategies[name]
	return s, ok
}

// GetAll returns all registered strategies
func (e *Engine) GetAll() []Strategy {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]Strategy, 0, len(e.order))
	for _, name := range e.order {
		result = append(result, e.strategies[name])
	}
	return result
}

// MaxHistory is the longest price history any registered strategy needs.
func (e *Engine) MaxHistory() int {
	n := 0
	for _, s := range e.GetAll() {
		if h := s.RequiredData().PriceHistory; h > n {
			n = h
		}
	}
	return n
}

// Analyze runs all strategies on the given context
func (e *Engine) Analyze(ctx context.Context, analysisCtx AnalysisContext) ([]core.Signal, error) {
	return e.run(ctx, analysisCtx, e.GetAll())
}

// AnalyzeWithStrategies runs specific strategies
func (e *Engine) AnalyzeWithStrategies(ctx context.Context, analysisCtx AnalysisContext, strategyNames []string) ([]core.Signal, error) {
	var strategies []Strategy
	for _, name := range strategyNames {
		if s, ok := e.Get(name); ok {
			strategies = append(strategies, s)
		}
	}
	return e.run(ctx, analysisCtx, strategies)
}

func (e *Engine) run(ctx context.Context, analysisCtx AnalysisContext, strategies []Strategy) ([]core.Signal, error) {
	var allSignals []core.Signal

	for _, s := range strategies {
		select {
		case <-ctx.Done():
			return allSignals, ctx.Err()
		default:
		}

		signals, err := s.Analyze(analysisCtx)
		if err != nil {
			e.logger.Warn("strategy analysis failed",
				zap.String("strategy", s.Name()),
				zap.String("symbol", analysisCtx.Symbol),
				zap.Error(err),
			)
			continue
		}

		// Add strategy name to signals
		for i := range signals {
			signals[i].Strategy = s.Name()
		}

		allSignals = append(allSignals, signals...)
	}

	return allSignals, nil
}
