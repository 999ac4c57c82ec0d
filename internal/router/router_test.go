package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newthinker/twquant/internal/core"
	"github.com/newthinker/twquant/internal/notifier"
	"github.com/newthinker/twquant/internal/storage/signal"
)

type mockNotifier struct {
	name     string
	messages []notifier.Message
	fail     bool
}

func (m *mockNotifier) Name() string                   { return m.name }
func (m *mockNotifier) Init(cfg notifier.Config) error { return nil }
func (m *mockNotifier) Send(ctx context.Context, msg notifier.Message) error {
	m.messages = append(m.messages, msg)
	if m.fail {
		return errors.New("send failed")
	}
	return nil
}

func (m *mockNotifier) received() int {
	n := 0
	for _, msg := range m.messages {
		n += len(msg.Signals)
	}
	return n
}

func setup(cfg Config, store signal.Store) (*Router, *mockNotifier) {
	registry := notifier.NewRegistry()
	mock := &mockNotifier{name: "mock"}
	registry.Register(mock)
	return New(cfg, registry, store, nil), mock
}

func TestRouter_Route_PassesFilters(t *testing.T) {
	r, mock := setup(Config{
		MinConfidence:    0.5,
		CooldownDuration: time.Hour,
		EnabledActions:   []core.Action{core.ActionBuy, core.ActionSell},
	}, nil)

	routed, err := r.Route(context.Background(), []core.Signal{
		{Symbol: "2330.TW", Action: core.ActionBuy, Confidence: 0.8},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(routed) != 1 || mock.received() != 1 {
		t.Errorf("expected 1 signal, got routed=%d received=%d", len(routed), mock.received())
	}
	if len(mock.messages) != 1 {
		t.Errorf("expected a single message, got %d", len(mock.messages))
	}
}

func TestRouter_Route_FilterByConfidence(t *testing.T) {
	r, mock := setup(Config{MinConfidence: 0.7, EnabledActions: []core.Action{core.ActionBuy}}, nil)

	r.Route(context.Background(), []core.Signal{
		{Symbol: "2330.TW", Action: core.ActionBuy, Confidence: 0.5},
	})

	if len(mock.messages) != 0 {
		t.Errorf("low confidence signal should be filtered, got %d messages", len(mock.messages))
	}
}

func TestRouter_Route_FilterByAction(t *testing.T) {
	r, mock := setup(Config{MinConfidence: 0.5, EnabledActions: []core.Action{core.ActionBuy}}, nil)

	r.Route(context.Background(), []core.Signal{
		{Symbol: "2330.TW", Action: core.ActionSell, Confidence: 0.8},
	})

	if len(mock.messages) != 0 {
		t.Errorf("sell action should be filtered, got %d messages", len(mock.messages))
	}
}

func TestRouter_Route_DuplicateWithinRun(t *testing.T) {
	r, mock := setup(DefaultConfig(), nil)

	sig := core.Signal{Symbol: "2330.TW", Action: core.ActionBuy, Confidence: 0.8}
	r.Route(context.Background(), []core.Signal{sig, sig})

	if mock.received() != 1 {
		t.Errorf("duplicate signal should be dropped, got %d", mock.received())
	}
}

func TestRouter_Route_Cooldown(t *testing.T) {
	store := signal.NewMemoryStore(100)
	r, mock := setup(Config{
		MinConfidence:    0.5,
		CooldownDuration: time.Hour,
		EnabledActions:   []core.Action{core.ActionBuy, core.ActionSell},
	}, store)

	now := time.Date(2024, 3, 8, 14, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	buy := core.Signal{Symbol: "2330.TW", Action: core.ActionBuy, Confidence: 0.8, GeneratedAt: now}

	// First signal passes
	r.Route(context.Background(), []core.Signal{buy})
	if mock.received() != 1 {
		t.Fatalf("first signal should pass, got %d", mock.received())
	}

	// Same symbol and action within cooldown is filtered
	r.Route(context.Background(), []core.Signal{buy})
	if mock.received() != 1 {
		t.Errorf("second signal should be filtered by cooldown, got %d", mock.received())
	}

	// Other action and other symbol pass
	r.Route(context.Background(), []core.Signal{
		{Symbol: "2330.TW", Action: core.ActionSell, Confidence: 0.8, GeneratedAt: now},
		{Symbol: "2603.TW", Action: core.ActionBuy, Confidence: 0.8, GeneratedAt: now},
	})
	if mock.received() != 3 {
		t.Errorf("expected 3 signals, got %d", mock.received())
	}

	// Cooldown expires
	now = now.Add(2 * time.Hour)
	buy.GeneratedAt = now
	r.Route(context.Background(), []core.Signal{buy})
	if mock.received() != 4 {
		t.Errorf("signal after cooldown should pass, got %d", mock.received())
	}
}

func TestRouter_PersistsSignals(t *testing.T) {
	store := signal.NewMemoryStore(100)
	r := New(Config{MinConfidence: 0.5, CooldownDuration: time.Hour}, nil, store, nil)

	r.Route(context.Background(), []core.Signal{{
		Symbol:      "2330.TW",
		Action:      core.ActionBuy,
		Confidence:  0.8,
		GeneratedAt: time.Now(),
	}})

	signals, _ := store.List(context.Background(), signal.ListFilter{})
	if len(signals) != 1 {
		t.Errorf("expected 1 persisted signal, got %d", len(signals))
	}
}

func TestRouter_NotifierFailureIsNotFatal(t *testing.T) {
	registry := notifier.NewRegistry()
	mock := &mockNotifier{name: "mock", fail: true}
	registry.Register(mock)
	r := New(DefaultConfig(), registry, nil, nil)

	routed, err := r.Route(context.Background(), []core.Signal{
		{Symbol: "2330.TW", Action: core.ActionBuy, Confidence: 0.8},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routed) != 1 {
		t.Errorf("expected the signal to be routed, got %d", len(routed))
	}
}

func TestRouter_GetStats(t *testing.T) {
	cfg := DefaultConfig()
	r := New(cfg, notifier.NewRegistry(), nil, nil)

	stats := r.GetStats()

	if stats["min_confidence"].(float64) != cfg.MinConfidence {
		t.Error("stats should include min_confidence")
	}
	if stats["cooldown_seconds"].(float64) != cfg.CooldownDuration.Seconds() {
		t.Error("stats should include cooldown_seconds")
	}
}

func TestRouter_DefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MinConfidence != 0.5 {
		t.Errorf("default min_confidence should be 0.5, got %f", cfg.MinConfidence)
	}

	if cfg.CooldownDuration != 72*time.Hour {
		t.Errorf("default cooldown should be 72 hours, got %v", cfg.CooldownDuration)
	}

	if len(cfg.EnabledActions) != 2 {
		t.Errorf("default should have 2 enabled actions, got %d", len(cfg.EnabledActions))
	}
}
