package notifier

import (
	"context"

	"github.com/newthinker/twquant/internal/core"
)

// Config holds notifier configuration
type Config struct {
	Type   string         `mapstructure:"type"`
	Params map[string]any `mapstructure:"params"`
}

// Message is one notification. Text is Markdown; Signals carries the
// structured form for notifiers that forward JSON.
type Message struct {
	Title   string
	Text    string
	Signals []core.Signal
}

// Notifier defines the interface for delivering reports and signals
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Init initializes the notifier with configuration
	Init(cfg Config) error

	// Send delivers one message
	Send(ctx context.Context, msg Message) error
}
