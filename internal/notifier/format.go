package notifier

import (
	"fmt"
	"strings"

	"github.com/newthinker/twquant/internal/core"
)

// SignalMessage renders signals as a single message.
func SignalMessage(signals []core.Signal) Message {
	var sb strings.Builder
	for i, signal := range signals {
		sb.WriteString(FormatSignal(signal))
		if i < len(signals)-1 {
			sb.WriteString("\n---\n\n")
		}
	}
	return Message{
		Title:   fmt.Sprintf("📊 %d Trading Signals", len(signals)),
		Text:    sb.String(),
		Signals: signals,
	}
}

// FormatSignal renders one signal as Markdown lines.
func FormatSignal(signal core.Signal) string {
	var sb strings.Builder

	// Action emoji
	actionEmoji := "📈"
	if signal.Action == core.ActionSell {
		actionEmoji = "📉"
	} else if signal.Action == core.ActionHold {
		actionEmoji = "⏸️"
	}

	sb.WriteString(fmt.Sprintf("%s *%s* - %s\n", actionEmoji, signal.Symbol, signal.Action))
	sb.WriteString(fmt.Sprintf("📊 Confidence: %.1f%%\n", signal.Confidence*100))

	if signal.Strategy != "" {
		sb.WriteString(fmt.Sprintf("🎯 Strategy: %s\n", signal.Strategy))
	}

	if signal.Reason != "" {
		sb.WriteString(fmt.Sprintf("💡 Reason: %s\n", signal.Reason))
	}

	if signal.Price > 0 {
		sb.WriteString(fmt.Sprintf("💰 Price: NT$%.2f\n", signal.Price))
	}

	sb.WriteString(fmt.Sprintf("⏰ Time: %s", signal.GeneratedAt.Format("2006-01-02 15:04:05")))

	return sb.String()
}
