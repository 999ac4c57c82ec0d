// Package webhook implements an HTTP webhook notifier
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/twquant/internal/core"
	"github.com/newthinker/twquant/internal/notifier"
)

// Webhook posts messages as JSON to an HTTP endpoint
type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// New creates a new Webhook notifier
func New(url string, headers map[string]string) *Webhook {
	return &Webhook{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Init(cfg notifier.Config) error {
	if url, ok := cfg.Params["url"].(string); ok {
		w.url = url
	}
	if headers, ok := cfg.Params["headers"].(map[string]string); ok {
		w.headers = headers
	}

	if w.url == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("webhook: url is required"))
	}

	if w.client == nil {
		w.client = &http.Client{Timeout: 30 * time.Second}
	}

	return nil
}

type payload struct {
	Title   string          `json:"title"`
	Text    string          `json:"text"`
	Count   int             `json:"count"`
	Signals []signalPayload `json:"signals,omitempty"`
}

type signalPayload struct {
	Symbol      string         `json:"symbol"`
	Action      core.Action    `json:"action"`
	Confidence  float64        `json:"confidence"`
	Price       float64        `json:"price"`
	Reason      string         `json:"reason"`
	Strategy    string         `json:"strategy"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	GeneratedAt string         `json:"generated_at"`
}

func (w *Webhook) Send(ctx context.Context, msg notifier.Message) error {
	p := payload{
		Title: msg.Title,
		Text:  msg.Text,
		Count: len(msg.Signals),
	}
	for _, signal := range msg.Signals {
		p.Signals = append(p.Signals, signalPayload{
			Symbol:      signal.Symbol,
			Action:      signal.Action,
			Confidence:  signal.Confidence,
			Price:       signal.Price,
			Reason:      signal.Reason,
			Strategy:    signal.Strategy,
			Metadata:    signal.Metadata,
			GeneratedAt: signal.GeneratedAt.Format(time.RFC3339),
		})
	}
	return w.post(ctx, p)
}

func (w *Webhook) post(ctx context.Context, p payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("webhook: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return core.WrapError(core.ErrNotifierFailed, fmt.Errorf("webhook: request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return core.WrapError(core.ErrNotifierFailed, fmt.Errorf("webhook: server returned %d", resp.StatusCode))
	}

	return nil
}
