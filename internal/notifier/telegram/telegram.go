package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/newthinker/twquant/internal/core"
	"github.com/newthinker/twquant/internal/notifier"
)

const (
	defaultAPIURL = "https://api.telegram.org"

	// MaxMessageRunes is the Bot API limit on a single message text.
	MaxMessageRunes = 4096
)

// Telegram implements the Notifier interface for Telegram Bot API
type Telegram struct {
	botToken string
	chatID   string
	apiURL   string
	client   *http.Client
}

// New creates a new Telegram notifier
func New(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		apiURL:   defaultAPIURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Init(cfg notifier.Config) error {
	if token, ok := cfg.Params["bot_token"].(string); ok {
		t.botToken = token
	}
	if chatID, ok := cfg.Params["chat_id"].(string); ok {
		t.chatID = chatID
	}
	if apiURL, ok := cfg.Params["api_url"].(string); ok && apiURL != "" {
		t.apiURL = apiURL
	}
	if t.apiURL == "" {
		t.apiURL = defaultAPIURL
	}
	if t.client == nil {
		t.client = &http.Client{Timeout: 30 * time.Second}
	}

	if t.botToken == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("telegram: bot_token is required"))
	}
	if t.chatID == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("telegram: chat_id is required"))
	}

	return nil
}

// Send posts msg as one or more Markdown messages. The title, when set,
// leads the first part in bold.
func (t *Telegram) Send(ctx context.Context, msg notifier.Message) error {
	text := msg.Text
	if msg.Title != "" {
		text = fmt.Sprintf("*%s*\n\n%s", msg.Title, msg.Text)
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	for _, part := range Split(text, MaxMessageRunes) {
		if err := t.sendMessage(ctx, part); err != nil {
			return err
		}
	}
	return nil
}

// Split breaks text into parts of at most limit runes, preferring line
// boundaries. A single line longer than limit is cut mid-line.
func Split(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var parts []string
	var cur strings.Builder
	curRunes := 0

	flush := func() {
		if curRunes > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			curRunes = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if curRunes+n <= limit {
			cur.WriteString(line)
			curRunes += n
			continue
		}
		flush()
		for n > limit {
			runes := []rune(line)
			parts = append(parts, string(runes[:limit]))
			line = string(runes[limit:])
			n -= limit
		}
		cur.WriteString(line)
		curRunes = n
	}
	flush()

	return parts
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.botToken)

	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return core.WrapError(core.ErrNotifierFailed, fmt.Errorf("telegram: failed to send message: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return core.WrapError(core.ErrNotifierFailed,
			fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result))
	}

	return nil
}
