package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/newthinker/twquant/internal/core"
	"github.com/newthinker/twquant/internal/notifier"
)

func TestTelegram_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Telegram)(nil)
}

func TestTelegram_Name(t *testing.T) {
	tg := New("token", "chatid")
	if tg.Name() != "telegram" {
		t.Errorf("expected 'telegram', got '%s'", tg.Name())
	}
}

func TestTelegram_Init(t *testing.T) {
	tg := &Telegram{}

	cfg := notifier.Config{
		Params: map[string]any{
			"bot_token": "test-token",
			"chat_id":   "test-chat",
		},
	}

	err := tg.Init(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tg.botToken != "test-token" {
		t.Errorf("expected bot_token 'test-token', got '%s'", tg.botToken)
	}
	if tg.chatID != "test-chat" {
		t.Errorf("expected chat_id 'test-chat', got '%s'", tg.chatID)
	}
	if tg.apiURL != defaultAPIURL {
		t.Errorf("expected default api url, got '%s'", tg.apiURL)
	}
}

func TestTelegram_Init_MissingToken(t *testing.T) {
	tg := &Telegram{}
	err := tg.Init(notifier.Config{Params: map[string]any{"chat_id": "test-chat"}})
	if !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("expected ErrConfigMissing, got %v", err)
	}
}

func TestTelegram_Init_MissingChatID(t *testing.T) {
	tg := &Telegram{}
	err := tg.Init(notifier.Config{Params: map[string]any{"bot_token": "test-token"}})
	if !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("expected ErrConfigMissing, got %v", err)
	}
}

func TestTelegram_Send(t *testing.T) {
	var payloads []map[string]any
	var paths []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]any
		json.NewDecoder(r.Body).Decode(&p)
		payloads = append(payloads, p)
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tg := New("test-token", "42")
	tg.apiURL = server.URL

	err := tg.Send(context.Background(), notifier.Message{Title: "Weekly", Text: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(payloads) != 1 {
		t.Fatalf("expected 1 request, got %d", len(payloads))
	}
	if paths[0] != "/bottest-token/sendMessage" {
		t.Errorf("unexpected path %s", paths[0])
	}
	if payloads[0]["chat_id"] != "42" {
		t.Errorf("unexpected chat_id %v", payloads[0]["chat_id"])
	}
	if payloads[0]["parse_mode"] != "Markdown" {
		t.Errorf("expected Markdown parse mode, got %v", payloads[0]["parse_mode"])
	}
	if payloads[0]["text"] != "*Weekly*\n\nhello" {
		t.Errorf("unexpected text %q", payloads[0]["text"])
	}
}

func TestTelegram_Send_SplitsLongText(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]any
		json.NewDecoder(r.Body).Decode(&p)
		if n := utf8.RuneCountInString(p["text"].(string)); n > MaxMessageRunes {
			t.Errorf("message part has %d runes", n)
		}
		requests++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tg := New("token", "chat")
	tg.apiURL = server.URL

	line := strings.Repeat("字", 99) + "\n"
	text := strings.Repeat(line, 100) // 10,000 runes

	if err := tg.Send(context.Background(), notifier.Message{Text: text}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requests != 3 {
		t.Errorf("expected 3 requests, got %d", requests)
	}
}

func TestTelegram_Send_EmptyIsNoop(t *testing.T) {
	tg := New("token", "chat")
	tg.apiURL = "http://127.0.0.1:0"

	if err := tg.Send(context.Background(), notifier.Message{Text: "  \n"}); err != nil {
		t.Errorf("expected no error for empty message, got %v", err)
	}
}

func TestTelegram_Send_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer server.Close()

	tg := New("token", "chat")
	tg.apiURL = server.URL

	err := tg.Send(context.Background(), notifier.Message{Text: "hello"})
	if !errors.Is(err, core.ErrNotifierFailed) {
		t.Fatalf("expected ErrNotifierFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Errorf("error should carry the status: %v", err)
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"short", "abc", 10, []string{"abc"}},
		{"line boundary", "aaa\nbbb\nccc", 8, []string{"aaa\nbbb\n", "ccc"}},
		{"long line", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"long line after short", "ab\ncdefghi", 4, []string{"ab\n", "cdef", "ghi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.text, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("Split() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("part %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
			if strings.Join(got, "") != tt.text {
				t.Errorf("parts do not reassemble the input")
			}
		})
	}
}
