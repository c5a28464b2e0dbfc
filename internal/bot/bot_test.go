package bot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"pagegist/internal/domain"
	"pagegist/internal/summarizer"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []*tgbot.SendMessageParams
	deleted  []int
	answered []string
}

func (a *fakeAPI) SendMessage(_ context.Context, params *tgbot.SendMessageParams) (*models.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, params)
	return &models.Message{ID: len(a.sent)}, nil
}

func (a *fakeAPI) EditMessageText(context.Context, *tgbot.EditMessageTextParams) (*models.Message, error) {
	return &models.Message{}, nil
}

func (a *fakeAPI) DeleteMessage(_ context.Context, params *tgbot.DeleteMessageParams) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deleted = append(a.deleted, params.MessageID)
	return true, nil
}

func (a *fakeAPI) AnswerCallbackQuery(_ context.Context, params *tgbot.AnswerCallbackQueryParams) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.answered = append(a.answered, params.CallbackQueryID)
	return true, nil
}

func (a *fakeAPI) lastText() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.sent) == 0 {
		return ""
	}
	return a.sent[len(a.sent)-1].Text
}

type fakeStore struct {
	chats map[int64]domain.Settings
}

func (s *fakeStore) ChatSettings(_ context.Context, chatID int64) (domain.Settings, error) {
	return s.chats[chatID], nil
}

func (s *fakeStore) SetProvider(_ context.Context, chatID int64, provider domain.ProviderID) error {
	current := s.chats[chatID]
	current.Provider = provider
	s.chats[chatID] = current
	return nil
}

func (s *fakeStore) SetAPIKey(_ context.Context, chatID int64, provider domain.ProviderID, apiKey string) error {
	current := s.chats[chatID]
	if provider == domain.ProviderGemini {
		current.GeminiAPIKey = apiKey
	} else {
		current.GroqAPIKey = apiKey
	}
	s.chats[chatID] = current
	return nil
}

func (s *fakeStore) ClearAPIKeys(_ context.Context, chatID int64) error {
	current := s.chats[chatID]
	current.GroqAPIKey = ""
	current.GeminiAPIKey = ""
	s.chats[chatID] = current
	return nil
}

type fakeSummarizer struct {
	mu       sync.Mutex
	requests []summarizer.Request
}

func (f *fakeSummarizer) Summarize(_ context.Context, req summarizer.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return nil
}

func newTestBot(defaults domain.Settings, allowed ...int64) (*Bot, *fakeAPI, *fakeStore, *fakeSummarizer) {
	api := &fakeAPI{}
	store := &fakeStore{chats: map[int64]domain.Settings{}}
	sum := &fakeSummarizer{}

	b := &Bot{
		api:              api,
		db:               store,
		summarizer:       sum,
		allowedUsers:     allowed,
		defaults:         defaults,
		providerKeyboard: getProviderKeyboard(),
		log:              slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	return b, api, store, sum
}

func messageUpdate(userID, chatID int64, text string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			ID:   42,
			From: &models.User{ID: userID},
			Chat: models.Chat{ID: chatID},
			Text: text,
		},
	}
}

func TestParseCommand(t *testing.T) {
	testCases := []struct {
		text, command, args string
	}{
		{"hello there", "", "hello there"},
		{"/start", "/start", ""},
		{"/Provider gemini", "/provider", "gemini"},
		{"/key@PageGistBot groq  abc ", "/key", "groq  abc"},
	}

	for _, tc := range testCases {
		command, args := parseCommand(tc.text)
		if command != tc.command || args != tc.args {
			t.Errorf("parseCommand(%q) = %q, %q, want %q, %q",
				tc.text, command, args, tc.command, tc.args)
		}
	}
}

func TestLinkMessageStartsURLSummary(t *testing.T) {
	b, _, _, sum := newTestBot(domain.Settings{})

	b.handleUpdate(t.Context(), nil, messageUpdate(1, 100, "look https://example.com/post"))
	b.runs.Wait()

	if len(sum.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(sum.requests))
	}
	req := sum.requests[0]
	if req.URL != "https://example.com/post" || req.Text != "" {
		t.Fatalf("request = %+v, want URL request", req)
	}
	if req.Target != "100" {
		t.Fatalf("target = %q, want 100", req.Target)
	}
}

func TestPlainTextStartsTextSummary(t *testing.T) {
	b, _, _, sum := newTestBot(domain.Settings{})
	text := strings.Repeat("Long pasted paragraph about something. ", 10) + "https://example.com"

	b.handleUpdate(t.Context(), nil, messageUpdate(1, 100, "/summarize "+text))
	b.runs.Wait()

	if len(sum.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(sum.requests))
	}
	if sum.requests[0].Text != text || sum.requests[0].URL != "" {
		t.Fatalf("request = %+v, want text request", sum.requests[0])
	}
}

func TestSummarizeWithoutArgsShowsUsage(t *testing.T) {
	b, api, _, sum := newTestBot(domain.Settings{})

	b.handleUpdate(t.Context(), nil, messageUpdate(1, 100, "/summarize"))
	b.runs.Wait()

	if len(sum.requests) != 0 {
		t.Fatalf("requests = %d, want 0", len(sum.requests))
	}
	if api.lastText() != summarizeUsageText {
		t.Fatalf("reply = %q, want usage", api.lastText())
	}
}

func TestDisallowedUserIsIgnored(t *testing.T) {
	b, api, _, sum := newTestBot(domain.Settings{}, 7)

	b.handleUpdate(t.Context(), nil, messageUpdate(8, 100, "https://example.com"))
	b.runs.Wait()

	if len(sum.requests) != 0 || len(api.sent) != 0 {
		t.Fatalf("disallowed user got a response")
	}
}

func TestProviderCommand(t *testing.T) {
	b, api, store, _ := newTestBot(domain.Settings{})

	b.handleUpdate(t.Context(), nil, messageUpdate(1, 100, "/provider gemini"))
	if got := store.chats[100].Provider; got != domain.ProviderGemini {
		t.Fatalf("provider = %q, want gemini", got)
	}
	if !strings.Contains(api.lastText(), "*Gemini*") {
		t.Fatalf("reply = %q, want confirmation", api.lastText())
	}

	b.handleUpdate(t.Context(), nil, messageUpdate(1, 100, "/provider openai"))
	if api.lastText() != unknownProviderText {
		t.Fatalf("reply = %q, want unknown provider", api.lastText())
	}

	b.handleUpdate(t.Context(), nil, messageUpdate(1, 100, "/provider"))
	last := api.sent[len(api.sent)-1]
	if last.ReplyMarkup == nil {
		t.Fatalf("provider prompt has no keyboard")
	}
}

func TestKeyCommandStoresKeyAndDeletesMessage(t *testing.T) {
	b, api, store, _ := newTestBot(domain.Settings{Provider: domain.ProviderGemini})

	b.handleUpdate(t.Context(), nil, messageUpdate(1, 100, "/key groq gsk-1"))
	if got := store.chats[100].GroqAPIKey; got != "gsk-1" {
		t.Fatalf("groq key = %q, want gsk-1", got)
	}
	if len(api.deleted) != 1 || api.deleted[0] != 42 {
		t.Fatalf("deleted = %v, want [42]", api.deleted)
	}
	if strings.Contains(api.lastText(), "gsk-1") {
		t.Fatalf("reply leaks the key: %q", api.lastText())
	}

	// Without a provider name the key goes to the active provider.
	b.handleUpdate(t.Context(), nil, messageUpdate(1, 100, "/key AIza-2"))
	if got := store.chats[100].GeminiAPIKey; got != "AIza-2" {
		t.Fatalf("gemini key = %q, want AIza-2", got)
	}

	b.handleUpdate(t.Context(), nil, messageUpdate(1, 100, "/forget"))
	if got := store.chats[100]; got.GroqAPIKey != "" || got.GeminiAPIKey != "" {
		t.Fatalf("keys are not cleared: %+v", got)
	}
}

func TestKeyCommandWithUnknownDefaultProviderUsesGroq(t *testing.T) {
	b, _, store, _ := newTestBot(domain.Settings{Provider: "openai"})

	b.handleUpdate(t.Context(), nil, messageUpdate(1, 100, "/key gsk-3"))

	if got := store.chats[100].GroqAPIKey; got != "gsk-3" {
		t.Fatalf("groq key = %q, want gsk-3", got)
	}
}

func TestSettingsCommand(t *testing.T) {
	b, api, store, _ := newTestBot(domain.Settings{Provider: domain.ProviderGroq, GroqAPIKey: "env"})
	store.chats[100] = domain.Settings{Provider: domain.ProviderGemini, GeminiAPIKey: "chat"}

	b.handleUpdate(t.Context(), nil, messageUpdate(1, 100, "/settings"))

	text := api.lastText()
	for _, want := range []string{
		"Provider: *Gemini*",
		"Groq API key: set by default",
		"Gemini API key: set for this chat",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("settings reply %q does not contain %q", text, want)
		}
	}
}

func TestProviderCallback(t *testing.T) {
	b, api, store, _ := newTestBot(domain.Settings{})

	b.handleUpdate(t.Context(), nil, &models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:   "cb-1",
			From: models.User{ID: 1},
			Message: models.MaybeInaccessibleMessage{
				Message: &models.Message{Chat: models.Chat{ID: 100}},
			},
			Data: providerCallbackPrefix + "gemini",
		},
	})

	if len(api.answered) != 1 || api.answered[0] != "cb-1" {
		t.Fatalf("answered = %v, want [cb-1]", api.answered)
	}
	if got := store.chats[100].Provider; got != domain.ProviderGemini {
		t.Fatalf("provider = %q, want gemini", got)
	}
}

func TestKeyGuidanceNamesCommand(t *testing.T) {
	got := KeyGuidance(domain.ProviderGemini)
	if !strings.Contains(got, "/key gemini") || !strings.Contains(got, "Gemini API key") {
		t.Fatalf("KeyGuidance = %q", got)
	}
}
