package bot

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"pagegist/internal/display"
	"pagegist/internal/domain"
	"pagegist/internal/ratelimiter"
	"pagegist/internal/summarizer"
)

const (
	updateProcessingTimeout = 60 * time.Second
	// Three provider calls plus extraction.
	runTimeout = 5 * time.Minute
)

// API is what handlers need from Telegram.
type API interface {
	display.Messenger
	AnswerCallbackQuery(ctx context.Context, params *tgbot.AnswerCallbackQueryParams) (bool, error)
}

// SettingsStore persists per chat overrides.
type SettingsStore interface {
	ChatSettings(ctx context.Context, chatID int64) (domain.Settings, error)
	SetProvider(ctx context.Context, chatID int64, provider domain.ProviderID) error
	SetAPIKey(ctx context.Context, chatID int64, provider domain.ProviderID, apiKey string) error
	ClearAPIKeys(ctx context.Context, chatID int64) error
}

type Summarizer interface {
	Summarize(ctx context.Context, req summarizer.Request) error
}

type Config struct {
	Token        string
	AllowedUsers []int64
	// Defaults are the env level settings shown by /settings.
	Defaults domain.Settings
}

type Bot struct {
	client           *tgbot.Bot
	rateLimiter      *ratelimiter.RateLimiter
	api              API
	db               SettingsStore
	summarizer       Summarizer
	allowedUsers     []int64
	defaults         domain.Settings
	providerKeyboard *models.InlineKeyboardMarkup
	runs             sync.WaitGroup
	log              *slog.Logger
}

// New connects to Telegram. newSummarizer receives the paced messenger so
// that display surfaces share the bot's rate limiter.
func New(
	cfg Config,
	db SettingsStore,
	newSummarizer func(messenger display.Messenger) Summarizer,
	log *slog.Logger,
) (*Bot, error) {
	b := &Bot{
		db:               db,
		allowedUsers:     cfg.AllowedUsers,
		defaults:         cfg.Defaults,
		providerKeyboard: getProviderKeyboard(),
		log:              log,
	}

	client, err := tgbot.New(
		strings.TrimSpace(cfg.Token),
		tgbot.WithDefaultHandler(b.handleUpdate),
		tgbot.WithErrorsHandler(func(err error) {
			log.Error("Failed to get updates", "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	b.client = client
	b.rateLimiter = ratelimiter.New(client, log)
	b.api = b.rateLimiter
	b.summarizer = newSummarizer(b.rateLimiter)

	return b, nil
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	b.log.InfoContext(ctx, "Bot is started")
	b.client.Start(ctx)
	b.log.InfoContext(ctx, "Bot context is done", "error", ctx.Err())
}

// Stop waits for running summaries and releases the rate limiter.
func (b *Bot) Stop() {
	b.runs.Wait()

	if b.rateLimiter != nil {
		b.rateLimiter.Stop()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update == nil {
		return
	}

	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	switch {
	case update.Message != nil:
		message := update.Message
		if message.From == nil || !b.userAllowed(message.From.ID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", userID(message.From),
				"chatID", message.Chat.ID,
				"chatType", message.Chat.Type)

			return
		}

		// Runs outlive the update, so they get the parent context.
		if err := b.handleMessage(updateCtx, ctx, message); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle message",
				"error", err,
				"chatID", message.Chat.ID,
				"userID", message.From.ID,
				"chatType", message.Chat.Type,
				"messageID", message.ID)
		}

	case update.CallbackQuery != nil:
		callback := update.CallbackQuery
		if !b.userAllowed(callback.From.ID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", callback.From.ID,
				"chatID", callbackChatID(callback),
				"data", callback.Data)

			return
		}

		if err := b.handleCallbackQuery(updateCtx, callback); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle callback query",
				"error", err,
				"chatID", callbackChatID(callback),
				"userID", callback.From.ID,
				"data", callback.Data)
		}
	}
}

func (b *Bot) userAllowed(userID int64) bool {
	return len(b.allowedUsers) == 0 || slices.Contains(b.allowedUsers, userID)
}

func userID(user *models.User) int64 {
	if user == nil {
		return 0
	}
	return user.ID
}

func callbackChatID(callback *models.CallbackQuery) int64 {
	if callback.Message.Message != nil {
		return callback.Message.Message.Chat.ID
	}
	if callback.Message.InaccessibleMessage != nil {
		return callback.Message.InaccessibleMessage.Chat.ID
	}

	return callback.From.ID
}
