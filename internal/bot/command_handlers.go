package bot

import (
	"context"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"pagegist/internal/domain"
	"pagegist/internal/markdown"
	"pagegist/internal/provider"
	"pagegist/internal/settings"
)

const (
	welcomeText = `👋 *Welcome to PageGist\!*

Send me a link or paste some text and I will summarize it in three passes: key points, draft, polish\.

*Commands*
/provider \- choose Groq or Gemini
/key \- store an API key for this chat
/forget \- remove stored API keys
/settings \- show current settings
/summarize \- summarize text or a link`

	summarizeUsageText  = "✖️ Usage: `/summarize <text or link>`"
	keyUsageText        = "✖️ Usage: `/key <groq|gemini> <key>` or `/key <key>` for the active provider"
	unknownCommandText  = "🤷 Unknown command\\. Send /help to see what I can do\\."
	unknownProviderText = "✖️ Unknown provider\\. Use `groq` or `gemini`\\."
	chooseProviderText  = "🧠 Choose the provider for this chat:"
	forgetText          = "✅ Stored API keys are removed\\."
)

// KeyGuidance tells chat users how to fix a missing key.
func KeyGuidance(id domain.ProviderID) string {
	return fmt.Sprintf("Send /key %s <your key> to store a %s API key for this chat.",
		id, provider.DisplayName(id))
}

func (b *Bot) handleProviderCommand(ctx context.Context, chatID int64, args string) error {
	if args == "" {
		return b.sendMessageWithKeyboard(ctx, chatID, chooseProviderText, b.providerKeyboard)
	}

	id, ok := settings.ParseProvider(args)
	if !ok {
		return b.sendMessage(ctx, chatID, unknownProviderText)
	}

	return b.setProvider(ctx, chatID, id)
}

func (b *Bot) setProvider(ctx context.Context, chatID int64, id domain.ProviderID) error {
	if err := b.db.SetProvider(ctx, chatID, id); err != nil {
		return fmt.Errorf("set provider: %w", err)
	}

	return b.sendMessage(ctx, chatID, fmt.Sprintf("✅ Provider is set to %s\\.",
		markdown.Bold(provider.DisplayName(id))))
}

// handleKeyCommand stores a key and removes the message that carried it.
func (b *Bot) handleKeyCommand(ctx context.Context, message *models.Message, args string) error {
	chatID := message.Chat.ID
	fields := strings.Fields(args)
	if len(fields) == 0 || len(fields) > 2 {
		return b.sendMessage(ctx, chatID, keyUsageText)
	}

	if _, err := b.api.DeleteMessage(ctx, &tgbot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: message.ID,
	}); err != nil {
		b.log.WarnContext(ctx, "Failed to delete message with API key",
			"error", err,
			"chatID", chatID,
			"messageID", message.ID)
	}

	var id domain.ProviderID
	key := fields[len(fields)-1]
	if len(fields) == 2 {
		parsed, ok := settings.ParseProvider(fields[0])
		if !ok {
			return b.sendMessage(ctx, chatID, unknownProviderText)
		}
		id = parsed
	} else {
		current, err := b.chatSettings(ctx, chatID)
		if err != nil {
			return err
		}
		id = current.Provider
	}

	if err := b.db.SetAPIKey(ctx, chatID, id, key); err != nil {
		return fmt.Errorf("set API key: %w", err)
	}

	return b.sendMessage(ctx, chatID, fmt.Sprintf(
		"✅ %s API key is saved for this chat\\. The message with the key is deleted\\.",
		markdown.EscapeV2(provider.DisplayName(id))))
}

func (b *Bot) handleForgetCommand(ctx context.Context, chatID int64) error {
	if err := b.db.ClearAPIKeys(ctx, chatID); err != nil {
		return fmt.Errorf("clear API keys: %w", err)
	}

	return b.sendMessage(ctx, chatID, forgetText)
}

func (b *Bot) handleSettingsCommand(ctx context.Context, chatID int64) error {
	stored, err := b.db.ChatSettings(ctx, chatID)
	if err != nil {
		return fmt.Errorf("get chat settings: %w", err)
	}
	current := mergeSettings(b.defaults, stored)

	var sb strings.Builder
	sb.WriteString("*⚙️ Settings*\n\n")
	fmt.Fprintf(&sb, "Provider: %s\n", markdown.Bold(provider.DisplayName(current.Provider)))
	fmt.Fprintf(&sb, "Groq API key: %s\n", keyStatus(stored.GroqAPIKey, b.defaults.GroqAPIKey))
	fmt.Fprintf(&sb, "Gemini API key: %s", keyStatus(stored.GeminiAPIKey, b.defaults.GeminiAPIKey))

	return b.sendMessageWithKeyboard(ctx, chatID, sb.String(), b.providerKeyboard)
}

func (b *Bot) chatSettings(ctx context.Context, chatID int64) (domain.Settings, error) {
	stored, err := b.db.ChatSettings(ctx, chatID)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("get chat settings: %w", err)
	}

	return mergeSettings(b.defaults, stored), nil
}

// mergeSettings falls back to Groq for an empty or unknown provider the same
// way settings.Resolve does.
func mergeSettings(defaults, stored domain.Settings) domain.Settings {
	merged := settings.Merge(defaults, stored)

	id, ok := settings.ParseProvider(string(merged.Provider))
	if !ok {
		id = domain.ProviderGroq
	}
	merged.Provider = id

	return merged
}

func keyStatus(chatKey, defaultKey string) string {
	switch {
	case chatKey != "":
		return "set for this chat"
	case defaultKey != "":
		return "set by default"
	default:
		return "not set"
	}
}
