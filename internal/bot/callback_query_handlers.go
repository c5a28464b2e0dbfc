package bot

import (
	"context"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"pagegist/internal/settings"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *models.CallbackQuery) error {
	if strings.HasPrefix(callback.Data, providerCallbackPrefix) {
		return b.handleProviderCallback(ctx, callback)
	}

	b.log.WarnContext(ctx, "Unknown callback query",
		"data", callback.Data,
		"userID", callback.From.ID)

	return b.answerCallback(ctx, callback, "")
}

func (b *Bot) handleProviderCallback(ctx context.Context, callback *models.CallbackQuery) error {
	id, ok := settings.ParseProvider(strings.TrimPrefix(callback.Data, providerCallbackPrefix))
	if !ok {
		return b.answerCallback(ctx, callback, "Unknown provider")
	}

	if err := b.answerCallback(ctx, callback, ""); err != nil {
		b.log.WarnContext(ctx, "Failed to answer callback query",
			"error", err,
			"userID", callback.From.ID)
	}

	return b.setProvider(ctx, callbackChatID(callback), id)
}

func (b *Bot) answerCallback(ctx context.Context, callback *models.CallbackQuery, text string) error {
	_, err := b.api.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: callback.ID,
		Text:            text,
	})

	return err
}
