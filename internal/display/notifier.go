package display

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"pagegist/internal/domain"
	"pagegist/internal/markdown"
)

// Notifier shows a short user visible notice outside of the loading flow.
type Notifier interface {
	Notify(ctx context.Context, target domain.Target, title, message string) error
}

type TelegramNotifier struct {
	api Messenger
}

func NewTelegramNotifier(api Messenger) *TelegramNotifier {
	return &TelegramNotifier{api: api}
}

func (n *TelegramNotifier) Notify(
	ctx context.Context,
	target domain.Target,
	title string,
	message string,
) error {
	chatID, err := ChatID(target)
	if err != nil {
		return err
	}

	b := strings.Builder{}
	b.WriteString(markdown.Bold(title))
	if message = strings.TrimSpace(message); message != "" {
		b.WriteString("\n")
		b.WriteString(markdown.EscapeV2(message))
	}

	if _, err := n.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      b.String(),
		ParseMode: models.ParseModeMarkdown,
	}); err != nil {
		return fmt.Errorf("send notice: %w", err)
	}

	return nil
}
