package bot

import (
	"context"
	"strings"

	"github.com/go-telegram/bot/models"

	"pagegist/internal/display"
	"pagegist/internal/source"
	"pagegist/internal/summarizer"
)

// handleMessage dispatches commands and treats everything else as input to
// summarize. runCtx outlives the update and bounds background runs.
func (b *Bot) handleMessage(ctx context.Context, runCtx context.Context, message *models.Message) error {
	text := strings.TrimSpace(message.Text)
	if text == "" {
		text = strings.TrimSpace(message.Caption)
	}
	if text == "" {
		return nil
	}

	chatID := message.Chat.ID
	command, args := parseCommand(text)

	switch command {
	case "":
		return b.startSummary(ctx, runCtx, chatID, text)
	case "/start", "/help":
		return b.sendMessage(ctx, chatID, welcomeText)
	case "/provider":
		return b.handleProviderCommand(ctx, chatID, args)
	case "/key":
		return b.handleKeyCommand(ctx, message, args)
	case "/forget":
		return b.handleForgetCommand(ctx, chatID)
	case "/settings":
		return b.handleSettingsCommand(ctx, chatID)
	case "/summarize":
		if args == "" {
			return b.sendMessage(ctx, chatID, summarizeUsageText)
		}
		return b.startSummary(ctx, runCtx, chatID, args)
	default:
		return b.sendMessage(ctx, chatID, unknownCommandText)
	}
}

// startSummary launches a background run for the chat. Link messages are
// fetched, other text is summarized as is.
func (b *Bot) startSummary(ctx context.Context, runCtx context.Context, chatID int64, text string) error {
	req := summarizer.Request{Target: display.TargetForChat(chatID)}
	if source.IsLinkMessage(text) {
		req.URL = source.FindURLs(text)[0]
	} else {
		req.Text = text
	}

	b.log.InfoContext(ctx, "Summary is requested",
		"chatID", chatID,
		"url", req.URL,
		"textLen", len(req.Text))

	b.runs.Go(func() {
		ctx, cancel := context.WithTimeout(runCtx, runTimeout)
		defer cancel()

		if err := b.summarizer.Summarize(ctx, req); err != nil {
			b.log.WarnContext(ctx, "Summary is not completed",
				"error", err,
				"chatID", chatID)
		}
	})

	return nil
}

// parseCommand splits "/cmd@botname args" into "/cmd" and "args". Plain text
// yields an empty command.
func parseCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", text
	}

	command, args, _ := strings.Cut(text, " ")
	if at := strings.IndexByte(command, '@'); at >= 0 {
		command = command[:at]
	}

	return strings.ToLower(command), strings.TrimSpace(args)
}
