package display

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"pagegist/internal/delivery"
	"pagegist/internal/domain"
	"pagegist/internal/markdown"
)

const (
	telegramMessageMaxLength = 4096
	// Leaves room for MarkdownV2 escaping of a result chunk.
	resultChunkLength = 3000

	progressBarCells = 10
	placeholderText  = "⏳ Working..."
)

// ErrNotPresent means the chat has no loading message to edit.
var ErrNotPresent = delivery.ErrNotPresent

// Messenger is the part of *bot.Bot the surface needs.
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	DeleteMessage(ctx context.Context, params *bot.DeleteMessageParams) (bool, error)
}

// Telegram shows progress as a single message per chat that is edited in
// place, and the result as fresh messages.
type Telegram struct {
	api     Messenger
	mu      sync.Mutex
	loading map[int64]int
	results map[int64]partialResult
	log     *slog.Logger
}

// partialResult remembers how many chunks of a result reached the chat so
// that a repeated show-result sends only the rest.
type partialResult struct {
	text string
	sent int
}

func NewTelegram(api Messenger, log *slog.Logger) *Telegram {
	return &Telegram{
		api:     api,
		loading: make(map[int64]int),
		results: make(map[int64]partialResult),
		log:     log,
	}
}

func TargetForChat(chatID int64) domain.Target {
	return domain.Target(strconv.FormatInt(chatID, 10))
}

func ChatID(target domain.Target) (int64, error) {
	chatID, err := strconv.ParseInt(string(target), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse chat ID %q: %w", target, err)
	}

	return chatID, nil
}

func (t *Telegram) Deliver(ctx context.Context, target domain.Target, msg delivery.Message) error {
	chatID, err := ChatID(target)
	if err != nil {
		return err
	}

	switch msg.Kind {
	case delivery.KindShowLoading:
		return t.showLoading(ctx, chatID, msg.Text)
	case delivery.KindUpdateLoading:
		return t.updateLoading(ctx, chatID, msg.Text, msg.Percent)
	case delivery.KindHideLoading:
		return t.hideLoading(ctx, chatID)
	case delivery.KindShowResult:
		return t.showResult(ctx, chatID, msg.Text)
	default:
		return fmt.Errorf("unsupported message kind %q", msg.Kind)
	}
}

// Inject posts a placeholder loading message so that following updates have
// something to edit.
func (t *Telegram) Inject(ctx context.Context, target domain.Target) error {
	chatID, err := ChatID(target)
	if err != nil {
		return err
	}

	return t.sendLoading(ctx, chatID, loadingText(placeholderText, 0))
}

func (t *Telegram) showLoading(ctx context.Context, chatID int64, text string) error {
	if _, ok := t.loadingID(chatID); ok {
		err := t.updateLoading(ctx, chatID, text, 0)
		if !errors.Is(err, ErrNotPresent) {
			return err
		}
	}

	return t.sendLoading(ctx, chatID, loadingText(text, 0))
}

func (t *Telegram) sendLoading(ctx context.Context, chatID int64, text string) error {
	message, err := t.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("send loading message: %w", err)
	}

	t.mu.Lock()
	previous, hadPrevious := t.loading[chatID]
	t.loading[chatID] = message.ID
	t.mu.Unlock()

	if hadPrevious && previous != message.ID {
		t.deleteMessage(ctx, chatID, previous)
	}

	return nil
}

func (t *Telegram) updateLoading(ctx context.Context, chatID int64, text string, percent int) error {
	messageID, ok := t.loadingID(chatID)
	if !ok {
		return ErrNotPresent
	}

	_, err := t.api.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      loadingText(text, percent),
		ParseMode: models.ParseModeMarkdown,
	})
	switch {
	case err == nil, isNotModified(err):
		return nil
	case isMessageGone(err):
		t.forgetLoading(chatID, messageID)
		return fmt.Errorf("%w: %v", ErrNotPresent, err)
	default:
		return fmt.Errorf("edit loading message: %w", err)
	}
}

// hideLoading keeps the message registered until the delete succeeds, so a
// retry deletes the same message.
func (t *Telegram) hideLoading(ctx context.Context, chatID int64) error {
	messageID, ok := t.loadingID(chatID)
	if !ok {
		return nil
	}

	if _, err := t.api.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	}); err != nil && !isMessageGone(err) {
		return fmt.Errorf("delete loading message: %w", err)
	}

	t.forgetLoading(chatID, messageID)

	return nil
}

// showResult sends the chunks in order and stops at the first failure. A
// repeated call with the same text resumes after the last sent chunk.
func (t *Telegram) showResult(ctx context.Context, chatID int64, text string) error {
	chunks := splitMessage(text, resultChunkLength)

	t.mu.Lock()
	start := 0
	if partial, ok := t.results[chatID]; ok && partial.text == text {
		start = partial.sent
	}
	delete(t.results, chatID)
	t.mu.Unlock()

	for i := start; i < len(chunks); i++ {
		if err := t.sendResultChunk(ctx, chatID, chunks[i]); err != nil {
			t.mu.Lock()
			t.results[chatID] = partialResult{text: text, sent: i}
			t.mu.Unlock()

			return fmt.Errorf("send result part %d of %d: %w", i+1, len(chunks), err)
		}
	}

	return nil
}

// sendResultChunk tries the rendered MarkdownV2 first and falls back to the
// raw text when Telegram refuses the entities.
func (t *Telegram) sendResultChunk(ctx context.Context, chatID int64, chunk string) error {
	rendered := markdown.RenderV2(chunk)
	if len([]rune(rendered)) <= telegramMessageMaxLength {
		_, err := t.api.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      rendered,
			ParseMode: models.ParseModeMarkdown,
		})
		if err == nil {
			return nil
		}
		if !isParseError(err) {
			return fmt.Errorf("send result: %w", err)
		}

		t.log.WarnContext(ctx, "Failed to send rendered result, sending plain text",
			"error", err,
			"chatID", chatID)
	}

	if _, err := t.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   chunk,
	}); err != nil {
		return fmt.Errorf("send plain result: %w", err)
	}

	return nil
}

func (t *Telegram) loadingID(chatID int64) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, ok := t.loading[chatID]
	return id, ok
}

func (t *Telegram) forgetLoading(chatID int64, messageID int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.loading[chatID] == messageID {
		delete(t.loading, chatID)
	}
}

func (t *Telegram) deleteMessage(ctx context.Context, chatID int64, messageID int) {
	if _, err := t.api.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	}); err != nil && !isMessageGone(err) {
		t.log.WarnContext(ctx, "Failed to delete stale loading message",
			"error", err,
			"chatID", chatID,
			"messageID", messageID)
	}
}

func loadingText(text string, percent int) string {
	b := strings.Builder{}
	b.WriteString(markdown.EscapeV2(text))
	if percent > 0 {
		b.WriteString("\n")
		b.WriteString(markdown.Code(progressBar(percent)))
	}

	return b.String()
}

func progressBar(percent int) string {
	percent = min(max(percent, 0), 100)
	filled := percent * progressBarCells / 100

	return strings.Repeat("▰", filled) +
		strings.Repeat("▱", progressBarCells-filled) +
		fmt.Sprintf(" %d%%", percent)
}

// splitMessage cuts text into chunks of at most limit runes, preferring line
// boundaries.
func splitMessage(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if chunk := strings.TrimSpace(current.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
		currentLen = 0
	}

	for line := range strings.SplitSeq(text, "\n") {
		runes := []rune(line)

		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}

		if currentLen > 0 && currentLen+1+len(runes) > limit {
			flush()
		}
		if currentLen > 0 {
			current.WriteByte('\n')
			currentLen++
		}
		current.WriteString(string(runes))
		currentLen += len(runes)
	}
	flush()

	return chunks
}

func isNotModified(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "message is not modified")
}

func isMessageGone(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "message to edit not found") ||
		strings.Contains(msg, "message to delete not found") ||
		strings.Contains(msg, "message can't be edited") ||
		strings.Contains(msg, "message can't be deleted")
}

func isParseError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "can't parse entities")
}
