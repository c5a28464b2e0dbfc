package ratelimiter

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	DefaultPrivateChatRate = time.Second
	DefaultGroupChatRate   = 3 * time.Second

	queueSize = 1000
)

// API is the part of *bot.Bot the limiter forwards to.
type API interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	DeleteMessage(ctx context.Context, params *bot.DeleteMessageParams) (bool, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

type request struct {
	ctx      context.Context
	chatID   int64
	method   string
	call     func(ctx context.Context) error
	response chan error
}

// RateLimiter serializes Telegram calls through one queue and keeps at
// least the configured interval between two calls to the same chat.
type RateLimiter struct {
	api         API
	queue       chan request
	lastSent    map[int64]time.Time
	mu          sync.Mutex
	privateRate time.Duration
	groupRate   time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	stopped     chan struct{}
	log         *slog.Logger
}

type Option func(*RateLimiter)

func WithRates(private, group time.Duration) Option {
	return func(rl *RateLimiter) {
		rl.privateRate = private
		rl.groupRate = group
	}
}

func New(api API, log *slog.Logger, opts ...Option) *RateLimiter {
	ctx, cancel := context.WithCancel(context.Background())

	rl := &RateLimiter{
		api:         api,
		queue:       make(chan request, queueSize),
		lastSent:    make(map[int64]time.Time),
		privateRate: DefaultPrivateChatRate,
		groupRate:   DefaultGroupChatRate,
		ctx:         ctx,
		cancel:      cancel,
		stopped:     make(chan struct{}),
		log:         log,
	}
	for _, opt := range opts {
		opt(rl)
	}

	go rl.processQueue()

	return rl
}

func (rl *RateLimiter) SendMessage(
	ctx context.Context,
	params *bot.SendMessageParams,
) (*models.Message, error) {
	var message *models.Message
	err := rl.enqueue(ctx, chatIDOf(params.ChatID), "sendMessage", func(ctx context.Context) error {
		var err error
		message, err = rl.api.SendMessage(ctx, params)
		return err
	})

	return message, err
}

func (rl *RateLimiter) EditMessageText(
	ctx context.Context,
	params *bot.EditMessageTextParams,
) (*models.Message, error) {
	var message *models.Message
	err := rl.enqueue(ctx, chatIDOf(params.ChatID), "editMessageText", func(ctx context.Context) error {
		var err error
		message, err = rl.api.EditMessageText(ctx, params)
		return err
	})

	return message, err
}

func (rl *RateLimiter) DeleteMessage(
	ctx context.Context,
	params *bot.DeleteMessageParams,
) (bool, error) {
	var deleted bool
	err := rl.enqueue(ctx, chatIDOf(params.ChatID), "deleteMessage", func(ctx context.Context) error {
		var err error
		deleted, err = rl.api.DeleteMessage(ctx, params)
		return err
	})

	return deleted, err
}

// AnswerCallbackQuery is not a chat message and bypasses the queue.
func (rl *RateLimiter) AnswerCallbackQuery(
	ctx context.Context,
	params *bot.AnswerCallbackQueryParams,
) (bool, error) {
	return rl.api.AnswerCallbackQuery(ctx, params)
}

// Stop cancels queued calls. Calls already enqueued fail with
// context.Canceled.
func (rl *RateLimiter) Stop() {
	rl.cancel()
	<-rl.stopped
}

func (rl *RateLimiter) enqueue(
	ctx context.Context,
	chatID int64,
	method string,
	call func(ctx context.Context) error,
) error {
	req := request{
		ctx:      ctx,
		chatID:   chatID,
		method:   method,
		call:     call,
		response: make(chan error, 1),
	}

	select {
	case rl.queue <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-rl.ctx.Done():
		return rl.ctx.Err()
	}

	// The call closure writes into the caller's variables, so wait for the
	// worker either to answer or to exit for good.
	select {
	case err := <-req.response:
		return err
	case <-rl.stopped:
		select {
		case err := <-req.response:
			return err
		default:
			return rl.ctx.Err()
		}
	}
}

func (rl *RateLimiter) processQueue() {
	defer close(rl.stopped)

	for {
		select {
		case req := <-rl.queue:
			rl.handleRequest(req)
		case <-rl.ctx.Done():
			for {
				select {
				case req := <-rl.queue:
					req.response <- rl.ctx.Err()
				default:
					return
				}
			}
		}
	}
}

func (rl *RateLimiter) handleRequest(req request) {
	rl.mu.Lock()
	lastSent, exists := rl.lastSent[req.chatID]
	rl.mu.Unlock()

	if exists {
		delay := rl.delay(req.chatID, lastSent)

		if delay > 0 {
			rl.log.DebugContext(req.ctx, "Rate limiting message",
				"chatID", req.chatID,
				"delay", delay,
				"method", req.method,
				"queueLen", len(rl.queue))

			select {
			case <-time.After(delay):
			case <-req.ctx.Done():
				req.response <- req.ctx.Err()
				return
			case <-rl.ctx.Done():
				req.response <- rl.ctx.Err()
				return
			}
		}
	}

	err := req.call(req.ctx)

	rl.mu.Lock()
	rl.lastSent[req.chatID] = time.Now()
	rl.mu.Unlock()

	req.response <- err
}

func (rl *RateLimiter) delay(chatID int64, lastSent time.Time) time.Duration {
	elapsed := time.Since(lastSent)

	return max(rl.rate(chatID)-elapsed, 0)
}

// Group and channel chat IDs are negative.
func (rl *RateLimiter) rate(chatID int64) time.Duration {
	if chatID < 0 {
		return rl.groupRate
	}
	return rl.privateRate
}

func chatIDOf(chatID any) int64 {
	switch id := chatID.(type) {
	case int64:
		return id
	case int:
		return int64(id)
	case string:
		parsed, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			// @channelusername
			return -1
		}
		return parsed
	default:
		return 0
	}
}
