package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"pagegist/internal/domain"
)

const DefaultTimeout = 60 * time.Second

// Router selects the backend named by the provider config and bounds each
// call with the configured timeout. Retries are off unless WithRetry is set.
type Router struct {
	clients  map[domain.ProviderID]Client
	attempts int
	backoff  time.Duration
	log      *slog.Logger
}

type RouterOption func(*Router)

// WithRetry allows up to attempts calls for rate limited or 5xx failures,
// doubling the backoff after every attempt.
func WithRetry(attempts int, backoff time.Duration) RouterOption {
	return func(r *Router) {
		r.attempts = attempts
		r.backoff = backoff
	}
}

func NewRouter(log *slog.Logger, opts ...RouterOption) *Router {
	r := &Router{
		clients:  make(map[domain.ProviderID]Client),
		attempts: 1,
		log:      log,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// NewDefaultRouter registers the Groq and Gemini backends.
func NewDefaultRouter(httpClient *http.Client, log *slog.Logger, opts ...RouterOption) *Router {
	r := NewRouter(log, opts...)
	r.Register(domain.ProviderGroq, NewGroq(httpClient))
	r.Register(domain.ProviderGemini, NewGemini(httpClient))

	return r
}

func (r *Router) Register(id domain.ProviderID, client Client) {
	r.clients[id] = client
}

func (r *Router) Complete(
	ctx context.Context,
	prompt string,
	cfg domain.ProviderConfig,
) (string, error) {
	client, ok := r.clients[cfg.Provider]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}

	attempts := max(1, r.attempts)
	delay := r.backoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := r.completeOnce(ctx, client, prompt, cfg)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if attempt == attempts || !retryable(ctx, err) {
			break
		}

		r.log.WarnContext(ctx, "Provider call failed, retrying",
			"error", err,
			"provider", cfg.Provider,
			"attempt", attempt,
			"maxAttempts", attempts,
			"delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", lastErr
		}
		delay *= 2
	}

	return "", lastErr
}

func (r *Router) completeOnce(
	ctx context.Context,
	client Client,
	prompt string,
	cfg domain.ProviderConfig,
) (string, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, err := client.Complete(callCtx, prompt, cfg)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return "", &TimeoutError{Provider: cfg.Provider, After: timeout}
	}

	return text, err
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var providerErr *Error
	if errors.As(err, &providerErr) {
		return providerErr.Retryable()
	}

	return false
}
