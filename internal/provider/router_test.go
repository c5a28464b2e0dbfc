package provider_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"pagegist/internal/domain"
	"pagegist/internal/provider"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRouterDispatchesByProvider(t *testing.T) {
	router := provider.NewRouter(discardLogger())
	router.Register(domain.ProviderGroq, provider.ClientFunc(
		func(context.Context, string, domain.ProviderConfig) (string, error) { return "groq", nil },
	))
	router.Register(domain.ProviderGemini, provider.ClientFunc(
		func(context.Context, string, domain.ProviderConfig) (string, error) { return "gemini", nil },
	))

	for _, id := range []domain.ProviderID{domain.ProviderGroq, domain.ProviderGemini} {
		got, err := router.Complete(context.Background(), "p", domain.ProviderConfig{Provider: id})
		if err != nil {
			t.Fatalf("Complete(%s) returned error: %v", id, err)
		}
		if got != string(id) {
			t.Fatalf("Complete(%s) = %q", id, got)
		}
	}
}

func TestRouterRejectsUnknownProvider(t *testing.T) {
	router := provider.NewRouter(discardLogger())

	_, err := router.Complete(context.Background(), "p", domain.ProviderConfig{Provider: "openai"})
	if !errors.Is(err, provider.ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestRouterReportsTimeout(t *testing.T) {
	router := provider.NewRouter(discardLogger())
	router.Register(domain.ProviderGroq, provider.ClientFunc(
		func(ctx context.Context, _ string, _ domain.ProviderConfig) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	))

	start := time.Now()
	_, err := router.Complete(context.Background(), "p", domain.ProviderConfig{
		Provider: domain.ProviderGroq,
		Timeout:  20 * time.Millisecond,
	})

	var timeoutErr *provider.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected *provider.TimeoutError, got %T: %v", err, err)
	}
	if timeoutErr.After != 20*time.Millisecond {
		t.Fatalf("unexpected timeout: %s", timeoutErr.After)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("timeout error should unwrap to DeadlineExceeded: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("timeout took too long: %s", elapsed)
	}
}

func TestRouterCallerCancellationIsNotTimeout(t *testing.T) {
	router := provider.NewRouter(discardLogger())
	router.Register(domain.ProviderGroq, provider.ClientFunc(
		func(ctx context.Context, _ string, _ domain.ProviderConfig) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := router.Complete(ctx, "p", domain.ProviderConfig{Provider: domain.ProviderGroq})

	var timeoutErr *provider.TimeoutError
	if errors.As(err, &timeoutErr) {
		t.Fatalf("cancellation reported as timeout: %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func failingClient(calls *atomic.Int32, status int, succeedOn int32) provider.Client {
	return provider.ClientFunc(func(context.Context, string, domain.ProviderConfig) (string, error) {
		n := calls.Add(1)
		if succeedOn > 0 && n >= succeedOn {
			return "ok", nil
		}

		return "", &provider.Error{Provider: domain.ProviderGroq, StatusCode: status, Reason: "boom"}
	})
}

func TestRouterDoesNotRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	router := provider.NewRouter(discardLogger())
	router.Register(domain.ProviderGroq, failingClient(&calls, http.StatusServiceUnavailable, 2))

	_, err := router.Complete(context.Background(), "p", domain.ProviderConfig{Provider: domain.ProviderGroq})
	if err == nil {
		t.Fatal("expected error without retries")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestRouterRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	router := provider.NewRouter(discardLogger(), provider.WithRetry(3, time.Millisecond))
	router.Register(domain.ProviderGroq, failingClient(&calls, http.StatusTooManyRequests, 3))

	got, err := router.Complete(context.Background(), "p", domain.ProviderConfig{Provider: domain.ProviderGroq})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "ok" {
		t.Fatalf("unexpected completion: %q", got)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestRouterDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	router := provider.NewRouter(discardLogger(), provider.WithRetry(3, time.Millisecond))
	router.Register(domain.ProviderGroq, failingClient(&calls, http.StatusUnauthorized, 0))

	_, err := router.Complete(context.Background(), "p", domain.ProviderConfig{Provider: domain.ProviderGroq})

	var providerErr *provider.Error
	if !errors.As(err, &providerErr) || providerErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 provider error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}
