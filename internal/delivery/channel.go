package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pagegist/internal/domain"
)

const DefaultSettleInterval = 200 * time.Millisecond

// ErrNotPresent is returned (possibly wrapped) by a Surface that has no
// receiver for the target. Only this failure leads to injection.
var ErrNotPresent = errors.New("receiver is not present")

// Surface renders messages for a target. Deliver fails with ErrNotPresent
// when no receiver is present for the target. A Deliver repeated after any
// other failure must not duplicate what the first call already showed.
type Surface interface {
	Deliver(ctx context.Context, target domain.Target, msg Message) error
}

// Injector installs a receiver for a target so that a later Deliver can
// succeed.
type Injector interface {
	Inject(ctx context.Context, target domain.Target) error
}

// Failure describes a message that could not be delivered.
type Failure struct {
	Target domain.Target
	Kind   Kind
	Cause  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("deliver %s to %s: %v", f.Kind, f.Target, f.Cause)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// Channel is a best effort bridge to a Surface. Send never fails the caller.
type Channel struct {
	surface  Surface
	injector Injector
	settle   time.Duration
	log      *slog.Logger
}

type Option func(*Channel)

func WithInjector(injector Injector) Option {
	return func(c *Channel) {
		c.injector = injector
	}
}

func WithSettleInterval(d time.Duration) Option {
	return func(c *Channel) {
		c.settle = d
	}
}

// NewChannel builds a channel. A surface that also implements Injector is
// used as its own injector unless WithInjector says otherwise.
func NewChannel(surface Surface, log *slog.Logger, opts ...Option) *Channel {
	c := &Channel{
		surface: surface,
		settle:  DefaultSettleInterval,
		log:     log,
	}
	if injector, ok := surface.(Injector); ok {
		c.injector = injector
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Send delivers msg directly. When the receiver is not present it injects
// one, waits the settle interval and retries exactly once; other failures
// get the same single retry without injection. A nil Ack means the message
// was not delivered.
func (c *Channel) Send(ctx context.Context, target domain.Target, msg Message) *Ack {
	firstErr := c.surface.Deliver(ctx, target, msg)
	if firstErr == nil {
		return &Ack{Target: target, Kind: msg.Kind, Attempts: 1}
	}

	if errors.Is(firstErr, ErrNotPresent) {
		if c.injector == nil {
			c.fail(ctx, &Failure{Target: target, Kind: msg.Kind, Cause: firstErr})
			return nil
		}

		c.log.DebugContext(ctx, "Receiver is not present, injecting",
			"error", firstErr,
			"target", target,
			"kind", msg.Kind)

		if err := c.injector.Inject(ctx, target); err != nil {
			c.fail(ctx, &Failure{
				Target: target,
				Kind:   msg.Kind,
				Cause:  errors.Join(firstErr, fmt.Errorf("inject receiver: %w", err)),
			})
			return nil
		}
	} else {
		c.log.DebugContext(ctx, "Failed to deliver message, retrying",
			"error", firstErr,
			"target", target,
			"kind", msg.Kind)
	}

	if err := sleep(ctx, c.settle); err != nil {
		c.fail(ctx, &Failure{Target: target, Kind: msg.Kind, Cause: errors.Join(firstErr, err)})
		return nil
	}

	if err := c.surface.Deliver(ctx, target, msg); err != nil {
		c.fail(ctx, &Failure{
			Target: target,
			Kind:   msg.Kind,
			Cause:  errors.Join(firstErr, fmt.Errorf("retry: %w", err)),
		})
		return nil
	}

	return &Ack{Target: target, Kind: msg.Kind, Attempts: 2}
}

func (c *Channel) fail(ctx context.Context, failure *Failure) {
	c.log.WarnContext(ctx, "Failed to deliver message",
		"error", failure,
		"target", failure.Target,
		"kind", failure.Kind)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
