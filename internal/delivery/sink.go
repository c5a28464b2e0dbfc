package delivery

import (
	"context"

	"pagegist/internal/domain"
)

// Sink forwards pipeline progress to a target as update-loading messages.
type Sink struct {
	Channel *Channel
	Target  domain.Target
}

func (s Sink) Emit(ctx context.Context, event domain.ProgressEvent) {
	s.Channel.Send(ctx, s.Target, UpdateLoading(event.Message, event.Percent))
}
