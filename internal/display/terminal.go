package display

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"pagegist/internal/delivery"
	"pagegist/internal/domain"
)

// TerminalTarget is the only target a Terminal serves.
const TerminalTarget domain.Target = "terminal"

// Terminal renders progress and notices to one writer (usually stderr) and
// the result to another (usually stdout). It is always present.
type Terminal struct {
	mu       sync.Mutex
	progress io.Writer
	result   io.Writer
}

func NewTerminal(progress, result io.Writer) *Terminal {
	return &Terminal{progress: progress, result: result}
}

func (t *Terminal) Deliver(_ context.Context, _ domain.Target, msg delivery.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var err error
	switch msg.Kind {
	case delivery.KindShowLoading:
		_, err = fmt.Fprintf(t.progress, "%s\n", msg.Text)
	case delivery.KindUpdateLoading:
		_, err = fmt.Fprintf(t.progress, "[%3d%%] %s\n", msg.Percent, msg.Text)
	case delivery.KindHideLoading:
	case delivery.KindShowResult:
		_, err = fmt.Fprintf(t.result, "%s\n", strings.TrimRight(msg.Text, "\n"))
	default:
		err = fmt.Errorf("unsupported message kind %q", msg.Kind)
	}

	return err
}

func (t *Terminal) Notify(_ context.Context, _ domain.Target, title, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if message == "" {
		_, err := fmt.Fprintf(t.progress, "%s\n", title)
		return err
	}

	_, err := fmt.Fprintf(t.progress, "%s: %s\n", title, message)
	return err
}
