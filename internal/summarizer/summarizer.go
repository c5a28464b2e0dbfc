package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"pagegist/internal/delivery"
	"pagegist/internal/display"
	"pagegist/internal/domain"
	"pagegist/internal/extract"
	"pagegist/internal/pipeline"
	"pagegist/internal/provider"
	"pagegist/internal/settings"
)

const (
	extractingMessage = "🔍 Extracting page content..."
	startingMessage   = "🤖 Starting multi-agent pipeline..."

	titleBusy          = "Summary in progress"
	titleKeyRequired   = "API Key Required"
	titleNoContent     = "No content found"
	titleError         = "Error"
	messageBusy        = "Please wait until the current summary is ready."
	messageNoContent   = "Could not extract content from this page."
	defaultKeyGuidance = "Configure your API key in the settings."
)

var (
	ErrBusy            = errors.New("summary is already in progress")
	ErrExtractionEmpty = errors.New("no content extracted")
)

// Request is one summarization trigger. Text wins when set, otherwise URL
// is fetched and extracted.
type Request struct {
	Target domain.Target
	Text   string
	URL    string
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

type Runner interface {
	Run(
		ctx context.Context,
		source string,
		cfg domain.ProviderConfig,
		sink pipeline.ProgressSink,
	) (pipeline.Result, error)
}

type Config struct {
	Profiles       settings.Profiles
	RequestTimeout time.Duration
	DoneLinger     time.Duration
	// KeyGuidance tells the user how to configure a key for the provider.
	KeyGuidance func(id domain.ProviderID) string
}

// Service runs the whole flow for one trigger: settings, extraction,
// pipeline, delivery and user notices.
type Service struct {
	store    settings.Store
	fetcher  Fetcher
	runner   Runner
	channel  *delivery.Channel
	notifier display.Notifier
	cfg      Config
	guard    *runGuard
	log      *slog.Logger
}

func New(
	store settings.Store,
	fetcher Fetcher,
	runner Runner,
	channel *delivery.Channel,
	notifier display.Notifier,
	cfg Config,
	log *slog.Logger,
) *Service {
	if cfg.DoneLinger < 0 {
		cfg.DoneLinger = 0
	}

	return &Service{
		store:    store,
		fetcher:  fetcher,
		runner:   runner,
		channel:  channel,
		notifier: notifier,
		cfg:      cfg,
		guard:    newRunGuard(),
		log:      log,
	}
}

// Busy reports whether a run is active for target.
func (s *Service) Busy(target domain.Target) bool {
	return s.guard.busy(target)
}

func (s *Service) Summarize(ctx context.Context, req Request) error {
	target := req.Target
	log := s.log.With("target", target)

	release, ok := s.guard.acquire(target)
	if !ok {
		log.InfoContext(ctx, "Summary is already in progress")
		s.notify(ctx, target, titleBusy, messageBusy)
		return ErrBusy
	}
	defer release()

	stored, err := s.store.Settings(ctx, target)
	if err != nil {
		s.notify(ctx, target, titleError, "Failed to load settings.")
		return fmt.Errorf("load settings: %w", err)
	}

	cfg, err := settings.Resolve(stored, s.cfg.Profiles, s.cfg.RequestTimeout)
	if err != nil {
		var cfgErr *settings.ConfigurationError
		if errors.As(err, &cfgErr) {
			log.InfoContext(ctx, "API key is not configured", "provider", cfgErr.Provider)
			s.notify(ctx, target, titleKeyRequired, s.keyGuidance(cfgErr.Provider))
		}
		return err
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		s.send(ctx, target, delivery.ShowLoading(extractingMessage))

		text, err = s.extract(ctx, log, req.URL)
		if err != nil {
			s.send(ctx, target, delivery.HideLoading())
			s.notify(ctx, target, titleError, err.Error())
			return err
		}
		if text == "" {
			s.send(ctx, target, delivery.HideLoading())
			s.notify(ctx, target, titleNoContent, messageNoContent)
			return ErrExtractionEmpty
		}
	}

	s.send(ctx, target, delivery.ShowLoading(startingMessage))

	result, err := s.runner.Run(ctx, text, cfg, delivery.Sink{Channel: s.channel, Target: target})
	if err != nil {
		log.ErrorContext(ctx, "Failed to summarize", "error", err, "provider", cfg.Provider)
		s.send(ctx, target, delivery.HideLoading())
		s.notify(ctx, target, titleError, userMessage(err))
		return err
	}

	s.linger(ctx)

	s.send(ctx, target, delivery.HideLoading())
	s.send(ctx, target, delivery.ShowResult(result.Summary))

	log.InfoContext(ctx, "Summary is delivered", "runID", result.RunID, "provider", cfg.Provider)

	return nil
}

func (s *Service) extract(ctx context.Context, log *slog.Logger, url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" || s.fetcher == nil {
		return "", nil
	}

	doc, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}

	text := extract.Extract(doc)
	meta := extract.ReadMetadata(doc)

	log.DebugContext(ctx, "Page is extracted",
		"url", url,
		"title", meta.Title,
		"chars", len([]rune(text)))

	return text, nil
}

func (s *Service) send(ctx context.Context, target domain.Target, msg delivery.Message) {
	// A lost display message never fails the run.
	_ = s.channel.Send(ctx, target, msg)
}

func (s *Service) notify(ctx context.Context, target domain.Target, title, message string) {
	if s.notifier == nil {
		return
	}

	if err := s.notifier.Notify(ctx, target, title, message); err != nil {
		s.log.WarnContext(ctx, "Failed to notify",
			"error", err,
			"target", target,
			"title", title)
	}
}

func (s *Service) linger(ctx context.Context) {
	if s.cfg.DoneLinger == 0 {
		return
	}

	timer := time.NewTimer(s.cfg.DoneLinger)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (s *Service) keyGuidance(id domain.ProviderID) string {
	if s.cfg.KeyGuidance != nil {
		if guidance := s.cfg.KeyGuidance(id); guidance != "" {
			return guidance
		}
	}
	return defaultKeyGuidance
}

// userMessage prefers the backend error over the stage wrapper.
func userMessage(err error) string {
	var providerErr *provider.Error
	if errors.As(err, &providerErr) {
		return providerErr.Error()
	}

	var timeoutErr *provider.TimeoutError
	if errors.As(err, &timeoutErr) {
		return timeoutErr.Error()
	}

	return err.Error()
}
