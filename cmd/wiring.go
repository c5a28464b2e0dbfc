package main

import (
	"log/slog"
	"net/http"

	"pagegist/internal/config"
	"pagegist/internal/delivery"
	"pagegist/internal/display"
	"pagegist/internal/domain"
	"pagegist/internal/pipeline"
	"pagegist/internal/provider"
	"pagegist/internal/settings"
	"pagegist/internal/source"
	"pagegist/internal/summarizer"
)

type components struct {
	fetcher      *source.Fetcher
	orchestrator *pipeline.Orchestrator
}

func newComponents(cfg config.Config, log *slog.Logger) components {
	router := provider.NewDefaultRouter(&http.Client{}, log, cfg.RouterOptions()...)

	return components{
		fetcher:      source.NewFetcher(cfg.FetchTimeout, log),
		orchestrator: pipeline.New(router, log),
	}
}

func (c components) summarizer(
	cfg config.Config,
	store settings.Store,
	surface delivery.Surface,
	notifier display.Notifier,
	keyGuidance func(domain.ProviderID) string,
	log *slog.Logger,
) *summarizer.Service {
	channel := delivery.NewChannel(surface, log, delivery.WithSettleInterval(cfg.SettleInterval))

	return summarizer.New(store, c.fetcher, c.orchestrator, channel, notifier, summarizer.Config{
		Profiles:       cfg.Profiles(),
		RequestTimeout: cfg.RequestTimeout,
		DoneLinger:     cfg.DoneLinger,
		KeyGuidance:    keyGuidance,
	}, log)
}
