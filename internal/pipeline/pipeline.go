package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"pagegist/internal/domain"
	"pagegist/internal/provider"
)

// ProgressSink receives progress events. Emit must not block the run for
// long and has no way to fail it.
type ProgressSink interface {
	Emit(ctx context.Context, event domain.ProgressEvent)
}

type SinkFunc func(ctx context.Context, event domain.ProgressEvent)

func (f SinkFunc) Emit(ctx context.Context, event domain.ProgressEvent) {
	f(ctx, event)
}

type discardSink struct{}

func (discardSink) Emit(context.Context, domain.ProgressEvent) {}

type Result struct {
	RunID    string
	Analysis string
	Draft    string
	Summary  string
}

// Orchestrator runs the three stage chain. Exactly one provider call is in
// flight per run.
type Orchestrator struct {
	client provider.Client
	log    *slog.Logger
}

func New(client provider.Client, log *slog.Logger) *Orchestrator {
	return &Orchestrator{client: client, log: log}
}

func (o *Orchestrator) Run(
	ctx context.Context,
	source string,
	cfg domain.ProviderConfig,
	sink ProgressSink,
) (Result, error) {
	if sink == nil {
		sink = discardSink{}
	}

	result := Result{RunID: uuid.NewString()}
	log := o.log.With("runID", result.RunID, "provider", cfg.Provider, "model", cfg.Model)

	log.InfoContext(ctx, "Pipeline is started", "sourceChars", len([]rune(source)))
	start := time.Now()

	for _, stage := range stages {
		var prompt string
		switch stage {
		case StageExtraction:
			prompt = extractionPrompt(source)
		case StageDrafting:
			prompt = draftingPrompt(result.Analysis, source)
		case StagePolishing:
			prompt = polishingPrompt(result.Draft)
		}

		output, err := o.runStage(ctx, log, sink, stage, prompt, cfg)
		if err != nil {
			log.WarnContext(ctx, "Pipeline is aborted", "error", err, "stage", stage.String())
			return Result{}, err
		}

		switch stage {
		case StageExtraction:
			result.Analysis = output
		case StageDrafting:
			result.Draft = output
		case StagePolishing:
			result.Summary = output
		}
	}

	sink.Emit(ctx, domain.ProgressEvent{Message: DoneMessage, Percent: DonePercent})
	log.InfoContext(ctx, "Pipeline is finished",
		"duration", time.Since(start),
		"summaryChars", len([]rune(result.Summary)))

	return result, nil
}

func (o *Orchestrator) runStage(
	ctx context.Context,
	log *slog.Logger,
	sink ProgressSink,
	stage Stage,
	prompt string,
	cfg domain.ProviderConfig,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Stage: stage, Cause: err}
	}

	sink.Emit(ctx, domain.ProgressEvent{
		Message: stage.ProgressMessage(),
		Percent: stage.Percent(),
	})

	start := time.Now()
	output, err := o.client.Complete(ctx, prompt, cfg)
	if err != nil {
		return "", &Error{Stage: stage, Cause: err}
	}

	output = strings.TrimSpace(output)
	if output == "" {
		return "", &Error{Stage: stage, Cause: ErrEmptyOutput}
	}

	log.DebugContext(ctx, "Stage is finished",
		"stage", stage.String(),
		"duration", time.Since(start),
		"promptChars", len([]rune(prompt)),
		"outputChars", len([]rune(output)))

	return output, nil
}
