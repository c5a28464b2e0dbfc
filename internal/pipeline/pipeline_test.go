package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagegist/internal/domain"
	"pagegist/internal/pipeline"
	"pagegist/internal/provider"
)

type scriptedClient struct {
	mu      sync.Mutex
	outputs []string
	errs    map[int]error
	prompts []string
}

func (c *scriptedClient) Complete(
	_ context.Context,
	prompt string,
	_ domain.ProviderConfig,
) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	call := len(c.prompts)
	c.prompts = append(c.prompts, prompt)
	if err := c.errs[call]; err != nil {
		return "", err
	}
	if call < len(c.outputs) {
		return c.outputs[call], nil
	}

	return "", nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []domain.ProgressEvent
}

func (r *eventRecorder) Emit(_ context.Context, event domain.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) percents() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event.Percent)
	}

	return out
}

func newOrchestrator(client provider.Client) *pipeline.Orchestrator {
	return pipeline.New(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRunChainsStagesAndReportsProgress(t *testing.T) {
	client := &scriptedClient{outputs: []string{"ANALYSIS-OUT", "  DRAFT-OUT\n", "FINAL-OUT"}}
	sink := &eventRecorder{}

	result, err := newOrchestrator(client).Run(
		context.Background(),
		"The source text.",
		domain.ProviderConfig{Provider: domain.ProviderGroq},
		sink,
	)
	require.NoError(t, err)

	assert.Equal(t, "FINAL-OUT", result.Summary)
	assert.Equal(t, "ANALYSIS-OUT", result.Analysis)
	assert.Equal(t, "DRAFT-OUT", result.Draft)
	assert.NotEmpty(t, result.RunID)

	require.Len(t, client.prompts, 3)
	assert.Contains(t, client.prompts[0], "MAIN TOPIC")
	assert.Contains(t, client.prompts[0], "The source text.")
	assert.Contains(t, client.prompts[1], "ANALYSIS:\nANALYSIS-OUT")
	assert.Contains(t, client.prompts[1], "SOURCE TEXT:\nThe source text.")
	assert.Contains(t, client.prompts[1], "## 📌 TL;DR")
	assert.Contains(t, client.prompts[2], "DRAFT-OUT")
	assert.Contains(t, client.prompts[2], "## 🤔 Think About")
	assert.Contains(t, client.prompts[2], "## 📊 Stats")
	assert.NotContains(t, client.prompts[2], "The source text.")

	assert.Equal(t, []int{10, 45, 80, 100}, sink.percents())
	assert.Equal(t, []domain.ProgressEvent{
		{Message: "🔍 Agent 1/3 — Analyzing content...", Percent: 10},
		{Message: "📝 Agent 2/3 — Writing summary...", Percent: 45},
		{Message: "✨ Agent 3/3 — Polishing & insights...", Percent: 80},
		{Message: "✅ Done!", Percent: 100},
	}, sink.events)
}

func TestRunStopsAtFailingStage(t *testing.T) {
	backendErr := &provider.Error{
		Provider:   domain.ProviderGroq,
		StatusCode: http.StatusUnauthorized,
		Reason:     "bad key",
	}
	client := &scriptedClient{
		outputs: []string{"analysis", "draft", "final"},
		errs:    map[int]error{1: backendErr},
	}
	sink := &eventRecorder{}

	result, err := newOrchestrator(client).Run(
		context.Background(),
		"text",
		domain.ProviderConfig{Provider: domain.ProviderGroq},
		sink,
	)
	require.Error(t, err)
	assert.Equal(t, pipeline.Result{}, result)

	var stageErr *pipeline.Error
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, pipeline.StageDrafting, stageErr.Stage)

	var providerErr *provider.Error
	require.ErrorAs(t, err, &providerErr)
	assert.Contains(t, err.Error(), "bad key")

	assert.Len(t, client.prompts, 2, "polishing must not be called")
	assert.Equal(t, []int{10, 45}, sink.percents())
}

func TestRunFailsOnEmptyStageOutput(t *testing.T) {
	client := &scriptedClient{outputs: []string{"analysis", "   "}}

	_, err := newOrchestrator(client).Run(context.Background(), "text", domain.ProviderConfig{}, nil)

	require.ErrorIs(t, err, pipeline.ErrEmptyOutput)
	var stageErr *pipeline.Error
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, pipeline.StageDrafting, stageErr.Stage)
	assert.Len(t, client.prompts, 2)
}

func TestRunTruncatesSourcePerStageBudget(t *testing.T) {
	source := strings.Repeat("x", 12000)
	client := &scriptedClient{outputs: []string{"analysis", "draft", "final"}}

	_, err := newOrchestrator(client).Run(context.Background(), source, domain.ProviderConfig{}, nil)
	require.NoError(t, err)

	assert.Contains(t, client.prompts[0], strings.Repeat("x", 10000)+"...")
	assert.NotContains(t, client.prompts[0], strings.Repeat("x", 10001))
	assert.Contains(t, client.prompts[1], strings.Repeat("x", 8000)+"...")
	assert.NotContains(t, client.prompts[1], strings.Repeat("x", 8001))
}

func TestRunHonoursCancelledContext(t *testing.T) {
	client := &scriptedClient{outputs: []string{"analysis"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newOrchestrator(client).Run(ctx, "text", domain.ProviderConfig{}, nil)

	require.True(t, errors.Is(err, context.Canceled), "unexpected error: %v", err)
	assert.Empty(t, client.prompts)
}

func TestSinkFuncForwardsEvents(t *testing.T) {
	var got []domain.ProgressEvent
	sink := pipeline.SinkFunc(func(_ context.Context, event domain.ProgressEvent) {
		got = append(got, event)
	})

	client := &scriptedClient{outputs: []string{"a", "b", "c"}}
	_, err := newOrchestrator(client).Run(context.Background(), "text", domain.ProviderConfig{}, sink)
	require.NoError(t, err)

	require.Len(t, got, 4)
	assert.Equal(t, pipeline.DoneMessage, got[3].Message)
}

func TestStageMetadata(t *testing.T) {
	tests := []struct {
		stage   pipeline.Stage
		name    string
		percent int
		budget  int
	}{
		{pipeline.StageExtraction, "Extraction", 10, 10000},
		{pipeline.StageDrafting, "Drafting", 45, 8000},
		{pipeline.StagePolishing, "Polishing", 80, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.name, tt.stage.String())
		assert.Equal(t, tt.percent, tt.stage.Percent())
		assert.Equal(t, tt.budget, tt.stage.InputBudget())
	}
}
