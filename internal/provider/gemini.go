package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"pagegist/internal/domain"
)

const (
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent"
	DefaultGeminiModel    = "gemini-2.5-flash"

	maxResponseBytes = 4 << 20
)

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// Gemini talks to the generateContent API. The key travels as a query
// parameter, there is no auth header.
type Gemini struct {
	httpClient *http.Client
}

func NewGemini(httpClient *http.Client) *Gemini {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Gemini{httpClient: httpClient}
}

func (g *Gemini) Complete(
	ctx context.Context,
	prompt string,
	cfg domain.ProviderConfig,
) (string, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultGeminiEndpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}

	query := u.Query()
	query.Set("key", cfg.APIKey)
	u.RawQuery = query.Encode()

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req) //nolint:gosec // Endpoint comes from operator config.
	if err != nil {
		// url.Error carries the full URL including the key.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}

		return "", &Error{
			Provider: domain.ProviderGemini,
			Reason:   fmt.Sprintf("%s: %v", requestFailed(domain.ProviderGemini), err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &Error{
			Provider:   domain.ProviderGemini,
			StatusCode: resp.StatusCode,
			Reason:     fmt.Sprintf("read body: %v", err),
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		reason := strings.TrimSpace(gjson.GetBytes(raw, "error.message").String())
		if reason == "" {
			reason = requestFailed(domain.ProviderGemini)
		}

		return "", &Error{
			Provider:   domain.ProviderGemini,
			StatusCode: resp.StatusCode,
			Reason:     reason,
		}
	}

	if !gjson.ValidBytes(raw) {
		return "", &Error{
			Provider:   domain.ProviderGemini,
			StatusCode: resp.StatusCode,
			Reason:     "malformed response: body is not JSON",
		}
	}

	text := gjson.GetBytes(raw, "candidates.0.content.parts.0.text")
	if !text.Exists() {
		reason := "malformed response: no candidate text"
		if block := gjson.GetBytes(raw, "promptFeedback.blockReason").String(); block != "" {
			reason = fmt.Sprintf("%s (block reason = %s)", reason, block)
		}

		return "", &Error{
			Provider:   domain.ProviderGemini,
			StatusCode: resp.StatusCode,
			Reason:     reason,
		}
	}

	return text.String(), nil
}
