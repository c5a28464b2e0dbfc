package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/tidwall/gjson"

	"pagegist/internal/domain"
)

const (
	DefaultGroqEndpoint = "https://api.groq.com/openai/v1/"
	DefaultGroqModel    = "llama-3.3-70b-versatile"
)

// Groq talks to an OpenAI-compatible chat completions API. Endpoint in the
// provider config is the API base URL; the client appends chat/completions.
type Groq struct {
	httpClient *http.Client
}

func NewGroq(httpClient *http.Client) *Groq {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Groq{httpClient: httpClient}
}

func (g *Groq) Complete(
	ctx context.Context,
	prompt string,
	cfg domain.ProviderConfig,
) (string, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultGroqEndpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(endpoint),
		option.WithHTTPClient(g.httpClient),
		option.WithMaxRetries(0),
	)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(cfg.Temperature),
		MaxTokens:   openai.Int(int64(cfg.MaxOutputTokens)),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &Error{
				Provider:   domain.ProviderGroq,
				StatusCode: apiErr.StatusCode,
				Reason:     groqErrorMessage(apiErr),
			}
		}

		return "", &Error{
			Provider: domain.ProviderGroq,
			Reason:   fmt.Sprintf("%s: %v", requestFailed(domain.ProviderGroq), err),
		}
	}

	if len(resp.Choices) == 0 {
		return "", &Error{
			Provider:   domain.ProviderGroq,
			StatusCode: http.StatusOK,
			Reason:     "malformed response: no choices",
		}
	}

	return resp.Choices[0].Message.Content, nil
}

// groqErrorMessage digs the backend message out of an API error. The SDK may
// or may not unwrap the {"error": {...}} envelope, so both shapes are tried.
func groqErrorMessage(apiErr *openai.Error) string {
	raw := apiErr.RawJSON()
	for _, path := range []string{"error.message", "message"} {
		if msg := strings.TrimSpace(gjson.Get(raw, path).String()); msg != "" {
			return msg
		}
	}

	if msg := strings.TrimSpace(apiErr.Message); msg != "" {
		return msg
	}

	return requestFailed(domain.ProviderGroq)
}
