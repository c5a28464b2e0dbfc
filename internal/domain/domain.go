package domain

import "time"

type ProviderID string

const (
	ProviderGroq   ProviderID = "groq"
	ProviderGemini ProviderID = "gemini"
)

// Target is an opaque handle of the place where progress and results are
// shown. The Telegram surface uses the decimal chat ID.
type Target string

type Settings struct {
	Provider     ProviderID
	GroqAPIKey   string
	GeminiAPIKey string
}

// APIKey returns the key of the active provider.
func (s Settings) APIKey() string {
	switch s.Provider {
	case ProviderGemini:
		return s.GeminiAPIKey
	default:
		return s.GroqAPIKey
	}
}

type ProviderConfig struct {
	Provider        ProviderID
	APIKey          string
	Model           string
	Endpoint        string
	Temperature     float64
	MaxOutputTokens int
	Timeout         time.Duration
}

type ProgressEvent struct {
	Message string
	Percent int
}
