package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pagegist/internal/domain"
	"pagegist/internal/provider"
)

const (
	DefaultTemperature     = 0.6
	DefaultMaxOutputTokens = 1000
)

// Store returns the settings that apply to a target.
type Store interface {
	Settings(ctx context.Context, target domain.Target) (domain.Settings, error)
}

// Static serves the same settings to every target.
type Static domain.Settings

func (s Static) Settings(context.Context, domain.Target) (domain.Settings, error) {
	return domain.Settings(s), nil
}

// Layered overlays Override on Base field by field. Empty override fields
// fall through to the base value.
type Layered struct {
	Base     Store
	Override Store
}

func (l Layered) Settings(ctx context.Context, target domain.Target) (domain.Settings, error) {
	base, err := l.Base.Settings(ctx, target)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load base settings: %w", err)
	}

	if l.Override == nil {
		return base, nil
	}

	override, err := l.Override.Settings(ctx, target)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load override settings: %w", err)
	}

	return Merge(base, override), nil
}

// Merge returns base with the non-empty fields of override applied.
func Merge(base, override domain.Settings) domain.Settings {
	merged := base
	if override.Provider != "" {
		merged.Provider = override.Provider
	}
	if override.GroqAPIKey != "" {
		merged.GroqAPIKey = override.GroqAPIKey
	}
	if override.GeminiAPIKey != "" {
		merged.GeminiAPIKey = override.GeminiAPIKey
	}

	return merged
}

// ConfigurationError means the active provider has no API key.
type ConfigurationError struct {
	Provider domain.ProviderID
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s API key is not configured", provider.DisplayName(e.Provider))
}

func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// Profile holds the per provider request parameters that do not come from
// the settings store. Temperature is a pointer because zero is a valid
// value; nil means the default.
type Profile struct {
	Model           string
	Endpoint        string
	Temperature     *float64
	MaxOutputTokens int
}

type Profiles map[domain.ProviderID]Profile

func DefaultProfile(id domain.ProviderID) Profile {
	temperature := DefaultTemperature

	switch id {
	case domain.ProviderGemini:
		return Profile{
			Model:           provider.DefaultGeminiModel,
			Endpoint:        provider.DefaultGeminiEndpoint,
			Temperature:     &temperature,
			MaxOutputTokens: DefaultMaxOutputTokens,
		}
	default:
		return Profile{
			Model:           provider.DefaultGroqModel,
			Endpoint:        provider.DefaultGroqEndpoint,
			Temperature:     &temperature,
			MaxOutputTokens: DefaultMaxOutputTokens,
		}
	}
}

// ParseProvider normalizes a provider name. ok is false for anything other
// than a known backend.
func ParseProvider(raw string) (domain.ProviderID, bool) {
	switch id := domain.ProviderID(strings.ToLower(strings.TrimSpace(raw))); id {
	case domain.ProviderGroq, domain.ProviderGemini:
		return id, true
	default:
		return "", false
	}
}

// Resolve builds the immutable provider config for one run. An unknown or
// empty provider falls back to Groq.
func Resolve(
	s domain.Settings,
	profiles Profiles,
	timeout time.Duration,
) (domain.ProviderConfig, error) {
	id, ok := ParseProvider(string(s.Provider))
	if !ok {
		id = domain.ProviderGroq
	}
	s.Provider = id

	apiKey := strings.TrimSpace(s.APIKey())
	if apiKey == "" {
		return domain.ProviderConfig{}, &ConfigurationError{Provider: id}
	}

	profile := DefaultProfile(id)
	if custom, ok := profiles[id]; ok {
		if custom.Model != "" {
			profile.Model = custom.Model
		}
		if custom.Endpoint != "" {
			profile.Endpoint = custom.Endpoint
		}
		if custom.Temperature != nil {
			profile.Temperature = custom.Temperature
		}
		if custom.MaxOutputTokens > 0 {
			profile.MaxOutputTokens = custom.MaxOutputTokens
		}
	}

	if timeout <= 0 {
		timeout = provider.DefaultTimeout
	}

	return domain.ProviderConfig{
		Provider:        id,
		APIKey:          apiKey,
		Model:           profile.Model,
		Endpoint:        profile.Endpoint,
		Temperature:     *profile.Temperature,
		MaxOutputTokens: profile.MaxOutputTokens,
		Timeout:         timeout,
	}, nil
}
