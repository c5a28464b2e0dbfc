package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"pagegist/internal/domain"
	"pagegist/internal/provider"
	"pagegist/internal/settings"
)

type ProviderProfile struct {
	APIKey          string  `env:"API_KEY"`
	Model           string  `env:"MODEL"`
	Endpoint        string  `env:"ENDPOINT"`
	Temperature     float64 `env:"TEMPERATURE"`
	MaxOutputTokens int     `env:"MAX_OUTPUT_TOKENS"`
}

type Config struct {
	Token        string  `env:"TOKEN"`
	AllowedUsers []int64 `env:"ALLOWED_USERS"`
	DBPath       string  `env:"DB_PATH"       envDefault:"db.sqlite"`
	LogLevel     string  `env:"LOG_LEVEL"     envDefault:"info"`

	Provider domain.ProviderID `env:"API_PROVIDER" envDefault:"groq"`
	Groq     ProviderProfile   `envPrefix:"GROQ_"`
	Gemini   ProviderProfile   `envPrefix:"GEMINI_"`

	RequestTimeout       time.Duration `env:"REQUEST_TIMEOUT"        envDefault:"60s"`
	ProviderMaxAttempts  int           `env:"PROVIDER_MAX_ATTEMPTS"  envDefault:"1"`
	ProviderRetryBackoff time.Duration `env:"PROVIDER_RETRY_BACKOFF" envDefault:"2s"`
	SettleInterval       time.Duration `env:"SETTLE_INTERVAL"        envDefault:"200ms"`
	DoneLinger           time.Duration `env:"DONE_LINGER"            envDefault:"600ms"`
	FetchTimeout         time.Duration `env:"FETCH_TIMEOUT"          envDefault:"20s"`
}

// Load reads the config from the environment. Provider profiles start from
// the built-in defaults so that only overridden fields need to be set.
func Load() (Config, error) {
	cfg := Config{
		Groq:   defaultProfile(domain.ProviderGroq),
		Gemini: defaultProfile(domain.ProviderGemini),
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

func (c Config) DefaultSettings() domain.Settings {
	return domain.Settings{
		Provider:     c.Provider,
		GroqAPIKey:   strings.TrimSpace(c.Groq.APIKey),
		GeminiAPIKey: strings.TrimSpace(c.Gemini.APIKey),
	}
}

func (c Config) Profiles() settings.Profiles {
	return settings.Profiles{
		domain.ProviderGroq:   c.Groq.profile(),
		domain.ProviderGemini: c.Gemini.profile(),
	}
}

func (c Config) RouterOptions() []provider.RouterOption {
	if c.ProviderMaxAttempts <= 1 {
		return nil
	}

	return []provider.RouterOption{
		provider.WithRetry(c.ProviderMaxAttempts, c.ProviderRetryBackoff),
	}
}

func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (p ProviderProfile) profile() settings.Profile {
	temperature := p.Temperature

	return settings.Profile{
		Model:           p.Model,
		Endpoint:        p.Endpoint,
		Temperature:     &temperature,
		MaxOutputTokens: p.MaxOutputTokens,
	}
}

func defaultProfile(id domain.ProviderID) ProviderProfile {
	p := settings.DefaultProfile(id)

	return ProviderProfile{
		Model:           p.Model,
		Endpoint:        p.Endpoint,
		Temperature:     *p.Temperature,
		MaxOutputTokens: p.MaxOutputTokens,
	}
}
