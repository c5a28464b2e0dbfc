package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pagegist/internal/domain"
)

// ChatSettings returns the overrides stored for a chat. A chat without a row
// has empty settings.
func (d *Database) ChatSettings(ctx context.Context, chatID int64) (domain.Settings, error) {
	query := "select api_provider, groq_api_key, gemini_api_key from chat_settings where chat_id = ?"

	var provider, groqKey, geminiKey string
	err := d.db.QueryRowContext(ctx, query, chatID).Scan(&provider, &groqKey, &geminiKey)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Settings{}, nil
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to execute query: %w", err)
	}

	return domain.Settings{
		Provider:     domain.ProviderID(provider),
		GroqAPIKey:   groqKey,
		GeminiAPIKey: geminiKey,
	}, nil
}

// Settings implements settings.Store for Telegram targets.
func (d *Database) Settings(ctx context.Context, target domain.Target) (domain.Settings, error) {
	chatID, err := strconv.ParseInt(string(target), 10, 64)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("parse chat ID %q: %w", target, err)
	}

	return d.ChatSettings(ctx, chatID)
}

func (d *Database) SetProvider(ctx context.Context, chatID int64, provider domain.ProviderID) error {
	query := `insert into chat_settings (chat_id, api_provider) values (?, ?)
		on conflict (chat_id) do update set
			api_provider = excluded.api_provider,
			updated_at = current_timestamp`

	_, err := d.db.ExecContext(ctx, query, chatID, string(provider))

	return err
}

func (d *Database) SetAPIKey(
	ctx context.Context,
	chatID int64,
	provider domain.ProviderID,
	apiKey string,
) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return errors.New("API key is empty")
	}

	var column string
	switch provider {
	case domain.ProviderGroq:
		column = "groq_api_key"
	case domain.ProviderGemini:
		column = "gemini_api_key"
	default:
		return fmt.Errorf("unknown provider %q", provider)
	}

	query := fmt.Sprintf(`insert into chat_settings (chat_id, %[1]s) values (?, ?)
		on conflict (chat_id) do update set
			%[1]s = excluded.%[1]s,
			updated_at = current_timestamp`, column)

	_, err := d.db.ExecContext(ctx, query, chatID, apiKey)

	return err
}

func (d *Database) ClearAPIKeys(ctx context.Context, chatID int64) error {
	query := `update chat_settings
		set groq_api_key = '', gemini_api_key = '', updated_at = current_timestamp
		where chat_id = ?`

	_, err := d.db.ExecContext(ctx, query, chatID)

	return err
}
