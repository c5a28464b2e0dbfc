package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pagegist/internal/bot"
	"pagegist/internal/config"
	"pagegist/internal/database"
	"pagegist/internal/display"
	"pagegist/internal/settings"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			if err := serve(ctx, cfg, log); err != nil {
				log.ErrorContext(ctx, "Bot is stopped with error", "error", err)
				return err
			}

			return nil
		},
	}
}

func serve(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	start := time.Now()

	if strings.TrimSpace(cfg.Token) == "" {
		return errors.New("TOKEN is required")
	}

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close db",
				"error", err,
				"dbPath", cfg.DBPath)
		}
	}()
	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	defaults := cfg.DefaultSettings()
	store := settings.Layered{Base: settings.Static(defaults), Override: db}
	deps := newComponents(cfg, log)

	botInst, err := bot.New(
		bot.Config{
			Token:        cfg.Token,
			AllowedUsers: cfg.AllowedUsers,
			Defaults:     defaults,
		},
		db,
		func(messenger display.Messenger) bot.Summarizer {
			return deps.summarizer(cfg, store,
				display.NewTelegram(messenger, log),
				display.NewTelegramNotifier(messenger),
				bot.KeyGuidance,
				log)
		},
		log,
	)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "Bot is initialized",
		"allowedUsersCount", len(cfg.AllowedUsers),
		"provider", defaults.Provider)

	botInst.Start(ctx)

	log.InfoContext(ctx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())

	botInst.Stop()
	log.InfoContext(ctx, "Bot is stopped",
		"uptimeSeconds", time.Since(start).Seconds())

	return nil
}
