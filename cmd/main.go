package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pagegist/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	cancel()

	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "pagegist",
		Short:        "Summarize pages and text with Groq or Gemini",
		SilenceUsage: true,
	}

	root.AddCommand(newServeCommand(), newSummarizeCommand(), newExtractCommand())

	return root
}

// newLogger logs JSON to stderr so that stdout stays free for results.
func newLogger(cfg config.Config) *slog.Logger {
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(log)

	return log
}

// loadConfig reads the environment and sets up the logger.
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}

	return cfg, newLogger(cfg), nil
}
