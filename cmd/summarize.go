package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"pagegist/internal/display"
	"pagegist/internal/domain"
	"pagegist/internal/settings"
	"pagegist/internal/summarizer"
)

type summarizeOptions struct {
	text     string
	provider string
}

func newSummarizeCommand() *cobra.Command {
	opts := &summarizeOptions{}

	command := &cobra.Command{
		Use:   "summarize [url | -]",
		Short: "Summarize a page, stdin or --text in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			req, err := summarizeRequest(opts, args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			override := domain.Settings{}
			if opts.provider != "" {
				id, ok := settings.ParseProvider(opts.provider)
				if !ok {
					return fmt.Errorf("unknown provider %q", opts.provider)
				}
				override.Provider = id
			}

			store := settings.Layered{
				Base:     settings.Static(cfg.DefaultSettings()),
				Override: settings.Static(override),
			}
			terminal := display.NewTerminal(cmd.ErrOrStderr(), cmd.OutOrStdout())

			service := newComponents(cfg, log).summarizer(cfg, store, terminal, terminal, cliKeyGuidance, log)

			return service.Summarize(ctx, req)
		},
	}

	command.Flags().StringVar(&opts.text, "text", "", "Text to summarize instead of a URL")
	command.Flags().StringVar(&opts.provider, "provider", "", "Provider to use: groq or gemini")

	return command
}

func summarizeRequest(opts *summarizeOptions, args []string, stdin io.Reader) (summarizer.Request, error) {
	req := summarizer.Request{Target: display.TerminalTarget}

	switch {
	case strings.TrimSpace(opts.text) != "":
		req.Text = opts.text
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return summarizer.Request{}, fmt.Errorf("read stdin: %w", err)
		}
		req.Text = string(data)
		if strings.TrimSpace(req.Text) == "" {
			return summarizer.Request{}, errors.New("stdin is empty")
		}
	case len(args) == 1:
		req.URL = args[0]
	default:
		return summarizer.Request{}, errors.New("pass a URL, - for stdin or --text")
	}

	return req, nil
}

func cliKeyGuidance(id domain.ProviderID) string {
	return fmt.Sprintf("Set %s_API_KEY in the environment.", strings.ToUpper(string(id)))
}
