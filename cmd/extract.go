package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pagegist/internal/extract"
	"pagegist/internal/source"
)

const extractConcurrency = 4

type extracted struct {
	meta extract.Metadata
	text string
	err  error
}

func newExtractCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <url>...",
		Short: "Print the text that would be sent to the provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			fetcher := source.NewFetcher(cfg.FetchTimeout, log)
			results := make([]extracted, len(args))

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(extractConcurrency)
			for i, url := range args {
				g.Go(func() error {
					doc, err := fetcher.Fetch(gctx, url)
					if err != nil {
						// One bad URL does not cancel the others.
						results[i].err = err
						return nil
					}
					results[i] = extracted{
						meta: extract.ReadMetadata(doc),
						text: extract.Extract(doc),
					}
					return nil
				})
			}
			_ = g.Wait()

			out := cmd.OutOrStdout()
			var failed int
			for i, r := range results {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "URL: %s\n", args[i])
				if r.err != nil {
					failed++
					fmt.Fprintf(out, "Error: %v\n", r.err)
					continue
				}
				if r.meta.Title != "" {
					fmt.Fprintf(out, "Title: %s\n", r.meta.Title)
				}
				if r.meta.Description != "" {
					fmt.Fprintf(out, "Description: %s\n", r.meta.Description)
				}
				fmt.Fprintf(out, "Characters: %d\n\n%s\n", len([]rune(r.text)), strings.TrimSpace(r.text))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d URLs failed", failed, len(args))
			}

			return nil
		},
	}
}
