package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
	"github.com/gdrive-assistant/gdrive-assistant/internal/vectorstore"
)

// SearchOptions collects the flags of the search command.
type SearchOptions struct {
	TopK int
}

func (opts *SearchOptions) AddFlags(f *pflag.FlagSet) {
	f.IntVarP(&opts.TopK, "top-k", "k", 0, "number of results (default TOP_K)")
}

func newSearchCommand() *cobra.Command {
	var opts SearchOptions

	cmd := &cobra.Command{
		Use:   "search [flags] QUERY...",
		Short: "Query the vector store",
		Long: `
The search command embeds the query, retrieves the closest indexed chunks
and prints them as a context block. Useful for checking what an ingest run
actually stored.
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg := settings
			topK := opts.TopK
			if topK <= 0 {
				topK = cfg.TopK
			}

			embedder := vectorstore.NewRESTEmbedder(cfg.EmbedURL, cfg.EmbedModel)
			store, err := vectorstore.New(cfg, embedder)
			if err != nil {
				return errors.Fatalf("vector store init failed: %v", err)
			}

			query := strings.Join(args, " ")
			hits, err := store.Search(c.Context(), query, topK)
			if err != nil {
				return err
			}
			if len(hits) == 0 {
				fmt.Println("no results")
				return nil
			}

			fmt.Println(vectorstore.BuildContext(hits, cfg.MaxContextChars))
			return nil
		},
	}

	opts.AddFlags(cmd.Flags())
	return cmd
}
