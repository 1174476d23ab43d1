package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	llmx "github.com/tanpawarit/link-companion-assistant/agent/llm"
	ragx "github.com/tanpawarit/link-companion-assistant/agent/rag"
	configx "github.com/tanpawarit/link-companion-assistant/pkg/config"
	openrouterx "github.com/tanpawarit/link-companion-assistant/pkg/openrouter"
)

func newIndexCmd() *cobra.Command {
	var (
		docsDir string
		outPath string
		chunk   int
		overlap int
		batch   int
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Chunk and embed .md/.txt documents into the JSONL retrieval index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := configx.New[DataConfig]("DATA")
			if err != nil {
				return fmt.Errorf("load data config: %w", err)
			}
			llmCfg, err := configx.New[llmx.Config]("LLM")
			if err != nil {
				return fmt.Errorf("load llm config: %w", err)
			}
			if docsDir == "" {
				docsDir = data.Docs
			}
			if outPath == "" {
				outPath = data.Index
			}

			embedCfg := llmCfg.EmbeddingClientConfig()
			client := openrouterx.NewClient(embedCfg)
			if client == nil {
				return errors.New("an embedding api key is required (LLM_EMBED_API_KEY or LLM_API_KEY)")
			}
			embedder, err := openrouterx.NewEmbedder(client, embedCfg.Model)
			if err != nil {
				return err
			}

			indexer, err := ragx.NewIndexer(embedder, ragx.WithChunking(chunk, overlap), ragx.WithEmbedBatch(batch))
			if err != nil {
				return err
			}
			n, err := indexer.BuildFile(cmd.Context(), docsDir, outPath)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d chunks to %s\n", n, outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&docsDir, "docs", "", "documents directory (overrides DATA_DOCS)")
	cmd.Flags().StringVar(&outPath, "out", "", "index output path (overrides DATA_INDEX)")
	cmd.Flags().IntVar(&chunk, "chunk", ragx.DefaultChunkChars, "chunk size in characters")
	cmd.Flags().IntVar(&overlap, "overlap", ragx.DefaultChunkOverlap, "overlap between chunks in characters")
	cmd.Flags().IntVar(&batch, "batch", 64, "texts per embedding request")
	return cmd
}
