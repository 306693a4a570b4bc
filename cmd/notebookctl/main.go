// Command notebookctl chunks, queries and mind-maps local files without the
// server stack. Model calls still go to the configured LLM provider.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Htaaxx/NotebookLLM/internal/bootstrap"
	"github.com/Htaaxx/NotebookLLM/internal/config"
	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
	"github.com/Htaaxx/NotebookLLM/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "notebookctl",
		Short:         "Work with study documents from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if verbose {
				level = "debug"
			}
			slog.SetDefault(logging.New(os.Stderr, "notebookctl", level, "text"))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline progress to stderr")

	root.AddCommand(newChunkCommand(), newAskCommand(), newMindmapCommand())
	return root
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newChunkCommand() *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "chunk <file>",
		Short: "Split a document into chunks and print them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.ChunkStrategy = strategy

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			name := filepath.Base(args[0])
			pages, err := bootstrap.NewExtractor().Extract(cmd.Context(), data, "", name)
			if err != nil {
				return err
			}

			embedder, _, err := bootstrap.NewLanguageModels(cfg, bootstrap.NewGatewayExecutor(cfg, nil))
			if err != nil {
				return err
			}
			chunker, err := bootstrap.NewChunker(cfg, embedder)
			if err != nil {
				return err
			}

			total := 0
			for _, page := range pages {
				chunks, err := chunker.Split(cmd.Context(), page.Text)
				if err != nil {
					return fmt.Errorf("split page %d: %w", page.PageNumber, err)
				}
				for _, chunk := range chunks {
					total++
					fmt.Fprintln(cmd.OutOrStdout(), renderChunk(total, page.PageNumber, chunk))
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render(fmt.Sprintf("%d chunks from %d pages", total, len(pages))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "semantic", "Chunking strategy: semantic or recursive")
	return cmd
}

func newAskCommand() *cobra.Command {
	var files []string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from local files with citations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nb, ids, err := openNotebook(cmd.Context(), files)
			if err != nil {
				return err
			}
			defer nb.Close()

			answer, err := nb.query.Answer(cmd.Context(), domain.Question{
				UserID:      localUser,
				Question:    strings.Join(args, " "),
				DocumentIDs: ids,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderAnswer(answer))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "Document to index (repeatable)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newMindmapCommand() *cobra.Command {
	var (
		files    []string
		clusters int
	)

	cmd := &cobra.Command{
		Use:   "mindmap",
		Short: "Cluster local files into a markdown mindmap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			nb, ids, err := openNotebook(cmd.Context(), files)
			if err != nil {
				return err
			}
			defer nb.Close()

			mindmap, err := nb.mindmap.Build(cmd.Context(), domain.MindmapRequest{
				UserID:      localUser,
				DocumentIDs: ids,
				NumClusters: clusters,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mindmap.Markdown)
			if mindmap.FailedClusters > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render(fmt.Sprintf("%d of %d topics could not be summarized", mindmap.FailedClusters, mindmap.ClusterCount)))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "Document to index (repeatable)")
	cmd.Flags().IntVarP(&clusters, "clusters", "k", 0, "Number of topics (0 uses the configured default)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func openNotebook(ctx context.Context, files []string) (*notebook, []string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	embedder, generator, err := bootstrap.NewLanguageModels(cfg, bootstrap.NewGatewayExecutor(cfg, nil))
	if err != nil {
		return nil, nil, err
	}
	nb, err := newNotebook(cfg, embedder, generator)
	if err != nil {
		return nil, nil, err
	}
	ids, err := nb.addFiles(ctx, files)
	if err != nil {
		_ = nb.Close()
		return nil, nil, err
	}
	return nb, ids, nil
}
