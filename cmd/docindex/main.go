// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/docindex"
)

func main() {
	app := &cli.App{
		Name:  "docindex",
		Usage: "Document ingestion and semantic retrieval over a local vector store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Process a documents directory into the vector store",
				Action: ingestCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:     "docs",
						Usage:    "Directory of documents to ingest",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Target chunk size in characters",
						Value: 1000,
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Overlap between consecutive chunks in characters",
						Value: 200,
					},
					&cli.BoolFlag{
						Name:  "refresh",
						Usage: "Clear the collection and re-ingest from scratch",
					},
				),
			},
			{
				Name:      "query",
				Usage:     "Retrieve the most relevant chunks for a query",
				ArgsUsage: "<query text>",
				Action:    queryCommand,
				Flags: append(storeFlags(),
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of results to return",
						Value: 5,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity score, 0 disables filtering",
						Value: 0.7,
					},
				),
			},
			{
				Name:   "stats",
				Usage:  "Show collection statistics",
				Action: statsCommand,
				Flags:  storeFlags(),
			},
			{
				Name:      "gaps",
				Usage:     "Probe queries against the collection and report coverage gaps",
				ArgsUsage: "<query> [<query> ...]",
				Action:    gapsCommand,
				Flags:     storeFlags(),
			},
			{
				Name:   "backup",
				Usage:  "Write a JSON snapshot of the collection",
				Action: backupCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output file, defaults to stdout",
					},
				),
			},
			{
				Name:   "clear",
				Usage:  "Remove every record from the collection",
				Action: clearCommand,
				Flags:  storeFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// storeFlags are the flags shared by every command that opens the store.
func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to the vector store directory",
			Value:   "data/vectorstore",
		},
		&cli.StringFlag{
			Name:  "collection",
			Usage: "Collection name inside the store",
			Value: docindex.DefaultCollection,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.StringFlag{
			Name:  "api-key",
			Usage: "Embedding provider API key",
		},
	}
}

// buildConfig layers defaults, .env overrides and command line flags.
func buildConfig(c *cli.Context) *docindex.Config {
	cfg := docindex.NewConfig(
		docindex.WithDataDir(c.String("db")),
		docindex.WithCollection(c.String("collection")),
	)
	cfg.FromEnv()

	if host := c.String("embedding-host"); host != "" {
		cfg.EmbeddingHost = host
	}
	if model := c.String("embedding-model"); model != "" {
		cfg.EmbeddingModel = model
	}
	if key := c.String("api-key"); key != "" {
		cfg.APIKey = key
	}
	return cfg
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg := buildConfig(c)
	cfg.DocumentsRoot = c.String("docs")
	cfg.ChunkSize = c.Int("chunk-size")
	cfg.ChunkOverlap = c.Int("chunk-overlap")

	fmt.Fprintf(os.Stderr, "Store: %s\n", cfg.DataDir)
	fmt.Fprintf(os.Stderr, "Documents: %s\n", cfg.DocumentsRoot)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	corpus, err := docindex.Open(ctx, cfg, docindex.WithProgressWriter(os.Stderr))
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
	}
	defer corpus.Close()

	if c.Bool("refresh") {
		if err := corpus.Refresh(ctx); err != nil {
			return fmt.Errorf("refresh failed: %w", err)
		}
	}

	stats, err := corpus.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Collection %q holds %d chunks\n", stats.CollectionName, stats.TotalDocuments)
	return nil
}

func queryCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query text is required")
	}

	corpus, err := docindex.Open(ctx, buildConfig(c))
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
	}
	defer corpus.Close()

	results := corpus.Retriever().Retrieve(ctx, query, c.Int("top-k"), c.Float64("threshold"))
	if len(results) == 0 {
		fmt.Println("No relevant documents found")
		return nil
	}

	for i, result := range results {
		fmt.Printf("%d. [%.3f] %s\n", i+1, result.Score, result.Source)
		fmt.Printf("   %s\n\n", result.Content)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	ctx := context.Background()

	corpus, err := docindex.Open(ctx, buildConfig(c))
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
	}
	defer corpus.Close()

	stats, err := corpus.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Collection:      %s\n", stats.CollectionName)
	fmt.Printf("Documents:       %d\n", stats.TotalDocuments)
	fmt.Printf("Embedding model: %s\n", stats.EmbeddingModel)
	fmt.Printf("Chunk size:      %d\n", stats.ChunkSize)
	fmt.Printf("Chunk overlap:   %d\n", stats.ChunkOverlap)
	fmt.Printf("State:           %s\n", stats.State)
	return nil
}

func gapsCommand(c *cli.Context) error {
	ctx := context.Background()

	queries := c.Args().Slice()
	if len(queries) == 0 {
		return fmt.Errorf("at least one query is required")
	}

	corpus, err := docindex.Open(ctx, buildConfig(c))
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
	}
	defer corpus.Close()

	analysis := corpus.Retriever().IdentifyContentGaps(ctx, queries)

	fmt.Printf("Analyzed %d queries, %d potential gaps\n\n", analysis.TotalQueriesAnalyzed, analysis.GapCount)
	for _, gap := range analysis.PotentialGaps {
		fmt.Printf("  %q: %d results (best score %.3f)\n", gap.Query, gap.ResultCount, gap.BestScore)
	}
	fmt.Println()
	for _, rec := range analysis.Recommendations {
		fmt.Printf("- %s\n", rec)
	}
	return nil
}

func backupCommand(c *cli.Context) error {
	ctx := context.Background()

	corpus, err := docindex.Open(ctx, buildConfig(c))
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
	}
	defer corpus.Close()

	out := os.Stdout
	if path := c.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create backup file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := corpus.Backup(ctx, out); err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	return nil
}

func clearCommand(c *cli.Context) error {
	ctx := context.Background()

	corpus, err := docindex.Open(ctx, buildConfig(c))
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
	}
	defer corpus.Close()

	if err := corpus.Store().Clear(ctx); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Collection cleared")
	return nil
}

// setup loads a .env file when present and configures logging.
func setup(c *cli.Context) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env: %w", err)
	}

	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
