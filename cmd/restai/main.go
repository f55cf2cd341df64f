// Copyright 2025 stophobia
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

	"github.com/stophobia/restai"
	"github.com/stophobia/restai/ai"
	"github.com/stophobia/restai/server"
)

func main() {
	// Optional; flags and real env still win over .env values
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "restai",
		Usage: "Multi-tenant retrieval-augmented answering service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Data directory for project stores and uploads",
				Value:   "./data",
				EnvVars: []string{"RESTAI_DATA"},
			},
			&cli.StringFlag{
				Name:    "ai-host",
				Usage:   "OpenAI-compatible service host URL",
				Value:   "http://localhost:11434/v1",
				EnvVars: []string{"RESTAI_AI_HOST"},
			},
			&cli.StringFlag{
				Name:    "ai-token",
				Usage:   "API token for the AI service",
				Value:   "none",
				EnvVars: []string{"RESTAI_AI_TOKEN", "OPENAI_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				Value:   "embeddinggemma",
				EnvVars: []string{"RESTAI_EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "model",
				Usage:   "Chat model name for answer generation",
				Value:   "qwen2.5:3b",
				EnvVars: []string{"RESTAI_MODEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Aliases: []string{"a"},
						Usage:   "Listen address",
						Value:   ":9000",
						EnvVars: []string{"RESTAI_ADDR"},
					},
				},
			},
			{
				Name:      "ingest",
				Usage:     "Ingest a file or URL into a project",
				ArgsUsage: "<path-or-url>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "project",
						Aliases:  []string{"p"},
						Usage:    "Project name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "URL fetch strategy (fetch, render, crawl)",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Ask a one-shot question against a project",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "project",
						Aliases:  []string{"p"},
						Usage:    "Project name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of chunks to retrieve",
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed all chunks of a project in place",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "project",
						Aliases:  []string{"p"},
						Usage:    "Project name",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openBrain(c *cli.Context) (*restai.Brain, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithToken(c.String("ai-token")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithModel(c.String("model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	brain, err := restai.NewBrain(c.String("data"), restai.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}
	return brain, nil
}

func serveCommand(c *cli.Context) error {
	brain, err := openBrain(c)
	if err != nil {
		return err
	}
	defer brain.Close()

	srv := server.NewServer(brain)
	return srv.Listen(c.String("addr"))
}

func ingestCommand(c *cli.Context) error {
	target := c.Args().First()
	if target == "" {
		return fmt.Errorf("path or URL argument is required")
	}

	brain, err := openBrain(c)
	if err != nil {
		return err
	}
	defer brain.Close()

	ctx := context.Background()
	project := c.String("project")

	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		chunkIds, err := brain.IngestURL(ctx, project, target, c.String("strategy"))
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		fmt.Printf("Ingested %d chunks from %s\n", len(chunkIds), target)
		return nil
	}

	chunkIds, err := brain.IngestFile(ctx, project, target, "")
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	fmt.Printf("Ingested %d chunks from %s\n", len(chunkIds), target)
	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")
	if question == "" {
		return fmt.Errorf("question argument is required")
	}

	brain, err := openBrain(c)
	if err != nil {
		return err
	}
	defer brain.Close()

	result, err := brain.Question(context.Background(), c.String("project"), restai.QuestionInput{
		Question: question,
		K:        c.Int("k"),
	})
	if err != nil {
		return fmt.Errorf("question failed: %w", err)
	}

	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		seen := make(map[string]bool)
		for _, chunk := range result.Sources {
			if !seen[chunk.Source] {
				seen[chunk.Source] = true
				fmt.Printf("  %s\n", chunk.Source)
			}
		}
	}
	return nil
}

func reindexCommand(c *cli.Context) error {
	brain, err := openBrain(c)
	if err != nil {
		return err
	}
	defer brain.Close()

	if err := brain.Reindex(context.Background(), c.String("project"), os.Stderr); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
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
