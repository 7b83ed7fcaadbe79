// Copyright 2025 Arclight Labs
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
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	kbase "github.com/arclight-labs/kbase"
	"github.com/arclight-labs/kbase/ai"
	"github.com/arclight-labs/kbase/rank"
	"github.com/arclight-labs/kbase/render"
	"github.com/arclight-labs/kbase/server"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// Missing .env is fine; flags and real env still apply.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "kbase",
		Usage: "Knowledge-base retrieval engine with lexical and vector search",
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
				Usage:   "Path to the entry snapshot JSON document",
				Value:   "data/entries.json",
				EnvVars: []string{"KBASE_DATA"},
			},
			&cli.StringFlag{
				Name:    "cache",
				Usage:   "Path to the embedding cache JSON document",
				Value:   "data/embeddings.json",
				EnvVars: []string{"KBASE_CACHE"},
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Provider API key; empty disables remote search and narration",
				EnvVars: []string{"OPENAI_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "ai-host",
				Usage:   "OpenAI-compatible API base URL",
				Value:   "https://api.openai.com/v1",
				EnvVars: []string{"KBASE_AI_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				Value:   "text-embedding-3-small",
				EnvVars: []string{"KBASE_EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "generator-model",
				Usage:   "Narration model name",
				Value:   "gpt-4o-mini",
				EnvVars: []string{"KBASE_GENERATOR_MODEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search the knowledge base",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "Filter by category (\"all\" or empty disables)",
					},
					&cli.StringFlag{
						Name:  "from",
						Usage: "Inclusive lower date bound (YYYY-MM-DD)",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "Inclusive upper date bound (YYYY-MM-DD)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "local",
						Usage: "Force the lexical strategy",
					},
					&cli.BoolFlag{
						Name:  "narrate",
						Usage: "Include a generated narration of the results",
					},
					&cli.BoolFlag{
						Name:  "markdown",
						Usage: "Render results as escaped chat markup instead of JSON",
					},
					&cli.BoolFlag{
						Name:  "trace",
						Usage: "Log each stage of the ranking pipeline",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the JSON search API over HTTP",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "Listen address",
						Value:   ":8080",
						EnvVars: []string{"KBASE_ADDR"},
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Print aggregate snapshot statistics",
				Action: statsCommand,
			},
			{
				Name:   "random",
				Usage:  "Print a random entry",
				Action: randomCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "Restrict to a category",
					},
				},
			},
			{
				Name:   "build-cache",
				Usage:  "Build the embedding cache for the current snapshot",
				Action: buildCacheCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newService(c *cli.Context) (*kbase.Service, error) {
	cfg := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGeneratorModel(c.String("generator-model")),
		ai.WithAPIKey(c.String("api-key")),
	)

	return kbase.NewService(c.String("data"), c.String("cache"), kbase.WithAIConfig(cfg))
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))

	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	req := kbase.SearchRequest{
		Query:            query,
		Category:         c.String("category"),
		DateFrom:         c.String("from"),
		DateTo:           c.String("to"),
		Limit:            c.Int("limit"),
		LocalOnly:        c.Bool("local"),
		IncludeNarration: c.Bool("narrate"),
	}

	var monitor rank.Monitor
	if c.Bool("trace") {
		monitor = &traceMonitor{logger: slog.Default().With("component", "trace")}
	}

	res, err := svc.SearchWithMonitor(context.Background(), req, monitor)
	if err != nil {
		return err
	}

	if c.Bool("markdown") {
		fmt.Println(render.Result(res))
		return nil
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func serveCommand(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	srv := server.New(c.String("addr"), svc)
	return srv.ListenAndServe()
}

func statsCommand(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	stats, err := svc.Stats()
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func randomCommand(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	entry, err := svc.Random(c.String("category"))
	if err != nil {
		return err
	}
	if entry == nil {
		fmt.Println("no entries found")
		return nil
	}

	out, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func buildCacheCommand(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.RebuildCache(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "embedding cache built")
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
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
