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
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/poiesic/kbsearch"
	"github.com/poiesic/kbsearch/config"
	"github.com/poiesic/kbsearch/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

const metricsKey = "metrics"

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "kbsearch",
		Usage: "Hybrid knowledge base search and multi-provider chat",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the JSON config file (default: ./config.json or ./config/config.json)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve prometheus metrics on this address, e.g. :9090",
			},
		},
		Before: func(c *cli.Context) error {
			if err := setupLogger(c); err != nil {
				return err
			}
			return startMetrics(c)
		},
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search a knowledge base and summarize the hits",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "kb",
						Usage: "Knowledge base (index) to search (default from config)",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of results (default from config)",
					},
					&cli.Float64Flag{
						Name:  "semantic-ratio",
						Usage: "Weight of the semantic signal in [0, 1] (default from config)",
					},
					&cli.BoolFlag{
						Name:  "no-enrich",
						Usage: "Skip summary and keyword generation",
					},
				},
			},
			{
				Name:   "indexes",
				Usage:  "List the available knowledge bases",
				Action: indexesCommand,
			},
			{
				Name:   "providers",
				Usage:  "List configured chat providers",
				Action: providersCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "use",
						Usage: "Activate this provider before listing",
					},
				},
			},
			{
				Name:   "chat",
				Usage:  "Start an interactive chat",
				Action: chatCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "web",
						Usage: "Enable web search for new messages",
					},
					&cli.StringFlag{
						Name:  "provider",
						Usage: "Provider to start with (default from config)",
					},
				},
			},
		},
	}
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

// startMetrics registers metrics and serves them in the background when
// --metrics-addr is set.
func startMetrics(c *cli.Context) error {
	addr := c.String("metrics-addr")
	if addr == "" {
		return nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]interface{})
	}
	c.App.Metadata[metricsKey] = telemetry.NewMetrics(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "addr", addr, "err", err)
		}
	}()
	return nil
}

// openApp loads the config named by --config and wires an App.
func openApp(c *cli.Context) (*kbsearch.App, *config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	opts := []kbsearch.AppOption{kbsearch.WithLogger(slog.Default())}
	if m, ok := c.App.Metadata[metricsKey].(*telemetry.Metrics); ok {
		opts = append(opts, kbsearch.WithMetrics(m))
	}

	app, err := kbsearch.NewApp(cfg, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return app, cfg, nil
}
