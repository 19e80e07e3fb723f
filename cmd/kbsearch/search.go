package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/poiesic/kbsearch/core"
	"github.com/urfave/cli/v2"
)

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return fmt.Errorf("query text is required")
	}

	app, _, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	searcher := app.Searcher()
	q := searcher.DefaultQuery(text)
	if c.IsSet("kb") {
		q.KnowledgeBase = c.String("kb")
	}
	if c.IsSet("top-k") {
		q.TopK = c.Int("top-k")
	}
	if c.IsSet("semantic-ratio") {
		q.SemanticWeight = c.Float64("semantic-ratio")
	}
	if err := q.Validate(searcher.Defaults().MaxTopK); err != nil {
		return err
	}

	w := c.App.Writer
	start := time.Now()
	hits, ok := searcher.Search(ctx, q)
	elapsed := time.Since(start)
	if !ok {
		return cli.Exit("Search failed, no results. Please try again.", 1)
	}

	fmt.Fprintf(w, "Found %d results in %d ms\n", len(hits), elapsed.Milliseconds())
	if len(hits) == 0 {
		return nil
	}

	if c.Bool("no-enrich") {
		for i, hit := range hits {
			printHit(w, i+1, core.EnrichedHit{SearchHit: hit})
		}
		return nil
	}
	for i, hit := range app.Enricher().EnrichHits(ctx, hits) {
		printHit(w, i+1, hit)
	}
	return nil
}

func printHit(w io.Writer, n int, hit core.EnrichedHit) {
	fmt.Fprintf(w, "\n%d. %s\n", n, hit.Title)
	for _, f := range []struct{ label, value string }{
		{"Author", hit.Author},
		{"Organization", hit.Organization},
		{"Industry", hit.Industry},
		{"Published", hit.PublishTime},
		{"Source", hit.SourceURL},
		{"PDF", hit.PDFLink},
		{"File", hit.FileURL},
		{"Summary", hit.Summary},
		{"Keywords", hit.Keywords},
	} {
		if f.value != "" {
			fmt.Fprintf(w, "   %s: %s\n", f.label, f.value)
		}
	}
}

func indexesCommand(c *cli.Context) error {
	app, _, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	uids := app.Searcher().ListIndexes(context.Background())
	if len(uids) == 0 {
		fmt.Fprintln(c.App.Writer, "No knowledge bases found")
		return nil
	}
	for _, uid := range uids {
		fmt.Fprintln(c.App.Writer, uid)
	}
	return nil
}

func providersCommand(c *cli.Context) error {
	app, _, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	registry := app.Providers()
	if key := c.String("use"); key != "" {
		if err := registry.SetActive(key); err != nil {
			return err
		}
	}
	printProviders(c.App.Writer, registry.ListAvailable(), registry.ActiveKey())
	return nil
}

func printProviders(w io.Writer, keys []string, active string) {
	if len(keys) == 0 {
		fmt.Fprintln(w, "No chat providers configured")
		return
	}
	for _, key := range keys {
		marker := " "
		if key == active {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s\n", marker, key)
	}
}
