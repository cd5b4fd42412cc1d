package main

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/bteparse/internal/config"
	"github.com/dgallion1/bteparse/internal/fetch"
	"github.com/dgallion1/bteparse/internal/parser"
	"github.com/dgallion1/bteparse/internal/pipeline"
	"github.com/dgallion1/bteparse/internal/store"
)

var (
	crawlDB          string
	crawlLimit       int
	crawlMinInterval time.Duration
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <index-url>",
	Short: "Discover, fetch, parse and store every bulletin linked from an index page",
	Long: `Fetch an index page, collect the PDF links on it and run each document
through fetch, decode, parse, validate and store. One failing document is
reported and skipped; the crawl carries on with the rest.

Retrieval settings (FETCH_TIMEOUT, FETCH_MAX_RETRIES, USER_AGENT, DB_PATH)
come from the environment, as for the server.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := url.Parse(args[0])
		if err != nil || (index.Scheme != "http" && index.Scheme != "https") {
			return fmt.Errorf("index url must be an absolute http(s) URL: %q", args[0])
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := config.Load()
		if crawlDB != "" {
			cfg.DBPath = crawlDB
		}
		if cmd.Flags().Changed("min-interval") {
			cfg.FetchMinInterval = crawlMinInterval
		}
		log := newLogger(cmd.ErrOrStderr())

		docs, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer docs.Close()

		client := fetch.NewClient(fetch.Options{
			Timeout:     cfg.FetchTimeout,
			MinInterval: cfg.FetchMinInterval,
			MaxRetries:  cfg.FetchMaxRetries,
			MaxBytes:    cfg.MaxUploadBytes,
			UserAgent:   cfg.UserAgent,
		}, log)

		links, err := discover(ctx, client, index)
		if err != nil {
			return err
		}
		if crawlLimit > 0 && len(links) > crawlLimit {
			links = links[:crawlLimit]
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "found %d documents on %s\n", len(links), index)

		stats := pipeline.NewStats(0)
		w := pipeline.NewWorker(client, newDecoder(cfg.PDFFallbackPdftotext), docs, stats, log)
		for _, l := range links {
			if ctx.Err() != nil {
				break
			}
			job := pipeline.NewJob("", l.URL)
			job.Type, job.Year, job.Number = l.Type, l.Year, l.Number
			w.Process(ctx, job)

			snap := job.Snapshot()
			switch snap.Status {
			case pipeline.StatusFailed:
				fmt.Fprintf(out, "%-17s %s: %s\n", snap.Status, l.URL, strings.Join(snap.Progress.Errors, "; "))
			default:
				fmt.Fprintf(out, "%-17s %s %s\n", snap.Status, l.URL, snap.DocID)
			}
		}

		s := stats.Snapshot()
		fmt.Fprintf(out, "succeeded=%d failed=%d duplicates=%d\n", s.Succeeded, s.Failed, s.Duplicates)
		return ctx.Err()
	},
}

func discover(ctx context.Context, f pipeline.Fetcher, index *url.URL) ([]parser.Link, error) {
	page, err := f.Get(ctx, index.String())
	if err != nil {
		return nil, fmt.Errorf("fetch index: %w", err)
	}
	return parser.ExtractPDFLinks(bytes.NewReader(page), index)
}

func init() {
	crawlCmd.Flags().StringVar(&crawlDB, "db", "", "SQLite database path (default from DB_PATH)")
	crawlCmd.Flags().IntVarP(&crawlLimit, "limit", "n", 0, "Process at most this many documents (0 = all)")
	crawlCmd.Flags().DurationVar(&crawlMinInterval, "min-interval", time.Second, "Minimum delay between requests to the site")

	rootCmd.AddCommand(crawlCmd)
}
