package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/bteparse/internal/parser"
)

var verbose bool

// newDecoder is swapped in tests.
var newDecoder = func(fallbackPdftotext bool) parser.Decoder {
	return &parser.PDFDecoder{FallbackPdftotext: fallbackPdftotext}
}

var rootCmd = &cobra.Command{
	Use:   "bteparse",
	Short: "Structure Boletim do Trabalho e Emprego PDFs into document trees",
	Long: `bteparse turns BTE bulletin PDFs into hierarchical records
(diplomas, chapters, articles) with a normalized reference and ISO date.

Use "parse" for a single local file and "crawl" to discover, fetch and
store every bulletin linked from an index page. The HTTP service lives in
cmd/server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
