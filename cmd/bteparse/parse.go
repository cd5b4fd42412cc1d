package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/bteparse/internal/doctree"
	"github.com/dgallion1/bteparse/internal/engine"
	"github.com/dgallion1/bteparse/internal/parser"
	"github.com/dgallion1/bteparse/internal/render"
	"github.com/dgallion1/bteparse/internal/validate"
)

var (
	parseFormat    string
	parseOut       string
	parseType      string
	parseYear      int
	parseNumber    string
	parseSourceURL string
	parseValidate  bool
	parseNoFallbk  bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <file.pdf>",
	Short: "Parse one bulletin PDF and print its record",
	Long: `Parse a local bulletin PDF and print the resulting record as JSON,
Markdown or HTML, or write it as a DOCX file.

Type, year and number are read from the file name when it follows the
published convention (bte5_2024.pdf, sep3_2024.pdf); flags override them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		src := engine.Source{URL: parseSourceURL}
		if t, year, number, ok := parser.InferSource(filepath.Base(path)); ok {
			src.Type, src.Year, src.Number = t, year, number
		}
		if parseType != "" {
			src.Type = doctree.DocType(parseType)
			if !src.Type.Valid() {
				return fmt.Errorf("unknown type %q (want issue or offprint)", parseType)
			}
		}
		if src.Type == "" {
			src.Type = doctree.TypeIssue
		}
		if parseYear > 0 {
			src.Year = parseYear
		}
		if parseNumber != "" {
			src.Number = parseNumber
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		log := newLogger(cmd.ErrOrStderr())
		pages, err := newDecoder(!parseNoFallbk).Decode(f)
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		rec, st := engine.ParseWithStats(pages, src)
		log.Info("parsed document",
			"file", path,
			"pages", len(pages),
			"raw_lines", st.RawLines,
			"kept_lines", st.KeptLines,
			"diplomas", st.Diplomas,
			"chapters", st.Chapters,
			"articles", st.Articles,
		)

		if parseValidate {
			if err := validate.Record(&rec); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if parseOut != "" {
			file, err := os.Create(parseOut)
			if err != nil {
				return err
			}
			defer file.Close()
			out = file
		}
		return writeRecord(out, &rec, parseFormat)
	},
}

func writeRecord(w io.Writer, rec *doctree.Record, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(rec)
	case "markdown", "md":
		_, err := io.WriteString(w, render.Markdown(rec))
		return err
	case "html":
		page, err := render.HTML(rec)
		if err != nil {
			return err
		}
		_, err = w.Write(page)
		return err
	case "docx":
		return render.DOCX(w, rec)
	default:
		return fmt.Errorf("unknown format %q (want json, markdown, html or docx)", format)
	}
}

func init() {
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "json", "Output format (json, markdown, html, docx)")
	parseCmd.Flags().StringVarP(&parseOut, "out", "o", "", "Write output to this file instead of stdout")
	parseCmd.Flags().StringVar(&parseType, "type", "", "Document type (issue, offprint)")
	parseCmd.Flags().IntVar(&parseYear, "year", 0, "Declared year, used when the date cannot be read")
	parseCmd.Flags().StringVar(&parseNumber, "number", "", "Declared number, used when the masthead cannot be read")
	parseCmd.Flags().StringVar(&parseSourceURL, "source-url", "", "Source URL recorded on the document")
	parseCmd.Flags().BoolVar(&parseValidate, "validate", false, "Fail if the record does not pass schema validation")
	parseCmd.Flags().BoolVar(&parseNoFallbk, "no-pdftotext", false, "Do not fall back to pdftotext when decoding fails")

	rootCmd.AddCommand(parseCmd)
}
