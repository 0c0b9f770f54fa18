// Package main is the command-line front end for the office utilities.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/toricodesthings/officetools/internal/app"
	"github.com/toricodesthings/officetools/internal/column"
	"github.com/toricodesthings/officetools/internal/config"
	"github.com/toricodesthings/officetools/internal/extract"
	"github.com/toricodesthings/officetools/internal/report"
	"github.com/toricodesthings/officetools/internal/sheets"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	if err := newRootCmd(cfg, logger).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg config.Config, logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:          "officetools",
		Short:        "Spreadsheet, document and report helpers",
		SilenceUsage: true,
	}
	root.AddCommand(
		newColumnCmd(cfg),
		newSplitCmd(cfg),
		newCountCmd(cfg, logger),
		newReportCmd(cfg),
	)
	return root
}

func newColumnCmd(cfg config.Config) *cobra.Command {
	var keywords string
	cmd := &cobra.Command{
		Use:   "column [input.xlsx]",
		Short: "Print the values under the first header matching a keyword",
		Long: `column scans the first sheet for a cell equal to one of the keywords and
prints the cells below it, quoted and CRLF separated, ready to paste.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kws := column.ParseKeywords(keywords)
			if len(kws) == 0 {
				kws = cfg.File.Column.Keywords
			}

			f, err := openWorkbook(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := column.Extract(f, kws)
			if errors.Is(err, column.ErrNoData) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %q found at %s but there is no data below it\n", res.Keyword, res.Cell)
				return nil
			}
			if err != nil {
				return fmt.Errorf("%s: %w (keywords: %s)", args[0], err, strings.Join(kws, ", "))
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%q found at %s!%s, %d values\n", res.Keyword, res.Sheet, res.Cell, len(res.Values))
			_, err = io.WriteString(cmd.OutOrStdout(), res.Text)
			return err
		},
	}
	cmd.Flags().StringVarP(&keywords, "keywords", "k", "", "Comma separated header keywords (default: configured list)")
	return cmd
}

func newSplitCmd(cfg config.Config) *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "split [input.xlsx]",
		Short: "Write every sheet of a workbook to its own file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if root == "" {
				root = cfg.SplitOutputRoot
			}
			f, err := openWorkbook(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := sheets.Split(f, args[0], root)
			if err != nil {
				return fmt.Errorf("split failed: %w", err)
			}
			for _, p := range res.Files {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&root, "output", "o", "", "Directory the split folder is created in (default: SPLIT_OUTPUT_ROOT)")
	return cmd
}

func newCountCmd(cfg config.Config, logger *slog.Logger) *cobra.Command {
	var text string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "count [file]",
		Short: "Count words in a document or in --text",
		Args: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("text") {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if cmd.Flags().Changed("text") {
				fmt.Fprintf(out, "Word count: %d\n", extract.CountWords(text))
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()

			res, err := app.Counter(cfg, logger).CountFile(ctx, args[0])
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(res); encErr != nil {
					return encErr
				}
				return err
			}
			if err != nil {
				if errors.Is(err, extract.ErrUnsupported) {
					return fmt.Errorf("unsupported file type: %s", filepath.Ext(args[0]))
				}
				fmt.Fprintln(out, res.Preview)
				fmt.Fprintln(out, "Word count: 0")
				return err
			}
			fmt.Fprintf(out, "%s file: %s\n\n%s\nWord count: %d\n", res.Label, filepath.Base(args[0]), res.Preview, res.WordCount)
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Count words in this text instead of a file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	return cmd
}

func newReportCmd(cfg config.Config) *cobra.Command {
	var outputPath string
	var preview bool
	cmd := &cobra.Command{
		Use:   "report [export.csv]",
		Short: "Summarize an issue export into a per-project workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.Open(args[0])
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("file not found: %s", args[0])
				}
				return err
			}
			defer in.Close()

			sum, err := app.Summarizer(cfg).Summarize(in)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			if preview {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"records": sum.Preview(5), "aggregates": sum.Aggregates})
			}

			if outputPath == "" {
				outputPath = report.DefaultFileName
			}
			book, err := sum.Workbook()
			if err != nil {
				return err
			}
			out, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			if _, err := io.Copy(out, book); err != nil {
				out.Close()
				return fmt.Errorf("failed to write output: %w", err)
			}
			if err := out.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d rows, %d projects)\n", outputPath, len(sum.Records), len(sum.Aggregates)-1)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output workbook path (default: "+report.DefaultFileName+")")
	cmd.Flags().BoolVar(&preview, "preview", false, "Print the first rows and the summary as JSON instead")
	return cmd
}

func openWorkbook(path string) (*excelize.File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
