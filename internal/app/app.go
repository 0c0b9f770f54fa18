// Package app wires configuration into the components shared by the server
// and the CLI.
package app

import (
	"log/slog"

	"github.com/toricodesthings/officetools/internal/config"
	"github.com/toricodesthings/officetools/internal/extract"
	officeextractor "github.com/toricodesthings/officetools/internal/extractors/office"
	pdfextractor "github.com/toricodesthings/officetools/internal/extractors/pdf"
	plaintextextractor "github.com/toricodesthings/officetools/internal/extractors/plaintext"
	"github.com/toricodesthings/officetools/internal/report"
)

// Registry registers one extractor per supported document format.
func Registry(cfg config.Config, logger *slog.Logger) *extract.Registry {
	registry := extract.NewRegistry()

	var source pdfextractor.PageSource = pdfextractor.Native{}
	if cfg.PDFBackend == "poppler" {
		source = pdfextractor.Poppler{PageTimeout: cfg.PDFToTextTimeout, Workers: cfg.PDFPageWorkers, Logger: logger}
	}

	registry.Register(officeextractor.NewDOCX(cfg.MaxUploadBytes))
	registry.Register(officeextractor.NewPPTX(cfg.MaxUploadBytes))
	registry.Register(officeextractor.NewXLSX(cfg.MaxSpreadsheetBytes))
	registry.Register(pdfextractor.New(source, cfg.MaxUploadBytes))
	registry.Register(plaintextextractor.New(cfg.MaxTextBytes))
	return registry
}

func Counter(cfg config.Config, logger *slog.Logger) *extract.Counter {
	return extract.NewCounter(Registry(cfg, logger), cfg.MaxUploadBytes)
}

// Summarizer applies the configured column names, labels and encoding.
func Summarizer(cfg config.Config) report.Summarizer {
	c, l := cfg.File.Report.Columns, cfg.File.Report.Labels
	return report.Summarizer{
		Columns: report.Columns{Project: c.Project, Summary: c.Summary, Due: c.Due, Created: c.Created},
		Labels: report.Labels{
			WordCount:      l.WordCount,
			Language:       l.Language,
			RequestCount:   l.RequestCount,
			WordCountTotal: l.WordCountTotal,
			Total:          l.Total,
			RawSheet:       l.RawSheet,
			SummarySheet:   l.SummarySheet,
		},
		Encoding: cfg.ReportCSVEncoding,
	}
}
