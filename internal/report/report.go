// Package report turns an issue-tracker CSV export into a per-project
// request and word-count summary workbook.
package report

import (
	"bytes"
	"io"
)

type Summarizer struct {
	Columns  Columns
	Labels   Labels
	Encoding string
}

func NewSummarizer() Summarizer {
	return Summarizer{Columns: DefaultColumns(), Labels: DefaultLabels(), Encoding: "utf-8"}
}

type Summary struct {
	Records    []Record           `json:"records"`
	Aggregates []ProjectAggregate `json:"aggregates"`

	columns Columns
	labels  Labels
}

// Summarize reads, projects and aggregates one export.
func (s Summarizer) Summarize(r io.Reader) (*Summary, error) {
	t, err := ReadCSV(r, s.Encoding)
	if err != nil {
		return nil, err
	}
	records := Project(t, s.Columns)
	return &Summary{
		Records:    records,
		Aggregates: Aggregate(records),
		columns:    s.Columns,
		labels:     s.Labels,
	}, nil
}

// Workbook renders the summary as the downloadable spreadsheet.
func (s *Summary) Workbook() (*bytes.Reader, error) {
	return WriteWorkbook(s.Records, s.Aggregates, s.columns, s.labels)
}

// Preview returns the first n projected records.
func (s *Summary) Preview(n int) []Record {
	if n < 0 || n > len(s.Records) {
		n = len(s.Records)
	}
	return s.Records[:n]
}
