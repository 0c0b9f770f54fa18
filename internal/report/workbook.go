package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	ContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	DefaultFileName = "project_summary.xlsx"
)

// Labels names the headers and sheets of the generated workbook. Input
// column names are reused for the projected columns.
type Labels struct {
	WordCount      string
	Language       string
	RequestCount   string
	WordCountTotal string
	Total          string
	RawSheet       string
	SummarySheet   string
}

func DefaultLabels() Labels {
	return Labels{
		WordCount:      "Word Count",
		Language:       "Source Language",
		RequestCount:   "Request Count",
		WordCountTotal: "Word Count Total",
		Total:          TotalMarker,
		RawSheet:       "Raw Data",
		SummarySheet:   "Project Summary",
	}
}

// WriteWorkbook renders the projected records and the aggregates as a
// two-sheet workbook held in memory. Null values become empty cells.
func WriteWorkbook(records []Record, aggregates []ProjectAggregate, cols Columns, labels Labels) (*bytes.Reader, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), labels.RawSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(labels.SummarySheet); err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	raw := [][]any{{cols.Project, cols.Summary, cols.Due, cols.Created, labels.WordCount, labels.Language}}
	for _, r := range records {
		raw = append(raw, []any{str(r.ProjectName), str(r.Summary), str(r.Due), str(r.Created), num(r.WordCount), str(r.Language)})
	}
	if err := writeRows(f, labels.RawSheet, raw); err != nil {
		return nil, err
	}

	summary := [][]any{{cols.Project, labels.RequestCount, labels.WordCountTotal}}
	for _, a := range aggregates {
		name := str(a.ProjectName)
		if a.Total {
			name = labels.Total
		}
		summary = append(summary, []any{name, a.RequestCount, a.WordCountTotal})
	}
	if err := writeRows(f, labels.SummarySheet, summary); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return bytes.NewReader(buf.Bytes()), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("%s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func str(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func num(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
