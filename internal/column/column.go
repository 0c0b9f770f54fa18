// Package column finds a header cell in a workbook and copies the values
// beneath it as a clipboard-ready block.
package column

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrKeywordNotFound = errors.New("no cell matches any keyword")
	ErrNoData          = errors.New("no data below the matched cell")
)

type Result struct {
	Sheet   string   `json:"sheet"`
	Keyword string   `json:"keyword"`
	Cell    string   `json:"cell"`
	Values  []string `json:"values"`
	Text    string   `json:"text"`
}

// ParseKeywords splits a comma separated list, trimming blanks.
func ParseKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// Extract scans the first sheet row by row for the first cell equal to one
// of keywords and collects the column below it down to the last row.
func Extract(f *excelize.File, keywords []string) (Result, error) {
	sheet := f.GetSheetName(0)
	if sheet == "" {
		return Result{}, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", sheet, err)
	}

	want := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		want[k] = true
	}

	for r, row := range rows {
		for c, v := range row {
			if !want[v] {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return Result{}, err
			}
			res := Result{Sheet: sheet, Keyword: v, Cell: cell}
			if r == len(rows)-1 {
				return res, ErrNoData
			}
			for _, below := range rows[r+1:] {
				val := ""
				if c < len(below) {
					val = below[c]
				}
				res.Values = append(res.Values, val)
			}
			res.Text = Format(res.Values)
			return res, nil
		}
	}
	return Result{Sheet: sheet}, ErrKeywordNotFound
}

// Format quotes each value with CRLF line breaks inside it and joins them
// with CRLF, which spreadsheet apps paste back as one cell per value.
func Format(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		v = strings.ReplaceAll(v, "\r\n", "\n")
		quoted[i] = `"` + strings.ReplaceAll(v, "\n", "\r\n") + `"`
	}
	return strings.Join(quoted, "\r\n")
}
