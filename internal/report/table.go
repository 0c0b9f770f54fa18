package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var ErrEmptyInput = errors.New("no columns to parse from file")

// Table is a parsed CSV export. Empty fields are nil.
type Table struct {
	Header []string
	Rows   [][]*string
	index  map[string]int
}

func NewTable(header []string, rows [][]*string) Table {
	t := Table{Header: header, Rows: rows, index: make(map[string]int, len(header))}
	for i, h := range header {
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
	return t
}

// Value returns the cell at row r of the first column with the given header.
// Unknown columns, out-of-range rows and short rows give nil.
func (t Table) Value(r int, name string) *string {
	col, ok := t.index[name]
	if !ok || r < 0 || r >= len(t.Rows) || col >= len(t.Rows[r]) {
		return nil
	}
	return t.Rows[r][col]
}

// ReadCSV parses a CSV export. encodingLabel is a WHATWG label such as
// "utf-8" or "euc-kr". A byte order mark overrides it.
func ReadCSV(r io.Reader, encodingLabel string) (Table, error) {
	enc, _ := charset.Lookup(encodingLabel)
	if enc == nil {
		return Table{}, fmt.Errorf("unknown encoding %q", encodingLabel)
	}

	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return Table{}, ErrEmptyInput
	}
	if err != nil {
		return Table{}, fmt.Errorf("read csv header: %w", err)
	}

	var rows [][]*string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read csv: %w", err)
		}
		row := make([]*string, len(rec))
		for i, v := range rec {
			if v != "" {
				row[i] = &rec[i]
			}
		}
		rows = append(rows, row)
	}
	return NewTable(header, rows), nil
}
