package office

import (
	"context"
	"strconv"

	"github.com/toricodesthings/officetools/internal/extract"
	"github.com/xuri/excelize/v2"
)

type XLSXExtractor struct {
	maxBytes int64
}

func NewXLSX(maxBytes int64) *XLSXExtractor {
	return &XLSXExtractor{maxBytes: maxBytes}
}

func (e *XLSXExtractor) Name() string       { return "document/xlsx" }
func (e *XLSXExtractor) Label() string      { return "Excel" }
func (e *XLSXExtractor) MaxFileSize() int64 { return e.maxBytes }
func (e *XLSXExtractor) SupportedTypes() []string {
	return []string{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}
}
func (e *XLSXExtractor) SupportedExtensions() []string { return []string{".xlsx"} }

// Extract counts every non-empty cell of every sheet, row by row.
func (e *XLSXExtractor) Extract(ctx context.Context, job extract.Job) (extract.Result, error) {
	select {
	case <-ctx.Done():
		return extract.Result{Success: false}, ctx.Err()
	default:
	}

	f, err := excelize.OpenFile(job.LocalPath)
	if err != nil {
		return extract.Result{}, err
	}
	defer f.Close()

	sheets := f.GetSheetList()

	var tl extract.Tally
	cells := 0
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return extract.Result{}, err
		}
		for _, row := range rows {
			for _, cell := range row {
				if cell == "" {
					continue
				}
				tl.Add(cell)
				cells++
			}
		}
	}

	res := tl.Result(e, job, "native")
	res.Metadata = map[string]string{
		"sheets": strconv.Itoa(len(sheets)),
		"cells":  strconv.Itoa(cells),
	}
	return res, nil
}
